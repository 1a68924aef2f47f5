package clickhouse

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fund-economics-lab/internal/domain"
	"fund-economics-lab/internal/storage"
)

func TestFeeProjectionStore_InsertBulkAndGet(t *testing.T) {
	conn, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewFeeProjectionStore(conn)
	ctx := context.Background()

	rows := []*domain.FeeProjectionRow{
		{RunID: "run-1", Year: 2, Rate: 0.02, Fee: 2_000_000, Basis: domain.BasisCommittedCapital},
		{RunID: "run-1", Year: 1, Rate: 0.02, Fee: 2_000_000, Basis: domain.BasisCommittedCapital},
		{RunID: "run-2", Year: 1, Rate: 0.015, Fee: 750_000, Basis: domain.BasisNAV},
	}
	require.NoError(t, store.InsertBulk(ctx, rows))

	got, err := store.GetByRunID(ctx, "run-1")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, 1, got[0].Year)
	assert.Equal(t, 2, got[1].Year)
	assert.Equal(t, domain.BasisCommittedCapital, got[0].Basis)
	assert.InDelta(t, 2_000_000, got[0].Fee, 0.0001)

	other, err := store.GetByRunID(ctx, "run-2")
	require.NoError(t, err)
	require.Len(t, other, 1)
	assert.Equal(t, domain.BasisNAV, other[0].Basis)
}

func TestFeeProjectionStore_Duplicates(t *testing.T) {
	conn, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewFeeProjectionStore(conn)
	ctx := context.Background()

	row := &domain.FeeProjectionRow{RunID: "run-1", Year: 1, Rate: 0.02, Fee: 1, Basis: domain.BasisCommittedCapital}
	require.NoError(t, store.InsertBulk(ctx, []*domain.FeeProjectionRow{row}))

	err := store.InsertBulk(ctx, []*domain.FeeProjectionRow{row})
	assert.ErrorIs(t, err, storage.ErrDuplicateKey)

	dup := *row
	dup.RunID = "run-2"
	err = store.InsertBulk(ctx, []*domain.FeeProjectionRow{&dup, &dup})
	assert.ErrorIs(t, err, storage.ErrDuplicateKey)

	got, err := store.GetByRunID(ctx, "run-2")
	require.NoError(t, err)
	assert.Empty(t, got)
}
