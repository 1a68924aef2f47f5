package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"fund-economics-lab/internal/domain"
	"fund-economics-lab/internal/storage"
)

// FeeProjectionStore is an in-memory implementation of storage.FeeProjectionStore.
type FeeProjectionStore struct {
	mu   sync.RWMutex
	data map[string]*domain.FeeProjectionRow // keyed by run_id|year
}

// NewFeeProjectionStore creates a new in-memory fee projection store.
func NewFeeProjectionStore() *FeeProjectionStore {
	return &FeeProjectionStore{
		data: make(map[string]*domain.FeeProjectionRow),
	}
}

func feeKey(runID string, year int) string {
	return fmt.Sprintf("%s|%d", runID, year)
}

// InsertBulk adds multiple rows atomically. Fails entire batch on any duplicate.
func (s *FeeProjectionStore) InsertBulk(_ context.Context, rows []*domain.FeeProjectionRow) error {
	if len(rows) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	batchKeys := make(map[string]struct{}, len(rows))
	for _, r := range rows {
		if r == nil || r.RunID == "" || r.Year < 1 {
			return storage.ErrInvalidInput
		}
		key := feeKey(r.RunID, r.Year)
		if _, exists := s.data[key]; exists {
			return storage.ErrDuplicateKey
		}
		if _, exists := batchKeys[key]; exists {
			return storage.ErrDuplicateKey
		}
		batchKeys[key] = struct{}{}
	}

	for _, r := range rows {
		rowCopy := *r
		s.data[feeKey(r.RunID, r.Year)] = &rowCopy
	}
	return nil
}

// GetByRunID retrieves all rows of a run, ordered by year ASC.
func (s *FeeProjectionStore) GetByRunID(_ context.Context, runID string) ([]*domain.FeeProjectionRow, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.FeeProjectionRow
	for _, r := range s.data {
		if r.RunID == runID {
			rowCopy := *r
			result = append(result, &rowCopy)
		}
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].Year < result[j].Year
	})

	return result, nil
}

var _ storage.FeeProjectionStore = (*FeeProjectionStore)(nil)
