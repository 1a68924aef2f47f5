package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"fund-economics-lab/internal/domain"
	"fund-economics-lab/internal/storage"
)

// ScenarioResultStore is an in-memory implementation of storage.ScenarioResultStore.
type ScenarioResultStore struct {
	mu   sync.RWMutex
	data map[string]*domain.ScenarioRecord // keyed by run_id|scenario_id
}

// NewScenarioResultStore creates a new in-memory scenario result store.
func NewScenarioResultStore() *ScenarioResultStore {
	return &ScenarioResultStore{
		data: make(map[string]*domain.ScenarioRecord),
	}
}

func scenarioKey(runID, scenarioID string) string {
	return fmt.Sprintf("%s|%s", runID, scenarioID)
}

// InsertBulk adds multiple records atomically. Fails entire batch on any duplicate.
func (s *ScenarioResultStore) InsertBulk(_ context.Context, records []*domain.ScenarioRecord) error {
	if len(records) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	batchKeys := make(map[string]struct{}, len(records))
	for _, r := range records {
		if r == nil || r.RunID == "" || r.ScenarioID == "" {
			return storage.ErrInvalidInput
		}
		key := scenarioKey(r.RunID, r.ScenarioID)
		if _, exists := s.data[key]; exists {
			return storage.ErrDuplicateKey
		}
		if _, exists := batchKeys[key]; exists {
			return storage.ErrDuplicateKey
		}
		batchKeys[key] = struct{}{}
	}

	for _, r := range records {
		s.data[scenarioKey(r.RunID, r.ScenarioID)] = cloneScenarioRecord(r)
	}
	return nil
}

// GetByRunID retrieves all records of a run, ordered by position ASC.
func (s *ScenarioResultStore) GetByRunID(_ context.Context, runID string) ([]*domain.ScenarioRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.ScenarioRecord
	for _, r := range s.data {
		if r.RunID == runID {
			result = append(result, cloneScenarioRecord(r))
		}
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].Position < result[j].Position
	})

	return result, nil
}

// GetByID retrieves one record. Returns ErrNotFound if not exists.
func (s *ScenarioResultStore) GetByID(_ context.Context, runID, scenarioID string) (*domain.ScenarioRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, exists := s.data[scenarioKey(runID, scenarioID)]
	if !exists {
		return nil, storage.ErrNotFound
	}
	return cloneScenarioRecord(r), nil
}

// cloneScenarioRecord copies r including the values behind its optional fields.
func cloneScenarioRecord(r *domain.ScenarioRecord) *domain.ScenarioRecord {
	c := *r
	if r.Mechanism != nil {
		m := *r.Mechanism
		c.Mechanism = &m
	}
	if r.OptimalStrategy != nil {
		s := *r.OptimalStrategy
		c.OptimalStrategy = &s
	}
	for _, f := range []**float64{
		&c.AdjustedConversionPrice, &c.AdjustedConversionShares, &c.DilutionPct, &c.EconomicImpact,
		&c.ConversionValue, &c.PresentValue, &c.BreakEvenValuation,
		&c.HurdleAmount, &c.CarriedInterest, &c.CatchUp,
		&c.NetCarry, &c.Clawback,
	} {
		if *f != nil {
			v := **f
			*f = &v
		}
	}
	return &c
}

var _ storage.ScenarioResultStore = (*ScenarioResultStore)(nil)
