package memory

import (
	"context"
	"sort"
	"sync"

	"fund-economics-lab/internal/domain"
	"fund-economics-lab/internal/storage"
)

// WaterfallStepStore is an in-memory implementation of storage.WaterfallStepStore.
type WaterfallStepStore struct {
	mu   sync.RWMutex
	data map[string]*domain.WaterfallStepRow // keyed by step_id
}

// NewWaterfallStepStore creates a new in-memory waterfall step store.
func NewWaterfallStepStore() *WaterfallStepStore {
	return &WaterfallStepStore{
		data: make(map[string]*domain.WaterfallStepRow),
	}
}

// InsertBulk adds multiple steps atomically. Fails entire batch on any duplicate.
func (s *WaterfallStepStore) InsertBulk(_ context.Context, steps []*domain.WaterfallStepRow) error {
	if len(steps) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	batchKeys := make(map[string]struct{}, len(steps))
	for _, st := range steps {
		if st == nil || st.StepID == "" || st.RunID == "" || st.ScenarioID == "" {
			return storage.ErrInvalidInput
		}
		if _, exists := s.data[st.StepID]; exists {
			return storage.ErrDuplicateKey
		}
		if _, exists := batchKeys[st.StepID]; exists {
			return storage.ErrDuplicateKey
		}
		batchKeys[st.StepID] = struct{}{}
	}

	for _, st := range steps {
		stepCopy := *st
		s.data[st.StepID] = &stepCopy
	}
	return nil
}

// GetByScenario retrieves the steps of one scenario, ordered by position ASC.
func (s *WaterfallStepStore) GetByScenario(_ context.Context, runID, scenarioID string) ([]*domain.WaterfallStepRow, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.WaterfallStepRow
	for _, st := range s.data {
		if st.RunID == runID && st.ScenarioID == scenarioID {
			stepCopy := *st
			result = append(result, &stepCopy)
		}
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].Position < result[j].Position
	})

	return result, nil
}

var _ storage.WaterfallStepStore = (*WaterfallStepStore)(nil)
