package repository

import (
	"context"
	"sort"
	"sync"

	"catalog-content-sync/internal/domain"
)

// MemoryRunRepository keeps run reports for the life of the process. It is
// used when no MongoDB URI is configured.
type MemoryRunRepository struct {
	mu   sync.RWMutex
	runs map[string]*domain.RunReport
}

func NewMemoryRunRepository() *MemoryRunRepository {
	return &MemoryRunRepository{runs: make(map[string]*domain.RunReport)}
}

func (r *MemoryRunRepository) SaveRun(_ context.Context, report *domain.RunReport) error {
	cp := *report
	r.mu.Lock()
	r.runs[report.RunID] = &cp
	r.mu.Unlock()
	return nil
}

func (r *MemoryRunRepository) GetRun(_ context.Context, runID string) (*domain.RunReport, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	report, ok := r.runs[runID]
	if !ok {
		return nil, nil
	}
	cp := *report
	return &cp, nil
}

func (r *MemoryRunRepository) ListRuns(_ context.Context, limit int) ([]*domain.RunReport, error) {
	r.mu.RLock()
	runs := make([]*domain.RunReport, 0, len(r.runs))
	for _, report := range r.runs {
		cp := *report
		runs = append(runs, &cp)
	}
	r.mu.RUnlock()

	sort.Slice(runs, func(i, j int) bool {
		return runs[i].StartedAt.After(runs[j].StartedAt)
	})
	if limit > 0 && len(runs) > limit {
		runs = runs[:limit]
	}
	return runs, nil
}
