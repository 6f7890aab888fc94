package app

import (
	"context"
	"sort"
	"sync"

	"gocausal/domain/core"
	"gocausal/domain/run"
	"gocausal/ports"
)

// MemoryRunRepository keeps runs in process memory. It backs the surfaces
// when no DATABASE_URL is configured and the service tests.
type MemoryRunRepository struct {
	mu   sync.RWMutex
	runs map[core.RunID]*run.Record
}

// NewMemoryRunRepository creates an empty in-memory repository.
func NewMemoryRunRepository() *MemoryRunRepository {
	return &MemoryRunRepository{runs: make(map[core.RunID]*run.Record)}
}

// Save stores a copy of the record, replacing any previous version.
func (r *MemoryRunRepository) Save(_ context.Context, rec *run.Record) error {
	if err := rec.Validate(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	stored := *rec
	r.runs[rec.ID] = &stored
	return nil
}

// Get fetches a stored run by id.
func (r *MemoryRunRepository) Get(_ context.Context, id core.RunID) (*run.Record, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	rec, ok := r.runs[id]
	if !ok {
		return nil, core.NewNotFoundError("run", id.String())
	}
	out := *rec
	return &out, nil
}

// List returns summaries, newest first.
func (r *MemoryRunRepository) List(_ context.Context, limit int) ([]ports.RunSummary, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]ports.RunSummary, 0, len(r.runs))
	for _, rec := range r.runs {
		out = append(out, ports.RunSummary{
			ID:          rec.ID,
			DatasetName: rec.DatasetName,
			TestKind:    rec.TestKind,
			Alpha:       rec.Alpha,
			NumEdges:    rec.NumEdges,
			CreatedAt:   rec.CreatedAt,
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Time().Equal(out[j].CreatedAt.Time()) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID.String() < out[j].ID.String()
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
