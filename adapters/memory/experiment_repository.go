// Package memory holds process-local adapters used when no database is
// configured and in tests.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"abkit/domain/core"
	"abkit/domain/experiment"
	"abkit/ports"
)

// ExperimentRepository keeps records in a map guarded by a RWMutex.
type ExperimentRepository struct {
	mu      sync.RWMutex
	records map[core.ExperimentID]experiment.Record
}

var _ ports.ExperimentRepository = (*ExperimentRepository)(nil)

// NewExperimentRepository returns an empty store.
func NewExperimentRepository() *ExperimentRepository {
	return &ExperimentRepository{records: make(map[core.ExperimentID]experiment.Record)}
}

// Save stores a copy of record, replacing any with the same ID.
func (r *ExperimentRepository) Save(ctx context.Context, record *experiment.Record) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := record.Experiment.Validate(); err != nil {
		return err
	}
	if record.Experiment.ID.IsEmpty() {
		return core.NewInvalidInputError("id", "must not be empty")
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.records[record.Experiment.ID] = cloneRecord(*record)
	return nil
}

// Get returns a copy of the stored record.
func (r *ExperimentRepository) Get(ctx context.Context, id core.ExperimentID) (*experiment.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()
	rec, ok := r.records[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", core.ErrExperimentNotFound, id)
	}
	out := cloneRecord(rec)
	return &out, nil
}

// List returns records newest first, ties broken by ID.
func (r *ExperimentRepository) List(ctx context.Context, limit, offset int) ([]*experiment.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	all := make([]experiment.Record, 0, len(r.records))
	for _, rec := range r.records {
		all = append(all, rec)
	}
	r.mu.RUnlock()

	sort.Slice(all, func(i, j int) bool {
		ti, tj := all[i].Experiment.CreatedAt, all[j].Experiment.CreatedAt
		if !ti.Time().Equal(tj.Time()) {
			return tj.Before(ti)
		}
		return all[i].Experiment.ID > all[j].Experiment.ID
	})

	if offset < 0 {
		offset = 0
	}
	if offset >= len(all) {
		return []*experiment.Record{}, nil
	}
	all = all[offset:]
	if limit > 0 && limit < len(all) {
		all = all[:limit]
	}

	out := make([]*experiment.Record, len(all))
	for i := range all {
		rec := cloneRecord(all[i])
		out[i] = &rec
	}
	return out, nil
}

// Len reports how many records are stored.
func (r *ExperimentRepository) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.records)
}

func cloneRecord(rec experiment.Record) experiment.Record {
	if rec.Experiment.Means != nil {
		in := *rec.Experiment.Means
		rec.Experiment.Means = &in
	}
	if rec.Experiment.Proportions != nil {
		in := *rec.Experiment.Proportions
		rec.Experiment.Proportions = &in
	}
	return rec
}
