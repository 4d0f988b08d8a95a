package ports

import (
	"context"

	"abkit/domain/core"
	"abkit/domain/experiment"
)

// ExperimentRepository persists evaluated experiments.
type ExperimentRepository interface {
	// Save inserts or replaces the record keyed by its experiment ID.
	Save(ctx context.Context, record *experiment.Record) error

	// Get returns core.ErrExperimentNotFound when no record exists.
	Get(ctx context.Context, id core.ExperimentID) (*experiment.Record, error)

	// List returns records newest first.
	List(ctx context.Context, limit, offset int) ([]*experiment.Record, error)
}
