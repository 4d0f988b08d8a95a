package testkit

import (
	"context"

	"abkit/domain/core"
	"abkit/domain/experiment"

	"github.com/stretchr/testify/mock"
)

// MockExperimentRepository is a testify mock of ports.ExperimentRepository.
type MockExperimentRepository struct {
	mock.Mock
}

func (m *MockExperimentRepository) Save(ctx context.Context, record *experiment.Record) error {
	args := m.Called(ctx, record)
	return args.Error(0)
}

func (m *MockExperimentRepository) Get(ctx context.Context, id core.ExperimentID) (*experiment.Record, error) {
	args := m.Called(ctx, id)
	rec, _ := args.Get(0).(*experiment.Record)
	return rec, args.Error(1)
}

func (m *MockExperimentRepository) List(ctx context.Context, limit, offset int) ([]*experiment.Record, error) {
	args := m.Called(ctx, limit, offset)
	recs, _ := args.Get(0).([]*experiment.Record)
	return recs, args.Error(1)
}
