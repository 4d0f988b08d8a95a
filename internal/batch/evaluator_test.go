package batch

import (
	"context"
	"errors"
	"io"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"abkit/domain/core"
	"abkit/domain/experiment"
	"abkit/internal"
	"abkit/internal/abtest"
	"abkit/internal/testkit"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func quietLogger() *internal.Logger {
	return internal.NewLoggerTo(io.Discard, internal.LogLevelError)
}

func TestRun_MixedBatch(t *testing.T) {
	ev := NewEvaluator(abtest.NewDefaultEngine(), 3, WithLogger(quietLogger()))
	exps := testkit.MixedBatch(10)

	res, err := ev.Run(context.Background(), exps)
	require.NoError(t, err)

	assert.Equal(t, 8, res.Succeeded)
	assert.Equal(t, 2, res.Failed)
	require.Len(t, res.Outcomes, 10)

	for i, o := range res.Outcomes {
		assert.Equal(t, i, o.Index)
		assert.Equal(t, exps[i].ID, o.Experiment.ID)
		if i%5 == 4 {
			assert.False(t, o.OK())
			assert.True(t, core.IsInvalidInput(o.Err))
			continue
		}
		require.True(t, o.OK())
		assert.Equal(t, exps[i].ID, o.Evaluation.ExperimentID)
	}

	// basket size is significant, retention is not
	assert.True(t, res.Outcomes[0].Evaluation.Significance.RejectedNull)
	assert.False(t, res.Outcomes[1].Evaluation.Significance.RejectedNull)
}

func TestRun_MatchesSequentialEvaluation(t *testing.T) {
	engine := abtest.NewDefaultEngine()
	exps := testkit.MixedBatch(7)

	res, err := NewEvaluator(engine, 4, WithLogger(quietLogger())).Run(context.Background(), exps)
	require.NoError(t, err)

	for i, exp := range exps {
		want, wantErr := engine.Evaluate(exp)
		if wantErr != nil {
			assert.Error(t, res.Outcomes[i].Err)
			continue
		}
		got := res.Outcomes[i].Evaluation
		require.NotNil(t, got)
		assert.Equal(t, want.Significance, got.Significance)
		assert.Equal(t, want.Interval, got.Interval)
		assert.Equal(t, want.Power, got.Power)
	}
}

func TestRun_SavesSuccessfulEvaluations(t *testing.T) {
	repo := new(testkit.MockExperimentRepository)
	repo.On("Save", mock.Anything, mock.AnythingOfType("*experiment.Record")).Return(nil)

	ev := NewEvaluator(abtest.NewDefaultEngine(), 2, WithRepository(repo), WithLogger(quietLogger()))
	res, err := ev.Run(context.Background(), testkit.MixedBatch(5))
	require.NoError(t, err)

	assert.Equal(t, 4, res.Succeeded)
	repo.AssertNumberOfCalls(t, "Save", 4)
}

func TestRun_SaveFailureKeepsEvaluation(t *testing.T) {
	repo := new(testkit.MockExperimentRepository)
	repo.On("Save", mock.Anything, mock.Anything).Return(errors.New("connection refused"))

	ev := NewEvaluator(abtest.NewDefaultEngine(), 1, WithRepository(repo), WithLogger(quietLogger()))
	res, err := ev.Run(context.Background(), []experiment.Experiment{testkit.BasketSizeExperiment()})
	require.NoError(t, err)

	o := res.Outcomes[0]
	assert.True(t, o.OK())
	assert.EqualError(t, o.SaveErr, "connection refused")
}

func TestRun_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	ev := NewEvaluator(abtest.NewDefaultEngine(), 2, WithLogger(quietLogger()))
	res, err := ev.Run(ctx, testkit.MixedBatch(4))

	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 0, res.Succeeded)
	assert.Equal(t, 4, res.Failed)
	for _, o := range res.Outcomes {
		assert.ErrorIs(t, o.Err, context.Canceled)
	}
}

func TestRun_Empty(t *testing.T) {
	res, err := NewEvaluator(abtest.NewDefaultEngine(), 2, WithLogger(quietLogger())).Run(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, res.Outcomes)
}

// slowRepository records the peak number of concurrent Save calls.
type slowRepository struct {
	testkit.MockExperimentRepository
	active int64
	peak   int64
	mu     sync.Mutex
}

func (r *slowRepository) Save(ctx context.Context, record *experiment.Record) error {
	n := atomic.AddInt64(&r.active, 1)
	r.mu.Lock()
	if n > r.peak {
		r.peak = n
	}
	r.mu.Unlock()
	time.Sleep(5 * time.Millisecond)
	atomic.AddInt64(&r.active, -1)
	return nil
}

func TestRun_BoundsConcurrency(t *testing.T) {
	repo := &slowRepository{}
	ev := NewEvaluator(abtest.NewDefaultEngine(), 2, WithRepository(repo), WithLogger(quietLogger()))

	exps := make([]experiment.Experiment, 12)
	for i := range exps {
		exps[i] = testkit.BasketSizeExperiment()
	}
	res, err := ev.Run(context.Background(), exps)
	require.NoError(t, err)

	assert.Equal(t, 12, res.Succeeded)
	assert.LessOrEqual(t, repo.peak, int64(2))
	assert.Equal(t, 2, ev.Concurrency())
}

func TestNewEvaluator_ClampsConcurrency(t *testing.T) {
	assert.Equal(t, 1, NewEvaluator(abtest.NewDefaultEngine(), 0).Concurrency())
}

func TestWithStore_SharesBoundAndSaves(t *testing.T) {
	repo := new(testkit.MockExperimentRepository)
	repo.On("Save", mock.Anything, mock.Anything).Return(nil)

	base := NewEvaluator(abtest.NewDefaultEngine(), 3, WithLogger(quietLogger()))
	saving := base.WithStore(repo)

	assert.Same(t, base.sem, saving.sem)
	assert.Equal(t, 3, saving.Concurrency())

	_, err := base.Run(context.Background(), []experiment.Experiment{testkit.RetentionExperiment()})
	require.NoError(t, err)
	repo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)

	_, err = saving.Run(context.Background(), []experiment.Experiment{testkit.RetentionExperiment()})
	require.NoError(t, err)
	repo.AssertNumberOfCalls(t, "Save", 1)
}
