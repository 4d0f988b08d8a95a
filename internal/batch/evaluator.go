// Package batch evaluates many experiments concurrently with bounded
// parallelism. A failing experiment never fails the batch.
package batch

import (
	"context"
	"fmt"
	"time"

	"abkit/domain/experiment"
	"abkit/internal"
	"abkit/internal/abtest"
	"abkit/internal/metrics"
	"abkit/ports"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"
)

// Outcome is the result of evaluating one experiment. Exactly one of
// Evaluation and Err is set; SaveErr is only set when persisting failed.
type Outcome struct {
	Index      int                    `json:"index"`
	Experiment experiment.Experiment  `json:"experiment"`
	Evaluation *experiment.Evaluation `json:"evaluation,omitempty"`
	Err        error                  `json:"-"`
	SaveErr    error                  `json:"-"`
}

// OK reports whether the experiment was evaluated.
func (o Outcome) OK() bool { return o.Err == nil && o.Evaluation != nil }

// Result holds outcomes in input order.
type Result struct {
	Outcomes  []Outcome
	Succeeded int
	Failed    int
	Duration  time.Duration
}

// Evaluator runs Engine.Evaluate over a batch.
type Evaluator struct {
	engine *abtest.Engine
	sem    *semaphore.Weighted
	limit  int64
	repo   ports.ExperimentRepository
	logger *internal.Logger
}

// Option configures an Evaluator.
type Option func(*Evaluator)

// WithRepository saves every successful evaluation.
func WithRepository(repo ports.ExperimentRepository) Option {
	return func(ev *Evaluator) { ev.repo = repo }
}

// WithLogger sets the logger; the default is internal.DefaultLogger.
func WithLogger(logger *internal.Logger) Option {
	return func(ev *Evaluator) { ev.logger = logger }
}

// NewEvaluator bounds evaluation to concurrency experiments at a time.
func NewEvaluator(engine *abtest.Engine, concurrency int, opts ...Option) *Evaluator {
	if concurrency < 1 {
		concurrency = 1
	}
	ev := &Evaluator{
		engine: engine,
		sem:    semaphore.NewWeighted(int64(concurrency)),
		limit:  int64(concurrency),
		logger: internal.DefaultLogger,
	}
	for _, opt := range opts {
		opt(ev)
	}
	ev.logger = ev.logger.Named("batch")
	return ev
}

// WithStore returns a copy that also saves evaluations to repo. The copy
// shares the concurrency bound with ev.
func (ev *Evaluator) WithStore(repo ports.ExperimentRepository) *Evaluator {
	cp := *ev
	cp.repo = repo
	return &cp
}

// Concurrency returns the parallelism bound.
func (ev *Evaluator) Concurrency() int { return int(ev.limit) }

// Run evaluates exps. When ctx is cancelled no new work is scheduled; the
// unscheduled outcomes carry ctx's error and Run returns it alongside the
// partial result.
func (ev *Evaluator) Run(ctx context.Context, exps []experiment.Experiment) (*Result, error) {
	start := time.Now()
	metrics.ObserveBatch(len(exps))

	outcomes := make([]Outcome, len(exps))
	for i, exp := range exps {
		outcomes[i] = Outcome{Index: i, Experiment: exp}
	}

	g, gctx := errgroup.WithContext(ctx)
	var runErr error

	for i := range exps {
		if err := ev.sem.Acquire(gctx, 1); err != nil {
			runErr = err
			for j := i; j < len(exps); j++ {
				outcomes[j].Err = fmt.Errorf("not scheduled: %w", err)
			}
			break
		}

		i := i
		g.Go(func() error {
			defer ev.sem.Release(1)
			ev.evaluate(gctx, &outcomes[i])
			return nil
		})
	}

	// goroutines never return errors
	_ = g.Wait()

	res := &Result{Outcomes: outcomes, Duration: time.Since(start)}
	for _, o := range outcomes {
		if o.OK() {
			res.Succeeded++
		} else {
			res.Failed++
		}
	}

	ev.logger.Info("evaluated %d experiments: %d ok, %d failed in %v",
		len(exps), res.Succeeded, res.Failed, res.Duration)

	return res, runErr
}

func (ev *Evaluator) evaluate(ctx context.Context, out *Outcome) {
	start := time.Now()
	eval, err := ev.engine.Evaluate(out.Experiment)
	metrics.Observe(metrics.OpEvaluate, start, err)
	if err != nil {
		out.Err = err
		ev.logger.Debug("experiment %d (%s) rejected: %v", out.Index, out.Experiment.Name, err)
		return
	}
	out.Evaluation = &eval

	if ev.repo == nil {
		return
	}
	record := &experiment.Record{Experiment: out.Experiment, Evaluation: eval}
	if err := ev.repo.Save(ctx, record); err != nil {
		out.SaveErr = err
		ev.logger.Warn("failed to save experiment %s: %v", out.Experiment.ID, err)
	}
}
