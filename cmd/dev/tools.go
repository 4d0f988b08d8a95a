package main

import (
	"context"
	"fmt"
	"io"

	"abkit/domain/core"
	"abkit/domain/experiment"
	"abkit/internal/abtest"
	"abkit/internal/batch"
	"abkit/internal/samples"
	"abkit/internal/testkit"
	"abkit/ports"
)

// syntheticExperiments builds count experiments from generated observations.
// Even indices compare means, odd indices compare proportions.
func syntheticExperiments(count int, seed int64, params experiment.TestParameters) ([]experiment.Experiment, error) {
	if count < 1 {
		return nil, core.NewInvalidInputError("count", "must be at least 1")
	}

	exps := make([]experiment.Experiment, 0, count)
	for i := 0; i < count; i++ {
		cfg := testkit.DefaultGeneratorConfig()
		cfg.Seed = seed + int64(i)
		if i%3 == 0 {
			cfg.TreatmentMean = cfg.ControlMean
			cfg.TreatmentRate = cfg.ControlRate
		}
		gen := testkit.NewGenerator(cfg)

		if i%2 == 0 {
			control, treatment := gen.Observations()
			in, err := samples.MeanComparisonFromObservations(control, treatment)
			if err != nil {
				return nil, err
			}
			exps = append(exps, experiment.NewMeansExperiment(fmt.Sprintf("synthetic means #%d", i+1), in, params))
			continue
		}

		control, treatment := gen.Outcomes()
		c, err := samples.ProportionSampleFromOutcomes(control)
		if err != nil {
			return nil, err
		}
		t, err := samples.ProportionSampleFromOutcomes(treatment)
		if err != nil {
			return nil, err
		}
		in := experiment.ProportionComparisonInput{Control: c, Treatment: t}
		exps = append(exps, experiment.NewProportionsExperiment(fmt.Sprintf("synthetic proportions #%d", i+1), in, params))
	}
	return exps, nil
}

func seedExperiments(ctx context.Context, out io.Writer, ev *batch.Evaluator, exps []experiment.Experiment) error {
	fmt.Fprintf(out, "Seeding %d experiments...\n", len(exps))

	res, err := ev.Run(ctx, exps)
	if err != nil {
		return err
	}

	saved := 0
	for _, o := range res.Outcomes {
		switch {
		case !o.OK():
			fmt.Fprintf(out, "  %s: FAILED: %v\n", o.Experiment.Name, o.Err)
		case o.SaveErr != nil:
			fmt.Fprintf(out, "  %s: not saved: %v\n", o.Experiment.Name, o.SaveErr)
		default:
			saved++
			fmt.Fprintf(out, "  %s: %s (significant: %v)\n", o.Experiment.Name, o.Experiment.ID, o.Evaluation.Significance.RejectedNull)
		}
	}

	fmt.Fprintf(out, "Seeded %d/%d experiments\n", saved, len(exps))
	if saved < len(exps) {
		return fmt.Errorf("%d experiments were not seeded", len(exps)-saved)
	}
	return nil
}

func runSmokeTests(ctx context.Context, out io.Writer, engine *abtest.Engine) error {
	fmt.Fprintln(out, "Running smoke tests...")
	params := experiment.DefaultTestParameters()

	tests := []struct {
		name string
		fn   func(context.Context) error
	}{
		{"sample_size_means", func(ctx context.Context) error {
			res, err := engine.SampleSizeByMean(1, 38, params)
			if err != nil {
				return err
			}
			return expectInt(res.PerGroup, 22668)
		}},
		{"sample_size_proportions", func(ctx context.Context) error {
			res, err := engine.SampleSizeByProportions(0.13, 0.14, params)
			if err != nil {
				return err
			}
			return expectInt(res.PerGroup, 18328)
		}},
		{"compare_means", func(ctx context.Context) error {
			cmp, err := engine.CompareMeans(testkit.BasketSizeInput(), params)
			if err != nil {
				return err
			}
			if !cmp.Significance.RejectedNull || cmp.Interval.Upper >= 0 {
				return fmt.Errorf("expected a significant negative difference, got %+v", cmp.Significance)
			}
			return nil
		}},
		{"compare_proportions", func(ctx context.Context) error {
			cmp, err := engine.CompareProportions(testkit.RetentionInput(), params)
			if err != nil {
				return err
			}
			if cmp.Significance.RejectedNull || !cmp.Interval.Contains(0) {
				return fmt.Errorf("expected no significant difference, got %+v", cmp.Significance)
			}
			return nil
		}},
		{"identical_groups", func(ctx context.Context) error {
			s := experiment.MeanSample{Mean: 10, StdDev: 2, Size: 500}
			sig, err := engine.MeanSignificance(experiment.MeanComparisonInput{Control: s, Treatment: s}, params)
			if err != nil {
				return err
			}
			if sig.ZStatistic != 0 || sig.PValue != 1 || sig.RejectedNull {
				return fmt.Errorf("expected z=0 p=1, got %+v", sig)
			}
			return nil
		}},
	}

	passed := 0
	for _, test := range tests {
		fmt.Fprintf(out, "  Running %s...", test.name)
		if err := test.fn(ctx); err != nil {
			fmt.Fprintf(out, " FAILED: %v\n", err)
		} else {
			fmt.Fprintln(out, " PASSED")
			passed++
		}
	}

	fmt.Fprintf(out, "\nSmoke tests: %d/%d passed\n", passed, len(tests))
	if passed < len(tests) {
		return fmt.Errorf("some smoke tests failed")
	}
	return nil
}

func expectInt(got, want int) error {
	if got != want {
		return fmt.Errorf("got %d, want %d", got, want)
	}
	return nil
}

func testDeterminism(ctx context.Context, out io.Writer, engine *abtest.Engine, repo ports.ExperimentRepository, id core.ExperimentID) error {
	fmt.Fprintf(out, "Testing determinism for experiment %s...\n", id)

	stored, err := repo.Get(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to get experiment: %w", err)
	}

	fmt.Fprintln(out, "Re-evaluating stored inputs...")
	replay, err := engine.Evaluate(stored.Experiment)
	if err != nil {
		return fmt.Errorf("failed to re-evaluate: %w", err)
	}

	if err := compareEvaluations(stored.Evaluation, replay); err != nil {
		return fmt.Errorf("determinism test failed: %w", err)
	}

	fmt.Fprintln(out, "Determinism test passed - results identical")
	return nil
}

func compareEvaluations(original, replay experiment.Evaluation) error {
	if original.Fingerprint != replay.Fingerprint {
		return fmt.Errorf("fingerprints differ: %s vs %s", original.Fingerprint, replay.Fingerprint)
	}
	if original.Significance != replay.Significance {
		return fmt.Errorf("significance differs: %+v vs %+v", original.Significance, replay.Significance)
	}
	if original.Interval != replay.Interval {
		return fmt.Errorf("confidence interval differs: %+v vs %+v", original.Interval, replay.Interval)
	}
	if original.Power != replay.Power {
		return fmt.Errorf("power differs: %v vs %v", original.Power.Power, replay.Power.Power)
	}
	return nil
}
