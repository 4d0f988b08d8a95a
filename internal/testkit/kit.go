// Package testkit provides fixtures, synthetic data and mocks shared by
// package tests.
package testkit

import (
	"abkit/domain/experiment"
)

// BasketSizeInput is the mean comparison used across the report and API tests:
// control 5.08 (sd 2.06, n 32058) against treatment 8.04 (sd 2.39, n 34515).
func BasketSizeInput() experiment.MeanComparisonInput {
	return experiment.MeanComparisonInput{
		Control:   experiment.MeanSample{Mean: 5.08, StdDev: 2.06, Size: 32058},
		Treatment: experiment.MeanSample{Mean: 8.04, StdDev: 2.39, Size: 34515},
	}
}

// RetentionInput is a proportion comparison that is not significant at alpha 0.05.
func RetentionInput() experiment.ProportionComparisonInput {
	return experiment.ProportionComparisonInput{
		Control:   experiment.ProportionSample{Proportion: 0.6488, Size: 14667},
		Treatment: experiment.ProportionSample{Proportion: 0.6530, Size: 14193},
	}
}

// BasketSizeExperiment wraps BasketSizeInput with default parameters.
func BasketSizeExperiment() experiment.Experiment {
	return experiment.NewMeansExperiment("basket size", BasketSizeInput(), experiment.DefaultTestParameters())
}

// RetentionExperiment wraps RetentionInput with default parameters.
func RetentionExperiment() experiment.Experiment {
	return experiment.NewProportionsExperiment("day-7 retention", RetentionInput(), experiment.DefaultTestParameters())
}

// InvalidExperiment fails validation on alpha.
func InvalidExperiment() experiment.Experiment {
	exp := RetentionExperiment()
	exp.Name = "broken alpha"
	exp.Params.Alpha = 1.5
	return exp
}

// MixedBatch returns n experiments alternating between the two fixtures, with
// every fifth one invalid.
func MixedBatch(n int) []experiment.Experiment {
	out := make([]experiment.Experiment, n)
	for i := range out {
		switch {
		case i%5 == 4:
			out[i] = InvalidExperiment()
		case i%2 == 0:
			out[i] = BasketSizeExperiment()
		default:
			out[i] = RetentionExperiment()
		}
	}
	return out
}
