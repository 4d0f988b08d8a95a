// Package samples turns raw per-user observations into the summary entities
// the comparison engine consumes.
package samples

import (
	"fmt"
	"math"

	"abkit/domain/core"
	"abkit/domain/experiment"

	"github.com/montanaflynn/stats"
)

// MeanSampleFromObservations summarizes a group of continuous observations
// using the sample (n-1) standard deviation.
func MeanSampleFromObservations(observations []float64) (experiment.MeanSample, error) {
	if len(observations) < 2 {
		return experiment.MeanSample{}, core.NewInvalidInputError("observations", fmt.Sprintf("need at least 2, got %d", len(observations)))
	}
	for i, v := range observations {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return experiment.MeanSample{}, core.NewInvalidInputError("observations", fmt.Sprintf("value %d is not finite", i))
		}
	}

	data := stats.Float64Data(observations)
	mean, err := data.Mean()
	if err != nil {
		return experiment.MeanSample{}, fmt.Errorf("failed to compute mean: %w", err)
	}
	stdDev, err := data.StandardDeviationSample()
	if err != nil {
		return experiment.MeanSample{}, fmt.Errorf("failed to compute standard deviation: %w", err)
	}

	return experiment.MeanSample{Mean: mean, StdDev: stdDev, Size: data.Len()}, nil
}

// ProportionSampleFromOutcomes summarizes binary outcomes (true = converted).
func ProportionSampleFromOutcomes(outcomes []bool) (experiment.ProportionSample, error) {
	conversions := 0
	for _, converted := range outcomes {
		if converted {
			conversions++
		}
	}
	return experiment.ProportionSampleFromCounts(conversions, len(outcomes))
}

// MeanComparisonFromObservations summarizes both groups at once.
func MeanComparisonFromObservations(control, treatment []float64) (experiment.MeanComparisonInput, error) {
	c, err := MeanSampleFromObservations(control)
	if err != nil {
		return experiment.MeanComparisonInput{}, fmt.Errorf("control: %w", err)
	}
	t, err := MeanSampleFromObservations(treatment)
	if err != nil {
		return experiment.MeanComparisonInput{}, fmt.Errorf("treatment: %w", err)
	}
	return experiment.MeanComparisonInput{Control: c, Treatment: t}, nil
}
