package abtest

import (
	"fmt"
	"math"

	"abkit/domain/core"
	"abkit/domain/experiment"
)

// maxSampleSize bounds results so the ceiling always fits in an int.
const maxSampleSize = float64(math.MaxInt32)

// SampleSizeByMean returns the per-group size needed to detect a mean
// difference delta given an assumed common standard deviation:
//
//	n = 2 * ((z_(1-alpha/2) + z_(1-beta)) / (delta/stddev))^2
func (e *Engine) SampleSizeByMean(delta, stddev float64, params experiment.TestParameters) (experiment.SampleSizeResult, error) {
	if math.IsNaN(delta) || math.IsInf(delta, 0) || delta == 0 {
		return experiment.SampleSizeResult{}, core.NewInvalidInputError("delta", "must be a non-zero finite number")
	}
	if math.IsNaN(stddev) || math.IsInf(stddev, 0) || stddev <= 0 {
		return experiment.SampleSizeResult{}, core.NewInvalidInputError("stddev", "must be positive")
	}

	zSum, err := e.quantileSum(params)
	if err != nil {
		return experiment.SampleSizeResult{}, err
	}

	n := 2 * math.Pow(zSum/(delta/stddev), 2)
	return ceilSampleSize(n)
}

// SampleSizeByProportions returns the per-group size needed to tell p1 from p2:
//
//	n = ((z_(1-alpha/2) + z_(1-beta)) / (p1-p2))^2 * (p1(1-p1) + p2(1-p2))
func (e *Engine) SampleSizeByProportions(p1, p2 float64, params experiment.TestParameters) (experiment.SampleSizeResult, error) {
	if !inUnitInterval(p1) {
		return experiment.SampleSizeResult{}, core.NewInvalidInputError("p1", "must be in [0,1]")
	}
	if !inUnitInterval(p2) {
		return experiment.SampleSizeResult{}, core.NewInvalidInputError("p2", "must be in [0,1]")
	}
	if p1 == p2 {
		return experiment.SampleSizeResult{}, core.NewInvalidInputError("p1, p2", "must differ")
	}

	zSum, err := e.quantileSum(params)
	if err != nil {
		return experiment.SampleSizeResult{}, err
	}

	n := math.Pow(zSum/(p1-p2), 2) * (p1*(1-p1) + p2*(1-p2))
	return ceilSampleSize(n)
}

// quantileSum returns z_(1-alpha/2) + z_(1-beta).
func (e *Engine) quantileSum(params experiment.TestParameters) (float64, error) {
	zAlpha, err := e.CriticalZ(params)
	if err != nil {
		return 0, err
	}
	zBeta, err := e.PowerZ(params)
	if err != nil {
		return 0, err
	}
	return zAlpha + zBeta, nil
}

func ceilSampleSize(n float64) (experiment.SampleSizeResult, error) {
	if math.IsNaN(n) || n > maxSampleSize {
		return experiment.SampleSizeResult{}, core.NewInvalidInputError("sample size", fmt.Sprintf("%v exceeds the supported maximum", n))
	}
	size := int(math.Ceil(n))
	if size < 1 {
		size = 1
	}
	return experiment.SampleSizeResult{PerGroup: size}, nil
}

func inUnitInterval(p float64) bool {
	return !math.IsNaN(p) && p >= 0 && p <= 1
}
