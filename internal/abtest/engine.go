// Package abtest computes sample size, significance, confidence intervals and
// power for two-group A/B experiments on means and on proportions.
//
// Every computation is a pure function of its inputs and a TestParameters
// value; the Engine only carries the normal-distribution primitive.
package abtest

import (
	"fmt"
	"math"

	"abkit/adapters/stats/normal"
	"abkit/domain/core"
	"abkit/domain/experiment"
	"abkit/ports"
)

// Engine evaluates A/B comparisons. It holds no mutable state and is safe
// for concurrent use.
type Engine struct {
	dist ports.NormalDistribution
}

// NewEngine creates an engine on the given normal primitive.
func NewEngine(dist ports.NormalDistribution) *Engine {
	return &Engine{dist: dist}
}

// NewDefaultEngine creates an engine backed by gonum's unit normal.
func NewDefaultEngine() *Engine {
	return NewEngine(normal.NewGonum())
}

// CriticalZ returns z_(1-alpha/2), the two-sided critical value.
func (e *Engine) CriticalZ(params experiment.TestParameters) (float64, error) {
	if err := params.Validate(); err != nil {
		return 0, err
	}
	return e.dist.InverseCDF(params.CriticalProbability())
}

// PowerZ returns z_(1-beta), the power-target quantile.
func (e *Engine) PowerZ(params experiment.TestParameters) (float64, error) {
	if err := params.Validate(); err != nil {
		return 0, err
	}
	return e.dist.InverseCDF(params.PowerProbability())
}

// TwoSidedPValue converts a z-statistic to a two-sided p-value, branching on
// the sign of z rather than taking |z|.
func (e *Engine) TwoSidedPValue(z float64) float64 {
	if z > 0 {
		return 2 * (1 - e.dist.CDF(z))
	}
	return 2 * e.dist.CDF(z)
}

// significance runs the z-test for an observed difference and its standard error.
func (e *Engine) significance(diff, se float64, params experiment.TestParameters) (experiment.SignificanceResult, error) {
	if err := params.Validate(); err != nil {
		return experiment.SignificanceResult{}, err
	}
	if err := checkStandardError(se); err != nil {
		return experiment.SignificanceResult{}, err
	}

	z := diff / se
	p := e.TwoSidedPValue(z)
	return experiment.SignificanceResult{
		RejectedNull: p < params.Alpha,
		ZStatistic:   z,
		PValue:       p,
	}, nil
}

// interval builds diff ± z_(1-alpha/2)·se.
func (e *Engine) interval(diff, se float64, params experiment.TestParameters) (experiment.ConfidenceInterval, error) {
	if err := checkStandardError(se); err != nil {
		return experiment.ConfidenceInterval{}, err
	}
	zCrit, err := e.CriticalZ(params)
	if err != nil {
		return experiment.ConfidenceInterval{}, err
	}

	margin := zCrit * se
	return experiment.ConfidenceInterval{
		Lower: diff - margin,
		Upper: diff + margin,
	}, nil
}

// power computes CDF(|diff|/se - z_(1-alpha/2)). The miss probability
// 1-CDF is computed first and complemented, mirroring beta = 1 - power.
func (e *Engine) power(diff, se float64, params experiment.TestParameters) (experiment.PowerResult, error) {
	if err := checkStandardError(se); err != nil {
		return experiment.PowerResult{}, err
	}
	zCrit, err := e.CriticalZ(params)
	if err != nil {
		return experiment.PowerResult{}, err
	}

	z := math.Abs(diff)/se - zCrit
	miss := 1 - e.dist.CDF(z)
	return experiment.PowerResult{Power: 1 - miss}, nil
}

// checkStandardError rejects a zero standard error, which would otherwise
// yield a NaN or infinite z-statistic.
func checkStandardError(se float64) error {
	if math.IsNaN(se) || math.IsInf(se, 0) || se <= 0 {
		return core.NewInvalidInputError("standard error", fmt.Sprintf("must be positive, got %v", se))
	}
	return nil
}

// Evaluate runs all three comparisons for a stored experiment.
func (e *Engine) Evaluate(exp experiment.Experiment) (experiment.Evaluation, error) {
	if err := exp.Validate(); err != nil {
		return experiment.Evaluation{}, err
	}

	eval := experiment.Evaluation{
		ExperimentID: exp.ID,
		Kind:         exp.Kind,
		Fingerprint:  exp.Fingerprint(),
		EvaluatedAt:  core.Now(),
	}

	switch exp.Kind {
	case experiment.KindMeans:
		cmp, err := e.CompareMeans(*exp.Means, exp.Params)
		if err != nil {
			return experiment.Evaluation{}, err
		}
		eval.Significance, eval.Interval, eval.Power = cmp.Significance, cmp.Interval, cmp.Power
	case experiment.KindProportions:
		cmp, err := e.CompareProportions(*exp.Proportions, exp.Params)
		if err != nil {
			return experiment.Evaluation{}, err
		}
		eval.Significance, eval.Interval, eval.Power = cmp.Significance, cmp.Interval, cmp.Power
	}

	return eval, nil
}
