package abtest

import (
	"abkit/domain/experiment"
)

// MeanSignificance runs the two-sided z-test on x1 - x2 with
// se = sqrt(s1²/n1 + s2²/n2).
func (e *Engine) MeanSignificance(in experiment.MeanComparisonInput, params experiment.TestParameters) (experiment.SignificanceResult, error) {
	if err := in.Validate(); err != nil {
		return experiment.SignificanceResult{}, err
	}
	return e.significance(in.Difference(), in.StandardError(), params)
}

// MeanConfidenceInterval returns x1 - x2 ± z_(1-alpha/2)·se.
func (e *Engine) MeanConfidenceInterval(in experiment.MeanComparisonInput, params experiment.TestParameters) (experiment.ConfidenceInterval, error) {
	if err := in.Validate(); err != nil {
		return experiment.ConfidenceInterval{}, err
	}
	return e.interval(in.Difference(), in.StandardError(), params)
}

// MeanPower returns the power of the test at the observed difference.
func (e *Engine) MeanPower(in experiment.MeanComparisonInput, params experiment.TestParameters) (experiment.PowerResult, error) {
	if err := in.Validate(); err != nil {
		return experiment.PowerResult{}, err
	}
	return e.power(in.Difference(), in.StandardError(), params)
}

// CompareMeans computes significance, interval and power together.
// The standard error is computed once and shared.
func (e *Engine) CompareMeans(in experiment.MeanComparisonInput, params experiment.TestParameters) (experiment.MeanComparison, error) {
	if err := in.Validate(); err != nil {
		return experiment.MeanComparison{}, err
	}

	diff, se := in.Difference(), in.StandardError()

	sig, err := e.significance(diff, se, params)
	if err != nil {
		return experiment.MeanComparison{}, err
	}
	ci, err := e.interval(diff, se, params)
	if err != nil {
		return experiment.MeanComparison{}, err
	}
	pw, err := e.power(diff, se, params)
	if err != nil {
		return experiment.MeanComparison{}, err
	}

	return experiment.MeanComparison{
		Input:        in,
		Params:       params,
		Significance: sig,
		Interval:     ci,
		Power:        pw,
	}, nil
}
