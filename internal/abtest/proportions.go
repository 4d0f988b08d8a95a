package abtest

import (
	"abkit/domain/experiment"
)

// The significance test uses the pooled standard error (both groups share one
// rate under the null). The interval and power condition on the observed
// rates and use the unpooled standard error. The two must stay separate.

// ProportionSignificance runs the two-sided z-test on p1 - p2 with the
// pooled standard error.
func (e *Engine) ProportionSignificance(in experiment.ProportionComparisonInput, params experiment.TestParameters) (experiment.SignificanceResult, error) {
	if err := in.Validate(); err != nil {
		return experiment.SignificanceResult{}, err
	}
	return e.significance(in.Difference(), in.PooledStandardError(), params)
}

// ProportionConfidenceInterval returns p1 - p2 ± z_(1-alpha/2)·se_unpooled.
func (e *Engine) ProportionConfidenceInterval(in experiment.ProportionComparisonInput, params experiment.TestParameters) (experiment.ConfidenceInterval, error) {
	if err := in.Validate(); err != nil {
		return experiment.ConfidenceInterval{}, err
	}
	return e.interval(in.Difference(), in.UnpooledStandardError(), params)
}

// ProportionPower returns the power at the observed difference using se_unpooled.
func (e *Engine) ProportionPower(in experiment.ProportionComparisonInput, params experiment.TestParameters) (experiment.PowerResult, error) {
	if err := in.Validate(); err != nil {
		return experiment.PowerResult{}, err
	}
	return e.power(in.Difference(), in.UnpooledStandardError(), params)
}

// CompareProportions computes significance, interval and power together.
func (e *Engine) CompareProportions(in experiment.ProportionComparisonInput, params experiment.TestParameters) (experiment.ProportionComparison, error) {
	if err := in.Validate(); err != nil {
		return experiment.ProportionComparison{}, err
	}

	diff := in.Difference()

	sig, err := e.significance(diff, in.PooledStandardError(), params)
	if err != nil {
		return experiment.ProportionComparison{}, err
	}

	unpooled := in.UnpooledStandardError()
	ci, err := e.interval(diff, unpooled, params)
	if err != nil {
		return experiment.ProportionComparison{}, err
	}
	pw, err := e.power(diff, unpooled, params)
	if err != nil {
		return experiment.ProportionComparison{}, err
	}

	return experiment.ProportionComparison{
		Input:        in,
		Params:       params,
		Significance: sig,
		Interval:     ci,
		Power:        pw,
	}, nil
}
