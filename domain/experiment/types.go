package experiment

import (
	"fmt"
	"math"

	"abkit/domain/core"
)

// ============================================================================
// INPUT ENTITIES
// ============================================================================

// MeanSample summarizes one group of a continuous metric.
type MeanSample struct {
	Mean   float64 `json:"mean" yaml:"mean"`
	StdDev float64 `json:"stddev" yaml:"stddev"`
	Size   int     `json:"size" yaml:"size"`
}

// Validate checks a group's summary; field names the group in errors.
func (s MeanSample) Validate(field string) error {
	if !finite(s.Mean) {
		return core.NewInvalidInputError(field+".mean", "must be a finite number")
	}
	if !finite(s.StdDev) || s.StdDev <= 0 {
		return core.NewInvalidInputError(field+".stddev", "must be positive")
	}
	if s.Size < 1 {
		return core.NewInvalidInputError(field+".size", "must be positive")
	}
	return nil
}

// Variance of the sample mean: s²/n.
func (s MeanSample) MeanVariance() float64 {
	return s.StdDev * s.StdDev / float64(s.Size)
}

// MeanComparisonInput pairs the control (x1) and treatment (x2) groups.
type MeanComparisonInput struct {
	Control   MeanSample `json:"control" yaml:"control"`
	Treatment MeanSample `json:"treatment" yaml:"treatment"`
}

func (in MeanComparisonInput) Validate() error {
	if err := in.Control.Validate("control"); err != nil {
		return err
	}
	return in.Treatment.Validate("treatment")
}

// Difference is x1 - x2 (control minus treatment).
func (in MeanComparisonInput) Difference() float64 {
	return in.Control.Mean - in.Treatment.Mean
}

// StandardError is sqrt(s1²/n1 + s2²/n2).
func (in MeanComparisonInput) StandardError() float64 {
	return math.Sqrt(in.Control.MeanVariance() + in.Treatment.MeanVariance())
}

// ProportionSample summarizes one group of a rate metric.
type ProportionSample struct {
	Proportion float64 `json:"proportion" yaml:"proportion"`
	Size       int     `json:"size" yaml:"size"`
}

// ProportionSampleFromCounts builds a sample from raw conversion counts.
func ProportionSampleFromCounts(conversions, visitors int) (ProportionSample, error) {
	if visitors < 1 {
		return ProportionSample{}, core.NewInvalidInputError("visitors", "must be positive")
	}
	if conversions < 0 || conversions > visitors {
		return ProportionSample{}, core.NewInvalidInputError("conversions", fmt.Sprintf("must be in [0,%d]", visitors))
	}
	return ProportionSample{
		Proportion: float64(conversions) / float64(visitors),
		Size:       visitors,
	}, nil
}

func (s ProportionSample) Validate(field string) error {
	if math.IsNaN(s.Proportion) || s.Proportion < 0 || s.Proportion > 1 {
		return core.NewInvalidInputError(field+".proportion", "must be in [0,1]")
	}
	if s.Size < 1 {
		return core.NewInvalidInputError(field+".size", "must be positive")
	}
	return nil
}

// Variance is p(1-p), the Bernoulli variance of one observation.
func (s ProportionSample) Variance() float64 {
	return s.Proportion * (1 - s.Proportion)
}

// ProportionComparisonInput pairs the control (p1) and treatment (p2) groups.
type ProportionComparisonInput struct {
	Control   ProportionSample `json:"control" yaml:"control"`
	Treatment ProportionSample `json:"treatment" yaml:"treatment"`
}

func (in ProportionComparisonInput) Validate() error {
	if err := in.Control.Validate("control"); err != nil {
		return err
	}
	return in.Treatment.Validate("treatment")
}

// Difference is p1 - p2 (control minus treatment).
func (in ProportionComparisonInput) Difference() float64 {
	return in.Control.Proportion - in.Treatment.Proportion
}

// PooledProportion is (n1*p1 + n2*p2)/(n1+n2), the common rate under the null.
func (in ProportionComparisonInput) PooledProportion() float64 {
	n1, n2 := float64(in.Control.Size), float64(in.Treatment.Size)
	return (n1*in.Control.Proportion + n2*in.Treatment.Proportion) / (n1 + n2)
}

// PooledStandardError is sqrt(p(1-p)(1/n1+1/n2)) with the pooled p.
// Used only by the significance test.
func (in ProportionComparisonInput) PooledStandardError() float64 {
	p := in.PooledProportion()
	return math.Sqrt(p * (1 - p) * (1/float64(in.Control.Size) + 1/float64(in.Treatment.Size)))
}

// UnpooledStandardError is sqrt(p1(1-p1)/n1 + p2(1-p2)/n2).
// Used by the confidence interval and power.
func (in ProportionComparisonInput) UnpooledStandardError() float64 {
	return math.Sqrt(in.Control.Variance()/float64(in.Control.Size) +
		in.Treatment.Variance()/float64(in.Treatment.Size))
}

// ============================================================================
// RESULT ENTITIES
// ============================================================================

// SignificanceResult is the outcome of a two-sided z-test.
// RejectedNull is true when the difference is statistically significant.
type SignificanceResult struct {
	RejectedNull bool    `json:"rejected_null"`
	ZStatistic   float64 `json:"z_statistic"`
	PValue       float64 `json:"p_value"`
}

// ConfidenceInterval bounds the control-minus-treatment difference.
type ConfidenceInterval struct {
	Lower float64 `json:"lower"`
	Upper float64 `json:"upper"`
}

// Midpoint is the point estimate the interval is centered on.
func (ci ConfidenceInterval) Midpoint() float64 { return (ci.Lower + ci.Upper) / 2 }

// Contains reports whether v lies inside the closed interval.
func (ci ConfidenceInterval) Contains(v float64) bool { return v >= ci.Lower && v <= ci.Upper }

// ExcludesZero reports whether the interval lies entirely on one side of zero.
func (ci ConfidenceInterval) ExcludesZero() bool { return !ci.Contains(0) }

// PowerResult is the probability of rejecting a false null at the observed effect.
type PowerResult struct {
	Power float64 `json:"power"`
}

// SampleSizeResult is the ceiling-rounded minimum size of each group.
type SampleSizeResult struct {
	PerGroup int `json:"per_group"`
}

// Total is the combined size of both groups.
func (r SampleSizeResult) Total() int { return 2 * r.PerGroup }

// MeanComparison bundles the three independent mean-comparison outputs.
type MeanComparison struct {
	Input        MeanComparisonInput `json:"input"`
	Params       TestParameters      `json:"params"`
	Significance SignificanceResult  `json:"significance"`
	Interval     ConfidenceInterval  `json:"confidence_interval"`
	Power        PowerResult         `json:"power"`
}

// ProportionComparison bundles the three independent proportion-comparison outputs.
type ProportionComparison struct {
	Input        ProportionComparisonInput `json:"input"`
	Params       TestParameters            `json:"params"`
	Significance SignificanceResult        `json:"significance"`
	Interval     ConfidenceInterval        `json:"confidence_interval"`
	Power        PowerResult               `json:"power"`
}
