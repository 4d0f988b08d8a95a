package experiment

import (
	"math"

	"abkit/domain/core"
)

// Defaults used when a caller does not override the error rates.
const (
	DefaultAlpha = 0.05
	DefaultBeta  = 0.2
)

// TestParameters holds the error-rate tolerances shared by every computation.
//   - Alpha: Type-I error tolerance (false positive rate)
//   - Beta:  Type-II error tolerance (false negative rate); 1-Beta is the target power
type TestParameters struct {
	Alpha float64 `json:"alpha" yaml:"alpha"`
	Beta  float64 `json:"beta" yaml:"beta"`
}

// DefaultTestParameters returns alpha=0.05, beta=0.2.
func DefaultTestParameters() TestParameters {
	return TestParameters{Alpha: DefaultAlpha, Beta: DefaultBeta}
}

// Validate requires both rates to lie in the open interval (0,1).
func (p TestParameters) Validate() error {
	if !openUnit(p.Alpha) {
		return core.NewInvalidInputError("alpha", "must be in (0,1)")
	}
	if !openUnit(p.Beta) {
		return core.NewInvalidInputError("beta", "must be in (0,1)")
	}
	return nil
}

// ConfidenceLevel is 1 - alpha.
func (p TestParameters) ConfidenceLevel() float64 { return 1 - p.Alpha }

// TargetPower is 1 - beta.
func (p TestParameters) TargetPower() float64 { return 1 - p.Beta }

// CriticalProbability is the quantile whose z-value bounds the two-sided
// rejection region: 1 - alpha/2.
func (p TestParameters) CriticalProbability() float64 { return 1 - p.Alpha/2 }

// PowerProbability is the quantile used for the power target: 1 - beta.
func (p TestParameters) PowerProbability() float64 { return 1 - p.Beta }

func openUnit(v float64) bool {
	return !math.IsNaN(v) && v > 0 && v < 1
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
