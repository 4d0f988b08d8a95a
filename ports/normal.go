package ports

// NormalDistribution is the standard normal primitive the statistics engine
// is built on.
type NormalDistribution interface {
	// CDF returns P(Z <= z) for a standard normal Z.
	CDF(z float64) float64

	// InverseCDF returns the z with CDF(z) = p. Probabilities outside the
	// open interval (0,1) fail with core.ErrNumericDomain; they are never clamped.
	InverseCDF(p float64) (float64, error)
}
