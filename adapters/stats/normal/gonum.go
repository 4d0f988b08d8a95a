package normal

import (
	"math"

	"abkit/domain/core"
	"abkit/ports"

	"gonum.org/v1/gonum/stat/distuv"
)

// Gonum implements ports.NormalDistribution on gonum's unit normal.
type Gonum struct {
	dist distuv.Normal
}

var _ ports.NormalDistribution = (*Gonum)(nil)

// NewGonum returns the standard normal (Mu=0, Sigma=1).
func NewGonum() *Gonum {
	return &Gonum{dist: distuv.UnitNormal}
}

// CDF computes the cumulative distribution function.
func (g *Gonum) CDF(z float64) float64 {
	return g.dist.CDF(z)
}

// InverseCDF computes the quantile function. gonum panics below 0 and
// returns ±Inf at the endpoints, so the domain is checked first.
func (g *Gonum) InverseCDF(p float64) (float64, error) {
	if math.IsNaN(p) || p <= 0 || p >= 1 {
		return 0, core.NewNumericDomainError(p)
	}
	return g.dist.Quantile(p), nil
}
