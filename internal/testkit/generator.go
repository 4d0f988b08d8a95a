package testkit

import (
	"math/rand"
)

// GeneratorConfig configures synthetic A/B observations.
type GeneratorConfig struct {
	ControlSize   int     `json:"control_size"`
	TreatmentSize int     `json:"treatment_size"`
	ControlMean   float64 `json:"control_mean"`
	TreatmentMean float64 `json:"treatment_mean"`
	StdDev        float64 `json:"stddev"`
	ControlRate   float64 `json:"control_rate"`
	TreatmentRate float64 `json:"treatment_rate"`
	Seed          int64   `json:"seed"`
}

// DefaultGeneratorConfig returns a small, clearly separated experiment.
func DefaultGeneratorConfig() GeneratorConfig {
	return GeneratorConfig{
		ControlSize:   2000,
		TreatmentSize: 2000,
		ControlMean:   10,
		TreatmentMean: 11,
		StdDev:        3,
		ControlRate:   0.10,
		TreatmentRate: 0.15,
		Seed:          42,
	}
}

// Generator produces deterministic observations for a seed.
type Generator struct {
	config GeneratorConfig
	rng    *rand.Rand
}

// NewGenerator creates a generator.
func NewGenerator(config GeneratorConfig) *Generator {
	return &Generator{
		config: config,
		rng:    rand.New(rand.NewSource(config.Seed)),
	}
}

// Observations returns normally distributed control and treatment values.
func (g *Generator) Observations() (control, treatment []float64) {
	control = g.normal(g.config.ControlSize, g.config.ControlMean)
	treatment = g.normal(g.config.TreatmentSize, g.config.TreatmentMean)
	return control, treatment
}

// Outcomes returns Bernoulli conversion flags for both groups.
func (g *Generator) Outcomes() (control, treatment []bool) {
	control = g.bernoulli(g.config.ControlSize, g.config.ControlRate)
	treatment = g.bernoulli(g.config.TreatmentSize, g.config.TreatmentRate)
	return control, treatment
}

func (g *Generator) normal(n int, mean float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = mean + g.rng.NormFloat64()*g.config.StdDev
	}
	return out
}

func (g *Generator) bernoulli(n int, rate float64) []bool {
	out := make([]bool, n)
	for i := range out {
		out[i] = g.rng.Float64() < rate
	}
	return out
}
