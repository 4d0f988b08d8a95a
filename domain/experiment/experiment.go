package experiment

import (
	"fmt"
	"strings"

	"abkit/domain/core"
)

// Kind selects which comparison family an experiment belongs to.
type Kind string

const (
	KindMeans       Kind = "means"
	KindProportions Kind = "proportions"
)

// ParseKind accepts the canonical names plus a few common aliases.
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "means", "mean", "continuous":
		return KindMeans, nil
	case "proportions", "proportion", "rate", "conversion":
		return KindProportions, nil
	}
	return "", core.NewInvalidInputError("kind", fmt.Sprintf("unknown experiment kind %q", s))
}

// Experiment is a named two-group comparison plus the parameters to judge it with.
// Exactly one of Means/Proportions is set, matching Kind.
type Experiment struct {
	ID          core.ExperimentID          `json:"id"`
	Name        string                     `json:"name"`
	Kind        Kind                       `json:"kind"`
	Params      TestParameters             `json:"params"`
	Means       *MeanComparisonInput       `json:"means,omitempty"`
	Proportions *ProportionComparisonInput `json:"proportions,omitempty"`
	CreatedAt   core.Timestamp             `json:"created_at"`
}

// NewMeansExperiment creates a mean-comparison experiment with a fresh ID.
func NewMeansExperiment(name string, in MeanComparisonInput, params TestParameters) Experiment {
	return Experiment{
		ID:        core.NewExperimentID(),
		Name:      name,
		Kind:      KindMeans,
		Params:    params,
		Means:     &in,
		CreatedAt: core.Now(),
	}
}

// NewProportionsExperiment creates a proportion-comparison experiment with a fresh ID.
func NewProportionsExperiment(name string, in ProportionComparisonInput, params TestParameters) Experiment {
	return Experiment{
		ID:          core.NewExperimentID(),
		Name:        name,
		Kind:        KindProportions,
		Params:      params,
		Proportions: &in,
		CreatedAt:   core.Now(),
	}
}

// Validate checks that the payload matches the kind and that all inputs are valid.
func (e Experiment) Validate() error {
	if err := e.Params.Validate(); err != nil {
		return err
	}
	switch e.Kind {
	case KindMeans:
		if e.Means == nil || e.Proportions != nil {
			return core.NewInvalidInputError("means", "payload required for kind means")
		}
		return e.Means.Validate()
	case KindProportions:
		if e.Proportions == nil || e.Means != nil {
			return core.NewInvalidInputError("proportions", "payload required for kind proportions")
		}
		return e.Proportions.Validate()
	}
	return core.NewInvalidInputError("kind", fmt.Sprintf("unknown experiment kind %q", e.Kind))
}

// Fingerprint hashes the statistical inputs, ignoring ID, name and timestamps.
func (e Experiment) Fingerprint() core.Hash {
	fields := map[string]interface{}{
		"kind":  e.Kind,
		"alpha": e.Params.Alpha,
		"beta":  e.Params.Beta,
	}
	if e.Means != nil {
		fields["x1"] = e.Means.Control.Mean
		fields["s1"] = e.Means.Control.StdDev
		fields["n1"] = e.Means.Control.Size
		fields["x2"] = e.Means.Treatment.Mean
		fields["s2"] = e.Means.Treatment.StdDev
		fields["n2"] = e.Means.Treatment.Size
	}
	if e.Proportions != nil {
		fields["p1"] = e.Proportions.Control.Proportion
		fields["n1"] = e.Proportions.Control.Size
		fields["p2"] = e.Proportions.Treatment.Proportion
		fields["n2"] = e.Proportions.Treatment.Size
	}
	return core.ComputeFieldsHash(fields)
}

// Evaluation holds the computed outputs for one experiment.
type Evaluation struct {
	ExperimentID core.ExperimentID  `json:"experiment_id"`
	Kind         Kind               `json:"kind"`
	Fingerprint  core.Hash          `json:"fingerprint"`
	Significance SignificanceResult `json:"significance"`
	Interval     ConfidenceInterval `json:"confidence_interval"`
	Power        PowerResult        `json:"power"`
	EvaluatedAt  core.Timestamp     `json:"evaluated_at"`
}

// Record is what the repository persists: the experiment and its evaluation.
type Record struct {
	Experiment Experiment `json:"experiment"`
	Evaluation Evaluation `json:"evaluation"`
}
