// Package manifest reads YAML experiment manifests.
//
//	defaults:
//	  alpha: 0.05
//	  beta: 0.2
//	experiments:
//	  - name: basket size
//	    kind: means
//	    control:   {mean: 5.08, stddev: 2.06, size: 32058}
//	    treatment: {mean: 8.04, stddev: 2.39, size: 34515}
//	  - name: signups
//	    kind: proportions
//	    alpha: 0.01
//	    control:   {proportion: 0.10, size: 1000}
//	    treatment: {conversions: 130, size: 1000}
package manifest

import (
	"bytes"
	"fmt"
	"io"
	"os"

	"abkit/domain/core"
	"abkit/domain/experiment"

	"gopkg.in/yaml.v3"
)

// Manifest is the document root.
type Manifest struct {
	Defaults    Defaults `yaml:"defaults" json:"defaults"`
	Experiments []Entry  `yaml:"experiments" json:"experiments"`
}

// Defaults override the caller's parameters for every entry.
type Defaults struct {
	Alpha *float64 `yaml:"alpha" json:"alpha,omitempty"`
	Beta  *float64 `yaml:"beta" json:"beta,omitempty"`
}

// Entry describes one experiment. The API batch endpoint accepts the same
// shape as JSON.
type Entry struct {
	Name      string   `yaml:"name" json:"name"`
	Kind      string   `yaml:"kind" json:"kind"`
	Alpha     *float64 `yaml:"alpha" json:"alpha,omitempty"`
	Beta      *float64 `yaml:"beta" json:"beta,omitempty"`
	Control   Group    `yaml:"control" json:"control"`
	Treatment Group    `yaml:"treatment" json:"treatment"`
}

// Group is either a mean sample (mean, stddev, size) or a proportion sample
// (proportion or conversions, plus size).
type Group struct {
	Mean        *float64 `yaml:"mean" json:"mean,omitempty"`
	StdDev      *float64 `yaml:"stddev" json:"stddev,omitempty"`
	Size        int      `yaml:"size" json:"size"`
	Proportion  *float64 `yaml:"proportion" json:"proportion,omitempty"`
	Conversions *int     `yaml:"conversions" json:"conversions,omitempty"`
}

// Load reads and converts a manifest file.
func Load(path string, defaults experiment.TestParameters) ([]experiment.Experiment, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}
	return Parse(bytes.NewReader(data), defaults)
}

// Parse decodes a manifest from r. Unknown keys are rejected.
func Parse(r io.Reader, defaults experiment.TestParameters) ([]experiment.Experiment, error) {
	var m Manifest
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&m); err != nil {
		if err == io.EOF {
			return nil, core.NewInvalidInputError("manifest", "is empty")
		}
		return nil, fmt.Errorf("%w: parse manifest: %v", core.ErrInvalidInput, err)
	}
	return m.Build(defaults)
}

// Build converts every entry, failing on the first bad one.
func (m Manifest) Build(defaults experiment.TestParameters) ([]experiment.Experiment, error) {
	base := defaults
	if m.Defaults.Alpha != nil {
		base.Alpha = *m.Defaults.Alpha
	}
	if m.Defaults.Beta != nil {
		base.Beta = *m.Defaults.Beta
	}

	exps := make([]experiment.Experiment, 0, len(m.Experiments))
	for i, entry := range m.Experiments {
		exp, err := entry.Experiment(base)
		if err != nil {
			return nil, fmt.Errorf("experiment %d (%s): %w", i+1, entry.Name, err)
		}
		exps = append(exps, exp)
	}
	return exps, nil
}

// Experiment converts the entry; its alpha and beta override base.
func (e Entry) Experiment(base experiment.TestParameters) (experiment.Experiment, error) {
	params := base
	if e.Alpha != nil {
		params.Alpha = *e.Alpha
	}
	if e.Beta != nil {
		params.Beta = *e.Beta
	}

	kind, err := e.kind()
	if err != nil {
		return experiment.Experiment{}, err
	}

	if kind == experiment.KindMeans {
		control, err := e.Control.MeanSample("control")
		if err != nil {
			return experiment.Experiment{}, err
		}
		treatment, err := e.Treatment.MeanSample("treatment")
		if err != nil {
			return experiment.Experiment{}, err
		}
		in := experiment.MeanComparisonInput{Control: control, Treatment: treatment}
		return experiment.NewMeansExperiment(e.Name, in, params), nil
	}

	control, err := e.Control.ProportionSample("control")
	if err != nil {
		return experiment.Experiment{}, err
	}
	treatment, err := e.Treatment.ProportionSample("treatment")
	if err != nil {
		return experiment.Experiment{}, err
	}
	in := experiment.ProportionComparisonInput{Control: control, Treatment: treatment}
	return experiment.NewProportionsExperiment(e.Name, in, params), nil
}

func (e Entry) kind() (experiment.Kind, error) {
	if e.Kind != "" {
		return experiment.ParseKind(e.Kind)
	}
	if e.Control.Mean != nil {
		return experiment.KindMeans, nil
	}
	if e.Control.Proportion != nil || e.Control.Conversions != nil {
		return experiment.KindProportions, nil
	}
	return "", core.NewInvalidInputError("kind", "missing and cannot be inferred")
}

// MeanSample reads the group as a mean sample.
func (g Group) MeanSample(field string) (experiment.MeanSample, error) {
	if g.Mean == nil || g.StdDev == nil {
		return experiment.MeanSample{}, core.NewInvalidInputError(field, "needs mean and stddev")
	}
	return experiment.MeanSample{Mean: *g.Mean, StdDev: *g.StdDev, Size: g.Size}, nil
}

// ProportionSample reads the group as a proportion sample.
func (g Group) ProportionSample(field string) (experiment.ProportionSample, error) {
	switch {
	case g.Proportion != nil && g.Conversions != nil:
		return experiment.ProportionSample{}, core.NewInvalidInputError(field, "sets both proportion and conversions")
	case g.Proportion != nil:
		return experiment.ProportionSample{Proportion: *g.Proportion, Size: g.Size}, nil
	case g.Conversions != nil:
		s, err := experiment.ProportionSampleFromCounts(*g.Conversions, g.Size)
		if err != nil {
			return experiment.ProportionSample{}, fmt.Errorf("%s: %w", field, err)
		}
		return s, nil
	}
	return experiment.ProportionSample{}, core.NewInvalidInputError(field, "needs proportion or conversions")
}
