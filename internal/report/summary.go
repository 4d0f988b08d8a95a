// Package report formats engine results as display strings. It never
// computes statistics itself.
package report

import (
	"fmt"
	"strings"

	"abkit/domain/experiment"

	"github.com/montanaflynn/stats"
)

// Verdict messages keyed on SignificanceResult.RejectedNull.
const (
	VerdictSignificant    = "statistically significant, reject the null hypothesis"
	VerdictNotSignificant = "not statistically significant, cannot reject the null hypothesis"
)

const notAvailable = "n/a"

// Summary is the display form of one comparison.
type Summary struct {
	Name               string          `json:"name,omitempty"`
	Kind               experiment.Kind `json:"kind"`
	Control            string          `json:"control"`
	Treatment          string          `json:"treatment"`
	Significant        bool            `json:"significant"`
	Verdict            string          `json:"verdict"`
	RelativeChange     string          `json:"relative_change"`
	ConfidenceLevel    string          `json:"confidence_level"`
	ConfidenceInterval string          `json:"confidence_interval"`
	ZStatistic         string          `json:"z_statistic"`
	PValue             string          `json:"p_value"`
	Power              string          `json:"power"`
}

// Line is one labelled row of a summary.
type Line struct {
	Label string
	Value string
}

// SummarizeMeans formats a mean comparison; the interval is shown in the
// metric's own units.
func SummarizeMeans(cmp experiment.MeanComparison) Summary {
	return build(experiment.KindMeans,
		cmp.Input.Control.Mean, cmp.Input.Treatment.Mean,
		cmp.Params, cmp.Significance, cmp.Interval, cmp.Power)
}

// SummarizeProportions formats a proportion comparison; rates and the
// interval are shown as percentages.
func SummarizeProportions(cmp experiment.ProportionComparison) Summary {
	return build(experiment.KindProportions,
		cmp.Input.Control.Proportion, cmp.Input.Treatment.Proportion,
		cmp.Params, cmp.Significance, cmp.Interval, cmp.Power)
}

// SummarizeRecord formats a stored experiment and its evaluation.
func SummarizeRecord(rec experiment.Record) Summary {
	exp, eval := rec.Experiment, rec.Evaluation

	var s Summary
	switch exp.Kind {
	case experiment.KindMeans:
		if exp.Means == nil {
			return Summary{Name: exp.Name, Kind: exp.Kind}
		}
		s = build(exp.Kind, exp.Means.Control.Mean, exp.Means.Treatment.Mean,
			exp.Params, eval.Significance, eval.Interval, eval.Power)
	case experiment.KindProportions:
		if exp.Proportions == nil {
			return Summary{Name: exp.Name, Kind: exp.Kind}
		}
		s = build(exp.Kind, exp.Proportions.Control.Proportion, exp.Proportions.Treatment.Proportion,
			exp.Params, eval.Significance, eval.Interval, eval.Power)
	default:
		return Summary{Name: exp.Name, Kind: exp.Kind}
	}
	s.Name = exp.Name
	return s
}

func build(kind experiment.Kind, control, treatment float64, params experiment.TestParameters,
	sig experiment.SignificanceResult, ci experiment.ConfidenceInterval, pw experiment.PowerResult) Summary {

	value := FormatFixed
	if kind == experiment.KindProportions {
		value = FormatPercent
	}

	verdict := VerdictNotSignificant
	if sig.RejectedNull {
		verdict = VerdictSignificant
	}

	return Summary{
		Kind:               kind,
		Control:            value(control),
		Treatment:          value(treatment),
		Significant:        sig.RejectedNull,
		Verdict:            verdict,
		RelativeChange:     RelativeChange(control, treatment),
		ConfidenceLevel:    FormatPercent(params.ConfidenceLevel()),
		ConfidenceInterval: fmt.Sprintf("[%s, %s]", value(ci.Lower), value(ci.Upper)),
		ZStatistic:         FormatFixed(sig.ZStatistic),
		PValue:             FormatFixed(sig.PValue),
		Power:              FormatPercent(pw.Power),
	}
}

// Lines returns the summary rows in report order.
func (s Summary) Lines() []Line {
	return []Line{
		{"Control", s.Control},
		{"Treatment", s.Treatment},
		{"Significance", s.Verdict},
		{"Relative change", s.RelativeChange},
		{s.ConfidenceLevel + " confidence interval", s.ConfidenceInterval},
		{"z-statistic", s.ZStatistic},
		{"p-value", s.PValue},
		{"Power", s.Power},
	}
}

// Text renders the summary as aligned "label: value" lines.
func (s Summary) Text() string {
	lines := s.Lines()
	width := 0
	for _, l := range lines {
		if len(l.Label) > width {
			width = len(l.Label)
		}
	}

	var b strings.Builder
	if s.Name != "" {
		fmt.Fprintf(&b, "%s (%s)\n", s.Name, s.Kind)
	}
	for _, l := range lines {
		fmt.Fprintf(&b, "%-*s  %s\n", width+1, l.Label+":", l.Value)
	}
	return b.String()
}

// RelativeChange formats (treatment - control) / control as a percentage.
func RelativeChange(control, treatment float64) string {
	if control == 0 {
		return notAvailable
	}
	return FormatPercent((treatment - control) / control)
}

// FormatFixed rounds half away from zero to 2 decimals.
func FormatFixed(v float64) string {
	return fmt.Sprintf("%.2f", round2(v))
}

// FormatPercent formats a fraction as a 2-decimal percentage.
func FormatPercent(v float64) string {
	return fmt.Sprintf("%.2f%%", round2(v*100))
}

func round2(v float64) float64 {
	r, err := stats.Round(v, 2)
	if err != nil {
		return v
	}
	if r == 0 {
		// drop negative zero so it never renders as "-0.00"
		r = 0
	}
	return r
}
