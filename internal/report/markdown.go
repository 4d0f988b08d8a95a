package report

import (
	"fmt"
	"strings"

	"abkit/domain/experiment"
)

// Markdown renders the summary as a heading plus a two-column table.
func (s Summary) Markdown() string {
	var b strings.Builder

	title := s.Name
	if title == "" {
		title = "Experiment"
	}
	fmt.Fprintf(&b, "## %s\n\n", title)
	fmt.Fprintf(&b, "Comparison of %s.\n\n", s.Kind)
	b.WriteString("| Metric | Value |\n")
	b.WriteString("|---|---|\n")
	for _, l := range s.Lines() {
		fmt.Fprintf(&b, "| %s | %s |\n", escapeCell(l.Label), escapeCell(l.Value))
	}
	return b.String()
}

// SampleSizeMarkdown renders a sample-size answer with the parameters it assumed.
func SampleSizeMarkdown(kind experiment.Kind, result experiment.SampleSizeResult, params experiment.TestParameters) string {
	var b strings.Builder
	fmt.Fprintf(&b, "## Sample size (%s)\n\n", kind)
	b.WriteString("| Metric | Value |\n")
	b.WriteString("|---|---|\n")
	fmt.Fprintf(&b, "| Alpha | %s |\n", FormatFixed(params.Alpha))
	fmt.Fprintf(&b, "| Power target | %s |\n", FormatPercent(params.TargetPower()))
	fmt.Fprintf(&b, "| Per group | %d |\n", result.PerGroup)
	fmt.Fprintf(&b, "| Total | %d |\n", result.Total())
	return b.String()
}

func escapeCell(s string) string {
	return strings.ReplaceAll(s, "|", "\\|")
}
