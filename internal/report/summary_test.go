package report

import (
	"strings"
	"testing"

	"abkit/domain/experiment"
	"abkit/internal/abtest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSummarizeMeans_BasketSize(t *testing.T) {
	e := abtest.NewDefaultEngine()
	cmp, err := e.CompareMeans(experiment.MeanComparisonInput{
		Control:   experiment.MeanSample{Mean: 5.08, StdDev: 2.06, Size: 32058},
		Treatment: experiment.MeanSample{Mean: 8.04, StdDev: 2.39, Size: 34515},
	}, experiment.DefaultTestParameters())
	require.NoError(t, err)

	s := SummarizeMeans(cmp)

	assert.Equal(t, "5.08", s.Control)
	assert.Equal(t, "8.04", s.Treatment)
	assert.True(t, s.Significant)
	assert.Equal(t, VerdictSignificant, s.Verdict)
	assert.Equal(t, "58.27%", s.RelativeChange)
	assert.Equal(t, "95.00%", s.ConfidenceLevel)
	assert.Equal(t, "[-2.99, -2.93]", s.ConfidenceInterval)
	assert.Equal(t, "-171.51", s.ZStatistic)
	assert.Equal(t, "0.00", s.PValue)
	assert.Equal(t, "100.00%", s.Power)
}

func TestSummarizeProportions_Retention(t *testing.T) {
	e := abtest.NewDefaultEngine()
	cmp, err := e.CompareProportions(experiment.ProportionComparisonInput{
		Control:   experiment.ProportionSample{Proportion: 0.6488, Size: 14667},
		Treatment: experiment.ProportionSample{Proportion: 0.6530, Size: 14193},
	}, experiment.DefaultTestParameters())
	require.NoError(t, err)

	s := SummarizeProportions(cmp)

	assert.Equal(t, "64.88%", s.Control)
	assert.Equal(t, "65.30%", s.Treatment)
	assert.False(t, s.Significant)
	assert.Equal(t, VerdictNotSignificant, s.Verdict)
	assert.Equal(t, "0.65%", s.RelativeChange)
	assert.Equal(t, "[-1.52%, 0.68%]", s.ConfidenceInterval)
	assert.Equal(t, "-0.75", s.ZStatistic)
	assert.Equal(t, "0.45", s.PValue)
	assert.Equal(t, "11.28%", s.Power)
}

func TestSummarizeRecord_MatchesDirectSummary(t *testing.T) {
	e := abtest.NewDefaultEngine()
	exp := experiment.NewProportionsExperiment("signup", experiment.ProportionComparisonInput{
		Control:   experiment.ProportionSample{Proportion: 0.10, Size: 5000},
		Treatment: experiment.ProportionSample{Proportion: 0.12, Size: 5000},
	}, experiment.DefaultTestParameters())

	eval, err := e.Evaluate(exp)
	require.NoError(t, err)
	cmp, err := e.CompareProportions(*exp.Proportions, exp.Params)
	require.NoError(t, err)

	fromRecord := SummarizeRecord(experiment.Record{Experiment: exp, Evaluation: eval})
	direct := SummarizeProportions(cmp)
	direct.Name = "signup"

	assert.Equal(t, direct, fromRecord)
}

func TestSummarizeRecord_MissingPayload(t *testing.T) {
	s := SummarizeRecord(experiment.Record{Experiment: experiment.Experiment{Name: "broken", Kind: experiment.KindMeans}})
	assert.Equal(t, "broken", s.Name)
	assert.Empty(t, s.Verdict)
}

func TestRelativeChange(t *testing.T) {
	assert.Equal(t, "10.00%", RelativeChange(100, 110))
	assert.Equal(t, "-50.00%", RelativeChange(0.2, 0.1))
	assert.Equal(t, "n/a", RelativeChange(0, 3))
}

func TestFormatting_Rounding(t *testing.T) {
	assert.Equal(t, "0.00", FormatFixed(-0.001))
	assert.Equal(t, "1.01", FormatFixed(1.005000001))
	assert.Equal(t, "-2.99", FormatFixed(-2.9938))
	assert.Equal(t, "12.35%", FormatPercent(0.123456))
	assert.Equal(t, "0.00%", FormatPercent(-0.0000001))
}

func TestSummary_TextAndMarkdown(t *testing.T) {
	s := Summary{
		Name: "checkout", Kind: experiment.KindMeans,
		Control: "1.00", Treatment: "2.00", Verdict: VerdictSignificant,
		RelativeChange: "100.00%", ConfidenceLevel: "95.00%", ConfidenceInterval: "[-1.20, -0.80]",
		ZStatistic: "-9.80", PValue: "0.00", Power: "100.00%",
	}

	text := s.Text()
	assert.True(t, strings.HasPrefix(text, "checkout (means)\n"))
	assert.Contains(t, text, "p-value:")
	assert.Equal(t, 9, strings.Count(text, "\n"))

	md := s.Markdown()
	assert.Contains(t, md, "## checkout")
	assert.Contains(t, md, "| 95.00% confidence interval | [-1.20, -0.80] |")
	assert.Contains(t, md, "| Power | 100.00% |")
}

func TestSampleSizeMarkdown(t *testing.T) {
	md := SampleSizeMarkdown(experiment.KindProportions, experiment.SampleSizeResult{PerGroup: 18328}, experiment.DefaultTestParameters())
	assert.Contains(t, md, "| Per group | 18328 |")
	assert.Contains(t, md, "| Total | 36656 |")
	assert.Contains(t, md, "| Power target | 80.00% |")
}
