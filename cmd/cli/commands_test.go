package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"abkit/domain/core"
	apperrors "abkit/internal/errors"
	"abkit/internal/report"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCmd(&out)
	cmd.SetArgs(args)
	cmd.SetErr(&bytes.Buffer{})
	err := cmd.Execute()
	return out.String(), err
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestSampleSize(t *testing.T) {
	out, err := run(t, "samplesize", "means", "--delta", "1", "--stddev", "38")
	require.NoError(t, err)
	assert.Contains(t, out, "per group: 22668")
	assert.Contains(t, out, "total:     45336")

	out, err = run(t, "samplesize", "proportions", "--p1", "0.13", "--p2", "0.14", "--format", "json")
	require.NoError(t, err)
	var payload struct {
		PerGroup int `json:"per_group"`
		Total    int `json:"total"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &payload))
	assert.Equal(t, 18328, payload.PerGroup)
	assert.Equal(t, 36656, payload.Total)

	out, err = run(t, "samplesize", "means", "--delta", "-1", "--stddev", "38", "--format", "markdown")
	require.NoError(t, err)
	assert.Contains(t, out, "| Per group | 22668 |")
}

func TestSampleSize_Errors(t *testing.T) {
	tests := []struct {
		name string
		args []string
		exit int
	}{
		{"equal proportions", []string{"samplesize", "proportions", "--p1", "0.2", "--p2", "0.2"}, 2},
		{"zero delta", []string{"samplesize", "means", "--delta", "0", "--stddev", "1"}, 2},
		{"alpha out of range", []string{"--alpha", "1.5", "samplesize", "means", "--delta", "1", "--stddev", "1"}, 2},
		{"missing flag", []string{"samplesize", "means", "--delta", "1"}, 1},
		{"unknown format", []string{"--format", "xml", "samplesize", "means", "--delta", "1", "--stddev", "1"}, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := run(t, tt.args...)
			require.Error(t, err)
			assert.Equal(t, tt.exit, apperrors.ExitCode(err))
		})
	}
}

func TestCompareMeans(t *testing.T) {
	out, err := run(t, "compare", "means", "--name", "basket size",
		"--control-mean", "5.08", "--control-stddev", "2.06", "--control-size", "32058",
		"--treatment-mean", "8.04", "--treatment-stddev", "2.39", "--treatment-size", "34515")
	require.NoError(t, err)
	assert.Contains(t, out, "basket size (means)")
	assert.Contains(t, out, report.VerdictSignificant)
	assert.Contains(t, out, "-171.51")
	assert.Contains(t, out, "[-2.99, -2.93]")
	assert.Contains(t, out, "100.00%")
}

func TestCompareMeans_FromObservations(t *testing.T) {
	control := writeFile(t, "control.csv", "basket\n1\n2\n3\n4\n5\n")
	treatment := writeFile(t, "treatment.csv", "basket\n2\n3\n4\n5\n6\n")

	out, err := run(t, "compare", "means", "--control-data", control, "--treatment-data", treatment, "--format", "json")
	require.NoError(t, err)

	var payload struct {
		Summary report.Summary `json:"summary"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &payload))
	assert.Equal(t, "3.00", payload.Summary.Control)
	assert.Equal(t, "4.00", payload.Summary.Treatment)
	assert.Equal(t, "33.33%", payload.Summary.RelativeChange)

	_, err = run(t, "compare", "means", "--control-data", control)
	assert.True(t, core.IsInvalidInput(err))
}

func TestCompareProportions(t *testing.T) {
	out, err := run(t, "compare", "proportions",
		"--control-conversions", "100", "--control-size", "1000",
		"--treatment-rate", "0.13", "--treatment-size", "1000", "--format", "markdown")
	require.NoError(t, err)
	assert.Contains(t, out, "## Experiment")
	assert.Contains(t, out, "| Control | 10.00% |")
	assert.Contains(t, out, "| Treatment | 13.00% |")

	_, err = run(t, "compare", "proportions",
		"--control-rate", "0.1", "--control-conversions", "100", "--control-size", "1000",
		"--treatment-rate", "0.13", "--treatment-size", "1000")
	assert.True(t, core.IsInvalidInput(err))

	_, err = run(t, "compare", "proportions", "--control-size", "1000",
		"--treatment-rate", "0.13", "--treatment-size", "1000")
	assert.True(t, core.IsInvalidInput(err))
}

const batchCSV = `name,kind,alpha,control_mean,control_stddev,control_size,treatment_mean,treatment_stddev,treatment_size,control_proportion,treatment_proportion
basket size,means,,5.08,2.06,32058,8.04,2.39,34515,,
broken,proportions,1.5,,,100,,,100,0.1,0.2
`

func TestBatch_SheetWithFailure(t *testing.T) {
	path := writeFile(t, "experiments.csv", batchCSV)
	results := filepath.Join(t.TempDir(), "results.xlsx")

	out, err := run(t, "batch", path, "--out", results, "--concurrency", "2")
	require.Error(t, err)
	assert.Equal(t, 2, apperrors.ExitCode(err))

	assert.Contains(t, out, "basket size (means)")
	assert.Contains(t, out, "broken: error:")
	assert.Contains(t, out, "1 succeeded, 1 failed")

	_, statErr := os.Stat(results)
	assert.NoError(t, statErr)
}

const batchYAML = `defaults:
  alpha: 0.05
experiments:
  - name: basket size
    kind: means
    control:   {mean: 5.08, stddev: 2.06, size: 32058}
    treatment: {mean: 8.04, stddev: 2.39, size: 34515}
  - name: signups
    control:   {conversions: 100, size: 1000}
    treatment: {conversions: 130, size: 1000}
`

func TestBatch_ManifestJSONWithSave(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	path := writeFile(t, "experiments.yaml", batchYAML)

	out, err := run(t, "batch", path, "--format", "json", "--save")
	require.NoError(t, err)

	var payload struct {
		Succeeded int `json:"succeeded"`
		Failed    int `json:"failed"`
		Items     []struct {
			Name    string          `json:"name"`
			ID      string          `json:"id"`
			Summary *report.Summary `json:"summary"`
		} `json:"items"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &payload))
	assert.Equal(t, 2, payload.Succeeded)
	assert.Equal(t, 0, payload.Failed)
	require.Len(t, payload.Items, 2)
	assert.Equal(t, "signups", payload.Items[1].Name)
	assert.NotEmpty(t, payload.Items[1].ID)
	require.NotNil(t, payload.Items[1].Summary)
	assert.Equal(t, "30.00%", payload.Items[1].Summary.RelativeChange)
}

func TestBatch_UnsupportedFile(t *testing.T) {
	path := writeFile(t, "experiments.json", "{}")
	_, err := run(t, "batch", path)
	require.Error(t, err)
	assert.Equal(t, 2, apperrors.ExitCode(err))
}
