package main

import (
	"bytes"
	"context"
	"testing"

	"abkit/adapters/memory"
	"abkit/domain/core"
	"abkit/domain/experiment"
	"abkit/internal/abtest"
	"abkit/internal/batch"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSyntheticExperiments(t *testing.T) {
	params := experiment.DefaultTestParameters()
	exps, err := syntheticExperiments(6, 7, params)
	require.NoError(t, err)
	require.Len(t, exps, 6)

	for i, exp := range exps {
		assert.NoError(t, exp.Validate(), exp.Name)
		if i%2 == 0 {
			assert.Equal(t, experiment.KindMeans, exp.Kind)
		} else {
			assert.Equal(t, experiment.KindProportions, exp.Kind)
		}
	}

	again, err := syntheticExperiments(6, 7, params)
	require.NoError(t, err)
	for i := range exps {
		assert.Equal(t, exps[i].Fingerprint(), again[i].Fingerprint(), "same seed, same inputs")
	}

	_, err = syntheticExperiments(0, 7, params)
	assert.True(t, core.IsInvalidInput(err))
}

func TestSeedAndDeterminism(t *testing.T) {
	ctx := context.Background()
	engine := abtest.NewDefaultEngine()
	repo := memory.NewExperimentRepository()

	exps, err := syntheticExperiments(4, 42, experiment.DefaultTestParameters())
	require.NoError(t, err)

	var out bytes.Buffer
	require.NoError(t, seedExperiments(ctx, &out, batch.NewEvaluator(engine, 2, batch.WithRepository(repo)), exps))
	assert.Contains(t, out.String(), "Seeded 4/4 experiments")
	assert.Equal(t, 4, repo.Len())

	out.Reset()
	require.NoError(t, testDeterminism(ctx, &out, engine, repo, exps[1].ID))
	assert.Contains(t, out.String(), "results identical")

	err = testDeterminism(ctx, &out, engine, repo, core.NewExperimentID())
	assert.True(t, core.IsNotFoundError(err))
}

func TestSmokeTests(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, runSmokeTests(context.Background(), &out, abtest.NewDefaultEngine()))
	assert.Contains(t, out.String(), "Smoke tests: 5/5 passed")
}

func TestCompareEvaluations(t *testing.T) {
	base := experiment.Evaluation{
		Fingerprint:  core.Hash("abc"),
		Significance: experiment.SignificanceResult{ZStatistic: 1.5, PValue: 0.13},
		Interval:     experiment.ConfidenceInterval{Lower: -1, Upper: 2},
		Power:        experiment.PowerResult{Power: 0.3},
	}
	assert.NoError(t, compareEvaluations(base, base))

	changed := base
	changed.Power.Power = 0.31
	assert.Error(t, compareEvaluations(base, changed))

	changed = base
	changed.Fingerprint = "def"
	assert.Error(t, compareEvaluations(base, changed))
}
