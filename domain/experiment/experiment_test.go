package experiment

import (
	"math"
	"testing"

	"abkit/domain/core"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTestParameters_Validate(t *testing.T) {
	tests := []struct {
		name    string
		params  TestParameters
		wantErr bool
	}{
		{"defaults", DefaultTestParameters(), false},
		{"strict", TestParameters{Alpha: 0.001, Beta: 0.01}, false},
		{"alpha zero", TestParameters{Alpha: 0, Beta: 0.2}, true},
		{"alpha one", TestParameters{Alpha: 1, Beta: 0.2}, true},
		{"beta negative", TestParameters{Alpha: 0.05, Beta: -0.1}, true},
		{"beta one", TestParameters{Alpha: 0.05, Beta: 1}, true},
		{"alpha NaN", TestParameters{Alpha: math.NaN(), Beta: 0.2}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.params.Validate()
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, core.IsInvalidInput(err))
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestTestParameters_Derived(t *testing.T) {
	p := DefaultTestParameters()
	assert.InDelta(t, 0.95, p.ConfidenceLevel(), 1e-12)
	assert.InDelta(t, 0.8, p.TargetPower(), 1e-12)
	assert.InDelta(t, 0.975, p.CriticalProbability(), 1e-12)
	assert.InDelta(t, 0.8, p.PowerProbability(), 1e-12)
}

func TestMeanComparisonInput_Validate(t *testing.T) {
	valid := MeanComparisonInput{
		Control:   MeanSample{Mean: 5.08, StdDev: 2.06, Size: 32058},
		Treatment: MeanSample{Mean: 8.04, StdDev: 2.39, Size: 34515},
	}
	require.NoError(t, valid.Validate())
	assert.InDelta(t, -2.96, valid.Difference(), 1e-12)

	zeroStd := valid
	zeroStd.Treatment.StdDev = 0
	err := zeroStd.Validate()
	require.Error(t, err)
	assert.True(t, core.IsInvalidInput(err))
	assert.Contains(t, err.Error(), "treatment.stddev")

	zeroSize := valid
	zeroSize.Control.Size = 0
	err = zeroSize.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "control.size")

	infMean := valid
	infMean.Control.Mean = math.Inf(1)
	assert.Error(t, infMean.Validate())
}

func TestProportionComparisonInput_StandardErrors(t *testing.T) {
	in := ProportionComparisonInput{
		Control:   ProportionSample{Proportion: 0.6488, Size: 14667},
		Treatment: ProportionSample{Proportion: 0.6530, Size: 14193},
	}
	require.NoError(t, in.Validate())

	pool := in.PooledProportion()
	assert.True(t, pool > 0.6488 && pool < 0.6530, "pooled proportion should lie between the groups, got %f", pool)

	// Pooled and unpooled errors are close but not identical for unequal rates.
	assert.NotEqual(t, in.PooledStandardError(), in.UnpooledStandardError())
	assert.InDelta(t, in.PooledStandardError(), in.UnpooledStandardError(), 1e-4)
}

func TestProportionSample_Validate(t *testing.T) {
	assert.Error(t, ProportionSample{Proportion: -0.01, Size: 10}.Validate("control"))
	assert.Error(t, ProportionSample{Proportion: 1.01, Size: 10}.Validate("control"))
	assert.Error(t, ProportionSample{Proportion: 0.5, Size: 0}.Validate("control"))
	assert.NoError(t, ProportionSample{Proportion: 0, Size: 1}.Validate("control"))
	assert.NoError(t, ProportionSample{Proportion: 1, Size: 1}.Validate("control"))
}

func TestProportionSampleFromCounts(t *testing.T) {
	s, err := ProportionSampleFromCounts(13, 100)
	require.NoError(t, err)
	assert.InDelta(t, 0.13, s.Proportion, 1e-12)
	assert.Equal(t, 100, s.Size)

	_, err = ProportionSampleFromCounts(101, 100)
	assert.True(t, core.IsInvalidInput(err))

	_, err = ProportionSampleFromCounts(0, 0)
	assert.True(t, core.IsInvalidInput(err))
}

func TestExperiment_ValidateAndFingerprint(t *testing.T) {
	in := MeanComparisonInput{
		Control:   MeanSample{Mean: 10, StdDev: 2, Size: 100},
		Treatment: MeanSample{Mean: 11, StdDev: 2, Size: 100},
	}
	a := NewMeansExperiment("checkout", in, DefaultTestParameters())
	b := NewMeansExperiment("renamed", in, DefaultTestParameters())

	require.NoError(t, a.Validate())
	assert.NotEqual(t, a.ID, b.ID)
	assert.Equal(t, a.Fingerprint(), b.Fingerprint(), "fingerprint must ignore name and ID")

	c := NewMeansExperiment("checkout", in, TestParameters{Alpha: 0.01, Beta: 0.2})
	assert.NotEqual(t, a.Fingerprint(), c.Fingerprint())

	broken := a
	broken.Kind = KindProportions
	assert.True(t, core.IsInvalidInput(broken.Validate()))

	unknown := a
	unknown.Kind = "bayesian"
	assert.Error(t, unknown.Validate())
}

func TestParseKind(t *testing.T) {
	for input, want := range map[string]Kind{
		"means": KindMeans, " Mean ": KindMeans, "continuous": KindMeans,
		"proportions": KindProportions, "rate": KindProportions, "CONVERSION": KindProportions,
	} {
		got, err := ParseKind(input)
		require.NoError(t, err, input)
		assert.Equal(t, want, got, input)
	}

	_, err := ParseKind("median")
	assert.True(t, core.IsInvalidInput(err))
}
