package abtest

import (
	"errors"
	"testing"

	"abkit/domain/core"
	"abkit/domain/experiment"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockNormal lets tests drive the engine with a misbehaving primitive.
type MockNormal struct {
	mock.Mock
}

func (m *MockNormal) CDF(z float64) float64 {
	args := m.Called(z)
	return args.Get(0).(float64)
}

func (m *MockNormal) InverseCDF(p float64) (float64, error) {
	args := m.Called(p)
	return args.Get(0).(float64), args.Error(1)
}

func TestCriticalZ_DefaultParameters(t *testing.T) {
	e := NewDefaultEngine()

	zA, err := e.CriticalZ(experiment.DefaultTestParameters())
	require.NoError(t, err)
	assert.InDelta(t, 1.959964, zA, 1e-6)

	zB, err := e.PowerZ(experiment.DefaultTestParameters())
	require.NoError(t, err)
	assert.InDelta(t, 0.841621, zB, 1e-6)
}

func TestCriticalZ_DecreasesAsAlphaGrows(t *testing.T) {
	e := NewDefaultEngine()

	prev := 0.0
	for i, alpha := range []float64{0.001, 0.01, 0.05, 0.1, 0.2, 0.5, 0.9} {
		z, err := e.CriticalZ(experiment.TestParameters{Alpha: alpha, Beta: 0.2})
		require.NoError(t, err)
		if i > 0 {
			assert.Less(t, z, prev, "critical z should shrink as alpha grows (alpha=%v)", alpha)
		}
		prev = z
	}
}

func TestCriticalZ_InvalidParameters(t *testing.T) {
	e := NewDefaultEngine()

	_, err := e.CriticalZ(experiment.TestParameters{Alpha: 1.2, Beta: 0.2})
	assert.True(t, core.IsInvalidInput(err))

	_, err = e.PowerZ(experiment.TestParameters{Alpha: 0.05, Beta: 0})
	assert.True(t, core.IsInvalidInput(err))
}

func TestTwoSidedPValue_Symmetric(t *testing.T) {
	e := NewDefaultEngine()

	assert.InDelta(t, 1.0, e.TwoSidedPValue(0), 1e-12)
	for _, z := range []float64{0.1, 0.5, 1.96, 3.2} {
		assert.InDelta(t, e.TwoSidedPValue(z), e.TwoSidedPValue(-z), 1e-12, "z=%v", z)
	}
	assert.InDelta(t, 0.05, e.TwoSidedPValue(1.959964), 1e-6)
}

func TestEngine_PropagatesNumericDomainError(t *testing.T) {
	dist := new(MockNormal)
	domainErr := core.NewNumericDomainError(0.975)
	dist.On("InverseCDF", mock.Anything).Return(0.0, domainErr)

	e := NewEngine(dist)
	_, err := e.CriticalZ(experiment.DefaultTestParameters())

	require.Error(t, err)
	assert.True(t, errors.Is(err, core.ErrNumericDomain))
	dist.AssertExpectations(t)
}

func TestEvaluate_DispatchesOnKind(t *testing.T) {
	e := NewDefaultEngine()

	means := experiment.NewMeansExperiment("basket size", experiment.MeanComparisonInput{
		Control:   experiment.MeanSample{Mean: 5.08, StdDev: 2.06, Size: 32058},
		Treatment: experiment.MeanSample{Mean: 8.04, StdDev: 2.39, Size: 34515},
	}, experiment.DefaultTestParameters())

	eval, err := e.Evaluate(means)
	require.NoError(t, err)
	assert.Equal(t, means.ID, eval.ExperimentID)
	assert.Equal(t, experiment.KindMeans, eval.Kind)
	assert.Equal(t, means.Fingerprint(), eval.Fingerprint)
	assert.True(t, eval.Significance.RejectedNull)

	props := experiment.NewProportionsExperiment("retention", experiment.ProportionComparisonInput{
		Control:   experiment.ProportionSample{Proportion: 0.6488, Size: 14667},
		Treatment: experiment.ProportionSample{Proportion: 0.6530, Size: 14193},
	}, experiment.DefaultTestParameters())

	eval, err = e.Evaluate(props)
	require.NoError(t, err)
	assert.Equal(t, experiment.KindProportions, eval.Kind)
	assert.False(t, eval.Significance.RejectedNull)

	props.Proportions = nil
	_, err = e.Evaluate(props)
	assert.True(t, core.IsInvalidInput(err))
}
