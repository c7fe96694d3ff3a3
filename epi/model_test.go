package epi

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestEvaluate_Deterministic verifies the same parameter vector always
// produces bit-identical output (the sampler calls this thousands of
// times and relies on purity).
func TestEvaluate_Deterministic(t *testing.T) {
	m := newTestModel(t, []string{"A", "B"}, 15, 1e6, newTestSpec(0.1))
	theta := thetaWith(m, 1.3, 10, 10)

	first, err := m.Evaluate(theta)
	require.NoError(t, err)
	second, err := m.Evaluate(theta)
	require.NoError(t, err)

	assert.Equal(t, first.LogDensity, second.LogDensity)
	assert.Equal(t, first.Infections, second.Infections)
	assert.Equal(t, first.Expected, second.Expected)
}

// TestEvaluate_PopulationIndependence verifies that evaluating two
// populations with no shared group-level structure yields the same
// per-population output as evaluating each alone.
func TestEvaluate_PopulationIndependence(t *testing.T) {
	spec := newTestSpec(0.1)

	joint := newTestModel(t, []string{"A", "B"}, 12, 1e6, spec)
	alone := newTestModel(t, []string{"A"}, 12, 1e6, spec)

	jointRes, err := joint.Evaluate(thetaWith(joint, 1.4, 10, 10))
	require.NoError(t, err)
	aloneRes, err := alone.Evaluate(thetaWith(alone, 1.4, 10, 10))
	require.NoError(t, err)

	assert.Equal(t, aloneRes.Infections[0], jointRes.Infections[0], "population A infections")
	assert.Equal(t, aloneRes.Infections[0], jointRes.Infections[1], "identical populations must match")
	assert.Equal(t, aloneRes.Expected["deaths"][0], jointRes.Expected["deaths"][0])
}

// TestEvaluate_WorkerFanOutMatchesSequential verifies the bounded
// fan-out changes nothing but wall time.
func TestEvaluate_WorkerFanOutMatchesSequential(t *testing.T) {
	spec := newTestSpec(0.1)
	seq := newTestModel(t, []string{"A", "B", "C", "D"}, 20, 1e6, spec)
	spec.Workers = 4
	par := newTestModel(t, []string{"A", "B", "C", "D"}, 20, 1e6, spec)

	seqRes, err := seq.Evaluate(thetaWith(seq, 1.2, 10, 10))
	require.NoError(t, err)
	parRes, err := par.Evaluate(thetaWith(par, 1.2, 10, 10))
	require.NoError(t, err)

	assert.Equal(t, seqRes.LogDensity, parRes.LogDensity)
	assert.Equal(t, seqRes.Infections, parRes.Infections)
}

// TestEvaluate_WrongParameterLength is a construction bug, not a
// rejection.
func TestEvaluate_WrongParameterLength(t *testing.T) {
	m := newTestModel(t, []string{"A"}, 10, 1e6, newTestSpec(0.1))
	_, err := m.Evaluate(make([]float64, m.NumParams()+1))
	require.Error(t, err)
	assert.False(t, IsRejection(err))
}

// TestEvaluate_RejectsOutOfSupport verifies out-of-support latent values
// surface as rejections the sampler can treat as -Inf.
func TestEvaluate_RejectsOutOfSupport(t *testing.T) {
	m := newTestModel(t, []string{"A"}, 10, 1e6, newTestSpec(0.1))

	// Negative tau
	theta := thetaWith(m, 1.2, -1, 10)
	_, err := m.Evaluate(theta)
	require.Error(t, err)
	assert.True(t, IsRejection(err))

	// Negative seed increment
	theta = thetaWith(m, 1.2, 10, 10)
	theta[m.Layout().Seeds[0].Off] = -3
	_, err = m.Evaluate(theta)
	require.Error(t, err)
	assert.True(t, IsRejection(err))
}

// TestEvaluatePredictive_SkipsOutcomeScoring verifies predictive mode
// computes expected values but no likelihood term.
func TestEvaluatePredictive_SkipsOutcomeScoring(t *testing.T) {
	m := newTestModel(t, []string{"A"}, 10, 1e6, newTestSpec(0.1))
	theta := thetaWith(m, 1.3, 10, 10)

	pred, err := m.EvaluatePredictive(theta)
	require.NoError(t, err)
	full, err := m.Evaluate(theta)
	require.NoError(t, err)

	assert.Zero(t, pred.LogLik)
	assert.Equal(t, pred.LogStructural, pred.LogDensity)
	assert.Equal(t, full.Expected["deaths"], pred.Expected["deaths"], "expected values identical either way")
	assert.NotZero(t, full.LogLik)
}

// TestPriorPredictive_DeterministicInKey verifies reproducibility and
// that different keys actually move the draw.
func TestPriorPredictive_DeterministicInKey(t *testing.T) {
	// Logit links keep every prior draw inside the model's support (the
	// identity link would let a negative intercept draw produce a
	// negative reproduction number).
	spec := newTestSpec(0.1)
	spec.Rt.Link = LinkLogit
	spec.Obs[0].Link = LinkLogit
	m := newTestModel(t, []string{"A", "B"}, 15, 1e6, spec)

	theta1, res1, err := m.PriorPredictive(NewSimulationKey(7))
	require.NoError(t, err)
	theta2, res2, err := m.PriorPredictive(NewSimulationKey(7))
	require.NoError(t, err)
	theta3, _, err := m.PriorPredictive(NewSimulationKey(8))
	require.NoError(t, err)

	assert.Equal(t, theta1, theta2)
	assert.Equal(t, res1.LogDensity, res2.LogDensity)
	assert.NotEqual(t, theta1, theta3)
}

// TestSummarize_ReportsBoundSaturation verifies the post-hoc RMax
// saturation warning signal.
func TestSummarize_ReportsBoundSaturation(t *testing.T) {
	spec := newTestSpec(0.1)
	spec.Rt.Link = LinkLogit
	spec.Rt.RMax = 1 // tiny bound: a large intercept pins Rt against 2*RMax
	m := newTestModel(t, []string{"A"}, 10, 1e9, spec)

	res, err := m.Evaluate(thetaWith(m, 40, 10, 10))
	require.NoError(t, err)
	s := m.Summarize(res)
	require.Len(t, s.Populations, 1)
	assert.Equal(t, 1.0, s.Populations[0].RtBoundFraction, "every day pinned at the bound")
	assert.Positive(t, s.SeriesTotals["deaths"])
}
