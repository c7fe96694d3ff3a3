package epi

import (
	"math"
	"testing"
)

// TestSeriesExpected_ExactDelayScenario pins the observation convolution
// to the hand-computed case: exact three-day delay, constant
// ascertainment 0.1, increments [10,10,10,10,0,...] => y_3 = 0.1*10 = 1.
func TestSeriesExpected_ExactDelayScenario(t *testing.T) {
	// GIVEN the fixture spec: identity-link ascertainment of 0.1 and
	// delay [0,0,0,1]; Rt identity-linked at zero so the only increments
	// are the four seeded days of 10
	m := newTestModel(t, []string{"A"}, 10, 1e9, newTestSpec(0.1))
	deltaI := []float64{10, 10, 10, 10, 0, 0, 0, 0, 0, 0}

	// WHEN the expected curve is computed (coefficient at zero: alpha is
	// the offset alone under the identity link)
	expected := m.seriesExpected(0, 0, deltaI, []float64{0})

	// THEN the first two days see no delayed mass at all
	for d := 0; d < 3; d++ {
		if expected[d] != 0 {
			t.Errorf("expected[%d] = %g, want 0", d, expected[d])
		}
	}
	// AND day 3 sees exactly the day-0 increment through the 3-day lag
	if !almostEqual(expected[3], 1.0, 1e-12) {
		t.Errorf("expected[3] = %g, want 1.0", expected[3])
	}
	// AND day 7 sees nothing (increment on day 4 was zero)
	if expected[7] != 0 {
		t.Errorf("expected[7] = %g, want 0", expected[7])
	}
}

// TestSeriesLogLik_SkipsMissing verifies missing outcome entries are
// excluded from the sum rather than imputed.
func TestSeriesLogLik_SkipsMissing(t *testing.T) {
	m := newTestModel(t, []string{"A"}, 6, 1e9, newTestSpec(0.1))
	outcome := []float64{3, math.NaN(), 3, math.NaN(), 3, 3}
	if err := m.table.SetColumn("deaths", outcome); err != nil {
		t.Fatalf("SetColumn: %v", err)
	}

	expected := []float64{2, 2, 2, 2, 2, 2}
	got, err := m.seriesLogLik(0, 0, expected, 0)
	if err != nil {
		t.Fatalf("seriesLogLik: %v", err)
	}
	want := 4 * poissonLogPMF(3, 2)
	if !almostEqual(got, want, 1e-12) {
		t.Errorf("loglik = %g, want %g (four observed days)", got, want)
	}
}

// TestSeriesLogLik_NegativeExpectedFails verifies the invariant check.
func TestSeriesLogLik_NegativeExpectedFails(t *testing.T) {
	m := newTestModel(t, []string{"A"}, 3, 1e9, newTestSpec(0.1))
	_, err := m.seriesLogLik(0, 0, []float64{1, -0.5, 1}, 0)
	if !IsRejection(err) {
		t.Errorf("err = %v, want InvariantViolation", err)
	}
}

// TestPoissonLogPMF verifies the closed form and the lambda=0 corner.
func TestPoissonLogPMF(t *testing.T) {
	// log P(2 | 3) = 2*log(3) - 3 - log(2!)
	want := 2*math.Log(3) - 3 - math.Log(2)
	if got := poissonLogPMF(2, 3); !almostEqual(got, want, 1e-12) {
		t.Errorf("poissonLogPMF(2,3) = %g, want %g", got, want)
	}
	if got := poissonLogPMF(0, 0); got != 0 {
		t.Errorf("poissonLogPMF(0,0) = %g, want 0", got)
	}
	if got := poissonLogPMF(1, 0); !math.IsInf(got, -1) {
		t.Errorf("poissonLogPMF(1,0) = %g, want -Inf", got)
	}
}

// TestNegBinomLogPMF verifies normalization over a range of counts and
// convergence to Poisson as phi grows.
func TestNegBinomLogPMF(t *testing.T) {
	// Probabilities over k=0..200 must sum to ~1 for a modest mean.
	mu, phi := 5.0, 2.0
	sum := 0.0
	for k := 0; k <= 200; k++ {
		sum += math.Exp(negBinomLogPMF(float64(k), mu, phi))
	}
	if !almostEqual(sum, 1, 1e-9) {
		t.Errorf("negbinom mass sums to %g, want 1", sum)
	}

	// Large phi: negligible overdispersion, matches Poisson closely.
	for _, k := range []float64{0, 3, 7} {
		nb := negBinomLogPMF(k, 4, 1e8)
		po := poissonLogPMF(k, 4)
		if !almostEqual(nb, po, 1e-5) {
			t.Errorf("k=%g: negbinom(phi=1e8) = %g, Poisson = %g", k, nb, po)
		}
	}

	// Out-of-support dispersion rejects.
	if got := negBinomLogPMF(1, 4, 0); !math.IsInf(got, -1) {
		t.Errorf("phi=0: %g, want -Inf", got)
	}
}
