package epi

import (
	"math"

	"gonum.org/v1/gonum/stat/distuv"
)

// Observation scoring for one (series, population) pair.
//
// The expected count on day t convolves strictly earlier infection
// increments against the series' delay distribution and scales by the
// ascertainment curve:
//
//	y_t = alpha_t * sum_{i=0}^{t-1} dI_i * delay[t-i]
//
// alpha_t comes from the series' own pooled regression through its link.
// Missing outcome entries contribute nothing to the likelihood; they are
// skipped, never imputed. Infections are computed for every day whether
// or not any series observes it.

// seriesExpected computes the expected-count curve for one population:
// the ascertainment curve alpha times the delay convolution, evaluated
// for every day the population covers.
func (m *Model) seriesExpected(l int, pop int, deltaI []float64, coeffs []float64) []float64 {
	spec := &m.spec.Obs[l]
	od := &m.assembly.obs[l]
	off := m.table.Offset(pop)
	days := m.table.Pop(pop).Days

	expected := make([]float64, days)
	for t := 0; t < days; t++ {
		row := off + t
		eta := od.offset[row]
		if od.X != nil {
			for j, c := range coeffs {
				eta += od.X.At(row, j) * c
			}
		}
		alpha := spec.Link.Inverse(eta)

		conv := 0.0
		maxLag := len(spec.Delay) - 1
		if t < maxLag {
			maxLag = t
		}
		for lag := 1; lag <= maxLag; lag++ {
			conv += deltaI[t-lag] * spec.Delay[lag]
		}
		expected[t] = alpha * conv
	}
	return expected
}

// seriesLogLik scores the observed outcome column of one population
// against the expected curve. Returns an InvariantViolation when an
// expected value is negative or non-finite.
func (m *Model) seriesLogLik(l int, pop int, expected []float64, phi float64) (float64, error) {
	spec := &m.spec.Obs[l]
	outcome, _ := m.table.Column(spec.Outcome)
	off := m.table.Offset(pop)
	popID := m.table.Pop(pop).ID

	ll := 0.0
	for t, y := range expected {
		if math.IsNaN(y) || y < 0 {
			return 0, &InvariantViolation{Population: popID, Day: t, Detail: "negative or non-finite expected count for series " + spec.Name}
		}
		obs := outcome[off+t]
		if math.IsNaN(obs) {
			continue // missing entry: excluded from the likelihood sum
		}
		switch spec.Family {
		case FamilyPoisson:
			ll += poissonLogPMF(obs, y)
		case FamilyNegBinom:
			ll += negBinomLogPMF(obs, y, phi)
		}
	}
	return ll, nil
}

// poissonLogPMF evaluates log P(k | lambda) with the zero-rate corner
// handled explicitly (distuv is undefined at lambda == 0).
func poissonLogPMF(k, lambda float64) float64 {
	if lambda <= 0 {
		if k == 0 {
			return 0
		}
		return math.Inf(-1)
	}
	return distuv.Poisson{Lambda: lambda}.LogProb(k)
}

// negBinomLogPMF evaluates the mean/size parametrization of the negative
// binomial: mean mu, variance mu + mu^2/phi, so phi is the reciprocal of
// the overdispersion. gonum's distuv carries no negative binomial, hence
// the explicit gamma-function form (the same one statmodel's GLM family
// uses).
func negBinomLogPMF(k, mu, phi float64) float64 {
	if phi <= 0 {
		return math.Inf(-1)
	}
	if mu <= 0 {
		if k == 0 {
			return 0
		}
		return math.Inf(-1)
	}
	lg1, _ := math.Lgamma(k + phi)
	lg2, _ := math.Lgamma(phi)
	lg3, _ := math.Lgamma(k + 1)
	return lg1 - lg2 - lg3 +
		phi*math.Log(phi/(phi+mu)) +
		k*math.Log(mu/(phi+mu))
}
