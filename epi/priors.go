package epi

import (
	"math"

	"gonum.org/v1/gonum/stat/distuv"
)

// Default prior bundle. The external sampler owns user-level priors for
// the regression coefficients; the densities here serve two internal
// consumers: the prior-predictive mode (which must be able to draw a
// complete parameter vector) and the cumulative warm-start objective
// (which needs a proper posterior to optimize). Structural latent
// densities (walk increments, seed increments, group effects) are part
// of every evaluation regardless.

const ln2 = math.Ln2

// coefPriorScale is the default stddev of the zero-mean normal placed on
// regression coefficients by the internal consumers above.
const coefPriorScale = 0.5

func halfNormalLogPDF(x, scale float64) float64 {
	if x < 0 || scale <= 0 {
		return math.Inf(-1)
	}
	return ln2 + distuv.Normal{Mu: 0, Sigma: scale}.LogProb(x)
}

func exponentialLogPDF(x, rate float64) float64 {
	if x < 0 {
		return math.Inf(-1)
	}
	return distuv.Exponential{Rate: rate}.LogProb(x)
}

// structuralLogDensity scores the latent blocks that are defined by the
// model itself rather than by user priors: walk increments given sigma,
// seed increments given tau, and group effects under their term scales.
func (m *Model) structuralLogDensity(v view) float64 {
	lp := 0.0
	for k := range m.assembly.walks {
		lp += walkLogDensity(&m.assembly.walks[k], v.gamma(k), v.sigma(k))
	}

	tau := v.tau()
	if tau <= 0 {
		return math.Inf(-1)
	}
	seedDist := distuv.Exponential{Rate: 1 / tau}
	for p := 0; p < m.table.NumPops(); p++ {
		for _, s := range v.seeds(p) {
			if s < 0 {
				return math.Inf(-1)
			}
			lp += seedDist.LogProb(s)
		}
	}

	numPops := m.table.NumPops()
	for g, scale := range m.assembly.groupScales {
		dist := distuv.Normal{Mu: 0, Sigma: scale}
		for p := 0; p < numPops; p++ {
			lp += dist.LogProb(m.layout.groupEffect(v.theta, g, p, numPops))
		}
	}
	return lp
}

// hyperLogDensity scores the non-structural parameters under the default
// priors: coefficients ~ N(0, coefPriorScale), sigma_k ~ halfN(Sigma0),
// tau ~ Exp(Lambda0), phi_l ~ halfN(PhiScale).
func (m *Model) hyperLogDensity(v view) float64 {
	lp := 0.0
	coef := distuv.Normal{Mu: 0, Sigma: coefPriorScale}
	for _, b := range v.beta() {
		lp += coef.LogProb(b)
	}
	walkIdx := 0
	for _, tm := range m.spec.Rt.Terms {
		if tm.Kind == TermWalk {
			lp += halfNormalLogPDF(v.sigma(walkIdx), tm.Walk.Sigma0)
			walkIdx++
		}
	}
	lp += exponentialLogPDF(v.tau(), m.spec.Seed.Lambda0)
	for l, o := range m.spec.Obs {
		for _, c := range v.coeffs(l) {
			lp += coef.LogProb(c)
		}
		if o.Family == FamilyNegBinom {
			lp += halfNormalLogPDF(v.phi(l), o.PhiScale)
		}
	}
	return lp
}

// drawPrior fills a fresh parameter vector with a draw from the default
// priors, one RNG subsystem per block so that adding a series or a walk
// does not perturb unrelated draws.
func (m *Model) drawPrior(rng *PartitionedRNG) []float64 {
	theta := make([]float64, m.layout.Total)

	coefSrc := rng.ForSubsystem(SubsystemCoefficients)
	for i := m.layout.Beta.Off; i < m.layout.Beta.Off+m.layout.Beta.Len; i++ {
		theta[i] = coefSrc.NormFloat64() * coefPriorScale
	}
	numPops := m.table.NumPops()
	for g, scale := range m.assembly.groupScales {
		for p := 0; p < numPops; p++ {
			theta[m.layout.B.Off+g*numPops+p] = coefSrc.NormFloat64() * scale
		}
	}

	walkSrc := rng.ForSubsystem(SubsystemWalks)
	walkIdx := 0
	for _, tm := range m.spec.Rt.Terms {
		if tm.Kind != TermWalk {
			continue
		}
		sigma := math.Abs(walkSrc.NormFloat64()) * tm.Walk.Sigma0
		theta[m.layout.Sigma.Off+walkIdx] = sigma
		w := &m.assembly.walks[walkIdx]
		base := m.layout.Gamma[walkIdx].Off
		for _, in := range w.instances {
			prev := 0.0
			for s := 0; s < in.states; s++ {
				prev += walkSrc.NormFloat64() * sigma
				theta[base+s] = prev
			}
			base += in.states
		}
		walkIdx++
	}

	seedSrc := rng.ForSubsystem(SubsystemSeeding)
	tau := seedSrc.ExpFloat64() / m.spec.Seed.Lambda0
	theta[m.layout.Tau.Off] = tau
	for p := 0; p < numPops; p++ {
		span := m.layout.Seeds[p]
		for i := span.Off; i < span.Off+span.Len; i++ {
			theta[i] = seedSrc.ExpFloat64() * tau
		}
	}

	obsSrc := rng.ForSubsystem(SubsystemObservation)
	for l, o := range m.spec.Obs {
		span := m.layout.Series[l].Coeffs
		for i := span.Off; i < span.Off+span.Len; i++ {
			theta[i] = obsSrc.NormFloat64() * coefPriorScale
		}
		if o.Family == FamilyNegBinom {
			theta[m.layout.Series[l].Phi.Off] = math.Abs(obsSrc.NormFloat64()) * o.PhiScale
		}
	}
	return theta
}
