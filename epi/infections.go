package epi

import "math"

// Infection recursion for a single population. Two phases over the day
// axis:
//
//	Seeding (0 <= t < n0): increments are taken directly from the
//	parameter vector; nothing is generated by the renewal equation yet.
//
//	Renewal (t >= n0): total infectiousness C_t is the convolution of
//	past increments against the serial-interval weights, and the new
//	increment saturates exponentially toward the remaining susceptible
//	pool:
//
//	    dI_t = S_t * (1 - exp(-Rt_t * S_t * C_t / S0^2)),  S_t = S0 - I_{t-1}
//
// The exponential form keeps 0 <= I_t <= S0 for any non-negative Rt and
// C, unlike a naive multiplicative update which can overshoot S0. Any
// breach of that bound therefore indicates corrupted inputs and fails
// fast with InvariantViolation.
//
// Convolution cost is capped at the serial-interval support D, so one
// population evaluates in O(T*D).
func simulateInfections(pop Population, seeds, rt, serial []float64) (deltaI, cumulative []float64, err error) {
	if !(pop.S0 > 0) {
		return nil, nil, &InvariantViolation{Population: pop.ID, Detail: "non-positive susceptible pool"}
	}
	n0 := len(seeds)
	deltaI = make([]float64, pop.Days)
	cumulative = make([]float64, pop.Days)

	cum := 0.0
	for t := 0; t < pop.Days; t++ {
		var dI float64
		if t < n0 {
			dI = seeds[t]
			if dI < 0 || math.IsNaN(dI) {
				return nil, nil, &InvariantViolation{Population: pop.ID, Day: t, Detail: "negative seed increment"}
			}
		} else {
			c := totalInfectiousness(deltaI, serial, t)
			s := pop.S0 - cum
			if s < 0 {
				return nil, nil, &InvariantViolation{Population: pop.ID, Day: t, Detail: "cumulative infections exceed susceptible pool"}
			}
			dI = s * (1 - math.Exp(-rt[t]*s*c/(pop.S0*pop.S0)))
		}
		if math.IsNaN(dI) || dI < 0 {
			return nil, nil, &InvariantViolation{Population: pop.ID, Day: t, Detail: "non-finite or negative infection increment"}
		}
		cum += dI
		// Tolerance of a few ulps: the saturating update cannot exceed S0
		// in exact arithmetic, only by rounding.
		if cum > pop.S0*(1+1e-12) {
			return nil, nil, &InvariantViolation{Population: pop.ID, Day: t, Detail: "cumulative infections exceed susceptible pool"}
		}
		deltaI[t] = dI
		cumulative[t] = cum
	}
	return deltaI, cumulative, nil
}

// totalInfectiousness is the discrete convolution of past increments
// against the serial-interval weights at day t. serial[j] weighs
// infections j+1 days old; lags beyond the support contribute nothing.
// Linear in deltaI.
func totalInfectiousness(deltaI, serial []float64, t int) float64 {
	c := 0.0
	maxLag := len(serial)
	if t < maxLag {
		maxLag = t
	}
	for lag := 1; lag <= maxLag; lag++ {
		c += deltaI[t-lag] * serial[lag-1]
	}
	return c
}
