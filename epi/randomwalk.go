package epi

import (
	"math"

	"gonum.org/v1/gonum/stat/distuv"
)

// Walk-process evaluation. The latent states gamma are supplied by the
// parameter vector (the sampler proposes them); this file scores their
// increments and projects the active state onto each data row.

// walkLogDensity scores the increments of every instance of process k
// under N(0, sigma^2), with the origin state gamma[-1] = 0. A zero sigma
// is the degenerate walk: density is 0 when every increment is exactly
// zero and -Inf otherwise, which the orchestrator surfaces as a
// rejection rather than a NaN.
func walkLogDensity(w *walkProcess, gamma []float64, sigma float64) float64 {
	if sigma < 0 {
		return math.Inf(-1)
	}
	if sigma == 0 {
		for _, g := range gamma {
			if g != 0 {
				return math.Inf(-1)
			}
		}
		return 0
	}
	n := distuv.Normal{Mu: 0, Sigma: sigma}
	ll := 0.0
	base := 0
	for _, in := range w.instances {
		prev := 0.0
		for _, g := range gamma[base : base+in.states] {
			ll += n.LogProb(g - prev)
			prev = g
		}
		base += in.states
	}
	return ll
}

// walkContribution adds each row's active walk state into eta. Rows not
// covered by any instance of the process (never the case for rt walks,
// since every instance spans its population) are left untouched.
func walkContribution(w *walkProcess, gamma []float64, eta []float64) {
	base := 0
	for _, in := range w.instances {
		for row, s := range in.stepIdx {
			if s >= 0 {
				eta[row] += gamma[base+s]
			}
		}
		base += in.states
	}
}

// walkStateAt returns the state of process w active at the given row,
// or 0 when no instance covers it.
func walkStateAt(w *walkProcess, gamma []float64, row int) float64 {
	base := 0
	for _, in := range w.instances {
		if s := in.stepIdx[row]; s >= 0 {
			return gamma[base+s]
		}
		base += in.states
	}
	return 0
}
