package epi

import (
	"gonum.org/v1/gonum/mat"
)

// Reproduction-number model: linear predictor -> bounded unadjusted
// reproduction number. Susceptible depletion is applied inside the
// renewal recursion, not here.

// linearPredictor assembles eta over every row: X*beta + Z-selected
// group effects + the active walk states.
func (m *Model) linearPredictor(v view) []float64 {
	rows := m.table.NumRows()
	eta := make([]float64, rows)

	if m.assembly.X != nil {
		ev := mat.NewVecDense(rows, eta)
		ev.MulVec(m.assembly.X, mat.NewVecDense(len(v.beta()), v.beta()))
	}
	if m.assembly.Z != nil {
		numPops := m.table.NumPops()
		for g := 0; g < m.assembly.NumGroupTerms(); g++ {
			for p := 0; p < numPops; p++ {
				b := m.layout.groupEffect(v.theta, g, p, numPops)
				off := m.table.Offset(p)
				for d := 0; d < m.table.Pop(p).Days; d++ {
					eta[off+d] += m.assembly.Z.At(off+d, g) * b
				}
			}
		}
	}
	for k := range m.assembly.walks {
		walkContribution(&m.assembly.walks[k], v.gamma(k), eta)
	}
	return eta
}

// rtCurve maps the linear predictor into the unadjusted reproduction
// number per row. Under the logit link the curve is 2*RMax*logistic(eta):
// a hard, user-chosen ceiling of 2*RMax on transmissibility, with eta=0
// sitting exactly at RMax. The factor of two is part of the model
// definition and must not be folded into RMax.
func (m *Model) rtCurve(eta []float64) []float64 {
	rt := make([]float64, len(eta))
	link := m.spec.Rt.Link
	for i, e := range eta {
		switch link {
		case LinkLogit:
			rt[i] = 2 * m.spec.Rt.RMax * link.Inverse(e)
		default:
			rt[i] = link.Inverse(e)
		}
	}
	return rt
}
