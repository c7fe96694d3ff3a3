package epi

import (
	"math"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// Model is the frozen orchestrator: validated specs, resolved design
// matrices, and the parameter layout. After New returns, a Model is
// immutable; Evaluate is a pure function of the parameter vector and may
// be called concurrently from independent sampler chains.
type Model struct {
	spec     ModelSpec
	table    *DataTable
	assembly *DesignAssembly
	layout   *ParamLayout
}

// New validates the spec against the table, builds the design assembly
// and fixes the parameter layout. All SpecError conditions surface here,
// before any evaluation is attempted.
func New(spec ModelSpec, table *DataTable) (*Model, error) {
	if err := spec.Validate(); err != nil {
		return nil, err
	}
	assembly, err := buildDesign(&spec, table)
	if err != nil {
		return nil, err
	}
	m := &Model{
		spec:     spec,
		table:    table,
		assembly: assembly,
		layout:   buildLayout(&spec, table, assembly),
	}
	logrus.Debugf("epi: model constructed: %d populations, %d rows, %d parameters, %d walk processes, %d series",
		table.NumPops(), table.NumRows(), m.layout.Total, assembly.NumWalks(), len(spec.Obs))
	return m, nil
}

// Layout exposes the parameter block structure so the external sampler
// can address blocks by name rather than hard-coded offsets.
func (m *Model) Layout() *ParamLayout { return m.layout }

// NumParams returns the length Evaluate expects of the parameter vector.
func (m *Model) NumParams() int { return m.layout.Total }

// Table returns the model's data table.
func (m *Model) Table() *DataTable { return m.table }

// Spec returns the validated model specification.
func (m *Model) Spec() ModelSpec { return m.spec }

// Result carries everything one evaluation produces. Slices are indexed
// by population; Expected maps series name to per-population curves.
type Result struct {
	LogDensity    float64 // LogLik + LogStructural
	LogLik        float64
	LogStructural float64
	Rt            [][]float64 // unadjusted reproduction number per day
	Infections    [][]float64 // daily increments dI
	Cumulative    [][]float64 // running totals I
	Expected      map[string][][]float64
}

// Evaluate maps one parameter vector to the total log-density and the
// latent/expected series. An InvariantViolation return means the caller
// should treat the proposal as rejected (log-density -Inf); it never
// means the model itself is unusable.
func (m *Model) Evaluate(theta []float64) (*Result, error) {
	return m.evaluate(theta, true)
}

// EvaluatePredictive computes latent infections and expected counts but
// skips outcome scoring. Used for prior- and posterior-predictive runs.
func (m *Model) EvaluatePredictive(theta []float64) (*Result, error) {
	return m.evaluate(theta, false)
}

func (m *Model) evaluate(theta []float64, scoreOutcomes bool) (*Result, error) {
	if len(theta) != m.layout.Total {
		return nil, specErrf("parameters", "got %d values, layout requires %d", len(theta), m.layout.Total)
	}
	v := view{theta: theta, l: m.layout}

	structural := m.structuralLogDensity(v)
	if math.IsInf(structural, -1) {
		return nil, &InvariantViolation{Detail: "structural density is -Inf (out-of-support latent values)"}
	}

	eta := m.linearPredictor(v)
	rtAll := m.rtCurve(eta)

	numPops := m.table.NumPops()
	res := &Result{
		LogStructural: structural,
		Rt:            make([][]float64, numPops),
		Infections:    make([][]float64, numPops),
		Cumulative:    make([][]float64, numPops),
		Expected:      make(map[string][][]float64, len(m.spec.Obs)),
	}
	for _, o := range m.spec.Obs {
		res.Expected[o.Name] = make([][]float64, numPops)
	}
	popLik := make([]float64, numPops)

	// Populations are independent given the shared parameters, so the
	// per-population recursion fans out across a bounded group. Results
	// land in pre-sized slots; the final reduction below is ordered, so
	// the total is deterministic regardless of scheduling.
	g := new(errgroup.Group)
	workers := m.spec.Workers
	if workers < 1 {
		workers = 1
	}
	g.SetLimit(workers)
	for p := 0; p < numPops; p++ {
		g.Go(func() error {
			pop := m.table.Pop(p)
			off := m.table.Offset(p)
			rt := rtAll[off : off+pop.Days]
			deltaI, cum, err := simulateInfections(pop, v.seeds(p), rt, m.spec.SerialInterval)
			if err != nil {
				return err
			}
			res.Rt[p] = rt
			res.Infections[p] = deltaI
			res.Cumulative[p] = cum

			for l, o := range m.spec.Obs {
				expected := m.seriesExpected(l, p, deltaI, v.coeffs(l))
				res.Expected[o.Name][p] = expected
				if !scoreOutcomes {
					continue
				}
				ll, err := m.seriesLogLik(l, p, expected, v.phi(l))
				if err != nil {
					return err
				}
				popLik[p] += ll
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	for _, ll := range popLik {
		res.LogLik += ll
	}
	res.LogDensity = res.LogLik + res.LogStructural
	if math.IsNaN(res.LogDensity) || math.IsInf(res.LogDensity, 0) {
		return nil, &InvariantViolation{Detail: "non-finite log-density"}
	}
	return res, nil
}

// PriorPredictive draws a complete parameter vector from the default
// priors and evaluates it with outcome scoring skipped. Deterministic in
// the key: same key, same model, same draw.
func (m *Model) PriorPredictive(key SimulationKey) ([]float64, *Result, error) {
	rng := NewPartitionedRNG(key)
	theta := m.drawPrior(rng)
	res, err := m.EvaluatePredictive(theta)
	if err != nil {
		return nil, nil, err
	}
	logrus.Debugf("epi: prior predictive draw key=%d log-structural=%.3f", int64(key), res.LogStructural)
	return theta, res, nil
}
