package epi

import (
	"math"
	"testing"
	"time"
)

// Shared fixtures for the epi package tests.

var testStart = time.Date(2020, 3, 1, 0, 0, 0, 0, time.UTC)

// newTestTable builds a table of identical populations with the given
// day count and susceptible pool, plus a constant outcome column
// "deaths" (value 2 on every day) for likelihood tests.
func newTestTable(t *testing.T, ids []string, days int, s0 float64) *DataTable {
	t.Helper()
	pops := make([]Population, 0, len(ids))
	for _, id := range ids {
		pops = append(pops, Population{ID: id, Start: testStart, Days: days, S0: s0})
	}
	table, err := NewDataTable(pops)
	if err != nil {
		t.Fatalf("NewDataTable: %v", err)
	}
	// Zero before any delayed mass can arrive (the fixture delay is an
	// exact three-day lag), a constant count after.
	deaths := make([]float64, table.NumRows())
	for m := range pops {
		for d := 0; d < days; d++ {
			if d >= 3 {
				deaths[table.Row(m, d)] = 2
			}
		}
	}
	if err := table.SetColumn("deaths", deaths); err != nil {
		t.Fatalf("SetColumn: %v", err)
	}
	return table
}

// newTestSpec builds a minimal valid spec: pooled intercept Rt under the
// identity link (so the Rt value is set directly by beta[0]), one
// Poisson series with an exact three-day delay and a constant
// ascertainment of alphaOffset under the identity link.
func newTestSpec(alphaOffset float64) ModelSpec {
	return ModelSpec{
		Rt: RtSpec{
			Terms: []Term{{Kind: TermPooled}},
			Link:  LinkIdentity,
			RMax:  4,
		},
		Obs: []ObsSpec{{
			Name:    "deaths",
			Outcome: "deaths",
			Terms:   []Term{{Kind: TermPooled}},
			Offset:  alphaOffset,
			Link:    LinkIdentity,
			Delay:   []float64{0, 0, 0, 1},
			Family:  FamilyPoisson,
		}},
		Seed:           SeedSpec{N0: 4, Lambda0: 0.1},
		SerialInterval: []float64{0.5, 0.3, 0.2},
	}
}

// newTestModel constructs a model over the fixture table and spec.
func newTestModel(t *testing.T, ids []string, days int, s0 float64, spec ModelSpec) *Model {
	t.Helper()
	table := newTestTable(t, ids, days, s0)
	m, err := New(spec, table)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return m
}

// thetaWith returns a zero vector of the model's length with the given
// block values applied: rt intercept, tau, and every seed increment.
func thetaWith(m *Model, rtIntercept, tau, seedIncrement float64) []float64 {
	theta := make([]float64, m.NumParams())
	l := m.Layout()
	theta[l.Beta.Off] = rtIntercept
	theta[l.Tau.Off] = tau
	for _, span := range l.Seeds {
		for i := span.Off; i < span.Off+span.Len; i++ {
			theta[i] = seedIncrement
		}
	}
	return theta
}

func almostEqual(a, b, tol float64) bool {
	return math.Abs(a-b) <= tol
}
