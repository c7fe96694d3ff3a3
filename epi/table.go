package epi

import (
	"math"
	"time"
)

// Population describes one simulated population: a contiguous run of
// Days daily rows beginning at Start, with an initial susceptible pool
// of S0 individuals.
type Population struct {
	ID    string
	Start time.Time
	Days  int
	S0    float64
}

// DataTable is the canonical (population, day) data layout. All rows of
// a population are contiguous and day-ordered, so every component indexes
// a column as col[Offset(m)+day]. Columns are dense float64 slices with
// NaN marking a missing entry; whether NaN is legal in a column depends
// on who references it (covariates must be finite, outcome columns may
// have gaps).
//
// A DataTable is immutable after model construction and safe for
// concurrent reads.
type DataTable struct {
	pops     []Population
	offsets  []int
	rows     int
	cols     map[string][]float64
	popIndex map[string]int
	earliest time.Time
}

// NewDataTable lays out the row space for the given populations.
// Populations must have unique ids, Days >= 1 and S0 > 0.
func NewDataTable(pops []Population) (*DataTable, error) {
	if len(pops) == 0 {
		return nil, specErrf("populations", "no populations given")
	}
	t := &DataTable{
		pops:     make([]Population, len(pops)),
		offsets:  make([]int, len(pops)),
		cols:     make(map[string][]float64),
		popIndex: make(map[string]int, len(pops)),
	}
	copy(t.pops, pops)
	off := 0
	for m, p := range t.pops {
		if p.ID == "" {
			return nil, specErrf("populations", "population %d has empty id", m)
		}
		if _, dup := t.popIndex[p.ID]; dup {
			return nil, specErrf("populations", "duplicate population id %q", p.ID)
		}
		if p.Days < 1 {
			return nil, specErrf("populations", "population %q: length %d, must be >= 1", p.ID, p.Days)
		}
		if !(p.S0 > 0) {
			return nil, specErrf("populations", "population %q: initial susceptibles %g, must be > 0", p.ID, p.S0)
		}
		t.popIndex[p.ID] = m
		t.offsets[m] = off
		off += p.Days
		if m == 0 || p.Start.Before(t.earliest) {
			t.earliest = p.Start
		}
	}
	t.rows = off
	return t, nil
}

// SetColumn attaches a column covering every row of the table.
func (t *DataTable) SetColumn(name string, values []float64) error {
	if name == "" {
		return specErrf("table", "empty column name")
	}
	if len(values) != t.rows {
		return specErrf("table", "column %q has %d values, table has %d rows", name, len(values), t.rows)
	}
	v := make([]float64, len(values))
	copy(v, values)
	t.cols[name] = v
	return nil
}

// Column returns the named column, or false if absent.
func (t *DataTable) Column(name string) ([]float64, bool) {
	c, ok := t.cols[name]
	return c, ok
}

// NumRows returns the total row count across all populations.
func (t *DataTable) NumRows() int { return t.rows }

// NumPops returns the number of populations.
func (t *DataTable) NumPops() int { return len(t.pops) }

// Pop returns the m-th population.
func (t *DataTable) Pop(m int) Population { return t.pops[m] }

// PopIndex resolves a population id to its index, or -1.
func (t *DataTable) PopIndex(id string) int {
	if m, ok := t.popIndex[id]; ok {
		return m
	}
	return -1
}

// Offset returns the first row of population m.
func (t *DataTable) Offset(m int) int { return t.offsets[m] }

// Row returns the global row index of (population m, day d).
func (t *DataTable) Row(m, d int) int { return t.offsets[m] + d }

// CalendarDay returns day d of population m as an offset from the
// earliest population start. Shared (non-grouped) walk processes index
// their states by calendar day so populations with different start dates
// line up on the same latent curve.
func (t *DataTable) CalendarDay(m, d int) int {
	delta := int(t.pops[m].Start.Sub(t.earliest).Hours() / 24)
	return delta + d
}

// checkFinite verifies a column has no NaN/Inf anywhere inside the model
// span. Used for covariates; outcome columns are exempt.
func (t *DataTable) checkFinite(name string) error {
	col := t.cols[name]
	for m := range t.pops {
		off := t.offsets[m]
		for d := 0; d < t.pops[m].Days; d++ {
			if v := col[off+d]; math.IsNaN(v) || math.IsInf(v, 0) {
				return specErrf("table", "column %q: non-finite value at population %q day %d", name, t.pops[m].ID, d)
			}
		}
	}
	return nil
}
