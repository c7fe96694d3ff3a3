package epi

import (
	"gonum.org/v1/gonum/mat"
)

// walkInstance is one independent realization of a walk process. Shared
// processes have a single instance spanning every population (states
// indexed by calendar day); per-population processes have one instance
// per population (states indexed by that population's own day axis).
type walkInstance struct {
	pop      int   // population index, -1 for a shared instance
	states   int   // latent state count
	stepIdx  []int // global row -> state index, -1 where inactive
	firstRow int   // first covered row, for reporting
}

type walkProcess struct {
	spec      *WalkSpec
	instances []walkInstance
}

// totalStates sums latent states across the process's instances.
func (w *walkProcess) totalStates() int {
	n := 0
	for _, in := range w.instances {
		n += in.states
	}
	return n
}

// obsDesign is the resolved ascertainment regression of one series:
// pooled design matrix plus a per-row predictor offset.
type obsDesign struct {
	X      *mat.Dense
	offset []float64
	names  []string
}

// DesignAssembly holds every design structure resolved from the term
// specs against the data table. Built once at model construction and
// shared read-only across all evaluations.
type DesignAssembly struct {
	X           *mat.Dense // pooled design, rows x p (nil when p == 0)
	Z           *mat.Dense // group design, rows x g (nil when g == 0)
	pooledNames []string
	groupNames  []string
	groupScales []float64 // prior stddev per group term
	walks       []walkProcess
	obs         []obsDesign
}

// NumPooled returns p, the pooled coefficient count.
func (a *DesignAssembly) NumPooled() int { return len(a.pooledNames) }

// NumGroupTerms returns g, the group term count.
func (a *DesignAssembly) NumGroupTerms() int { return len(a.groupScales) }

// NumWalks returns the walk process count.
func (a *DesignAssembly) NumWalks() int { return len(a.walks) }

// WalkIndicator materializes the autocorrelation indicator matrix of
// process k: rows x totalStates, with a one selecting the state active
// on each covered row. Intended for inspection and tests; evaluation
// uses the precomputed index form directly.
func (a *DesignAssembly) WalkIndicator(k int) *mat.Dense {
	w := &a.walks[k]
	q := mat.NewDense(len(w.instances[0].stepIdx), w.totalStates(), nil)
	base := 0
	for _, in := range w.instances {
		for row, s := range in.stepIdx {
			if s >= 0 {
				q.Set(row, base+s, 1)
			}
		}
		base += in.states
	}
	return q
}

// termColumn resolves one term's covariate values for every row.
// An empty column name is an intercept.
func termColumn(component string, tm Term, table *DataTable) ([]float64, error) {
	if tm.Column == "" {
		ones := make([]float64, table.NumRows())
		for i := range ones {
			ones[i] = 1
		}
		return ones, nil
	}
	col, ok := table.Column(tm.Column)
	if !ok {
		return nil, specErrf(component, "covariate column %q not found", tm.Column)
	}
	if err := table.checkFinite(tm.Column); err != nil {
		return nil, err
	}
	return col, nil
}

func buildWalkProcess(spec *WalkSpec, table *DataTable) walkProcess {
	rows := table.NumRows()
	w := walkProcess{spec: spec}
	if spec.PerPopulation {
		for m := 0; m < table.NumPops(); m++ {
			idx := make([]int, rows)
			for i := range idx {
				idx[i] = -1
			}
			p := table.Pop(m)
			maxStep := 0
			for d := 0; d < p.Days; d++ {
				s := spec.stepOf(d)
				idx[table.Row(m, d)] = s
				if s > maxStep {
					maxStep = s
				}
			}
			w.instances = append(w.instances, walkInstance{
				pop: m, states: maxStep + 1, stepIdx: idx, firstRow: table.Offset(m),
			})
		}
		return w
	}
	idx := make([]int, rows)
	maxStep := 0
	for m := 0; m < table.NumPops(); m++ {
		p := table.Pop(m)
		for d := 0; d < p.Days; d++ {
			s := spec.stepOf(table.CalendarDay(m, d))
			idx[table.Row(m, d)] = s
			if s > maxStep {
				maxStep = s
			}
		}
	}
	w.instances = append(w.instances, walkInstance{pop: -1, states: maxStep + 1, stepIdx: idx})
	return w
}

// buildDesign resolves every term reference against the table. Pure;
// the result is cached on the Model for the life of the process.
func buildDesign(spec *ModelSpec, table *DataTable) (*DesignAssembly, error) {
	rows := table.NumRows()
	a := &DesignAssembly{}

	var pooledCols, groupCols [][]float64
	for _, tm := range spec.Rt.Terms {
		switch tm.Kind {
		case TermPooled:
			col, err := termColumn("rt", tm, table)
			if err != nil {
				return nil, err
			}
			pooledCols = append(pooledCols, col)
			a.pooledNames = append(a.pooledNames, displayName(tm.Column))
		case TermGroup:
			col, err := termColumn("rt", tm, table)
			if err != nil {
				return nil, err
			}
			groupCols = append(groupCols, col)
			a.groupNames = append(a.groupNames, displayName(tm.Column))
			a.groupScales = append(a.groupScales, tm.PriorScale)
		case TermWalk:
			a.walks = append(a.walks, buildWalkProcess(tm.Walk, table))
		}
	}
	a.X = denseFromColumns(rows, pooledCols)
	a.Z = denseFromColumns(rows, groupCols)

	for _, o := range spec.Obs {
		od := obsDesign{offset: make([]float64, rows)}
		var cols [][]float64
		for _, tm := range o.Terms {
			col, err := termColumn("series "+o.Name, tm, table)
			if err != nil {
				return nil, err
			}
			cols = append(cols, col)
			od.names = append(od.names, displayName(tm.Column))
		}
		od.X = denseFromColumns(rows, cols)
		if o.OffsetColumn != "" {
			col, ok := table.Column(o.OffsetColumn)
			if !ok {
				return nil, specErrf("series "+o.Name, "offset column %q not found", o.OffsetColumn)
			}
			if err := table.checkFinite(o.OffsetColumn); err != nil {
				return nil, err
			}
			copy(od.offset, col)
		} else {
			for i := range od.offset {
				od.offset[i] = o.Offset
			}
		}
		if _, ok := table.Column(o.Outcome); !ok {
			return nil, specErrf("series "+o.Name, "outcome column %q not found", o.Outcome)
		}
		a.obs = append(a.obs, od)
	}
	return a, nil
}

func displayName(column string) string {
	if column == "" {
		return "(intercept)"
	}
	return column
}

func denseFromColumns(rows int, cols [][]float64) *mat.Dense {
	if len(cols) == 0 {
		return nil
	}
	d := mat.NewDense(rows, len(cols), nil)
	for j, col := range cols {
		d.SetCol(j, col)
	}
	return d
}
