package epi

// Span locates one parameter block inside the flat vector.
type Span struct {
	Off, Len int
}

func (s Span) slice(theta []float64) []float64 { return theta[s.Off : s.Off+s.Len] }

// SeriesSpan locates one observation series' parameters: the
// ascertainment coefficients and, for negative-binomial series, the
// dispersion parameter phi (Phi.Len == 0 for Poisson).
type SeriesSpan struct {
	Coeffs Span
	Phi    Span
}

// ParamLayout fixes the block structure of the global parameter vector.
// Order: pooled coefficients beta, group effects b (term-major, then
// population), walk scales sigma, walk states gamma (process-major, then
// instance), the seeding mean tau, per-population seed increments, then
// per-series blocks. The layout is frozen at model construction; the
// sampler owns the values, the model owns the interpretation.
type ParamLayout struct {
	Beta   Span
	B      Span // group effects, NumGroupTerms x NumPops
	Sigma  Span // one scale per walk process
	Gamma  []Span // states per walk process (instances concatenated)
	Tau    Span
	Seeds  []Span // per population, N0 increments each
	Series []SeriesSpan
	Total  int
}

func buildLayout(spec *ModelSpec, table *DataTable, a *DesignAssembly) *ParamLayout {
	l := &ParamLayout{}
	off := 0
	next := func(n int) Span {
		s := Span{Off: off, Len: n}
		off += n
		return s
	}
	l.Beta = next(a.NumPooled())
	l.B = next(a.NumGroupTerms() * table.NumPops())
	l.Sigma = next(a.NumWalks())
	for k := range a.walks {
		l.Gamma = append(l.Gamma, next(a.walks[k].totalStates()))
	}
	l.Tau = next(1)
	for m := 0; m < table.NumPops(); m++ {
		l.Seeds = append(l.Seeds, next(spec.Seed.N0))
	}
	for li, o := range spec.Obs {
		ss := SeriesSpan{}
		n := 0
		if a.obs[li].X != nil {
			_, n = a.obs[li].X.Dims()
		}
		ss.Coeffs = next(n)
		if o.Family == FamilyNegBinom {
			ss.Phi = next(1)
		}
		l.Series = append(l.Series, ss)
	}
	l.Total = off
	return l
}

// groupEffect returns b for group term g and population m.
func (l *ParamLayout) groupEffect(theta []float64, g, m, numPops int) float64 {
	return theta[l.B.Off+g*numPops+m]
}

// view is the per-evaluation read-only decomposition of theta.
type view struct {
	theta []float64
	l     *ParamLayout
}

func (v view) beta() []float64        { return v.l.Beta.slice(v.theta) }
func (v view) sigma(k int) float64    { return v.theta[v.l.Sigma.Off+k] }
func (v view) gamma(k int) []float64  { return v.l.Gamma[k].slice(v.theta) }
func (v view) tau() float64           { return v.theta[v.l.Tau.Off] }
func (v view) seeds(m int) []float64  { return v.l.Seeds[m].slice(v.theta) }
func (v view) coeffs(l int) []float64 { return v.l.Series[l].Coeffs.slice(v.theta) }

// phi returns the dispersion of series l, or 0 for Poisson series.
func (v view) phi(l int) float64 {
	s := v.l.Series[l].Phi
	if s.Len == 0 {
		return 0
	}
	return v.theta[s.Off]
}
