package epi

import "math"

// TermKind is the closed set of term kinds a linear predictor may carry.
type TermKind int

const (
	// TermPooled is a fixed effect shared by every population. An empty
	// Column means an intercept.
	TermPooled TermKind = iota

	// TermGroup is a population-specific effect: one coefficient per
	// population, drawn from a zero-mean normal with the term's
	// PriorScale. An empty Column means a population intercept.
	TermGroup

	// TermWalk references a latent random-walk process via Walk.
	TermWalk
)

// Term is one entry of a linear-predictor specification. The variant is
// tagged by Kind; only the fields relevant to the kind are read.
type Term struct {
	Kind       TermKind
	Column     string    // covariate column; "" = intercept (pooled/group)
	PriorScale float64   // group terms: stddev of the effect distribution
	Walk       *WalkSpec // walk terms only
}

// WalkSpec configures one autocorrelated random-walk process. The walk
// is defined over a coarsened time index: day d maps to step d/BlockDays
// (or to MapFn(d) when set, which must be non-decreasing from 0). All
// days sharing a step share one latent state; the state sequence has
// independent N(0, sigma^2) increments with the first state's prior
// centered on zero, and sigma itself carries a half-normal(Sigma0) prior.
type WalkSpec struct {
	Name          string
	Sigma0        float64
	BlockDays     int               // step length in days; 1 = daily
	PerPopulation bool              // independent walk instance per population
	MapFn         func(day int) int // optional custom time-index map
}

func (w *WalkSpec) stepOf(day int) int {
	if w.MapFn != nil {
		return w.MapFn(day)
	}
	return day / w.BlockDays
}

// RtSpec specifies the reproduction-number model: a term list feeding a
// linear predictor, the link, and the hard transmissibility bound RMax
// (the unadjusted reproduction number lives in [0, 2*RMax) under the
// logit link). Choosing RMax too small silently truncates plausible
// dynamics; that is a documented modelling hazard, not a runtime error.
type RtSpec struct {
	Terms []Term
	Link  Link
	RMax  float64
}

// Family is the closed set of count-likelihood families.
type Family int

const (
	FamilyPoisson Family = iota
	FamilyNegBinom
)

// ParseFamily resolves a configuration string to a Family.
func ParseFamily(s string) (Family, error) {
	switch s {
	case "", "poisson":
		return FamilyPoisson, nil
	case "negbinom", "neg_binomial", "negative_binomial":
		return FamilyNegBinom, nil
	default:
		return 0, specErrf("family", "unknown likelihood family %q", s)
	}
}

// ObsSpec specifies one observation series: which outcome column it
// scores, the ascertainment regression (pooled terms only), the delay
// distribution and the likelihood family.
//
// Delay is indexed by lag: Delay[j] is the probability an infection on
// day t surfaces in this series on day t+j. Lag zero never contributes
// (observations react to strictly earlier infections), so Delay[0] is
// conventionally zero.
type ObsSpec struct {
	Name         string
	Outcome      string  // outcome column; may contain missing entries
	Terms        []Term  // ascertainment regressors, pooled only
	Offset       float64 // constant predictor offset
	OffsetColumn string  // per-row offset column; overrides Offset when set
	Link         Link
	Delay        []float64
	Family       Family
	PhiScale     float64 // negbinom: half-normal scale of the dispersion prior
}

// SeedSpec configures the seeding phase: the first N0 days of each
// population take their infection increments directly from the parameter
// vector, exponentially distributed with mean tau, and tau itself has an
// exponential(Lambda0) prior.
type SeedSpec struct {
	N0      int
	Lambda0 float64
}

// DefaultSeedSpec returns the conventional six-day seeding window.
func DefaultSeedSpec() SeedSpec { return SeedSpec{N0: 6, Lambda0: 1} }

// ModelSpec bundles everything New needs besides the data table.
// SerialInterval is indexed by lag minus one: SerialInterval[j] is the
// weight of infections j+1 days old, matching its definition over
// strictly positive lags.
type ModelSpec struct {
	Rt             RtSpec
	Obs            []ObsSpec
	Seed           SeedSpec
	SerialInterval []float64
	Workers        int // per-population fan-out width; <=1 = sequential
}

// simplexTolerance bounds the acceptable deviation of a probability
// vector's sum from one.
const simplexTolerance = 1e-6

func validateSimplex(component string, w []float64) error {
	if len(w) == 0 {
		return specErrf(component, "empty distribution")
	}
	sum := 0.0
	for i, v := range w {
		if math.IsNaN(v) || v < 0 {
			return specErrf(component, "entry %d is %g, must be >= 0", i, v)
		}
		sum += v
	}
	if math.Abs(sum-1) > simplexTolerance {
		return specErrf(component, "entries sum to %g, must sum to 1", sum)
	}
	return nil
}

func validateTerms(component string, terms []Term, allowed map[TermKind]bool) error {
	if len(terms) == 0 {
		return specErrf(component, "no terms")
	}
	seenWalk := map[string]bool{}
	for i, tm := range terms {
		if !allowed[tm.Kind] {
			return specErrf(component, "term %d: kind not allowed here", i)
		}
		switch tm.Kind {
		case TermGroup:
			if !(tm.PriorScale > 0) {
				return specErrf(component, "term %d: group prior scale %g, must be > 0", i, tm.PriorScale)
			}
		case TermWalk:
			w := tm.Walk
			if w == nil {
				return specErrf(component, "term %d: walk term without a walk spec", i)
			}
			if w.Name == "" {
				return specErrf(component, "term %d: walk has no name", i)
			}
			if seenWalk[w.Name] {
				return specErrf(component, "duplicate walk process %q", w.Name)
			}
			seenWalk[w.Name] = true
			if !(w.Sigma0 >= 0) {
				return specErrf(component, "walk %q: sigma0 %g, must be >= 0", w.Name, w.Sigma0)
			}
			if w.MapFn == nil && w.BlockDays < 1 {
				return specErrf(component, "walk %q: block length %d, must be >= 1", w.Name, w.BlockDays)
			}
		}
	}
	return nil
}

// Validate checks the spec's internal consistency. Column references are
// resolved later against the data table by the design assembly.
func (s *ModelSpec) Validate() error {
	if !(s.Rt.RMax > 0) {
		return specErrf("rt", "transmissibility bound %g, must be > 0", s.Rt.RMax)
	}
	rtKinds := map[TermKind]bool{TermPooled: true, TermGroup: true, TermWalk: true}
	if err := validateTerms("rt", s.Rt.Terms, rtKinds); err != nil {
		return err
	}
	if err := validateSimplex("serial interval", s.SerialInterval); err != nil {
		return err
	}
	if s.Seed.N0 <= 0 {
		return specErrf("seed", "seed length %d, must be > 0", s.Seed.N0)
	}
	if !(s.Seed.Lambda0 > 0) {
		return specErrf("seed", "seed rate %g, must be > 0", s.Seed.Lambda0)
	}
	if len(s.Obs) == 0 {
		return specErrf("observations", "no observation series")
	}
	obsKinds := map[TermKind]bool{TermPooled: true}
	seen := map[string]bool{}
	for _, o := range s.Obs {
		if o.Name == "" {
			return specErrf("observations", "series with empty name")
		}
		if seen[o.Name] {
			return specErrf("observations", "duplicate series %q", o.Name)
		}
		seen[o.Name] = true
		if o.Outcome == "" {
			return specErrf("observations", "series %q: no outcome column", o.Name)
		}
		if err := validateTerms("series "+o.Name, o.Terms, obsKinds); err != nil {
			return err
		}
		if err := validateSimplex("series "+o.Name+" delay", o.Delay); err != nil {
			return err
		}
		if o.Family == FamilyNegBinom && !(o.PhiScale > 0) {
			return specErrf("observations", "series %q: dispersion prior scale %g, must be > 0", o.Name, o.PhiScale)
		}
	}
	return nil
}
