package epi

import (
	"fmt"
	"sort"
)

// PopulationSummary condenses one population's latent course.
type PopulationSummary struct {
	ID              string
	TotalInfections float64
	AttackRate      float64 // total infections / S0
	PeakDay         int     // day of the largest increment
	PeakIncrement   float64
	RtBoundFraction float64 // share of days with Rt within 1% of 2*RMax
}

// Summary condenses one evaluation for reporting. The bound fraction
// exists because a reproduction-number curve pinned against its 2*RMax
// ceiling means the configured bound is truncating the dynamics; the
// engine never rejects on it, it only reports it.
type Summary struct {
	LogDensity    float64
	LogLik        float64
	LogStructural float64
	Populations   []PopulationSummary
	SeriesTotals  map[string]float64 // expected events summed over days and populations
}

// Summarize condenses an evaluation result.
func (m *Model) Summarize(res *Result) *Summary {
	s := &Summary{
		LogDensity:    res.LogDensity,
		LogLik:        res.LogLik,
		LogStructural: res.LogStructural,
		SeriesTotals:  make(map[string]float64, len(res.Expected)),
	}
	bound := 2 * m.spec.Rt.RMax
	for p := 0; p < m.table.NumPops(); p++ {
		pop := m.table.Pop(p)
		ps := PopulationSummary{ID: pop.ID}
		nearBound := 0
		for t, dI := range res.Infections[p] {
			ps.TotalInfections += dI
			if dI > ps.PeakIncrement {
				ps.PeakIncrement = dI
				ps.PeakDay = t
			}
			if m.spec.Rt.Link == LinkLogit && res.Rt[p][t] > 0.99*bound {
				nearBound++
			}
		}
		ps.AttackRate = ps.TotalInfections / pop.S0
		ps.RtBoundFraction = float64(nearBound) / float64(pop.Days)
		s.Populations = append(s.Populations, ps)
	}
	for name, perPop := range res.Expected {
		total := 0.0
		for _, curve := range perPop {
			for _, y := range curve {
				total += y
			}
		}
		s.SeriesTotals[name] = total
	}
	return s
}

// Print writes a human-readable report to stdout.
func (s *Summary) Print() {
	fmt.Println("========== Evaluation Summary ==========")
	fmt.Printf("Log-density:    %12.3f\n", s.LogDensity)
	fmt.Printf("  likelihood:   %12.3f\n", s.LogLik)
	fmt.Printf("  structural:   %12.3f\n", s.LogStructural)
	fmt.Println("----------------------------------------")
	for _, p := range s.Populations {
		fmt.Printf("population %-8s total=%.0f attack=%.2f%% peak=day %d (%.0f/day)\n",
			p.ID, p.TotalInfections, 100*p.AttackRate, p.PeakDay, p.PeakIncrement)
		if p.RtBoundFraction > 0 {
			fmt.Printf("  WARNING: Rt within 1%% of its configured bound on %.0f%% of days\n",
				100*p.RtBoundFraction)
		}
	}
	names := make([]string, 0, len(s.SeriesTotals))
	for name := range s.SeriesTotals {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Printf("series %-12s expected total %.1f\n", name, s.SeriesTotals[name])
	}
	fmt.Println("========================================")
}
