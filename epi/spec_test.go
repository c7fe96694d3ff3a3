package epi

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestModelSpec_ValidateAcceptsFixture(t *testing.T) {
	spec := newTestSpec(0.1)
	require.NoError(t, spec.Validate())
}

func TestModelSpec_ValidateRejections(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*ModelSpec)
	}{
		{"non-positive rmax", func(s *ModelSpec) { s.Rt.RMax = 0 }},
		{"no rt terms", func(s *ModelSpec) { s.Rt.Terms = nil }},
		{"serial interval not simplex", func(s *ModelSpec) { s.SerialInterval = []float64{0.5, 0.4} }},
		{"serial interval negative entry", func(s *ModelSpec) { s.SerialInterval = []float64{1.5, -0.5} }},
		{"zero seed length", func(s *ModelSpec) { s.Seed.N0 = 0 }},
		{"non-positive seed rate", func(s *ModelSpec) { s.Seed.Lambda0 = 0 }},
		{"no observation series", func(s *ModelSpec) { s.Obs = nil }},
		{"delay not simplex", func(s *ModelSpec) { s.Obs[0].Delay = []float64{0.2, 0.2} }},
		{"series without outcome", func(s *ModelSpec) { s.Obs[0].Outcome = "" }},
		{"group term without scale", func(s *ModelSpec) {
			s.Rt.Terms = append(s.Rt.Terms, Term{Kind: TermGroup})
		}},
		{"walk term without spec", func(s *ModelSpec) {
			s.Rt.Terms = append(s.Rt.Terms, Term{Kind: TermWalk})
		}},
		{"duplicate walk names", func(s *ModelSpec) {
			s.Rt.Terms = append(s.Rt.Terms,
				Term{Kind: TermWalk, Walk: &WalkSpec{Name: "w", Sigma0: 0.1, BlockDays: 7}},
				Term{Kind: TermWalk, Walk: &WalkSpec{Name: "w", Sigma0: 0.1, BlockDays: 7}})
		}},
		{"walk in observation terms", func(s *ModelSpec) {
			s.Obs[0].Terms = append(s.Obs[0].Terms, Term{Kind: TermWalk, Walk: &WalkSpec{Name: "x", Sigma0: 0.1, BlockDays: 1}})
		}},
		{"negbinom without dispersion scale", func(s *ModelSpec) { s.Obs[0].Family = FamilyNegBinom }},
		{"duplicate series names", func(s *ModelSpec) { s.Obs = append(s.Obs, s.Obs[0]) }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			spec := newTestSpec(0.1)
			tc.mutate(&spec)
			err := spec.Validate()
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrSpec)
		})
	}
}

func TestParseLink(t *testing.T) {
	for s, want := range map[string]Link{"": LinkLogit, "logit": LinkLogit, "log": LinkLog, "identity": LinkIdentity} {
		got, err := ParseLink(s)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
	_, err := ParseLink("probit")
	assert.ErrorIs(t, err, ErrSpec)
}

func TestParseFamily(t *testing.T) {
	for s, want := range map[string]Family{"": FamilyPoisson, "poisson": FamilyPoisson, "negbinom": FamilyNegBinom} {
		got, err := ParseFamily(s)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
	_, err := ParseFamily("binomial")
	assert.ErrorIs(t, err, ErrSpec)
}
