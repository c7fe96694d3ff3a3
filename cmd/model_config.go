package cmd

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	epi "github.com/epirenew/epirenew/epi"
)

// YAML model specification format. All sections must be listed so that
// strict parsing (KnownFields) turns typos into errors instead of
// silently dropped settings.

type termSection struct {
	Kind          string  `yaml:"kind"` // pooled | group | walk
	Column        string  `yaml:"column"`
	PriorScale    float64 `yaml:"prior_scale"`
	Name          string  `yaml:"name"`
	Sigma0        float64 `yaml:"sigma0"`
	BlockDays     int     `yaml:"block_days"`
	PerPopulation bool    `yaml:"per_population"`
}

type rtSection struct {
	RMax  float64       `yaml:"r_max"`
	Link  string        `yaml:"link"`
	Terms []termSection `yaml:"terms"`
}

type obsSection struct {
	Name         string        `yaml:"name"`
	Outcome      string        `yaml:"outcome"`
	Family       string        `yaml:"family"`
	PhiScale     float64       `yaml:"phi_scale"`
	Link         string        `yaml:"link"`
	Offset       float64       `yaml:"offset"`
	OffsetColumn string        `yaml:"offset_column"`
	Delay        []float64     `yaml:"delay"`
	Terms        []termSection `yaml:"terms"`
}

type seedSection struct {
	Length int     `yaml:"length"`
	Rate   float64 `yaml:"rate"`
}

type popSection struct {
	ID string  `yaml:"id"`
	S0 float64 `yaml:"s0"`
}

// specFile represents the full model specification file structure.
type specFile struct {
	Version        string       `yaml:"version"`
	SerialInterval []float64    `yaml:"serial_interval"`
	Seed           seedSection  `yaml:"seed"`
	Workers        int          `yaml:"workers"`
	Rt             rtSection    `yaml:"rt"`
	Observations   []obsSection `yaml:"observations"`
	Populations    []popSection `yaml:"populations"`
}

func convertTerms(sections []termSection) ([]epi.Term, error) {
	terms := make([]epi.Term, 0, len(sections))
	for i, s := range sections {
		switch s.Kind {
		case "", "pooled":
			terms = append(terms, epi.Term{Kind: epi.TermPooled, Column: s.Column})
		case "group":
			terms = append(terms, epi.Term{Kind: epi.TermGroup, Column: s.Column, PriorScale: s.PriorScale})
		case "walk":
			blockDays := s.BlockDays
			if blockDays == 0 {
				blockDays = 1
			}
			terms = append(terms, epi.Term{Kind: epi.TermWalk, Walk: &epi.WalkSpec{
				Name:          s.Name,
				Sigma0:        s.Sigma0,
				BlockDays:     blockDays,
				PerPopulation: s.PerPopulation,
			}})
		default:
			return nil, fmt.Errorf("term %d: unknown kind %q", i, s.Kind)
		}
	}
	return terms, nil
}

// LoadModelSpec parses a YAML model specification file. Returns the spec
// plus the configured initial susceptible count per population id; final
// validation happens in epi.New.
func LoadModelSpec(path string) (epi.ModelSpec, map[string]float64, error) {
	var spec epi.ModelSpec
	data, err := os.ReadFile(path)
	if err != nil {
		return spec, nil, err
	}

	var file specFile
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&file); err != nil {
		return spec, nil, fmt.Errorf("parsing %s: %w", path, err)
	}

	rtLink, err := epi.ParseLink(file.Rt.Link)
	if err != nil {
		return spec, nil, err
	}
	rtTerms, err := convertTerms(file.Rt.Terms)
	if err != nil {
		return spec, nil, fmt.Errorf("rt: %w", err)
	}
	spec.Rt = epi.RtSpec{Terms: rtTerms, Link: rtLink, RMax: file.Rt.RMax}

	for _, o := range file.Observations {
		link, err := epi.ParseLink(o.Link)
		if err != nil {
			return spec, nil, fmt.Errorf("series %q: %w", o.Name, err)
		}
		family, err := epi.ParseFamily(o.Family)
		if err != nil {
			return spec, nil, fmt.Errorf("series %q: %w", o.Name, err)
		}
		terms, err := convertTerms(o.Terms)
		if err != nil {
			return spec, nil, fmt.Errorf("series %q: %w", o.Name, err)
		}
		spec.Obs = append(spec.Obs, epi.ObsSpec{
			Name:         o.Name,
			Outcome:      o.Outcome,
			Terms:        terms,
			Offset:       o.Offset,
			OffsetColumn: o.OffsetColumn,
			Link:         link,
			Delay:        o.Delay,
			Family:       family,
			PhiScale:     o.PhiScale,
		})
	}

	spec.Seed = epi.DefaultSeedSpec()
	if file.Seed.Length != 0 {
		spec.Seed.N0 = file.Seed.Length
	}
	if file.Seed.Rate != 0 {
		spec.Seed.Lambda0 = file.Seed.Rate
	}
	spec.SerialInterval = file.SerialInterval
	spec.Workers = file.Workers

	s0 := make(map[string]float64, len(file.Populations))
	for _, p := range file.Populations {
		if p.ID == "" {
			return spec, nil, fmt.Errorf("population entry with empty id")
		}
		s0[p.ID] = p.S0
	}
	return spec, s0, nil
}
