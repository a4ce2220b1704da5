package domain

import (
	"math"
	"sort"
)

// Provenance of a matrix entry's travel time.
type FillSource uint8

const (
	FillUnset FillSource = iota
	FillAuthoritative
	FillComputed
	FillInterpolated
)

func (f FillSource) String() string {
	switch f {
	case FillAuthoritative:
		return "authoritative"
	case FillComputed:
		return "computed"
	case FillInterpolated:
		return "interpolated"
	default:
		return "unset"
	}
}

// The full demand-area x provider travel matrix, stored as a flat buffer
// indexed by demandIndex*Cols()+providerIndex. Exactly one entry exists per
// (demand ZIP, provider) pair; unset entries hold NaN.
//
// DemandZips and ProviderIDs fix the row/column order; ProviderZips carries
// each provider's ZIP by column for coordinate resolution and benchmarks.
type Matrix struct {
	DemandZips   []string
	ProviderIDs  []string
	ProviderZips []string
	Minutes      []float64
	Sources      []FillSource
}

// Materialize the complete pair index with every travel time unset.
// Demand areas are deduplicated by ZIP and providers by ID, keeping
// first occurrence, so the result is the exact cartesian product.
func NewMatrix(demand []DemandArea, providers []ProviderLocation) *Matrix {
	seenZip := make(map[string]struct{}, len(demand))
	demandZips := make([]string, 0, len(demand))
	for _, d := range demand {
		if _, ok := seenZip[d.ZipCode]; ok {
			continue
		}
		seenZip[d.ZipCode] = struct{}{}
		demandZips = append(demandZips, d.ZipCode)
	}

	seenID := make(map[string]struct{}, len(providers))
	providerIDs := make([]string, 0, len(providers))
	providerZips := make([]string, 0, len(providers))
	for _, p := range providers {
		if _, ok := seenID[p.ProviderID]; ok {
			continue
		}
		seenID[p.ProviderID] = struct{}{}
		providerIDs = append(providerIDs, p.ProviderID)
		providerZips = append(providerZips, p.ZipCode)
	}

	n := len(demandZips) * len(providerIDs)
	minutes := make([]float64, n)
	for i := range minutes {
		minutes[i] = math.NaN()
	}

	return &Matrix{
		DemandZips:   demandZips,
		ProviderIDs:  providerIDs,
		ProviderZips: providerZips,
		Minutes:      minutes,
		Sources:      make([]FillSource, n),
	}
}

func (m *Matrix) Rows() int { return len(m.DemandZips) }
func (m *Matrix) Cols() int { return len(m.ProviderIDs) }

// Total number of (demand ZIP, provider) pairs.
func (m *Matrix) Pairs() int { return len(m.Minutes) }

func (m *Matrix) Index(demand, provider int) int { return demand*m.Cols() + provider }

// Demand ZIP of the entry at flat index idx.
func (m *Matrix) DemandZipAt(idx int) string { return m.DemandZips[idx/m.Cols()] }

// Provider ZIP of the entry at flat index idx.
func (m *Matrix) ProviderZipAt(idx int) string { return m.ProviderZips[idx%m.Cols()] }

func (m *Matrix) IsSet(idx int) bool { return !math.IsNaN(m.Minutes[idx]) }

func (m *Matrix) Set(idx int, minutes float64, src FillSource) {
	m.Minutes[idx] = minutes
	m.Sources[idx] = src
}

// Fraction of entries with a resolved travel time.
func (m *Matrix) Coverage() float64 {
	if len(m.Minutes) == 0 {
		return 0
	}
	set := 0
	for i := range m.Minutes {
		if m.IsSet(i) {
			set++
		}
	}
	return float64(set) / float64(len(m.Minutes))
}

// Flat indices of entries with a known travel time.
func (m *Matrix) KnownIndices() []int {
	out := make([]int, 0, len(m.Minutes))
	for i := range m.Minutes {
		if m.IsSet(i) {
			out = append(out, i)
		}
	}
	return out
}

// Flat indices of entries still unset.
func (m *Matrix) UnknownIndices() []int {
	out := make([]int, 0)
	for i := range m.Minutes {
		if !m.IsSet(i) {
			out = append(out, i)
		}
	}
	return out
}

// Aggregate statistics over the matrix. Derived, never persisted mid-build.
type MatrixSummary struct {
	RunID           string  `json:"run_id,omitempty"`
	TotalPairs      int     `json:"total_pairs"`
	Coverage        float64 `json:"coverage"`
	MeanMinutes     float64 `json:"mean_travel_time"`
	MedianMinutes   float64 `json:"median_travel_time"`
	MinMinutes      float64 `json:"min_travel_time"`
	MaxMinutes      float64 `json:"max_travel_time"`
	ProviderCount   int     `json:"providers_count"`
	DemandAreaCount int     `json:"demand_areas_count"`
}

// Recompute summary statistics over the set entries.
func (m *Matrix) Summarize() MatrixSummary {
	s := MatrixSummary{
		TotalPairs:      m.Pairs(),
		Coverage:        m.Coverage(),
		ProviderCount:   m.Cols(),
		DemandAreaCount: m.Rows(),
	}

	known := make([]float64, 0, len(m.Minutes))
	for i, v := range m.Minutes {
		if m.IsSet(i) {
			known = append(known, v)
		}
	}
	if len(known) == 0 {
		return s
	}

	sort.Float64s(known)
	sum := 0.0
	for _, v := range known {
		sum += v
	}
	s.MeanMinutes = sum / float64(len(known))
	s.MinMinutes = known[0]
	s.MaxMinutes = known[len(known)-1]
	if n := len(known); n%2 == 1 {
		s.MedianMinutes = known[n/2]
	} else {
		s.MedianMinutes = (known[n/2-1] + known[n/2]) / 2
	}
	return s
}
