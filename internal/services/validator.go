package services

import (
	"fmt"
	"sort"
	"time"

	"travel-matrix-service/internal/domain"
)

// Inputs to a validation pass.
type ValidateConfig struct {
	RunID        string
	MinCoverage  float64
	MaxErrorRate float64
	Benchmarks   []domain.RouteBenchmark

	// Provider ZIPs that failed centroid resolution during the computed
	// fill; drives the missing-ZIP impact analysis.
	MissingProviderZips []string
}

// Check coverage, value ranges, and known-route benchmarks, producing a
// structured report. Negative travel times are corrected in place to the
// five-minute floor (counted, not dropped); outliers above 300 minutes are
// counted but left untouched. Only the coverage check gates the build.
func ValidateMatrix(m *domain.Matrix, cfg ValidateConfig) domain.ValidationReport {
	report := domain.ValidationReport{
		RunID:        cfg.RunID,
		GeneratedAt:  time.Now().UTC(),
		Coverage:     m.Coverage(),
		MinCoverage:  cfg.MinCoverage,
		MaxErrorRate: cfg.MaxErrorRate,
	}
	report.CoverageOK = report.Coverage >= cfg.MinCoverage

	known := make([]float64, 0, m.Pairs())
	for idx := range m.Minutes {
		if !m.IsSet(idx) {
			continue
		}
		if m.Minutes[idx] < 0 {
			m.Minutes[idx] = 5
			report.NegativeCorrected++
		}
		v := m.Minutes[idx]
		if v < 1 {
			report.TooShortCount++
		}
		if v > 300 {
			report.OutlierCount++
		}
		if v == crossRegionMinutes {
			report.FallbackExactCount++
		}
		known = append(known, v)
	}
	if len(known) > 0 {
		report.FallbackExactPct = float64(report.FallbackExactCount) / float64(len(known)) * 100

		sort.Float64s(known)
		q1 := quantile(known, 0.25)
		q3 := quantile(known, 0.75)
		iqr := q3 - q1
		report.IQRLowerBound = q1 - 1.5*iqr
		report.IQRUpperBound = q3 + 1.5*iqr
		for _, v := range known {
			if v < report.IQRLowerBound || v > report.IQRUpperBound {
				report.IQROutlierCount++
			}
		}
	}

	report.MissingProviderZips = cfg.MissingProviderZips
	if len(cfg.MissingProviderZips) > 0 && m.Pairs() > 0 {
		missing := map[string]struct{}{}
		for _, zip := range cfg.MissingProviderZips {
			missing[zip] = struct{}{}
		}
		affected := 0
		for _, zip := range m.ProviderZips {
			if _, ok := missing[zip]; ok {
				affected += m.Rows()
			}
		}
		report.MissingPairPct = float64(affected) / float64(m.Pairs()) * 100
	}

	report.Benchmarks = runBenchmarks(m, cfg.Benchmarks)
	report.Summary = m.Summarize()
	report.Summary.RunID = cfg.RunID
	report.Recommendations = recommendations(report)
	return report
}

// Locate matrix entries matching each benchmark pair, in either direction,
// and check whether the observed mean falls inside the expected range.
func runBenchmarks(m *domain.Matrix, benchmarks []domain.RouteBenchmark) []domain.BenchmarkResult {
	results := make([]domain.BenchmarkResult, 0, len(benchmarks))
	cols := m.Cols()

	for _, b := range benchmarks {
		values := make([]float64, 0)
		for idx := range m.Minutes {
			if !m.IsSet(idx) {
				continue
			}
			demandZip := m.DemandZips[idx/cols]
			providerZip := m.ProviderZips[idx%cols]
			forward := demandZip == b.OriginZip && providerZip == b.DestZip
			reverse := demandZip == b.DestZip && providerZip == b.OriginZip
			if forward || reverse {
				values = append(values, m.Minutes[idx])
			}
		}

		result := domain.BenchmarkResult{RouteBenchmark: b, SampleCount: len(values)}
		if len(values) > 0 {
			result.Found = true
			sort.Float64s(values)
			sum := 0.0
			for _, v := range values {
				sum += v
			}
			result.ObservedMean = sum / float64(len(values))
			if n := len(values); n%2 == 1 {
				result.ObservedMedian = values[n/2]
			} else {
				result.ObservedMedian = (values[n/2-1] + values[n/2]) / 2
			}
			result.Pass = result.ObservedMean >= b.ExpectedMin && result.ObservedMean <= b.ExpectedMax
		}
		results = append(results, result)
	}
	return results
}

func recommendations(r domain.ValidationReport) []string {
	recs := make([]string, 0)

	if !r.CoverageOK {
		recs = append(recs, fmt.Sprintf(
			"Coverage %.1f%% is below the %.1f%% minimum. Add ZIP centroids or an authoritative dataset before rebuilding.",
			r.Coverage*100, r.MinCoverage*100))
	}
	if r.FallbackExactPct > 50 {
		recs = append(recs, fmt.Sprintf(
			"%.1f%% of travel times sit at the %d-minute cross-region fallback, indicating fallback overuse. Add missing ZIP centroids or improve the fallback estimation.",
			r.FallbackExactPct, crossRegionMinutes))
	}
	if r.TooShortCount > 0 {
		recs = append(recs, fmt.Sprintf(
			"Found %d travel times under 1 minute; these are likely unrealistic and should be investigated.",
			r.TooShortCount))
	}
	if r.OutlierCount > 0 {
		recs = append(recs, fmt.Sprintf(
			"Found %d travel times over 5 hours; verify these against the region's actual extent.",
			r.OutlierCount))
	}
	if r.MissingPairPct > 10 {
		recs = append(recs, fmt.Sprintf(
			"Missing ZIP centroids degrade %.1f%% of pairs. Add the %d unresolved ZIP codes to the gazetteer to improve accuracy.",
			r.MissingPairPct, len(r.MissingProviderZips)))
	}
	return recs
}

// Linear-interpolated quantile over a sorted slice.
func quantile(sorted []float64, q float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	pos := q * float64(len(sorted)-1)
	lo := int(pos)
	if lo >= len(sorted)-1 {
		return sorted[len(sorted)-1]
	}
	frac := pos - float64(lo)
	return sorted[lo]*(1-frac) + sorted[lo+1]*frac
}
