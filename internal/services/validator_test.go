package services

import (
	"strings"
	"testing"

	"travel-matrix-service/internal/domain"

	"github.com/stretchr/testify/require"
)

func validatorMatrix() *domain.Matrix {
	return domain.NewMatrix(
		[]domain.DemandArea{{ZipCode: "90001"}, {ZipCode: "90210"}},
		[]domain.ProviderLocation{
			{ProviderID: "1001", ZipCode: "90001"},
			{ProviderID: "1002", ZipCode: "94102"},
		},
	)
}

func TestValidateMatrixCoverageGate(t *testing.T) {
	m := validatorMatrix()
	m.Set(0, 30, domain.FillComputed)
	m.Set(1, 400, domain.FillComputed)
	m.Set(2, 25, domain.FillComputed)

	report := ValidateMatrix(m, ValidateConfig{RunID: "run-1", MinCoverage: 0.95})
	require.False(t, report.CoverageOK)
	require.InDelta(t, 0.75, report.Coverage, 1e-9)
	require.Equal(t, "run-1", report.RunID)
	require.Equal(t, "run-1", report.Summary.RunID)

	m.Set(3, 40, domain.FillInterpolated)
	report = ValidateMatrix(m, ValidateConfig{MinCoverage: 0.95})
	require.True(t, report.CoverageOK)
}

func TestValidateMatrixCorrectsNegatives(t *testing.T) {
	m := validatorMatrix()
	m.Set(0, -12, domain.FillComputed)
	m.Set(1, 30, domain.FillComputed)
	m.Set(2, 45, domain.FillComputed)
	m.Set(3, 60, domain.FillComputed)

	report := ValidateMatrix(m, ValidateConfig{MinCoverage: 0.95})
	require.Equal(t, 1, report.NegativeCorrected)
	require.Equal(t, 5.0, m.Minutes[0])
	require.Equal(t, 0, report.TooShortCount)
}

func TestValidateMatrixCountsShortAndOutliers(t *testing.T) {
	m := validatorMatrix()
	m.Set(0, 0.4, domain.FillComputed)
	m.Set(1, 30, domain.FillComputed)
	m.Set(2, 310, domain.FillComputed)
	m.Set(3, 500, domain.FillComputed)

	report := ValidateMatrix(m, ValidateConfig{MinCoverage: 0.95})
	require.Equal(t, 1, report.TooShortCount)
	require.Equal(t, 2, report.OutlierCount)

	// Outliers are reported, never rewritten.
	require.Equal(t, 310.0, m.Minutes[2])
	require.Equal(t, 500.0, m.Minutes[3])
}

func TestValidateMatrixFallbackOveruse(t *testing.T) {
	m := validatorMatrix()
	m.Set(0, 180, domain.FillComputed)
	m.Set(1, 180, domain.FillComputed)
	m.Set(2, 180, domain.FillComputed)
	m.Set(3, 42, domain.FillComputed)

	report := ValidateMatrix(m, ValidateConfig{MinCoverage: 0.5})
	require.Equal(t, 3, report.FallbackExactCount)
	require.InDelta(t, 75.0, report.FallbackExactPct, 1e-9)

	found := false
	for _, rec := range report.Recommendations {
		if strings.Contains(rec, "fallback overuse") {
			found = true
		}
	}
	require.True(t, found, "expected fallback-overuse recommendation, got %v", report.Recommendations)
}

func TestValidateMatrixIQRBounds(t *testing.T) {
	m := domain.NewMatrix(
		[]domain.DemandArea{{ZipCode: "90001"}},
		[]domain.ProviderLocation{
			{ProviderID: "1", ZipCode: "90001"},
			{ProviderID: "2", ZipCode: "90002"},
			{ProviderID: "3", ZipCode: "90003"},
			{ProviderID: "4", ZipCode: "90004"},
			{ProviderID: "5", ZipCode: "90005"},
		},
	)
	for idx, v := range []float64{10, 20, 30, 40, 600} {
		m.Set(idx, v, domain.FillComputed)
	}

	report := ValidateMatrix(m, ValidateConfig{MinCoverage: 0.95})
	// Sorted values 10,20,30,40,600: q1=20, q3=40, iqr=20.
	require.InDelta(t, -10.0, report.IQRLowerBound, 1e-9)
	require.InDelta(t, 70.0, report.IQRUpperBound, 1e-9)
	require.Equal(t, 1, report.IQROutlierCount)
}

func TestValidateMatrixMissingZipImpact(t *testing.T) {
	m := validatorMatrix()
	for idx := range m.Minutes {
		m.Set(idx, 60, domain.FillComputed)
	}

	report := ValidateMatrix(m, ValidateConfig{
		MinCoverage:         0.95,
		MissingProviderZips: []string{"94102"},
	})
	// Provider 1002 covers half the pairs.
	require.InDelta(t, 50.0, report.MissingPairPct, 1e-9)

	found := false
	for _, rec := range report.Recommendations {
		if strings.Contains(rec, "gazetteer") {
			found = true
		}
	}
	require.True(t, found, "expected gazetteer recommendation, got %v", report.Recommendations)
}

func TestRunBenchmarksMatchesBothDirections(t *testing.T) {
	m := validatorMatrix()
	// Demand 90001 x provider in 94102, plus the reverse orientation.
	m.Set(m.Index(0, 1), 390, domain.FillComputed)
	m.Set(m.Index(1, 0), 28, domain.FillComputed)

	results := runBenchmarks(m, []domain.RouteBenchmark{
		{OriginZip: "90001", DestZip: "94102", ExpectedMin: 360, ExpectedMax: 420},
		{OriginZip: "90001", DestZip: "90210", ExpectedMin: 25, ExpectedMax: 35},
		{OriginZip: "92101", DestZip: "92102", ExpectedMin: 8, ExpectedMax: 12},
	})
	require.Len(t, results, 3)

	require.True(t, results[0].Found)
	require.True(t, results[0].Pass)
	require.Equal(t, 390.0, results[0].ObservedMean)

	// 90210 -> 90001 matches the benchmark in reverse.
	require.True(t, results[1].Found)
	require.True(t, results[1].Pass)
	require.Equal(t, 28.0, results[1].ObservedMean)

	require.False(t, results[2].Found)
	require.False(t, results[2].Pass)
}

func TestRunBenchmarksFailsOutOfRange(t *testing.T) {
	m := validatorMatrix()
	m.Set(m.Index(0, 1), 700, domain.FillComputed)

	results := runBenchmarks(m, []domain.RouteBenchmark{
		{OriginZip: "90001", DestZip: "94102", ExpectedMin: 360, ExpectedMax: 420},
	})
	require.True(t, results[0].Found)
	require.False(t, results[0].Pass)
}

func TestQuantile(t *testing.T) {
	sorted := []float64{10, 20, 30, 40}
	require.Equal(t, 10.0, quantile(sorted, 0))
	require.Equal(t, 40.0, quantile(sorted, 1))
	require.InDelta(t, 25.0, quantile(sorted, 0.5), 1e-9)
	require.InDelta(t, 17.5, quantile(sorted, 0.25), 1e-9)
	require.Equal(t, 0.0, quantile(nil, 0.5))
}

func TestDefaultBenchmarksCoverKnownRegions(t *testing.T) {
	benchmarks := DefaultBenchmarks()
	require.Len(t, benchmarks, 12)
	for _, b := range benchmarks {
		require.Less(t, b.ExpectedMin, b.ExpectedMax, "%s -> %s", b.OriginZip, b.DestZip)
	}
}
