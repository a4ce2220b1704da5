package domain

import "time"

// A reference route with an expected drive-time range, used to sanity-check
// the matrix against known city pairs.
type RouteBenchmark struct {
	OriginZip   string  `json:"origin_zip"`
	DestZip     string  `json:"destination_zip"`
	ExpectedMin float64 `json:"expected_min_minutes"`
	ExpectedMax float64 `json:"expected_max_minutes"`
}

// Outcome of one benchmark check. Diagnostic only, never a build gate.
type BenchmarkResult struct {
	RouteBenchmark
	Found          bool    `json:"found"`
	ObservedMean   float64 `json:"observed_mean,omitempty"`
	ObservedMedian float64 `json:"observed_median,omitempty"`
	SampleCount    int     `json:"sample_count"`
	Pass           bool    `json:"pass"`
}

// Structured validation report for one matrix build.
type ValidationReport struct {
	RunID       string        `json:"run_id"`
	GeneratedAt time.Time     `json:"generated_at"`
	Summary     MatrixSummary `json:"summary"`

	Coverage    float64 `json:"coverage"`
	MinCoverage float64 `json:"min_coverage"`
	CoverageOK  bool    `json:"coverage_ok"`

	// Advisory threshold surfaced for downstream consumers.
	MaxErrorRate float64 `json:"max_error_rate"`

	NegativeCorrected int     `json:"negative_corrected"`
	TooShortCount     int     `json:"too_short_count"`
	OutlierCount      int     `json:"outlier_count"`
	IQRLowerBound     float64 `json:"iqr_lower_bound"`
	IQRUpperBound     float64 `json:"iqr_upper_bound"`
	IQROutlierCount   int     `json:"iqr_outlier_count"`

	// Entries sitting exactly at the cross-region fallback constant;
	// a high share indicates fallback overuse.
	FallbackExactCount int     `json:"fallback_exact_count"`
	FallbackExactPct   float64 `json:"fallback_exact_pct"`

	MissingProviderZips []string `json:"missing_provider_zips,omitempty"`
	MissingPairPct      float64  `json:"missing_pair_pct"`

	Benchmarks      []BenchmarkResult `json:"benchmarks"`
	Recommendations []string          `json:"recommendations"`
}
