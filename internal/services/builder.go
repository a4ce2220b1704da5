package services

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"travel-matrix-service/internal/domain"
	"travel-matrix-service/internal/platform/obs"
	"travel-matrix-service/internal/ports"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// Immutable configuration for one matrix build. Threaded explicitly through
// the phase functions; the builder itself holds no state between phases.
type BuildConfig struct {
	// Coverage below this after all fill phases is a build failure.
	MinCoverage float64

	// Advisory error-rate threshold surfaced in the validation report.
	MaxErrorRate float64

	// Seed for the single random source shared by the perturbation and any
	// sampling-based interpolation step. Zero seeds from the clock.
	Seed int64

	Estimator     EstimatorConfig
	Interpolation InterpolationConfig
	Benchmarks    []domain.RouteBenchmark
}

func DefaultBuildConfig() BuildConfig {
	return BuildConfig{
		MinCoverage:   0.95,
		MaxErrorRate:  0.15,
		Estimator:     DefaultEstimatorConfig(),
		Interpolation: DefaultInterpolationConfig(),
		Benchmarks:    DefaultBenchmarks(),
	}
}

// Collaborators for a build. Reference may be nil: an absent authoritative
// dataset is a normal configuration with zero authoritative coverage.
type BuildDeps struct {
	Rosters   ports.RosterSource
	Coords    ports.CoordinateSource
	Reference ports.ReferenceSource
	Stores    []ports.MatrixStore
}

// Everything a successful build produces.
type BuildOutcome struct {
	Matrix  *domain.Matrix
	Summary domain.MatrixSummary
	Report  domain.ValidationReport

	AuthoritativeFilled int
	ComputedFilled      int
	Interpolation       FillResult
}

// Run the full pipeline: load, materialize, authoritative merge, computed
// fill, interpolated fill, then validate. The matrix is persisted only when
// validation passes; insufficient coverage returns domain.ErrCoverage and
// nothing is written.
func BuildMatrix(ctx context.Context, cfg BuildConfig, deps BuildDeps) (_ *BuildOutcome, err error) {
	defer obs.Time(ctx, "matrix.build")(&err)

	runID := uuid.NewString()
	ctx = obs.WithRunID(ctx, runID)

	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	rng := rand.New(rand.NewSource(seed))

	providers, demand, err := loadInputs(ctx, deps.Rosters)
	if err != nil {
		return nil, fmt.Errorf("build matrix: %w", err)
	}

	m := domain.NewMatrix(demand, providers)
	log.Info().Str("run_id", runID).
		Int("providers", m.Cols()).
		Int("demand_areas", m.Rows()).
		Int("pairs", m.Pairs()).
		Msg("materialized target matrix")

	authoritative, err := MergeAuthoritative(ctx, m, deps.Reference)
	if err != nil {
		return nil, fmt.Errorf("build matrix: %w", err)
	}
	log.Info().Int("filled", authoritative).Float64("coverage", m.Coverage()).
		Msg("authoritative merge complete")

	computed, missingZips := FillComputed(m, deps.Coords, cfg.Estimator, rng)
	log.Info().Int("filled", computed).Float64("coverage", m.Coverage()).
		Int("unresolved_provider_zips", len(missingZips)).
		Msg("computed fill complete")

	var fill FillResult
	if len(m.UnknownIndices()) > 0 {
		fill, err = Interpolate(m, cfg.Interpolation, rng)
		if err != nil {
			return nil, fmt.Errorf("build matrix: %w", err)
		}
		log.Info().Int("filled", fill.Changed).Float64("coverage", fill.PostCoverage).
			Str("strategy", string(fill.Strategy)).
			Msg("interpolated fill complete")
	}

	report := ValidateMatrix(m, ValidateConfig{
		RunID:               runID,
		MinCoverage:         cfg.MinCoverage,
		MaxErrorRate:        cfg.MaxErrorRate,
		Benchmarks:          cfg.Benchmarks,
		MissingProviderZips: missingZips,
	})
	if !report.CoverageOK {
		return nil, fmt.Errorf("build matrix: coverage %.2f%% below minimum %.2f%%: %w",
			report.Coverage*100, cfg.MinCoverage*100, domain.ErrCoverage)
	}

	summary := m.Summarize()
	summary.RunID = runID

	for _, store := range deps.Stores {
		if err := store.SaveMatrix(ctx, m); err != nil {
			return nil, fmt.Errorf("build matrix: persist matrix: %w", err)
		}
		if err := store.SaveSummary(ctx, summary); err != nil {
			return nil, fmt.Errorf("build matrix: persist summary: %w", err)
		}
		if err := store.SaveReport(ctx, report); err != nil {
			return nil, fmt.Errorf("build matrix: persist report: %w", err)
		}
	}

	return &BuildOutcome{
		Matrix:              m,
		Summary:             summary,
		Report:              report,
		AuthoritativeFilled: authoritative,
		ComputedFilled:      computed,
		Interpolation:       fill,
	}, nil
}

func loadInputs(ctx context.Context, rosters ports.RosterSource) (_ []domain.ProviderLocation, _ []domain.DemandArea, err error) {
	defer obs.Time(ctx, "matrix.load")(&err)

	if rosters == nil {
		return nil, nil, fmt.Errorf("load inputs: no roster source: %w", domain.ErrMissingInput)
	}

	providers, err := rosters.ListProviders(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("load inputs: providers: %w", err)
	}
	if len(providers) == 0 {
		return nil, nil, fmt.Errorf("load inputs: provider roster is empty: %w", domain.ErrMissingInput)
	}

	demand, err := rosters.ListDemandAreas(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("load inputs: demand areas: %w", err)
	}
	if len(demand) == 0 {
		return nil, nil, fmt.Errorf("load inputs: demand roster is empty: %w", domain.ErrMissingInput)
	}

	return providers, demand, nil
}

// Merge known travel times from the authoritative dataset into still-unset
// entries, tagged FillAuthoritative. A nil source means zero authoritative
// coverage, which is legitimate.
func MergeAuthoritative(ctx context.Context, m *domain.Matrix, ref ports.ReferenceSource) (int, error) {
	if ref == nil {
		return 0, nil
	}

	filled := 0
	batch, batched := ref.(ports.BatchReferenceSource)

	for d, demandZip := range m.DemandZips {
		if batched {
			// Prefer batched lookups to cut round trips per origin.
			results, err := batch.LookupMany(ctx, demandZip, m.ProviderZips)
			if err != nil {
				return filled, fmt.Errorf("authoritative merge: lookup many from %q: %w", demandZip, err)
			}
			for p, providerZip := range m.ProviderZips {
				idx := m.Index(d, p)
				if m.IsSet(idx) {
					continue
				}
				if minutes, ok := results[providerZip]; ok {
					m.Set(idx, minutes, domain.FillAuthoritative)
					filled++
				}
			}
			continue
		}

		for p, providerZip := range m.ProviderZips {
			idx := m.Index(d, p)
			if m.IsSet(idx) {
				continue
			}
			minutes, ok, err := ref.Lookup(ctx, demandZip, providerZip)
			if err != nil {
				return filled, fmt.Errorf("authoritative merge: lookup %q -> %q: %w", demandZip, providerZip, err)
			}
			if ok {
				m.Set(idx, minutes, domain.FillAuthoritative)
				filled++
			}
		}
	}
	return filled, nil
}

// Fill every still-unset entry from the deterministic model: resolve both
// centroids and run the geodesic/speed-tier estimate, or fall back to the
// ZIP-prefix heuristic when either endpoint is unresolvable. Both paths
// are tagged FillComputed. Returns the fill count and the provider ZIPs
// that failed centroid resolution.
func FillComputed(m *domain.Matrix, coords ports.CoordinateSource, cfg EstimatorConfig, rng *rand.Rand) (int, []string) {
	allZips := make([]string, 0, m.Rows()+m.Cols())
	allZips = append(allZips, m.DemandZips...)
	allZips = append(allZips, m.ProviderZips...)

	resolved := map[string]domain.Coordinates{}
	if coords != nil {
		resolved = coords.BatchGet(allZips)
	}

	missingProviderZips := make([]string, 0)
	seenMissing := map[string]struct{}{}
	for _, zip := range m.ProviderZips {
		if _, ok := resolved[zip]; ok {
			continue
		}
		if _, dup := seenMissing[zip]; dup {
			continue
		}
		seenMissing[zip] = struct{}{}
		missingProviderZips = append(missingProviderZips, zip)
	}

	filled := 0
	cols := m.Cols()
	for idx := range m.Minutes {
		if m.IsSet(idx) {
			continue
		}
		demandZip := m.DemandZips[idx/cols]
		providerZip := m.ProviderZips[idx%cols]

		origin, originOK := resolved[providerZip]
		dest, destOK := resolved[demandZip]

		var minutes float64
		if originOK && destOK {
			minutes = EstimateMinutes(DistanceMiles(origin, dest, cfg.RoadInflation), cfg, rng)
		} else {
			minutes = FallbackMinutes(providerZip, demandZip, cfg, rng)
		}
		m.Set(idx, minutes, domain.FillComputed)
		filled++
	}
	return filled, missingProviderZips
}
