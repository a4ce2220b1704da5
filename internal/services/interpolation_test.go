package services

import (
	"math"
	"math/rand"
	"testing"

	"travel-matrix-service/internal/domain"

	"github.com/stretchr/testify/require"
)

// Matrix over a spread of California ZIPs with a configurable share of
// entries left unset.
func partialMatrix(t *testing.T, unsetEvery int) *domain.Matrix {
	t.Helper()

	demandZips := []string{
		"90001", "90210", "90211", "91001", "92101",
		"92103", "93001", "94102", "94105", "95814",
	}
	demand := make([]domain.DemandArea, 0, len(demandZips))
	for _, z := range demandZips {
		demand = append(demand, domain.DemandArea{ZipCode: z, DemandWeight: 0.5})
	}

	providers := []domain.ProviderLocation{
		{ProviderID: "1001", ZipCode: "90001"},
		{ProviderID: "1002", ZipCode: "92101"},
		{ProviderID: "1003", ZipCode: "94102"},
		{ProviderID: "1004", ZipCode: "95814"},
	}

	m := domain.NewMatrix(demand, providers)

	cfg := DefaultEstimatorConfig()
	cfg.PerturbStdDev = 0
	for idx := range m.Minutes {
		if unsetEvery > 0 && idx%unsetEvery == 0 {
			continue
		}
		m.Set(idx, FallbackMinutes(m.ProviderZipAt(idx), m.DemandZipAt(idx), cfg, nil), domain.FillComputed)
	}
	return m
}

func allStrategies() []InterpolationStrategy {
	return []InterpolationStrategy{
		StrategyNearestNeighbor,
		StrategySpatialWeighting,
		StrategyClustering,
		StrategyForest,
	}
}

func TestInterpolateFillsAllUnknowns(t *testing.T) {
	for _, strategy := range allStrategies() {
		t.Run(string(strategy), func(t *testing.T) {
			m := partialMatrix(t, 3)
			unknownBefore := len(m.UnknownIndices())
			require.Greater(t, unknownBefore, 0)

			cfg := DefaultInterpolationConfig()
			cfg.Strategy = strategy
			cfg.Trees = 20 // keep the forest test quick

			result, err := Interpolate(m, cfg, rand.New(rand.NewSource(11)))
			require.NoError(t, err)

			require.Equal(t, unknownBefore, result.Changed)
			require.Equal(t, 1.0, result.PostCoverage)
			require.Empty(t, m.UnknownIndices())

			// Interpolated values stay inside the known value envelope's
			// plausible range.
			for _, idx := range m.KnownIndices() {
				require.GreaterOrEqual(t, m.Minutes[idx], 5.0)
				require.LessOrEqual(t, m.Minutes[idx], 600.0)
			}
		})
	}
}

func TestInterpolateNoOpOnFullMatrix(t *testing.T) {
	for _, strategy := range allStrategies() {
		t.Run(string(strategy), func(t *testing.T) {
			m := partialMatrix(t, 0)
			before := make([]float64, len(m.Minutes))
			copy(before, m.Minutes)

			cfg := DefaultInterpolationConfig()
			cfg.Strategy = strategy

			result, err := Interpolate(m, cfg, rand.New(rand.NewSource(3)))
			require.NoError(t, err)
			require.Equal(t, 0, result.Changed)
			require.Equal(t, before, m.Minutes)
		})
	}
}

func TestInterpolateNeverMutatesKnownEntries(t *testing.T) {
	for _, strategy := range allStrategies() {
		t.Run(string(strategy), func(t *testing.T) {
			m := partialMatrix(t, 4)
			known := m.KnownIndices()
			before := make(map[int]float64, len(known))
			for _, idx := range known {
				before[idx] = m.Minutes[idx]
			}

			cfg := DefaultInterpolationConfig()
			cfg.Strategy = strategy
			cfg.Trees = 20

			_, err := Interpolate(m, cfg, rand.New(rand.NewSource(5)))
			require.NoError(t, err)

			for idx, v := range before {
				require.Equal(t, v, m.Minutes[idx], "known entry %d changed", idx)
				require.Equal(t, domain.FillComputed, m.Sources[idx])
			}
		})
	}
}

func TestInterpolateErrorsWithNoKnownEntries(t *testing.T) {
	m := domain.NewMatrix(
		[]domain.DemandArea{{ZipCode: "90001"}},
		[]domain.ProviderLocation{{ProviderID: "1001", ZipCode: "94102"}},
	)

	for _, strategy := range allStrategies() {
		cfg := DefaultInterpolationConfig()
		cfg.Strategy = strategy
		_, err := Interpolate(m, cfg, nil)
		require.ErrorIs(t, err, domain.ErrTooFewKnown, string(strategy))
	}
}

func TestInterpolateRejectsUnknownStrategy(t *testing.T) {
	m := partialMatrix(t, 3)
	cfg := DefaultInterpolationConfig()
	cfg.Strategy = "kriging"

	_, err := Interpolate(m, cfg, nil)
	require.Error(t, err)
	require.Contains(t, err.Error(), "kriging")
}

func TestNearestNeighborUsesCloseValues(t *testing.T) {
	m := partialMatrix(t, 5)
	cfg := DefaultInterpolationConfig()
	cfg.K = 1

	result, err := Interpolate(m, cfg, nil)
	require.NoError(t, err)
	require.Greater(t, result.Changed, 0)

	// With k=1 each fill copies its single nearest neighbor, so every
	// interpolated value must match some known value.
	knownValues := make([]float64, 0)
	for _, idx := range m.KnownIndices() {
		if m.Sources[idx] == domain.FillComputed {
			knownValues = append(knownValues, m.Minutes[idx])
		}
	}
	for idx, src := range m.Sources {
		if src != domain.FillInterpolated {
			continue
		}
		closest := math.Inf(1)
		for _, v := range knownValues {
			if d := math.Abs(v - m.Minutes[idx]); d < closest {
				closest = d
			}
		}
		require.InDelta(t, 0, closest, 1e-6, "interpolated value %f not among known values", m.Minutes[idx])
	}
}

func TestClusteringHonorsSampleCap(t *testing.T) {
	m := partialMatrix(t, 6)
	cfg := DefaultInterpolationConfig()
	cfg.Strategy = StrategyClustering
	cfg.MaxClusterPoints = 8
	cfg.Clusters = 3

	_, err := Interpolate(m, cfg, rand.New(rand.NewSource(9)))
	require.NoError(t, err)
	require.Empty(t, m.UnknownIndices())
}

func TestSampleIndicesShufflesWithoutRng(t *testing.T) {
	indices := make([]int, 100)
	for i := range indices {
		indices[i] = i
	}

	got := sampleIndices(indices, 10, nil)
	require.Len(t, got, 10)

	seen := map[int]struct{}{}
	for _, idx := range got {
		require.GreaterOrEqual(t, idx, 0)
		require.Less(t, idx, 100)
		_, dup := seen[idx]
		require.False(t, dup, "index %d sampled twice", idx)
		seen[idx] = struct{}{}
	}

	// A nil rng must still sample, not truncate to the leading block.
	require.NotEqual(t, indices[:10], got)
}

func TestAgglomerateGroupsDistinctPoints(t *testing.T) {
	points := [][9]float64{
		{0, 0, 0, 0, 0, 0, 0, 0, 0},
		{0.1, 0, 0, 0, 0, 0, 0, 0, 0},
		{10, 10, 10, 10, 10, 10, 10, 10, 10},
		{10.1, 10, 10, 10, 10, 10, 10, 10, 10},
	}
	values := []float64{10, 20, 100, 200}

	centroids, means := agglomerate(points, values, 2)
	require.Len(t, centroids, 2)
	require.Len(t, means, 2)
	require.ElementsMatch(t, []float64{15, 150}, means)
}
