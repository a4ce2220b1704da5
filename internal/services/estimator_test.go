package services

import (
	"math/rand"
	"testing"

	"travel-matrix-service/internal/domain"

	"github.com/stretchr/testify/require"
)

var (
	losAngeles   = domain.Coordinates{Lat: 33.9731, Lon: -118.2479} // 90001
	beverlyHills = domain.Coordinates{Lat: 34.1030, Lon: -118.4105} // 90210
	sanFrancisco = domain.Coordinates{Lat: 37.7793, Lon: -122.4193} // 94102
)

func TestDistanceMilesSymmetricAndZero(t *testing.T) {
	d1 := DistanceMiles(losAngeles, sanFrancisco, 1.15)
	d2 := DistanceMiles(sanFrancisco, losAngeles, 1.15)
	require.InDelta(t, d1, d2, 1e-9)

	require.Equal(t, 0.0, DistanceMiles(losAngeles, losAngeles, 1.15))
}

func TestDistanceMilesKnownRoutes(t *testing.T) {
	// LA to SF is roughly 350 miles great-circle; inflated it lands near 400.
	d := DistanceMiles(losAngeles, sanFrancisco, 1.15)
	require.Greater(t, d, 350.0)
	require.Less(t, d, 450.0)

	// Same-metro pair stays short.
	d = DistanceMiles(losAngeles, beverlyHills, 1.15)
	require.Less(t, d, 25.0)
}

func TestEstimateMinutesClampedRange(t *testing.T) {
	cfg := DefaultEstimatorConfig()
	rng := rand.New(rand.NewSource(7))

	for _, d := range []float64{0, 0.5, 10, 49, 50, 51, 149, 151, 299, 301, 1000, 5000} {
		got := EstimateMinutes(d, cfg, rng)
		require.GreaterOrEqual(t, got, 5.0, "distance %.1f", d)
		require.LessOrEqual(t, got, 600.0, "distance %.1f", d)
	}
}

func TestEstimateMinutesMonotonicWithinTiers(t *testing.T) {
	cfg := DefaultEstimatorConfig()
	cfg.PerturbStdDev = 0 // perturbation-free formula

	tiers := [][2]float64{{5, 45}, {55, 145}, {155, 295}, {305, 500}}
	for _, tier := range tiers {
		lo := EstimateMinutes(tier[0], cfg, nil)
		hi := EstimateMinutes(tier[1], cfg, nil)
		require.LessOrEqual(t, lo, hi, "tier %v", tier)
	}
}

func TestEstimateMinutesSpeedTiers(t *testing.T) {
	cfg := DefaultEstimatorConfig()
	cfg.PerturbStdDev = 0

	require.InDelta(t, 40*1.71, EstimateMinutes(40, cfg, nil), 1e-9)
	require.InDelta(t, 100*1.09, EstimateMinutes(100, cfg, nil), 1e-9)
	require.InDelta(t, 200*0.92, EstimateMinutes(200, cfg, nil), 1e-9)
	require.InDelta(t, 400*1.1, EstimateMinutes(400, cfg, nil), 1e-9)
}

func TestEstimateMinutesCrossRegionPair(t *testing.T) {
	cfg := DefaultEstimatorConfig()
	cfg.PerturbStdDev = 0

	// 90001 -> 94102 must resolve to a multi-hour estimate.
	d := DistanceMiles(losAngeles, sanFrancisco, cfg.RoadInflation)
	require.GreaterOrEqual(t, EstimateMinutes(d, cfg, nil), 300.0)

	// 90001 -> 90210 stays well under an hour.
	d = DistanceMiles(losAngeles, beverlyHills, cfg.RoadInflation)
	require.Less(t, EstimateMinutes(d, cfg, nil), 60.0)
}

func TestFallbackMinutes(t *testing.T) {
	cfg := DefaultEstimatorConfig()
	cfg.PerturbStdDev = 0

	// Neither in region: fixed cross-region constant.
	require.Equal(t, 180.0, FallbackMinutes("10001", "60601", cfg, nil))

	// Exactly one in region: fixed interstate constant.
	require.Equal(t, 120.0, FallbackMinutes("90001", "10001", cfg, nil))
	require.Equal(t, 120.0, FallbackMinutes("10001", "90001", cfg, nil))

	// Both in region: prefix-derived estimate within [10, 120].
	got := FallbackMinutes("90001", "95814", cfg, nil)
	require.GreaterOrEqual(t, got, 10.0)
	require.LessOrEqual(t, got, 120.0)
	require.InDelta(t, 5*10*1.5, got, 1e-9)

	// Same prefix clamps up to the floor.
	require.Equal(t, 10.0, FallbackMinutes("90001", "90210", cfg, nil))

	// Unparsable codes get the conservative default.
	require.Equal(t, 45.0, FallbackMinutes("x", "90001", cfg, nil))
}

func TestFallbackDeterministicWithoutPerturbation(t *testing.T) {
	cfg := DefaultEstimatorConfig()
	cfg.PerturbStdDev = 0

	a := FallbackMinutes("90001", "96001", cfg, rand.New(rand.NewSource(1)))
	b := FallbackMinutes("90001", "96001", cfg, rand.New(rand.NewSource(2)))
	require.Equal(t, a, b)
}
