package services

import (
	"math"
	"math/rand"
	"strconv"
	"travel-matrix-service/internal/domain"
)

// Earth radius in miles for the haversine computation.
const earthRadiusMiles = 3958.8

// Configuration for the deterministic distance/drive-time model.
// Immutable once constructed; threaded explicitly through the estimator
// functions so no phase carries hidden state.
type EstimatorConfig struct {
	// Multiplier applied to great-circle distance to approximate road
	// distance over straight-line distance.
	RoadInflation float64

	// Standard deviation of the gaussian perturbation added to computed
	// estimates, in minutes. Zero disables the perturbation entirely,
	// making estimates reproducible.
	PerturbStdDev float64

	// Inclusive two-digit ZIP prefix range considered in-region by the
	// no-coordinate fallback heuristic (California: 90-96).
	RegionPrefixLo int
	RegionPrefixHi int
}

func DefaultEstimatorConfig() EstimatorConfig {
	return EstimatorConfig{
		RoadInflation:  1.15,
		PerturbStdDev:  5,
		RegionPrefixLo: 90,
		RegionPrefixHi: 96,
	}
}

// Great-circle distance between two centroids in miles, inflated by the
// road-network factor. Symmetric, zero for identical points.
func DistanceMiles(a, b domain.Coordinates, roadInflation float64) float64 {
	lat1 := a.Lat * math.Pi / 180
	lat2 := b.Lat * math.Pi / 180
	dLat := (b.Lat - a.Lat) * math.Pi / 180
	dLon := (b.Lon - a.Lon) * math.Pi / 180

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Asin(math.Sqrt(h))

	return c * earthRadiusMiles * roadInflation
}

// Convert a road distance into estimated drive minutes using
// distance-banded average speeds: surface streets dominate short trips,
// highway speeds dominate long ones.
//
// rng may be nil; together with PerturbStdDev=0 the estimate is the pure
// piecewise-linear formula. The result is always clamped to [5, 600].
func EstimateMinutes(distanceMiles float64, cfg EstimatorConfig, rng *rand.Rand) float64 {
	var minutes float64
	switch {
	case distanceMiles <= 50:
		// Urban travel, 35 mph average.
		minutes = distanceMiles * 1.71
	case distanceMiles <= 150:
		// Regional travel, 55 mph average.
		minutes = distanceMiles * 1.09
	case distanceMiles <= 300:
		// Interstate travel, 65 mph average.
		minutes = distanceMiles * 0.92
	default:
		// Long distance at 60 mph, plus 10% rest-stop overhead.
		minutes = distanceMiles * 1.0 * 1.1
	}

	if rng != nil && cfg.PerturbStdDev > 0 {
		minutes += rng.NormFloat64() * cfg.PerturbStdDev
	}

	return clamp(minutes, 5, 600)
}

// Fallback constants for pairs where a centroid could not be resolved.
// These are approximations of last resort; entries produced through this
// path are still tagged FillComputed.
const (
	crossRegionMinutes = 180
	interstateMinutes  = 120
	unparsableMinutes  = 45
)

// Estimate drive minutes between two ZIP codes when at least one endpoint
// has no resolvable centroid, based purely on ZIP-prefix geography.
func FallbackMinutes(originZip, destZip string, cfg EstimatorConfig, rng *rand.Rand) float64 {
	originPrefix, originOK := zipPrefix(originZip)
	destPrefix, destOK := zipPrefix(destZip)
	if !originOK || !destOK {
		return unparsableMinutes
	}

	originInRegion := originPrefix >= cfg.RegionPrefixLo && originPrefix <= cfg.RegionPrefixHi
	destInRegion := destPrefix >= cfg.RegionPrefixLo && destPrefix <= cfg.RegionPrefixHi

	if !originInRegion && !destInRegion {
		return crossRegionMinutes
	}
	if originInRegion != destInRegion {
		return interstateMinutes
	}

	// Both in-region: rough same-region estimate from the numeric distance
	// between two-digit prefixes, at an assumed 40 mph.
	distance := math.Abs(float64(originPrefix-destPrefix)) * 10
	minutes := distance * 1.5
	if rng != nil && cfg.PerturbStdDev > 0 {
		minutes += rng.NormFloat64() * 2 * cfg.PerturbStdDev
	}
	return clamp(minutes, 10, 120)
}

func zipPrefix(zip string) (int, bool) {
	if len(zip) < 2 {
		return 0, false
	}
	n, err := strconv.Atoi(zip[:2])
	if err != nil {
		return 0, false
	}
	return n, true
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
