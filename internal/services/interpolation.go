package services

import (
	"fmt"
	"math"
	"math/rand"
	"sort"
	"travel-matrix-service/internal/domain"
)

// An interpolation strategy name. Strategy choice is always an explicit
// caller decision; nothing here auto-selects a "best" strategy.
type InterpolationStrategy string

const (
	StrategyNearestNeighbor  InterpolationStrategy = "nearest"
	StrategySpatialWeighting InterpolationStrategy = "spatial"
	StrategyClustering       InterpolationStrategy = "cluster"
	StrategyForest           InterpolationStrategy = "forest"
)

// Per-strategy tuning knobs. Immutable during a fill.
type InterpolationConfig struct {
	Strategy InterpolationStrategy

	// Nearest-neighbor: number of neighbors averaged per unknown entry.
	K int

	// Spatial weighting: radius in miles within which known points
	// contribute inverse-distance weights.
	RadiusMiles float64

	// Clustering: number of groups formed from the known entries.
	Clusters int

	// Clustering: sample cap on known points fed to the quadratic
	// agglomeration.
	MaxClusterPoints int

	// Forest: number of bagged regression trees.
	Trees int
}

func DefaultInterpolationConfig() InterpolationConfig {
	return InterpolationConfig{
		Strategy:         StrategyNearestNeighbor,
		K:                5,
		RadiusMiles:      100,
		Clusters:         10,
		MaxClusterPoints: 1000,
		Trees:            100,
	}
}

// Quality metrics returned by every strategy, used to compare strategies
// across runs.
type FillResult struct {
	Strategy      InterpolationStrategy `json:"strategy"`
	PreCoverage   float64               `json:"pre_coverage"`
	PostCoverage  float64               `json:"post_coverage"`
	Changed       int                   `json:"changed"`
	MeanMinutes   float64               `json:"mean_travel_time"`
	MedianMinutes float64               `json:"median_travel_time"`
	MinMinutes    float64               `json:"min_travel_time"`
	MaxMinutes    float64               `json:"max_travel_time"`
}

// Fill unset matrix entries with the configured strategy, tagging each
// filled entry FillInterpolated. Known entries are never mutated. A fully
// covered matrix is a no-op for every strategy.
func Interpolate(m *domain.Matrix, cfg InterpolationConfig, rng *rand.Rand) (FillResult, error) {
	pre := m.Coverage()
	unknown := m.UnknownIndices()
	if len(unknown) == 0 {
		return fillResult(m, cfg.Strategy, pre, 0), nil
	}

	known := m.KnownIndices()
	if len(known) == 0 {
		return FillResult{}, fmt.Errorf("interpolate %s: %w", cfg.Strategy, domain.ErrTooFewKnown)
	}

	var err error
	switch cfg.Strategy {
	case StrategyNearestNeighbor:
		err = nearestNeighborFill(m, known, unknown, cfg.K)
	case StrategySpatialWeighting:
		err = spatialWeightingFill(m, known, unknown, cfg.RadiusMiles)
	case StrategyClustering:
		err = clusteringFill(m, known, unknown, cfg, rng)
	case StrategyForest:
		err = forestFill(m, known, unknown, cfg, rng)
	default:
		err = fmt.Errorf("unknown interpolation strategy %q", cfg.Strategy)
	}
	if err != nil {
		return FillResult{}, fmt.Errorf("interpolate %s: %w", cfg.Strategy, err)
	}

	return fillResult(m, cfg.Strategy, pre, len(unknown)), nil
}

func fillResult(m *domain.Matrix, strategy InterpolationStrategy, pre float64, changed int) FillResult {
	s := m.Summarize()
	return FillResult{
		Strategy:      strategy,
		PreCoverage:   pre,
		PostCoverage:  s.Coverage,
		Changed:       changed,
		MeanMinutes:   s.MeanMinutes,
		MedianMinutes: s.MedianMinutes,
		MinMinutes:    s.MinMinutes,
		MaxMinutes:    s.MaxMinutes,
	}
}

// Predict each unknown entry as the distance-inverse-weighted average of
// its k nearest known entries in feature space.
func nearestNeighborFill(m *domain.Matrix, known, unknown []int, k int) error {
	features := matrixFeatures(m)
	if k > len(known) {
		k = len(known)
	}
	if k < 1 {
		return domain.ErrTooFewKnown
	}

	type neighbor struct {
		dist  float64
		value float64
	}

	for _, u := range unknown {
		nearest := make([]neighbor, 0, k)
		for _, kn := range known {
			d := euclidean9(features[u], features[kn])
			if len(nearest) < k {
				nearest = append(nearest, neighbor{d, m.Minutes[kn]})
				sort.Slice(nearest, func(i, j int) bool { return nearest[i].dist < nearest[j].dist })
				continue
			}
			if d < nearest[k-1].dist {
				nearest[k-1] = neighbor{d, m.Minutes[kn]}
				sort.Slice(nearest, func(i, j int) bool { return nearest[i].dist < nearest[j].dist })
			}
		}

		weightSum, valueSum := 0.0, 0.0
		for _, n := range nearest {
			w := 1 / (n.dist + 1e-6)
			weightSum += w
			valueSum += w * n.value
		}
		m.Set(u, valueSum/weightSum, domain.FillInterpolated)
	}
	return nil
}

// Average known values within RadiusMiles of each unknown entry's
// approximate location, weighted by inverse distance. Falls back to the
// single nearest known point when nothing lies within radius.
func spatialWeightingFill(m *domain.Matrix, known, unknown []int, radiusMiles float64) error {
	lats := make([]float64, m.Pairs())
	lons := make([]float64, m.Pairs())
	for idx := 0; idx < m.Pairs(); idx++ {
		lats[idx], lons[idx] = zipPairApproxCoords(m.DemandZipAt(idx), m.ProviderZipAt(idx))
	}

	for _, u := range unknown {
		weightSum, valueSum := 0.0, 0.0
		nearestDist := math.Inf(1)
		nearestValue := 0.0

		for _, kn := range known {
			dLat := lats[kn] - lats[u]
			dLon := lons[kn] - lons[u]
			dist := math.Sqrt(dLat*dLat+dLon*dLon) * degreesToMiles

			if dist < nearestDist {
				nearestDist = dist
				nearestValue = m.Minutes[kn]
			}
			if dist <= radiusMiles {
				w := 1 / (dist + 1e-6)
				weightSum += w
				valueSum += w * m.Minutes[kn]
			}
		}

		if weightSum > 0 {
			m.Set(u, valueSum/weightSum, domain.FillInterpolated)
		} else {
			m.Set(u, nearestValue, domain.FillInterpolated)
		}
	}
	return nil
}

// Group the known entries' feature vectors by agglomerative clustering,
// then assign each unknown entry the mean travel time of its nearest
// cluster centroid.
func clusteringFill(m *domain.Matrix, known, unknown []int, cfg InterpolationConfig, rng *rand.Rand) error {
	features := matrixFeatures(m)

	// The agglomeration is quadratic in points, so large known partitions
	// are sampled down first.
	sample := known
	if cfg.MaxClusterPoints > 0 && len(known) > cfg.MaxClusterPoints {
		sample = sampleIndices(known, cfg.MaxClusterPoints, rng)
	}

	nClusters := cfg.Clusters
	if nClusters > len(sample) {
		nClusters = len(sample)
	}
	if nClusters < 1 {
		return domain.ErrTooFewKnown
	}

	points := make([][9]float64, len(sample))
	values := make([]float64, len(sample))
	for i, idx := range sample {
		points[i] = features[idx]
		values[i] = m.Minutes[idx]
	}

	centroids, means := agglomerate(points, values, nClusters)

	for _, u := range unknown {
		best := 0
		bestDist := math.Inf(1)
		for c := range centroids {
			if d := euclidean9(features[u], centroids[c]); d < bestDist {
				bestDist = d
				best = c
			}
		}
		m.Set(u, means[best], domain.FillInterpolated)
	}
	return nil
}

// Centroid-linkage agglomerative clustering: every point starts as its own
// cluster and the closest pair of centroids merges until nClusters remain.
// Returns cluster centroids and their mean travel times.
func agglomerate(points [][9]float64, values []float64, nClusters int) ([][9]float64, []float64) {
	type cluster struct {
		centroid [9]float64
		valueSum float64
		size     int
	}

	clusters := make([]cluster, len(points))
	for i := range points {
		clusters[i] = cluster{centroid: points[i], valueSum: values[i], size: 1}
	}

	active := make([]int, len(clusters))
	for i := range active {
		active[i] = i
	}

	for len(active) > nClusters {
		bestI, bestJ := 0, 1
		bestDist := math.Inf(1)
		for i := 0; i < len(active); i++ {
			for j := i + 1; j < len(active); j++ {
				d := euclidean9(clusters[active[i]].centroid, clusters[active[j]].centroid)
				if d < bestDist {
					bestDist = d
					bestI, bestJ = i, j
				}
			}
		}

		a, b := active[bestI], active[bestJ]
		merged := cluster{
			valueSum: clusters[a].valueSum + clusters[b].valueSum,
			size:     clusters[a].size + clusters[b].size,
		}
		for dim := 0; dim < 9; dim++ {
			merged.centroid[dim] = (clusters[a].centroid[dim]*float64(clusters[a].size) +
				clusters[b].centroid[dim]*float64(clusters[b].size)) / float64(merged.size)
		}
		clusters[a] = merged
		active = append(active[:bestJ], active[bestJ+1:]...)
	}

	centroids := make([][9]float64, len(active))
	means := make([]float64, len(active))
	for i, idx := range active {
		centroids[i] = clusters[idx].centroid
		means[i] = clusters[idx].valueSum / float64(clusters[idx].size)
	}
	return centroids, means
}

// Train a bagged regression-tree ensemble on the known entries and predict
// the unknown ones.
func forestFill(m *domain.Matrix, known, unknown []int, cfg InterpolationConfig, rng *rand.Rand) error {
	features := matrixFeatures(m)

	trainX := make([][9]float64, len(known))
	trainY := make([]float64, len(known))
	for i, idx := range known {
		trainX[i] = features[idx]
		trainY[i] = m.Minutes[idx]
	}

	if rng == nil {
		rng = rand.New(rand.NewSource(1))
	}

	forest, err := trainForest(trainX, trainY, cfg.Trees, rng)
	if err != nil {
		return err
	}

	for _, u := range unknown {
		m.Set(u, forest.predict(features[u]), domain.FillInterpolated)
	}
	return nil
}

func sampleIndices(indices []int, n int, rng *rand.Rand) []int {
	out := make([]int, len(indices))
	copy(out, indices)
	if rng == nil {
		rng = rand.New(rand.NewSource(1))
	}
	rng.Shuffle(len(out), func(i, j int) { out[i], out[j] = out[j], out[i] })
	return out[:n]
}
