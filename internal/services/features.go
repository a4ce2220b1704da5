package services

import (
	"math"
	"strconv"
	"travel-matrix-service/internal/domain"
)

// Degrees-to-miles conversion used by the crude ZIP-derived coordinate
// proxy. Approximate at mid latitudes; the proxy is only consulted when
// the real centroid gazetteer already failed for an entry.
const degreesToMiles = 69

// Numeric features derived from a (demand ZIP, provider ZIP) pair's digit
// groups: the two endpoint digit triples plus their absolute differences.
// This is the single feature representation shared by every interpolation
// strategy so strategies are comparable on equal footing.
func zipPairFeatures(originZip, destZip string) [9]float64 {
	o1, o2, o3 := zipDigitGroups(originZip)
	d1, d2, d3 := zipDigitGroups(destZip)
	return [9]float64{
		o1, o2, o3,
		d1, d2, d3,
		math.Abs(o1 - d1), math.Abs(o2 - d2), math.Abs(o3 - d3),
	}
}

func zipDigitGroups(zip string) (float64, float64, float64) {
	for len(zip) < 5 {
		zip = "0" + zip
	}
	return digitsToFloat(zip[:2]), digitsToFloat(zip[2:4]), digitsToFloat(zip[4:5])
}

func digitsToFloat(s string) float64 {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0
	}
	return float64(n)
}

// Feature vectors for every entry of the matrix, standardized to zero mean
// and unit variance per dimension so digit-group magnitudes are comparable.
func matrixFeatures(m *domain.Matrix) [][9]float64 {
	features := make([][9]float64, m.Pairs())
	for idx := range features {
		features[idx] = zipPairFeatures(m.DemandZipAt(idx), m.ProviderZipAt(idx))
	}
	standardize(features)
	return features
}

func standardize(features [][9]float64) {
	if len(features) == 0 {
		return
	}
	n := float64(len(features))
	for dim := 0; dim < 9; dim++ {
		mean := 0.0
		for i := range features {
			mean += features[i][dim]
		}
		mean /= n

		variance := 0.0
		for i := range features {
			d := features[i][dim] - mean
			variance += d * d
		}
		std := math.Sqrt(variance / n)
		if std == 0 {
			std = 1
		}
		for i := range features {
			features[i][dim] = (features[i][dim] - mean) / std
		}
	}
}

// Approximate centroid of a matrix entry derived from ZIP digit groups
// alone: midpoint of the two endpoint approximations. A far cruder proxy
// than the gazetteer, scaled for the California longitude band.
func zipPairApproxCoords(originZip, destZip string) (lat, lon float64) {
	oLat, oLon := zipApproxCoords(originZip)
	dLat, dLon := zipApproxCoords(destZip)
	return (oLat + dLat) / 2, (oLon + dLon) / 2
}

func zipApproxCoords(zip string) (lat, lon float64) {
	g1, g2, g3 := zipDigitGroups(zip)
	return g1 + g2/100, -120 + g3/10
}

func euclidean9(a, b [9]float64) float64 {
	sum := 0.0
	for i := range a {
		d := a[i] - b[i]
		sum += d * d
	}
	return math.Sqrt(sum)
}
