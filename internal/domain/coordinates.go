package domain

// Immutable geographic coordinates (latitude, longitude) of a ZIP centroid.
type Coordinates struct {
	Lat float64
	Lon float64
}
