package ports

import "travel-matrix-service/internal/domain"

// Contract for resolving a ZIP code to its centroid coordinates.
type CoordinateSource interface {
	// Return the centroid for a ZIP code (zero-padded to five digits).
	// A miss is reported via ok=false, never an error.
	Get(zipCode string) (domain.Coordinates, bool)

	// Resolve many ZIP codes at once. Only the subset that resolved is
	// returned; callers must treat the returned set as ground truth.
	BatchGet(zipCodes []string) map[string]domain.Coordinates
}
