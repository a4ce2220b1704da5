package ports

import "context"

// Contract for an authoritative external dataset of known travel times.
// Absence of a dataset is a normal configuration: the builder treats a nil
// ReferenceSource as zero authoritative coverage.
type ReferenceSource interface {
	// Return the known travel time in minutes for an origin/destination
	// ZIP pair, with ok=false when the pair is not in the dataset.
	Lookup(ctx context.Context, originZip, destZip string) (minutes float64, ok bool, err error)
}

// Optional extension of ReferenceSource that supports batched lookups.
type BatchReferenceSource interface {
	ReferenceSource
	// Return known travel times from one origin to many destinations.
	LookupMany(ctx context.Context, originZip string, destZips []string) (map[string]float64, error)
}
