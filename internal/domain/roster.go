package domain

// A single care-provider record from the provider roster.
// ZipCode is normalized to five digits but is not guaranteed to resolve
// in the centroid gazetteer; unresolvable codes take the fallback path.
type ProviderLocation struct {
	ProviderID string
	ZipCode    string
}

// One demand ZIP with its modeled demand weight. Independent of the
// provider set.
type DemandArea struct {
	ZipCode      string
	DemandWeight float64
}
