package gazetteer

import (
	"travel-matrix-service/internal/domain"
	"travel-matrix-service/internal/ports"
)

// Chain tries coordinate sources in order, first hit wins. Used to layer
// the persistent centroid cache behind the primary gazetteer file.
type Chain struct {
	Sources []ports.CoordinateSource
}

func NewChain(sources ...ports.CoordinateSource) *Chain {
	return &Chain{Sources: sources}
}

func (c *Chain) Get(zipCode string) (domain.Coordinates, bool) {
	for _, s := range c.Sources {
		if coords, ok := s.Get(zipCode); ok {
			return coords, true
		}
	}
	return domain.Coordinates{}, false
}

func (c *Chain) BatchGet(zipCodes []string) map[string]domain.Coordinates {
	out := make(map[string]domain.Coordinates, len(zipCodes))
	remaining := zipCodes

	for _, s := range c.Sources {
		if len(remaining) == 0 {
			break
		}
		resolved := s.BatchGet(remaining)
		next := make([]string, 0, len(remaining))
		for _, zip := range remaining {
			if coords, ok := resolved[zip]; ok {
				out[zip] = coords
			} else {
				next = append(next, zip)
			}
		}
		remaining = next
	}
	return out
}
