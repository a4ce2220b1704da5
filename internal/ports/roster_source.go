package ports

import (
	"context"
	"travel-matrix-service/internal/domain"
)

// Port: a boundary for loading provider and demand rosters.
type RosterSource interface {
	// Retrieve the full provider roster.
	ListProviders(ctx context.Context) ([]domain.ProviderLocation, error)

	// Retrieve all demand areas.
	ListDemandAreas(ctx context.Context) ([]domain.DemandArea, error)
}
