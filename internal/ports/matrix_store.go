package ports

import (
	"context"
	"travel-matrix-service/internal/domain"
)

// Port: persistence for a completed matrix build. A store is only invoked
// after validation passes; a failed build is never persisted.
type MatrixStore interface {
	SaveMatrix(ctx context.Context, m *domain.Matrix) error
	SaveSummary(ctx context.Context, s domain.MatrixSummary) error
	SaveReport(ctx context.Context, r domain.ValidationReport) error
}
