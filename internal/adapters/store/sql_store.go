package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"travel-matrix-service/internal/domain"
	"travel-matrix-service/internal/platform/obs"
)

// Postgres-backed matrix store for shared deployments where downstream
// consumers query the matrix directly.
type SQLMatrixStore struct {
	DB *sql.DB
}

func NewSQLMatrixStore(db *sql.DB) *SQLMatrixStore {
	return &SQLMatrixStore{DB: db}
}

func (s *SQLMatrixStore) SaveMatrix(ctx context.Context, m *domain.Matrix) (err error) {
	defer obs.Time(ctx, "store.sql.SaveMatrix")(&err)

	if s.DB == nil {
		return errors.New("matrix store: db is nil")
	}

	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("save matrix: db begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, `
	INSERT INTO travel_matrix (demand_zip, provider_id, travel_minutes, fill_source)
	VALUES ($1, $2, $3, $4)
	ON CONFLICT (demand_zip, provider_id) DO UPDATE
	SET travel_minutes = EXCLUDED.travel_minutes,
		fill_source = EXCLUDED.fill_source;
	`)
	if err != nil {
		return fmt.Errorf("save matrix: db prepare: %w", err)
	}
	defer stmt.Close()

	cols := m.Cols()
	for idx := range m.Minutes {
		_, err := stmt.ExecContext(ctx,
			m.DemandZips[idx/cols],
			m.ProviderIDs[idx%cols],
			m.Minutes[idx],
			m.Sources[idx].String(),
		)
		if err != nil {
			return fmt.Errorf("save matrix: insert pair (%s, %s): %w",
				m.DemandZips[idx/cols], m.ProviderIDs[idx%cols], err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("save matrix: commit: %w", err)
	}
	return nil
}

func (s *SQLMatrixStore) SaveSummary(ctx context.Context, summary domain.MatrixSummary) error {
	if s.DB == nil {
		return errors.New("matrix store: db is nil")
	}

	_, err := s.DB.ExecContext(ctx, `
	INSERT INTO matrix_summary (
		run_id, total_pairs, coverage,
		mean_minutes, median_minutes, min_minutes, max_minutes,
		providers_count, demand_areas_count
	)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	ON CONFLICT (run_id) DO NOTHING;
	`,
		summary.RunID,
		summary.TotalPairs,
		summary.Coverage,
		summary.MeanMinutes,
		summary.MedianMinutes,
		summary.MinMinutes,
		summary.MaxMinutes,
		summary.ProviderCount,
		summary.DemandAreaCount,
	)
	if err != nil {
		return fmt.Errorf("save summary: insert run %q: %w", summary.RunID, err)
	}
	return nil
}

func (s *SQLMatrixStore) SaveReport(ctx context.Context, report domain.ValidationReport) error {
	if s.DB == nil {
		return errors.New("matrix store: db is nil")
	}

	data, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("save report: marshal run %q: %w", report.RunID, err)
	}

	_, err = s.DB.ExecContext(ctx, `
	INSERT INTO validation_report (run_id, report)
	VALUES ($1, $2)
	ON CONFLICT (run_id) DO NOTHING;
	`, report.RunID, string(data))
	if err != nil {
		return fmt.Errorf("save report: insert run %q: %w", report.RunID, err)
	}
	return nil
}
