package store

import (
	"database/sql"
	"errors"
	"fmt"
)

// Initialize the SQLite database schema: the matrix output tables plus the
// supplemental ZIP centroid cache.
func InitSqliteSchema(db *sql.DB) error {
	if db == nil {
		return errors.New("init schema: DB is nil")
	}

	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("init schema: begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	createMatrixQuery := `
	CREATE TABLE IF NOT EXISTS travel_matrix (
		demand_zip TEXT NOT NULL,
		provider_id TEXT NOT NULL,
		travel_minutes REAL NOT NULL,
		fill_source TEXT NOT NULL,
		PRIMARY KEY (demand_zip, provider_id)
	);
	`

	createSummaryQuery := `
	CREATE TABLE IF NOT EXISTS matrix_summary (
		run_id TEXT PRIMARY KEY,
		total_pairs INTEGER NOT NULL,
		coverage REAL NOT NULL,
		mean_minutes REAL NOT NULL,
		median_minutes REAL NOT NULL,
		min_minutes REAL NOT NULL,
		max_minutes REAL NOT NULL,
		providers_count INTEGER NOT NULL,
		demand_areas_count INTEGER NOT NULL
	);
	`

	createReportQuery := `
	CREATE TABLE IF NOT EXISTS validation_report (
		run_id TEXT PRIMARY KEY,
		report TEXT NOT NULL
	);
	`

	createCentroidsQuery := `
	CREATE TABLE IF NOT EXISTS zip_centroids (
		zip TEXT PRIMARY KEY,
		lat REAL NOT NULL,
		lon REAL NOT NULL
	);
	`

	createIndexQuery := `
	CREATE INDEX IF NOT EXISTS idx_travel_matrix_provider_demand
	ON travel_matrix(provider_id, demand_zip);
	`

	statements := []string{
		createMatrixQuery,
		createSummaryQuery,
		createReportQuery,
		createCentroidsQuery,
		createIndexQuery,
	}

	for i, stmt := range statements {
		if _, err := tx.Exec(stmt); err != nil {
			return fmt.Errorf("init schema: exec statement #%d: %w", i+1, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("init schema: commit tx: %w", err)
	}

	return nil
}
