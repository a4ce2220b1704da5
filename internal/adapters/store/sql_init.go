package store

import (
	"database/sql"
	"errors"
	"fmt"
)

// Initialize the Postgres schema: matrix output tables plus the
// authoritative reference dataset table seeded by dbtool.
func InitPostgresSchema(db *sql.DB) error {
	if db == nil {
		return errors.New("init schema: DB is nil")
	}

	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("init schema: begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	statements := []string{
		`
	CREATE TABLE IF NOT EXISTS travel_matrix (
		demand_zip TEXT NOT NULL,
		provider_id TEXT NOT NULL,
		travel_minutes DOUBLE PRECISION NOT NULL,
		fill_source TEXT NOT NULL,
		PRIMARY KEY (demand_zip, provider_id)
	);
	`,
		`
	CREATE TABLE IF NOT EXISTS matrix_summary (
		run_id TEXT PRIMARY KEY,
		total_pairs BIGINT NOT NULL,
		coverage DOUBLE PRECISION NOT NULL,
		mean_minutes DOUBLE PRECISION NOT NULL,
		median_minutes DOUBLE PRECISION NOT NULL,
		min_minutes DOUBLE PRECISION NOT NULL,
		max_minutes DOUBLE PRECISION NOT NULL,
		providers_count BIGINT NOT NULL,
		demand_areas_count BIGINT NOT NULL
	);
	`,
		`
	CREATE TABLE IF NOT EXISTS validation_report (
		run_id TEXT PRIMARY KEY,
		report TEXT NOT NULL
	);
	`,
		`
	CREATE TABLE IF NOT EXISTS reference_times (
		origin_zip TEXT NOT NULL,
		destination_zip TEXT NOT NULL,
		travel_time_minutes DOUBLE PRECISION NOT NULL,
		PRIMARY KEY (origin_zip, destination_zip)
	);
	`,
		`
	CREATE INDEX IF NOT EXISTS idx_reference_times_destination_origin
	ON reference_times(destination_zip, origin_zip);
	`,
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
