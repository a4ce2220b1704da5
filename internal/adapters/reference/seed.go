package reference

import (
	"database/sql"
	"fmt"
)

// Iterate all known pairs. Order is unspecified.
func (r *CSVReference) Each(fn func(originZip, destZip string, minutes float64)) {
	for key, minutes := range r.times {
		var origin, dest string
		for i := 0; i < len(key); i++ {
			if key[i] == '|' {
				origin, dest = key[:i], key[i+1:]
				break
			}
		}
		fn(origin, dest, minutes)
	}
}

// Bulk load an authoritative reference CSV into the Postgres
// reference_times table. Used by dbtool; existing pairs are updated.
func SeedPostgres(db *sql.DB, csvPath string) error {
	ref, err := LoadCSV(csvPath)
	if err != nil {
		return fmt.Errorf("seed reference: %w", err)
	}

	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("seed reference: begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.Prepare(`
	INSERT INTO reference_times (origin_zip, destination_zip, travel_time_minutes)
	VALUES ($1, $2, $3)
	ON CONFLICT (origin_zip, destination_zip) DO UPDATE
	SET travel_time_minutes = EXCLUDED.travel_time_minutes;
	`)
	if err != nil {
		return fmt.Errorf("seed reference: prepare insert: %w", err)
	}
	defer stmt.Close()

	var execErr error
	ref.Each(func(origin, dest string, minutes float64) {
		if execErr != nil {
			return
		}
		if _, err := stmt.Exec(origin, dest, minutes); err != nil {
			execErr = fmt.Errorf("seed reference: insert pair %s -> %s: %w", origin, dest, err)
		}
	})
	if execErr != nil {
		return execErr
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("seed reference: commit tx: %w", err)
	}
	return nil
}
