package db

import (
	"database/sql"
	"fmt"
	"time"
)

// Open a Postgres connection pool for the matrix pipeline. The builder
// writes one bulk transaction at a time from a single goroutine, so the
// pool stays small; long-running builds keep a connection for the whole
// run, hence the long lifetime.
func Open(databaseURL string) (*sql.DB, error) {
	db, err := sql.Open("pgx", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("openDB: open postgres database: %w", err)
	}

	db.SetMaxOpenConns(4)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(time.Hour)
	db.SetConnMaxIdleTime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("openDB: verify postgres connection: %w", err)
	}

	return db, nil
}
