package gazetteer

import (
	"database/sql"
	"fmt"
	"strings"

	"travel-matrix-service/internal/domain"

	"github.com/rs/zerolog/log"
)

// SQLite-backed centroid cache consulted when the gazetteer file misses a
// ZIP code. The core pipeline only reads it; population is the geocoding
// collaborator's job (PutMany is exposed for it and for tooling).
type SqliteCentroidCache struct {
	DB *sql.DB
}

func NewSqliteCentroidCache(db *sql.DB) *SqliteCentroidCache {
	return &SqliteCentroidCache{DB: db}
}

func (s *SqliteCentroidCache) Get(zipCode string) (domain.Coordinates, bool) {
	if s.DB == nil {
		return domain.Coordinates{}, false
	}

	var c domain.Coordinates
	err := s.DB.QueryRow(`
	SELECT lat, lon
	FROM zip_centroids
	WHERE zip = ?;
	`, NormalizeZip(zipCode)).Scan(&c.Lat, &c.Lon)
	if err != nil {
		// A miss or a degraded cache both mean "unresolved" to the caller.
		return domain.Coordinates{}, false
	}
	return c, true
}

func (s *SqliteCentroidCache) BatchGet(zipCodes []string) map[string]domain.Coordinates {
	if s.DB == nil || len(zipCodes) == 0 {
		return map[string]domain.Coordinates{}
	}

	seen := map[string]struct{}{}
	uniq := make([]string, 0, len(zipCodes))
	ph := make([]string, 0, len(zipCodes))
	byNorm := make(map[string][]string, len(zipCodes))
	for _, z := range zipCodes {
		norm := NormalizeZip(z)
		byNorm[norm] = append(byNorm[norm], z)
		if _, ok := seen[norm]; ok {
			continue
		}
		seen[norm] = struct{}{}
		uniq = append(uniq, norm)
		ph = append(ph, "?")
	}

	// SQLite does not support binding slices directly in an IN (...) clause.
	// Only the placeholder structure is interpolated; all values remain parameterized.
	q := fmt.Sprintf(`
	SELECT zip, lat, lon
	FROM zip_centroids
	WHERE zip IN (%s);
	`, strings.Join(ph, ","))

	args := make([]any, 0, len(uniq))
	for _, z := range uniq {
		args = append(args, z)
	}

	rows, err := s.DB.Query(q, args...)
	if err != nil {
		log.Warn().Err(err).Msg("centroid cache query failed; treating all as unresolved")
		return map[string]domain.Coordinates{}
	}
	defer rows.Close()

	out := make(map[string]domain.Coordinates, len(uniq))
	for rows.Next() {
		var zip string
		var c domain.Coordinates
		if err := rows.Scan(&zip, &c.Lat, &c.Lon); err != nil {
			log.Warn().Err(err).Msg("centroid cache scan failed")
			return out
		}
		for _, raw := range byNorm[zip] {
			out[raw] = c
		}
	}
	if err := rows.Err(); err != nil {
		log.Warn().Err(err).Msg("centroid cache row iteration failed")
	}
	return out
}

// Store ZIP -> centroid mappings in the cache.
func (s *SqliteCentroidCache) PutMany(centroids map[string]domain.Coordinates) error {
	if s.DB == nil {
		return fmt.Errorf("centroid cache: db is nil")
	}
	if len(centroids) == 0 {
		return nil
	}

	tx, err := s.DB.Begin()
	if err != nil {
		return fmt.Errorf("insert centroid cache: db begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.Prepare(`
	INSERT OR REPLACE INTO zip_centroids (zip, lat, lon)
	VALUES (?, ?, ?);
	`)
	if err != nil {
		return fmt.Errorf("insert centroid cache: db prepare: %w", err)
	}
	defer stmt.Close()

	for zip, c := range centroids {
		if _, err := stmt.Exec(NormalizeZip(zip), c.Lat, c.Lon); err != nil {
			return fmt.Errorf("insert centroid cache zip=%q: %w", zip, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("insert centroid cache commit: %w", err)
	}
	return nil
}
