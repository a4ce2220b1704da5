package reference

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"travel-matrix-service/internal/adapters/gazetteer"
	"travel-matrix-service/internal/platform/obs"
)

// Postgres-backed authoritative travel-time dataset, for deployments where
// the reference pairs are loaded once via dbtool and shared across builds.
type SQLReference struct {
	DB *sql.DB
}

func NewSQLReference(db *sql.DB) *SQLReference {
	return &SQLReference{DB: db}
}

func (s *SQLReference) Lookup(ctx context.Context, originZip, destZip string) (float64, bool, error) {
	if s.DB == nil {
		return 0, false, errors.New("reference: db is nil")
	}

	var minutes float64
	err := s.DB.QueryRowContext(ctx, `
	SELECT travel_time_minutes
	FROM reference_times
	WHERE origin_zip = $1
		AND destination_zip = $2;
	`, gazetteer.NormalizeZip(originZip), gazetteer.NormalizeZip(destZip)).Scan(&minutes)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("reference lookup: query reference_times: %w", err)
	}
	return minutes, true, nil
}

// Fetch known times from one origin to many destinations in one round trip.
func (s *SQLReference) LookupMany(
	ctx context.Context,
	originZip string,
	destZips []string,
) (_ map[string]float64, err error) {
	defer obs.Time(ctx, "reference.LookupMany")(&err)

	if s.DB == nil {
		return nil, errors.New("reference: db is nil")
	}
	if len(destZips) == 0 {
		return map[string]float64{}, nil
	}

	seen := map[string]struct{}{}
	uniq := make([]string, 0, len(destZips))
	byNorm := make(map[string][]string, len(destZips))
	for _, d := range destZips {
		norm := gazetteer.NormalizeZip(strings.TrimSpace(d))
		byNorm[norm] = append(byNorm[norm], d)
		if _, ok := seen[norm]; ok {
			continue
		}
		seen[norm] = struct{}{}
		uniq = append(uniq, norm)
	}

	rows, err := s.DB.QueryContext(ctx, `
	SELECT destination_zip, travel_time_minutes
	FROM reference_times
	WHERE origin_zip = $1
		AND destination_zip = ANY($2::text[]);
	`, gazetteer.NormalizeZip(originZip), uniq)
	if err != nil {
		return nil, fmt.Errorf("reference lookup many: query reference_times: %w", err)
	}
	defer rows.Close()

	out := make(map[string]float64, len(uniq))
	for rows.Next() {
		var dest string
		var minutes float64
		if err := rows.Scan(&dest, &minutes); err != nil {
			return nil, fmt.Errorf("reference lookup many: scan rows: %w", err)
		}
		for _, raw := range byNorm[dest] {
			out[raw] = minutes
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reference lookup many: row iteration: %w", err)
	}
	return out, nil
}
