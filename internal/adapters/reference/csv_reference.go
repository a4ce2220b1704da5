package reference

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"travel-matrix-service/internal/adapters/gazetteer"
	"travel-matrix-service/internal/domain"
)

// Authoritative travel-time dataset loaded from a CSV of
// {origin_zip, destination_zip, travel_time_minutes} rows.
type CSVReference struct {
	times map[string]float64
}

var (
	originColumns  = []string{"origin_zip", "origin"}
	destColumns    = []string{"destination_zip", "dest_zip", "destination"}
	minutesColumns = []string{"travel_time_minutes", "travel_minutes", "drive_minutes"}
)

// Load the reference dataset. Fails with domain.ErrMissingSource when the
// file is absent and domain.ErrSchema when the required columns are not
// recognizable.
func LoadCSV(path string) (*CSVReference, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("load reference: %q: %w", path, domain.ErrMissingSource)
		}
		return nil, fmt.Errorf("load reference: open %q: %w", path, err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("load reference: read header of %q: %w", path, err)
	}

	originCol, originOK := findColumn(header, originColumns)
	destCol, destOK := findColumn(header, destColumns)
	minCol, minOK := findColumn(header, minutesColumns)
	if !originOK || !destOK || !minOK {
		return nil, fmt.Errorf("load reference: %q lacks origin/destination/minutes columns: %w",
			path, domain.ErrSchema)
	}

	times := make(map[string]float64)
	for {
		rec, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("load reference: read row of %q: %w", path, err)
		}
		if len(rec) <= originCol || len(rec) <= destCol || len(rec) <= minCol {
			continue
		}
		minutes, err := strconv.ParseFloat(strings.TrimSpace(rec[minCol]), 64)
		if err != nil {
			continue
		}
		origin := gazetteer.NormalizeZip(rec[originCol])
		dest := gazetteer.NormalizeZip(rec[destCol])
		times[origin+"|"+dest] = minutes
	}

	return &CSVReference{times: times}, nil
}

func (r *CSVReference) Lookup(ctx context.Context, originZip, destZip string) (float64, bool, error) {
	minutes, ok := r.times[gazetteer.NormalizeZip(originZip)+"|"+gazetteer.NormalizeZip(destZip)]
	return minutes, ok, nil
}

func (r *CSVReference) LookupMany(ctx context.Context, originZip string, destZips []string) (map[string]float64, error) {
	out := make(map[string]float64, len(destZips))
	for _, dest := range destZips {
		if minutes, ok, _ := r.Lookup(ctx, originZip, dest); ok {
			out[dest] = minutes
		}
	}
	return out, nil
}

// Number of known pairs.
func (r *CSVReference) Len() int { return len(r.times) }

func findColumn(header []string, candidates []string) (int, bool) {
	index := make(map[string]int, len(header))
	for i, h := range header {
		index[strings.ToLower(strings.TrimSpace(h))] = i
	}
	for _, c := range candidates {
		if i, ok := index[c]; ok {
			return i, true
		}
	}
	return 0, false
}
