package gazetteer

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"travel-matrix-service/internal/domain"
)

// In-memory ZIP-to-centroid store loaded from a gazetteer file. Load-once;
// read-only thereafter. Exactly one entry per ZIP code (last row wins on
// duplicate codes, matching the source file's own ordering).
type CSVStore struct {
	coordinates map[string]domain.Coordinates
}

// Recognized column triples, checked in order. Census Gazetteer files are
// tab-delimited with ZCTA5 or GEOID headers; simple exports use zip/lat/lon.
var columnTriples = [][3]string{
	{"ZCTA5", "INTPTLAT", "INTPTLONG"},
	{"GEOID", "INTPTLAT", "INTPTLONG"},
	{"zip", "lat", "lon"},
}

// Load parses a centroid file into the store. The delimiter is sniffed from
// the header line (tab or comma). Fails with domain.ErrMissingSource when
// the file is absent and domain.ErrSchema when none of the recognized
// column triples are present.
func Load(path string) (*CSVStore, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("load gazetteer: %q: %w", path, domain.ErrMissingSource)
		}
		return nil, fmt.Errorf("load gazetteer: open %q: %w", path, err)
	}
	defer f.Close()

	return parse(f, path)
}

func parse(r io.Reader, path string) (*CSVStore, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("load gazetteer: read %q: %w", path, err)
	}

	reader := csv.NewReader(strings.NewReader(string(data)))
	if i := strings.IndexByte(string(data), '\n'); i > 0 && strings.Contains(string(data[:i]), "\t") {
		reader.Comma = '\t'
	}
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("load gazetteer: read header of %q: %w", path, err)
	}
	for i := range header {
		header[i] = strings.TrimSpace(header[i])
	}

	zipCol, latCol, lonCol, ok := matchColumns(header)
	if !ok {
		return nil, fmt.Errorf("load gazetteer: %q has no recognized zip/lat/lon column triple: %w",
			path, domain.ErrSchema)
	}

	coords := make(map[string]domain.Coordinates)
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("load gazetteer: read row of %q: %w", path, err)
		}
		if len(record) <= zipCol || len(record) <= latCol || len(record) <= lonCol {
			continue
		}

		lat, latErr := strconv.ParseFloat(strings.TrimSpace(record[latCol]), 64)
		lon, lonErr := strconv.ParseFloat(strings.TrimSpace(record[lonCol]), 64)
		if latErr != nil || lonErr != nil {
			continue
		}
		coords[NormalizeZip(record[zipCol])] = domain.Coordinates{Lat: lat, Lon: lon}
	}

	if len(coords) == 0 {
		return nil, fmt.Errorf("load gazetteer: %q contains no centroid rows: %w", path, domain.ErrSchema)
	}
	return &CSVStore{coordinates: coords}, nil
}

func matchColumns(header []string) (zip, lat, lon int, ok bool) {
	index := make(map[string]int, len(header))
	for i, h := range header {
		index[strings.ToLower(h)] = i
	}
	for _, triple := range columnTriples {
		z, zOK := index[strings.ToLower(triple[0])]
		la, laOK := index[strings.ToLower(triple[1])]
		lo, loOK := index[strings.ToLower(triple[2])]
		if zOK && laOK && loOK {
			return z, la, lo, true
		}
	}
	return 0, 0, 0, false
}

// Get returns the centroid for a ZIP code, zero-padded to five digits.
// A miss is never an error.
func (s *CSVStore) Get(zipCode string) (domain.Coordinates, bool) {
	c, ok := s.coordinates[NormalizeZip(zipCode)]
	return c, ok
}

// BatchGet returns only the subset of codes that resolved; misses are
// silently dropped. Callers must treat the returned set as ground truth.
func (s *CSVStore) BatchGet(zipCodes []string) map[string]domain.Coordinates {
	out := make(map[string]domain.Coordinates, len(zipCodes))
	for _, zip := range zipCodes {
		if c, ok := s.Get(zip); ok {
			out[zip] = c
		}
	}
	return out
}

// Number of loaded centroids.
func (s *CSVStore) Len() int { return len(s.coordinates) }

// NormalizeZip reduces a raw ZIP value to its 5-digit form: non-digits are
// stripped, short codes zero-padded, ZIP+4 truncated.
func NormalizeZip(raw string) string {
	var digits strings.Builder
	for _, r := range strings.TrimSpace(raw) {
		if r >= '0' && r <= '9' {
			digits.WriteRune(r)
		}
	}
	zip := digits.String()
	for len(zip) < 5 {
		zip = "0" + zip
	}
	return zip[:5]
}
