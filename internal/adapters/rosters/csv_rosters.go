package rosters

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

// CSV-backed roster source for provider and demand inputs.
type CSVRosters struct {
	ProvidersPath string
	DemandPath    string
}

func NewCSVRosters(providersPath, demandPath string) *CSVRosters {
	return &CSVRosters{ProvidersPath: providersPath, DemandPath: demandPath}
}

var (
	providerIDColumns = []string{"provider_npi", "npi", "provider_id"}
	zipColumns        = []string{"zip_code", "zip"}
	demandColumns     = []string{"demand_score", "demand_weight", "ensemble_demand_score"}
)

// Load the provider roster. Providers are deduplicated by ID keeping first
// occurrence; ZIP codes are reduced to their 5-digit form.
func (r *CSVRosters) ListProviders(ctx context.Context) ([]domain.ProviderLocation, error) {
	records, header, err := readTable(r.ProvidersPath)
	if err != nil {
		return nil, fmt.Errorf("list providers: %w", err)
	}

	idCol, ok := findColumn(header, providerIDColumns)
	if !ok {
		return nil, fmt.Errorf("list providers: %q lacks a provider identifier column: %w",
			r.ProvidersPath, domain.ErrMissingInput)
	}
	zipCol, ok := findColumn(header, zipColumns)
	if !ok {
		return nil, fmt.Errorf("list providers: %q lacks a ZIP column: %w",
			r.ProvidersPath, domain.ErrMissingInput)
	}

	seen := map[string]struct{}{}
	out := make([]domain.ProviderLocation, 0, len(records))
	for _, rec := range records {
		if len(rec) <= idCol || len(rec) <= zipCol {
			continue
		}
		id := strings.TrimSpace(rec[idCol])
		rawZip := strings.TrimSpace(rec[zipCol])
		if id == "" || rawZip == "" {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, domain.ProviderLocation{
			ProviderID: id,
			ZipCode:    gazetteer.NormalizeZip(rawZip),
		})
	}
	return out, nil
}

// Load the demand roster: one row per demand ZIP, deduplicated by ZIP
// keeping first occurrence.
func (r *CSVRosters) ListDemandAreas(ctx context.Context) ([]domain.DemandArea, error) {
	records, header, err := readTable(r.DemandPath)
	if err != nil {
		return nil, fmt.Errorf("list demand areas: %w", err)
	}

	zipCol, ok := findColumn(header, zipColumns)
	if !ok {
		return nil, fmt.Errorf("list demand areas: %q lacks a ZIP column: %w",
			r.DemandPath, domain.ErrMissingInput)
	}
	weightCol, ok := findColumn(header, demandColumns)
	if !ok {
		return nil, fmt.Errorf("list demand areas: %q lacks a demand weight column: %w",
			r.DemandPath, domain.ErrMissingInput)
	}

	seen := map[string]struct{}{}
	out := make([]domain.DemandArea, 0, len(records))
	for i, rec := range records {
		if len(rec) <= zipCol || len(rec) <= weightCol {
			continue
		}
		rawZip := strings.TrimSpace(rec[zipCol])
		if rawZip == "" {
			continue
		}
		zip := gazetteer.NormalizeZip(rawZip)
		if _, dup := seen[zip]; dup {
			continue
		}

		weight, err := strconv.ParseFloat(strings.TrimSpace(rec[weightCol]), 64)
		if err != nil {
			return nil, fmt.Errorf("list demand areas: row %d: parse demand weight %q: %w",
				i+2, rec[weightCol], err)
		}
		seen[zip] = struct{}{}
		out = append(out, domain.DemandArea{ZipCode: zip, DemandWeight: weight})
	}
	return out, nil
}

func readTable(path string) ([][]string, []string, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil, fmt.Errorf("%q: %w", path, domain.ErrMissingInput)
		}
		return nil, nil, fmt.Errorf("open %q: %w", path, err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, nil, fmt.Errorf("read header of %q: %w", path, err)
	}

	records := make([][]string, 0)
	for {
		rec, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, nil, fmt.Errorf("read row of %q: %w", path, err)
		}
		records = append(records, rec)
	}
	return records, header, nil
}

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
