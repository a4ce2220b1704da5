package store

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"travel-matrix-service/internal/domain"
	"travel-matrix-service/internal/platform/obs"
)

// File-based matrix store: the matrix as CSV plus JSON summary and
// validation report, the primary output consumed by the downstream
// access-optimization model.
type FileStore struct {
	Dir string
}

func NewFileStore(dir string) *FileStore {
	return &FileStore{Dir: dir}
}

const (
	matrixFileName  = "travel_matrix.csv"
	summaryFileName = "travel_matrix_summary.json"
	reportFileName  = "travel_matrix_validation_report.json"
)

// Write the matrix as one row per (demand_zip, provider_id) pair.
func (s *FileStore) SaveMatrix(ctx context.Context, m *domain.Matrix) (err error) {
	defer obs.Time(ctx, "store.file.SaveMatrix")(&err)

	if err := os.MkdirAll(s.Dir, 0o755); err != nil {
		return fmt.Errorf("save matrix: create output dir %q: %w", s.Dir, err)
	}

	path := filepath.Join(s.Dir, matrixFileName)
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("save matrix: create %q: %w", path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write([]string{"demand_zip", "provider_id", "travel_minutes", "fill_source"}); err != nil {
		return fmt.Errorf("save matrix: write header: %w", err)
	}

	cols := m.Cols()
	for idx := range m.Minutes {
		row := []string{
			m.DemandZips[idx/cols],
			m.ProviderIDs[idx%cols],
			strconv.FormatFloat(m.Minutes[idx], 'f', 2, 64),
			m.Sources[idx].String(),
		}
		if err := w.Write(row); err != nil {
			return fmt.Errorf("save matrix: write row %d: %w", idx, err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("save matrix: flush %q: %w", path, err)
	}
	return nil
}

func (s *FileStore) SaveSummary(ctx context.Context, summary domain.MatrixSummary) error {
	return s.writeJSON(filepath.Join(s.Dir, summaryFileName), summary)
}

func (s *FileStore) SaveReport(ctx context.Context, report domain.ValidationReport) error {
	return s.writeJSON(filepath.Join(s.Dir, reportFileName), report)
}

func (s *FileStore) writeJSON(path string, v any) error {
	if err := os.MkdirAll(s.Dir, 0o755); err != nil {
		return fmt.Errorf("write json: create output dir %q: %w", s.Dir, err)
	}

	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("write json: marshal for %q: %w", path, err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write json: write %q: %w", path, err)
	}
	return nil
}
