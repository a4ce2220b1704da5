package gazetteer

import (
	"os"
	"path/filepath"
	"testing"

	"travel-matrix-service/internal/domain"

	"github.com/stretchr/testify/require"
)

func writeTemp(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadCensusTabDelimited(t *testing.T) {
	path := writeTemp(t, "gazetteer.txt",
		"GEOID\tALAND\tINTPTLAT\tINTPTLONG\n"+
			"90001\t123\t33.9731\t-118.2479\n"+
			"94102\t456\t37.7793\t-122.4193\n")

	s, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, 2, s.Len())

	c, ok := s.Get("90001")
	require.True(t, ok)
	require.InDelta(t, 33.9731, c.Lat, 1e-9)
	require.InDelta(t, -118.2479, c.Lon, 1e-9)
}

func TestLoadZctaHeader(t *testing.T) {
	path := writeTemp(t, "zcta.txt",
		"ZCTA5\tINTPTLAT\tINTPTLONG\n90210\t34.1030\t-118.4105\n")

	s, err := Load(path)
	require.NoError(t, err)

	_, ok := s.Get("90210")
	require.True(t, ok)
}

func TestLoadCommaDelimitedExport(t *testing.T) {
	path := writeTemp(t, "centroids.csv",
		"zip,lat,lon\n00501,40.8154,-73.0451\n90001,33.9731,-118.2479\n")

	s, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, 2, s.Len())

	// Short codes resolve through zero padding.
	c, ok := s.Get("501")
	require.True(t, ok)
	require.InDelta(t, 40.8154, c.Lat, 1e-9)

	// ZIP+4 truncates to the base code.
	_, ok = s.Get("90001-1234")
	require.True(t, ok)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.csv"))
	require.ErrorIs(t, err, domain.ErrMissingSource)
}

func TestLoadUnrecognizedColumns(t *testing.T) {
	path := writeTemp(t, "bad.csv", "postcode,latitude,longitude\n90001,33.9,-118.2\n")
	_, err := Load(path)
	require.ErrorIs(t, err, domain.ErrSchema)
}

func TestLoadNoDataRows(t *testing.T) {
	path := writeTemp(t, "empty.csv", "zip,lat,lon\n")
	_, err := Load(path)
	require.ErrorIs(t, err, domain.ErrSchema)
}

func TestLoadSkipsMalformedRows(t *testing.T) {
	path := writeTemp(t, "mixed.csv",
		"zip,lat,lon\n90001,not-a-number,-118.2\n90210,34.1030,-118.4105\n")

	s, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, 1, s.Len())
}

func TestBatchGetDropsMisses(t *testing.T) {
	path := writeTemp(t, "centroids.csv", "zip,lat,lon\n90001,33.9731,-118.2479\n")
	s, err := Load(path)
	require.NoError(t, err)

	got := s.BatchGet([]string{"90001", "99999"})
	require.Len(t, got, 1)
	require.Contains(t, got, "90001")
	require.NotContains(t, got, "99999")
}

func TestNormalizeZip(t *testing.T) {
	require.Equal(t, "90001", NormalizeZip("90001"))
	require.Equal(t, "90001", NormalizeZip(" 90001 "))
	require.Equal(t, "90001", NormalizeZip("90001-1234"))
	require.Equal(t, "00501", NormalizeZip("501"))
	require.Equal(t, "00000", NormalizeZip(""))
}
