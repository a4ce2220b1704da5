package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"strings"

	"travel-matrix-service/internal/adapters/gazetteer"
	"travel-matrix-service/internal/adapters/reference"
	"travel-matrix-service/internal/adapters/rosters"
	"travel-matrix-service/internal/adapters/store"
	"travel-matrix-service/internal/config"
	"travel-matrix-service/internal/domain"
	"travel-matrix-service/internal/platform/db"
	"travel-matrix-service/internal/platform/obs"
	"travel-matrix-service/internal/ports"
	"travel-matrix-service/internal/services"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	_ "modernc.org/sqlite"
)

// main is the batch composition root. It wires concrete adapters (gazetteer
// CSV, roster CSVs, optional reference dataset, file/SQLite/Postgres stores)
// behind ports and runs one matrix build to completion.
func main() {
	if err := godotenv.Load(); err != nil {
		log.Info().Msg("no .env file found (using environment variables)")
	}
	obs.SetupLogging(config.GetBool("LOG_PRETTY", false))

	gazetteerPath := config.Get("GAZETTEER_PATH", "data/external/uszips_latlon.csv")
	providersPath := config.Get("PROVIDERS_PATH", "data/processed/providers.csv")
	demandPath := config.Get("DEMAND_PATH", "data/processed/demand.csv")
	outputDir := config.Get("OUTPUT_DIR", "data/processed")
	referencePath := config.Get("REFERENCE_PATH", "")
	matrixDBPath := config.Get("MATRIX_DB_PATH", "")
	databaseURL := os.Getenv("DATABASE_URL")

	cfg := buildConfigFromEnv()

	coordStore, err := gazetteer.Load(gazetteerPath)
	if err != nil {
		log.Fatal().Err(err).Msg("gazetteer load failed")
	}
	log.Info().Int("centroids", coordStore.Len()).Str("path", gazetteerPath).
		Msg("loaded ZIP centroid gazetteer")

	var coords ports.CoordinateSource = coordStore
	stores := []ports.MatrixStore{store.NewFileStore(outputDir)}

	if matrixDBPath != "" {
		sqliteDB, err := openSqlite(matrixDBPath)
		if err != nil {
			log.Fatal().Err(err).Msg("sqlite open failed")
		}
		defer sqliteDB.Close()

		// Layer the persistent centroid cache behind the gazetteer file so
		// codes the file misses can still resolve.
		coords = gazetteer.NewChain(coordStore, gazetteer.NewSqliteCentroidCache(sqliteDB))
		stores = append(stores, store.NewSqliteMatrixStore(sqliteDB))
	}

	var pgDB *sql.DB
	if strings.TrimSpace(databaseURL) != "" {
		pgDB, err = db.Open(databaseURL)
		if err != nil {
			log.Fatal().Err(err).Msg("postgres open failed")
		}
		defer pgDB.Close()
		stores = append(stores, store.NewSQLMatrixStore(pgDB))
	}

	var ref ports.ReferenceSource
	switch {
	case referencePath != "":
		csvRef, err := reference.LoadCSV(referencePath)
		if err != nil {
			log.Fatal().Err(err).Msg("reference dataset load failed")
		}
		log.Info().Int("pairs", csvRef.Len()).Str("path", referencePath).
			Msg("loaded authoritative reference dataset")
		ref = csvRef
	case pgDB != nil && config.GetBool("REFERENCE_FROM_DB", false):
		ref = reference.NewSQLReference(pgDB)
	default:
		log.Info().Msg("no authoritative reference dataset configured")
	}

	deps := services.BuildDeps{
		Rosters:   rosters.NewCSVRosters(providersPath, demandPath),
		Coords:    coords,
		Reference: ref,
		Stores:    stores,
	}

	outcome, err := services.BuildMatrix(context.Background(), cfg, deps)
	if err != nil {
		if errors.Is(err, domain.ErrCoverage) {
			log.Fatal().Err(err).Msg("build failed validation; matrix not persisted")
		}
		log.Fatal().Err(err).Msg("matrix build failed")
	}

	log.Info().
		Str("run_id", outcome.Summary.RunID).
		Int("total_pairs", outcome.Summary.TotalPairs).
		Float64("coverage", outcome.Summary.Coverage).
		Float64("mean_minutes", outcome.Summary.MeanMinutes).
		Float64("median_minutes", outcome.Summary.MedianMinutes).
		Int("providers", outcome.Summary.ProviderCount).
		Int("demand_areas", outcome.Summary.DemandAreaCount).
		Int("authoritative", outcome.AuthoritativeFilled).
		Int("computed", outcome.ComputedFilled).
		Int("interpolated", outcome.Interpolation.Changed).
		Msg("matrix build complete")

	for _, rec := range outcome.Report.Recommendations {
		log.Warn().Msg(rec)
	}
}

func buildConfigFromEnv() services.BuildConfig {
	cfg := services.DefaultBuildConfig()
	cfg.MinCoverage = config.GetFloat("MIN_COVERAGE", cfg.MinCoverage)
	cfg.MaxErrorRate = config.GetFloat("MAX_ERROR_RATE", cfg.MaxErrorRate)
	cfg.Seed = config.GetInt64("SEED", 0)

	cfg.Estimator.RoadInflation = config.GetFloat("ROAD_INFLATION", cfg.Estimator.RoadInflation)
	cfg.Estimator.RegionPrefixLo = config.GetInt("REGION_PREFIX_LO", cfg.Estimator.RegionPrefixLo)
	cfg.Estimator.RegionPrefixHi = config.GetInt("REGION_PREFIX_HI", cfg.Estimator.RegionPrefixHi)
	if !config.GetBool("PERTURB", true) {
		cfg.Estimator.PerturbStdDev = 0
	}

	cfg.Interpolation.Strategy = services.InterpolationStrategy(
		config.Get("INTERP_STRATEGY", string(cfg.Interpolation.Strategy)))
	cfg.Interpolation.K = config.GetInt("INTERP_K", cfg.Interpolation.K)
	cfg.Interpolation.RadiusMiles = config.GetFloat("INTERP_RADIUS_MILES", cfg.Interpolation.RadiusMiles)
	cfg.Interpolation.Clusters = config.GetInt("INTERP_CLUSTERS", cfg.Interpolation.Clusters)
	cfg.Interpolation.Trees = config.GetInt("INTERP_TREES", cfg.Interpolation.Trees)
	return cfg
}

func openSqlite(path string) (*sql.DB, error) {
	sqliteDB, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("openDB: open sqlite database %q: %w", path, err)
	}
	if err := sqliteDB.Ping(); err != nil {
		return nil, fmt.Errorf("openDB: verify sqlite connection to %q: %w", path, err)
	}
	if err := store.InitSqliteSchema(sqliteDB); err != nil {
		return nil, err
	}
	return sqliteDB, nil
}
