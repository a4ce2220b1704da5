package main

import (
	"database/sql"
	"log"
	"os"
	"strings"

	"travel-matrix-service/internal/adapters/reference"
	"travel-matrix-service/internal/adapters/store"
	"travel-matrix-service/internal/config"
	"travel-matrix-service/internal/platform/db"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/joho/godotenv"
)

// dbtool prepares a shared Postgres deployment: it creates the matrix
// output schema and bulk loads an authoritative reference CSV when one is
// configured.
func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found (using environment variables)")
	}

	databaseURL := os.Getenv("DATABASE_URL")
	if strings.TrimSpace(databaseURL) == "" {
		log.Fatal("DATABASE_URL is required")
	}

	pgDB, err := db.Open(databaseURL)
	if err != nil {
		log.Fatal(err)
	}
	defer pgDB.Close()

	if err := initAndSeed(pgDB, config.Get("REFERENCE_PATH", "")); err != nil {
		log.Fatal(err)
	}
}

func initAndSeed(pgDB *sql.DB, referencePath string) error {
	log.Println("Initializing database schema...")
	if err := store.InitPostgresSchema(pgDB); err != nil {
		return err
	}
	log.Println("Schema ready.")

	if referencePath == "" {
		log.Println("No REFERENCE_PATH set; skipping reference seeding.")
		return nil
	}

	log.Println("Seeding reference dataset...")
	if err := reference.SeedPostgres(pgDB, referencePath); err != nil {
		return err
	}
	log.Println("Seeding complete.")

	return nil
}
