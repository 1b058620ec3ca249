// Command migrate applies the database schema.
package main

import (
	"os"

	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"

	"relpi/adapters/postgres"
	"relpi/internal"
)

func main() {
	godotenv.Load()
	log := internal.DefaultLogger

	url := os.Getenv("DATABASE_URL")
	if url == "" {
		log.Error("DATABASE_URL is required")
		os.Exit(1)
	}

	db, err := sqlx.Connect("postgres", url)
	if err != nil {
		log.Error("database: %v", err)
		os.Exit(1)
	}
	defer db.Close()

	if _, err := db.Exec(postgres.Schema); err != nil {
		log.Error("migration failed: %v", err)
		os.Exit(1)
	}
	log.Info("schema applied")
}
