// Command api serves the pipeline over HTTP. The public JSON API listens on
// PORT; health and pprof endpoints listen separately on OPS_PORT.
package main

import (
	"net/http"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"

	"relpi/adapters/api"
	"relpi/adapters/excel"
	"relpi/adapters/postgres"
	"relpi/adapters/rng"
	"relpi/app"
	"relpi/internal"
	"relpi/internal/config"
	"relpi/internal/testkit"
	"relpi/ports"
)

func main() {
	godotenv.Load()
	log := internal.DefaultLogger

	cfg, err := config.Load()
	if err != nil {
		log.Error("config: %v", err)
		os.Exit(1)
	}
	gin.SetMode(cfg.Server.GinMode)

	var dataset ports.DatasetPort
	if cfg.Paths.DatasetFile != "" {
		dataset = excel.NewDatasetReader(cfg.Paths.DatasetFile, log)
	} else {
		log.Warn("DATASET_FILE not set, serving the synthetic demo dataset")
		dataset = testkit.NewDataset(cfg.Pipeline.RandomSeed, testkit.DemoSpecs(200))
	}

	var db *sqlx.DB
	var repo ports.RunRepositoryPort
	if cfg.Database.URL != "" {
		db, err = sqlx.Connect("postgres", cfg.Database.URL)
		if err != nil {
			log.Error("database: %v", err)
			os.Exit(1)
		}
		defer db.Close()
		repo = postgres.NewRunRepository(db)
	} else {
		log.Warn("DATABASE_URL not set, runs will not be persisted")
	}

	writer := excel.NewReportWriter(cfg.Paths.ReportDir, log)
	service := app.NewPipelineService(cfg.Pipeline, dataset, rng.NewAdapter(), repo, writer, log)

	ops := api.NewOpsMux(func() error {
		if db != nil {
			return db.Ping()
		}
		return nil
	})
	go func() {
		log.Info("ops endpoints listening on :%s", cfg.Server.OpsPort)
		if err := http.ListenAndServe(":"+cfg.Server.OpsPort, ops); err != nil {
			log.Error("ops server: %v", err)
		}
	}()

	server := api.NewServer(service, repo, log)
	if err := server.Start(":" + cfg.Server.Port); err != nil {
		log.Error("api server: %v", err)
		os.Exit(1)
	}
}
