// Command cli executes one validation pipeline run from the command line and
// prints the decision report as markdown.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"

	"relpi/adapters/excel"
	"relpi/adapters/postgres"
	"relpi/adapters/rng"
	"relpi/app"
	"relpi/internal"
	"relpi/internal/config"
	reportasm "relpi/internal/report"
	"relpi/internal/testkit"
	"relpi/ports"
)

func main() {
	demo := flag.Bool("demo", false, "run against a synthetic demo dataset instead of DATASET_FILE")
	demoSize := flag.Int("demo-size", 200, "observations per synthetic metric in demo mode")
	flag.Parse()

	godotenv.Load()
	log := internal.DefaultLogger

	cfg, err := config.Load()
	if err != nil {
		log.Error("config: %v", err)
		os.Exit(1)
	}

	var dataset ports.DatasetPort
	switch {
	case *demo:
		dataset = testkit.NewDataset(cfg.Pipeline.RandomSeed, testkit.DemoSpecs(*demoSize))
	case cfg.Paths.DatasetFile != "":
		dataset = excel.NewDatasetReader(cfg.Paths.DatasetFile, log)
	default:
		log.Error("no dataset: set DATASET_FILE or pass -demo")
		os.Exit(1)
	}

	var repo ports.RunRepositoryPort
	if cfg.Database.URL != "" {
		db, err := sqlx.Connect("postgres", cfg.Database.URL)
		if err != nil {
			log.Error("database: %v", err)
			os.Exit(1)
		}
		defer db.Close()
		repo = postgres.NewRunRepository(db)
	}

	writer := excel.NewReportWriter(cfg.Paths.ReportDir, log)
	service := app.NewPipelineService(cfg.Pipeline, dataset, rng.NewAdapter(), repo, writer, log)

	summary, err := service.Execute(context.Background())
	if err != nil {
		log.Error("pipeline: %v", err)
		os.Exit(1)
	}

	fmt.Print(reportasm.RenderMarkdown(summary))
}
