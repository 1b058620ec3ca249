// Package postgres persists pipeline runs. Decision records are stored as
// JSONB alongside the queryable run-level columns.
package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/jmoiron/sqlx"

	"relpi/domain/core"
	"relpi/domain/report"
	"relpi/internal/errors"
	"relpi/ports"
)

// RunRepository implements ports.RunRepositoryPort for PostgreSQL
type RunRepository struct {
	db *sqlx.DB
}

// NewRunRepository creates a PostgreSQL run repository
func NewRunRepository(db *sqlx.DB) *RunRepository {
	return &RunRepository{db: db}
}

// Schema is the migration applied by cmd/migrate
const Schema = `
CREATE TABLE IF NOT EXISTS pipeline_runs (
	id                TEXT PRIMARY KEY,
	started_at        TIMESTAMPTZ NOT NULL,
	finished_at       TIMESTAMPTZ NOT NULL,
	seed              BIGINT NOT NULL,
	metrics_ingested  INT NOT NULL,
	metrics_compliant INT NOT NULL,
	metrics_rejected  INT NOT NULL,
	axiom_threshold   DOUBLE PRECISION NOT NULL,
	data_quality_flag BOOLEAN NOT NULL,
	eta_decision      TEXT NOT NULL,
	records           JSONB NOT NULL,
	created_at        TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_pipeline_runs_started_at ON pipeline_runs (started_at DESC);
`

type runRow struct {
	ID               string    `db:"id"`
	StartedAt        time.Time `db:"started_at"`
	FinishedAt       time.Time `db:"finished_at"`
	Seed             int64     `db:"seed"`
	MetricsIngested  int       `db:"metrics_ingested"`
	MetricsCompliant int       `db:"metrics_compliant"`
	MetricsRejected  int       `db:"metrics_rejected"`
	AxiomThreshold   float64   `db:"axiom_threshold"`
	DataQualityFlag  bool      `db:"data_quality_flag"`
	EtaDecision      string    `db:"eta_decision"`
	Records          []byte    `db:"records"`
}

// SaveRun upserts one run summary
func (r *RunRepository) SaveRun(ctx context.Context, summary *report.RunSummary) error {
	recordsJSON, err := json.Marshal(summary.Records)
	if err != nil {
		return errors.Wrap(err, "failed to marshal decision records")
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO pipeline_runs (
			id, started_at, finished_at, seed,
			metrics_ingested, metrics_compliant, metrics_rejected,
			axiom_threshold, data_quality_flag, eta_decision, records
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (id) DO UPDATE SET
			finished_at = EXCLUDED.finished_at,
			metrics_ingested = EXCLUDED.metrics_ingested,
			metrics_compliant = EXCLUDED.metrics_compliant,
			metrics_rejected = EXCLUDED.metrics_rejected,
			axiom_threshold = EXCLUDED.axiom_threshold,
			data_quality_flag = EXCLUDED.data_quality_flag,
			eta_decision = EXCLUDED.eta_decision,
			records = EXCLUDED.records`,
		summary.RunID.String(), summary.StartedAt.Time(), summary.FinishedAt.Time(),
		summary.Seed, summary.MetricsIngested, summary.MetricsCompliant,
		summary.MetricsRejected, summary.AxiomThreshold, summary.DataQualityFlag,
		summary.EtaDecision, recordsJSON)
	return errors.Wrap(err, "failed to save run")
}

// GetRun loads one run by ID
func (r *RunRepository) GetRun(ctx context.Context, runID core.RunID) (*report.RunSummary, error) {
	var row runRow
	err := r.db.GetContext(ctx, &row,
		`SELECT id, started_at, finished_at, seed,
		        metrics_ingested, metrics_compliant, metrics_rejected,
		        axiom_threshold, data_quality_flag, eta_decision, records
		 FROM pipeline_runs WHERE id = $1`, runID.String())
	if err == sql.ErrNoRows {
		return nil, errors.NotFound("run not found: " + runID.String())
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to load run")
	}
	return row.toSummary()
}

// ListRuns returns the most recent runs, newest first
func (r *RunRepository) ListRuns(ctx context.Context, limit int) ([]*report.RunSummary, error) {
	if limit <= 0 {
		limit = 20
	}
	var rows []runRow
	err := r.db.SelectContext(ctx, &rows,
		`SELECT id, started_at, finished_at, seed,
		        metrics_ingested, metrics_compliant, metrics_rejected,
		        axiom_threshold, data_quality_flag, eta_decision, records
		 FROM pipeline_runs ORDER BY started_at DESC LIMIT $1`, limit)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list runs")
	}

	summaries := make([]*report.RunSummary, 0, len(rows))
	for _, row := range rows {
		s, err := row.toSummary()
		if err != nil {
			return nil, err
		}
		summaries = append(summaries, s)
	}
	return summaries, nil
}

func (row runRow) toSummary() (*report.RunSummary, error) {
	s := &report.RunSummary{
		RunID:            core.RunID(row.ID),
		StartedAt:        core.NewTimestamp(row.StartedAt),
		FinishedAt:       core.NewTimestamp(row.FinishedAt),
		Seed:             row.Seed,
		MetricsIngested:  row.MetricsIngested,
		MetricsCompliant: row.MetricsCompliant,
		MetricsRejected:  row.MetricsRejected,
		AxiomThreshold:   row.AxiomThreshold,
		DataQualityFlag:  row.DataQualityFlag,
		EtaDecision:      row.EtaDecision,
	}
	if err := json.Unmarshal(row.Records, &s.Records); err != nil {
		return nil, errors.Wrap(err, "failed to unmarshal decision records")
	}
	return s, nil
}

var _ ports.RunRepositoryPort = (*RunRepository)(nil)
