// Package store persists pipeline run history to PostgreSQL.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"bi-training-pipeline/internal/common/errors"
	"bi-training-pipeline/internal/stages/analyze"
)

// Querier is satisfied by *database.PostgresClient.
type Querier interface {
	Exec(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
}

// Logger interface definition
type Logger interface {
	Info(msg string, fields map[string]interface{})
	Warn(msg string, fields map[string]interface{})
	Error(msg string, fields map[string]interface{})
	With(fields map[string]interface{}) Logger
}

const createAnalysisRunsTable = `
CREATE TABLE IF NOT EXISTS analysis_runs (
	id UUID PRIMARY KEY,
	total_examples INTEGER NOT NULL,
	quality_score INTEGER NOT NULL,
	verdict TEXT NOT NULL,
	validity_rate DOUBLE PRECISION NOT NULL,
	complexity_ratio DOUBLE PRECISION NOT NULL,
	issue_count INTEGER NOT NULL,
	report JSONB NOT NULL,
	created_at TIMESTAMPTZ NOT NULL
)`

const insertAnalysisRun = `
INSERT INTO analysis_runs
	(id, total_examples, quality_score, verdict, validity_rate, complexity_ratio, issue_count, report, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

// RunStore writes analysis summaries so score trends survive across runs.
type RunStore struct {
	db     Querier
	logger Logger
}

func NewRunStore(db Querier, log Logger) *RunStore {
	return &RunStore{
		db: db,
		logger: log.With(map[string]interface{}{
			"component": "run-store",
		}),
	}
}

// EnsureSchema creates the analysis_runs table if it does not exist.
func (s *RunStore) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.Exec(ctx, createAnalysisRunsTable); err != nil {
		return errors.NewDatabaseConnectionFailedError(err)
	}
	return nil
}

// SaveAnalysisRun inserts one row per completed analysis. The full report is
// stored as JSONB alongside the scalar columns used for trend queries.
func (s *RunStore) SaveAnalysisRun(ctx context.Context, a *analyze.Analysis) error {
	report, err := json.Marshal(a)
	if err != nil {
		return errors.NewDatabaseInsertFailedError(err)
	}

	runID := uuid.NewString()
	_, err = s.db.Exec(ctx, insertAnalysisRun,
		runID,
		a.TotalExamples,
		a.QualityScore,
		a.Verdict,
		a.OutputQuality.ValidityRate,
		a.ComplexityDistribution.ComplexityRatio,
		len(a.Issues),
		report,
		time.Now().UTC(),
	)
	if err != nil {
		s.logger.Error("failed to insert analysis run", map[string]interface{}{
			"runId": runID,
			"error": err.Error(),
		})
		return errors.NewDatabaseInsertFailedError(err)
	}

	s.logger.Info("analysis run persisted", map[string]interface{}{
		"runId":        runID,
		"qualityScore": a.QualityScore,
	})
	return nil
}
