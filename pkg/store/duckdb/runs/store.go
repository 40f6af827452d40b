package runs

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/de-tools/clickstream-atlas/pkg/models/store"
	"github.com/rs/zerolog"
)

// Store keeps the history of pipeline runs.
type Store interface {
	RecordRun(ctx context.Context, run store.PipelineRun) error
	ListRuns(ctx context.Context, limit int) ([]store.PipelineRun, error)
}

type defaultStore struct {
	db *sql.DB
}

func NewStore(db *sql.DB) (Store, error) {
	if db == nil {
		return nil, fmt.Errorf("database connection is nil")
	}
	return &defaultStore{
		db: db,
	}, nil
}

func (s *defaultStore) RecordRun(ctx context.Context, run store.PipelineRun) error {
	if run.ID == "" {
		return fmt.Errorf("run id is required")
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO pipeline_runs (id, status, started_at, finished_at, failed_stage, error, stages)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		run.ID,
		run.Status,
		run.StartedAt.UTC(),
		run.FinishedAt.UTC(),
		nullable(run.FailedStage),
		nullable(run.Error),
		run.Stages,
	)
	if err != nil {
		return fmt.Errorf("insert run %s: %w", run.ID, err)
	}
	return nil
}

// ListRuns returns the most recent runs first.
func (s *defaultStore) ListRuns(ctx context.Context, limit int) ([]store.PipelineRun, error) {
	if limit <= 0 {
		limit = 20
	}

	query := fmt.Sprintf(`
		SELECT id, status, started_at, finished_at, failed_stage, error, stages
		FROM pipeline_runs
		ORDER BY started_at DESC
		LIMIT %d`, limit)

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer func(rows *sql.Rows) {
		err := rows.Close()
		if err != nil {
			zerolog.Ctx(ctx).Warn().Err(err).Msg("failed to close run rows")
		}
	}(rows)

	runs := make([]store.PipelineRun, 0)
	for rows.Next() {
		var (
			run         store.PipelineRun
			failedStage sql.NullString
			runErr      sql.NullString
		)
		if err := rows.Scan(
			&run.ID, &run.Status, &run.StartedAt, &run.FinishedAt,
			&failedStage, &runErr, &run.Stages,
		); err != nil {
			return nil, err
		}
		if failedStage.Valid {
			run.FailedStage = &failedStage.String
		}
		if runErr.Valid {
			run.Error = &runErr.String
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

func nullable(s *string) interface{} {
	if s == nil {
		return nil
	}
	return *s
}
