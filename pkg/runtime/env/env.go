package env

import (
	"database/sql"
	"fmt"

	"github.com/de-tools/clickstream-atlas/pkg/config"
	"github.com/de-tools/clickstream-atlas/pkg/services/analytics"
	"github.com/de-tools/clickstream-atlas/pkg/store/duckdb"
	"github.com/de-tools/clickstream-atlas/pkg/store/duckdb/runs"
	"github.com/de-tools/clickstream-atlas/pkg/store/duckdb/snapshot"
)

// Env holds the configuration and open stores shared by every command.
type Env struct {
	Config    *config.Config
	DB        *sql.DB
	Snapshots snapshot.Store
	Runs      runs.Store
}

// Loader builds an Env; commands call it lazily so that --help works
// without a database.
type Loader func() (*Env, error)

func Open(cfg *config.Config) (*Env, error) {
	db, err := duckdb.NewDB(duckdb.Settings{DbPath: cfg.DuckDB.Path})
	if err != nil {
		return nil, fmt.Errorf("failed to create DuckDB instance: %w", err)
	}

	snapshots, err := snapshot.NewStore(db)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create snapshot store: %w", err)
	}
	runStore, err := runs.NewStore(db)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create run store: %w", err)
	}

	return &Env{Config: cfg, DB: db, Snapshots: snapshots, Runs: runStore}, nil
}

func (e *Env) Analytics() (analytics.Service, error) {
	return analytics.NewService(e.Snapshots, e.Runs, analytics.Settings{
		CategorySummaryPath: e.Config.Paths.CategorySummary,
		CohortTablePath:     e.Config.Paths.CohortTable,
		Alpha:               e.Config.Experiment.Alpha,
		TopCategories:       e.Config.Report.TopCategories,
	})
}

func (e *Env) Close() error {
	return e.DB.Close()
}
