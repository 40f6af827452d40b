package analytics

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/de-tools/clickstream-atlas/pkg/adapters"
	"github.com/de-tools/clickstream-atlas/pkg/models/domain"
	"github.com/de-tools/clickstream-atlas/pkg/services/experiment"
	"github.com/de-tools/clickstream-atlas/pkg/services/insights"
	"github.com/de-tools/clickstream-atlas/pkg/store/duckdb/runs"
	"github.com/de-tools/clickstream-atlas/pkg/store/duckdb/snapshot"
	"github.com/de-tools/clickstream-atlas/pkg/store/flat"
	"github.com/rs/zerolog"
)

// Service answers read-only questions about the latest snapshot.
type Service interface {
	KPIs(ctx context.Context) (domain.ExecutiveKPIs, error)
	Funnel(ctx context.Context) (domain.FunnelCounts, error)
	Monthly(ctx context.Context) ([]domain.MonthlyMetrics, error)
	Brands(ctx context.Context) ([]domain.BrandRevenue, error)
	Summary(ctx context.Context) (domain.SummaryMetrics, error)
	TopCategories(ctx context.Context, limit int) ([]domain.CategorySummary, error)
	Retention(ctx context.Context) (domain.RetentionStats, domain.CohortTable, error)
	Experiment(ctx context.Context, seed uint64) (domain.ExperimentResult, error)
	Runs(ctx context.Context, limit int) ([]*domain.RunReport, error)
	RunLatency(ctx context.Context, limit int) ([]domain.StageLatency, error)
	Report(ctx context.Context) (*domain.Report, error)
}

type Settings struct {
	// CategorySummaryPath and CohortTablePath point at tables produced
	// outside the pipeline. A missing file reads as an empty table.
	CategorySummaryPath string
	CohortTablePath     string
	Alpha               float64
	TopCategories       int
}

type service struct {
	snapshots snapshot.Store
	runs      runs.Store
	settings  Settings
	now       func() time.Time
}

func NewService(snapshots snapshot.Store, runStore runs.Store, settings Settings) (Service, error) {
	if snapshots == nil {
		return nil, fmt.Errorf("snapshot store is nil")
	}
	if runStore == nil {
		return nil, fmt.Errorf("run store is nil")
	}
	return &service{snapshots: snapshots, runs: runStore, settings: settings, now: time.Now}, nil
}

func (s *service) KPIs(ctx context.Context) (domain.ExecutiveKPIs, error) {
	sessions, err := s.snapshots.SessionFunnel(ctx)
	if err != nil {
		return domain.ExecutiveKPIs{}, err
	}
	monthly, err := s.snapshots.MonthlyMetrics(ctx)
	if err != nil {
		return domain.ExecutiveKPIs{}, err
	}
	return insights.ExecutiveKPIs(sessions, monthly), nil
}

func (s *service) Funnel(ctx context.Context) (domain.FunnelCounts, error) {
	sessions, err := s.snapshots.SessionFunnel(ctx)
	if err != nil {
		return domain.FunnelCounts{}, err
	}
	return insights.Funnel(sessions), nil
}

func (s *service) Monthly(ctx context.Context) ([]domain.MonthlyMetrics, error) {
	return s.snapshots.MonthlyMetrics(ctx)
}

func (s *service) Brands(ctx context.Context) ([]domain.BrandRevenue, error) {
	return s.snapshots.BrandRevenue(ctx)
}

func (s *service) Summary(ctx context.Context) (domain.SummaryMetrics, error) {
	return s.snapshots.SummaryMetrics(ctx)
}

func (s *service) TopCategories(ctx context.Context, limit int) ([]domain.CategorySummary, error) {
	categories, err := s.categories(ctx)
	if err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = s.settings.TopCategories
	}
	return insights.TopCategories(categories, limit), nil
}

func (s *service) Retention(ctx context.Context) (domain.RetentionStats, domain.CohortTable, error) {
	sessions, err := s.snapshots.SessionFunnel(ctx)
	if err != nil {
		return domain.RetentionStats{}, domain.CohortTable{}, err
	}
	cohorts, err := s.cohorts(ctx)
	if err != nil {
		return domain.RetentionStats{}, domain.CohortTable{}, err
	}
	return insights.Retention(sessions), insights.RoundCohort(cohorts), nil
}

func (s *service) Experiment(ctx context.Context, seed uint64) (domain.ExperimentResult, error) {
	sessions, err := s.snapshots.SessionFunnel(ctx)
	if err != nil {
		return domain.ExperimentResult{}, err
	}
	evaluator := experiment.NewEvaluator(experiment.Settings{Alpha: s.settings.Alpha, Seed: seed})
	return evaluator.Evaluate(ctx, sessions)
}

func (s *service) Runs(ctx context.Context, limit int) ([]*domain.RunReport, error) {
	stored, err := s.runs.ListRuns(ctx, limit)
	if err != nil {
		return nil, err
	}

	reports := make([]*domain.RunReport, 0, len(stored))
	for _, r := range stored {
		report, err := adapters.MapStoreRunToDomain(r)
		if err != nil {
			return nil, err
		}
		reports = append(reports, report)
	}
	return reports, nil
}

func (s *service) RunLatency(ctx context.Context, limit int) ([]domain.StageLatency, error) {
	reports, err := s.Runs(ctx, limit)
	if err != nil {
		return nil, err
	}
	return insights.StageLatency(reports), nil
}

func (s *service) Report(ctx context.Context) (*domain.Report, error) {
	var (
		in  = insights.Input{TopN: s.settings.TopCategories}
		err error
	)

	if in.Sessions, err = s.snapshots.SessionFunnel(ctx); err != nil {
		return nil, err
	}
	if in.Monthly, err = s.snapshots.MonthlyMetrics(ctx); err != nil {
		return nil, err
	}
	if in.Brands, err = s.snapshots.BrandRevenue(ctx); err != nil {
		return nil, err
	}
	if in.Summary, err = s.snapshots.SummaryMetrics(ctx); err != nil {
		return nil, err
	}
	if in.Categories, err = s.categories(ctx); err != nil {
		return nil, err
	}

	cohorts, err := s.cohorts(ctx)
	if err != nil {
		return nil, err
	}
	if len(cohorts.Rows) > 0 {
		in.Cohorts = &cohorts
	}

	return insights.BuildReport(in, s.now()), nil
}

func (s *service) categories(ctx context.Context) ([]domain.CategorySummary, error) {
	if s.settings.CategorySummaryPath == "" {
		return nil, nil
	}
	categories, err := flat.ReadCategorySummaryFile(s.settings.CategorySummaryPath)
	if errors.Is(err, fs.ErrNotExist) {
		zerolog.Ctx(ctx).Warn().Str("path", s.settings.CategorySummaryPath).Msg("category summary not found")
		return nil, nil
	}
	return categories, err
}

func (s *service) cohorts(ctx context.Context) (domain.CohortTable, error) {
	if s.settings.CohortTablePath == "" {
		return domain.CohortTable{}, nil
	}
	table, err := flat.ReadCohortTableFile(s.settings.CohortTablePath)
	if errors.Is(err, fs.ErrNotExist) {
		zerolog.Ctx(ctx).Warn().Str("path", s.settings.CohortTablePath).Msg("cohort table not found")
		return domain.CohortTable{}, nil
	}
	return table, err
}
