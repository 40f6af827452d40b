package pipeline

import (
	"context"
	"fmt"

	"github.com/de-tools/clickstream-atlas/pkg/adapters"
	"github.com/de-tools/clickstream-atlas/pkg/models/domain"
	"github.com/de-tools/clickstream-atlas/pkg/services/cleaning"
	"github.com/de-tools/clickstream-atlas/pkg/services/funnel"
	"github.com/de-tools/clickstream-atlas/pkg/services/metrics"
	"github.com/de-tools/clickstream-atlas/pkg/store/duckdb/runs"
	"github.com/de-tools/clickstream-atlas/pkg/store/flat"
	"github.com/de-tools/clickstream-atlas/pkg/store/source"
	"github.com/rs/zerolog"
)

// Sink receives the full output of each stage and overwrites its previous
// snapshot.
type Sink interface {
	WriteCleanedEvents(ctx context.Context, events []domain.Event) error
	WriteSessionFunnel(ctx context.Context, sessions []domain.SessionSummary) error
	WriteMetrics(ctx context.Context, tables domain.MetricsTables) error
}

type Dependencies struct {
	Source  source.Opener
	Cleaner cleaning.Cleaner
	Funnel  funnel.Builder
	Metrics metrics.Builder
	Sinks   []Sink
	// Runs is optional; when set every run report is recorded.
	Runs runs.Store
}

type Pipeline struct {
	deps         Dependencies
	orchestrator *Orchestrator
}

func New(deps Dependencies) (*Pipeline, error) {
	if deps.Source == nil {
		return nil, fmt.Errorf("source is required")
	}
	if len(deps.Sinks) == 0 {
		return nil, fmt.Errorf("at least one sink must be provided")
	}
	if deps.Cleaner == nil {
		deps.Cleaner = cleaning.NewCleaner()
	}
	if deps.Funnel == nil {
		deps.Funnel = funnel.NewBuilder()
	}
	if deps.Metrics == nil {
		deps.Metrics = metrics.NewBuilder()
	}
	return &Pipeline{deps: deps, orchestrator: NewOrchestrator()}, nil
}

// Run executes cleaning, funnel building and metrics building in order.
// Every stage recomputes its output in full from the raw source.
func (p *Pipeline) Run(ctx context.Context) (*domain.RunReport, error) {
	var cleaned []domain.Event

	stages := []Stage{
		{
			Name: domain.StageCleaning,
			Run: func(ctx context.Context) error {
				events, err := p.clean(ctx)
				if err != nil {
					return err
				}
				cleaned = events
				return p.each(func(s Sink) error { return s.WriteCleanedEvents(ctx, events) })
			},
		},
		{
			Name: domain.StageFunnelBuilding,
			Run: func(ctx context.Context) error {
				sessions := p.deps.Funnel.Build(ctx, cleaned)
				return p.each(func(s Sink) error { return s.WriteSessionFunnel(ctx, sessions) })
			},
		},
		{
			Name: domain.StageMetricsBuilding,
			Run: func(ctx context.Context) error {
				tables := p.deps.Metrics.Build(ctx, cleaned)
				return p.each(func(s Sink) error { return s.WriteMetrics(ctx, tables) })
			},
		},
	}

	report, runErr := p.orchestrator.Run(ctx, stages)
	p.record(ctx, report)
	return report, runErr
}

func (p *Pipeline) clean(ctx context.Context) ([]domain.Event, error) {
	rc, err := p.deps.Source.Open(ctx)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	raw, err := flat.ReadRawEvents(rc)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", p.deps.Source.Location(), err)
	}

	events, _, err := p.deps.Cleaner.Clean(ctx, raw)
	if err != nil {
		return nil, fmt.Errorf("clean %s: %w", p.deps.Source.Location(), err)
	}
	return events, nil
}

func (p *Pipeline) each(fn func(Sink) error) error {
	for _, s := range p.deps.Sinks {
		if err := fn(s); err != nil {
			return err
		}
	}
	return nil
}

func (p *Pipeline) record(ctx context.Context, report *domain.RunReport) {
	if p.deps.Runs == nil || report == nil {
		return
	}
	run, err := adapters.MapDomainRunReportToStore(report)
	if err != nil {
		zerolog.Ctx(ctx).Warn().Err(err).Msg("failed to encode run report")
		return
	}
	if err := p.deps.Runs.RecordRun(ctx, run); err != nil {
		zerolog.Ctx(ctx).Warn().Err(err).Str("run_id", report.ID).Msg("failed to record run")
	}
}
