package adapters

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/de-tools/clickstream-atlas/pkg/models/api"
	"github.com/de-tools/clickstream-atlas/pkg/models/domain"
	"github.com/de-tools/clickstream-atlas/pkg/models/store"
)

func MapDomainRunReportToStore(r *domain.RunReport) (store.PipelineRun, error) {
	stages, err := json.Marshal(r.Stages)
	if err != nil {
		return store.PipelineRun{}, fmt.Errorf("marshal stages: %w", err)
	}

	run := store.PipelineRun{
		ID:         r.ID,
		Status:     string(r.Status),
		StartedAt:  r.StartedAt,
		FinishedAt: r.FinishedAt,
		Stages:     string(stages),
	}
	if failed := r.FailedStage(); failed != nil {
		name := string(failed.Name)
		run.FailedStage = &name
		run.Error = failed.Error
	}
	return run, nil
}

func MapStoreRunToDomain(r store.PipelineRun) (*domain.RunReport, error) {
	var stages []domain.StageReport
	if r.Stages != "" {
		if err := json.Unmarshal([]byte(r.Stages), &stages); err != nil {
			return nil, fmt.Errorf("unmarshal stages of run %s: %w", r.ID, err)
		}
	}
	return &domain.RunReport{
		ID:         r.ID,
		Status:     domain.RunStatus(r.Status),
		StartedAt:  r.StartedAt,
		FinishedAt: r.FinishedAt,
		Stages:     stages,
	}, nil
}

func MapDomainRunReportToAPI(r *domain.RunReport) api.Run {
	run := api.Run{
		ID:         r.ID,
		Status:     string(r.Status),
		StartedAt:  r.StartedAt.UTC().Format(time.RFC3339),
		FinishedAt: r.FinishedAt.UTC().Format(time.RFC3339),
		Stages:     make([]api.Stage, 0, len(r.Stages)),
	}
	for _, s := range r.Stages {
		run.Stages = append(run.Stages, api.Stage{
			Name:       string(s.Name),
			Status:     string(s.Status),
			DurationMs: s.Duration.Milliseconds(),
			Error:      s.Error,
		})
	}
	return run
}

func MapDomainStageLatencyToAPI(rows []domain.StageLatency) []api.StageLatency {
	out := make([]api.StageLatency, 0, len(rows))
	for _, l := range rows {
		out = append(out, api.StageLatency{
			Stage: string(l.Stage),
			Runs:  l.Runs,
			P50Ms: l.P50.Milliseconds(),
			P95Ms: l.P95.Milliseconds(),
			MaxMs: l.Max.Milliseconds(),
		})
	}
	return out
}
