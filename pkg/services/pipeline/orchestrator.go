package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/de-tools/clickstream-atlas/pkg/models/domain"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// ErrStageFailed wraps the error of the first stage that did not succeed.
var ErrStageFailed = errors.New("stage failed")

type Stage struct {
	Name domain.StageName
	Run  func(ctx context.Context) error
}

// Orchestrator runs stages strictly in order and stops at the first failure.
// Stages after a failure are reported as skipped and never executed.
type Orchestrator struct {
	now   func() time.Time
	newID func() string
}

func NewOrchestrator() *Orchestrator {
	return &Orchestrator{
		now:   time.Now,
		newID: uuid.NewString,
	}
}

func (o *Orchestrator) Run(ctx context.Context, stages []Stage) (*domain.RunReport, error) {
	report := &domain.RunReport{
		ID:        o.newID(),
		Status:    domain.RunStatusPending,
		StartedAt: o.now(),
		Stages:    make([]domain.StageReport, len(stages)),
	}
	for i, s := range stages {
		report.Stages[i] = domain.StageReport{Name: s.Name, Status: domain.RunStatusPending}
	}

	logger := zerolog.Ctx(ctx).With().Str("run_id", report.ID).Logger()
	ctx = logger.WithContext(ctx)
	logger.Info().Int("stages", len(stages)).Msg("starting pipeline")

	var runErr error
	for i, s := range stages {
		if runErr != nil {
			report.Stages[i].Status = domain.RunStatusSkipped
			continue
		}

		stageLogger := logger.With().Str("stage", string(s.Name)).Logger()
		stageLogger.Info().Msg("running stage")

		start := o.now()
		err := s.Run(stageLogger.WithContext(ctx))
		elapsed := o.now().Sub(start)
		report.Stages[i].Duration = elapsed

		if err != nil {
			msg := err.Error()
			report.Stages[i].Status = domain.RunStatusFailed
			report.Stages[i].Error = &msg
			runErr = fmt.Errorf("%w: %s after %s: %w", ErrStageFailed, s.Name, elapsed.Round(time.Millisecond), err)
			stageLogger.Error().Err(err).Dur("elapsed", elapsed).Msg("stage failed")
			continue
		}

		report.Stages[i].Status = domain.RunStatusSucceeded
		stageLogger.Info().Dur("elapsed", elapsed).Msg("stage completed")
	}

	report.FinishedAt = o.now()
	if runErr != nil {
		report.Status = domain.RunStatusFailed
		return report, runErr
	}

	report.Status = domain.RunStatusSucceeded
	logger.Info().Dur("elapsed", report.Elapsed()).Msg("pipeline completed")
	return report, nil
}
