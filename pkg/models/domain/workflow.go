package domain

import "time"

type StageName string

const (
	StageCleaning        StageName = "cleaning"
	StageFunnelBuilding  StageName = "funnel_building"
	StageMetricsBuilding StageName = "metrics_building"
)

type RunStatus string

const (
	RunStatusPending   RunStatus = "pending"
	RunStatusSucceeded RunStatus = "succeeded"
	RunStatusFailed    RunStatus = "failed"
	RunStatusSkipped   RunStatus = "skipped"
)

type StageReport struct {
	Name     StageName     `json:"name"`
	Status   RunStatus     `json:"status"`
	Duration time.Duration `json:"duration"`
	Error    *string       `json:"error,omitempty"`
}

type RunReport struct {
	ID         string
	Status     RunStatus
	StartedAt  time.Time
	FinishedAt time.Time
	Stages     []StageReport
}

func (r *RunReport) Succeeded() bool {
	return r.Status == RunStatusSucceeded
}

// FailedStage returns the stage that stopped the run, if any.
func (r *RunReport) FailedStage() *StageReport {
	for i := range r.Stages {
		if r.Stages[i].Status == RunStatusFailed {
			return &r.Stages[i]
		}
	}
	return nil
}

func (r *RunReport) Elapsed() time.Duration {
	return r.FinishedAt.Sub(r.StartedAt)
}

// StageLatency summarises how long a stage took over recent runs.
type StageLatency struct {
	Stage StageName
	Runs  int
	P50   time.Duration
	P95   time.Duration
	Max   time.Duration
}
