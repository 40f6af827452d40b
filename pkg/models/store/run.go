package store

import "time"

type PipelineRun struct {
	ID          string
	Status      string
	StartedAt   time.Time
	FinishedAt  time.Time
	FailedStage *string
	Error       *string
	// Stages is the JSON encoded list of stage reports.
	Stages string
}
