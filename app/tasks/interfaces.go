package tasks

import (
	"context"

	"github.com/feedhaus/storyvec/app/ingest"
)

// TaskSchedulerInterface defines the interface for background task
// scheduling. Used by the main application to manage periodic ingestion runs
// and cache maintenance.
type TaskSchedulerInterface interface {
	Start()
	Stop()
	EnqueueTask(task TaskInterface) error
}

// Runner triggers one ingestion run. Satisfied by ingest.Orchestrator.
type Runner interface {
	Run(ctx context.Context) (*ingest.RunResult, error)
}
