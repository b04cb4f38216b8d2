package tasks

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/feedhaus/storyvec/app/ingest"
)

type IngestRunTask struct {
	Task
	runner Runner
}

func NewIngestRunTask(runner Runner) *IngestRunTask {
	return &IngestRunTask{
		Task:   NewTask(TaskTypeIngestRun),
		runner: runner,
	}
}

func (t *IngestRunTask) Execute(ctx context.Context) error {

	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	result, err := t.runner.Run(ctx)
	if err != nil {
		if errors.Is(err, ingest.ErrRunInProgress) {
			slog.Debug("Skipping scheduled run, previous run still in progress")
			return nil
		}
		return fmt.Errorf("ingestion run failed: %w", err)
	}

	slog.Info("Task completed",
		"type", t.GetType(),
		"duration", t.GetDuration(),
		"success", result.Success,
		"total", result.Stats.TotalItems,
		"successful", result.Stats.Successful,
		"failed", result.Stats.Failed,
		"skipped_existing", result.Stats.SkippedExisting)

	return nil
}
