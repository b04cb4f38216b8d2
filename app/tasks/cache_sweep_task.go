package tasks

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/feedhaus/storyvec/app/database"
	"github.com/feedhaus/storyvec/app/metrics"
)

// CacheSweepTask removes expired embedding cache entries. Expiry runs only
// here, keeping deletes off the embedding hot path.
type CacheSweepTask struct {
	Task
	cacheRepo database.EmbeddingCacheRepository
}

func NewCacheSweepTask(cacheRepo database.EmbeddingCacheRepository) *CacheSweepTask {
	return &CacheSweepTask{
		Task:      NewTask(TaskTypeCacheSweep),
		cacheRepo: cacheRepo,
	}
}

func (t *CacheSweepTask) Execute(ctx context.Context) error {

	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	deleted, err := t.cacheRepo.DeleteExpired()
	if err != nil {
		return fmt.Errorf("failed to sweep embedding cache: %w", err)
	}

	metrics.EmbeddingCacheSweptEntries.Add(float64(deleted))

	slog.Info("Task completed",
		"type", t.GetType(),
		"duration", t.GetDuration(),
		"deleted", deleted)

	return nil
}
