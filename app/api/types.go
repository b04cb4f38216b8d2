package api

import (
	"context"

	"github.com/feedhaus/storyvec/app/database"
	"github.com/feedhaus/storyvec/app/ingest"
)

// OrchestratorInterface is the slice of the orchestrator the handlers need
type OrchestratorInterface interface {
	Run(ctx context.Context) (*ingest.RunResult, error)
	LastResult() *ingest.RunResult
	Running() bool
}

var _ OrchestratorInterface = (*ingest.Orchestrator)(nil)

type Handler struct {
	orchestrator OrchestratorInterface
	sourceRepo   database.SourceRepository
	storyRepo    database.StoryRepository
	cacheRepo    database.EmbeddingCacheRepository
	version      string
}
