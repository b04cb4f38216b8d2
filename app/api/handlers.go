package api

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/feedhaus/storyvec/app/database"
	"github.com/feedhaus/storyvec/app/ingest"
)

func NewHandler(orchestrator OrchestratorInterface, sourceRepo database.SourceRepository,
	storyRepo database.StoryRepository, cacheRepo database.EmbeddingCacheRepository,
	version string) *Handler {
	return &Handler{
		orchestrator: orchestrator,
		sourceRepo:   sourceRepo,
		storyRepo:    storyRepo,
		cacheRepo:    cacheRepo,
		version:      version,
	}
}

// TriggerIngest starts an ingestion run and relays its result. The run
// executes synchronously; external schedulers rely on the response to decide
// whether to alert.
func (h *Handler) TriggerIngest(c *gin.Context) {
	result, err := h.orchestrator.Run(c.Request.Context())
	if err != nil {
		if errors.Is(err, ingest.ErrRunInProgress) {
			c.JSON(http.StatusConflict, gin.H{"error": "ingestion run already in progress"})
			return
		}
		slog.Error("Ingestion run failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, result)
}

func (h *Handler) GetHealth(c *gin.Context) {
	health := map[string]interface{}{
		"timestamp": time.Now().In(time.Local).Format(time.RFC3339),
		"version":   h.version,
		"running":   h.orchestrator.Running(),
	}

	if sourceCount, err := h.sourceRepo.GetSourceCount(); err == nil {
		health["sources"] = sourceCount
	}

	c.JSON(http.StatusOK, health)
}

func (h *Handler) GetStats(c *gin.Context) {
	stats := map[string]interface{}{
		"running": h.orchestrator.Running(),
	}

	if storyCount, err := h.storyRepo.GetStoryCount(); err == nil {
		stats["stories"] = storyCount
	} else {
		slog.Error("Database error", "operation", "get_story_count", "error", err)
	}

	if cacheCount, err := h.cacheRepo.GetCacheCount(); err == nil {
		stats["cache_entries"] = cacheCount
	}

	if last := h.orchestrator.LastResult(); last != nil {
		stats["last_run"] = last
	}

	c.JSON(http.StatusOK, stats)
}
