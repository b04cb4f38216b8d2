package ingest

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/feedhaus/storyvec/app/adapter"
	"github.com/feedhaus/storyvec/app/catalog"
	"github.com/feedhaus/storyvec/app/database"
	"github.com/feedhaus/storyvec/app/embedding"
	"github.com/feedhaus/storyvec/app/enrich"
)

// BatchState tracks where a batch is in its lifecycle
type BatchState string

const (
	BatchStatePending    BatchState = "pending"
	BatchStateEnriching  BatchState = "enriching"
	BatchStateEmbedding  BatchState = "embedding"
	BatchStatePersisting BatchState = "persisting"
	BatchStateDone       BatchState = "done"
	BatchStateFailed     BatchState = "failed"
)

// Enricher recovers article content for one item; it never fails the item
type Enricher interface {
	Enrich(ctx context.Context, item adapter.ParsedItem) enrich.EnrichedItem
}

// Embedder resolves a batch of texts to embeddings, positionally
type Embedder interface {
	EmbedBatch(ctx context.Context, texts []string) (*embedding.BatchResult, error)
}

// BatchOutcome summarizes one batch after all retry attempts
type BatchOutcome struct {
	State     BatchState
	Succeeded int
	Failed    int
	Attempts  int
	Err       error
}

// BatchProcessor runs one batch through enrich, embed and persist. The whole
// sequence is one retry unit: a transient embedding failure invalidates the
// enriched state, and re-running the sequence is simpler and safer than
// resuming mid-batch. Each item's upsert is its own atomic unit, so items
// persisted during an earlier attempt are simply upserted again.
type BatchProcessor struct {
	enricher  Enricher
	embedder  Embedder
	storyRepo database.StoryRepository
	retry     RetryPolicy
}

// NewBatchProcessor creates a new batch processor
func NewBatchProcessor(enricher Enricher, embedder Embedder, storyRepo database.StoryRepository, maxAttempts int) *BatchProcessor {
	retry := NewRetryPolicy(maxAttempts)
	retry.NonRetryable = func(err error) bool {
		return errors.Is(err, embedding.ErrNoTextsProvided)
	}

	return &BatchProcessor{
		enricher:  enricher,
		embedder:  embedder,
		storyRepo: storyRepo,
		retry:     retry,
	}
}

// Process executes the batch state machine for one slice of new items.
// Retries exhausted means every item in the batch counts as failed; a
// persistence error fails only the affected item.
func (p *BatchProcessor) Process(ctx context.Context, source catalog.Source, items []adapter.ParsedItem) BatchOutcome {
	state := BatchStatePending
	var succeeded, failedItems int

	result := p.retry.Execute(ctx, func(ctx context.Context) error {
		succeeded, failedItems = 0, 0

		state = BatchStateEnriching
		enrichedItems := make([]enrich.EnrichedItem, len(items))
		texts := make([]string, len(items))
		for i, item := range items {
			enrichedItems[i] = p.enricher.Enrich(ctx, item)
			texts[i] = enrichedItems[i].EmbeddingText
		}

		state = BatchStateEmbedding
		batchResult, err := p.embedder.EmbedBatch(ctx, texts)
		if err != nil {
			return err
		}

		state = BatchStatePersisting
		for i, enriched := range enrichedItems {
			story := buildStory(source, enriched, batchResult.Embeddings[i])

			stored, operation, err := p.storyRepo.Upsert(story)
			if err != nil {
				slog.Error("Failed to persist story", "source", source.Slug, "external_id", enriched.ExternalID, "error", err)
				failedItems++
				continue
			}

			slog.Debug("Story persisted", "source", source.Slug, "external_id", enriched.ExternalID, "operation", string(operation), "story_id", stored.ID)
			succeeded++
		}

		return nil
	})

	if result.Err != nil {
		state = BatchStateFailed
		slog.Error("Batch failed after retries", "source", source.Slug, "items", len(items), "attempts", result.Attempts, "error", result.Err)
		return BatchOutcome{
			State:    state,
			Failed:   len(items),
			Attempts: result.Attempts,
			Err:      result.Err,
		}
	}

	state = BatchStateDone
	return BatchOutcome{
		State:     state,
		Succeeded: succeeded,
		Failed:    failedItems,
		Attempts:  result.Attempts,
	}
}

// buildStory maps an enriched item onto the persisted record shape
func buildStory(source catalog.Source, item enrich.EnrichedItem, vector []float32) database.Story {
	story := database.Story{
		ExternalID: item.ExternalID,
		SourceID:   source.ID,
		Title:      item.Title,
		URL:        item.URL,
		Embedding:  vector,
		Metadata:   item.OriginalMetadata,
	}

	if item.Author != "" {
		story.Author = &item.Author
	}

	if publishedAt, err := time.Parse(time.RFC3339, item.PublishedAt); err == nil {
		publishedAt = publishedAt.UTC()
		story.PublishedAt = &publishedAt
	}

	if item.FullContent != "" {
		story.Content = &item.FullContent
	}

	if description, ok := item.OriginalMetadata["description"].(string); ok && description != "" {
		story.Summary = &description
	}

	return story
}
