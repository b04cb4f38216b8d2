package ingest

import (
	"log/slog"

	"github.com/feedhaus/storyvec/app/adapter"
	"github.com/feedhaus/storyvec/app/database"
)

// DedupFilter partitions a batch of parsed items into new and already
// persisted, using the story store as the source of truth.
type DedupFilter struct {
	storyRepo database.StoryRepository
}

// NewDedupFilter creates a new deduplication filter
func NewDedupFilter(storyRepo database.StoryRepository) *DedupFilter {
	return &DedupFilter{storyRepo: storyRepo}
}

// Filter returns the items not yet persisted for the source and the number
// of items skipped as existing. All candidate ids are checked with a single
// batched query. A lookup failure fails open: every item is treated as new,
// because reprocessing is cheaper than silently dropping content.
func (f *DedupFilter) Filter(items []adapter.ParsedItem, sourceID int64) ([]adapter.ParsedItem, int) {
	if len(items) == 0 {
		return nil, 0
	}

	externalIDs := make([]string, len(items))
	for i, item := range items {
		externalIDs[i] = item.ExternalID
	}

	existing, err := f.storyRepo.ExistingExternalIDs(sourceID, externalIDs)
	if err != nil {
		slog.Warn("Duplicate check failed, treating all items as new", "source_id", sourceID, "items", len(items), "error", err)
		return items, 0
	}

	newItems := make([]adapter.ParsedItem, 0, len(items))
	existingCount := 0
	for _, item := range items {
		if existing[item.ExternalID] {
			existingCount++
		} else {
			newItems = append(newItems, item)
		}
	}

	return newItems, existingCount
}
