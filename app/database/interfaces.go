package database

import (
	"github.com/feedhaus/storyvec/app/catalog"
)

// SourceRepository handles registration and lookup of catalog sources
type SourceRepository interface {
	RegisterSource(config catalog.SourceConfig) (int64, error)
	ListActiveSources() ([]catalog.Source, error)
	GetSourceCount() (int, error)
}

// StoryRepository handles persistence of story records
type StoryRepository interface {
	Upsert(story Story) (*Story, Operation, error)
	ExistingExternalIDs(sourceID int64, externalIDs []string) (map[string]bool, error)
	GetStoryCount() (int, error)
}

// EmbeddingCacheRepository handles the content-addressed embedding cache.
// Expired entries are excluded from reads and removed only by DeleteExpired,
// never by the lookup path.
type EmbeddingCacheRepository interface {
	GetBatch(hashes []string) (map[string][]float32, error)
	PutBatch(entries []CacheEntry) error
	TouchAccessed(hashes []string) error
	DeleteExpired() (int64, error)
	GetCacheCount() (int, error)
}
