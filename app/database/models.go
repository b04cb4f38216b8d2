package database

import (
	"time"
)

// Story represents a persisted story record. Optional fields are pointers so
// a record with only required fields round-trips as NULL columns.
type Story struct {
	ID          int64
	ExternalID  string
	SourceID    int64
	Title       string
	URL         string
	Author      *string
	PublishedAt *time.Time
	Summary     *string
	Content     *string
	Embedding   []float32
	Metadata    map[string]any
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Operation classifies the outcome of an upsert. Informational only; callers
// must not gate correctness on it.
type Operation string

const (
	OperationInsert Operation = "insert"
	OperationUpdate Operation = "update"
)

// CacheEntry is one row of the content-addressed embedding cache
type CacheEntry struct {
	ContentHash string
	Embedding   []float32
	ModelName   string
	CreatedAt   time.Time
	ExpiresAt   time.Time
	AccessCount int64
}
