package adapter

import (
	"context"

	"github.com/feedhaus/storyvec/app/catalog"
)

// ParsedItem is one normalized content unit produced by an adapter.
// ExternalID together with the source uniquely identifies a logical content
// unit across runs. Adapters guarantee ExternalID, SourceSlug, Title and URL
// are non-empty and PublishedAt is a valid RFC 3339 timestamp.
type ParsedItem struct {
	ExternalID       string
	SourceSlug       string
	Title            string
	URL              string
	Content          string
	PublishedAt      string
	Author           string
	ImageURL         string
	OriginalMetadata map[string]any
}

// Adapter fetches and parses items for a group of sources sharing one content
// origin. Implementations must never fail the whole call for partial
// failures: they return whatever subset succeeded and log the rest. An empty
// result is always valid.
type Adapter interface {
	ID() string
	FetchAndParse(ctx context.Context, sources []catalog.Source) ([]ParsedItem, error)
}
