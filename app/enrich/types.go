package enrich

import (
	"github.com/feedhaus/storyvec/app/adapter"
)

// EnrichedItem is a ParsedItem plus the article text recovered for it.
// EmbeddingText is never empty: it degrades to just the title when no content
// could be recovered, which keeps batch positions stable downstream.
type EnrichedItem struct {
	adapter.ParsedItem

	FullContent   string
	EmbeddingText string
}
