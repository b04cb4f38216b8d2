package enrich

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	readability "codeberg.org/readeck/go-readability"

	"github.com/feedhaus/storyvec/app/adapter"
)

// Titles shorter than this are replaced by the extracted article title
const minTitleLength = 5

// Metadata fields probed by the fallback chain, in order
var fallbackMetadataKeys = []string{"description", "summary", "snippet"}

// Enricher recovers full article text for items whose feed entry carried
// little or no body. Enrichment is best-effort: every failure degrades to
// less content, never to a failed item.
type Enricher struct {
	httpClient        *http.Client
	userAgent         string
	fetchTimeout      time.Duration
	minContentLength  int
	minFallbackLength int
}

// NewEnricher creates a new content enricher
func NewEnricher(httpClient *http.Client, userAgent string, fetchTimeout time.Duration, minContentLength, minFallbackLength int) *Enricher {
	return &Enricher{
		httpClient:        httpClient,
		userAgent:         userAgent,
		fetchTimeout:      fetchTimeout,
		minContentLength:  minContentLength,
		minFallbackLength: minFallbackLength,
	}
}

// Enrich produces the EnrichedItem for one parsed item. Items that already
// carry substantial content skip network enrichment entirely: fetching and
// extracting cost two outbound calls per item, so the short-circuit is a cost
// control, not just an optimization.
func (e *Enricher) Enrich(ctx context.Context, item adapter.ParsedItem) EnrichedItem {
	enriched := EnrichedItem{ParsedItem: item}

	existing := strings.TrimSpace(item.Content)
	if len(existing) >= e.minContentLength {
		enriched.FullContent = existing
		enriched.EmbeddingText = buildEmbeddingText(enriched.Title, enriched.FullContent)
		return enriched
	}

	content, extractedTitle, err := e.extractArticle(ctx, item.URL)
	if err != nil {
		slog.Debug("Article extraction failed, trying metadata fallback", "url", item.URL, "error", err)
	}

	if content != "" {
		enriched.FullContent = content
		if len(strings.TrimSpace(enriched.Title)) < minTitleLength && extractedTitle != "" {
			enriched.Title = extractedTitle
		}
	} else {
		enriched.FullContent = e.metadataFallback(item)
	}

	if enriched.FullContent == "" && existing != "" {
		// Short feed content beats nothing at all
		enriched.FullContent = existing
	}

	enriched.EmbeddingText = buildEmbeddingText(enriched.Title, enriched.FullContent)
	return enriched
}

// extractArticle fetches the item URL and isolates the readable article body
func (e *Enricher) extractArticle(ctx context.Context, itemURL string) (string, string, error) {
	data, err := e.fetchPage(ctx, itemURL)
	if err != nil {
		return "", "", fmt.Errorf("failed to fetch page: %w", err)
	}

	pageURL, err := url.Parse(itemURL)
	if err != nil {
		pageURL = nil
	}

	article, err := readability.FromReader(strings.NewReader(string(data)), pageURL)
	if err != nil {
		return "", "", fmt.Errorf("failed to extract content: %w", err)
	}

	text := strings.TrimSpace(article.TextContent)
	if text == "" {
		return "", "", fmt.Errorf("no content extracted from HTML data")
	}

	slog.Debug("Content extracted successfully",
		"title", article.Title,
		"content_length", len(text))

	return text, strings.TrimSpace(article.Title), nil
}

func (e *Enricher) fetchPage(ctx context.Context, pageURL string) ([]byte, error) {
	timeoutCtx, cancel := context.WithTimeout(ctx, e.fetchTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(timeoutCtx, "GET", pageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("User-Agent", e.userAgent)

	resp, err := e.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch page: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP error: %d %s", resp.StatusCode, resp.Status)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	return data, nil
}

// metadataFallback scrapes usable text out of the raw source-specific
// metadata. Text below the substance threshold is rejected so near-empty
// snippets never masquerade as article content.
func (e *Enricher) metadataFallback(item adapter.ParsedItem) string {
	for _, key := range fallbackMetadataKeys {
		raw, ok := item.OriginalMetadata[key].(string)
		if !ok || raw == "" {
			continue
		}

		text := htmlToText(raw)
		if len(text) >= e.minFallbackLength {
			slog.Debug("Using metadata fallback content", "url", item.URL, "field", key, "length", len(text))
			return text
		}
	}
	return ""
}

func buildEmbeddingText(title, fullContent string) string {
	if fullContent == "" {
		return title
	}
	return title + "\n\n" + fullContent
}
