package adapter

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/mmcdole/gofeed"

	"github.com/feedhaus/storyvec/app/catalog"
)

const rssAdapterID = "rss"

// RSSAdapter fetches RSS and Atom feeds and normalizes their entries.
// Sources within one call are fetched concurrently; a failed source is
// logged and skipped.
type RSSAdapter struct {
	httpClient *http.Client
	userAgent  string
}

var _ Adapter = (*RSSAdapter)(nil)

// NewRSSAdapter creates an RSS/Atom adapter using the shared HTTP client
func NewRSSAdapter(httpClient *http.Client, userAgent string) *RSSAdapter {
	return &RSSAdapter{
		httpClient: httpClient,
		userAgent:  userAgent,
	}
}

func (a *RSSAdapter) ID() string {
	return rssAdapterID
}

// FetchAndParse fetches every source's feed URL and returns the normalized
// items of all sources that succeeded.
func (a *RSSAdapter) FetchAndParse(ctx context.Context, sources []catalog.Source) ([]ParsedItem, error) {
	var mu sync.Mutex
	var wg sync.WaitGroup
	var items []ParsedItem

	for _, source := range sources {
		wg.Add(1)
		go func(source catalog.Source) {
			defer wg.Done()

			sourceItems, err := a.fetchSource(ctx, source)
			if err != nil {
				slog.Warn("Failed to fetch source, skipping", "adapter", rssAdapterID, "source", source.Slug, "error", err)
				return
			}

			mu.Lock()
			items = append(items, sourceItems...)
			mu.Unlock()
		}(source)
	}

	wg.Wait()
	return items, nil
}

func (a *RSSAdapter) fetchSource(ctx context.Context, source catalog.Source) ([]ParsedItem, error) {
	data, err := a.fetchFeed(ctx, source.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch feed: %w", err)
	}

	feed, err := gofeed.NewParser().Parse(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to parse feed: %w", err)
	}

	items := make([]ParsedItem, 0, len(feed.Items))
	skipped := 0
	for _, entry := range feed.Items {
		item, ok := a.normalizeEntry(source, entry)
		if !ok {
			skipped++
			continue
		}
		items = append(items, item)
	}

	if skipped > 0 {
		slog.Debug("Skipped entries missing required fields", "source", source.Slug, "skipped", skipped)
	}

	return items, nil
}

func (a *RSSAdapter) fetchFeed(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("User-Agent", a.userAgent)

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch feed: %w", err)
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

// normalizeEntry maps a feed entry onto a ParsedItem. Entries without a
// usable identifier, title or link are dropped.
func (a *RSSAdapter) normalizeEntry(source catalog.Source, entry *gofeed.Item) (ParsedItem, bool) {
	externalID := strings.TrimSpace(entry.GUID)
	if externalID == "" {
		externalID = strings.TrimSpace(entry.Link)
	}

	title := strings.TrimSpace(entry.Title)
	url := strings.TrimSpace(entry.Link)

	if externalID == "" || title == "" || url == "" {
		return ParsedItem{}, false
	}

	publishedAt := time.Now().UTC()
	if entry.PublishedParsed != nil {
		publishedAt = entry.PublishedParsed.UTC()
	} else if entry.UpdatedParsed != nil {
		publishedAt = entry.UpdatedParsed.UTC()
	}

	item := ParsedItem{
		ExternalID:  externalID,
		SourceSlug:  source.Slug,
		Title:       title,
		URL:         url,
		Content:     strings.TrimSpace(entry.Content),
		PublishedAt: publishedAt.Format(time.RFC3339),
		OriginalMetadata: map[string]any{
			"description": entry.Description,
			"categories":  entry.Categories,
			"guid":        entry.GUID,
		},
	}

	if item.Content == "" {
		item.Content = strings.TrimSpace(entry.Description)
	}

	if len(entry.Authors) > 0 && entry.Authors[0] != nil {
		item.Author = entry.Authors[0].Name
	}

	if entry.Image != nil {
		item.ImageURL = entry.Image.URL
	}

	for key, value := range entry.Custom {
		if _, exists := item.OriginalMetadata[key]; !exists {
			item.OriginalMetadata[key] = value
		}
	}

	return item, true
}
