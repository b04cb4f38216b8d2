package enrich

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/feedhaus/storyvec/app/adapter"
)

const testUserAgent = "storyvec-test/1.0"

func newTestEnricher(client *http.Client) *Enricher {
	return NewEnricher(client, testUserAgent, 5*time.Second, 200, 50)
}

func articleHTML() string {
	paragraph := strings.Repeat("The quick brown fox jumps over the lazy dog and keeps running through the long meadow. ", 8)
	return `<!DOCTYPE html>
<html>
<head><title>Extracted Headline</title></head>
<body>
<article>
<h1>Extracted Headline</h1>
<p>` + paragraph + `</p>
<p>` + paragraph + `</p>
</article>
</body>
</html>`
}

func TestEnrich_SubstantialContentSkipsNetwork(t *testing.T) {
	requests := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
	}))
	defer server.Close()

	content := strings.Repeat("Already long feed content. ", 20)
	item := adapter.ParsedItem{
		Title:   "A Title",
		URL:     server.URL,
		Content: content,
	}

	enriched := newTestEnricher(server.Client()).Enrich(context.Background(), item)

	if requests != 0 {
		t.Errorf("Expected no network calls for substantial content, got %d", requests)
	}
	if enriched.FullContent != strings.TrimSpace(content) {
		t.Error("Existing content should be kept as-is")
	}
	if !strings.HasPrefix(enriched.EmbeddingText, "A Title\n\n") {
		t.Errorf("Embedding text should start with the title, got %q", enriched.EmbeddingText)
	}
}

func TestEnrich_ExtractsArticleFromPage(t *testing.T) {
	var gotUserAgent string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUserAgent = r.Header.Get("User-Agent")
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte(articleHTML()))
	}))
	defer server.Close()

	item := adapter.ParsedItem{
		Title:   "Feed Title",
		URL:     server.URL + "/story",
		Content: "too short",
	}

	enriched := newTestEnricher(server.Client()).Enrich(context.Background(), item)

	if !strings.Contains(enriched.FullContent, "quick brown fox") {
		t.Errorf("Expected extracted article text, got %q", enriched.FullContent)
	}
	if enriched.Title != "Feed Title" {
		t.Errorf("A usable feed title must not be replaced, got %q", enriched.Title)
	}
	if gotUserAgent != testUserAgent {
		t.Errorf("Expected User-Agent %q, got %q", testUserAgent, gotUserAgent)
	}
}

func TestEnrich_ShortTitleReplacedByExtracted(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte(articleHTML()))
	}))
	defer server.Close()

	item := adapter.ParsedItem{
		Title: "a",
		URL:   server.URL,
	}

	enriched := newTestEnricher(server.Client()).Enrich(context.Background(), item)

	if enriched.Title != "Extracted Headline" {
		t.Errorf("Expected extracted title to replace the stub, got %q", enriched.Title)
	}
}

func TestEnrich_HTTPErrorFallsBackToMetadata(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	description := "<p>A reasonably long description of the article that passes the substance threshold.</p>"
	item := adapter.ParsedItem{
		Title: "Feed Title",
		URL:   server.URL,
		OriginalMetadata: map[string]any{
			"description": description,
		},
	}

	enriched := newTestEnricher(server.Client()).Enrich(context.Background(), item)

	if !strings.Contains(enriched.FullContent, "substance threshold") {
		t.Errorf("Expected metadata fallback content, got %q", enriched.FullContent)
	}
	if strings.Contains(enriched.FullContent, "<p>") {
		t.Error("Fallback content must be stripped of markup")
	}
}

func TestEnrich_ShortFallbackRejected(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	item := adapter.ParsedItem{
		Title:   "Feed Title",
		URL:     server.URL,
		Content: "short feed body",
		OriginalMetadata: map[string]any{
			"description": "tiny",
		},
	}

	enriched := newTestEnricher(server.Client()).Enrich(context.Background(), item)

	if enriched.FullContent != "short feed body" {
		t.Errorf("Short feed content beats nothing, got %q", enriched.FullContent)
	}
}

func TestEnrich_NothingAvailableYieldsTitleOnlyEmbedding(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	item := adapter.ParsedItem{
		Title: "Only A Title",
		URL:   server.URL,
	}

	enriched := newTestEnricher(server.Client()).Enrich(context.Background(), item)

	if enriched.FullContent != "" {
		t.Errorf("Expected no content, got %q", enriched.FullContent)
	}
	if enriched.EmbeddingText != "Only A Title" {
		t.Errorf("Embedding text should be the bare title, got %q", enriched.EmbeddingText)
	}
}

func TestEnrich_FallbackChainProbesInOrder(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	item := adapter.ParsedItem{
		Title: "Feed Title",
		URL:   server.URL,
		OriginalMetadata: map[string]any{
			"description": "tiny",
			"summary":     strings.Repeat("A long enough summary sentence. ", 4),
		},
	}

	enriched := newTestEnricher(server.Client()).Enrich(context.Background(), item)

	if !strings.Contains(enriched.FullContent, "long enough summary") {
		t.Errorf("Expected the summary field after description was rejected, got %q", enriched.FullContent)
	}
}

func TestHTMLToText(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"plain text", "just plain text", "just plain text"},
		{"tags stripped", "<p>Hello <b>world</b></p>", "Hello world"},
		{"script removed", "<p>visible</p><script>alert(1)</script>", "visible"},
		{"whitespace collapsed", "  lots \n\n of   space  ", "lots of space"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := htmlToText(tt.input); got != tt.expected {
				t.Errorf("htmlToText(%q) = %q, expected %q", tt.input, got, tt.expected)
			}
		})
	}
}
