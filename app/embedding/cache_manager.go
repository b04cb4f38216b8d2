package embedding

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/feedhaus/storyvec/app/database"
	"github.com/feedhaus/storyvec/app/metrics"
)

// BatchResult carries the embeddings for one batch of texts plus the cache
// accounting for that batch. Embeddings[i] always corresponds to the i-th
// input text.
type BatchResult struct {
	Embeddings  [][]float32
	CacheHits   int
	CacheMisses int
}

// CacheManager resolves texts to embeddings through a content-addressed
// cache, delegating misses to the embedding provider in a single batched
// call. The cache is an optimization: every cache-side failure is absorbed
// and the batch still resolves through the provider.
type CacheManager struct {
	cacheRepo database.EmbeddingCacheRepository
	provider  Provider
	ttl       time.Duration
	maxChars  int
}

// NewCacheManager creates a new embedding cache manager
func NewCacheManager(cacheRepo database.EmbeddingCacheRepository, provider Provider, ttl time.Duration, maxChars int) *CacheManager {
	return &CacheManager{
		cacheRepo: cacheRepo,
		provider:  provider,
		ttl:       ttl,
		maxChars:  maxChars,
	}
}

// EmbedBatch returns one embedding per input text, in input order, mixing
// cached vectors with freshly computed ones. The provider is called at most
// once per batch, with only the miss texts in their original relative order.
func (m *CacheManager) EmbedBatch(ctx context.Context, texts []string) (*BatchResult, error) {
	if len(texts) == 0 {
		return nil, ErrNoTextsProvided
	}

	// Deterministic truncation before hashing: identical over-limit texts
	// must still share a cache entry.
	truncated := make([]string, len(texts))
	hashes := make([]string, len(texts))
	for i, text := range texts {
		truncated[i] = Truncate(text, m.maxChars)
		hashes[i] = ContentHash(truncated[i])
	}

	cached, err := m.cacheRepo.GetBatch(hashes)
	if err != nil {
		slog.Warn("Embedding cache lookup failed, treating batch as all misses", "error", err)
		cached = map[string][]float32{}
	}

	// Partition into hits and misses, preserving each text's original index.
	// missIndexes[j] is the position in the batch of the j-th miss text.
	embeddings := make([][]float32, len(texts))
	var missIndexes []int
	var missTexts []string
	var hitHashes []string

	for i, hash := range hashes {
		if vector, ok := cached[hash]; ok {
			embeddings[i] = vector
			hitHashes = append(hitHashes, hash)
		} else {
			missIndexes = append(missIndexes, i)
			missTexts = append(missTexts, truncated[i])
		}
	}

	if len(missTexts) > 0 {
		vectors, err := m.provider.Embed(ctx, missTexts)
		if err != nil {
			return nil, err
		}
		if len(vectors) != len(missTexts) {
			return nil, fmt.Errorf("provider returned %d vectors for %d texts", len(vectors), len(missTexts))
		}

		// Reassembly is the correctness-critical step: an off-by-one here
		// silently assigns vectors to the wrong stories.
		now := time.Now().UTC()
		entries := make([]database.CacheEntry, len(missTexts))
		for j, vector := range vectors {
			embeddings[missIndexes[j]] = vector
			entries[j] = database.CacheEntry{
				ContentHash: hashes[missIndexes[j]],
				Embedding:   vector,
				ModelName:   m.provider.ModelName(),
				CreatedAt:   now,
				ExpiresAt:   now.Add(m.ttl),
			}
		}

		if err := m.cacheRepo.PutBatch(entries); err != nil {
			slog.Warn("Failed to store embeddings in cache", "count", len(entries), "error", err)
		}
	}

	if len(hitHashes) > 0 {
		if err := m.cacheRepo.TouchAccessed(hitHashes); err != nil {
			slog.Warn("Failed to update cache access counts", "error", err)
		}
	}

	hits := len(hitHashes)
	misses := len(missTexts)
	metrics.EmbeddingCacheHits.Add(float64(hits))
	metrics.EmbeddingCacheMisses.Add(float64(misses))

	slog.Debug("Embedding batch resolved", "texts", len(texts), "cache_hits", hits, "cache_misses", misses)

	return &BatchResult{
		Embeddings:  embeddings,
		CacheHits:   hits,
		CacheMisses: misses,
	}, nil
}
