package database

import (
	"testing"
	"time"
)

func cacheEntry(hash string, expiresAt time.Time) CacheEntry {
	return CacheEntry{
		ContentHash: hash,
		Embedding:   []float32{0.5, 0.25},
		ModelName:   "nomic-embed-text",
		CreatedAt:   time.Now().UTC(),
		ExpiresAt:   expiresAt,
		AccessCount: 1,
	}
}

func TestCacheRepository_PutAndGetBatch(t *testing.T) {
	db := setupTestDB(t)
	repo := NewEmbeddingCacheRepository(db)

	future := time.Now().UTC().Add(24 * time.Hour)
	err := repo.PutBatch([]CacheEntry{
		cacheEntry("hash-a", future),
		cacheEntry("hash-b", future),
	})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	result, err := repo.GetBatch([]string{"hash-a", "hash-b", "hash-missing"})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if len(result) != 2 {
		t.Fatalf("Expected 2 cache hits, got %d", len(result))
	}
	vector := result["hash-a"]
	if len(vector) != 2 || vector[0] != 0.5 || vector[1] != 0.25 {
		t.Errorf("Embedding did not round-trip: %v", vector)
	}
}

func TestCacheRepository_ExpiredEntriesInvisible(t *testing.T) {
	db := setupTestDB(t)
	repo := NewEmbeddingCacheRepository(db)

	err := repo.PutBatch([]CacheEntry{
		cacheEntry("hash-live", time.Now().UTC().Add(time.Hour)),
		cacheEntry("hash-expired", time.Now().UTC().Add(-time.Hour)),
	})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	result, err := repo.GetBatch([]string{"hash-live", "hash-expired"})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if len(result) != 1 {
		t.Fatalf("Expected only the live entry, got %d", len(result))
	}
	if _, ok := result["hash-expired"]; ok {
		t.Error("Expired entry must not be returned")
	}
}

func TestCacheRepository_PutBatchOverwrites(t *testing.T) {
	db := setupTestDB(t)
	repo := NewEmbeddingCacheRepository(db)

	future := time.Now().UTC().Add(time.Hour)
	if err := repo.PutBatch([]CacheEntry{cacheEntry("hash-a", future)}); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	replacement := cacheEntry("hash-a", future)
	replacement.Embedding = []float32{9}
	if err := repo.PutBatch([]CacheEntry{replacement}); err != nil {
		t.Fatalf("Overwrite must not error: %v", err)
	}

	result, err := repo.GetBatch([]string{"hash-a"})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if len(result["hash-a"]) != 1 || result["hash-a"][0] != 9 {
		t.Errorf("Expected replacement embedding, got %v", result["hash-a"])
	}

	count, err := repo.GetCacheCount()
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if count != 1 {
		t.Errorf("Overwrite must not duplicate rows, got %d", count)
	}
}

func TestCacheRepository_TouchAccessed(t *testing.T) {
	db := setupTestDB(t)
	repo := NewEmbeddingCacheRepository(db)

	future := time.Now().UTC().Add(time.Hour)
	err := repo.PutBatch([]CacheEntry{
		cacheEntry("hash-a", future),
		cacheEntry("hash-b", future),
	})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if err := repo.TouchAccessed([]string{"hash-a"}); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	var touched, untouched int64
	if err := db.QueryRow(`SELECT access_count FROM embedding_cache WHERE content_hash = ?`, "hash-a").Scan(&touched); err != nil {
		t.Fatalf("Failed to read access count: %v", err)
	}
	if err := db.QueryRow(`SELECT access_count FROM embedding_cache WHERE content_hash = ?`, "hash-b").Scan(&untouched); err != nil {
		t.Fatalf("Failed to read access count: %v", err)
	}

	if touched != 2 {
		t.Errorf("Expected access count 2 after touch, got %d", touched)
	}
	if untouched != 1 {
		t.Errorf("Untouched entry must keep its count, got %d", untouched)
	}
}

func TestCacheRepository_DeleteExpired(t *testing.T) {
	db := setupTestDB(t)
	repo := NewEmbeddingCacheRepository(db)

	err := repo.PutBatch([]CacheEntry{
		cacheEntry("hash-live", time.Now().UTC().Add(time.Hour)),
		cacheEntry("hash-old-1", time.Now().UTC().Add(-time.Hour)),
		cacheEntry("hash-old-2", time.Now().UTC().Add(-2*time.Hour)),
	})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	deleted, err := repo.DeleteExpired()
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if deleted != 2 {
		t.Errorf("Expected 2 deleted entries, got %d", deleted)
	}

	count, err := repo.GetCacheCount()
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if count != 1 {
		t.Errorf("Expected 1 surviving entry, got %d", count)
	}
}

func TestCacheRepository_EmptyBatches(t *testing.T) {
	db := setupTestDB(t)
	repo := NewEmbeddingCacheRepository(db)

	if err := repo.PutBatch(nil); err != nil {
		t.Errorf("Empty put must be a no-op, got %v", err)
	}
	result, err := repo.GetBatch(nil)
	if err != nil || len(result) != 0 {
		t.Errorf("Empty get must yield an empty map, got %v / %v", result, err)
	}
	if err := repo.TouchAccessed(nil); err != nil {
		t.Errorf("Empty touch must be a no-op, got %v", err)
	}
}
