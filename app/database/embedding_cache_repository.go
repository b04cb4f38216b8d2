package database

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

var _ EmbeddingCacheRepository = (*EmbeddingCacheRepositoryImpl)(nil)

// EmbeddingCacheRepositoryImpl handles database operations for the
// content-addressed embedding cache
type EmbeddingCacheRepositoryImpl struct {
	db *DB
}

// NewEmbeddingCacheRepository creates a new embedding cache repository
func NewEmbeddingCacheRepository(db *DB) *EmbeddingCacheRepositoryImpl {
	return &EmbeddingCacheRepositoryImpl{db: db}
}

// GetBatch returns the cached embeddings for the given content hashes in a
// single query. Missing and expired hashes are simply absent from the result.
func (r *EmbeddingCacheRepositoryImpl) GetBatch(hashes []string) (map[string][]float32, error) {
	result := make(map[string][]float32)
	if len(hashes) == 0 {
		return result, nil
	}

	now := time.Now().UTC().Format(time.RFC3339Nano)

	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(hashes)), ", ")
	args := make([]any, 0, len(hashes)+1)
	for _, hash := range hashes {
		args = append(args, hash)
	}
	args = append(args, now)

	query := fmt.Sprintf(`
		SELECT content_hash, embedding FROM embedding_cache
		WHERE content_hash IN (%s) AND expires_at > ?
	`, placeholders)

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query embedding cache: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var hash, embeddingJSON string
		if err := rows.Scan(&hash, &embeddingJSON); err != nil {
			return nil, fmt.Errorf("failed to scan cache entry: %w", err)
		}

		var embedding []float32
		if err := json.Unmarshal([]byte(embeddingJSON), &embedding); err != nil {
			return nil, fmt.Errorf("failed to decode cached embedding %s: %w", hash, err)
		}
		result[hash] = embedding
	}

	return result, rows.Err()
}

// PutBatch upserts cache entries in one transaction, silently overwriting
// entries that already exist for a hash.
func (r *EmbeddingCacheRepositoryImpl) PutBatch(entries []CacheEntry) error {
	if len(entries) == 0 {
		return nil
	}

	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`
		INSERT INTO embedding_cache (content_hash, embedding, model_name, created_at, expires_at, access_count)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (content_hash) DO UPDATE SET
			embedding = excluded.embedding,
			model_name = excluded.model_name,
			created_at = excluded.created_at,
			expires_at = excluded.expires_at
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare cache insert: %w", err)
	}
	defer stmt.Close()

	for _, entry := range entries {
		embeddingJSON, err := json.Marshal(entry.Embedding)
		if err != nil {
			return fmt.Errorf("failed to encode embedding %s: %w", entry.ContentHash, err)
		}

		_, err = stmt.Exec(entry.ContentHash, string(embeddingJSON), entry.ModelName,
			entry.CreatedAt.UTC().Format(time.RFC3339Nano),
			entry.ExpiresAt.UTC().Format(time.RFC3339Nano),
			entry.AccessCount)
		if err != nil {
			return fmt.Errorf("failed to store cache entry %s: %w", entry.ContentHash, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit cache entries: %w", err)
	}

	return nil
}

// TouchAccessed bumps the access counter for the given hashes in one statement
func (r *EmbeddingCacheRepositoryImpl) TouchAccessed(hashes []string) error {
	if len(hashes) == 0 {
		return nil
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(hashes)), ", ")
	args := make([]any, 0, len(hashes))
	for _, hash := range hashes {
		args = append(args, hash)
	}

	query := fmt.Sprintf(`
		UPDATE embedding_cache SET access_count = access_count + 1
		WHERE content_hash IN (%s)
	`, placeholders)

	if _, err := r.db.Exec(query, args...); err != nil {
		return fmt.Errorf("failed to update access counts: %w", err)
	}

	return nil
}

// DeleteExpired removes expired cache entries and returns how many were
// deleted. Runs from the periodic sweep task, never from the lookup path.
func (r *EmbeddingCacheRepositoryImpl) DeleteExpired() (int64, error) {
	now := time.Now().UTC().Format(time.RFC3339Nano)

	result, err := r.db.Exec(`DELETE FROM embedding_cache WHERE expires_at <= ?`, now)
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired cache entries: %w", err)
	}

	deleted, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to read affected rows: %w", err)
	}

	return deleted, nil
}

// GetCacheCount returns the total number of cache entries
func (r *EmbeddingCacheRepositoryImpl) GetCacheCount() (int, error) {
	var count int
	err := r.db.QueryRow(`SELECT COUNT(*) FROM embedding_cache`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count cache entries: %w", err)
	}
	return count, nil
}
