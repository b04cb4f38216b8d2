package database

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

var _ StoryRepository = (*StoryRepositoryImpl)(nil)

// StoryRepositoryImpl handles database operations for story records
type StoryRepositoryImpl struct {
	db *DB
}

// NewStoryRepository creates a new story repository
func NewStoryRepository(db *DB) *StoryRepositoryImpl {
	return &StoryRepositoryImpl{db: db}
}

// Upsert inserts or updates a story keyed on (external_id, source_id) and
// classifies the write. Timestamps are assigned here with nanosecond
// precision; equal created_at and updated_at on the returned row means the
// row did not previously exist.
func (r *StoryRepositoryImpl) Upsert(story Story) (*Story, Operation, error) {
	now := time.Now().UTC().Format(time.RFC3339Nano)

	embeddingJSON, err := marshalEmbedding(story.Embedding)
	if err != nil {
		return nil, "", fmt.Errorf("failed to encode embedding: %w", err)
	}

	metadataJSON, err := marshalMetadata(story.Metadata)
	if err != nil {
		return nil, "", fmt.Errorf("failed to encode metadata: %w", err)
	}

	var publishedAt sql.NullString
	if story.PublishedAt != nil {
		publishedAt = sql.NullString{String: story.PublishedAt.UTC().Format(time.RFC3339Nano), Valid: true}
	}

	var id int64
	var createdAtRaw, updatedAtRaw string
	err = r.db.QueryRow(`
		INSERT INTO stories (
			external_id, source_id, title, url, author, published_at,
			summary, content, embedding, metadata, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (external_id, source_id) DO UPDATE SET
			title = excluded.title,
			url = excluded.url,
			author = excluded.author,
			published_at = excluded.published_at,
			summary = excluded.summary,
			content = excluded.content,
			embedding = excluded.embedding,
			metadata = excluded.metadata,
			updated_at = excluded.updated_at
		RETURNING id, created_at, updated_at
	`, story.ExternalID, story.SourceID, story.Title, story.URL,
		toNullString(story.Author), publishedAt,
		toNullString(story.Summary), toNullString(story.Content),
		embeddingJSON, metadataJSON, now, now).Scan(&id, &createdAtRaw, &updatedAtRaw)

	if err != nil {
		return nil, "", fmt.Errorf("failed to upsert story: %w", err)
	}

	createdAt, err := time.Parse(time.RFC3339Nano, createdAtRaw)
	if err != nil {
		return nil, "", fmt.Errorf("failed to parse created_at: %w", err)
	}
	updatedAt, err := time.Parse(time.RFC3339Nano, updatedAtRaw)
	if err != nil {
		return nil, "", fmt.Errorf("failed to parse updated_at: %w", err)
	}

	stored := story
	stored.ID = id
	stored.CreatedAt = createdAt
	stored.UpdatedAt = updatedAt

	operation := OperationUpdate
	if createdAtRaw == updatedAtRaw {
		operation = OperationInsert
	}

	return &stored, operation, nil
}

// ExistingExternalIDs returns which of the candidate external ids are already
// persisted for the given source, using a single batched query.
func (r *StoryRepositoryImpl) ExistingExternalIDs(sourceID int64, externalIDs []string) (map[string]bool, error) {
	existing := make(map[string]bool)
	if len(externalIDs) == 0 {
		return existing, nil
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(externalIDs)), ", ")
	args := make([]any, 0, len(externalIDs)+1)
	args = append(args, sourceID)
	for _, id := range externalIDs {
		args = append(args, id)
	}

	query := fmt.Sprintf(`
		SELECT external_id FROM stories
		WHERE source_id = ? AND external_id IN (%s)
	`, placeholders)

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query existing external ids: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var externalID string
		if err := rows.Scan(&externalID); err != nil {
			return nil, fmt.Errorf("failed to scan external id: %w", err)
		}
		existing[externalID] = true
	}

	return existing, rows.Err()
}

// GetStoryCount returns the total number of persisted stories
func (r *StoryRepositoryImpl) GetStoryCount() (int, error) {
	var count int
	err := r.db.QueryRow(`SELECT COUNT(*) FROM stories`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count stories: %w", err)
	}
	return count, nil
}

func toNullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func marshalEmbedding(embedding []float32) (sql.NullString, error) {
	if embedding == nil {
		return sql.NullString{}, nil
	}
	data, err := json.Marshal(embedding)
	if err != nil {
		return sql.NullString{}, err
	}
	return sql.NullString{String: string(data), Valid: true}, nil
}

func marshalMetadata(metadata map[string]any) (sql.NullString, error) {
	if metadata == nil {
		return sql.NullString{}, nil
	}
	data, err := json.Marshal(metadata)
	if err != nil {
		return sql.NullString{}, err
	}
	return sql.NullString{String: string(data), Valid: true}, nil
}
