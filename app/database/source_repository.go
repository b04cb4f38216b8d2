package database

import (
	"fmt"
	"time"

	"github.com/feedhaus/storyvec/app/catalog"
)

var _ SourceRepository = (*SourceRepositoryImpl)(nil)

// SourceRepositoryImpl handles database operations for catalog sources
type SourceRepositoryImpl struct {
	db *DB
}

// NewSourceRepository creates a new source repository
func NewSourceRepository(db *DB) *SourceRepositoryImpl {
	return &SourceRepositoryImpl{db: db}
}

// RegisterSource inserts or updates a source definition and returns its
// database id. Called once per catalog entry at startup.
func (r *SourceRepositoryImpl) RegisterSource(config catalog.SourceConfig) (int64, error) {
	now := time.Now().UTC().Format(time.RFC3339Nano)

	active := 1
	if config.Active != nil && !*config.Active {
		active = 0
	}

	var id int64
	err := r.db.QueryRow(`
		INSERT INTO sources (slug, name, adapter_id, url, priority, active, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (slug) DO UPDATE SET
			name = excluded.name,
			adapter_id = excluded.adapter_id,
			url = excluded.url,
			priority = excluded.priority,
			active = excluded.active,
			updated_at = excluded.updated_at
		RETURNING id
	`, config.Slug, config.Name, config.AdapterID, config.URL, config.Priority, active, now, now).Scan(&id)

	if err != nil {
		return 0, fmt.Errorf("failed to register source: %w", err)
	}

	return id, nil
}

// ListActiveSources returns active sources ordered by priority (descending)
func (r *SourceRepositoryImpl) ListActiveSources() ([]catalog.Source, error) {
	rows, err := r.db.Query(`
		SELECT id, slug, name, adapter_id, url, priority
		FROM sources
		WHERE active = 1
		ORDER BY priority DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query active sources: %w", err)
	}
	defer rows.Close()

	var sources []catalog.Source
	for rows.Next() {
		source := catalog.Source{Active: true}
		err := rows.Scan(&source.ID, &source.Slug, &source.Name, &source.AdapterID, &source.URL, &source.Priority)
		if err != nil {
			return nil, fmt.Errorf("failed to scan source: %w", err)
		}
		sources = append(sources, source)
	}

	return sources, rows.Err()
}

// GetSourceCount returns the total number of registered sources
func (r *SourceRepositoryImpl) GetSourceCount() (int, error) {
	var count int
	err := r.db.QueryRow(`SELECT COUNT(*) FROM sources`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count sources: %w", err)
	}
	return count, nil
}
