package database

import (
	"path/filepath"
	"testing"

	"github.com/feedhaus/storyvec/app/catalog"
)

// setupTestDB creates a migrated database in a per-test temp directory
func setupTestDB(t *testing.T) *DB {
	t.Helper()

	db, err := NewConnection(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if _, _, err := RunMigrations(db); err != nil {
		t.Fatalf("Failed to run migrations: %v", err)
	}

	return db
}

// registerTestSource inserts a source row and returns its id; stories carry a
// foreign key to sources, so most tests need one
func registerTestSource(t *testing.T, db *DB, slug string) int64 {
	t.Helper()

	id, err := NewSourceRepository(db).RegisterSource(catalog.SourceConfig{
		Slug:      slug,
		Name:      slug,
		AdapterID: "rss",
		URL:       "https://" + slug + ".example.com/feed",
	})
	if err != nil {
		t.Fatalf("Failed to register source %q: %v", slug, err)
	}
	return id
}

func TestRunMigrations_Idempotent(t *testing.T) {
	db := setupTestDB(t)

	version, dirty, err := RunMigrations(db)
	if err != nil {
		t.Fatalf("Re-running migrations must be a no-op: %v", err)
	}
	if dirty {
		t.Error("Migrations left the database dirty")
	}
	if version == 0 {
		t.Error("Expected a nonzero migration version")
	}
}
