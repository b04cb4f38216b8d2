package adapter

import (
	"context"
	"testing"

	"github.com/feedhaus/storyvec/app/catalog"
)

type stubAdapter struct {
	id string
}

func (s *stubAdapter) ID() string { return s.id }
func (s *stubAdapter) FetchAndParse(ctx context.Context, sources []catalog.Source) ([]ParsedItem, error) {
	return nil, nil
}

func TestRegistry_GetKnownAdapter(t *testing.T) {
	rss := &stubAdapter{id: "rss"}
	registry := NewRegistry(rss, &stubAdapter{id: "html"})

	a, err := registry.Get("rss")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if a != rss {
		t.Error("Wrong adapter returned")
	}
}

func TestRegistry_GetUnknownAdapter(t *testing.T) {
	registry := NewRegistry(&stubAdapter{id: "rss"})

	if _, err := registry.Get("telegraph"); err == nil {
		t.Error("Expected error for unregistered adapter")
	}
}

func TestRegistry_IDs(t *testing.T) {
	registry := NewRegistry(&stubAdapter{id: "rss"}, &stubAdapter{id: "html"})

	ids := registry.IDs()
	if len(ids) != 2 {
		t.Errorf("Expected 2 ids, got %d", len(ids))
	}
}
