package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/feedhaus/storyvec/app/catalog"
	"github.com/feedhaus/storyvec/app/database"
	"github.com/feedhaus/storyvec/app/ingest"
)

// mockOrchestrator implements OrchestratorInterface
type mockOrchestrator struct {
	result  *ingest.RunResult
	err     error
	running bool
}

func (m *mockOrchestrator) Run(ctx context.Context) (*ingest.RunResult, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.result, nil
}

func (m *mockOrchestrator) LastResult() *ingest.RunResult { return m.result }
func (m *mockOrchestrator) Running() bool                 { return m.running }

// mockRepos covers the three repository interfaces the handlers read from
type mockRepos struct {
	sourceCount int
	storyCount  int
	cacheCount  int
}

func (m *mockRepos) RegisterSource(config catalog.SourceConfig) (int64, error) { return 0, nil }
func (m *mockRepos) ListActiveSources() ([]catalog.Source, error)              { return nil, nil }
func (m *mockRepos) GetSourceCount() (int, error)                              { return m.sourceCount, nil }

func (m *mockRepos) Upsert(story database.Story) (*database.Story, database.Operation, error) {
	return nil, "", nil
}
func (m *mockRepos) ExistingExternalIDs(sourceID int64, externalIDs []string) (map[string]bool, error) {
	return nil, nil
}
func (m *mockRepos) GetStoryCount() (int, error) { return m.storyCount, nil }

func (m *mockRepos) GetBatch(hashes []string) (map[string][]float32, error) { return nil, nil }
func (m *mockRepos) PutBatch(entries []database.CacheEntry) error           { return nil }
func (m *mockRepos) TouchAccessed(hashes []string) error                    { return nil }
func (m *mockRepos) DeleteExpired() (int64, error)                          { return 0, nil }
func (m *mockRepos) GetCacheCount() (int, error)                            { return m.cacheCount, nil }

func newTestServer(orchestrator *mockOrchestrator, apiAccessKey string) http.Handler {
	repos := &mockRepos{sourceCount: 2, storyCount: 40, cacheCount: 12}
	handler := NewHandler(orchestrator, repos, repos, repos, "test-version")
	return NewServer(handler, apiAccessKey)
}

func doRequest(t *testing.T, server http.Handler, method, path string, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, nil)
	for key, value := range headers {
		req.Header.Set(key, value)
	}
	w := httptest.NewRecorder()
	server.ServeHTTP(w, req)
	return w
}

func TestTriggerIngest(t *testing.T) {
	orchestrator := &mockOrchestrator{
		result: &ingest.RunResult{Success: true, Stats: ingest.StatsSnapshot{TotalItems: 5, Successful: 5}},
	}
	server := newTestServer(orchestrator, "")

	w := doRequest(t, server, "POST", "/api/ingest", nil)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", w.Code)
	}

	var body map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("Invalid JSON response: %v", err)
	}
	if body["success"] != true {
		t.Errorf("Expected success=true in response, got %v", body)
	}
}

func TestTriggerIngest_Conflict(t *testing.T) {
	orchestrator := &mockOrchestrator{err: ingest.ErrRunInProgress}
	server := newTestServer(orchestrator, "")

	w := doRequest(t, server, "POST", "/api/ingest", nil)

	if w.Code != http.StatusConflict {
		t.Errorf("Expected 409 for an in-progress run, got %d", w.Code)
	}
}

func TestTriggerIngest_FatalError(t *testing.T) {
	orchestrator := &mockOrchestrator{err: errors.New("database is locked")}
	server := newTestServer(orchestrator, "")

	w := doRequest(t, server, "POST", "/api/ingest", nil)

	if w.Code != http.StatusInternalServerError {
		t.Errorf("Expected 500, got %d", w.Code)
	}
}

func TestTriggerIngest_Authentication(t *testing.T) {
	orchestrator := &mockOrchestrator{result: &ingest.RunResult{Success: true}}
	server := newTestServer(orchestrator, "secret-key")

	if w := doRequest(t, server, "POST", "/api/ingest", nil); w.Code != http.StatusUnauthorized {
		t.Errorf("Expected 401 without a key, got %d", w.Code)
	}

	headers := map[string]string{"X-API-Key": "wrong"}
	if w := doRequest(t, server, "POST", "/api/ingest", headers); w.Code != http.StatusUnauthorized {
		t.Errorf("Expected 401 with a wrong key, got %d", w.Code)
	}

	headers = map[string]string{"X-API-Key": "secret-key"}
	if w := doRequest(t, server, "POST", "/api/ingest", headers); w.Code != http.StatusOK {
		t.Errorf("Expected 200 with the header key, got %d", w.Code)
	}

	headers = map[string]string{"Authorization": "Bearer secret-key"}
	if w := doRequest(t, server, "POST", "/api/ingest", headers); w.Code != http.StatusOK {
		t.Errorf("Expected 200 with a bearer token, got %d", w.Code)
	}
}

func TestGetHealth(t *testing.T) {
	server := newTestServer(&mockOrchestrator{running: true}, "")

	w := doRequest(t, server, "GET", "/health", nil)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", w.Code)
	}

	var body map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("Invalid JSON response: %v", err)
	}
	if body["version"] != "test-version" {
		t.Errorf("Expected version in health response, got %v", body)
	}
	if body["running"] != true {
		t.Errorf("Expected running=true, got %v", body["running"])
	}
	if body["sources"] != float64(2) {
		t.Errorf("Expected 2 sources, got %v", body["sources"])
	}
}

func TestGetStats(t *testing.T) {
	orchestrator := &mockOrchestrator{
		result: &ingest.RunResult{Success: true, Stats: ingest.StatsSnapshot{TotalItems: 7}},
	}
	server := newTestServer(orchestrator, "")

	w := doRequest(t, server, "GET", "/stats", nil)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", w.Code)
	}

	var body map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("Invalid JSON response: %v", err)
	}
	if body["stories"] != float64(40) {
		t.Errorf("Expected 40 stories, got %v", body["stories"])
	}
	if body["cache_entries"] != float64(12) {
		t.Errorf("Expected 12 cache entries, got %v", body["cache_entries"])
	}
	if _, ok := body["last_run"]; !ok {
		t.Error("Expected last_run in stats once a run has completed")
	}
}

func TestMetricsEndpoint(t *testing.T) {
	server := newTestServer(&mockOrchestrator{}, "")

	w := doRequest(t, server, "GET", "/metrics", nil)

	if w.Code != http.StatusOK {
		t.Errorf("Expected 200 from metrics endpoint, got %d", w.Code)
	}
}

func TestRootEndpoint(t *testing.T) {
	server := newTestServer(&mockOrchestrator{}, "")

	w := doRequest(t, server, "GET", "/", nil)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", w.Code)
	}

	var body map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("Invalid JSON response: %v", err)
	}
	if body["service"] != "Storyvec" {
		t.Errorf("Expected service name in root response, got %v", body)
	}
}
