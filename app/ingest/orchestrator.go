package ingest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/feedhaus/storyvec/app/adapter"
	"github.com/feedhaus/storyvec/app/catalog"
	"github.com/feedhaus/storyvec/app/database"
	"github.com/feedhaus/storyvec/app/metrics"
)

// ErrRunInProgress is returned when a run is requested while another one is
// still executing. The scheduler and the HTTP trigger share one orchestrator.
var ErrRunInProgress = errors.New("ingestion run already in progress")

// Orchestrator is the top-level ingestion control loop: it pulls active
// sources, fetches their items through the adapter registry, deduplicates,
// slices into batches and dispatches them to a bounded worker pool.
type Orchestrator struct {
	sourceRepo database.SourceRepository
	registry   *adapter.Registry
	dedup      *DedupFilter
	batches    *BatchProcessor

	batchSize   int
	workerCount int

	mu         sync.Mutex
	running    bool
	lastResult *RunResult
}

// NewOrchestrator creates a new ingestion orchestrator
func NewOrchestrator(sourceRepo database.SourceRepository, registry *adapter.Registry, dedup *DedupFilter, batches *BatchProcessor, batchSize, workerCount int) *Orchestrator {
	if batchSize < 1 {
		batchSize = 1
	}

	return &Orchestrator{
		sourceRepo:  sourceRepo,
		registry:    registry,
		dedup:       dedup,
		batches:     batches,
		batchSize:   batchSize,
		workerCount: workerCount,
	}
}

// Run executes one ingestion run. It always returns a structured RunResult;
// the error is non-nil only for unrecoverable conditions: an unreachable
// source catalog, or a run already in progress. Adapter, batch and item
// failures are counted in the result instead.
func (o *Orchestrator) Run(ctx context.Context) (*RunResult, error) {
	if !o.tryStart() {
		return nil, ErrRunInProgress
	}
	defer o.finish()

	stats := NewStats()

	sources, err := o.sourceRepo.ListActiveSources()
	if err != nil {
		metrics.IngestionRunsTotal.WithLabelValues("fatal").Inc()
		return nil, fmt.Errorf("failed to list active sources: %w", err)
	}

	if len(sources) == 0 {
		slog.Info("No active sources configured, nothing to ingest")
		stats.Finish()
		result := &RunResult{Success: false, Reason: "no sources", Stats: stats.Snapshot()}
		o.storeResult(result)
		metrics.IngestionRunsTotal.WithLabelValues("empty").Inc()
		return result, nil
	}

	slog.Info("Ingestion run started", "sources", len(sources))

	groupOrder, groups := groupByAdapter(sources)
	slugLookup := make(map[string]catalog.Source, len(sources))
	for _, source := range sources {
		slugLookup[source.Slug] = source
	}

	pool := NewWorkerPool(o.workerCount)
	cancelled := false

	for _, adapterID := range groupOrder {
		group := groups[adapterID]

		items, err := o.fetchGroup(ctx, adapterID, group)
		if err != nil {
			slog.Error("Adapter failed, skipping its sources", "adapter", adapterID, "sources", len(group), "error", err)
			stats.AdapterFailed()
			metrics.AdapterFailuresTotal.WithLabelValues(adapterID).Inc()
			continue
		}

		slugOrder, itemsBySlug := groupBySlug(items)
		for _, slug := range slugOrder {
			source, ok := slugLookup[slug]
			if !ok {
				// Counted as failed so the run report stays complete
				orphaned := len(itemsBySlug[slug])
				slog.Warn("Adapter returned items for unknown source, marking failed", "adapter", adapterID, "slug", slug, "items", orphaned)
				stats.AddTotal(orphaned)
				stats.AddFailed(orphaned)
				metrics.ItemsProcessedTotal.WithLabelValues("failed").Add(float64(orphaned))
				continue
			}

			sourceItems := itemsBySlug[slug]
			stats.SourceProcessed()
			stats.AddTotal(len(sourceItems))

			newItems, existingCount := o.dedup.Filter(sourceItems, source.ID)
			stats.AddSkipped(existingCount)
			metrics.ItemsProcessedTotal.WithLabelValues("skipped").Add(float64(existingCount))

			slog.Info("Source deduplicated", "source", slug, "total", len(sourceItems), "new", len(newItems), "existing", existingCount)

			for start := 0; start < len(newItems); start += o.batchSize {
				// Cancellation is honored between batches, never mid-batch
				if ctx.Err() != nil {
					remaining := len(newItems) - start
					stats.AddFailed(remaining)
					metrics.ItemsProcessedTotal.WithLabelValues("failed").Add(float64(remaining))
					cancelled = true
					break
				}

				end := min(start+o.batchSize, len(newItems))
				batchItems := newItems[start:end]

				pool.Submit(func() {
					outcome := o.batches.Process(ctx, source, batchItems)
					stats.AddSuccessful(outcome.Succeeded)
					stats.AddFailed(outcome.Failed)
					metrics.ItemsProcessedTotal.WithLabelValues("success").Add(float64(outcome.Succeeded))
					metrics.ItemsProcessedTotal.WithLabelValues("failed").Add(float64(outcome.Failed))
				})
			}

			if cancelled {
				break
			}
		}

		if cancelled {
			break
		}
	}

	pool.Close()
	stats.Finish()

	snapshot := stats.Snapshot()
	result := &RunResult{Success: true, Stats: snapshot}
	if cancelled {
		result.Reason = "cancelled"
	}
	o.storeResult(result)

	metrics.IngestionRunsTotal.WithLabelValues("completed").Inc()
	slog.Info("Ingestion run completed",
		"duration", snapshot.Duration().String(),
		"sources", snapshot.SourcesProcessed,
		"total", snapshot.TotalItems,
		"successful", snapshot.Successful,
		"failed", snapshot.Failed,
		"skipped_existing", snapshot.SkippedExisting,
		"adapter_failures", snapshot.AdapterFailures)

	return result, nil
}

// LastResult returns the most recent run's result, or nil before the first run
func (o *Orchestrator) LastResult() *RunResult {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.lastResult
}

// Running reports whether a run is currently executing
func (o *Orchestrator) Running() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.running
}

func (o *Orchestrator) fetchGroup(ctx context.Context, adapterID string, group []catalog.Source) ([]adapter.ParsedItem, error) {
	a, err := o.registry.Get(adapterID)
	if err != nil {
		return nil, err
	}
	return a.FetchAndParse(ctx, group)
}

func (o *Orchestrator) tryStart() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.running {
		return false
	}
	o.running = true
	return true
}

func (o *Orchestrator) finish() {
	o.mu.Lock()
	o.running = false
	o.mu.Unlock()
}

func (o *Orchestrator) storeResult(result *RunResult) {
	o.mu.Lock()
	o.lastResult = result
	o.mu.Unlock()
}

// groupByAdapter groups sources by adapter id, preserving first-seen order
// so higher-priority sources keep their position
func groupByAdapter(sources []catalog.Source) ([]string, map[string][]catalog.Source) {
	var order []string
	groups := make(map[string][]catalog.Source)
	for _, source := range sources {
		if _, seen := groups[source.AdapterID]; !seen {
			order = append(order, source.AdapterID)
		}
		groups[source.AdapterID] = append(groups[source.AdapterID], source)
	}
	return order, groups
}

// groupBySlug groups parsed items by their source slug, preserving order
func groupBySlug(items []adapter.ParsedItem) ([]string, map[string][]adapter.ParsedItem) {
	var order []string
	grouped := make(map[string][]adapter.ParsedItem)
	for _, item := range items {
		if _, seen := grouped[item.SourceSlug]; !seen {
			order = append(order, item.SourceSlug)
		}
		grouped[item.SourceSlug] = append(grouped[item.SourceSlug], item)
	}
	return order, grouped
}
