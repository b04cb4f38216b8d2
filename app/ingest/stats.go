package ingest

import (
	"sync/atomic"
	"time"
)

// Stats accumulates run-scoped counters. Batches complete in any order, so
// all counters are atomic and purely additive.
type Stats struct {
	totalItems       atomic.Int64
	successful       atomic.Int64
	failed           atomic.Int64
	skippedExisting  atomic.Int64
	sourcesProcessed atomic.Int64
	adapterFailures  atomic.Int64

	startTime time.Time
	endTime   time.Time
}

// NewStats creates run statistics with the start time set to now
func NewStats() *Stats {
	return &Stats{startTime: time.Now().UTC()}
}

func (s *Stats) AddTotal(n int)       { s.totalItems.Add(int64(n)) }
func (s *Stats) AddSuccessful(n int)  { s.successful.Add(int64(n)) }
func (s *Stats) AddFailed(n int)      { s.failed.Add(int64(n)) }
func (s *Stats) AddSkipped(n int)     { s.skippedExisting.Add(int64(n)) }
func (s *Stats) SourceProcessed()     { s.sourcesProcessed.Add(1) }
func (s *Stats) AdapterFailed()       { s.adapterFailures.Add(1) }
func (s *Stats) Finish()              { s.endTime = time.Now().UTC() }

// Snapshot returns a copy of the counters for reporting
func (s *Stats) Snapshot() StatsSnapshot {
	return StatsSnapshot{
		TotalItems:       s.totalItems.Load(),
		Successful:       s.successful.Load(),
		Failed:           s.failed.Load(),
		SkippedExisting:  s.skippedExisting.Load(),
		SourcesProcessed: s.sourcesProcessed.Load(),
		AdapterFailures:  s.adapterFailures.Load(),
		StartTime:        s.startTime,
		EndTime:          s.endTime,
	}
}

// StatsSnapshot is an immutable view of run statistics
type StatsSnapshot struct {
	TotalItems       int64     `json:"total_items"`
	Successful       int64     `json:"successful"`
	Failed           int64     `json:"failed"`
	SkippedExisting  int64     `json:"skipped_existing"`
	SourcesProcessed int64     `json:"sources_processed"`
	AdapterFailures  int64     `json:"adapter_failures"`
	StartTime        time.Time `json:"start_time"`
	EndTime          time.Time `json:"end_time"`
}

// Duration returns the wall-clock duration of the run
func (s StatsSnapshot) Duration() time.Duration {
	if s.EndTime.IsZero() {
		return 0
	}
	return s.EndTime.Sub(s.StartTime)
}
