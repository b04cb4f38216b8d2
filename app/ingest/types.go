package ingest

// RunResult is the structured outcome of one ingestion run. Success together
// with Failed > 0 is the expected steady state: partial failure does not make
// a run unsuccessful.
type RunResult struct {
	Success bool          `json:"success"`
	Reason  string        `json:"reason,omitempty"`
	Stats   StatsSnapshot `json:"stats"`
}
