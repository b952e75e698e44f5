package scheduler

import "time"

// CycleReport summarizes one pass over the enabled sources.
type CycleReport struct {
	StartedAt    time.Time `json:"started_at"`
	FinishedAt   time.Time `json:"finished_at"`
	Sources      int       `json:"sources"`
	Failed       int       `json:"failed"`
	Candidates   int       `json:"candidates"`
	Accepted     int       `json:"accepted"`
	Inserted     int       `json:"inserted"`
	Duplicates   int       `json:"duplicates"`
	Skipped      int       `json:"skipped"`
	SubmitErrors int       `json:"submit_errors"`
	LeaseSkipped bool      `json:"lease_skipped,omitempty"`
	Interrupted  bool      `json:"interrupted,omitempty"`
	Error        string    `json:"error,omitempty"`
}

// Duration is how long the cycle took.
func (r CycleReport) Duration() time.Duration {
	if r.FinishedAt.IsZero() {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}
