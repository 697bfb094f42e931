package model

import "time"

// RunStatus tracks a planning run through the store.
type RunStatus string

const (
	RunStatusQueued    RunStatus = "queued"
	RunStatusPlanning  RunStatus = "planning"
	RunStatusComplete  RunStatus = "complete"
	RunStatusDegraded  RunStatus = "degraded" // finished, but with recorded errors
	RunStatusFailed    RunStatus = "failed"
)

// Run is one stored planning session.
type Run struct {
	ID          string      `json:"id"`
	Destination string      `json:"destination"`
	Preferences Preferences `json:"preferences"`
	Status      RunStatus   `json:"status"`
	Result      *TripResult `json:"result,omitempty"`
	CreatedAt   time.Time   `json:"created_at"`
	UpdatedAt   time.Time   `json:"updated_at"`
}

// RunStage is a stored stage record for one run.
type RunStage struct {
	ID         string    `json:"id"`
	RunID      string    `json:"run_id"`
	Stage      Stage     `json:"stage"`
	Status     string    `json:"status"`
	DurationMS int64     `json:"duration_ms"`
	Error      string    `json:"error,omitempty"`
	StartedAt  time.Time `json:"started_at"`
}
