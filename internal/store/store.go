// Package store persists planning runs and their stage records. SQLite is
// the default backend; Postgres is available for shared deployments.
package store

import (
	"context"
	"time"

	"github.com/wayfare-group/trip-planner-cli/internal/model"
)

// RunFilter specifies criteria for listing runs.
type RunFilter struct {
	Status       model.RunStatus `json:"status,omitempty"`
	Destination  string          `json:"destination,omitempty"`
	CreatedAfter time.Time       `json:"created_after,omitempty"`
	Limit        int             `json:"limit,omitempty"`
	Offset       int             `json:"offset,omitempty"`
}

// Store defines the persistence interface for planning runs.
type Store interface {
	// Runs
	CreateRun(ctx context.Context, destination string, prefs model.Preferences) (*model.Run, error)
	UpdateRunStatus(ctx context.Context, runID string, status model.RunStatus) error
	CompleteRun(ctx context.Context, runID string, status model.RunStatus, result *model.TripResult) error
	GetRun(ctx context.Context, runID string) (*model.Run, error)
	ListRuns(ctx context.Context, filter RunFilter) ([]model.Run, error)

	// Stage records
	CreateStage(ctx context.Context, runID string, stage model.Stage) (*model.RunStage, error)
	CompleteStage(ctx context.Context, stageID, status string, durationMS int64, errMsg string) error

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}
