// Package monitoring collects run health metrics and raises webhook alerts
// when failure or degradation rates climb past configured thresholds.
package monitoring

import (
	"context"
	"time"

	"github.com/rotisserie/eris"

	"github.com/wayfare-group/trip-planner-cli/internal/model"
	"github.com/wayfare-group/trip-planner-cli/internal/store"
)

// MetricsSnapshot holds a point-in-time view of planner health.
type MetricsSnapshot struct {
	// Run metrics (within lookback window).
	RunsTotal    int     `json:"runs_total"`
	RunsComplete int     `json:"runs_complete"`
	RunsDegraded int     `json:"runs_degraded"`
	RunsFailed   int     `json:"runs_failed"`
	RunsQueued   int     `json:"runs_queued"`
	FailRate     float64 `json:"fail_rate"`
	DegradedRate float64 `json:"degraded_rate"`

	// Output quality.
	AvgPOIs float64 `json:"avg_pois"`

	// Provider errors recorded on finished runs, keyed by stage.
	StageErrors map[string]int `json:"stage_errors,omitempty"`

	// Metadata.
	LookbackHours int       `json:"lookback_hours"`
	CollectedAt   time.Time `json:"collected_at"`
}

// Collector gathers metrics from the run store.
type Collector struct {
	store store.Store
}

// NewCollector creates a new metrics collector.
func NewCollector(st store.Store) *Collector {
	return &Collector{store: st}
}

// Collect gathers a snapshot of run metrics over the given lookback window.
func (c *Collector) Collect(ctx context.Context, lookbackHours int) (*MetricsSnapshot, error) {
	snap := &MetricsSnapshot{
		StageErrors:   map[string]int{},
		LookbackHours: lookbackHours,
		CollectedAt:   time.Now().UTC(),
	}

	cutoff := time.Now().UTC().Add(-time.Duration(lookbackHours) * time.Hour)

	runs, err := c.store.ListRuns(ctx, store.RunFilter{
		CreatedAfter: cutoff,
		Limit:        10000,
	})
	if err != nil {
		return nil, eris.Wrap(err, "monitoring: list runs")
	}

	snap.RunsTotal = len(runs)
	var totalPOIs int
	var withResult int

	for _, r := range runs {
		switch r.Status {
		case model.RunStatusComplete:
			snap.RunsComplete++
		case model.RunStatusDegraded:
			snap.RunsDegraded++
		case model.RunStatusFailed:
			snap.RunsFailed++
		case model.RunStatusQueued:
			snap.RunsQueued++
		}
		if r.Result != nil {
			totalPOIs += len(r.Result.POIs)
			withResult++
			for _, se := range r.Result.Errors {
				snap.StageErrors[string(se.Stage)]++
			}
		}
	}

	finished := snap.RunsComplete + snap.RunsDegraded + snap.RunsFailed
	if finished > 0 {
		snap.FailRate = float64(snap.RunsFailed) / float64(finished)
		snap.DegradedRate = float64(snap.RunsDegraded) / float64(finished)
	}
	if withResult > 0 {
		snap.AvgPOIs = float64(totalPOIs) / float64(withResult)
	}

	return snap, nil
}
