package main

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/wayfare-group/trip-planner-cli/internal/model"
)

func TestComputeRunStats(t *testing.T) {
	now := time.Now()
	runs := []model.Run{
		{Status: model.RunStatusComplete, CreatedAt: now.Add(-90 * time.Second), UpdatedAt: now.Add(-60 * time.Second),
			Result: &model.TripResult{POIs: make([]model.Entity, 10)}},
		{Status: model.RunStatusDegraded, CreatedAt: now.Add(-120 * time.Second), UpdatedAt: now.Add(-60 * time.Second),
			Result: &model.TripResult{POIs: make([]model.Entity, 6)}},
		{Status: model.RunStatusFailed, CreatedAt: now, UpdatedAt: now},
		{Status: model.RunStatusQueued, CreatedAt: now, UpdatedAt: now},
	}

	s := computeRunStats(runs)
	assert.Equal(t, 4, s.Total)
	assert.Equal(t, 1, s.Complete)
	assert.Equal(t, 1, s.Degraded)
	assert.Equal(t, 1, s.Failed)
	assert.Equal(t, 1, s.Other)
	assert.InDelta(t, 45.0, s.AvgDurSecs, 0.1) // (30s + 60s) / 2
	assert.InDelta(t, 8.0, s.AvgPOIs, 0.001)
}

func TestComputeRunStats_Empty(t *testing.T) {
	s := computeRunStats(nil)
	assert.Equal(t, 0, s.Total)
	assert.Equal(t, 0.0, s.AvgDurSecs)
	assert.Equal(t, 0.0, s.AvgPOIs)
}

func TestFormatRunsList(t *testing.T) {
	now := time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)
	runs := []model.Run{
		{
			ID:          "0f2c5a1e-9b7d-4c3a-8e6f-1a2b3c4d5e6f",
			Destination: "Kandy, Sri Lanka",
			Status:      model.RunStatusComplete,
			CreatedAt:   now,
			UpdatedAt:   now.Add(42 * time.Second),
			Result:      &model.TripResult{POIs: make([]model.Entity, 9)},
		},
		{
			ID:          "aaaabbbb-0000-1111-2222-333344445555",
			Destination: "Somewhere With A Very Long Destination Name",
			Status:      model.RunStatusFailed,
			CreatedAt:   now,
			UpdatedAt:   now,
		},
	}

	var buf bytes.Buffer
	formatRunsList(&buf, runs)

	out := buf.String()
	assert.Contains(t, out, "0f2c5a1e")
	assert.Contains(t, out, "Kandy, Sri Lanka")
	assert.Contains(t, out, "complete")
	assert.Contains(t, out, "9")
	assert.Contains(t, out, "2026-03-14 09:30")
	// Long destinations get truncated.
	assert.Contains(t, out, "Somewhere With A Very Long ...")
	assert.NotContains(t, out, "Very Long Destination Name")
}

func TestFormatRunStats(t *testing.T) {
	var buf bytes.Buffer
	formatRunStats(&buf, runStats{
		Total: 10, Complete: 6, Degraded: 2, Failed: 2,
		AvgDurSecs: 31.5, AvgPOIs: 7.2,
	})

	out := buf.String()
	assert.Contains(t, out, "Total runs:")
	assert.Contains(t, out, "31.5s")
	assert.Contains(t, out, "7.2")
}

func TestTruncateID(t *testing.T) {
	assert.Equal(t, "0f2c5a1e", truncateID("0f2c5a1e-9b7d-4c3a"))
	assert.Equal(t, "short", truncateID("short"))
}
