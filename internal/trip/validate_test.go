package trip

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/wayfare-group/trip-planner-cli/internal/model"
)

func TestNormalizePreferences(t *testing.T) {
	tests := []struct {
		name         string
		prefs        model.Preferences
		wantErr      string
		wantDuration int
	}{
		{
			name:         "no dates pass through",
			prefs:        model.Preferences{DurationDays: 3},
			wantDuration: 3,
		},
		{
			name:         "valid range derives duration",
			prefs:        model.Preferences{StartDate: "2026-09-01", EndDate: "2026-09-03"},
			wantDuration: 3,
		},
		{
			name:         "explicit duration wins over range",
			prefs:        model.Preferences{StartDate: "2026-09-01", EndDate: "2026-09-03", DurationDays: 5},
			wantDuration: 5,
		},
		{
			name:         "single day range",
			prefs:        model.Preferences{StartDate: "2026-09-01", EndDate: "2026-09-01"},
			wantDuration: 1,
		},
		{
			name:    "malformed start date",
			prefs:   model.Preferences{StartDate: "09/01/2026"},
			wantErr: "start_date",
		},
		{
			name:    "malformed end date",
			prefs:   model.Preferences{StartDate: "2026-09-01", EndDate: "next friday"},
			wantErr: "end_date",
		},
		{
			name:    "end before start",
			prefs:   model.Preferences{StartDate: "2026-09-03", EndDate: "2026-09-01"},
			wantErr: "before start_date",
		},
		{
			name:    "end without start",
			prefs:   model.Preferences{EndDate: "2026-09-03"},
			wantErr: "without start_date",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := normalizePreferences(tt.prefs)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantDuration, got.DurationDays)
		})
	}
}

func TestRun_MalformedStartDateAbortsRun(t *testing.T) {
	p, m := newTestPipeline(testConfig())

	result, err := p.Run(context.Background(), "Kandy", model.Preferences{StartDate: "09/01/2026"})
	require.Error(t, err)
	require.NotNil(t, result, "partial state is never discarded")

	assert.Equal(t, model.StageFailed, result.Stage)
	require.NotEmpty(t, result.Errors)
	assert.Equal(t, model.StageValidating, result.Errors[0].Stage)

	// No provider is touched for unusable input.
	m.places.AssertNotCalled(t, "TextSearch", mock.Anything, mock.Anything)
	m.nominatim.AssertNotCalled(t, "Geocode", mock.Anything, mock.Anything)
}

func TestRun_DateRangeDrivesItineraryLength(t *testing.T) {
	p, m := newTestPipeline(testConfig())

	geoHit := []model.Entity{{ID: "g1", Name: "Kandy", Lat: 7.2906, Lon: 80.6337, Source: model.SourcePlaces}}
	m.places.On("TextSearch", mock.Anything, mock.Anything).Return(geoHit, nil)
	m.places.On("Details", mock.Anything, mock.Anything).Return(&model.Entity{ID: "g1", Rating: 4.0}, nil)
	m.gen.On("Generate", mock.Anything, mock.Anything).Return(discoveryJSON, nil)
	m.otm.On("Radius", mock.Anything, mock.Anything).Return([]model.Entity{
		{ID: "otm1", Name: "Kandy Lake", Lat: 7.2906, Lon: 80.642, Source: model.SourceOpenTripMap},
		{ID: "otm2", Name: "Botanic Gardens", Lat: 7.2686, Lon: 80.5961, Source: model.SourceOpenTripMap},
		{ID: "otm3", Name: "Royal Palace", Lat: 7.2934, Lon: 80.6416, Source: model.SourceOpenTripMap},
		{ID: "otm4", Name: "Old Fortress", Lat: 7.2801, Lon: 80.6202, Source: model.SourceOpenTripMap},
	}, nil)
	m.router.On("Directions", mock.Anything, mock.Anything).Return(&model.Route{DistanceKm: 3, DurationMin: 40}, nil)

	result, err := p.Run(context.Background(), "Kandy", model.Preferences{
		StartDate: "2026-09-01",
		EndDate:   "2026-09-01",
	})
	require.NoError(t, err)
	require.NotEmpty(t, result.Itinerary)
	assert.Len(t, result.Itinerary, 1, "a one-day range caps the itinerary at one day")
}
