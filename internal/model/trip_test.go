package model

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBudgetTier_DailyUSD(t *testing.T) {
	assert.InDelta(t, 50, BudgetLow.DailyUSD(), 0.001)
	assert.InDelta(t, 100, BudgetMedium.DailyUSD(), 0.001)
	assert.InDelta(t, 200, BudgetHigh.DailyUSD(), 0.001)
	// Unknown tiers fall back to medium.
	assert.InDelta(t, 100, BudgetTier("lavish").DailyUSD(), 0.001)
	assert.InDelta(t, 100, BudgetTier("").DailyUSD(), 0.001)
}

func TestSource_Structured(t *testing.T) {
	assert.True(t, SourceOpenTripMap.Structured())
	assert.True(t, SourcePlaces.Structured())
	assert.False(t, SourceLLM.Structured())
	assert.False(t, SourceNominatim.Structured())
	assert.False(t, SourceFallback.Structured())
}

func TestEntity_HasRatingData(t *testing.T) {
	assert.True(t, Entity{Rating: 4.2}.HasRatingData())
	assert.True(t, Entity{ReviewCount: 3}.HasRatingData())
	assert.False(t, Entity{Name: "Unrated"}.HasRatingData())
}

func TestEntity_Overlay(t *testing.T) {
	price := 2
	e := Entity{
		Name:        "Temple of the Tooth",
		Category:    "temple",
		Description: "LLM description",
		Source:      SourceLLM,
	}

	e.Overlay(Entity{
		Rating:      4.7,
		ReviewCount: 1200,
		Address:     "Sri Dalada Veediya, Kandy",
		PriceLevel:  &price,
		Lat:         7.2936,
		Lon:         80.6413,
		Reviews:     []Review{{Author: "A", Rating: 5, Text: "unmissable"}},
	})

	assert.InDelta(t, 4.7, e.Rating, 0.001)
	assert.Equal(t, 1200, e.ReviewCount)
	assert.Equal(t, "Sri Dalada Veediya, Kandy", e.Address)
	require.NotNil(t, e.PriceLevel)
	assert.Equal(t, 2, *e.PriceLevel)
	assert.InDelta(t, 7.2936, e.Lat, 0.0001)
	require.Len(t, e.Reviews, 1)
	// Existing category and source survive.
	assert.Equal(t, "temple", e.Category)
	assert.Equal(t, SourceLLM, e.Source)
}

func TestEntity_Overlay_BlanksNeverOverwrite(t *testing.T) {
	e := Entity{
		Name:        "Old Fort",
		Description: "kept",
		Rating:      4.1,
		Lat:         6.03,
		Lon:         80.22,
	}

	e.Overlay(Entity{})

	assert.Equal(t, "kept", e.Description)
	assert.InDelta(t, 4.1, e.Rating, 0.001)
	assert.InDelta(t, 6.03, e.Lat, 0.001)
}

func TestTripState_StageAndTimeline(t *testing.T) {
	st := NewTripState("Kandy", Preferences{DurationDays: 3})
	assert.Equal(t, StageIdle, st.Stage)

	st.SetStage(StageGeocoding, "orchestrator")
	st.SetStage(StageFetching, "orchestrator")

	snap := st.Snapshot()
	assert.Equal(t, StageFetching, snap.Stage)
	require.Len(t, snap.Timeline, 2)
	assert.Equal(t, StageGeocoding, snap.Timeline[0].Stage)
	assert.Equal(t, "orchestrator", snap.Timeline[0].Actor)
	assert.False(t, snap.Timeline[0].Timestamp.IsZero())
}

func TestTripState_ErrorsAppendOnly(t *testing.T) {
	st := NewTripState("Kandy", Preferences{})
	st.AddError(StageFetching, "lodging quota exhausted")
	st.AddError(StageEnriching, "no details match")

	snap := st.Snapshot()
	require.Len(t, snap.Errors, 2)
	assert.Equal(t, StageFetching, snap.Errors[0].Stage)
	assert.Equal(t, StageEnriching, snap.Errors[1].Stage)
}

func TestTripState_SnapshotIsolation(t *testing.T) {
	st := NewTripState("Kandy", Preferences{})
	st.SetPOIs([]Entity{{ID: "p1", Name: "Temple"}})

	snap := st.Snapshot()
	snap.POIs[0].Name = "mutated"
	snap.Errors = append(snap.Errors, StageError{Stage: StageFailed})

	fresh := st.Snapshot()
	assert.Equal(t, "Temple", fresh.POIs[0].Name)
	assert.Empty(t, fresh.Errors)
}

func TestTripState_ConcurrentWrites(t *testing.T) {
	st := NewTripState("Kandy", Preferences{})

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		st.SetPOIs([]Entity{{ID: "p1"}})
		st.AddError(StageFetching, "poi branch")
	}()
	go func() {
		defer wg.Done()
		st.SetHotels([]Entity{{ID: "h1"}})
		st.AddError(StageFetching, "hotel branch")
	}()
	wg.Wait()

	snap := st.Snapshot()
	assert.Len(t, snap.POIs, 1)
	assert.Len(t, snap.Hotels, 1)
	assert.Len(t, snap.Errors, 2)
}
