package trip

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/wayfare-group/trip-planner-cli/internal/model"
)

func testItinerary() []model.ItineraryDay {
	return []model.ItineraryDay{
		{
			Label: "Monday, June 02",
			Activities: []model.Activity{
				{TimeSlot: timeSlots[0], Name: "Kandy Lake"},
				{TimeSlot: timeSlots[1], Name: "Old Fort"},
			},
		},
	}
}

func TestStageSummarize_UsesLLMText(t *testing.T) {
	p, m := newTestPipeline(testConfig())
	m.gen.On("Generate", mock.Anything, mock.Anything).
		Return("Two relaxed days around Kandy's lakeside heart.\n", nil)

	state := model.NewTripState("Kandy", model.Preferences{DurationDays: 1})
	state.SetItinerary(testItinerary())

	require.NoError(t, p.stageSummarize(context.Background(), state))
	result := state.Snapshot()
	assert.Equal(t, "Two relaxed days around Kandy's lakeside heart.", result.Summary)
	assert.Empty(t, result.Errors)
}

func TestStageSummarize_FallsBackWhenChainExhausted(t *testing.T) {
	p, m := newTestPipeline(testConfig())
	m.gen.On("Generate", mock.Anything, mock.Anything).
		Return("", errors.New("model overloaded"))

	state := model.NewTripState("Kandy", model.Preferences{DurationDays: 1})
	state.SetItinerary(testItinerary())

	require.NoError(t, p.stageSummarize(context.Background(), state))
	result := state.Snapshot()

	assert.Contains(t, result.Summary, "Travel summary for Kandy:")
	assert.Contains(t, result.Summary, "Monday, June 02: Kandy Lake, Old Fort")
	require.NotEmpty(t, result.Errors)
	assert.Equal(t, model.StageSummarize, result.Errors[0].Stage)
}

func TestStageSummarize_EmptyItinerary(t *testing.T) {
	p, _ := newTestPipeline(testConfig())

	state := model.NewTripState("Kandy", model.Preferences{DurationDays: 1})
	require.NoError(t, p.stageSummarize(context.Background(), state))

	assert.Equal(t, "Basic travel plan for Kandy has been generated.", state.Snapshot().Summary)
}

func TestSummaryPrompt(t *testing.T) {
	prompt := summaryPrompt("Kandy", testItinerary())
	assert.Contains(t, prompt, "1-day trip to Kandy")
	assert.Contains(t, prompt, "Monday, June 02: Kandy Lake, Old Fort")
}
