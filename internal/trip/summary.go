package trip

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/wayfare-group/trip-planner-cli/internal/model"
	"github.com/wayfare-group/trip-planner-cli/pkg/llm"
)

const summarySystemPrompt = "You are a travel writer. Write a short, " +
	"engaging trip summary in plain prose. No markdown, no lists."

// stageSummarize asks the LLM chain for a narrative summary of the built
// itinerary. When the chain is exhausted the deterministic fallback text is
// used instead; the run still completes.
func (p *Pipeline) stageSummarize(ctx context.Context, state *model.TripState) error {
	snapshot := state.Snapshot()
	if len(snapshot.Itinerary) == 0 {
		state.SetSummary(fmt.Sprintf("Basic travel plan for %s has been generated.", snapshot.Location))
		return nil
	}

	text, err := p.generate(ctx, llm.Request{
		System: summarySystemPrompt,
		Prompt: summaryPrompt(snapshot.Location, snapshot.Itinerary),
	})
	if err != nil {
		zap.L().Warn("trip: llm summary unavailable, using deterministic fallback",
			zap.Error(err),
		)
		state.AddError(model.StageSummarize, err.Error())
		state.SetSummary(fallbackSummary(snapshot.Location, snapshot.Itinerary))
		return nil
	}
	state.SetSummary(strings.TrimSpace(text))
	return nil
}

// summaryPrompt renders the itinerary as compact input for the LLM.
func summaryPrompt(location string, days []model.ItineraryDay) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Summarize this %d-day trip to %s in 3-4 sentences:\n", len(days), location)
	for _, day := range days {
		names := make([]string, 0, len(day.Activities))
		for _, a := range day.Activities {
			names = append(names, a.Name)
		}
		fmt.Fprintf(&sb, "%s: %s\n", day.Label, strings.Join(names, ", "))
	}
	return sb.String()
}

// fallbackSummary is the deterministic text used when no LLM responds.
func fallbackSummary(location string, days []model.ItineraryDay) string {
	lines := []string{fmt.Sprintf("Travel summary for %s:", location)}
	for _, day := range days {
		names := make([]string, 0, len(day.Activities))
		for _, a := range day.Activities {
			names = append(names, a.Name)
		}
		lines = append(lines, fmt.Sprintf("%s: %s", day.Label, strings.Join(names, ", ")))
	}
	return strings.Join(lines, "\n")
}
