package trip

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/wayfare-group/trip-planner-cli/internal/interests"
	"github.com/wayfare-group/trip-planner-cli/internal/model"
	"github.com/wayfare-group/trip-planner-cli/pkg/llm"
	"github.com/wayfare-group/trip-planner-cli/pkg/opentripmap"
)

const discoverSystemPrompt = "You are a travel research assistant. " +
	"Answer only with the JSON document requested, no prose."

// stageFetch runs the POI and hotel branches in parallel. A failed branch
// degrades to an empty list; it never aborts the sibling.
func (p *Pipeline) stageFetch(ctx context.Context, state *model.TripState) error {
	coords := state.Coordinates
	if coords == nil {
		return eris.New("trip: fetch requires geocoded coordinates")
	}
	profile := p.registry.Get(state.Preferences.VacationType)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		pois := p.discoverPOIs(gctx, state, profile)
		state.SetPOIs(pois)
		return nil
	})

	if state.Preferences.IncludeHotels {
		g.Go(func() error {
			hotels, err := p.fetchHotels(gctx, *coords, profile)
			if err != nil {
				state.AddError(model.StageFetching, err.Error())
				hotels = nil
			}
			state.SetHotels(hotels)
			return nil
		})
	}

	_ = g.Wait()
	return nil
}

// discoverPOIs runs LLM discovery and the structured radius search
// concurrently and merges LLM results first, then API results, regardless
// of which branch finished first. Either branch failing degrades to the
// other branch's results alone.
func (p *Pipeline) discoverPOIs(ctx context.Context, state *model.TripState, profile interests.Profile) []model.Entity {
	coords := *state.Coordinates
	limit := p.maxPOIs(state.Preferences)

	var llmPOIs, apiPOIs []model.Entity
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		pois, err := p.discoverLLM(gctx, state.Location, state.Preferences, profile)
		if err != nil {
			state.AddError(model.StageFetching, eris.Wrap(err, "trip: llm discovery").Error())
			return nil
		}
		llmPOIs = pois
		return nil
	})

	g.Go(func() error {
		pois, err := p.otm.Radius(gctx, opentripmap.RadiusRequest{
			Lat:     coords.Lat,
			Lon:     coords.Lon,
			RadiusM: p.cfg.OpenTripMap.RadiusM,
			Kinds:   profile.KindsParam(),
			Limit:   limit,
		})
		if err != nil {
			state.AddError(model.StageFetching, eris.Wrap(err, "trip: radius discovery").Error())
			return nil
		}
		apiPOIs = pois
		return nil
	})

	_ = g.Wait()

	merged := make([]model.Entity, 0, len(llmPOIs)+len(apiPOIs))
	for _, e := range append(llmPOIs, apiPOIs...) {
		if profile.AvoidedName(e.Name) {
			continue
		}
		merged = append(merged, e)
	}

	zap.L().Info("trip: discovery merged",
		zap.Int("llm", len(llmPOIs)),
		zap.Int("api", len(apiPOIs)),
		zap.Int("merged", len(merged)),
	)
	return merged
}

// llmPOIDoc is the JSON document the discovery prompt asks for.
type llmPOIDoc struct {
	POIs []struct {
		Name          string   `json:"name"`
		Description   string   `json:"description"`
		Category      string   `json:"category"`
		VisitDuration string   `json:"estimated_visit_duration"`
		Tags          []string `json:"tags"`
		BestTime      string   `json:"best_time_to_visit"`
	} `json:"pois"`
}

// discoverLLM asks the LLM chain for attractions at the destination and
// normalizes the response into entities. Coordinates are intentionally not
// requested; enrichment supplies them from the structured details provider.
func (p *Pipeline) discoverLLM(ctx context.Context, location string, prefs model.Preferences, profile interests.Profile) ([]model.Entity, error) {
	limit := p.maxPOIs(prefs)

	var sb strings.Builder
	fmt.Fprintf(&sb, "List up to %d tourist attractions in %s.\n", limit, location)
	if len(prefs.Interests) > 0 {
		fmt.Fprintf(&sb, "Traveler interests: %s.\n", strings.Join(prefs.Interests, ", "))
	}
	if len(profile.Keywords) > 0 {
		fmt.Fprintf(&sb, "Prefer places matching: %s.\n", strings.Join(profile.Keywords, ", "))
	}
	sb.WriteString(`Return JSON without coordinates:
{
  "pois": [
    {
      "name": "Exact attraction name",
      "description": "Detailed description",
      "category": "religious|historic|natural|cultural|museum|entertainment",
      "estimated_visit_duration": "30 minutes|1 hour|2 hours|half day|full day",
      "tags": ["tag1", "tag2"],
      "best_time_to_visit": "morning|afternoon|evening|any time"
    }
  ]
}
Do NOT include latitude or longitude.`)

	text, err := p.generate(ctx, llm.Request{
		System: discoverSystemPrompt,
		Prompt: sb.String(),
	})
	if err != nil {
		return nil, err
	}

	var doc llmPOIDoc
	if err := json.Unmarshal([]byte(llm.ExtractJSON(text)), &doc); err != nil {
		return nil, eris.Wrap(err, "trip: parse llm discovery response")
	}

	entities := make([]model.Entity, 0, len(doc.POIs))
	for _, poi := range doc.POIs {
		if strings.TrimSpace(poi.Name) == "" {
			continue
		}
		entities = append(entities, model.Entity{
			ID:            uuid.NewString(),
			Name:          strings.TrimSpace(poi.Name),
			Category:      poi.Category,
			Description:   poi.Description,
			Source:        model.SourceLLM,
			Tags:          poi.Tags,
			VisitDuration: poi.VisitDuration,
			BestTime:      poi.BestTime,
		})
		if len(entities) >= limit {
			break
		}
	}
	return entities, nil
}

// stageMerge collapses near-duplicate entities. LLM entities come first in
// the merged slice, so first-wins dedupe keeps them over API duplicates.
func (p *Pipeline) stageMerge(_ context.Context, state *model.TripState) error {
	snapshot := state.Snapshot()
	state.SetPOIs(p.dedupe.Run(snapshot.POIs))
	state.SetHotels(p.dedupe.Run(snapshot.Hotels))
	return nil
}

// stageRank orders POIs by composite score and trims to the run cap.
func (p *Pipeline) stageRank(_ context.Context, state *model.TripState) error {
	snapshot := state.Snapshot()
	state.SetPOIs(p.ranker.Top(snapshot.POIs, p.maxPOIs(state.Preferences)))
	return nil
}
