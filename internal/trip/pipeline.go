// Package trip orchestrates the planning pipeline: geocode the destination,
// fan out to POI and hotel providers, merge, rank, enrich, route, build the
// day-by-day itinerary and summarize it.
package trip

import (
	"context"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/wayfare-group/trip-planner-cli/internal/config"
	"github.com/wayfare-group/trip-planner-cli/internal/dedupe"
	"github.com/wayfare-group/trip-planner-cli/internal/events"
	"github.com/wayfare-group/trip-planner-cli/internal/fallback"
	"github.com/wayfare-group/trip-planner-cli/internal/interests"
	"github.com/wayfare-group/trip-planner-cli/internal/model"
	"github.com/wayfare-group/trip-planner-cli/internal/rank"
	"github.com/wayfare-group/trip-planner-cli/internal/resilience"
	"github.com/wayfare-group/trip-planner-cli/pkg/llm"
	"github.com/wayfare-group/trip-planner-cli/pkg/nominatim"
	"github.com/wayfare-group/trip-planner-cli/pkg/openroute"
	"github.com/wayfare-group/trip-planner-cli/pkg/opentripmap"
	"github.com/wayfare-group/trip-planner-cli/pkg/places"
)

// Pipeline runs one planning session per call. All provider dependencies are
// interfaces so stages can be tested against mocks.
type Pipeline struct {
	cfg        *config.Config
	bus        *events.Bus
	registry   *interests.Registry
	places     places.Client
	nominatim  nominatim.Client
	otm        opentripmap.Client
	router     openroute.Client
	generators []llm.Generator
	enricher   *Enricher
	dedupe     *dedupe.Deduplicator
	ranker     *rank.Ranker

	// breakers outlive individual runs, so a provider that keeps timing out
	// is skipped on later runs until its reset window passes.
	breakers *resilience.ProviderBreakers
}

// New creates a Pipeline with all dependencies. The generators slice is the
// LLM fallback order (primary first).
func New(
	cfg *config.Config,
	bus *events.Bus,
	registry *interests.Registry,
	placesClient places.Client,
	nominatimClient nominatim.Client,
	otmClient opentripmap.Client,
	routerClient openroute.Client,
	generators []llm.Generator,
) *Pipeline {
	return &Pipeline{
		cfg:        cfg,
		bus:        bus,
		registry:   registry,
		places:     placesClient,
		nominatim:  nominatimClient,
		otm:        otmClient,
		router:     routerClient,
		generators: generators,
		enricher:   NewEnricher(placesClient, cfg.Pipeline.EnrichConcurrency),
		dedupe:     dedupe.New(cfg.Pipeline.DedupLengthDelta),
		ranker:     rank.New(cfg.Ranking),
		breakers:   resilience.NewProviderBreakers(cfg.Pipeline.Breaker()),
	}
}

// seqOpts assembles the resilience stack shared by every fallback chain:
// the per-attempt time box, transient-error retries inside it, and the
// pipeline's long-lived per-provider circuit breakers.
func seqOpts[Q, T any](cfg config.PipelineConfig, breakers *resilience.ProviderBreakers) []fallback.Option[Q, T] {
	return []fallback.Option[Q, T]{
		fallback.WithTimeout[Q, T](cfg.ProviderTimeout()),
		fallback.WithRetry[Q, T](cfg.Retry()),
		fallback.WithBreakers[Q, T](breakers),
	}
}

// stageFn runs one stage against the shared state. A non-nil error from a
// non-fatal stage is recorded and the pipeline continues degraded.
type stageFn func(ctx context.Context, state *model.TripState) error

// Run executes the full pipeline for one destination. The returned result is
// never nil: on failure it carries everything accumulated up to that point
// plus the errors list.
func (p *Pipeline) Run(ctx context.Context, location string, prefs model.Preferences) (*model.TripResult, error) {
	log := zap.L().With(zap.String("destination", location))
	log.Info("trip: starting planning run")

	normalized, err := normalizePreferences(prefs)
	if err != nil {
		state := model.NewTripState(location, prefs)
		p.advance(state, model.StageValidating, "")
		state.AddError(model.StageValidating, err.Error())
		return p.fail(state, model.StageValidating, err)
	}
	state := model.NewTripState(location, normalized)

	stages := []struct {
		stage model.Stage
		fn    stageFn
		fatal bool
	}{
		{model.StageGeocoding, p.stageGeocode, true},
		{model.StageFetching, p.stageFetch, false},
		{model.StageMerging, p.stageMerge, false},
		{model.StageRanking, p.stageRank, false},
		{model.StageEnriching, p.stageEnrich, false},
		{model.StageRouting, p.stageRoute, false},
		{model.StageItinerary, p.stageItinerary, false},
		{model.StageSummarize, p.stageSummarize, false},
	}

	for _, st := range stages {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return p.fail(state, st.stage, ctxErr)
		}

		p.advance(state, st.stage, "")
		start := time.Now()
		err := st.fn(ctx, state)
		duration := time.Since(start).Milliseconds()

		if err != nil {
			state.AddError(st.stage, err.Error())
			if st.fatal {
				log.Error("trip: stage failed",
					zap.String("stage", string(st.stage)),
					zap.Int64("duration_ms", duration),
					zap.Error(err),
				)
				return p.fail(state, st.stage, err)
			}
			log.Warn("trip: stage degraded",
				zap.String("stage", string(st.stage)),
				zap.Int64("duration_ms", duration),
				zap.Error(err),
			)
			continue
		}
		log.Info("trip: stage complete",
			zap.String("stage", string(st.stage)),
			zap.Int64("duration_ms", duration),
		)
	}

	p.advance(state, model.StageDone, "planning complete")
	result := state.Snapshot()
	return &result, nil
}

// advance records the transition on the state and publishes it on the bus.
func (p *Pipeline) advance(state *model.TripState, stage model.Stage, summary string) {
	state.SetStage(stage, "orchestrator")
	if p.bus != nil {
		p.bus.Publish(model.StageEvent{
			Stage:     stage,
			Timestamp: time.Now().UTC(),
			Summary:   summary,
		})
	}
}

// fail marks the run failed and returns the partial result alongside the
// error. Accumulated state is never discarded.
func (p *Pipeline) fail(state *model.TripState, stage model.Stage, err error) (*model.TripResult, error) {
	p.advance(state, model.StageFailed, err.Error())
	result := state.Snapshot()
	return &result, eris.Wrapf(err, "trip: %s", string(stage))
}

// generate runs one prompt through the ordered LLM fallback chain.
func (p *Pipeline) generate(ctx context.Context, req llm.Request) (string, error) {
	// The configured response cap applies to every generator in the chain.
	if req.MaxTokens == 0 {
		req.MaxTokens = p.cfg.Anthropic.MaxTokens
	}
	providers := make([]fallback.Provider[llm.Request, string], 0, len(p.generators))
	for _, gen := range p.generators {
		providers = append(providers, fallback.Provider[llm.Request, string]{
			Name: gen.Name(),
			Call: gen.Generate,
			Validate: func(s string) bool {
				return strings.TrimSpace(s) != ""
			},
		})
	}
	seq := fallback.NewSequencer("llm_generate",
		seqOpts[llm.Request, string](p.cfg.Pipeline, p.breakers)...)
	return seq.Resolve(ctx, req, providers)
}

// maxPOIs resolves the POI cap for one run: caller preference first, config
// default otherwise.
func (p *Pipeline) maxPOIs(prefs model.Preferences) int {
	if prefs.MaxPOIs > 0 {
		return prefs.MaxPOIs
	}
	if p.cfg.Pipeline.MaxPOIs > 0 {
		return p.cfg.Pipeline.MaxPOIs
	}
	return 20
}
