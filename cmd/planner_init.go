package main

import (
	"context"
	"net/http"
	"os"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/wayfare-group/trip-planner-cli/internal/events"
	"github.com/wayfare-group/trip-planner-cli/internal/interests"
	"github.com/wayfare-group/trip-planner-cli/internal/store"
	"github.com/wayfare-group/trip-planner-cli/internal/trip"
	"github.com/wayfare-group/trip-planner-cli/pkg/llm"
	"github.com/wayfare-group/trip-planner-cli/pkg/nominatim"
	"github.com/wayfare-group/trip-planner-cli/pkg/openroute"
	"github.com/wayfare-group/trip-planner-cli/pkg/opentripmap"
	"github.com/wayfare-group/trip-planner-cli/pkg/places"
)

// plannerEnv holds the initialized store, event bus and pipeline used by
// the plan and serve commands.
type plannerEnv struct {
	Store    store.Store
	Bus      *events.Bus
	Pipeline *trip.Pipeline
}

// Close releases resources held by the planner environment.
func (pe *plannerEnv) Close() {
	if pe.Bus != nil {
		pe.Bus.Close()
	}
	if pe.Store != nil {
		_ = pe.Store.Close()
	}
}

// httpClientFor builds an HTTP client with the configured timeout.
func httpClientFor(timeoutSecs int) *http.Client {
	if timeoutSecs <= 0 {
		timeoutSecs = 10
	}
	return &http.Client{Timeout: time.Duration(timeoutSecs) * time.Second}
}

func initStore(ctx context.Context) (store.Store, error) {
	if err := cfg.Validate("runs"); err != nil {
		return nil, err
	}
	switch cfg.Store.Driver {
	case "sqlite":
		path := cfg.Store.SQLitePath
		if path == "" {
			path = "trips.db"
		}
		return store.NewSQLite(path)
	case "postgres":
		return store.NewPostgres(ctx, cfg.Store.DatabaseURL)
	default:
		return nil, eris.Errorf("unsupported store driver: %s", cfg.Store.Driver)
	}
}

// initPlanner sets up the store, provider clients, LLM fallback chain and
// the pipeline. Callers should defer env.Close().
func initPlanner(ctx context.Context, mode string) (*plannerEnv, error) {
	if err := cfg.Validate(mode); err != nil {
		return nil, err
	}

	st, err := initStore(ctx)
	if err != nil {
		return nil, err
	}
	if err := st.Migrate(ctx); err != nil {
		_ = st.Close()
		return nil, eris.Wrap(err, "migrate store")
	}

	placesClient := places.NewClient(cfg.Places.Key,
		places.WithBaseURL(cfg.Places.BaseURL),
		places.WithRateLimit(cfg.Places.RatePerSec),
		places.WithDetailsCacheTTL(time.Duration(cfg.Places.CacheTTLMins)*time.Minute),
		places.WithHTTPClient(httpClientFor(cfg.Places.TimeoutSecs)),
	)
	nominatimClient := nominatim.NewClient(
		nominatim.WithBaseURL(cfg.Nominatim.BaseURL),
		nominatim.WithUserAgent(cfg.Nominatim.UserAgent),
		nominatim.WithRateLimit(cfg.Nominatim.RatePerSec),
		nominatim.WithHTTPClient(httpClientFor(cfg.Nominatim.TimeoutSecs)),
	)
	otmClient := opentripmap.NewClient(cfg.OpenTripMap.Key,
		opentripmap.WithBaseURL(cfg.OpenTripMap.BaseURL),
		opentripmap.WithHTTPClient(httpClientFor(cfg.OpenTripMap.TimeoutSecs)),
	)
	routerClient := openroute.NewClient(cfg.OpenRoute.Key,
		openroute.WithBaseURL(cfg.OpenRoute.BaseURL),
		openroute.WithProfile(cfg.OpenRoute.Profile),
		openroute.WithHTTPClient(httpClientFor(cfg.OpenRoute.TimeoutSecs)),
	)

	// LLM fallback order: Gemini primary, Anthropic fallback. Either can be
	// absent; discovery degrades to the structured providers alone.
	var generators []llm.Generator
	if cfg.Gemini.Key != "" {
		gem, err := llm.NewGemini(ctx, cfg.Gemini.Key, cfg.Gemini.Model)
		if err != nil {
			zap.L().Warn("gemini init failed, skipping", zap.Error(err))
		} else {
			generators = append(generators, gem)
		}
	}
	if cfg.Anthropic.Key != "" {
		generators = append(generators, llm.NewAnthropic(cfg.Anthropic.Key, cfg.Anthropic.Model))
	}
	if len(generators) == 0 {
		zap.L().Warn("no LLM generator configured, POI discovery will rely on map providers only")
	}

	registry := interests.Defaults()
	if cfg.Interests.Path != "" {
		if _, statErr := os.Stat(cfg.Interests.Path); statErr == nil {
			registry, err = interests.Load(cfg.Interests.Path)
			if err != nil {
				_ = st.Close()
				return nil, eris.Wrap(err, "load interests registry")
			}
		}
	}

	bus := events.NewBus(64)
	p := trip.New(cfg, bus, registry, placesClient, nominatimClient, otmClient, routerClient, generators)

	return &plannerEnv{
		Store:    st,
		Bus:      bus,
		Pipeline: p,
	}, nil
}
