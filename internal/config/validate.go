package config

import (
	"strings"

	"github.com/rotisserie/eris"
)

// Validate checks that the configuration required for the given mode is
// present. Modes: "plan" (one-shot planning run), "serve" (HTTP server),
// "runs" (run inspection, store only).
func (c *Config) Validate(mode string) error {
	var problems []string

	checkStore := func() {
		switch c.Store.Driver {
		case "sqlite":
			if c.Store.SQLitePath == "" {
				problems = append(problems, "store.sqlite_path is required for the sqlite driver")
			}
		case "postgres":
			if c.Store.DatabaseURL == "" {
				problems = append(problems, "store.database_url is required for the postgres driver")
			}
		default:
			problems = append(problems, "store.driver must be sqlite or postgres")
		}
	}

	checkPlanning := func() {
		// At least one LLM key: the planner degrades without one but the
		// discovery and summary stages would both run on fallbacks only.
		if c.Gemini.Key == "" && c.Anthropic.Key == "" {
			problems = append(problems, "gemini.key or anthropic.key is required")
		}
		if c.Pipeline.MaxPOIs < 1 {
			problems = append(problems, "pipeline.max_pois must be >= 1")
		}
		if c.Pipeline.EnrichConcurrency < 1 || c.Pipeline.EnrichConcurrency > 32 {
			problems = append(problems, "pipeline.enrich_concurrency must be between 1 and 32")
		}
		if c.Pipeline.DedupLengthDelta < 0 {
			problems = append(problems, "pipeline.dedup_length_delta must be >= 0")
		}
		if c.Ranking.WeightRating < 0 || c.Ranking.WeightVolume < 0 || c.Ranking.WeightDistance < 0 {
			problems = append(problems, "ranking weights must be >= 0")
		}
		if c.Ranking.DistanceScaleM <= 0 {
			problems = append(problems, "ranking.distance_scale_m must be > 0")
		}
	}

	switch mode {
	case "plan":
		checkStore()
		checkPlanning()
	case "serve":
		checkStore()
		checkPlanning()
		if c.Server.Port <= 0 {
			problems = append(problems, "server.port must be > 0")
		}
	case "runs":
		checkStore()
	default:
		return eris.Errorf("config: unknown mode %q", mode)
	}

	if len(problems) > 0 {
		return eris.New("config: invalid configuration:\n  - " + strings.Join(problems, "\n  - "))
	}
	return nil
}
