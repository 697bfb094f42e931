// Package rank orders candidate entities by a weighted composite of rating,
// review volume, distance, source trust, and description richness.
package rank

import (
	"math"
	"sort"

	"github.com/wayfare-group/trip-planner-cli/internal/config"
	"github.com/wayfare-group/trip-planner-cli/internal/model"
)

// Scored pairs an entity with its composite score and the per-component
// breakdown, kept for diagnostics.
type Scored struct {
	Entity     model.Entity       `json:"entity"`
	Score      float64            `json:"score"`
	Components map[string]float64 `json:"components"`
}

// Ranker computes composite scores from configured weights.
type Ranker struct {
	cfg config.RankingConfig
}

// New creates a Ranker with the given weights.
func New(cfg config.RankingConfig) *Ranker {
	return &Ranker{cfg: cfg}
}

// Score computes the composite score for one entity. Entities with no rating
// and no reviews score zero regardless of other signals, so unverifiable
// results can never outrank attested ones.
func (r *Ranker) Score(e model.Entity) Scored {
	components := make(map[string]float64, 5)

	if !e.HasRatingData() {
		return Scored{Entity: e, Score: 0, Components: components}
	}

	rating := e.Rating / 5.0 * r.cfg.WeightRating
	components["rating"] = rating

	volume := math.Log10(float64(e.ReviewCount)+1) * r.cfg.WeightVolume
	volume = math.Min(volume, r.cfg.VolumeCap)
	components["volume"] = volume

	var distance float64
	if e.DistanceMeters > 0 && r.cfg.DistanceScaleM > 0 {
		decay := 1 - e.DistanceMeters/r.cfg.DistanceScaleM
		distance = math.Max(0, decay) * r.cfg.WeightDistance
	}
	components["distance"] = distance

	var trust float64
	if e.Source.Structured() {
		trust = r.cfg.SourceTrustBonus
	}
	components["trust"] = trust

	richness := math.Min(float64(len(e.Description))*r.cfg.RichnessPerChar, r.cfg.RichnessCap)
	components["richness"] = richness

	total := rating + volume + distance + trust + richness
	return Scored{
		Entity:     e,
		Score:      math.Round(total*100) / 100,
		Components: components,
	}
}

// Rank scores every entity and returns them in descending score order. The
// sort is stable, so ties keep their input order and upstream merge priority
// survives ranking.
func (r *Ranker) Rank(entities []model.Entity) []Scored {
	scored := make([]Scored, len(entities))
	for i, e := range entities {
		scored[i] = r.Score(e)
	}
	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Score > scored[j].Score
	})
	return scored
}

// Top ranks entities and returns up to limit of them, entities only.
func (r *Ranker) Top(entities []model.Entity, limit int) []model.Entity {
	scored := r.Rank(entities)
	if limit > 0 && len(scored) > limit {
		scored = scored[:limit]
	}
	out := make([]model.Entity, len(scored))
	for i, s := range scored {
		out[i] = s.Entity
	}
	return out
}
