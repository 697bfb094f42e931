package trip

import (
	"context"
	"regexp"
	"strings"
	"sync"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/wayfare-group/trip-planner-cli/internal/model"
	"github.com/wayfare-group/trip-planner-cli/pkg/places"
)

var parensRe = regexp.MustCompile(`\(([^)]*)\)`)

// genericWords are stripped to produce shorter search variants; place names
// often carry them while the details provider indexes the bare name.
var genericWords = []string{"temple", "palace", "museum", "gardens", "park", "center", "centre"}

// NameVariants generates the search strings tried, in order, when looking
// an entity up in the details provider: the original name, the name with
// parenthesized content removed, the parenthesized content itself, and the
// name with a generic word stripped.
func NameVariants(name string) []string {
	seen := map[string]bool{}
	var variants []string
	add := func(v string) {
		v = strings.Join(strings.Fields(v), " ")
		if v != "" && !seen[v] {
			seen[v] = true
			variants = append(variants, v)
		}
	}

	add(name)
	add(parensRe.ReplaceAllString(name, ""))
	for _, m := range parensRe.FindAllStringSubmatch(name, -1) {
		if inner := strings.TrimSpace(m[1]); len(inner) > 3 {
			add(inner)
		}
	}
	lower := strings.ToLower(name)
	for _, word := range genericWords {
		if strings.Contains(lower, word) {
			add(stripWordFold(name, word))
		}
	}
	return variants
}

// stripWordFold removes one word from the name, case-insensitively.
func stripWordFold(name, word string) string {
	fields := strings.Fields(name)
	out := fields[:0:0]
	for _, f := range fields {
		if strings.EqualFold(f, word) {
			continue
		}
		out = append(out, f)
	}
	if len(out) == 0 || len(strings.Join(out, " ")) <= 3 {
		return ""
	}
	return strings.Join(out, " ")
}

// EnrichFailure records one entity that could not be enriched. Failures
// never abort sibling enrichments.
type EnrichFailure struct {
	Name string
	Err  error
}

// Enricher fills in ratings, reviews, addresses and price levels from the
// place-details provider, one independent lookup per entity.
type Enricher struct {
	details     places.Client
	concurrency int
}

// NewEnricher creates an Enricher with the given lookup concurrency bound.
func NewEnricher(details places.Client, concurrency int) *Enricher {
	if concurrency <= 0 {
		concurrency = 4
	}
	return &Enricher{details: details, concurrency: concurrency}
}

// Enrich looks every entity up and overlays the detail fields it finds.
// Entities are mutated in place; the returned failures are diagnostic.
func (e *Enricher) Enrich(ctx context.Context, locationContext string, entities []model.Entity) []EnrichFailure {
	var mu sync.Mutex
	var failures []EnrichFailure

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.concurrency)

	for i := range entities {
		g.Go(func() error {
			if err := e.enrichOne(gctx, locationContext, &entities[i]); err != nil {
				mu.Lock()
				failures = append(failures, EnrichFailure{Name: entities[i].Name, Err: err})
				mu.Unlock()
			}
			return nil
		})
	}
	_ = g.Wait()
	return failures
}

// enrichOne tries each name variant against the text search until one
// resolves to a place, then overlays that place's details.
func (e *Enricher) enrichOne(ctx context.Context, locationContext string, entity *model.Entity) error {
	var lastErr error
	for _, variant := range NameVariants(entity.Name) {
		query := variant
		if locationContext != "" {
			query = variant + ", " + locationContext
		}

		hits, err := e.details.TextSearch(ctx, query)
		if err != nil {
			lastErr = err
			continue
		}
		if len(hits) == 0 {
			continue
		}

		det, err := e.details.Details(ctx, hits[0].ID)
		if err != nil {
			lastErr = err
			continue
		}
		entity.Overlay(*det)
		zap.L().Debug("trip: enriched entity",
			zap.String("name", entity.Name),
			zap.String("variant", variant),
		)
		return nil
	}
	if lastErr != nil {
		return lastErr
	}
	return eris.Errorf("trip: no details match for %q", entity.Name)
}

// stageEnrich enriches the ranked POIs and hotels. Per-entity failures are
// recorded as stage errors; the stage itself never fails.
func (p *Pipeline) stageEnrich(ctx context.Context, state *model.TripState) error {
	snapshot := state.Snapshot()

	pois := snapshot.POIs
	for _, f := range p.enricher.Enrich(ctx, state.Location, pois) {
		state.AddError(model.StageEnriching, eris.Wrapf(f.Err, "trip: enrich %q", f.Name).Error())
	}
	state.SetPOIs(pois)

	hotels := snapshot.Hotels
	for _, f := range p.enricher.Enrich(ctx, state.Location, hotels) {
		state.AddError(model.StageEnriching, eris.Wrapf(f.Err, "trip: enrich %q", f.Name).Error())
	}
	state.SetHotels(hotels)
	return nil
}
