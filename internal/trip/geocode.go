package trip

import (
	"context"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/wayfare-group/trip-planner-cli/internal/fallback"
	"github.com/wayfare-group/trip-planner-cli/internal/model"
)

// queryVariants builds the normalized query strings tried against each
// geocoding provider, most specific first.
func queryVariants(location string) []string {
	seen := map[string]bool{}
	var variants []string
	add := func(q string) {
		q = strings.Join(strings.Fields(q), " ")
		if q != "" && !seen[q] {
			seen[q] = true
			variants = append(variants, q)
		}
	}

	add(location)
	if idx := strings.IndexByte(location, ','); idx > 0 {
		add(location[:idx])
	}
	add(strings.ReplaceAll(location, ",", " "))
	return variants
}

// stageGeocode resolves the destination through the geocoder fallback chain.
// Exhaustion is fatal for the run.
func (p *Pipeline) stageGeocode(ctx context.Context, state *model.TripState) error {
	validCoords := func(c model.Coordinates) bool {
		return c.Lat != 0 || c.Lon != 0
	}

	providers := []fallback.Provider[string, model.Coordinates]{
		{Name: "places", Call: p.geocodePlaces, Validate: validCoords},
		{Name: "nominatim", Call: p.geocodeNominatim, Validate: validCoords},
	}

	seq := fallback.NewSequencer("geocode",
		seqOpts[string, model.Coordinates](p.cfg.Pipeline, p.breakers)...)

	coords, err := seq.Resolve(ctx, state.Location, providers)
	if err != nil {
		return eris.Wrap(err, "trip: no geocoder resolved the destination")
	}
	state.SetCoordinates(coords)
	return nil
}

// geocodePlaces resolves the destination via the structured places search.
func (p *Pipeline) geocodePlaces(ctx context.Context, location string) (model.Coordinates, error) {
	var lastErr error
	for _, q := range queryVariants(location) {
		hits, err := p.places.TextSearch(ctx, q)
		if err != nil {
			lastErr = err
			continue
		}
		for _, h := range hits {
			if h.Lat != 0 || h.Lon != 0 {
				return model.Coordinates{Lat: h.Lat, Lon: h.Lon, Source: model.SourcePlaces}, nil
			}
		}
	}
	if lastErr != nil {
		return model.Coordinates{}, lastErr
	}
	return model.Coordinates{}, eris.New("trip: places returned no geocoding match")
}

// geocodeNominatim resolves the destination via the free-text geocoder. It
// is the fallback chain member, so resolved coordinates carry the fallback
// source marker.
func (p *Pipeline) geocodeNominatim(ctx context.Context, location string) (model.Coordinates, error) {
	var lastErr error
	for _, q := range queryVariants(location) {
		res, err := p.nominatim.Geocode(ctx, q)
		if err != nil {
			lastErr = err
			continue
		}
		if res != nil && res.Matched {
			return model.Coordinates{Lat: res.Latitude, Lon: res.Longitude, Source: model.SourceFallback}, nil
		}
	}
	if lastErr != nil {
		return model.Coordinates{}, lastErr
	}
	return model.Coordinates{}, eris.New("trip: nominatim returned no geocoding match")
}
