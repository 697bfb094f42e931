package trip

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/wayfare-group/trip-planner-cli/internal/interests"
	"github.com/wayfare-group/trip-planner-cli/internal/model"
	"github.com/wayfare-group/trip-planner-cli/pkg/places"
)

// fetchHotels searches lodging around the destination, biased by the
// vacation profile's hotel style.
func (p *Pipeline) fetchHotels(ctx context.Context, coords model.Coordinates, profile interests.Profile) ([]model.Entity, error) {
	hotels, err := p.places.NearbyLodging(ctx, places.NearbyRequest{
		Lat:     coords.Lat,
		Lon:     coords.Lon,
		RadiusM: p.cfg.Places.HotelRadiusM,
		Keyword: profile.HotelStyle,
		Limit:   p.cfg.Places.MaxHotels,
	})
	if err != nil {
		return nil, eris.Wrap(err, "trip: nearby lodging")
	}
	return hotels, nil
}
