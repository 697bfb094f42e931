package trip

import (
	"context"

	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"
	"go.uber.org/zap"

	"github.com/wayfare-group/trip-planner-cli/internal/model"
)

// stageRoute computes the walking route through the ranked POIs. Too few
// routable points or a provider failure degrades to a zero-distance route
// rather than failing the run.
func (p *Pipeline) stageRoute(ctx context.Context, state *model.TripState) error {
	snapshot := state.Snapshot()

	var points []geom.Coord
	for _, e := range snapshot.POIs {
		if e.Lat == 0 && e.Lon == 0 {
			continue
		}
		points = append(points, geom.Coord{e.Lon, e.Lat})
	}

	if len(points) < 2 {
		zap.L().Warn("trip: too few routable points, degrading route",
			zap.Int("points", len(points)),
		)
		state.SetRoute(model.Route{Degraded: true})
		return nil
	}

	route, err := p.router.Directions(ctx, points)
	if err != nil {
		state.AddError(model.StageRouting, eris.Wrap(err, "trip: directions").Error())
		state.SetRoute(model.Route{Degraded: true})
		return nil
	}
	state.SetRoute(*route)
	return nil
}
