package trip

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/wayfare-group/trip-planner-cli/internal/model"
)

// timeSlots are the fixed activity windows within one itinerary day.
var timeSlots = []string{
	"9:00 AM – 11:00 AM",
	"11:00 AM – 1:00 PM",
	"2:00 PM – 4:00 PM",
}

const poisPerDay = 3

// affordablePOIs checks the estimated trip cost against the budget and
// returns how many POIs fit. Travel cost is fixed by the route, so only the
// POI count can give.
func affordablePOIs(numPOIs int, distanceKm, budgetUSD, costPerPOI, costPerKm float64) (int, float64) {
	if costPerPOI <= 0 {
		costPerPOI = 5
	}
	travelCost := distanceKm * costPerKm
	total := float64(numPOIs)*costPerPOI + travelCost
	if total <= budgetUSD {
		return numPOIs, total
	}
	affordable := int((budgetUSD - travelCost) / costPerPOI)
	if affordable < 1 {
		affordable = 1
	}
	if affordable > numPOIs {
		affordable = numPOIs
	}
	return affordable, total
}

// buildItinerary chunks POIs into days of fixed time slots. Days beyond the
// trip duration are dropped.
func buildItinerary(pois []model.Entity, startDate string, durationDays int) []model.ItineraryDay {
	// Dates are validated at run entry; an empty startDate means the caller
	// gave none, so day labels anchor on today.
	start, err := time.Parse(dateLayout, startDate)
	if err != nil {
		start = time.Now()
	}

	var days []model.ItineraryDay
	for i := 0; i < len(pois); i += poisPerDay {
		if durationDays > 0 && len(days) >= durationDays {
			break
		}
		day := model.ItineraryDay{
			Label: start.AddDate(0, 0, len(days)).Format("Monday, January 02"),
		}
		end := i + poisPerDay
		if end > len(pois) {
			end = len(pois)
		}
		var names []string
		for j, poi := range pois[i:end] {
			day.Activities = append(day.Activities, model.Activity{
				TimeSlot:    timeSlots[j],
				Name:        poi.Name,
				Category:    poi.Category,
				Description: poi.Description,
			})
			names = append(names, poi.Name)
		}
		day.Summary = daySummary(names)
		days = append(days, day)
	}
	return days
}

// daySummary builds the deterministic one-line description of a day.
func daySummary(names []string) string {
	switch len(names) {
	case 0:
		return ""
	case 1:
		return fmt.Sprintf("A day at %s.", names[0])
	default:
		last := names[len(names)-1]
		rest := names[:len(names)-1]
		return fmt.Sprintf("Visiting %s and %s.", joinComma(rest), last)
	}
}

func joinComma(names []string) string {
	out := ""
	for i, n := range names {
		if i > 0 {
			out += ", "
		}
		out += n
	}
	return out
}

// stageItinerary trims the POI list to what the budget affords, then builds
// the day-by-day schedule.
func (p *Pipeline) stageItinerary(_ context.Context, state *model.TripState) error {
	snapshot := state.Snapshot()
	prefs := state.Preferences

	days := prefs.DurationDays
	if days <= 0 {
		days = 1
	}
	budgetUSD := prefs.Budget.DailyUSD() * float64(days)

	var distanceKm float64
	if snapshot.Route != nil {
		distanceKm = snapshot.Route.DistanceKm
	}

	pois := snapshot.POIs
	affordable, estimated := affordablePOIs(len(pois), distanceKm, budgetUSD,
		p.cfg.Pipeline.CostPerPOIUSD, p.cfg.Pipeline.CostPerKmUSD)
	if affordable < len(pois) {
		state.AddError(model.StageItinerary, fmt.Sprintf(
			"trip: estimated cost $%.2f exceeds budget $%.2f, trimming to %d POIs",
			estimated, budgetUSD, affordable))
		pois = pois[:affordable]
		state.SetPOIs(pois)
	}

	zap.L().Info("trip: itinerary built",
		zap.Int("pois", len(pois)),
		zap.Int("duration_days", days),
		zap.Float64("estimated_cost_usd", estimated),
	)
	state.SetItinerary(buildItinerary(pois, prefs.StartDate, days))
	return nil
}
