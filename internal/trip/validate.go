package trip

import (
	"time"

	"github.com/rotisserie/eris"

	"github.com/wayfare-group/trip-planner-cli/internal/model"
)

const dateLayout = "2006-01-02"

// normalizePreferences validates the caller-supplied date fields and derives
// the trip duration when the caller gave a date range instead of a day
// count. Malformed dates are user errors, not provider failures, so the run
// aborts before any provider is called.
func normalizePreferences(prefs model.Preferences) (model.Preferences, error) {
	var start time.Time
	if prefs.StartDate != "" {
		var err error
		start, err = time.Parse(dateLayout, prefs.StartDate)
		if err != nil {
			return prefs, eris.Errorf("trip: start_date %q is not a YYYY-MM-DD date", prefs.StartDate)
		}
	}
	if prefs.EndDate != "" {
		end, err := time.Parse(dateLayout, prefs.EndDate)
		if err != nil {
			return prefs, eris.Errorf("trip: end_date %q is not a YYYY-MM-DD date", prefs.EndDate)
		}
		if prefs.StartDate == "" {
			return prefs, eris.New("trip: end_date given without start_date")
		}
		if end.Before(start) {
			return prefs, eris.Errorf("trip: end_date %s is before start_date %s", prefs.EndDate, prefs.StartDate)
		}
		if prefs.DurationDays == 0 {
			prefs.DurationDays = int(end.Sub(start).Hours()/24) + 1
		}
	}
	return prefs, nil
}
