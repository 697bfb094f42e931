package model

import (
	"sync"
	"time"
)

// Stage names the pipeline states. Transitions are strictly ordered except
// for StageFailed, which is reachable from any non-terminal stage.
type Stage string

const (
	StageIdle       Stage = "idle"
	StageValidating Stage = "validating_input"
	StageGeocoding  Stage = "geocoding"
	StageFetching   Stage = "fetching_parallel"
	StageMerging    Stage = "merging"
	StageRanking    Stage = "ranking"
	StageEnriching  Stage = "enriching"
	StageRouting    Stage = "routing"
	StageItinerary  Stage = "itinerary_building"
	StageSummarize  Stage = "summarizing"
	StageDone       Stage = "done"
	StageFailed     Stage = "failed"
)

// BudgetTier is the coarse budget preference.
type BudgetTier string

const (
	BudgetLow    BudgetTier = "low"
	BudgetMedium BudgetTier = "medium"
	BudgetHigh   BudgetTier = "high"
)

// DailyUSD maps a tier to the per-day spending assumption used by the
// budget feasibility check. Unknown tiers fall back to medium.
func (b BudgetTier) DailyUSD() float64 {
	switch b {
	case BudgetLow:
		return 50
	case BudgetHigh:
		return 200
	default:
		return 100
	}
}

// Preferences holds the trip parameters supplied by the caller. Immutable
// after the planning session starts.
type Preferences struct {
	Interests     []string   `json:"interests,omitempty"`
	Budget        BudgetTier `json:"budget,omitempty"`
	DurationDays  int        `json:"duration_days"`
	StartDate     string     `json:"start_date,omitempty"` // YYYY-MM-DD
	EndDate       string     `json:"end_date,omitempty"`
	GroupSize     int        `json:"group_size,omitempty"`
	MaxPOIs       int        `json:"max_pois,omitempty"`
	IncludeHotels bool       `json:"include_hotels"`
	VacationType  string     `json:"vacation_type,omitempty"`
}

// Coordinates is the geocoded destination. Source records which provider
// resolved it.
type Coordinates struct {
	Lat    float64 `json:"lat"`
	Lon    float64 `json:"lon"`
	Source Source  `json:"source"`
}

// Route summarizes the walking route through the final POIs.
type Route struct {
	DistanceKm  float64 `json:"distance_km"`
	DurationMin float64 `json:"duration_min"`
	Polyline    string  `json:"polyline,omitempty"`
	Steps       int     `json:"steps,omitempty"`
	Degraded    bool    `json:"degraded,omitempty"`
}

// Activity is one scheduled stop in the itinerary.
type Activity struct {
	TimeSlot    string `json:"time_slot"`
	Name        string `json:"name"`
	Category    string `json:"category,omitempty"`
	Description string `json:"description,omitempty"`
}

// ItineraryDay is one day's ordered schedule.
type ItineraryDay struct {
	Label      string     `json:"label"` // e.g. "Monday, June 02"
	Activities []Activity `json:"activities"`
	Summary    string     `json:"summary,omitempty"`
}

// StageError records a non-fatal degradation or the fatal failure of a run.
type StageError struct {
	Stage     Stage     `json:"stage"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}

// TimelineEntry is a diagnostic record of a stage transition. Control flow
// never reads the timeline.
type TimelineEntry struct {
	Stage     Stage     `json:"stage"`
	Actor     string    `json:"actor"`
	Timestamp time.Time `json:"timestamp"`
}

// TripState is the per-session record accumulated across pipeline stages.
// One pipeline run owns one instance; concurrent branches within a run
// write disjoint fields, and the internal mutex keeps appends safe.
type TripState struct {
	mu sync.Mutex

	Location    string          `json:"location"`
	Coordinates *Coordinates    `json:"coordinates,omitempty"`
	Preferences Preferences     `json:"preferences"`
	POIs        []Entity        `json:"pois"`
	Hotels      []Entity        `json:"hotels"`
	Route       *Route          `json:"route,omitempty"`
	Itinerary   []ItineraryDay  `json:"itinerary,omitempty"`
	Summary     string          `json:"summary,omitempty"`
	Errors      []StageError    `json:"errors"`
	Timeline    []TimelineEntry `json:"timeline"`
	Stage       Stage           `json:"stage"`
}

// NewTripState creates a fresh state for one planning session.
func NewTripState(location string, prefs Preferences) *TripState {
	return &TripState{
		Location:    location,
		Preferences: prefs,
		Stage:       StageIdle,
	}
}

// SetStage records a stage transition and appends to the timeline.
func (s *TripState) SetStage(stage Stage, actor string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Stage = stage
	s.Timeline = append(s.Timeline, TimelineEntry{
		Stage:     stage,
		Actor:     actor,
		Timestamp: time.Now().UTC(),
	})
}

// AddError appends a stage error. Append-only; entries are never removed.
func (s *TripState) AddError(stage Stage, message string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Errors = append(s.Errors, StageError{
		Stage:     stage,
		Message:   message,
		Timestamp: time.Now().UTC(),
	})
}

// SetPOIs replaces the POI list. Stages call this in pipeline order; the
// fetch branches write POIs and Hotels disjointly by construction.
func (s *TripState) SetPOIs(pois []Entity) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.POIs = pois
}

// SetHotels replaces the hotel list.
func (s *TripState) SetHotels(hotels []Entity) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Hotels = hotels
}

// SetRoute records the routing result.
func (s *TripState) SetRoute(r Route) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Route = &r
}

// SetItinerary replaces the day-by-day schedule.
func (s *TripState) SetItinerary(days []ItineraryDay) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Itinerary = days
}

// SetSummary records the final trip summary text.
func (s *TripState) SetSummary(text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Summary = text
}

// SetCoordinates records the geocoding result. Set once.
func (s *TripState) SetCoordinates(c Coordinates) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Coordinates = &c
}

// Snapshot returns a copy safe to serialize after the pipeline terminates.
func (s *TripState) Snapshot() TripResult {
	s.mu.Lock()
	defer s.mu.Unlock()
	return TripResult{
		Location:    s.Location,
		Coordinates: s.Coordinates,
		Preferences: s.Preferences,
		POIs:        append([]Entity(nil), s.POIs...),
		Hotels:      append([]Entity(nil), s.Hotels...),
		Route:       s.Route,
		Itinerary:   append([]ItineraryDay(nil), s.Itinerary...),
		Summary:     s.Summary,
		Errors:      append([]StageError(nil), s.Errors...),
		Timeline:    append([]TimelineEntry(nil), s.Timeline...),
		Stage:       s.Stage,
	}
}

// TripResult is the immutable structured document handed to the caller once
// the pipeline terminates.
type TripResult struct {
	Location    string          `json:"location"`
	Coordinates *Coordinates    `json:"coordinates,omitempty"`
	Preferences Preferences     `json:"preferences"`
	POIs        []Entity        `json:"pois"`
	Hotels      []Entity        `json:"hotels"`
	Route       *Route          `json:"route,omitempty"`
	Itinerary   []ItineraryDay  `json:"itinerary,omitempty"`
	Summary     string          `json:"summary,omitempty"`
	Errors      []StageError    `json:"errors"`
	Timeline    []TimelineEntry `json:"timeline"`
	Stage       Stage           `json:"stage"`
}

// StageEvent is published on the observability bus at every stage
// transition. Diagnostic only; no component branches on it.
type StageEvent struct {
	Stage     Stage     `json:"stage"`
	Timestamp time.Time `json:"timestamp"`
	Summary   string    `json:"summary,omitempty"`
}
