package model

// Source identifies which provider produced an entity or coordinate.
type Source string

const (
	SourceLLM         Source = "llm"
	SourceOpenTripMap Source = "opentripmap"
	SourcePlaces      Source = "places"
	SourceNominatim   Source = "nominatim"
	SourceFallback    Source = "fallback"
)

// Structured reports whether the source is a structured places API rather
// than generated text. Structured sources earn a trust bonus when ranking.
func (s Source) Structured() bool {
	switch s {
	case SourceOpenTripMap, SourcePlaces:
		return true
	default:
		return false
	}
}

// Entity is a normalized POI or hotel record merged from one or more
// providers. Provider adapters build these at the boundary; pipeline stages
// never see provider-specific payload shapes.
type Entity struct {
	ID             string   `json:"id"`
	Name           string   `json:"name"`
	Lat            float64  `json:"lat"`
	Lon            float64  `json:"lon"`
	Category       string   `json:"category,omitempty"`
	Rating         float64  `json:"rating"`       // 0..5
	ReviewCount    int      `json:"review_count"` // >= 0
	Source         Source   `json:"source"`
	Description    string   `json:"description,omitempty"`
	DistanceMeters float64  `json:"distance_meters,omitempty"`
	Address        string   `json:"address,omitempty"`
	PriceLevel     *int     `json:"price_level,omitempty"` // 0 (free) .. 4
	Reviews        []Review `json:"reviews,omitempty"`
	Tags           []string `json:"tags,omitempty"`
	VisitDuration  string   `json:"visit_duration,omitempty"`
	BestTime       string   `json:"best_time,omitempty"`
}

// Review is a single user review attached to an entity during enrichment.
type Review struct {
	Author string  `json:"author"`
	Rating float64 `json:"rating"`
	Text   string  `json:"text"`
	When   string  `json:"when,omitempty"`
}

// HasRatingData reports whether the entity carries any rating signal.
// Entities without it always rank below entities that have data.
func (e Entity) HasRatingData() bool {
	return e.Rating > 0 || e.ReviewCount > 0
}

// Overlay merges detail fields from other onto e, field by field. Only
// fields the new source actually supplies overwrite existing data; known
// values are never discarded for a blank.
func (e *Entity) Overlay(other Entity) {
	if other.Rating > 0 {
		e.Rating = other.Rating
	}
	if other.ReviewCount > 0 {
		e.ReviewCount = other.ReviewCount
	}
	if other.Description != "" {
		e.Description = other.Description
	}
	if other.Address != "" {
		e.Address = other.Address
	}
	if other.PriceLevel != nil {
		e.PriceLevel = other.PriceLevel
	}
	if len(other.Reviews) > 0 {
		e.Reviews = other.Reviews
	}
	if other.Category != "" && e.Category == "" {
		e.Category = other.Category
	}
	if other.Lat != 0 || other.Lon != 0 {
		if e.Lat == 0 && e.Lon == 0 {
			e.Lat = other.Lat
			e.Lon = other.Lon
		}
	}
}
