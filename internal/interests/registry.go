// Package interests maps vacation types to provider-specific discovery hints:
// OpenTripMap kind filters, places search keywords, and hotel style prompts.
package interests

import (
	"os"
	"strings"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

// Profile holds the discovery hints for one vacation type.
type Profile struct {
	Kinds         []string `yaml:"kinds"`          // OpenTripMap kind filters
	Keywords      []string `yaml:"keywords"`       // places / LLM search keywords
	AvoidKeywords []string `yaml:"avoid_keywords"` // names matching these are filtered out
	HotelStyle    string   `yaml:"hotel_style"`    // prompt hint for hotel suggestions
	Description   string   `yaml:"description"`
}

// Registry resolves vacation types to profiles.
type Registry struct {
	profiles map[string]Profile
}

// Load reads a registry from a YAML file, falling back to the built-in
// defaults when the file is absent.
func Load(path string) (*Registry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Defaults(), nil
		}
		return nil, eris.Wrapf(err, "interests: read %s", path)
	}

	var wrapper struct {
		VacationTypes map[string]Profile `yaml:"vacation_types"`
	}
	if err := yaml.Unmarshal(data, &wrapper); err != nil {
		return nil, eris.Wrap(err, "interests: parse registry")
	}
	if len(wrapper.VacationTypes) == 0 {
		return nil, eris.Errorf("interests: %s defines no vacation types", path)
	}

	// User files extend the defaults rather than replacing them, so a file
	// that only tunes one type keeps the rest available.
	reg := Defaults()
	for name, p := range wrapper.VacationTypes {
		reg.profiles[normalizeType(name)] = p
	}
	return reg, nil
}

// Defaults returns the built-in registry.
func Defaults() *Registry {
	return &Registry{profiles: map[string]Profile{
		"cultural_exploration": {
			Kinds:         []string{"museums", "historic", "religion", "cultural", "architecture"},
			Keywords:      []string{"museum", "temple", "palace", "heritage", "historic", "cultural", "art", "gallery"},
			AvoidKeywords: []string{"nightclub", "bar", "casino"},
			HotelStyle:    "boutique hotels, historic hotels, centrally located hotels",
			Description:   "Cultural sites, museums, historical landmarks, and heritage attractions",
		},
		"relaxing_break": {
			Kinds:         []string{"natural", "gardens_and_parks", "beaches"},
			Keywords:      []string{"park", "garden", "spa", "beach", "lake", "scenic", "peaceful", "nature", "botanical"},
			AvoidKeywords: []string{"adventure", "extreme", "hiking", "climbing"},
			HotelStyle:    "spa hotels, resort hotels, peaceful locations",
			Description:   "Peaceful locations, parks, gardens, spas, and scenic spots",
		},
		"active_adventure": {
			Kinds:         []string{"sport", "natural", "climbing", "hiking"},
			Keywords:      []string{"hiking", "adventure", "outdoor", "sport", "climbing", "cycling", "trekking", "activity"},
			AvoidKeywords: []string{"museum", "gallery", "spa"},
			HotelStyle:    "adventure lodges, hostels, outdoor-focused accommodations",
			Description:   "Outdoor activities, hiking trails, adventure sports, and active experiences",
		},
		"family_vacation": {
			Kinds:         []string{"amusements", "gardens_and_parks", "zoos"},
			Keywords:      []string{"family", "children", "kids", "zoo", "aquarium", "park", "playground", "entertainment"},
			AvoidKeywords: []string{"nightclub", "bar", "adult"},
			HotelStyle:    "family-friendly hotels, hotels with pools, spacious rooms",
			Description:   "Family-friendly attractions, parks, zoos, and entertainment venues",
		},
		"mixed": {
			Kinds:         []string{"interesting_places"},
			Keywords:      []string{"popular", "famous", "must-visit", "top", "best"},
			HotelStyle:    "well-rated hotels, good location, variety of amenities",
			Description:   "A mix of popular attractions including cultural, natural, and entertainment sites",
		},
	}}
}

// Get resolves a vacation type to its profile. Unknown types fall back to
// the mixed profile.
func (r *Registry) Get(vacationType string) Profile {
	if p, ok := r.profiles[normalizeType(vacationType)]; ok {
		return p
	}
	return r.profiles["mixed"]
}

// Types returns the registered vacation type names.
func (r *Registry) Types() []string {
	out := make([]string, 0, len(r.profiles))
	for name := range r.profiles {
		out = append(out, name)
	}
	return out
}

// AvoidedName reports whether an entity name trips the profile's avoid list.
func (p Profile) AvoidedName(name string) bool {
	lower := strings.ToLower(name)
	for _, kw := range p.AvoidKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

// KindsParam joins the OpenTripMap kind filters into the API's comma form.
func (p Profile) KindsParam() string {
	if len(p.Kinds) == 0 {
		return "interesting_places"
	}
	return strings.Join(p.Kinds, ",")
}

func normalizeType(s string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(s)), " ", "_")
}
