// Package openroute provides a client for the openrouteservice directions
// API.
package openroute

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/geojson"

	"github.com/wayfare-group/trip-planner-cli/internal/model"
	"github.com/wayfare-group/trip-planner-cli/internal/resilience"
)

// Client defines the directions operations.
type Client interface {
	// Directions routes through the given points in order. Points are
	// (lon, lat) pairs, matching the upstream convention.
	Directions(ctx context.Context, points []geom.Coord) (*model.Route, error)
}

// Option configures the openroute client.
type Option func(*httpClient)

// WithBaseURL sets a custom base URL (for testing).
func WithBaseURL(u string) Option {
	return func(c *httpClient) {
		c.baseURL = u
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) {
		c.http = hc
	}
}

// WithProfile sets the routing profile (foot-walking, driving-car, ...).
func WithProfile(profile string) Option {
	return func(c *httpClient) {
		if profile != "" {
			c.profile = profile
		}
	}
}

type httpClient struct {
	apiKey  string
	baseURL string
	profile string
	http    *http.Client
}

// NewClient creates an openrouteservice client.
func NewClient(apiKey string, opts ...Option) Client {
	c := &httpClient{
		apiKey:  apiKey,
		baseURL: "https://api.openrouteservice.org",
		profile: "foot-walking",
		http:    &http.Client{Timeout: 15 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type directionsRequest struct {
	Coordinates  [][]float64 `json:"coordinates"`
	Instructions bool        `json:"instructions"`
}

type directionsResponse struct {
	Features []struct {
		Geometry   json.RawMessage `json:"geometry"`
		Properties struct {
			Summary struct {
				Distance float64 `json:"distance"` // meters
				Duration float64 `json:"duration"` // seconds
			} `json:"summary"`
			Segments []struct {
				Steps []struct {
					Instruction string `json:"instruction"`
				} `json:"steps"`
			} `json:"segments"`
		} `json:"properties"`
	} `json:"features"`
}

func (c *httpClient) Directions(ctx context.Context, points []geom.Coord) (*model.Route, error) {
	if len(points) < 2 {
		return nil, eris.New("openroute: need at least 2 points for routing")
	}

	coords := make([][]float64, len(points))
	for i, p := range points {
		coords[i] = []float64{p.X(), p.Y()}
	}

	payload, err := json.Marshal(directionsRequest{Coordinates: coords, Instructions: true})
	if err != nil {
		return nil, eris.Wrap(err, "openroute: marshal request")
	}

	reqURL := fmt.Sprintf("%s/v2/directions/%s/geojson", c.baseURL, c.profile)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, reqURL, bytes.NewReader(payload))
	if err != nil {
		return nil, eris.Wrap(err, "openroute: create request")
	}
	req.Header.Set("Authorization", c.apiKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/geo+json, application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, resilience.Classify("openroute", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, eris.Wrap(err, "openroute: read response body")
	}

	if resp.StatusCode != http.StatusOK {
		kind := resilience.ClassifyHTTPStatus(resp.StatusCode)
		return nil, model.NewProviderError("openroute", kind,
			eris.Errorf("openroute: status %d: %s", resp.StatusCode, string(body)))
	}

	var dr directionsResponse
	if err := json.Unmarshal(body, &dr); err != nil {
		return nil, model.NewProviderError("openroute", model.ErrMalformedResponse,
			eris.Wrap(err, "openroute: unmarshal response"))
	}
	if len(dr.Features) == 0 {
		return nil, model.NewProviderError("openroute", model.ErrMalformedResponse,
			eris.New("openroute: response carries no route feature"))
	}

	feature := dr.Features[0]
	steps := 0
	for _, seg := range feature.Properties.Segments {
		steps += len(seg.Steps)
	}

	route := &model.Route{
		DistanceKm:  feature.Properties.Summary.Distance / 1000,
		DurationMin: feature.Properties.Summary.Duration / 60,
		Steps:       steps,
	}

	// Re-encode the route geometry as compact GeoJSON for storage. A
	// geometry the decoder rejects degrades to a route without a line.
	if len(feature.Geometry) > 0 {
		var g geom.T
		if err := geojson.Unmarshal(feature.Geometry, &g); err == nil {
			if encoded, encErr := geojson.Marshal(g); encErr == nil {
				route.Polyline = string(encoded)
			}
		}
	}

	return route, nil
}
