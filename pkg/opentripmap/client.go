// Package opentripmap provides a client for the OpenTripMap places API.
package opentripmap

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rotisserie/eris"

	"github.com/wayfare-group/trip-planner-cli/internal/model"
	"github.com/wayfare-group/trip-planner-cli/internal/resilience"
)

// Client defines the OpenTripMap operations.
type Client interface {
	// Radius lists POIs around a point, filtered by kinds.
	Radius(ctx context.Context, req RadiusRequest) ([]model.Entity, error)
}

// RadiusRequest parameterizes a radius POI search.
type RadiusRequest struct {
	Lat     float64
	Lon     float64
	RadiusM int
	Kinds   string // comma-separated kind filters; empty means interesting_places
	Limit   int
}

// Option configures the OpenTripMap client.
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

type httpClient struct {
	apiKey  string
	baseURL string
	http    *http.Client
}

// NewClient creates an OpenTripMap client.
func NewClient(apiKey string, opts ...Option) Client {
	c := &httpClient{
		apiKey:  apiKey,
		baseURL: "https://api.opentripmap.com/0.1/en/places",
		http:    &http.Client{Timeout: 10 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// radiusRow is one POI in the radius response (format=json).
type radiusRow struct {
	XID   string  `json:"xid"`
	Name  string  `json:"name"`
	Kinds string  `json:"kinds"`
	Dist  float64 `json:"dist"`
	Rate  int     `json:"rate"`
	Point struct {
		Lat float64 `json:"lat"`
		Lon float64 `json:"lon"`
	} `json:"point"`
}

func (c *httpClient) Radius(ctx context.Context, r RadiusRequest) ([]model.Entity, error) {
	kinds := r.Kinds
	if kinds == "" {
		kinds = "interesting_places"
	}
	radius := r.RadiusM
	if radius <= 0 {
		radius = 15000
	}
	limit := r.Limit
	if limit <= 0 {
		limit = 20
	}

	q := url.Values{}
	q.Set("apikey", c.apiKey)
	q.Set("lat", fmt.Sprintf("%f", r.Lat))
	q.Set("lon", fmt.Sprintf("%f", r.Lon))
	q.Set("radius", fmt.Sprintf("%d", radius))
	q.Set("kinds", kinds)
	q.Set("format", "json")
	q.Set("limit", fmt.Sprintf("%d", limit))

	reqURL := fmt.Sprintf("%s/radius?%s", c.baseURL, q.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, eris.Wrap(err, "opentripmap: create request")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, resilience.Classify("opentripmap", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, eris.Wrap(err, "opentripmap: read response body")
	}

	if resp.StatusCode != http.StatusOK {
		kind := resilience.ClassifyHTTPStatus(resp.StatusCode)
		return nil, model.NewProviderError("opentripmap", kind,
			eris.Errorf("opentripmap: status %d: %s", resp.StatusCode, string(body)))
	}

	var rows []radiusRow
	if err := json.Unmarshal(body, &rows); err != nil {
		return nil, model.NewProviderError("opentripmap", model.ErrMalformedResponse,
			eris.Wrap(err, "opentripmap: unmarshal response"))
	}

	entities := make([]model.Entity, 0, len(rows))
	for _, row := range rows {
		// The API pads results with unnamed map features; they carry nothing
		// a traveler can act on.
		if strings.TrimSpace(row.Name) == "" {
			continue
		}
		entities = append(entities, model.Entity{
			ID:             row.XID,
			Name:           row.Name,
			Lat:            row.Point.Lat,
			Lon:            row.Point.Lon,
			Category:       firstKind(row.Kinds),
			Tags:           splitKinds(row.Kinds),
			DistanceMeters: row.Dist,
			Source:         model.SourceOpenTripMap,
		})
	}
	return entities, nil
}

func splitKinds(kinds string) []string {
	if kinds == "" {
		return nil
	}
	return strings.Split(kinds, ",")
}

func firstKind(kinds string) string {
	parts := splitKinds(kinds)
	if len(parts) == 0 {
		return ""
	}
	return parts[0]
}
