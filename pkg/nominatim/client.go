// Package nominatim provides a client for the OpenStreetMap Nominatim
// free-text geocoding API.
package nominatim

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"

	"github.com/wayfare-group/trip-planner-cli/internal/model"
	"github.com/wayfare-group/trip-planner-cli/internal/resilience"
)

// Client defines the Nominatim operations.
type Client interface {
	// Geocode resolves a free-text query to coordinates.
	Geocode(ctx context.Context, query string) (*Result, error)
}

// Result holds the geocoding output for a query.
type Result struct {
	Latitude    float64
	Longitude   float64
	DisplayName string
	Matched     bool
}

// Option configures the Nominatim client.
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

// WithUserAgent sets the User-Agent header. The public instance rejects
// requests without an identifying agent.
func WithUserAgent(ua string) Option {
	return func(c *httpClient) {
		c.userAgent = ua
	}
}

// WithRateLimit sets the requests-per-second limit. The public instance
// allows at most one request per second.
func WithRateLimit(rps float64) Option {
	return func(c *httpClient) {
		if rps > 0 {
			c.limiter = rate.NewLimiter(rate.Limit(rps), 1)
		}
	}
}

type httpClient struct {
	baseURL   string
	userAgent string
	http      *http.Client
	limiter   *rate.Limiter
}

// NewClient creates a Nominatim client.
func NewClient(opts ...Option) Client {
	c := &httpClient{
		baseURL:   "https://nominatim.openstreetmap.org",
		userAgent: "trip-planner-cli/1.0",
		http:      &http.Client{Timeout: 10 * time.Second},
		limiter:   rate.NewLimiter(1, 1),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// searchRow is one entry of the Nominatim search response. Coordinates come
// back as strings.
type searchRow struct {
	Lat         string `json:"lat"`
	Lon         string `json:"lon"`
	DisplayName string `json:"display_name"`
}

func (c *httpClient) Geocode(ctx context.Context, query string) (*Result, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, eris.Wrap(err, "nominatim: rate limit wait")
		}
	}

	reqURL := fmt.Sprintf("%s/search?q=%s&format=json&limit=1", c.baseURL, url.QueryEscape(query))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, eris.Wrap(err, "nominatim: create request")
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, resilience.Classify("nominatim", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, eris.Wrap(err, "nominatim: read response body")
	}

	if resp.StatusCode != http.StatusOK {
		kind := resilience.ClassifyHTTPStatus(resp.StatusCode)
		return nil, model.NewProviderError("nominatim", kind,
			eris.Errorf("nominatim: status %d: %s", resp.StatusCode, string(body)))
	}

	var rows []searchRow
	if err := json.Unmarshal(body, &rows); err != nil {
		return nil, model.NewProviderError("nominatim", model.ErrMalformedResponse,
			eris.Wrap(err, "nominatim: unmarshal response"))
	}

	if len(rows) == 0 {
		// No match is a valid answer, not a provider failure.
		return &Result{Matched: false}, nil
	}

	lat, latErr := strconv.ParseFloat(rows[0].Lat, 64)
	lon, lonErr := strconv.ParseFloat(rows[0].Lon, 64)
	if latErr != nil || lonErr != nil {
		return nil, model.NewProviderError("nominatim", model.ErrMalformedResponse,
			eris.Errorf("nominatim: unparsable coordinates %q,%q", rows[0].Lat, rows[0].Lon))
	}

	return &Result{
		Latitude:    lat,
		Longitude:   lon,
		DisplayName: rows[0].DisplayName,
		Matched:     true,
	}, nil
}
