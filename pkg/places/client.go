// Package places provides a client for the Google Places web service API:
// text search, nearby lodging search, and place details with reviews.
package places

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"

	"github.com/wayfare-group/trip-planner-cli/internal/model"
	"github.com/wayfare-group/trip-planner-cli/internal/resilience"
)

// Client defines the places operations.
type Client interface {
	// TextSearch resolves a free-text query to candidate places.
	TextSearch(ctx context.Context, query string) ([]model.Entity, error)
	// NearbyLodging lists lodging around a point, optionally keyword-biased.
	NearbyLodging(ctx context.Context, req NearbyRequest) ([]model.Entity, error)
	// Details fetches the full record for one place, reviews included.
	Details(ctx context.Context, placeID string) (*model.Entity, error)
}

// NearbyRequest parameterizes a nearby lodging search.
type NearbyRequest struct {
	Lat     float64
	Lon     float64
	RadiusM int
	Keyword string
	Limit   int
}

// Option configures the places client.
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

// WithRateLimit sets the requests-per-second limit.
func WithRateLimit(rps float64) Option {
	return func(c *httpClient) {
		if rps > 0 {
			c.limiter = rate.NewLimiter(rate.Limit(rps), int(rps)+1)
		}
	}
}

// WithDetailsCacheTTL sets the details cache TTL. Zero disables caching.
func WithDetailsCacheTTL(ttl time.Duration) Option {
	return func(c *httpClient) {
		if ttl > 0 {
			c.cache = gocache.New(ttl, 2*ttl)
		} else {
			c.cache = nil
		}
	}
}

type httpClient struct {
	apiKey  string
	baseURL string
	http    *http.Client
	limiter *rate.Limiter
	cache   *gocache.Cache
}

// NewClient creates a places client.
func NewClient(apiKey string, opts ...Option) Client {
	c := &httpClient{
		apiKey:  apiKey,
		baseURL: "https://maps.googleapis.com/maps/api",
		http:    &http.Client{Timeout: 10 * time.Second},
		limiter: rate.NewLimiter(10, 10),
		cache:   gocache.New(30*time.Minute, time.Hour),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type location struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

type placeRow struct {
	PlaceID          string   `json:"place_id"`
	Name             string   `json:"name"`
	Rating           float64  `json:"rating"`
	UserRatingsTotal int      `json:"user_ratings_total"`
	PriceLevel       *int     `json:"price_level"`
	Vicinity         string   `json:"vicinity"`
	FormattedAddress string   `json:"formatted_address"`
	Types            []string `json:"types"`
	Geometry         struct {
		Location location `json:"location"`
	} `json:"geometry"`
}

type searchResponse struct {
	Status       string     `json:"status"`
	ErrorMessage string     `json:"error_message"`
	Results      []placeRow `json:"results"`
}

type reviewRow struct {
	AuthorName              string  `json:"author_name"`
	Rating                  float64 `json:"rating"`
	Text                    string  `json:"text"`
	RelativeTimeDescription string  `json:"relative_time_description"`
}

type detailsResponse struct {
	Status       string `json:"status"`
	ErrorMessage string `json:"error_message"`
	Result       struct {
		placeRow
		Website          string      `json:"website"`
		Reviews          []reviewRow `json:"reviews"`
		EditorialSummary struct {
			Overview string `json:"overview"`
		} `json:"editorial_summary"`
	} `json:"result"`
}

// classifyStatus maps the API's envelope status to a provider error kind.
// OK and ZERO_RESULTS are successes.
func classifyStatus(status string) (model.ProviderErrorKind, bool) {
	switch status {
	case "OK", "ZERO_RESULTS":
		return "", false
	case "OVER_QUERY_LIMIT":
		return model.ErrRateLimited, true
	case "REQUEST_DENIED":
		return model.ErrAuthFailure, true
	case "NOT_FOUND":
		return model.ErrNotFound, true
	case "INVALID_REQUEST":
		return model.ErrMalformedResponse, true
	default:
		return model.ErrUnknown, true
	}
}

func (c *httpClient) get(ctx context.Context, path string, q url.Values, out any) error {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return eris.Wrap(err, "places: rate limit wait")
		}
	}

	q.Set("key", c.apiKey)
	reqURL := fmt.Sprintf("%s%s?%s", c.baseURL, path, q.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return eris.Wrap(err, "places: create request")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return resilience.Classify("places", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return eris.Wrap(err, "places: read response body")
	}

	if resp.StatusCode != http.StatusOK {
		kind := resilience.ClassifyHTTPStatus(resp.StatusCode)
		return model.NewProviderError("places", kind,
			eris.Errorf("places: status %d: %s", resp.StatusCode, string(body)))
	}

	if err := json.Unmarshal(body, out); err != nil {
		return model.NewProviderError("places", model.ErrMalformedResponse,
			eris.Wrap(err, "places: unmarshal response"))
	}
	return nil
}

func (c *httpClient) TextSearch(ctx context.Context, query string) ([]model.Entity, error) {
	q := url.Values{}
	q.Set("query", query)

	var sr searchResponse
	if err := c.get(ctx, "/place/textsearch/json", q, &sr); err != nil {
		return nil, err
	}
	if kind, bad := classifyStatus(sr.Status); bad {
		return nil, model.NewProviderError("places", kind,
			eris.Errorf("places: text search status %s: %s", sr.Status, sr.ErrorMessage))
	}

	entities := make([]model.Entity, 0, len(sr.Results))
	for _, row := range sr.Results {
		entities = append(entities, rowToEntity(row))
	}
	return entities, nil
}

func (c *httpClient) NearbyLodging(ctx context.Context, r NearbyRequest) ([]model.Entity, error) {
	radius := r.RadiusM
	if radius <= 0 {
		radius = 5000
	}

	q := url.Values{}
	q.Set("location", fmt.Sprintf("%f,%f", r.Lat, r.Lon))
	q.Set("radius", fmt.Sprintf("%d", radius))
	q.Set("type", "lodging")
	q.Set("rankby", "prominence")
	if r.Keyword != "" {
		q.Set("keyword", r.Keyword)
	}

	var sr searchResponse
	if err := c.get(ctx, "/place/nearbysearch/json", q, &sr); err != nil {
		return nil, err
	}
	if kind, bad := classifyStatus(sr.Status); bad {
		return nil, model.NewProviderError("places", kind,
			eris.Errorf("places: nearby search status %s: %s", sr.Status, sr.ErrorMessage))
	}

	rows := sr.Results
	if r.Limit > 0 && len(rows) > r.Limit {
		rows = rows[:r.Limit]
	}
	entities := make([]model.Entity, 0, len(rows))
	for _, row := range rows {
		e := rowToEntity(row)
		e.Category = "lodging"
		entities = append(entities, e)
	}
	return entities, nil
}

const detailsFields = "name,place_id,formatted_address,geometry,rating,user_ratings_total,price_level,website,reviews,editorial_summary,types"

func (c *httpClient) Details(ctx context.Context, placeID string) (*model.Entity, error) {
	if c.cache != nil {
		if hit, ok := c.cache.Get(placeID); ok {
			cached := hit.(model.Entity)
			return &cached, nil
		}
	}

	q := url.Values{}
	q.Set("place_id", placeID)
	q.Set("fields", detailsFields)

	var dr detailsResponse
	if err := c.get(ctx, "/place/details/json", q, &dr); err != nil {
		return nil, err
	}
	if kind, bad := classifyStatus(dr.Status); bad {
		return nil, model.NewProviderError("places", kind,
			eris.Errorf("places: details status %s: %s", dr.Status, dr.ErrorMessage))
	}
	if dr.Status == "ZERO_RESULTS" || dr.Result.PlaceID == "" {
		return nil, model.NewProviderError("places", model.ErrNotFound,
			eris.Errorf("places: no details for %s", placeID))
	}

	e := rowToEntity(dr.Result.placeRow)
	e.Description = dr.Result.EditorialSummary.Overview
	for _, rv := range dr.Result.Reviews {
		e.Reviews = append(e.Reviews, model.Review{
			Author: rv.AuthorName,
			Rating: rv.Rating,
			Text:   rv.Text,
			When:   rv.RelativeTimeDescription,
		})
	}

	if c.cache != nil {
		c.cache.SetDefault(placeID, e)
	}
	return &e, nil
}

func rowToEntity(row placeRow) model.Entity {
	addr := row.FormattedAddress
	if addr == "" {
		addr = row.Vicinity
	}
	category := ""
	if len(row.Types) > 0 {
		category = row.Types[0]
	}
	return model.Entity{
		ID:          row.PlaceID,
		Name:        row.Name,
		Lat:         row.Geometry.Location.Lat,
		Lon:         row.Geometry.Location.Lng,
		Rating:      row.Rating,
		ReviewCount: row.UserRatingsTotal,
		PriceLevel:  row.PriceLevel,
		Address:     addr,
		Category:    category,
		Tags:        row.Types,
		Source:      model.SourcePlaces,
	}
}
