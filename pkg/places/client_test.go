package places

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wayfare-group/trip-planner-cli/internal/model"
)

func TestTextSearch_Success(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/place/textsearch/json", r.URL.Path)
		assert.Equal(t, "Kandy, Sri Lanka", r.URL.Query().Get("query"))
		assert.Equal(t, "test-key", r.URL.Query().Get("key"))

		w.Write([]byte(`{
			"status": "OK",
			"results": [{
				"place_id": "ChIJkandy",
				"name": "Kandy",
				"formatted_address": "Kandy, Sri Lanka",
				"rating": 4.6,
				"user_ratings_total": 1200,
				"types": ["locality", "political"],
				"geometry": {"location": {"lat": 7.2906, "lng": 80.6337}}
			}]
		}`))
	}))
	defer srv.Close()

	client := NewClient("test-key", WithBaseURL(srv.URL), WithRateLimit(1000))
	got, err := client.TextSearch(context.Background(), "Kandy, Sri Lanka")

	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "ChIJkandy", got[0].ID)
	assert.InDelta(t, 7.2906, got[0].Lat, 0.0001)
	assert.InDelta(t, 80.6337, got[0].Lon, 0.0001)
	assert.Equal(t, "locality", got[0].Category)
	assert.Equal(t, model.SourcePlaces, got[0].Source)
}

func TestTextSearch_ZeroResults(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status":"ZERO_RESULTS","results":[]}`))
	}))
	defer srv.Close()

	client := NewClient("test-key", WithBaseURL(srv.URL), WithRateLimit(1000))
	got, err := client.TextSearch(context.Background(), "xqzvw")

	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestTextSearch_RequestDenied(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status":"REQUEST_DENIED","error_message":"The provided API key is invalid."}`))
	}))
	defer srv.Close()

	client := NewClient("bad-key", WithBaseURL(srv.URL), WithRateLimit(1000))
	_, err := client.TextSearch(context.Background(), "Kandy")

	require.Error(t, err)
	var pe *model.ProviderError
	require.True(t, errors.As(err, &pe))
	assert.Equal(t, model.ErrAuthFailure, pe.Kind)
}

func TestTextSearch_OverQueryLimit(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status":"OVER_QUERY_LIMIT"}`))
	}))
	defer srv.Close()

	client := NewClient("test-key", WithBaseURL(srv.URL), WithRateLimit(1000))
	_, err := client.TextSearch(context.Background(), "Kandy")

	var pe *model.ProviderError
	require.True(t, errors.As(err, &pe))
	assert.Equal(t, model.ErrRateLimited, pe.Kind)
}

func TestNearbyLodging_Success(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/place/nearbysearch/json", r.URL.Path)
		q := r.URL.Query()
		assert.Equal(t, "lodging", q.Get("type"))
		assert.Equal(t, "5000", q.Get("radius"))
		assert.Equal(t, "boutique", q.Get("keyword"))

		w.Write([]byte(`{
			"status": "OK",
			"results": [
				{"place_id":"h1","name":"Queens Hotel","rating":4.2,"user_ratings_total":900,"price_level":2,"vicinity":"Dalada Veediya, Kandy","types":["lodging"],"geometry":{"location":{"lat":7.2931,"lng":80.6409}}},
				{"place_id":"h2","name":"Hilltop Lodge","rating":4.0,"user_ratings_total":220,"vicinity":"Peradeniya Rd","types":["lodging"],"geometry":{"location":{"lat":7.28,"lng":80.63}}},
				{"place_id":"h3","name":"Budget Rest","rating":3.1,"user_ratings_total":40,"vicinity":"Station Rd","types":["lodging"],"geometry":{"location":{"lat":7.27,"lng":80.62}}}
			]
		}`))
	}))
	defer srv.Close()

	client := NewClient("test-key", WithBaseURL(srv.URL), WithRateLimit(1000))
	got, err := client.NearbyLodging(context.Background(), NearbyRequest{
		Lat: 7.2906, Lon: 80.6337, Keyword: "boutique", Limit: 2,
	})

	require.NoError(t, err)
	require.Len(t, got, 2, "limit trims the result list")
	assert.Equal(t, "Queens Hotel", got[0].Name)
	assert.Equal(t, "lodging", got[0].Category)
	require.NotNil(t, got[0].PriceLevel)
	assert.Equal(t, 2, *got[0].PriceLevel)
	assert.Equal(t, "Dalada Veediya, Kandy", got[0].Address)
	assert.Nil(t, got[1].PriceLevel, "absent price level stays unset")
}

func TestDetails_SuccessWithReviews(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/place/details/json", r.URL.Path)
		assert.Equal(t, "p1", r.URL.Query().Get("place_id"))
		assert.NotEmpty(t, r.URL.Query().Get("fields"))

		w.Write([]byte(`{
			"status": "OK",
			"result": {
				"place_id": "p1",
				"name": "Temple of the Tooth",
				"formatted_address": "Sri Dalada Veediya, Kandy",
				"rating": 4.7,
				"user_ratings_total": 31000,
				"geometry": {"location": {"lat": 7.2936, "lng": 80.6413}},
				"editorial_summary": {"overview": "Sacred Buddhist temple housing a relic of the tooth of the Buddha."},
				"reviews": [
					{"author_name":"A","rating":5,"text":"Stunning.","relative_time_description":"a week ago"},
					{"author_name":"B","rating":4,"text":"Crowded but worth it.","relative_time_description":"a month ago"}
				]
			}
		}`))
	}))
	defer srv.Close()

	client := NewClient("test-key", WithBaseURL(srv.URL), WithRateLimit(1000))
	got, err := client.Details(context.Background(), "p1")

	require.NoError(t, err)
	assert.Equal(t, "Temple of the Tooth", got.Name)
	assert.Equal(t, "Sacred Buddhist temple housing a relic of the tooth of the Buddha.", got.Description)
	require.Len(t, got.Reviews, 2)
	assert.Equal(t, "A", got.Reviews[0].Author)
	assert.Equal(t, "a week ago", got.Reviews[0].When)
}

func TestDetails_CachesSecondLookup(t *testing.T) {
	t.Parallel()

	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.Write([]byte(`{"status":"OK","result":{"place_id":"p1","name":"Kandy Lake","geometry":{"location":{"lat":7.29,"lng":80.64}},"rating":4.4,"user_ratings_total":100}}`))
	}))
	defer srv.Close()

	client := NewClient("test-key",
		WithBaseURL(srv.URL),
		WithRateLimit(1000),
		WithDetailsCacheTTL(time.Minute),
	)

	first, err := client.Details(context.Background(), "p1")
	require.NoError(t, err)
	second, err := client.Details(context.Background(), "p1")
	require.NoError(t, err)

	assert.Equal(t, first.Name, second.Name)
	assert.Equal(t, int32(1), hits.Load(), "second lookup must hit the cache")
}

func TestDetails_NotFound(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status":"NOT_FOUND"}`))
	}))
	defer srv.Close()

	client := NewClient("test-key", WithBaseURL(srv.URL), WithRateLimit(1000))
	_, err := client.Details(context.Background(), "gone")

	var pe *model.ProviderError
	require.True(t, errors.As(err, &pe))
	assert.Equal(t, model.ErrNotFound, pe.Kind)
}

func TestGet_TransportError(t *testing.T) {
	t.Parallel()

	client := NewClient("test-key", WithBaseURL("http://127.0.0.1:1"), WithRateLimit(1000))
	_, err := client.TextSearch(context.Background(), "Kandy")
	require.Error(t, err)
	var pe *model.ProviderError
	assert.True(t, errors.As(err, &pe))
}
