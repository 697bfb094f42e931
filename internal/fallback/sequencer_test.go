package fallback

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wayfare-group/trip-planner-cli/internal/model"
	"github.com/wayfare-group/trip-planner-cli/internal/resilience"
)

func TestResolve_FirstProviderWins(t *testing.T) {
	var secondCalled atomic.Bool

	seq := NewSequencer[string, string]("geocode")
	val, err := seq.Resolve(context.Background(), "kandy", []Provider[string, string]{
		{
			Name: "places",
			Call: func(_ context.Context, q string) (string, error) { return "7.29,80.64", nil },
		},
		{
			Name: "nominatim",
			Call: func(_ context.Context, q string) (string, error) {
				secondCalled.Store(true)
				return "", nil
			},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, "7.29,80.64", val)
	assert.False(t, secondCalled.Load(), "second provider must not be invoked when the first succeeds")
}

func TestResolve_FallsThroughOnError(t *testing.T) {
	seq := NewSequencer[string, string]("geocode")
	val, err := seq.Resolve(context.Background(), "kandy", []Provider[string, string]{
		{
			Name: "places",
			Call: func(_ context.Context, q string) (string, error) {
				return "", model.NewProviderError("places", model.ErrAuthFailure, errors.New("bad key"))
			},
		},
		{
			Name: "nominatim",
			Call: func(_ context.Context, q string) (string, error) { return "7.29,80.64", nil },
		},
	})
	require.NoError(t, err)
	assert.Equal(t, "7.29,80.64", val)
}

func TestResolve_ExhaustionAggregatesAttempts(t *testing.T) {
	seq := NewSequencer[string, string]("geocode")
	_, err := seq.Resolve(context.Background(), "nowhere", []Provider[string, string]{
		{
			Name: "places",
			Call: func(_ context.Context, q string) (string, error) {
				return "", model.NewProviderError("places", model.ErrRateLimited, errors.New("429"))
			},
		},
		{
			Name: "nominatim",
			Call: func(_ context.Context, q string) (string, error) {
				return "", errors.New("boom")
			},
		},
	})
	require.Error(t, err)

	var agg *model.AggregateError
	require.ErrorAs(t, err, &agg)
	assert.Equal(t, "geocode", agg.Operation)
	require.Len(t, agg.Attempts, 2)
	assert.Equal(t, model.ErrRateLimited, agg.Attempts[0].Kind)
	assert.Equal(t, "places", agg.Attempts[0].Provider)
	assert.Equal(t, model.ErrUnknown, agg.Attempts[1].Kind)
	assert.Equal(t, "nominatim", agg.Attempts[1].Provider)
}

func TestResolve_InvalidResultCountsAsAttempt(t *testing.T) {
	seq := NewSequencer[string, []string]("poi_discovery")
	val, err := seq.Resolve(context.Background(), "kandy", []Provider[string, []string]{
		{
			Name:     "llm",
			Call:     func(_ context.Context, q string) ([]string, error) { return nil, nil },
			Validate: func(v []string) bool { return len(v) > 0 },
		},
		{
			Name:     "opentripmap",
			Call:     func(_ context.Context, q string) ([]string, error) { return []string{"temple"}, nil },
			Validate: func(v []string) bool { return len(v) > 0 },
		},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"temple"}, val)
}

func TestResolve_InvalidResultKind(t *testing.T) {
	seq := NewSequencer[string, string]("geocode")
	_, err := seq.Resolve(context.Background(), "x", []Provider[string, string]{
		{
			Name:     "places",
			Call:     func(_ context.Context, q string) (string, error) { return "", nil },
			Validate: func(v string) bool { return v != "" },
		},
	})

	var agg *model.AggregateError
	require.ErrorAs(t, err, &agg)
	require.Len(t, agg.Attempts, 1)
	assert.Equal(t, model.ErrMalformedResponse, agg.Attempts[0].Kind)
}

func TestResolve_HungProviderDoesNotStarveChain(t *testing.T) {
	seq := NewSequencer("geocode", WithTimeout[string, string](30*time.Millisecond))

	start := time.Now()
	val, err := seq.Resolve(context.Background(), "kandy", []Provider[string, string]{
		{
			Name: "places",
			Call: func(ctx context.Context, q string) (string, error) {
				// Ignores its context entirely.
				time.Sleep(5 * time.Second)
				return "too late", nil
			},
		},
		{
			Name: "nominatim",
			Call: func(_ context.Context, q string) (string, error) { return "7.29,80.64", nil },
		},
	})
	require.NoError(t, err)
	assert.Equal(t, "7.29,80.64", val)
	assert.Less(t, time.Since(start), 2*time.Second, "hung provider must be abandoned at its deadline")
}

func TestResolve_TimeoutAttemptClassified(t *testing.T) {
	seq := NewSequencer("route", WithTimeout[string, string](20*time.Millisecond))

	_, err := seq.Resolve(context.Background(), "x", []Provider[string, string]{
		{
			Name: "openroute",
			Call: func(ctx context.Context, q string) (string, error) {
				<-ctx.Done()
				return "", ctx.Err()
			},
		},
	})

	var agg *model.AggregateError
	require.ErrorAs(t, err, &agg)
	require.Len(t, agg.Attempts, 1)
	assert.Equal(t, model.ErrTimeout, agg.Attempts[0].Kind)
}

func TestResolve_CancelledContextStopsChain(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var called atomic.Bool
	seq := NewSequencer[string, string]("geocode")
	_, err := seq.Resolve(ctx, "kandy", []Provider[string, string]{
		{
			Name: "places",
			Call: func(_ context.Context, q string) (string, error) {
				called.Store(true)
				return "x", nil
			},
		},
	})
	require.Error(t, err)
	assert.False(t, called.Load(), "providers must not run after caller cancellation")
}

func TestResolve_OpenBreakerSkipsProvider(t *testing.T) {
	breakers := resilience.NewProviderBreakers(resilience.CircuitBreakerConfig{
		FailureThreshold: 1,
		ResetTimeout:     time.Hour,
	})
	seq := NewSequencer("geocode", WithBreakers[string, string](breakers))

	failing := Provider[string, string]{
		Name: "places",
		Call: func(_ context.Context, q string) (string, error) {
			return "", model.NewProviderError("places", model.ErrTimeout, errors.New("slow"))
		},
	}
	healthy := Provider[string, string]{
		Name: "nominatim",
		Call: func(_ context.Context, q string) (string, error) { return "ok", nil },
	}

	// First run trips the places breaker.
	val, err := seq.Resolve(context.Background(), "a", []Provider[string, string]{failing, healthy})
	require.NoError(t, err)
	assert.Equal(t, "ok", val)

	// Second run: places is skipped without being called.
	var placesCalled atomic.Bool
	tripped := Provider[string, string]{
		Name: "places",
		Call: func(_ context.Context, q string) (string, error) {
			placesCalled.Store(true)
			return "x", nil
		},
	}
	val, err = seq.Resolve(context.Background(), "b", []Provider[string, string]{tripped, healthy})
	require.NoError(t, err)
	assert.Equal(t, "ok", val)
	assert.False(t, placesCalled.Load(), "open breaker must skip the provider")
}

func TestResolve_RetryWithinAttempt(t *testing.T) {
	var calls atomic.Int32
	seq := NewSequencer("details", WithRetry[string, string](resilience.RetryConfig{
		MaxAttempts:    3,
		InitialBackoff: time.Millisecond,
	}))

	val, err := seq.Resolve(context.Background(), "temple", []Provider[string, string]{
		{
			Name: "places",
			Call: func(_ context.Context, q string) (string, error) {
				if calls.Add(1) < 3 {
					return "", model.NewProviderError("places", model.ErrRateLimited, errors.New("429"))
				}
				return "details", nil
			},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, "details", val)
	assert.Equal(t, int32(3), calls.Load())
}
