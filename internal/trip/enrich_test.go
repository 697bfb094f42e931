package trip

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/wayfare-group/trip-planner-cli/internal/model"
)

func TestNameVariants(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want []string
	}{
		{
			name: "plain name",
			in:   "Kandy Lake",
			want: []string{"Kandy Lake"},
		},
		{
			name: "parenthesized alternative",
			in:   "Temple of the Tooth (Sri Dalada Maligawa)",
			want: []string{
				"Temple of the Tooth (Sri Dalada Maligawa)",
				"Temple of the Tooth",
				"Sri Dalada Maligawa",
				"of the Tooth (Sri Dalada Maligawa)",
			},
		},
		{
			name: "generic word stripped",
			in:   "Peradeniya Gardens",
			want: []string{"Peradeniya Gardens", "Peradeniya"},
		},
		{
			name: "short parens content dropped",
			in:   "Fort (UK)",
			want: []string{"Fort (UK)", "Fort"},
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, NameVariants(tc.in))
		})
	}
}

func TestEnricher_PartialFailureIsolation(t *testing.T) {
	client := &mockPlacesClient{}

	entities := []model.Entity{
		{ID: "1", Name: "Alpha Shrine"},
		{ID: "2", Name: "Bravo Fort"},
		{ID: "3", Name: "Charlie Viewpoint"},
		{ID: "4", Name: "Delta Waterfall"},
		{ID: "5", Name: "Echo Market"},
	}

	for _, e := range entities {
		query := fmt.Sprintf("%s, Kandy", e.Name)
		if e.ID == "3" {
			client.On("TextSearch", mock.Anything, query).
				Return(nil, model.NewProviderError("places", model.ErrRateLimited, errors.New("quota")))
			continue
		}
		client.On("TextSearch", mock.Anything, query).
			Return([]model.Entity{{ID: "place-" + e.ID, Name: e.Name}}, nil)
		client.On("Details", mock.Anything, "place-"+e.ID).
			Return(&model.Entity{ID: "place-" + e.ID, Rating: 4.5, ReviewCount: 120}, nil)
	}

	enricher := NewEnricher(client, 2)
	failures := enricher.Enrich(context.Background(), "Kandy", entities)

	require.Len(t, failures, 1, "only the failing entity reports an error")
	assert.Equal(t, "Charlie Viewpoint", failures[0].Name)

	for _, e := range entities {
		if e.ID == "3" {
			assert.Zero(t, e.Rating, "failed entity stays unenriched")
			continue
		}
		assert.InDelta(t, 4.5, e.Rating, 0.001, "sibling %s must be enriched", e.Name)
		assert.Equal(t, 120, e.ReviewCount)
	}
}

func TestEnricher_NoMatchRecordsFailure(t *testing.T) {
	client := &mockPlacesClient{}
	client.On("TextSearch", mock.Anything, mock.Anything).Return([]model.Entity{}, nil)

	enricher := NewEnricher(client, 1)
	entities := []model.Entity{{ID: "1", Name: "Unknown Spot"}}
	failures := enricher.Enrich(context.Background(), "", entities)

	require.Len(t, failures, 1)
	assert.Contains(t, failures[0].Err.Error(), "no details match")
}

func TestEnricher_FallsThroughVariants(t *testing.T) {
	client := &mockPlacesClient{}

	// The full name misses; the parens-stripped variant hits.
	client.On("TextSearch", mock.Anything, "Royal Palace (Old Wing), Kandy").
		Return([]model.Entity{}, nil)
	client.On("TextSearch", mock.Anything, "Royal Palace, Kandy").
		Return([]model.Entity{{ID: "p1", Name: "Royal Palace"}}, nil)
	client.On("Details", mock.Anything, "p1").
		Return(&model.Entity{ID: "p1", Rating: 4.2}, nil)

	enricher := NewEnricher(client, 1)
	entities := []model.Entity{{ID: "1", Name: "Royal Palace (Old Wing)"}}
	failures := enricher.Enrich(context.Background(), "Kandy", entities)

	assert.Empty(t, failures)
	assert.InDelta(t, 4.2, entities[0].Rating, 0.001)
}

func TestEnricher_DefaultConcurrency(t *testing.T) {
	e := NewEnricher(&mockPlacesClient{}, 0)
	assert.Equal(t, 4, e.concurrency)
}
