package trip

import (
	"context"

	"github.com/stretchr/testify/mock"
	"github.com/twpayne/go-geom"

	"github.com/wayfare-group/trip-planner-cli/internal/model"
	"github.com/wayfare-group/trip-planner-cli/pkg/llm"
	"github.com/wayfare-group/trip-planner-cli/pkg/nominatim"
	"github.com/wayfare-group/trip-planner-cli/pkg/opentripmap"
	"github.com/wayfare-group/trip-planner-cli/pkg/places"
)

// --- Places Mock ---

type mockPlacesClient struct {
	mock.Mock
}

func (m *mockPlacesClient) TextSearch(ctx context.Context, query string) ([]model.Entity, error) {
	args := m.Called(ctx, query)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Entity), args.Error(1)
}

func (m *mockPlacesClient) NearbyLodging(ctx context.Context, req places.NearbyRequest) ([]model.Entity, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Entity), args.Error(1)
}

func (m *mockPlacesClient) Details(ctx context.Context, placeID string) (*model.Entity, error) {
	args := m.Called(ctx, placeID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Entity), args.Error(1)
}

// --- Nominatim Mock ---

type mockNominatimClient struct {
	mock.Mock
}

func (m *mockNominatimClient) Geocode(ctx context.Context, query string) (*nominatim.Result, error) {
	args := m.Called(ctx, query)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*nominatim.Result), args.Error(1)
}

// --- OpenTripMap Mock ---

type mockOTMClient struct {
	mock.Mock
}

func (m *mockOTMClient) Radius(ctx context.Context, req opentripmap.RadiusRequest) ([]model.Entity, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Entity), args.Error(1)
}

// --- OpenRoute Mock ---

type mockRouterClient struct {
	mock.Mock
}

func (m *mockRouterClient) Directions(ctx context.Context, points []geom.Coord) (*model.Route, error) {
	args := m.Called(ctx, points)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Route), args.Error(1)
}

// --- Generator Mock ---

type mockGenerator struct {
	mock.Mock
	name string
}

func (m *mockGenerator) Name() string {
	if m.name != "" {
		return m.name
	}
	return "mock"
}

func (m *mockGenerator) Generate(ctx context.Context, req llm.Request) (string, error) {
	args := m.Called(ctx, req)
	return args.String(0), args.Error(1)
}
