package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pkordes/tripsync/backend/internal/domain"
	"github.com/pkordes/tripsync/backend/internal/handler"
	"github.com/pkordes/tripsync/backend/internal/service"
)

// mockTripServicer is a test double for handler.TripServicer.
// Set only the method fields your test needs.
type mockTripServicer struct {
	createTrip    func(ctx context.Context, origin, destination string, stops []string) (service.CreateResult, error)
	joinTrip      func(ctx context.Context, token string) (domain.Trip, error)
	addStop       func(ctx context.Context, tripID, name, address string) (domain.Stop, error)
	listStops     func(ctx context.Context, tripID string) ([]domain.Stop, error)
	getTrip       func(ctx context.Context, tripID string) (domain.Trip, error)
	currentTrip   func(ctx context.Context) (domain.Trip, error)
	listTrips     func(ctx context.Context, p domain.PaginationParams) ([]domain.Trip, int64, error)
	directionsURL func(ctx context.Context, tripID string) (string, error)
}

func (m *mockTripServicer) CreateTrip(ctx context.Context, origin, destination string, stops []string) (service.CreateResult, error) {
	return m.createTrip(ctx, origin, destination, stops)
}
func (m *mockTripServicer) JoinTrip(ctx context.Context, token string) (domain.Trip, error) {
	return m.joinTrip(ctx, token)
}
func (m *mockTripServicer) AddStop(ctx context.Context, tripID, name, address string) (domain.Stop, error) {
	return m.addStop(ctx, tripID, name, address)
}
func (m *mockTripServicer) ListStops(ctx context.Context, tripID string) ([]domain.Stop, error) {
	return m.listStops(ctx, tripID)
}
func (m *mockTripServicer) GetTrip(ctx context.Context, tripID string) (domain.Trip, error) {
	return m.getTrip(ctx, tripID)
}
func (m *mockTripServicer) CurrentTrip(ctx context.Context) (domain.Trip, error) {
	return m.currentTrip(ctx)
}
func (m *mockTripServicer) ListTrips(ctx context.Context, p domain.PaginationParams) ([]domain.Trip, int64, error) {
	return m.listTrips(ctx, p)
}
func (m *mockTripServicer) DirectionsURL(ctx context.Context, tripID string) (string, error) {
	return m.directionsURL(ctx, tripID)
}

// compile-time check: mockTripServicer must satisfy handler.TripServicer.
var _ handler.TripServicer = (*mockTripServicer)(nil)

// ---- helpers ---------------------------------------------------------------

// newHTTPHandler wires a Server with the given mock into the chi router.
// This mirrors exactly how main.go wires it in production.
func newHTTPHandler(svc handler.TripServicer) http.Handler {
	return handler.Handler(handler.NewServer(svc, nil, nil))
}

func tripFixture() domain.Trip {
	return domain.Trip{
		ID:          "abc123",
		Origin:      "San Francisco, CA",
		Destination: "Los Angeles, CA",
		Stops:       domain.StopsFromNames([]string{"Monterey, CA"}),
		CreatedAt:   time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC),
		CreatedBy:   domain.DefaultCreator,
		Source:      domain.SourceLocal,
	}
}

func jsonBody(t *testing.T, v any) *bytes.Buffer {
	t.Helper()
	b, err := json.Marshal(v)
	require.NoError(t, err)
	return bytes.NewBuffer(b)
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) handler.ErrorResponse {
	t.Helper()
	var resp handler.ErrorResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	return resp
}

func serve(h http.Handler, method, path string, body *bytes.Buffer) *httptest.ResponseRecorder {
	var req *http.Request
	if body == nil {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, body)
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

// ---- POST /trips -----------------------------------------------------------

func TestCreateTrip_201_LocalFallback(t *testing.T) {
	fixture := tripFixture()
	var gotStops []string
	svc := &mockTripServicer{
		createTrip: func(_ context.Context, origin, destination string, stops []string) (service.CreateResult, error) {
			assert.Equal(t, "San Francisco, CA", origin)
			assert.Equal(t, "Los Angeles, CA", destination)
			gotStops = stops
			return service.CreateResult{Token: fixture.Token(), Source: domain.SourceLocal, Trip: fixture}, nil
		},
	}

	rec := serve(newHTTPHandler(svc), http.MethodPost, "/trips", jsonBody(t, map[string]any{
		"origin":      "San Francisco, CA",
		"destination": "Los Angeles, CA",
		"stops":       []string{"Monterey, CA"},
	}))

	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, []string{"Monterey, CA"}, gotStops)

	var resp handler.CreateTripResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, "trips/abc123", resp.Token)
	assert.Equal(t, domain.SourceLocal, resp.Source)
	assert.Equal(t, "abc123", resp.Trip.ID)
	require.Len(t, resp.Trip.Stops, 1)
	assert.Equal(t, "stop-0", resp.Trip.Stops[0].ID)
	assert.Nil(t, resp.Trip.ShareLink)
}

func TestCreateTrip_201_RemoteShareLink(t *testing.T) {
	fixture := tripFixture()
	fixture.Source = domain.SourceRemote
	fixture.ShareLink = "https://mapsync.example/trips/abc123"
	svc := &mockTripServicer{
		createTrip: func(_ context.Context, _, _ string, _ []string) (service.CreateResult, error) {
			return service.CreateResult{Token: fixture.ShareLink, Source: domain.SourceRemote, Trip: fixture}, nil
		},
	}

	rec := serve(newHTTPHandler(svc), http.MethodPost, "/trips", jsonBody(t, map[string]any{
		"origin": "A", "destination": "B",
	}))

	require.Equal(t, http.StatusCreated, rec.Code)
	var resp handler.CreateTripResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, fixture.ShareLink, resp.Token)
	assert.Equal(t, domain.SourceRemote, resp.Source)
	require.NotNil(t, resp.Trip.ShareLink)
	assert.Equal(t, fixture.ShareLink, *resp.Trip.ShareLink)
}

func TestCreateTrip_422_ValidationError(t *testing.T) {
	svc := &mockTripServicer{
		createTrip: func(_ context.Context, _, _ string, _ []string) (service.CreateResult, error) {
			return service.CreateResult{}, fmt.Errorf("service.TripService.CreateTrip: %w: origin and destination are required", domain.ErrValidation)
		},
	}

	rec := serve(newHTTPHandler(svc), http.MethodPost, "/trips", jsonBody(t, map[string]any{"origin": ""}))

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	resp := decodeError(t, rec)
	assert.Equal(t, "validation_error", resp.Error.Code)
	assert.Equal(t, "origin and destination are required", resp.Error.Message)
}

func TestCreateTrip_422_MalformedBody(t *testing.T) {
	svc := &mockTripServicer{} // service must not be called

	rec := serve(newHTTPHandler(svc), http.MethodPost, "/trips", bytes.NewBufferString("{not json"))

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, "request body must be valid JSON", decodeError(t, rec).Error.Message)
}

func TestCreateTrip_422_MissingBody(t *testing.T) {
	rec := serve(newHTTPHandler(&mockTripServicer{}), http.MethodPost, "/trips", nil)

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, "request body is required", decodeError(t, rec).Error.Message)
}

func TestCreateTrip_413_BodyTooLarge(t *testing.T) {
	h := newHTTPHandler(&mockTripServicer{})
	req := httptest.NewRequest(http.MethodPost, "/trips", strings.NewReader(`{"origin":"`+strings.Repeat("x", 64)+`"}`))
	rec := httptest.NewRecorder()
	req.Body = http.MaxBytesReader(rec, req.Body, 16)

	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
}

func TestCreateTrip_502_RemoteUnavailable(t *testing.T) {
	svc := &mockTripServicer{
		createTrip: func(_ context.Context, _, _ string, _ []string) (service.CreateResult, error) {
			return service.CreateResult{}, fmt.Errorf("service.TripService.CreateTrip: %w: %w", domain.ErrRemoteUnavailable, errors.New("timeout"))
		},
	}

	rec := serve(newHTTPHandler(svc), http.MethodPost, "/trips", jsonBody(t, map[string]any{"origin": "A", "destination": "B"}))

	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Equal(t, "remote_unavailable", decodeError(t, rec).Error.Code)
}

func TestCreateTrip_500_UnexpectedError(t *testing.T) {
	svc := &mockTripServicer{
		createTrip: func(_ context.Context, _, _ string, _ []string) (service.CreateResult, error) {
			return service.CreateResult{}, errors.New("db exploded")
		},
	}

	rec := serve(newHTTPHandler(svc), http.MethodPost, "/trips", jsonBody(t, map[string]any{"origin": "A", "destination": "B"}))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	resp := decodeError(t, rec)
	assert.Equal(t, "internal_error", resp.Error.Code)
	assert.NotContains(t, resp.Error.Message, "db exploded", "internal detail must not leak")
}

// ---- GET /trips ------------------------------------------------------------

func TestListTrips_200_DefaultPagination(t *testing.T) {
	fixture := tripFixture()
	var gotParams domain.PaginationParams
	svc := &mockTripServicer{
		listTrips: func(_ context.Context, p domain.PaginationParams) ([]domain.Trip, int64, error) {
			gotParams = p
			return []domain.Trip{fixture}, 1, nil
		},
	}

	rec := serve(newHTTPHandler(svc), http.MethodGet, "/trips", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, domain.PaginationParams{Page: 1, Limit: 20}, gotParams)

	var resp handler.TripList
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	require.Len(t, resp.Data, 1)
	assert.Equal(t, "trips/abc123", resp.Data[0].Token)
	assert.Equal(t, handler.Pagination{Page: 1, Limit: 20, Total: 1}, resp.Pagination)
}

func TestListTrips_200_QueryParams(t *testing.T) {
	var gotParams domain.PaginationParams
	svc := &mockTripServicer{
		listTrips: func(_ context.Context, p domain.PaginationParams) ([]domain.Trip, int64, error) {
			gotParams = p
			return []domain.Trip{}, 0, nil
		},
	}

	rec := serve(newHTTPHandler(svc), http.MethodGet, "/trips?page=3&limit=500", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, domain.PaginationParams{Page: 3, Limit: 100}, gotParams, "limit is capped")

	var resp handler.TripList
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.NotNil(t, resp.Data)
	assert.Empty(t, resp.Data)
}

func TestListTrips_422_BadPage(t *testing.T) {
	rec := serve(newHTTPHandler(&mockTripServicer{}), http.MethodGet, "/trips?page=abc", nil)

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

// ---- GET /trips/current ----------------------------------------------------

func TestGetCurrentTrip_200(t *testing.T) {
	fixture := tripFixture()
	svc := &mockTripServicer{
		currentTrip: func(_ context.Context) (domain.Trip, error) { return fixture, nil },
		getTrip: func(_ context.Context, _ string) (domain.Trip, error) {
			t.Fatal("/trips/current must not be routed to GetTrip")
			return domain.Trip{}, nil
		},
	}

	rec := serve(newHTTPHandler(svc), http.MethodGet, "/trips/current", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp handler.Trip
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, "abc123", resp.ID)
}

func TestGetCurrentTrip_404_NoneYet(t *testing.T) {
	svc := &mockTripServicer{
		currentTrip: func(_ context.Context) (domain.Trip, error) {
			return domain.Trip{}, fmt.Errorf("service.TripService.CurrentTrip: no current trip: %w", domain.ErrNotFound)
		},
	}

	rec := serve(newHTTPHandler(svc), http.MethodGet, "/trips/current", nil)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "no current trip", decodeError(t, rec).Error.Message)
}

// ---- POST /trips/join ------------------------------------------------------

func TestJoinTrip_200(t *testing.T) {
	fixture := tripFixture()
	svc := &mockTripServicer{
		joinTrip: func(_ context.Context, token string) (domain.Trip, error) {
			assert.Equal(t, "trips/abc123", token)
			return fixture, nil
		},
	}

	rec := serve(newHTTPHandler(svc), http.MethodPost, "/trips/join", jsonBody(t, map[string]string{"token": "trips/abc123"}))

	require.Equal(t, http.StatusOK, rec.Code)
	var resp handler.Trip
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, "abc123", resp.ID)
}

func TestJoinTrip_404_InvalidTripID(t *testing.T) {
	svc := &mockTripServicer{
		joinTrip: func(_ context.Context, _ string) (domain.Trip, error) {
			return domain.Trip{}, domain.ErrNotFound
		},
	}

	rec := serve(newHTTPHandler(svc), http.MethodPost, "/trips/join", jsonBody(t, map[string]string{"token": "nonexistent"}))

	assert.Equal(t, http.StatusNotFound, rec.Code)
	resp := decodeError(t, rec)
	assert.Equal(t, "not_found", resp.Error.Code)
	assert.Equal(t, "invalid trip id", resp.Error.Message)
}

func TestJoinTrip_422_EmptyToken(t *testing.T) {
	svc := &mockTripServicer{
		joinTrip: func(_ context.Context, _ string) (domain.Trip, error) {
			return domain.Trip{}, fmt.Errorf("service.TripService.JoinTrip: %w: trip id is required", domain.ErrValidation)
		},
	}

	rec := serve(newHTTPHandler(svc), http.MethodPost, "/trips/join", jsonBody(t, map[string]string{"token": ""}))

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, "trip id is required", decodeError(t, rec).Error.Message)
}

// ---- GET /trips/{tripId} ---------------------------------------------------

func TestGetTrip_200(t *testing.T) {
	fixture := tripFixture()
	svc := &mockTripServicer{
		getTrip: func(_ context.Context, id string) (domain.Trip, error) {
			assert.Equal(t, "abc123", id)
			return fixture, nil
		},
	}

	rec := serve(newHTTPHandler(svc), http.MethodGet, "/trips/abc123", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp handler.Trip
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, fixture.Origin, resp.Origin)
	assert.Equal(t, fixture.Destination, resp.Destination)
	assert.Equal(t, domain.DefaultCreator, resp.CreatedBy)
	assert.True(t, fixture.CreatedAt.Equal(resp.CreatedAt))
}

func TestGetTrip_404(t *testing.T) {
	svc := &mockTripServicer{
		getTrip: func(_ context.Context, _ string) (domain.Trip, error) {
			return domain.Trip{}, domain.ErrNotFound
		},
	}

	rec := serve(newHTTPHandler(svc), http.MethodGet, "/trips/nonexistent", nil)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "trip not found", decodeError(t, rec).Error.Message)
}

// ---- POST /trips/{tripId}/stops --------------------------------------------

func TestAddStop_201(t *testing.T) {
	svc := &mockTripServicer{
		addStop: func(_ context.Context, tripID, name, address string) (domain.Stop, error) {
			assert.Equal(t, "abc123", tripID)
			return domain.Stop{ID: "stop-1", Name: name, Address: address}, nil
		},
	}

	rec := serve(newHTTPHandler(svc), http.MethodPost, "/trips/abc123/stops", jsonBody(t, map[string]string{
		"name":    "Golden Gate Bridge",
		"address": "Golden Gate Bridge, San Francisco, CA",
	}))

	require.Equal(t, http.StatusCreated, rec.Code)
	var resp handler.Stop
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, handler.Stop{
		ID:      "stop-1",
		Name:    "Golden Gate Bridge",
		Address: "Golden Gate Bridge, San Francisco, CA",
	}, resp)
}

func TestAddStop_404_UnknownTrip(t *testing.T) {
	svc := &mockTripServicer{
		addStop: func(_ context.Context, _, _, _ string) (domain.Stop, error) {
			return domain.Stop{}, fmt.Errorf("service.TripService.AddStop: %w", domain.ErrNotFound)
		},
	}

	rec := serve(newHTTPHandler(svc), http.MethodPost, "/trips/nonexistent/stops", jsonBody(t, map[string]string{
		"name": "X", "address": "Y",
	}))

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "trip not found", decodeError(t, rec).Error.Message)
}

func TestAddStop_422_MissingFields(t *testing.T) {
	svc := &mockTripServicer{
		addStop: func(_ context.Context, _, _, _ string) (domain.Stop, error) {
			return domain.Stop{}, fmt.Errorf("service.TripService.AddStop: %w: both name and address are required", domain.ErrValidation)
		},
	}

	rec := serve(newHTTPHandler(svc), http.MethodPost, "/trips/abc123/stops", jsonBody(t, map[string]string{"name": "X"}))

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, "both name and address are required", decodeError(t, rec).Error.Message)
}

// ---- GET /trips/{tripId}/stops --------------------------------------------

func TestListStops_200(t *testing.T) {
	svc := &mockTripServicer{
		listStops: func(_ context.Context, tripID string) ([]domain.Stop, error) {
			assert.Equal(t, "abc123", tripID)
			return domain.StopsFromNames([]string{"Monterey, CA", "Big Sur, CA"}), nil
		},
	}

	rec := serve(newHTTPHandler(svc), http.MethodGet, "/trips/abc123/stops", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp handler.StopList
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	require.Len(t, resp.Data, 2)
	assert.Equal(t, handler.Stop{ID: "stop-0", Name: "Monterey, CA", Address: "Monterey, CA"}, resp.Data[0])
	assert.Equal(t, "stop-1", resp.Data[1].ID)
}

func TestListStops_EmptyIsArray(t *testing.T) {
	svc := &mockTripServicer{
		listStops: func(_ context.Context, _ string) ([]domain.Stop, error) { return []domain.Stop{}, nil },
	}

	rec := serve(newHTTPHandler(svc), http.MethodGet, "/trips/abc123/stops", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"data":[]}`, rec.Body.String())
}

func TestListStops_404(t *testing.T) {
	svc := &mockTripServicer{
		listStops: func(_ context.Context, _ string) ([]domain.Stop, error) {
			return nil, fmt.Errorf("service.TripService.ListStops: %w", domain.ErrNotFound)
		},
	}

	rec := serve(newHTTPHandler(svc), http.MethodGet, "/trips/nonexistent/stops", nil)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "trip not found", decodeError(t, rec).Error.Message)
}

// ---- GET /trips/{tripId}/directions ----------------------------------------

func TestGetDirections_200(t *testing.T) {
	const want = "https://www.google.com/maps/dir/?api=1&destination=B&origin=A"
	svc := &mockTripServicer{
		directionsURL: func(_ context.Context, tripID string) (string, error) {
			assert.Equal(t, "abc123", tripID)
			return want, nil
		},
	}

	rec := serve(newHTTPHandler(svc), http.MethodGet, "/trips/abc123/directions", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp handler.DirectionsResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, want, resp.URL)
}

func TestGetDirections_404(t *testing.T) {
	svc := &mockTripServicer{
		directionsURL: func(_ context.Context, _ string) (string, error) {
			return "", domain.ErrNotFound
		},
	}

	rec := serve(newHTTPHandler(svc), http.MethodGet, "/trips/nonexistent/directions", nil)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}
