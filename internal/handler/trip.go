package handler

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/oapi-codegen/runtime"

	"github.com/pkordes/tripsync/backend/internal/domain"
)

// CreateTrip handles POST /trips.
// 201 with the share token on success, whichever path produced it.
func (s *Server) CreateTrip(w http.ResponseWriter, r *http.Request) {
	var body CreateTripRequest
	if !decodeBody(w, r, &body) {
		return
	}

	res, err := s.trips.CreateTrip(r.Context(), body.Origin, body.Destination, body.Stops)
	if err != nil {
		s.writeError(w, r, err, "trip not found")
		return
	}

	writeJSON(w, http.StatusCreated, CreateTripResponse{
		Token:  res.Token,
		Source: res.Source,
		Trip:   tripToResponse(res.Trip),
	})
}

// ListTrips handles GET /trips.
// Supports ?page= and ?limit= query parameters (defaults: page=1, limit=20, max=100).
func (s *Server) ListTrips(w http.ResponseWriter, r *http.Request) {
	page, err := bindQueryInt(r, "page")
	if err != nil {
		writeJSON(w, http.StatusUnprocessableEntity, requestBody("page must be an integer"))
		return
	}
	limit, err := bindQueryInt(r, "limit")
	if err != nil {
		writeJSON(w, http.StatusUnprocessableEntity, requestBody("limit must be an integer"))
		return
	}

	params := domain.NewPaginationParams(page, limit)
	trips, total, err := s.trips.ListTrips(r.Context(), params)
	if err != nil {
		s.writeError(w, r, err, "trip not found")
		return
	}

	data := make([]Trip, len(trips))
	for i, t := range trips {
		data[i] = tripToResponse(t)
	}
	writeJSON(w, http.StatusOK, TripList{
		Data: data,
		Pagination: Pagination{
			Page:  params.Page,
			Limit: params.Limit,
			Total: int(total),
		},
	})
}

// GetCurrentTrip handles GET /trips/current.
func (s *Server) GetCurrentTrip(w http.ResponseWriter, r *http.Request) {
	trip, err := s.trips.CurrentTrip(r.Context())
	if err != nil {
		s.writeError(w, r, err, "no current trip")
		return
	}
	writeJSON(w, http.StatusOK, tripToResponse(trip))
}

// JoinTrip handles POST /trips/join.
// The token may be a bare id, "trips/<id>", "trip/<id>" or a full share link.
func (s *Server) JoinTrip(w http.ResponseWriter, r *http.Request) {
	var body JoinTripRequest
	if !decodeBody(w, r, &body) {
		return
	}

	trip, err := s.trips.JoinTrip(r.Context(), body.Token)
	if err != nil {
		s.writeError(w, r, err, "invalid trip id")
		return
	}
	writeJSON(w, http.StatusOK, tripToResponse(trip))
}

// GetTrip handles GET /trips/{tripId}.
func (s *Server) GetTrip(w http.ResponseWriter, r *http.Request) {
	tripID, ok := tripIDParam(w, r)
	if !ok {
		return
	}

	trip, err := s.trips.GetTrip(r.Context(), tripID)
	if err != nil {
		s.writeError(w, r, err, "trip not found")
		return
	}
	writeJSON(w, http.StatusOK, tripToResponse(trip))
}

// GetDirections handles GET /trips/{tripId}/directions.
func (s *Server) GetDirections(w http.ResponseWriter, r *http.Request) {
	tripID, ok := tripIDParam(w, r)
	if !ok {
		return
	}

	url, err := s.trips.DirectionsURL(r.Context(), tripID)
	if err != nil {
		s.writeError(w, r, err, "trip not found")
		return
	}
	writeJSON(w, http.StatusOK, DirectionsResponse{URL: url})
}

// --- mapping helpers --------------------------------------------------------

// tripIDParam binds the {tripId} path parameter. On failure it writes a 422
// and returns false.
func tripIDParam(w http.ResponseWriter, r *http.Request) (string, bool) {
	var tripID string
	err := runtime.BindStyledParameterWithOptions("simple", "tripId", chi.URLParam(r, "tripId"), &tripID,
		runtime.BindStyledParameterOptions{ParamLocation: runtime.ParamLocationPath, Required: true})
	if err == nil && tripID == "" {
		err = errors.New("empty trip id")
	}
	if err != nil {
		writeJSON(w, http.StatusUnprocessableEntity, requestBody("invalid format for parameter tripId"))
		return "", false
	}
	return tripID, true
}

// tripToResponse converts a domain.Trip into the API Trip type.
func tripToResponse(t domain.Trip) Trip {
	stops := make([]Stop, len(t.Stops))
	for i, st := range t.Stops {
		stops[i] = stopToResponse(st)
	}
	return Trip{
		ID:          t.ID,
		Token:       t.Token(),
		Origin:      t.Origin,
		Destination: t.Destination,
		Stops:       stops,
		CreatedAt:   t.CreatedAt,
		CreatedBy:   t.CreatedBy,
		Source:      t.Source,
		ShareLink:   nilIfEmpty(t.ShareLink),
	}
}

// nilIfEmpty converts an empty string to a nil pointer.
// Used when mapping domain strings to optional API response fields.
func nilIfEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
