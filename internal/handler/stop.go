package handler

import (
	"net/http"

	"github.com/pkordes/tripsync/backend/internal/domain"
)

// AddStop handles POST /trips/{tripId}/stops.
// Stops are append-only; the new stop's id is derived from its position.
func (s *Server) AddStop(w http.ResponseWriter, r *http.Request) {
	tripID, ok := tripIDParam(w, r)
	if !ok {
		return
	}
	var body AddStopRequest
	if !decodeBody(w, r, &body) {
		return
	}

	stop, err := s.trips.AddStop(r.Context(), tripID, body.Name, body.Address)
	if err != nil {
		s.writeError(w, r, err, "trip not found")
		return
	}
	writeJSON(w, http.StatusCreated, stopToResponse(stop))
}

// ListStops handles GET /trips/{tripId}/stops.
func (s *Server) ListStops(w http.ResponseWriter, r *http.Request) {
	tripID, ok := tripIDParam(w, r)
	if !ok {
		return
	}

	stops, err := s.trips.ListStops(r.Context(), tripID)
	if err != nil {
		s.writeError(w, r, err, "trip not found")
		return
	}

	data := make([]Stop, len(stops))
	for i, st := range stops {
		data[i] = stopToResponse(st)
	}
	writeJSON(w, http.StatusOK, StopList{Data: data})
}

// stopToResponse converts a domain.Stop to the API response type.
func stopToResponse(s domain.Stop) Stop {
	return Stop{ID: s.ID, Name: s.Name, Address: s.Address}
}
