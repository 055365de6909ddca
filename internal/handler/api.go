package handler

import "time"

// Wire types for the JSON API. Field names and shapes follow spec/openapi.yaml;
// keep the two in sync when either changes.

// HealthResponse is the body of GET /healthz.
type HealthResponse struct {
	Status string `json:"status"`
}

// ErrorResponse is the body of every non-2xx JSON response.
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail carries a machine-readable code and a human-readable message.
type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// CreateTripRequest is the body of POST /trips.
type CreateTripRequest struct {
	Origin      string   `json:"origin"`
	Destination string   `json:"destination"`
	Stops       []string `json:"stops"`
}

// CreateTripResponse is the body of a successful POST /trips.
type CreateTripResponse struct {
	Token  string `json:"token"`
	Source string `json:"source"`
	Trip   Trip   `json:"trip"`
}

// JoinTripRequest is the body of POST /trips/join.
type JoinTripRequest struct {
	Token string `json:"token"`
}

// AddStopRequest is the body of POST /trips/{tripId}/stops.
type AddStopRequest struct {
	Name    string `json:"name"`
	Address string `json:"address"`
}

// Trip is the API representation of a trip.
type Trip struct {
	ID          string    `json:"id"`
	Token       string    `json:"token"`
	Origin      string    `json:"origin"`
	Destination string    `json:"destination"`
	Stops       []Stop    `json:"stops"`
	CreatedAt   time.Time `json:"created_at"`
	CreatedBy   string    `json:"created_by"`
	Source      string    `json:"source"`
	ShareLink   *string   `json:"share_link,omitempty"`
}

// Stop is the API representation of a stop.
type Stop struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Address string `json:"address"`
}

// StopList is the body of GET /trips/{tripId}/stops.
type StopList struct {
	Data []Stop `json:"data"`
}

// TripList is the body of GET /trips.
type TripList struct {
	Data       []Trip     `json:"data"`
	Pagination Pagination `json:"pagination"`
}

// Pagination describes the page returned by a list endpoint.
type Pagination struct {
	Page  int `json:"page"`
	Limit int `json:"limit"`
	Total int `json:"total"`
}

// DirectionsResponse is the body of GET /trips/{tripId}/directions.
type DirectionsResponse struct {
	URL string `json:"url"`
}

// ExportRow is one row of GET /export in JSON form.
// Stop fields are omitted for trips that have no stops.
type ExportRow struct {
	TripID          string    `json:"trip_id"`
	TripOrigin      string    `json:"trip_origin"`
	TripDestination string    `json:"trip_destination"`
	TripCreatedAt   time.Time `json:"trip_created_at"`
	TripSource      string    `json:"trip_source"`
	StopPosition    *int      `json:"stop_position,omitempty"`
	StopID          *string   `json:"stop_id,omitempty"`
	StopName        *string   `json:"stop_name,omitempty"`
	StopAddress     *string   `json:"stop_address,omitempty"`
}
