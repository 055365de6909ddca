// Package handler implements the HTTP handlers for the tripsync API.
// All handlers are methods on Server. Methods are split into domain-specific
// files (health.go, trip.go, stop.go, export.go) but share the same Server
// struct so they can access its dependencies. Routes are registered in routes.go.
package handler

import (
	"context"
	"log/slog"

	"github.com/pkordes/tripsync/backend/internal/domain"
	"github.com/pkordes/tripsync/backend/internal/service"
)

// TripServicer defines the business operations the trip handlers depend on.
// Defining the interface here (in the consumer package) follows the Go
// convention: "accept interfaces, return concrete types". It lets handler
// tests inject a mock without touching the store or the remote service.
type TripServicer interface {
	CreateTrip(ctx context.Context, origin, destination string, stops []string) (service.CreateResult, error)
	JoinTrip(ctx context.Context, token string) (domain.Trip, error)
	AddStop(ctx context.Context, tripID, name, address string) (domain.Stop, error)
	ListStops(ctx context.Context, tripID string) ([]domain.Stop, error)
	GetTrip(ctx context.Context, tripID string) (domain.Trip, error)
	CurrentTrip(ctx context.Context) (domain.Trip, error)
	ListTrips(ctx context.Context, p domain.PaginationParams) ([]domain.Trip, int64, error)
	DirectionsURL(ctx context.Context, tripID string) (string, error)
}

// ExportServicer defines the operations the export handler depends on.
type ExportServicer interface {
	Export(ctx context.Context) ([]domain.ExportRow, error)
}

// Server holds the dependencies shared by every handler.
// Wire it in main.go via handler.Handler(server).
type Server struct {
	trips  TripServicer
	export ExportServicer
	log    *slog.Logger
}

// NewServer constructs the Server with all its dependencies.
// A nil logger falls back to slog.Default().
func NewServer(trips TripServicer, export ExportServicer, log *slog.Logger) *Server {
	if log == nil {
		log = slog.Default()
	}
	return &Server{trips: trips, export: export, log: log}
}

// NewHealthHandler returns a Server for health-check-only use.
func NewHealthHandler() *Server {
	return NewServer(nil, nil, nil)
}
