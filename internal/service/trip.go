// Package service contains the business logic for the tripsync backend.
// Services validate inputs, enforce business rules, and orchestrate repo and
// remote calls. No SQL or HTTP lives here; services depend on interfaces.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/pkordes/tripsync/backend/internal/domain"
	"github.com/pkordes/tripsync/backend/internal/maps"
	"github.com/pkordes/tripsync/backend/internal/metrics"
	"github.com/pkordes/tripsync/backend/internal/repo"
)

// maxIDAttempts bounds how many ids CreateTrip tries before giving up on collisions.
const maxIDAttempts = 5

// RemoteCreator is the remote trip-creation call the service depends on.
// *remote.Client satisfies it.
type RemoteCreator interface {
	CreateTrip(ctx context.Context, origin, destination string, stops []string) domain.RemoteResult
}

// Options configures a TripService. Zero values get defaults.
type Options struct {
	Remote    RemoteCreator          // nil means no remote; every creation takes the failure path
	Fallback  domain.FallbackPolicy  // default domain.FallbackLocal
	CreatorID string                 // default domain.DefaultCreator
	NewID     func() (string, error) // default domain.NewTripID
	Now       func() time.Time       // default time.Now
	Logger    *slog.Logger           // default slog.Default()
}

// CreateResult is what CreateTrip hands back to the caller.
type CreateResult struct {
	// Token is the share token to show the user. JoinTrip(Token) always
	// resolves to Trip.
	Token  string
	Source string
	Trip   domain.Trip
}

// TripService is the trip store: it owns trip creation (remote first, then
// the configured fallback), joining, stop appends, lookups and the
// current-trip pointer. It is safe for concurrent use.
type TripService struct {
	trips    repo.TripRepo
	stops    repo.StopRepo
	remote   RemoteCreator
	fallback domain.FallbackPolicy
	creator  string
	newID    func() (string, error)
	now      func() time.Time
	log      *slog.Logger

	mu        sync.RWMutex
	currentID string
}

// NewTripService constructs a TripService backed by the provided repos.
func NewTripService(trips repo.TripRepo, stops repo.StopRepo, opts Options) *TripService {
	s := &TripService{
		trips:    trips,
		stops:    stops,
		remote:   opts.Remote,
		fallback: opts.Fallback,
		creator:  opts.CreatorID,
		newID:    opts.NewID,
		now:      opts.Now,
		log:      opts.Logger,
	}
	if s.fallback == "" {
		s.fallback = domain.FallbackLocal
	}
	if s.creator == "" {
		s.creator = domain.DefaultCreator
	}
	if s.newID == nil {
		s.newID = domain.NewTripID
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.log == nil {
		s.log = slog.Default()
	}
	return s
}

// CreateTrip creates a trip from origin, destination and stop names.
//
// Origin and destination are trimmed. Blank stop names are dropped, order
// preserved; each remaining name becomes both the stop's name and address.
// The remote service is tried once. On success a local record is kept so the
// trip can be joined. The server's share link is the token when its last
// segment is the stored id; if the link has no usable id, or that id is taken,
// the trip gets a fresh id and the token is "trips/<id>".
//
// On failure the fallback policy applies: domain.FallbackLocal stores the trip
// locally and returns "trips/<id>"; domain.FallbackFail returns
// domain.ErrRemoteUnavailable and stores nothing. Either way the created trip
// becomes current.
func (s *TripService) CreateTrip(ctx context.Context, origin, destination string, stopNames []string) (CreateResult, error) {
	origin, destination = strings.TrimSpace(origin), strings.TrimSpace(destination)
	if origin == "" || destination == "" {
		return CreateResult{}, fmt.Errorf("service.TripService.CreateTrip: %w: origin and destination are required", domain.ErrValidation)
	}
	names := nonBlank(stopNames)

	res := s.callRemote(ctx, origin, destination, names)
	if res.Succeeded() {
		linkID := shareLinkID(res.ShareLink)
		trip, err := s.storeTrip(ctx, linkID, domain.Trip{
			Origin:      origin,
			Destination: destination,
			Stops:       domain.StopsFromNames(names),
			Source:      domain.SourceRemote,
			ShareLink:   res.ShareLink,
		})
		if err != nil {
			return CreateResult{}, fmt.Errorf("service.TripService.CreateTrip: %w", err)
		}
		s.setCurrent(trip.ID)
		// The link only works as a token when it resolves to the stored id.
		token := res.ShareLink
		if trip.ID != linkID {
			token = trip.Token()
		}
		return CreateResult{Token: token, Source: domain.SourceRemote, Trip: trip}, nil
	}

	if s.fallback == domain.FallbackFail {
		s.log.ErrorContext(ctx, "remote trip creation failed", "error", res.Reason)
		return CreateResult{}, fmt.Errorf("service.TripService.CreateTrip: %w: %w", domain.ErrRemoteUnavailable, res.Reason)
	}

	s.log.WarnContext(ctx, "remote trip creation failed; falling back to local store", "error", res.Reason)
	trip, err := s.storeTrip(ctx, "", domain.Trip{
		Origin:      origin,
		Destination: destination,
		Stops:       domain.StopsFromNames(names),
		Source:      domain.SourceLocal,
	})
	if err != nil {
		return CreateResult{}, fmt.Errorf("service.TripService.CreateTrip: %w", err)
	}
	s.setCurrent(trip.ID)
	return CreateResult{Token: trip.Token(), Source: domain.SourceLocal, Trip: trip}, nil
}

// JoinTrip looks the token's trip up in the store and makes it current.
// Returns domain.ErrValidation for an empty token and domain.ErrNotFound for
// an unknown one; the current trip is unchanged in both cases.
// Only the store is searched; the remote service is never consulted.
func (s *TripService) JoinTrip(ctx context.Context, token string) (domain.Trip, error) {
	if strings.TrimSpace(token) == "" {
		return domain.Trip{}, fmt.Errorf("service.TripService.JoinTrip: %w: trip id is required", domain.ErrValidation)
	}

	trip, err := s.trips.GetByID(ctx, domain.ParseToken(token))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			metrics.Joins.WithLabelValues("not_found").Inc()
		}
		return domain.Trip{}, fmt.Errorf("service.TripService.JoinTrip: %w", err)
	}

	metrics.Joins.WithLabelValues("found").Inc()
	s.setCurrent(trip.ID)
	return trip, nil
}

// AddStop appends a stop to the trip. Both name and address are required.
// Returns domain.ErrNotFound if the trip does not exist, leaving the store unchanged.
func (s *TripService) AddStop(ctx context.Context, tripID, name, address string) (domain.Stop, error) {
	if strings.TrimSpace(name) == "" || strings.TrimSpace(address) == "" {
		return domain.Stop{}, fmt.Errorf("service.TripService.AddStop: %w: both name and address are required", domain.ErrValidation)
	}

	stop, err := s.stops.Append(ctx, tripID, name, address)
	if err != nil {
		return domain.Stop{}, fmt.Errorf("service.TripService.AddStop: %w", err)
	}
	metrics.StopsAdded.Inc()
	return stop, nil
}

// ListStops returns the trip's stops in order.
// Returns domain.ErrNotFound if the trip does not exist.
func (s *TripService) ListStops(ctx context.Context, tripID string) ([]domain.Stop, error) {
	stops, err := s.stops.ListByTripID(ctx, tripID)
	if err != nil {
		return nil, fmt.Errorf("service.TripService.ListStops: %w", err)
	}
	if stops == nil {
		return []domain.Stop{}, nil
	}
	return stops, nil
}

// GetTrip returns the trip with the given id. It never mutates anything.
func (s *TripService) GetTrip(ctx context.Context, tripID string) (domain.Trip, error) {
	trip, err := s.trips.GetByID(ctx, tripID)
	if err != nil {
		return domain.Trip{}, fmt.Errorf("service.TripService.GetTrip: %w", err)
	}
	return trip, nil
}

// CurrentTrip returns the trip most recently created or joined.
// The trip is read from the store, so stops added since are included.
// Returns domain.ErrNotFound when no trip is current.
func (s *TripService) CurrentTrip(ctx context.Context) (domain.Trip, error) {
	s.mu.RLock()
	id := s.currentID
	s.mu.RUnlock()

	if id == "" {
		return domain.Trip{}, fmt.Errorf("service.TripService.CurrentTrip: no current trip: %w", domain.ErrNotFound)
	}
	trip, err := s.trips.GetByID(ctx, id)
	if err != nil {
		return domain.Trip{}, fmt.Errorf("service.TripService.CurrentTrip: %w", err)
	}
	return trip, nil
}

// ListTrips returns one page of trips in creation order plus the total count.
// Always returns a non-nil slice so callers can safely range over it.
func (s *TripService) ListTrips(ctx context.Context, p domain.PaginationParams) ([]domain.Trip, int64, error) {
	trips, total, err := s.trips.ListPaged(ctx, p)
	if err != nil {
		return nil, 0, fmt.Errorf("service.TripService.ListTrips: %w", err)
	}
	if trips == nil {
		trips = []domain.Trip{}
	}
	return trips, total, nil
}

// DirectionsURL returns the external directions link for the trip.
func (s *TripService) DirectionsURL(ctx context.Context, tripID string) (string, error) {
	trip, err := s.trips.GetByID(ctx, tripID)
	if err != nil {
		return "", fmt.Errorf("service.TripService.DirectionsURL: %w", err)
	}
	return maps.DirectionsURL(trip), nil
}

// callRemote performs the single remote attempt and records its outcome.
func (s *TripService) callRemote(ctx context.Context, origin, destination string, names []string) domain.RemoteResult {
	if s.remote == nil {
		metrics.RemoteCreate.WithLabelValues(metrics.OutcomeDisabled).Inc()
		return domain.RemoteFailure(domain.ErrRemoteDisabled)
	}

	res := s.remote.CreateTrip(ctx, origin, destination, names)
	switch {
	case res.Succeeded():
		metrics.RemoteCreate.WithLabelValues(metrics.OutcomeSuccess).Inc()
	case errors.Is(res.Reason, domain.ErrRemoteDisabled):
		metrics.RemoteCreate.WithLabelValues(metrics.OutcomeDisabled).Inc()
	default:
		metrics.RemoteCreate.WithLabelValues(metrics.OutcomeFailure).Inc()
	}
	return res
}

// storeTrip stamps and persists trip. preferredID is tried first when set;
// otherwise, or after a collision, fresh ids are generated.
func (s *TripService) storeTrip(ctx context.Context, preferredID string, trip domain.Trip) (domain.Trip, error) {
	trip.CreatedAt = s.now().UTC()
	trip.CreatedBy = s.creator

	for attempt := 0; attempt < maxIDAttempts; attempt++ {
		id := preferredID
		if attempt > 0 || id == "" {
			var err error
			if id, err = s.newID(); err != nil {
				return domain.Trip{}, err
			}
		}

		trip.ID = id
		created, err := s.trips.Create(ctx, trip)
		if err == nil {
			metrics.TripsCreated.WithLabelValues(created.Source).Inc()
			return created, nil
		}
		if !errors.Is(err, domain.ErrConflict) {
			return domain.Trip{}, err
		}
		s.log.DebugContext(ctx, "trip id collision", "trip_id", id, "attempt", attempt+1)
	}
	return domain.Trip{}, fmt.Errorf("no free trip id after %d attempts: %w", maxIDAttempts, domain.ErrConflict)
}

func (s *TripService) setCurrent(id string) {
	s.mu.Lock()
	s.currentID = id
	s.mu.Unlock()
}

// shareLinkID returns the trip id embedded in a remote share link, or "" when
// the link does not end in something usable as an id.
func shareLinkID(link string) string {
	id := domain.ParseToken(link)
	if !domain.ValidTripID(id) {
		return ""
	}
	return id
}

// nonBlank drops names that are empty or whitespace-only, preserving order.
func nonBlank(names []string) []string {
	out := make([]string, 0, len(names))
	for _, n := range names {
		if strings.TrimSpace(n) != "" {
			out = append(out, n)
		}
	}
	return out
}
