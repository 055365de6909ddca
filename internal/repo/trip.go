// Package repo contains all trip persistence for the tripsync backend.
// Each resource has its own file with an interface and a Postgres implementation;
// memory.go holds the in-process store used when no database is configured.
// No business logic lives here, only storage and type mapping.
package repo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/pkordes/tripsync/backend/internal/domain"
)

// db is the minimal interface satisfied by *pgxpool.Pool, pgx.Conn, and pgx.Tx.
// Accepting this interface instead of *pgxpool.Pool directly allows integration
// tests to pass a transaction that is rolled back after each test, giving free
// per-test isolation without any manual cleanup. Begin on a pgx.Tx opens a
// savepoint, so multi-statement writes nest cleanly inside the test transaction.
type db interface {
	Begin(ctx context.Context) (pgx.Tx, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// TripRepo defines the persistence operations for Trips.
// The service layer depends on this interface, not a concrete implementation,
// which allows the service to be unit-tested with a mock.
type TripRepo interface {
	// Create stores a new trip together with its initial stops and returns the
	// stored record. Stop ids are reassigned from their positions.
	// Returns domain.ErrConflict if a trip with the same ID already exists.
	Create(ctx context.Context, trip domain.Trip) (domain.Trip, error)

	// GetByID retrieves a single trip, stops included.
	// Returns domain.ErrNotFound if no trip with that ID exists.
	GetByID(ctx context.Context, id string) (domain.Trip, error)

	// List returns all trips in insertion order.
	List(ctx context.Context) ([]domain.Trip, error)

	// ListPaged returns one page of trips in insertion order and the total count.
	ListPaged(ctx context.Context, p domain.PaginationParams) ([]domain.Trip, int64, error)
}

// pgTripRepo is the Postgres implementation of TripRepo.
type pgTripRepo struct {
	db db
}

// NewTripRepo constructs a TripRepo backed by the provided db connection.
// In production pass *pgxpool.Pool; in tests pass a pgx.Tx for rollback isolation.
func NewTripRepo(db db) TripRepo {
	return &pgTripRepo{db: db}
}

const tripColumns = `id, origin, destination, created_by, source, share_link, created_at`

// Create inserts the trip row and its stops in one transaction.
func (r *pgTripRepo) Create(ctx context.Context, trip domain.Trip) (domain.Trip, error) {
	if trip.CreatedAt.IsZero() {
		trip.CreatedAt = time.Now().UTC()
	}

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return domain.Trip{}, fmt.Errorf("repo.TripRepo.Create: begin: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	const q = `
		INSERT INTO trips (id, origin, destination, created_by, source, share_link, created_at)
		VALUES (@id, @origin, @destination, @created_by, @source, @share_link, @created_at)
		RETURNING ` + tripColumns

	args := pgx.NamedArgs{
		"id":          trip.ID,
		"origin":      trip.Origin,
		"destination": trip.Destination,
		"created_by":  trip.CreatedBy,
		"source":      trip.Source,
		"share_link":  trip.ShareLink,
		"created_at":  trip.CreatedAt,
	}

	result, err := scanTrip(tx.QueryRow(ctx, q, args))
	if err != nil {
		if isUniqueViolation(err) {
			return domain.Trip{}, fmt.Errorf("repo.TripRepo.Create: trip %q: %w", trip.ID, domain.ErrConflict)
		}
		return domain.Trip{}, fmt.Errorf("repo.TripRepo.Create: %w", err)
	}

	for i, s := range trip.Stops {
		stop, err := insertStop(ctx, tx, result.ID, i, s.Name, s.Address)
		if err != nil {
			return domain.Trip{}, fmt.Errorf("repo.TripRepo.Create: %w", err)
		}
		result.Stops = append(result.Stops, stop)
	}

	if err := tx.Commit(ctx); err != nil {
		return domain.Trip{}, fmt.Errorf("repo.TripRepo.Create: commit: %w", err)
	}
	return result, nil
}

// GetByID retrieves a trip by primary key, then its stops in position order.
func (r *pgTripRepo) GetByID(ctx context.Context, id string) (domain.Trip, error) {
	const q = `SELECT ` + tripColumns + ` FROM trips WHERE id = @id`

	result, err := scanTrip(r.db.QueryRow(ctx, q, pgx.NamedArgs{"id": id}))
	if err != nil {
		return domain.Trip{}, fmt.Errorf("repo.TripRepo.GetByID: %w", err)
	}

	stops, err := listStops(ctx, r.db, id)
	if err != nil {
		return domain.Trip{}, fmt.Errorf("repo.TripRepo.GetByID: %w", err)
	}
	result.Stops = stops
	return result, nil
}

// List returns all trips in insertion order.
func (r *pgTripRepo) List(ctx context.Context) ([]domain.Trip, error) {
	const q = `SELECT ` + tripColumns + ` FROM trips ORDER BY seq`

	trips, err := r.queryTrips(ctx, q, nil)
	if err != nil {
		return nil, fmt.Errorf("repo.TripRepo.List: %w", err)
	}
	return trips, nil
}

// ListPaged returns one page of trips and the total number of trips.
func (r *pgTripRepo) ListPaged(ctx context.Context, p domain.PaginationParams) ([]domain.Trip, int64, error) {
	var total int64
	if err := r.db.QueryRow(ctx, `SELECT count(*) FROM trips`).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("repo.TripRepo.ListPaged: count: %w", err)
	}

	const q = `SELECT ` + tripColumns + ` FROM trips ORDER BY seq LIMIT @limit OFFSET @offset`

	trips, err := r.queryTrips(ctx, q, pgx.NamedArgs{"limit": p.Limit, "offset": p.Offset()})
	if err != nil {
		return nil, 0, fmt.Errorf("repo.TripRepo.ListPaged: %w", err)
	}
	return trips, total, nil
}

// queryTrips runs a trip query and attaches every trip's stops with one
// additional query instead of one per trip.
func (r *pgTripRepo) queryTrips(ctx context.Context, q string, args pgx.NamedArgs) ([]domain.Trip, error) {
	var queryArgs []any
	if args != nil {
		queryArgs = append(queryArgs, args)
	}

	rows, err := r.db.Query(ctx, q, queryArgs...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var (
		trips []domain.Trip
		ids   []string
	)
	for rows.Next() {
		t, err := scanTrip(rows)
		if err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		trips = append(trips, t)
		ids = append(ids, t.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}
	if len(trips) == 0 {
		return trips, nil
	}

	byTrip, err := listStopsForTrips(ctx, r.db, ids)
	if err != nil {
		return nil, err
	}
	for i := range trips {
		if stops, ok := byTrip[trips[i].ID]; ok {
			trips[i].Stops = stops
		}
	}
	return trips, nil
}

// scanner is satisfied by both pgx.Row and pgx.Rows, allowing scanTrip to be
// reused for both QueryRow and Query calls.
type scanner interface {
	Scan(dest ...any) error
}

// scanTrip maps a single trips row into a domain.Trip with an empty stop list.
func scanTrip(s scanner) (domain.Trip, error) {
	t := domain.Trip{Stops: []domain.Stop{}}

	err := s.Scan(&t.ID, &t.Origin, &t.Destination, &t.CreatedBy, &t.Source, &t.ShareLink, &t.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Trip{}, domain.ErrNotFound
		}
		return domain.Trip{}, err
	}
	t.CreatedAt = t.CreatedAt.UTC()
	return t, nil
}

// isUniqueViolation reports whether err is a Postgres unique_violation (23505).
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
