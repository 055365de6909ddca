package repo

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/pkordes/tripsync/backend/internal/domain"
)

// StopRepo defines the persistence operations for Stops.
// Stops are append-only and always scoped by tripID.
type StopRepo interface {
	// Append adds a stop to the end of the trip's stop list and returns it with
	// its position-derived ID. Returns domain.ErrNotFound if the trip does not exist;
	// the store is left unchanged in that case.
	Append(ctx context.Context, tripID, name, address string) (domain.Stop, error)

	// ListByTripID returns all stops for a trip in insertion order.
	// Returns domain.ErrNotFound if the trip does not exist.
	ListByTripID(ctx context.Context, tripID string) ([]domain.Stop, error)
}

// pgStopRepo is the Postgres implementation of StopRepo.
type pgStopRepo struct {
	db db
}

// NewStopRepo constructs a StopRepo backed by the provided db connection.
// In production pass *pgxpool.Pool; in tests pass a pgx.Tx for rollback isolation.
func NewStopRepo(db db) StopRepo {
	return &pgStopRepo{db: db}
}

// Append locks the parent trip row so concurrent appends to the same trip
// serialize and positions stay gapless.
func (r *pgStopRepo) Append(ctx context.Context, tripID, name, address string) (domain.Stop, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return domain.Stop{}, fmt.Errorf("repo.StopRepo.Append: begin: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := lockTrip(ctx, tx, tripID); err != nil {
		return domain.Stop{}, fmt.Errorf("repo.StopRepo.Append: %w", err)
	}

	var position int
	const countQ = `SELECT count(*) FROM stops WHERE trip_id = @trip_id`
	if err := tx.QueryRow(ctx, countQ, pgx.NamedArgs{"trip_id": tripID}).Scan(&position); err != nil {
		return domain.Stop{}, fmt.Errorf("repo.StopRepo.Append: count: %w", err)
	}

	stop, err := insertStop(ctx, tx, tripID, position, name, address)
	if err != nil {
		return domain.Stop{}, fmt.Errorf("repo.StopRepo.Append: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return domain.Stop{}, fmt.Errorf("repo.StopRepo.Append: commit: %w", err)
	}
	return stop, nil
}

// ListByTripID returns the trip's stops in position order.
func (r *pgStopRepo) ListByTripID(ctx context.Context, tripID string) ([]domain.Stop, error) {
	var exists bool
	const q = `SELECT EXISTS (SELECT 1 FROM trips WHERE id = @id)`
	if err := r.db.QueryRow(ctx, q, pgx.NamedArgs{"id": tripID}).Scan(&exists); err != nil {
		return nil, fmt.Errorf("repo.StopRepo.ListByTripID: %w", err)
	}
	if !exists {
		return nil, fmt.Errorf("repo.StopRepo.ListByTripID: %w", domain.ErrNotFound)
	}

	stops, err := listStops(ctx, r.db, tripID)
	if err != nil {
		return nil, fmt.Errorf("repo.StopRepo.ListByTripID: %w", err)
	}
	return stops, nil
}

type execer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

type rowQuerier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// lockTrip takes a row lock on the trip for the rest of the transaction.
func lockTrip(ctx context.Context, q rowQuerier, tripID string) error {
	const lockQ = `SELECT id FROM trips WHERE id = @id FOR UPDATE`

	var id string
	err := q.QueryRow(ctx, lockQ, pgx.NamedArgs{"id": tripID}).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.ErrNotFound
	}
	return err
}

// insertStop writes one stop row at the given position.
func insertStop(ctx context.Context, e execer, tripID string, position int, name, address string) (domain.Stop, error) {
	const q = `
		INSERT INTO stops (trip_id, position, name, address)
		VALUES (@trip_id, @position, @name, @address)`

	args := pgx.NamedArgs{
		"trip_id":  tripID,
		"position": position,
		"name":     name,
		"address":  address,
	}
	if _, err := e.Exec(ctx, q, args); err != nil {
		if isUniqueViolation(err) {
			return domain.Stop{}, fmt.Errorf("insert stop %d: %w", position, domain.ErrConflict)
		}
		return domain.Stop{}, fmt.Errorf("insert stop %d: %w", position, err)
	}
	return domain.Stop{ID: domain.StopID(position), Name: name, Address: address}, nil
}

// listStops returns a trip's stops in position order; never nil.
func listStops(ctx context.Context, q querier, tripID string) ([]domain.Stop, error) {
	const sq = `
		SELECT position, name, address
		FROM stops
		WHERE trip_id = @trip_id
		ORDER BY position`

	rows, err := q.Query(ctx, sq, pgx.NamedArgs{"trip_id": tripID})
	if err != nil {
		return nil, fmt.Errorf("list stops: %w", err)
	}
	defer rows.Close()

	stops := []domain.Stop{}
	for rows.Next() {
		s, err := scanStop(rows)
		if err != nil {
			return nil, fmt.Errorf("list stops: scan: %w", err)
		}
		stops = append(stops, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list stops: rows: %w", err)
	}
	return stops, nil
}

// listStopsForTrips returns the stops of every listed trip keyed by trip id.
func listStopsForTrips(ctx context.Context, q querier, tripIDs []string) (map[string][]domain.Stop, error) {
	const sq = `
		SELECT trip_id, position, name, address
		FROM stops
		WHERE trip_id = ANY(@trip_ids)
		ORDER BY trip_id, position`

	rows, err := q.Query(ctx, sq, pgx.NamedArgs{"trip_ids": tripIDs})
	if err != nil {
		return nil, fmt.Errorf("list stops: %w", err)
	}
	defer rows.Close()

	out := make(map[string][]domain.Stop, len(tripIDs))
	for rows.Next() {
		var (
			tripID   string
			position int
			s        domain.Stop
		)
		if err := rows.Scan(&tripID, &position, &s.Name, &s.Address); err != nil {
			return nil, fmt.Errorf("list stops: scan: %w", err)
		}
		s.ID = domain.StopID(position)
		out[tripID] = append(out[tripID], s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list stops: rows: %w", err)
	}
	return out, nil
}

func scanStop(s scanner) (domain.Stop, error) {
	var (
		st       domain.Stop
		position int
	)
	if err := s.Scan(&position, &st.Name, &st.Address); err != nil {
		return domain.Stop{}, err
	}
	st.ID = domain.StopID(position)
	return st, nil
}
