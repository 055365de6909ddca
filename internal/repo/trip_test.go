package repo_test

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pkordes/tripsync/backend/internal/domain"
	"github.com/pkordes/tripsync/backend/internal/repo"
	"github.com/pkordes/tripsync/backend/testutil"
)

// newTestTx opens a transaction against the test database. The transaction is
// automatically rolled back when the test finishes, giving free per-test isolation.
//
// Requires TEST_DATABASE_URL to be set; TestMain applies the migrations.
func newTestTx(t *testing.T) pgx.Tx {
	t.Helper()
	pool := testutil.NewPool(t)

	tx, err := pool.Begin(context.Background())
	require.NoError(t, err, "begin transaction")

	t.Cleanup(func() {
		// Rollback discards all changes made during the test, so no cleanup SQL is needed.
		_ = tx.Rollback(context.Background())
	})
	return tx
}

// tripFixture returns a domain.Trip with sensible defaults for use in tests.
// Callers can override individual fields after calling this function.
func tripFixture(id string) domain.Trip {
	return domain.Trip{
		ID:          id,
		Origin:      "San Francisco, CA",
		Destination: "Los Angeles, CA",
		Stops:       domain.StopsFromNames([]string{"Monterey, CA", "Big Sur, CA"}),
		CreatedAt:   time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
		CreatedBy:   domain.DefaultCreator,
		Source:      domain.SourceLocal,
	}
}

func TestTripRepo_Create(t *testing.T) {
	r := repo.NewTripRepo(newTestTx(t))
	ctx := context.Background()

	input := tripFixture("abc123")
	got, err := r.Create(ctx, input)

	require.NoError(t, err)
	assert.Equal(t, "abc123", got.ID)
	assert.Equal(t, input.Origin, got.Origin)
	assert.Equal(t, input.Destination, got.Destination)
	assert.Equal(t, input.CreatedBy, got.CreatedBy)
	assert.Equal(t, domain.SourceLocal, got.Source)
	assert.True(t, got.CreatedAt.Equal(input.CreatedAt), "CreatedAt mismatch")
	assert.Equal(t, input.Stops, got.Stops)
}

func TestTripRepo_Create_DuplicateID(t *testing.T) {
	r := repo.NewTripRepo(newTestTx(t))
	ctx := context.Background()

	_, err := r.Create(ctx, tripFixture("dup001"))
	require.NoError(t, err)

	_, err = r.Create(ctx, tripFixture("dup001"))

	assert.ErrorIs(t, err, domain.ErrConflict)
}

func TestTripRepo_GetByID(t *testing.T) {
	r := repo.NewTripRepo(newTestTx(t))
	ctx := context.Background()

	created, err := r.Create(ctx, tripFixture("get001"))
	require.NoError(t, err)

	got, err := r.GetByID(ctx, created.ID)

	require.NoError(t, err)
	assert.Equal(t, created.ID, got.ID)
	assert.Equal(t, created.Stops, got.Stops)
}

func TestTripRepo_GetByID_NotFound(t *testing.T) {
	r := repo.NewTripRepo(newTestTx(t))

	_, err := r.GetByID(context.Background(), "nonexistent")

	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestTripRepo_GetByID_NoStops(t *testing.T) {
	r := repo.NewTripRepo(newTestTx(t))
	ctx := context.Background()

	input := tripFixture("bare01")
	input.Stops = nil
	_, err := r.Create(ctx, input)
	require.NoError(t, err)

	got, err := r.GetByID(ctx, "bare01")

	require.NoError(t, err)
	assert.NotNil(t, got.Stops, "stops should be an empty slice, not nil")
	assert.Empty(t, got.Stops)
}

func TestTripRepo_List_InsertionOrder(t *testing.T) {
	r := repo.NewTripRepo(newTestTx(t))
	ctx := context.Background()

	for _, id := range []string{"zzz999", "aaa111", "mmm555"} {
		_, err := r.Create(ctx, tripFixture(id))
		require.NoError(t, err)
	}

	trips, err := r.List(ctx)

	require.NoError(t, err)
	var ids []string
	for _, tr := range trips {
		ids = append(ids, tr.ID)
	}
	// Other tests may have committed rows; only relative order matters here.
	require.Subset(t, ids, []string{"zzz999", "aaa111", "mmm555"})
	assert.Less(t, indexOf(ids, "zzz999"), indexOf(ids, "aaa111"))
	assert.Less(t, indexOf(ids, "aaa111"), indexOf(ids, "mmm555"))

	for _, tr := range trips {
		if tr.ID == "aaa111" {
			assert.Len(t, tr.Stops, 2, "stops should be attached to listed trips")
		}
	}
}

func TestTripRepo_ListPaged(t *testing.T) {
	r := repo.NewTripRepo(newTestTx(t))
	ctx := context.Background()

	for _, id := range []string{"pag001", "pag002", "pag003"} {
		_, err := r.Create(ctx, tripFixture(id))
		require.NoError(t, err)
	}

	limit := 2
	trips, total, err := r.ListPaged(ctx, domain.NewPaginationParams(nil, &limit))

	require.NoError(t, err)
	assert.GreaterOrEqual(t, total, int64(3))
	assert.Len(t, trips, 2)
}

func indexOf(ids []string, id string) int {
	for i, v := range ids {
		if v == id {
			return i
		}
	}
	return -1
}
