package domain_test

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pkordes/tripsync/backend/internal/domain"
)

var idPattern = regexp.MustCompile(`^[0-9a-z]{6}$`)

func TestNewTripID_Shape(t *testing.T) {
	for i := 0; i < 50; i++ {
		id, err := domain.NewTripID()
		require.NoError(t, err)
		assert.Regexp(t, idPattern, id)
	}
}

func TestFormatToken(t *testing.T) {
	assert.Equal(t, "trips/abc123", domain.FormatToken("abc123"))
	assert.Equal(t, "trips/abc123", domain.Trip{ID: "abc123"}.Token())
}

func TestParseToken(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"abc123", "abc123"},
		{"  abc123  ", "abc123"},
		{"trips/abc123", "abc123"},
		{"trip/abc123", "abc123"},
		{"/trips/abc123", "abc123"},
		{"/trip/abc123/", "abc123"},
		{"https://mapsync.onrender.com/trips/abc123", "abc123"},
		{"https://example.com/share/trip/xyz789?utm=1", "xyz789"},
		{"", ""},
		{"   ", ""},
	}

	for _, tc := range tests {
		t.Run(tc.in, func(t *testing.T) {
			assert.Equal(t, tc.want, domain.ParseToken(tc.in))
		})
	}
}

func TestParseToken_RoundTrip(t *testing.T) {
	id, err := domain.NewTripID()
	require.NoError(t, err)

	assert.Equal(t, id, domain.ParseToken(domain.FormatToken(id)))
}

func TestValidTripID(t *testing.T) {
	assert.True(t, domain.ValidTripID("abc123"))
	assert.True(t, domain.ValidTripID("trip-9_x"))
	assert.False(t, domain.ValidTripID(""))
	assert.False(t, domain.ValidTripID("ABC123"))
	assert.False(t, domain.ValidTripID("has space"))
	assert.False(t, domain.ValidTripID("a/b"))
}

func TestStopsFromNames(t *testing.T) {
	stops := domain.StopsFromNames([]string{"Monterey, CA", "Big Sur, CA"})

	require.Len(t, stops, 2)
	assert.Equal(t, domain.Stop{ID: "stop-0", Name: "Monterey, CA", Address: "Monterey, CA"}, stops[0])
	assert.Equal(t, domain.Stop{ID: "stop-1", Name: "Big Sur, CA", Address: "Big Sur, CA"}, stops[1])
}

func TestRemoteResult(t *testing.T) {
	ok := domain.RemoteSuccess("https://mapsync.example/trips/abc123")
	assert.True(t, ok.Succeeded())

	failed := domain.RemoteFailure(nil)
	assert.False(t, failed.Succeeded())
	assert.ErrorIs(t, failed.Reason, domain.ErrRemoteUnavailable)

	assert.False(t, domain.RemoteSuccess("").Succeeded(), "empty link is not a success")
}

func TestTripClone_DoesNotAliasStops(t *testing.T) {
	orig := domain.Trip{ID: "abc123", Stops: domain.StopsFromNames([]string{"A"})}

	cp := orig.Clone()
	cp.Stops[0].Name = "changed"
	cp.Stops = append(cp.Stops, domain.Stop{ID: "stop-1"})

	assert.Equal(t, "A", orig.Stops[0].Name)
	assert.Len(t, orig.Stops, 1)
}
