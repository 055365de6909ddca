// Package domain contains the core data types for the tripsync backend.
// This package has zero external dependencies and is imported by every other
// internal package (repo, remote, service, handler).
package domain

import "time"

// Trip sources record which creation path produced a trip.
const (
	SourceLocal  = "local"
	SourceRemote = "remote"
)

// DefaultCreator is the placeholder creator stamped on every trip.
// There is no session-bound actor yet.
const DefaultCreator = "user123"

// Trip is a planned route from Origin to Destination through an ordered list of stops.
// A trip is the top-level aggregate; stops belong to a trip and are only ever appended.
type Trip struct {
	ID          string    `json:"id"`
	Origin      string    `json:"origin"`
	Destination string    `json:"destination"`
	Stops       []Stop    `json:"stops"`
	CreatedAt   time.Time `json:"created_at"`
	CreatedBy   string    `json:"created_by"`
	Source      string    `json:"source"`
	ShareLink   string    `json:"share_link,omitempty"` // set only when the remote call succeeded
}

// Token returns the canonical share token for the trip.
func (t Trip) Token() string {
	return FormatToken(t.ID)
}

// Clone returns a copy of t whose Stops slice does not alias t.Stops.
func (t Trip) Clone() Trip {
	out := t
	out.Stops = make([]Stop, len(t.Stops))
	copy(out.Stops, t.Stops)
	return out
}
