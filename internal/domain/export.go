package domain

import "time"

// ExportRow is a single row in the full-data export.
// It is a flat, denormalized view: one row per stop, with trip fields repeated
// for every stop on that trip. Trips with no stops yield one row with zero
// values for all stop fields.
type ExportRow struct {
	// Trip fields, repeated for every stop on the trip.
	TripID          string
	TripOrigin      string
	TripDestination string
	TripCreatedAt   time.Time
	TripSource      string

	// Stop fields, zero values when the trip has no stops.
	StopPosition int
	StopID       string
	StopName     string
	StopAddress  string
}
