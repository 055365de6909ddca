package domain

import "fmt"

// Stop is a named waypoint on a trip.
// ID is derived from the stop's position and is unique within its trip only.
type Stop struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Address string `json:"address"`
}

// StopID returns the identifier for the stop at the given zero-based position.
func StopID(position int) string {
	return fmt.Sprintf("stop-%d", position)
}

// StopsFromNames builds stops from plain place names.
// Each name doubles as the address; there is no geocoding step.
func StopsFromNames(names []string) []Stop {
	stops := make([]Stop, len(names))
	for i, n := range names {
		stops[i] = Stop{ID: StopID(i), Name: n, Address: n}
	}
	return stops
}
