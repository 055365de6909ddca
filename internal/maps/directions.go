// Package maps builds links into the external mapping service.
package maps

import (
	"net/url"
	"strings"

	"github.com/pkordes/tripsync/backend/internal/domain"
)

// directionsBase is the Google Maps directions endpoint (URL API, api=1).
const directionsBase = "https://www.google.com/maps/dir/"

// DirectionsURL returns a directions link from the trip's origin to its
// destination through every stop address, in stop order. Waypoints are
// pipe-separated as the Maps URL API expects and are omitted for trips
// without stops.
func DirectionsURL(trip domain.Trip) string {
	q := url.Values{}
	q.Set("api", "1")
	q.Set("origin", trip.Origin)
	q.Set("destination", trip.Destination)

	if len(trip.Stops) > 0 {
		addrs := make([]string, len(trip.Stops))
		for i, s := range trip.Stops {
			addrs[i] = s.Address
		}
		q.Set("waypoints", strings.Join(addrs, "|"))
	}

	return directionsBase + "?" + q.Encode()
}
