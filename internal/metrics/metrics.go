// Package metrics holds the Prometheus collectors for the trip store.
// Collectors register with the default registry; cmd/api exposes them at /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Remote outcome label values.
const (
	OutcomeSuccess  = "success"
	OutcomeFailure  = "failure"
	OutcomeDisabled = "disabled"
)

var (
	// RemoteCreate counts remote trip-creation attempts by outcome.
	RemoteCreate = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tripsync_remote_create_total",
		Help: "Remote trip creation attempts by outcome.",
	}, []string{"outcome"})

	// TripsCreated counts trips stored by the path that produced them.
	TripsCreated = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tripsync_trips_created_total",
		Help: "Trips stored, by source (local fallback or remote).",
	}, []string{"source"})

	// StopsAdded counts stops appended after trip creation.
	StopsAdded = promauto.NewCounter(prometheus.CounterOpts{
		Name: "tripsync_stops_added_total",
		Help: "Stops appended to existing trips.",
	})

	// Joins counts join attempts by result.
	Joins = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tripsync_joins_total",
		Help: "Join attempts by result (found or not_found).",
	}, []string{"result"})
)
