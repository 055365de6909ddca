package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/pkordes/tripsync/backend/spec"
)

// Handler returns a chi router with every API route registered on s.
func Handler(s *Server) http.Handler {
	return HandlerFromMux(s, chi.NewRouter())
}

// HandlerFromMux registers every API route on r and returns it.
// Use it when the caller owns the router and its middleware stack.
func HandlerFromMux(s *Server, r chi.Router) http.Handler {
	r.Get("/healthz", s.GetHealth)
	r.Get("/openapi.yaml", serveOpenAPI)

	r.Route("/trips", func(r chi.Router) {
		r.Post("/", s.CreateTrip)
		r.Get("/", s.ListTrips)
		// Static segments are matched before {tripId}.
		r.Get("/current", s.GetCurrentTrip)
		r.Post("/join", s.JoinTrip)

		r.Route("/{tripId}", func(r chi.Router) {
			r.Get("/", s.GetTrip)
			r.Get("/stops", s.ListStops)
			r.Post("/stops", s.AddStop)
			r.Get("/directions", s.GetDirections)
		})
	})

	r.Get("/export", s.GetExport)
	return r
}

// serveOpenAPI handles GET /openapi.yaml with the embedded API description.
func serveOpenAPI(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/yaml")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(spec.OpenAPI)
}
