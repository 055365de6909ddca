package service

import (
	"context"
	"fmt"

	"github.com/pkordes/tripsync/backend/internal/domain"
	"github.com/pkordes/tripsync/backend/internal/repo"
)

// ExportService assembles a flat export of all trips and their stops.
type ExportService struct {
	trips repo.TripRepo
}

// NewExportService constructs an ExportService backed by the provided repo.
func NewExportService(trips repo.TripRepo) *ExportService {
	return &ExportService{trips: trips}
}

// Export returns one ExportRow per stop across all trips, trips in creation
// order and stops in trip order. Trips with no stops contribute one row with
// empty stop fields. Always returns a non-nil slice.
func (s *ExportService) Export(ctx context.Context) ([]domain.ExportRow, error) {
	trips, err := s.trips.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("service.ExportService.Export: %w", err)
	}

	rows := make([]domain.ExportRow, 0, len(trips))
	for _, t := range trips {
		base := domain.ExportRow{
			TripID:          t.ID,
			TripOrigin:      t.Origin,
			TripDestination: t.Destination,
			TripCreatedAt:   t.CreatedAt,
			TripSource:      t.Source,
		}
		if len(t.Stops) == 0 {
			rows = append(rows, base)
			continue
		}
		for i, st := range t.Stops {
			row := base
			row.StopPosition = i
			row.StopID = st.ID
			row.StopName = st.Name
			row.StopAddress = st.Address
			rows = append(rows, row)
		}
	}
	return rows, nil
}
