// export.go implements GET /export: every trip and stop as a flat table,
// as JSON by default or CSV with ?format=csv.

package handler

import (
	"bytes"
	"encoding/csv"
	"net/http"
	"strconv"
	"time"

	"github.com/oapi-codegen/runtime"

	"github.com/pkordes/tripsync/backend/internal/domain"
)

// csvHeaders defines the column names written as the first row of any CSV export.
var csvHeaders = []string{
	"trip_id", "trip_origin", "trip_destination", "trip_created_at", "trip_source",
	"stop_position", "stop_id", "stop_name", "stop_address",
}

// GetExport implements GET /export.
// It returns one row per stop across all trips.
// Use ?format=csv to receive CSV; default is JSON.
func (s *Server) GetExport(w http.ResponseWriter, r *http.Request) {
	var format *string
	if err := runtime.BindQueryParameter("form", true, false, "format", r.URL.Query(), &format); err != nil {
		writeJSON(w, http.StatusUnprocessableEntity, requestBody("invalid format parameter"))
		return
	}
	if format != nil && *format != "csv" && *format != "json" {
		writeJSON(w, http.StatusUnprocessableEntity, requestBody(`format must be "csv" or "json"`))
		return
	}

	rows, err := s.export.Export(r.Context())
	if err != nil {
		s.writeError(w, r, err, "export not found")
		return
	}

	if format != nil && *format == "csv" {
		writeCSV(w, rows)
		return
	}
	writeJSON(w, http.StatusOK, buildJSONRows(rows))
}

// buildJSONRows converts domain rows to the JSON response rows.
func buildJSONRows(rows []domain.ExportRow) []ExportRow {
	out := make([]ExportRow, 0, len(rows))
	for _, r := range rows {
		out = append(out, domainRowToAPIRow(r))
	}
	return out
}

// writeCSV encodes domain rows as CSV with a header line.
func writeCSV(w http.ResponseWriter, rows []domain.ExportRow) {
	var buf bytes.Buffer
	cw := csv.NewWriter(&buf)

	//nolint:errcheck // bytes.Buffer.Write never returns an error.
	cw.Write(csvHeaders)
	for _, r := range rows {
		//nolint:errcheck
		cw.Write(domainRowToCSVRecord(r))
	}
	cw.Flush()

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="trips.csv"`)
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

// domainRowToAPIRow maps a domain.ExportRow to the JSON ExportRow type.
// Stop fields are nil pointers (omitted) for a trip without stops.
func domainRowToAPIRow(r domain.ExportRow) ExportRow {
	row := ExportRow{
		TripID:          r.TripID,
		TripOrigin:      r.TripOrigin,
		TripDestination: r.TripDestination,
		TripCreatedAt:   r.TripCreatedAt,
		TripSource:      r.TripSource,
	}
	if r.StopID != "" {
		pos := r.StopPosition
		row.StopPosition = &pos
		row.StopID = nilIfEmpty(r.StopID)
		row.StopName = nilIfEmpty(r.StopName)
		row.StopAddress = nilIfEmpty(r.StopAddress)
	}
	return row
}

// domainRowToCSVRecord encodes a domain.ExportRow as a flat string slice.
// Stop columns are empty for a trip without stops.
func domainRowToCSVRecord(r domain.ExportRow) []string {
	position := ""
	if r.StopID != "" {
		position = strconv.Itoa(r.StopPosition)
	}
	return []string{
		r.TripID,
		r.TripOrigin,
		r.TripDestination,
		r.TripCreatedAt.UTC().Format(time.RFC3339),
		r.TripSource,
		position,
		r.StopID,
		r.StopName,
		r.StopAddress,
	}
}
