// Package model holds the record types shared across the trailprep pipeline.
package model

import "time"

// GeocodeStatus tracks the outcome of a record's geocoding attempt.
type GeocodeStatus string

const (
	// StatusPending means the record has not been handed to the resolver yet.
	StatusPending GeocodeStatus = "pending"
	// StatusResolved means coordinates and an address were found.
	StatusResolved GeocodeStatus = "resolved"
	// StatusFailed means a lookup was attempted and returned no usable match.
	StatusFailed GeocodeStatus = "failed"
	// StatusSkipped means no lookup was attempted (blank query or run cut short).
	StatusSkipped GeocodeStatus = "skipped"
)

// TrailRecord is one row of hiking-trail data flowing through the pipeline.
// Lat, Lon and ResolvedAddress are populated together on a resolved lookup
// and are never set partially.
type TrailRecord struct {
	PlaceName     string `json:"place_name"`
	StartingPoint string `json:"starting_point"`
	Area          string `json:"area,omitempty"` // county/region hint, never required

	Lat             *float64      `json:"lat,omitempty"`
	Lon             *float64      `json:"lon,omitempty"`
	ResolvedAddress string        `json:"resolved_address,omitempty"`
	Status          GeocodeStatus `json:"geocode_status"`
	Query           string        `json:"query,omitempty"` // query actually sent to the provider

	// Extra carries source columns outside the canonical schema through the
	// pipeline untouched.
	Extra map[string]string `json:"extra,omitempty"`
}

// HasCoordinates reports whether both coordinates are set.
func (r *TrailRecord) HasCoordinates() bool {
	return r.Lat != nil && r.Lon != nil
}

// SetCoordinates sets lat/lon/address as a unit and marks the record resolved.
func (r *TrailRecord) SetCoordinates(lat, lon float64, address string) {
	r.Lat = &lat
	r.Lon = &lon
	r.ResolvedAddress = address
	r.Status = StatusResolved
}

// ClearCoordinates unsets all three resolved fields.
func (r *TrailRecord) ClearCoordinates() {
	r.Lat = nil
	r.Lon = nil
	r.ResolvedAddress = ""
}

// Summary aggregates per-status counts for a resolver run.
type Summary struct {
	Total        int      `json:"total"`
	Resolved     int      `json:"resolved"`
	Failed       int      `json:"failed"`
	Skipped      int      `json:"skipped"`
	Pending      int      `json:"pending"`
	FailedNames  []string `json:"failed_names,omitempty"`
	SkippedNames []string `json:"skipped_names,omitempty"`
}

// Summarize tallies record statuses and collects the place names that need
// manual follow-up.
func Summarize(records []TrailRecord) Summary {
	s := Summary{Total: len(records)}
	for _, r := range records {
		switch r.Status {
		case StatusResolved:
			s.Resolved++
		case StatusFailed:
			s.Failed++
			s.FailedNames = append(s.FailedNames, r.PlaceName)
		case StatusSkipped:
			s.Skipped++
			s.SkippedNames = append(s.SkippedNames, r.PlaceName)
		default:
			s.Pending++
		}
	}
	return s
}

// Run represents one persisted resolver run.
type Run struct {
	ID         string    `json:"id"`
	Country    string    `json:"country"`
	Source     string    `json:"source"` // input file or URL the batch came from
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
	Summary    Summary   `json:"summary"`
	Error      string    `json:"error,omitempty"`
}
