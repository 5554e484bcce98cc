// Package report turns a geocoded batch into the human-readable follow-up
// summary the manual gap-fill pass works from.
package report

import (
	"fmt"
	"strings"

	"github.com/twpayne/go-geom"

	"github.com/summitline/trailprep/internal/model"
)

// Report aggregates a run's outcome for display.
type Report struct {
	Summary model.Summary

	// Bounds is the lon/lat bounding box of the resolved trailheads; nil
	// when nothing resolved.
	Bounds *geom.Bounds
	// Centroid is the mean position of the resolved trailheads; nil when
	// nothing resolved.
	Centroid *geom.Point
}

// Build computes the report for a batch of records.
func Build(records []model.TrailRecord) Report {
	r := Report{Summary: model.Summarize(records)}

	bounds := geom.NewBounds(geom.XY)
	var sumX, sumY float64
	n := 0
	for _, rec := range records {
		if rec.Status != model.StatusResolved || !rec.HasCoordinates() {
			continue
		}
		bounds.Extend(geom.NewPointFlat(geom.XY, []float64{*rec.Lon, *rec.Lat}))
		sumX += *rec.Lon
		sumY += *rec.Lat
		n++
	}
	if n > 0 {
		r.Bounds = bounds
		r.Centroid = geom.NewPointFlat(geom.XY, []float64{sumX / float64(n), sumY / float64(n)})
	}
	return r
}

// Render formats the report as plain text.
func (r Report) Render() string {
	var b strings.Builder
	s := r.Summary

	fmt.Fprintf(&b, "geocoded %d of %d records (%d failed, %d skipped)\n",
		s.Resolved, s.Total, s.Failed, s.Skipped)

	if r.Bounds != nil {
		fmt.Fprintf(&b, "resolved trailheads span lat %.4f..%.4f, lon %.4f..%.4f (centroid %.4f, %.4f)\n",
			r.Bounds.Min(1), r.Bounds.Max(1), r.Bounds.Min(0), r.Bounds.Max(0),
			r.Centroid.Y(), r.Centroid.X())
	}

	if len(s.FailedNames) > 0 {
		b.WriteString("\nneeds manual follow-up (lookup failed):\n")
		for _, name := range s.FailedNames {
			fmt.Fprintf(&b, "  - %s\n", name)
		}
	}
	if len(s.SkippedNames) > 0 {
		b.WriteString("\nskipped (no starting point):\n")
		for _, name := range s.SkippedNames {
			fmt.Fprintf(&b, "  - %s\n", name)
		}
	}
	return b.String()
}
