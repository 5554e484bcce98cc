// Package store persists resolver run history. It is bookkeeping for the
// re-run-the-failed-subset workflow, not a geocode cache: lookup results are
// never read back to short-circuit future lookups.
package store

import (
	"context"

	"github.com/summitline/trailprep/internal/model"
)

// Store records resolver runs and their per-record outcomes.
type Store interface {
	// SaveRun persists a finished run together with its output records, in
	// output order.
	SaveRun(ctx context.Context, run model.Run, records []model.TrailRecord) error

	// GetRun returns one run by ID.
	GetRun(ctx context.Context, runID string) (*model.Run, error)

	// ListRuns returns the most recent runs, newest first.
	ListRuns(ctx context.Context, limit int) ([]model.Run, error)

	// RunRecords returns a run's records in their original order.
	RunRecords(ctx context.Context, runID string) ([]model.TrailRecord, error)

	// FailedRecords returns only the records that failed in the given run,
	// in their original order, reset to pending for a retry run.
	FailedRecords(ctx context.Context, runID string) ([]model.TrailRecord, error)

	Close() error
}
