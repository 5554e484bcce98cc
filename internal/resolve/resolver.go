// Package resolve turns free-text trail starting points into coordinates via
// a single geocoding capability, one lookup at a time, with an enforced
// minimum delay between requests.
package resolve

import (
	"context"
	"regexp"
	"strings"
	"time"

	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"

	"github.com/summitline/trailprep/internal/model"
	"github.com/summitline/trailprep/pkg/nominatim"
)

// Lookup is the geocoding capability the resolver consumes. Provider choice
// and query syntax live behind it; pkg/nominatim satisfies it.
type Lookup interface {
	Lookup(ctx context.Context, query, countryCodes string) (*nominatim.Result, error)
}

// DefaultDelay is the minimum gap between consecutive outbound lookups.
const DefaultDelay = time.Second

var countryFilterRe = regexp.MustCompile(`^[a-z]{2}(,[a-z]{2})*$`)

// Option configures a Resolver.
type Option func(*Resolver)

// WithDelay sets the minimum delay between consecutive lookups.
func WithDelay(d time.Duration) Option {
	return func(r *Resolver) {
		r.delay = d
	}
}

// WithClock substitutes the wall clock, used by tests to verify pacing
// without sleeping.
func WithClock(c clockwork.Clock) Option {
	return func(r *Resolver) {
		r.clock = c
	}
}

// WithProgress registers a callback invoked after each record is finalized.
func WithProgress(fn func(done, total int)) Option {
	return func(r *Resolver) {
		r.progress = fn
	}
}

// Resolver geocodes batches of trail records sequentially. It never issues
// two lookups concurrently; the pacing delay is the rate-limit contract with
// the provider.
type Resolver struct {
	lookup   Lookup
	delay    time.Duration
	clock    clockwork.Clock
	progress func(done, total int)
}

// New creates a Resolver over the given lookup capability.
func New(lookup Lookup, opts ...Option) *Resolver {
	r := &Resolver{
		lookup: lookup,
		delay:  DefaultDelay,
		clock:  clockwork.NewRealClock(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve geocodes each record's starting point, constrained to countryFilter
// (comma-separated ISO-3166 alpha-2 codes, e.g. "ke").
//
// The returned slice has the same length and order as the input; the input is
// never mutated. Every output record carries a final status: resolved, failed
// (lookup attempted, no usable result) or skipped (no lookup attempted).
// Per-record failures never abort the batch. The whole run fails only on a
// bad countryFilter, on a provider that is unreachable on the first attempted
// lookup, or on caller cancellation; in the latter two cases the annotated
// slice is returned alongside the error.
func (r *Resolver) Resolve(ctx context.Context, records []model.TrailRecord, countryFilter string) ([]model.TrailRecord, error) {
	filter := strings.ToLower(strings.TrimSpace(countryFilter))
	if filter == "" {
		return nil, &ConfigError{Field: "country filter", Reason: "must not be empty"}
	}
	if !countryFilterRe.MatchString(filter) {
		return nil, &ConfigError{Field: "country filter", Reason: "want comma-separated ISO-3166 alpha-2 codes, got " + countryFilter}
	}

	log := zap.L().With(zap.String("component", "resolver"), zap.String("country", filter))

	out := make([]model.TrailRecord, len(records))
	copy(out, records)

	attempted := 0
	for i := range out {
		rec := &out[i]

		if err := ctx.Err(); err != nil {
			return out, r.cancel(out[i:], log, err)
		}

		query := strings.TrimSpace(rec.StartingPoint)
		if query == "" {
			rec.Status = model.StatusSkipped
			rec.ClearCoordinates()
			r.report(i+1, len(out))
			continue
		}

		// Pace every lookup after the first, success or failure alike.
		if attempted > 0 {
			select {
			case <-r.clock.After(r.delay):
			case <-ctx.Done():
				return out, r.cancel(out[i:], log, ctx.Err())
			}
		}
		attempted++

		rec.Query = query
		result, err := r.lookup.Lookup(ctx, query, filter)
		switch {
		case err != nil && attempted == 1 && isUnreachable(err):
			// The provider itself is down; every further call is pointless.
			rec.Status = model.StatusFailed
			rec.ClearCoordinates()
			untried := r.markSkipped(out[i+1:])
			log.Error("provider unreachable, halting run",
				zap.Int("untried", untried),
				zap.Error(err),
			)
			return out, &UnreachableError{Attempted: attempted, Untried: untried, Err: err}
		case err != nil:
			rec.Status = model.StatusFailed
			rec.ClearCoordinates()
			log.Warn("lookup failed",
				zap.String("place", rec.PlaceName),
				zap.String("query", query),
				zap.Error(err),
			)
		case !result.Matched:
			rec.Status = model.StatusFailed
			rec.ClearCoordinates()
			log.Debug("no match",
				zap.String("place", rec.PlaceName),
				zap.String("query", query),
			)
		default:
			rec.SetCoordinates(result.Latitude, result.Longitude, result.DisplayName)
		}

		r.report(i+1, len(out))
	}

	s := model.Summarize(out)
	log.Info("resolve complete",
		zap.Int("total", s.Total),
		zap.Int("resolved", s.Resolved),
		zap.Int("failed", s.Failed),
		zap.Int("skipped", s.Skipped),
	)
	return out, nil
}

// cancel finalizes a canceled run: the remaining records were never
// attempted, so they are skipped rather than failed. Downstream re-run logic
// relies on that distinction.
func (r *Resolver) cancel(remaining []model.TrailRecord, log *zap.Logger, cause error) error {
	n := r.markSkipped(remaining)
	log.Warn("run canceled", zap.Int("remaining", n), zap.Error(cause))
	return &CanceledError{Remaining: n, Err: cause}
}

func (r *Resolver) markSkipped(records []model.TrailRecord) int {
	for i := range records {
		records[i].Status = model.StatusSkipped
		records[i].ClearCoordinates()
	}
	return len(records)
}

func (r *Resolver) report(done, total int) {
	if r.progress != nil {
		r.progress(done, total)
	}
}
