package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/mattn/go-isatty"
	"github.com/rotisserie/eris"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/summitline/trailprep/internal/model"
	"github.com/summitline/trailprep/internal/report"
	"github.com/summitline/trailprep/internal/resolve"
	"github.com/summitline/trailprep/internal/store"
	"github.com/summitline/trailprep/internal/table"
	"github.com/summitline/trailprep/pkg/nominatim"
)

var (
	geocodeIn       string
	geocodeOut      string
	geocodeCountry  string
	geocodeDelay    time.Duration
	geocodeRetryRun string
	geocodeNoStore  bool
)

var geocodeCmd = &cobra.Command{
	Use:   "geocode",
	Short: "Geocode each trail's starting point, one lookup at a time",
	Long: `Resolves every record's free-text starting point to coordinates via the
geocoding provider, strictly sequentially, pausing between lookups to respect
the provider's rate limit. Failures never halt the batch; they are recorded
per record for a later retry run.

Examples:
  # Geocode a normalized CSV
  trailprep geocode --in trails.csv --out geocoded.csv --country ke

  # Retry only the records that failed in an earlier run
  trailprep geocode --retry-failed 9f2c... --out retried.csv`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		country := geocodeCountry
		if country == "" {
			country = cfg.Geocode.Country
		}
		delay := geocodeDelay
		if delay <= 0 {
			delay = cfg.Geocode.Delay()
		}

		var st store.Store
		if !geocodeNoStore || geocodeRetryRun != "" {
			s, err := openStore(ctx)
			if err != nil {
				return err
			}
			defer s.Close() //nolint:errcheck
			st = s
		}

		records, source, err := geocodeInput(ctx, st)
		if err != nil {
			return err
		}

		lookup := nominatim.NewClient(
			nominatim.WithBaseURL(cfg.Geocode.BaseURL),
			nominatim.WithHTTPClient(&http.Client{Timeout: cfg.Geocode.Timeout()}),
			nominatim.WithUserAgent(cfg.Geocode.UserAgent),
			nominatim.WithEmail(cfg.Geocode.Email),
			nominatim.WithRateLimit(cfg.Geocode.RateLimitRPS),
		)

		opts := []resolve.Option{resolve.WithDelay(delay)}
		if bar := newProgressBar(len(records)); bar != nil {
			opts = append(opts, resolve.WithProgress(func(done, _ int) {
				_ = bar.Set(done)
			}))
		}

		started := time.Now().UTC()
		out, resolveErr := resolve.New(lookup, opts...).Resolve(ctx, records, country)
		if out == nil {
			// Configuration error: nothing was attempted, nothing to write.
			return resolveErr
		}

		if err := table.WriteRecords(geocodeOut, out); err != nil {
			return eris.Wrap(err, "geocode: write output")
		}
		fmt.Println(report.Build(out).Render())

		if st != nil && !geocodeNoStore {
			run := model.Run{
				ID:         uuid.New().String(),
				Country:    country,
				Source:     source,
				StartedAt:  started,
				FinishedAt: time.Now().UTC(),
				Summary:    model.Summarize(out),
			}
			if resolveErr != nil {
				run.Error = resolveErr.Error()
			}
			if err := st.SaveRun(ctx, run, out); err != nil {
				return eris.Wrap(err, "geocode: save run")
			}
			zap.L().Info("run saved", zap.String("run_id", run.ID))
		}

		return resolveErr
	},
}

// geocodeInput loads the batch: the failed subset of an earlier run when
// --retry-failed is set, the input CSV otherwise.
func geocodeInput(ctx context.Context, st store.Store) ([]model.TrailRecord, string, error) {
	if geocodeRetryRun != "" {
		records, err := st.FailedRecords(ctx, geocodeRetryRun)
		if err != nil {
			return nil, "", eris.Wrap(err, "geocode: load failed subset")
		}
		if len(records) == 0 {
			return nil, "", eris.Errorf("geocode: run %s has no failed records", geocodeRetryRun)
		}
		return records, "retry:" + geocodeRetryRun, nil
	}

	if geocodeIn == "" {
		return nil, "", eris.New("geocode: --in is required unless --retry-failed is set")
	}
	records, err := table.ReadRecords(geocodeIn)
	if err != nil {
		return nil, "", eris.Wrap(err, "geocode: read input")
	}
	return records, geocodeIn, nil
}

func newProgressBar(total int) *progressbar.ProgressBar {
	if !isatty.IsTerminal(os.Stderr.Fd()) {
		return nil
	}
	return progressbar.NewOptions(total,
		progressbar.OptionSetDescription("geocoding"),
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionShowCount(),
		progressbar.OptionClearOnFinish(),
	)
}

func init() {
	geocodeCmd.Flags().StringVar(&geocodeIn, "in", "", "normalized trail CSV")
	geocodeCmd.Flags().StringVar(&geocodeOut, "out", "geocoded.csv", "output CSV path")
	geocodeCmd.Flags().StringVar(&geocodeCountry, "country", "", "ISO-3166 alpha-2 country filter (defaults to geocode.country)")
	geocodeCmd.Flags().DurationVar(&geocodeDelay, "delay", 0, "minimum delay between lookups (defaults to geocode.delay_ms)")
	geocodeCmd.Flags().StringVar(&geocodeRetryRun, "retry-failed", "", "re-run only the failed records of the given run ID")
	geocodeCmd.Flags().BoolVar(&geocodeNoStore, "no-store", false, "do not persist the run to the history database")
	rootCmd.AddCommand(geocodeCmd)
}
