package main

import (
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/summitline/trailprep/internal/export"
	"github.com/summitline/trailprep/internal/model"
	"github.com/summitline/trailprep/internal/normalize"
	"github.com/summitline/trailprep/internal/report"
	"github.com/summitline/trailprep/internal/resolve"
	"github.com/summitline/trailprep/internal/scrape"
	"github.com/summitline/trailprep/internal/table"
	"github.com/summitline/trailprep/pkg/nominatim"
)

var (
	runURL     string
	runOut     string
	runCountry string
	runPages   int
	runXLSX    string
	runSHP     string
	runNoStore bool
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the full pipeline: scrape, normalize, geocode, export",
	Long: `Scrapes the listing, normalizes its columns, geocodes every starting point
sequentially, and writes the annotated CSV plus any requested artifacts.

Example:
  trailprep run --url https://trails.example.org/list --country ke --out geocoded.csv --xlsx gaps.xlsx`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		url := runURL
		if url == "" {
			url = cfg.Scrape.BaseURL
		}
		if url == "" {
			return eris.New("run: --url is required (or set scrape.base_url in config)")
		}
		country := runCountry
		if country == "" {
			country = cfg.Geocode.Country
		}
		pages := runPages
		if pages <= 0 {
			pages = cfg.Scrape.Pages
		}

		// Scrape.
		s := scrape.New(
			scrape.WithHTTPClient(&http.Client{Timeout: cfg.Scrape.Timeout()}),
			scrape.WithUserAgent(cfg.Scrape.UserAgent),
			scrape.WithPageDelay(cfg.Scrape.PageDelay()),
		)
		listing, err := s.FetchListing(ctx, url, pages)
		if err != nil {
			return eris.Wrap(err, "run: scrape")
		}

		// Normalize.
		mapping, err := loadMapping()
		if err != nil {
			return err
		}
		records, dropped := normalize.Normalize(listing.Rows, mapping)
		if len(records) == 0 {
			return eris.Errorf("run: no usable rows scraped from %s", url)
		}
		zap.L().Info("normalized", zap.Int("records", len(records)), zap.Int("dropped", dropped))

		// Geocode.
		lookup := nominatim.NewClient(
			nominatim.WithBaseURL(cfg.Geocode.BaseURL),
			nominatim.WithHTTPClient(&http.Client{Timeout: cfg.Geocode.Timeout()}),
			nominatim.WithUserAgent(cfg.Geocode.UserAgent),
			nominatim.WithEmail(cfg.Geocode.Email),
			nominatim.WithRateLimit(cfg.Geocode.RateLimitRPS),
		)

		opts := []resolve.Option{resolve.WithDelay(cfg.Geocode.Delay())}
		if bar := newProgressBar(len(records)); bar != nil {
			opts = append(opts, resolve.WithProgress(func(done, _ int) {
				_ = bar.Set(done)
			}))
		}

		started := time.Now().UTC()
		out, resolveErr := resolve.New(lookup, opts...).Resolve(ctx, records, country)
		if out == nil {
			return resolveErr
		}

		// Write outputs even when the run was cut short; partial data plus
		// statuses is exactly what the retry workflow needs.
		if err := table.WriteRecords(runOut, out); err != nil {
			return eris.Wrap(err, "run: write output")
		}
		fmt.Println(report.Build(out).Render())

		if runXLSX != "" {
			if err := export.WriteGapFillWorkbook(runXLSX, out); err != nil {
				return err
			}
		}
		if runSHP != "" {
			if _, err := export.WriteTrailheadShapefile(runSHP, out); err != nil {
				return err
			}
		}

		if !runNoStore {
			st, err := openStore(ctx)
			if err != nil {
				return err
			}
			defer st.Close() //nolint:errcheck

			run := model.Run{
				ID:         uuid.New().String(),
				Country:    country,
				Source:     url,
				StartedAt:  started,
				FinishedAt: time.Now().UTC(),
				Summary:    model.Summarize(out),
			}
			if resolveErr != nil {
				run.Error = resolveErr.Error()
			}
			if err := st.SaveRun(ctx, run, out); err != nil {
				return eris.Wrap(err, "run: save run")
			}
			zap.L().Info("run saved", zap.String("run_id", run.ID))
		}

		return resolveErr
	},
}

func init() {
	runCmd.Flags().StringVar(&runURL, "url", "", "listing URL (defaults to scrape.base_url)")
	runCmd.Flags().StringVar(&runOut, "out", "geocoded.csv", "output CSV path")
	runCmd.Flags().StringVar(&runCountry, "country", "", "ISO-3166 alpha-2 country filter (defaults to geocode.country)")
	runCmd.Flags().IntVar(&runPages, "pages", 0, "max listing pages to fetch")
	runCmd.Flags().StringVar(&runXLSX, "xlsx", "", "also write the gap-fill workbook here")
	runCmd.Flags().StringVar(&runSHP, "shp", "", "also write a trailhead shapefile here")
	runCmd.Flags().BoolVar(&runNoStore, "no-store", false, "do not persist the run to the history database")
	rootCmd.AddCommand(runCmd)
}
