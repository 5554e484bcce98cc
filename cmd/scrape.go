package main

import (
	"net/http"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/summitline/trailprep/internal/scrape"
	"github.com/summitline/trailprep/internal/table"
)

var (
	scrapeURL   string
	scrapeOut   string
	scrapePages int
)

var scrapeCmd = &cobra.Command{
	Use:   "scrape",
	Short: "Scrape a trail-listing website into a raw CSV",
	Long: `Fetches the listing's HTML pages, extracts the first data table on each,
and writes the raw rows to a CSV for the normalize step.

Example:
  trailprep scrape --url https://trails.example.org/list --pages 3 --out raw.csv`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		url := scrapeURL
		if url == "" {
			url = cfg.Scrape.BaseURL
		}
		if url == "" {
			return eris.New("scrape: --url is required (or set scrape.base_url in config)")
		}
		pages := scrapePages
		if pages <= 0 {
			pages = cfg.Scrape.Pages
		}

		s := scrape.New(
			scrape.WithHTTPClient(&http.Client{Timeout: cfg.Scrape.Timeout()}),
			scrape.WithUserAgent(cfg.Scrape.UserAgent),
			scrape.WithPageDelay(cfg.Scrape.PageDelay()),
		)

		listing, err := s.FetchListing(cmd.Context(), url, pages)
		if err != nil {
			return eris.Wrap(err, "scrape")
		}

		if err := table.WriteRaw(scrapeOut, listing.Header, listing.Rows); err != nil {
			return eris.Wrap(err, "scrape: write output")
		}

		zap.L().Info("scrape complete",
			zap.Int("rows", len(listing.Rows)),
			zap.String("out", scrapeOut),
		)
		return nil
	},
}

func init() {
	scrapeCmd.Flags().StringVar(&scrapeURL, "url", "", "listing URL (defaults to scrape.base_url)")
	scrapeCmd.Flags().StringVar(&scrapeOut, "out", "raw.csv", "output CSV path")
	scrapeCmd.Flags().IntVar(&scrapePages, "pages", 0, "max listing pages to fetch (defaults to scrape.pages)")
	rootCmd.AddCommand(scrapeCmd)
}
