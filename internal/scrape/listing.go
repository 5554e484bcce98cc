// Package scrape fetches hiking-trail listing pages and extracts their data
// tables into raw rows for normalization.
package scrape

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/net/html/charset"

	"github.com/summitline/trailprep/internal/normalize"
)

const defaultUserAgent = "trailprep/1.0 (+https://github.com/summitline/trailprep)"

// Option configures the listing scraper.
type Option func(*Scraper)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(s *Scraper) {
		s.httpClient = hc
	}
}

// WithUserAgent overrides the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(s *Scraper) {
		if ua != "" {
			s.userAgent = ua
		}
	}
}

// WithPageDelay sets the polite pause between listing page fetches.
func WithPageDelay(d time.Duration) Option {
	return func(s *Scraper) {
		s.pageDelay = d
	}
}

// WithClock substitutes the wall clock for tests.
func WithClock(c clockwork.Clock) Option {
	return func(s *Scraper) {
		s.clock = c
	}
}

// Scraper fetches listing pages sequentially, one at a time.
type Scraper struct {
	httpClient *http.Client
	userAgent  string
	pageDelay  time.Duration
	clock      clockwork.Clock
}

// New creates a listing scraper.
func New(opts ...Option) *Scraper {
	s := &Scraper{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		userAgent:  defaultUserAgent,
		pageDelay:  time.Second,
		clock:      clockwork.NewRealClock(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Listing is the scraped output: the source column order plus the raw rows.
type Listing struct {
	Header []string
	Rows   []normalize.RawRow
}

// FetchListing scrapes up to maxPages pages of the listing at baseURL,
// following ?page=N pagination. It stops early at the first page without data
// rows. Page one is fetched from baseURL as given.
func (s *Scraper) FetchListing(ctx context.Context, baseURL string, maxPages int) (*Listing, error) {
	if maxPages < 1 {
		maxPages = 1
	}
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, eris.Wrapf(err, "scrape: parse url %s", baseURL)
	}

	log := zap.L().With(zap.String("component", "scraper"), zap.String("url", baseURL))

	listing := &Listing{}
	for page := 1; page <= maxPages; page++ {
		if page > 1 {
			select {
			case <-s.clock.After(s.pageDelay):
			case <-ctx.Done():
				return nil, eris.Wrap(ctx.Err(), "scrape: canceled between pages")
			}
		}

		header, rows, err := s.fetchPage(ctx, pageURL(u, page))
		if err != nil {
			if page == 1 {
				return nil, err
			}
			// Listing sites commonly 404 past the last page.
			log.Debug("stopping pagination", zap.Int("page", page), zap.Error(err))
			break
		}
		if len(rows) == 0 {
			break
		}

		if listing.Header == nil {
			listing.Header = header
		}
		listing.Rows = append(listing.Rows, rows...)
		log.Info("scraped page", zap.Int("page", page), zap.Int("rows", len(rows)))
	}

	if len(listing.Rows) == 0 {
		return nil, eris.Errorf("scrape: no rows found at %s", baseURL)
	}
	return listing, nil
}

func (s *Scraper) fetchPage(ctx context.Context, pageURL string) ([]string, []normalize.RawRow, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, nil, eris.Wrap(err, "scrape: build request")
	}
	req.Header.Set("User-Agent", s.userAgent)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, nil, eris.Wrapf(err, "scrape: fetch %s", pageURL)
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode != http.StatusOK {
		return nil, nil, eris.Errorf("scrape: %s returned status %d", pageURL, resp.StatusCode)
	}

	// Listing sites in the wild still serve ISO-8859-1 and friends.
	body, err := charset.NewReader(resp.Body, resp.Header.Get("Content-Type"))
	if err != nil {
		return nil, nil, eris.Wrap(err, "scrape: detect charset")
	}

	return ParseListingTable(body)
}

func pageURL(base *url.URL, page int) string {
	if page == 1 {
		return base.String()
	}
	u := *base
	q := u.Query()
	q.Set("page", strconv.Itoa(page))
	u.RawQuery = q.Encode()
	return u.String()
}
