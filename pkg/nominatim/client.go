// Package nominatim provides free-text place geocoding via a Nominatim-style
// search endpoint (OpenStreetMap data).
package nominatim

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"
)

const (
	defaultBaseURL   = "https://nominatim.openstreetmap.org/search"
	defaultUserAgent = "trailprep/1.0 (+https://github.com/summitline/trailprep)"
)

// Client looks up free-text place queries.
type Client interface {
	// Lookup geocodes a single query, optionally constrained to a
	// comma-separated list of ISO-3166 alpha-2 country codes.
	Lookup(ctx context.Context, query, countryCodes string) (*Result, error)
}

// Result holds the geocoding output for a query. A query with no match
// returns Matched: false and a nil error; errors are reserved for transport
// and provider failures.
type Result struct {
	Latitude    float64
	Longitude   float64
	DisplayName string
	Class       string
	Type        string
	Importance  float64
	Matched     bool
}

// Option configures the client.
type Option func(*client)

// WithBaseURL overrides the search endpoint, e.g. for a self-hosted instance.
func WithBaseURL(u string) Option {
	return func(c *client) {
		c.baseURL = u
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *client) {
		c.httpClient = hc
	}
}

// WithUserAgent sets the User-Agent header. Nominatim's usage policy requires
// an identifying agent; the default names this tool.
func WithUserAgent(ua string) Option {
	return func(c *client) {
		if ua != "" {
			c.userAgent = ua
		}
	}
}

// WithEmail attaches a contact email to each request, as the public instance
// asks of heavier users.
func WithEmail(email string) Option {
	return func(c *client) {
		c.email = email
	}
}

// WithRateLimit sets the requests-per-second limit. The public instance
// allows at most 1 req/s, which is the default.
func WithRateLimit(rps float64) Option {
	return func(c *client) {
		burst := int(rps)
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(rps), burst)
	}
}

// WithTimeout sets the per-request timeout on the default HTTP client.
func WithTimeout(d time.Duration) Option {
	return func(c *client) {
		c.httpClient.Timeout = d
	}
}

type client struct {
	httpClient *http.Client
	baseURL    string
	userAgent  string
	email      string
	limiter    *rate.Limiter
}

// NewClient creates a Nominatim search client with the given options.
func NewClient(opts ...Option) Client {
	c := &client{
		httpClient: &http.Client{Timeout: 10 * time.Second},
		baseURL:    defaultBaseURL,
		userAgent:  defaultUserAgent,
		limiter:    rate.NewLimiter(1, 1), // public instance policy: 1 req/s
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// searchPlace is one element of the jsonv2 search response.
type searchPlace struct {
	Lat         string  `json:"lat"`
	Lon         string  `json:"lon"`
	DisplayName string  `json:"display_name"`
	Category    string  `json:"category"`
	Type        string  `json:"type"`
	Importance  float64 `json:"importance"`
}

// Lookup implements Client.
func (c *client) Lookup(ctx context.Context, query, countryCodes string) (*Result, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, eris.Wrap(err, "nominatim: rate limit")
	}

	params := url.Values{
		"q":      {query},
		"format": {"jsonv2"},
		"limit":  {"1"},
	}
	if countryCodes != "" {
		params.Set("countrycodes", countryCodes)
	}
	if c.email != "" {
		params.Set("email", c.email)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, eris.Wrap(err, "nominatim: build request")
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, eris.Wrap(err, "nominatim: search request")
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, eris.Errorf("nominatim: search returned status %d: %s", resp.StatusCode, body)
	}

	var places []searchPlace
	if err := json.NewDecoder(resp.Body).Decode(&places); err != nil {
		return nil, eris.Wrap(err, "nominatim: parse response")
	}

	if len(places) == 0 {
		return &Result{Matched: false}, nil
	}

	p := places[0]
	lat, err := strconv.ParseFloat(p.Lat, 64)
	if err != nil {
		return nil, eris.Wrapf(err, "nominatim: parse lat %q", p.Lat)
	}
	lon, err := strconv.ParseFloat(p.Lon, 64)
	if err != nil {
		return nil, eris.Wrapf(err, "nominatim: parse lon %q", p.Lon)
	}

	return &Result{
		Latitude:    lat,
		Longitude:   lon,
		DisplayName: p.DisplayName,
		Class:       p.Category,
		Type:        p.Type,
		Importance:  p.Importance,
		Matched:     true,
	}, nil
}
