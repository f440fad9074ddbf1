// Package metadata looks up film and series metadata on OMDb.
package metadata

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"
	"golang.org/x/time/rate"

	"github.com/lueurxax/media-search-bot/internal/core/domain"
	"github.com/lueurxax/media-search-bot/internal/core/errors"
	"github.com/lueurxax/media-search-bot/internal/core/ports"
	"github.com/lueurxax/media-search-bot/internal/platform/observability"
)

const (
	DefaultBaseURL   = "https://www.omdbapi.com"
	defaultTimeout   = 5 * time.Second
	defaultCacheSize = 1000
	defaultCacheTTL  = 24 * time.Hour
	defaultRPS       = 5

	maxCast    = 10
	notAvail   = "N/A"
	omdbTrue   = "True"
	listSep    = ","
	yearDigits = 4

	outcomeHit         = "cache_hit"
	outcomeFound       = "found"
	outcomeNotFound    = "not_found"
	outcomeError       = "error"
	outcomeCircuitOpen = "circuit_open"
)

// Config configures the OMDb client.
type Config struct {
	APIKey            string
	BaseURL           string
	Timeout           time.Duration
	CacheSize         int
	CacheTTL          time.Duration
	RequestsPerSecond float64
	Breaker           CircuitBreakerConfig
}

// Client is a cached, rate-limited OMDb client. Concurrent lookups for the
// same title share one request.
type Client struct {
	http    *resty.Client
	apiKey  string
	cache   *expirable.LRU[string, *domain.ExternalMetadata]
	group   singleflight.Group
	breaker *CircuitBreaker
	limiter *rate.Limiter
	logger  *zerolog.Logger
}

var _ ports.MetadataLookup = (*Client)(nil)

// New creates a Client. Zero config values fall back to defaults.
func New(cfg Config, logger *zerolog.Logger) *Client {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}

	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	size := cfg.CacheSize
	if size <= 0 {
		size = defaultCacheSize
	}

	ttl := cfg.CacheTTL
	if ttl <= 0 {
		ttl = defaultCacheTTL
	}

	rps := cfg.RequestsPerSecond
	if rps <= 0 {
		rps = defaultRPS
	}

	breaker := cfg.Breaker
	if breaker.Threshold <= 0 {
		breaker = CircuitBreakerConfig{Threshold: 5, ResetAfter: time.Minute}
	}

	return &Client{
		http:    resty.New().SetBaseURL(strings.TrimRight(baseURL, "/")).SetTimeout(timeout),
		apiKey:  cfg.APIKey,
		cache:   expirable.NewLRU[string, *domain.ExternalMetadata](size, nil, ttl),
		breaker: NewCircuitBreaker(breaker, logger),
		limiter: rate.NewLimiter(rate.Limit(rps), 1),
		logger:  logger,
	}
}

// LookupByTitle returns metadata for title and year (zero year means any).
// A title OMDb does not know yields (nil, nil). Both answers are cached.
func (c *Client) LookupByTitle(ctx context.Context, title string, year int) (*domain.ExternalMetadata, error) {
	if c.apiKey == "" {
		return nil, errors.ErrClientDisabled
	}

	title = strings.TrimSpace(title)
	if title == "" {
		return nil, fmt.Errorf("%w: empty title", errors.ErrInvalidArgument)
	}

	key := cacheKey(title, year)

	if md, ok := c.cache.Get(key); ok {
		observability.MetadataLookups.WithLabelValues(outcomeHit).Inc()
		return md, nil
	}

	v, err, _ := c.group.Do(key, func() (interface{}, error) {
		return c.fetch(ctx, title, year)
	})
	if err != nil {
		return nil, err
	}

	md, _ := v.(*domain.ExternalMetadata)
	c.cache.Add(key, md)

	return md, nil
}

// omdbResponse is the subset of the OMDb title payload we use.
type omdbResponse struct {
	Response   string `json:"Response"`
	Error      string `json:"Error"`
	Title      string `json:"Title"`
	Year       string `json:"Year"`
	Genre      string `json:"Genre"`
	Director   string `json:"Director"`
	Actors     string `json:"Actors"`
	Poster     string `json:"Poster"`
	IMDBRating string `json:"imdbRating"`
	IMDBID     string `json:"imdbID"`
}

func (c *Client) fetch(ctx context.Context, title string, year int) (*domain.ExternalMetadata, error) {
	if err := c.breaker.CheckCircuit(); err != nil {
		observability.MetadataLookups.WithLabelValues(outcomeCircuitOpen).Inc()
		return nil, fmt.Errorf("%w: %w", errors.ErrLookupFailed, err)
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("%w: %w", errors.ErrLookupFailed, err)
	}

	params := map[string]string{
		"apikey": c.apiKey,
		"t":      title,
	}

	if year > 0 {
		params["y"] = strconv.Itoa(year)
	}

	start := time.Now()

	var body omdbResponse

	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParams(params).
		SetResult(&body).
		Get("/")

	observability.MetadataLookupDuration.Observe(time.Since(start).Seconds())

	if err != nil {
		return nil, c.failed(fmt.Errorf("%w: %w", errors.ErrLookupFailed, err))
	}

	if resp.StatusCode() != http.StatusOK {
		return nil, c.failed(fmt.Errorf("%w: status %d", errors.ErrLookupFailed, resp.StatusCode()))
	}

	c.breaker.RecordSuccess()

	if body.Response != omdbTrue {
		observability.MetadataLookups.WithLabelValues(outcomeNotFound).Inc()
		c.logger.Debug().Str("title", title).Int("year", year).Str("reason", body.Error).Msg("no metadata match")

		return nil, nil
	}

	observability.MetadataLookups.WithLabelValues(outcomeFound).Inc()

	return body.toMetadata(), nil
}

func (c *Client) failed(err error) error {
	c.breaker.RecordFailure()
	observability.MetadataLookups.WithLabelValues(outcomeError).Inc()

	return err
}

func (r *omdbResponse) toMetadata() *domain.ExternalMetadata {
	md := &domain.ExternalMetadata{
		Title:     value(r.Title),
		Genre:     splitList(r.Genre, 0),
		Cast:      splitList(r.Actors, maxCast),
		Director:  value(r.Director),
		PosterURL: value(r.Poster),
	}

	if id := value(r.IMDBID); domain.ValidExternalID(id) {
		md.IMDBID = id
	}

	if y := value(r.Year); len(y) >= yearDigits {
		md.Year, _ = strconv.Atoi(y[:yearDigits])
	}

	if rating, err := strconv.ParseFloat(value(r.IMDBRating), 64); err == nil && rating >= 0 && rating <= domain.MaxRating {
		md.Rating = &rating
	}

	return md
}

func value(s string) string {
	s = strings.TrimSpace(s)
	if s == notAvail {
		return ""
	}

	return s
}

func splitList(s string, limit int) []string {
	s = value(s)
	if s == "" {
		return nil
	}

	var out []string

	for _, part := range strings.Split(s, listSep) {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}

		if limit > 0 && len(out) == limit {
			break
		}
	}

	return out
}

func cacheKey(title string, year int) string {
	return strings.ToLower(title) + "|" + strconv.Itoa(year)
}
