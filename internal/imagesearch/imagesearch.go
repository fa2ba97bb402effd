// Package imagesearch finds a picture for an animal that has none, trying
// Unsplash, then Pexels, then a generated placeholder.
package imagesearch

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"
	"golang.org/x/time/rate"

	"github.com/tphakala/faunagram-go/internal/errors"
	"github.com/tphakala/faunagram-go/internal/httpclient"
	"github.com/tphakala/faunagram-go/internal/logger"
	"github.com/tphakala/faunagram-go/internal/observability/metrics"
)

// Source names where an image came from
type Source string

const (
	SourceUnsplash    Source = "unsplash"
	SourcePexels      Source = "pexels"
	SourcePlaceholder Source = "placeholder"
)

// Result is a found image
type Result struct {
	URL          string
	Photographer string
	Emoji        string // set for placeholders
	Source       Source
}

const (
	defaultCacheTTL  = 24 * time.Hour
	defaultRateLimit = 2
	defaultBurst     = 2
)

// Config configures a Searcher
type Config struct {
	UnsplashAccessKey string
	PexelsAPIKey      string
	UnsplashURL       string
	PexelsURL         string

	HTTPClient *httpclient.Client
	CacheTTL   time.Duration
	RateLimit  float64 // provider requests per second
	Burst      int

	Logger  logger.Logger
	Metrics *metrics.ImageSearchMetrics
}

// Searcher runs the provider chain and caches results per query
type Searcher struct {
	providers []Provider
	cache     *cache.Cache
	limiter   *rate.Limiter
	log       logger.Logger
	metrics   *metrics.ImageSearchMetrics
}

// New builds the chain. Providers without a key are skipped with a warning.
func New(cfg Config) *Searcher {
	log := cfg.Logger
	if log == nil {
		log = logger.Global().Module("imagesearch")
	}
	hc := cfg.HTTPClient
	if hc == nil {
		hc = httpclient.New(nil)
	}

	var providers []Provider
	if cfg.UnsplashAccessKey != "" {
		providers = append(providers, NewUnsplash(cfg.UnsplashURL, cfg.UnsplashAccessKey, hc))
	} else {
		log.Warn("Unsplash API key not configured, provider skipped")
	}
	if cfg.PexelsAPIKey != "" {
		providers = append(providers, NewPexels(cfg.PexelsURL, cfg.PexelsAPIKey, hc))
	} else {
		log.Warn("Pexels API key not configured, provider skipped")
	}

	return NewWithProviders(providers, cfg, log)
}

// NewWithProviders builds a Searcher over an explicit provider chain
func NewWithProviders(providers []Provider, cfg Config, log logger.Logger) *Searcher {
	if log == nil {
		log = logger.Global().Module("imagesearch")
	}
	ttl := cfg.CacheTTL
	if ttl <= 0 {
		ttl = defaultCacheTTL
	}
	limit, burst := cfg.RateLimit, cfg.Burst
	if limit <= 0 {
		limit = defaultRateLimit
	}
	if burst <= 0 {
		burst = defaultBurst
	}

	return &Searcher{
		providers: providers,
		cache:     cache.New(ttl, 0),
		limiter:   rate.NewLimiter(rate.Limit(limit), burst),
		log:       log,
		metrics:   cfg.Metrics,
	}
}

// Lookup returns an image for name. Provider failures fall through to the
// next provider and finally to the placeholder; only cancellation of ctx
// is returned as an error.
func (s *Searcher) Lookup(ctx context.Context, name string) (Result, error) {
	query := strings.ToLower(strings.TrimSpace(name))
	if cached, ok := s.cache.Get(query); ok {
		s.metrics.RecordCache(true)
		return cached.(Result), nil
	}
	s.metrics.RecordCache(false)

	reqID := uuid.NewString()
	log := s.log.With(logger.String("request_id", reqID), logger.String("query", query))

	for _, p := range s.providers {
		if err := s.limiter.Wait(ctx); err != nil {
			return Result{}, errors.New(err).
				Category(errors.CategoryCancellation).
				Component("imagesearch").
				Context("provider", p.Name()).
				Context("operation", "rate_limiter_wait").
				Build()
		}

		start := time.Now()
		res, err := p.Search(ctx, name)
		s.metrics.RecordLookup(p.Name(), err, time.Since(start).Seconds())

		if ctxErr := ctx.Err(); ctxErr != nil {
			return Result{}, errors.New(ctxErr).
				Category(errors.CategoryCancellation).
				Component("imagesearch").
				Build()
		}
		if err != nil {
			log.Warn("image search failed, trying next provider",
				logger.String("provider", p.Name()), logger.Error(err))
			continue
		}
		if res != nil {
			log.Debug("image found", logger.String("provider", p.Name()))
			s.cache.Set(query, *res, cache.DefaultExpiration)
			return *res, nil
		}
	}

	res := Placeholder(name)
	s.cache.Set(query, res, cache.DefaultExpiration)
	return res, nil
}
