// Package enrich fills descriptions, photos, features and keywords for
// subdivisions through ordered fallback tiers.
package enrich

import (
	"context"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/community-cli/internal/config"
	"github.com/sells-group/community-cli/internal/model"
	"github.com/sells-group/community-cli/internal/resilience"
	"github.com/sells-group/community-cli/pkg/spark"
)

// Recorder collects recovered errors.
type Recorder interface {
	Record(inc model.Incident)
}

// Config controls enrichment.
type Config struct {
	Concurrency         int
	Timeout             time.Duration
	MaxExternalLookups  int // <= 0 means no budget
	SkipExternal        bool
	Retry               resilience.RetryConfig
	Breaker             resilience.CircuitBreakerConfig
	LuxuryThreshold     float64
	EntryLevelThreshold float64
}

// FromConfig maps the enrich config section.
func FromConfig(c config.EnrichConfig) Config {
	retry := resilience.FromRetryConfig(c.RetryMaxAttempts, c.RetryBackoffMs)
	retry.OnRetry = resilience.RetryLogger("spark", "listing_photos")
	return Config{
		Concurrency:         c.Concurrency,
		Timeout:             time.Duration(c.TimeoutSecs) * time.Second,
		MaxExternalLookups:  c.MaxExternalLookups,
		SkipExternal:        c.SkipExternal,
		Retry:               retry,
		Breaker:             resilience.FromCircuitConfig(c.BreakerThreshold, c.BreakerResetSecs),
		LuxuryThreshold:     c.LuxuryThreshold,
		EntryLevelThreshold: c.EntryLevelThreshold,
	}
}

// Engine enriches subdivisions. A nil photo client disables the external
// tier.
type Engine struct {
	cfg     Config
	photos  spark.Client
	breaker *resilience.CircuitBreaker
	rec     Recorder
}

// New creates an Engine.
func New(cfg Config, photos spark.Client, rec Recorder) *Engine {
	if cfg.Concurrency < 1 {
		cfg.Concurrency = 1
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	return &Engine{
		cfg:     cfg,
		photos:  photos,
		breaker: resilience.NewCircuitBreaker(cfg.Breaker),
		rec:     rec,
	}
}

type photoTier struct {
	source model.ContentSource
	find   func(*model.Subdivision) (string, bool)
}

// Enrich fills content on subs in place and returns the tier counters.
// members holds each subdivision's listings keyed by slug. Manual content
// set earlier is never replaced.
func (e *Engine) Enrich(ctx context.Context, subs []*model.Subdivision, members map[string][]model.RawListing) model.EnrichmentCounts {
	log := zap.L().With(zap.String("component", "enrich"))
	counts := model.EnrichmentCounts{
		Description: map[model.ContentSource]int{},
		Photo:       map[model.ContentSource]int{},
	}

	idx := NewPhotoIndex(members)
	tiers := []photoTier{
		{model.ContentExact, idx.Exact},
		{model.ContentRegex, idx.Pattern},
		{model.ContentCityWide, idx.CityWide},
	}

	var pending []*model.Subdivision
	for _, sub := range subs {
		if sub.DescriptionSource == model.ContentManual && sub.Description != "" {
			counts.Description[model.ContentManual]++
		} else {
			sub.Description = Describe(sub)
			sub.DescriptionSource = model.ContentTemplate
			counts.Description[model.ContentTemplate]++
		}

		if len(sub.Features) == 0 {
			sub.Features = Features(sub, e.cfg.LuxuryThreshold, e.cfg.EntryLevelThreshold)
		}
		if len(sub.Keywords) == 0 {
			sub.Keywords = Keywords(sub)
		}

		if sub.PhotoSource == model.ContentManual && sub.Photo != "" {
			continue
		}
		sub.Photo, sub.PhotoSource = "", model.ContentNone
		for _, t := range tiers {
			if url, ok := t.find(sub); ok && url != "" {
				sub.Photo, sub.PhotoSource = url, t.source
				break
			}
		}
		if sub.Photo == "" {
			pending = append(pending, sub)
		}
	}

	attempts, failures := e.external(ctx, pending, members)
	counts.ExternalAttempts = attempts
	counts.ExternalFailures = failures

	for _, sub := range subs {
		src := sub.PhotoSource
		if sub.Photo == "" {
			src = model.ContentNone
		}
		counts.Photo[src]++
	}

	log.Info("enrichment complete",
		zap.Int("subdivisions", len(subs)),
		zap.Int("external_attempts", attempts),
		zap.Int("external_failures", failures),
		zap.Int("photos_missing", counts.Photo[model.ContentNone]),
	)
	return counts
}

// budget returns the subdivisions eligible for external lookups: the top
// MaxExternalLookups by listing count, then slug.
func (e *Engine) budget(pending []*model.Subdivision) []*model.Subdivision {
	out := append([]*model.Subdivision(nil), pending...)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].ListingCount != out[j].ListingCount {
			return out[i].ListingCount > out[j].ListingCount
		}
		return out[i].Slug < out[j].Slug
	})
	if e.cfg.MaxExternalLookups > 0 && len(out) > e.cfg.MaxExternalLookups {
		out = out[:e.cfg.MaxExternalLookups]
	}
	return out
}

func (e *Engine) external(ctx context.Context, pending []*model.Subdivision, members map[string][]model.RawListing) (attempts, failures int) {
	if e.photos == nil || e.cfg.SkipExternal || len(pending) == 0 {
		return 0, 0
	}
	log := zap.L().With(zap.String("component", "enrich"))

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.cfg.Concurrency)

	for _, sub := range e.budget(pending) {
		rep, ok := Representative(members[sub.Slug])
		if !ok {
			continue
		}
		g.Go(func() error {
			url, err := e.lookup(gctx, rep.ListingKey)

			mu.Lock()
			defer mu.Unlock()
			attempts++
			if err != nil {
				failures++
				log.Warn("external photo lookup failed",
					zap.String("slug", sub.Slug),
					zap.String("listing_key", rep.ListingKey),
					zap.String("class", resilience.Classify(err)),
					zap.Error(err),
				)
				if e.rec != nil {
					e.rec.Record(model.Incident{
						Kind:      model.IncidentExternalEnrich,
						Stage:     "enrich",
						Source:    rep.Source,
						EntityKey: sub.Slug,
						Message:   err.Error(),
					})
				}
				return nil // fall through to no photo
			}
			if url != "" {
				sub.Photo, sub.PhotoSource = url, model.ContentExternal
			}
			return nil
		})
	}
	_ = g.Wait()
	return attempts, failures
}

func (e *Engine) lookup(ctx context.Context, listingKey string) (string, error) {
	return resilience.ExecuteVal(ctx, e.breaker, func(ctx context.Context) (string, error) {
		return resilience.DoVal(ctx, e.cfg.Retry, func(ctx context.Context) (string, error) {
			cctx, cancel := context.WithTimeout(ctx, e.cfg.Timeout)
			defer cancel()
			photos, err := e.photos.ListingPhotos(cctx, listingKey)
			if err != nil {
				return "", err
			}
			return spark.BestPhoto(photos), nil
		})
	})
}
