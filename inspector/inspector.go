// Package inspector runs the full page check: fetch, extract, analyze,
// categorize and preview. Reports are cached per URL for a configurable TTL.
package inspector

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/seo-optimizer/metacheck/analyzer"
	"github.com/seo-optimizer/metacheck/extractor"
	"github.com/seo-optimizer/metacheck/fetcher"
	"github.com/seo-optimizer/metacheck/metrics"
	"github.com/seo-optimizer/metacheck/preview"
	"github.com/seo-optimizer/metacheck/seo"
	"github.com/seo-optimizer/metacheck/stats"
)

const (
	DefaultCacheTTL        = 30 * time.Minute
	DefaultMaxCacheSize    = 1000
	DefaultCleanupInterval = 5 * time.Minute
)

// Report is the complete result for one page.
type Report struct {
	URL        string              `json:"url"`
	Metadata   seo.Metadata        `json:"metadata"`
	Analysis   seo.Analysis        `json:"analysis"`
	Categories analyzer.Categories `json:"categories"`
	Summary    analyzer.Summary    `json:"summary"`
	Previews   preview.Previews    `json:"previews"`
	FetchedAt  time.Time           `json:"fetchedAt"`
	LoadTimeMs int64               `json:"loadTimeMs"`
	PageSize   int                 `json:"pageSize"`
	Cached     bool                `json:"cached"`
}

// Fetcher retrieves the HTML of a page.
type Fetcher interface {
	Fetch(ctx context.Context, target string) (*fetcher.Page, error)
}

// SharedCache is a second cache level shared between instances, typically
// Redis. Values are JSON encoded reports.
type SharedCache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Clear(ctx context.Context) (int, error)
}

// Cache entry with expiration
type cacheEntry struct {
	report    *Report
	timestamp time.Time
}

// CacheStats describes the report cache and this month's counters.
type CacheStats struct {
	Entries       int           `json:"entries"`
	MaxEntries    int           `json:"maxEntries"`
	TTL           time.Duration `json:"ttl"`
	Hits          int           `json:"hits"`
	Misses        int           `json:"misses"`
	FetchFailures int           `json:"fetchFailures"`
	Analyses      int           `json:"analyses"`
}

// Inspector produces Reports.
type Inspector struct {
	fetcher Fetcher
	group   singleflight.Group

	cache           map[uint64]cacheEntry
	cacheMutex      sync.RWMutex
	cacheTTL        time.Duration
	maxCacheSize    int
	cleanupInterval time.Duration
	shared          SharedCache

	stats   *stats.Storage
	metrics *metrics.Metrics
	logger  *zap.Logger
	now     func() time.Time

	done      chan struct{}
	stopped   chan struct{}
	closeOnce sync.Once
}

// Option configures an Inspector.
type Option func(*Inspector)

func WithCacheTTL(ttl time.Duration) Option {
	return func(i *Inspector) {
		i.cacheTTL = ttl
	}
}

func WithMaxCacheSize(n int) Option {
	return func(i *Inspector) {
		i.maxCacheSize = n
	}
}

func WithCleanupInterval(d time.Duration) Option {
	return func(i *Inspector) {
		i.cleanupInterval = d
	}
}

// WithSharedCache adds a second cache level consulted after the in-memory one.
func WithSharedCache(c SharedCache) Option {
	return func(i *Inspector) {
		i.shared = c
	}
}

// WithStats records cache and analysis counters in s. The caller keeps
// ownership of s.
func WithStats(s *stats.Storage) Option {
	return func(i *Inspector) {
		i.stats = s
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(i *Inspector) {
		i.metrics = m
	}
}

func WithLogger(logger *zap.Logger) Option {
	return func(i *Inspector) {
		i.logger = logger
	}
}

// New creates an Inspector and starts its cache cleanup goroutine. Call
// Close to stop it.
func New(f Fetcher, opts ...Option) *Inspector {
	i := &Inspector{
		fetcher:         f,
		cache:           make(map[uint64]cacheEntry),
		cacheTTL:        DefaultCacheTTL,
		maxCacheSize:    DefaultMaxCacheSize,
		cleanupInterval: DefaultCleanupInterval,
		logger:          zap.NewNop(),
		now:             time.Now,
		done:            make(chan struct{}),
		stopped:         make(chan struct{}),
	}
	for _, opt := range opts {
		opt(i)
	}
	if i.cleanupInterval <= 0 {
		i.cleanupInterval = DefaultCleanupInterval
	}

	go i.periodicCleanup()

	return i
}

// Inspect fetches and analyzes target. Fresh cached reports are returned
// with Cached set. Fetch failures carry a fetcher.ErrorCode.
func (i *Inspector) Inspect(ctx context.Context, target string) (*Report, error) {
	u, err := fetcher.ValidateURL(target)
	if err != nil {
		i.metrics.RecordAnalysisFailure(string(fetcher.ErrInvalidURL))
		return nil, err
	}
	target = u.String()
	key := cacheKey(target)

	report, ok := i.lookup(key)
	if !ok {
		report, ok = i.lookupShared(ctx, key)
	}
	if ok {
		i.record(stats.Delta{CacheHits: 1})
		i.metrics.RecordCacheLookup(true)
		i.logger.Debug("Report served from cache", zap.String("url", target))
		return report, nil
	}
	i.record(stats.Delta{CacheMisses: 1})
	i.metrics.RecordCacheLookup(false)

	// Concurrent requests for the same URL share one fetch. The shared fetch
	// is detached from any single caller and bounded by the fetcher timeout;
	// each caller stops waiting when its own context ends.
	ch := i.group.DoChan(target, func() (any, error) {
		return i.fetchAndBuild(context.WithoutCancel(ctx), key, target)
	})
	select {
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		copied := *res.Val.(*Report)
		return &copied, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (i *Inspector) fetchAndBuild(ctx context.Context, key uint64, target string) (*Report, error) {
	page, err := i.fetcher.Fetch(ctx, target)
	if err != nil {
		code := fetcher.CodeOf(err)
		i.record(stats.Delta{FetchFailures: 1})
		i.metrics.RecordAnalysisFailure(string(code))
		i.logger.Warn("Fetch failed",
			zap.String("url", target),
			zap.String("code", string(code)),
			zap.Error(err))
		return nil, err
	}

	report := build(target, page.FinalURL, page.HTML)
	report.FetchedAt = i.now()
	report.LoadTimeMs = page.Duration.Milliseconds()
	report.PageSize = page.Size
	i.finish(report)

	i.store(key, report)
	i.storeShared(ctx, key, report)

	i.logger.Info("Page analyzed",
		zap.String("url", target),
		zap.String("path", page.Path),
		zap.Int("score", report.Analysis.Score),
		zap.Int("issues", len(report.Analysis.Issues)),
		zap.Duration("fetch", page.Duration))

	return report, nil
}

// InspectHTML analyzes already fetched markup. pageURL is used to resolve
// relative links and as the preview base. The cache is not consulted.
func (i *Inspector) InspectHTML(pageURL, html string) *Report {
	start := i.now()
	report := build(pageURL, pageURL, html)
	report.FetchedAt = start
	report.LoadTimeMs = i.now().Sub(start).Milliseconds()
	report.PageSize = len(html)
	i.finish(report)
	return report
}

func build(target, baseURL, html string) *Report {
	if baseURL == "" {
		baseURL = target
	}
	m := extractor.Extract(html, baseURL)
	a := analyzer.Analyze(m)
	return &Report{
		URL:        target,
		Metadata:   m,
		Analysis:   a,
		Categories: analyzer.Categorize(m, a),
		Summary:    analyzer.Summarize(a),
		Previews:   preview.Build(m, baseURL),
	}
}

func (i *Inspector) finish(r *Report) {
	i.record(stats.Delta{Analyses: 1})
	i.metrics.RecordAnalysis(r.Analysis)
}

func (i *Inspector) record(d stats.Delta) {
	if i.stats != nil {
		i.stats.Increment(d)
	}
}
