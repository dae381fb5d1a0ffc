// Package fetcher retrieves the HTML of a page over HTTP. It tries an ordered
// list of access paths (the page itself, then any configured proxies) and
// stops at the first that succeeds.
package fetcher

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/morikuni/failure/v2"
	"go.uber.org/zap"
	"golang.org/x/net/html/charset"
)

const (
	// DefaultTimeout bounds each access path attempt.
	DefaultTimeout = 15 * time.Second
	// DefaultMaxBodySize caps the bytes read from a response.
	DefaultMaxBodySize = 5 << 20

	userAgent      = "SEOAnalyzer/1.0"
	acceptHeader   = "text/html,application/xhtml+xml,application/xml;q=0.9,image/webp,*/*;q=0.8"
	acceptLanguage = "en-US,en;q=0.5"

	// DirectPath names the attempt that requests the page itself.
	DirectPath = "direct"
)

// Page is a fetched document.
type Page struct {
	URL        string
	FinalURL   string
	HTML       string
	StatusCode int
	Size       int
	Duration   time.Duration
	// Path is DirectPath or the proxy prefix that served the page.
	Path string
}

// Observer is notified of every access path attempt.
type Observer interface {
	ObserveFetch(path string, err error)
}

// Fetcher retrieves pages over HTTP.
type Fetcher struct {
	client      *http.Client
	timeout     time.Duration
	maxBodySize int64
	proxies     []string
	logger      *zap.Logger
	observer    Observer
}

// Option configures a Fetcher.
type Option func(*Fetcher)

// WithTimeout sets the per-attempt timeout.
func WithTimeout(d time.Duration) Option {
	return func(f *Fetcher) {
		f.timeout = d
	}
}

// WithProxies appends proxy prefixes tried after the direct request. The
// escaped target URL is appended to each prefix.
func WithProxies(prefixes ...string) Option {
	return func(f *Fetcher) {
		for _, p := range prefixes {
			if p = strings.TrimSpace(p); p != "" {
				f.proxies = append(f.proxies, p)
			}
		}
	}
}

// WithMaxBodySize caps how much of a response body is read.
func WithMaxBodySize(n int64) Option {
	return func(f *Fetcher) {
		f.maxBodySize = n
	}
}

// WithLogger sets the logger used for failed attempts.
func WithLogger(logger *zap.Logger) Option {
	return func(f *Fetcher) {
		f.logger = logger
	}
}

// WithObserver registers an attempt observer, typically metrics.
func WithObserver(o Observer) Option {
	return func(f *Fetcher) {
		f.observer = o
	}
}

// WithHTTPClient replaces the underlying client. Its Timeout is overwritten
// by the configured per-attempt timeout.
func WithHTTPClient(c *http.Client) Option {
	return func(f *Fetcher) {
		f.client = c
	}
}

// New creates a Fetcher.
func New(opts ...Option) *Fetcher {
	f := &Fetcher{
		timeout:     DefaultTimeout,
		maxBodySize: DefaultMaxBodySize,
		logger:      zap.NewNop(),
	}
	for _, opt := range opts {
		opt(f)
	}

	if f.client == nil {
		f.client = &http.Client{
			Transport: &http.Transport{
				Proxy:               http.ProxyFromEnvironment,
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
				TLSHandshakeTimeout: 10 * time.Second,
			},
		}
	}
	f.client.Timeout = f.timeout

	return f
}

// ValidateURL checks that raw is an absolute http or https URL.
func ValidateURL(raw string) (*url.URL, error) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		ctx := failure.Context{"url": raw}
		if err != nil {
			return nil, failure.Wrap(err, failure.WithCode(ErrInvalidURL), failure.Message(msgInvalidURL), ctx)
		}
		return nil, failure.New(ErrInvalidURL, failure.Message(msgInvalidURL), ctx)
	}
	return u, nil
}

// Fetch retrieves target, trying each access path in order. When every path
// fails the last failure is classified (see ErrorCode).
func (f *Fetcher) Fetch(ctx context.Context, target string) (*Page, error) {
	u, err := ValidateURL(target)
	if err != nil {
		return nil, err
	}
	target = u.String()

	var lastErr error
	for _, path := range f.paths() {
		page, err := f.attempt(ctx, target, path)
		if f.observer != nil {
			f.observer.ObserveFetch(path, err)
		}
		if err == nil {
			return page, nil
		}
		if ctx.Err() != nil {
			return nil, failure.Wrap(ctx.Err(), failure.Context{"url": target})
		}

		f.logger.Debug("Access path failed",
			zap.String("url", target),
			zap.String("path", path),
			zap.Error(err))
		lastErr = err
	}

	return nil, classify(target, lastErr)
}

func (f *Fetcher) paths() []string {
	return append([]string{DirectPath}, f.proxies...)
}

func requestURL(target, path string) string {
	if path == DirectPath {
		return target
	}
	return path + url.QueryEscape(target)
}

func (f *Fetcher) attempt(ctx context.Context, target, path string) (*Page, error) {
	start := time.Now()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, requestURL(target, path), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", acceptHeader)
	req.Header.Set("Accept-Language", acceptLanguage)

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		// Drain so the connection can be reused.
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return nil, &StatusError{StatusCode: resp.StatusCode, URL: req.URL.String()}
	}

	body, err := charset.NewReader(io.LimitReader(resp.Body, f.maxBodySize), resp.Header.Get("Content-Type"))
	if err != nil {
		return nil, err
	}
	data, err := io.ReadAll(body)
	if err != nil {
		return nil, err
	}

	finalURL := target
	if path == DirectPath && resp.Request != nil && resp.Request.URL != nil {
		finalURL = resp.Request.URL.String()
	}

	return &Page{
		URL:        target,
		FinalURL:   finalURL,
		HTML:       string(data),
		StatusCode: resp.StatusCode,
		Size:       len(data),
		Duration:   time.Since(start),
		Path:       path,
	}, nil
}
