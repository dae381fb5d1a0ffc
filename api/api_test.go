package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seo-optimizer/metacheck/fetcher"
	"github.com/seo-optimizer/metacheck/inspector"
	"github.com/seo-optimizer/metacheck/logging"
	"github.com/seo-optimizer/metacheck/metrics"
	"github.com/seo-optimizer/metacheck/middleware"
)

func init() {
	gin.SetMode(gin.TestMode)
}

const page = `<html lang="en"><head>
<title>Example page title that is long enough</title>
<meta name="twitter:card" content="summary">
</head><body></body></html>`

type testEnv struct {
	router *gin.Engine
	stats  *logging.Statistics
	site   *httptest.Server
}

func setup(t *testing.T, devMode bool, limiter *middleware.RateLimiter) *testEnv {
	t.Helper()

	site := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/forbidden":
			w.WriteHeader(http.StatusForbidden)
		case "/missing":
			w.WriteHeader(http.StatusNotFound)
		case "/busy":
			w.WriteHeader(http.StatusTooManyRequests)
		case "/broken":
			w.WriteHeader(http.StatusInternalServerError)
		default:
			w.Header().Set("Content-Type", "text/html; charset=utf-8")
			_, _ = w.Write([]byte(page))
		}
	}))
	t.Cleanup(site.Close)

	stats, err := logging.NewStatistics("", nil)
	require.NoError(t, err)

	m := metrics.NewWithRegistry("", prometheus.NewRegistry(), nil)
	ins := inspector.New(fetcher.New(fetcher.WithObserver(m)), inspector.WithMetrics(m))
	t.Cleanup(ins.Close)

	router := NewRouter(Deps{
		Inspector:      ins,
		Statistics:     stats,
		Metrics:        m,
		RateLimiter:    limiter,
		DevMode:        devMode,
		AllowedOrigins: []string{"*"},
	})
	return &testEnv{router: router, stats: stats, site: site}
}

func (e *testEnv) do(method, path string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func TestHealth(t *testing.T) {
	env := setup(t, false, nil)

	rec := env.do(http.MethodGet, "/api/health", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
	assert.NotEmpty(t, rec.Header().Get(middleware.RequestIDHeader))
}

func TestAnalyze(t *testing.T) {
	env := setup(t, true, nil)

	rec := env.do(http.MethodPost, "/api/analyze", map[string]string{"url": env.site.URL + "/post"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var report inspector.Report
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &report))
	assert.Equal(t, env.site.URL+"/post", report.URL)
	assert.Equal(t, "Example page title that is long enough", report.Metadata.Title)
	assert.Equal(t, "summary", report.Metadata.TwitterCard)
	assert.Equal(t, 70, report.Analysis.Score)
	assert.False(t, report.Cached)

	rec = env.do(http.MethodPost, "/api/analyze", map[string]string{"url": env.site.URL + "/post"})
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &report))
	assert.True(t, report.Cached)

	body := decode(t, env.do(http.MethodGet, "/api/statistics", nil))
	assert.Equal(t, float64(2), body["totalRequests"])
	assert.Equal(t, float64(0), body["errorRate"])
}

func TestAnalyzeJSONKeys(t *testing.T) {
	env := setup(t, false, nil)

	body := decode(t, env.do(http.MethodPost, "/api/analyze", map[string]string{"url": env.site.URL}))
	metadata := body["metadata"].(map[string]any)
	for _, key := range []string{"title", "description", "keywords", "ogTitle", "ogDescription", "ogImage",
		"twitterCard", "twitterTitle", "twitterDescription", "twitterImage", "canonical", "robots",
		"viewport", "charset", "language", "author", "favicon"} {
		assert.Contains(t, metadata, key)
	}
	assert.Equal(t, []any{}, metadata["keywords"])

	analysis := body["analysis"].(map[string]any)
	issue := analysis["issues"].([]any)[0].(map[string]any)
	assert.Equal(t, "error", issue["type"])
	assert.Equal(t, "description", issue["field"])
}

func TestAnalyzeHTML(t *testing.T) {
	env := setup(t, false, nil)

	rec := env.do(http.MethodPost, "/api/analyze", map[string]string{
		"url":  "https://example.com/article",
		"html": `<html><head><link rel="icon" href="/i.png"></head></html>`,
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var report inspector.Report
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &report))
	assert.Equal(t, "https://example.com/i.png", report.Metadata.Favicon)
	assert.Equal(t, 55, report.Analysis.Score)
}

func TestAnalyzeErrors(t *testing.T) {
	env := setup(t, false, nil)

	tests := []struct {
		name   string
		body   any
		status int
		code   string
		msg    string
	}{
		{"missing url", map[string]string{}, http.StatusBadRequest, CodeInvalidRequest, ""},
		{"invalid url", map[string]string{"url": "example.com"}, http.StatusBadRequest, "InvalidURL",
			"Please enter a valid URL starting with http:// or https://"},
		{"invalid url with html", map[string]string{"url": "ftp://x", "html": "<html></html>"}, http.StatusBadRequest, "InvalidURL", ""},
		{"not found", map[string]string{"url": env.site.URL + "/missing"}, http.StatusNotFound, "NotFound",
			"Website not found. Please check the URL and try again."},
		{"forbidden", map[string]string{"url": env.site.URL + "/forbidden"}, http.StatusForbidden, "Forbidden", ""},
		{"rate limited", map[string]string{"url": env.site.URL + "/busy"}, http.StatusTooManyRequests, "RateLimited", ""},
		{"server error", map[string]string{"url": env.site.URL + "/broken"}, http.StatusBadGateway, "FetchFailed", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := env.do(http.MethodPost, "/api/analyze", tt.body)
			assert.Equal(t, tt.status, rec.Code)

			body := decode(t, rec)
			assert.Equal(t, tt.code, body["code"])
			assert.NotEmpty(t, body["error"])
			if tt.msg != "" {
				assert.Equal(t, tt.msg, body["error"])
			}
		})
	}
}

func TestStatisticsProductionView(t *testing.T) {
	env := setup(t, false, nil)

	env.do(http.MethodPost, "/api/analyze", map[string]string{"url": env.site.URL + "/missing"})

	body := decode(t, env.do(http.MethodGet, "/api/statistics", nil))
	assert.Equal(t, float64(1), body["totalRequests"])
	assert.Equal(t, float64(100), body["errorRate"])
	assert.NotContains(t, body, "popularUrls")
}

func TestCacheEndpoints(t *testing.T) {
	env := setup(t, false, nil)

	env.do(http.MethodPost, "/api/analyze", map[string]string{"url": env.site.URL})

	body := decode(t, env.do(http.MethodGet, "/api/cache", nil))
	assert.Equal(t, float64(1), body["entries"])

	body = decode(t, env.do(http.MethodDelete, "/api/cache", nil))
	assert.Equal(t, float64(1), body["cleared"])

	body = decode(t, env.do(http.MethodGet, "/api/cache", nil))
	assert.Equal(t, float64(0), body["entries"])
}

func TestRateLimitedAPI(t *testing.T) {
	env := setup(t, false, middleware.NewRateLimiter(1, 1))

	assert.Equal(t, http.StatusOK, env.do(http.MethodGet, "/api/health", nil).Code)
	assert.Equal(t, http.StatusTooManyRequests, env.do(http.MethodGet, "/api/health", nil).Code)
	// metrics are outside the limited group
	assert.Equal(t, http.StatusOK, env.do(http.MethodGet, "/metrics", nil).Code)
}

func TestMetricsEndpoint(t *testing.T) {
	env := setup(t, false, nil)

	env.do(http.MethodPost, "/api/analyze", map[string]string{"url": env.site.URL})

	rec := env.do(http.MethodGet, "/metrics", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `metacheck_analyses_total{result="success"} 1`)
	assert.Contains(t, rec.Body.String(), `metacheck_fetch_attempts_total{outcome="success",path="direct"} 1`)
	assert.Contains(t, rec.Body.String(), `metacheck_http_requests_total{method="POST",route="/api/analyze",status="200"} 1`)
}

func TestNotFoundRoute(t *testing.T) {
	env := setup(t, false, nil)

	rec := env.do(http.MethodGet, "/nope", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestStatusFor(t *testing.T) {
	assert.Equal(t, http.StatusBadRequest, StatusFor(fetcher.ErrInvalidURL))
	assert.Equal(t, http.StatusNotFound, StatusFor(fetcher.ErrNotFound))
	assert.Equal(t, http.StatusForbidden, StatusFor(fetcher.ErrForbidden))
	assert.Equal(t, http.StatusTooManyRequests, StatusFor(fetcher.ErrRateLimited))
	assert.Equal(t, http.StatusBadGateway, StatusFor(fetcher.ErrNetwork))
	assert.Equal(t, http.StatusBadGateway, StatusFor(fetcher.ErrFetchFailed))
	assert.Equal(t, http.StatusInternalServerError, StatusFor(""))
}
