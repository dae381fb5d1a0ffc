package fetcher

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"
	"time"

	"github.com/morikuni/failure/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingObserver struct {
	mu       sync.Mutex
	paths    []string
	failures int
}

func (o *recordingObserver) ObserveFetch(path string, err error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.paths = append(o.paths, path)
	if err != nil {
		o.failures++
	}
}

func TestFetchDirect(t *testing.T) {
	var gotUA, gotAccept string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		gotAccept = r.Header.Get("Accept")
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte("<html><title>ok</title></html>"))
	}))
	defer server.Close()

	f := New()
	page, err := f.Fetch(context.Background(), server.URL+"/page")
	require.NoError(t, err)

	assert.Equal(t, "<html><title>ok</title></html>", page.HTML)
	assert.Equal(t, http.StatusOK, page.StatusCode)
	assert.Equal(t, DirectPath, page.Path)
	assert.Equal(t, server.URL+"/page", page.FinalURL)
	assert.Equal(t, len(page.HTML), page.Size)
	assert.Equal(t, "SEOAnalyzer/1.0", gotUA)
	assert.Contains(t, gotAccept, "text/html")
}

func TestFetchDecodesCharset(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=iso-8859-1")
		// "café" in Latin-1
		_, _ = w.Write([]byte{'c', 'a', 'f', 0xe9})
	}))
	defer server.Close()

	page, err := New().Fetch(context.Background(), server.URL)
	require.NoError(t, err)
	assert.Equal(t, "café", page.HTML)
}

func TestFetchFallsBackToProxy(t *testing.T) {
	target := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer target.Close()

	var proxied string
	proxy := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		proxied = r.URL.Query().Get("url")
		_, _ = w.Write([]byte("<html>via proxy</html>"))
	}))
	defer proxy.Close()

	observer := &recordingObserver{}
	prefix := proxy.URL + "/raw?url="
	f := New(WithProxies(prefix), WithObserver(observer))

	page, err := f.Fetch(context.Background(), target.URL+"/a?b=c")
	require.NoError(t, err)

	assert.Equal(t, "<html>via proxy</html>", page.HTML)
	assert.Equal(t, prefix, page.Path)
	assert.Equal(t, target.URL+"/a?b=c", proxied)
	assert.Equal(t, []string{DirectPath, prefix}, observer.paths)
	assert.Equal(t, 1, observer.failures)
}

func TestFetchClassifiesLastFailure(t *testing.T) {
	tests := []struct {
		name   string
		status int
		code   ErrorCode
	}{
		{"rate limited", http.StatusTooManyRequests, ErrRateLimited},
		{"forbidden", http.StatusForbidden, ErrForbidden},
		{"not found", http.StatusNotFound, ErrNotFound},
		{"server error", http.StatusInternalServerError, ErrFetchFailed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			direct := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusBadGateway)
			}))
			defer direct.Close()
			proxy := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
			}))
			defer proxy.Close()

			_, err := New(WithProxies(proxy.URL+"/?q=")).Fetch(context.Background(), direct.URL)
			require.Error(t, err)

			assert.True(t, failure.Is(err, tt.code), "got %v", err)
			assert.Equal(t, tt.code, CodeOf(err))
			assert.NotEmpty(t, failure.MessageOf(err))
		})
	}
}

func TestFetchNetworkError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	addr := server.URL
	server.Close()

	_, err := New(WithTimeout(time.Second)).Fetch(context.Background(), addr)
	require.Error(t, err)
	assert.Equal(t, ErrNetwork, CodeOf(err))
	assert.Equal(t, "Network error. Please check your internet connection and try again.", failure.MessageOf(err).String())
}

func TestFetchInvalidURL(t *testing.T) {
	for _, raw := range []string{"", "example.com", "ftp://example.com/file", "https://", "http://[::1"} {
		_, err := New().Fetch(context.Background(), raw)
		require.Error(t, err, raw)
		assert.Equal(t, ErrInvalidURL, CodeOf(err), raw)
	}
}

func TestFetchCanceledContext(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	observer := &recordingObserver{}
	_, err := New(WithProxies("http://127.0.0.1:1/?u="), WithObserver(observer)).Fetch(ctx, server.URL)
	require.Error(t, err)
	// Stops after the first attempt instead of walking every path.
	assert.Equal(t, []string{DirectPath}, observer.paths)
	assert.Equal(t, ErrorCode(""), CodeOf(err))
}

func TestFetchBodyLimit(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte("0123456789"))
	}))
	defer server.Close()

	page, err := New(WithMaxBodySize(4)).Fetch(context.Background(), server.URL)
	require.NoError(t, err)
	assert.Equal(t, "0123", page.HTML)
}

func TestRequestURL(t *testing.T) {
	target := "https://example.com/a?b=c"
	assert.Equal(t, target, requestURL(target, DirectPath))
	assert.Equal(t, "https://p.example/raw?url="+url.QueryEscape(target), requestURL(target, "https://p.example/raw?url="))
}
