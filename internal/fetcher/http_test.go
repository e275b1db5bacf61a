package fetcher

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fastHTTPOptions() HTTPOptions {
	return HTTPOptions{
		MaxRetries:  3,
		RatePerHost: 1000,
		BaseBackoff: time.Millisecond,
	}
}

func TestHTTPFetcher_Download(t *testing.T) {
	var gotUA string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		_, _ = w.Write([]byte("a,b\n1,2\n"))
	}))
	defer srv.Close()

	f := NewHTTPFetcher(fastHTTPOptions())
	body, err := f.Download(context.Background(), srv.URL+"/sales.csv")
	require.NoError(t, err)
	defer body.Close() //nolint:errcheck

	data, err := io.ReadAll(body)
	require.NoError(t, err)
	assert.Equal(t, "a,b\n1,2\n", string(data))
	assert.Equal(t, "retail-eda/1.0", gotUA)
}

func TestHTTPFetcher_RetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_, _ = w.Write([]byte("ok"))
	}))
	defer srv.Close()

	f := NewHTTPFetcher(fastHTTPOptions())
	path := filepath.Join(t.TempDir(), "out.csv")
	n, err := f.DownloadToFile(context.Background(), srv.URL, path)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
	assert.Equal(t, int32(3), calls.Load())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "ok", string(data))
}

func TestHTTPFetcher_RetriesExhausted(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	opts := fastHTTPOptions()
	opts.MaxRetries = 2
	f := NewHTTPFetcher(opts)

	_, err := f.Download(context.Background(), srv.URL)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "all retries exhausted")
	assert.Equal(t, int32(2), calls.Load())
}

func TestHTTPFetcher_NotFound(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	f := NewHTTPFetcher(fastHTTPOptions())
	_, err := f.Download(context.Background(), srv.URL)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unexpected status 404")
	assert.Equal(t, int32(1), calls.Load())
}

func TestHTTPFetcher_CustomUserAgent(t *testing.T) {
	var gotUA string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
	}))
	defer srv.Close()

	opts := fastHTTPOptions()
	opts.UserAgent = "acme-bot/2"
	f := NewHTTPFetcher(opts)

	body, err := f.Download(context.Background(), srv.URL)
	require.NoError(t, err)
	require.NoError(t, body.Close())
	assert.Equal(t, "acme-bot/2", gotUA)
}

func TestNewHTTPFetcher_Defaults(t *testing.T) {
	f := NewHTTPFetcher(HTTPOptions{})
	assert.Equal(t, 60*time.Second, f.opts.Timeout)
	assert.Equal(t, 3, f.opts.MaxRetries)
	assert.Equal(t, "retail-eda/1.0", f.opts.UserAgent)
	assert.Equal(t, time.Second, f.opts.BaseBackoff)
}

func TestHTTPFetcher_LimiterPerHost(t *testing.T) {
	f := NewHTTPFetcher(fastHTTPOptions())
	a := f.limiterFor("http://a.example.com/x")
	b := f.limiterFor("http://b.example.com/y")
	assert.NotSame(t, a, b)
	assert.Same(t, a, f.limiterFor("http://a.example.com/z"))
}
