package fetcher

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dtnitsch/html-page/pkg/caching"
	"github.com/dtnitsch/html-page/pkg/pageerr"
)

func TestGetHtmlBytes(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		switch r.URL.Path {
		case "/page.html":
			assert.Contains(t, r.Header.Get("User-Agent"), "html-page")
			_, _ = w.Write([]byte("<html><head><title>T</title></head></html>"))
		case "/broken":
			w.WriteHeader(http.StatusInternalServerError)
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	cache, err := caching.NewCache(t.TempDir(), time.Hour)
	require.NoError(t, err)
	f := NewFetcher(WithCache(cache), WithClient(srv.Client()))
	ctx := context.Background()

	body, err := f.GetHtmlBytes(ctx, srv.URL+"/page.html")
	require.NoError(t, err)
	assert.Contains(t, string(body), "<title>T</title>")

	_, err = f.GetHtmlBytes(ctx, srv.URL+"/page.html")
	require.NoError(t, err)
	assert.Equal(t, int32(1), hits.Load(), "second request served from cache")

	_, err = f.GetHtmlBytes(ctx, srv.URL+"/missing")
	assert.True(t, pageerr.IsNotFound(err))

	_, err = f.GetHtmlBytes(ctx, srv.URL+"/broken")
	require.Error(t, err)
	assert.Equal(t, pageerr.CodeInternal, pageerr.CodeOf(err))
}

func TestGetHtmlBytesTooLarge(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write(make([]byte, 64))
	}))
	defer srv.Close()

	f := NewFetcher()
	f.maxBytes = 16
	_, err := f.GetHtmlBytes(context.Background(), srv.URL)
	assert.Equal(t, pageerr.CodeInvalidInput, pageerr.CodeOf(err))
}
