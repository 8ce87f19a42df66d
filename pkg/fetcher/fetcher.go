// Package fetcher downloads existing pages for metadata import.
package fetcher

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/dtnitsch/html-page/pkg/caching"
	"github.com/dtnitsch/html-page/pkg/pageerr"
)

const (
	// DefaultTimeout bounds a single request.
	DefaultTimeout = 30 * time.Second
	// DefaultMaxBytes bounds the size of a fetched page.
	DefaultMaxBytes = 10 << 20
	userAgent       = "html-page/1.0 (+metadata import)"
)

type Fetcher struct {
	client   *http.Client
	cache    *caching.Cache
	maxBytes int64
	logger   *slog.Logger
}

// Option configures a Fetcher.
type Option func(*Fetcher)

// WithCache serves repeated requests from c.
func WithCache(c *caching.Cache) Option {
	return func(f *Fetcher) { f.cache = c }
}

// WithClient replaces the HTTP client.
func WithClient(c *http.Client) Option {
	return func(f *Fetcher) { f.client = c }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(f *Fetcher) { f.logger = l }
}

func NewFetcher(opts ...Option) *Fetcher {
	f := &Fetcher{
		client:   &http.Client{Timeout: DefaultTimeout},
		maxBytes: DefaultMaxBytes,
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// GetHtmlBytes returns the body of url. A 404 or 410 response is a
// ResourceNotFound error.
func (f *Fetcher) GetHtmlBytes(ctx context.Context, url string) ([]byte, error) {
	if f.cache != nil {
		if body, ok := f.cache.Get(url); ok {
			f.logger.Debug("Page found in cache", "url", url)
			return body, nil
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, pageerr.InvalidInput("invalid url", "url", url, "error", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml;q=0.9,*/*;q=0.5")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to make HTTP request: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusGone:
		return nil, pageerr.ResourceNotFound(url, "status", resp.StatusCode)
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("failed to fetch HTML, status code: %d", resp.StatusCode)
	}

	bodyBytes, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}
	if int64(len(bodyBytes)) > f.maxBytes {
		return nil, pageerr.InvalidInput("page too large", "url", url, "max_bytes", f.maxBytes)
	}

	if f.cache != nil {
		if err := f.cache.Set(url, bodyBytes); err != nil {
			f.logger.Warn("Failed to cache page", "url", url, "error", err)
		}
	}
	return bodyBytes, nil
}
