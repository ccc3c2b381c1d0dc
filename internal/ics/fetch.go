package ics

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	appLog "weekplan/internal/log"
	"weekplan/internal/storage"
)

// maxFeedBytes caps how much of a feed response is read.
const maxFeedBytes = 10 << 20

// Source identifies one feed to fetch.
type Source struct {
	ID  string
	URL string
}

// FetchResult contains the outcome of fetching a single feed.
type FetchResult struct {
	Source    Source
	Body      []byte
	FromCache bool // true when a 304 let us reuse the stored body
}

// StatusError is a non-2xx response from the feed server.
type StatusError struct {
	Code   int
	Status string
}

func (e *StatusError) Error() string {
	return "unexpected HTTP status " + e.Status
}

// cacheEntry holds HTTP validators and the last good body for one source.
type cacheEntry struct {
	URL          string    `json:"url"`
	ETag         string    `json:"etag,omitempty"`
	LastModified string    `json:"last_modified,omitempty"`
	Body         []byte    `json:"body"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Fetcher fetches feeds with conditional GET (ETag / Last-Modified). The
// validators and body live in the KV store under storage.FeedCacheKey.
type Fetcher struct {
	client *http.Client
	kv     storage.KV
}

// NewFetcher creates a Fetcher. A zero timeout means 15 seconds.
func NewFetcher(kv storage.KV, timeout time.Duration) *Fetcher {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Fetcher{
		client: &http.Client{Timeout: timeout},
		kv:     kv,
	}
}

// NormalizeURL trims the URL and maps webcal:// to https://.
func NormalizeURL(u string) string {
	u = strings.TrimSpace(u)
	if rest, ok := strings.CutPrefix(strings.ToLower(u), "webcal://"); ok {
		return "https://" + u[len(u)-len(rest):]
	}
	return u
}

// Fetch retrieves one feed. Network errors and non-2xx answers are
// returned as errors; the cached body is only used for 304 Not Modified.
func (f *Fetcher) Fetch(ctx context.Context, src Source) (FetchResult, error) {
	if src.URL == "" {
		return FetchResult{}, errors.New("source URL is empty")
	}
	url := NormalizeURL(src.URL)

	var meta cacheEntry
	if f.kv != nil {
		meta = storage.ReadOrEmpty[cacheEntry](f.kv, storage.FeedCacheKey(src.ID))
		if meta.URL != url {
			// the source was edited; old validators do not apply
			meta = cacheEntry{}
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return FetchResult{}, err
	}
	req.Header.Set("Accept", "text/calendar, text/plain;q=0.9, */*;q=0.1")
	if len(meta.Body) > 0 {
		if meta.ETag != "" {
			req.Header.Set("If-None-Match", meta.ETag)
		}
		if meta.LastModified != "" {
			req.Header.Set("If-Modified-Since", meta.LastModified)
		}
	}

	appLog.Info("ics fetch start", "id", src.ID, "url", appLog.RedactURL(url))

	resp, err := f.client.Do(req)
	if err != nil {
		return FetchResult{}, err
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotModified:
		if len(meta.Body) == 0 {
			return FetchResult{}, errors.New("received 304 Not Modified but no cached body available")
		}
		appLog.Info("ics fetch not modified; using cache", "id", src.ID, "url", appLog.RedactURL(url))
		return FetchResult{Source: src, Body: meta.Body, FromCache: true}, nil

	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		body, err := io.ReadAll(io.LimitReader(resp.Body, maxFeedBytes+1))
		if err != nil {
			return FetchResult{}, fmt.Errorf("read body: %w", err)
		}
		if len(body) > maxFeedBytes {
			return FetchResult{}, fmt.Errorf("feed larger than %d bytes", maxFeedBytes)
		}

		if f.kv != nil {
			storage.WriteOrDrop(f.kv, storage.FeedCacheKey(src.ID), cacheEntry{
				URL:          url,
				ETag:         resp.Header.Get("ETag"),
				LastModified: resp.Header.Get("Last-Modified"),
				Body:         body,
				UpdatedAt:    time.Now().UTC(),
			})
		}

		appLog.Info("ics fetch success", "id", src.ID, "url", appLog.RedactURL(url), "status", resp.StatusCode, "bytes", len(body))
		return FetchResult{Source: src, Body: body}, nil

	default:
		return FetchResult{}, &StatusError{Code: resp.StatusCode, Status: resp.Status}
	}
}

// Forget drops the stored validators and body of a source.
func (f *Fetcher) Forget(sourceID string) {
	if f.kv != nil {
		storage.RemoveOrDrop(f.kv, storage.FeedCacheKey(sourceID))
	}
}
