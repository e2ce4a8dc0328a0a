package jisho

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/net/html"
)

// BaseURL is the jisho.org site root.
const BaseURL = "https://jisho.org"

// maxBodySize caps how much HTML is read from one page.
const maxBodySize = 10 * 1024 * 1024

// SearchURL returns the result page URL for query. Pages after the first
// list words only, as the "More words" link does.
func SearchURL(base, query string, page int) string {
	if base == "" {
		base = BaseURL
	}
	if page <= 1 {
		return base + "/search/" + url.PathEscape(query)
	}
	return fmt.Sprintf("%s/search/%s?page=%d", base, url.PathEscape(query+" #words"), page)
}

// Fetcher downloads and parses result pages.
type Fetcher struct {
	Client *http.Client
	Logger zerolog.Logger
}

// NewFetcher returns a Fetcher with a 30 second client timeout.
func NewFetcher(logger zerolog.Logger) *Fetcher {
	return &Fetcher{
		Client: &http.Client{Timeout: 30 * time.Second},
		Logger: logger.With().Str("component", "fetcher").Logger(),
	}
}

// Fetch downloads pageURL and parses it.
func (f *Fetcher) Fetch(ctx context.Context, pageURL string) (*html.Node, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36")
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9,ja;q=0.8")

	f.Logger.Debug().Str("url", pageURL).Msg("fetching page")

	client := f.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", pageURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch %s: status %d", pageURL, resp.StatusCode)
	}
	if resp.ContentLength > maxBodySize {
		return nil, fmt.Errorf("fetch %s: content length %d exceeds limit of %d bytes", pageURL, resp.ContentLength, maxBodySize)
	}

	// Read one byte past the limit so an exactly-full buffer means truncation.
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize+1))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	if len(body) > maxBodySize {
		return nil, fmt.Errorf("fetch %s: body exceeds limit of %d bytes", pageURL, maxBodySize)
	}

	f.Logger.Debug().Str("url", pageURL).Int("bytes", len(body)).Msg("page fetched")
	return Parse(bytes.NewReader(body))
}
