package artifact

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
)

// Fetcher retrieves an agreement document by its artifact key.
type Fetcher interface {
	Fetch(ctx context.Context, key string) ([]byte, error)
}

// HTTPFetcher downloads artifacts from the catalog's artifact endpoint.
type HTTPFetcher struct {
	client  *resty.Client
	baseURL string
}

// Config holds configuration for the artifact fetcher.
type Config struct {
	BaseURL   string
	Timeout   time.Duration
	UserAgent string
}

// NewHTTPFetcher creates a new HTTP artifact fetcher.
func NewHTTPFetcher(cfg *Config) *HTTPFetcher {
	client := resty.New()
	if cfg.UserAgent != "" {
		client.SetHeader("User-Agent", cfg.UserAgent)
	}
	// Document downloads are the slowest upstream call
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 60 * time.Second
	}
	client.SetTimeout(timeout)

	return &HTTPFetcher{
		client:  client,
		baseURL: cfg.BaseURL,
	}
}

// Fetch downloads the artifact document for the given key.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - key: artifact key from a major-agreement record.
//
// Returns:
//   - []byte: raw document payload.
//   - error: non-nil if the download fails or returns a non-2xx status.
func (f *HTTPFetcher) Fetch(ctx context.Context, key string) ([]byte, error) {
	resp, err := f.client.R().
		SetContext(ctx).
		Get(f.baseURL + "/artifacts/" + key)

	if err != nil {
		return nil, fmt.Errorf("failed to fetch artifact %s: %w", key, err)
	}
	if resp.StatusCode() < 200 || resp.StatusCode() >= 300 {
		return nil, fmt.Errorf("artifact %s returned HTTP %d", key, resp.StatusCode())
	}

	return resp.Body(), nil
}
