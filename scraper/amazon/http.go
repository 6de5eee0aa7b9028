package amazon

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"

	"amazon-scraper/config"
	"amazon-scraper/utils"
)

// HTTPFetcher fetches search-result pages with a plain HTTP client carrying
// realistic browser headers. Lighter than the browser fetcher but more likely
// to hit the bot check; useful behind proxies and in tests.
type HTTPFetcher struct {
	cfg    *config.Config
	logger *utils.Logger
	client *resty.Client
}

// NewHTTPFetcher creates an HTTPFetcher with retry and timeout configured.
func NewHTTPFetcher(cfg *config.Config, logger *utils.Logger) *HTTPFetcher {
	client := resty.New().
		SetTimeout(time.Duration(cfg.FetchTimeoutSec)*time.Second).
		SetRetryCount(cfg.MaxRetries-1).
		SetRetryWaitTime(2*time.Second).
		SetHeader("User-Agent", userAgent).
		SetHeader("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8").
		SetHeader("Accept-Language", "en-IN,en;q=0.9").
		SetHeader("Upgrade-Insecure-Requests", "1")

	return &HTTPFetcher{cfg: cfg, logger: logger, client: client}
}

// FetchPage performs a GET against the search-result URL.
func (f *HTTPFetcher) FetchPage(ctx context.Context, query string, page int) (string, error) {
	pageURL := SearchURL(f.cfg.BaseURL, query, page)
	f.logger.Debug("[amazon] GET %s", pageURL)

	res, err := f.client.R().
		SetContext(ctx).
		Get(pageURL)
	if err != nil {
		return "", fmt.Errorf("http fetch page %d: %w", page, err)
	}
	if res.StatusCode() != 200 {
		return "", fmt.Errorf("http fetch page %d: status %d", page, res.StatusCode())
	}

	html := string(res.Body())
	if isBlockedPage(html) {
		return "", fmt.Errorf("http fetch page %d: bot check page returned", page)
	}
	return html, nil
}

// Close is a no-op; resty clients hold no long-lived resources.
func (f *HTTPFetcher) Close() error {
	return nil
}
