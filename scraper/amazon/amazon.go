package amazon

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/chromedp/chromedp"

	"amazon-scraper/config"
	"amazon-scraper/utils"
)

const userAgent = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 " +
	"(KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

// BrowserFetcher drives a headless Chrome instance to fetch search-result
// pages. Amazon serves bot-detection interstitials to bare HTTP clients, so
// this is the default fetch mode.
type BrowserFetcher struct {
	cfg    *config.Config
	logger *utils.Logger
	retry  *utils.RetryConfig

	allocCtx    context.Context
	cancelAlloc context.CancelFunc
}

// NewBrowserFetcher creates a ready-to-use BrowserFetcher.
func NewBrowserFetcher(cfg *config.Config, logger *utils.Logger) *BrowserFetcher {
	chromeBin := findChromeBinary(cfg.ChromeBin)
	logger.Info("[amazon] Using browser binary: %s", chromeBin)

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", cfg.Headless),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-blink-features", "AutomationControlled"),
		chromedp.UserAgent(userAgent),
	)
	if chromeBin != "" {
		opts = append(opts, chromedp.ExecPath(chromeBin))
	}

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(context.Background(), opts...)

	// Suppress chromedp log noise
	silentCtx, cancelSilent := chromedp.NewContext(allocCtx,
		chromedp.WithLogf(func(string, ...interface{}) {}))
	cancel := func() {
		cancelSilent()
		cancelAlloc()
	}

	return &BrowserFetcher{
		cfg:    cfg,
		logger: logger,
		retry: &utils.RetryConfig{
			MaxAttempts: cfg.MaxRetries,
			BaseDelay:   2 * time.Second,
			Logger:      logger,
		},
		allocCtx:    silentCtx,
		cancelAlloc: cancel,
	}
}

// FetchPage navigates to the search-result page and returns its full markup.
func (f *BrowserFetcher) FetchPage(ctx context.Context, query string, page int) (string, error) {
	pageURL := SearchURL(f.cfg.BaseURL, query, page)
	f.logger.Debug("[amazon] Fetching page %d: %s", page, pageURL)

	var html string
	err := f.retry.Do(ctx, fmt.Sprintf("fetch-page-%d", page), func() error {
		tabCtx, cancel := chromedp.NewContext(f.allocCtx)
		defer cancel()

		tabCtx, cancelTimeout := context.WithTimeout(tabCtx,
			time.Duration(f.cfg.FetchTimeoutSec)*time.Second)
		defer cancelTimeout()

		err := chromedp.Run(tabCtx,
			chromedp.Navigate(pageURL),
			chromedp.Sleep(3*time.Second),

			// Remove automation fingerprints before reading the DOM.
			chromedp.Evaluate(`
				Object.defineProperty(navigator, 'webdriver', { get: () => undefined });
				Object.defineProperty(navigator, 'plugins', { get: () => [1, 2, 3, 4, 5] });
			`, nil),
			chromedp.OuterHTML("html", &html),
		)
		if err != nil {
			return fmt.Errorf("chromedp navigate: %w", err)
		}
		if isBlockedPage(html) {
			return fmt.Errorf("bot check page returned for %s", pageURL)
		}
		return nil
	})
	if err != nil {
		return "", err
	}

	return html, nil
}

// Close tears down the shared browser allocator.
func (f *BrowserFetcher) Close() error {
	f.cancelAlloc()
	return nil
}

// SearchURL builds the search-result URL for a query and page number.
func SearchURL(baseURL, query string, page int) string {
	return fmt.Sprintf("%s/s?k=%s&page=%d",
		strings.TrimRight(baseURL, "/"), url.QueryEscape(query), page)
}

// isBlockedPage detects the captcha interstitial served to suspected bots.
func isBlockedPage(html string) bool {
	return strings.Contains(html, "api-services-support@amazon.com") ||
		strings.Contains(html, "Enter the characters you see below")
}

// findChromeBinary locates a Chrome/Chromium binary.
func findChromeBinary(configured string) string {
	if configured != "" {
		return configured
	}

	names := []string{"google-chrome-stable", "google-chrome", "chromium", "chromium-browser"}
	for _, name := range names {
		if path, err := exec.LookPath(name); err == nil {
			return path
		}
	}

	paths := []string{
		"/usr/bin/google-chrome-stable",
		"/usr/bin/google-chrome",
		"/usr/bin/chromium-browser",
		"/usr/bin/chromium",
		"/snap/bin/chromium",
		"/opt/google/chrome/google-chrome",
	}
	for _, p := range paths {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}

	return ""
}
