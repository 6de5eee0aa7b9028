package scraper

import "context"

// Fetcher retrieves the raw markup for one search-result page. Implementations
// may be slow (network-bound) and may fail transiently; the caller decides
// what a failed page means for the overall request.
type Fetcher interface {
	// FetchPage returns the HTML of result page `page` (1-based) for the
	// given query.
	FetchPage(ctx context.Context, query string, page int) (string, error)
	Close() error
}
