package services

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"amazon-scraper/config"
	"amazon-scraper/models"
	"amazon-scraper/scraper"
	"amazon-scraper/storage"
	"amazon-scraper/utils"
)

// ErrSourceUnreachable is returned when not a single result page could be
// fetched. It distinguishes "the source was unreachable" from a successful
// scrape that found no relevant products.
var ErrSourceUnreachable = errors.New("source unreachable: no result pages could be fetched")

// Orchestrator coordinates a search request: cache check, sequential paged
// scrape with pacing, extraction, relevance filtering, normalization,
// persistence, and the read-time view filter.
type Orchestrator struct {
	cfg        *config.Config
	fetcher    scraper.Fetcher
	extractor  *Extractor
	normalizer *Normalizer
	store      storage.CacheStore
	rawWriter  storage.RawCandidateWriter // optional audit trail
	logger     *utils.Logger
	sleep      func(ctx context.Context, d time.Duration) error
}

// NewOrchestrator wires the pipeline together. rawWriter may be nil.
func NewOrchestrator(
	cfg *config.Config,
	fetcher scraper.Fetcher,
	store storage.CacheStore,
	rawWriter storage.RawCandidateWriter,
	logger *utils.Logger,
) *Orchestrator {
	return &Orchestrator{
		cfg:        cfg,
		fetcher:    fetcher,
		extractor:  NewExtractor(cfg.BaseURL, logger),
		normalizer: NewNormalizer(cfg.Platform, logger),
		store:      store,
		rawWriter:  rawWriter,
		logger:     logger,
		sleep:      sleepCtx,
	}
}

// Search serves one query. Cached data is reused when fresh; otherwise the
// full pipeline runs and the result replaces the cache entry for this
// query's key. limit and minRating are view parameters applied at read time,
// never part of what is cached.
func (o *Orchestrator) Search(ctx context.Context, query string, limit int, minRating float64) (*models.QueryResult, error) {
	if cached, ok := o.cacheLookup(query); ok {
		o.logger.Info("[orchestrator] Cache hit for %q (%d products)", query, len(cached.Products))
		return applyView(cached, limit, minRating), nil
	}

	products, err := o.scrape(ctx, query)
	if err != nil {
		return nil, err
	}

	if err := o.store.Put(query, products); err != nil {
		// The scrape succeeded; losing durability must not lose the result.
		o.logger.Error("[orchestrator] Cache write failed for %q (serving uncached): %v", query, err)
	}

	result := &models.QueryResult{
		Query:     query,
		Products:  products,
		CreatedAt: time.Now().UTC(),
		Cached:    false,
	}
	return applyView(result, limit, minRating), nil
}

// cacheLookup treats any store read failure as a miss.
func (o *Orchestrator) cacheLookup(query string) (*models.QueryResult, bool) {
	result, ok, err := o.store.Get(query)
	if err != nil {
		o.logger.Warn("[orchestrator] Cache read failed for %q, falling through to scrape: %v", query, err)
		return nil, false
	}
	return result, ok
}

// scrape drives the fetch → extract → filter pipeline across result pages.
// Pages are fetched strictly one at a time with a randomized delay between
// them; a failed page is skipped. Only zero fetched pages is fatal.
func (o *Orchestrator) scrape(ctx context.Context, query string) ([]*models.Product, error) {
	var relevant []*models.RawCandidate
	var allRaw []*models.RawCandidate
	seenURLs := utils.NewURLSet()
	fetchedPages := 0

	for page := 1; page <= o.cfg.MaxPages; page++ {
		html, err := o.fetchPage(ctx, query, page)
		if err != nil {
			if ctx.Err() != nil {
				return nil, fmt.Errorf("scrape %q: %w", query, ctx.Err())
			}
			o.logger.Warn("[orchestrator] Page %d failed for %q, skipping: %v", page, query, err)
			continue
		}
		fetchedPages++

		candidates := o.extractor.Extract(html, page)
		allRaw = append(allRaw, candidates...)

		kept := 0
		for _, c := range candidates {
			if !IsRelevant(c.Title, query) {
				continue
			}
			if c.URL != "" && !seenURLs.Add(c.URL) {
				continue
			}
			relevant = append(relevant, c)
			kept++
		}
		o.logger.Info("[orchestrator] Page %d: %d candidates, %d relevant", page, len(candidates), kept)

		if page < o.cfg.MaxPages {
			if err := o.sleep(ctx, o.pageDelay()); err != nil {
				return nil, fmt.Errorf("scrape %q: %w", query, err)
			}
		}
	}

	if fetchedPages == 0 {
		return nil, fmt.Errorf("scrape %q: %w", query, ErrSourceUnreachable)
	}

	if o.rawWriter != nil && len(allRaw) > 0 {
		if err := o.rawWriter.WriteRaw(allRaw); err != nil {
			o.logger.Warn("[orchestrator] Raw audit write failed: %v", err)
		}
	}

	return o.normalizer.Normalize(relevant), nil
}

func (o *Orchestrator) fetchPage(ctx context.Context, query string, page int) (string, error) {
	fetchCtx, cancel := context.WithTimeout(ctx, time.Duration(o.cfg.FetchTimeoutSec)*time.Second)
	defer cancel()
	return o.fetcher.FetchPage(fetchCtx, query, page)
}

// pageDelay returns a randomized human-like delay between page fetches.
func (o *Orchestrator) pageDelay() time.Duration {
	min, max := o.cfg.PageDelayMinMs, o.cfg.PageDelayMaxMs
	if max <= min {
		return time.Duration(min) * time.Millisecond
	}
	return time.Duration(min+rand.Intn(max-min)) * time.Millisecond
}

// applyView caps the result count and drops products below the rating
// threshold. Products without a rating are excluded by any minRating > 0.
// The underlying result set is left untouched.
func applyView(r *models.QueryResult, limit int, minRating float64) *models.QueryResult {
	products := r.Products
	if minRating > 0 {
		filtered := make([]*models.Product, 0, len(products))
		for _, p := range products {
			if p.Rating != nil && *p.Rating >= minRating {
				filtered = append(filtered, p)
			}
		}
		products = filtered
	}
	if limit > 0 && len(products) > limit {
		products = products[:limit]
	}

	return &models.QueryResult{
		Query:     r.Query,
		Products:  products,
		CreatedAt: r.CreatedAt,
		Cached:    r.Cached,
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(d):
		return nil
	}
}
