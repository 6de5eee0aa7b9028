package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"amazon-scraper/api"
	"amazon-scraper/config"
	"amazon-scraper/scraper"
	"amazon-scraper/scraper/amazon"
	"amazon-scraper/services"
	"amazon-scraper/storage"
	"amazon-scraper/utils"
)

func main() {
	queries := flag.String("query", "", "comma-separated queries to scrape once and exit (warms the cache)")
	flag.Parse()

	logger := utils.NewLogger()
	defer logger.Sync()
	cfg := config.Load()

	logger.Info("=== Product Scraping System starting ===")
	logger.Info("Config — pages: %d | ttl: %dh | fetch: %s | cache: %s",
		cfg.MaxPages, cfg.CacheTTLHours, cfg.FetchMode, cfg.CacheBackend)

	store, err := newCacheStore(cfg)
	if err != nil {
		logger.Error("Failed to initialize cache store: %v", err)
		os.Exit(1)
	}
	defer store.Close()

	fetcher := newFetcher(cfg, logger)
	defer fetcher.Close()

	var rawWriter storage.RawCandidateWriter
	if cfg.RawCSVPath != "" {
		w, err := storage.NewCSVWriter(cfg.RawCSVPath)
		if err != nil {
			logger.Error("Failed to create raw CSV writer: %v", err)
			os.Exit(1)
		}
		defer w.Close()
		rawWriter = w
		logger.Info("Raw candidates will be audited to %s", cfg.RawCSVPath)
	}

	orch := services.NewOrchestrator(cfg, fetcher, store, rawWriter, logger)

	if *queries != "" {
		runOnce(cfg, orch, logger, *queries)
		return
	}

	serve(cfg, orch, logger)
}

// runOnce warms the cache for each query and prints insights. Distinct
// queries run concurrently through the worker pool; pages within a query
// stay sequential.
func runOnce(cfg *config.Config, orch *services.Orchestrator, logger *utils.Logger, queries string) {
	insightSvc := services.NewInsightService(logger)
	pool := utils.NewWorkerPool(cfg.MaxConcurrency, cfg.PageDelayMinMs)

	for _, q := range strings.Split(queries, ",") {
		query := strings.TrimSpace(q)
		if query == "" {
			continue
		}

		pool.Submit(func() {
			ctx, cancel := context.WithTimeout(context.Background(),
				time.Duration(cfg.RequestTimeoutSec)*time.Second)
			defer cancel()

			result, err := orch.Search(ctx, query, 0, 0)
			if err != nil {
				logger.Error("Scrape failed for %q: %v", query, err)
				return
			}

			logger.Info("Scraped %q — %d relevant products (cached=%v)",
				query, len(result.Products), result.Cached)
			insightSvc.Print(query, insightSvc.Generate(result.Products))
		})
	}

	pool.Wait()
	logger.Info("Done — cache warmed.")
}

// serve runs the HTTP API until interrupted.
func serve(cfg *config.Config, orch *services.Orchestrator, logger *utils.Logger) {
	app := api.New(cfg, orch, logger)

	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh

		logger.Info("Shutting down server...")
		if err := app.Shutdown(); err != nil {
			logger.Error("Error shutting down server: %v", err)
		}
	}()

	logger.Info("Server listening on port %s", cfg.ServerPort)
	if err := app.Listen(":" + cfg.ServerPort); err != nil {
		logger.Error("Server failed: %v", err)
		os.Exit(1)
	}
}

func newCacheStore(cfg *config.Config) (storage.CacheStore, error) {
	ttl := time.Duration(cfg.CacheTTLHours) * time.Hour
	if cfg.CacheBackend == "postgres" {
		return storage.NewPostgresStore(cfg.DSN(), ttl)
	}
	return storage.NewParquetStore(cfg.CacheDir, ttl)
}

func newFetcher(cfg *config.Config, logger *utils.Logger) scraper.Fetcher {
	if cfg.FetchMode == "http" {
		return amazon.NewHTTPFetcher(cfg, logger)
	}
	return amazon.NewBrowserFetcher(cfg, logger)
}
