package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/parquet-go/parquet-go"

	"amazon-scraper/models"
)

// entryTimestampLayout is embedded in the file name; it is the entry's
// creation time and the basis of the TTL check, so the cache stays correct
// even if files are copied and their metadata rewritten.
const entryTimestampLayout = "20060102_150405"

// ParquetStore keeps one current cache entry per query key as a parquet file
// named <key>_<timestamp>.parquet. Writes go to a temporary file first and
// are renamed into place, so readers never observe a half-written entry;
// older entries for the key are removed after the swap.
type ParquetStore struct {
	dir string
	ttl time.Duration
	now func() time.Time
}

// NewParquetStore creates the cache directory if needed and returns a store
// with the given TTL.
func NewParquetStore(dir string, ttl time.Duration) (*ParquetStore, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("parquet: create cache dir: %w", err)
	}
	return &ParquetStore{dir: dir, ttl: ttl, now: time.Now}, nil
}

// cacheRow is the on-disk schema: the Product fields plus the entry creation
// timestamp.
type cacheRow struct {
	Title     string    `parquet:"title"`
	Price     *float64  `parquet:"price"`
	Rating    *float64  `parquet:"rating"`
	URL       string    `parquet:"url"`
	Platform  string    `parquet:"platform"`
	ScrapedAt time.Time `parquet:"scraped_at"`
	CreatedAt time.Time `parquet:"created_at"`
}

// Get returns the current entry for the query's key if it is younger than
// the TTL.
func (s *ParquetStore) Get(query string) (*models.QueryResult, bool, error) {
	key := CacheKey(query)

	path, createdAt, ok, err := s.currentEntry(key)
	if err != nil {
		return nil, false, err
	}
	if !ok {
		return nil, false, nil
	}
	if s.now().Sub(createdAt) >= s.ttl {
		// Logically expired; the file is cleaned up on the next Put.
		return nil, false, nil
	}

	rows, err := parquet.ReadFile[cacheRow](path)
	if err != nil {
		return nil, false, fmt.Errorf("parquet: read %q: %w", path, err)
	}

	products := make([]*models.Product, 0, len(rows))
	for _, r := range rows {
		products = append(products, &models.Product{
			Title:     r.Title,
			Price:     r.Price,
			Rating:    r.Rating,
			URL:       r.URL,
			Platform:  r.Platform,
			ScrapedAt: r.ScrapedAt,
		})
	}

	return &models.QueryResult{
		Query:     query,
		Products:  products,
		CreatedAt: createdAt,
		Cached:    true,
	}, true, nil
}

// Put writes a new entry for the query's key and removes all prior entries
// for that key once the new one is durably in place.
func (s *ParquetStore) Put(query string, products []*models.Product) error {
	key := CacheKey(query)
	createdAt := s.now().UTC()

	rows := make([]cacheRow, 0, len(products))
	for _, p := range products {
		rows = append(rows, cacheRow{
			Title:     p.Title,
			Price:     p.Price,
			Rating:    p.Rating,
			URL:       p.URL,
			Platform:  p.Platform,
			ScrapedAt: p.ScrapedAt,
			CreatedAt: createdAt,
		})
	}

	final := filepath.Join(s.dir, fmt.Sprintf("%s_%s.parquet", key, createdAt.Format(entryTimestampLayout)))
	tmp := final + ".tmp"

	if err := parquet.WriteFile(tmp, rows); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("parquet: write %q: %w", tmp, err)
	}
	if err := os.Rename(tmp, final); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("parquet: swap %q: %w", final, err)
	}

	s.removeSuperseded(key, final)
	return nil
}

// Close is a no-op; entries are plain files with no open handles retained.
func (s *ParquetStore) Close() error {
	return nil
}

// currentEntry finds the newest entry file for the key by its embedded
// timestamp.
func (s *ParquetStore) currentEntry(key string) (path string, createdAt time.Time, ok bool, err error) {
	entries, err := s.entriesFor(key)
	if err != nil || len(entries) == 0 {
		return "", time.Time{}, false, err
	}

	sort.Slice(entries, func(i, j int) bool {
		return entries[i].createdAt.After(entries[j].createdAt)
	})
	return entries[0].path, entries[0].createdAt, true, nil
}

type entryFile struct {
	path      string
	createdAt time.Time
}

func (s *ParquetStore) entriesFor(key string) ([]entryFile, error) {
	dirEntries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("parquet: read cache dir: %w", err)
	}

	var entries []entryFile
	prefix := key + "_"
	for _, de := range dirEntries {
		name := de.Name()
		if de.IsDir() || !strings.HasPrefix(name, prefix) || !strings.HasSuffix(name, ".parquet") {
			continue
		}
		ts, err := parseEntryTimestamp(name, key)
		if err != nil {
			continue
		}
		entries = append(entries, entryFile{path: filepath.Join(s.dir, name), createdAt: ts})
	}
	return entries, nil
}

// parseEntryTimestamp extracts the creation time embedded in
// "<key>_20060102_150405.parquet".
func parseEntryTimestamp(name, key string) (time.Time, error) {
	stamp := strings.TrimSuffix(strings.TrimPrefix(name, key+"_"), ".parquet")
	return time.ParseInLocation(entryTimestampLayout, stamp, time.UTC)
}

// removeSuperseded deletes every entry for the key except current. Removal
// failures are tolerated: a stale file loses the "newest timestamp" race and
// is retried on the next Put.
func (s *ParquetStore) removeSuperseded(key, current string) {
	entries, err := s.entriesFor(key)
	if err != nil {
		return
	}
	for _, e := range entries {
		if e.path != current {
			_ = os.Remove(e.path)
		}
	}
}
