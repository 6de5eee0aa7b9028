package storage

import (
	"strings"

	"amazon-scraper/models"
)

// CacheStore persists one current result set per query key with a TTL.
// Get returns (result, false, nil) when there is no current entry or the
// entry is older than the TTL. Put atomically replaces the current entry;
// entries are never merged.
type CacheStore interface {
	Get(query string) (*models.QueryResult, bool, error)
	Put(query string, products []*models.Product) error
	Close() error
}

// RawCandidateWriter persists unprocessed candidates for auditing before any
// filtering or normalization.
type RawCandidateWriter interface {
	WriteRaw(candidates []*models.RawCandidate) error
	Close() error
}

// CacheKey normalizes a query into its cache key: lower-cased, whitespace
// collapsed to single underscores.
func CacheKey(query string) string {
	return strings.Join(strings.Fields(strings.ToLower(query)), "_")
}
