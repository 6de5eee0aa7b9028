package storage

import (
	"os"
	"strings"
	"testing"
	"time"

	"amazon-scraper/models"
)

func TestCacheKey(t *testing.T) {
	tests := []struct {
		query string
		want  string
	}{
		{"sony headphones", "sony_headphones"},
		{"  Sony   Headphones  ", "sony_headphones"},
		{"APPLE iPhone 15", "apple_iphone_15"},
		{"laptop", "laptop"},
	}

	for _, tt := range tests {
		if got := CacheKey(tt.query); got != tt.want {
			t.Errorf("CacheKey(%q) = %q; want %q", tt.query, got, tt.want)
		}
	}
}

func newTestParquetStore(t *testing.T, ttl time.Duration) *ParquetStore {
	t.Helper()
	store, err := NewParquetStore(t.TempDir(), ttl)
	if err != nil {
		t.Fatalf("NewParquetStore: %v", err)
	}
	return store
}

func testProducts() []*models.Product {
	price := 29990.0
	rating := 4.5
	return []*models.Product{
		{
			Title:     "Sony WH-1000XM5 Wireless Headphones",
			Price:     &price,
			Rating:    &rating,
			URL:       "https://www.amazon.in/dp/B09X",
			Platform:  "amazon",
			ScrapedAt: time.Date(2026, 8, 24, 10, 0, 0, 0, time.UTC),
		},
		{
			Title:     "Sony WH-CH520 Wireless Headphones",
			URL:       "https://www.amazon.in/dp/B0BS",
			Platform:  "amazon",
			ScrapedAt: time.Date(2026, 8, 24, 10, 0, 1, 0, time.UTC),
		},
	}
}

func TestParquetStoreRoundTrip(t *testing.T) {
	store := newTestParquetStore(t, 24*time.Hour)

	if err := store.Put("sony headphones", testProducts()); err != nil {
		t.Fatalf("Put: %v", err)
	}

	result, ok, err := store.Get("sony headphones")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !ok {
		t.Fatal("expected a cache hit right after Put")
	}
	if !result.Cached {
		t.Error("stored result should be marked cached")
	}
	if len(result.Products) != 2 {
		t.Fatalf("expected 2 products back, got %d", len(result.Products))
	}

	p := result.Products[0]
	if p.Title != "Sony WH-1000XM5 Wireless Headphones" {
		t.Errorf("title: got %q", p.Title)
	}
	if p.Price == nil || *p.Price != 29990 {
		t.Errorf("price did not survive the round trip: %v", p.Price)
	}
	if p.Rating == nil || *p.Rating != 4.5 {
		t.Errorf("rating did not survive the round trip: %v", p.Rating)
	}
	if result.Products[1].Price != nil || result.Products[1].Rating != nil {
		t.Error("absent price/rating should come back absent, not zero")
	}
}

func TestParquetStoreMissForUnknownQuery(t *testing.T) {
	store := newTestParquetStore(t, 24*time.Hour)

	_, ok, err := store.Get("nothing cached here")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if ok {
		t.Error("expected a miss for a query that was never stored")
	}
}

func TestParquetStoreTTLExpiry(t *testing.T) {
	store := newTestParquetStore(t, 24*time.Hour)

	base := time.Date(2026, 8, 24, 12, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return base }
	if err := store.Put("sony headphones", testProducts()); err != nil {
		t.Fatalf("Put: %v", err)
	}

	// Just under the TTL: still served.
	store.now = func() time.Time { return base.Add(24*time.Hour - time.Second) }
	if _, ok, err := store.Get("sony headphones"); err != nil || !ok {
		t.Fatalf("entry younger than TTL should hit (ok=%v, err=%v)", ok, err)
	}

	// At the TTL: expired.
	store.now = func() time.Time { return base.Add(24 * time.Hour) }
	if _, ok, err := store.Get("sony headphones"); err != nil || ok {
		t.Fatalf("entry at TTL age should miss (ok=%v, err=%v)", ok, err)
	}
}

func TestParquetStorePutSupersedesOlderEntries(t *testing.T) {
	store := newTestParquetStore(t, 24*time.Hour)

	base := time.Date(2026, 8, 24, 12, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return base }
	if err := store.Put("sony headphones", testProducts()); err != nil {
		t.Fatalf("first Put: %v", err)
	}

	store.now = func() time.Time { return base.Add(time.Hour) }
	replacement := testProducts()[:1]
	if err := store.Put("sony headphones", replacement); err != nil {
		t.Fatalf("second Put: %v", err)
	}

	result, ok, err := store.Get("sony headphones")
	if err != nil || !ok {
		t.Fatalf("Get after replace (ok=%v, err=%v)", ok, err)
	}
	if len(result.Products) != 1 {
		t.Errorf("Get should serve the replacement entry; got %d products", len(result.Products))
	}

	files, err := os.ReadDir(store.dir)
	if err != nil {
		t.Fatalf("ReadDir: %v", err)
	}
	count := 0
	for _, f := range files {
		if strings.HasSuffix(f.Name(), ".parquet") {
			count++
		}
	}
	if count != 1 {
		t.Errorf("superseded entries should be removed; %d parquet files remain", count)
	}
}

func TestParquetStoreKeysDoNotCollide(t *testing.T) {
	store := newTestParquetStore(t, 24*time.Hour)

	if err := store.Put("sony", testProducts()[:1]); err != nil {
		t.Fatalf("Put sony: %v", err)
	}
	if err := store.Put("sony headphones", testProducts()); err != nil {
		t.Fatalf("Put sony headphones: %v", err)
	}

	short, ok, err := store.Get("sony")
	if err != nil || !ok {
		t.Fatalf("Get sony (ok=%v, err=%v)", ok, err)
	}
	if len(short.Products) != 1 {
		t.Errorf("key %q must not pick up %q entries; got %d products",
			"sony", "sony_headphones", len(short.Products))
	}
}

func TestParquetStoreEmptyResultSet(t *testing.T) {
	store := newTestParquetStore(t, 24*time.Hour)

	if err := store.Put("obscure gadget query", nil); err != nil {
		t.Fatalf("Put with no products: %v", err)
	}

	result, ok, err := store.Get("obscure gadget query")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !ok {
		t.Fatal("an empty result set is still a valid cache entry")
	}
	if len(result.Products) != 0 {
		t.Errorf("expected 0 products, got %d", len(result.Products))
	}
}
