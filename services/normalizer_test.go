package services

import (
	"testing"

	"amazon-scraper/models"
	"amazon-scraper/utils"
)

func newTestLogger() *utils.Logger { return utils.NewLogger() }

func newTestNormalizer() *Normalizer {
	return NewNormalizer("amazon", newTestLogger())
}

func TestParsePrice(t *testing.T) {
	tests := []struct {
		raw  string
		want *float64
	}{
		{"₹29,990", fp(29990)},
		{"3,500", fp(3500)},
		{"$1,200.50", fp(1200.50)},
		{"₹499.00", fp(499)},
		{"", nil},
		{"free", nil},
	}

	for _, tt := range tests {
		got := parsePrice(tt.raw)
		if !floatPtrEq(got, tt.want) {
			t.Errorf("parsePrice(%q) = %v; want %v", tt.raw, fmtPtr(got), fmtPtr(tt.want))
		}
	}
}

func TestParseRating(t *testing.T) {
	tests := []struct {
		raw  string
		want *float64
	}{
		{"4.5 out of 5 stars", fp(4.5)},
		{"4.85", fp(4.85)},
		{"5.0", fp(5.0)},
		{"3.5 (120 reviews)", fp(3.5)},
		{"", nil},
		{"New", nil},
		{"6.0", nil},
	}

	for _, tt := range tests {
		got := parseRating(tt.raw)
		if !floatPtrEq(got, tt.want) {
			t.Errorf("parseRating(%q) = %v; want %v", tt.raw, fmtPtr(got), fmtPtr(tt.want))
		}
	}
}

func TestNormalizeDropsUnresolvableURL(t *testing.T) {
	n := newTestNormalizer()
	candidates := []*models.RawCandidate{
		{Title: "No URL Product Listing", PriceText: "₹100", URL: ""},
		{Title: "Relative URL Product Listing", PriceText: "₹100", URL: "/dp/B0TEST"},
		{Title: "Good URL Product Listing", PriceText: "₹200", URL: "https://www.amazon.in/dp/B0TEST"},
	}

	products := n.Normalize(candidates)
	if len(products) != 1 {
		t.Fatalf("expected 1 product after dropping unresolvable URLs, got %d", len(products))
	}
	if products[0].Title != "Good URL Product Listing" {
		t.Errorf("kept wrong product: %q", products[0].Title)
	}
}

func TestNormalizeKeepsMissingPriceAndRating(t *testing.T) {
	n := newTestNormalizer()
	candidates := []*models.RawCandidate{
		{Title: "Unpriced Product Listing", URL: "https://www.amazon.in/dp/B0TEST"},
	}

	products := n.Normalize(candidates)
	if len(products) != 1 {
		t.Fatalf("missing price must not drop the record; got %d products", len(products))
	}
	if products[0].Price != nil || products[0].Rating != nil {
		t.Error("missing price/rating should be absent, not zero")
	}
}

func TestNormalizeDeduplicatesTitles(t *testing.T) {
	n := newTestNormalizer()
	candidates := []*models.RawCandidate{
		{Title: "Sony WH-1000XM5 Wireless Headphones", PriceText: "₹29,990", URL: "https://www.amazon.in/dp/B01"},
		{Title: "  sony   wh-1000xm5 WIRELESS headphones ", PriceText: "₹28,000", URL: "https://www.amazon.in/dp/B02"},
		{Title: "Sony WF-C500 Earbuds Truly Wireless", PriceText: "₹4,990", URL: "https://www.amazon.in/dp/B03"},
	}

	products := n.Normalize(candidates)
	if len(products) != 2 {
		t.Fatalf("expected 2 products after title dedup, got %d", len(products))
	}
	// First occurrence wins.
	if *products[0].Price != 29990 {
		t.Errorf("first occurrence should win dedup; got price %.2f", *products[0].Price)
	}
}

func TestNormalizePreservesOrderAndStamps(t *testing.T) {
	n := newTestNormalizer()
	candidates := []*models.RawCandidate{
		{Title: "Product Listing Number One", URL: "https://www.amazon.in/dp/B01", SourcePage: 1},
		{Title: "Product Listing Number Two", URL: "https://www.amazon.in/dp/B02", SourcePage: 2},
	}

	products := n.Normalize(candidates)
	if len(products) != 2 {
		t.Fatalf("expected 2 products, got %d", len(products))
	}
	if products[0].Title != "Product Listing Number One" ||
		products[1].Title != "Product Listing Number Two" {
		t.Error("first-seen input order was not preserved")
	}
	for _, p := range products {
		if p.Platform != "amazon" {
			t.Errorf("platform: got %q, want %q", p.Platform, "amazon")
		}
		if p.ScrapedAt.IsZero() {
			t.Error("scraped_at should be stamped")
		}
		if p.ScrapedAt.Location() != p.ScrapedAt.UTC().Location() {
			t.Error("scraped_at should be UTC")
		}
	}
}

func fp(v float64) *float64 { return &v }

func floatPtrEq(a, b *float64) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func fmtPtr(p *float64) interface{} {
	if p == nil {
		return nil
	}
	return *p
}
