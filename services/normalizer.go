package services

import (
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode"

	"amazon-scraper/models"
	"amazon-scraper/utils"
)

var (
	// priceRegexp captures numeric price values after currency symbols and
	// thousands separators are stripped
	priceRegexp = regexp.MustCompile(`\d+(?:\.\d+)?`)
	// ratingRegexp captures the first decimal number in a rating phrase like
	// "4.5 out of 5 stars"
	ratingRegexp = regexp.MustCompile(`(\d+(?:\.\d{1,2})?)`)
)

// Normalizer turns relevant RawCandidates into validated Products: parsed
// price and rating, well-formed URL, deduplicated titles, UTC collection
// timestamp.
type Normalizer struct {
	platform string
	logger   *utils.Logger
	now      func() time.Time
}

// NewNormalizer creates a Normalizer stamping products with the given
// platform identifier.
func NewNormalizer(platform string, logger *utils.Logger) *Normalizer {
	return &Normalizer{platform: platform, logger: logger, now: time.Now}
}

// Normalize processes candidates in order and returns validated products.
// Candidates without a resolvable absolute URL are dropped; missing or
// unparsable price/rating stay absent but do not drop the record. Titles are
// deduplicated case- and whitespace-insensitively, first occurrence wins.
func (n *Normalizer) Normalize(candidates []*models.RawCandidate) []*models.Product {
	seen := make(map[string]struct{})
	result := make([]*models.Product, 0, len(candidates))
	scrapedAt := n.now().UTC()

	for _, c := range candidates {
		title := normaliseText(c.Title)
		if title == "" {
			continue
		}

		if !isAbsoluteURL(c.URL) {
			n.logger.Debug("[normalizer] Dropping candidate without resolvable URL: %s", title)
			continue
		}

		key := titleKey(title)
		if _, dup := seen[key]; dup {
			n.logger.Debug("[normalizer] Duplicate title skipped: %s", title)
			continue
		}
		seen[key] = struct{}{}

		result = append(result, &models.Product{
			Title:     title,
			Price:     parsePrice(c.PriceText),
			Rating:    parseRating(c.RatingText),
			URL:       c.URL,
			Platform:  n.platform,
			ScrapedAt: scrapedAt,
		})
	}

	n.logger.Info("[normalizer] Normalized %d → %d products (dropped %d)",
		len(candidates), len(result), len(candidates)-len(result))
	return result
}

// parsePrice strips currency symbols and thousands separators and parses the
// remaining digits. Returns nil for missing or unparsable text.
func parsePrice(raw string) *float64 {
	cleaned := strings.ReplaceAll(strings.TrimSpace(raw), ",", "")
	match := priceRegexp.FindString(cleaned)
	if match == "" {
		return nil
	}

	val, err := strconv.ParseFloat(match, 64)
	if err != nil || val < 0 {
		return nil
	}
	return &val
}

// parseRating extracts a numeric rating. Values outside [0, 5] are treated
// as absent, not clamped.
func parseRating(raw string) *float64 {
	match := ratingRegexp.FindStringSubmatch(raw)
	if len(match) < 2 {
		return nil
	}
	val, err := strconv.ParseFloat(match[1], 64)
	if err != nil || val < 0 || val > 5 {
		return nil
	}
	return &val
}

// isAbsoluteURL reports whether s parses as a well-formed absolute URL.
func isAbsoluteURL(s string) bool {
	u, err := url.Parse(strings.TrimSpace(s))
	return err == nil && u.IsAbs() && u.Host != ""
}

// titleKey is the dedup key: case-folded, whitespace-collapsed title.
func titleKey(title string) string {
	return strings.ToLower(normaliseText(title))
}

// normaliseText strips leading/trailing whitespace and collapses internal
// whitespace.
func normaliseText(s string) string {
	fields := strings.FieldsFunc(strings.TrimSpace(s), func(r rune) bool {
		return unicode.IsSpace(r)
	})
	return strings.Join(fields, " ")
}
