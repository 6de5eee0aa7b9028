package services

import (
	"strings"

	"github.com/PuerkitoBio/goquery"

	"amazon-scraper/models"
	"amazon-scraper/utils"
)

// Extractor pulls raw product candidates out of search-result markup. It is
// purely structural: missing fields stay empty and malformed markup yields
// zero candidates, never an error. All semantic validation happens later in
// the Normalizer.
type Extractor struct {
	baseURL string
	logger  *utils.Logger
}

// NewExtractor creates an Extractor. Relative listing links are resolved
// against baseURL.
func NewExtractor(baseURL string, logger *utils.Logger) *Extractor {
	return &Extractor{baseURL: strings.TrimRight(baseURL, "/"), logger: logger}
}

// Extract parses one page of markup into candidates in document order.
func (e *Extractor) Extract(html string, page int) []*models.RawCandidate {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		e.logger.Warn("[extractor] Page %d: unparsable markup: %v", page, err)
		return nil
	}

	cards := doc.Find(`div[data-component-type="s-search-result"]`)
	e.logger.Debug("[extractor] Page %d: found %d product cards", page, cards.Length())

	var candidates []*models.RawCandidate
	cards.Each(func(_ int, card *goquery.Selection) {
		title := extractTitle(card)
		if title == "" {
			return
		}

		candidates = append(candidates, &models.RawCandidate{
			Title:      title,
			PriceText:  extractPriceText(card),
			RatingText: extractRatingText(card),
			URL:        e.extractURL(card),
			SourcePage: page,
		})
	})

	return candidates
}

// extractTitle tries the title span first, then the link aria-label, then the
// image alt text. Very short strings are badges, not titles.
func extractTitle(card *goquery.Selection) string {
	if t := strings.TrimSpace(card.Find("h2 span.a-text-normal").First().Text()); len(t) > 10 {
		return t
	}

	link := card.Find("h2 a").First()
	if label, ok := link.Attr("aria-label"); ok {
		if t := strings.TrimSpace(label); len(t) > 10 {
			return t
		}
	}
	if t := strings.TrimSpace(link.Text()); len(t) > 10 {
		return t
	}

	if alt, ok := card.Find("img.s-image").First().Attr("alt"); ok {
		if t := strings.TrimSpace(alt); len(t) > 10 {
			return t
		}
	}

	return ""
}

func extractPriceText(card *goquery.Selection) string {
	// Whole-number part is the most reliable; the offscreen accessibility
	// price (e.g. "₹3,990.00") is the fallback.
	if t := strings.TrimSpace(card.Find(".a-price-whole").First().Text()); t != "" {
		return t
	}
	return strings.TrimSpace(card.Find(".a-offscreen").First().Text())
}

func extractRatingText(card *goquery.Selection) string {
	star := card.Find(`span[aria-label*="star"]`).First()
	if star.Length() > 0 {
		if t := strings.TrimSpace(star.Text()); t != "" {
			return t
		}
		if label, ok := star.Attr("aria-label"); ok {
			return strings.TrimSpace(label)
		}
	}

	if t := strings.TrimSpace(card.Find(`i[class*="a-star"]`).First().Text()); t != "" {
		return t
	}
	return ""
}

func (e *Extractor) extractURL(card *goquery.Selection) string {
	href, ok := card.Find("h2 a").First().Attr("href")
	if !ok {
		return ""
	}
	href = strings.TrimSpace(href)
	if href == "" || strings.HasPrefix(href, "http") {
		return href
	}
	if !strings.HasPrefix(href, "/") {
		href = "/" + href
	}
	return e.baseURL + href
}
