package services

import "strings"

// accessorySignals are phrases indicating the listing is an accessory FOR a
// product rather than the product itself. A title is rejected when one of
// these appears at or before the first occurrence of the primary query
// keyword ("USB Cable Compatible with Sony Headphones" is a cable, not
// headphones).
var accessorySignals = []string{
	"compatible with",
	"compatible for",
	"cable for",
	"case for",
	"cover for",
	"strap for",
	"charger for",
	"charging cable",
	"charging cord",
	"screen protector for",
	"screen guard",
	"tempered glass",
	"mfi certified",
	"mfi-certified",
}

// primaryKeywordWindow is how deep into the title the primary query keyword
// must first appear. Listings that bury the primary term are mis-tagged or
// low-relevance.
const primaryKeywordWindow = 60

// IsRelevant reports whether a candidate title genuinely matches the query.
// It is a pure function of (title, query): same inputs, same answer.
func IsRelevant(title, query string) bool {
	t := strings.ToLower(strings.TrimSpace(title))
	keywords := QueryKeywords(query)
	if t == "" || len(keywords) == 0 {
		return false
	}

	// Every query keyword must appear in the title.
	for _, kw := range keywords {
		if keywordIndex(t, kw) < 0 {
			return false
		}
	}

	// The primary keyword must show up early.
	primaryIdx := keywordIndex(t, keywords[0])
	if primaryIdx >= primaryKeywordWindow {
		return false
	}

	// Accessory language before the primary keyword means the listing is an
	// add-on for the product, not the product.
	for _, signal := range accessorySignals {
		if idx := strings.Index(t, signal); idx >= 0 && idx <= primaryIdx {
			return false
		}
	}

	return true
}

// QueryKeywords tokenizes a query into case-folded keywords. The first
// keyword is the primary one.
func QueryKeywords(query string) []string {
	return strings.Fields(strings.ToLower(query))
}

// keywordIndex returns the first index of the keyword in the title, matching
// singular and plural forms both ways ("headphones" matches "headphone" and
// vice versa). Returns -1 when no form occurs.
func keywordIndex(title, keyword string) int {
	best := -1
	for _, form := range keywordForms(keyword) {
		if idx := strings.Index(title, form); idx >= 0 && (best < 0 || idx < best) {
			best = idx
		}
	}
	return best
}

func keywordForms(keyword string) []string {
	forms := []string{keyword}
	if strings.HasSuffix(keyword, "s") && len(keyword) > 1 {
		forms = append(forms, strings.TrimSuffix(keyword, "s"))
	} else {
		forms = append(forms, keyword+"s")
	}
	return forms
}
