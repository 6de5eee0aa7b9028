package models

import "time"

// RawCandidate holds one unvalidated listing pulled from a search-result
// page. Fields may be empty or malformed; nothing is checked at this stage.
type RawCandidate struct {
	Title      string
	PriceText  string
	RatingText string
	URL        string
	SourcePage int
}

// Product is the validated, cache-eligible record built from a RawCandidate
// that passed the relevance filter. Price and Rating are nil when the source
// text was missing or unparsable; they serialize as JSON null.
type Product struct {
	Title     string    `json:"title"`
	Price     *float64  `json:"price"`
	Rating    *float64  `json:"rating"`
	URL       string    `json:"url"`
	Platform  string    `json:"platform"`
	ScrapedAt time.Time `json:"scraped_at"`
}

// QueryResult is a result set for one search query. Cached reports whether
// it was served from the cache store or freshly scraped.
type QueryResult struct {
	Query     string     `json:"query"`
	Products  []*Product `json:"products"`
	CreatedAt time.Time  `json:"created_at"`
	Cached    bool       `json:"cached"`
}

// InsightReport holds the computed analytics over one result set.
type InsightReport struct {
	TotalProducts  int        `json:"total_products"`
	PricedProducts int        `json:"priced_products"`
	RatedProducts  int        `json:"rated_products"`
	AveragePrice   float64    `json:"average_price"`
	MinPrice       float64    `json:"min_price"`
	MaxPrice       float64    `json:"max_price"`
	MostExpensive  *Product   `json:"most_expensive"`
	TopRated       []*Product `json:"top_rated"`
	// BestValue is the product with the highest rating/price ratio.
	BestValue      *Product `json:"best_value"`
	BestValueScore float64  `json:"best_value_score"`
}
