package services

import (
	"fmt"
	"sort"
	"strings"

	"amazon-scraper/models"
	"amazon-scraper/utils"
)

// InsightService computes aggregate analytics over one result set.
type InsightService struct {
	logger *utils.Logger
}

func NewInsightService(logger *utils.Logger) *InsightService {
	return &InsightService{logger: logger}
}

func (s *InsightService) Generate(products []*models.Product) *models.InsightReport {
	report := &models.InsightReport{}

	if len(products) == 0 {
		return report
	}

	report.TotalProducts = len(products)

	var priced []*models.Product
	var rated []*models.Product

	for _, p := range products {
		if p.Price != nil {
			priced = append(priced, p)
		}
		if p.Rating != nil {
			rated = append(rated, p)
		}
	}
	report.PricedProducts = len(priced)
	report.RatedProducts = len(rated)

	if len(priced) > 0 {
		report.MinPrice = *priced[0].Price
		report.MaxPrice = *priced[0].Price
		report.MostExpensive = priced[0]
		var total float64
		for _, p := range priced {
			total += *p.Price
			if *p.Price < report.MinPrice {
				report.MinPrice = *p.Price
			}
			if *p.Price > report.MaxPrice {
				report.MaxPrice = *p.Price
				report.MostExpensive = p
			}
		}
		report.AveragePrice = round2(total / float64(len(priced)))
		report.MinPrice = round2(report.MinPrice)
		report.MaxPrice = round2(report.MaxPrice)
	}

	// Top 5 by rating
	sort.SliceStable(rated, func(i, j int) bool {
		return *rated[i].Rating > *rated[j].Rating
	})
	if len(rated) > 5 {
		report.TopRated = rated[:5]
	} else {
		report.TopRated = rated
	}

	// Best value: highest rating per rupee
	for _, p := range products {
		score := valueScore(p)
		if score > report.BestValueScore {
			report.BestValueScore = score
			report.BestValue = p
		}
	}

	return report
}

// valueScore is rating/price scaled by 10000; higher is better value.
// Products missing either field score zero.
func valueScore(p *models.Product) float64 {
	if p.Price == nil || p.Rating == nil || *p.Price <= 0 {
		return 0
	}
	return round2(*p.Rating / *p.Price * 10000)
}

// Print renders the report for the one-shot CLI mode.
func (s *InsightService) Print(query string, r *models.InsightReport) {
	sep := strings.Repeat("═", 54)
	thin := strings.Repeat("─", 54)

	fmt.Printf("\n\033[1;35m%s\033[0m\n", sep)
	fmt.Printf("\033[1;35m  📊 SCRAPE INSIGHTS — %q\033[0m\n", query)
	fmt.Printf("\033[1;35m%s\033[0m\n\n", sep)

	// Overview
	fmt.Printf("\033[1;33m  Overview\033[0m\n")
	fmt.Printf("  %s\n", thin)
	fmt.Printf("  Relevant products : \033[1m%d\033[0m\n", r.TotalProducts)
	fmt.Printf("  With price        : \033[1m%d\033[0m\n", r.PricedProducts)
	fmt.Printf("  With rating       : \033[1m%d\033[0m\n", r.RatedProducts)
	fmt.Println()

	// Price Stats
	fmt.Printf("\033[1;33m  Price Statistics\033[0m\n")
	fmt.Printf("  %s\n", thin)
	if r.PricedProducts > 0 {
		fmt.Printf("  Average price : \033[1;32m₹%.2f\033[0m\n", r.AveragePrice)
		fmt.Printf("  Minimum price : \033[1;32m₹%.2f\033[0m\n", r.MinPrice)
		fmt.Printf("  Maximum price : \033[1;32m₹%.2f\033[0m\n", r.MaxPrice)
	} else {
		fmt.Printf("  No price data available\n")
	}
	fmt.Println()

	// Most Expensive
	if r.MostExpensive != nil {
		fmt.Printf("\033[1;33m  Most Expensive Product\033[0m\n")
		fmt.Printf("  %s\n", thin)
		fmt.Printf("  %s\n", truncate(r.MostExpensive.Title, 50))
		fmt.Printf("  Price : \033[1;31m₹%.2f\033[0m\n", *r.MostExpensive.Price)
		fmt.Println()
	}

	// Top rated
	fmt.Printf("\033[1;33m  Top Rated Products\033[0m\n")
	fmt.Printf("  %s\n", thin)
	if len(r.TopRated) == 0 {
		fmt.Printf("  No rated products found\n")
	} else {
		for i, p := range r.TopRated {
			fmt.Printf("  \033[1m%d.\033[0m %-40s \033[1;32m%.2f ★\033[0m\n",
				i+1, truncate(p.Title, 38), *p.Rating)
		}
	}
	fmt.Println()

	// Best value
	if r.BestValue != nil {
		fmt.Printf("\033[1;33m  Best Value (rating per ₹)\033[0m\n")
		fmt.Printf("  %s\n", thin)
		fmt.Printf("  %s — score %.2f\n", truncate(r.BestValue.Title, 46), r.BestValueScore)
	}

	fmt.Printf("\n\033[1;35m%s\033[0m\n\n", sep)
}

func round2(f float64) float64 {
	return float64(int(f*100+0.5)) / 100
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max-3] + "..."
}
