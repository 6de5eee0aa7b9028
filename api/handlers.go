package api

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"amazon-scraper/config"
	"amazon-scraper/models"
	"amazon-scraper/services"
	"amazon-scraper/utils"
)

// Searcher is the orchestrator capability the handlers depend on.
type Searcher interface {
	Search(ctx context.Context, query string, limit int, minRating float64) (*models.QueryResult, error)
}

// ProductResponse is the envelope for a product search.
type ProductResponse struct {
	Query    string            `json:"query"`
	Count    int               `json:"count"`
	Cached   bool              `json:"cached"`
	Products []*models.Product `json:"products"`
}

// ProductHandler serves the query endpoints.
type ProductHandler struct {
	cfg      *config.Config
	searcher Searcher
	insights *services.InsightService
	logger   *utils.Logger
}

func NewProductHandler(cfg *config.Config, searcher Searcher, logger *utils.Logger) *ProductHandler {
	return &ProductHandler{
		cfg:      cfg,
		searcher: searcher,
		insights: services.NewInsightService(logger),
		logger:   logger,
	}
}

// SetupRoutes registers the product endpoints on the router.
func (h *ProductHandler) SetupRoutes(router fiber.Router) {
	router.Get("/products", h.GetProducts)
	router.Get("/insights", h.GetInsights)
}

// GetProducts handles GET /api/products?query=&limit=&min_rating=.
func (h *ProductHandler) GetProducts(c *fiber.Ctx) error {
	query, limit, minRating, err := h.parseSearchParams(c)
	if err != nil {
		return err
	}

	result, err := h.search(c, query, limit, minRating)
	if err != nil {
		return err
	}

	return c.JSON(ProductResponse{
		Query:    result.Query,
		Count:    len(result.Products),
		Cached:   result.Cached,
		Products: result.Products,
	})
}

// GetInsights handles GET /api/insights?query=, returning aggregate
// analytics over the (possibly cached) result set for the query.
func (h *ProductHandler) GetInsights(c *fiber.Ctx) error {
	query, _, _, err := h.parseSearchParams(c)
	if err != nil {
		return err
	}

	// Insights always run over the full result set.
	result, err := h.search(c, query, 0, 0)
	if err != nil {
		return err
	}

	report := h.insights.Generate(result.Products)
	return c.JSON(fiber.Map{
		"query":   result.Query,
		"cached":  result.Cached,
		"report":  report,
	})
}

func (h *ProductHandler) search(c *fiber.Ctx, query string, limit int, minRating float64) (*models.QueryResult, error) {
	ctx, cancel := context.WithTimeout(c.UserContext(),
		time.Duration(h.cfg.RequestTimeoutSec)*time.Second)
	defer cancel()

	result, err := h.searcher.Search(ctx, query, limit, minRating)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrSourceUnreachable):
			return nil, fiber.NewError(fiber.StatusBadGateway,
				"source unreachable: no result pages could be fetched")
		case errors.Is(err, context.DeadlineExceeded):
			return nil, fiber.NewError(fiber.StatusGatewayTimeout,
				"search timed out — please try again")
		default:
			h.logger.Error("[api] Search failed for %q: %v", query, err)
			return nil, fiber.NewError(fiber.StatusInternalServerError, "search failed")
		}
	}
	return result, nil
}

// parseSearchParams validates the request before the orchestrator runs.
// Each failure names the offending parameter.
func (h *ProductHandler) parseSearchParams(c *fiber.Ctx) (query string, limit int, minRating float64, err error) {
	query = strings.TrimSpace(c.Query("query"))
	if len([]rune(query)) < 2 {
		return "", 0, 0, fiber.NewError(fiber.StatusBadRequest,
			"query: must be at least 2 characters")
	}

	limit = 20
	if raw := c.Query("limit"); raw != "" {
		limit, err = strconv.Atoi(raw)
		if err != nil || limit < 1 || limit > 100 {
			return "", 0, 0, fiber.NewError(fiber.StatusBadRequest,
				"limit: must be an integer between 1 and 100")
		}
	}

	minRating = 0
	if raw := c.Query("min_rating"); raw != "" {
		minRating, err = strconv.ParseFloat(raw, 64)
		if err != nil || minRating < 0 || minRating > 5 {
			return "", 0, 0, fiber.NewError(fiber.StatusBadRequest,
				"min_rating: must be a number between 0 and 5")
		}
	}

	return query, limit, minRating, nil
}
