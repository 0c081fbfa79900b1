package handler

import (
	"strings"

	"github.com/gofiber/fiber/v3"

	"medialib/internal/adapter/cache"
	"medialib/internal/domain"
	"medialib/internal/usecase"
)

// SearchHandler handles semantic search, recommendation and query
// enhancement endpoints.
type SearchHandler struct {
	searcher  cache.Searcher
	recommend *usecase.RecommendUseCase
	enhance   *usecase.EnhanceUseCase
}

// NewSearchHandler creates a new search handler.
func NewSearchHandler(searcher cache.Searcher, recommend *usecase.RecommendUseCase, enhance *usecase.EnhanceUseCase) *SearchHandler {
	return &SearchHandler{searcher: searcher, recommend: recommend, enhance: enhance}
}

// Register sets up search routes.
func (h *SearchHandler) Register(router fiber.Router) {
	router.Post("/search", h.Search)
	router.Post("/random", h.Random)
	router.Post("/enhance-query", h.Enhance)
}

// Search returns a bare JSON array of explained results, possibly empty.
func (h *SearchHandler) Search(c fiber.Ctx) error {
	var body struct {
		Query      string `json:"query"`
		MaxResults int    `json:"maxResults"`
	}
	if err := c.Bind().JSON(&body); err != nil || strings.TrimSpace(body.Query) == "" {
		return badRequest(c, "Query is required")
	}

	results, err := h.searcher.Search(c.Context(), body.Query, body.MaxResults)
	if err != nil {
		return writeError(c, err, searchFailed)
	}
	if results == nil {
		results = []domain.SearchResult{}
	}
	return c.JSON(results)
}

// Random picks an item close to an optional prompt, or at random.
func (h *SearchHandler) Random(c fiber.Ctx) error {
	var body struct {
		Prompt string `json:"prompt"`
	}
	if len(c.Body()) > 0 {
		if err := c.Bind().JSON(&body); err != nil {
			return badRequest(c, "invalid request body")
		}
	}

	rec, err := h.recommend.Recommend(c.Context(), body.Prompt)
	if err != nil {
		return writeError(c, err, "Failed to get recommendation")
	}
	return c.JSON(rec)
}

func (h *SearchHandler) Enhance(c fiber.Ctx) error {
	var body struct {
		Query string `json:"query"`
	}
	if err := c.Bind().JSON(&body); err != nil || strings.TrimSpace(body.Query) == "" {
		return badRequest(c, "Query is required")
	}

	enhanced, err := h.enhance.Enhance(c.Context(), body.Query)
	if err != nil {
		return writeError(c, err, "Failed to enhance query")
	}
	return c.JSON(enhanced)
}
