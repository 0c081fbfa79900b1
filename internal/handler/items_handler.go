package handler

import (
	"encoding/json"
	"errors"
	"strings"

	"github.com/gofiber/fiber/v3"

	"medialib/internal/domain"
	"medialib/internal/port"
	"medialib/internal/usecase"
)

// ItemsHandler handles catalog CRUD endpoints.
type ItemsHandler struct {
	catalog *usecase.CatalogUseCase
}

// NewItemsHandler creates a new items handler.
func NewItemsHandler(catalog *usecase.CatalogUseCase) *ItemsHandler {
	return &ItemsHandler{catalog: catalog}
}

// Register sets up item routes.
func (h *ItemsHandler) Register(router fiber.Router) {
	router.Get("/items", h.List)
	router.Post("/items", h.Create)
	router.Get("/items/:id", h.Get)
	router.Patch("/items/:id", h.Update)
	router.Delete("/items/:id", h.Delete)
	router.Post("/bulk-import", h.BulkImport)
}

// List returns records filtered by ?search, ?type and ?sortBy.
func (h *ItemsHandler) List(c fiber.Ctx) error {
	filter := domain.ListFilter{
		TitleContains: strings.TrimSpace(c.Query("search")),
		Sort:          domain.SortCreatedDesc,
	}
	if c.Query("sortBy") == string(domain.SortTitleAsc) {
		filter.Sort = domain.SortTitleAsc
	}
	if t := domain.MediaType(strings.ToUpper(c.Query("type"))); t != "" && t != "ALL" {
		if !t.Valid() {
			return badRequest(c, "unknown type "+string(t))
		}
		filter.Type = t
	}

	items, err := h.catalog.List(c.Context(), filter)
	if err != nil {
		return writeError(c, err, "Failed to fetch items")
	}
	if items == nil {
		items = []domain.CatalogRecord{}
	}
	return c.JSON(items)
}

func (h *ItemsHandler) Create(c fiber.Ctx) error {
	var rec domain.CatalogRecord
	if err := c.Bind().JSON(&rec); err != nil {
		return badRequest(c, "invalid request body")
	}

	created, err := h.catalog.Create(c.Context(), rec)
	if err != nil {
		return writeError(c, err, "Failed to create item")
	}
	return c.Status(fiber.StatusCreated).JSON(created)
}

func (h *ItemsHandler) Get(c fiber.Ctx) error {
	rec, err := h.catalog.Get(c.Context(), c.Params("id"))
	if err != nil {
		return writeError(c, err, "Failed to fetch item")
	}
	return c.JSON(rec)
}

// Update applies a partial update; only fields present in the body change.
func (h *ItemsHandler) Update(c fiber.Ctx) error {
	var patch domain.RecordPatch
	if err := c.Bind().JSON(&patch); err != nil {
		return badRequest(c, "invalid request body")
	}

	rec, err := h.catalog.Update(c.Context(), c.Params("id"), patch)
	if err != nil {
		return writeError(c, err, "Failed to update item")
	}
	return c.JSON(rec)
}

func (h *ItemsHandler) Delete(c fiber.Ctx) error {
	if err := h.catalog.Delete(c.Context(), c.Params("id")); err != nil {
		return writeError(c, err, "Failed to delete item")
	}
	return c.JSON(fiber.Map{"success": true})
}

// BulkImport appends {"items": [...]} to the library. Per-item failures are
// reported in the body; the request itself only fails for a non-array.
func (h *ItemsHandler) BulkImport(c fiber.Ctx) error {
	var body struct {
		Items json.RawMessage `json:"items"`
	}
	if err := c.Bind().JSON(&body); err != nil {
		return badRequest(c, "invalid request body")
	}

	result, err := h.catalog.ImportJSON(c.Context(), body.Items, nil)
	if err != nil {
		if errors.Is(err, port.ErrValidation) {
			return badRequest(c, "Items must be an array")
		}
		return writeError(c, err, "Failed to import items")
	}
	return c.JSON(result)
}
