package handler

import (
	"github.com/gofiber/fiber/v3"

	"medialib/internal/port"
)

// HealthHandler reports store and index reachability.
type HealthHandler struct {
	appName  string
	records  port.RecordStore
	index    port.VectorIndex
	embedder port.Embedder
	llm      port.LLM
}

// NewHealthHandler creates a new health handler.
func NewHealthHandler(appName string, records port.RecordStore, index port.VectorIndex, embedder port.Embedder, llm port.LLM) *HealthHandler {
	return &HealthHandler{appName: appName, records: records, index: index, embedder: embedder, llm: llm}
}

func (h *HealthHandler) Register(router fiber.Router) {
	router.Get("/health", h.Health)
}

// Health is "healthy", "degraded" (index down, catalog usable) or
// "unhealthy" (record store down).
func (h *HealthHandler) Health(c fiber.Ctx) error {
	body := fiber.Map{
		"status":         "healthy",
		"app":            h.appName,
		"embeddingModel": h.embedder.ModelName(),
	}
	if h.llm != nil {
		body["generationModel"] = h.llm.ModelName()
	}

	items, err := h.records.Count(c.Context())
	if err != nil {
		body["status"] = "unhealthy"
		body["error"] = err.Error()
		return c.Status(fiber.StatusServiceUnavailable).JSON(body)
	}
	body["items"] = items

	indexed, err := h.index.Count(c.Context())
	if err != nil {
		body["status"] = "degraded"
		body["indexError"] = err.Error()
	} else {
		body["indexed"] = indexed
	}
	return c.JSON(body)
}
