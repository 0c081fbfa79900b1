package handler

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/gofiber/fiber/v3"

	"medialib/internal/usecase"
)

// LibraryHandler handles whole-library backup and restore.
type LibraryHandler struct {
	catalog *usecase.CatalogUseCase
	sync    *usecase.Synchronizer
	now     func() time.Time
}

// NewLibraryHandler creates a new library handler.
func NewLibraryHandler(catalog *usecase.CatalogUseCase, sync *usecase.Synchronizer) *LibraryHandler {
	return &LibraryHandler{catalog: catalog, sync: sync, now: time.Now}
}

// Register sets up backup and restore routes.
func (h *LibraryHandler) Register(router fiber.Router) {
	router.Get("/backup", h.Backup)
	router.Post("/restore", h.Restore)
}

// Backup streams every record as a downloadable JSON file.
func (h *LibraryHandler) Backup(c fiber.Ctx) error {
	records, err := h.catalog.Backup(c.Context())
	if err != nil {
		return writeError(c, err, "Failed to create backup")
	}
	data, err := usecase.EncodeBackup(records)
	if err != nil {
		return writeError(c, err, "Failed to create backup")
	}

	filename := fmt.Sprintf("library_backup_%s.json", h.now().UTC().Format("2006-01-02"))
	c.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", filename))
	return c.Send(data)
}

// Restore replaces the library with the posted backup array.
func (h *LibraryHandler) Restore(c fiber.Ctx) error {
	result, err := h.sync.RestoreJSON(c.Context(), c.Body(), nil)
	if err != nil {
		return writeError(c, err, "Failed to restore backup")
	}

	message := fmt.Sprintf("Successfully restored %d items", result.Inserted)
	if len(result.Failed) > 0 {
		message = fmt.Sprintf("Restored %d items, %d failed", result.Inserted, len(result.Failed))
	}
	slog.Info("restore complete", "inserted", result.Inserted, "failed", len(result.Failed))

	return c.JSON(fiber.Map{
		"success": true,
		"count":   result.Inserted,
		"failed":  result.Failed,
		"message": message,
	})
}
