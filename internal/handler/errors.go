package handler

import (
	"errors"
	"log/slog"

	"github.com/gofiber/fiber/v3"

	"medialib/internal/port"
	"medialib/internal/usecase"
)

const (
	// searchFailed is the only message shown when the index cannot be reached.
	searchFailed   = "Search failed. Please try again."
	contentBlocked = "AI processing failed due to content policy. Please add details manually."
	draftUnusable  = "Failed to parse AI response. Please try again."
)

// writeError maps err to a status and a JSON error body. fallback is shown
// for unclassified failures so internals do not leak.
func writeError(c fiber.Ctx, err error, fallback string) error {
	status, message := classify(err, fallback)
	if status >= fiber.StatusInternalServerError {
		slog.Error("request failed", "method", c.Method(), "path", c.Path(), "status", status, "error", err)
	}
	return c.Status(status).JSON(fiber.Map{"error": message})
}

func classify(err error, fallback string) (int, string) {
	switch {
	case errors.Is(err, port.ErrValidation):
		return fiber.StatusBadRequest, err.Error()
	case errors.Is(err, port.ErrNotFound):
		return fiber.StatusNotFound, err.Error()
	case errors.Is(err, port.ErrConflict), errors.Is(err, port.ErrRestoreInProgress):
		return fiber.StatusConflict, err.Error()
	case errors.Is(err, port.ErrSearchUnavailable):
		return fiber.StatusServiceUnavailable, searchFailed
	case errors.Is(err, port.ErrGenerationDisabled):
		return fiber.StatusServiceUnavailable, err.Error()
	case errors.Is(err, port.ErrContentBlocked):
		return fiber.StatusUnprocessableEntity, contentBlocked
	case errors.Is(err, usecase.ErrUnusableDraft):
		return fiber.StatusInternalServerError, draftUnusable
	default:
		return fiber.StatusInternalServerError, fallback
	}
}

func badRequest(c fiber.Ctx, message string) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": message})
}
