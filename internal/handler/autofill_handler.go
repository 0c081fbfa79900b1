package handler

import (
	"github.com/gofiber/fiber/v3"

	"medialib/internal/domain"
	"medialib/internal/usecase"
)

// AutofillHandler drafts record fields for the add-item form.
type AutofillHandler struct {
	autofill *usecase.AutofillUseCase
}

func NewAutofillHandler(autofill *usecase.AutofillUseCase) *AutofillHandler {
	return &AutofillHandler{autofill: autofill}
}

func (h *AutofillHandler) Register(router fiber.Router) {
	router.Post("/autofill", h.Autofill)
}

// Autofill returns a draft for {title, type}. Nothing is stored.
func (h *AutofillHandler) Autofill(c fiber.Ctx) error {
	var body struct {
		Title string           `json:"title"`
		Type  domain.MediaType `json:"type"`
	}
	if err := c.Bind().JSON(&body); err != nil || body.Title == "" || body.Type == "" {
		return badRequest(c, "Missing required fields: title and type")
	}

	draft, err := h.autofill.Autofill(c.Context(), body.Title, body.Type)
	if err != nil {
		return writeError(c, err, "Failed to auto-fill data")
	}
	return c.JSON(draft)
}
