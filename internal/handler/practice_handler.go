package handler

import (
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/examind-api/internal/dto"
	"github.com/noah-isme/examind-api/internal/service"
	"github.com/noah-isme/examind-api/internal/utils"
)

// PracticeHandler wires the ungraded practice routes.
type PracticeHandler struct {
	service service.PracticeService
	logger  zerolog.Logger
}

// NewPracticeHandler constructs the handler.
func NewPracticeHandler(service service.PracticeService, logger zerolog.Logger) *PracticeHandler {
	return &PracticeHandler{
		service: service,
		logger:  logger.With().Str("component", "practice_handler").Logger(),
	}
}

// Register attaches practice endpoints to the router group.
func (h *PracticeHandler) Register(router fiber.Router) {
	router.Get("/paper", h.paper)
	router.Post("/submit", h.submit)
}

func (h *PracticeHandler) paper(c *fiber.Ctx) error {
	var payload dto.PracticePaperRequest
	if err := c.QueryParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid query parameters")
	}

	paper, err := h.service.DrawPaper(c.Context(), payload)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "practice paper drawn", paper)
}

func (h *PracticeHandler) submit(c *fiber.Ctx) error {
	var payload dto.PracticeSubmitRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	result, err := h.service.Submit(c.Context(), payload)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "practice scored", result)
}

func (h *PracticeHandler) handleError(c *fiber.Ctx, err error) error {
	var validationErrors validator.ValidationErrors
	if errors.As(err, &validationErrors) {
		return utils.SendError(c, fiber.StatusBadRequest, validationErrors.Error())
	}

	h.logger.Error().Err(err).Msg("internal server error")
	return utils.SendError(c, fiber.StatusInternalServerError, "internal server error")
}
