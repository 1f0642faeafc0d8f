package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/examind-api/internal/service"
	"github.com/noah-isme/examind-api/internal/utils"
)

// PublicHandler wires the unauthenticated exam discovery routes.
type PublicHandler struct {
	exams  service.ExamService
	logger zerolog.Logger
}

// NewPublicHandler constructs the handler.
func NewPublicHandler(exams service.ExamService, logger zerolog.Logger) *PublicHandler {
	return &PublicHandler{
		exams:  exams,
		logger: logger.With().Str("component", "public_handler").Logger(),
	}
}

// Register attaches public endpoints to the router group.
func (h *PublicHandler) Register(router fiber.Router) {
	router.Get("/exams", h.ListExams)
	router.Get("/exams/:id", h.getExam)
}

// ListExams returns all published public exams without authentication.
func (h *PublicHandler) ListExams(c *fiber.Ctx) error {
	exams, err := h.exams.ListPublic(c.Context())
	if err != nil {
		h.logger.Error().Err(err).Msg("internal server error")
		return utils.SendError(c, fiber.StatusInternalServerError, "internal server error")
	}

	return utils.SendSuccess(c, "public exams retrieved", exams)
}

func (h *PublicHandler) getExam(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	exam, err := h.exams.GetPublic(c.Context(), id)
	if err != nil {
		if errors.Is(err, service.ErrExamNotFound) {
			return utils.SendError(c, fiber.StatusNotFound, "exam not found")
		}
		h.logger.Error().Err(err).Msg("internal server error")
		return utils.SendError(c, fiber.StatusInternalServerError, "internal server error")
	}

	return utils.SendSuccess(c, "public exam retrieved", exam)
}
