package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/nexlearn/assess-go-api/internal/dto"
	"github.com/nexlearn/assess-go-api/internal/service"
	"github.com/nexlearn/assess-go-api/internal/utils"
)

// GradingHandler wires the grading workflow endpoints.
type GradingHandler struct {
	service service.GradingService
	logger  zerolog.Logger
}

// NewGradingHandler constructs the handler.
func NewGradingHandler(service service.GradingService, logger zerolog.Logger) *GradingHandler {
	return &GradingHandler{
		service: service,
		logger:  logger.With().Str("component", "grading_handler").Logger(),
	}
}

// Register attaches grading endpoints to the router group.
func (h *GradingHandler) Register(router fiber.Router) {
	router.Patch("/:id/marks", h.recordMark)
	router.Post("/:id/auto-grade", h.autoGrade)
	router.Patch("/:id/grade", h.override)
}

func (h *GradingHandler) recordMark(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid identifier")
	}

	var payload dto.RecordMarkRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	grader := service.Grader{ID: userIDFromContext(c)}
	submission, err := h.service.RecordMark(c.Context(), id, payload, grader)
	if err != nil {
		return h.handleError(c, id, err)
	}

	return utils.SendSuccess(c, "mark recorded", submission)
}

func (h *GradingHandler) autoGrade(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid identifier")
	}

	grader := service.Grader{ID: userIDFromContext(c)}
	submission, err := h.service.AutoGrade(c.Context(), id, grader)
	if err != nil {
		return h.handleError(c, id, err)
	}

	return utils.SendSuccess(c, "choice questions graded", submission)
}

func (h *GradingHandler) override(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid identifier")
	}

	var payload dto.GradeOverrideRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	grader := service.Grader{ID: userIDFromContext(c)}
	submission, err := h.service.Override(c.Context(), id, payload, grader)
	if err != nil {
		return h.handleError(c, id, err)
	}

	return utils.SendSuccess(c, "total grade set", submission)
}

func (h *GradingHandler) handleError(c *fiber.Ctx, id uint, err error) error {
	switch {
	case errors.Is(err, service.ErrSubmissionNotFound):
		return utils.SendError(c, fiber.StatusNotFound, "submission not found")
	case errors.Is(err, service.ErrMarkOutOfRange),
		errors.Is(err, service.ErrQuestionIndexOutOfRange):
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrNotAutoGradable):
		return utils.SendError(c, fiber.StatusUnprocessableEntity, err.Error())
	case isValidationError(err):
		return utils.SendValidationError(c, err)
	default:
		requestLogger(h.logger, c).Error().Err(err).Uint("submission_id", id).Msg("failed to grade submission")
		return utils.SendError(c, fiber.StatusInternalServerError, "failed to grade submission")
	}
}
