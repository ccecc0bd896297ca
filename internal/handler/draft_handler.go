package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/nexlearn/assess-go-api/internal/builder"
	"github.com/nexlearn/assess-go-api/internal/dto"
	"github.com/nexlearn/assess-go-api/internal/models"
	"github.com/nexlearn/assess-go-api/internal/service"
	"github.com/nexlearn/assess-go-api/internal/utils"
)

// DraftHandler manages the two-phase authoring endpoints.
type DraftHandler struct {
	service service.DraftService
	logger  zerolog.Logger
}

// NewDraftHandler builds a draft handler instance.
func NewDraftHandler(service service.DraftService, logger zerolog.Logger) *DraftHandler {
	return &DraftHandler{
		service: service,
		logger:  logger.With().Str("component", "draft_handler").Logger(),
	}
}

// Register attaches the routes to the provided router group.
func (h *DraftHandler) Register(router fiber.Router) {
	router.Post("", h.start)
	router.Put("/:id/metadata", h.confirmMetadata)
	router.Post("/:id/questions", h.addQuestion)
	router.Put("/:id/questions/:index", h.editQuestion)
	router.Delete("/:id/questions/:index", h.removeQuestion)
	router.Post("/:id/back", h.back)
	router.Post("/:id/finalize", h.finalize)
	router.Delete("/:id", h.discard)
}

func (h *DraftHandler) start(c *fiber.Ctx) error {
	var payload dto.DraftStartRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	draft, err := h.service.Start(c.Context(), payload)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "draft started", draft)
}

func (h *DraftHandler) confirmMetadata(c *fiber.Ctx) error {
	var payload dto.DraftMetadataRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	draft, err := h.service.ConfirmMetadata(c.Context(), c.Params("id"), payload)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "metadata confirmed", draft)
}

func (h *DraftHandler) addQuestion(c *fiber.Ctx) error {
	var payload dto.QuestionRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	draft, err := h.service.AddQuestion(c.Context(), c.Params("id"), payload)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "question added", draft)
}

func (h *DraftHandler) editQuestion(c *fiber.Ctx) error {
	index, err := parseIntParam(c, "index")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	var payload dto.QuestionRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	draft, err := h.service.EditQuestion(c.Context(), c.Params("id"), index, payload)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "question updated", draft)
}

func (h *DraftHandler) removeQuestion(c *fiber.Ctx) error {
	index, err := parseIntParam(c, "index")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	draft, err := h.service.RemoveQuestion(c.Context(), c.Params("id"), index)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "question removed", draft)
}

func (h *DraftHandler) back(c *fiber.Ctx) error {
	draft, err := h.service.Back(c.Context(), c.Params("id"))
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "returned to metadata phase", draft)
}

func (h *DraftHandler) finalize(c *fiber.Ctx) error {
	assessment, err := h.service.Finalize(c.Context(), c.Params("id"))
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "assessment published", assessment)
}

func (h *DraftHandler) discard(c *fiber.Ctx) error {
	if err := h.service.Discard(c.Context(), c.Params("id")); err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "draft discarded", nil)
}

func (h *DraftHandler) handleError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, service.ErrDraftNotFound):
		return utils.SendError(c, fiber.StatusNotFound, "draft not found")
	case errors.Is(err, service.ErrAssessmentNotFound):
		return utils.SendError(c, fiber.StatusNotFound, "assessment not found")
	case errors.Is(err, builder.ErrIncompleteMetadata),
		errors.Is(err, builder.ErrNoQuestions),
		errors.Is(err, builder.ErrWrongPhase),
		errors.Is(err, models.ErrInvalidQuestion):
		return utils.SendError(c, fiber.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, builder.ErrIndexOutOfRange):
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	case isValidationError(err):
		return utils.SendValidationError(c, err)
	default:
		requestLogger(h.logger, c).Error().Err(err).Msg("internal server error")
		return utils.SendError(c, fiber.StatusInternalServerError, "internal server error")
	}
}
