package handler

import (
	"context"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/thesis-go-api/internal/dto"
	"github.com/noah-isme/thesis-go-api/internal/service"
	"github.com/noah-isme/thesis-go-api/internal/utils"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// ScheduleHandler exposes review/defense scheduling and defense evaluation endpoints.
type ScheduleHandler struct {
	service service.ScheduleService
	logger  zerolog.Logger
}

// NewScheduleHandler constructs the handler.
func NewScheduleHandler(service service.ScheduleService, logger zerolog.Logger) *ScheduleHandler {
	return &ScheduleHandler{
		service: service,
		logger:  logger.With().Str("component", "schedule_handler").Logger(),
	}
}

// RegisterCouncilRoutes attaches the schedule routes nested under a council.
func (h *ScheduleHandler) RegisterCouncilRoutes(router fiber.Router) {
	router.Post("/:id/review-schedules", h.createReview)
	router.Post("/:id/defense-schedules", h.createDefense)
	router.Get("/:id/schedules", h.list)
	router.Get("/:id/schedules/export", h.export)
}

// Register attaches the defense evaluation routes.
func (h *ScheduleHandler) Register(router fiber.Router) {
	router.Put("/:id/results/:studentId", h.evaluate)
}

func (h *ScheduleHandler) createReview(c *fiber.Ctx) error {
	return h.create(c, h.service.CreateReviewSchedules, "review sessions scheduled")
}

func (h *ScheduleHandler) createDefense(c *fiber.Ctx) error {
	return h.create(c, h.service.CreateDefenseSchedules, "defense sessions scheduled")
}

type scheduleCreator func(ctx context.Context, actor service.Actor, councilID uint, payload dto.CreateScheduleRequest) ([]dto.ScheduleResponse, error)

func (h *ScheduleHandler) create(c *fiber.Ctx, creator scheduleCreator, message string) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return respondError(c, h.logger, err, "")
	}

	var payload dto.CreateScheduleRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	schedules, err := creator(c.UserContext(), actorFromContext(c), id, payload)
	if err != nil {
		return respondError(c, h.logger, err, "failed to create schedules")
	}
	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, message, schedules)
}

func (h *ScheduleHandler) list(c *fiber.Ctx) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return respondError(c, h.logger, err, "")
	}

	schedules, err := h.service.ListCouncilSchedules(c.UserContext(), id)
	if err != nil {
		return respondError(c, h.logger, err, "failed to list schedules")
	}
	return utils.SendSuccess(c, "schedules", schedules)
}

func (h *ScheduleHandler) export(c *fiber.Ctx) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return respondError(c, h.logger, err, "")
	}

	content, filename, err := h.service.ExportCouncilSchedules(c.UserContext(), actorFromContext(c), id)
	if err != nil {
		return respondError(c, h.logger, err, "failed to export schedules")
	}

	c.Attachment(filename)
	c.Set(fiber.HeaderContentType, xlsxContentType)
	return c.Status(fiber.StatusOK).Send(content)
}

func (h *ScheduleHandler) evaluate(c *fiber.Ctx) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return respondError(c, h.logger, err, "")
	}
	studentID, err := parseIDParam(c, "studentId")
	if err != nil {
		return respondError(c, h.logger, err, "")
	}

	var payload dto.EvaluateDefenseRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	result, err := h.service.EvaluateDefenseMember(c.UserContext(), actorFromContext(c), id, studentID, payload)
	if err != nil {
		return respondError(c, h.logger, err, "failed to record defense result")
	}
	return utils.SendSuccess(c, "defense result recorded", result)
}
