package handler

import (
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/thesis-go-api/internal/dto"
	"github.com/noah-isme/thesis-go-api/internal/service"
	"github.com/noah-isme/thesis-go-api/internal/utils"
)

const (
	defaultActivityPageSize = 25
	maxActivityPageSize     = 200
)

// ActivityHandler serves the audit trail of group, council and schedule changes to staff.
type ActivityHandler struct {
	activity service.ActivityService
	logger   zerolog.Logger
}

func NewActivityHandler(activity service.ActivityService, logger zerolog.Logger) *ActivityHandler {
	return &ActivityHandler{
		activity: activity,
		logger:   logger.With().Str("component", "activity_handler").Logger(),
	}
}

func (h *ActivityHandler) Register(router fiber.Router) {
	router.Get("", h.list)
}

func (h *ActivityHandler) list(c *fiber.Ctx) error {
	req, err := activityQuery(c)
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	result, err := h.activity.List(c.UserContext(), actorFromContext(c), req)
	if err != nil {
		return respondError(c, h.logger, err, "failed to list activity logs")
	}
	return utils.OK(c, result.Items, "activity logs", result.Pagination)
}

func activityQuery(c *fiber.Ctx) (dto.ActivityListRequest, error) {
	var req dto.ActivityListRequest

	page, err := parseQueryInt(c, "page")
	if err != nil {
		return req, fiber.NewError(fiber.StatusBadRequest, "invalid page")
	}
	req.Page = max(page, 1)

	size, err := parseQueryInt(c, "page_size")
	if err != nil {
		return req, fiber.NewError(fiber.StatusBadRequest, "invalid page size")
	}
	switch {
	case size <= 0:
		req.PageSize = defaultActivityPageSize
	case size > maxActivityPageSize:
		req.PageSize = maxActivityPageSize
	default:
		req.PageSize = size
	}

	if req.ActorID, err = parseQueryUint(c, "actor_id"); err != nil {
		return req, fiber.NewError(fiber.StatusBadRequest, "invalid actor id")
	}
	if req.EntityID, err = parseQueryUint(c, "entity_id"); err != nil {
		return req, fiber.NewError(fiber.StatusBadRequest, "invalid entity id")
	}
	if req.From, err = parseQueryTime(c, "from"); err != nil {
		return req, fiber.NewError(fiber.StatusBadRequest, "from must be an RFC3339 timestamp")
	}
	if req.To, err = parseQueryTime(c, "to"); err != nil {
		return req, fiber.NewError(fiber.StatusBadRequest, "to must be an RFC3339 timestamp")
	}

	req.Action = c.Query("action")
	req.EntityType = c.Query("entity_type")
	return req, nil
}

func parseQueryTime(c *fiber.Ctx, key string) (*time.Time, error) {
	raw := strings.TrimSpace(c.Query(key))
	if raw == "" {
		return nil, nil
	}
	parsed, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return nil, err
	}
	return &parsed, nil
}
