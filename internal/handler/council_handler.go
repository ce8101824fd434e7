package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/thesis-go-api/internal/dto"
	"github.com/noah-isme/thesis-go-api/internal/service"
	"github.com/noah-isme/thesis-go-api/internal/utils"
)

// CouncilHandler exposes council composition endpoints.
type CouncilHandler struct {
	service service.CouncilService
	logger  zerolog.Logger
}

// NewCouncilHandler constructs the handler.
func NewCouncilHandler(service service.CouncilService, logger zerolog.Logger) *CouncilHandler {
	return &CouncilHandler{
		service: service,
		logger:  logger.With().Str("component", "council_handler").Logger(),
	}
}

// Register attaches council routes to the router group.
func (h *CouncilHandler) Register(router fiber.Router) {
	router.Post("", h.create)
	router.Get("", h.list)
	router.Get("/:id", h.get)
	router.Delete("/:id", h.delete)
	router.Post("/:id/members", h.addMember)
	router.Put("/:id/members", h.replaceMembers)
	router.Delete("/:id/members/:userId", h.removeMember)
}

func (h *CouncilHandler) create(c *fiber.Ctx) error {
	var payload dto.CreateCouncilRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	council, err := h.service.Create(c.UserContext(), actorFromContext(c), payload)
	if err != nil {
		return respondError(c, h.logger, err, "failed to create council")
	}
	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "council created", council)
}

func (h *CouncilHandler) list(c *fiber.Ctx) error {
	semesterID, err := parseQueryUint(c, "semester_id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid semester id")
	}
	round, err := parseQueryInt(c, "round")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid round")
	}

	councils, err := h.service.List(c.UserContext(), dto.CouncilListQuery{
		SemesterID: semesterID,
		Type:       c.Query("type"),
		Round:      round,
	})
	if err != nil {
		return respondError(c, h.logger, err, "failed to list councils")
	}
	return utils.SendSuccess(c, "councils", councils)
}

func (h *CouncilHandler) get(c *fiber.Ctx) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return respondError(c, h.logger, err, "")
	}

	council, err := h.service.Get(c.UserContext(), id)
	if err != nil {
		return respondError(c, h.logger, err, "failed to load council")
	}
	return utils.SendSuccess(c, "council", council)
}

func (h *CouncilHandler) delete(c *fiber.Ctx) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return respondError(c, h.logger, err, "")
	}

	if err := h.service.Delete(c.UserContext(), actorFromContext(c), id); err != nil {
		return respondError(c, h.logger, err, "failed to delete council")
	}
	return utils.SendSuccess(c, "council deleted", nil)
}

func (h *CouncilHandler) addMember(c *fiber.Ctx) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return respondError(c, h.logger, err, "")
	}

	var payload dto.CouncilMemberRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	council, err := h.service.AddMember(c.UserContext(), actorFromContext(c), id, payload)
	if err != nil {
		return respondError(c, h.logger, err, "failed to add council member")
	}
	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "council member added", council)
}

func (h *CouncilHandler) replaceMembers(c *fiber.Ctx) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return respondError(c, h.logger, err, "")
	}

	var payload dto.ReplaceCouncilMembersRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	council, err := h.service.ReplaceMembers(c.UserContext(), actorFromContext(c), id, payload)
	if err != nil {
		return respondError(c, h.logger, err, "failed to replace council members")
	}
	return utils.SendSuccess(c, "council roster replaced", council)
}

func (h *CouncilHandler) removeMember(c *fiber.Ctx) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return respondError(c, h.logger, err, "")
	}
	userID, err := parseIDParam(c, "userId")
	if err != nil {
		return respondError(c, h.logger, err, "")
	}

	if err := h.service.RemoveMember(c.UserContext(), actorFromContext(c), id, userID); err != nil {
		return respondError(c, h.logger, err, "failed to remove council member")
	}
	return utils.SendSuccess(c, "council member removed", nil)
}
