package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/thesis-go-api/internal/dto"
	"github.com/noah-isme/thesis-go-api/internal/service"
	"github.com/noah-isme/thesis-go-api/internal/utils"
)

// GroupHandler exposes group formation endpoints.
type GroupHandler struct {
	groups service.GroupService
	topics service.TopicService
	logger zerolog.Logger
}

// NewGroupHandler constructs the handler.
func NewGroupHandler(groups service.GroupService, topics service.TopicService, logger zerolog.Logger) *GroupHandler {
	return &GroupHandler{
		groups: groups,
		topics: topics,
		logger: logger.With().Str("component", "group_handler").Logger(),
	}
}

// Register attaches group routes to the router group.
func (h *GroupHandler) Register(router fiber.Router) {
	router.Post("", h.create)
	router.Get("", h.list)
	router.Post("/randomize", h.randomize)
	router.Post("/invitations/:id/respond", h.respond)
	router.Get("/:id", h.get)
	router.Delete("/:id", h.delete)
	router.Post("/:id/invitations", h.invite)
	router.Patch("/:id/leader", h.changeLeader)
	router.Post("/:id/mentors", h.addMentor)
	router.Delete("/:id/members/:userId", h.removeMember)
	router.Get("/:id/topic", h.getTopic)
	router.Post("/:id/topic", h.assignTopic)
	router.Post("/:id/mentor-decision", h.mentorDecision)
}

func (h *GroupHandler) create(c *fiber.Ctx) error {
	var payload dto.CreateGroupRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	group, err := h.groups.Create(c.UserContext(), actorFromContext(c), payload)
	if err != nil {
		return respondError(c, h.logger, err, "failed to create group")
	}
	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "group created", group)
}

func (h *GroupHandler) list(c *fiber.Ctx) error {
	semesterID, err := parseQueryUint(c, "semester_id")
	if err != nil || semesterID == 0 {
		return utils.SendError(c, fiber.StatusBadRequest, "semester_id is required")
	}

	groups, err := h.groups.List(c.UserContext(), semesterID)
	if err != nil {
		return respondError(c, h.logger, err, "failed to list groups")
	}
	return utils.SendSuccess(c, "groups", groups)
}

func (h *GroupHandler) get(c *fiber.Ctx) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return respondError(c, h.logger, err, "")
	}

	group, err := h.groups.Get(c.UserContext(), id)
	if err != nil {
		return respondError(c, h.logger, err, "failed to load group")
	}
	return utils.SendSuccess(c, "group", group)
}

func (h *GroupHandler) delete(c *fiber.Ctx) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return respondError(c, h.logger, err, "")
	}

	if err := h.groups.Delete(c.UserContext(), actorFromContext(c), id); err != nil {
		return respondError(c, h.logger, err, "failed to delete group")
	}
	return utils.SendSuccess(c, "group deleted", nil)
}

func (h *GroupHandler) invite(c *fiber.Ctx) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return respondError(c, h.logger, err, "")
	}

	var payload dto.InviteMemberRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	invitation, err := h.groups.Invite(c.UserContext(), actorFromContext(c), id, payload)
	if err != nil {
		return respondError(c, h.logger, err, "failed to invite member")
	}
	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "invitation sent", invitation)
}

func (h *GroupHandler) respond(c *fiber.Ctx) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return respondError(c, h.logger, err, "")
	}

	var payload dto.RespondInvitationRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	invitation, err := h.groups.RespondToInvitation(c.UserContext(), actorFromContext(c), id, payload)
	if err != nil {
		return respondError(c, h.logger, err, "failed to respond to invitation")
	}
	return utils.SendSuccess(c, "invitation updated", invitation)
}

func (h *GroupHandler) randomize(c *fiber.Ctx) error {
	var payload dto.RandomizeGroupsRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	groups, err := h.groups.Randomize(c.UserContext(), actorFromContext(c), payload)
	if err != nil {
		return respondError(c, h.logger, err, "failed to randomize groups")
	}
	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "groups randomized", groups)
}

func (h *GroupHandler) changeLeader(c *fiber.Ctx) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return respondError(c, h.logger, err, "")
	}

	var payload dto.ChangeLeaderRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	group, err := h.groups.ChangeLeader(c.UserContext(), actorFromContext(c), id, payload)
	if err != nil {
		return respondError(c, h.logger, err, "failed to change leader")
	}
	return utils.SendSuccess(c, "leader changed", group)
}

func (h *GroupHandler) addMentor(c *fiber.Ctx) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return respondError(c, h.logger, err, "")
	}

	var payload dto.AddMentorRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	group, err := h.groups.AddMentor(c.UserContext(), actorFromContext(c), id, payload)
	if err != nil {
		return respondError(c, h.logger, err, "failed to add mentor")
	}
	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "mentor added", group)
}

func (h *GroupHandler) removeMember(c *fiber.Ctx) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return respondError(c, h.logger, err, "")
	}
	userID, err := parseIDParam(c, "userId")
	if err != nil {
		return respondError(c, h.logger, err, "")
	}

	if err := h.groups.RemoveMember(c.UserContext(), actorFromContext(c), id, userID); err != nil {
		return respondError(c, h.logger, err, "failed to remove member")
	}
	return utils.SendSuccess(c, "member removed", nil)
}

func (h *GroupHandler) getTopic(c *fiber.Ctx) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return respondError(c, h.logger, err, "")
	}

	assignment, err := h.topics.Get(c.UserContext(), id)
	if err != nil {
		return respondError(c, h.logger, err, "failed to load topic assignment")
	}
	return utils.SendSuccess(c, "topic assignment", assignment)
}

func (h *GroupHandler) assignTopic(c *fiber.Ctx) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return respondError(c, h.logger, err, "")
	}

	var payload dto.AssignTopicRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	assignment, err := h.topics.Assign(c.UserContext(), actorFromContext(c), id, payload)
	if err != nil {
		return respondError(c, h.logger, err, "failed to assign topic")
	}
	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "topic assigned", assignment)
}

func (h *GroupHandler) mentorDecision(c *fiber.Ctx) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return respondError(c, h.logger, err, "")
	}

	var payload dto.MentorDecisionRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	assignment, err := h.topics.MentorDecision(c.UserContext(), actorFromContext(c), id, payload)
	if err != nil {
		return respondError(c, h.logger, err, "failed to record mentor decision")
	}
	return utils.SendSuccess(c, "mentor decision recorded", assignment)
}
