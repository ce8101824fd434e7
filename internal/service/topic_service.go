package service

import (
	"context"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/noah-isme/thesis-go-api/internal/dto"
	"github.com/noah-isme/thesis-go-api/internal/models"
	"github.com/noah-isme/thesis-go-api/internal/repository"
)

// TopicService binds topics to groups and records mentor readiness decisions.
type TopicService interface {
	Assign(ctx context.Context, actor Actor, groupID uint, payload dto.AssignTopicRequest) (dto.TopicAssignmentResponse, error)
	Get(ctx context.Context, groupID uint) (dto.TopicAssignmentResponse, error)
	MentorDecision(ctx context.Context, actor Actor, groupID uint, payload dto.MentorDecisionRequest) (dto.TopicAssignmentResponse, error)
}

type topicService struct {
	store     *repository.Store
	authz     Authorizer
	validator *validator.Validate
	effects   Effects
	logger    zerolog.Logger
	now       func() time.Time
}

// NewTopicService constructs the topic decision engine.
func NewTopicService(store *repository.Store, authz Authorizer, validate *validator.Validate, effects Effects, logger zerolog.Logger) TopicService {
	return &topicService{
		store:     store,
		authz:     authz,
		validator: validate,
		effects:   effects,
		logger:    logger.With().Str("component", "topic_service").Logger(),
		now:       time.Now,
	}
}

func (s *topicService) Assign(ctx context.Context, actor Actor, groupID uint, payload dto.AssignTopicRequest) (dto.TopicAssignmentResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.TopicAssignmentResponse{}, err
	}

	group, err := s.store.Groups.GetByID(ctx, groupID)
	if err != nil {
		return dto.TopicAssignmentResponse{}, notFound(err, ErrGroupNotFound)
	}
	if err := s.authz.Authorize(ctx, actor, &group.SemesterID,
		models.RoleAdmin, models.RoleAcademicOfficer, models.RoleGraduationThesisManager); err != nil {
		return dto.TopicAssignmentResponse{}, err
	}
	if group.Status != models.GroupStatusActive {
		return dto.TopicAssignmentResponse{}, ErrGroupNotActive
	}

	topic, err := s.store.Topics.GetTopic(ctx, payload.TopicID)
	if err != nil {
		return dto.TopicAssignmentResponse{}, notFound(err, ErrTopicNotFound)
	}
	if topic.SemesterID != group.SemesterID {
		return dto.TopicAssignmentResponse{}, ErrTopicSemesterMismatch
	}

	if _, err := s.store.Topics.GetActiveAssignment(ctx, group.ID); err == nil {
		return dto.TopicAssignmentResponse{}, ErrTopicAlreadyAssigned
	} else if !isNotFound(err) {
		return dto.TopicAssignmentResponse{}, err
	}

	assignment := models.TopicAssignment{
		GroupID:      group.ID,
		TopicID:      topic.ID,
		DefendStatus: models.DefendStatusAssigned,
		AssignedBy:   actor.ID,
	}
	if err := s.store.Topics.CreateAssignment(ctx, &assignment); err != nil {
		return dto.TopicAssignmentResponse{}, err
	}
	assignment.Topic = topic

	s.logger.Info().Uint("group_id", group.ID).Uint("topic_id", topic.ID).Msg("topic assigned")
	return dto.NewTopicAssignmentResponse(assignment), nil
}

func (s *topicService) Get(ctx context.Context, groupID uint) (dto.TopicAssignmentResponse, error) {
	assignment, err := s.store.Topics.GetActiveAssignment(ctx, groupID)
	if err != nil {
		return dto.TopicAssignmentResponse{}, notFound(err, ErrAssignmentNotFound)
	}
	return dto.NewTopicAssignmentResponse(assignment), nil
}

func (s *topicService) MentorDecision(ctx context.Context, actor Actor, groupID uint, payload dto.MentorDecisionRequest) (dto.TopicAssignmentResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.TopicAssignmentResponse{}, err
	}

	group, err := s.store.Groups.GetByID(ctx, groupID)
	if err != nil {
		return dto.TopicAssignmentResponse{}, notFound(err, ErrGroupNotFound)
	}

	scope, err := s.authz.GroupScope(ctx, actor, group)
	if err != nil {
		return dto.TopicAssignmentResponse{}, err
	}
	if !scope.Mentor {
		return dto.TopicAssignmentResponse{}, ErrForbidden.WithMessage("only a mentor of the group may record a decision")
	}

	assignment, err := s.store.Topics.GetActiveAssignment(ctx, group.ID)
	if err != nil {
		return dto.TopicAssignmentResponse{}, notFound(err, ErrAssignmentNotFound)
	}
	if assignment.DefendStatus == models.DefendStatusPassed {
		return dto.TopicAssignmentResponse{}, ErrAlreadyPassed
	}

	var next models.DefendStatus
	switch payload.Decision {
	case models.MentorDecisionPass:
		if payload.DefenseRound == nil || (*payload.DefenseRound != 1 && *payload.DefenseRound != 2) {
			return dto.TopicAssignmentResponse{}, ErrInvalidDecision.WithMessage("PASS requires defense_round 1 or 2")
		}
		next = models.DefendStatusConfirmed
	case models.MentorDecisionNotPass:
		if payload.DefenseRound != nil {
			return dto.TopicAssignmentResponse{}, ErrInvalidDecision.WithMessage("NOT_PASS must not carry a defense_round")
		}
		next = models.DefendStatusNotPassed
	default:
		return dto.TopicAssignmentResponse{}, ErrInvalidDecision
	}

	if !assignment.DefendStatus.CanTransitionTo(next) {
		return dto.TopicAssignmentResponse{}, ErrInvalidTransition.WithMessage("cannot move from %s to %s", assignment.DefendStatus, next)
	}

	previous := assignment.DefendStatus
	decidedAt := s.now()
	decision := payload.Decision
	decidedBy := actor.ID
	assignment.DefendStatus = next
	assignment.DefenseRound = payload.DefenseRound
	assignment.MentorDecision = &decision
	assignment.DecidedBy = &decidedBy
	assignment.DecidedAt = &decidedAt

	if err := s.store.Topics.UpdateAssignment(ctx, &assignment); err != nil {
		return dto.TopicAssignmentResponse{}, err
	}

	s.logger.Info().Uint("group_id", group.ID).Str("decision", decision).Str("status", string(next)).Msg("mentor decision recorded")
	recordActivity(ctx, s.effects.Activity, s.logger, ActivityEntry{
		ActorID:    actor.ID,
		Action:     ActionMentorDecision,
		EntityType: "topic_assignment",
		EntityID:   uintPtr(assignment.ID),
		Metadata: map[string]interface{}{
			"group_id": group.ID,
			"decision": decision,
			"from":     string(previous),
			"to":       string(next),
		},
	})

	return dto.NewTopicAssignmentResponse(assignment), nil
}
