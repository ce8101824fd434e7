package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"gorm.io/datatypes"

	"github.com/noah-isme/thesis-go-api/internal/dto"
	"github.com/noah-isme/thesis-go-api/internal/middleware"
	"github.com/noah-isme/thesis-go-api/internal/models"
	"github.com/noah-isme/thesis-go-api/internal/repository"
)

// Audited actions.
const (
	ActionGroupLeaderChanged    = "group.leader_changed"
	ActionGroupDeleted          = "group.deleted"
	ActionGroupsRandomized      = "group.randomized"
	ActionGroupMemberRemoved    = "group.member_removed"
	ActionCouncilCreated        = "council.created"
	ActionCouncilDeleted        = "council.deleted"
	ActionCouncilMemberAdded    = "council.member_added"
	ActionCouncilMemberRemoved  = "council.member_removed"
	ActionCouncilRosterReplaced = "council.roster_replaced"
	ActionMentorDecision        = "topic.mentor_decision"
	ActionDefenseEvaluated      = "defense.evaluated"
)

// ActivityEntry captures the details required to persist an audit entry.
type ActivityEntry struct {
	ActorID    uint
	Action     string
	EntityType string
	EntityID   *uint
	Metadata   map[string]interface{}
}

// ActivityRecorder defines behaviour for recording activity logs.
type ActivityRecorder interface {
	Record(ctx context.Context, entry ActivityEntry) (dto.ActivityLogResponse, error)
}

// ActivityService exposes methods to query and persist activity logs.
type ActivityService interface {
	ActivityRecorder
	List(ctx context.Context, actor Actor, req dto.ActivityListRequest) (dto.ActivityListResponse, error)
}

type activityService struct {
	repo   repository.ActivityLogRepository
	authz  Authorizer
	logger zerolog.Logger
}

// NewActivityService builds the audit trail service. Listing is limited to admins and academic officers.
func NewActivityService(repo repository.ActivityLogRepository, authz Authorizer, logger zerolog.Logger) ActivityService {
	return &activityService{
		repo:   repo,
		authz:  authz,
		logger: logger.With().Str("component", "activity_service").Logger(),
	}
}

func (s *activityService) Record(ctx context.Context, entry ActivityEntry) (dto.ActivityLogResponse, error) {
	action := strings.ToLower(strings.TrimSpace(entry.Action))
	entityType := strings.ToLower(strings.TrimSpace(entry.EntityType))
	if action == "" || entityType == "" {
		return dto.ActivityLogResponse{}, fmt.Errorf("activity entry needs an action and an entity type, got %q/%q", entry.Action, entry.EntityType)
	}

	metadata := maskedMetadata(entry.Metadata)
	if id := middleware.CorrelationIDFromContext(ctx); id != "" {
		metadata["correlation_id"] = id
	}

	log := models.ActivityLog{
		ActorID:    entry.ActorID,
		Action:     action,
		EntityType: entityType,
		EntityID:   entry.EntityID,
		Metadata:   metadata,
	}
	if err := s.repo.Create(ctx, &log); err != nil {
		s.logger.Error().Err(err).Str("action", action).Uint("actor_id", entry.ActorID).Msg("persist activity log")
		return dto.ActivityLogResponse{}, err
	}
	return dto.NewActivityLogResponse(log), nil
}

func (s *activityService) List(ctx context.Context, actor Actor, req dto.ActivityListRequest) (dto.ActivityListResponse, error) {
	if err := s.authz.Authorize(ctx, actor, nil, models.RoleAdmin, models.RoleAcademicOfficer); err != nil {
		return dto.ActivityListResponse{}, err
	}
	if req.From != nil && req.To != nil && !req.From.Before(*req.To) {
		return dto.ActivityListResponse{}, ErrInvalidWindow.WithMessage("from must be before to")
	}

	filter := repository.ActivityLogFilter{
		Page:       req.Page,
		PageSize:   req.PageSize,
		Action:     strings.TrimSpace(req.Action),
		EntityType: strings.TrimSpace(req.EntityType),
		From:       req.From,
		To:         req.To,
	}
	if req.ActorID != 0 {
		filter.ActorID = uintPtr(req.ActorID)
	}
	if req.EntityID != 0 {
		filter.EntityID = uintPtr(req.EntityID)
	}

	entries, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return dto.ActivityListResponse{}, err
	}
	return dto.NewActivityListResponse(entries, dto.NewPaginationMeta(req.Page, req.PageSize, total)), nil
}

// recordActivity writes an audit entry without failing the owning operation.
func recordActivity(ctx context.Context, recorder ActivityRecorder, logger zerolog.Logger, entry ActivityEntry) {
	if recorder == nil {
		return
	}
	if _, err := recorder.Record(ctx, entry); err != nil {
		logger.Warn().Err(err).Str("action", entry.Action).Msg("failed to record activity")
	}
}

var sensitiveMetadataKeys = []string{"email", "token", "password"}

func maskedMetadata(metadata map[string]interface{}) datatypes.JSONMap {
	masked := make(datatypes.JSONMap, len(metadata)+1)
	for key, value := range metadata {
		masked[key] = value
		lower := strings.ToLower(key)
		for _, marker := range sensitiveMetadataKeys {
			if strings.Contains(lower, marker) {
				masked[key] = "***"
				break
			}
		}
	}
	return masked
}

func uintPtr(v uint) *uint {
	return &v
}
