package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/noah-isme/thesis-go-api/internal/dto"
	"github.com/noah-isme/thesis-go-api/internal/models"
	"github.com/noah-isme/thesis-go-api/internal/observability"
	"github.com/noah-isme/thesis-go-api/internal/repository"
)

// CouncilService composes review and defense councils under quota and availability rules.
type CouncilService interface {
	Create(ctx context.Context, actor Actor, payload dto.CreateCouncilRequest) (dto.CouncilResponse, error)
	Get(ctx context.Context, id uint) (dto.CouncilResponse, error)
	List(ctx context.Context, query dto.CouncilListQuery) ([]dto.CouncilResponse, error)
	Delete(ctx context.Context, actor Actor, id uint) error
	AddMember(ctx context.Context, actor Actor, councilID uint, payload dto.CouncilMemberRequest) (dto.CouncilResponse, error)
	RemoveMember(ctx context.Context, actor Actor, councilID, userID uint) error
	ReplaceMembers(ctx context.Context, actor Actor, councilID uint, payload dto.ReplaceCouncilMembersRequest) (dto.CouncilResponse, error)
}

type councilService struct {
	store     *repository.Store
	authz     Authorizer
	config    ConfigProvider
	locker    RosterLocker
	validator *validator.Validate
	effects   Effects
	logger    zerolog.Logger
	tracer    trace.Tracer
	now       func() time.Time
}

// NewCouncilService constructs the council engine.
func NewCouncilService(store *repository.Store, authz Authorizer, config ConfigProvider, locker RosterLocker, validate *validator.Validate, effects Effects, logger zerolog.Logger) CouncilService {
	return &councilService{
		store:     store,
		authz:     authz,
		config:    config,
		locker:    locker,
		validator: validate,
		effects:   effects,
		logger:    logger.With().Str("component", "council_service").Logger(),
		tracer:    engineTracer("councils"),
		now:       time.Now,
	}
}

// authorizeComposer keeps process owners away from council composition.
func (s *councilService) authorizeComposer(ctx context.Context, actor Actor, semesterID uint) error {
	for _, excluded := range []models.Role{models.RoleAdmin, models.RoleAcademicOfficer} {
		held, err := s.authz.Holds(ctx, actor, &semesterID, excluded)
		if err != nil {
			return err
		}
		if held {
			return ErrForbidden.WithMessage("%s may not compose councils", excluded)
		}
	}
	return s.authz.Authorize(ctx, actor, &semesterID, models.RoleGraduationThesisManager, models.RoleExaminationOfficer)
}

func (s *councilService) Create(ctx context.Context, actor Actor, payload dto.CreateCouncilRequest) (dto.CouncilResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.CouncilResponse{}, err
	}

	ctx, span := s.tracer.Start(ctx, "councils.create")
	defer span.End()

	if err := s.authorizeComposer(ctx, actor, payload.SemesterID); err != nil {
		return dto.CouncilResponse{}, err
	}

	if !payload.StartDate.Before(payload.EndDate) {
		return dto.CouncilResponse{}, ErrInvalidWindow
	}

	semester, err := s.store.Academic.GetSemester(ctx, payload.SemesterID)
	if err != nil {
		return dto.CouncilResponse{}, notFound(err, ErrSemesterNotFound)
	}

	if payload.SubmissionPeriodID != nil {
		period, err := s.store.Academic.GetSubmissionPeriod(ctx, *payload.SubmissionPeriodID)
		if err != nil {
			if isNotFound(err) {
				return dto.CouncilResponse{}, ErrPeriodMismatch.WithMessage("submission period %d not found", *payload.SubmissionPeriodID)
			}
			return dto.CouncilResponse{}, err
		}
		if period.SemesterID != semester.ID {
			return dto.CouncilResponse{}, ErrPeriodMismatch
		}
	}

	council := models.Council{
		Name:               strings.TrimSpace(payload.Name),
		Type:               models.CouncilType(payload.Type),
		SemesterID:         semester.ID,
		SubmissionPeriodID: payload.SubmissionPeriodID,
		Round:              payload.Round,
		StartDate:          payload.StartDate,
		EndDate:            payload.EndDate,
		CreatedBy:          actor.ID,
	}
	council.Status = council.StatusAt(s.now())
	if payload.Status != "" {
		council.Status = models.CouncilStatus(payload.Status)
	}

	prefix := fmt.Sprintf("%s-%d-%s-", council.Type, council.Round, semester.Code)
	codes, err := s.store.Councils.ListCodesWithPrefix(ctx, prefix)
	if err != nil {
		return dto.CouncilResponse{}, err
	}
	council.Code = prefix + strconv.Itoa(len(codes)+1)
	for _, code := range codes {
		if code == council.Code {
			return dto.CouncilResponse{}, ErrCouncilCodeConflict
		}
	}

	if err := s.store.Councils.Create(ctx, &council); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return dto.CouncilResponse{}, ErrCouncilCodeConflict
		}
		return dto.CouncilResponse{}, err
	}

	span.SetAttributes(attribute.String("council.code", council.Code))
	s.logger.Info().Uint("council_id", council.ID).Str("code", council.Code).Msg("council created")
	recordActivity(ctx, s.effects.Activity, s.logger, ActivityEntry{
		ActorID:    actor.ID,
		Action:     ActionCouncilCreated,
		EntityType: "council",
		EntityID:   uintPtr(council.ID),
		Metadata: map[string]interface{}{
			"code": council.Code,
			"type": string(council.Type),
		},
	})
	s.effects.publish(ctx, SubjectCouncilCreated, map[string]interface{}{
		"council_id":  council.ID,
		"code":        council.Code,
		"semester_id": council.SemesterID,
	})

	return s.Get(ctx, council.ID)
}

func (s *councilService) Get(ctx context.Context, id uint) (dto.CouncilResponse, error) {
	council, err := s.store.Councils.GetByID(ctx, id)
	if err != nil {
		return dto.CouncilResponse{}, notFound(err, ErrCouncilNotFound)
	}
	return dto.NewCouncilResponse(council), nil
}

func (s *councilService) List(ctx context.Context, query dto.CouncilListQuery) ([]dto.CouncilResponse, error) {
	councils, err := s.store.Councils.List(ctx, repository.CouncilFilter{
		SemesterID: query.SemesterID,
		Type:       models.CouncilType(strings.ToUpper(strings.TrimSpace(query.Type))),
		Round:      query.Round,
	})
	if err != nil {
		return nil, err
	}

	responses := make([]dto.CouncilResponse, 0, len(councils))
	for _, council := range councils {
		responses = append(responses, dto.NewCouncilResponse(council))
	}
	return responses, nil
}

func (s *councilService) Delete(ctx context.Context, actor Actor, id uint) error {
	council, err := s.store.Councils.GetByID(ctx, id)
	if err != nil {
		return notFound(err, ErrCouncilNotFound)
	}
	if err := s.authorizeComposer(ctx, actor, council.SemesterID); err != nil {
		return err
	}

	err = s.store.Transaction(ctx, func(tx *repository.Store) error {
		return tx.Councils.SoftDelete(ctx, council.ID)
	})
	if err != nil {
		return err
	}

	s.logger.Info().Uint("council_id", council.ID).Str("code", council.Code).Msg("council deleted")
	recordActivity(ctx, s.effects.Activity, s.logger, ActivityEntry{
		ActorID:    actor.ID,
		Action:     ActionCouncilDeleted,
		EntityType: "council",
		EntityID:   uintPtr(council.ID),
		Metadata:   map[string]interface{}{"code": council.Code},
	})
	return nil
}

func (s *councilService) AddMember(ctx context.Context, actor Actor, councilID uint, payload dto.CouncilMemberRequest) (dto.CouncilResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.CouncilResponse{}, err
	}

	ctx, span := s.tracer.Start(ctx, "councils.add_member", trace.WithAttributes(attribute.Int("council.id", int(councilID))))
	defer span.End()

	role, ok := models.ParseRole(payload.Role)
	if !ok || !role.IsCouncilRole() {
		return dto.CouncilResponse{}, ErrInvalidCouncilRole
	}

	council, err := s.store.Councils.GetByID(ctx, councilID)
	if err != nil {
		return dto.CouncilResponse{}, notFound(err, ErrCouncilNotFound)
	}
	if err := s.authorizeComposer(ctx, actor, council.SemesterID); err != nil {
		return dto.CouncilResponse{}, err
	}

	quota := s.config.CouncilQuota(ctx)

	unlock, err := s.locker.Lock(ctx, council.ID)
	if err != nil {
		return dto.CouncilResponse{}, err
	}
	defer unlock()

	var user models.User
	err = s.store.Transaction(ctx, func(tx *repository.Store) error {
		locked, err := tx.Councils.GetForUpdate(ctx, councilID)
		if err != nil {
			return notFound(err, ErrCouncilNotFound)
		}

		user, err = s.resolveLecturer(ctx, tx, locked, payload.Email)
		if err != nil {
			return err
		}

		members, err := tx.Councils.Members(ctx, locked.ID)
		if err != nil {
			return err
		}
		for _, member := range members {
			if member.UserID == user.ID {
				return ErrCouncilMemberExists
			}
		}

		if err := s.checkAvailability(ctx, tx, locked, user); err != nil {
			return err
		}

		proposed := append(rosterOf(members), rosterEntry{UserID: user.ID, Role: role})
		if err := validateRoster(proposed, quota, false); err != nil {
			return err
		}

		return tx.Councils.AddMembers(ctx, []models.CouncilMember{{
			CouncilID: locked.ID,
			UserID:    user.ID,
			Role:      role,
			AddedBy:   actor.ID,
		}})
	})
	if err != nil {
		return dto.CouncilResponse{}, err
	}

	observability.CouncilMembersAdded().WithLabelValues(string(role)).Inc()
	s.logger.Info().Uint("council_id", council.ID).Uint("user_id", user.ID).Str("role", string(role)).Msg("council member added")
	recordActivity(ctx, s.effects.Activity, s.logger, ActivityEntry{
		ActorID:    actor.ID,
		Action:     ActionCouncilMemberAdded,
		EntityType: "council",
		EntityID:   uintPtr(council.ID),
		Metadata: map[string]interface{}{
			"user_id": user.ID,
			"role":    string(role),
		},
	})
	notify(ctx, s.effects.Notifier, s.logger, councilAssignmentNotification(council, user, role))
	s.effects.publish(ctx, SubjectCouncilMemberAdded, map[string]interface{}{
		"council_id": council.ID,
		"user_id":    user.ID,
		"role":       string(role),
	})

	return s.Get(ctx, council.ID)
}

func (s *councilService) RemoveMember(ctx context.Context, actor Actor, councilID, userID uint) error {
	council, err := s.store.Councils.GetByID(ctx, councilID)
	if err != nil {
		return notFound(err, ErrCouncilNotFound)
	}
	if err := s.authorizeComposer(ctx, actor, council.SemesterID); err != nil {
		return err
	}

	unlock, err := s.locker.Lock(ctx, council.ID)
	if err != nil {
		return err
	}
	defer unlock()

	member, err := s.store.Councils.GetMember(ctx, council.ID, userID)
	if err != nil {
		return notFound(err, ErrCouncilMemberNotFound)
	}
	if err := s.store.Councils.RemoveMember(ctx, member.ID); err != nil {
		return err
	}

	s.logger.Info().Uint("council_id", council.ID).Uint("user_id", userID).Msg("council member removed")
	recordActivity(ctx, s.effects.Activity, s.logger, ActivityEntry{
		ActorID:    actor.ID,
		Action:     ActionCouncilMemberRemoved,
		EntityType: "council",
		EntityID:   uintPtr(council.ID),
		Metadata: map[string]interface{}{
			"user_id": userID,
			"role":    string(member.Role),
		},
	})
	return nil
}

func (s *councilService) ReplaceMembers(ctx context.Context, actor Actor, councilID uint, payload dto.ReplaceCouncilMembersRequest) (dto.CouncilResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.CouncilResponse{}, err
	}

	ctx, span := s.tracer.Start(ctx, "councils.replace_members", trace.WithAttributes(attribute.Int("council.id", int(councilID))))
	defer span.End()

	roles := make([]models.Role, 0, len(payload.Members))
	for _, member := range payload.Members {
		role, ok := models.ParseRole(member.Role)
		if !ok || !role.IsCouncilRole() {
			return dto.CouncilResponse{}, ErrInvalidCouncilRole.WithMessage("role %s is not a council role", member.Role)
		}
		roles = append(roles, role)
	}

	council, err := s.store.Councils.GetByID(ctx, councilID)
	if err != nil {
		return dto.CouncilResponse{}, notFound(err, ErrCouncilNotFound)
	}
	if err := s.authorizeComposer(ctx, actor, council.SemesterID); err != nil {
		return dto.CouncilResponse{}, err
	}

	quota := s.config.CouncilQuota(ctx)

	unlock, err := s.locker.Lock(ctx, council.ID)
	if err != nil {
		return dto.CouncilResponse{}, err
	}
	defer unlock()

	users := make([]models.User, 0, len(payload.Members))
	err = s.store.Transaction(ctx, func(tx *repository.Store) error {
		locked, err := tx.Councils.GetForUpdate(ctx, councilID)
		if err != nil {
			return notFound(err, ErrCouncilNotFound)
		}

		proposed := make([]rosterEntry, 0, len(payload.Members))
		for i, member := range payload.Members {
			user, err := s.resolveLecturer(ctx, tx, locked, member.Email)
			if err != nil {
				return err
			}
			users = append(users, user)
			proposed = append(proposed, rosterEntry{UserID: user.ID, Role: roles[i]})
		}

		if err := validateRoster(proposed, quota, true); err != nil {
			return err
		}
		for _, user := range users {
			if err := s.checkAvailability(ctx, tx, locked, user); err != nil {
				return err
			}
		}

		if err := tx.Councils.RemoveAllMembers(ctx, locked.ID); err != nil {
			return err
		}

		rows := make([]models.CouncilMember, 0, len(proposed))
		for _, entry := range proposed {
			rows = append(rows, models.CouncilMember{
				CouncilID: locked.ID,
				UserID:    entry.UserID,
				Role:      entry.Role,
				AddedBy:   actor.ID,
			})
		}
		return tx.Councils.AddMembers(ctx, rows)
	})
	if err != nil {
		return dto.CouncilResponse{}, err
	}

	notifications := make([]Notification, 0, len(users))
	for i, user := range users {
		observability.CouncilMembersAdded().WithLabelValues(string(roles[i])).Inc()
		notifications = append(notifications, councilAssignmentNotification(council, user, roles[i]))
	}

	s.logger.Info().Uint("council_id", council.ID).Int("members", len(users)).Msg("council roster replaced")
	recordActivity(ctx, s.effects.Activity, s.logger, ActivityEntry{
		ActorID:    actor.ID,
		Action:     ActionCouncilRosterReplaced,
		EntityType: "council",
		EntityID:   uintPtr(council.ID),
		Metadata:   map[string]interface{}{"members": len(users)},
	})
	notify(ctx, s.effects.Notifier, s.logger, notifications...)
	s.effects.publish(ctx, SubjectCouncilRosterUpdate, map[string]interface{}{
		"council_id": council.ID,
		"members":    len(users),
	})

	return s.Get(ctx, council.ID)
}

// resolveLecturer loads the user behind email and requires the lecturer role.
func (s *councilService) resolveLecturer(ctx context.Context, tx *repository.Store, council models.Council, email string) (models.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	user, err := tx.Users.GetByEmail(ctx, email)
	if err != nil {
		if isNotFound(err) {
			return models.User{}, ErrUserNotFound.WithMessage("no user with email %s", email)
		}
		return models.User{}, err
	}

	lecturer, err := tx.Users.HasRole(ctx, user.ID, models.RoleLecturer, &council.SemesterID)
	if err != nil {
		return models.User{}, err
	}
	if !lecturer {
		return models.User{}, ErrNotLecturer.WithMessage("%s does not hold the lecturer role", user.FullName)
	}
	return user, nil
}

// checkAvailability rejects users double-booked on an overlapping council or mentoring a group
// already scheduled under this one.
func (s *councilService) checkAvailability(ctx context.Context, tx *repository.Store, council models.Council, user models.User) error {
	others, err := tx.Councils.ListCouncilsForUser(ctx, user.ID, council.ID)
	if err != nil {
		return err
	}
	for _, other := range others {
		if council.Overlaps(other) {
			return ErrCouncilOverlap.WithMessage("%s already sits on council %s in an overlapping window", user.FullName, other.Code)
		}
	}

	mentored, err := tx.Groups.MentoredGroupIDs(ctx, user.ID)
	if err != nil || len(mentored) == 0 {
		return err
	}

	scheduled, err := scheduledGroupIDs(ctx, tx, council)
	if err != nil {
		return err
	}
	for _, groupID := range mentored {
		if _, ok := scheduled[groupID]; ok {
			return ErrCouncilMentorConflict.WithMessage("%s mentors group %d scheduled under council %s", user.FullName, groupID, council.Code)
		}
	}
	return nil
}

// scheduledGroupIDs collects the groups holding a session under council.
func scheduledGroupIDs(ctx context.Context, tx *repository.Store, council models.Council) (map[uint]struct{}, error) {
	ids := make(map[uint]struct{})
	if council.Type == models.CouncilTypeReview {
		schedules, err := tx.Schedules.ListReviewByCouncil(ctx, council.ID)
		if err != nil {
			return nil, err
		}
		for _, schedule := range schedules {
			ids[schedule.GroupID] = struct{}{}
		}
		return ids, nil
	}

	schedules, err := tx.Schedules.ListDefenseByCouncil(ctx, council.ID)
	if err != nil {
		return nil, err
	}
	for _, schedule := range schedules {
		ids[schedule.GroupID] = struct{}{}
	}
	return ids, nil
}

func councilAssignmentNotification(council models.Council, user models.User, role models.Role) Notification {
	return Notification{
		To:       user.Email,
		Subject:  fmt.Sprintf("Council assignment %s", council.Code),
		Template: TemplateCouncilAssignment,
		Data: map[string]interface{}{
			"MemberName":  user.FullName,
			"CouncilCode": council.Code,
			"CouncilName": council.Name,
			"Role":        string(role),
			"Start":       council.StartDate.Format("2006-01-02 15:04"),
			"End":         council.EndDate.Format("2006-01-02 15:04"),
		},
	}
}
