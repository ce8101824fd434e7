package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/noah-isme/thesis-go-api/internal/dto"
	"github.com/noah-isme/thesis-go-api/internal/models"
	"github.com/noah-isme/thesis-go-api/internal/observability"
	"github.com/noah-isme/thesis-go-api/internal/repository"
)

// GroupService forms thesis groups and manages their membership, leadership and mentors.
type GroupService interface {
	Create(ctx context.Context, actor Actor, payload dto.CreateGroupRequest) (dto.GroupResponse, error)
	Get(ctx context.Context, id uint) (dto.GroupResponse, error)
	List(ctx context.Context, semesterID uint) ([]dto.GroupResponse, error)
	Invite(ctx context.Context, actor Actor, groupID uint, payload dto.InviteMemberRequest) (dto.InvitationResponse, error)
	RespondToInvitation(ctx context.Context, actor Actor, invitationID uint, payload dto.RespondInvitationRequest) (dto.InvitationResponse, error)
	Randomize(ctx context.Context, actor Actor, payload dto.RandomizeGroupsRequest) ([]dto.GroupResponse, error)
	ChangeLeader(ctx context.Context, actor Actor, groupID uint, payload dto.ChangeLeaderRequest) (dto.GroupResponse, error)
	AddMentor(ctx context.Context, actor Actor, groupID uint, payload dto.AddMentorRequest) (dto.GroupResponse, error)
	RemoveMember(ctx context.Context, actor Actor, groupID, userID uint) error
	Delete(ctx context.Context, actor Actor, groupID uint) error
}

type groupService struct {
	store     *repository.Store
	authz     Authorizer
	config    ConfigProvider
	validator *validator.Validate
	effects   Effects
	publicURL string
	logger    zerolog.Logger
	tracer    trace.Tracer
	now       func() time.Time
}

// NewGroupService constructs the group engine. publicURL prefixes links sent in invitation emails.
func NewGroupService(store *repository.Store, authz Authorizer, config ConfigProvider, validate *validator.Validate, effects Effects, publicURL string, logger zerolog.Logger) GroupService {
	return &groupService{
		store:     store,
		authz:     authz,
		config:    config,
		validator: validate,
		effects:   effects,
		publicURL: strings.TrimRight(publicURL, "/"),
		logger:    logger.With().Str("component", "group_service").Logger(),
		tracer:    engineTracer("groups"),
		now:       time.Now,
	}
}

func (s *groupService) Create(ctx context.Context, actor Actor, payload dto.CreateGroupRequest) (dto.GroupResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.GroupResponse{}, err
	}

	ctx, span := s.tracer.Start(ctx, "groups.create")
	defer span.End()

	// Acting for another student and waiving major homogeneity are staff decisions.
	onBehalf := payload.LeaderUserID != 0 && payload.LeaderUserID != actor.ID
	if onBehalf || payload.IsMultiMajor {
		if err := s.authz.Authorize(ctx, actor, &payload.SemesterID, models.RoleAdmin, models.RoleAcademicOfficer); err != nil {
			return dto.GroupResponse{}, err
		}
	}
	leaderUserID := actor.ID
	if onBehalf {
		leaderUserID = payload.LeaderUserID
	}

	semester, err := s.store.Academic.GetSemester(ctx, payload.SemesterID)
	if err != nil {
		return dto.GroupResponse{}, notFound(err, ErrSemesterNotFound)
	}

	leader, err := s.store.Students.GetByUserID(ctx, leaderUserID)
	if err != nil {
		return dto.GroupResponse{}, notFound(err, ErrStudentNotFound)
	}

	if _, err := s.store.Groups.FindActiveMembershipInSemester(ctx, leader.ID, semester.ID); err == nil {
		return dto.GroupResponse{}, ErrAlreadyInGroup
	} else if !isNotFound(err) {
		return dto.GroupResponse{}, err
	}

	maxMembers := s.config.MaxGroupMembers(ctx)
	prefix := manualGroupPrefix(s.now(), leader.Major.Name)

	var group models.Group
	err = s.store.Transaction(ctx, func(tx *repository.Store) error {
		codes, err := tx.Groups.ListCodesWithPrefix(ctx, semester.ID, prefix)
		if err != nil {
			return err
		}

		group = models.Group{
			SemesterID:   semester.ID,
			GroupCode:    formatGroupCode(prefix, nextGroupSequence(codes, prefix)),
			Status:       models.GroupStatusActive,
			MaxMembers:   maxMembers,
			IsMultiMajor: payload.IsMultiMajor,
			CreatedBy:    actor.ID,
		}
		if err := tx.Groups.Create(ctx, &group); err != nil {
			return err
		}

		return tx.Groups.AddMember(ctx, &models.GroupMember{
			GroupID:   group.ID,
			StudentID: leader.ID,
			Role:      models.GroupRoleLeader,
			Status:    models.MemberStatusActive,
			JoinedAt:  s.now(),
		})
	})
	if err != nil {
		return dto.GroupResponse{}, err
	}

	span.SetAttributes(attribute.String("group.code", group.GroupCode))
	observability.GroupsCreated().WithLabelValues("manual").Inc()
	s.logger.Info().Uint("group_id", group.ID).Str("group_code", group.GroupCode).Msg("group created")
	s.effects.publish(ctx, SubjectGroupCreated, map[string]interface{}{
		"group_id":    group.ID,
		"group_code":  group.GroupCode,
		"semester_id": group.SemesterID,
	})

	return s.Get(ctx, group.ID)
}

func (s *groupService) Get(ctx context.Context, id uint) (dto.GroupResponse, error) {
	group, err := s.loadGroup(ctx, id)
	if err != nil {
		return dto.GroupResponse{}, err
	}
	return dto.NewGroupResponse(group), nil
}

func (s *groupService) List(ctx context.Context, semesterID uint) ([]dto.GroupResponse, error) {
	groups, err := s.store.Groups.List(ctx, semesterID)
	if err != nil {
		return nil, err
	}

	responses := make([]dto.GroupResponse, 0, len(groups))
	for _, group := range groups {
		responses = append(responses, dto.NewGroupResponse(group))
	}
	return responses, nil
}

func (s *groupService) Invite(ctx context.Context, actor Actor, groupID uint, payload dto.InviteMemberRequest) (dto.InvitationResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.InvitationResponse{}, err
	}

	ctx, span := s.tracer.Start(ctx, "groups.invite")
	defer span.End()

	group, err := s.loadGroup(ctx, groupID)
	if err != nil {
		return dto.InvitationResponse{}, err
	}
	if group.Status != models.GroupStatusActive {
		return dto.InvitationResponse{}, ErrGroupNotActive
	}

	scope, err := s.authz.GroupScope(ctx, actor, group)
	if err != nil {
		return dto.InvitationResponse{}, err
	}
	if !scope.Admin && !scope.Leader {
		return dto.InvitationResponse{}, ErrForbidden
	}

	student, err := s.store.Students.GetByID(ctx, payload.StudentID)
	if err != nil {
		return dto.InvitationResponse{}, notFound(err, ErrStudentNotFound)
	}

	if len(group.Members) >= group.MaxMembers {
		return dto.InvitationResponse{}, ErrGroupFull
	}
	for _, member := range group.Members {
		if member.StudentID == student.ID {
			return dto.InvitationResponse{}, ErrMemberAlreadyExists
		}
	}

	if _, err := s.store.Groups.FindActiveMembershipInSemester(ctx, student.ID, group.SemesterID); err == nil {
		return dto.InvitationResponse{}, ErrAlreadyInGroup
	} else if !isNotFound(err) {
		return dto.InvitationResponse{}, err
	}

	eligibility, err := s.store.Students.GetSemesterStatus(ctx, student.ID, group.SemesterID)
	if err != nil && !isNotFound(err) {
		return dto.InvitationResponse{}, err
	}
	if err != nil || !eligibility.IsQualified() {
		return dto.InvitationResponse{}, ErrStudentNotEligible
	}

	if !group.IsMultiMajor && len(group.Members) > 0 {
		groupMajor := group.Members[0].Student.Major
		if groupMajor.ID != student.MajorID {
			return dto.InvitationResponse{}, ErrMajorMismatch.WithMessage(
				"student major %s does not match group major %s", student.Major.Name, groupMajor.Name)
		}
	}

	pending, err := s.store.Invitations.HasPending(ctx, group.ID, student.ID)
	if err != nil {
		return dto.InvitationResponse{}, err
	}
	if pending {
		return dto.InvitationResponse{}, ErrInvitationExists
	}

	invitation := models.GroupInvitation{
		GroupID:   group.ID,
		StudentID: student.ID,
		InvitedBy: actor.ID,
		Status:    models.InvitationPending,
	}
	if err := s.store.Invitations.Create(ctx, &invitation); err != nil {
		return dto.InvitationResponse{}, err
	}

	s.logger.Info().Uint("group_id", group.ID).Uint("student_id", student.ID).Uint("invitation_id", invitation.ID).Msg("invitation created")

	notify(ctx, s.effects.Notifier, s.logger, Notification{
		To:       student.User.Email,
		Subject:  fmt.Sprintf("Invitation to join group %s", group.GroupCode),
		Template: TemplateGroupInvitation,
		Data: map[string]interface{}{
			"StudentName": student.User.FullName,
			"InviterName": s.inviterName(ctx, actor.ID),
			"GroupCode":   group.GroupCode,
			"Link":        fmt.Sprintf("%s/groups/invitations/%d", s.publicURL, invitation.ID),
		},
	})

	return dto.NewInvitationResponse(invitation), nil
}

func (s *groupService) RespondToInvitation(ctx context.Context, actor Actor, invitationID uint, payload dto.RespondInvitationRequest) (dto.InvitationResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.InvitationResponse{}, err
	}

	student, err := s.store.Students.GetByUserID(ctx, actor.ID)
	if err != nil {
		return dto.InvitationResponse{}, notFound(err, ErrStudentNotFound)
	}

	invitation, err := s.store.Invitations.GetByID(ctx, invitationID)
	if err != nil {
		return dto.InvitationResponse{}, notFound(err, ErrInvitationNotFound)
	}
	if invitation.StudentID != student.ID {
		return dto.InvitationResponse{}, ErrForbidden
	}
	if invitation.Status != models.InvitationPending {
		return dto.InvitationResponse{}, ErrInvitationAlreadyProcessed
	}

	respondedAt := s.now()
	invitation.RespondedAt = &respondedAt

	if models.InvitationStatus(payload.Response) == models.InvitationRejected {
		invitation.Status = models.InvitationRejected
		if err := s.store.Invitations.Update(ctx, &invitation); err != nil {
			return dto.InvitationResponse{}, err
		}
		return dto.NewInvitationResponse(invitation), nil
	}

	var expired int64
	err = s.store.Transaction(ctx, func(tx *repository.Store) error {
		group, err := tx.Groups.GetByID(ctx, invitation.GroupID)
		if err != nil {
			return notFound(err, ErrGroupNotFound)
		}
		if group.Status != models.GroupStatusActive {
			return ErrGroupNotActive
		}
		if len(group.Members) >= group.MaxMembers {
			return ErrGroupFull
		}

		if _, err := tx.Groups.FindActiveMembershipInSemester(ctx, student.ID, group.SemesterID); err == nil {
			return ErrAlreadyInGroup
		} else if !isNotFound(err) {
			return err
		}

		if err := tx.Groups.AddMember(ctx, &models.GroupMember{
			GroupID:   group.ID,
			StudentID: student.ID,
			Role:      models.GroupRoleMember,
			Status:    models.MemberStatusActive,
			JoinedAt:  respondedAt,
		}); err != nil {
			return err
		}

		invitation.Status = models.InvitationAccepted
		if err := tx.Invitations.Update(ctx, &invitation); err != nil {
			return err
		}

		expired, err = tx.Invitations.ExpirePendingForStudent(ctx, student.ID, group.SemesterID, invitation.ID)
		return err
	})
	if err != nil {
		return dto.InvitationResponse{}, err
	}

	s.logger.Info().
		Uint("group_id", invitation.GroupID).
		Uint("student_id", student.ID).
		Int64("expired_invitations", expired).
		Msg("invitation accepted")
	s.effects.publish(ctx, SubjectGroupMemberJoined, map[string]interface{}{
		"group_id":   invitation.GroupID,
		"student_id": student.ID,
	})

	return dto.NewInvitationResponse(invitation), nil
}

func (s *groupService) ChangeLeader(ctx context.Context, actor Actor, groupID uint, payload dto.ChangeLeaderRequest) (dto.GroupResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.GroupResponse{}, err
	}

	group, err := s.loadGroup(ctx, groupID)
	if err != nil {
		return dto.GroupResponse{}, err
	}

	scope, err := s.authz.GroupScope(ctx, actor, group)
	if err != nil {
		return dto.GroupResponse{}, err
	}
	if !scope.Admin && !scope.Leader {
		return dto.GroupResponse{}, ErrForbidden
	}

	if !scope.Admin {
		deadline := group.Semester.StartDate.AddDate(0, 0, s.config.LeaderChangeDeadlineDays(ctx))
		if s.now().After(deadline) {
			return dto.GroupResponse{}, ErrLeaderChangeClosed
		}
	}

	var oldLeaderID uint
	var candidate *models.GroupMember
	for i := range group.Members {
		member := group.Members[i]
		if member.IsLeader() {
			oldLeaderID = member.StudentID
		}
		if member.StudentID == payload.StudentID {
			candidate = &group.Members[i]
		}
	}
	if candidate == nil {
		return dto.GroupResponse{}, ErrMemberNotFound
	}
	if candidate.IsLeader() {
		return dto.NewGroupResponse(group), nil
	}

	err = s.store.Transaction(ctx, func(tx *repository.Store) error {
		return notFound(tx.Groups.SetLeader(ctx, group.ID, payload.StudentID), ErrMemberNotFound)
	})
	if err != nil {
		return dto.GroupResponse{}, err
	}

	recordActivity(ctx, s.effects.Activity, s.logger, ActivityEntry{
		ActorID:    actor.ID,
		Action:     ActionGroupLeaderChanged,
		EntityType: "group",
		EntityID:   uintPtr(group.ID),
		Metadata: map[string]interface{}{
			"old_leader_student_id": oldLeaderID,
			"new_leader_student_id": payload.StudentID,
		},
	})

	return s.Get(ctx, group.ID)
}

func (s *groupService) AddMentor(ctx context.Context, actor Actor, groupID uint, payload dto.AddMentorRequest) (dto.GroupResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.GroupResponse{}, err
	}

	group, err := s.loadGroup(ctx, groupID)
	if err != nil {
		return dto.GroupResponse{}, err
	}

	if err := s.authz.Authorize(ctx, actor, &group.SemesterID,
		models.RoleAdmin, models.RoleAcademicOfficer, models.RoleGraduationThesisManager); err != nil {
		return dto.GroupResponse{}, err
	}

	mentor, err := s.store.Users.GetByID(ctx, payload.MentorUserID)
	if err != nil {
		return dto.GroupResponse{}, notFound(err, ErrUserNotFound)
	}

	lecturer, err := s.store.Users.HasRole(ctx, mentor.ID, models.RoleLecturer, &group.SemesterID)
	if err != nil {
		return dto.GroupResponse{}, err
	}
	if !lecturer {
		return dto.GroupResponse{}, ErrNotLecturer
	}

	role := models.Role(payload.Role)
	for _, existing := range group.Mentors {
		if existing.MentorID == mentor.ID {
			return dto.GroupResponse{}, ErrMentorExists
		}
	}
	if len(group.Mentors) >= s.config.MaxMentorsPerGroup(ctx) {
		return dto.GroupResponse{}, ErrMentorLimit
	}
	if role == models.RoleMentorMain {
		for _, existing := range group.Mentors {
			if existing.Role == models.RoleMentorMain {
				return dto.GroupResponse{}, ErrMainMentorExists
			}
		}
	}

	if err := s.store.Groups.AddMentor(ctx, &models.GroupMentor{
		GroupID:  group.ID,
		MentorID: mentor.ID,
		Role:     role,
		AddedBy:  actor.ID,
	}); err != nil {
		return dto.GroupResponse{}, err
	}

	s.logger.Info().Uint("group_id", group.ID).Uint("mentor_id", mentor.ID).Str("role", payload.Role).Msg("mentor assigned")

	notify(ctx, s.effects.Notifier, s.logger, Notification{
		To:       mentor.Email,
		Subject:  fmt.Sprintf("You now mentor group %s", group.GroupCode),
		Template: TemplateMentorAssigned,
		Data: map[string]interface{}{
			"MentorName": mentor.FullName,
			"Role":       payload.Role,
			"GroupCode":  group.GroupCode,
		},
	})

	return s.Get(ctx, group.ID)
}

func (s *groupService) RemoveMember(ctx context.Context, actor Actor, groupID, userID uint) error {
	group, err := s.loadGroup(ctx, groupID)
	if err != nil {
		return err
	}

	scope, err := s.authz.GroupScope(ctx, actor, group)
	if err != nil {
		return err
	}
	if !scope.Any() {
		return ErrForbidden
	}

	for _, mentor := range group.Mentors {
		if mentor.MentorID != userID {
			continue
		}
		if !scope.Admin {
			return ErrForbidden
		}
		if err := s.store.Groups.RemoveMentor(ctx, mentor.ID); err != nil {
			return err
		}
		s.recordRemoval(ctx, actor, group, userID, "mentor")
		return nil
	}

	var target *models.GroupMember
	for i := range group.Members {
		if group.Members[i].Student.UserID == userID {
			target = &group.Members[i]
			break
		}
	}
	if target == nil {
		return ErrMemberNotFound
	}
	if target.IsLeader() {
		return ErrLeaderCannotBeRemoved
	}

	if err := s.store.Groups.RemoveMember(ctx, target.ID); err != nil {
		return err
	}
	s.recordRemoval(ctx, actor, group, userID, models.GroupRoleMember)
	return nil
}

func (s *groupService) Delete(ctx context.Context, actor Actor, groupID uint) error {
	group, err := s.loadGroup(ctx, groupID)
	if err != nil {
		return err
	}

	scope, err := s.authz.GroupScope(ctx, actor, group)
	if err != nil {
		return err
	}
	if !scope.Any() {
		return ErrForbidden
	}
	if !scope.Admin && len(group.Members) > 1 {
		return ErrGroupHasMembers
	}

	err = s.store.Transaction(ctx, func(tx *repository.Store) error {
		if err := tx.Topics.DeleteAssignmentsByGroup(ctx, group.ID); err != nil {
			return err
		}
		return tx.Groups.SoftDeleteCascade(ctx, group.ID)
	})
	if err != nil {
		return err
	}

	s.logger.Info().Uint("group_id", group.ID).Int("members", len(group.Members)).Msg("group deleted")
	recordActivity(ctx, s.effects.Activity, s.logger, ActivityEntry{
		ActorID:    actor.ID,
		Action:     ActionGroupDeleted,
		EntityType: "group",
		EntityID:   uintPtr(group.ID),
		Metadata: map[string]interface{}{
			"group_code": group.GroupCode,
			"members":    len(group.Members),
			"forced":     scope.Admin && len(group.Members) > 1,
		},
	})
	s.effects.publish(ctx, SubjectGroupDeleted, map[string]interface{}{
		"group_id":   group.ID,
		"group_code": group.GroupCode,
	})

	return nil
}

func (s *groupService) loadGroup(ctx context.Context, id uint) (models.Group, error) {
	group, err := s.store.Groups.GetByID(ctx, id)
	if err != nil {
		return models.Group{}, notFound(err, ErrGroupNotFound)
	}
	return group, nil
}

func (s *groupService) inviterName(ctx context.Context, userID uint) string {
	user, err := s.store.Users.GetByID(ctx, userID)
	if err != nil {
		return "Your group leader"
	}
	return user.FullName
}

func (s *groupService) recordRemoval(ctx context.Context, actor Actor, group models.Group, userID uint, role string) {
	s.logger.Info().Uint("group_id", group.ID).Uint("user_id", userID).Str("role", role).Msg("group member removed")
	recordActivity(ctx, s.effects.Activity, s.logger, ActivityEntry{
		ActorID:    actor.ID,
		Action:     ActionGroupMemberRemoved,
		EntityType: "group",
		EntityID:   uintPtr(group.ID),
		Metadata: map[string]interface{}{
			"user_id": userID,
			"role":    role,
		},
	})
}
