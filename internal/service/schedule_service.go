package service

import (
	"context"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/microcosm-cc/bluemonday"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/noah-isme/thesis-go-api/internal/dto"
	"github.com/noah-isme/thesis-go-api/internal/models"
	"github.com/noah-isme/thesis-go-api/internal/observability"
	"github.com/noah-isme/thesis-go-api/internal/repository"
)

// ScheduleService books review and defense sessions and records defense results.
type ScheduleService interface {
	CreateReviewSchedules(ctx context.Context, actor Actor, councilID uint, payload dto.CreateScheduleRequest) ([]dto.ScheduleResponse, error)
	CreateDefenseSchedules(ctx context.Context, actor Actor, councilID uint, payload dto.CreateScheduleRequest) ([]dto.ScheduleResponse, error)
	ListCouncilSchedules(ctx context.Context, councilID uint) ([]dto.ScheduleResponse, error)
	EvaluateDefenseMember(ctx context.Context, actor Actor, scheduleID, studentID uint, payload dto.EvaluateDefenseRequest) (dto.DefenseResultResponse, error)
	ExportCouncilSchedules(ctx context.Context, actor Actor, councilID uint) ([]byte, string, error)
}

type scheduleService struct {
	store     *repository.Store
	authz     Authorizer
	config    ConfigProvider
	validator *validator.Validate
	effects   Effects
	sanitizer *bluemonday.Policy
	logger    zerolog.Logger
	tracer    trace.Tracer
	now       func() time.Time
}

// NewScheduleService constructs the schedule conflict checker and defense evaluator.
func NewScheduleService(store *repository.Store, authz Authorizer, config ConfigProvider, validate *validator.Validate, effects Effects, logger zerolog.Logger) ScheduleService {
	return &scheduleService{
		store:     store,
		authz:     authz,
		config:    config,
		validator: validate,
		effects:   effects,
		sanitizer: bluemonday.StrictPolicy(),
		logger:    logger.With().Str("component", "schedule_service").Logger(),
		tracer:    engineTracer("schedules"),
		now:       time.Now,
	}
}

// plannedSession is one validated batch item ready to be written.
type plannedSession struct {
	group      models.Group
	assignment models.TopicAssignment
	majorID    uint
	at         time.Time
}

func (s *scheduleService) CreateReviewSchedules(ctx context.Context, actor Actor, councilID uint, payload dto.CreateScheduleRequest) ([]dto.ScheduleResponse, error) {
	return s.createSchedules(ctx, actor, councilID, models.CouncilTypeReview, payload)
}

func (s *scheduleService) CreateDefenseSchedules(ctx context.Context, actor Actor, councilID uint, payload dto.CreateScheduleRequest) ([]dto.ScheduleResponse, error) {
	return s.createSchedules(ctx, actor, councilID, models.CouncilTypeDefense, payload)
}

func (s *scheduleService) createSchedules(ctx context.Context, actor Actor, councilID uint, kind models.CouncilType, payload dto.CreateScheduleRequest) ([]dto.ScheduleResponse, error) {
	if len(payload.Groups) == 0 {
		return nil, ErrEmptyBatch
	}
	if err := s.validator.Struct(payload); err != nil {
		return nil, err
	}

	ctx, span := s.tracer.Start(ctx, "schedules.create", trace.WithAttributes(
		attribute.String("schedule.type", string(kind)),
		attribute.Int("schedule.batch", len(payload.Groups)),
	))
	defer span.End()

	council, err := s.store.Councils.GetByID(ctx, councilID)
	if err != nil {
		return nil, notFound(err, ErrCouncilNotFound)
	}
	if err := s.authz.Authorize(ctx, actor, &council.SemesterID,
		models.RoleAdmin, models.RoleGraduationThesisManager, models.RoleExaminationOfficer); err != nil {
		return nil, err
	}
	if council.Type != kind {
		return nil, ErrCouncilTypeMismatch.WithMessage("council %s is a %s council", council.Code, council.Type)
	}
	if payload.Round != council.Round {
		return nil, ErrCouncilRoundMismatch.WithMessage("council %s sits for round %d, batch asks for round %d", council.Code, council.Round, payload.Round)
	}

	if limit := s.config.MaxTopicsPerCouncilSchedule(ctx); len(payload.Groups) > limit {
		return nil, ErrBatchTooLarge.WithMessage("a batch may hold at most %d groups, got %d", limit, len(payload.Groups))
	}

	separation := s.config.ScheduleMinSeparation(ctx)
	if err := checkBatchTimes(payload.Groups, separation); err != nil {
		return nil, err
	}

	existing, err := s.existingSessions(ctx, council)
	if err != nil {
		return nil, err
	}
	for _, item := range payload.Groups {
		for _, booked := range existing {
			if within(item.Time, booked.Time, separation) {
				return nil, ErrScheduleConflict.WithMessage("%s collides with the session of group %s", item.Time.Format(time.RFC3339), booked.GroupCode)
			}
		}
	}

	sessions, err := s.checkEligibility(ctx, council, kind, payload, existing)
	if err != nil {
		return nil, err
	}

	if err := checkMentorExclusion(council, sessions); err != nil {
		return nil, err
	}

	responses := make([]dto.ScheduleResponse, 0, len(sessions))
	err = s.store.Transaction(ctx, func(tx *repository.Store) error {
		responses = responses[:0]
		for _, session := range sessions {
			response, err := s.writeSession(ctx, tx, actor, council, kind, payload, session)
			if err != nil {
				return err
			}
			responses = append(responses, response)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	observability.SchedulesCreated().WithLabelValues(string(kind)).Add(float64(len(responses)))
	s.logger.Info().Uint("council_id", council.ID).Str("type", string(kind)).Int("sessions", len(responses)).Msg("schedules created")

	notifications := make([]Notification, 0)
	for _, session := range sessions {
		for _, member := range session.group.Members {
			notifications = append(notifications, Notification{
				To:       member.Student.User.Email,
				Subject:  fmt.Sprintf("%s session scheduled for group %s", kindLabel(kind), session.group.GroupCode),
				Template: TemplateScheduleCreated,
				Data: map[string]interface{}{
					"RecipientName": member.Student.User.FullName,
					"GroupCode":     session.group.GroupCode,
					"Kind":          kindLabel(kind),
					"Time":          session.at.Format("2006-01-02 15:04"),
					"Room":          payload.Room,
				},
			})
		}
	}
	notify(ctx, s.effects.Notifier, s.logger, notifications...)
	s.effects.publish(ctx, SubjectScheduleCreated, map[string]interface{}{
		"council_id": council.ID,
		"type":       string(kind),
		"sessions":   len(responses),
	})

	return responses, nil
}

// checkBatchTimes rejects duplicate groups and sessions closer than separation within one batch.
func checkBatchTimes(items []dto.ScheduleItemRequest, separation time.Duration) error {
	seen := make(map[uint]struct{}, len(items))
	for _, item := range items {
		if _, dup := seen[item.GroupID]; dup {
			return ErrDuplicateGroupInBatch.WithMessage("group %d appears more than once in the batch", item.GroupID)
		}
		seen[item.GroupID] = struct{}{}
	}

	for i := 0; i < len(items); i++ {
		for j := i + 1; j < len(items); j++ {
			if within(items[i].Time, items[j].Time, separation) {
				return ErrScheduleConflict.WithMessage("groups %d and %d are booked at the same time", items[i].GroupID, items[j].GroupID)
			}
		}
	}
	return nil
}

// within reports whether a and b are closer than separation. A zero separation still rejects exact matches.
func within(a, b time.Time, separation time.Duration) bool {
	diff := a.Sub(b)
	if diff < 0 {
		diff = -diff
	}
	if separation <= 0 {
		return diff == 0
	}
	return diff < separation
}

func kindLabel(kind models.CouncilType) string {
	if kind == models.CouncilTypeReview {
		return "review"
	}
	return "defense"
}

// existingSessions lists the sessions already booked under council.
func (s *scheduleService) existingSessions(ctx context.Context, council models.Council) ([]dto.ScheduleResponse, error) {
	if council.Type == models.CouncilTypeReview {
		schedules, err := s.store.Schedules.ListReviewByCouncil(ctx, council.ID)
		if err != nil {
			return nil, err
		}
		sessions := make([]dto.ScheduleResponse, 0, len(schedules))
		for _, schedule := range schedules {
			sessions = append(sessions, dto.NewReviewScheduleResponse(schedule))
		}
		return sessions, nil
	}

	schedules, err := s.store.Schedules.ListDefenseByCouncil(ctx, council.ID)
	if err != nil {
		return nil, err
	}
	sessions := make([]dto.ScheduleResponse, 0, len(schedules))
	for _, schedule := range schedules {
		sessions = append(sessions, dto.NewDefenseScheduleResponse(schedule))
	}
	return sessions, nil
}

// checkEligibility collects every reason each group cannot be scheduled and fails the whole batch
// with per-group diagnostics when any group has one.
func (s *scheduleService) checkEligibility(ctx context.Context, council models.Council, kind models.CouncilType, payload dto.CreateScheduleRequest, existing []dto.ScheduleResponse) ([]plannedSession, error) {
	groupIDs := make([]uint, 0, len(payload.Groups))
	for _, item := range payload.Groups {
		groupIDs = append(groupIDs, item.GroupID)
	}

	assignments, err := s.store.Topics.ListAssignmentsByGroups(ctx, groupIDs)
	if err != nil {
		return nil, err
	}

	scheduled := make(map[uint]struct{}, len(existing))
	for _, session := range existing {
		scheduled[session.GroupID] = struct{}{}
	}

	sessions := make([]plannedSession, 0, len(payload.Groups))
	diagnostics := make([]dto.GroupDiagnostic, 0)
	for _, item := range payload.Groups {
		diagnostic := dto.GroupDiagnostic{GroupID: item.GroupID}

		group, err := s.store.Groups.GetByID(ctx, item.GroupID)
		if err != nil {
			if !isNotFound(err) {
				return nil, err
			}
			diagnostic.Reasons = append(diagnostic.Reasons, "group not found")
			diagnostics = append(diagnostics, diagnostic)
			continue
		}
		diagnostic.GroupCode = group.GroupCode

		if group.Status != models.GroupStatusActive {
			diagnostic.Reasons = append(diagnostic.Reasons, fmt.Sprintf("group status is %s", group.Status))
		}
		if group.SemesterID != council.SemesterID {
			diagnostic.Reasons = append(diagnostic.Reasons, "group belongs to another semester")
		}
		if _, ok := scheduled[group.ID]; ok {
			diagnostic.Reasons = append(diagnostic.Reasons, "group is already scheduled under this council")
		}

		assignment, assigned := assignments[group.ID]
		switch {
		case !assigned:
			diagnostic.Reasons = append(diagnostic.Reasons, "group has no topic assignment")
		case kind == models.CouncilTypeReview:
			if assignment.DefendStatus != models.DefendStatusAssigned && assignment.DefendStatus != models.DefendStatusConfirmed {
				diagnostic.Reasons = append(diagnostic.Reasons, fmt.Sprintf("review requires ASSIGNED or CONFIRMED, topic is %s", assignment.DefendStatus))
			}
		default:
			if assignment.DefendStatus != models.DefendStatusConfirmed {
				diagnostic.Reasons = append(diagnostic.Reasons, fmt.Sprintf("defense requires CONFIRMED, topic is %s", assignment.DefendStatus))
			} else if assignment.DefenseRound == nil || *assignment.DefenseRound != payload.Round {
				diagnostic.Reasons = append(diagnostic.Reasons, fmt.Sprintf("topic is confirmed for a different round than %d", payload.Round))
			}
		}

		var majorID uint
		switch {
		case group.IsMultiMajor && payload.MajorID == nil:
			diagnostic.Reasons = append(diagnostic.Reasons, "multi-major group requires an explicit major")
		case group.IsMultiMajor:
			majorID = *payload.MajorID
		case len(group.Members) == 0:
			diagnostic.Reasons = append(diagnostic.Reasons, "group has no active members")
		default:
			majorID = group.Members[0].Student.MajorID
		}

		if len(diagnostic.Reasons) > 0 {
			diagnostics = append(diagnostics, diagnostic)
			continue
		}

		sessions = append(sessions, plannedSession{
			group:      group,
			assignment: assignment,
			majorID:    majorID,
			at:         item.Time,
		})
	}

	if len(diagnostics) > 0 {
		return nil, ErrGroupsNotEligible.WithDetails(diagnostics)
	}
	return sessions, nil
}

// checkMentorExclusion rejects a batch when a group's mentor sits on the scheduling council.
func checkMentorExclusion(council models.Council, sessions []plannedSession) error {
	seated := make(map[uint]struct{}, len(council.Members))
	for _, member := range council.Members {
		seated[member.UserID] = struct{}{}
	}

	for _, session := range sessions {
		for _, mentor := range session.group.Mentors {
			if _, ok := seated[mentor.MentorID]; ok {
				return ErrMentorOnCouncil.WithMessage("%s mentors group %s and sits on council %s",
					mentor.Mentor.FullName, session.group.GroupCode, council.Code)
			}
		}
	}
	return nil
}

func (s *scheduleService) writeSession(ctx context.Context, tx *repository.Store, actor Actor, council models.Council, kind models.CouncilType, payload dto.CreateScheduleRequest, session plannedSession) (dto.ScheduleResponse, error) {
	if kind == models.CouncilTypeReview {
		schedule := models.ReviewSchedule{
			CouncilID:         council.ID,
			GroupID:           session.group.ID,
			TopicAssignmentID: session.assignment.ID,
			MajorID:           session.majorID,
			ReviewTime:        session.at,
			Room:              payload.Room,
			Round:             payload.Round,
			Status:            models.ScheduleStatusScheduled,
			CreatedBy:         actor.ID,
		}
		if err := tx.Schedules.CreateReview(ctx, &schedule); err != nil {
			return dto.ScheduleResponse{}, err
		}
		if err := tx.Schedules.CreateReviewAssignment(ctx, &models.ReviewAssignment{
			ReviewScheduleID: schedule.ID,
			CouncilID:        council.ID,
			Status:           models.ResultPending,
		}); err != nil {
			return dto.ScheduleResponse{}, err
		}
		schedule.Group = session.group
		return dto.NewReviewScheduleResponse(schedule), nil
	}

	schedule := models.DefenseSchedule{
		CouncilID:         council.ID,
		GroupID:           session.group.ID,
		TopicAssignmentID: session.assignment.ID,
		MajorID:           session.majorID,
		DefenseTime:       session.at,
		Room:              payload.Room,
		Round:             payload.Round,
		Status:            models.ScheduleStatusScheduled,
		CreatedBy:         actor.ID,
	}
	if err := tx.Schedules.CreateDefense(ctx, &schedule); err != nil {
		return dto.ScheduleResponse{}, err
	}

	// Students who already passed an earlier round are not defended again.
	placeholders := make([]models.DefenseMemberResult, 0, len(session.group.Members))
	for _, member := range session.group.Members {
		if _, err := tx.Schedules.FindPassedResult(ctx, session.group.ID, member.StudentID, payload.Round); err == nil {
			continue
		} else if !isNotFound(err) {
			return dto.ScheduleResponse{}, err
		}
		placeholders = append(placeholders, models.DefenseMemberResult{
			DefenseScheduleID: schedule.ID,
			GroupID:           session.group.ID,
			StudentID:         member.StudentID,
			Round:             payload.Round,
			Result:            models.ResultPending,
		})
	}
	if err := tx.Schedules.CreateDefenseResults(ctx, placeholders); err != nil {
		return dto.ScheduleResponse{}, err
	}

	schedule.Group = session.group
	return dto.NewDefenseScheduleResponse(schedule), nil
}

func (s *scheduleService) ListCouncilSchedules(ctx context.Context, councilID uint) ([]dto.ScheduleResponse, error) {
	council, err := s.store.Councils.GetByID(ctx, councilID)
	if err != nil {
		return nil, notFound(err, ErrCouncilNotFound)
	}
	return s.existingSessions(ctx, council)
}
