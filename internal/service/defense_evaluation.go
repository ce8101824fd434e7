package service

import (
	"context"
	"strings"

	"github.com/noah-isme/thesis-go-api/internal/dto"
	"github.com/noah-isme/thesis-go-api/internal/models"
	"github.com/noah-isme/thesis-go-api/internal/observability"
	"github.com/noah-isme/thesis-go-api/internal/repository"
)

func (s *scheduleService) EvaluateDefenseMember(ctx context.Context, actor Actor, scheduleID, studentID uint, payload dto.EvaluateDefenseRequest) (dto.DefenseResultResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.DefenseResultResponse{}, err
	}

	ctx, span := s.tracer.Start(ctx, "schedules.evaluate_defense")
	defer span.End()

	schedule, err := s.store.Schedules.GetDefense(ctx, scheduleID)
	if err != nil {
		return dto.DefenseResultResponse{}, notFound(err, ErrScheduleNotFound)
	}

	council, err := s.store.Councils.GetByID(ctx, schedule.CouncilID)
	if err != nil {
		return dto.DefenseResultResponse{}, notFound(err, ErrCouncilNotFound)
	}
	if err := s.authorizeEvaluator(ctx, actor, council); err != nil {
		return dto.DefenseResultResponse{}, err
	}

	result, err := s.store.Schedules.GetResult(ctx, schedule.ID, studentID)
	if err != nil {
		return dto.DefenseResultResponse{}, notFound(err, ErrStudentNotInSchedule)
	}

	if passed, err := s.store.Schedules.FindPassedResult(ctx, schedule.GroupID, studentID, schedule.Round); err == nil {
		return dto.DefenseResultResponse{}, ErrAlreadyPassed.WithMessage("student already passed the round %d defense", passed.Round)
	} else if !isNotFound(err) {
		return dto.DefenseResultResponse{}, err
	}

	evaluatedAt := s.now()
	evaluatedBy := actor.ID
	result.Result = payload.Result
	result.Feedback = strings.TrimSpace(s.sanitizer.Sanitize(payload.Feedback))
	result.EvaluatedBy = &evaluatedBy
	result.EvaluatedAt = &evaluatedAt

	var outcome models.DefendStatus
	err = s.store.Transaction(ctx, func(tx *repository.Store) error {
		if err := tx.Schedules.SaveResult(ctx, &result); err != nil {
			return err
		}

		results, err := tx.Schedules.ListResults(ctx, schedule.ID)
		if err != nil {
			return err
		}

		allPassed := true
		for _, r := range results {
			if r.Result == models.ResultPending {
				return nil
			}
			if r.Result != models.ResultPass {
				allPassed = false
			}
		}

		outcome = models.DefendStatusNotPassed
		if allPassed {
			outcome = models.DefendStatusPassed
		}

		assignment, err := tx.Topics.GetAssignment(ctx, schedule.TopicAssignmentID)
		if err != nil {
			return notFound(err, ErrAssignmentNotFound)
		}
		if assignment.DefendStatus.CanTransitionTo(outcome) || revisesOutcome(schedule, assignment, outcome) {
			assignment.DefendStatus = outcome
			if err := tx.Topics.UpdateAssignment(ctx, &assignment); err != nil {
				return err
			}
		} else {
			s.logger.Warn().
				Uint("assignment_id", assignment.ID).
				Str("from", string(assignment.DefendStatus)).
				Str("to", string(outcome)).
				Msg("defense outcome does not fit the topic state, leaving it unchanged")
		}

		return tx.Schedules.MarkDefenseCompleted(ctx, schedule.ID)
	})
	if err != nil {
		return dto.DefenseResultResponse{}, err
	}

	observability.DefenseEvaluations().WithLabelValues(result.Result).Inc()
	event := s.logger.Info().Uint("schedule_id", schedule.ID).Uint("student_id", studentID).Str("result", result.Result)
	if outcome != "" {
		event = event.Str("outcome", string(outcome))
	}
	event.Msg("defense result recorded")

	recordActivity(ctx, s.effects.Activity, s.logger, ActivityEntry{
		ActorID:    actor.ID,
		Action:     ActionDefenseEvaluated,
		EntityType: "defense_schedule",
		EntityID:   uintPtr(schedule.ID),
		Metadata: map[string]interface{}{
			"student_id": studentID,
			"result":     result.Result,
			"round":      schedule.Round,
		},
	})

	if student, err := s.store.Students.GetByID(ctx, studentID); err == nil {
		notify(ctx, s.effects.Notifier, s.logger, Notification{
			To:       student.User.Email,
			Subject:  "Your defense result is available",
			Template: TemplateDefenseResult,
			Data: map[string]interface{}{
				"StudentName": student.User.FullName,
				"Round":       schedule.Round,
				"Result":      result.Result,
				"Feedback":    result.Feedback,
			},
		})
	}

	s.effects.publish(ctx, SubjectDefenseEvaluated, map[string]interface{}{
		"schedule_id": schedule.ID,
		"group_id":    schedule.GroupID,
		"student_id":  studentID,
		"result":      result.Result,
		"outcome":     string(outcome),
	})

	return dto.NewDefenseResultResponse(result), nil
}

// authorizeEvaluator requires a seat on the council plus an evaluation role: chairman or secretary
// on the council, or the lecturer role.
func (s *scheduleService) authorizeEvaluator(ctx context.Context, actor Actor, council models.Council) error {
	for _, member := range council.Members {
		if member.UserID != actor.ID {
			continue
		}
		if member.Role == models.RoleCouncilChairman || member.Role == models.RoleCouncilSecretary {
			return nil
		}
		lecturer, err := s.authz.Holds(ctx, actor, &council.SemesterID, models.RoleLecturer)
		if err != nil {
			return err
		}
		if lecturer {
			return nil
		}
		return ErrEvaluatorNotAllowed
	}
	return ErrEvaluatorNotAllowed.WithMessage("evaluator does not sit on council %s", council.Code)
}

// revisesOutcome lets the latest completed session lift its own NOT_PASSED outcome once every
// failed result has been corrected to PASS.
func revisesOutcome(schedule models.DefenseSchedule, assignment models.TopicAssignment, outcome models.DefendStatus) bool {
	if schedule.Status != models.ScheduleStatusCompleted || outcome != models.DefendStatusPassed {
		return false
	}
	if assignment.DefendStatus != models.DefendStatusNotPassed {
		return false
	}
	return assignment.DefenseRound == nil || *assignment.DefenseRound == schedule.Round
}
