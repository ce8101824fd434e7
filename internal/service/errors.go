package service

import (
	"errors"
	"fmt"
)

// ErrorKind classifies business failures so the transport can map them to status codes.
type ErrorKind string

const (
	KindNotFound     ErrorKind = "not_found"
	KindConflict     ErrorKind = "conflict"
	KindForbidden    ErrorKind = "forbidden"
	KindInvalidState ErrorKind = "invalid_state"
	KindValidation   ErrorKind = "validation"
	KindSystem       ErrorKind = "system"
)

// Error is a structured business error. Two errors match under errors.Is when their codes are equal.
type Error struct {
	Kind    ErrorKind
	Code    string
	Message string
	Details interface{}
}

func (e *Error) Error() string {
	return e.Message
}

// Is compares by code so decorated copies still match their sentinel.
func (e *Error) Is(target error) bool {
	var other *Error
	if !errors.As(target, &other) {
		return false
	}
	return other.Code == e.Code
}

// WithMessage returns a copy of e carrying a more specific message.
func (e *Error) WithMessage(format string, args ...interface{}) *Error {
	clone := *e
	clone.Message = fmt.Sprintf(format, args...)
	return &clone
}

// WithDetails returns a copy of e carrying structured details for the caller.
func (e *Error) WithDetails(details interface{}) *Error {
	clone := *e
	clone.Details = details
	return &clone
}

func newError(kind ErrorKind, code, message string) *Error {
	return &Error{Kind: kind, Code: code, Message: message}
}

// AsError extracts the business error from err, if any.
func AsError(err error) (*Error, bool) {
	var target *Error
	if errors.As(err, &target) {
		return target, true
	}
	return nil, false
}

// Shared.
var (
	ErrForbidden        = newError(KindForbidden, "FORBIDDEN", "you are not allowed to perform this action")
	ErrUserNotFound     = newError(KindNotFound, "USER_NOT_FOUND", "user not found")
	ErrStudentNotFound  = newError(KindNotFound, "STUDENT_NOT_FOUND", "student not found")
	ErrSemesterNotFound = newError(KindNotFound, "SEMESTER_NOT_FOUND", "semester not found")
	ErrNotLecturer      = newError(KindValidation, "NOT_LECTURER", "user does not hold the lecturer role")
)

// Groups.
var (
	ErrGroupNotFound              = newError(KindNotFound, "GROUP_NOT_FOUND", "group not found")
	ErrGroupFull                  = newError(KindConflict, "GROUP_FULL", "group has reached its maximum number of members")
	ErrGroupNotActive             = newError(KindInvalidState, "GROUP_NOT_ACTIVE", "group is not active")
	ErrMemberAlreadyExists        = newError(KindConflict, "MEMBER_ALREADY_EXISTS", "student is already a member of this group")
	ErrAlreadyInGroup             = newError(KindConflict, "ALREADY_IN_GROUP", "student already belongs to an active group this semester")
	ErrStudentNotEligible         = newError(KindValidation, "STUDENT_NOT_ELIGIBLE", "student is not qualified for this semester")
	ErrMajorMismatch              = newError(KindValidation, "MAJOR_MISMATCH", "student major does not match the group major")
	ErrInvitationExists           = newError(KindConflict, "INVITATION_EXISTS", "a pending invitation already exists for this student")
	ErrInvitationNotFound         = newError(KindNotFound, "INVITATION_NOT_FOUND", "invitation not found")
	ErrInvitationAlreadyProcessed = newError(KindInvalidState, "INVITATION_ALREADY_PROCESSED", "invitation has already been processed")
	ErrMemberNotFound             = newError(KindNotFound, "MEMBER_NOT_FOUND", "student is not an active member of this group")
	ErrLeaderChangeClosed         = newError(KindForbidden, "LEADER_CHANGE_CLOSED", "the leader change deadline has passed")
	ErrLeaderCannotBeRemoved      = newError(KindInvalidState, "LEADER_CANNOT_BE_REMOVED", "the group leader cannot be removed; change the leader first")
	ErrGroupHasMembers            = newError(KindInvalidState, "GROUP_HAS_MEMBERS", "group still has members besides the leader")
	ErrMentorExists               = newError(KindConflict, "MENTOR_ALREADY_EXISTS", "mentor is already assigned to this group")
	ErrMentorLimit                = newError(KindConflict, "MENTOR_LIMIT_REACHED", "group has reached its maximum number of mentors")
	ErrMainMentorExists           = newError(KindConflict, "MAIN_MENTOR_EXISTS", "group already has a main mentor")
	ErrMentorNotFound             = newError(KindNotFound, "MENTOR_NOT_FOUND", "mentor is not assigned to this group")
)

// Councils.
var (
	ErrCouncilNotFound        = newError(KindNotFound, "COUNCIL_NOT_FOUND", "council not found")
	ErrCouncilCodeConflict    = newError(KindConflict, "COUNCIL_CODE_CONFLICT", "council code already exists")
	ErrInvalidWindow          = newError(KindValidation, "INVALID_WINDOW", "start date must be before end date")
	ErrPeriodMismatch         = newError(KindValidation, "SUBMISSION_PERIOD_MISMATCH", "submission period does not belong to the semester")
	ErrCouncilMemberExists    = newError(KindConflict, "COUNCIL_MEMBER_EXISTS", "user is already a member of this council")
	ErrCouncilMemberNotFound  = newError(KindNotFound, "COUNCIL_MEMBER_NOT_FOUND", "user is not a member of this council")
	ErrDuplicateCouncilMember = newError(KindValidation, "DUPLICATE_COUNCIL_MEMBER", "roster lists the same user more than once")
	ErrCouncilOverlap         = newError(KindConflict, "COUNCIL_OVERLAP", "user sits on another council in an overlapping window")
	ErrCouncilMentorConflict  = newError(KindConflict, "COUNCIL_MENTOR_CONFLICT", "user mentors a group scheduled under this council")
	ErrRoleQuotaExceeded      = newError(KindConflict, "ROLE_QUOTA_EXCEEDED", "council role quota exceeded")
	ErrCouncilFull            = newError(KindConflict, "COUNCIL_FULL", "council has reached its maximum number of members")
	ErrInvalidCouncilRole     = newError(KindValidation, "INVALID_COUNCIL_ROLE", "role is not a council role")
	ErrCouncilBusy            = newError(KindConflict, "COUNCIL_BUSY", "council roster is being modified, retry shortly")
)

// Topics and schedules.
var (
	ErrTopicNotFound         = newError(KindNotFound, "TOPIC_NOT_FOUND", "topic not found")
	ErrTopicSemesterMismatch = newError(KindValidation, "TOPIC_SEMESTER_MISMATCH", "topic belongs to a different semester")
	ErrTopicAlreadyAssigned  = newError(KindConflict, "TOPIC_ALREADY_ASSIGNED", "group already has a topic assignment")
	ErrAssignmentNotFound    = newError(KindNotFound, "TOPIC_ASSIGNMENT_NOT_FOUND", "group has no topic assignment")
	ErrInvalidTransition     = newError(KindInvalidState, "INVALID_TRANSITION", "defend status transition not allowed")
	ErrAlreadyPassed         = newError(KindInvalidState, "ALREADY_PASSED", "already passed")
	ErrInvalidDecision       = newError(KindValidation, "INVALID_DECISION", "invalid mentor decision")
	ErrCouncilTypeMismatch   = newError(KindInvalidState, "COUNCIL_TYPE_MISMATCH", "council type does not match the schedule type")
	ErrCouncilRoundMismatch  = newError(KindInvalidState, "COUNCIL_ROUND_MISMATCH", "batch round does not match the council round")
	ErrEmptyBatch            = newError(KindValidation, "EMPTY_BATCH", "schedule batch must contain at least one group")
	ErrBatchTooLarge         = newError(KindValidation, "BATCH_TOO_LARGE", "schedule batch exceeds the allowed number of groups")
	ErrDuplicateGroupInBatch = newError(KindValidation, "DUPLICATE_GROUP_IN_BATCH", "group appears more than once in the batch")
	ErrScheduleConflict      = newError(KindConflict, "SCHEDULE_CONFLICT", "schedule time collides with another session")
	ErrGroupsNotEligible     = newError(KindInvalidState, "GROUPS_NOT_ELIGIBLE", "one or more groups cannot be scheduled")
	ErrMentorOnCouncil       = newError(KindConflict, "MENTOR_ON_COUNCIL", "a group mentor sits on the scheduling council")
	ErrScheduleNotFound      = newError(KindNotFound, "SCHEDULE_NOT_FOUND", "schedule not found")
	ErrEvaluatorNotAllowed   = newError(KindForbidden, "EVALUATOR_NOT_ALLOWED", "evaluator does not hold an evaluation role on this council")
	ErrStudentNotInSchedule  = newError(KindNotFound, "STUDENT_NOT_IN_SCHEDULE", "student is not part of this defense session")
	ErrUnknownConfigKey      = newError(KindNotFound, "CONFIG_KEY_NOT_FOUND", "unknown configuration key")
	ErrInvalidConfigValue    = newError(KindValidation, "INVALID_CONFIG_VALUE", "configuration value must be a non-negative integer")
)
