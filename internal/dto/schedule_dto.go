package dto

import (
	"time"

	"github.com/noah-isme/thesis-go-api/internal/models"
)

// ScheduleItemRequest places one group at one time.
type ScheduleItemRequest struct {
	GroupID uint      `json:"group_id" validate:"required"`
	Time    time.Time `json:"time" validate:"required"`
}

// CreateScheduleRequest schedules a batch of groups under one council.
type CreateScheduleRequest struct {
	Room    string                `json:"room" validate:"required,max=64"`
	Round   int                   `json:"round" validate:"required,min=1,max=2"`
	MajorID *uint                 `json:"major_id"`
	Groups  []ScheduleItemRequest `json:"groups" validate:"required,min=1,dive"`
}

// GroupDiagnostic lists the reasons one group cannot be scheduled.
type GroupDiagnostic struct {
	GroupID   uint     `json:"group_id"`
	GroupCode string   `json:"group_code,omitempty"`
	Reasons   []string `json:"reasons"`
}

// ScheduleResponse serializes a review or defense session.
type ScheduleResponse struct {
	ID                uint      `json:"id"`
	Type              string    `json:"type"`
	CouncilID         uint      `json:"council_id"`
	GroupID           uint      `json:"group_id"`
	GroupCode         string    `json:"group_code,omitempty"`
	TopicAssignmentID uint      `json:"topic_assignment_id"`
	MajorID           uint      `json:"major_id"`
	Time              time.Time `json:"time"`
	Room              string    `json:"room"`
	Round             int       `json:"round"`
	Status            string    `json:"status"`
}

// EvaluateDefenseRequest records one student's defense result.
type EvaluateDefenseRequest struct {
	Result   string `json:"result" validate:"required,oneof=PASS NOT_PASS"`
	Feedback string `json:"feedback" validate:"omitempty,max=5000"`
}

// DefenseResultResponse serializes a per-student defense result.
type DefenseResultResponse struct {
	ID                uint       `json:"id"`
	DefenseScheduleID uint       `json:"defense_schedule_id"`
	GroupID           uint       `json:"group_id"`
	StudentID         uint       `json:"student_id"`
	Round             int        `json:"round"`
	Result            string     `json:"result"`
	Feedback          string     `json:"feedback"`
	EvaluatedBy       *uint      `json:"evaluated_by"`
	EvaluatedAt       *time.Time `json:"evaluated_at"`
}

// NewReviewScheduleResponse converts a review session.
func NewReviewScheduleResponse(schedule models.ReviewSchedule) ScheduleResponse {
	return ScheduleResponse{
		ID:                schedule.ID,
		Type:              string(models.CouncilTypeReview),
		CouncilID:         schedule.CouncilID,
		GroupID:           schedule.GroupID,
		GroupCode:         schedule.Group.GroupCode,
		TopicAssignmentID: schedule.TopicAssignmentID,
		MajorID:           schedule.MajorID,
		Time:              schedule.ReviewTime,
		Room:              schedule.Room,
		Round:             schedule.Round,
		Status:            schedule.Status,
	}
}

// NewDefenseScheduleResponse converts a defense session.
func NewDefenseScheduleResponse(schedule models.DefenseSchedule) ScheduleResponse {
	return ScheduleResponse{
		ID:                schedule.ID,
		Type:              string(models.CouncilTypeDefense),
		CouncilID:         schedule.CouncilID,
		GroupID:           schedule.GroupID,
		GroupCode:         schedule.Group.GroupCode,
		TopicAssignmentID: schedule.TopicAssignmentID,
		MajorID:           schedule.MajorID,
		Time:              schedule.DefenseTime,
		Room:              schedule.Room,
		Round:             schedule.Round,
		Status:            schedule.Status,
	}
}

// NewDefenseResultResponse converts a result row.
func NewDefenseResultResponse(result models.DefenseMemberResult) DefenseResultResponse {
	return DefenseResultResponse{
		ID:                result.ID,
		DefenseScheduleID: result.DefenseScheduleID,
		GroupID:           result.GroupID,
		StudentID:         result.StudentID,
		Round:             result.Round,
		Result:            result.Result,
		Feedback:          result.Feedback,
		EvaluatedBy:       result.EvaluatedBy,
		EvaluatedAt:       result.EvaluatedAt,
	}
}
