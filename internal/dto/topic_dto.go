package dto

import (
	"time"

	"github.com/noah-isme/thesis-go-api/internal/models"
)

// AssignTopicRequest binds a topic to a group.
type AssignTopicRequest struct {
	TopicID uint `json:"topic_id" validate:"required"`
}

// MentorDecisionRequest records the mentor's readiness decision. DefenseRound is required for PASS only.
type MentorDecisionRequest struct {
	Decision     string `json:"decision" validate:"required,oneof=PASS NOT_PASS"`
	DefenseRound *int   `json:"defense_round"`
}

// TopicAssignmentResponse serializes a topic assignment.
type TopicAssignmentResponse struct {
	ID             uint       `json:"id"`
	GroupID        uint       `json:"group_id"`
	TopicID        uint       `json:"topic_id"`
	TopicCode      string     `json:"topic_code"`
	TopicName      string     `json:"topic_name"`
	DefendStatus   string     `json:"defend_status"`
	DefenseRound   *int       `json:"defense_round"`
	MentorDecision *string    `json:"mentor_decision"`
	DecidedBy      *uint      `json:"decided_by"`
	DecidedAt      *time.Time `json:"decided_at"`
}

// NewTopicAssignmentResponse converts an assignment row.
func NewTopicAssignmentResponse(assignment models.TopicAssignment) TopicAssignmentResponse {
	return TopicAssignmentResponse{
		ID:             assignment.ID,
		GroupID:        assignment.GroupID,
		TopicID:        assignment.TopicID,
		TopicCode:      assignment.Topic.Code,
		TopicName:      assignment.Topic.Name,
		DefendStatus:   string(assignment.DefendStatus),
		DefenseRound:   assignment.DefenseRound,
		MentorDecision: assignment.MentorDecision,
		DecidedBy:      assignment.DecidedBy,
		DecidedAt:      assignment.DecidedAt,
	}
}
