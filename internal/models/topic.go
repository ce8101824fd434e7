package models

import (
	"time"

	"gorm.io/gorm"
)

// Topic is a thesis subject offered in a semester.
type Topic struct {
	ID         uint           `gorm:"primaryKey" json:"id"`
	SemesterID uint           `gorm:"not null;index" json:"semester_id"`
	MajorID    uint           `gorm:"not null;index" json:"major_id"`
	Code       string         `gorm:"size:64;uniqueIndex;not null" json:"code"`
	Name       string         `gorm:"size:255;not null" json:"name"`
	CreatedAt  time.Time      `json:"created_at"`
	UpdatedAt  time.Time      `json:"updated_at"`
	DeletedAt  gorm.DeletedAt `gorm:"index" json:"-"`
}

// DefendStatus tracks a group's progress towards a defense slot.
type DefendStatus string

const (
	DefendStatusUnassigned DefendStatus = "UNASSIGNED"
	DefendStatusAssigned   DefendStatus = "ASSIGNED"
	DefendStatusConfirmed  DefendStatus = "CONFIRMED"
	DefendStatusNotPassed  DefendStatus = "NOT_PASSED"
	DefendStatusPassed     DefendStatus = "PASSED"
)

var defendTransitions = map[DefendStatus][]DefendStatus{
	DefendStatusUnassigned: {DefendStatusAssigned},
	DefendStatusAssigned:   {DefendStatusConfirmed, DefendStatusNotPassed},
	DefendStatusConfirmed:  {DefendStatusPassed, DefendStatusNotPassed, DefendStatusConfirmed},
	DefendStatusNotPassed:  {DefendStatusConfirmed},
	DefendStatusPassed:     {},
}

// CanTransitionTo reports whether the transition table allows moving to next.
func (s DefendStatus) CanTransitionTo(next DefendStatus) bool {
	for _, allowed := range defendTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Mentor decisions.
const (
	MentorDecisionPass    = "PASS"
	MentorDecisionNotPass = "NOT_PASS"
)

// TopicAssignment binds a group to a topic and carries defense readiness.
type TopicAssignment struct {
	ID             uint           `gorm:"primaryKey" json:"id"`
	GroupID        uint           `gorm:"not null;index" json:"group_id"`
	TopicID        uint           `gorm:"not null;index" json:"topic_id"`
	DefendStatus   DefendStatus   `gorm:"size:16;not null;default:UNASSIGNED" json:"defend_status"`
	DefenseRound   *int           `json:"defense_round"`
	MentorDecision *string        `gorm:"size:16" json:"mentor_decision"`
	DecidedBy      *uint          `json:"decided_by"`
	DecidedAt      *time.Time     `json:"decided_at"`
	AssignedBy     uint           `gorm:"not null" json:"assigned_by"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
	DeletedAt      gorm.DeletedAt `gorm:"index" json:"-"`
	Topic          Topic          `json:"topic"`
}
