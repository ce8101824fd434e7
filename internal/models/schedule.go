package models

import (
	"time"

	"gorm.io/gorm"
)

// Schedule lifecycle values shared by review and defense sessions.
const (
	ScheduleStatusScheduled = "SCHEDULED"
	ScheduleStatusCompleted = "COMPLETED"
)

// ReviewSchedule is one review session for a group under a review council.
type ReviewSchedule struct {
	ID                uint           `gorm:"primaryKey" json:"id"`
	CouncilID         uint           `gorm:"not null;index" json:"council_id"`
	GroupID           uint           `gorm:"not null;index" json:"group_id"`
	TopicAssignmentID uint           `gorm:"not null" json:"topic_assignment_id"`
	MajorID           uint           `gorm:"not null" json:"major_id"`
	ReviewTime        time.Time      `gorm:"not null" json:"review_time"`
	Room              string         `gorm:"size:64" json:"room"`
	Round             int            `gorm:"not null" json:"round"`
	Status            string         `gorm:"size:16;not null" json:"status"`
	CreatedBy         uint           `gorm:"not null" json:"created_by"`
	CreatedAt         time.Time      `json:"created_at"`
	UpdatedAt         time.Time      `json:"updated_at"`
	DeletedAt         gorm.DeletedAt `gorm:"index" json:"-"`
	Group             Group          `json:"group"`
}

// Placeholder statuses for per-session result rows.
const (
	ResultPending = "PENDING"
	ResultPass    = "PASS"
	ResultNotPass = "NOT_PASS"
)

// ReviewAssignment holds the review outcome for a review schedule.
type ReviewAssignment struct {
	ID               uint           `gorm:"primaryKey" json:"id"`
	ReviewScheduleID uint           `gorm:"not null;uniqueIndex" json:"review_schedule_id"`
	CouncilID        uint           `gorm:"not null;index" json:"council_id"`
	Status           string         `gorm:"size:16;not null" json:"status"`
	Feedback         string         `gorm:"type:text" json:"feedback"`
	CreatedAt        time.Time      `json:"created_at"`
	UpdatedAt        time.Time      `json:"updated_at"`
	DeletedAt        gorm.DeletedAt `gorm:"index" json:"-"`
}

// DefenseSchedule is one defense session for a group under a defense council.
type DefenseSchedule struct {
	ID                uint           `gorm:"primaryKey" json:"id"`
	CouncilID         uint           `gorm:"not null;index" json:"council_id"`
	GroupID           uint           `gorm:"not null;index" json:"group_id"`
	TopicAssignmentID uint           `gorm:"not null" json:"topic_assignment_id"`
	MajorID           uint           `gorm:"not null" json:"major_id"`
	DefenseTime       time.Time      `gorm:"not null" json:"defense_time"`
	Room              string         `gorm:"size:64" json:"room"`
	Round             int            `gorm:"not null" json:"round"`
	Status            string         `gorm:"size:16;not null" json:"status"`
	CreatedBy         uint           `gorm:"not null" json:"created_by"`
	CreatedAt         time.Time      `json:"created_at"`
	UpdatedAt         time.Time      `json:"updated_at"`
	DeletedAt         gorm.DeletedAt `gorm:"index" json:"-"`
	Group             Group          `json:"group"`
}

// DefenseMemberResult is the per-student outcome of a defense session.
type DefenseMemberResult struct {
	ID                uint           `gorm:"primaryKey" json:"id"`
	DefenseScheduleID uint           `gorm:"not null;index" json:"defense_schedule_id"`
	GroupID           uint           `gorm:"not null;index" json:"group_id"`
	StudentID         uint           `gorm:"not null;index" json:"student_id"`
	Round             int            `gorm:"not null" json:"round"`
	Result            string         `gorm:"size:16;not null" json:"result"`
	Feedback          string         `gorm:"type:text" json:"feedback"`
	EvaluatedBy       *uint          `json:"evaluated_by"`
	EvaluatedAt       *time.Time     `json:"evaluated_at"`
	CreatedAt         time.Time      `json:"created_at"`
	UpdatedAt         time.Time      `json:"updated_at"`
	DeletedAt         gorm.DeletedAt `gorm:"index" json:"-"`
}
