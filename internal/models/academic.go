package models

import (
	"time"

	"gorm.io/gorm"
)

// SemesterStatus tracks where a semester sits on the calendar.
type SemesterStatus string

const (
	SemesterStatusUpcoming SemesterStatus = "UPCOMING"
	SemesterStatusActive   SemesterStatus = "ACTIVE"
	SemesterStatusComplete SemesterStatus = "COMPLETE"
)

// Semester is a time-boxed academic period that scopes groups, councils and schedules.
type Semester struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	Code      string         `gorm:"size:32;uniqueIndex;not null" json:"code"`
	Name      string         `gorm:"size:255;not null" json:"name"`
	StartDate time.Time      `gorm:"not null" json:"start_date"`
	EndDate   time.Time      `gorm:"not null" json:"end_date"`
	Status    SemesterStatus `gorm:"size:16;not null;default:UPCOMING" json:"status"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// SubmissionPeriodType names the purpose of a submission period.
type SubmissionPeriodType string

const (
	SubmissionPeriodTopic      SubmissionPeriodType = "TOPIC"
	SubmissionPeriodCheckTopic SubmissionPeriodType = "CHECK_TOPIC"
	SubmissionPeriodReview     SubmissionPeriodType = "REVIEW"
	SubmissionPeriodDefense    SubmissionPeriodType = "DEFENSE"
)

// SubmissionPeriod is a bounded window within a semester for a given round.
type SubmissionPeriod struct {
	ID          uint                 `gorm:"primaryKey" json:"id"`
	SemesterID  uint                 `gorm:"not null;index" json:"semester_id"`
	RoundNumber int                  `gorm:"not null" json:"round_number"`
	Type        SubmissionPeriodType `gorm:"size:32;not null" json:"type"`
	StartDate   time.Time            `gorm:"not null" json:"start_date"`
	EndDate     time.Time            `gorm:"not null" json:"end_date"`
	CreatedAt   time.Time            `json:"created_at"`
	UpdatedAt   time.Time            `json:"updated_at"`
	DeletedAt   gorm.DeletedAt       `gorm:"index" json:"-"`
}

// Major is a degree programme.
type Major struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"size:255;uniqueIndex;not null" json:"name"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
