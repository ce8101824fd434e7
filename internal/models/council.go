package models

import (
	"time"

	"gorm.io/gorm"
)

// CouncilType distinguishes review panels from defense panels.
type CouncilType string

const (
	CouncilTypeReview  CouncilType = "REVIEW"
	CouncilTypeDefense CouncilType = "DEFENSE"
)

// CouncilStatus is derived from the council window unless overridden.
type CouncilStatus string

const (
	CouncilStatusUpcoming CouncilStatus = "UPCOMING"
	CouncilStatusActive   CouncilStatus = "ACTIVE"
	CouncilStatusComplete CouncilStatus = "COMPLETE"
)

// Council is a panel of lecturers evaluating groups in one round of a semester.
type Council struct {
	ID                 uint            `gorm:"primaryKey" json:"id"`
	Code               string          `gorm:"size:64;uniqueIndex;not null" json:"code"`
	Name               string          `gorm:"size:255;not null" json:"name"`
	Type               CouncilType     `gorm:"size:16;not null" json:"type"`
	SemesterID         uint            `gorm:"not null;index" json:"semester_id"`
	SubmissionPeriodID *uint           `gorm:"index" json:"submission_period_id"`
	Round              int             `gorm:"not null" json:"round"`
	StartDate          time.Time       `gorm:"not null" json:"start_date"`
	EndDate            time.Time       `gorm:"not null" json:"end_date"`
	Status             CouncilStatus   `gorm:"size:16;not null" json:"status"`
	CreatedBy          uint            `gorm:"not null" json:"created_by"`
	CreatedAt          time.Time       `json:"created_at"`
	UpdatedAt          time.Time       `json:"updated_at"`
	DeletedAt          gorm.DeletedAt  `gorm:"index" json:"-"`
	Semester           Semester        `json:"semester"`
	Members            []CouncilMember `json:"members,omitempty"`
}

// StatusAt derives the council status from its window.
func (c Council) StatusAt(now time.Time) CouncilStatus {
	switch {
	case now.Before(c.StartDate):
		return CouncilStatusUpcoming
	case now.After(c.EndDate):
		return CouncilStatusComplete
	default:
		return CouncilStatusActive
	}
}

// Overlaps reports whether the two council windows intersect.
func (c Council) Overlaps(other Council) bool {
	return c.StartDate.Before(other.EndDate) && other.StartDate.Before(c.EndDate)
}

// CouncilMember seats a user on a council with one council role.
type CouncilMember struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	CouncilID uint           `gorm:"not null;index" json:"council_id"`
	UserID    uint           `gorm:"not null;index" json:"user_id"`
	Role      Role           `gorm:"size:32;not null" json:"role"`
	AddedBy   uint           `gorm:"not null" json:"added_by"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
	User      User           `json:"user"`
}
