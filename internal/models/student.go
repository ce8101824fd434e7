package models

import (
	"time"

	"gorm.io/gorm"
)

// Skill tags used when balancing auto-created groups.
const (
	SkillFrontEnd  = "Front-end"
	SkillBackEnd   = "Back-end"
	SkillFullStack = "Full-stack"
)

// Student wraps a user account with academic identity.
type Student struct {
	ID               uint           `gorm:"primaryKey" json:"id"`
	UserID           uint           `gorm:"not null;uniqueIndex" json:"user_id"`
	StudentCode      string         `gorm:"size:32;uniqueIndex;not null" json:"student_code"`
	MajorID          uint           `gorm:"not null;index" json:"major_id"`
	SpecializationID *uint          `json:"specialization_id"`
	Skill            string         `gorm:"size:32" json:"skill"`
	CreatedAt        time.Time      `json:"created_at"`
	UpdatedAt        time.Time      `json:"updated_at"`
	DeletedAt        gorm.DeletedAt `gorm:"index" json:"-"`
	User             User           `json:"user"`
	Major            Major          `json:"major"`
}

// Per-semester eligibility values.
const (
	StudentSemesterQualified    = "qualified"
	StudentSemesterNotQualified = "not_qualified"
)

// StudentSemester records whether a student may take part in thesis work in a semester.
type StudentSemester struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	StudentID  uint      `gorm:"not null;uniqueIndex:idx_student_semester" json:"student_id"`
	SemesterID uint      `gorm:"not null;uniqueIndex:idx_student_semester" json:"semester_id"`
	Status     string    `gorm:"size:32;not null" json:"status"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// IsQualified reports whether the eligibility row permits group membership.
func (s StudentSemester) IsQualified() bool {
	return s.Status == StudentSemesterQualified
}
