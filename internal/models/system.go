package models

import "time"

// SystemConfig stores an administrator override for a tunable policy value.
type SystemConfig struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Key         string    `gorm:"size:128;uniqueIndex;not null" json:"key"`
	Value       string    `gorm:"size:512;not null" json:"value"`
	Description string    `gorm:"size:512" json:"description"`
	UpdatedBy   *uint     `json:"updated_by"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Email delivery outcomes.
const (
	EmailStatusSent   = "sent"
	EmailStatusFailed = "failed"
)

// EmailLog records one email send attempt.
type EmailLog struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Recipient string    `gorm:"size:255;not null;index" json:"recipient"`
	Subject   string    `gorm:"size:255;not null" json:"subject"`
	Body      string    `gorm:"type:text" json:"body"`
	Template  string    `gorm:"size:64" json:"template"`
	Status    string    `gorm:"size:16;not null" json:"status"`
	Error     string    `gorm:"type:text" json:"error,omitempty"`
	SentAt    time.Time `gorm:"not null" json:"sent_at"`
	CreatedAt time.Time `json:"created_at"`
}

// All returns every model the service migrates at start-up.
func All() []interface{} {
	return []interface{}{
		&User{}, &UserRole{}, &Major{}, &Semester{}, &SubmissionPeriod{},
		&Student{}, &StudentSemester{},
		&Group{}, &GroupMember{}, &GroupMentor{}, &GroupInvitation{},
		&Topic{}, &TopicAssignment{},
		&Council{}, &CouncilMember{},
		&ReviewSchedule{}, &ReviewAssignment{}, &DefenseSchedule{}, &DefenseMemberResult{},
		&SystemConfig{}, &EmailLog{}, &ActivityLog{},
	}
}
