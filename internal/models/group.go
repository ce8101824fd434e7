package models

import (
	"time"

	"gorm.io/gorm"
)

// GroupStatus describes the lifecycle of a thesis group.
type GroupStatus string

const (
	GroupStatusActive  GroupStatus = "ACTIVE"
	GroupStatusLocked  GroupStatus = "LOCKED"
	GroupStatusDeleted GroupStatus = "DELETED"
)

// Group is a team of students working on one thesis topic within one semester.
type Group struct {
	ID            uint           `gorm:"primaryKey" json:"id"`
	SemesterID    uint           `gorm:"not null;index" json:"semester_id"`
	GroupCode     string         `gorm:"size:32;not null;index" json:"group_code"`
	Status        GroupStatus    `gorm:"size:16;not null;default:ACTIVE" json:"status"`
	MaxMembers    int            `gorm:"not null" json:"max_members"`
	IsAutoCreated bool           `gorm:"not null;default:false" json:"is_auto_created"`
	IsMultiMajor  bool           `gorm:"not null;default:false" json:"is_multi_major"`
	CreatedBy     uint           `gorm:"not null" json:"created_by"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
	DeletedAt     gorm.DeletedAt `gorm:"index" json:"-"`
	Semester      Semester       `json:"semester"`
	Members       []GroupMember  `json:"members,omitempty"`
	Mentors       []GroupMentor  `json:"mentors,omitempty"`
}

// TableName avoids the GROUPS keyword in raw SQL fragments.
func (Group) TableName() string {
	return "thesis_groups"
}

// Member roles inside a group.
const (
	GroupRoleLeader = "leader"
	GroupRoleMember = "member"
)

// MemberStatus marks whether a membership counts towards the group.
type MemberStatus string

const (
	MemberStatusActive   MemberStatus = "ACTIVE"
	MemberStatusInactive MemberStatus = "INACTIVE"
)

// GroupMember joins a student to a group.
type GroupMember struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	GroupID   uint           `gorm:"not null;index" json:"group_id"`
	StudentID uint           `gorm:"not null;index" json:"student_id"`
	Role      string         `gorm:"size:16;not null" json:"role"`
	Status    MemberStatus   `gorm:"size:16;not null;default:ACTIVE" json:"status"`
	JoinedAt  time.Time      `json:"joined_at"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
	Student   Student        `json:"student"`
}

// IsLeader reports whether the membership carries the leader role.
func (m GroupMember) IsLeader() bool {
	return m.Role == GroupRoleLeader
}

// GroupMentor assigns a lecturer to supervise a group.
type GroupMentor struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	GroupID   uint           `gorm:"not null;index" json:"group_id"`
	MentorID  uint           `gorm:"not null;index" json:"mentor_id"`
	Role      Role           `gorm:"size:32;not null" json:"role"`
	AddedBy   uint           `gorm:"not null" json:"added_by"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
	Mentor    User           `gorm:"foreignKey:MentorID" json:"mentor"`
}

// InvitationStatus tracks the answer to a group invitation.
type InvitationStatus string

const (
	InvitationPending  InvitationStatus = "PENDING"
	InvitationAccepted InvitationStatus = "ACCEPTED"
	InvitationRejected InvitationStatus = "REJECTED"
	InvitationExpired  InvitationStatus = "EXPIRED"
)

// GroupInvitation proposes adding a student to a group.
type GroupInvitation struct {
	ID          uint             `gorm:"primaryKey" json:"id"`
	GroupID     uint             `gorm:"not null;index" json:"group_id"`
	StudentID   uint             `gorm:"not null;index" json:"student_id"`
	InvitedBy   uint             `gorm:"not null" json:"invited_by"`
	Status      InvitationStatus `gorm:"size:16;not null;default:PENDING" json:"status"`
	RespondedAt *time.Time       `json:"responded_at"`
	CreatedAt   time.Time        `json:"created_at"`
	UpdatedAt   time.Time        `json:"updated_at"`
	DeletedAt   gorm.DeletedAt   `gorm:"index" json:"-"`
	Group       Group            `json:"group"`
}
