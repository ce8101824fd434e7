package models

import (
	"strings"
	"time"

	"gorm.io/gorm"
)

// Role is a business role held by a user, optionally scoped to a semester.
type Role string

const (
	RoleAdmin                   Role = "admin"
	RoleAcademicOfficer         Role = "academic_officer"
	RoleGraduationThesisManager Role = "graduation_thesis_manager"
	RoleExaminationOfficer      Role = "examination_officer"
	RoleLecturer                Role = "lecturer"
	RoleStudent                 Role = "student"
	RoleMentorMain              Role = "mentor_main"
	RoleMentorSub               Role = "mentor_sub"
	RoleCouncilChairman         Role = "council_chairman"
	RoleCouncilSecretary        Role = "council_secretary"
	RoleCouncilMember           Role = "council_member"
)

var knownRoles = map[Role]struct{}{
	RoleAdmin:                   {},
	RoleAcademicOfficer:         {},
	RoleGraduationThesisManager: {},
	RoleExaminationOfficer:      {},
	RoleLecturer:                {},
	RoleStudent:                 {},
	RoleMentorMain:              {},
	RoleMentorSub:               {},
	RoleCouncilChairman:         {},
	RoleCouncilSecretary:        {},
	RoleCouncilMember:           {},
}

// ParseRole normalises a raw role string. Unknown roles report false.
func ParseRole(raw string) (Role, bool) {
	role := Role(strings.ToLower(strings.TrimSpace(raw)))
	_, ok := knownRoles[role]
	return role, ok
}

// IsCouncilRole reports whether the role is one a council member may hold.
func (r Role) IsCouncilRole() bool {
	return r == RoleCouncilChairman || r == RoleCouncilSecretary || r == RoleCouncilMember
}

// IsMentorRole reports whether the role is one a group mentor may hold.
func (r Role) IsMentorRole() bool {
	return r == RoleMentorMain || r == RoleMentorSub
}

// User is an account that can sign in to the platform.
type User struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	Email     string         `gorm:"size:255;uniqueIndex;not null" json:"email"`
	FullName  string         `gorm:"size:255;not null" json:"full_name"`
	IsActive  bool           `gorm:"not null;default:true" json:"is_active"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// UserRole grants a role to a user. A nil SemesterID means the grant is global.
type UserRole struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	UserID     uint      `gorm:"not null;index" json:"user_id"`
	Role       Role      `gorm:"size:64;not null;index" json:"role"`
	SemesterID *uint     `gorm:"index" json:"semester_id"`
	IsActive   bool      `gorm:"not null;default:true" json:"is_active"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}
