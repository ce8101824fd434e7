package dto

import (
	"time"

	"github.com/noah-isme/thesis-go-api/internal/models"
)

// CreateGroupRequest captures payloads for forming a group. LeaderUserID and IsMultiMajor are honoured
// for staff only.
type CreateGroupRequest struct {
	SemesterID   uint `json:"semester_id" validate:"required"`
	LeaderUserID uint `json:"leader_user_id"`
	IsMultiMajor bool `json:"is_multi_major"`
}

// InviteMemberRequest invites a student into a group.
type InviteMemberRequest struct {
	StudentID uint `json:"student_id" validate:"required"`
}

// RespondInvitationRequest answers a pending invitation.
type RespondInvitationRequest struct {
	Response string `json:"response" validate:"required,oneof=ACCEPTED REJECTED"`
}

// RandomizeGroupsRequest triggers automatic grouping for a semester.
type RandomizeGroupsRequest struct {
	SemesterID uint `json:"semester_id" validate:"required"`
}

// ChangeLeaderRequest hands leadership to another active member.
type ChangeLeaderRequest struct {
	StudentID uint `json:"student_id" validate:"required"`
}

// AddMentorRequest assigns a lecturer to supervise a group.
type AddMentorRequest struct {
	MentorUserID uint   `json:"mentor_user_id" validate:"required"`
	Role         string `json:"role" validate:"required,oneof=mentor_main mentor_sub"`
}

// GroupMemberResponse serializes an active membership.
type GroupMemberResponse struct {
	ID          uint      `json:"id"`
	StudentID   uint      `json:"student_id"`
	UserID      uint      `json:"user_id"`
	StudentCode string    `json:"student_code"`
	FullName    string    `json:"full_name"`
	Email       string    `json:"email"`
	MajorID     uint      `json:"major_id"`
	Major       string    `json:"major"`
	Skill       string    `json:"skill,omitempty"`
	Role        string    `json:"role"`
	Status      string    `json:"status"`
	JoinedAt    time.Time `json:"joined_at"`
}

// GroupMentorResponse serializes a mentor assignment.
type GroupMentorResponse struct {
	ID       uint   `json:"id"`
	MentorID uint   `json:"mentor_id"`
	FullName string `json:"full_name"`
	Email    string `json:"email"`
	Role     string `json:"role"`
}

// GroupResponse serializes a group with its members and mentors.
type GroupResponse struct {
	ID            uint                  `json:"id"`
	SemesterID    uint                  `json:"semester_id"`
	GroupCode     string                `json:"group_code"`
	Status        string                `json:"status"`
	MaxMembers    int                   `json:"max_members"`
	IsAutoCreated bool                  `json:"is_auto_created"`
	IsMultiMajor  bool                  `json:"is_multi_major"`
	CreatedBy     uint                  `json:"created_by"`
	Members       []GroupMemberResponse `json:"members"`
	Mentors       []GroupMentorResponse `json:"mentors"`
	CreatedAt     time.Time             `json:"created_at"`
}

// InvitationResponse serializes a group invitation.
type InvitationResponse struct {
	ID          uint       `json:"id"`
	GroupID     uint       `json:"group_id"`
	StudentID   uint       `json:"student_id"`
	InvitedBy   uint       `json:"invited_by"`
	Status      string     `json:"status"`
	RespondedAt *time.Time `json:"responded_at"`
	CreatedAt   time.Time  `json:"created_at"`
}

// NewGroupMemberResponse converts a membership row.
func NewGroupMemberResponse(member models.GroupMember) GroupMemberResponse {
	return GroupMemberResponse{
		ID:          member.ID,
		StudentID:   member.StudentID,
		UserID:      member.Student.UserID,
		StudentCode: member.Student.StudentCode,
		FullName:    member.Student.User.FullName,
		Email:       member.Student.User.Email,
		MajorID:     member.Student.MajorID,
		Major:       member.Student.Major.Name,
		Skill:       member.Student.Skill,
		Role:        member.Role,
		Status:      string(member.Status),
		JoinedAt:    member.JoinedAt,
	}
}

// NewGroupResponse converts a group loaded with its relations.
func NewGroupResponse(group models.Group) GroupResponse {
	members := make([]GroupMemberResponse, 0, len(group.Members))
	for _, member := range group.Members {
		members = append(members, NewGroupMemberResponse(member))
	}

	mentors := make([]GroupMentorResponse, 0, len(group.Mentors))
	for _, mentor := range group.Mentors {
		mentors = append(mentors, GroupMentorResponse{
			ID:       mentor.ID,
			MentorID: mentor.MentorID,
			FullName: mentor.Mentor.FullName,
			Email:    mentor.Mentor.Email,
			Role:     string(mentor.Role),
		})
	}

	return GroupResponse{
		ID:            group.ID,
		SemesterID:    group.SemesterID,
		GroupCode:     group.GroupCode,
		Status:        string(group.Status),
		MaxMembers:    group.MaxMembers,
		IsAutoCreated: group.IsAutoCreated,
		IsMultiMajor:  group.IsMultiMajor,
		CreatedBy:     group.CreatedBy,
		Members:       members,
		Mentors:       mentors,
		CreatedAt:     group.CreatedAt,
	}
}

// NewInvitationResponse converts an invitation row.
func NewInvitationResponse(invitation models.GroupInvitation) InvitationResponse {
	return InvitationResponse{
		ID:          invitation.ID,
		GroupID:     invitation.GroupID,
		StudentID:   invitation.StudentID,
		InvitedBy:   invitation.InvitedBy,
		Status:      string(invitation.Status),
		RespondedAt: invitation.RespondedAt,
		CreatedAt:   invitation.CreatedAt,
	}
}
