package dto

import (
	"time"

	"github.com/noah-isme/thesis-go-api/internal/models"
)

// CreateCouncilRequest captures payloads for composing a council.
type CreateCouncilRequest struct {
	Name               string    `json:"name" validate:"required,min=3,max=255"`
	SemesterID         uint      `json:"semester_id" validate:"required"`
	SubmissionPeriodID *uint     `json:"submission_period_id"`
	Type               string    `json:"type" validate:"required,oneof=REVIEW DEFENSE"`
	Round              int       `json:"round" validate:"required,min=1,max=2"`
	StartDate          time.Time `json:"start_date" validate:"required"`
	EndDate            time.Time `json:"end_date" validate:"required"`
	Status             string    `json:"status" validate:"omitempty,oneof=UPCOMING ACTIVE COMPLETE"`
}

// CouncilListQuery narrows council listings.
type CouncilListQuery struct {
	SemesterID uint
	Type       string
	Round      int
}

// CouncilMemberRequest names a prospective council member.
type CouncilMemberRequest struct {
	Email string `json:"email" validate:"required,email"`
	Role  string `json:"role" validate:"required,oneof=council_chairman council_secretary council_member"`
}

// ReplaceCouncilMembersRequest carries a complete replacement roster.
type ReplaceCouncilMembersRequest struct {
	Members []CouncilMemberRequest `json:"members" validate:"required,min=1,dive"`
}

// CouncilMemberResponse serializes a council seat.
type CouncilMemberResponse struct {
	ID       uint   `json:"id"`
	UserID   uint   `json:"user_id"`
	FullName string `json:"full_name"`
	Email    string `json:"email"`
	Role     string `json:"role"`
}

// CouncilResponse serializes a council with its roster.
type CouncilResponse struct {
	ID                 uint                    `json:"id"`
	Code               string                  `json:"code"`
	Name               string                  `json:"name"`
	Type               string                  `json:"type"`
	SemesterID         uint                    `json:"semester_id"`
	SubmissionPeriodID *uint                   `json:"submission_period_id"`
	Round              int                     `json:"round"`
	StartDate          time.Time               `json:"start_date"`
	EndDate            time.Time               `json:"end_date"`
	Status             string                  `json:"status"`
	CreatedBy          uint                    `json:"created_by"`
	Members            []CouncilMemberResponse `json:"members"`
}

// NewCouncilResponse converts a council loaded with its members.
func NewCouncilResponse(council models.Council) CouncilResponse {
	members := make([]CouncilMemberResponse, 0, len(council.Members))
	for _, member := range council.Members {
		members = append(members, CouncilMemberResponse{
			ID:       member.ID,
			UserID:   member.UserID,
			FullName: member.User.FullName,
			Email:    member.User.Email,
			Role:     string(member.Role),
		})
	}

	return CouncilResponse{
		ID:                 council.ID,
		Code:               council.Code,
		Name:               council.Name,
		Type:               string(council.Type),
		SemesterID:         council.SemesterID,
		SubmissionPeriodID: council.SubmissionPeriodID,
		Round:              council.Round,
		StartDate:          council.StartDate,
		EndDate:            council.EndDate,
		Status:             string(council.Status),
		CreatedBy:          council.CreatedBy,
		Members:            members,
	}
}
