package handler_test

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/thesis-go-api/internal/dto"
	"github.com/noah-isme/thesis-go-api/internal/handler"
	"github.com/noah-isme/thesis-go-api/internal/models"
)

func TestGroupHandlerCreateAndRead(t *testing.T) {
	f := newAPIFixture(t)
	student, bearer := f.student(t, "S1")

	resp, env := f.do(t, http.MethodPost, "/api/v1/groups", bearer, dto.CreateGroupRequest{SemesterID: f.semester.ID})
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(env.raw))
	require.True(t, env.Success)
	require.NotEmpty(t, resp.Header.Get("X-Correlation-ID"))

	group := decode[dto.GroupResponse](t, env.Data)
	require.Regexp(t, `^G\d{2}SE001$`, group.GroupCode)
	require.Len(t, group.Members, 1)
	require.Equal(t, student.ID, group.Members[0].StudentID)
	require.Equal(t, models.GroupRoleLeader, group.Members[0].Role)

	resp, env = f.do(t, http.MethodGet, fmt.Sprintf("/api/v1/groups/%d", group.ID), bearer, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, group.GroupCode, decode[dto.GroupResponse](t, env.Data).GroupCode)

	resp, env = f.do(t, http.MethodGet, fmt.Sprintf("/api/v1/groups?semester_id=%d", f.semester.ID), bearer, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Len(t, decode[[]dto.GroupResponse](t, env.Data), 1)

	resp, env = f.do(t, http.MethodGet, fmt.Sprintf("/api/v1/groups/%d/topic", group.ID), bearer, nil)
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
	require.Equal(t, "TOPIC_ASSIGNMENT_NOT_FOUND", errorCode(t, env))
}

func TestGroupHandlerMapsErrors(t *testing.T) {
	f := newAPIFixture(t)
	_, bearer := f.student(t, "S1")

	resp, _ := f.do(t, http.MethodGet, "/api/v1/groups/1", "", nil)
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp, env := f.do(t, http.MethodPost, "/api/v1/groups", bearer, dto.CreateGroupRequest{SemesterID: f.semester.ID})
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(env.raw))

	resp, env = f.do(t, http.MethodPost, "/api/v1/groups", bearer, dto.CreateGroupRequest{SemesterID: f.semester.ID})
	require.Equal(t, http.StatusConflict, resp.StatusCode)
	require.False(t, env.Success)
	require.Equal(t, "ALREADY_IN_GROUP", errorCode(t, env))

	resp, env = f.do(t, http.MethodPost, "/api/v1/groups", bearer, map[string]interface{}{})
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	require.Equal(t, "validation failed", env.Message)
	fields := decode[[]handler.FieldError](t, env.Details)
	require.Equal(t, []handler.FieldError{{Field: "SemesterID", Rule: "required"}}, fields)

	resp, env = f.do(t, http.MethodPost, "/api/v1/groups", bearer, "{not json")
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	require.Equal(t, "invalid payload", env.Message)

	resp, env = f.do(t, http.MethodGet, "/api/v1/groups/999", bearer, nil)
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
	require.Equal(t, "GROUP_NOT_FOUND", errorCode(t, env))

	resp, env = f.do(t, http.MethodGet, "/api/v1/groups/abc", bearer, nil)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	require.Equal(t, "invalid id", env.Message)

	resp, env = f.do(t, http.MethodGet, "/api/v1/groups", bearer, nil)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	require.Equal(t, "semester_id is required", env.Message)

	resp, env = f.do(t, http.MethodDelete, "/api/v1/groups/1/members/abc", bearer, nil)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	require.Equal(t, "invalid user id", env.Message)
}

func TestGroupHandlerInvitationFlow(t *testing.T) {
	f := newAPIFixture(t)
	_, leaderBearer := f.student(t, "S1")
	invitee, inviteeBearer := f.student(t, "S2")

	resp, env := f.do(t, http.MethodPost, "/api/v1/groups", leaderBearer, dto.CreateGroupRequest{SemesterID: f.semester.ID})
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(env.raw))
	group := decode[dto.GroupResponse](t, env.Data)

	resp, env = f.do(t, http.MethodPost, fmt.Sprintf("/api/v1/groups/%d/invitations", group.ID), leaderBearer, dto.InviteMemberRequest{StudentID: invitee.ID})
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(env.raw))
	invitation := decode[dto.InvitationResponse](t, env.Data)
	require.Equal(t, string(models.InvitationPending), invitation.Status)

	path := fmt.Sprintf("/api/v1/groups/invitations/%d/respond", invitation.ID)
	resp, env = f.do(t, http.MethodPost, path, inviteeBearer, dto.RespondInvitationRequest{Response: "MAYBE"})
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	require.Equal(t, "validation failed", env.Message)

	resp, env = f.do(t, http.MethodPost, path, inviteeBearer, dto.RespondInvitationRequest{Response: "ACCEPTED"})
	require.Equal(t, http.StatusOK, resp.StatusCode, string(env.raw))
	require.Equal(t, string(models.InvitationAccepted), decode[dto.InvitationResponse](t, env.Data).Status)

	resp, env = f.do(t, http.MethodPost, path, inviteeBearer, dto.RespondInvitationRequest{Response: "REJECTED"})
	require.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	require.Equal(t, "INVITATION_ALREADY_PROCESSED", errorCode(t, env))

	resp, env = f.do(t, http.MethodGet, fmt.Sprintf("/api/v1/groups/%d", group.ID), leaderBearer, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Len(t, decode[dto.GroupResponse](t, env.Data).Members, 2)
}
