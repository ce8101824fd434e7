package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/thesis-go-api/internal/dto"
	"github.com/noah-isme/thesis-go-api/internal/middleware"
	"github.com/noah-isme/thesis-go-api/internal/models"
	"github.com/noah-isme/thesis-go-api/internal/repository"
)

type memoryActivityRepo struct {
	entries []models.ActivityLog
	filter  repository.ActivityLogFilter
}

func (m *memoryActivityRepo) Create(ctx context.Context, entry *models.ActivityLog) error {
	entry.ID = uint(len(m.entries) + 1)
	entry.CreatedAt = time.Now()
	m.entries = append(m.entries, *entry)
	return nil
}

func (m *memoryActivityRepo) List(ctx context.Context, filter repository.ActivityLogFilter) ([]models.ActivityLog, int64, error) {
	m.filter = filter
	return append([]models.ActivityLog(nil), m.entries...), int64(len(m.entries)), nil
}

func TestActivityServiceRecordMasksEmail(t *testing.T) {
	repo := &memoryActivityRepo{}
	svc := NewActivityService(repo, NewAuthorizer(nil), testLogger())

	entry, err := svc.Record(context.Background(), ActivityEntry{
		ActorID:    1,
		Action:     "Council.Member_Added",
		EntityType: "council",
		EntityID:   uintPtr(5),
		Metadata: map[string]interface{}{
			"email": "lecturer@example.com",
			"role":  "council_member",
		},
	})
	require.NoError(t, err)
	require.Equal(t, "***", entry.Metadata["email"])
	require.Equal(t, "council_member", entry.Metadata["role"])
	require.Equal(t, "council.member_added", entry.Action)
	require.Equal(t, uint(1), entry.ActorID)

	_, err = svc.Record(context.Background(), ActivityEntry{ActorID: 1, EntityType: "council"})
	require.Error(t, err)

	ctx := middleware.ContextWithCorrelation(context.Background(), "corr-7")
	entry, err = svc.Record(ctx, ActivityEntry{ActorID: 1, Action: ActionCouncilCreated, EntityType: "council", Metadata: map[string]interface{}{"auth_token": "abc"}})
	require.NoError(t, err)
	require.Equal(t, "corr-7", entry.Metadata["correlation_id"])
	require.Equal(t, "***", entry.Metadata["auth_token"])
}

func TestActivityServiceListRequiresStaff(t *testing.T) {
	repo := &memoryActivityRepo{}
	svc := NewActivityService(repo, NewAuthorizer(nil), testLogger())

	for i := 0; i < 3; i++ {
		_, err := svc.Record(context.Background(), ActivityEntry{ActorID: 1, Action: ActionGroupDeleted, EntityType: "group", EntityID: uintPtr(uint(i + 1))})
		require.NoError(t, err)
	}

	_, err := svc.List(context.Background(), Actor{ID: 9, Roles: []models.Role{models.RoleStudent}}, dto.ActivityListRequest{})
	require.ErrorIs(t, err, ErrForbidden)

	resp, err := svc.List(context.Background(), Actor{ID: 2, Roles: []models.Role{models.RoleAcademicOfficer}}, dto.ActivityListRequest{
		Page:       1,
		PageSize:   2,
		Action:     " " + ActionGroupDeleted + " ",
		EntityType: "group",
		EntityID:   3,
	})
	require.NoError(t, err)
	require.Len(t, resp.Items, 3)
	require.Equal(t, 2, resp.Pagination.TotalPages)
	require.EqualValues(t, 3, resp.Pagination.TotalItems)

	require.Equal(t, ActionGroupDeleted, repo.filter.Action)
	require.NotNil(t, repo.filter.EntityID)
	require.Equal(t, uint(3), *repo.filter.EntityID)
	require.Nil(t, repo.filter.ActorID)
}
