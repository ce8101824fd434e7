package repository

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/noah-isme/thesis-go-api/internal/models"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(models.All()...))
	return db
}

type fixture struct {
	db       *gorm.DB
	semester models.Semester
	major    models.Major
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := setupTestDB(t)
	now := time.Now()
	semester := models.Semester{Code: "SP25", Name: "Spring 2025", StartDate: now.Add(-24 * time.Hour), EndDate: now.Add(90 * 24 * time.Hour), Status: models.SemesterStatusActive}
	require.NoError(t, db.Create(&semester).Error)
	major := models.Major{Name: "Software Engineering"}
	require.NoError(t, db.Create(&major).Error)
	return &fixture{db: db, semester: semester, major: major}
}

func (f *fixture) student(t *testing.T, code string, qualified bool) models.Student {
	t.Helper()
	user := models.User{Email: code + "@uni.test", FullName: "Student " + code, IsActive: true}
	require.NoError(t, f.db.Create(&user).Error)
	student := models.Student{UserID: user.ID, StudentCode: code, MajorID: f.major.ID, Skill: models.SkillBackEnd}
	require.NoError(t, f.db.Create(&student).Error)
	status := models.StudentSemesterNotQualified
	if qualified {
		status = models.StudentSemesterQualified
	}
	require.NoError(t, f.db.Create(&models.StudentSemester{StudentID: student.ID, SemesterID: f.semester.ID, Status: status}).Error)
	return student
}

func (f *fixture) group(t *testing.T, code string, leader models.Student) models.Group {
	t.Helper()
	group := models.Group{SemesterID: f.semester.ID, GroupCode: code, Status: models.GroupStatusActive, MaxMembers: 5, CreatedBy: leader.UserID}
	require.NoError(t, f.db.Create(&group).Error)
	require.NoError(t, f.db.Create(&models.GroupMember{GroupID: group.ID, StudentID: leader.ID, Role: models.GroupRoleLeader, Status: models.MemberStatusActive, JoinedAt: time.Now()}).Error)
	return group
}

func TestStudentRepositoryListUngroupedQualified(t *testing.T) {
	f := newFixture(t)
	repo := NewStudentRepository(f.db)

	grouped := f.student(t, "S001", true)
	free := f.student(t, "S002", true)
	f.student(t, "S003", false)
	f.group(t, "G25SE001", grouped)

	students, err := repo.ListUngroupedQualified(context.Background(), f.semester.ID)
	require.NoError(t, err)
	require.Len(t, students, 1)
	require.Equal(t, free.ID, students[0].ID)
	require.Equal(t, "S002@uni.test", students[0].User.Email)
}

func TestGroupRepositorySetLeaderSwapsRoles(t *testing.T) {
	f := newFixture(t)
	repo := NewGroupRepository(f.db)
	ctx := context.Background()

	leader := f.student(t, "S001", true)
	member := f.student(t, "S002", true)
	group := f.group(t, "G25SE001", leader)
	require.NoError(t, repo.AddMember(ctx, &models.GroupMember{GroupID: group.ID, StudentID: member.ID, Role: models.GroupRoleMember, Status: models.MemberStatusActive}))

	require.NoError(t, repo.SetLeader(ctx, group.ID, member.ID))

	members, err := repo.ActiveMembers(ctx, group.ID)
	require.NoError(t, err)
	require.Len(t, members, 2)
	leaders := 0
	for _, m := range members {
		if m.IsLeader() {
			leaders++
			require.Equal(t, member.ID, m.StudentID)
		}
	}
	require.Equal(t, 1, leaders)

	err = repo.SetLeader(ctx, group.ID, 9999)
	require.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestGroupRepositoryCodesIncludeDeletedGroups(t *testing.T) {
	f := newFixture(t)
	repo := NewGroupRepository(f.db)
	ctx := context.Background()

	leader := f.student(t, "S001", true)
	group := f.group(t, "G25SE001", leader)
	require.NoError(t, repo.SoftDeleteCascade(ctx, group.ID))

	_, err := repo.GetByID(ctx, group.ID)
	require.ErrorIs(t, err, gorm.ErrRecordNotFound)

	codes, err := repo.ListCodesWithPrefix(ctx, f.semester.ID, "G25SE")
	require.NoError(t, err)
	require.Equal(t, []string{"G25SE001"}, codes)

	_, err = repo.FindActiveMembershipInSemester(ctx, leader.ID, f.semester.ID)
	require.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestInvitationRepositoryExpirePendingForStudent(t *testing.T) {
	f := newFixture(t)
	repo := NewInvitationRepository(f.db)
	ctx := context.Background()

	first := f.group(t, "G25SE001", f.student(t, "S001", true))
	second := f.group(t, "G25SE002", f.student(t, "S002", true))
	invitee := f.student(t, "S003", true)

	accepted := models.GroupInvitation{GroupID: first.ID, StudentID: invitee.ID, InvitedBy: 1, Status: models.InvitationPending}
	other := models.GroupInvitation{GroupID: second.ID, StudentID: invitee.ID, InvitedBy: 1, Status: models.InvitationPending}
	require.NoError(t, repo.Create(ctx, &accepted))
	require.NoError(t, repo.Create(ctx, &other))

	affected, err := repo.ExpirePendingForStudent(ctx, invitee.ID, f.semester.ID, accepted.ID)
	require.NoError(t, err)
	require.Equal(t, int64(1), affected)

	stored, err := repo.GetByID(ctx, other.ID)
	require.NoError(t, err)
	require.Equal(t, models.InvitationExpired, stored.Status)
	require.NotNil(t, stored.RespondedAt)

	pending, err := repo.HasPending(ctx, first.ID, invitee.ID)
	require.NoError(t, err)
	require.True(t, pending)
}

func TestCouncilRepositoryListCouncilsForUser(t *testing.T) {
	f := newFixture(t)
	repo := NewCouncilRepository(f.db)
	ctx := context.Background()
	now := time.Now()

	lecturer := models.User{Email: "lecturer@uni.test", FullName: "Lecturer", IsActive: true}
	require.NoError(t, f.db.Create(&lecturer).Error)

	first := models.Council{Code: "REVIEW-1-SP25-1", Name: "Review A", Type: models.CouncilTypeReview, SemesterID: f.semester.ID, Round: 1, StartDate: now, EndDate: now.Add(time.Hour), Status: models.CouncilStatusUpcoming, CreatedBy: 1}
	second := models.Council{Code: "REVIEW-1-SP25-2", Name: "Review B", Type: models.CouncilTypeReview, SemesterID: f.semester.ID, Round: 1, StartDate: now, EndDate: now.Add(time.Hour), Status: models.CouncilStatusUpcoming, CreatedBy: 1}
	require.NoError(t, repo.Create(ctx, &first))
	require.NoError(t, repo.Create(ctx, &second))
	require.NoError(t, repo.AddMembers(ctx, []models.CouncilMember{
		{CouncilID: first.ID, UserID: lecturer.ID, Role: models.RoleCouncilChairman, AddedBy: 1},
		{CouncilID: second.ID, UserID: lecturer.ID, Role: models.RoleCouncilMember, AddedBy: 1},
	}))

	councils, err := repo.ListCouncilsForUser(ctx, lecturer.ID, first.ID)
	require.NoError(t, err)
	require.Len(t, councils, 1)
	require.Equal(t, second.ID, councils[0].ID)

	require.NoError(t, repo.SoftDelete(ctx, second.ID))
	councils, err = repo.ListCouncilsForUser(ctx, lecturer.ID, first.ID)
	require.NoError(t, err)
	require.Empty(t, councils)

	codes, err := repo.ListCodesWithPrefix(ctx, "REVIEW-1-SP25-")
	require.NoError(t, err)
	require.Len(t, codes, 2)
}

func TestCouncilRepositoryCodePrefixIsLiteral(t *testing.T) {
	f := newFixture(t)
	repo := NewCouncilRepository(f.db)
	ctx := context.Background()
	now := time.Now()

	for _, code := range []string{"REVIEW-1-SP_25-1", "REVIEW-1-SPX25-1", "REVIEW-1-SPX25-2", "review-1-sp_25-9"} {
		council := models.Council{Code: code, Name: code, Type: models.CouncilTypeReview, SemesterID: f.semester.ID, Round: 1, StartDate: now, EndDate: now.Add(time.Hour), Status: models.CouncilStatusUpcoming, CreatedBy: 1}
		require.NoError(t, repo.Create(ctx, &council))
	}

	codes, err := repo.ListCodesWithPrefix(ctx, "REVIEW-1-SP_25-")
	require.NoError(t, err)
	require.Equal(t, []string{"REVIEW-1-SP_25-1"}, codes)

	codes, err = NewGroupRepository(f.db).ListCodesWithPrefix(ctx, f.semester.ID, "G_%")
	require.NoError(t, err)
	require.Empty(t, codes)
}

func TestScheduleRepositoryFindPassedResultRespectsRound(t *testing.T) {
	f := newFixture(t)
	repo := NewScheduleRepository(f.db)
	ctx := context.Background()

	results := []models.DefenseMemberResult{
		{DefenseScheduleID: 1, GroupID: 7, StudentID: 3, Round: 2, Result: models.ResultPass},
		{DefenseScheduleID: 1, GroupID: 7, StudentID: 4, Round: 2, Result: models.ResultNotPass},
	}
	require.NoError(t, repo.CreateDefenseResults(ctx, results))

	_, err := repo.FindPassedResult(ctx, 7, 3, 1)
	require.ErrorIs(t, err, gorm.ErrRecordNotFound)

	passed, err := repo.FindPassedResult(ctx, 7, 3, 2)
	require.NoError(t, err)
	require.Equal(t, 2, passed.Round)

	_, err = repo.FindPassedResult(ctx, 7, 4, 2)
	require.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestSystemConfigRepositoryUpsert(t *testing.T) {
	f := newFixture(t)
	repo := NewSystemConfigRepository(f.db)
	ctx := context.Background()

	require.NoError(t, repo.Upsert(ctx, &models.SystemConfig{Key: "max_group_members", Value: "5"}))
	require.NoError(t, repo.Upsert(ctx, &models.SystemConfig{Key: "max_group_members", Value: "6", Description: "raised"}))

	cfg, err := repo.Get(ctx, "max_group_members")
	require.NoError(t, err)
	require.Equal(t, "6", cfg.Value)

	all, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
}

func TestActivityLogRepositoryFiltersByEntity(t *testing.T) {
	f := newFixture(t)
	repo := NewActivityLogRepository(f.db)
	ctx := context.Background()

	groupID := uint(4)
	otherID := uint(5)
	require.NoError(t, repo.Create(ctx, &models.ActivityLog{ActorID: 1, Action: "group.leader_changed", EntityType: "group", EntityID: &groupID}))
	require.NoError(t, repo.Create(ctx, &models.ActivityLog{ActorID: 1, Action: "group.created", EntityType: "group", EntityID: &otherID}))

	entries, total, err := repo.List(ctx, ActivityLogFilter{EntityType: "group", EntityID: &groupID})
	require.NoError(t, err)
	require.Equal(t, int64(1), total)
	require.Equal(t, "group.leader_changed", entries[0].Action)

	past := time.Now().Add(-48 * time.Hour)
	require.NoError(t, repo.Create(ctx, &models.ActivityLog{ActorID: 2, Action: "council.created", EntityType: "council", CreatedAt: past}))

	cutoff := time.Now().Add(-time.Hour)
	entries, total, err = repo.List(ctx, ActivityLogFilter{From: &cutoff, Page: 2, PageSize: 1})
	require.NoError(t, err)
	require.Equal(t, int64(2), total)
	require.Len(t, entries, 1)
	require.Equal(t, "group.leader_changed", entries[0].Action)

	entries, total, err = repo.List(ctx, ActivityLogFilter{To: &cutoff})
	require.NoError(t, err)
	require.Equal(t, int64(1), total)
	require.Equal(t, "council.created", entries[0].Action)

	actor := uint(99)
	entries, total, err = repo.List(ctx, ActivityLogFilter{ActorID: &actor})
	require.NoError(t, err)
	require.Zero(t, total)
	require.Empty(t, entries)
}

func TestStoreTransactionRollsBack(t *testing.T) {
	f := newFixture(t)
	store := NewStore(f.db)
	ctx := context.Background()
	boom := errors.New("boom")

	err := store.Transaction(ctx, func(tx *Store) error {
		if err := tx.SystemConfigs.Upsert(ctx, &models.SystemConfig{Key: "min_group_members", Value: "3"}); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	_, err = store.SystemConfigs.Get(ctx, "min_group_members")
	require.ErrorIs(t, err, gorm.ErrRecordNotFound)
}
