package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/noah-isme/thesis-go-api/internal/models"
	"github.com/noah-isme/thesis-go-api/internal/repository"
)

func testLogger() zerolog.Logger {
	return zerolog.New(io.Discard)
}

type sentMail struct {
	To      string
	Subject string
	Body    string
}

type recordingMailer struct {
	mu   sync.Mutex
	sent []sentMail
	err  error
}

func (m *recordingMailer) Send(ctx context.Context, to, subject, htmlBody string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, sentMail{To: to, Subject: subject, Body: htmlBody})
	return nil
}

func (m *recordingMailer) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sent)
}

type recordedEvent struct {
	subject string
	payload interface{}
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []recordedEvent
}

func (p *recordingPublisher) Publish(ctx context.Context, subject string, payload interface{}) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, recordedEvent{subject: subject, payload: payload})
}

func (p *recordingPublisher) subjects() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	subjects := make([]string, 0, len(p.events))
	for _, event := range p.events {
		subjects = append(subjects, event.subject)
	}
	return subjects
}

type fixture struct {
	ctx      context.Context
	db       *gorm.DB
	store    *repository.Store
	authz    Authorizer
	config   ConfigProvider
	validate *validator.Validate
	mailer   *recordingMailer
	events   *recordingPublisher
	activity ActivityService
	effects  Effects
	semester models.Semester
	majors   map[string]models.Major
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{TranslateError: true})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(models.All()...))

	store := repository.NewStore(db)
	authz := NewAuthorizer(store.Users)
	mailer := &recordingMailer{}
	events := &recordingPublisher{}
	activity := NewActivityService(store.ActivityLogs, authz, testLogger())

	now := time.Now()
	semester := models.Semester{
		Code:      "SPRING",
		Name:      "Spring semester",
		StartDate: now.Add(-24 * time.Hour),
		EndDate:   now.Add(120 * 24 * time.Hour),
		Status:    models.SemesterStatusActive,
	}
	require.NoError(t, db.Create(&semester).Error)

	return &fixture{
		ctx:      context.Background(),
		db:       db,
		store:    store,
		authz:    authz,
		config:   NewConfigProvider(store.SystemConfigs, authz, nil, time.Minute, testLogger()),
		validate: validator.New(validator.WithRequiredStructEnabled()),
		mailer:   mailer,
		events:   events,
		activity: activity,
		effects: Effects{
			Notifier: NewNotificationService(mailer, store.EmailLogs, testLogger()),
			Events:   events,
			Activity: activity,
		},
		semester: semester,
		majors:   make(map[string]models.Major),
	}
}

func (f *fixture) groupService() GroupService {
	return NewGroupService(f.store, f.authz, f.config, f.validate, f.effects, "https://thesis.test/", testLogger())
}

func (f *fixture) councilService() CouncilService {
	return NewCouncilService(f.store, f.authz, f.config, NewRosterLocker(nil, 0, testLogger()), f.validate, f.effects, testLogger())
}

func (f *fixture) topicService() TopicService {
	return NewTopicService(f.store, f.authz, f.validate, f.effects, testLogger())
}

func (f *fixture) scheduleService() ScheduleService {
	return NewScheduleService(f.store, f.authz, f.config, f.validate, f.effects, testLogger())
}

func (f *fixture) major(t *testing.T, name string) models.Major {
	t.Helper()
	if major, ok := f.majors[name]; ok {
		return major
	}
	major := models.Major{Name: name}
	require.NoError(t, f.db.Create(&major).Error)
	f.majors[name] = major
	return major
}

// user creates an account and grants roles globally.
func (f *fixture) user(t *testing.T, name string, roles ...models.Role) models.User {
	t.Helper()
	handle := strings.ToLower(strings.ReplaceAll(name, " ", "."))
	user := models.User{Email: handle + "@uni.test", FullName: name, IsActive: true}
	require.NoError(t, f.db.Create(&user).Error)
	for _, role := range roles {
		require.NoError(t, f.db.Create(&models.UserRole{UserID: user.ID, Role: role, IsActive: true}).Error)
	}
	return user
}

func (f *fixture) student(t *testing.T, code, majorName, skill string, qualified bool) models.Student {
	t.Helper()
	user := f.user(t, "Student "+code, models.RoleStudent)
	student := models.Student{UserID: user.ID, StudentCode: code, MajorID: f.major(t, majorName).ID, Skill: skill}
	require.NoError(t, f.db.Create(&student).Error)

	status := models.StudentSemesterNotQualified
	if qualified {
		status = models.StudentSemesterQualified
	}
	require.NoError(t, f.db.Create(&models.StudentSemester{StudentID: student.ID, SemesterID: f.semester.ID, Status: status}).Error)

	student.User = user
	return student
}

func (f *fixture) studentActor(student models.Student) Actor {
	return Actor{ID: student.UserID, Roles: []models.Role{models.RoleStudent}}
}

func actorOf(user models.User, roles ...models.Role) Actor {
	return Actor{ID: user.ID, Roles: roles}
}

// group inserts an active group led by leader with the extra members.
func (f *fixture) group(t *testing.T, code string, leader models.Student, members ...models.Student) models.Group {
	t.Helper()
	group := models.Group{SemesterID: f.semester.ID, GroupCode: code, Status: models.GroupStatusActive, MaxMembers: 5, CreatedBy: leader.UserID}
	require.NoError(t, f.db.Create(&group).Error)

	require.NoError(t, f.db.Create(&models.GroupMember{GroupID: group.ID, StudentID: leader.ID, Role: models.GroupRoleLeader, Status: models.MemberStatusActive, JoinedAt: time.Now()}).Error)
	for _, member := range members {
		require.NoError(t, f.db.Create(&models.GroupMember{GroupID: group.ID, StudentID: member.ID, Role: models.GroupRoleMember, Status: models.MemberStatusActive, JoinedAt: time.Now()}).Error)
	}
	return group
}

func (f *fixture) mentor(t *testing.T, group models.Group, user models.User, role models.Role) {
	t.Helper()
	require.NoError(t, f.db.Create(&models.GroupMentor{GroupID: group.ID, MentorID: user.ID, Role: role, AddedBy: user.ID}).Error)
}

func (f *fixture) assignment(t *testing.T, group models.Group, status models.DefendStatus, round *int) models.TopicAssignment {
	t.Helper()
	topic := models.Topic{SemesterID: f.semester.ID, MajorID: 1, Code: "T-" + group.GroupCode, Name: "Topic for " + group.GroupCode}
	require.NoError(t, f.db.Create(&topic).Error)

	assignment := models.TopicAssignment{GroupID: group.ID, TopicID: topic.ID, DefendStatus: status, DefenseRound: round, AssignedBy: 1}
	require.NoError(t, f.db.Omit("Topic").Create(&assignment).Error)
	return assignment
}

func (f *fixture) council(t *testing.T, code string, kind models.CouncilType, start, end time.Time) models.Council {
	t.Helper()
	council := models.Council{
		Code:       code,
		Name:       "Council " + code,
		Type:       kind,
		SemesterID: f.semester.ID,
		Round:      1,
		StartDate:  start,
		EndDate:    end,
		Status:     models.CouncilStatusUpcoming,
		CreatedBy:  1,
	}
	require.NoError(t, f.db.Omit("Semester", "Members").Create(&council).Error)
	return council
}

func (f *fixture) seat(t *testing.T, council models.Council, user models.User, role models.Role) {
	t.Helper()
	require.NoError(t, f.db.Create(&models.CouncilMember{CouncilID: council.ID, UserID: user.ID, Role: role, AddedBy: 1}).Error)
}

func (f *fixture) activeMemberCount(t *testing.T, groupID uint) int64 {
	t.Helper()
	var count int64
	require.NoError(t, f.db.Model(&models.GroupMember{}).Where("group_id = ? AND status = ?", groupID, models.MemberStatusActive).Count(&count).Error)
	return count
}

func requireKind(t *testing.T, err error, kind ErrorKind) {
	t.Helper()
	require.Error(t, err)
	var svcErr *Error
	require.True(t, errors.As(err, &svcErr), "expected a service error, got %v", err)
	require.Equal(t, kind, svcErr.Kind)
}

func intPtr(v int) *int {
	return &v
}
