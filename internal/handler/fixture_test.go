package handler_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/noah-isme/thesis-go-api/internal/config"
	"github.com/noah-isme/thesis-go-api/internal/handler"
	"github.com/noah-isme/thesis-go-api/internal/middleware"
	"github.com/noah-isme/thesis-go-api/internal/models"
	"github.com/noah-isme/thesis-go-api/internal/repository"
	"github.com/noah-isme/thesis-go-api/internal/router"
	"github.com/noah-isme/thesis-go-api/internal/service"
)

const testSecret = "handler-test-secret"

type apiFixture struct {
	db       *gorm.DB
	app      *fiber.App
	semester models.Semester
	major    models.Major
}

type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Meta    json.RawMessage `json:"meta"`
	Details json.RawMessage `json:"details"`
	raw     []byte
}

func newAPIFixture(t *testing.T) *apiFixture {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{TranslateError: true})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(models.All()...))

	logger := zerolog.Nop()
	validate := validator.New(validator.WithRequiredStructEnabled())
	store := repository.NewStore(db)
	authz := service.NewAuthorizer(store.Users)
	provider := service.NewConfigProvider(store.SystemConfigs, authz, nil, time.Minute, logger)
	activity := service.NewActivityService(store.ActivityLogs, authz, logger)
	effects := service.Effects{
		Notifier: service.NewNotificationService(service.NewLogMailer(logger), store.EmailLogs, logger),
		Events:   service.NewEventPublisher(nil, logger),
		Activity: activity,
	}
	locker := service.NewRosterLocker(nil, 0, logger)

	groups := service.NewGroupService(store, authz, provider, validate, effects, "https://thesis.test", logger)
	topics := service.NewTopicService(store, authz, validate, effects, logger)
	councils := service.NewCouncilService(store, authz, provider, locker, validate, effects, logger)
	schedules := service.NewScheduleService(store, authz, provider, validate, effects, logger)

	cfg := config.Config{AppName: "Thesis API", AppEnv: "test", JWTSecret: testSecret, RateLimitMax: 1000}
	app := fiber.New()
	app.Use(middleware.CorrelationID())
	router.Register(app, cfg, router.Dependencies{
		GroupHandler:    handler.NewGroupHandler(groups, topics, logger),
		CouncilHandler:  handler.NewCouncilHandler(councils, logger),
		ScheduleHandler: handler.NewScheduleHandler(schedules, logger),
		ConfigHandler:   handler.NewConfigHandler(provider, logger),
		ActivityHandler: handler.NewActivityHandler(activity, logger),
		JWTMiddleware:   middleware.JWTProtected(testSecret),
	})

	now := time.Now()
	semester := models.Semester{
		Code:      "SPRING",
		Name:      "Spring semester",
		StartDate: now.Add(-24 * time.Hour),
		EndDate:   now.Add(120 * 24 * time.Hour),
		Status:    models.SemesterStatusActive,
	}
	require.NoError(t, db.Create(&semester).Error)

	major := models.Major{Name: "Software Engineering"}
	require.NoError(t, db.Create(&major).Error)

	return &apiFixture{db: db, app: app, semester: semester, major: major}
}

// user creates an account holding roles both as stored grants and on its token.
func (f *apiFixture) user(t *testing.T, name string, roles ...models.Role) (models.User, string) {
	t.Helper()
	handle := strings.ToLower(strings.ReplaceAll(name, " ", "."))
	user := models.User{Email: handle + "@uni.test", FullName: name, IsActive: true}
	require.NoError(t, f.db.Create(&user).Error)
	for _, role := range roles {
		require.NoError(t, f.db.Create(&models.UserRole{UserID: user.ID, Role: role, IsActive: true}).Error)
	}
	return user, token(t, user.ID, roles...)
}

func (f *apiFixture) student(t *testing.T, code string) (models.Student, string) {
	t.Helper()
	user, bearer := f.user(t, "Student "+code, models.RoleStudent)
	student := models.Student{UserID: user.ID, StudentCode: code, MajorID: f.major.ID, Skill: models.SkillBackEnd}
	require.NoError(t, f.db.Create(&student).Error)
	require.NoError(t, f.db.Create(&models.StudentSemester{StudentID: student.ID, SemesterID: f.semester.ID, Status: models.StudentSemesterQualified}).Error)
	return student, bearer
}

func token(t *testing.T, userID uint, roles ...models.Role) string {
	t.Helper()
	names := make([]string, 0, len(roles))
	for _, role := range roles {
		names = append(names, string(role))
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":   strconv.FormatUint(uint64(userID), 10),
		"roles": names,
		"exp":   time.Now().Add(time.Hour).Unix(),
	}).SignedString([]byte(testSecret))
	require.NoError(t, err)
	return signed
}

func (f *apiFixture) do(t *testing.T, method, path, bearer string, body interface{}) (*http.Response, envelope) {
	t.Helper()

	var reader io.Reader
	switch v := body.(type) {
	case nil:
	case string:
		reader = strings.NewReader(v)
	default:
		data, err := json.Marshal(v)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	}
	if bearer != "" {
		req.Header.Set(fiber.HeaderAuthorization, "Bearer "+bearer)
	}

	resp, err := f.app.Test(req, -1)
	require.NoError(t, err)

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.NoError(t, resp.Body.Close())

	var env envelope
	if strings.HasPrefix(resp.Header.Get(fiber.HeaderContentType), fiber.MIMEApplicationJSON) {
		require.NoError(t, json.Unmarshal(raw, &env))
	}
	env.raw = raw
	return resp, env
}

func decode[T any](t *testing.T, raw json.RawMessage) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(raw, &out))
	return out
}

func errorCode(t *testing.T, env envelope) string {
	t.Helper()
	details := decode[map[string]interface{}](t, env.Details)
	code, _ := details["code"].(string)
	return code
}
