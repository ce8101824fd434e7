package service

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"strings"
	"time"

	"github.com/microcosm-cc/bluemonday"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/noah-isme/thesis-go-api/internal/models"
	"github.com/noah-isme/thesis-go-api/internal/observability"
	"github.com/noah-isme/thesis-go-api/internal/repository"
)

// Email templates.
const (
	TemplateGroupInvitation   = "group_invitation"
	TemplateMentorAssigned    = "mentor_assigned"
	TemplateCouncilAssignment = "council_assignment"
	TemplateScheduleCreated   = "schedule_created"
	TemplateDefenseResult     = "defense_result"
)

var emailTemplates = template.Must(template.New("emails").Parse(`
{{define "group_invitation"}}<p>Hello {{.StudentName}},</p>
<p>{{.InviterName}} invited you to join group <strong>{{.GroupCode}}</strong>.</p>
<p><a href="{{.Link}}">Review the invitation</a></p>{{end}}
{{define "mentor_assigned"}}<p>Hello {{.MentorName}},</p>
<p>You have been assigned as {{.Role}} of group <strong>{{.GroupCode}}</strong>.</p>{{end}}
{{define "council_assignment"}}<p>Hello {{.MemberName}},</p>
<p>You have been added to council <strong>{{.CouncilCode}}</strong> ({{.CouncilName}}) as {{.Role}}.</p>
<p>The council sits from {{.Start}} to {{.End}}.</p>{{end}}
{{define "schedule_created"}}<p>Hello {{.RecipientName}},</p>
<p>Group <strong>{{.GroupCode}}</strong> is scheduled for a {{.Kind}} session on {{.Time}} in room {{.Room}}.</p>{{end}}
{{define "defense_result"}}<p>Hello {{.StudentName}},</p>
<p>Your round {{.Round}} defense result is <strong>{{.Result}}</strong>.</p>
{{if .Feedback}}<p>{{.Feedback}}</p>{{end}}{{end}}
`))

// Notification is one templated email.
type Notification struct {
	To       string
	Subject  string
	Template string
	Data     map[string]interface{}
}

// BulkResult tallies a bulk dispatch.
type BulkResult struct {
	Sent   int `json:"sent"`
	Failed int `json:"failed"`
}

// NotificationDispatcher renders and sends templated emails, logging every attempt.
type NotificationDispatcher interface {
	Send(ctx context.Context, notification Notification) error
	SendBulk(ctx context.Context, notifications []Notification) BulkResult
}

type notificationService struct {
	mailer    Mailer
	logs      repository.EmailLogRepository
	sanitizer *bluemonday.Policy
	logger    zerolog.Logger
	tracer    trace.Tracer
	now       func() time.Time
}

// NewNotificationService constructs the email dispatcher.
func NewNotificationService(mailer Mailer, logs repository.EmailLogRepository, logger zerolog.Logger) NotificationDispatcher {
	return &notificationService{
		mailer:    mailer,
		logs:      logs,
		sanitizer: bluemonday.UGCPolicy(),
		logger:    logger.With().Str("component", "notification_service").Logger(),
		tracer:    otel.Tracer("github.com/noah-isme/thesis-go-api/internal/service/notification"),
		now:       time.Now,
	}
}

// Send delivers one email. The returned error is informational; callers never fail on it.
func (s *notificationService) Send(ctx context.Context, notification Notification) error {
	ctx, span := s.tracer.Start(ctx, "notifications.send", trace.WithAttributes(
		attribute.String("notification.template", notification.Template),
	))
	defer span.End()

	body, err := s.render(notification)
	if err == nil {
		err = s.mailer.Send(ctx, notification.To, notification.Subject, body)
	}

	entry := models.EmailLog{
		Recipient: notification.To,
		Subject:   notification.Subject,
		Body:      body,
		Template:  notification.Template,
		Status:    models.EmailStatusSent,
		SentAt:    s.now(),
	}
	if err != nil {
		span.RecordError(err)
		entry.Status = models.EmailStatusFailed
		entry.Error = err.Error()
		s.logger.Warn().Err(err).Str("recipient", maskEmailAddress(notification.To)).Str("template", notification.Template).Msg("email delivery failed")
	}

	if logErr := s.logs.Create(ctx, &entry); logErr != nil {
		s.logger.Error().Err(logErr).Msg("failed to persist email log")
	}

	observability.EmailsTotal().WithLabelValues(entry.Status).Inc()
	return err
}

// SendBulk sends serially so every attempt gets its own log row.
func (s *notificationService) SendBulk(ctx context.Context, notifications []Notification) BulkResult {
	var result BulkResult
	for _, notification := range notifications {
		if err := s.Send(ctx, notification); err != nil {
			result.Failed++
			continue
		}
		result.Sent++
	}
	return result
}

func (s *notificationService) render(notification Notification) (string, error) {
	if strings.TrimSpace(notification.To) == "" {
		return "", fmt.Errorf("recipient is required")
	}

	var buf bytes.Buffer
	if err := emailTemplates.ExecuteTemplate(&buf, notification.Template, notification.Data); err != nil {
		return "", fmt.Errorf("render %s: %w", notification.Template, err)
	}
	return strings.TrimSpace(s.sanitizer.Sanitize(buf.String())), nil
}

// notify sends best-effort notifications after the owning operation has committed.
func notify(ctx context.Context, dispatcher NotificationDispatcher, logger zerolog.Logger, notifications ...Notification) {
	if dispatcher == nil || len(notifications) == 0 {
		return
	}
	result := dispatcher.SendBulk(ctx, notifications)
	if result.Failed > 0 {
		logger.Warn().Int("sent", result.Sent).Int("failed", result.Failed).Msg("some notifications were not delivered")
	}
}
