package service

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/thesis-go-api/internal/models"
)

func TestNotificationServiceLogsAttempts(t *testing.T) {
	f := newFixture(t)
	dispatcher := NewNotificationService(f.mailer, f.store.EmailLogs, testLogger())

	result := dispatcher.SendBulk(f.ctx, []Notification{
		{
			To:       "lecturer@uni.test",
			Subject:  "Council assignment",
			Template: TemplateCouncilAssignment,
			Data: map[string]interface{}{
				"MemberName":  "Dr. <script>alert(1)</script>Lee",
				"CouncilCode": "REVIEW-1-SPRING-1",
				"CouncilName": "Panel",
				"Role":        "council_chairman",
				"Start":       "2026-03-01 09:00",
				"End":         "2026-03-01 12:00",
			},
		},
		{To: "", Subject: "Nobody", Template: TemplateMentorAssigned},
		{To: "x@uni.test", Subject: "Broken", Template: "missing_template"},
	})
	require.Equal(t, BulkResult{Sent: 1, Failed: 2}, result)

	require.Equal(t, 1, f.mailer.count())
	require.Contains(t, f.mailer.sent[0].Body, "REVIEW-1-SPRING-1")
	require.NotContains(t, f.mailer.sent[0].Body, "<script>")

	var logs []models.EmailLog
	require.NoError(t, f.db.Order("id ASC").Find(&logs).Error)
	require.Len(t, logs, 3)
	require.Equal(t, models.EmailStatusSent, logs[0].Status)
	require.Equal(t, models.EmailStatusFailed, logs[1].Status)
	require.Contains(t, logs[1].Error, "recipient is required")
	require.Equal(t, models.EmailStatusFailed, logs[2].Status)
}
