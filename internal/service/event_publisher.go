package service

import (
	"context"
	"encoding/json"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"

	"github.com/noah-isme/thesis-go-api/internal/middleware"
)

// Event subjects.
const (
	SubjectGroupCreated        = "thesis.group.created"
	SubjectGroupMemberJoined   = "thesis.group.member_joined"
	SubjectGroupDeleted        = "thesis.group.deleted"
	SubjectCouncilCreated      = "thesis.council.created"
	SubjectCouncilMemberAdded  = "thesis.council.member_added"
	SubjectCouncilRosterUpdate = "thesis.council.roster_replaced"
	SubjectScheduleCreated     = "thesis.schedule.created"
	SubjectDefenseEvaluated    = "thesis.defense.evaluated"
)

// EventPublisher broadcasts domain events to other services.
type EventPublisher interface {
	Publish(ctx context.Context, subject string, payload interface{})
}

type domainEvent struct {
	Subject       string      `json:"subject"`
	CorrelationID string      `json:"correlation_id,omitempty"`
	OccurredAt    time.Time   `json:"occurred_at"`
	Payload       interface{} `json:"payload"`
}

type natsEventPublisher struct {
	conn   *nats.Conn
	logger zerolog.Logger
}

// NewEventPublisher publishes on conn. A nil connection makes every publish a no-op.
func NewEventPublisher(conn *nats.Conn, logger zerolog.Logger) EventPublisher {
	return &natsEventPublisher{
		conn:   conn,
		logger: logger.With().Str("component", "event_publisher").Logger(),
	}
}

func (p *natsEventPublisher) Publish(ctx context.Context, subject string, payload interface{}) {
	if p.conn == nil {
		return
	}

	event := domainEvent{
		Subject:       subject,
		CorrelationID: middleware.CorrelationIDFromContext(ctx),
		OccurredAt:    time.Now().UTC(),
		Payload:       payload,
	}

	data, err := json.Marshal(event)
	if err != nil {
		p.logger.Warn().Err(err).Str("subject", subject).Msg("failed to encode event")
		return
	}

	if err := p.conn.Publish(subject, data); err != nil {
		p.logger.Warn().Err(err).Str("subject", subject).Msg("failed to publish event")
	}
}
