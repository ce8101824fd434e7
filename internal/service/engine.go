package service

import (
	"context"
	"errors"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"
)

// Effects bundles the collaborators engines call after a successful commit.
// Any of them may be nil.
type Effects struct {
	Notifier NotificationDispatcher
	Events   EventPublisher
	Activity ActivityRecorder
}

func (e Effects) publish(ctx context.Context, subject string, payload interface{}) {
	if e.Events == nil {
		return
	}
	e.Events.Publish(ctx, subject, payload)
}

func engineTracer(name string) trace.Tracer {
	return otel.Tracer("github.com/noah-isme/thesis-go-api/internal/service/" + name)
}

// notFound translates a missing row into sentinel and passes every other error through.
func notFound(err error, sentinel *Error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return sentinel
	}
	return err
}

func isNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}
