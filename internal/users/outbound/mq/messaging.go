package mq

import (
	"context"
	"encoding/json"

	"github.com/shandysiswandi/onboarding/internal/pkg/instrument"
	"github.com/shandysiswandi/onboarding/internal/pkg/messaging"
	"github.com/shandysiswandi/onboarding/internal/shared/event"
	"github.com/shandysiswandi/onboarding/internal/users/usecase"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

type publisher interface {
	Publish(ctx context.Context, topic string, body []byte, headers ...messaging.Header) (messaging.PublishResult, error)
}

type Messaging struct {
	client publisher
	ins    instrument.Instrumentation
}

func NewMessaging(client publisher, ins instrument.Instrumentation) *Messaging {
	return &Messaging{client: client, ins: ins}
}

func (m *Messaging) PublishUserRegistered(ctx context.Context, ev usecase.UserRegisteredEvent) error {
	ctx, span := m.ins.Tracer("users.outbound.mq").Start(ctx, "PublishUserRegistered")
	defer span.End()

	body, err := json.Marshal(event.UserRegisteredMessage{
		UserID:       ev.UserID,
		Name:         ev.Name,
		Email:        ev.Email,
		PhoneNumber:  ev.PhoneNumber,
		IP:           ev.IP,
		UserAgent:    ev.UserAgent,
		RegisteredAt: ev.RegisteredAt,
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	res, err := m.client.Publish(ctx, event.UserRegisteredDestination, body)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	span.SetAttributes(attribute.String("messaging.message_id", res.MessageID))

	return nil
}
