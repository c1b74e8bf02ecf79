package inbound

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/shandysiswandi/onboarding/internal/onboarding/usecase"
	"github.com/shandysiswandi/onboarding/internal/pkg/goerror"
	"github.com/shandysiswandi/onboarding/internal/pkg/instrument"
	"github.com/shandysiswandi/onboarding/internal/pkg/messaging"
	"github.com/shandysiswandi/onboarding/internal/pkg/uid"
	"github.com/shandysiswandi/onboarding/internal/shared/event"
)

type MQHandler struct {
	uc   uc
	uuid uid.StringID
	ins  instrument.Instrumentation
}

func (h *MQHandler) ensureCorrelationID(ctx context.Context, headers []messaging.Header) context.Context {
	if cID, ok := messaging.HeaderValue(headers, messaging.HeaderCorrelationID); ok && cID != "" {
		return instrument.SetCorrelationID(ctx, cID)
	}
	if cID := instrument.GetCorrelationID(ctx); cID != "" {
		return ctx
	}
	return instrument.SetCorrelationID(ctx, h.uuid.Generate())
}

func (h *MQHandler) UserRegistered(ctx context.Context, msg messaging.Message) error {
	ctx = h.ensureCorrelationID(ctx, msg.Headers())

	ctx, span := h.ins.Tracer("onboarding.inbound.mq").Start(ctx, "UserRegistered")
	defer span.End()

	body := msg.Body()
	slog.InfoContext(ctx, "consume: user registered", "message_id", msg.ID(), "retry", messaging.RetryCount(msg.Headers()))

	var payload event.UserRegisteredMessage
	if err := json.Unmarshal(body, &payload); err != nil {
		slog.ErrorContext(ctx, "failed to parse message body of user registered", "msg_body", string(body), "error", err)
		return goerror.Wrap(err, goerror.KindInternal, "Malformed user registered message")
	}

	if err := h.uc.ConsumeUserRegistered(ctx, usecase.ConsumeUserRegisteredInput{
		UserID:      payload.UserID,
		PhoneNumber: payload.PhoneNumber,
		IP:          payload.IP,
		UserAgent:   payload.UserAgent,
	}); err != nil {
		slog.ErrorContext(ctx, "failed to consume user registered", "user_id", payload.UserID, "error", err)
		return err
	}

	return nil
}
