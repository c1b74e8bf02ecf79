package inbound

import (
	"context"
	"log/slog"

	"github.com/shandysiswandi/onboarding/internal/deadletter/usecase"
	"github.com/shandysiswandi/onboarding/internal/pkg/instrument"
	"github.com/shandysiswandi/onboarding/internal/pkg/messaging"
	"github.com/shandysiswandi/onboarding/internal/pkg/uid"
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

func (h *MQHandler) Archive(ctx context.Context, msg messaging.Message) error {
	ctx = h.ensureCorrelationID(ctx, msg.Headers())

	ctx, span := h.ins.Tracer("deadletter.inbound.mq").Start(ctx, "Archive")
	defer span.End()

	if _, err := h.uc.Archive(ctx, usecase.ArchiveInput{
		Topic:     msg.Topic(),
		MessageID: msg.ID(),
		Headers:   msg.Headers(),
		Body:      msg.Body(),
	}); err != nil {
		slog.ErrorContext(ctx, "failed to archive dead letter", "topic", msg.Topic(), "message_id", msg.ID(), "error", err)
		return err
	}

	return nil
}
