package notify

import (
	"context"
	"log/slog"

	"github.com/shandysiswandi/onboarding/internal/pkg/instrument"
	"github.com/shandysiswandi/onboarding/internal/pkg/sms"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// Notify delivers verification codes over SMS.
type Notify struct {
	client sms.SMS
	ins    instrument.Instrumentation
}

func New(client sms.SMS, ins instrument.Instrumentation) *Notify {
	return &Notify{client: client, ins: ins}
}

func (n *Notify) SendSMS(ctx context.Context, to, body string) error {
	ctx, span := n.ins.Tracer("onboarding.outbound.notify").Start(ctx, "SendSMS")
	defer span.End()

	receipt, err := n.client.Send(ctx, sms.Message{To: to, Body: body})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	span.SetAttributes(attribute.String("sms.message_id", receipt.MessageID))
	slog.DebugContext(ctx, "otp sms accepted", "to", to, "message_id", receipt.MessageID)

	return nil
}
