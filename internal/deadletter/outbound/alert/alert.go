package alert

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/shandysiswandi/onboarding/internal/deadletter/entity"
	"github.com/shandysiswandi/onboarding/internal/pkg/instrument"
	"github.com/shandysiswandi/onboarding/internal/pkg/mail"
	"go.opentelemetry.io/otel/codes"
)

const maxBodyPreview = 2048

// Alert emails operators when a message is dead-lettered.
type Alert struct {
	client     mail.Mail
	recipients []string
	ins        instrument.Instrumentation
}

func New(client mail.Mail, recipients []string, ins instrument.Instrumentation) *Alert {
	var to []string
	for _, r := range recipients {
		if r = strings.TrimSpace(r); r != "" {
			to = append(to, r)
		}
	}
	return &Alert{client: client, recipients: to, ins: ins}
}

// Enabled reports whether any recipient is configured.
func (a *Alert) Enabled() bool {
	return a != nil && a.client != nil && len(a.recipients) > 0
}

func (a *Alert) NotifyDeadLetter(ctx context.Context, key string, env entity.Envelope) error {
	if !a.Enabled() {
		return nil
	}

	ctx, span := a.ins.Tracer("deadletter.outbound.alert").Start(ctx, "NotifyDeadLetter")
	defer span.End()

	if err := a.client.Send(ctx, mail.Message{
		To:      a.recipients,
		Subject: fmt.Sprintf("[dead-letter] %s %s", env.OriginalTopic, env.EnvelopeID),
		Body:    render(key, env),
	}); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	return nil
}

func render(key string, env entity.Envelope) string {
	var b strings.Builder

	fmt.Fprintf(&b, "A message exhausted its retries and was archived.\n\n")
	fmt.Fprintf(&b, "Topic:        %s\n", env.OriginalTopic)
	fmt.Fprintf(&b, "Envelope ID:  %s\n", env.EnvelopeID)
	fmt.Fprintf(&b, "Retries:      %d\n", env.RetryCount)
	if env.Reason != "" {
		fmt.Fprintf(&b, "Reason:       %s\n", env.Reason)
	}
	if !env.DeadLetteredAt.IsZero() {
		fmt.Fprintf(&b, "Dead-lettered: %s\n", env.DeadLetteredAt.Format(time.RFC3339))
	}
	fmt.Fprintf(&b, "Archive key:  %s\n\n", key)

	body := env.Body
	truncated := len(body) > maxBodyPreview
	if truncated {
		body = body[:maxBodyPreview]
	}
	b.WriteString("Body:\n")
	b.Write(body)
	if truncated {
		b.WriteString("\n[truncated]")
	}
	b.WriteString("\n")

	return b.String()
}
