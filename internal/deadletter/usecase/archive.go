package usecase

import (
	"context"
	"log/slog"
	"path"
	"strings"
	"time"

	"github.com/shandysiswandi/onboarding/internal/deadletter/entity"
	"github.com/shandysiswandi/onboarding/internal/pkg/goerror"
	"github.com/shandysiswandi/onboarding/internal/pkg/messaging"
)

type ArchiveInput struct {
	// Topic is the dead-letter topic the message was read from.
	Topic     string
	MessageID string
	Headers   []messaging.Header
	Body      []byte
}

type ArchiveOutput struct {
	Key string
}

// Archive writes a dead-lettered message to object storage under
// <prefix>/<original-topic>/<yyyy>/<mm>/<dd>/<envelope-id>.json. The write is
// keyed by envelope id, so a redelivered message overwrites its own object.
func (s *Usecase) Archive(ctx context.Context, in ArchiveInput) (*ArchiveOutput, error) {
	ctx, span := s.startSpan(ctx, "Archive")
	defer span.End()

	env := s.envelope(in)
	key := s.objectKey(env)

	if err := s.repoArchive.Save(ctx, key, env); err != nil {
		slog.ErrorContext(ctx, "failed to archive dead letter", "key", key, "error", err)
		return nil, goerror.Wrap(err, goerror.KindDeliveryFailed, "Failed to archive dead letter")
	}

	slog.WarnContext(ctx, "dead letter archived",
		"key", key,
		"original_topic", env.OriginalTopic,
		"envelope_id", env.EnvelopeID,
		"reason", env.Reason,
	)

	if s.repoAlert != nil {
		if err := s.repoAlert.NotifyDeadLetter(ctx, key, env); err != nil {
			slog.WarnContext(ctx, "failed to send dead letter alert", "key", key, "error", err)
		}
	}

	return &ArchiveOutput{Key: key}, nil
}

func (s *Usecase) envelope(in ArchiveInput) entity.Envelope {
	env := entity.Envelope{
		DeadLetterTopic: in.Topic,
		RetryCount:      messaging.RetryCount(in.Headers),
		ArchivedAt:      s.clock.Now().UTC(),
		Body:            in.Body,
	}

	if len(in.Headers) > 0 {
		env.Headers = make(map[string]string, len(in.Headers))
		for _, h := range in.Headers {
			if _, ok := env.Headers[h.Key]; !ok && h.Key != "" {
				env.Headers[h.Key] = string(h.Value)
			}
		}
	}

	env.EnvelopeID, _ = messaging.HeaderValue(in.Headers, messaging.HeaderEnvelopeID)
	if env.EnvelopeID == "" {
		env.EnvelopeID = in.MessageID
	}
	if env.EnvelopeID == "" {
		env.EnvelopeID = s.uuid.Generate()
	}

	env.OriginalTopic, _ = messaging.HeaderValue(in.Headers, messaging.HeaderOriginalTopic)
	if env.OriginalTopic == "" {
		env.OriginalTopic = strings.TrimSuffix(in.Topic, s.suffix)
	}

	env.Reason, _ = messaging.HeaderValue(in.Headers, messaging.HeaderDeadLetterReason)
	if at, ok := messaging.HeaderValue(in.Headers, messaging.HeaderDeadLetteredAt); ok {
		if t, err := time.Parse(time.RFC3339Nano, at); err == nil {
			env.DeadLetteredAt = t.UTC()
		}
	}

	return env
}

func (s *Usecase) objectKey(env entity.Envelope) string {
	day := env.DeadLetteredAt
	if day.IsZero() {
		day = env.ArchivedAt
	}

	return path.Join(
		s.prefix,
		sanitizeSegment(env.OriginalTopic),
		day.Format("2006"),
		day.Format("01"),
		day.Format("02"),
		sanitizeSegment(env.EnvelopeID)+".json",
	)
}
