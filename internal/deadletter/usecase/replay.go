package usecase

import (
	"context"
	"errors"
	"log/slog"
	"maps"
	"slices"
	"strings"

	"github.com/shandysiswandi/onboarding/internal/pkg/goerror"
	"github.com/shandysiswandi/onboarding/internal/pkg/messaging"
)

type ReplayInput struct {
	Key string
}

type ReplayOutput struct {
	Topic      string
	EnvelopeID string
}

// Replay republishes an archived message to its original topic with a fresh
// retry count and removes the archive object. The envelope id is kept, so a
// handler that already completed it is skipped by duplicate suppression.
func (s *Usecase) Replay(ctx context.Context, in ReplayInput) (*ReplayOutput, error) {
	ctx, span := s.startSpan(ctx, "Replay")
	defer span.End()

	key := strings.TrimSpace(in.Key)
	if key == "" {
		return nil, goerror.NewInvalidInput(nil, "key", "key is a required field")
	}
	if !strings.HasPrefix(key, s.prefix+"/") {
		return nil, goerror.NewInvalidInput(nil, "key", "key is outside the dead letter archive")
	}

	env, err := s.repoArchive.Load(ctx, key)
	if errors.Is(err, goerror.ErrNotFound) {
		return nil, goerror.New(goerror.KindExpired, "Dead letter not found")
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to load dead letter", "key", key, "error", err)
		return nil, goerror.NewServer(err)
	}

	var headers []messaging.Header
	for _, k := range slices.Sorted(maps.Keys(env.Headers)) {
		switch k {
		case messaging.HeaderRetry,
			messaging.HeaderOriginalTopic,
			messaging.HeaderDeadLetterReason,
			messaging.HeaderDeadLetteredAt:
			continue
		}
		headers = append(headers, messaging.Header{Key: k, Value: []byte(env.Headers[k])})
	}
	headers = messaging.SetHeader(headers, messaging.HeaderEnvelopeID, env.EnvelopeID)

	if _, err := s.repoMessaging.Publish(ctx, env.OriginalTopic, env.Body, headers...); err != nil {
		slog.ErrorContext(ctx, "failed to replay dead letter", "key", key, "topic", env.OriginalTopic, "error", err)
		return nil, err
	}

	if err := s.repoArchive.Delete(ctx, key); err != nil {
		slog.WarnContext(ctx, "replayed dead letter still archived", "key", key, "error", err)
	}

	slog.InfoContext(ctx, "dead letter replayed", "key", key, "topic", env.OriginalTopic, "envelope_id", env.EnvelopeID)

	return &ReplayOutput{Topic: env.OriginalTopic, EnvelopeID: env.EnvelopeID}, nil
}
