package inbound

import (
	"context"
	"log/slog"
	"strings"

	"github.com/shandysiswandi/onboarding/internal/pkg/config"
	"github.com/shandysiswandi/onboarding/internal/pkg/goroutine"
	"github.com/shandysiswandi/onboarding/internal/pkg/instrument"
	"github.com/shandysiswandi/onboarding/internal/pkg/messaging"
	"github.com/shandysiswandi/onboarding/internal/pkg/uid"
)

const consumerSuffix = "_archive"

// RegisterMQConsumer archives every dead-letter topic derived from
// modules.deadletter.topics. The raw client is used so an archive failure
// nacks the message back to the broker instead of routing it again.
func RegisterMQConsumer(
	ctx context.Context,
	cfg config.Config,
	routine *goroutine.Manager,
	client messaging.Consumer,
	suffix string,
	uuid uid.StringID,
	uc uc,
	ins instrument.Instrumentation,
) {
	mqHandler := &MQHandler{uc: uc, uuid: uuid, ins: ins}

	seen := map[string]bool{}
	for _, source := range cfg.GetArray("modules.deadletter.topics") {
		source = strings.TrimSpace(source)
		if source == "" {
			continue
		}

		topic := source + suffix
		if seen[topic] {
			continue
		}
		seen[topic] = true

		name := topic + consumerSuffix
		routine.Go(ctx, func(pCtx context.Context) error {
			slog.InfoContext(ctx, "Running job for archiving dead letters", "consumer", name, "topic", topic)
			return messaging.Supervise(pCtx, name, func(sCtx context.Context) error {
				return client.Consume(sCtx,
					topic,
					mqHandler.Archive,
					messaging.WithConsumerName(name),
					messaging.WithAutoAck(true),
					messaging.WithConcurrency(1),
					messaging.WithMaxInFlight(1),
				)
			})
		})
	}
}
