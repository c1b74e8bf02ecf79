package inbound

import (
	"context"
	"log/slog"
	"slices"

	"github.com/shandysiswandi/onboarding/internal/pkg/config"
	"github.com/shandysiswandi/onboarding/internal/pkg/goroutine"
	"github.com/shandysiswandi/onboarding/internal/pkg/instrument"
	"github.com/shandysiswandi/onboarding/internal/pkg/messaging"
	"github.com/shandysiswandi/onboarding/internal/pkg/uid"
	"github.com/shandysiswandi/onboarding/internal/shared/event"
)

type consumer interface {
	Consume(ctx context.Context, topic string, handler messaging.Handler, opts ...messaging.ConsumeOption) error
}

func RegisterMQConsumer(
	ctx context.Context,
	cfg config.Config,
	routine *goroutine.Manager,
	delivery consumer,
	uuid uid.StringID,
	uc uc,
	ins instrument.Instrumentation,
) {
	mqHandler := &MQHandler{uc: uc, uuid: uuid, ins: ins}

	enableConsumerNames := cfg.GetArray("modules.onboarding.consumer_names")

	var consumers = []struct {
		name    string
		topic   string // destination where publisher sent message
		handler messaging.Handler
	}{
		{
			name:    event.UserRegisteredConsumerOnboarding,
			topic:   event.UserRegisteredDestination,
			handler: mqHandler.UserRegistered,
		},
	}

	for _, c := range consumers {
		if !slices.Contains(enableConsumerNames, c.name) {
			continue
		}

		routine.Go(ctx, func(pCtx context.Context) error {
			slog.InfoContext(ctx, "Running job for handling consumer", "consumer", c.name, "topic", c.topic)
			return messaging.Supervise(pCtx, c.name, func(sCtx context.Context) error {
				return delivery.Consume(sCtx,
					c.topic,
					c.handler,
					messaging.WithConsumerName(c.name),
					messaging.WithConcurrency(1),
					messaging.WithMaxInFlight(1),
				)
			})
		})
	}
}
