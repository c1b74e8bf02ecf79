package messaging

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/sethvargo/go-retry"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/shandysiswandi/onboarding/internal/pkg/clock"
	"github.com/shandysiswandi/onboarding/internal/pkg/goerror"
	"github.com/shandysiswandi/onboarding/internal/pkg/idempotency"
	"github.com/shandysiswandi/onboarding/internal/pkg/instrument"
	"github.com/shandysiswandi/onboarding/internal/pkg/uid"
)

// DeliveryState is where a consumed message ended up after its handler ran.
type DeliveryState string

const (
	DeliveryPending      DeliveryState = "pending"
	DeliveryAcknowledged DeliveryState = "acknowledged"
	DeliveryRequeued     DeliveryState = "requeued"
	DeliveryDeadLettered DeliveryState = "dead_lettered"
)

const (
	DefaultMaxRetries       = 1
	DefaultDeadLetterSuffix = "_dead_letter"

	defaultBackoff         = time.Second
	defaultMaxBackoff      = 30 * time.Second
	defaultPublishTimeout  = 5 * time.Second
	defaultRoutingAttempts = 3
	defaultDedupeTTL       = 24 * time.Hour
	defaultDedupeLock      = 5 * time.Minute
)

// DeliveryConfig tunes retry and dead-letter routing.
type DeliveryConfig struct {
	// MaxRetries is how many times a failed message is requeued before it is
	// dead-lettered. Zero means DefaultMaxRetries; negative dead-letters on the
	// first failure.
	MaxRetries int
	// DeadLetterSuffix is appended to the topic name to build the dead-letter topic.
	DeadLetterSuffix string
	// Backoff is the base requeue delay, doubled per retry up to MaxBackoff.
	Backoff    time.Duration
	MaxBackoff time.Duration
	// PublishTimeout bounds every publish.
	PublishTimeout time.Duration
	// RoutingAttempts bounds publish attempts when requeueing or dead-lettering.
	RoutingAttempts uint64
	// DedupeTTL is how long a completed delivery is remembered.
	DedupeTTL time.Duration
}

func (c DeliveryConfig) withDefaults() DeliveryConfig {
	switch {
	case c.MaxRetries == 0:
		c.MaxRetries = DefaultMaxRetries
	case c.MaxRetries < 0:
		c.MaxRetries = 0
	}
	if c.DeadLetterSuffix == "" {
		c.DeadLetterSuffix = DefaultDeadLetterSuffix
	}
	if c.Backoff <= 0 {
		c.Backoff = defaultBackoff
	}
	if c.MaxBackoff < c.Backoff {
		c.MaxBackoff = max(defaultMaxBackoff, c.Backoff)
	}
	if c.PublishTimeout <= 0 {
		c.PublishTimeout = defaultPublishTimeout
	}
	if c.RoutingAttempts == 0 {
		c.RoutingAttempts = defaultRoutingAttempts
	}
	if c.DedupeTTL <= 0 {
		c.DedupeTTL = defaultDedupeTTL
	}
	return c
}

// DeliveryOption configures optional collaborators of Delivery.
type DeliveryOption func(*Delivery)

// WithInstrumentation records spans and the transitions counter.
func WithInstrumentation(ins instrument.Instrumentation) DeliveryOption {
	return func(d *Delivery) { d.ins = ins }
}

// WithDedupe skips the handler for a delivery whose envelope id and retry
// count already completed.
func WithDedupe(tracker idempotency.Idempotency) DeliveryOption {
	return func(d *Delivery) { d.dedupe = tracker }
}

// WithIDGenerator sets the envelope id generator.
func WithIDGenerator(gen uid.StringID) DeliveryOption {
	return func(d *Delivery) { d.ids = gen }
}

// WithClock sets the clock used for dead-letter timestamps.
func WithClock(c clock.Clocker) DeliveryOption {
	return func(d *Delivery) { d.clock = c }
}

// Delivery adds at-least-once semantics on top of a broker driver: a handler
// error requeues the message with an incremented x-retry header, and once the
// retries are spent the message moves to the dead-letter topic. The original
// is acked only after its successor has been published.
type Delivery struct {
	client Messaging
	cfg    DeliveryConfig

	ins         instrument.Instrumentation
	tracer      trace.Tracer
	transitions metric.Int64Counter
	dedupe      idempotency.Idempotency
	ids         uid.StringID
	clock       clock.Clocker
}

// NewDelivery wraps client.
func NewDelivery(client Messaging, cfg DeliveryConfig, opts ...DeliveryOption) (*Delivery, error) {
	if client == nil {
		return nil, errors.New("messaging: delivery requires a client")
	}

	d := &Delivery{
		client: client,
		cfg:    cfg.withDefaults(),
		ins:    instrument.NewNoop(),
		ids:    uid.NewUUID(),
		clock:  clock.New(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(d)
		}
	}

	d.tracer = d.ins.Tracer("messaging.delivery")
	counter, err := d.ins.Meter("messaging.delivery").Int64Counter(
		"messaging.delivery.transitions",
		metric.WithDescription("Delivery state transitions of consumed messages"),
	)
	if err != nil {
		return nil, fmt.Errorf("messaging: delivery counter: %w", err)
	}
	d.transitions = counter

	return d, nil
}

// Close closes the underlying client.
func (d *Delivery) Close() error {
	return d.client.Close()
}

// DeadLetterTopic returns the dead-letter topic for topic.
func (d *Delivery) DeadLetterTopic(topic string) string {
	return topic + d.cfg.DeadLetterSuffix
}

// Config returns the effective configuration.
func (d *Delivery) Config() DeliveryConfig {
	return d.cfg
}

// Publish sends body to topic durably. The envelope id and the correlation id
// from ctx are added when missing. Failures are returned as KindPublishFailed
// and are not retried.
func (d *Delivery) Publish(ctx context.Context, topic string, body []byte, headers ...Header) (PublishResult, error) {
	ctx, span := d.tracer.Start(ctx, "messaging.delivery.Publish", trace.WithAttributes(attribute.String("topic", topic)))
	defer span.End()

	headers = append([]Header(nil), headers...)
	if _, ok := HeaderValue(headers, HeaderEnvelopeID); !ok {
		headers = SetHeader(headers, HeaderEnvelopeID, d.ids.Generate())
	}
	if _, ok := HeaderValue(headers, HeaderCorrelationID); !ok {
		if cID := instrument.GetCorrelationID(ctx); cID != "" {
			headers = SetHeader(headers, HeaderCorrelationID, cID)
		}
	}

	res, err := d.publish(ctx, topic, OutgoingMessage{Body: body, Headers: headers})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "publish failed")
		return PublishResult{}, goerror.Wrap(err, goerror.KindPublishFailed, "failed to publish message")
	}
	return res, nil
}

// Consume blocks and feeds messages from topic to handler until ctx is done.
// The driver runs in manual-ack mode; Delivery decides every ack.
func (d *Delivery) Consume(ctx context.Context, topic string, handler Handler, opts ...ConsumeOption) error {
	if handler == nil {
		return errors.New("messaging: delivery handler is required")
	}
	opts = append(opts, WithAutoAck(false))

	return d.client.Consume(ctx, topic, func(ctx context.Context, msg Message) error {
		_, err := d.Handle(ctx, topic, msg, handler)
		return err
	}, opts...)
}

// Handle runs handler for one message and routes it. A returned error means
// the message could not be routed and was left unacked (or nacked) so the
// broker redelivers it.
//
// With dedupe enabled, a completed (envelope, retry) pair is acked without
// running handler. A pair claimed by another worker is still handled, since
// not every driver can redeliver, but only the claim owner marks it completed
// or releases it.
func (d *Delivery) Handle(ctx context.Context, topic string, msg Message, handler Handler) (DeliveryState, error) {
	headers := msg.Headers()
	retryCount := RetryCount(headers)
	envelopeID, _ := HeaderValue(headers, HeaderEnvelopeID)
	if cID, ok := HeaderValue(headers, HeaderCorrelationID); ok {
		ctx = instrument.SetCorrelationID(ctx, cID)
	}

	ctx, span := d.tracer.Start(ctx, "messaging.delivery.Handle", trace.WithAttributes(
		attribute.String("topic", topic),
		attribute.String("envelope_id", envelopeID),
		attribute.Int("retry", retryCount),
	))
	defer span.End()

	// claim is set only when this call won the dedupe key.
	claim := ""
	if d.dedupe != nil && envelopeID != "" {
		key := topic + ":" + envelopeID + ":" + strconv.Itoa(retryCount)
		state, err := d.dedupe.Acquire(ctx, key, defaultDedupeLock)
		switch {
		case err != nil:
			slog.WarnContext(ctx, "dedupe lookup failed, handling anyway", "topic", topic, "envelope_id", envelopeID, "error", err)
		case state == idempotency.StateCompleted:
			slog.InfoContext(ctx, "skipping duplicate delivery", "topic", topic, "envelope_id", envelopeID, "retry", retryCount)
			return d.ack(ctx, topic, msg)
		case state == idempotency.StateInProgress:
			slog.InfoContext(ctx, "delivery claimed by another worker, handling without the claim",
				"topic", topic, "envelope_id", envelopeID, "retry", retryCount)
		default:
			claim = key
		}
	}

	herr := callHandler(ctx, topic, func() error { return handler(ctx, msg) })
	if herr == nil {
		if claim != "" {
			if err := d.dedupe.MarkCompleted(ctx, claim, d.cfg.DedupeTTL); err != nil {
				slog.WarnContext(ctx, "failed to mark delivery completed", "topic", topic, "envelope_id", envelopeID, "error", err)
			}
		}
		return d.ack(ctx, topic, msg)
	}

	span.RecordError(herr)
	if claim != "" {
		if err := d.dedupe.Release(ctx, claim); err != nil {
			slog.WarnContext(ctx, "failed to release dedupe claim", "topic", topic, "envelope_id", envelopeID, "error", err)
		}
	}

	if retryCount < d.cfg.MaxRetries {
		return d.requeue(ctx, topic, msg, retryCount, herr)
	}
	return d.deadLetter(ctx, topic, msg, retryCount, herr)
}

func (d *Delivery) ack(ctx context.Context, topic string, msg Message) (DeliveryState, error) {
	if err := msg.Ack(ctx); err != nil {
		slog.ErrorContext(ctx, "failed to ack message", "topic", topic, "message_id", msg.ID(), "error", err)
		return DeliveryPending, err
	}
	d.record(ctx, topic, DeliveryAcknowledged)
	return DeliveryAcknowledged, nil
}

func (d *Delivery) requeue(ctx context.Context, topic string, msg Message, retryCount int, herr error) (DeliveryState, error) {
	next := retryCount + 1
	out := OutgoingMessage{
		Body:    msg.Body(),
		Key:     msg.Key(),
		Headers: SetHeader(msg.Headers(), HeaderRetry, strconv.Itoa(next)),
		Delay:   d.backoff(next),
	}

	err := d.route(ctx, topic, out)
	if errors.Is(err, ErrUnsupported) {
		out.Delay = 0
		err = d.route(ctx, topic, out)
	}
	if err != nil {
		return d.abandon(ctx, topic, msg, "requeue", err)
	}

	slog.WarnContext(ctx, "message handler failed, requeued",
		"topic", topic, "message_id", msg.ID(), "retry", next, "delay", out.Delay, "error", herr)

	if err := msg.Ack(ctx); err != nil {
		slog.ErrorContext(ctx, "failed to ack requeued message", "topic", topic, "message_id", msg.ID(), "error", err)
		return DeliveryPending, err
	}
	d.record(ctx, topic, DeliveryRequeued)
	return DeliveryRequeued, nil
}

func (d *Delivery) deadLetter(ctx context.Context, topic string, msg Message, retryCount int, herr error) (DeliveryState, error) {
	headers := msg.Headers()
	headers = SetHeader(headers, HeaderOriginalTopic, topic)
	headers = SetHeader(headers, HeaderDeadLetterReason, herr.Error())
	headers = SetHeader(headers, HeaderDeadLetteredAt, d.clock.Now().UTC().Format(time.RFC3339Nano))

	dlq := d.DeadLetterTopic(topic)
	if err := d.route(ctx, dlq, OutgoingMessage{Body: msg.Body(), Key: msg.Key(), Headers: headers}); err != nil {
		return d.abandon(ctx, topic, msg, "dead-letter", err)
	}

	slog.ErrorContext(ctx, "message retries exhausted, dead-lettered",
		"topic", topic, "dead_letter_topic", dlq, "message_id", msg.ID(), "retry", retryCount, "error", herr)

	if err := msg.Ack(ctx); err != nil {
		slog.ErrorContext(ctx, "failed to ack dead-lettered message", "topic", topic, "message_id", msg.ID(), "error", err)
		return DeliveryPending, err
	}
	d.record(ctx, topic, DeliveryDeadLettered)
	return DeliveryDeadLettered, nil
}

// abandon leaves msg with the broker. It never acks.
func (d *Delivery) abandon(ctx context.Context, topic string, msg Message, step string, cause error) (DeliveryState, error) {
	slog.ErrorContext(ctx, "failed to route message, leaving it with the broker",
		"topic", topic, "message_id", msg.ID(), "step", step, "error", cause)

	if n, ok := msg.(Nackable); ok {
		if err := n.Nack(ctx); err != nil {
			slog.ErrorContext(ctx, "failed to nack message", "topic", topic, "message_id", msg.ID(), "error", err)
		}
	}

	return DeliveryPending, goerror.Wrap(cause, goerror.KindDeliveryExhausted, "failed to "+step+" message")
}

// route publishes with a bounded number of attempts. ErrUnsupported is
// returned immediately so the caller can drop the delay.
func (d *Delivery) route(ctx context.Context, topic string, msg OutgoingMessage) error {
	b := retry.WithMaxRetries(d.cfg.RoutingAttempts-1, retry.NewExponential(100*time.Millisecond))

	return retry.Do(ctx, b, func(ctx context.Context) error {
		_, err := d.publish(ctx, topic, msg)
		if err == nil || errors.Is(err, ErrUnsupported) {
			return err
		}
		return retry.RetryableError(err)
	})
}

func (d *Delivery) publish(ctx context.Context, topic string, msg OutgoingMessage) (PublishResult, error) {
	ctx, cancel := context.WithTimeout(ctx, d.cfg.PublishTimeout)
	defer cancel()

	return d.client.Publish(ctx, topic, msg)
}

// backoff returns the requeue delay for the given retry number (1-based).
func (d *Delivery) backoff(retryNumber int) time.Duration {
	b := retry.WithCappedDuration(d.cfg.MaxBackoff, retry.NewExponential(d.cfg.Backoff))

	var delay time.Duration
	for range max(retryNumber, 1) {
		next, stop := b.Next()
		if stop {
			break
		}
		delay = next
	}
	return delay
}

func (d *Delivery) record(ctx context.Context, topic string, state DeliveryState) {
	d.transitions.Add(ctx, 1, metric.WithAttributes(
		attribute.String("topic", topic),
		attribute.String("state", string(state)),
	))
}
