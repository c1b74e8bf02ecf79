package messaging

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/shandysiswandi/onboarding/internal/pkg/goerror"
	"github.com/shandysiswandi/onboarding/internal/pkg/idempotency"
	"github.com/shandysiswandi/onboarding/internal/pkg/instrument"
)

type published struct {
	topic string
	msg   OutgoingMessage
}

type fakeBroker struct {
	mu        sync.Mutex
	published []published
	attempts  map[string]int
	failTopic map[string]error
	noDelay   bool
}

func newFakeBroker() *fakeBroker {
	return &fakeBroker{attempts: map[string]int{}, failTopic: map[string]error{}}
}

func (b *fakeBroker) Close() error { return nil }

func (b *fakeBroker) Publish(_ context.Context, topic string, msg OutgoingMessage) (PublishResult, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.attempts[topic]++
	if err := b.failTopic[topic]; err != nil {
		return PublishResult{}, err
	}
	if b.noDelay && msg.Delay > 0 {
		return PublishResult{}, ErrUnsupported
	}
	b.published = append(b.published, published{topic: topic, msg: msg})
	return PublishResult{Topic: topic}, nil
}

func (b *fakeBroker) Consume(context.Context, string, Handler, ...ConsumeOption) error {
	return nil
}

func (b *fakeBroker) last(t *testing.T) published {
	t.Helper()
	b.mu.Lock()
	defer b.mu.Unlock()
	if len(b.published) == 0 {
		t.Fatal("nothing was published")
	}
	return b.published[len(b.published)-1]
}

type fakeMessage struct {
	body    []byte
	headers []Header
	acks    int
	nacks   int
}

func (m *fakeMessage) Body() []byte         { return m.body }
func (m *fakeMessage) Key() []byte          { return nil }
func (m *fakeMessage) Headers() []Header    { return m.headers }
func (m *fakeMessage) ID() string           { return "m-1" }
func (m *fakeMessage) Topic() string        { return "user_registered" }
func (m *fakeMessage) Timestamp() time.Time { return time.Time{} }

func (m *fakeMessage) Ack(context.Context) error {
	m.acks++
	return nil
}

func (m *fakeMessage) Nack(context.Context) error {
	m.nacks++
	return nil
}

type fixedClock struct{ t time.Time }

func (c fixedClock) Now() time.Time { return c.t }

type fixedID string

func (f fixedID) Generate() string { return string(f) }

func newTestDelivery(t *testing.T, b *fakeBroker, cfg DeliveryConfig, opts ...DeliveryOption) *Delivery {
	t.Helper()
	opts = append([]DeliveryOption{
		WithInstrumentation(instrument.NewNoop()),
		WithClock(fixedClock{t: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)}),
		WithIDGenerator(fixedID("env-1")),
	}, opts...)

	d, err := NewDelivery(b, cfg, opts...)
	if err != nil {
		t.Fatalf("NewDelivery() error = %v", err)
	}
	return d
}

func failing(context.Context, Message) error { return errors.New("smtp down") }

func header(t *testing.T, headers []Header, key string) string {
	t.Helper()
	v, ok := HeaderValue(headers, key)
	if !ok {
		t.Fatalf("header %q missing in %v", key, headers)
	}
	return v
}

func TestDelivery_HandleSuccessAcks(t *testing.T) {
	b := newFakeBroker()
	d := newTestDelivery(t, b, DeliveryConfig{})
	msg := &fakeMessage{body: []byte("{}")}

	state, err := d.Handle(context.Background(), "user_registered", msg, func(context.Context, Message) error { return nil })
	if err != nil {
		t.Fatalf("Handle() error = %v", err)
	}
	if state != DeliveryAcknowledged || msg.acks != 1 || msg.nacks != 0 {
		t.Fatalf("state = %s acks = %d nacks = %d", state, msg.acks, msg.nacks)
	}
	if len(b.published) != 0 {
		t.Fatalf("published = %v, want nothing", b.published)
	}
}

func TestDelivery_RetryThenDeadLetter(t *testing.T) {
	b := newFakeBroker()
	d := newTestDelivery(t, b, DeliveryConfig{})
	ctx := context.Background()

	first := &fakeMessage{
		body:    []byte(`{"phone_number":"+14155550100"}`),
		headers: []Header{{Key: HeaderEnvelopeID, Value: []byte("env-7")}},
	}
	state, err := d.Handle(ctx, "user_registered", first, failing)
	if err != nil {
		t.Fatalf("Handle() error = %v", err)
	}
	if state != DeliveryRequeued || first.acks != 1 {
		t.Fatalf("state = %s acks = %d", state, first.acks)
	}

	requeued := b.last(t)
	if requeued.topic != "user_registered" {
		t.Fatalf("requeue topic = %q", requeued.topic)
	}
	if got := header(t, requeued.msg.Headers, HeaderRetry); got != "1" {
		t.Fatalf("x-retry = %q, want 1", got)
	}
	if requeued.msg.Delay != time.Second {
		t.Fatalf("delay = %v, want 1s", requeued.msg.Delay)
	}

	second := &fakeMessage{body: requeued.msg.Body, headers: requeued.msg.Headers}
	state, err = d.Handle(ctx, "user_registered", second, failing)
	if err != nil {
		t.Fatalf("Handle() error = %v", err)
	}
	if state != DeliveryDeadLettered || second.acks != 1 {
		t.Fatalf("state = %s acks = %d", state, second.acks)
	}

	dead := b.last(t)
	if dead.topic != "user_registered_dead_letter" {
		t.Fatalf("dead-letter topic = %q", dead.topic)
	}
	if string(dead.msg.Body) != string(first.body) {
		t.Fatalf("dead-letter body = %q", dead.msg.Body)
	}
	if got := header(t, dead.msg.Headers, HeaderEnvelopeID); got != "env-7" {
		t.Fatalf("envelope id = %q, want env-7", got)
	}
	if got := header(t, dead.msg.Headers, HeaderOriginalTopic); got != "user_registered" {
		t.Fatalf("original topic = %q", got)
	}
	if got := header(t, dead.msg.Headers, HeaderDeadLetterReason); got != "smtp down" {
		t.Fatalf("reason = %q", got)
	}
	if got := header(t, dead.msg.Headers, HeaderDeadLetteredAt); got != "2026-01-02T03:04:05Z" {
		t.Fatalf("dead-lettered at = %q", got)
	}
	if len(b.published) != 2 {
		t.Fatalf("published %d messages, want 2", len(b.published))
	}
}

func TestDelivery_DeadLetterPublishFailureNeverAcks(t *testing.T) {
	b := newFakeBroker()
	b.failTopic["user_registered_dead_letter"] = errors.New("broker unavailable")
	d := newTestDelivery(t, b, DeliveryConfig{RoutingAttempts: 2})

	msg := &fakeMessage{body: []byte("{}"), headers: []Header{{Key: HeaderRetry, Value: []byte("1")}}}
	state, err := d.Handle(context.Background(), "user_registered", msg, failing)
	if !goerror.IsKind(err, goerror.KindDeliveryExhausted) {
		t.Fatalf("error = %v, want kind %s", err, goerror.KindDeliveryExhausted)
	}
	if state != DeliveryPending {
		t.Fatalf("state = %s, want %s", state, DeliveryPending)
	}
	if msg.acks != 0 || msg.nacks != 1 {
		t.Fatalf("acks = %d nacks = %d, want 0 and 1", msg.acks, msg.nacks)
	}
	if got := b.attempts["user_registered_dead_letter"]; got != 2 {
		t.Fatalf("dead-letter attempts = %d, want 2", got)
	}
}

func TestDelivery_RequeueWithoutDelaySupport(t *testing.T) {
	b := newFakeBroker()
	b.noDelay = true
	d := newTestDelivery(t, b, DeliveryConfig{MaxRetries: 3})

	msg := &fakeMessage{body: []byte("{}")}
	state, err := d.Handle(context.Background(), "user_registered", msg, failing)
	if err != nil || state != DeliveryRequeued {
		t.Fatalf("Handle() = %s, %v", state, err)
	}
	if got := b.last(t).msg.Delay; got != 0 {
		t.Fatalf("delay = %v, want immediate republish", got)
	}
}

func TestDelivery_PanicIsAFailure(t *testing.T) {
	b := newFakeBroker()
	d := newTestDelivery(t, b, DeliveryConfig{})

	msg := &fakeMessage{body: []byte("{}")}
	state, err := d.Handle(context.Background(), "user_registered", msg, func(context.Context, Message) error {
		panic("boom")
	})
	if err != nil || state != DeliveryRequeued {
		t.Fatalf("Handle() = %s, %v", state, err)
	}
}

func TestDelivery_NegativeMaxRetriesDeadLettersImmediately(t *testing.T) {
	b := newFakeBroker()
	d := newTestDelivery(t, b, DeliveryConfig{MaxRetries: -1})

	state, err := d.Handle(context.Background(), "user_registered", &fakeMessage{}, failing)
	if err != nil || state != DeliveryDeadLettered {
		t.Fatalf("Handle() = %s, %v", state, err)
	}
}

func TestDelivery_Publish(t *testing.T) {
	b := newFakeBroker()
	d := newTestDelivery(t, b, DeliveryConfig{})
	ctx := instrument.SetCorrelationID(context.Background(), "cid-1")

	if _, err := d.Publish(ctx, "user_registered", []byte("{}")); err != nil {
		t.Fatalf("Publish() error = %v", err)
	}

	got := b.last(t)
	if v := header(t, got.msg.Headers, HeaderEnvelopeID); v != "env-1" {
		t.Fatalf("envelope id = %q", v)
	}
	if v := header(t, got.msg.Headers, HeaderCorrelationID); v != "cid-1" {
		t.Fatalf("correlation id = %q", v)
	}
	if _, ok := HeaderValue(got.msg.Headers, HeaderRetry); ok {
		t.Fatal("first publish must not carry x-retry")
	}
}

func TestDelivery_PublishFailure(t *testing.T) {
	b := newFakeBroker()
	b.failTopic["user_registered"] = errors.New("dial tcp: connection refused")
	d := newTestDelivery(t, b, DeliveryConfig{})

	_, err := d.Publish(context.Background(), "user_registered", []byte("{}"))
	if !goerror.IsKind(err, goerror.KindPublishFailed) {
		t.Fatalf("error = %v, want kind %s", err, goerror.KindPublishFailed)
	}
	if got := b.attempts["user_registered"]; got != 1 {
		t.Fatalf("attempts = %d, publish must not be retried", got)
	}
}

type fakeTracker struct {
	state     idempotency.State
	completed []string
	released  []string
}

func (f *fakeTracker) Acquire(context.Context, string, time.Duration) (idempotency.State, error) {
	return f.state, nil
}

func (f *fakeTracker) MarkCompleted(_ context.Context, key string, _ time.Duration) error {
	f.completed = append(f.completed, key)
	return nil
}

func (f *fakeTracker) Release(_ context.Context, key string) error {
	f.released = append(f.released, key)
	return nil
}

func TestDelivery_Dedupe(t *testing.T) {
	headers := []Header{{Key: HeaderEnvelopeID, Value: []byte("env-9")}}

	t.Run("completed delivery is acked without the handler", func(t *testing.T) {
		tracker := &fakeTracker{state: idempotency.StateCompleted}
		d := newTestDelivery(t, newFakeBroker(), DeliveryConfig{}, WithDedupe(tracker))
		msg := &fakeMessage{headers: headers}

		called := false
		state, err := d.Handle(context.Background(), "user_registered", msg, func(context.Context, Message) error {
			called = true
			return nil
		})
		if err != nil || state != DeliveryAcknowledged || called || msg.acks != 1 {
			t.Fatalf("Handle() = %s, %v, called = %v, acks = %d", state, err, called, msg.acks)
		}
	})

	t.Run("new delivery is marked completed", func(t *testing.T) {
		tracker := &fakeTracker{state: idempotency.StateNone}
		d := newTestDelivery(t, newFakeBroker(), DeliveryConfig{}, WithDedupe(tracker))

		_, err := d.Handle(context.Background(), "user_registered", &fakeMessage{headers: headers}, func(context.Context, Message) error { return nil })
		if err != nil {
			t.Fatalf("Handle() error = %v", err)
		}
		if len(tracker.completed) != 1 || tracker.completed[0] != "user_registered:env-9:0" {
			t.Fatalf("completed = %v", tracker.completed)
		}
	})

	t.Run("failed delivery releases its claim", func(t *testing.T) {
		tracker := &fakeTracker{state: idempotency.StateNone}
		d := newTestDelivery(t, newFakeBroker(), DeliveryConfig{}, WithDedupe(tracker))

		if _, err := d.Handle(context.Background(), "user_registered", &fakeMessage{headers: headers}, failing); err != nil {
			t.Fatalf("Handle() error = %v", err)
		}
		if len(tracker.released) != 1 || len(tracker.completed) != 0 {
			t.Fatalf("released = %v completed = %v", tracker.released, tracker.completed)
		}
	})
}

func TestDelivery_DedupeForeignClaim(t *testing.T) {
	headers := []Header{{Key: HeaderEnvelopeID, Value: []byte("env-1")}}

	tests := []struct {
		name    string
		handler Handler
		want    DeliveryState
	}{
		{name: "success", handler: func(context.Context, Message) error { return nil }, want: DeliveryAcknowledged},
		{name: "failure", handler: failing, want: DeliveryRequeued},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Arrange
			tracker := &fakeTracker{state: idempotency.StateInProgress}
			d := newTestDelivery(t, newFakeBroker(), DeliveryConfig{MaxRetries: 1}, WithDedupe(tracker))

			ran := 0
			handler := func(ctx context.Context, m Message) error {
				ran++
				return tt.handler(ctx, m)
			}

			// Act
			state, err := d.Handle(context.Background(), "user_registered", &fakeMessage{headers: headers}, handler)

			// Assert
			if err != nil || state != tt.want {
				t.Fatalf("Handle() = %s, %v, want %s", state, err, tt.want)
			}
			if ran != 1 {
				t.Fatalf("handler ran %d times, want 1", ran)
			}
			if len(tracker.released) != 0 || len(tracker.completed) != 0 {
				t.Fatalf("touched another worker's claim: released = %v completed = %v", tracker.released, tracker.completed)
			}
		})
	}
}

func TestDelivery_Backoff(t *testing.T) {
	d := newTestDelivery(t, newFakeBroker(), DeliveryConfig{Backoff: time.Second, MaxBackoff: 3 * time.Second})

	want := []time.Duration{time.Second, 2 * time.Second, 3 * time.Second, 3 * time.Second}
	for i, w := range want {
		if got := d.backoff(i + 1); got != w {
			t.Fatalf("backoff(%d) = %v, want %v", i+1, got, w)
		}
	}
}

func TestDeliveryConfig_Defaults(t *testing.T) {
	cfg := DeliveryConfig{}.withDefaults()

	if cfg.MaxRetries != DefaultMaxRetries || cfg.DeadLetterSuffix != DefaultDeadLetterSuffix {
		t.Fatalf("defaults = %+v", cfg)
	}
	if cfg.PublishTimeout != 5*time.Second {
		t.Fatalf("publish timeout = %v", cfg.PublishTimeout)
	}
}
