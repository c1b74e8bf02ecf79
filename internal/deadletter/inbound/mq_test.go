package inbound

import (
	"context"
	"errors"
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/shandysiswandi/onboarding/internal/deadletter/usecase"
	"github.com/shandysiswandi/onboarding/internal/pkg/config"
	"github.com/shandysiswandi/onboarding/internal/pkg/goroutine"
	"github.com/shandysiswandi/onboarding/internal/pkg/instrument"
	"github.com/shandysiswandi/onboarding/internal/pkg/messaging"
)

type fakeUC struct {
	mu  sync.Mutex
	got []usecase.ArchiveInput
	cID string
	err error
}

func (f *fakeUC) Archive(ctx context.Context, in usecase.ArchiveInput) (*usecase.ArchiveOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.got = append(f.got, in)
	f.cID = instrument.GetCorrelationID(ctx)
	if f.err != nil {
		return nil, f.err
	}
	return &usecase.ArchiveOutput{Key: "k"}, nil
}

type fakeMessage struct {
	body    []byte
	headers []messaging.Header
}

func (m *fakeMessage) Body() []byte                { return m.body }
func (m *fakeMessage) Key() []byte                 { return nil }
func (m *fakeMessage) Headers() []messaging.Header { return m.headers }
func (m *fakeMessage) ID() string                  { return "m-9" }
func (m *fakeMessage) Topic() string               { return "user_registered_dead_letter" }
func (m *fakeMessage) Timestamp() time.Time        { return time.Time{} }
func (m *fakeMessage) Ack(context.Context) error   { return nil }

type fixedUUID string

func (f fixedUUID) Generate() string { return string(f) }

func TestMQHandler_Archive(t *testing.T) {
	t.Run("passes message through", func(t *testing.T) {
		// Arrange
		f := &fakeUC{}
		h := &MQHandler{uc: f, uuid: fixedUUID("generated"), ins: instrument.NewNoop()}
		headers := []messaging.Header{{Key: messaging.HeaderCorrelationID, Value: []byte("c-7")}}

		// Act
		err := h.Archive(context.Background(), &fakeMessage{body: []byte("x"), headers: headers})

		// Assert
		if err != nil {
			t.Fatalf("Archive() error = %v", err)
		}
		if len(f.got) != 1 {
			t.Fatalf("usecase called %d times", len(f.got))
		}
		in := f.got[0]
		if in.Topic != "user_registered_dead_letter" || in.MessageID != "m-9" || string(in.Body) != "x" || len(in.Headers) != 1 {
			t.Fatalf("usecase input = %+v", in)
		}
		if f.cID != "c-7" {
			t.Fatalf("correlation id = %q, want c-7", f.cID)
		}
	})

	t.Run("archive failure is returned for nack", func(t *testing.T) {
		wantErr := errors.New("bucket down")
		h := &MQHandler{uc: &fakeUC{err: wantErr}, uuid: fixedUUID("x"), ins: instrument.NewNoop()}

		err := h.Archive(context.Background(), &fakeMessage{})

		if !errors.Is(err, wantErr) {
			t.Fatalf("Archive() error = %v, want %v", err, wantErr)
		}
	})
}

type fakeConsumer struct {
	mu     sync.Mutex
	topics []string
	called chan struct{}
}

func (f *fakeConsumer) Consume(ctx context.Context, topic string, _ messaging.Handler, _ ...messaging.ConsumeOption) error {
	f.mu.Lock()
	f.topics = append(f.topics, topic)
	f.mu.Unlock()
	f.called <- struct{}{}
	<-ctx.Done()
	return ctx.Err()
}

func TestRegisterMQConsumer(t *testing.T) {
	// Arrange
	cfg, err := config.NewViperFromBytes("yaml", []byte(`
modules:
  deadletter:
    topics:
      - user_registered
      - " "
      - user_registered
      - otp_requested
`))
	if err != nil {
		t.Fatalf("config: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	routine := goroutine.NewManager(4)
	fc := &fakeConsumer{called: make(chan struct{}, 4)}

	// Act
	RegisterMQConsumer(ctx, cfg, routine, fc, "_dead_letter", fixedUUID("x"), &fakeUC{}, instrument.NewNoop())
	for range 2 {
		select {
		case <-fc.called:
		case <-time.After(2 * time.Second):
			t.Fatal("consumer not started")
		}
	}
	cancel()
	if err := routine.Wait(); err != nil {
		t.Fatalf("Wait() error = %v", err)
	}

	// Assert
	slices.Sort(fc.topics)
	want := []string{"otp_requested_dead_letter", "user_registered_dead_letter"}
	if !slices.Equal(fc.topics, want) {
		t.Fatalf("topics = %v, want %v", fc.topics, want)
	}
}
