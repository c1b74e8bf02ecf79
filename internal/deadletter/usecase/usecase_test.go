package usecase

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/shandysiswandi/onboarding/internal/deadletter/entity"
	"github.com/shandysiswandi/onboarding/internal/pkg/config"
	"github.com/shandysiswandi/onboarding/internal/pkg/goerror"
	"github.com/shandysiswandi/onboarding/internal/pkg/instrument"
	"github.com/shandysiswandi/onboarding/internal/pkg/messaging"
)

var errBucketDown = errors.New("bucket down")

type fixedClock struct{ now time.Time }

func (c fixedClock) Now() time.Time { return c.now }

type staticUUID string

func (s staticUUID) Generate() string { return string(s) }

type memArchive struct {
	mu      sync.Mutex
	objects map[string]entity.Envelope

	saveErr   error
	loadErr   error
	listErr   error
	deleteErr error

	listPrefix string
	listLimit  int32
}

func newMemArchive() *memArchive {
	return &memArchive{objects: map[string]entity.Envelope{}}
}

func (m *memArchive) Save(_ context.Context, key string, env entity.Envelope) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.saveErr != nil {
		return m.saveErr
	}
	m.objects[key] = env
	return nil
}

func (m *memArchive) Load(_ context.Context, key string) (*entity.Envelope, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.loadErr != nil {
		return nil, m.loadErr
	}
	env, ok := m.objects[key]
	if !ok {
		return nil, goerror.ErrNotFound
	}
	return &env, nil
}

func (m *memArchive) List(_ context.Context, prefix string, limit int32, _ string) ([]entity.ArchivedItem, string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.listPrefix, m.listLimit = prefix, limit
	if m.listErr != nil {
		return nil, "", m.listErr
	}
	var items []entity.ArchivedItem
	for k, env := range m.objects {
		if strings.HasPrefix(k, prefix) {
			items = append(items, entity.ArchivedItem{Key: k, Size: int64(len(env.Body))})
		}
	}
	return items, "", nil
}

func (m *memArchive) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.deleteErr != nil {
		return m.deleteErr
	}
	delete(m.objects, key)
	return nil
}

type fakeAlert struct {
	keys []string
	err  error
}

func (f *fakeAlert) NotifyDeadLetter(_ context.Context, key string, _ entity.Envelope) error {
	f.keys = append(f.keys, key)
	return f.err
}

type published struct {
	topic   string
	body    []byte
	headers []messaging.Header
}

type fakePublisher struct {
	sent []published
	err  error
}

func (f *fakePublisher) Publish(_ context.Context, topic string, body []byte, headers ...messaging.Header) (messaging.PublishResult, error) {
	if f.err != nil {
		return messaging.PublishResult{}, f.err
	}
	f.sent = append(f.sent, published{topic: topic, body: body, headers: headers})
	return messaging.PublishResult{MessageID: "m-1", Topic: topic}, nil
}

type fixture struct {
	uc        *Usecase
	archive   *memArchive
	alert     *fakeAlert
	publisher *fakePublisher
}

func newFixture(t *testing.T, yaml string) fixture {
	t.Helper()

	cfg, err := config.NewViperFromBytes("yaml", []byte(yaml))
	if err != nil {
		t.Fatalf("config: %v", err)
	}

	f := fixture{archive: newMemArchive(), alert: &fakeAlert{}, publisher: &fakePublisher{}}
	f.uc = NewUsecase(Dependency{
		RepoArchive:   f.archive,
		RepoAlert:     f.alert,
		RepoMessaging: f.publisher,
		Config:        cfg,
		UUID:          staticUUID("generated-id"),
		Clock:         fixedClock{now: time.Date(2026, 5, 6, 7, 8, 9, 0, time.UTC)},
		Instrument:    instrument.NewNoop(),
	})
	return f
}

func assertKind(t *testing.T, err error, want goerror.Kind) {
	t.Helper()
	if got := goerror.KindOf(err); got != want {
		t.Fatalf("error kind = %s, want %s (err = %v)", got, want, err)
	}
}

func deadLetterHeaders() []messaging.Header {
	return []messaging.Header{
		{Key: messaging.HeaderEnvelopeID, Value: []byte("env-1")},
		{Key: messaging.HeaderRetry, Value: []byte("3")},
		{Key: messaging.HeaderCorrelationID, Value: []byte("corr-1")},
		{Key: messaging.HeaderOriginalTopic, Value: []byte("user_registered")},
		{Key: messaging.HeaderDeadLetterReason, Value: []byte("sms down")},
		{Key: messaging.HeaderDeadLetteredAt, Value: []byte("2026-05-04T10:00:00Z")},
	}
}

func TestArchive_BuildsEnvelopeAndKey(t *testing.T) {
	// Arrange
	f := newFixture(t, "")

	// Act
	out, err := f.uc.Archive(context.Background(), ArchiveInput{
		Topic:     "user_registered_dead_letter",
		MessageID: "broker-1",
		Headers:   deadLetterHeaders(),
		Body:      []byte(`{"user_id":"1"}`),
	})

	// Assert
	if err != nil {
		t.Fatalf("Archive() error = %v", err)
	}
	wantKey := "dead-letter/user_registered/2026/05/04/env-1.json"
	if out.Key != wantKey {
		t.Fatalf("key = %q, want %q", out.Key, wantKey)
	}
	env := f.archive.objects[wantKey]
	if env.OriginalTopic != "user_registered" || env.RetryCount != 3 || env.Reason != "sms down" {
		t.Fatalf("envelope = %+v", env)
	}
	if env.Headers[messaging.HeaderCorrelationID] != "corr-1" || string(env.Body) != `{"user_id":"1"}` {
		t.Fatalf("envelope headers/body = %v %s", env.Headers, env.Body)
	}
	if len(f.alert.keys) != 1 || f.alert.keys[0] != wantKey {
		t.Fatalf("alerts = %v", f.alert.keys)
	}
}

func TestArchive_FallbacksWithoutHeaders(t *testing.T) {
	// Arrange
	f := newFixture(t, "modules:\n  deadletter:\n    archive_prefix: /dlq/\n")

	// Act
	out, err := f.uc.Archive(context.Background(), ArchiveInput{
		Topic: "orders/created_dead_letter",
		Body:  []byte("x"),
	})

	// Assert
	if err != nil {
		t.Fatalf("Archive() error = %v", err)
	}
	if out.Key != "dlq/orders_created/2026/05/06/generated-id.json" {
		t.Fatalf("key = %q", out.Key)
	}
}

func TestArchive_SaveFailure(t *testing.T) {
	// Arrange
	f := newFixture(t, "")
	f.archive.saveErr = errBucketDown

	// Act
	_, err := f.uc.Archive(context.Background(), ArchiveInput{Topic: "a_dead_letter", Headers: deadLetterHeaders()})

	// Assert
	assertKind(t, err, goerror.KindDeliveryFailed)
	if !errors.Is(err, errBucketDown) {
		t.Fatalf("error = %v, want wrapped cause", err)
	}
	if len(f.alert.keys) != 0 {
		t.Fatal("alert sent for an unarchived message")
	}
}

func TestArchive_AlertFailureIgnored(t *testing.T) {
	// Arrange
	f := newFixture(t, "")
	f.alert.err = errors.New("smtp down")

	// Act
	_, err := f.uc.Archive(context.Background(), ArchiveInput{Topic: "a_dead_letter", Headers: deadLetterHeaders()})

	// Assert
	if err != nil {
		t.Fatalf("Archive() error = %v, want nil", err)
	}
}

func TestList(t *testing.T) {
	tests := []struct {
		name       string
		in         ListInput
		wantPrefix string
		wantLimit  int32
	}{
		{name: "defaults", in: ListInput{}, wantPrefix: "dead-letter/", wantLimit: 50},
		{name: "topic scoped", in: ListInput{Topic: "user_registered", Limit: 10}, wantPrefix: "dead-letter/user_registered/", wantLimit: 10},
		{name: "capped", in: ListInput{Limit: 5000}, wantPrefix: "dead-letter/", wantLimit: 1000},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Arrange
			f := newFixture(t, "")

			// Act
			_, err := f.uc.List(context.Background(), tt.in)

			// Assert
			if err != nil {
				t.Fatalf("List() error = %v", err)
			}
			if f.archive.listPrefix != tt.wantPrefix || f.archive.listLimit != tt.wantLimit {
				t.Fatalf("List() used prefix %q limit %d", f.archive.listPrefix, f.archive.listLimit)
			}
		})
	}
}

func TestList_StoreFailure(t *testing.T) {
	f := newFixture(t, "")
	f.archive.listErr = errBucketDown

	_, err := f.uc.List(context.Background(), ListInput{})

	assertKind(t, err, goerror.KindInternal)
}

func TestReplay_RepublishesAndDeletes(t *testing.T) {
	// Arrange
	f := newFixture(t, "")
	ctx := context.Background()
	out, err := f.uc.Archive(ctx, ArchiveInput{
		Topic:   "user_registered_dead_letter",
		Headers: deadLetterHeaders(),
		Body:    []byte("payload"),
	})
	if err != nil {
		t.Fatalf("Archive() error = %v", err)
	}

	// Act
	res, err := f.uc.Replay(ctx, ReplayInput{Key: out.Key})

	// Assert
	if err != nil {
		t.Fatalf("Replay() error = %v", err)
	}
	if res.Topic != "user_registered" || res.EnvelopeID != "env-1" {
		t.Fatalf("Replay() = %+v", res)
	}
	if len(f.publisher.sent) != 1 {
		t.Fatalf("published %d messages, want 1", len(f.publisher.sent))
	}
	sent := f.publisher.sent[0]
	if sent.topic != "user_registered" || string(sent.body) != "payload" {
		t.Fatalf("published %+v", sent)
	}
	for _, k := range []string{messaging.HeaderRetry, messaging.HeaderOriginalTopic, messaging.HeaderDeadLetterReason, messaging.HeaderDeadLetteredAt} {
		if _, ok := messaging.HeaderValue(sent.headers, k); ok {
			t.Fatalf("replayed message still carries %s", k)
		}
	}
	if v, _ := messaging.HeaderValue(sent.headers, messaging.HeaderEnvelopeID); v != "env-1" {
		t.Fatalf("envelope id = %q, want env-1", v)
	}
	if v, _ := messaging.HeaderValue(sent.headers, messaging.HeaderCorrelationID); v != "corr-1" {
		t.Fatalf("correlation id = %q, want corr-1", v)
	}
	if _, ok := f.archive.objects[out.Key]; ok {
		t.Fatal("archive object not deleted after replay")
	}
}

func TestReplay_Errors(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		setup func(f fixture)
		want  goerror.Kind
	}{
		{name: "empty key", key: " ", want: goerror.KindMissingFields},
		{name: "outside archive", key: "other/a.json", want: goerror.KindMissingFields},
		{name: "not found", key: "dead-letter/a/2026/05/04/x.json", want: goerror.KindExpired},
		{
			name:  "load failure",
			key:   "dead-letter/a/2026/05/04/x.json",
			setup: func(f fixture) { f.archive.loadErr = errBucketDown },
			want:  goerror.KindInternal,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Arrange
			f := newFixture(t, "")
			if tt.setup != nil {
				tt.setup(f)
			}

			// Act
			_, err := f.uc.Replay(context.Background(), ReplayInput{Key: tt.key})

			// Assert
			assertKind(t, err, tt.want)
			if len(f.publisher.sent) != 0 {
				t.Fatal("message published on failure")
			}
		})
	}
}

func TestReplay_PublishFailureKeepsArchive(t *testing.T) {
	// Arrange
	f := newFixture(t, "")
	ctx := context.Background()
	out, _ := f.uc.Archive(ctx, ArchiveInput{Topic: "a_dead_letter", Headers: deadLetterHeaders()})
	f.publisher.err = errors.New("broker down")

	// Act
	_, err := f.uc.Replay(ctx, ReplayInput{Key: out.Key})

	// Assert
	if err == nil {
		t.Fatal("Replay() error = nil, want publish failure")
	}
	if _, ok := f.archive.objects[out.Key]; !ok {
		t.Fatal("archive object removed although publish failed")
	}
}
