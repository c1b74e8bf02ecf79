package usecase

import (
	"context"
	"strings"

	"github.com/shandysiswandi/onboarding/internal/deadletter/entity"
	"github.com/shandysiswandi/onboarding/internal/pkg/clock"
	"github.com/shandysiswandi/onboarding/internal/pkg/config"
	"github.com/shandysiswandi/onboarding/internal/pkg/instrument"
	"github.com/shandysiswandi/onboarding/internal/pkg/messaging"
	"github.com/shandysiswandi/onboarding/internal/pkg/uid"
	"go.opentelemetry.io/otel/trace"
)

const defaultPrefix = "dead-letter"

type repoArchive interface {
	Save(ctx context.Context, key string, env entity.Envelope) error
	Load(ctx context.Context, key string) (*entity.Envelope, error)
	List(ctx context.Context, prefix string, limit int32, token string) ([]entity.ArchivedItem, string, error)
	Delete(ctx context.Context, key string) error
}

type repoAlert interface {
	NotifyDeadLetter(ctx context.Context, key string, env entity.Envelope) error
}

type repoMessaging interface {
	Publish(ctx context.Context, topic string, body []byte, headers ...messaging.Header) (messaging.PublishResult, error)
}

type Usecase struct {
	repoArchive   repoArchive
	repoAlert     repoAlert
	repoMessaging repoMessaging
	uuid          uid.StringID
	clock         clock.Clocker
	ins           instrument.Instrumentation

	prefix string
	suffix string
}

type Dependency struct {
	RepoArchive repoArchive
	// RepoAlert is optional.
	RepoAlert     repoAlert
	RepoMessaging repoMessaging
	Config        config.Config
	UUID          uid.StringID
	Clock         clock.Clocker
	Instrument    instrument.Instrumentation
	// DeadLetterSuffix is the suffix the delivery layer appends to topics.
	DeadLetterSuffix string
}

func NewUsecase(dep Dependency) *Usecase {
	prefix := strings.Trim(dep.Config.GetString("modules.deadletter.archive_prefix"), "/")
	if prefix == "" {
		prefix = defaultPrefix
	}
	suffix := dep.DeadLetterSuffix
	if suffix == "" {
		suffix = messaging.DefaultDeadLetterSuffix
	}

	return &Usecase{
		repoArchive:   dep.RepoArchive,
		repoAlert:     dep.RepoAlert,
		repoMessaging: dep.RepoMessaging,
		uuid:          dep.UUID,
		clock:         dep.Clock,
		ins:           dep.Instrument,
		prefix:        prefix,
		suffix:        suffix,
	}
}

func (s *Usecase) startSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	return s.ins.Tracer("deadletter.usecase").Start(ctx, name)
}

// sanitizeSegment keeps a value usable as one object key segment.
func sanitizeSegment(v string) string {
	v = strings.TrimSpace(v)
	if v == "" {
		return "unknown"
	}
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_', r == '.':
			return r
		default:
			return '_'
		}
	}, v)
}
