package usecase

import (
	"context"
	"time"

	"github.com/shandysiswandi/onboarding/internal/pkg/clock"
	"github.com/shandysiswandi/onboarding/internal/pkg/hash"
	"github.com/shandysiswandi/onboarding/internal/pkg/instrument"
	"github.com/shandysiswandi/onboarding/internal/pkg/uid"
	"github.com/shandysiswandi/onboarding/internal/pkg/validator"
	"github.com/shandysiswandi/onboarding/internal/users/entity"
	"go.opentelemetry.io/otel/trace"
)

type UserRegisteredEvent struct {
	UserID       int64
	Name         string
	Email        string
	PhoneNumber  string
	IP           string
	UserAgent    string
	RegisteredAt time.Time
}

type repoDB interface {
	CreateUser(ctx context.Context, user entity.NewUser) error
}

type repoMessaging interface {
	PublishUserRegistered(ctx context.Context, ev UserRegisteredEvent) error
}

type Usecase struct {
	repoDB        repoDB
	repoMessaging repoMessaging
	uid           uid.NumberID
	clock         clock.Clocker
	validator     validator.Validator
	bcrypt        hash.Hash
	ins           instrument.Instrumentation
}

type Dependency struct {
	RepoDB        repoDB
	RepoMessaging repoMessaging
	UID           uid.NumberID
	Clock         clock.Clocker
	Validator     validator.Validator
	Bcrypt        hash.Hash
	Instrument    instrument.Instrumentation
}

func NewUsecase(dep Dependency) *Usecase {
	return &Usecase{
		repoDB:        dep.RepoDB,
		repoMessaging: dep.RepoMessaging,
		uid:           dep.UID,
		clock:         dep.Clock,
		validator:     dep.Validator,
		bcrypt:        dep.Bcrypt,
		ins:           dep.Instrument,
	}
}

func (s *Usecase) startSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	return s.ins.Tracer("users.usecase").Start(ctx, name)
}
