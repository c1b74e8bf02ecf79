package deadletter

import (
	"context"

	"github.com/shandysiswandi/onboarding/internal/deadletter/inbound"
	"github.com/shandysiswandi/onboarding/internal/deadletter/outbound/alert"
	"github.com/shandysiswandi/onboarding/internal/deadletter/outbound/archive"
	"github.com/shandysiswandi/onboarding/internal/deadletter/usecase"
	"github.com/shandysiswandi/onboarding/internal/pkg/clock"
	"github.com/shandysiswandi/onboarding/internal/pkg/config"
	"github.com/shandysiswandi/onboarding/internal/pkg/goroutine"
	"github.com/shandysiswandi/onboarding/internal/pkg/instrument"
	"github.com/shandysiswandi/onboarding/internal/pkg/mail"
	"github.com/shandysiswandi/onboarding/internal/pkg/messaging"
	"github.com/shandysiswandi/onboarding/internal/pkg/storage"
	"github.com/shandysiswandi/onboarding/internal/pkg/uid"
)

// DeadLetter browses and replays archived dead letters.
type DeadLetter interface {
	List(ctx context.Context, in usecase.ListInput) (*usecase.ListOutput, error)
	Replay(ctx context.Context, in usecase.ReplayInput) (*usecase.ReplayOutput, error)
}

type Dependency struct {
	Ctx context.Context
	// Messaging is the raw broker client the archive consumers read from.
	Messaging  messaging.Messaging
	Delivery   *messaging.Delivery
	Storage    storage.Storage
	Mail       mail.Mail
	Config     config.Config
	Instrument instrument.Instrumentation
	UUID       uid.StringID
	Clock      clock.Clocker
	Goroutine  *goroutine.Manager
}

func New(dep Dependency) DeadLetter {
	suffix := dep.Delivery.Config().DeadLetterSuffix

	uc := usecase.NewUsecase(usecase.Dependency{
		RepoArchive:      archive.New(dep.Storage, dep.Instrument),
		RepoAlert:        alert.New(dep.Mail, dep.Config.GetArray("modules.deadletter.alert_recipients"), dep.Instrument),
		RepoMessaging:    dep.Delivery,
		Config:           dep.Config,
		UUID:             dep.UUID,
		Clock:            dep.Clock,
		Instrument:       dep.Instrument,
		DeadLetterSuffix: suffix,
	})

	if dep.Ctx != nil && dep.Messaging != nil {
		inbound.RegisterMQConsumer(dep.Ctx, dep.Config, dep.Goroutine, dep.Messaging, suffix, dep.UUID, uc, dep.Instrument)
	}

	return uc
}
