package users

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shandysiswandi/onboarding/internal/pkg/clock"
	"github.com/shandysiswandi/onboarding/internal/pkg/hash"
	"github.com/shandysiswandi/onboarding/internal/pkg/instrument"
	"github.com/shandysiswandi/onboarding/internal/pkg/messaging"
	"github.com/shandysiswandi/onboarding/internal/pkg/uid"
	"github.com/shandysiswandi/onboarding/internal/pkg/validator"
	"github.com/shandysiswandi/onboarding/internal/users/entity"
	"github.com/shandysiswandi/onboarding/internal/users/outbound/db"
	"github.com/shandysiswandi/onboarding/internal/users/outbound/mq"
	"github.com/shandysiswandi/onboarding/internal/users/usecase"
)

// Users is the in-process surface of the module.
type Users interface {
	CreateUser(ctx context.Context, in usecase.CreateUserInput) (*entity.User, error)
}

type Dependency struct {
	DBConn     *pgxpool.Pool
	Delivery   *messaging.Delivery
	Instrument instrument.Instrumentation
	UID        uid.NumberID
	Clock      clock.Clocker
	Validator  validator.Validator
	Bcrypt     hash.Hash
}

func New(dep Dependency) Users {
	return usecase.NewUsecase(usecase.Dependency{
		RepoDB:        db.NewDB(dep.DBConn, dep.Instrument),
		RepoMessaging: mq.NewMessaging(dep.Delivery, dep.Instrument),
		UID:           dep.UID,
		Clock:         dep.Clock,
		Validator:     dep.Validator,
		Bcrypt:        dep.Bcrypt,
		Instrument:    dep.Instrument,
	})
}
