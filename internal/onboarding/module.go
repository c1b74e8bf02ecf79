package onboarding

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/shandysiswandi/onboarding/internal/onboarding/inbound"
	"github.com/shandysiswandi/onboarding/internal/onboarding/outbound/cache"
	"github.com/shandysiswandi/onboarding/internal/onboarding/outbound/db"
	"github.com/shandysiswandi/onboarding/internal/onboarding/outbound/notify"
	"github.com/shandysiswandi/onboarding/internal/onboarding/usecase"
	"github.com/shandysiswandi/onboarding/internal/pkg/clock"
	"github.com/shandysiswandi/onboarding/internal/pkg/config"
	"github.com/shandysiswandi/onboarding/internal/pkg/goroutine"
	"github.com/shandysiswandi/onboarding/internal/pkg/hash"
	"github.com/shandysiswandi/onboarding/internal/pkg/instrument"
	"github.com/shandysiswandi/onboarding/internal/pkg/jwt"
	"github.com/shandysiswandi/onboarding/internal/pkg/messaging"
	"github.com/shandysiswandi/onboarding/internal/pkg/otp"
	"github.com/shandysiswandi/onboarding/internal/pkg/sms"
	"github.com/shandysiswandi/onboarding/internal/pkg/uid"
	"github.com/shandysiswandi/onboarding/internal/pkg/validator"
)

// OTP is the in-process surface of the module.
type OTP interface {
	Issue(ctx context.Context, in usecase.IssueInput) error
	Verify(ctx context.Context, in usecase.VerifyInput) (*usecase.VerifyOutput, error)
}

type Dependency struct {
	Ctx        context.Context
	DBConn     *pgxpool.Pool
	Redis      redis.Cmdable
	Delivery   *messaging.Delivery
	Config     config.Config
	Instrument instrument.Instrumentation
	UID        uid.NumberID
	UUID       uid.StringID
	Clock      clock.Clocker
	Goroutine  *goroutine.Manager
	Validator  validator.Validator
	JWT        jwt.JWT
	OTP        otp.Generator
	HMAC       hash.Hash
	SMS        sms.SMS
}

func New(dep Dependency) (OTP, error) {
	uc, err := usecase.NewUsecase(usecase.Dependency{
		RepoCache:  cache.NewCache(dep.Redis, dep.Instrument),
		RepoNotify: notify.New(dep.SMS, dep.Instrument),
		RepoDB:     db.NewDB(dep.DBConn, dep.Instrument),
		Config:     dep.Config,
		UID:        dep.UID,
		Clock:      dep.Clock,
		Validator:  dep.Validator,
		JWT:        dep.JWT,
		OTP:        dep.OTP,
		HMAC:       dep.HMAC,
		Instrument: dep.Instrument,
	})
	if err != nil {
		return nil, err
	}

	if dep.Ctx != nil && dep.Delivery != nil {
		inbound.RegisterMQConsumer(dep.Ctx, dep.Config, dep.Goroutine, dep.Delivery, dep.UUID, uc, dep.Instrument)
	}

	return uc, nil
}
