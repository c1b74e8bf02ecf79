package app

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/shandysiswandi/onboarding/internal/deadletter"
	"github.com/shandysiswandi/onboarding/internal/onboarding"
	"github.com/shandysiswandi/onboarding/internal/pkg/clock"
	"github.com/shandysiswandi/onboarding/internal/pkg/config"
	"github.com/shandysiswandi/onboarding/internal/pkg/goroutine"
	"github.com/shandysiswandi/onboarding/internal/pkg/hash"
	"github.com/shandysiswandi/onboarding/internal/pkg/idempotency"
	"github.com/shandysiswandi/onboarding/internal/pkg/instrument"
	"github.com/shandysiswandi/onboarding/internal/pkg/jwt"
	"github.com/shandysiswandi/onboarding/internal/pkg/mail"
	"github.com/shandysiswandi/onboarding/internal/pkg/messaging"
	"github.com/shandysiswandi/onboarding/internal/pkg/otp"
	"github.com/shandysiswandi/onboarding/internal/pkg/sms"
	"github.com/shandysiswandi/onboarding/internal/pkg/storage"
	"github.com/shandysiswandi/onboarding/internal/pkg/uid"
	"github.com/shandysiswandi/onboarding/internal/pkg/validator"
	"github.com/shandysiswandi/onboarding/internal/users"
)

// App wires dependencies and manages the worker lifecycle.
type App struct {
	ctx    context.Context
	cancel context.CancelFunc

	// configuration
	config config.Config
	ins    instrument.Instrumentation

	// libraries
	goroutine *goroutine.Manager
	validator validator.Validator
	clock     clock.Clocker
	hmac      hash.Hash
	bcrypt    hash.Hash
	uid       uid.NumberID
	uuid      uid.StringID
	otp       otp.Generator
	jwt       jwt.JWT

	// resources
	dbConn    *pgxpool.Pool
	cacheConn *redis.Client
	idemp     idempotency.Idempotency
	mail      mail.Mail
	sms       sms.SMS
	storage   storage.Storage
	messaging messaging.Messaging
	delivery  *messaging.Delivery

	// modules
	users      users.Users
	onboarding onboarding.OTP
	deadLetter deadletter.DeadLetter

	//
	closers []struct {
		name string
		fn   func(context.Context) error
	}
}

// New initializes the application with default wiring and returns an App instance.
func New() *App {
	ctx, cancel := context.WithCancel(context.Background())
	app := &App{
		ctx:    ctx,
		cancel: cancel,
	}

	app.initConfig()
	app.initInstrument()
	app.initLibraries()
	app.initJWT()
	app.initDatabase()
	app.initCache()
	app.initMail()
	app.initSMS()
	app.initStorage()
	app.initMessaging()
	app.initModules()
	app.initClosers()

	return app
}

// Users exposes the registration producer.
func (a *App) Users() users.Users { return a.users }

// OTP exposes issue and verify.
func (a *App) OTP() onboarding.OTP { return a.onboarding }

// DeadLetter exposes the dead-letter archive.
func (a *App) DeadLetter() deadletter.DeadLetter { return a.deadLetter }
