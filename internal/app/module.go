package app

import (
	"log/slog"
	"os"

	"github.com/shandysiswandi/onboarding/internal/deadletter"
	"github.com/shandysiswandi/onboarding/internal/onboarding"
	"github.com/shandysiswandi/onboarding/internal/users"
)

func (a *App) initModules() {
	a.users = users.New(users.Dependency{
		DBConn:     a.dbConn,
		Delivery:   a.delivery,
		Instrument: a.ins,
		UID:        a.uid,
		Clock:      a.clock,
		Validator:  a.validator,
		Bcrypt:     a.bcrypt,
	})

	otpModule, err := onboarding.New(onboarding.Dependency{
		Ctx:        a.ctx,
		DBConn:     a.dbConn,
		Redis:      a.cacheConn,
		Delivery:   a.delivery,
		Config:     a.config,
		Instrument: a.ins,
		UID:        a.uid,
		UUID:       a.uuid,
		Clock:      a.clock,
		Goroutine:  a.goroutine,
		Validator:  a.validator,
		JWT:        a.jwt,
		OTP:        a.otp,
		HMAC:       a.hmac,
		SMS:        a.sms,
	})
	if err != nil {
		slog.Error("failed to init module onboarding", "error", err)
		os.Exit(1)
	}
	a.onboarding = otpModule

	if a.config.GetBool("modules.deadletter.enabled") {
		a.deadLetter = deadletter.New(deadletter.Dependency{
			Ctx:        a.ctx,
			Messaging:  a.messaging,
			Delivery:   a.delivery,
			Storage:    a.storage,
			Mail:       a.mail,
			Config:     a.config,
			Instrument: a.ins,
			UUID:       a.uuid,
			Clock:      a.clock,
			Goroutine:  a.goroutine,
		})
	}
}
