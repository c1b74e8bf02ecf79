package usecase

import (
	"bytes"
	"context"
	"text/template"
	"time"

	"github.com/shandysiswandi/onboarding/internal/onboarding/entity"
	"github.com/shandysiswandi/onboarding/internal/pkg/clock"
	"github.com/shandysiswandi/onboarding/internal/pkg/config"
	"github.com/shandysiswandi/onboarding/internal/pkg/hash"
	"github.com/shandysiswandi/onboarding/internal/pkg/instrument"
	"github.com/shandysiswandi/onboarding/internal/pkg/jwt"
	"github.com/shandysiswandi/onboarding/internal/pkg/otp"
	"github.com/shandysiswandi/onboarding/internal/pkg/uid"
	"github.com/shandysiswandi/onboarding/internal/pkg/validator"
	"go.opentelemetry.io/otel/trace"
)

const (
	defaultTTL              = 300 * time.Second
	defaultRateWindow       = 10 * time.Minute
	defaultMaxPerWindow     = 1
	defaultOperationTimeout = 3 * time.Second
	defaultSMSTemplate      = "Your verification code is {{.Code}}. It expires in {{.Minutes}} minutes."
)

type repoCache interface {
	GetOTP(ctx context.Context, identity string) (*entity.OTPRecord, error)
	SetOTP(ctx context.Context, rec entity.OTPRecord, ttl time.Duration) error
	DeleteOTP(ctx context.Context, identity string) (bool, error)
	TombstoneOTP(ctx context.Context, rec entity.OTPRecord, ttl time.Duration) (bool, error)

	IncrIssueCount(ctx context.Context, identity, origin string, window time.Duration) (int64, error)

	IncrAttempt(ctx context.Context, identity string, ttl time.Duration) (int64, error)
	DeleteAttempt(ctx context.Context, identity string) error
}

type repoNotify interface {
	SendSMS(ctx context.Context, to, body string) error
}

type repoDB interface {
	CreateOTPAudit(ctx context.Context, audit entity.OTPAudit) error
	MarkOTPAuditVerified(ctx context.Context, phoneNumber string, at time.Time) error
}

type Usecase struct {
	repoCache  repoCache
	repoNotify repoNotify
	repoDB     repoDB
	uid        uid.NumberID
	clock      clock.Clocker
	validator  validator.Validator
	jwt        jwt.JWT
	otp        otp.Generator
	hmac       hash.Hash
	ins        instrument.Instrumentation

	ttl               time.Duration
	rateWindow        time.Duration
	maxPerWindow      int64
	maxVerifyAttempts int64
	opTimeout         time.Duration
	smsTemplate       *template.Template
}

type Dependency struct {
	RepoCache  repoCache
	RepoNotify repoNotify
	RepoDB     repoDB
	Config     config.Config
	UID        uid.NumberID
	Clock      clock.Clocker
	Validator  validator.Validator
	JWT        jwt.JWT
	OTP        otp.Generator
	HMAC       hash.Hash
	Instrument instrument.Instrumentation
}

func NewUsecase(dep Dependency) (*Usecase, error) {
	cfg := dep.Config

	uc := &Usecase{
		repoCache:         dep.RepoCache,
		repoNotify:        dep.RepoNotify,
		repoDB:            dep.RepoDB,
		uid:               dep.UID,
		clock:             dep.Clock,
		validator:         dep.Validator,
		jwt:               dep.JWT,
		otp:               dep.OTP,
		hmac:              dep.HMAC,
		ins:               dep.Instrument,
		ttl:               cfg.GetSecond("modules.onboarding.otp.ttl_seconds"),
		rateWindow:        cfg.GetMinute("modules.onboarding.otp.rate_window_minutes"),
		maxPerWindow:      int64(cfg.GetInt("modules.onboarding.otp.max_per_window")),
		maxVerifyAttempts: int64(cfg.GetInt("modules.onboarding.otp.max_verify_attempts")),
		opTimeout:         cfg.GetSecond("modules.onboarding.otp.operation_timeout_seconds"),
	}

	if uc.ttl <= 0 {
		uc.ttl = defaultTTL
	}
	if uc.rateWindow <= 0 {
		uc.rateWindow = defaultRateWindow
	}
	if uc.maxPerWindow <= 0 {
		uc.maxPerWindow = defaultMaxPerWindow
	}
	if uc.maxVerifyAttempts < 0 {
		uc.maxVerifyAttempts = 0
	}
	if uc.opTimeout <= 0 {
		uc.opTimeout = defaultOperationTimeout
	}

	text := cfg.GetString("modules.onboarding.otp.sms_template")
	if text == "" {
		text = defaultSMSTemplate
	}
	tmpl, err := template.New("otp_sms").Option("missingkey=error").Parse(text)
	if err != nil {
		return nil, err
	}
	uc.smsTemplate = tmpl

	return uc, nil
}

func (s *Usecase) startSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	return s.ins.Tracer("onboarding.usecase").Start(ctx, name)
}

// bounded returns a child context for one store or transport call.
func (s *Usecase) bounded(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, s.opTimeout)
}

type smsData struct {
	Code    string
	Minutes int
}

func (s *Usecase) renderSMS(code string) (string, error) {
	minutes := int(s.ttl / time.Minute)
	if minutes < 1 {
		minutes = 1
	}

	var buf bytes.Buffer
	if err := s.smsTemplate.Execute(&buf, smsData{Code: code, Minutes: minutes}); err != nil {
		return "", err
	}
	return buf.String(), nil
}
