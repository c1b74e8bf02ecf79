package usecase

import (
	"context"
	"log/slog"
	"maps"
	"strings"

	"github.com/shandysiswandi/onboarding/internal/onboarding/entity"
	"github.com/shandysiswandi/onboarding/internal/pkg/goerror"
)

type IssueInput struct {
	PhoneNumber string `validate:"required,phone"`
	// Origin scopes the rate limit, usually the caller IP.
	Origin  string
	Context map[string]string
}

func (s *Usecase) Issue(ctx context.Context, in IssueInput) error {
	ctx, span := s.startSpan(ctx, "Issue")
	defer span.End()

	in.PhoneNumber = strings.TrimSpace(in.PhoneNumber)
	in.Origin = strings.TrimSpace(in.Origin)

	if err := s.validator.Validate(in); err != nil {
		return goerror.Wrap(err, goerror.KindInvalidIdentity, "Invalid phone number")
	}

	if err := s.checkIssueRate(ctx, in.PhoneNumber, in.Origin); err != nil {
		return err
	}

	code, err := s.otp.Generate()
	if err != nil {
		slog.ErrorContext(ctx, "failed to generate otp code", "error", err)
		return goerror.NewServer(err)
	}

	codeHash, err := s.hmac.Hash(code)
	if err != nil {
		slog.ErrorContext(ctx, "failed to hash otp code", "error", err)
		return goerror.NewServer(err)
	}

	now := s.clock.Now()
	record := entity.OTPRecord{
		Identity:  in.PhoneNumber,
		CodeHash:  string(codeHash),
		IssuedAt:  now,
		ExpiresAt: now.Add(s.ttl),
		Context:   maps.Clone(in.Context),
	}
	if in.Origin != "" {
		if record.Context == nil {
			record.Context = map[string]string{}
		}
		if _, ok := record.Context["ip"]; !ok {
			record.Context["ip"] = in.Origin
		}
	}

	if err := s.storeRecord(ctx, record); err != nil {
		return err
	}

	body, err := s.renderSMS(code)
	if err != nil {
		slog.ErrorContext(ctx, "failed to render otp sms", "error", err)
		return goerror.NewServer(err)
	}

	sendCtx, cancel := s.bounded(ctx)
	defer cancel()

	if err := s.repoNotify.SendSMS(sendCtx, in.PhoneNumber, body); err != nil {
		slog.ErrorContext(ctx, "failed to send otp sms", "phone_number", in.PhoneNumber, "error", err)
		return goerror.Wrap(err, goerror.KindDeliveryFailed, "Failed to deliver verification code")
	}

	s.audit(ctx, entity.OTPAudit{
		PhoneNumber: in.PhoneNumber,
		Origin:      in.Origin,
		Context:     record.Context,
		Status:      entity.AuditStatusIssued,
		CreatedAt:   now,
	})

	return nil
}

// checkIssueRate counts one issuance for identity+origin and refuses it once
// the window allowance is used up.
func (s *Usecase) checkIssueRate(ctx context.Context, identity, origin string) error {
	opCtx, cancel := s.bounded(ctx)
	defer cancel()

	count, err := s.repoCache.IncrIssueCount(opCtx, identity, origin, s.rateWindow)
	if err != nil {
		slog.ErrorContext(ctx, "failed to increment otp rate counter", "phone_number", identity, "error", err)
		return goerror.Wrap(err, goerror.KindDeliveryFailed, "Verification service unavailable")
	}

	if count > s.maxPerWindow {
		slog.WarnContext(ctx, "otp issuance rate limited", "phone_number", identity, "origin", origin, "count", count)
		return goerror.New(goerror.KindRateLimited, "Too many verification requests, try again later")
	}

	return nil
}

func (s *Usecase) storeRecord(ctx context.Context, record entity.OTPRecord) error {
	opCtx, cancel := s.bounded(ctx)
	defer cancel()

	if err := s.repoCache.SetOTP(opCtx, record, s.ttl); err != nil {
		slog.ErrorContext(ctx, "failed to store otp record", "phone_number", record.Identity, "error", err)
		return goerror.Wrap(err, goerror.KindDeliveryFailed, "Verification service unavailable")
	}

	if err := s.repoCache.DeleteAttempt(opCtx, record.Identity); err != nil {
		slog.WarnContext(ctx, "failed to reset otp attempt counter", "phone_number", record.Identity, "error", err)
	}

	return nil
}

func (s *Usecase) audit(ctx context.Context, a entity.OTPAudit) {
	if s.repoDB == nil {
		return
	}

	a.ID = s.uid.Generate()

	opCtx, cancel := s.bounded(ctx)
	defer cancel()

	if err := s.repoDB.CreateOTPAudit(opCtx, a); err != nil {
		slog.WarnContext(ctx, "failed to write otp audit", "phone_number", a.PhoneNumber, "status", a.Status, "error", err)
	}
}
