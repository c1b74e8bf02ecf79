package usecase

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/shandysiswandi/onboarding/internal/onboarding/entity"
	"github.com/shandysiswandi/onboarding/internal/pkg/goerror"
	"github.com/shandysiswandi/onboarding/internal/pkg/jwt"
)

type VerifyInput struct {
	PhoneNumber string
	Code        string
}

type VerifyOutput struct {
	Token     string
	ExpiresAt time.Time
}

func (s *Usecase) Verify(ctx context.Context, in VerifyInput) (*VerifyOutput, error) {
	ctx, span := s.startSpan(ctx, "Verify")
	defer span.End()

	in.PhoneNumber = strings.TrimSpace(in.PhoneNumber)
	in.Code = strings.TrimSpace(in.Code)

	var missing []string
	if in.PhoneNumber == "" {
		missing = append(missing, "phone_number", "phone_number is a required field")
	}
	if in.Code == "" {
		missing = append(missing, "code", "code is a required field")
	}
	if len(missing) > 0 {
		return nil, goerror.NewInvalidInput(nil, missing...)
	}

	record, err := s.loadRecord(ctx, in.PhoneNumber)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	if record.Consumed || !now.Before(record.ExpiresAt) {
		return nil, errExpired()
	}

	if !s.hmac.Verify(record.CodeHash, in.Code) {
		s.countMismatch(ctx, *record, now)
		return nil, goerror.New(goerror.KindInvalid, "Invalid verification code")
	}

	if err := s.consume(ctx, *record, now); err != nil {
		return nil, err
	}

	token, err := s.jwt.Generate(jwt.Subject{
		PhoneNumber: record.Identity,
		UserID:      userIDFromContext(record.Context),
	})
	if err != nil {
		slog.ErrorContext(ctx, "failed to generate verification token", "phone_number", record.Identity, "error", err)
		return nil, goerror.NewServer(err)
	}

	if s.repoDB != nil {
		dbCtx, cancel := s.bounded(ctx)
		defer cancel()
		if err := s.repoDB.MarkOTPAuditVerified(dbCtx, record.Identity, now); err != nil {
			slog.WarnContext(ctx, "failed to mark otp audit verified", "phone_number", record.Identity, "error", err)
		}
	}

	return &VerifyOutput{Token: token.Value, ExpiresAt: token.ExpiresAt}, nil
}

func errExpired() error {
	return goerror.New(goerror.KindExpired, "Verification code expired or not found")
}

func (s *Usecase) loadRecord(ctx context.Context, identity string) (*entity.OTPRecord, error) {
	opCtx, cancel := s.bounded(ctx)
	defer cancel()

	record, err := s.repoCache.GetOTP(opCtx, identity)
	if errors.Is(err, goerror.ErrNotFound) {
		return nil, errExpired()
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to get otp record", "phone_number", identity, "error", err)
		return nil, goerror.Wrap(err, goerror.KindDeliveryFailed, "Verification service unavailable")
	}

	return record, nil
}

// consume deletes a matched record. Only the caller whose delete removed the
// key reports success.
func (s *Usecase) consume(ctx context.Context, record entity.OTPRecord, now time.Time) error {
	opCtx, cancel := s.bounded(ctx)
	defer cancel()

	deleted, err := s.repoCache.DeleteOTP(opCtx, record.Identity)
	if err != nil {
		slog.ErrorContext(ctx, "failed to delete verified otp record", "phone_number", record.Identity, "error", err)
		s.tombstone(ctx, record, now)
		return nil
	}
	if !deleted {
		return errExpired()
	}

	if err := s.repoCache.DeleteAttempt(opCtx, record.Identity); err != nil {
		slog.WarnContext(ctx, "failed to reset otp attempt counter", "phone_number", record.Identity, "error", err)
	}

	return nil
}

// tombstone marks the verified record consumed, unless a newer code was issued
// in the meantime.
func (s *Usecase) tombstone(ctx context.Context, record entity.OTPRecord, now time.Time) {
	ttl := record.Remaining(now)
	if ttl <= 0 {
		return
	}

	opCtx, cancel := s.bounded(ctx)
	defer cancel()

	written, err := s.repoCache.TombstoneOTP(opCtx, record, ttl)
	if err != nil {
		slog.ErrorContext(ctx, "verified otp record could not be consumed, code replayable until expiry",
			"phone_number", record.Identity,
			"expires_at", record.ExpiresAt,
			"error", err,
		)
		return
	}
	if !written {
		slog.InfoContext(ctx, "verified otp record already replaced", "phone_number", record.Identity)
	}
}

func (s *Usecase) countMismatch(ctx context.Context, record entity.OTPRecord, now time.Time) {
	if s.maxVerifyAttempts == 0 {
		return
	}

	ttl := record.Remaining(now)
	if ttl <= 0 {
		return
	}

	opCtx, cancel := s.bounded(ctx)
	defer cancel()

	attempts, err := s.repoCache.IncrAttempt(opCtx, record.Identity, ttl)
	if err != nil {
		slog.WarnContext(ctx, "failed to count otp attempt", "phone_number", record.Identity, "error", err)
		return
	}
	if attempts < s.maxVerifyAttempts {
		return
	}

	slog.WarnContext(ctx, "otp locked after too many attempts", "phone_number", record.Identity, "attempts", attempts)
	if _, err := s.repoCache.DeleteOTP(opCtx, record.Identity); err != nil {
		slog.ErrorContext(ctx, "failed to delete locked otp record", "phone_number", record.Identity, "error", err)
	}
}

func userIDFromContext(meta map[string]string) int64 {
	id, err := strconv.ParseInt(meta["user_id"], 10, 64)
	if err != nil {
		return 0
	}
	return id
}
