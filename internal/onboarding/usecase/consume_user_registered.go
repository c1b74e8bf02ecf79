package usecase

import (
	"context"
	"log/slog"
	"strconv"
)

type ConsumeUserRegisteredInput struct {
	UserID      int64
	PhoneNumber string
	IP          string
	UserAgent   string
}

// ConsumeUserRegistered sends the first verification code to a newly registered
// user. Every error, RateLimited included, is returned so the message is retried
// and then dead-lettered for inspection.
func (s *Usecase) ConsumeUserRegistered(ctx context.Context, in ConsumeUserRegisteredInput) error {
	ctx, span := s.startSpan(ctx, "ConsumeUserRegistered")
	defer span.End()

	meta := map[string]string{
		"user_id": strconv.FormatInt(in.UserID, 10),
		"source":  "user_registered",
	}
	if in.IP != "" {
		meta["ip"] = in.IP
	}
	if in.UserAgent != "" {
		meta["user_agent"] = in.UserAgent
	}

	if err := s.Issue(ctx, IssueInput{
		PhoneNumber: in.PhoneNumber,
		Origin:      in.IP,
		Context:     meta,
	}); err != nil {
		slog.ErrorContext(ctx, "failed to issue otp for registered user", "user_id", in.UserID, "error", err)
		return err
	}

	return nil
}
