package inbound

import (
	"context"

	"github.com/shandysiswandi/onboarding/internal/onboarding/usecase"
)

type uc interface {
	ConsumeUserRegistered(ctx context.Context, in usecase.ConsumeUserRegisteredInput) error
}
