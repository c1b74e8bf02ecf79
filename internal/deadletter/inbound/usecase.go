package inbound

import (
	"context"

	"github.com/shandysiswandi/onboarding/internal/deadletter/usecase"
)

type uc interface {
	Archive(ctx context.Context, in usecase.ArchiveInput) (*usecase.ArchiveOutput, error)
}
