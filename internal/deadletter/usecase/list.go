package usecase

import (
	"context"
	"log/slog"
	"path"

	"github.com/shandysiswandi/onboarding/internal/deadletter/entity"
	"github.com/shandysiswandi/onboarding/internal/pkg/goerror"
)

const (
	defaultListLimit = 50
	maxListLimit     = 1000
)

type ListInput struct {
	// Topic filters by original topic. Empty lists every topic.
	Topic string
	Limit int32
	Token string
}

type ListOutput struct {
	Items     []entity.ArchivedItem
	NextToken string
}

func (s *Usecase) List(ctx context.Context, in ListInput) (*ListOutput, error) {
	ctx, span := s.startSpan(ctx, "List")
	defer span.End()

	switch {
	case in.Limit <= 0:
		in.Limit = defaultListLimit
	case in.Limit > maxListLimit:
		in.Limit = maxListLimit
	}

	prefix := s.prefix + "/"
	if in.Topic != "" {
		prefix = path.Join(s.prefix, sanitizeSegment(in.Topic)) + "/"
	}

	items, next, err := s.repoArchive.List(ctx, prefix, in.Limit, in.Token)
	if err != nil {
		slog.ErrorContext(ctx, "failed to list dead letters", "prefix", prefix, "error", err)
		return nil, goerror.NewServer(err)
	}

	return &ListOutput{Items: items, NextToken: next}, nil
}
