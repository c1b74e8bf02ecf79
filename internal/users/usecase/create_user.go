package usecase

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/shandysiswandi/onboarding/internal/pkg/goerror"
	"github.com/shandysiswandi/onboarding/internal/users/entity"
)

type CreateUserInput struct {
	Name        string `validate:"required,min=2,max=100"`
	Email       string `validate:"required,email"`
	Password    string `validate:"required,password"`
	PhoneNumber string `validate:"required,phone"`
	IP          string
	UserAgent   string
}

// CreateUser stores the user and announces it on user_registered. The event
// is best effort: a publish failure is logged and the user is still returned.
func (s *Usecase) CreateUser(ctx context.Context, in CreateUserInput) (*entity.User, error) {
	ctx, span := s.startSpan(ctx, "CreateUser")
	defer span.End()

	in.Name = strings.TrimSpace(in.Name)
	in.Email = strings.TrimSpace(strings.ToLower(in.Email))
	in.PhoneNumber = strings.TrimSpace(in.PhoneNumber)

	if err := s.validator.Validate(in); err != nil {
		return nil, goerror.NewInvalidInput(err)
	}

	hashed, err := s.bcrypt.Hash(in.Password)
	if err != nil {
		slog.ErrorContext(ctx, "failed to hash password", "error", err)
		return nil, goerror.NewServer(err)
	}

	user := entity.User{
		ID:          s.uid.Generate(),
		Name:        in.Name,
		Email:       in.Email,
		PhoneNumber: in.PhoneNumber,
		CreatedAt:   s.clock.Now(),
	}

	if err := s.repoDB.CreateUser(ctx, entity.NewUser{User: user, PasswordHash: string(hashed)}); err != nil {
		if errors.Is(err, goerror.ErrConflict) {
			return nil, goerror.New(goerror.KindConflict, "Email or phone number already registered")
		}
		slog.ErrorContext(ctx, "failed to repo create user", "email", in.Email, "error", err)
		return nil, goerror.NewServer(err)
	}

	if err := s.repoMessaging.PublishUserRegistered(ctx, UserRegisteredEvent{
		UserID:       user.ID,
		Name:         user.Name,
		Email:        user.Email,
		PhoneNumber:  user.PhoneNumber,
		IP:           in.IP,
		UserAgent:    in.UserAgent,
		RegisteredAt: user.CreatedAt,
	}); err != nil {
		slog.ErrorContext(ctx, "failed to publish user registered", "user_id", user.ID, "kind", goerror.KindOf(err), "error", err)
	}

	return &user, nil
}
