package db

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shandysiswandi/onboarding/internal/pkg/goerror"
	"github.com/shandysiswandi/onboarding/internal/pkg/instrument"
	"github.com/shandysiswandi/onboarding/internal/users/entity"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
)

func newPool(t *testing.T) *pgxpool.Pool {
	t.Helper()

	if testing.Short() || os.Getenv("ONBOARDING_INTEGRATION") == "" {
		t.Skip("set ONBOARDING_INTEGRATION=1 to run postgres integration tests")
	}

	ctx := context.Background()
	ctr, err := postgres.Run(ctx, "postgres:17-alpine",
		postgres.WithDatabase("users"),
		postgres.WithUsername("users"),
		postgres.WithPassword("users"),
		postgres.BasicWaitStrategies(),
	)
	testcontainers.CleanupContainer(t, ctr)
	if err != nil {
		t.Fatalf("start postgres: %v", err)
	}

	dsn, err := ctr.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		t.Fatalf("postgres dsn: %v", err)
	}

	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	t.Cleanup(pool.Close)

	if _, err := pool.Exec(ctx, Schema); err != nil {
		t.Fatalf("apply schema: %v", err)
	}

	return pool
}

func TestDB_CreateUser(t *testing.T) {
	repo := NewDB(newPool(t), instrument.NewNoop())
	ctx := context.Background()

	u := entity.NewUser{
		User: entity.User{
			ID:          10,
			Name:        "Ada Lovelace",
			Email:       "ada@example.com",
			PhoneNumber: "+14155550100",
			CreatedAt:   time.Date(2026, 5, 4, 10, 0, 0, 0, time.UTC),
		},
		PasswordHash: "$2a$10$hash",
	}

	if err := repo.CreateUser(ctx, u); err != nil {
		t.Fatalf("CreateUser() error = %v", err)
	}

	got, err := repo.GetUserByPhone(ctx, "+14155550100")
	if err != nil {
		t.Fatalf("GetUserByPhone() error = %v", err)
	}
	if got.ID != 10 || got.Email != "ada@example.com" {
		t.Fatalf("GetUserByPhone() = %+v", got)
	}

	u.ID = 11
	if err := repo.CreateUser(ctx, u); !errors.Is(err, goerror.ErrConflict) {
		t.Fatalf("duplicate CreateUser() error = %v, want ErrConflict", err)
	}

	if _, err := repo.GetUserByPhone(ctx, "+14155550199"); !errors.Is(err, goerror.ErrNotFound) {
		t.Fatalf("GetUserByPhone() missing error = %v, want ErrNotFound", err)
	}
}
