package cache

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/shandysiswandi/onboarding/internal/onboarding/entity"
	"github.com/shandysiswandi/onboarding/internal/pkg/goerror"
	"github.com/shandysiswandi/onboarding/internal/pkg/instrument"
	"github.com/testcontainers/testcontainers-go"
	tcredis "github.com/testcontainers/testcontainers-go/modules/redis"
)

func newRedis(t *testing.T) *redis.Client {
	t.Helper()

	if testing.Short() || os.Getenv("ONBOARDING_INTEGRATION") == "" {
		t.Skip("set ONBOARDING_INTEGRATION=1 to run redis integration tests")
	}

	ctx := context.Background()
	ctr, err := tcredis.Run(ctx, "redis:7-alpine")
	testcontainers.CleanupContainer(t, ctr)
	if err != nil {
		t.Fatalf("start redis: %v", err)
	}

	uri, err := ctr.ConnectionString(ctx)
	if err != nil {
		t.Fatalf("redis uri: %v", err)
	}
	opt, err := redis.ParseURL(uri)
	if err != nil {
		t.Fatalf("parse redis uri: %v", err)
	}

	client := redis.NewClient(opt)
	t.Cleanup(func() { _ = client.Close() })

	return client
}

func TestCache_Record(t *testing.T) {
	client := newRedis(t)
	c := NewCache(client, instrument.NewNoop())
	ctx := context.Background()

	// Arrange
	rec := entity.OTPRecord{
		Identity:  "+14155550100",
		CodeHash:  "abc",
		IssuedAt:  time.Date(2026, 5, 4, 10, 0, 0, 0, time.UTC),
		ExpiresAt: time.Date(2026, 5, 4, 10, 5, 0, 0, time.UTC),
		Context:   map[string]string{"ip": "203.0.113.5"},
	}

	// Act
	if err := c.SetOTP(ctx, rec, 5*time.Minute); err != nil {
		t.Fatalf("SetOTP() error = %v", err)
	}
	got, err := c.GetOTP(ctx, rec.Identity)

	// Assert
	if err != nil {
		t.Fatalf("GetOTP() error = %v", err)
	}
	if got.CodeHash != "abc" || got.Context["ip"] != "203.0.113.5" || !got.ExpiresAt.Equal(rec.ExpiresAt) {
		t.Fatalf("GetOTP() = %+v", got)
	}

	ttl, err := client.TTL(ctx, "otp:+14155550100").Result()
	if err != nil || ttl <= 0 || ttl > 5*time.Minute {
		t.Fatalf("ttl = %v, err = %v", ttl, err)
	}

	deleted, err := c.DeleteOTP(ctx, rec.Identity)
	if err != nil || !deleted {
		t.Fatalf("first DeleteOTP() = %v, %v", deleted, err)
	}
	deleted, err = c.DeleteOTP(ctx, rec.Identity)
	if err != nil || deleted {
		t.Fatalf("second DeleteOTP() = %v, %v, want false", deleted, err)
	}

	if _, err := c.GetOTP(ctx, rec.Identity); !errors.Is(err, goerror.ErrNotFound) {
		t.Fatalf("GetOTP() after delete error = %v, want ErrNotFound", err)
	}
}

func TestCache_TombstoneOTP(t *testing.T) {
	client := newRedis(t)
	c := NewCache(client, instrument.NewNoop())
	ctx := context.Background()

	// Arrange
	verified := entity.OTPRecord{
		Identity:  "+14155550100",
		CodeHash:  "old",
		IssuedAt:  time.Date(2026, 5, 4, 10, 0, 0, 123, time.UTC),
		ExpiresAt: time.Date(2026, 5, 4, 10, 5, 0, 0, time.UTC),
	}
	if err := c.SetOTP(ctx, verified, 5*time.Minute); err != nil {
		t.Fatalf("SetOTP() error = %v", err)
	}

	// Act
	written, err := c.TombstoneOTP(ctx, verified, time.Minute)

	// Assert
	if err != nil || !written {
		t.Fatalf("TombstoneOTP() = %v, %v, want written", written, err)
	}
	got, err := c.GetOTP(ctx, verified.Identity)
	if err != nil || !got.Consumed {
		t.Fatalf("GetOTP() = %+v, %v, want consumed", got, err)
	}

	t.Run("newer issuance is kept", func(t *testing.T) {
		fresh := verified
		fresh.CodeHash = "new"
		fresh.IssuedAt = verified.IssuedAt.Add(time.Second)
		if err := c.SetOTP(ctx, fresh, 5*time.Minute); err != nil {
			t.Fatalf("SetOTP() error = %v", err)
		}

		written, err := c.TombstoneOTP(ctx, verified, time.Minute)
		if err != nil || written {
			t.Fatalf("TombstoneOTP() = %v, %v, want skipped", written, err)
		}
		got, _ := c.GetOTP(ctx, verified.Identity)
		if got.Consumed || got.CodeHash != "new" {
			t.Fatalf("fresh record overwritten: %+v", got)
		}
	})

	t.Run("absent record is not recreated", func(t *testing.T) {
		if _, err := c.DeleteOTP(ctx, verified.Identity); err != nil {
			t.Fatalf("DeleteOTP() error = %v", err)
		}
		written, err := c.TombstoneOTP(ctx, verified, time.Minute)
		if err != nil || written {
			t.Fatalf("TombstoneOTP() = %v, %v, want skipped", written, err)
		}
		if client.Exists(ctx, "otp:+14155550100").Val() != 0 {
			t.Fatal("tombstone created a record")
		}
	})
}

func TestCache_Counters(t *testing.T) {
	client := newRedis(t)
	c := NewCache(client, instrument.NewNoop())
	ctx := context.Background()

	for want := int64(1); want <= 2; want++ {
		n, err := c.IncrIssueCount(ctx, "+14155550100", "203.0.113.5", time.Minute)
		if err != nil || n != want {
			t.Fatalf("IncrIssueCount() = %d, %v, want %d", n, err, want)
		}
	}
	ttl := client.TTL(ctx, "otp:rate:+14155550100:203.0.113.5").Val()
	if ttl <= 0 || ttl > time.Minute {
		t.Fatalf("rate counter ttl = %v, want within the window", ttl)
	}

	// a later hit with a longer window does not extend the first one
	if _, err := c.IncrIssueCount(ctx, "+14155550100", "203.0.113.5", time.Hour); err != nil {
		t.Fatalf("IncrIssueCount() error = %v", err)
	}
	if ttl := client.TTL(ctx, "otp:rate:+14155550100:203.0.113.5").Val(); ttl > time.Minute {
		t.Fatalf("rate counter ttl = %v, window was extended", ttl)
	}

	for want := int64(1); want <= 3; want++ {
		got, err := c.IncrAttempt(ctx, "+14155550100", 30*time.Second)
		if err != nil || got != want {
			t.Fatalf("IncrAttempt() = %d, %v, want %d", got, err, want)
		}
	}
	if err := c.DeleteAttempt(ctx, "+14155550100"); err != nil {
		t.Fatalf("DeleteAttempt() error = %v", err)
	}
	if client.Exists(ctx, "otp:attempt:+14155550100").Val() != 0 {
		t.Fatal("attempt counter still present")
	}
}
