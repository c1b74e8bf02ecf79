package messaging

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestSupervise_RestartsUntilClean(t *testing.T) {
	calls := 0
	err := Supervise(context.Background(), "test", func(context.Context) error {
		calls++
		if calls < 3 {
			return ErrKafkaNacked
		}
		return nil
	})

	if err != nil {
		t.Fatalf("Supervise() error = %v", err)
	}
	if calls != 3 {
		t.Fatalf("calls = %d, want 3", calls)
	}
}

func TestSupervise_StopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)

	go func() {
		done <- Supervise(ctx, "test", func(ctx context.Context) error {
			<-ctx.Done()
			return ctx.Err()
		})
	}()

	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Supervise() error = %v, want nil", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Supervise() did not return after cancel")
	}
}

func TestSupervise_CancelDuringBackoff(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0

	err := Supervise(ctx, "test", func(context.Context) error {
		calls++
		cancel()
		return errors.New("broker gone")
	})

	if err != nil {
		t.Fatalf("Supervise() error = %v, want nil", err)
	}
	if calls != 1 {
		t.Fatalf("calls = %d, want 1", calls)
	}
}
