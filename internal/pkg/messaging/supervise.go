package messaging

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/sethvargo/go-retry"
)

// Supervise runs consume until ctx is done, restarting it with a capped
// Fibonacci backoff whenever it returns an error. A clean return ends the loop.
func Supervise(ctx context.Context, name string, consume func(ctx context.Context) error) error {
	b := retry.NewFibonacci(200 * time.Millisecond)
	b = retry.WithCappedDuration(5*time.Second, b)

	err := retry.Do(ctx, b, func(ctx context.Context) error {
		err := consume(ctx)
		switch {
		case err == nil:
			return nil
		case ctx.Err() != nil && (errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)):
			return nil
		default:
			slog.ErrorContext(ctx, "consumer stopped, restarting", "consumer", name, "error", err)
			return retry.RetryableError(err)
		}
	})
	if err != nil && ctx.Err() != nil {
		slog.InfoContext(ctx, "consumer exited", "consumer", name)
		return nil
	}

	return err
}
