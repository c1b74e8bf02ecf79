package messaging

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"

	"github.com/shandysiswandi/onboarding/internal/pkg/stacktrace"
)

// callHandler runs fn and turns a panic into an error so the message still
// goes through the failure path.
func callHandler(ctx context.Context, topic string, fn func() error) (err error) {
	defer func() {
		if rvr := recover(); rvr != nil {
			if frames := stacktrace.Internal(1); len(frames) > 0 {
				slog.ErrorContext(ctx, "panic in messaging handler", "topic", topic, "panic", rvr, "stack", frames)
			} else {
				slog.ErrorContext(ctx, "panic in messaging handler", "topic", topic, "panic", rvr, "stack", string(debug.Stack()))
			}
			err = fmt.Errorf("messaging: panic in %s handler: %v", topic, rvr)
		}
	}()

	return fn()
}

// respond applies auto-ack semantics once the handler has returned.
func respond(ctx context.Context, msg interface {
	Message
	Nackable
	hasResponded() bool
}, autoAck bool, herr error) error {
	if !autoAck || msg.hasResponded() {
		return nil
	}
	if herr == nil {
		return msg.Ack(ctx)
	}
	return msg.Nack(ctx)
}
