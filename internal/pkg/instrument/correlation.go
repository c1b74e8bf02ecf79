package instrument

import (
	"context"
	"strings"
)

type correlationKey struct{}

const maxCorrelationIDLen = 128

// SetCorrelationID stores the correlation id used to tie logs together across
// a message hop. Control characters and overlong values are rejected.
func SetCorrelationID(ctx context.Context, cID string) context.Context {
	if strings.ContainsAny(cID, "\r\n") {
		return ctx
	}
	cID = strings.TrimSpace(cID)
	if cID == "" {
		return ctx
	}
	if len(cID) > maxCorrelationIDLen {
		cID = cID[:maxCorrelationIDLen]
	}
	return context.WithValue(ctx, correlationKey{}, cID)
}

// GetCorrelationID returns the correlation id stored in ctx, or "".
func GetCorrelationID(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	cID, _ := ctx.Value(correlationKey{}).(string)
	return cID
}
