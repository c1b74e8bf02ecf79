// Package idempotency tracks whether a keyed operation already ran, so a
// redelivered message does not run its handler twice.
package idempotency

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

var ErrInvalidState = errors.New("idempotency: invalid state")

type State string

const (
	StateNone       State = "none"        // caller owns the key and may proceed
	StateInProgress State = "in_progress" // another caller holds the key
	StateCompleted  State = "completed"   // operation already finished
	StateError      State = "error"       // the tracker could not answer
)

func (s State) String() string {
	return string(s)
}

type Idempotency interface {
	// Acquire claims key for lock. It reports StateNone when the caller won the claim.
	Acquire(ctx context.Context, key string, lock time.Duration) (State, error)
	// MarkCompleted records success for ttl.
	MarkCompleted(ctx context.Context, key string, ttl time.Duration) error
	// Release drops an in-progress claim so a retry can take it.
	Release(ctx context.Context, key string) error
}

// acquireScript claims KEYS[1] with ARGV[1] for ARGV[2] milliseconds, or
// returns the state already stored.
var acquireScript = redis.NewScript(`
local cur = redis.call("GET", KEYS[1])
if cur then
	return cur
end
redis.call("SET", KEYS[1], ARGV[1], "PX", ARGV[2])
return ""
`)

// releaseScript deletes KEYS[1] only while it is still in progress, so a late
// release never erases a completion.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// StateTracker stores operation state in Redis under "idempotency:<key>".
type StateTracker struct {
	client redis.Cmdable
	prefix string
}

func New(client redis.Cmdable) *StateTracker {
	return &StateTracker{
		client: client,
		prefix: "idempotency:",
	}
}

func (s *StateTracker) Acquire(ctx context.Context, key string, lock time.Duration) (State, error) {
	if lock <= 0 {
		lock = time.Minute
	}

	cur, err := acquireScript.Run(ctx, s.client, []string{s.prefix + key},
		StateInProgress.String(), lock.Milliseconds()).Text()
	if err != nil {
		return StateError, err
	}

	switch cur {
	case "":
		return StateNone, nil
	case StateInProgress.String():
		return StateInProgress, nil
	case StateCompleted.String():
		return StateCompleted, nil
	default:
		return StateError, ErrInvalidState
	}
}

func (s *StateTracker) MarkCompleted(ctx context.Context, key string, ttl time.Duration) error {
	return s.client.Set(ctx, s.prefix+key, StateCompleted.String(), ttl).Err()
}

func (s *StateTracker) Release(ctx context.Context, key string) error {
	return releaseScript.Run(ctx, s.client, []string{s.prefix + key}, StateInProgress.String()).Err()
}
