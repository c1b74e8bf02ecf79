package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/shandysiswandi/onboarding/internal/onboarding/entity"
	"github.com/shandysiswandi/onboarding/internal/pkg/goerror"
	"github.com/shandysiswandi/onboarding/internal/pkg/instrument"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Cache keeps OTP records and counters in Redis:
//
//	otp:<identity>                  record JSON, TTL = code lifetime
//	otp:rate:<identity>[:<origin>]  issuance counter, TTL = rate window
//	otp:attempt:<identity>          mismatch counter, TTL = record remainder
type Cache struct {
	client redis.Cmdable
	ins    instrument.Instrumentation
}

func NewCache(client redis.Cmdable, ins instrument.Instrumentation) *Cache {
	return &Cache{client: client, ins: ins}
}

func recordKey(identity string) string {
	return "otp:" + identity
}

func rateKey(identity, origin string) string {
	if origin == "" {
		return "otp:rate:" + identity
	}
	return "otp:rate:" + identity + ":" + origin
}

func attemptKey(identity string) string {
	return "otp:attempt:" + identity
}

func (c *Cache) startSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	return c.ins.Tracer("onboarding.outbound.cache").Start(ctx, name)
}

func (c *Cache) endSpan(span trace.Span, err error) {
	if err != nil && !errors.Is(err, goerror.ErrNotFound) {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

func (c *Cache) GetOTP(ctx context.Context, identity string) (rec *entity.OTPRecord, err error) {
	ctx, span := c.startSpan(ctx, "GetOTP")
	defer func() { c.endSpan(span, err) }()

	raw, err := c.client.Get(ctx, recordKey(identity)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, goerror.ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	rec = &entity.OTPRecord{}
	if err = json.Unmarshal(raw, rec); err != nil {
		return nil, err
	}

	return rec, nil
}

func (c *Cache) SetOTP(ctx context.Context, rec entity.OTPRecord, ttl time.Duration) (err error) {
	ctx, span := c.startSpan(ctx, "SetOTP")
	defer func() { c.endSpan(span, err) }()

	raw, err := json.Marshal(rec)
	if err != nil {
		return err
	}

	err = c.client.Set(ctx, recordKey(rec.Identity), raw, ttl).Err()
	return err
}

// tombstoneScript overwrites KEYS[1] only while it still holds the record with
// code hash ARGV[1] issued at ARGV[2].
var tombstoneScript = redis.NewScript(`
local cur = redis.call("GET", KEYS[1])
if not cur then
	return 0
end
local ok, doc = pcall(cjson.decode, cur)
if not ok or doc.code_hash ~= ARGV[1] or doc.issued_at ~= ARGV[2] then
	return 0
end
redis.call("SET", KEYS[1], ARGV[3], "PX", ARGV[4])
return 1
`)

// TombstoneOTP marks rec consumed for ttl. It reports false and writes nothing
// when the stored record is absent or was replaced by a newer issuance.
func (c *Cache) TombstoneOTP(ctx context.Context, rec entity.OTPRecord, ttl time.Duration) (written bool, err error) {
	ctx, span := c.startSpan(ctx, "TombstoneOTP")
	defer func() { c.endSpan(span, err) }()

	issuedAt, err := rec.IssuedAt.MarshalText()
	if err != nil {
		return false, err
	}

	rec.Consumed = true
	raw, err := json.Marshal(rec)
	if err != nil {
		return false, err
	}

	n, err := tombstoneScript.Run(ctx, c.client, []string{recordKey(rec.Identity)},
		rec.CodeHash, string(issuedAt), string(raw), ttl.Milliseconds()).Int64()
	if err != nil {
		return false, err
	}

	return n == 1, nil
}

// DeleteOTP reports whether this call removed the record.
func (c *Cache) DeleteOTP(ctx context.Context, identity string) (deleted bool, err error) {
	ctx, span := c.startSpan(ctx, "DeleteOTP")
	defer func() { c.endSpan(span, err) }()

	n, err := c.client.Del(ctx, recordKey(identity)).Result()
	if err != nil {
		return false, err
	}

	return n > 0, nil
}

// IncrIssueCount counts one issuance and starts the window on the first hit.
// INCR and EXPIRE NX share one transaction, so a counter never lives without
// an expiry.
func (c *Cache) IncrIssueCount(ctx context.Context, identity, origin string, window time.Duration) (n int64, err error) {
	ctx, span := c.startSpan(ctx, "IncrIssueCount")
	defer func() { c.endSpan(span, err) }()

	key := rateKey(identity, origin)

	pipe := c.client.TxPipeline()
	incr := pipe.Incr(ctx, key)
	pipe.ExpireNX(ctx, key, window)
	if _, err = pipe.Exec(ctx); err != nil {
		return 0, err
	}

	return incr.Val(), nil
}

// IncrAttempt counts one mismatch. The counter lives no longer than ttl.
func (c *Cache) IncrAttempt(ctx context.Context, identity string, ttl time.Duration) (n int64, err error) {
	ctx, span := c.startSpan(ctx, "IncrAttempt")
	defer func() { c.endSpan(span, err) }()

	key := attemptKey(identity)

	pipe := c.client.TxPipeline()
	incr := pipe.Incr(ctx, key)
	pipe.Expire(ctx, key, ttl)
	if _, err = pipe.Exec(ctx); err != nil {
		return 0, err
	}

	return incr.Val(), nil
}

func (c *Cache) DeleteAttempt(ctx context.Context, identity string) (err error) {
	ctx, span := c.startSpan(ctx, "DeleteAttempt")
	defer func() { c.endSpan(span, err) }()

	err = c.client.Del(ctx, attemptKey(identity)).Err()
	return err
}
