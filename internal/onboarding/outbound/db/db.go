package db

import (
	"context"
	_ "embed"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shandysiswandi/onboarding/internal/onboarding/entity"
	"github.com/shandysiswandi/onboarding/internal/pkg/goerror"
	"github.com/shandysiswandi/onboarding/internal/pkg/instrument"
	"github.com/shandysiswandi/onboarding/internal/pkg/valueobject"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Schema creates the tables this package writes to.
//
//go:embed schema.sql
var Schema string

// DBTX is satisfied by *pgxpool.Pool, *pgx.Conn and pgx.Tx.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type DB struct {
	conn DBTX
	ins  instrument.Instrumentation
}

func NewDB(conn DBTX, ins instrument.Instrumentation) *DB {
	return &DB{conn: conn, ins: ins}
}

func (s *DB) mapError(err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, pgx.ErrNoRows) {
		return goerror.ErrNotFound
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return goerror.ErrConflict
	}

	return err
}

func (s *DB) startSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	return s.ins.Tracer("onboarding.outbound.db").Start(ctx, name)
}

func (s *DB) endSpan(span trace.Span, err error) {
	if err != nil && !errors.Is(err, goerror.ErrNotFound) && !errors.Is(err, goerror.ErrConflict) {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

const createOTPAudit = `
INSERT INTO onboarding_otp_audits (id, phone_number, origin, context, status, created_at)
VALUES ($1, $2, $3, $4, $5, $6)`

func (s *DB) CreateOTPAudit(ctx context.Context, a entity.OTPAudit) (err error) {
	ctx, span := s.startSpan(ctx, "CreateOTPAudit")
	defer func() { s.endSpan(span, err) }()

	_, err = s.conn.Exec(ctx, createOTPAudit,
		a.ID,
		a.PhoneNumber,
		a.Origin,
		valueobject.Metadata(a.Context),
		string(a.Status),
		a.CreatedAt,
	)
	err = s.mapError(err)
	return err
}

const markOTPAuditVerified = `
UPDATE onboarding_otp_audits
SET status = 'verified', verified_at = $2
WHERE id = (
    SELECT id FROM onboarding_otp_audits
    WHERE phone_number = $1 AND status = 'issued'
    ORDER BY created_at DESC
    LIMIT 1
)`

// MarkOTPAuditVerified flags the latest issued row of phoneNumber.
func (s *DB) MarkOTPAuditVerified(ctx context.Context, phoneNumber string, at time.Time) (err error) {
	ctx, span := s.startSpan(ctx, "MarkOTPAuditVerified")
	defer func() { s.endSpan(span, err) }()

	tag, err := s.conn.Exec(ctx, markOTPAuditVerified, phoneNumber, at)
	if err != nil {
		err = s.mapError(err)
		return err
	}
	if tag.RowsAffected() == 0 {
		err = goerror.ErrNotFound
	}

	return err
}

const getLatestOTPAudit = `
SELECT id, phone_number, origin, context, status, created_at
FROM onboarding_otp_audits
WHERE phone_number = $1
ORDER BY created_at DESC
LIMIT 1`

func (s *DB) GetLatestOTPAudit(ctx context.Context, phoneNumber string) (out *entity.OTPAudit, err error) {
	ctx, span := s.startSpan(ctx, "GetLatestOTPAudit")
	defer func() { s.endSpan(span, err) }()

	var (
		a      entity.OTPAudit
		meta   valueobject.Metadata
		status string
	)
	err = s.conn.QueryRow(ctx, getLatestOTPAudit, phoneNumber).
		Scan(&a.ID, &a.PhoneNumber, &a.Origin, &meta, &status, &a.CreatedAt)
	if err != nil {
		err = s.mapError(err)
		return nil, err
	}

	a.Context = meta
	a.Status = entity.AuditStatus(status)

	return &a, nil
}
