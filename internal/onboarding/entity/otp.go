package entity

import "time"

// OTPRecord is the live code of one identity. Only the keyed hash of the code
// is stored.
type OTPRecord struct {
	Identity  string            `json:"identity"`
	CodeHash  string            `json:"code_hash"`
	IssuedAt  time.Time         `json:"issued_at"`
	ExpiresAt time.Time         `json:"expires_at"`
	Context   map[string]string `json:"context,omitempty"`
	// Consumed marks a record whose delete failed after a successful verify.
	Consumed bool `json:"consumed,omitempty"`
}

// Remaining returns the time left before the record expires, never negative.
func (r OTPRecord) Remaining(now time.Time) time.Duration {
	if d := r.ExpiresAt.Sub(now); d > 0 {
		return d
	}
	return 0
}

type AuditStatus string

const (
	AuditStatusIssued   AuditStatus = "issued"
	AuditStatusVerified AuditStatus = "verified"
)

type OTPAudit struct {
	ID          int64
	PhoneNumber string
	Origin      string
	Context     map[string]string
	Status      AuditStatus
	CreatedAt   time.Time
}
