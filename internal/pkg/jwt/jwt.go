package jwt

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	// ErrSigningKeyTooShort is returned when the HS512 signing key is less than 64 bytes.
	ErrSigningKeyTooShort = errors.New("HS512 signing key must be at least 64 bytes (512 bits)")

	// ErrTokenExpired is returned when the JWT token has expired.
	ErrTokenExpired = errors.New("JWT token has expired")

	// ErrInvalidToken is returned when the token is malformed or fails validation.
	ErrInvalidToken = errors.New("invalid token")

	// ErrSubjectRequired is returned when Generate gets no phone number.
	ErrSubjectRequired = errors.New("JWT subject is required")
)

// JWT generates and verifies credentials.
type JWT interface {
	Generate(sub Subject) (Token, error)
	Verify(tokenStr string) (Claims, error)
}

type clocker interface {
	Now() time.Time
}

type utcClock struct{}

func (utcClock) Now() time.Time { return time.Now().UTC() }

type generator interface {
	Generate() string
}

// Config defines the inputs for building a JWT implementation.
type Config struct {
	// Secret is the HMAC signing key.
	Secret []byte
	// Issuer is the token issuer value.
	Issuer string
	// Audiences are the accepted token audiences.
	Audiences []string
	// TTL is the token lifetime.
	TTL time.Duration
	// Clock defaults to the system clock in UTC.
	Clock clocker
	// UUID generates token IDs.
	UUID generator
}

// Subject identifies who the credential is for.
type Subject struct {
	PhoneNumber string
	// UserID is set when the phone number belongs to a registered user.
	UserID int64
}

// Token is a signed credential and its expiry.
type Token struct {
	Value     string
	ExpiresAt time.Time
}

// Claims wraps the registered claims with the verified phone number.
type Claims struct {
	jwt.RegisteredClaims
	PhoneNumber string `json:"phone_number"`
	UserID      int64  `json:"user_id,string,omitempty"`
}
