package jwt

import (
	"errors"
	"time"

	libJWT "github.com/golang-jwt/jwt/v5"
)

const (
	minHS512KeyLen = 64
	defaultTTL     = 15 * time.Minute
)

// Symmetric signs HS512 tokens with a shared secret.
type Symmetric struct {
	cfg    Config
	parser *libJWT.Parser
}

// NewHS512 needs a secret of at least 64 bytes. A zero TTL means 15 minutes.
func NewHS512(cfg Config) (*Symmetric, error) {
	if len(cfg.Secret) < minHS512KeyLen {
		return nil, ErrSigningKeyTooShort
	}
	if cfg.TTL <= 0 {
		cfg.TTL = defaultTTL
	}
	if cfg.Clock == nil {
		cfg.Clock = utcClock{}
	}

	return &Symmetric{
		cfg: cfg,
		parser: libJWT.NewParser(
			libJWT.WithIssuer(cfg.Issuer),
			libJWT.WithAudience(cfg.Audiences...),
			libJWT.WithValidMethods([]string{libJWT.SigningMethodHS512.Alg()}),
			libJWT.WithIssuedAt(),
			libJWT.WithExpirationRequired(),
			libJWT.WithTimeFunc(cfg.Clock.Now),
		),
	}, nil
}

func (s *Symmetric) claims(sub Subject, now time.Time) Claims {
	return Claims{
		RegisteredClaims: libJWT.RegisteredClaims{
			ID:        s.cfg.UUID.Generate(),
			Subject:   sub.PhoneNumber,
			Issuer:    s.cfg.Issuer,
			Audience:  s.cfg.Audiences,
			IssuedAt:  libJWT.NewNumericDate(now),
			NotBefore: libJWT.NewNumericDate(now),
			ExpiresAt: libJWT.NewNumericDate(now.Add(s.cfg.TTL)),
		},
		PhoneNumber: sub.PhoneNumber,
		UserID:      sub.UserID,
	}
}

// Generate issues a credential for a verified phone number.
func (s *Symmetric) Generate(sub Subject) (Token, error) {
	if sub.PhoneNumber == "" {
		return Token{}, ErrSubjectRequired
	}

	c := s.claims(sub, s.cfg.Clock.Now())
	value, err := libJWT.NewWithClaims(libJWT.SigningMethodHS512, c).SignedString(s.cfg.Secret)
	if err != nil {
		return Token{}, err
	}

	return Token{Value: value, ExpiresAt: c.ExpiresAt.Time}, nil
}

func (s *Symmetric) Verify(tokenStr string) (Claims, error) {
	var c Claims

	token, err := s.parser.ParseWithClaims(tokenStr, &c, func(*libJWT.Token) (any, error) {
		return s.cfg.Secret, nil
	})
	switch {
	case errors.Is(err, libJWT.ErrTokenExpired):
		return Claims{}, ErrTokenExpired
	case errors.Is(err, libJWT.ErrTokenSignatureInvalid), errors.Is(err, libJWT.ErrTokenMalformed):
		return Claims{}, errors.Join(ErrInvalidToken, err)
	case err != nil:
		return Claims{}, err
	case !token.Valid:
		return Claims{}, ErrInvalidToken
	}

	return c, nil
}
