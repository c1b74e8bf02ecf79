package otp

import (
	"crypto/rand"
	"encoding/base32"
	"fmt"
	"math/big"
	"sync/atomic"

	"github.com/pquerna/otp"
	"github.com/pquerna/otp/hotp"
)

const (
	// DefaultDigits is the code length used when none is configured.
	DefaultDigits = 6

	// GeneratorRandom selects Random.
	GeneratorRandom = "random"
	// GeneratorHOTP selects HOTP.
	GeneratorHOTP = "hotp"
)

// Generator produces zero-padded numeric codes.
type Generator interface {
	Generate() (string, error)
}

// New returns the generator registered under kind; an empty kind means random.
func New(kind string, digits int) (Generator, error) {
	switch kind {
	case "", GeneratorRandom:
		return NewRandom(digits), nil
	case GeneratorHOTP:
		return NewHOTP(digits), nil
	default:
		return nil, fmt.Errorf("otp: unknown generator %q", kind)
	}
}

// Random draws codes uniformly over [0, 10^digits).
type Random struct {
	digits int
	limit  *big.Int
}

// NewRandom returns a Random generator. digits outside 4-10 falls back to 6.
func NewRandom(digits int) *Random {
	if digits < 4 || digits > 10 {
		digits = DefaultDigits
	}
	limit := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(digits)), nil)
	return &Random{digits: digits, limit: limit}
}

func (r *Random) Generate() (string, error) {
	n, err := rand.Int(rand.Reader, r.limit)
	if err != nil {
		return "", fmt.Errorf("otp: read random: %w", err)
	}
	return fmt.Sprintf("%0*d", r.digits, n), nil
}

// HOTP derives codes with RFC 4226 from a fresh 160-bit key per call.
type HOTP struct {
	digits  otp.Digits
	counter atomic.Uint64
}

// NewHOTP returns an HOTP generator. digits other than 8 means 6.
func NewHOTP(digits int) *HOTP {
	d := otp.DigitsSix
	if digits == 8 {
		d = otp.DigitsEight
	}
	return &HOTP{digits: d}
}

func (h *HOTP) Generate() (string, error) {
	key := make([]byte, 20) // RFC 4226 recommends 160 bits
	if _, err := rand.Read(key); err != nil {
		return "", fmt.Errorf("otp: read random: %w", err)
	}
	secret := base32.StdEncoding.WithPadding(base32.NoPadding).EncodeToString(key)

	return hotp.GenerateCodeCustom(secret, h.counter.Add(1), hotp.ValidateOpts{
		Digits:    h.digits,
		Algorithm: otp.AlgorithmSHA1,
	})
}
