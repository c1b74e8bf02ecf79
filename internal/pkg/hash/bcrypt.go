package hash

import (
	"errors"

	"golang.org/x/crypto/bcrypt"
)

// ErrInputTooLong is returned when the peppered input exceeds what bcrypt reads.
var ErrInputTooLong = errors.New("hash: bcrypt input longer than 72 bytes")

const bcryptMaxInput = 72

// Bcrypt hashes passwords with a server-side pepper appended.
type Bcrypt struct {
	cost   int
	pepper string
}

// NewBcrypt returns a bcrypt hasher. An out-of-range cost falls back to
// bcrypt.DefaultCost.
func NewBcrypt(cost int, pepper string) *Bcrypt {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return &Bcrypt{cost: cost, pepper: pepper}
}

func (h *Bcrypt) Hash(plaintext string) ([]byte, error) {
	in := plaintext + h.pepper
	if len(in) > bcryptMaxInput {
		return nil, ErrInputTooLong
	}
	return bcrypt.GenerateFromPassword([]byte(in), h.cost)
}

func (h *Bcrypt) Verify(hashed, plaintext string) bool {
	in := plaintext + h.pepper
	if len(in) > bcryptMaxInput {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(hashed), []byte(in)) == nil
}
