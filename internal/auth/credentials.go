package auth

import (
	"errors"
	"sync"

	"golang.org/x/crypto/bcrypt"
)

const (
	minPasswordLength = 8
	maxPasswordBytes  = 72
)

// Hasher hashes and verifies passwords with bcrypt.
type Hasher struct {
	cost int

	dummyOnce sync.Once
	dummy     string
}

// NewHasher clamps cost into bcrypt's accepted range. Zero selects bcrypt.DefaultCost.
func NewHasher(cost int) *Hasher {
	switch {
	case cost == 0:
		cost = bcrypt.DefaultCost
	case cost < bcrypt.MinCost:
		cost = bcrypt.MinCost
	case cost > bcrypt.MaxCost:
		cost = bcrypt.MaxCost
	}
	return &Hasher{cost: cost}
}

// Cost returns the work factor new hashes are generated with.
func (h *Hasher) Cost() int { return h.cost }

// Hash returns a salted bcrypt hash of plaintext.
func (h *Hasher) Hash(plaintext string) (string, error) {
	if plaintext == "" {
		return "", invalidInput("password is required")
	}
	out, err := bcrypt.GenerateFromPassword([]byte(plaintext), h.cost)
	if err != nil {
		if errors.Is(err, bcrypt.ErrPasswordTooLong) {
			return "", invalidInput("password exceeds %d bytes", maxPasswordBytes)
		}
		return "", &CredentialError{Op: "hash", Err: err}
	}
	return string(out), nil
}

// Verify reports whether plaintext matches hash. Malformed hashes never match.
func (h *Hasher) Verify(plaintext, hash string) bool {
	if hash == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plaintext)) == nil
}

// VerifyUnknown burns one comparison so unknown accounts cost the same as known ones.
func (h *Hasher) VerifyUnknown(plaintext string) {
	h.dummyOnce.Do(func() {
		out, err := bcrypt.GenerateFromPassword([]byte("orgdesk-dummy-password"), h.cost)
		if err == nil {
			h.dummy = string(out)
		}
	})
	_ = h.Verify(plaintext, h.dummy)
}

// PrepareForPersistence replaces the password field of p before a write.
// A nil plaintext leaves the stored hash untouched.
func (h *Hasher) PrepareForPersistence(p *Principal, plaintext *string) error {
	if plaintext == nil {
		return nil
	}
	if err := ValidatePassword(*plaintext); err != nil {
		return err
	}
	hash, err := h.Hash(*plaintext)
	if err != nil {
		return err
	}
	p.PasswordHash = hash
	return nil
}

// ValidatePassword enforces the length bounds bcrypt can honour.
func ValidatePassword(plaintext string) error {
	switch {
	case len(plaintext) < minPasswordLength:
		return invalidInput("password must be at least %d characters", minPasswordLength)
	case len(plaintext) > maxPasswordBytes:
		return invalidInput("password exceeds %d bytes", maxPasswordBytes)
	}
	return nil
}
