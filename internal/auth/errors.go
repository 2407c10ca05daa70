package auth

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound     = errors.New("auth: not found")
	ErrConflict     = errors.New("auth: already exists")
	ErrInvalidInput = errors.New("auth: invalid input")

	// ErrInvalidCredentials is the only error a failed login surfaces.
	ErrInvalidCredentials = errors.New("invalid credentials")
)

// ErrInvalidToken is matched by every token validation failure.
var ErrInvalidToken = errors.New("auth: invalid token")

var (
	ErrExpiredToken   = fmt.Errorf("%w: expired", ErrInvalidToken)
	ErrMalformedToken = fmt.Errorf("%w: malformed", ErrInvalidToken)
	ErrRevokedToken   = fmt.Errorf("%w: revoked", ErrInvalidToken)
)

// CredentialError reports a hashing failure that is not caused by the input.
type CredentialError struct {
	Op  string
	Err error
}

func (e *CredentialError) Error() string {
	return "auth: credential " + e.Op + ": " + e.Err.Error()
}

func (e *CredentialError) Unwrap() error { return e.Err }

// AccessError carries the reason an authorization decision was negative.
type AccessError struct {
	Reason DenyReason
}

func (e *AccessError) Error() string {
	return "auth: access denied: " + e.Reason.String()
}

func invalidInput(format string, args ...any) error {
	return fmt.Errorf("%w: "+format, append([]any{ErrInvalidInput}, args...)...)
}
