package auth

import (
	"context"
	"errors"
)

// DenyReason explains a negative decision.
type DenyReason uint8

const (
	ReasonNone DenyReason = iota
	ReasonUnauthenticated
	ReasonAccountInactive
	ReasonInsufficientRole
)

func (r DenyReason) String() string {
	switch r {
	case ReasonUnauthenticated:
		return "unauthenticated"
	case ReasonAccountInactive:
		return "account_inactive"
	case ReasonInsufficientRole:
		return "insufficient_role"
	default:
		return "none"
	}
}

// Decision is the outcome of an authorization check.
type Decision struct {
	Allowed bool
	Reason  DenyReason
}

func Allow() Decision { return Decision{Allowed: true} }

func Deny(reason DenyReason) Decision { return Decision{Reason: reason} }

// Err converts a denial into an *AccessError; allowed decisions return nil.
func (d Decision) Err() error {
	if d.Allowed {
		return nil
	}
	return &AccessError{Reason: d.Reason}
}

// Authorize decides whether principal may exercise required. Inactive
// accounts are refused before their role is consulted.
func Authorize(principal *Principal, required Capability) Decision {
	if principal == nil {
		return Deny(ReasonUnauthenticated)
	}
	if !principal.Active() {
		return Deny(ReasonAccountInactive)
	}
	if !principal.Capabilities().Has(required) {
		return Deny(ReasonInsufficientRole)
	}
	return Allow()
}

// Guard runs the per-request authentication and authorization sequence.
type Guard struct {
	tokens     *Issuer
	principals PrincipalStore
}

// NewGuard wires the issuer used for token validation to the principal store.
func NewGuard(tokens *Issuer, principals PrincipalStore) *Guard {
	return &Guard{tokens: tokens, principals: principals}
}

// Authenticate resolves a bearer token to an active principal. The returned
// error is reserved for store failures; every other outcome is a Decision.
func (g *Guard) Authenticate(ctx context.Context, token string) (*Principal, Decision, error) {
	if token == "" {
		return nil, Deny(ReasonUnauthenticated), nil
	}
	ref, err := g.tokens.Validate(ctx, token)
	if err != nil {
		return nil, Deny(ReasonUnauthenticated), nil
	}
	principal, err := g.principals.FindPrincipal(ctx, ref.Kind, ref.ID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, Deny(ReasonUnauthenticated), nil
		}
		return nil, Decision{}, err
	}
	if !principal.Active() {
		return principal, Deny(ReasonAccountInactive), nil
	}
	return principal, Allow(), nil
}

// Check authenticates token and then authorizes required.
func (g *Guard) Check(ctx context.Context, token string, required Capability) (*Principal, Decision, error) {
	principal, decision, err := g.Authenticate(ctx, token)
	if err != nil || !decision.Allowed {
		return principal, decision, err
	}
	return principal, Authorize(principal, required), nil
}
