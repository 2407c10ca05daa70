package auth

import (
	"context"
	"time"
)

// Principal is an authenticated actor: a platform admin or an organization user.
type Principal struct {
	ID             string      `json:"id"`
	Kind           Kind        `json:"kind"`
	OrganizationID string      `json:"organization_id,omitempty"`
	Name           string      `json:"name"`
	Email          string      `json:"email"`
	PasswordHash   string      `json:"-"`
	Designation    Designation `json:"designation"`
	Status         Status      `json:"status"`
	PicturePath    string      `json:"picture_path,omitempty"`
	CreatedAt      time.Time   `json:"created_at"`
	UpdatedAt      time.Time   `json:"updated_at"`
}

// Active reports whether the principal may act at all.
func (p *Principal) Active() bool {
	return p != nil && p.Status == StatusActive
}

// EffectiveDesignation is the designation used for capability resolution.
// Admins without an explicit designation act as Admin.
func (p *Principal) EffectiveDesignation() Designation {
	if p.Kind == KindAdmin && p.Designation == DesignationUnknown {
		return DesignationAdmin
	}
	return p.Designation
}

// Capabilities resolves the principal's current capability set.
func (p *Principal) Capabilities() CapabilitySet {
	if p == nil {
		return 0
	}
	return Capabilities(p.EffectiveDesignation())
}

// InOrganization reports whether the principal may act inside orgID.
// Admins act in every organization.
func (p *Principal) InOrganization(orgID string) bool {
	if p == nil {
		return false
	}
	return p.Kind == KindAdmin || (orgID != "" && p.OrganizationID == orgID)
}

// Ref returns the token-carried view of the principal.
func (p *Principal) Ref() PrincipalRef {
	return PrincipalRef{ID: p.ID, Kind: p.Kind, Designation: p.EffectiveDesignation()}
}

// PrincipalRef is what a validated token asserts about its bearer.
type PrincipalRef struct {
	ID          string
	Kind        Kind
	Designation Designation
	SessionID   string
}

// PrincipalFilter narrows ListPrincipals.
type PrincipalFilter struct {
	Kind           Kind
	OrganizationID string
}

// PrincipalStore persists principals. Emails are unique within a kind.
type PrincipalStore interface {
	FindPrincipal(ctx context.Context, kind Kind, id string) (*Principal, error)
	FindPrincipalByEmail(ctx context.Context, kind Kind, email string) (*Principal, error)
	ListPrincipals(ctx context.Context, filter PrincipalFilter) ([]*Principal, error)
	CreatePrincipal(ctx context.Context, p *Principal) error
	UpdatePrincipal(ctx context.Context, p *Principal) error
	DeletePrincipal(ctx context.Context, kind Kind, id string) error
}

// RevocationList is the shared denylist consulted on every validation.
type RevocationList interface {
	// MarkToken inserts jti and reports false if it was already present.
	MarkToken(ctx context.Context, jti string, ttl time.Duration) (bool, error)
	TokenRevoked(ctx context.Context, jti string) (bool, error)
	RevokePrincipal(ctx context.Context, principalID string, at time.Time, ttl time.Duration) error
	PrincipalRevokedAt(ctx context.Context, principalID string) (time.Time, bool, error)
}
