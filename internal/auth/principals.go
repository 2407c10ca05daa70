package auth

import (
	"context"
	"strings"

	"orgdesk.io/internal/ids"
)

const (
	maxNameLength  = 120
	maxEmailLength = 254
)

// NewPrincipal is the input for creating an admin or organization user.
type NewPrincipal struct {
	Name        string `json:"name"`
	Email       string `json:"email"`
	Password    string `json:"password"`
	Designation string `json:"designation"`
	Status      string `json:"status"`
	PicturePath string `json:"picture_path"`
}

// PrincipalUpdate carries optional field updates; nil fields are left untouched.
type PrincipalUpdate struct {
	Name        *string `json:"name"`
	Email       *string `json:"email"`
	Password    *string `json:"password"`
	Designation *string `json:"designation"`
	Status      *string `json:"status"`
	PicturePath *string `json:"picture_path"`
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func validateName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", invalidInput("name is required")
	}
	if len([]rune(name)) > maxNameLength {
		return "", invalidInput("name exceeds %d characters", maxNameLength)
	}
	return name, nil
}

func validateEmail(email string) (string, error) {
	email = normalizeEmail(email)
	at := strings.IndexByte(email, '@')
	if at <= 0 || at == len(email)-1 || strings.Count(email, "@") != 1 {
		return "", invalidInput("email is invalid")
	}
	if len(email) > maxEmailLength {
		return "", invalidInput("email exceeds %d characters", maxEmailLength)
	}
	return email, nil
}

func parseOrgUserDesignation(s string) (Designation, error) {
	d := ParseDesignation(s)
	if d == DesignationUnknown {
		return d, invalidInput("designation must be one of Admin, Manager, Cashier, Other")
	}
	return d, nil
}

func parseStatus(s string) (Status, error) {
	if strings.TrimSpace(s) == "" {
		return StatusActive, nil
	}
	st, err := ParseStatus(s)
	if err != nil {
		return "", err
	}
	if st == StatusDeleted {
		return "", invalidInput("status %q cannot be set directly", s)
	}
	return st, nil
}

func (s *Service) buildPrincipal(kind Kind, orgID string, in NewPrincipal) (*Principal, error) {
	name, err := validateName(in.Name)
	if err != nil {
		return nil, err
	}
	email, err := validateEmail(in.Email)
	if err != nil {
		return nil, err
	}
	status, err := parseStatus(in.Status)
	if err != nil {
		return nil, err
	}
	designation := DesignationAdmin
	if kind == KindOrgUser {
		if designation, err = parseOrgUserDesignation(in.Designation); err != nil {
			return nil, err
		}
	}
	now := s.now().UTC()
	p := &Principal{
		ID:             ids.New(),
		Kind:           kind,
		OrganizationID: orgID,
		Name:           name,
		Email:          email,
		Designation:    designation,
		Status:         status,
		PicturePath:    strings.TrimSpace(in.PicturePath),
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := s.hasher.PrepareForPersistence(p, &in.Password); err != nil {
		return nil, err
	}
	return p, nil
}

// CreateAdmin registers a platform administrator.
func (s *Service) CreateAdmin(ctx context.Context, in NewPrincipal) (*Principal, error) {
	p, err := s.buildPrincipal(KindAdmin, "", in)
	if err != nil {
		return nil, err
	}
	if err := s.store.CreatePrincipal(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

// CreateOrgUser registers a user inside organization orgID.
func (s *Service) CreateOrgUser(ctx context.Context, orgID string, in NewPrincipal) (*Principal, error) {
	orgID = strings.TrimSpace(orgID)
	if orgID == "" {
		return nil, invalidInput("organization id is required")
	}
	p, err := s.buildPrincipal(KindOrgUser, orgID, in)
	if err != nil {
		return nil, err
	}
	if err := s.store.CreatePrincipal(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

// GetPrincipal loads a principal by kind and id.
func (s *Service) GetPrincipal(ctx context.Context, kind Kind, id string) (*Principal, error) {
	return s.store.FindPrincipal(ctx, kind, strings.TrimSpace(id))
}

// FindByEmail loads a principal by kind and email.
func (s *Service) FindByEmail(ctx context.Context, kind Kind, email string) (*Principal, error) {
	return s.store.FindPrincipalByEmail(ctx, kind, normalizeEmail(email))
}

// ListAdmins returns every platform administrator, soft-deleted ones excluded.
func (s *Service) ListAdmins(ctx context.Context) ([]*Principal, error) {
	list, err := s.store.ListPrincipals(ctx, PrincipalFilter{Kind: KindAdmin})
	if err != nil {
		return nil, err
	}
	out := list[:0]
	for _, p := range list {
		if p.Status != StatusDeleted {
			out = append(out, p)
		}
	}
	return out, nil
}

// ListOrgUsers returns the users of one organization.
func (s *Service) ListOrgUsers(ctx context.Context, orgID string) ([]*Principal, error) {
	return s.store.ListPrincipals(ctx, PrincipalFilter{Kind: KindOrgUser, OrganizationID: orgID})
}

// UpdatePrincipal applies upd. A password change or leaving the active status
// revokes the principal's sessions.
func (s *Service) UpdatePrincipal(ctx context.Context, kind Kind, id string, upd PrincipalUpdate) (*Principal, error) {
	p, err := s.store.FindPrincipal(ctx, kind, id)
	if err != nil {
		return nil, err
	}
	if p.Status == StatusDeleted {
		return nil, ErrNotFound
	}
	revoke := false
	if upd.Name != nil {
		if p.Name, err = validateName(*upd.Name); err != nil {
			return nil, err
		}
	}
	if upd.Email != nil {
		if p.Email, err = validateEmail(*upd.Email); err != nil {
			return nil, err
		}
	}
	if upd.Designation != nil {
		if kind != KindOrgUser {
			return nil, invalidInput("designation applies to organization users only")
		}
		d, err := parseOrgUserDesignation(*upd.Designation)
		if err != nil {
			return nil, err
		}
		revoke = revoke || d != p.Designation
		p.Designation = d
	}
	if upd.Status != nil {
		st, err := parseStatus(*upd.Status)
		if err != nil {
			return nil, err
		}
		revoke = revoke || (p.Status == StatusActive && st != StatusActive)
		p.Status = st
	}
	if upd.PicturePath != nil {
		p.PicturePath = strings.TrimSpace(*upd.PicturePath)
	}
	if upd.Password != nil {
		if err := s.hasher.PrepareForPersistence(p, upd.Password); err != nil {
			return nil, err
		}
		revoke = true
	}
	p.UpdatedAt = s.now().UTC()
	if err := s.store.UpdatePrincipal(ctx, p); err != nil {
		return nil, err
	}
	if revoke {
		if err := s.tokens.Revoke(ctx, p.ID); err != nil {
			return nil, err
		}
	}
	return p, nil
}

// DeletePrincipal soft-deletes admins and removes organization users. Both
// lose their sessions.
func (s *Service) DeletePrincipal(ctx context.Context, kind Kind, id string) error {
	p, err := s.store.FindPrincipal(ctx, kind, id)
	if err != nil {
		return err
	}
	switch kind {
	case KindAdmin:
		if p.Status == StatusDeleted {
			return ErrNotFound
		}
		p.Status = StatusDeleted
		p.UpdatedAt = s.now().UTC()
		err = s.store.UpdatePrincipal(ctx, p)
	default:
		err = s.store.DeletePrincipal(ctx, kind, p.ID)
	}
	if err != nil {
		return err
	}
	return s.tokens.Revoke(ctx, p.ID)
}

// DeactivateOrganization marks every user of orgID inactive and revokes their sessions.
func (s *Service) DeactivateOrganization(ctx context.Context, orgID string) error {
	users, err := s.ListOrgUsers(ctx, orgID)
	if err != nil {
		return err
	}
	for _, u := range users {
		if u.Status == StatusActive {
			u.Status = StatusInactive
			u.UpdatedAt = s.now().UTC()
			if err := s.store.UpdatePrincipal(ctx, u); err != nil {
				return err
			}
		}
		if err := s.tokens.Revoke(ctx, u.ID); err != nil {
			return err
		}
	}
	return nil
}
