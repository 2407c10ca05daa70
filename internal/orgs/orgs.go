// Package orgs manages the tenants principals belong to.
package orgs

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode"

	"orgdesk.io/internal/auth"
	"orgdesk.io/internal/ids"
)

const (
	maxNameLength = 120
	minVATLength  = 5
	maxVATLength  = 30
)

// Status of an organization.
type Status string

const (
	StatusActive   Status = "active"
	StatusInactive Status = "inactive"
)

// Organization is a tenant.
type Organization struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	VATNumber   string    `json:"vat_number"`
	Email       string    `json:"email,omitempty"`
	Phone       string    `json:"phone,omitempty"`
	Address     string    `json:"address,omitempty"`
	PicturePath string    `json:"picture_path,omitempty"`
	QRPath      string    `json:"qr_path,omitempty"`
	Status      Status    `json:"status"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// NewOrganization is the create payload.
type NewOrganization struct {
	Name        string `json:"name"`
	VATNumber   string `json:"vat_number"`
	Email       string `json:"email"`
	Phone       string `json:"phone"`
	Address     string `json:"address"`
	PicturePath string `json:"picture_path"`
	QRPath      string `json:"qr_path"`
	Status      string `json:"status"`
}

// OrganizationUpdate carries optional field updates.
type OrganizationUpdate struct {
	Name        *string `json:"name"`
	VATNumber   *string `json:"vat_number"`
	Email       *string `json:"email"`
	Phone       *string `json:"phone"`
	Address     *string `json:"address"`
	PicturePath *string `json:"picture_path"`
	QRPath      *string `json:"qr_path"`
	Status      *string `json:"status"`
}

// Store persists organizations. Errors follow the auth sentinel set.
type Store interface {
	CreateOrganization(ctx context.Context, o *Organization) error
	FindOrganization(ctx context.Context, id string) (*Organization, error)
	ListOrganizations(ctx context.Context) ([]*Organization, error)
	UpdateOrganization(ctx context.Context, o *Organization) error
	DeleteOrganization(ctx context.Context, id string) error
}

// Members deactivates the users of an organization and ends their sessions.
type Members interface {
	DeactivateOrganization(ctx context.Context, orgID string) error
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: "+format, append([]any{auth.ErrInvalidInput}, args...)...)
}

func parseStatus(s string) (Status, error) {
	switch st := Status(strings.ToLower(strings.TrimSpace(s))); st {
	case "":
		return StatusActive, nil
	case StatusActive, StatusInactive:
		return st, nil
	default:
		return "", invalid("unknown status %q", s)
	}
}

// Validate checks o before it is written.
func Validate(o *Organization) error {
	o.Name = strings.TrimSpace(o.Name)
	o.VATNumber = strings.ToUpper(strings.TrimSpace(o.VATNumber))
	o.Email = strings.ToLower(strings.TrimSpace(o.Email))
	o.Phone = strings.TrimSpace(o.Phone)
	o.Address = strings.TrimSpace(o.Address)

	if o.Name == "" {
		return invalid("name is required")
	}
	if len([]rune(o.Name)) > maxNameLength {
		return invalid("name exceeds %d characters", maxNameLength)
	}
	if n := len(o.VATNumber); n < minVATLength || n > maxVATLength {
		return invalid("vat number must be %d to %d characters", minVATLength, maxVATLength)
	}
	for _, r := range o.VATNumber {
		if r > unicode.MaxASCII || !(unicode.IsLetter(r) || unicode.IsDigit(r)) {
			return invalid("vat number must be alphanumeric")
		}
	}
	if o.Email != "" && !strings.Contains(o.Email, "@") {
		return invalid("email is invalid")
	}
	if _, err := parseStatus(string(o.Status)); err != nil {
		return err
	}
	return nil
}

// Service implements organization management.
type Service struct {
	store   Store
	members Members
	now     func() time.Time
}

// NewService constructs Service. members may be nil when no principals exist.
func NewService(store Store, members Members) *Service {
	return &Service{store: store, members: members, now: time.Now}
}

// Create validates and stores a new organization.
func (s *Service) Create(ctx context.Context, in NewOrganization) (*Organization, error) {
	status, err := parseStatus(in.Status)
	if err != nil {
		return nil, err
	}
	now := s.now().UTC()
	o := &Organization{
		ID:          ids.New(),
		Name:        in.Name,
		VATNumber:   in.VATNumber,
		Email:       in.Email,
		Phone:       in.Phone,
		Address:     in.Address,
		PicturePath: strings.TrimSpace(in.PicturePath),
		QRPath:      strings.TrimSpace(in.QRPath),
		Status:      status,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := Validate(o); err != nil {
		return nil, err
	}
	if err := s.store.CreateOrganization(ctx, o); err != nil {
		return nil, err
	}
	return o, nil
}

// Get loads one organization.
func (s *Service) Get(ctx context.Context, id string) (*Organization, error) {
	return s.store.FindOrganization(ctx, strings.TrimSpace(id))
}

// List returns every organization.
func (s *Service) List(ctx context.Context) ([]*Organization, error) {
	return s.store.ListOrganizations(ctx)
}

// Update applies upd. Deactivating an organization deactivates its users.
func (s *Service) Update(ctx context.Context, id string, upd OrganizationUpdate) (*Organization, error) {
	o, err := s.store.FindOrganization(ctx, id)
	if err != nil {
		return nil, err
	}
	wasActive := o.Status == StatusActive
	set := func(dst *string, src *string) {
		if src != nil {
			*dst = *src
		}
	}
	set(&o.Name, upd.Name)
	set(&o.VATNumber, upd.VATNumber)
	set(&o.Email, upd.Email)
	set(&o.Phone, upd.Phone)
	set(&o.Address, upd.Address)
	set(&o.PicturePath, upd.PicturePath)
	set(&o.QRPath, upd.QRPath)
	if upd.Status != nil {
		st, err := parseStatus(*upd.Status)
		if err != nil {
			return nil, err
		}
		o.Status = st
	}
	if err := Validate(o); err != nil {
		return nil, err
	}
	o.UpdatedAt = s.now().UTC()
	if err := s.store.UpdateOrganization(ctx, o); err != nil {
		return nil, err
	}
	if wasActive && o.Status != StatusActive && s.members != nil {
		if err := s.members.DeactivateOrganization(ctx, o.ID); err != nil {
			return nil, err
		}
	}
	return o, nil
}

// Delete removes an organization after its users lose access.
func (s *Service) Delete(ctx context.Context, id string) error {
	o, err := s.store.FindOrganization(ctx, id)
	if err != nil {
		return err
	}
	if s.members != nil {
		if err := s.members.DeactivateOrganization(ctx, o.ID); err != nil {
			return err
		}
	}
	return s.store.DeleteOrganization(ctx, o.ID)
}
