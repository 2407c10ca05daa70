// Package memory is an in-process store used when no database is configured
// and by tests.
package memory

import (
	"context"
	"sort"
	"sync"

	"orgdesk.io/internal/auth"
	"orgdesk.io/internal/orgs"
)

type principalKey struct {
	kind auth.Kind
	id   string
}

// Store keeps principals and organizations in maps. Values are copied on the
// way in and out so callers never share state with the store.
type Store struct {
	mu            sync.RWMutex
	principals    map[principalKey]auth.Principal
	organizations map[string]orgs.Organization
}

// New returns an empty store.
func New() *Store {
	return &Store{
		principals:    make(map[principalKey]auth.Principal),
		organizations: make(map[string]orgs.Organization),
	}
}

func (s *Store) FindPrincipal(_ context.Context, kind auth.Kind, id string) (*auth.Principal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.principals[principalKey{kind, id}]
	if !ok {
		return nil, auth.ErrNotFound
	}
	return &p, nil
}

func (s *Store) FindPrincipalByEmail(_ context.Context, kind auth.Kind, email string) (*auth.Principal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for k, p := range s.principals {
		if k.kind == kind && p.Email == email {
			return &p, nil
		}
	}
	return nil, auth.ErrNotFound
}

func (s *Store) ListPrincipals(_ context.Context, f auth.PrincipalFilter) ([]*auth.Principal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*auth.Principal, 0)
	for k, p := range s.principals {
		if k.kind != f.Kind {
			continue
		}
		if f.OrganizationID != "" && p.OrganizationID != f.OrganizationID {
			continue
		}
		p := p
		out = append(out, &p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *Store) emailTaken(kind auth.Kind, email, exceptID string) bool {
	for k, p := range s.principals {
		if k.kind == kind && p.Email == email && p.ID != exceptID {
			return true
		}
	}
	return false
}

func (s *Store) CreatePrincipal(_ context.Context, p *auth.Principal) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := principalKey{p.Kind, p.ID}
	if _, ok := s.principals[key]; ok || s.emailTaken(p.Kind, p.Email, "") {
		return auth.ErrConflict
	}
	if p.Kind == auth.KindOrgUser {
		if _, ok := s.organizations[p.OrganizationID]; !ok {
			return auth.ErrNotFound
		}
	}
	s.principals[key] = *p
	return nil
}

func (s *Store) UpdatePrincipal(_ context.Context, p *auth.Principal) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := principalKey{p.Kind, p.ID}
	if _, ok := s.principals[key]; !ok {
		return auth.ErrNotFound
	}
	if s.emailTaken(p.Kind, p.Email, p.ID) {
		return auth.ErrConflict
	}
	s.principals[key] = *p
	return nil
}

func (s *Store) DeletePrincipal(_ context.Context, kind auth.Kind, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := principalKey{kind, id}
	if _, ok := s.principals[key]; !ok {
		return auth.ErrNotFound
	}
	delete(s.principals, key)
	return nil
}

func (s *Store) CreateOrganization(_ context.Context, o *orgs.Organization) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.organizations[o.ID]; ok {
		return auth.ErrConflict
	}
	for _, existing := range s.organizations {
		if existing.VATNumber == o.VATNumber {
			return auth.ErrConflict
		}
	}
	s.organizations[o.ID] = *o
	return nil
}

func (s *Store) FindOrganization(_ context.Context, id string) (*orgs.Organization, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	o, ok := s.organizations[id]
	if !ok {
		return nil, auth.ErrNotFound
	}
	return &o, nil
}

func (s *Store) ListOrganizations(_ context.Context) ([]*orgs.Organization, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*orgs.Organization, 0, len(s.organizations))
	for _, o := range s.organizations {
		o := o
		out = append(out, &o)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *Store) UpdateOrganization(_ context.Context, o *orgs.Organization) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.organizations[o.ID]; !ok {
		return auth.ErrNotFound
	}
	for id, existing := range s.organizations {
		if id != o.ID && existing.VATNumber == o.VATNumber {
			return auth.ErrConflict
		}
	}
	s.organizations[o.ID] = *o
	return nil
}

// DeleteOrganization removes the organization and its users.
func (s *Store) DeleteOrganization(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.organizations[id]; !ok {
		return auth.ErrNotFound
	}
	delete(s.organizations, id)
	for k, p := range s.principals {
		if k.kind == auth.KindOrgUser && p.OrganizationID == id {
			delete(s.principals, k)
		}
	}
	return nil
}

// Ping always succeeds.
func (s *Store) Ping(context.Context) error { return nil }
