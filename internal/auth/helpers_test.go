package auth

import (
	"context"
	"sort"
	"sync"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"orgdesk.io/internal/revocation"
)

var testSecret = []byte("0123456789abcdef0123456789abcdef")

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func newTestClock() *testClock {
	return &testClock{now: time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type mapStore struct {
	mu   sync.Mutex
	rows map[string]Principal
	err  error
}

func newMapStore() *mapStore {
	return &mapStore{rows: make(map[string]Principal)}
}

func (m *mapStore) FindPrincipal(_ context.Context, kind Kind, id string) (*Principal, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	p, ok := m.rows[id]
	if !ok || p.Kind != kind {
		return nil, ErrNotFound
	}
	return &p, nil
}

func (m *mapStore) FindPrincipalByEmail(_ context.Context, kind Kind, email string) (*Principal, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range m.rows {
		if p.Kind == kind && p.Email == email {
			return &p, nil
		}
	}
	return nil, ErrNotFound
}

func (m *mapStore) ListPrincipals(_ context.Context, f PrincipalFilter) ([]*Principal, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*Principal
	for _, p := range m.rows {
		if p.Kind != f.Kind || (f.OrganizationID != "" && p.OrganizationID != f.OrganizationID) {
			continue
		}
		p := p
		out = append(out, &p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *mapStore) CreatePrincipal(_ context.Context, p *Principal) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.rows {
		if existing.Kind == p.Kind && existing.Email == p.Email {
			return ErrConflict
		}
	}
	m.rows[p.ID] = *p
	return nil
}

func (m *mapStore) UpdatePrincipal(_ context.Context, p *Principal) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.rows[p.ID]; !ok {
		return ErrNotFound
	}
	m.rows[p.ID] = *p
	return nil
}

func (m *mapStore) DeletePrincipal(_ context.Context, _ Kind, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.rows[id]; !ok {
		return ErrNotFound
	}
	delete(m.rows, id)
	return nil
}

type fixture struct {
	clock   *testClock
	revoked *revocation.Memory
	store   *mapStore
	hasher  *Hasher
	issuer  *Issuer
	svc     *Service
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	clock := newTestClock()
	revoked := revocation.NewMemory().WithClock(clock.Now)
	issuer, err := NewIssuer(testSecret, revoked, WithClock(clock.Now))
	if err != nil {
		t.Fatalf("new issuer: %v", err)
	}
	store := newMapStore()
	hasher := NewHasher(bcrypt.MinCost)
	svc, err := NewService(store, hasher, issuer)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return &fixture{clock: clock, revoked: revoked, store: store, hasher: hasher, issuer: issuer, svc: svc}
}

func (f *fixture) orgUser(t *testing.T, email, designation string) *Principal {
	t.Helper()
	p, err := f.svc.CreateOrgUser(context.Background(), "org-1", NewPrincipal{
		Name:        "Test User",
		Email:       email,
		Password:    "password-1",
		Designation: designation,
	})
	if err != nil {
		t.Fatalf("create org user: %v", err)
	}
	return p
}
