// Package revocation holds the shared denylist consulted on every token validation.
package revocation

import (
	"context"
	"sync"
	"time"
)

type watermark struct {
	at      time.Time
	expires time.Time
}

// Memory is a process-local revocation list. Entries expire lazily on read
// and eagerly through Sweep.
type Memory struct {
	mu         sync.Mutex
	tokens     map[string]time.Time
	principals map[string]watermark
	now        func() time.Time
}

// NewMemory returns an empty in-process revocation list.
func NewMemory() *Memory {
	return &Memory{
		tokens:     make(map[string]time.Time),
		principals: make(map[string]watermark),
		now:        time.Now,
	}
}

// WithClock overrides the time source (useful for tests).
func (m *Memory) WithClock(fn func() time.Time) *Memory {
	m.mu.Lock()
	defer m.mu.Unlock()
	if fn != nil {
		m.now = fn
	}
	return m
}

// MarkToken inserts jti until ttl elapses. It reports false when an unexpired
// entry already exists.
func (m *Memory) MarkToken(_ context.Context, jti string, ttl time.Duration) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := m.now()
	if exp, ok := m.tokens[jti]; ok && now.Before(exp) {
		return false, nil
	}
	m.tokens[jti] = now.Add(ttl)
	return true, nil
}

func (m *Memory) TokenRevoked(_ context.Context, jti string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	exp, ok := m.tokens[jti]
	return ok && m.now().Before(exp), nil
}

// RevokePrincipal raises the watermark of principalID. Watermarks never move backwards.
func (m *Memory) RevokePrincipal(_ context.Context, principalID string, at time.Time, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cur, ok := m.principals[principalID]
	if ok && cur.at.After(at) {
		at = cur.at
	}
	m.principals[principalID] = watermark{at: at, expires: m.now().Add(ttl)}
	return nil
}

func (m *Memory) PrincipalRevokedAt(_ context.Context, principalID string) (time.Time, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	w, ok := m.principals[principalID]
	if !ok || !m.now().Before(w.expires) {
		return time.Time{}, false, nil
	}
	return w.at, true, nil
}

// Sweep drops expired entries and returns how many were removed.
func (m *Memory) Sweep(now time.Time) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	removed := 0
	for jti, exp := range m.tokens {
		if !now.Before(exp) {
			delete(m.tokens, jti)
			removed++
		}
	}
	for id, w := range m.principals {
		if !now.Before(w.expires) {
			delete(m.principals, id)
			removed++
		}
	}
	return removed
}

// Len reports the number of live entries.
func (m *Memory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.tokens) + len(m.principals)
}
