package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

// Service composes credentials, tokens and the principal store into the
// session and principal-management operations.
type Service struct {
	store  PrincipalStore
	hasher *Hasher
	tokens *Issuer
	guard  *Guard
	now    func() time.Time
}

// NewService constructs Service from its collaborators.
func NewService(store PrincipalStore, hasher *Hasher, tokens *Issuer) (*Service, error) {
	if store == nil || hasher == nil || tokens == nil {
		return nil, errors.New("auth: store, hasher and issuer are required")
	}
	return &Service{
		store:  store,
		hasher: hasher,
		tokens: tokens,
		guard:  NewGuard(tokens, store),
		now:    tokens.now,
	}, nil
}

func (s *Service) Guard() *Guard   { return s.guard }
func (s *Service) Tokens() *Issuer { return s.tokens }

// Login exchanges credentials for a token pair. Every failure is
// ErrInvalidCredentials so callers cannot tell which part was wrong.
func (s *Service) Login(ctx context.Context, kind Kind, email, password string) (TokenPair, *Principal, error) {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		s.hasher.VerifyUnknown(password)
		return TokenPair{}, nil, ErrInvalidCredentials
	}
	principal, err := s.store.FindPrincipalByEmail(ctx, kind, email)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			return TokenPair{}, nil, err
		}
		s.hasher.VerifyUnknown(password)
		return TokenPair{}, nil, ErrInvalidCredentials
	}
	if !s.hasher.Verify(password, principal.PasswordHash) {
		return TokenPair{}, nil, ErrInvalidCredentials
	}
	if !principal.Active() {
		return TokenPair{}, nil, ErrInvalidCredentials
	}
	pair, err := s.tokens.Issue(ctx, principal)
	if err != nil {
		return TokenPair{}, nil, err
	}
	return pair, principal, nil
}

// RefreshSession consumes a refresh token and issues a fresh pair for the
// still-active principal behind it.
func (s *Service) RefreshSession(ctx context.Context, refreshToken string) (TokenPair, *Principal, error) {
	ref, err := s.tokens.Refresh(ctx, refreshToken)
	if err != nil {
		return TokenPair{}, nil, err
	}
	principal, err := s.store.FindPrincipal(ctx, ref.Kind, ref.ID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return TokenPair{}, nil, ErrRevokedToken
		}
		return TokenPair{}, nil, err
	}
	if !principal.Active() {
		return TokenPair{}, nil, &AccessError{Reason: ReasonAccountInactive}
	}
	pair, err := s.tokens.issue(ctx, principal, ref.SessionID)
	if err != nil {
		return TokenPair{}, nil, err
	}
	return pair, principal, nil
}

// Logout ends the session of the presented access token, which also
// invalidates its refresh token. A refresh token from another session, when
// given, is ended too.
func (s *Service) Logout(ctx context.Context, accessToken, refreshToken string) error {
	if err := s.tokens.EndSession(ctx, accessToken); err != nil {
		return err
	}
	if strings.TrimSpace(refreshToken) == "" {
		return nil
	}
	if err := s.tokens.EndSession(ctx, refreshToken); err != nil && !errors.Is(err, ErrInvalidToken) {
		return err
	}
	return nil
}

// Authenticate validates token and loads its active principal.
func (s *Service) Authenticate(ctx context.Context, token string) (*Principal, error) {
	principal, decision, err := s.guard.Authenticate(ctx, token)
	if err != nil {
		return nil, err
	}
	if err := decision.Err(); err != nil {
		return nil, err
	}
	return principal, nil
}

// Rotate replaces a principal's credential and revokes its outstanding tokens.
func (s *Service) Rotate(ctx context.Context, kind Kind, principalID, plaintext string) error {
	principal, err := s.store.FindPrincipal(ctx, kind, principalID)
	if err != nil {
		return err
	}
	if err := s.hasher.PrepareForPersistence(principal, &plaintext); err != nil {
		return err
	}
	principal.UpdatedAt = s.now().UTC()
	if err := s.store.UpdatePrincipal(ctx, principal); err != nil {
		return err
	}
	if err := s.tokens.Revoke(ctx, principal.ID); err != nil {
		return fmt.Errorf("auth: revoke sessions: %w", err)
	}
	return nil
}

// ChangePassword rotates the caller's own password after checking the current one.
func (s *Service) ChangePassword(ctx context.Context, principal *Principal, current, next string) error {
	if principal == nil {
		return &AccessError{Reason: ReasonUnauthenticated}
	}
	if !s.hasher.Verify(current, principal.PasswordHash) {
		return invalidInput("current password is incorrect")
	}
	if current == next {
		return invalidInput("new password must differ from the current one")
	}
	return s.Rotate(ctx, principal.Kind, principal.ID, next)
}
