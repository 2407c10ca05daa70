package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	defaultIssuer     = "orgdesk"
	defaultAccessTTL  = 15 * time.Minute
	defaultRefreshTTL = 24 * time.Hour * 14

	// MinSecretLength is the shortest HS256 signing secret accepted.
	MinSecretLength = 32

	tokenTypeAccess  = "access"
	tokenTypeRefresh = "refresh"
)

// Claims is the JWT payload of both token types.
type Claims struct {
	Kind        Kind   `json:"kind"`
	Designation string `json:"designation"`
	TokenType   string `json:"token_type"`
	SessionID   string `json:"sid"`
	// IssuedAtMilli orders tokens against revocation watermarks; iat only has second precision.
	IssuedAtMilli int64 `json:"iat_ms"`
	jwt.RegisteredClaims
}

// TokenPair represents access and refresh tokens along with their expirations.
type TokenPair struct {
	AccessToken      string    `json:"access_token"`
	RefreshToken     string    `json:"refresh_token"`
	AccessExpiresAt  time.Time `json:"access_expires_at"`
	RefreshExpiresAt time.Time `json:"refresh_expires_at"`
}

// Issuer signs, validates and revokes session tokens.
type Issuer struct {
	secret     []byte
	issuer     string
	accessTTL  time.Duration
	refreshTTL time.Duration
	now        func() time.Time
	revoked    RevocationList
}

// IssuerOption configures Issuer behavior.
type IssuerOption func(*Issuer) error

// WithIssuerName overrides the iss claim.
func WithIssuerName(name string) IssuerOption {
	return func(i *Issuer) error {
		if name = strings.TrimSpace(name); name != "" {
			i.issuer = name
		}
		return nil
	}
}

// WithAccessTTL configures access token lifetime.
func WithAccessTTL(ttl time.Duration) IssuerOption {
	return func(i *Issuer) error {
		if ttl > 0 {
			i.accessTTL = ttl
		}
		return nil
	}
}

// WithRefreshTTL configures refresh token lifetime.
func WithRefreshTTL(ttl time.Duration) IssuerOption {
	return func(i *Issuer) error {
		if ttl > 0 {
			i.refreshTTL = ttl
		}
		return nil
	}
}

// WithClock overrides time source (useful for tests).
func WithClock(fn func() time.Time) IssuerOption {
	return func(i *Issuer) error {
		if fn != nil {
			i.now = fn
		}
		return nil
	}
}

// NewIssuer constructs an HS256 issuer backed by the given revocation list.
func NewIssuer(secret []byte, revoked RevocationList, opts ...IssuerOption) (*Issuer, error) {
	if len(secret) < MinSecretLength {
		return nil, fmt.Errorf("auth: signing secret must be at least %d bytes", MinSecretLength)
	}
	if revoked == nil {
		return nil, errors.New("auth: revocation list is required")
	}
	i := &Issuer{
		secret:     append([]byte(nil), secret...),
		issuer:     defaultIssuer,
		accessTTL:  defaultAccessTTL,
		refreshTTL: defaultRefreshTTL,
		now:        time.Now,
		revoked:    revoked,
	}
	for _, opt := range opts {
		if err := opt(i); err != nil {
			return nil, err
		}
	}
	return i, nil
}

// RefreshTTL is the longest lifetime of any token this issuer signs.
func (i *Issuer) RefreshTTL() time.Duration { return i.refreshTTL }

// Issue signs a fresh access and refresh token for p under a new session.
func (i *Issuer) Issue(ctx context.Context, p *Principal) (TokenPair, error) {
	return i.issue(ctx, p, uuid.NewString())
}

// issue signs a pair bound to sessionID. Refreshing keeps the session so that
// ending it covers every pair it produced.
func (i *Issuer) issue(ctx context.Context, p *Principal, sessionID string) (TokenPair, error) {
	if p == nil || p.ID == "" {
		return TokenPair{}, invalidInput("principal is required")
	}
	if sessionID == "" {
		return TokenPair{}, invalidInput("session id is required")
	}
	now := i.now()
	issuedAt, err := i.issueMilli(ctx, p.ID, now)
	if err != nil {
		return TokenPair{}, err
	}
	t := signingInput{principal: p, sessionID: sessionID, now: now, issuedAt: issuedAt}
	access, accessExp, err := i.sign(t, tokenTypeAccess, i.accessTTL)
	if err != nil {
		return TokenPair{}, err
	}
	refresh, refreshExp, err := i.sign(t, tokenTypeRefresh, i.refreshTTL)
	if err != nil {
		return TokenPair{}, err
	}
	return TokenPair{
		AccessToken:      access,
		RefreshToken:     refresh,
		AccessExpiresAt:  accessExp,
		RefreshExpiresAt: refreshExp,
	}, nil
}

// issueMilli places a new token strictly after the principal's revocation
// watermark, so a token issued in the millisecond of a revocation survives it.
func (i *Issuer) issueMilli(ctx context.Context, principalID string, now time.Time) (int64, error) {
	at, ok, err := i.revoked.PrincipalRevokedAt(ctx, principalID)
	if err != nil {
		return 0, fmt.Errorf("auth: watermark lookup: %w", err)
	}
	ms := now.UnixMilli()
	if ok && ms <= at.UnixMilli() {
		ms = at.UnixMilli() + 1
	}
	return ms, nil
}

type signingInput struct {
	principal *Principal
	sessionID string
	now       time.Time
	issuedAt  int64
}

func (i *Issuer) sign(t signingInput, tokenType string, ttl time.Duration) (string, time.Time, error) {
	exp := t.now.Add(ttl)
	claims := Claims{
		Kind:          t.principal.Kind,
		Designation:   t.principal.EffectiveDesignation().String(),
		TokenType:     tokenType,
		SessionID:     t.sessionID,
		IssuedAtMilli: t.issuedAt,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   t.principal.ID,
			Issuer:    i.issuer,
			IssuedAt:  jwt.NewNumericDate(t.now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("auth: sign %s token: %w", tokenType, err)
	}
	return signed, exp, nil
}

func (i *Issuer) parse(token, tokenType string, opts ...jwt.ParserOption) (*Claims, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, ErrMalformedToken
	}
	opts = append([]jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(i.issuer),
		jwt.WithTimeFunc(i.now),
	}, opts...)
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (any, error) {
		return i.secret, nil
	}, opts...)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		return nil, ErrMalformedToken
	}
	if tokenType != "" && claims.TokenType != tokenType {
		return nil, ErrMalformedToken
	}
	if claims.Subject == "" || claims.ID == "" || claims.SessionID == "" || claims.ExpiresAt == nil {
		return nil, ErrMalformedToken
	}
	if _, err := ParseKind(string(claims.Kind)); err != nil || claims.Kind == "" {
		return nil, ErrMalformedToken
	}
	return claims, nil
}

// checkRevoked fails closed: a lookup error rejects the token.
func (i *Issuer) checkRevoked(ctx context.Context, claims *Claims) error {
	revoked, err := i.revoked.TokenRevoked(ctx, claims.ID)
	if err != nil {
		return fmt.Errorf("%w: lookup: %v", ErrRevokedToken, err)
	}
	if revoked {
		return ErrRevokedToken
	}
	ended, err := i.revoked.TokenRevoked(ctx, sessionKey(claims.SessionID))
	if err != nil {
		return fmt.Errorf("%w: lookup: %v", ErrRevokedToken, err)
	}
	if ended {
		return ErrRevokedToken
	}
	at, ok, err := i.revoked.PrincipalRevokedAt(ctx, claims.Subject)
	if err != nil {
		return fmt.Errorf("%w: lookup: %v", ErrRevokedToken, err)
	}
	if ok && claims.IssuedAtMilli <= at.UnixMilli() {
		return ErrRevokedToken
	}
	return nil
}

// sessionKey keeps session entries apart from jti entries in the shared list.
func sessionKey(sessionID string) string { return "sid:" + sessionID }

func refOf(claims *Claims) PrincipalRef {
	return PrincipalRef{
		ID:          claims.Subject,
		Kind:        claims.Kind,
		Designation: ParseDesignation(claims.Designation),
		SessionID:   claims.SessionID,
	}
}

// Validate checks an access token and returns the principal it asserts.
func (i *Issuer) Validate(ctx context.Context, accessToken string) (PrincipalRef, error) {
	claims, err := i.parse(accessToken, tokenTypeAccess, jwt.WithExpirationRequired())
	if err != nil {
		return PrincipalRef{}, err
	}
	if err := i.checkRevoked(ctx, claims); err != nil {
		return PrincipalRef{}, err
	}
	return refOf(claims), nil
}

// Refresh validates a refresh token and consumes it. A refresh token is
// exchangeable at most once.
func (i *Issuer) Refresh(ctx context.Context, refreshToken string) (PrincipalRef, error) {
	claims, err := i.parse(refreshToken, tokenTypeRefresh, jwt.WithExpirationRequired())
	if err != nil {
		return PrincipalRef{}, err
	}
	if err := i.checkRevoked(ctx, claims); err != nil {
		return PrincipalRef{}, err
	}
	inserted, err := i.revoked.MarkToken(ctx, claims.ID, i.remaining(claims))
	if err != nil {
		return PrincipalRef{}, fmt.Errorf("%w: consume: %v", ErrRevokedToken, err)
	}
	if !inserted {
		return PrincipalRef{}, ErrRevokedToken
	}
	return refOf(claims), nil
}

// Revoke rejects every token of principalID issued up to now. The watermark
// always moves forward so it also covers tokens issueMilli placed past an
// earlier revocation in the same millisecond.
func (i *Issuer) Revoke(ctx context.Context, principalID string) error {
	if principalID == "" {
		return invalidInput("principal id is required")
	}
	at := i.now()
	prev, ok, err := i.revoked.PrincipalRevokedAt(ctx, principalID)
	if err != nil {
		return fmt.Errorf("auth: watermark lookup: %w", err)
	}
	if ok && at.UnixMilli() <= prev.UnixMilli() {
		at = time.UnixMilli(prev.UnixMilli() + 1)
	}
	return i.revoked.RevokePrincipal(ctx, principalID, at, i.refreshTTL)
}

// RevokeToken denylists a single token until its natural expiry. Expired
// tokens need no entry.
func (i *Issuer) RevokeToken(ctx context.Context, token string) error {
	claims, err := i.parse(token, "", jwt.WithoutClaimsValidation())
	if err != nil {
		return err
	}
	ttl := i.remaining(claims)
	if ttl <= 0 {
		return nil
	}
	_, err = i.revoked.MarkToken(ctx, claims.ID, ttl)
	return err
}

// EndSession denylists token and the session it belongs to. Every token of
// the session, including refresh tokens the caller never presented, stops
// validating.
func (i *Issuer) EndSession(ctx context.Context, token string) error {
	claims, err := i.parse(token, "", jwt.WithoutClaimsValidation())
	if err != nil {
		return err
	}
	if ttl := i.remaining(claims); ttl > 0 {
		if _, err := i.revoked.MarkToken(ctx, claims.ID, ttl); err != nil {
			return err
		}
	}
	// Later refreshes of the session expire no later than refreshTTL from now.
	_, err = i.revoked.MarkToken(ctx, sessionKey(claims.SessionID), i.refreshTTL)
	return err
}

func (i *Issuer) remaining(claims *Claims) time.Duration {
	return claims.ExpiresAt.Time.Sub(i.now())
}

// Fingerprint returns a short, non-reversible tag of a token for logs.
func Fingerprint(token string) string {
	token = strings.TrimSpace(token)
	if token == "" {
		return ""
	}
	sum := uuid.NewSHA1(uuid.NameSpaceOID, []byte(token))
	return sum.String()[:8]
}
