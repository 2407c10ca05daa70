package httpapi

import (
	"errors"
	"net/http"
	"strings"

	"orgdesk.io/internal/auth"
	"orgdesk.io/internal/obs"
)

const (
	authHeader = "Authorization"
	bearer     = "Bearer "
)

// principalHandler is an endpoint that runs for an authenticated principal.
type principalHandler func(w http.ResponseWriter, r *http.Request, p *auth.Principal)

func extractBearerToken(header string) (string, error) {
	header = strings.TrimSpace(header)
	if header == "" {
		return "", errors.New("missing bearer token")
	}
	if len(header) < len(bearer) || !strings.EqualFold(header[:len(bearer)], bearer) {
		return "", errors.New("invalid authorization scheme")
	}
	token := strings.TrimSpace(header[len(bearer):])
	if token == "" {
		return "", errors.New("missing bearer token")
	}
	return token, nil
}

// serve records the decision and either runs next or answers with the denial.
func (a *API) serve(w http.ResponseWriter, r *http.Request, token string, p *auth.Principal, d auth.Decision, err error, next principalHandler) {
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	obs.ObserveDecision(d.Allowed, d.Reason.String())
	if !d.Allowed {
		writeDenial(w, r, d.Reason)
		return
	}
	ctx := auth.ContextWithPrincipal(r.Context(), p)
	ctx = auth.ContextWithToken(ctx, token)
	next(w, r.WithContext(ctx), p)
}

// authenticated admits any active principal.
func (a *API) authenticated(next principalHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token, _ := extractBearerToken(r.Header.Get(authHeader))
		p, d, err := a.guard.Authenticate(r.Context(), token)
		a.serve(w, r, token, p, d, err, next)
	}
}

// require admits active principals holding required.
func (a *API) require(required auth.Capability, next principalHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token, _ := extractBearerToken(r.Header.Get(authHeader))
		p, d, err := a.guard.Check(r.Context(), token, required)
		a.serve(w, r, token, p, d, err, next)
	}
}

// adminOnly admits active platform administrators.
func (a *API) adminOnly(next principalHandler) http.HandlerFunc {
	return a.authenticated(func(w http.ResponseWriter, r *http.Request, p *auth.Principal) {
		if p.Kind != auth.KindAdmin {
			deny(w, r, auth.ReasonInsufficientRole)
			return
		}
		next(w, r, p)
	})
}

// deny answers and records a denial decided inside a handler.
func deny(w http.ResponseWriter, r *http.Request, reason auth.DenyReason) {
	obs.ObserveDecision(false, reason.String())
	writeDenial(w, r, reason)
}

// ensureOrganization enforces tenancy: org users act only inside their own organization.
func ensureOrganization(w http.ResponseWriter, r *http.Request, p *auth.Principal, orgID string) bool {
	if p.InOrganization(orgID) {
		return true
	}
	deny(w, r, auth.ReasonInsufficientRole)
	return false
}

// canGrant reports whether p may hand out or manage the given designation.
// Nobody grants capabilities they do not hold themselves.
func canGrant(p *auth.Principal, d auth.Designation) bool {
	return auth.Capabilities(d)&^p.Capabilities() == 0
}
