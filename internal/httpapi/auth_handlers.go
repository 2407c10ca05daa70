package httpapi

import (
	"errors"
	"net/http"

	"orgdesk.io/internal/audit"
	"orgdesk.io/internal/auth"
	"orgdesk.io/internal/obs"
)

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Kind     string `json:"kind"`
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type changePasswordRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

type authorizeRequest struct {
	Capability string `json:"capability"`
}

type sessionResponse struct {
	auth.TokenPair
	Principal    *auth.Principal    `json:"principal"`
	Capabilities auth.CapabilitySet `json:"capabilities"`
}

type meResponse struct {
	Principal    *auth.Principal    `json:"principal"`
	Capabilities auth.CapabilitySet `json:"capabilities"`
	Dashboard    string             `json:"dashboard"`
}

const (
	dashboardFull    = "full"
	dashboardCashier = "cashier"
	dashboardNone    = "none"
)

// dashboardView picks the dashboard variant a principal is shown.
func dashboardView(p *auth.Principal) string {
	switch {
	case p.Capabilities().Has(auth.CapViewDashboard):
		return dashboardFull
	case p.EffectiveDesignation().CashierView():
		return dashboardCashier
	default:
		return dashboardNone
	}
}

func (a *API) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !readJSON(w, r, &req) {
		return
	}
	kind, err := auth.ParseKind(req.Kind)
	if err != nil {
		obs.ObserveLogin(false)
		writeError(w, r, http.StatusUnauthorized, auth.ErrInvalidCredentials.Error())
		return
	}
	pair, p, err := a.auth.Login(r.Context(), kind, req.Email, req.Password)
	if err != nil {
		obs.ObserveLogin(false)
		if errors.Is(err, auth.ErrInvalidCredentials) {
			_ = audit.LogEvent(r.Context(), "auth.login.failed", map[string]any{
				"kind": string(kind),
				"ip":   clientIP(r),
			})
		}
		handleServiceError(w, r, err)
		return
	}
	obs.ObserveLogin(true)
	ctx := auth.ContextWithPrincipal(r.Context(), p)
	_ = audit.LogEvent(ctx, "auth.login.succeeded", map[string]any{
		"ip":          clientIP(r),
		"fingerprint": auth.Fingerprint(pair.AccessToken),
	})
	writeJSON(w, http.StatusOK, sessionResponse{
		TokenPair:    pair,
		Principal:    p,
		Capabilities: p.Capabilities(),
	})
}

func (a *API) handleRefresh(w http.ResponseWriter, r *http.Request) {
	var req refreshRequest
	if !readJSON(w, r, &req) {
		return
	}
	pair, p, err := a.auth.RefreshSession(r.Context(), req.RefreshToken)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	_ = audit.LogEvent(auth.ContextWithPrincipal(r.Context(), p), "auth.session.refreshed", map[string]any{
		"fingerprint": auth.Fingerprint(pair.AccessToken),
	})
	writeJSON(w, http.StatusOK, sessionResponse{
		TokenPair:    pair,
		Principal:    p,
		Capabilities: p.Capabilities(),
	})
}

func (a *API) handleLogout(w http.ResponseWriter, r *http.Request, p *auth.Principal) {
	var req refreshRequest
	if r.ContentLength != 0 && !readJSON(w, r, &req) {
		return
	}
	token, _ := auth.TokenFromContext(r.Context())
	if err := a.auth.Logout(r.Context(), token, req.RefreshToken); err != nil {
		handleServiceError(w, r, err)
		return
	}
	_ = audit.LogEvent(r.Context(), "auth.logout", map[string]any{
		"fingerprint": auth.Fingerprint(token),
	})
	w.WriteHeader(http.StatusNoContent)
}

func (a *API) handleMe(w http.ResponseWriter, r *http.Request, p *auth.Principal) {
	writeJSON(w, http.StatusOK, meResponse{
		Principal:    p,
		Capabilities: p.Capabilities(),
		Dashboard:    dashboardView(p),
	})
}

func (a *API) handleChangePassword(w http.ResponseWriter, r *http.Request, p *auth.Principal) {
	var req changePasswordRequest
	if !readJSON(w, r, &req) {
		return
	}
	if err := a.auth.ChangePassword(r.Context(), p, req.CurrentPassword, req.NewPassword); err != nil {
		handleServiceError(w, r, err)
		return
	}
	_ = audit.LogEvent(r.Context(), "auth.password.changed", nil)
	w.WriteHeader(http.StatusNoContent)
}

// handleAuthorize lets the dashboard probe a capability without performing the action.
func (a *API) handleAuthorize(w http.ResponseWriter, r *http.Request, p *auth.Principal) {
	var req authorizeRequest
	if !readJSON(w, r, &req) {
		return
	}
	capability, err := auth.ParseCapability(req.Capability)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	d := auth.Authorize(p, capability)
	obs.ObserveDecision(d.Allowed, d.Reason.String())
	resp := map[string]any{
		"capability": capability.String(),
		"allowed":    d.Allowed,
	}
	if !d.Allowed {
		resp["reason"] = d.Reason.String()
	}
	writeJSON(w, http.StatusOK, resp)
}

func (a *API) handleDashboard(w http.ResponseWriter, r *http.Request, p *auth.Principal) {
	view := dashboardView(p)
	if view == dashboardNone {
		deny(w, r, auth.ReasonInsufficientRole)
		return
	}
	resp := map[string]any{
		"view":         view,
		"capabilities": p.Capabilities(),
	}
	if p.Kind == auth.KindAdmin {
		list, err := a.orgs.List(r.Context())
		if err != nil {
			handleServiceError(w, r, err)
			return
		}
		resp["organizations"] = len(list)
		writeJSON(w, http.StatusOK, resp)
		return
	}
	org, err := a.orgs.Get(r.Context(), p.OrganizationID)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	if view == dashboardCashier {
		resp["organization"] = map[string]string{"id": org.ID, "name": org.Name}
	} else {
		resp["organization"] = org
	}
	writeJSON(w, http.StatusOK, resp)
}
