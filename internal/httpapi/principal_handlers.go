package httpapi

import (
	"net/http"

	"orgdesk.io/internal/audit"
	"orgdesk.io/internal/auth"
	"orgdesk.io/internal/orgs"
)

func (a *API) handleListOrgUsers(w http.ResponseWriter, r *http.Request, p *auth.Principal) {
	orgID, ok := pathID(w, r)
	if !ok || !ensureOrganization(w, r, p, orgID) {
		return
	}
	if _, err := a.orgs.Get(r.Context(), orgID); err != nil {
		handleServiceError(w, r, err)
		return
	}
	users, err := a.auth.ListOrgUsers(r.Context(), orgID)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"users": users})
}

func (a *API) handleCreateOrgUser(w http.ResponseWriter, r *http.Request, p *auth.Principal) {
	orgID, ok := pathID(w, r)
	if !ok || !ensureOrganization(w, r, p, orgID) {
		return
	}
	var req auth.NewPrincipal
	if !readJSON(w, r, &req) {
		return
	}
	if !canGrant(p, auth.ParseDesignation(req.Designation)) {
		deny(w, r, auth.ReasonInsufficientRole)
		return
	}
	if !a.requireActiveOrganization(w, r, orgID) {
		return
	}
	user, err := a.auth.CreateOrgUser(r.Context(), orgID, req)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	_ = audit.LogEvent(r.Context(), "user.create", map[string]any{
		"user":         user.ID,
		"organization": orgID,
		"designation":  user.Designation.String(),
	})
	w.Header().Set("Location", "/v1/users/"+user.ID)
	writeJSON(w, http.StatusCreated, user)
}

// requireActiveOrganization refuses to add or re-activate members of an
// organization that is not active.
func (a *API) requireActiveOrganization(w http.ResponseWriter, r *http.Request, orgID string) bool {
	org, err := a.orgs.Get(r.Context(), orgID)
	if err != nil {
		handleServiceError(w, r, err)
		return false
	}
	if org.Status != orgs.StatusActive {
		writeError(w, r, http.StatusConflict, "organization is not active")
		return false
	}
	return true
}

// loadOrgUser fetches the target user inside p's tenancy. With manage set, p
// must also hold every capability of the target.
func (a *API) loadOrgUser(w http.ResponseWriter, r *http.Request, p *auth.Principal, manage bool) (*auth.Principal, bool) {
	id, ok := pathID(w, r)
	if !ok {
		return nil, false
	}
	user, err := a.auth.GetPrincipal(r.Context(), auth.KindOrgUser, id)
	if err != nil {
		handleServiceError(w, r, err)
		return nil, false
	}
	if !ensureOrganization(w, r, p, user.OrganizationID) {
		return nil, false
	}
	if manage && !canGrant(p, user.Designation) {
		deny(w, r, auth.ReasonInsufficientRole)
		return nil, false
	}
	return user, true
}

func (a *API) handleGetOrgUser(w http.ResponseWriter, r *http.Request, p *auth.Principal) {
	if p.Kind == auth.KindOrgUser && p.ID == r.PathValue("id") {
		writeJSON(w, http.StatusOK, p)
		return
	}
	if d := auth.Authorize(p, auth.CapManageUsers); !d.Allowed {
		deny(w, r, d.Reason)
		return
	}
	user, ok := a.loadOrgUser(w, r, p, false)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, user)
}

func (a *API) handleUpdateOrgUser(w http.ResponseWriter, r *http.Request, p *auth.Principal) {
	user, ok := a.loadOrgUser(w, r, p, true)
	if !ok {
		return
	}
	var req auth.PrincipalUpdate
	if !readJSON(w, r, &req) {
		return
	}
	if req.Designation != nil && !canGrant(p, auth.ParseDesignation(*req.Designation)) {
		deny(w, r, auth.ReasonInsufficientRole)
		return
	}
	if req.Status != nil {
		st, err := auth.ParseStatus(*req.Status)
		if err == nil && st == auth.StatusActive && !a.requireActiveOrganization(w, r, user.OrganizationID) {
			return
		}
	}
	updated, err := a.auth.UpdatePrincipal(r.Context(), auth.KindOrgUser, user.ID, req)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	_ = audit.LogEvent(r.Context(), "user.update", map[string]any{
		"user":             updated.ID,
		"designation":      updated.Designation.String(),
		"status":           string(updated.Status),
		"password_rotated": req.Password != nil,
	})
	writeJSON(w, http.StatusOK, updated)
}

func (a *API) handleDeleteOrgUser(w http.ResponseWriter, r *http.Request, p *auth.Principal) {
	user, ok := a.loadOrgUser(w, r, p, true)
	if !ok {
		return
	}
	if user.ID == p.ID {
		writeError(w, r, http.StatusBadRequest, "cannot delete your own account")
		return
	}
	if err := a.auth.DeletePrincipal(r.Context(), auth.KindOrgUser, user.ID); err != nil {
		handleServiceError(w, r, err)
		return
	}
	_ = audit.LogEvent(r.Context(), "user.delete", map[string]any{
		"user":         user.ID,
		"organization": user.OrganizationID,
	})
	w.WriteHeader(http.StatusNoContent)
}

func (a *API) handleListAdmins(w http.ResponseWriter, r *http.Request, p *auth.Principal) {
	admins, err := a.auth.ListAdmins(r.Context())
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"admins": admins})
}

func (a *API) handleCreateAdmin(w http.ResponseWriter, r *http.Request, p *auth.Principal) {
	var req auth.NewPrincipal
	if !readJSON(w, r, &req) {
		return
	}
	admin, err := a.auth.CreateAdmin(r.Context(), req)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	_ = audit.LogEvent(r.Context(), "admin.create", map[string]any{
		"admin": admin.ID,
	})
	w.Header().Set("Location", "/v1/admins/"+admin.ID)
	writeJSON(w, http.StatusCreated, admin)
}

func (a *API) handleUpdateAdmin(w http.ResponseWriter, r *http.Request, p *auth.Principal) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req auth.PrincipalUpdate
	if !readJSON(w, r, &req) {
		return
	}
	admin, err := a.auth.UpdatePrincipal(r.Context(), auth.KindAdmin, id, req)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	_ = audit.LogEvent(r.Context(), "admin.update", map[string]any{
		"admin":            admin.ID,
		"status":           string(admin.Status),
		"password_rotated": req.Password != nil,
	})
	writeJSON(w, http.StatusOK, admin)
}

func (a *API) handleDeleteAdmin(w http.ResponseWriter, r *http.Request, p *auth.Principal) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if id == p.ID {
		writeError(w, r, http.StatusBadRequest, "cannot delete your own account")
		return
	}
	if err := a.auth.DeletePrincipal(r.Context(), auth.KindAdmin, id); err != nil {
		handleServiceError(w, r, err)
		return
	}
	_ = audit.LogEvent(r.Context(), "admin.delete", map[string]any{
		"admin": id,
	})
	w.WriteHeader(http.StatusNoContent)
}
