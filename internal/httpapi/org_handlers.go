package httpapi

import (
	"net/http"

	"orgdesk.io/internal/audit"
	"orgdesk.io/internal/auth"
	"orgdesk.io/internal/ids"
	"orgdesk.io/internal/orgs"
)

// pathID returns the {id} segment, answering 404 itself when it is not a valid identifier.
func pathID(w http.ResponseWriter, r *http.Request) (string, bool) {
	id := r.PathValue("id")
	if !ids.Valid(id) {
		writeError(w, r, http.StatusNotFound, "resource not found")
		return "", false
	}
	return id, true
}

func (a *API) handleCreateOrganization(w http.ResponseWriter, r *http.Request, p *auth.Principal) {
	var req orgs.NewOrganization
	if !readJSON(w, r, &req) {
		return
	}
	org, err := a.orgs.Create(r.Context(), req)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	_ = audit.LogEvent(r.Context(), "organization.create", map[string]any{
		"organization": org.ID,
		"name":         org.Name,
	})
	w.Header().Set("Location", "/v1/organizations/"+org.ID)
	writeJSON(w, http.StatusCreated, org)
}

func (a *API) handleListOrganizations(w http.ResponseWriter, r *http.Request, p *auth.Principal) {
	list, err := a.orgs.List(r.Context())
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"organizations": list})
}

func (a *API) handleGetOrganization(w http.ResponseWriter, r *http.Request, p *auth.Principal) {
	id, ok := pathID(w, r)
	if !ok || !ensureOrganization(w, r, p, id) {
		return
	}
	org, err := a.orgs.Get(r.Context(), id)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, org)
}

func (a *API) handleUpdateOrganization(w http.ResponseWriter, r *http.Request, p *auth.Principal) {
	id, ok := pathID(w, r)
	if !ok || !ensureOrganization(w, r, p, id) {
		return
	}
	var req orgs.OrganizationUpdate
	if !readJSON(w, r, &req) {
		return
	}
	// Only platform admins switch an organization on or off.
	if req.Status != nil && p.Kind != auth.KindAdmin {
		deny(w, r, auth.ReasonInsufficientRole)
		return
	}
	org, err := a.orgs.Update(r.Context(), id, req)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	_ = audit.LogEvent(r.Context(), "organization.update", map[string]any{
		"organization": org.ID,
		"status":       string(org.Status),
	})
	writeJSON(w, http.StatusOK, org)
}

func (a *API) handleDeleteOrganization(w http.ResponseWriter, r *http.Request, p *auth.Principal) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := a.orgs.Delete(r.Context(), id); err != nil {
		handleServiceError(w, r, err)
		return
	}
	_ = audit.LogEvent(r.Context(), "organization.delete", map[string]any{
		"organization": id,
	})
	w.WriteHeader(http.StatusNoContent)
}
