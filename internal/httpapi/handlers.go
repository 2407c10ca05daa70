package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"orgdesk.io/internal/auth"
	"orgdesk.io/internal/obs"
	"orgdesk.io/internal/orgs"
)

// Pinger is a dependency the readiness probe consults.
type Pinger interface {
	Ping(ctx context.Context) error
}

// ReadyProbe checks every backing dependency. Nil entries are skipped.
type ReadyProbe struct {
	Checks []Pinger
}

func (rp ReadyProbe) Check(ctx context.Context) error {
	for _, c := range rp.Checks {
		if c == nil {
			continue
		}
		if err := c.Ping(ctx); err != nil {
			return err
		}
	}
	return nil
}

// Options wires the API to its services and limits.
type Options struct {
	Auth           *auth.Service
	Orgs           *orgs.Service
	Ready          ReadyProbe
	Version        string
	RateBurst      int
	RatePerSec     float64
	MaxBodyBytes   int64
	CORSOrigins    []string
	TrustedProxies TrustedProxies
}

// API is the HTTP layer.
type API struct {
	mux          *http.ServeMux
	auth         *auth.Service
	guard        *auth.Guard
	orgs         *orgs.Service
	readyProbe   ReadyProbe
	version      string
	rateBurst    int
	ratePerSec   float64
	maxBodyBytes int64
	corsOrigins  []string
	proxies      TrustedProxies
}

func New(opts Options) *API {
	a := &API{
		mux:          http.NewServeMux(),
		auth:         opts.Auth,
		guard:        opts.Auth.Guard(),
		orgs:         opts.Orgs,
		readyProbe:   opts.Ready,
		version:      opts.Version,
		rateBurst:    opts.RateBurst,
		ratePerSec:   opts.RatePerSec,
		maxBodyBytes: opts.MaxBodyBytes,
		corsOrigins:  opts.CORSOrigins,
		proxies:      opts.TrustedProxies,
	}
	if a.rateBurst <= 0 {
		a.rateBurst = 20
	}
	if a.ratePerSec <= 0 {
		a.ratePerSec = 10
	}
	if a.maxBodyBytes <= 0 {
		a.maxBodyBytes = 1 << 20
	}
	a.routes()
	return a
}

func (a *API) routes() {
	a.mux.HandleFunc("GET /healthz", a.Healthz)
	a.mux.HandleFunc("GET /readyz", a.Ready)
	a.mux.Handle("GET /metrics", obs.Handler())

	// sessions
	a.mux.HandleFunc("POST /v1/auth/login", a.handleLogin)
	a.mux.HandleFunc("POST /v1/auth/refresh", a.handleRefresh)
	a.mux.HandleFunc("POST /v1/auth/logout", a.authenticated(a.handleLogout))
	a.mux.HandleFunc("GET /v1/auth/me", a.authenticated(a.handleMe))
	a.mux.HandleFunc("PUT /v1/auth/password", a.authenticated(a.handleChangePassword))
	a.mux.HandleFunc("POST /v1/auth/authorize", a.authenticated(a.handleAuthorize))
	a.mux.HandleFunc("GET /v1/dashboard", a.authenticated(a.handleDashboard))

	// organizations
	a.mux.HandleFunc("POST /v1/organizations", a.adminOnly(a.handleCreateOrganization))
	a.mux.HandleFunc("GET /v1/organizations", a.adminOnly(a.handleListOrganizations))
	a.mux.HandleFunc("GET /v1/organizations/{id}", a.authenticated(a.handleGetOrganization))
	a.mux.HandleFunc("PATCH /v1/organizations/{id}", a.require(auth.CapEditOrganization, a.handleUpdateOrganization))
	a.mux.HandleFunc("DELETE /v1/organizations/{id}", a.adminOnly(a.handleDeleteOrganization))

	// organization users
	a.mux.HandleFunc("GET /v1/organizations/{id}/users", a.require(auth.CapManageUsers, a.handleListOrgUsers))
	a.mux.HandleFunc("POST /v1/organizations/{id}/users", a.require(auth.CapManageUsers, a.handleCreateOrgUser))
	a.mux.HandleFunc("GET /v1/users/{id}", a.authenticated(a.handleGetOrgUser))
	a.mux.HandleFunc("PATCH /v1/users/{id}", a.require(auth.CapManageUsers, a.handleUpdateOrgUser))
	a.mux.HandleFunc("DELETE /v1/users/{id}", a.require(auth.CapDeleteUser, a.handleDeleteOrgUser))

	// platform admins
	a.mux.HandleFunc("GET /v1/admins", a.adminOnly(a.handleListAdmins))
	a.mux.HandleFunc("POST /v1/admins", a.adminOnly(a.handleCreateAdmin))
	a.mux.HandleFunc("PATCH /v1/admins/{id}", a.adminOnly(a.handleUpdateAdmin))
	a.mux.HandleFunc("DELETE /v1/admins/{id}", a.adminOnly(a.handleDeleteAdmin))

	a.mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		writeError(w, r, http.StatusNotFound, "resource not found")
	})
}

// Handler returns the mux wrapped in the full middleware chain.
func (a *API) Handler() http.Handler {
	var h http.Handler = otelhttp.NewHandler(a.mux, "orgdesk-api")
	h = obs.Instrument(h)
	h = RateLimit(h, a.rateBurst, a.ratePerSec)
	h = MaxBodyBytes(h, a.maxBodyBytes)
	h = CORS(a.corsOrigins)(h)
	h = SecurityHeaders(h)
	h = LoggingJSON(h)
	h = ClientIP(a.proxies)(h)
	return RequestID(h)
}

func (a *API) Healthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"service": "orgdesk-api",
		"version": a.version,
	})
}

func (a *API) Ready(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()
	if err := a.readyProbe.Check(ctx); err != nil {
		obs.Logger().WithError(err).Warn("readiness check failed")
		writeJSON(w, http.StatusServiceUnavailable, map[string]any{
			"status": "not_ready",
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status": "ready",
	})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
