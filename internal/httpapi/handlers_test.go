package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"golang.org/x/crypto/bcrypt"

	"orgdesk.io/internal/auth"
	"orgdesk.io/internal/orgs"
	"orgdesk.io/internal/revocation"
	"orgdesk.io/internal/store/memory"
)

const testPassword = "password-1"

type apiClient struct {
	baseURL string
	client  *http.Client
	t       *testing.T

	auth *auth.Service
	orgs *orgs.Service

	acme   *orgs.Organization
	globex *orgs.Organization
	users  map[string]*auth.Principal
}

type session struct {
	AccessToken  string          `json:"access_token"`
	RefreshToken string          `json:"refresh_token"`
	Capabilities map[string]bool `json:"capabilities"`
	Principal    struct {
		ID          string `json:"id"`
		Kind        string `json:"kind"`
		Designation string `json:"designation"`
	} `json:"principal"`
}

// newTestAPI serves the full handler chain over an in-memory store seeded with
// a platform admin and two organizations.
func newTestAPI(t *testing.T, tweak ...func(*Options)) *apiClient {
	t.Helper()

	store := memory.New()
	issuer, err := auth.NewIssuer([]byte(strings.Repeat("s", auth.MinSecretLength)), revocation.NewMemory())
	if err != nil {
		t.Fatalf("issuer: %v", err)
	}
	authSvc, err := auth.NewService(store, auth.NewHasher(bcrypt.MinCost), issuer)
	if err != nil {
		t.Fatalf("auth service: %v", err)
	}
	orgSvc := orgs.NewService(store, authSvc)

	opts := Options{
		Auth:       authSvc,
		Orgs:       orgSvc,
		Ready:      ReadyProbe{Checks: []Pinger{store}},
		Version:    "test",
		RateBurst:  1000,
		RatePerSec: 1000,
	}
	for _, fn := range tweak {
		fn(&opts)
	}
	srv := httptest.NewServer(New(opts).Handler())
	t.Cleanup(srv.Close)

	c := &apiClient{
		baseURL: srv.URL,
		client:  srv.Client(),
		t:       t,
		auth:    authSvc,
		orgs:    orgSvc,
		users:   make(map[string]*auth.Principal),
	}
	c.seed()
	return c
}

func (c *apiClient) seed() {
	c.t.Helper()
	ctx := context.Background()

	root, err := c.auth.CreateAdmin(ctx, auth.NewPrincipal{Name: "Root", Email: "root@orgdesk.test", Password: testPassword})
	if err != nil {
		c.t.Fatalf("create admin: %v", err)
	}
	c.users["root"] = root

	if c.acme, err = c.orgs.Create(ctx, orgs.NewOrganization{Name: "Acme", VATNumber: "ACME12345"}); err != nil {
		c.t.Fatalf("create org: %v", err)
	}
	if c.globex, err = c.orgs.Create(ctx, orgs.NewOrganization{Name: "Globex", VATNumber: "GLOBEX123"}); err != nil {
		c.t.Fatalf("create org: %v", err)
	}
	for _, u := range []struct{ key, org, designation string }{
		{"admin", c.acme.ID, "Admin"},
		{"manager", c.acme.ID, "Manager"},
		{"cashier", c.acme.ID, "Cashier"},
		{"other", c.acme.ID, "Other"},
		{"globex", c.globex.ID, "Manager"},
	} {
		p, err := c.auth.CreateOrgUser(ctx, u.org, auth.NewPrincipal{
			Name:        strings.ToUpper(u.key[:1]) + u.key[1:],
			Email:       u.key + "@users.test",
			Password:    testPassword,
			Designation: u.designation,
		})
		if err != nil {
			c.t.Fatalf("create user %s: %v", u.key, err)
		}
		c.users[u.key] = p
	}
}

func (c *apiClient) do(method, path, token string, body any, headers ...string) *http.Response {
	c.t.Helper()
	var payload []byte
	if body != nil {
		var err error
		if s, ok := body.(string); ok {
			payload = []byte(s)
		} else if payload, err = json.Marshal(body); err != nil {
			c.t.Fatalf("marshal body: %v", err)
		}
	}
	req, err := http.NewRequest(method, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		c.t.Fatalf("new request: %v", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	resp, err := c.client.Do(req)
	if err != nil {
		c.t.Fatalf("do request: %v", err)
	}
	return resp
}

func (c *apiClient) login(key string) session {
	c.t.Helper()
	kind := "org_user"
	if key == "root" {
		kind = "admin"
	}
	resp := c.do(http.MethodPost, "/v1/auth/login", "", map[string]string{
		"email":    c.users[key].Email,
		"password": testPassword,
		"kind":     kind,
	})
	expectStatus(c.t, resp, http.StatusOK)
	s := decode[session](c.t, resp)
	if s.AccessToken == "" || s.RefreshToken == "" {
		c.t.Fatalf("empty tokens issued for %s", key)
	}
	return s
}

func decode[T any](t *testing.T, r *http.Response) T {
	t.Helper()
	defer r.Body.Close()
	var v T
	if err := json.NewDecoder(r.Body).Decode(&v); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return v
}

func expectStatus(t *testing.T, r *http.Response, want int) {
	t.Helper()
	if r.StatusCode != want {
		var body bytes.Buffer
		_, _ = body.ReadFrom(r.Body)
		r.Body.Close()
		t.Fatalf("expected status %d, got %d: %s", want, r.StatusCode, body.String())
	}
}

func expectError(t *testing.T, r *http.Response, status int, message string) map[string]any {
	t.Helper()
	expectStatus(t, r, status)
	body := decode[map[string]any](t, r)
	if body["message"] != message {
		t.Fatalf("expected message %q, got %v", message, body["message"])
	}
	if status == http.StatusUnauthorized && r.Header.Get("WWW-Authenticate") == "" {
		t.Fatalf("expected WWW-Authenticate header on 401")
	}
	return body
}

func TestHealthReadyAndMetrics(t *testing.T) {
	c := newTestAPI(t)

	resp := c.do(http.MethodGet, "/healthz", "", nil)
	expectStatus(t, resp, http.StatusOK)
	if body := decode[map[string]any](t, resp); body["version"] != "test" {
		t.Fatalf("unexpected health body %v", body)
	}

	resp = c.do(http.MethodGet, "/readyz", "", nil)
	expectStatus(t, resp, http.StatusOK)
	resp.Body.Close()

	resp = c.do(http.MethodGet, "/metrics", "", nil)
	expectStatus(t, resp, http.StatusOK)
	resp.Body.Close()
}

func TestLoginIssuesSessionWithCapabilities(t *testing.T) {
	c := newTestAPI(t)

	s := c.login("manager")
	if s.Principal.ID != c.users["manager"].ID || s.Principal.Designation != "Manager" {
		t.Fatalf("unexpected principal %+v", s.Principal)
	}
	if !s.Capabilities["canManageUsers"] || s.Capabilities["canDeleteUser"] {
		t.Fatalf("unexpected capabilities %v", s.Capabilities)
	}

	resp := c.do(http.MethodGet, "/v1/auth/me", s.AccessToken, nil)
	expectStatus(t, resp, http.StatusOK)
	me := decode[map[string]any](t, resp)
	if me["dashboard"] != "full" {
		t.Fatalf("expected full dashboard, got %v", me["dashboard"])
	}
	if _, leaked := me["principal"].(map[string]any)["password_hash"]; leaked {
		t.Fatalf("password hash must never be serialized")
	}

	root := c.login("root")
	if root.Principal.Kind != "admin" || !root.Capabilities["canDeleteUser"] {
		t.Fatalf("platform admin should hold every capability: %+v", root)
	}
}

func TestLoginFailuresAreGeneric(t *testing.T) {
	c := newTestAPI(t)

	cases := map[string]map[string]string{
		"wrong password": {"email": "manager@users.test", "password": "password-2"},
		"unknown email":  {"email": "nobody@users.test", "password": testPassword},
		"wrong kind":     {"email": "root@orgdesk.test", "password": testPassword, "kind": "org_user"},
		"bogus kind":     {"email": "root@orgdesk.test", "password": testPassword, "kind": "robot"},
		"empty password": {"email": "manager@users.test", "password": ""},
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			resp := c.do(http.MethodPost, "/v1/auth/login", "", body)
			expectError(t, resp, http.StatusUnauthorized, "invalid credentials")
		})
	}

	resp := c.do(http.MethodPost, "/v1/auth/login", "", `{"email":"a@b.c","password":"x","extra":1}`)
	expectStatus(t, resp, http.StatusBadRequest)
	resp.Body.Close()
}

func TestProtectedRoutesRequireBearer(t *testing.T) {
	c := newTestAPI(t)

	for name, header := range map[string]string{
		"missing": "",
		"basic":   "Basic dXNlcjpwYXNz",
		"garbage": "Bearer not-a-jwt",
	} {
		t.Run(name, func(t *testing.T) {
			var headers []string
			if header != "" {
				headers = []string{"Authorization", header}
			}
			resp := c.do(http.MethodGet, "/v1/auth/me", "", nil, headers...)
			expectError(t, resp, http.StatusUnauthorized, "authentication required")
		})
	}
}

func TestErrorBodyCarriesRequestID(t *testing.T) {
	c := newTestAPI(t)

	resp := c.do(http.MethodGet, "/v1/dashboard", "", nil, "X-Request-ID", "req-123")
	if resp.Header.Get("X-Request-ID") != "req-123" {
		t.Fatalf("request id not echoed")
	}
	body := expectError(t, resp, http.StatusUnauthorized, "authentication required")
	if body["request_id"] != "req-123" {
		t.Fatalf("expected request_id in body, got %v", body)
	}
}

func TestDashboardViews(t *testing.T) {
	c := newTestAPI(t)

	cases := []struct {
		user   string
		status int
		view   string
	}{
		{"root", http.StatusOK, "full"},
		{"admin", http.StatusOK, "full"},
		{"manager", http.StatusOK, "full"},
		{"cashier", http.StatusOK, "cashier"},
		{"other", http.StatusForbidden, ""},
	}
	for _, tc := range cases {
		t.Run(tc.user, func(t *testing.T) {
			resp := c.do(http.MethodGet, "/v1/dashboard", c.login(tc.user).AccessToken, nil)
			if tc.status != http.StatusOK {
				expectError(t, resp, tc.status, "insufficient role")
				return
			}
			expectStatus(t, resp, tc.status)
			body := decode[map[string]any](t, resp)
			if body["view"] != tc.view {
				t.Fatalf("expected view %q, got %v", tc.view, body["view"])
			}
			if tc.view == "cashier" {
				org := body["organization"].(map[string]any)
				if _, ok := org["vat_number"]; ok {
					t.Fatalf("cashier view must not expose organization details: %v", org)
				}
			}
		})
	}
}

func TestAuthorizeProbe(t *testing.T) {
	c := newTestAPI(t)

	cashier := c.login("cashier").AccessToken
	resp := c.do(http.MethodPost, "/v1/auth/authorize", cashier, map[string]string{"capability": "canProcessRefunds"})
	expectStatus(t, resp, http.StatusOK)
	body := decode[map[string]any](t, resp)
	if body["allowed"] != false || body["reason"] != "insufficient_role" {
		t.Fatalf("unexpected decision %v", body)
	}

	manager := c.login("manager").AccessToken
	resp = c.do(http.MethodPost, "/v1/auth/authorize", manager, map[string]string{"capability": "canProcessRefunds"})
	expectStatus(t, resp, http.StatusOK)
	if body := decode[map[string]any](t, resp); body["allowed"] != true {
		t.Fatalf("manager should process refunds: %v", body)
	}

	resp = c.do(http.MethodPost, "/v1/auth/authorize", manager, map[string]string{"capability": "canLaunchRockets"})
	expectStatus(t, resp, http.StatusBadRequest)
	resp.Body.Close()
}

func TestTenancyIsolation(t *testing.T) {
	c := newTestAPI(t)
	manager := c.login("manager").AccessToken

	resp := c.do(http.MethodGet, "/v1/organizations/"+c.acme.ID, manager, nil)
	expectStatus(t, resp, http.StatusOK)
	resp.Body.Close()

	resp = c.do(http.MethodGet, "/v1/organizations/"+c.acme.ID+"/users", manager, nil)
	expectStatus(t, resp, http.StatusOK)
	if users := decode[map[string][]any](t, resp)["users"]; len(users) != 4 {
		t.Fatalf("expected 4 acme users, got %d", len(users))
	}

	for _, path := range []string{
		"/v1/organizations/" + c.globex.ID,
		"/v1/organizations/" + c.globex.ID + "/users",
		"/v1/users/" + c.users["globex"].ID,
		"/v1/organizations",
		"/v1/admins",
	} {
		resp := c.do(http.MethodGet, path, manager, nil)
		expectError(t, resp, http.StatusForbidden, "insufficient role")
	}

	root := c.login("root").AccessToken
	resp = c.do(http.MethodGet, "/v1/organizations", root, nil)
	expectStatus(t, resp, http.StatusOK)
	if list := decode[map[string][]any](t, resp)["organizations"]; len(list) != 2 {
		t.Fatalf("expected 2 organizations, got %d", len(list))
	}
}

func TestUserManagementFollowsDesignation(t *testing.T) {
	c := newTestAPI(t)
	manager := c.login("manager").AccessToken
	orgAdmin := c.login("admin").AccessToken
	cashier := c.login("cashier").AccessToken
	usersPath := "/v1/organizations/" + c.acme.ID + "/users"

	newUser := map[string]string{"name": "New", "email": "new@users.test", "password": testPassword, "designation": "Cashier"}
	resp := c.do(http.MethodPost, usersPath, manager, newUser)
	expectStatus(t, resp, http.StatusCreated)
	created := decode[map[string]any](t, resp)
	id := created["id"].(string)
	if created["designation"] != "Cashier" || created["organization_id"] != c.acme.ID {
		t.Fatalf("unexpected user %v", created)
	}

	resp = c.do(http.MethodPost, usersPath, manager, newUser)
	expectError(t, resp, http.StatusConflict, "resource already exists")

	escalate := map[string]string{"name": "Boss", "email": "boss@users.test", "password": testPassword, "designation": "Admin"}
	resp = c.do(http.MethodPost, usersPath, manager, escalate)
	expectError(t, resp, http.StatusForbidden, "insufficient role")

	resp = c.do(http.MethodPatch, "/v1/users/"+c.users["admin"].ID, manager, map[string]string{"name": "Demoted"})
	expectError(t, resp, http.StatusForbidden, "insufficient role")

	resp = c.do(http.MethodPost, usersPath, cashier, escalate)
	expectError(t, resp, http.StatusForbidden, "insufficient role")

	resp = c.do(http.MethodPost, usersPath, manager, map[string]string{"name": "X", "email": "x@users.test", "password": "short", "designation": "Other"})
	expectStatus(t, resp, http.StatusBadRequest)
	resp.Body.Close()

	resp = c.do(http.MethodPatch, "/v1/users/"+id, manager, map[string]string{"designation": "Other"})
	expectStatus(t, resp, http.StatusOK)
	if body := decode[map[string]any](t, resp); body["designation"] != "Other" {
		t.Fatalf("designation not updated: %v", body)
	}

	resp = c.do(http.MethodDelete, "/v1/users/"+id, manager, nil)
	expectError(t, resp, http.StatusForbidden, "insufficient role")

	resp = c.do(http.MethodDelete, "/v1/users/"+id, orgAdmin, nil)
	expectStatus(t, resp, http.StatusNoContent)
	resp.Body.Close()

	resp = c.do(http.MethodGet, "/v1/users/"+id, orgAdmin, nil)
	expectError(t, resp, http.StatusNotFound, "resource not found")

	resp = c.do(http.MethodDelete, "/v1/users/"+c.users["admin"].ID, orgAdmin, nil)
	expectStatus(t, resp, http.StatusBadRequest)
	resp.Body.Close()
}

func TestUsersMayReadThemselves(t *testing.T) {
	c := newTestAPI(t)
	other := c.login("other").AccessToken

	resp := c.do(http.MethodGet, "/v1/users/"+c.users["other"].ID, other, nil)
	expectStatus(t, resp, http.StatusOK)
	resp.Body.Close()

	resp = c.do(http.MethodGet, "/v1/users/"+c.users["cashier"].ID, other, nil)
	expectError(t, resp, http.StatusForbidden, "insufficient role")
}

func TestDeactivationEndsSessions(t *testing.T) {
	c := newTestAPI(t)
	cashier := c.login("cashier")
	root := c.login("root").AccessToken

	resp := c.do(http.MethodPatch, "/v1/users/"+c.users["cashier"].ID, root, map[string]string{"status": "inactive"})
	expectStatus(t, resp, http.StatusOK)
	resp.Body.Close()

	resp = c.do(http.MethodGet, "/v1/auth/me", cashier.AccessToken, nil)
	expectError(t, resp, http.StatusUnauthorized, "authentication required")

	resp = c.do(http.MethodPost, "/v1/auth/refresh", "", map[string]string{"refresh_token": cashier.RefreshToken})
	expectError(t, resp, http.StatusUnauthorized, "token revoked")

	resp = c.do(http.MethodPost, "/v1/auth/login", "", map[string]string{"email": "cashier@users.test", "password": testPassword})
	expectError(t, resp, http.StatusUnauthorized, "invalid credentials")
}

func TestOrganizationLifecycle(t *testing.T) {
	c := newTestAPI(t)
	orgAdmin := c.login("admin").AccessToken
	globex := c.login("globex").AccessToken
	root := c.login("root").AccessToken
	orgPath := "/v1/organizations/" + c.acme.ID

	resp := c.do(http.MethodPatch, orgPath, orgAdmin, map[string]string{"status": "inactive"})
	expectError(t, resp, http.StatusForbidden, "insufficient role")

	resp = c.do(http.MethodPatch, orgPath, orgAdmin, map[string]string{"name": "Acme Ltd", "vat_number": "acme54321"})
	expectStatus(t, resp, http.StatusOK)
	if body := decode[map[string]any](t, resp); body["name"] != "Acme Ltd" || body["vat_number"] != "ACME54321" {
		t.Fatalf("unexpected organization %v", body)
	}

	resp = c.do(http.MethodPatch, orgPath, orgAdmin, map[string]string{"vat_number": "GLOBEX123"})
	expectError(t, resp, http.StatusConflict, "resource already exists")

	resp = c.do(http.MethodPost, "/v1/organizations", root, map[string]string{"name": "Initech", "vat_number": "INI12345"})
	expectStatus(t, resp, http.StatusCreated)
	if resp.Header.Get("Location") == "" {
		t.Fatalf("expected Location header")
	}
	resp.Body.Close()

	resp = c.do(http.MethodDelete, "/v1/organizations/"+c.globex.ID, orgAdmin, nil)
	expectError(t, resp, http.StatusForbidden, "insufficient role")

	resp = c.do(http.MethodDelete, "/v1/organizations/"+c.globex.ID, root, nil)
	expectStatus(t, resp, http.StatusNoContent)
	resp.Body.Close()

	resp = c.do(http.MethodGet, "/v1/auth/me", globex, nil)
	expectStatus(t, resp, http.StatusUnauthorized)
	resp.Body.Close()
}

func TestInactiveOrganizationAcceptsNoMembers(t *testing.T) {
	c := newTestAPI(t)
	root := c.login("root").AccessToken
	orgPath := "/v1/organizations/" + c.globex.ID

	resp := c.do(http.MethodPatch, orgPath, root, map[string]string{"status": "inactive"})
	expectStatus(t, resp, http.StatusOK)
	resp.Body.Close()

	resp = c.do(http.MethodPost, orgPath+"/users", root, map[string]string{
		"name":        "Late Hire",
		"email":       "late@users.test",
		"password":    testPassword,
		"designation": "Cashier",
	})
	expectError(t, resp, http.StatusConflict, "organization is not active")

	resp = c.do(http.MethodPatch, "/v1/users/"+c.users["globex"].ID, root, map[string]string{"status": "active"})
	expectError(t, resp, http.StatusConflict, "organization is not active")

	resp = c.do(http.MethodPost, "/v1/auth/login", "", map[string]string{"email": "globex@users.test", "password": testPassword})
	expectError(t, resp, http.StatusUnauthorized, "invalid credentials")

	resp = c.do(http.MethodPatch, orgPath, root, map[string]string{"status": "active"})
	expectStatus(t, resp, http.StatusOK)
	resp.Body.Close()

	resp = c.do(http.MethodPatch, "/v1/users/"+c.users["globex"].ID, root, map[string]string{"status": "active"})
	expectStatus(t, resp, http.StatusOK)
	resp.Body.Close()
}

func TestRefreshRotatesAndIsSingleUse(t *testing.T) {
	c := newTestAPI(t)
	s := c.login("manager")

	resp := c.do(http.MethodPost, "/v1/auth/refresh", "", map[string]string{"refresh_token": s.RefreshToken})
	expectStatus(t, resp, http.StatusOK)
	next := decode[session](t, resp)
	if next.AccessToken == "" || next.RefreshToken == s.RefreshToken {
		t.Fatalf("expected a fresh pair")
	}

	resp = c.do(http.MethodPost, "/v1/auth/refresh", "", map[string]string{"refresh_token": s.RefreshToken})
	expectError(t, resp, http.StatusUnauthorized, "token revoked")

	resp = c.do(http.MethodPost, "/v1/auth/refresh", "", map[string]string{"refresh_token": s.AccessToken})
	expectError(t, resp, http.StatusUnauthorized, "invalid token")
}

func TestLogoutRevokesTokens(t *testing.T) {
	c := newTestAPI(t)
	s := c.login("manager")

	resp := c.do(http.MethodPost, "/v1/auth/logout", s.AccessToken, map[string]string{"refresh_token": s.RefreshToken})
	expectStatus(t, resp, http.StatusNoContent)
	resp.Body.Close()

	resp = c.do(http.MethodGet, "/v1/auth/me", s.AccessToken, nil)
	expectStatus(t, resp, http.StatusUnauthorized)
	resp.Body.Close()

	resp = c.do(http.MethodPost, "/v1/auth/refresh", "", map[string]string{"refresh_token": s.RefreshToken})
	expectError(t, resp, http.StatusUnauthorized, "token revoked")

	other := c.login("other")
	resp = c.do(http.MethodPost, "/v1/auth/logout", other.AccessToken, nil)
	expectStatus(t, resp, http.StatusNoContent)
	resp.Body.Close()

	// logging out with the bearer alone also ends the refresh token
	resp = c.do(http.MethodPost, "/v1/auth/refresh", "", map[string]string{"refresh_token": other.RefreshToken})
	expectError(t, resp, http.StatusUnauthorized, "token revoked")
}

func TestChangePassword(t *testing.T) {
	c := newTestAPI(t)
	s := c.login("cashier")

	resp := c.do(http.MethodPut, "/v1/auth/password", s.AccessToken, map[string]string{
		"current_password": "not-the-password",
		"new_password":     "password-2",
	})
	expectError(t, resp, http.StatusBadRequest, "invalid input: current password is incorrect")

	// the session survives a mistyped current password
	resp = c.do(http.MethodGet, "/v1/auth/me", s.AccessToken, nil)
	expectStatus(t, resp, http.StatusOK)
	resp.Body.Close()

	resp = c.do(http.MethodPut, "/v1/auth/password", s.AccessToken, map[string]string{
		"current_password": testPassword,
		"new_password":     "password-2",
	})
	expectStatus(t, resp, http.StatusNoContent)
	resp.Body.Close()

	resp = c.do(http.MethodGet, "/v1/auth/me", s.AccessToken, nil)
	expectStatus(t, resp, http.StatusUnauthorized)
	resp.Body.Close()

	resp = c.do(http.MethodPost, "/v1/auth/login", "", map[string]string{"email": "cashier@users.test", "password": "password-2"})
	expectStatus(t, resp, http.StatusOK)
	fresh := decode[session](t, resp)

	resp = c.do(http.MethodGet, "/v1/auth/me", fresh.AccessToken, nil)
	expectStatus(t, resp, http.StatusOK)
	resp.Body.Close()
}

func TestAdminManagement(t *testing.T) {
	c := newTestAPI(t)
	root := c.login("root").AccessToken

	resp := c.do(http.MethodPost, "/v1/admins", root, map[string]string{"name": "Ops", "email": "ops@orgdesk.test", "password": testPassword})
	expectStatus(t, resp, http.StatusCreated)
	ops := decode[map[string]any](t, resp)
	opsID := ops["id"].(string)

	resp = c.do(http.MethodGet, "/v1/admins", root, nil)
	expectStatus(t, resp, http.StatusOK)
	if list := decode[map[string][]any](t, resp)["admins"]; len(list) != 2 {
		t.Fatalf("expected 2 admins, got %d", len(list))
	}

	resp = c.do(http.MethodPatch, "/v1/admins/"+opsID, root, map[string]string{"name": "Operations"})
	expectStatus(t, resp, http.StatusOK)
	resp.Body.Close()

	resp = c.do(http.MethodDelete, "/v1/admins/"+c.users["root"].ID, root, nil)
	expectStatus(t, resp, http.StatusBadRequest)
	resp.Body.Close()

	resp = c.do(http.MethodDelete, "/v1/admins/"+opsID, root, nil)
	expectStatus(t, resp, http.StatusNoContent)
	resp.Body.Close()

	resp = c.do(http.MethodGet, "/v1/admins", root, nil)
	expectStatus(t, resp, http.StatusOK)
	if list := decode[map[string][]any](t, resp)["admins"]; len(list) != 1 {
		t.Fatalf("soft-deleted admin should be hidden, got %d", len(list))
	}

	resp = c.do(http.MethodPost, "/v1/auth/login", "", map[string]string{"email": "ops@orgdesk.test", "password": testPassword, "kind": "admin"})
	expectError(t, resp, http.StatusUnauthorized, "invalid credentials")
}

func TestUnknownResources(t *testing.T) {
	c := newTestAPI(t)
	root := c.login("root").AccessToken

	resp := c.do(http.MethodGet, "/v1/organizations/not-an-id", root, nil)
	expectError(t, resp, http.StatusNotFound, "resource not found")

	resp = c.do(http.MethodGet, "/v1/nothing-here", root, nil)
	expectError(t, resp, http.StatusNotFound, "resource not found")

	resp = c.do(http.MethodGet, "/v1/organizations/01ARZ3NDEKTSV4RRFFQ69G5FAV", root, nil)
	expectError(t, resp, http.StatusNotFound, "resource not found")
}

func TestBodyLimit(t *testing.T) {
	c := newTestAPI(t, func(o *Options) { o.MaxBodyBytes = 64 })

	big := map[string]string{"email": strings.Repeat("a", 100) + "@users.test", "password": testPassword}
	resp := c.do(http.MethodPost, "/v1/auth/login", "", big)
	expectError(t, resp, http.StatusRequestEntityTooLarge, "request body too large")
}
