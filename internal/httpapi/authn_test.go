package httpapi

import (
	"testing"

	"orgdesk.io/internal/auth"
)

func TestExtractBearerToken(t *testing.T) {
	cases := []struct {
		header string
		token  string
		ok     bool
	}{
		{"Bearer abc.def.ghi", "abc.def.ghi", true},
		{"bearer   abc ", "abc", true},
		{"", "", false},
		{"Bearer ", "", false},
		{"Basic dXNlcjpwYXNz", "", false},
		{"Bear", "", false},
	}
	for _, tc := range cases {
		token, err := extractBearerToken(tc.header)
		if tc.ok && (err != nil || token != tc.token) {
			t.Fatalf("header %q: expected %q, got %q (%v)", tc.header, tc.token, token, err)
		}
		if !tc.ok && err == nil {
			t.Fatalf("header %q: expected error", tc.header)
		}
	}
}

func TestCanGrant(t *testing.T) {
	principal := func(kind auth.Kind, d auth.Designation) *auth.Principal {
		return &auth.Principal{ID: "p", Kind: kind, Designation: d, Status: auth.StatusActive}
	}
	cases := []struct {
		name   string
		actor  *auth.Principal
		target auth.Designation
		want   bool
	}{
		{"platform admin grants admin", principal(auth.KindAdmin, auth.DesignationUnknown), auth.DesignationAdmin, true},
		{"org admin grants admin", principal(auth.KindOrgUser, auth.DesignationAdmin), auth.DesignationAdmin, true},
		{"manager grants manager", principal(auth.KindOrgUser, auth.DesignationManager), auth.DesignationManager, true},
		{"manager grants cashier", principal(auth.KindOrgUser, auth.DesignationManager), auth.DesignationCashier, true},
		{"manager cannot grant admin", principal(auth.KindOrgUser, auth.DesignationManager), auth.DesignationAdmin, false},
		{"cashier cannot grant manager", principal(auth.KindOrgUser, auth.DesignationCashier), auth.DesignationManager, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := canGrant(tc.actor, tc.target); got != tc.want {
				t.Fatalf("expected %v, got %v", tc.want, got)
			}
		})
	}
}

func TestDashboardView(t *testing.T) {
	cases := map[auth.Designation]string{
		auth.DesignationAdmin:   dashboardFull,
		auth.DesignationManager: dashboardFull,
		auth.DesignationCashier: dashboardCashier,
		auth.DesignationOther:   dashboardNone,
		auth.DesignationUnknown: dashboardNone,
	}
	for d, want := range cases {
		p := &auth.Principal{Kind: auth.KindOrgUser, Designation: d, Status: auth.StatusActive}
		if got := dashboardView(p); got != want {
			t.Fatalf("%v: expected %s, got %s", d, want, got)
		}
	}
}
