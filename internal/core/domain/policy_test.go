package domain

import "testing"

func TestNavigationPolicy_Decide(t *testing.T) {
	policy := DefaultNavigationPolicy()

	cases := []struct {
		name          string
		path          string
		authenticated bool
		want          string
	}{
		{"dashboard without session", "/dashboard", false, "/login"},
		{"dashboard subpath without session", "/dashboard/settings", false, "/login"},
		{"deep dashboard subpath without session", "/dashboard/settings/security", false, "/login"},
		{"dashboard with session", "/dashboard", true, ""},
		{"dashboard subpath with session", "/dashboard/settings", true, ""},
		{"login with session", "/login", true, "/dashboard"},
		{"register with session", "/register", true, "/dashboard"},
		{"login without session", "/login", false, ""},
		{"register without session", "/register", false, ""},
		{"unmatched path without session", "/about", false, ""},
		{"unmatched path with session", "/about", true, ""},
		{"root without session", "/", false, ""},
		{"prefix lookalike is not dashboard", "/dashboards", false, ""},
		{"exact rule does not match subpath", "/login/reset", true, ""},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := policy.Decide(tc.path, tc.authenticated); got != tc.want {
				t.Fatalf("Decide(%q, %v) = %q, want %q", tc.path, tc.authenticated, got, tc.want)
			}
		})
	}
}
