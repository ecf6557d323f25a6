package domain

import "strings"

// Requirement is the authentication state a path demands.
type Requirement int

const (
	// RequiresSession paths are only reachable when signed in.
	RequiresSession Requirement = iota
	// RequiresGuest paths (login, register) are only reachable when signed out.
	RequiresGuest
)

// PolicyRule maps one path pattern to a Requirement. Exact rules match the
// path verbatim; prefix rules match the path itself and any descendant.
type PolicyRule struct {
	Path     string
	Exact    bool
	Requires Requirement
}

// NavigationPolicy is the static table consulted by both the request-time
// route guard and the client-side session synchronizer. The two checks must
// share one table; divergence between them is a defect.
type NavigationPolicy struct {
	Rules         []PolicyRule
	LoginPath     string
	DashboardPath string
}

// DefaultNavigationPolicy returns the fixed policy for this application:
// /login and /register require no session, /dashboard and everything under
// it requires a session, all other paths are unrestricted.
func DefaultNavigationPolicy() NavigationPolicy {
	return NavigationPolicy{
		Rules: []PolicyRule{
			{Path: "/login", Exact: true, Requires: RequiresGuest},
			{Path: "/register", Exact: true, Requires: RequiresGuest},
			{Path: "/dashboard", Requires: RequiresSession},
		},
		LoginPath:     "/login",
		DashboardPath: "/dashboard",
	}
}

// Decide returns the redirect target for the given path and session state,
// or "" when the navigation is allowed. The table is consulted in order and
// the first matching rule wins.
func (p NavigationPolicy) Decide(path string, authenticated bool) string {
	for _, rule := range p.Rules {
		if !rule.matches(path) {
			continue
		}
		switch rule.Requires {
		case RequiresSession:
			if !authenticated {
				return p.LoginPath
			}
		case RequiresGuest:
			if authenticated {
				return p.DashboardPath
			}
		}
		return ""
	}
	return ""
}

func (r PolicyRule) matches(path string) bool {
	if r.Exact {
		return path == r.Path
	}
	return path == r.Path || strings.HasPrefix(path, r.Path+"/")
}
