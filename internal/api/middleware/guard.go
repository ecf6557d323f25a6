package middleware

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/nimbuslabs/account-portal/internal/api/metrics"
	"github.com/nimbuslabs/account-portal/internal/core/domain"
	"github.com/nimbuslabs/account-portal/internal/core/ports"
)

// SessionCookie is the cookie carrying the signed session token.
const SessionCookie = "ap_session"

const sessionContextKey = "session"

// Guard is the network-boundary route guard. On every request it resolves
// the session from the cookie, injects it into the request context, and
// enforces the navigation policy before any handler runs. Backend
// unavailability degrades to "no session" so the unauthenticated default
// applies; it never takes the request down.
//
// The policy table here is the same one the client-side session
// synchronizer consults.
func Guard(auth ports.AuthService, policy domain.NavigationPolicy, log zerolog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			sess := resolveSession(c, auth, log)
			if sess != nil {
				c.Set(sessionContextKey, sess)
			}

			if target := policy.Decide(c.Request().URL.Path, sess != nil); target != "" {
				metrics.GuardRedirectsTotal.WithLabelValues(target).Inc()
				return c.Redirect(http.StatusFound, target)
			}
			return next(c)
		}
	}
}

func resolveSession(c echo.Context, auth ports.AuthService, log zerolog.Logger) *domain.Session {
	cookie, err := c.Cookie(SessionCookie)
	if err != nil || cookie.Value == "" {
		return nil
	}

	sess, err := auth.GetSession(c.Request().Context(), cookie.Value)
	if err != nil {
		if !errors.Is(err, domain.ErrSessionNotFound) {
			log.Warn().Err(err).Str("path", c.Request().URL.Path).Msg("session lookup failed, treating as unauthenticated")
		}
		return nil
	}
	return sess
}

// RequireSession gates JSON API routes: it returns 401 instead of
// redirecting, so API consumers get a machine-readable rejection.
func RequireSession() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if _, ok := c.Get(sessionContextKey).(*domain.Session); !ok {
				return echo.NewHTTPError(http.StatusUnauthorized, "not signed in")
			}
			return next(c)
		}
	}
}

// SessionFromContext returns the session the Guard resolved for this
// request, or nil when unauthenticated.
func SessionFromContext(c echo.Context) *domain.Session {
	sess, _ := c.Get(sessionContextKey).(*domain.Session)
	return sess
}
