package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/nimbuslabs/account-portal/internal/api/middleware"
	"github.com/nimbuslabs/account-portal/internal/core/domain"
)

// ctxSession extracts the session the route guard resolved for this request
// and fast-fails when it is absent. Handlers behind RequireSession can rely
// on it; the check here covers misconfigured route wiring.
func ctxSession(c echo.Context) (*domain.Session, error) {
	sess := middleware.SessionFromContext(c)
	if sess == nil {
		return nil, echo.NewHTTPError(http.StatusUnauthorized, "not signed in")
	}
	return sess, nil
}
