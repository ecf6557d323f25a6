package handler

import (
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/nimbuslabs/account-portal/internal/api/middleware"
)

// PageHandler serves the minimal HTML shells the route guard navigates
// between. The real presentation layer is a separate frontend; these shells
// exist so the navigable paths are concrete routes.
type PageHandler struct{}

func NewPageHandler() *PageHandler {
	return &PageHandler{}
}

const pageShell = `<!doctype html>
<html>
<head><meta charset="utf-8"><title>Account Portal — %s</title></head>
<body data-page="%s"></body>
</html>`

func (h *PageHandler) Landing(c echo.Context) error {
	return shell(c, "home")
}

func (h *PageHandler) Login(c echo.Context) error {
	return shell(c, "login")
}

func (h *PageHandler) Register(c echo.Context) error {
	return shell(c, "register")
}

func (h *PageHandler) Dashboard(c echo.Context) error {
	// The guard guarantees a session here; the shell only needs to exist.
	if middleware.SessionFromContext(c) == nil {
		return c.Redirect(http.StatusFound, "/login")
	}
	return shell(c, "dashboard")
}

func shell(c echo.Context, name string) error {
	return c.HTML(http.StatusOK, fmt.Sprintf(pageShell, name, name))
}
