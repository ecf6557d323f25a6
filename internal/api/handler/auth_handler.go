package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/nimbuslabs/account-portal/internal/api/metrics"
	"github.com/nimbuslabs/account-portal/internal/api/middleware"
	"github.com/nimbuslabs/account-portal/internal/core/domain"
	"github.com/nimbuslabs/account-portal/internal/core/ports"
)

type AuthHandler struct {
	authService ports.AuthService
}

func NewAuthHandler(authService ports.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

type registerRequest struct {
	Email           string `json:"email"            validate:"required,email"`
	Password        string `json:"password"         validate:"required,min=6"`
	ConfirmPassword string `json:"confirm_password" validate:"required,eqfield=Password"`
}

type registerResponse struct {
	Message string `json:"message"`
}

type loginRequest struct {
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type sessionResponse struct {
	Session *domain.Session `json:"session"`
	// Redirect tells the client where the navigation policy sends it next.
	Redirect string `json:"redirect,omitempty"`
}

// Register creates a new account and starts the email confirmation flow.
// The password/confirm-password match is checked here, before any backend
// call.
//
// @Summary      Register a new account
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      registerRequest  true  "Registration details"
// @Success      201   {object}  registerResponse
// @Failure      400   {object}  map[string]string
// @Failure      409   {object}  map[string]string
// @Router       /auth/register [post]
func (h *AuthHandler) Register(c echo.Context) error {
	var req registerRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		metrics.SignUpsTotal.WithLabelValues("invalid").Inc()
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	_, err := h.authService.SignUp(c.Request().Context(), ports.SignUpInput{
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrUserExists):
			metrics.SignUpsTotal.WithLabelValues("duplicate").Inc()
		default:
			metrics.SignUpsTotal.WithLabelValues("error").Inc()
		}
		return err
	}

	metrics.SignUpsTotal.WithLabelValues("created").Inc()
	return c.JSON(http.StatusCreated, registerResponse{
		Message: "Registration successful! Please check your email to confirm your account.",
	})
}

// Callback consumes the emailed confirmation token and activates the
// account, then sends the user to the login page.
//
// @Summary      Confirm an email address
// @Tags         auth
// @Param        token  query  string  true  "One-shot confirmation token"
// @Success      302
// @Failure      400  {object}  map[string]string
// @Router       /auth/callback [get]
func (h *AuthHandler) Callback(c echo.Context) error {
	if _, err := h.authService.ConfirmEmail(c.Request().Context(), c.QueryParam("token")); err != nil {
		return err
	}
	return c.Redirect(http.StatusFound, "/login?confirmed=1")
}

// Login authenticates the credentials and establishes the session cookie.
//
// @Summary      Sign in
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      loginRequest  true  "Credentials"
// @Success      200   {object}  sessionResponse
// @Failure      401   {object}  map[string]string
// @Failure      403   {object}  map[string]string
// @Router       /auth/login [post]
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	result, err := h.authService.SignInWithPassword(c.Request().Context(), req.Email, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrInvalidCredentials):
			metrics.SignInsTotal.WithLabelValues("invalid_credentials").Inc()
		case errors.Is(err, domain.ErrEmailNotConfirmed):
			metrics.SignInsTotal.WithLabelValues("unconfirmed").Inc()
		default:
			metrics.SignInsTotal.WithLabelValues("error").Inc()
		}
		return err
	}

	c.SetCookie(sessionCookie(result.Token, result.Session.ExpiresAt))
	metrics.SignInsTotal.WithLabelValues("success").Inc()

	return c.JSON(http.StatusOK, sessionResponse{
		Session:  result.Session,
		Redirect: "/dashboard",
	})
}

// Logout destroys the session. The cookie is cleared and the client is sent
// to the login page regardless of the backend outcome.
//
// @Summary      Sign out
// @Tags         auth
// @Success      302
// @Router       /auth/logout [post]
func (h *AuthHandler) Logout(c echo.Context) error {
	if cookie, err := c.Cookie(middleware.SessionCookie); err == nil && cookie.Value != "" {
		if err := h.authService.SignOut(c.Request().Context(), cookie.Value); err != nil {
			// Navigation happens anyway; the session record expires on its own.
			c.Logger().Warn(err)
		}
	}

	c.SetCookie(expiredSessionCookie())
	metrics.SignOutsTotal.Inc()
	return c.Redirect(http.StatusFound, "/login")
}

// Session reports the current session, or null when signed out.
//
// @Summary      Current session
// @Tags         auth
// @Produce      json
// @Success      200  {object}  sessionResponse
// @Router       /auth/session [get]
func (h *AuthHandler) Session(c echo.Context) error {
	return c.JSON(http.StatusOK, sessionResponse{Session: middleware.SessionFromContext(c)})
}

func sessionCookie(token string, expires time.Time) *http.Cookie {
	return &http.Cookie{
		Name:     middleware.SessionCookie,
		Value:    token,
		Path:     "/",
		Expires:  expires,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}
}

func expiredSessionCookie() *http.Cookie {
	return &http.Cookie{
		Name:     middleware.SessionCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}
}
