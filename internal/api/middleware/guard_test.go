package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/nimbuslabs/account-portal/internal/core/domain"
	"github.com/nimbuslabs/account-portal/internal/core/ports"
)

type stubAuthService struct {
	getSessionFn func(ctx context.Context, token string) (*domain.Session, error)
}

func (s *stubAuthService) SignUp(ctx context.Context, input ports.SignUpInput) (*domain.User, error) {
	return nil, nil
}

func (s *stubAuthService) ConfirmEmail(ctx context.Context, token string) (*domain.User, error) {
	return nil, nil
}

func (s *stubAuthService) SignInWithPassword(ctx context.Context, email, password string) (*ports.SignInResult, error) {
	return nil, nil
}

func (s *stubAuthService) SignOut(ctx context.Context, token string) error {
	return nil
}

func (s *stubAuthService) GetSession(ctx context.Context, token string) (*domain.Session, error) {
	return s.getSessionFn(ctx, token)
}

func (s *stubAuthService) OnSessionChange(userID string, fn func(*domain.Session)) func() {
	return func() {}
}

func signedInStub() *stubAuthService {
	return &stubAuthService{
		getSessionFn: func(ctx context.Context, token string) (*domain.Session, error) {
			return &domain.Session{
				ID:        "sess_1",
				UserID:    "user_1",
				Email:     "alice@example.com",
				ExpiresAt: time.Now().Add(time.Hour),
			}, nil
		},
	}
}

func signedOutStub() *stubAuthService {
	return &stubAuthService{
		getSessionFn: func(ctx context.Context, token string) (*domain.Session, error) {
			return nil, domain.ErrSessionNotFound
		},
	}
}

func runGuard(t *testing.T, auth ports.AuthService, path string, cookie bool) (*httptest.ResponseRecorder, bool) {
	t.Helper()

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if cookie {
		req.AddCookie(&http.Cookie{Name: SessionCookie, Value: "token"})
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	reached := false
	handler := Guard(auth, domain.DefaultNavigationPolicy(), zerolog.Nop())(func(c echo.Context) error {
		reached = true
		return c.NoContent(http.StatusOK)
	})

	if err := handler(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	return rec, reached
}

func TestGuard_UnauthenticatedDashboardRedirectsToLogin(t *testing.T) {
	rec, reached := runGuard(t, signedOutStub(), "/dashboard", true)

	if reached {
		t.Fatalf("handler should not run")
	}
	if rec.Code != http.StatusFound {
		t.Fatalf("expected 302, got %d", rec.Code)
	}
	if loc := rec.Header().Get(echo.HeaderLocation); loc != "/login" {
		t.Fatalf("expected redirect to /login, got %q", loc)
	}
}

func TestGuard_UnauthenticatedDashboardSubpathRedirects(t *testing.T) {
	rec, reached := runGuard(t, signedOutStub(), "/dashboard/settings", false)

	if reached {
		t.Fatalf("handler should not run")
	}
	if loc := rec.Header().Get(echo.HeaderLocation); loc != "/login" {
		t.Fatalf("expected redirect to /login, got %q", loc)
	}
}

func TestGuard_AuthenticatedLoginRedirectsToDashboard(t *testing.T) {
	rec, reached := runGuard(t, signedInStub(), "/login", true)

	if reached {
		t.Fatalf("handler should not run")
	}
	if rec.Code != http.StatusFound {
		t.Fatalf("expected 302, got %d", rec.Code)
	}
	if loc := rec.Header().Get(echo.HeaderLocation); loc != "/dashboard" {
		t.Fatalf("expected redirect to /dashboard, got %q", loc)
	}
}

func TestGuard_AuthenticatedDashboardPasses(t *testing.T) {
	rec, reached := runGuard(t, signedInStub(), "/dashboard", true)

	if !reached {
		t.Fatalf("handler should run")
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestGuard_UnmatchedPathPassesEitherWay(t *testing.T) {
	for name, auth := range map[string]ports.AuthService{
		"signed_in":  signedInStub(),
		"signed_out": signedOutStub(),
	} {
		if _, reached := runGuard(t, auth, "/", true); !reached {
			t.Fatalf("%s: handler should run for unmatched path", name)
		}
	}
}

func TestGuard_InjectsSessionIntoContext(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/dashboard", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookie, Value: "token"})
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	handler := Guard(signedInStub(), domain.DefaultNavigationPolicy(), zerolog.Nop())(func(c echo.Context) error {
		sess := SessionFromContext(c)
		if sess == nil {
			t.Fatalf("session not injected")
		}
		if sess.Email != "alice@example.com" {
			t.Fatalf("unexpected session: %+v", sess)
		}
		return c.NoContent(http.StatusOK)
	})

	if err := handler(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
}

func TestGuard_BackendErrorTreatedAsUnauthenticated(t *testing.T) {
	failing := &stubAuthService{
		getSessionFn: func(ctx context.Context, token string) (*domain.Session, error) {
			return nil, context.DeadlineExceeded
		},
	}

	rec, reached := runGuard(t, failing, "/dashboard", true)

	if reached {
		t.Fatalf("handler should not run")
	}
	if loc := rec.Header().Get(echo.HeaderLocation); loc != "/login" {
		t.Fatalf("expected redirect to /login, got %q", loc)
	}
	if rec.Code != http.StatusFound {
		t.Fatalf("expected 302, got %d", rec.Code)
	}
}

func TestRequireSession_WithoutSessionReturns401(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/api/profile", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	handler := RequireSession()(func(c echo.Context) error {
		t.Fatalf("should not reach next")
		return nil
	})

	err := handler(c)
	if err == nil {
		t.Fatalf("expected error")
	}
	httpErr, ok := err.(*echo.HTTPError)
	if !ok || httpErr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %v", err)
	}
}

func TestRequireSession_WithSessionPasses(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/api/profile", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.Set(sessionContextKey, &domain.Session{ID: "sess_1"})

	called := false
	handler := RequireSession()(func(c echo.Context) error {
		called = true
		return c.NoContent(http.StatusOK)
	})

	if err := handler(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if !called {
		t.Fatalf("next not called")
	}
}
