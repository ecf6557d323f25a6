package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/nimbuslabs/account-portal/internal/api/middleware"
	"github.com/nimbuslabs/account-portal/internal/core/domain"
	"github.com/nimbuslabs/account-portal/internal/core/ports"
	"github.com/nimbuslabs/account-portal/internal/core/session"
)

const heartbeatInterval = 25 * time.Second

// SessionEventsHandler streams session-change events to the browser over
// SSE. Each connection owns one session.Synchronizer, so the reactive
// navigation decisions pushed to the client come from the same policy table
// the request-time guard enforces.
type SessionEventsHandler struct {
	authService ports.AuthService
	policy      domain.NavigationPolicy
	log         zerolog.Logger
}

func NewSessionEventsHandler(authService ports.AuthService, policy domain.NavigationPolicy, log zerolog.Logger) *SessionEventsHandler {
	return &SessionEventsHandler{authService: authService, policy: policy, log: log}
}

type sessionEvent struct {
	SignedIn bool   `json:"signed_in"`
	Email    string `json:"email,omitempty"`
}

// Stream handles GET /auth/events. The client reports its current location
// via the path query parameter so navigation decisions run against the page
// actually displayed.
//
// @Summary      Session change event stream
// @Tags         auth
// @Produce      text/event-stream
// @Param        path  query  string  false  "Current client path"
// @Success      200
// @Failure      401  {object}  map[string]string
// @Router       /auth/events [get]
func (h *SessionEventsHandler) Stream(c echo.Context) error {
	sess, err := ctxSession(c)
	if err != nil {
		return err
	}

	cookie, err := c.Cookie(middleware.SessionCookie)
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "not signed in")
	}

	path := c.QueryParam("path")
	if path == "" {
		path = "/dashboard"
	}

	// Buffered so a publisher never blocks on a slow client. A client that
	// falls a full buffer behind has its stream closed instead of losing an
	// event: a reconnect resyncs it, a dropped navigation would not.
	changes := make(chan *domain.Session, 8)
	navigations := make(chan string, 8)
	overflow := make(chan struct{}, 1)
	markOverflow := func() {
		select {
		case overflow <- struct{}{}:
		default:
		}
	}

	gw := &clientGateway{auth: h.authService, token: cookie.Value, userID: sess.UserID}
	sync := session.NewSynchronizer(gw, h.policy, path, func(target string) {
		select {
		case navigations <- target:
		default:
			markOverflow()
		}
	}, h.log)
	sync.Initialize(c.Request().Context())
	defer sync.Close()

	unsub := sync.Subscribe(func(s *domain.Session) {
		select {
		case changes <- s:
		default:
			markOverflow()
		}
	})
	defer unsub()

	res := c.Response()
	res.Header().Set(echo.HeaderContentType, "text/event-stream")
	res.Header().Set("Cache-Control", "no-store")
	res.Header().Set("Connection", "keep-alive")
	res.WriteHeader(http.StatusOK)
	res.Flush()

	heartbeat := time.NewTicker(heartbeatInterval)
	defer heartbeat.Stop()

	ctx := c.Request().Context()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-overflow:
			h.log.Warn().Str("user_id", sess.UserID).Msg("event stream overflow, closing for resync")
			return nil
		case s := <-changes:
			if err := writeEvent(res, "session", sessionEvent{SignedIn: s != nil, Email: emailOf(s)}); err != nil {
				return nil
			}
		case target := <-navigations:
			if err := writeEvent(res, "navigate", target); err != nil {
				return nil
			}
		case <-heartbeat.C:
			if _, err := fmt.Fprint(res, ": ping\n\n"); err != nil {
				return nil
			}
			res.Flush()
		}
	}
}

func writeEvent(res *echo.Response, name string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintf(res, "event: %s\ndata: %s\n\n", name, data); err != nil {
		return err
	}
	res.Flush()
	return nil
}

func emailOf(s *domain.Session) string {
	if s == nil {
		return ""
	}
	return s.Email
}

// clientGateway binds the synchronizer's backend slice to one client's
// credential token.
type clientGateway struct {
	auth   ports.AuthService
	token  string
	userID string
}

func (g *clientGateway) CurrentSession(ctx context.Context) (*domain.Session, error) {
	sess, err := g.auth.GetSession(ctx, g.token)
	if err != nil {
		if errors.Is(err, domain.ErrSessionNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return sess, nil
}

func (g *clientGateway) SignIn(ctx context.Context, email, password string) error {
	_, err := g.auth.SignInWithPassword(ctx, email, password)
	return err
}

func (g *clientGateway) SignOut(ctx context.Context) error {
	return g.auth.SignOut(ctx, g.token)
}

func (g *clientGateway) SessionChanges(fn func(*domain.Session)) func() {
	return g.auth.OnSessionChange(g.userID, fn)
}
