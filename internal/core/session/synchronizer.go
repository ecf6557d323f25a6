package session

import (
	"context"
	"sync"

	"github.com/rs/zerolog"

	"github.com/nimbuslabs/account-portal/internal/core/domain"
)

// Gateway is the slice of the backend the Synchronizer needs: session
// retrieval, credential forwarding and change notifications, all bound to
// one client context.
type Gateway interface {
	CurrentSession(ctx context.Context) (*domain.Session, error)
	SignIn(ctx context.Context, email, password string) error
	SignOut(ctx context.Context) error
	// SessionChanges registers fn for backend-pushed session changes and
	// returns the unregister function.
	SessionChanges(fn func(*domain.Session)) (unsubscribe func())
}

// Navigator receives the redirect decisions the Synchronizer makes.
type Navigator func(path string)

// Synchronizer is the single source of truth for "who is signed in" within
// one client context. It is the sole writer of its session state: the state
// changes only through Initialize and backend-pushed change events, never
// directly through SignIn or SignOut. Every change event triggers at most
// one navigation decision against the shared policy table.
type Synchronizer struct {
	gateway  Gateway
	policy   domain.NavigationPolicy
	navigate Navigator
	log      zerolog.Logger

	mu        sync.Mutex
	session   *domain.Session
	loading   bool
	path      string
	observers map[int]func(*domain.Session)
	nextID    int
	unsub     func()
}

// NewSynchronizer builds a Synchronizer for the given client context. The
// path is the location the client currently displays; navigation decisions
// are made against it. Call Initialize before relying on Session.
func NewSynchronizer(gateway Gateway, policy domain.NavigationPolicy, path string, navigate Navigator, log zerolog.Logger) *Synchronizer {
	return &Synchronizer{
		gateway:   gateway,
		policy:    policy,
		navigate:  navigate,
		path:      path,
		loading:   true,
		observers: make(map[int]func(*domain.Session)),
		log:       log,
	}
}

// Initialize fetches the current session once and registers the backend
// change listener. Backend unavailability is not fatal: the state resolves
// to "no session" and the guard's unauthenticated default applies.
func (s *Synchronizer) Initialize(ctx context.Context) {
	current, err := s.gateway.CurrentSession(ctx)
	if err != nil {
		s.log.Warn().Err(err).Msg("session fetch failed, continuing unauthenticated")
		current = nil
	}

	s.mu.Lock()
	s.session = current
	s.loading = false
	s.mu.Unlock()

	unsub := s.gateway.SessionChanges(s.handleChange)
	s.mu.Lock()
	s.unsub = unsub
	s.mu.Unlock()
}

// Close unregisters the backend listener. Safe to call before Initialize
// and more than once.
func (s *Synchronizer) Close() {
	s.mu.Lock()
	unsub := s.unsub
	s.unsub = nil
	s.mu.Unlock()
	if unsub != nil {
		unsub()
	}
}

// Session returns the current session (nil when signed out) and whether the
// initial fetch is still pending.
func (s *Synchronizer) Session() (*domain.Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.session, s.loading
}

// SetPath records a client-side location change so later navigation
// decisions run against the path actually displayed.
func (s *Synchronizer) SetPath(path string) {
	s.mu.Lock()
	s.path = path
	s.mu.Unlock()
}

// Subscribe registers an observer for session state changes and returns its
// unsubscribe function.
func (s *Synchronizer) Subscribe(fn func(*domain.Session)) func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.nextID
	s.nextID++
	s.observers[id] = fn
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.observers, id)
	}
}

// SignIn forwards credentials to the backend. On failure the error is
// returned to the caller with no state change and no navigation. On success
// the backend pushes a session-change event, which performs the (single)
// navigation.
func (s *Synchronizer) SignIn(ctx context.Context, email, password string) error {
	return s.gateway.SignIn(ctx, email, password)
}

// SignOut forwards to the backend and navigates to the login path
// immediately, regardless of the backend outcome.
func (s *Synchronizer) SignOut(ctx context.Context) {
	if err := s.gateway.SignOut(ctx); err != nil {
		s.log.Warn().Err(err).Msg("backend sign-out failed")
	}
	s.navigateTo(s.policy.LoginPath)
}

// navigateTo performs a navigation and records the new location, so the
// change event that usually follows a sign-in/out does not redirect again.
func (s *Synchronizer) navigateTo(path string) {
	s.mu.Lock()
	s.path = path
	s.mu.Unlock()
	s.navigate(path)
}

// handleChange is the backend listener: it replaces the session state,
// notifies observers, and applies the navigation policy once per event.
// While the initial fetch is unresolved no redirect decision is made.
func (s *Synchronizer) handleChange(next *domain.Session) {
	s.mu.Lock()
	if s.loading {
		s.mu.Unlock()
		return
	}
	s.session = next
	path := s.path
	fns := make([]func(*domain.Session), 0, len(s.observers))
	for _, fn := range s.observers {
		fns = append(fns, fn)
	}
	s.mu.Unlock()

	for _, fn := range fns {
		fn(next)
	}

	if target := s.policy.Decide(path, next != nil); target != "" {
		s.navigateTo(target)
	}
}
