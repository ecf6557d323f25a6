package session

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/nimbuslabs/account-portal/internal/core/domain"
)

type fakeGateway struct {
	session    *domain.Session
	sessionErr error
	signInErr  error
	signOutErr error
	listeners  []func(*domain.Session)
	signOuts   int
}

func (g *fakeGateway) CurrentSession(_ context.Context) (*domain.Session, error) {
	return g.session, g.sessionErr
}

func (g *fakeGateway) SignIn(_ context.Context, _, _ string) error {
	if g.signInErr != nil {
		return g.signInErr
	}
	return nil
}

func (g *fakeGateway) SignOut(_ context.Context) error {
	g.signOuts++
	return g.signOutErr
}

func (g *fakeGateway) SessionChanges(fn func(*domain.Session)) func() {
	g.listeners = append(g.listeners, fn)
	i := len(g.listeners) - 1
	return func() { g.listeners[i] = nil }
}

func (g *fakeGateway) push(s *domain.Session) {
	for _, fn := range g.listeners {
		if fn != nil {
			fn(s)
		}
	}
}

func testSession() *domain.Session {
	return &domain.Session{
		ID:        "sess_1",
		UserID:    "user_1",
		Email:     "alice@example.com",
		CreatedAt: time.Now().UTC(),
		ExpiresAt: time.Now().UTC().Add(time.Hour),
	}
}

func newTestSynchronizer(gw *fakeGateway, path string) (*Synchronizer, *[]string) {
	var navigations []string
	sync := NewSynchronizer(gw, domain.DefaultNavigationPolicy(), path, func(p string) {
		navigations = append(navigations, p)
	}, zerolog.Nop())
	return sync, &navigations
}

func TestSynchronizer_InitializeFailsSoft(t *testing.T) {
	gw := &fakeGateway{sessionErr: errors.New("backend unreachable")}
	sync, navs := newTestSynchronizer(gw, "/login")

	sync.Initialize(context.Background())

	s, loading := sync.Session()
	if s != nil {
		t.Fatalf("expected nil session after failed fetch, got %+v", s)
	}
	if loading {
		t.Fatal("expected loading resolved after Initialize")
	}
	if len(*navs) != 0 {
		t.Fatalf("expected no navigation, got %v", *navs)
	}
}

func TestSynchronizer_SignInNavigatesExactlyOnce(t *testing.T) {
	gw := &fakeGateway{}
	sync, navs := newTestSynchronizer(gw, "/login")
	sync.Initialize(context.Background())

	if err := sync.SignIn(context.Background(), "alice@example.com", "s3cret"); err != nil {
		t.Fatalf("sign-in failed: %v", err)
	}
	// The backend confirms the sign-in by pushing the new session.
	gw.push(testSession())

	if len(*navs) != 1 || (*navs)[0] != "/dashboard" {
		t.Fatalf("expected exactly one navigation to /dashboard, got %v", *navs)
	}
	s, _ := sync.Session()
	if s == nil || s.UserID != "user_1" {
		t.Fatalf("expected session state updated, got %+v", s)
	}
}

func TestSynchronizer_SignInFailureChangesNothing(t *testing.T) {
	gw := &fakeGateway{signInErr: domain.ErrInvalidCredentials}
	sync, navs := newTestSynchronizer(gw, "/login")
	sync.Initialize(context.Background())

	err := sync.SignIn(context.Background(), "alice@example.com", "wrong")
	if !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
	if s, _ := sync.Session(); s != nil {
		t.Fatalf("expected no session change, got %+v", s)
	}
	if len(*navs) != 0 {
		t.Fatalf("expected no navigation on failure, got %v", *navs)
	}
}

func TestSynchronizer_SignOutNavigatesRegardlessOfBackend(t *testing.T) {
	gw := &fakeGateway{session: testSession(), signOutErr: errors.New("backend down")}
	sync, navs := newTestSynchronizer(gw, "/dashboard")
	sync.Initialize(context.Background())

	sync.SignOut(context.Background())

	if gw.signOuts != 1 {
		t.Fatalf("expected one backend sign-out call, got %d", gw.signOuts)
	}
	if len(*navs) != 1 || (*navs)[0] != "/login" {
		t.Fatalf("expected navigation to /login, got %v", *navs)
	}
}

func TestSynchronizer_ClearedSessionRedirectsFromDashboard(t *testing.T) {
	gw := &fakeGateway{session: testSession()}
	sync, navs := newTestSynchronizer(gw, "/dashboard/settings")
	sync.Initialize(context.Background())

	// Cross-tab sign-out: the backend pushes a nil session.
	gw.push(nil)

	if len(*navs) != 1 || (*navs)[0] != "/login" {
		t.Fatalf("expected navigation to /login, got %v", *navs)
	}
	if s, _ := sync.Session(); s != nil {
		t.Fatalf("expected cleared session, got %+v", s)
	}
}

func TestSynchronizer_NoDecisionWhileLoading(t *testing.T) {
	gw := &fakeGateway{}
	sync, navs := newTestSynchronizer(gw, "/dashboard")

	// Listener registered manually before Initialize resolves.
	unsub := gw.SessionChanges(sync.handleChange)
	defer unsub()
	gw.push(nil)

	if len(*navs) != 0 {
		t.Fatalf("expected no navigation while loading, got %v", *navs)
	}
}

func TestSynchronizer_SubscribeAndUnsubscribe(t *testing.T) {
	gw := &fakeGateway{}
	sync, _ := newTestSynchronizer(gw, "/")
	sync.Initialize(context.Background())

	var events int
	unsub := sync.Subscribe(func(*domain.Session) { events++ })

	gw.push(testSession())
	if events != 1 {
		t.Fatalf("expected 1 observed event, got %d", events)
	}

	unsub()
	unsub() // second call is a no-op
	gw.push(nil)
	if events != 1 {
		t.Fatalf("expected no events after unsubscribe, got %d", events)
	}
}

func TestSynchronizer_SetPathAffectsDecisions(t *testing.T) {
	gw := &fakeGateway{}
	sync, navs := newTestSynchronizer(gw, "/about")
	sync.Initialize(context.Background())

	gw.push(testSession())
	if len(*navs) != 0 {
		t.Fatalf("unrestricted path should not redirect, got %v", *navs)
	}

	sync.SetPath("/login")
	gw.push(testSession())
	if len(*navs) != 1 || (*navs)[0] != "/dashboard" {
		t.Fatalf("expected redirect to /dashboard after path change, got %v", *navs)
	}
}

func TestBus_PublishAndUnsubscribe(t *testing.T) {
	bus := NewBus()

	var got []*domain.Session
	unsub := bus.Subscribe("user_1", func(s *domain.Session) { got = append(got, s) })
	other := 0
	bus.Subscribe("user_2", func(*domain.Session) { other++ })

	bus.Publish("user_1", testSession())
	bus.Publish("user_1", nil)

	if len(got) != 2 || got[0] == nil || got[1] != nil {
		t.Fatalf("unexpected delivery: %v", got)
	}
	if other != 0 {
		t.Fatalf("event leaked to another user's observer")
	}

	unsub()
	bus.Publish("user_1", testSession())
	if len(got) != 2 {
		t.Fatalf("expected no delivery after unsubscribe, got %d", len(got))
	}
	if bus.ObserverCount("user_1") != 0 {
		t.Fatalf("expected observer map cleaned up")
	}
}
