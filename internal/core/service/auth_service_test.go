package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/nimbuslabs/account-portal/internal/core/domain"
	"github.com/nimbuslabs/account-portal/internal/core/ports"
	"github.com/nimbuslabs/account-portal/internal/core/session"
)

type stubUserRepo struct {
	byEmail map[string]*domain.User
}

func newStubUserRepo() *stubUserRepo {
	return &stubUserRepo{byEmail: make(map[string]*domain.User)}
}

func cloneUser(u *domain.User) *domain.User {
	if u == nil {
		return nil
	}
	clone := *u
	return &clone
}

func (r *stubUserRepo) FindByEmail(_ context.Context, email string) (*domain.User, error) {
	if u, ok := r.byEmail[email]; ok {
		return cloneUser(u), nil
	}
	return nil, domain.ErrUserNotFound
}

func (r *stubUserRepo) FindByID(_ context.Context, id string) (*domain.User, error) {
	for _, u := range r.byEmail {
		if u.ID == id {
			return cloneUser(u), nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (r *stubUserRepo) Create(_ context.Context, user *domain.User) (*domain.User, error) {
	if _, exists := r.byEmail[user.Email]; exists {
		return nil, domain.ErrUserExists
	}
	r.byEmail[user.Email] = cloneUser(user)
	return cloneUser(user), nil
}

func (r *stubUserRepo) MarkConfirmed(_ context.Context, id string, at time.Time) error {
	for _, u := range r.byEmail {
		if u.ID == id {
			u.ConfirmedAt = &at
			u.UpdatedAt = at
			return nil
		}
	}
	return domain.ErrUserNotFound
}

type stubSessionStore struct {
	sessions      map[string]*domain.Session
	confirmations map[string]string
	getErr        error
}

func newStubSessionStore() *stubSessionStore {
	return &stubSessionStore{
		sessions:      make(map[string]*domain.Session),
		confirmations: make(map[string]string),
	}
}

func (s *stubSessionStore) Create(_ context.Context, sess *domain.Session) error {
	copy := *sess
	s.sessions[sess.ID] = &copy
	return nil
}

func (s *stubSessionStore) Get(_ context.Context, id string) (*domain.Session, error) {
	if s.getErr != nil {
		return nil, s.getErr
	}
	if sess, ok := s.sessions[id]; ok {
		copy := *sess
		return &copy, nil
	}
	return nil, domain.ErrSessionNotFound
}

func (s *stubSessionStore) Delete(_ context.Context, id string) error {
	delete(s.sessions, id)
	return nil
}

func (s *stubSessionStore) SaveConfirmation(_ context.Context, token, userID string, _ time.Duration) error {
	s.confirmations[token] = userID
	return nil
}

func (s *stubSessionStore) TakeConfirmation(_ context.Context, token string) (string, error) {
	userID, ok := s.confirmations[token]
	if !ok {
		return "", domain.ErrInvalidConfirmation
	}
	delete(s.confirmations, token)
	return userID, nil
}

func newTestAuthService() (*AuthService, *stubUserRepo, *stubSessionStore) {
	users := newStubUserRepo()
	sessions := newStubSessionStore()
	svc := NewAuthService(users, sessions, session.NewBus(), "secret", "http://localhost:8080", time.Hour, zerolog.Nop())
	return svc, users, sessions
}

// registerConfirmed signs up a user and walks the confirmation flow.
func registerConfirmed(t *testing.T, svc *AuthService, sessions *stubSessionStore, email, password string) *domain.User {
	t.Helper()
	user, err := svc.SignUp(context.Background(), ports.SignUpInput{Email: email, Password: password})
	if err != nil {
		t.Fatalf("sign-up failed: %v", err)
	}
	for token := range sessions.confirmations {
		if _, err := svc.ConfirmEmail(context.Background(), token); err != nil {
			t.Fatalf("confirm failed: %v", err)
		}
	}
	return user
}

func TestAuthService_SignUp_HashesPassword(t *testing.T) {
	svc, users, _ := newTestAuthService()

	user, err := svc.SignUp(context.Background(), ports.SignUpInput{Email: "Alice@Example.com", Password: "s3cret1"})
	if err != nil {
		t.Fatalf("SignUp returned error: %v", err)
	}
	if user.Email != "alice@example.com" {
		t.Fatalf("expected normalized email, got %q", user.Email)
	}
	if user.Confirmed() {
		t.Fatal("new account must start unconfirmed")
	}

	stored := users.byEmail["alice@example.com"]
	if stored.PasswordHash == "s3cret1" {
		t.Fatal("expected password to be hashed")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(stored.PasswordHash), []byte("s3cret1")); err != nil {
		t.Fatalf("stored hash does not match password: %v", err)
	}
}

func TestAuthService_SignUp_Validation(t *testing.T) {
	svc, _, _ := newTestAuthService()

	var ve *domain.ValidationError
	if _, err := svc.SignUp(context.Background(), ports.SignUpInput{Email: "", Password: "s3cret1"}); !errors.As(err, &ve) {
		t.Fatalf("expected ValidationError for empty email, got %v", err)
	}
	if _, err := svc.SignUp(context.Background(), ports.SignUpInput{Email: "a@b.c", Password: "short"}); !errors.As(err, &ve) {
		t.Fatalf("expected ValidationError for short password, got %v", err)
	}
}

func TestAuthService_SignUp_Duplicate(t *testing.T) {
	svc, _, _ := newTestAuthService()

	if _, err := svc.SignUp(context.Background(), ports.SignUpInput{Email: "bob@example.com", Password: "s3cret1"}); err != nil {
		t.Fatalf("first sign-up failed: %v", err)
	}
	if _, err := svc.SignUp(context.Background(), ports.SignUpInput{Email: "bob@example.com", Password: "other77"}); !errors.Is(err, domain.ErrUserExists) {
		t.Fatalf("expected ErrUserExists, got %v", err)
	}
}

func TestAuthService_ConfirmEmail_TokenIsOneShot(t *testing.T) {
	svc, _, sessions := newTestAuthService()

	if _, err := svc.SignUp(context.Background(), ports.SignUpInput{Email: "carol@example.com", Password: "s3cret1"}); err != nil {
		t.Fatalf("sign-up failed: %v", err)
	}

	var token string
	for tk := range sessions.confirmations {
		token = tk
	}

	user, err := svc.ConfirmEmail(context.Background(), token)
	if err != nil {
		t.Fatalf("confirm failed: %v", err)
	}
	if !user.Confirmed() {
		t.Fatal("expected account confirmed")
	}

	if _, err := svc.ConfirmEmail(context.Background(), token); !errors.Is(err, domain.ErrInvalidConfirmation) {
		t.Fatalf("expected ErrInvalidConfirmation on reuse, got %v", err)
	}
}

func TestAuthService_SignIn_Success(t *testing.T) {
	svc, _, sessions := newTestAuthService()
	registerConfirmed(t, svc, sessions, "dave@example.com", "goodpass")

	var events []*domain.Session
	// Subscribe before signing in so the change event is observed.
	user, err := svc.users.FindByEmail(context.Background(), "dave@example.com")
	if err != nil {
		t.Fatalf("lookup failed: %v", err)
	}
	unsub := svc.OnSessionChange(user.ID, func(s *domain.Session) { events = append(events, s) })
	defer unsub()

	result, err := svc.SignInWithPassword(context.Background(), "dave@example.com", "goodpass")
	if err != nil {
		t.Fatalf("sign-in failed: %v", err)
	}
	if result.Token == "" {
		t.Fatal("expected signed token")
	}
	if result.Session.UserID != user.ID || result.Session.Email != "dave@example.com" {
		t.Fatalf("unexpected session: %+v", result.Session)
	}
	if len(events) != 1 || events[0] == nil {
		t.Fatalf("expected one session-change event, got %v", events)
	}

	// The token round-trips through GetSession.
	got, err := svc.GetSession(context.Background(), result.Token)
	if err != nil {
		t.Fatalf("GetSession failed: %v", err)
	}
	if got.ID != result.Session.ID {
		t.Fatalf("expected session %s, got %s", result.Session.ID, got.ID)
	}
}

func TestAuthService_SignIn_InvalidPassword(t *testing.T) {
	svc, _, sessions := newTestAuthService()
	registerConfirmed(t, svc, sessions, "erin@example.com", "goodpass")

	if _, err := svc.SignInWithPassword(context.Background(), "erin@example.com", "badpass"); !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
}

func TestAuthService_SignIn_UnknownEmailIsInvalidCredentials(t *testing.T) {
	svc, _, _ := newTestAuthService()

	if _, err := svc.SignInWithPassword(context.Background(), "ghost@example.com", "pass123"); !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
}

func TestAuthService_SignIn_UnconfirmedRejected(t *testing.T) {
	svc, _, _ := newTestAuthService()

	if _, err := svc.SignUp(context.Background(), ports.SignUpInput{Email: "frank@example.com", Password: "s3cret1"}); err != nil {
		t.Fatalf("sign-up failed: %v", err)
	}
	if _, err := svc.SignInWithPassword(context.Background(), "frank@example.com", "s3cret1"); !errors.Is(err, domain.ErrEmailNotConfirmed) {
		t.Fatalf("expected ErrEmailNotConfirmed, got %v", err)
	}
}

func TestAuthService_SignOut_ClearsSession(t *testing.T) {
	svc, _, sessions := newTestAuthService()
	user := registerConfirmed(t, svc, sessions, "gina@example.com", "goodpass")

	result, err := svc.SignInWithPassword(context.Background(), "gina@example.com", "goodpass")
	if err != nil {
		t.Fatalf("sign-in failed: %v", err)
	}

	var cleared bool
	unsub := svc.OnSessionChange(user.ID, func(s *domain.Session) { cleared = s == nil })
	defer unsub()

	if err := svc.SignOut(context.Background(), result.Token); err != nil {
		t.Fatalf("sign-out failed: %v", err)
	}
	if !cleared {
		t.Fatal("expected a nil session-change event")
	}

	// An immediately following guard lookup must see no session.
	if _, err := svc.GetSession(context.Background(), result.Token); !errors.Is(err, domain.ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound after sign-out, got %v", err)
	}
}

func TestAuthService_GetSession_BadToken(t *testing.T) {
	svc, _, _ := newTestAuthService()

	if _, err := svc.GetSession(context.Background(), "not-a-token"); !errors.Is(err, domain.ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound, got %v", err)
	}
}

func TestAuthService_GetSession_TransportErrorPassesThrough(t *testing.T) {
	svc, _, sessions := newTestAuthService()
	registerConfirmed(t, svc, sessions, "hank@example.com", "goodpass")

	result, err := svc.SignInWithPassword(context.Background(), "hank@example.com", "goodpass")
	if err != nil {
		t.Fatalf("sign-in failed: %v", err)
	}

	transport := errors.New("redis: connection refused")
	sessions.getErr = transport
	if _, err := svc.GetSession(context.Background(), result.Token); !errors.Is(err, transport) {
		t.Fatalf("expected transport error passed through, got %v", err)
	}
}
