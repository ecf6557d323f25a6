package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/nimbuslabs/account-portal/internal/core/domain"
	"github.com/nimbuslabs/account-portal/internal/core/ports"
	"github.com/nimbuslabs/account-portal/internal/core/session"
)

const (
	minPasswordLength = 6
	confirmationTTL   = 24 * time.Hour
)

// AuthService implements registration, email confirmation, sign-in and
// sign-out on top of the user repository and session store. Session-change
// events are published on the bus so client contexts can react.
type AuthService struct {
	users      ports.UserRepository
	sessions   ports.SessionStore
	bus        *session.Bus
	jwtSecret  string
	sessionTTL time.Duration
	baseURL    string
	log        zerolog.Logger
}

func NewAuthService(users ports.UserRepository, sessions ports.SessionStore, bus *session.Bus, jwtSecret, baseURL string, sessionTTL time.Duration, log zerolog.Logger) *AuthService {
	if sessionTTL <= 0 {
		sessionTTL = 24 * time.Hour
	}
	return &AuthService{
		users:      users,
		sessions:   sessions,
		bus:        bus,
		jwtSecret:  jwtSecret,
		sessionTTL: sessionTTL,
		baseURL:    strings.TrimRight(baseURL, "/"),
		log:        log,
	}
}

// SignUp creates an unconfirmed account and issues a one-shot confirmation
// token. Mail delivery is out of band; the confirmation link is logged so
// the flow is usable without a mailer.
func (s *AuthService) SignUp(ctx context.Context, input ports.SignUpInput) (*domain.User, error) {
	email := strings.ToLower(strings.TrimSpace(input.Email))
	if email == "" {
		return nil, domain.NewValidationError("email", "must not be empty")
	}
	if len(input.Password) < minPasswordLength {
		return nil, domain.NewValidationError("password", "must be at least %d characters", minPasswordLength)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	user := &domain.User{
		ID:           uuid.NewString(),
		Email:        email,
		PasswordHash: string(hash),
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	created, err := s.users.Create(ctx, user)
	if err != nil {
		return nil, err
	}

	token := uuid.NewString()
	if err := s.sessions.SaveConfirmation(ctx, token, created.ID, confirmationTTL); err != nil {
		return nil, fmt.Errorf("save confirmation token: %w", err)
	}

	s.log.Info().
		Str("user_id", created.ID).
		Str("email", created.Email).
		Str("confirmation_url", s.baseURL+"/auth/callback?token="+token).
		Msg("account created, awaiting email confirmation")

	return created, nil
}

// ConfirmEmail consumes the confirmation token and activates the account.
func (s *AuthService) ConfirmEmail(ctx context.Context, token string) (*domain.User, error) {
	if token == "" {
		return nil, domain.ErrInvalidConfirmation
	}

	userID, err := s.sessions.TakeConfirmation(ctx, token)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	if err := s.users.MarkConfirmed(ctx, userID, now); err != nil {
		return nil, err
	}

	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	s.log.Info().Str("user_id", userID).Msg("email confirmed")
	return user, nil
}

// SignInWithPassword authenticates the credentials, creates a session and
// publishes the change event. A not-found lookup deliberately resolves to
// invalid credentials so account existence is not leaked.
func (s *AuthService) SignInWithPassword(ctx context.Context, email, password string) (*ports.SignInResult, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return nil, domain.ErrInvalidCredentials
	}

	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, domain.ErrInvalidCredentials
		}
		return nil, err
	}

	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return nil, domain.ErrInvalidCredentials
	}
	if !user.Confirmed() {
		return nil, domain.ErrEmailNotConfirmed
	}

	now := time.Now().UTC()
	sess := &domain.Session{
		ID:        uuid.NewString(),
		UserID:    user.ID,
		Email:     user.Email,
		CreatedAt: now,
		ExpiresAt: now.Add(s.sessionTTL),
	}
	if err := s.sessions.Create(ctx, sess); err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}

	token, err := s.mintToken(sess)
	if err != nil {
		return nil, err
	}

	s.bus.Publish(user.ID, sess)
	s.log.Info().Str("user_id", user.ID).Str("session_id", sess.ID).Msg("signed in")

	return &ports.SignInResult{Session: sess, Token: token}, nil
}

// SignOut destroys the session referenced by the token and publishes the
// cleared state. An unknown or malformed token is not an error: the caller
// ends up signed out either way.
func (s *AuthService) SignOut(ctx context.Context, token string) error {
	sid, userID, err := s.parseToken(token)
	if err != nil {
		return nil
	}

	if err := s.sessions.Delete(ctx, sid); err != nil {
		s.bus.Publish(userID, nil)
		return fmt.Errorf("delete session: %w", err)
	}

	s.bus.Publish(userID, nil)
	s.log.Info().Str("user_id", userID).Str("session_id", sid).Msg("signed out")
	return nil
}

// GetSession resolves a cookie token to its live session. Signature or
// lookup failures resolve to ErrSessionNotFound; transport errors from the
// store are passed through untouched.
func (s *AuthService) GetSession(ctx context.Context, token string) (*domain.Session, error) {
	sid, _, err := s.parseToken(token)
	if err != nil {
		return nil, domain.ErrSessionNotFound
	}

	sess, err := s.sessions.Get(ctx, sid)
	if err != nil {
		return nil, err
	}
	if sess.Expired(time.Now().UTC()) {
		return nil, domain.ErrSessionNotFound
	}
	return sess, nil
}

// OnSessionChange registers an observer for the user's session events.
func (s *AuthService) OnSessionChange(userID string, fn func(*domain.Session)) func() {
	return s.bus.Subscribe(userID, fn)
}

func (s *AuthService) mintToken(sess *domain.Session) (string, error) {
	claims := jwt.MapClaims{
		"sid": sess.ID,
		"sub": sess.UserID,
		"exp": sess.ExpiresAt.Unix(),
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return t.SignedString([]byte(s.jwtSecret))
}

func (s *AuthService) parseToken(token string) (sid, userID string, err error) {
	claims := jwt.MapClaims{}
	tkn, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		if t.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, jwt.ErrTokenSignatureInvalid
		}
		return []byte(s.jwtSecret), nil
	})
	if err != nil || !tkn.Valid {
		return "", "", domain.ErrSessionNotFound
	}

	sid, _ = claims["sid"].(string)
	userID, _ = claims["sub"].(string)
	if sid == "" || userID == "" {
		return "", "", domain.ErrSessionNotFound
	}
	return sid, userID, nil
}
