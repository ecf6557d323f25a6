package ports

import (
	"context"

	"github.com/nimbuslabs/account-portal/internal/core/domain"
)

// SignUpInput carries the registration form fields. The password/confirm
// match is checked at the transport boundary before this struct is built.
type SignUpInput struct {
	Email    string
	Password string
}

// SignInResult bundles the session record with the signed cookie token that
// references it.
type SignInResult struct {
	Session *domain.Session
	Token   string
}

// AuthService defines the identity operations consumed by the handlers and
// the session synchronizer.
type AuthService interface {
	// SignUp creates an unconfirmed account and issues a confirmation token.
	SignUp(ctx context.Context, input SignUpInput) (*domain.User, error)
	// ConfirmEmail consumes a confirmation token and activates the account.
	ConfirmEmail(ctx context.Context, token string) (*domain.User, error)
	// SignInWithPassword authenticates and creates a session. A session-change
	// event is published for the user as a side effect.
	SignInWithPassword(ctx context.Context, email, password string) (*SignInResult, error)
	// SignOut destroys the session referenced by the token and publishes a
	// nil session-change event.
	SignOut(ctx context.Context, token string) error
	// GetSession resolves a cookie token to its live session, or
	// domain.ErrSessionNotFound when the token is invalid, unknown or expired.
	GetSession(ctx context.Context, token string) (*domain.Session, error)
	// OnSessionChange registers an observer for the user's session-change
	// events. The returned function unregisters it.
	OnSessionChange(userID string, fn func(*domain.Session)) (unsubscribe func())
}
