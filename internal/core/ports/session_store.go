package ports

import (
	"context"
	"time"

	"github.com/nimbuslabs/account-portal/internal/core/domain"
)

// SessionStore holds the server-side session records referenced by the
// signed cookie token, plus the one-shot email confirmation tokens.
type SessionStore interface {
	// Create persists the session with a TTL derived from its expiry.
	Create(ctx context.Context, session *domain.Session) error
	// Get returns the session by ID, or domain.ErrSessionNotFound.
	Get(ctx context.Context, id string) (*domain.Session, error)
	Delete(ctx context.Context, id string) error

	// SaveConfirmation stores a one-shot confirmation token for the user.
	SaveConfirmation(ctx context.Context, token, userID string, ttl time.Duration) error
	// TakeConfirmation consumes the token, returning the user it belongs to,
	// or domain.ErrInvalidConfirmation when unknown or already used.
	TakeConfirmation(ctx context.Context, token string) (string, error)
}
