package ports

import (
	"context"
	"time"

	"github.com/nimbuslabs/account-portal/internal/core/domain"
)

// UserRepository defines the interface for account persistence.
type UserRepository interface {
	FindByEmail(ctx context.Context, email string) (*domain.User, error)
	FindByID(ctx context.Context, id string) (*domain.User, error)
	Create(ctx context.Context, user *domain.User) (*domain.User, error)
	// MarkConfirmed records the moment the user's email was verified.
	MarkConfirmed(ctx context.Context, id string, at time.Time) error
}
