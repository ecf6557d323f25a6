package ports

import (
	"context"

	"github.com/nimbuslabs/account-portal/internal/core/domain"
)

// ProfileRepository defines persistence for the 1:1 profile rows.
type ProfileRepository interface {
	// FindByUserID returns the profile row for the user, or
	// domain.ErrProfileNotFound when no row exists. Any other error is a
	// backend failure and must not be mistaken for absence.
	FindByUserID(ctx context.Context, userID string) (*domain.Profile, error)
	// Insert creates a new profile row. Used only by the lazy-creation path.
	Insert(ctx context.Context, profile *domain.Profile) error
	// Upsert fully replaces the row keyed by profile.UserID, creating it if
	// missing. Last write wins.
	Upsert(ctx context.Context, profile *domain.Profile) error
}
