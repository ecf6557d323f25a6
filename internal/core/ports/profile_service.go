package ports

import (
	"context"
	"io"

	"github.com/nimbuslabs/account-portal/internal/core/domain"
)

// SaveProfileInput carries the four editable profile fields. A save replaces
// all of them; there is no partial-field update.
type SaveProfileInput struct {
	Username  string
	FullName  string
	Website   string
	AvatarURL string
}

// UploadAvatarInput describes one avatar file submission.
type UploadAvatarInput struct {
	UserID      string
	Filename    string
	ContentType string
	Size        int64
	Content     io.Reader
}

// ProfileService defines the profile reconciliation use cases.
type ProfileService interface {
	// EnsureProfile returns the user's profile, creating an empty row on
	// first authenticated load. Idempotent.
	EnsureProfile(ctx context.Context, userID string) (*domain.Profile, error)
	// SaveProfile performs a full-row upsert and returns the stored row.
	SaveProfile(ctx context.Context, userID string, input SaveProfileInput) (*domain.Profile, error)
	// UploadAvatar validates the file locally, stores it under a fresh key
	// and returns the public URL. The URL is NOT persisted to the profile;
	// the caller must include it in a subsequent SaveProfile or the upload
	// stays orphaned.
	UploadAvatar(ctx context.Context, input UploadAvatarInput) (string, error)
}
