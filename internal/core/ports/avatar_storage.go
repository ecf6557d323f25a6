package ports

import (
	"context"
	"io"
)

// AvatarStorage is the object-store boundary for avatar images.
type AvatarStorage interface {
	// Upload stores the object under key. Keys are collision resistant
	// (user id + random suffix) so uploads never overwrite each other.
	Upload(ctx context.Context, key, contentType string, r io.Reader) error
	// Open returns a reader over the stored object and its content type,
	// or domain.ErrAvatarNotFound.
	Open(ctx context.Context, key string) (io.ReadCloser, string, error)
	// PublicURL resolves the externally reachable URL for a stored key.
	PublicURL(key string) string
}
