// Package storage provides the avatar object store backed by MongoDB GridFS,
// keeping binary objects inside the same database the rest of the service
// already depends on.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/gridfs"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/nimbuslabs/account-portal/internal/core/domain"
)

const bucketName = "avatars"

// GridFSAvatarStore implements ports.AvatarStorage over a GridFS bucket.
// Public URLs resolve to the service's own /avatars/<key> route.
type GridFSAvatarStore struct {
	bucket  *gridfs.Bucket
	baseURL string
}

func NewGridFSAvatarStore(db *mongo.Database, baseURL string) (*GridFSAvatarStore, error) {
	bucket, err := gridfs.NewBucket(db, options.GridFSBucket().SetName(bucketName))
	if err != nil {
		return nil, fmt.Errorf("open gridfs bucket: %w", err)
	}
	return &GridFSAvatarStore{bucket: bucket, baseURL: strings.TrimRight(baseURL, "/")}, nil
}

func (s *GridFSAvatarStore) Upload(ctx context.Context, key, contentType string, r io.Reader) error {
	// GridFS streams take deadlines rather than contexts.
	if deadline, ok := ctx.Deadline(); ok {
		_ = s.bucket.SetWriteDeadline(deadline)
	}

	opts := options.GridFSUpload().SetMetadata(bson.M{"content_type": contentType})
	if _, err := s.bucket.UploadFromStream(key, r, opts); err != nil {
		return fmt.Errorf("gridfs upload: %w", err)
	}
	return nil
}

func (s *GridFSAvatarStore) Open(ctx context.Context, key string) (io.ReadCloser, string, error) {
	if deadline, ok := ctx.Deadline(); ok {
		_ = s.bucket.SetReadDeadline(deadline)
	}

	stream, err := s.bucket.OpenDownloadStreamByName(key)
	if err != nil {
		if errors.Is(err, gridfs.ErrFileNotFound) {
			return nil, "", domain.ErrAvatarNotFound
		}
		return nil, "", fmt.Errorf("gridfs open: %w", err)
	}

	contentType := "application/octet-stream"
	var meta struct {
		ContentType string `bson:"content_type"`
	}
	if raw := stream.GetFile().Metadata; raw != nil {
		if err := bson.Unmarshal(raw, &meta); err == nil && meta.ContentType != "" {
			contentType = meta.ContentType
		}
	}

	return stream, contentType, nil
}

func (s *GridFSAvatarStore) PublicURL(key string) string {
	return s.baseURL + "/avatars/" + key
}
