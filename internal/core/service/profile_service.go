package service

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/nimbuslabs/account-portal/internal/core/domain"
	"github.com/nimbuslabs/account-portal/internal/core/ports"
)

// maxAvatarBytes caps avatar uploads at 2 MiB, checked before any backend call.
const maxAvatarBytes = 2 * 1024 * 1024

// ProfileService guarantees a 1:1 profile row per authenticated user and
// applies edits as full-row replacements.
type ProfileService struct {
	profiles ports.ProfileRepository
	avatars  ports.AvatarStorage
	log      zerolog.Logger
}

func NewProfileService(profiles ports.ProfileRepository, avatars ports.AvatarStorage, log zerolog.Logger) *ProfileService {
	return &ProfileService{profiles: profiles, avatars: avatars, log: log}
}

// EnsureProfile returns the user's profile, creating an empty row on the
// first authenticated load. Only the specific not-found error triggers
// creation; any other backend failure propagates untouched.
func (s *ProfileService) EnsureProfile(ctx context.Context, userID string) (*domain.Profile, error) {
	profile, err := s.profiles.FindByUserID(ctx, userID)
	if err == nil {
		return profile, nil
	}
	if !errors.Is(err, domain.ErrProfileNotFound) {
		return nil, err
	}

	created := &domain.Profile{
		UserID:    userID,
		UpdatedAt: time.Now().UTC(),
	}
	if err := s.profiles.Insert(ctx, created); err != nil {
		return nil, fmt.Errorf("create profile: %w", err)
	}

	s.log.Info().Str("user_id", userID).Msg("profile created on first load")
	return created, nil
}

// SaveProfile performs a full-row upsert keyed by userID. Last write wins;
// the stored row is returned with its new timestamp.
func (s *ProfileService) SaveProfile(ctx context.Context, userID string, input ports.SaveProfileInput) (*domain.Profile, error) {
	profile := &domain.Profile{
		UserID:    userID,
		Username:  strings.TrimSpace(input.Username),
		FullName:  strings.TrimSpace(input.FullName),
		Website:   strings.TrimSpace(input.Website),
		AvatarURL: strings.TrimSpace(input.AvatarURL),
		UpdatedAt: time.Now().UTC(),
	}

	if err := s.profiles.Upsert(ctx, profile); err != nil {
		return nil, fmt.Errorf("save profile: %w", err)
	}

	s.log.Info().Str("user_id", userID).Msg("profile saved")
	return profile, nil
}

// UploadAvatar validates the file locally, stores it under a fresh key and
// returns the public URL. It never writes the URL to the profile row: the
// caller must persist it through SaveProfile or the upload stays orphaned.
func (s *ProfileService) UploadAvatar(ctx context.Context, input ports.UploadAvatarInput) (string, error) {
	if input.Size > maxAvatarBytes {
		return "", domain.NewValidationError("avatar", "file size must be %d MB or less", maxAvatarBytes/(1024*1024))
	}
	if !strings.HasPrefix(input.ContentType, "image/") {
		return "", domain.NewValidationError("avatar", "file must be an image")
	}

	key := avatarKey(input.UserID, input.Filename)
	if err := s.avatars.Upload(ctx, key, input.ContentType, input.Content); err != nil {
		return "", fmt.Errorf("upload avatar: %w", err)
	}

	url := s.avatars.PublicURL(key)
	s.log.Info().Str("user_id", input.UserID).Str("key", key).Msg("avatar uploaded")
	return url, nil
}

// avatarKey builds a collision-resistant storage key from the user id, a
// random suffix and the original file extension.
func avatarKey(userID, filename string) string {
	ext := strings.ToLower(filepath.Ext(filename))
	return userID + "-" + uuid.NewString() + ext
}
