package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/nimbuslabs/account-portal/internal/core/domain"
)

// SessionStore keeps session records and one-shot confirmation tokens in
// Redis. Sessions live under session:<id> with a TTL matching their expiry;
// confirmation tokens live under confirm:<token> and are consumed with GETDEL.
type SessionStore struct {
	client *redis.Client
}

func NewSessionStore(client *redis.Client) *SessionStore {
	return &SessionStore{client: client}
}

func (s *SessionStore) Create(ctx context.Context, sess *domain.Session) error {
	payload, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}

	ttl := time.Until(sess.ExpiresAt)
	if ttl <= 0 {
		return fmt.Errorf("session %s already expired", sess.ID)
	}

	if err := s.client.Set(ctx, sessionKey(sess.ID), payload, ttl).Err(); err != nil {
		return fmt.Errorf("store session: %w", err)
	}
	return nil
}

func (s *SessionStore) Get(ctx context.Context, id string) (*domain.Session, error) {
	payload, err := s.client.Get(ctx, sessionKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, domain.ErrSessionNotFound
		}
		return nil, fmt.Errorf("fetch session: %w", err)
	}

	var sess domain.Session
	if err := json.Unmarshal(payload, &sess); err != nil {
		return nil, fmt.Errorf("decode session: %w", err)
	}
	return &sess, nil
}

func (s *SessionStore) Delete(ctx context.Context, id string) error {
	if err := s.client.Del(ctx, sessionKey(id)).Err(); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

func (s *SessionStore) SaveConfirmation(ctx context.Context, token, userID string, ttl time.Duration) error {
	if err := s.client.Set(ctx, confirmKey(token), userID, ttl).Err(); err != nil {
		return fmt.Errorf("store confirmation: %w", err)
	}
	return nil
}

// TakeConfirmation consumes the token atomically, so a confirmation link
// can be used exactly once.
func (s *SessionStore) TakeConfirmation(ctx context.Context, token string) (string, error) {
	userID, err := s.client.GetDel(ctx, confirmKey(token)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", domain.ErrInvalidConfirmation
		}
		return "", fmt.Errorf("consume confirmation: %w", err)
	}
	return userID, nil
}

func sessionKey(id string) string {
	return "session:" + id
}

func confirmKey(token string) string {
	return "confirm:" + token
}
