package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/sortify/conveyor-dashboard/internal/core/domain"
)

// SessionStore keeps backend sessions in Redis until they expire.
// Key format: session:<session_id>
type SessionStore struct {
	client redis.Cmdable
}

func NewSessionStore(client redis.Cmdable) *SessionStore {
	return &SessionStore{client: client}
}

type sessionRecord struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Email     string    `json:"email"`
	IssuedAt  time.Time `json:"issued_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Put stores the session. The access token itself is not persisted.
func (s *SessionStore) Put(ctx context.Context, sess *domain.Session, ttl time.Duration) error {
	b, err := json.Marshal(sessionRecord{
		ID:        sess.ID,
		UserID:    sess.UserID,
		Email:     sess.Email,
		IssuedAt:  sess.IssuedAt,
		ExpiresAt: sess.ExpiresAt,
	})
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	if err := s.client.Set(ctx, sessionKey(sess.ID), b, ttl).Err(); err != nil {
		return fmt.Errorf("store session: %w", err)
	}
	return nil
}

// Get returns domain.ErrSessionNotFound for unknown or expired sessions.
func (s *SessionStore) Get(ctx context.Context, id string) (*domain.Session, error) {
	b, err := s.client.Get(ctx, sessionKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, domain.ErrSessionNotFound
		}
		return nil, fmt.Errorf("load session: %w", err)
	}

	var rec sessionRecord
	if err := json.Unmarshal(b, &rec); err != nil {
		return nil, fmt.Errorf("decode session: %w", err)
	}
	return &domain.Session{
		ID:        rec.ID,
		UserID:    rec.UserID,
		Email:     rec.Email,
		IssuedAt:  rec.IssuedAt,
		ExpiresAt: rec.ExpiresAt,
	}, nil
}

func (s *SessionStore) Delete(ctx context.Context, id string) error {
	if err := s.client.Del(ctx, sessionKey(id)).Err(); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

func sessionKey(id string) string {
	return "session:" + id
}

// TokenStorage is the per-visitor token slot.
// Key format: visitor:<visitor_id>:token
type TokenStorage struct {
	client redis.Cmdable
}

func NewTokenStorage(client redis.Cmdable) *TokenStorage {
	return &TokenStorage{client: client}
}

// Load returns an empty token when none is stored.
func (t *TokenStorage) Load(ctx context.Context, visitorID string) (string, error) {
	tok, err := t.client.Get(ctx, tokenKey(visitorID)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", nil
		}
		return "", fmt.Errorf("load token: %w", err)
	}
	return tok, nil
}

func (t *TokenStorage) Save(ctx context.Context, visitorID, token string, ttl time.Duration) error {
	if err := t.client.Set(ctx, tokenKey(visitorID), token, ttl).Err(); err != nil {
		return fmt.Errorf("store token: %w", err)
	}
	return nil
}

func (t *TokenStorage) Clear(ctx context.Context, visitorID string) error {
	if err := t.client.Del(ctx, tokenKey(visitorID)).Err(); err != nil {
		return fmt.Errorf("clear token: %w", err)
	}
	return nil
}

func tokenKey(visitorID string) string {
	return fmt.Sprintf("visitor:%s:token", visitorID)
}
