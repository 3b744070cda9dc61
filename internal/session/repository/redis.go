package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"hirewire/backend/internal/session/domain"
)

const sessionKeyPrefix = "session:"

type RedisStore struct {
	client *redis.Client
}

// NewRedisStore returns a session store backed by the given Redis client.
// Keys expire at the session's absolute cap, so dead rows clean themselves up;
// the sliding expiry is enforced by the domain, not by the key TTL.
func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

type redisSession struct {
	ID                string     `json:"id"`
	UserID            string     `json:"user_id"`
	RememberMe        bool       `json:"remember_me"`
	ExpiresAt         time.Time  `json:"expires_at"`
	AbsoluteExpiresAt time.Time  `json:"absolute_expires_at"`
	Revoked           bool       `json:"revoked"`
	RevokedAt         *time.Time `json:"revoked_at,omitempty"`
	CreatedAt         time.Time  `json:"created_at"`
	UpdatedAt         time.Time  `json:"updated_at"`
}

func newRedisSession(sess *domain.Session) redisSession {
	return redisSession{
		ID:                sess.ID,
		UserID:            sess.UserID,
		RememberMe:        sess.RememberMe,
		ExpiresAt:         sess.ExpiresAt,
		AbsoluteExpiresAt: sess.AbsoluteExpiresAt,
		Revoked:           sess.Revoked,
		RevokedAt:         sess.RevokedAt,
		CreatedAt:         sess.CreatedAt,
		UpdatedAt:         sess.UpdatedAt,
	}
}

func (rs redisSession) session() *domain.Session {
	return &domain.Session{
		ID:                rs.ID,
		UserID:            rs.UserID,
		RememberMe:        rs.RememberMe,
		ExpiresAt:         rs.ExpiresAt,
		AbsoluteExpiresAt: rs.AbsoluteExpiresAt,
		Revoked:           rs.Revoked,
		RevokedAt:         rs.RevokedAt,
		CreatedAt:         rs.CreatedAt,
		UpdatedAt:         rs.UpdatedAt,
	}
}

func sessionKey(id string) string {
	return sessionKeyPrefix + id
}

func (s *RedisStore) write(ctx context.Context, sess *domain.Session, keepTTL bool) error {
	payload, err := json.Marshal(newRedisSession(sess))
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}
	key := sessionKey(sess.ID)
	if keepTTL {
		return s.client.Set(ctx, key, payload, redis.KeepTTL).Err()
	}
	if err := s.client.Set(ctx, key, payload, 0).Err(); err != nil {
		return err
	}
	return s.client.ExpireAt(ctx, key, sess.AbsoluteExpiresAt).Err()
}

// Create persists the session. The session must have ID set.
func (s *RedisStore) Create(ctx context.Context, sess *domain.Session) error {
	return s.write(ctx, sess, false)
}

// GetByID returns the session for id, or nil if not found.
// It returns an error only for store failures, not for missing keys.
func (s *RedisStore) GetByID(ctx context.Context, id string) (*domain.Session, error) {
	raw, err := s.client.Get(ctx, sessionKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, err
	}
	var rs redisSession
	if err := json.Unmarshal(raw, &rs); err != nil {
		return nil, fmt.Errorf("unmarshal session %s: %w", id, err)
	}
	return rs.session(), nil
}

// UpdateExpiry moves the sliding expiry. Revoked or missing sessions are left
// untouched.
func (s *RedisStore) UpdateExpiry(ctx context.Context, id string, expiresAt, updatedAt time.Time) error {
	sess, err := s.GetByID(ctx, id)
	if err != nil || sess == nil || sess.Revoked {
		return err
	}
	sess.ExpiresAt = expiresAt
	sess.UpdatedAt = updatedAt
	return s.write(ctx, sess, true)
}

// Revoke marks the session as revoked. The first revocation wins; missing
// keys are not an error.
func (s *RedisStore) Revoke(ctx context.Context, id string, revokedAt time.Time) error {
	sess, err := s.GetByID(ctx, id)
	if err != nil || sess == nil || sess.Revoked {
		return err
	}
	sess.Revoke(revokedAt)
	return s.write(ctx, sess, true)
}
