package repository

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"hirewire/backend/internal/session/domain"
)

type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore returns a session store backed by the given pool.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// Create persists the session to the database. The session must have ID set.
func (s *PostgresStore) Create(ctx context.Context, sess *domain.Session) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO sessions (id, user_id, remember_me, expires_at, absolute_expires_at, revoked, revoked_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		sess.ID, sess.UserID, sess.RememberMe, sess.ExpiresAt, sess.AbsoluteExpiresAt,
		sess.Revoked, sess.RevokedAt, sess.CreatedAt, sess.UpdatedAt,
	)
	return err
}

// GetByID returns the session for id, or nil if not found.
// It returns an error only for database failures, not for missing rows.
func (s *PostgresStore) GetByID(ctx context.Context, id string) (*domain.Session, error) {
	var sess domain.Session
	err := s.pool.QueryRow(ctx, `
		SELECT id, user_id, remember_me, expires_at, absolute_expires_at, revoked, revoked_at, created_at, updated_at
		FROM sessions WHERE id = $1`, id,
	).Scan(
		&sess.ID, &sess.UserID, &sess.RememberMe, &sess.ExpiresAt, &sess.AbsoluteExpiresAt,
		&sess.Revoked, &sess.RevokedAt, &sess.CreatedAt, &sess.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &sess, nil
}

// UpdateExpiry moves the sliding expiry. Revoked sessions are left untouched.
func (s *PostgresStore) UpdateExpiry(ctx context.Context, id string, expiresAt, updatedAt time.Time) error {
	_, err := s.pool.Exec(ctx, `
		UPDATE sessions SET expires_at = $2, updated_at = $3
		WHERE id = $1 AND NOT revoked`,
		id, expiresAt, updatedAt,
	)
	return err
}

// Revoke marks the session as revoked. The first revocation wins: an already
// revoked row keeps its original revoked_at. Missing rows are not an error.
func (s *PostgresStore) Revoke(ctx context.Context, id string, revokedAt time.Time) error {
	_, err := s.pool.Exec(ctx, `
		UPDATE sessions SET revoked = TRUE, revoked_at = $2, updated_at = $2
		WHERE id = $1 AND NOT revoked`,
		id, revokedAt,
	)
	return err
}
