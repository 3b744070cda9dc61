// Package repository persists sessions. Two implementations exist, Postgres
// and Redis, selected by configuration; both are authoritative stores, not
// caches, so a revocation written through either is observed on the next read.
package repository

import (
	"context"
	"time"

	"hirewire/backend/internal/session/domain"
)

// Store defines persistence for sessions.
type Store interface {
	// Create persists the session. The session must have ID set.
	Create(ctx context.Context, s *domain.Session) error
	// GetByID returns the session for id, or nil if not found.
	// It returns an error only for store failures, not for missing rows.
	GetByID(ctx context.Context, id string) (*domain.Session, error)
	// UpdateExpiry moves the sliding expiry of the session with the given id.
	UpdateExpiry(ctx context.Context, id string, expiresAt, updatedAt time.Time) error
	// Revoke marks the session with the given id as revoked at revokedAt.
	// Revoking a missing or already revoked session is not an error.
	Revoke(ctx context.Context, id string, revokedAt time.Time) error
}
