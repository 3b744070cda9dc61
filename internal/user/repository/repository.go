// Package repository persists users.
package repository

import (
	"context"

	"hirewire/backend/internal/user/domain"
)

// Repository defines persistence for users.
type Repository interface {
	// Create persists the user. The user must have ID set.
	Create(ctx context.Context, u *domain.User) error
	// GetByID returns the user for id, or nil if not found.
	// It returns an error only for database failures, not for missing rows.
	GetByID(ctx context.Context, id string) (*domain.User, error)
	// GetByEmailHash returns the user with the given email hash, or nil if
	// not found. Lookup by hash keeps plaintext emails out of the database.
	GetByEmailHash(ctx context.Context, emailHash string) (*domain.User, error)
}
