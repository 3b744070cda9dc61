package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"hirewire/backend/internal/user/domain"
)

type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository returns a user repository backed by the given pool.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

// Create persists the user to the database. The user must have ID set; it is
// not assigned by this method.
func (r *PostgresRepository) Create(ctx context.Context, u *domain.User) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO users (id, email_hash, password_hash, role, locked, pii, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		u.ID, u.EmailHash, u.PasswordHash, string(u.Role), u.Locked, u.PII, u.CreatedAt, u.UpdatedAt,
	)
	return err
}

// GetByID returns the user for id, or nil if not found.
// It returns an error only for database failures, not for missing rows.
func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	return r.get(ctx, `
		SELECT id, email_hash, password_hash, role, locked, pii, created_at, updated_at
		FROM users WHERE id = $1`, id)
}

// GetByEmailHash returns the user with the given email hash, or nil if not
// found. It returns an error only for database failures, not for missing rows.
func (r *PostgresRepository) GetByEmailHash(ctx context.Context, emailHash string) (*domain.User, error) {
	return r.get(ctx, `
		SELECT id, email_hash, password_hash, role, locked, pii, created_at, updated_at
		FROM users WHERE email_hash = $1`, emailHash)
}

func (r *PostgresRepository) get(ctx context.Context, query, arg string) (*domain.User, error) {
	var u domain.User
	var role string
	err := r.pool.QueryRow(ctx, query, arg).Scan(
		&u.ID, &u.EmailHash, &u.PasswordHash, &role, &u.Locked, &u.PII, &u.CreatedAt, &u.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	u.Role = domain.Role(role)
	return &u, nil
}
