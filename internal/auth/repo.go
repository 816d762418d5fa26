package auth

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/showcase-api/showcase/internal/shared"
)

// Account is the credential view of a user record.
type Account struct {
	ID           int64
	Username     string
	PasswordHash string
	IsSuperuser  bool
	IsActive     bool
}

// Repository defines persistence operations for the auth module.
type Repository interface {
	FindByUsername(ctx context.Context, username string) (*Account, error)
}

// PGRepository implements Repository using PostgreSQL.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL repository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

// FindByUsername fetches the credential view of a user by username.
func (r *PGRepository) FindByUsername(ctx context.Context, username string) (*Account, error) {
	const query = `SELECT id, username, password, is_superuser, is_active FROM users WHERE username = $1`

	var account Account
	err := r.pool.QueryRow(ctx, query, username).Scan(
		&account.ID,
		&account.Username,
		&account.PasswordHash,
		&account.IsSuperuser,
		&account.IsActive,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &account, nil
}

var _ Repository = (*PGRepository)(nil)
