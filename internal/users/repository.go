package users

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/showcase-api/showcase/internal/shared"
)

// Repository defines data access for user accounts. Update and Delete report
// the number of affected rows; the service maps zero to not-found.
type Repository interface {
	List(ctx context.Context, q shared.ListQuery) ([]User, error)
	Get(ctx context.Context, id int64) (*User, error)
	GetByUsername(ctx context.Context, username string) (*User, error)
	Create(ctx context.Context, record NewUser) (*User, error)
	Update(ctx context.Context, id int64, input Input) (int64, error)
	Delete(ctx context.Context, id int64) (int64, error)
	Confirm(ctx context.Context, code string) (*User, error)
}

type repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

const columns = `id, username, email, is_superuser, is_active, confirmed, date_joined`

func scanUser(row pgx.Row) (*User, error) {
	var u User
	err := row.Scan(&u.ID, &u.Username, &u.Email, &u.IsSuperuser, &u.IsActive, &u.Confirmed, &u.DateJoined)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *repository) List(ctx context.Context, q shared.ListQuery) ([]User, error) {
	query := `SELECT ` + columns + ` FROM users WHERE 1=1`
	args := []any{}
	argCount := 0

	for _, f := range q.Filters {
		argCount++
		query += ` AND ` + f.Column + ` = $` + strconv.Itoa(argCount)
		args = append(args, f.Value)
	}

	query += ` ORDER BY ` + q.OrderClause()

	argCount++
	query += ` LIMIT $` + strconv.Itoa(argCount)
	args = append(args, q.Limit)
	argCount++
	query += ` OFFSET $` + strconv.Itoa(argCount)
	args = append(args, q.Offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []User
	for rows.Next() {
		var u User
		if err := rows.Scan(&u.ID, &u.Username, &u.Email, &u.IsSuperuser, &u.IsActive, &u.Confirmed, &u.DateJoined); err != nil {
			return nil, err
		}
		result = append(result, u)
	}
	return result, rows.Err()
}

func (r *repository) Get(ctx context.Context, id int64) (*User, error) {
	query := `SELECT ` + columns + ` FROM users WHERE id = $1`

	user, err := scanUser(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: user %d", shared.ErrNotFound, id)
		}
		return nil, err
	}
	return user, nil
}

func (r *repository) GetByUsername(ctx context.Context, username string) (*User, error) {
	query := `SELECT ` + columns + ` FROM users WHERE username = $1`

	user, err := scanUser(r.pool.QueryRow(ctx, query, username))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: user %q", shared.ErrNotFound, username)
		}
		return nil, err
	}
	return user, nil
}

func (r *repository) Create(ctx context.Context, record NewUser) (*User, error) {
	query := `INSERT INTO users (username, password, email, is_superuser, confirm_code)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING ` + columns

	user, err := scanUser(r.pool.QueryRow(ctx, query,
		record.Username, record.PasswordHash, record.Email, record.IsSuperuser, record.ConfirmCode,
	))
	if err != nil {
		if shared.IsUniqueViolation(err) {
			return nil, fmt.Errorf("%w: user %q", shared.ErrConflict, record.Username)
		}
		return nil, err
	}
	return user, nil
}

func (r *repository) Update(ctx context.Context, id int64, input Input) (int64, error) {
	const query = `UPDATE users SET username = $1, email = $2 WHERE id = $3`

	tag, err := r.pool.Exec(ctx, query, input.Username, input.Email, id)
	if err != nil {
		if shared.IsUniqueViolation(err) {
			return 0, fmt.Errorf("%w: user %q", shared.ErrConflict, input.Username)
		}
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func (r *repository) Delete(ctx context.Context, id int64) (int64, error) {
	const query = `DELETE FROM users WHERE id = $1`

	tag, err := r.pool.Exec(ctx, query, id)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

// Confirm marks the account holding code as confirmed and clears the code so
// it cannot be replayed.
func (r *repository) Confirm(ctx context.Context, code string) (*User, error) {
	query := `UPDATE users SET confirmed = TRUE, confirm_code = ''
		WHERE confirm_code = $1 AND confirm_code <> '' AND NOT confirmed
		RETURNING ` + columns

	user, err := scanUser(r.pool.QueryRow(ctx, query, code))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: confirmation code", shared.ErrNotFound)
		}
		return nil, err
	}
	return user, nil
}
