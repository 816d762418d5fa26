package categories

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/showcase-api/showcase/internal/shared"
)

// Repository defines data access for categories. Update and Delete report
// the number of affected rows; the service maps zero to not-found.
type Repository interface {
	List(ctx context.Context, q shared.ListQuery) ([]Category, error)
	Get(ctx context.Context, id int64) (*Category, error)
	Create(ctx context.Context, input Input) (*Category, error)
	Update(ctx context.Context, id int64, input Input) (int64, error)
	Delete(ctx context.Context, id int64) (int64, error)
}

type repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

func (r *repository) List(ctx context.Context, q shared.ListQuery) ([]Category, error) {
	query := `SELECT id, title FROM categories WHERE 1=1`
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

	var result []Category
	for rows.Next() {
		var c Category
		if err := rows.Scan(&c.ID, &c.Title); err != nil {
			return nil, err
		}
		result = append(result, c)
	}
	return result, rows.Err()
}

func (r *repository) Get(ctx context.Context, id int64) (*Category, error) {
	const query = `SELECT id, title FROM categories WHERE id = $1`

	var c Category
	err := r.pool.QueryRow(ctx, query, id).Scan(&c.ID, &c.Title)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: category %d", shared.ErrNotFound, id)
		}
		return nil, err
	}
	return &c, nil
}

func (r *repository) Create(ctx context.Context, input Input) (*Category, error) {
	const query = `INSERT INTO categories (title) VALUES ($1) RETURNING id, title`

	var c Category
	err := r.pool.QueryRow(ctx, query, input.Title).Scan(&c.ID, &c.Title)
	if err != nil {
		if shared.IsUniqueViolation(err) {
			return nil, fmt.Errorf("%w: category %q", shared.ErrConflict, input.Title)
		}
		return nil, err
	}
	return &c, nil
}

func (r *repository) Update(ctx context.Context, id int64, input Input) (int64, error) {
	const query = `UPDATE categories SET title = $1 WHERE id = $2`

	tag, err := r.pool.Exec(ctx, query, input.Title, id)
	if err != nil {
		if shared.IsUniqueViolation(err) {
			return 0, fmt.Errorf("%w: category %q", shared.ErrConflict, input.Title)
		}
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func (r *repository) Delete(ctx context.Context, id int64) (int64, error) {
	const query = `DELETE FROM categories WHERE id = $1`

	tag, err := r.pool.Exec(ctx, query, id)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
