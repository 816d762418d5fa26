package examples

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/showcase-api/showcase/internal/shared"
)

// Repository defines data access for examples. Update and Delete report the
// number of affected rows; the service maps zero to not-found.
type Repository interface {
	List(ctx context.Context, q shared.ListQuery) ([]Example, error)
	Get(ctx context.Context, id int64) (*Example, error)
	Create(ctx context.Context, input Input) (*Example, error)
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

const columns = `id, title, age, price, description, category_id`

func (r *repository) List(ctx context.Context, q shared.ListQuery) ([]Example, error) {
	query := `SELECT ` + columns + ` FROM examples WHERE 1=1`
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

	var result []Example
	for rows.Next() {
		var e Example
		if err := rows.Scan(&e.ID, &e.Title, &e.Age, &e.Price, &e.Description, &e.CategoryID); err != nil {
			return nil, err
		}
		result = append(result, e)
	}
	return result, rows.Err()
}

func (r *repository) Get(ctx context.Context, id int64) (*Example, error) {
	query := `SELECT ` + columns + ` FROM examples WHERE id = $1`

	var e Example
	err := r.pool.QueryRow(ctx, query, id).Scan(&e.ID, &e.Title, &e.Age, &e.Price, &e.Description, &e.CategoryID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: example %d", shared.ErrNotFound, id)
		}
		return nil, err
	}
	return &e, nil
}

func (r *repository) Create(ctx context.Context, input Input) (*Example, error) {
	query := `INSERT INTO examples (title, age, price, description, category_id)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING ` + columns

	var e Example
	err := r.pool.QueryRow(ctx, query,
		input.Title, input.Age, input.Price, input.Description, input.CategoryID,
	).Scan(&e.ID, &e.Title, &e.Age, &e.Price, &e.Description, &e.CategoryID)
	if err != nil {
		return nil, wrapWriteError(err, input)
	}
	return &e, nil
}

func (r *repository) Update(ctx context.Context, id int64, input Input) (int64, error) {
	const query = `UPDATE examples
		SET title = $1, age = $2, price = $3, description = $4, category_id = $5
		WHERE id = $6`

	tag, err := r.pool.Exec(ctx, query,
		input.Title, input.Age, input.Price, input.Description, input.CategoryID, id,
	)
	if err != nil {
		return 0, wrapWriteError(err, input)
	}
	return tag.RowsAffected(), nil
}

func (r *repository) Delete(ctx context.Context, id int64) (int64, error) {
	const query = `DELETE FROM examples WHERE id = $1`

	tag, err := r.pool.Exec(ctx, query, id)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

// wrapWriteError translates constraint violations into the domain taxonomy.
// A dangling category reference reads as bad input to the caller.
func wrapWriteError(err error, input Input) error {
	if shared.IsUniqueViolation(err) {
		return fmt.Errorf("%w: example %q", shared.ErrConflict, input.Title)
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23503" {
		return fmt.Errorf("%w: category %d does not exist", shared.ErrValidation, input.CategoryID)
	}
	return err
}
