package examples

import (
	"context"
	"fmt"
	"strconv"

	"github.com/showcase-api/showcase/internal/auth"
	"github.com/showcase-api/showcase/internal/cache"
	"github.com/showcase-api/showcase/internal/shared"
)

const listCacheKey = "examples"

func itemKey(id int64) string {
	return "example_" + strconv.FormatInt(id, 10)
}

var sortableColumns = map[string]bool{
	"id":          true,
	"title":       true,
	"age":         true,
	"price":       true,
	"category_id": true,
}

// ListFilter is the typed set of equality filters an example listing accepts.
type ListFilter struct {
	Title      *string
	Price      *float64
	CategoryID *int64
	ID         *int64
}

func (f ListFilter) filters() []shared.Filter {
	var out []shared.Filter
	if f.Title != nil {
		out = append(out, shared.Filter{Column: "title", Value: *f.Title})
	}
	if f.Price != nil {
		out = append(out, shared.Filter{Column: "price", Value: *f.Price})
	}
	if f.CategoryID != nil {
		out = append(out, shared.Filter{Column: "category_id", Value: *f.CategoryID})
	}
	if f.ID != nil {
		out = append(out, shared.Filter{Column: "id", Value: *f.ID})
	}
	return out
}

// Service implements the cached, role-gated example operations.
type Service struct {
	repo  Repository
	cache *cache.Gateway
}

// NewService constructs a Service.
func NewService(repo Repository, cache *cache.Gateway) *Service {
	return &Service{repo: repo, cache: cache}
}

// List returns a page of examples. Only the bare listing is cached; filtered
// or repaginated variants always reflect the current store state.
func (s *Service) List(ctx context.Context, q shared.ListQuery, filter ListFilter) ([]Example, error) {
	q.Filters = filter.filters()
	if err := q.Validate(sortableColumns); err != nil {
		return nil, err
	}

	if q.Bare() {
		result := []Example{}
		err := s.cache.FetchJSON(ctx, listCacheKey, &result, func(ctx context.Context) (any, error) {
			rows, err := s.repo.List(ctx, q)
			if err != nil {
				return nil, err
			}
			if rows == nil {
				rows = []Example{}
			}
			return rows, nil
		})
		return result, err
	}

	rows, err := s.repo.List(ctx, q)
	if err != nil {
		return nil, err
	}
	if rows == nil {
		rows = []Example{}
	}
	return rows, nil
}

// Get returns an example by id through the per-id cache. Absence is never
// cached.
func (s *Service) Get(ctx context.Context, id int64) (*Example, error) {
	var e Example
	err := s.cache.FetchJSON(ctx, itemKey(id), &e, func(ctx context.Context) (any, error) {
		return s.repo.Get(ctx, id)
	})
	if err != nil {
		return nil, err
	}
	return &e, nil
}

// Create persists a new example and invalidates the bare listing. Superuser
// only; the gate runs before any store mutation.
func (s *Service) Create(ctx context.Context, principal *auth.Principal, input Input) (*Example, error) {
	if err := auth.RequireSuperuser(principal); err != nil {
		return nil, err
	}
	if err := validate(input); err != nil {
		return nil, err
	}
	created, err := s.repo.Create(ctx, input)
	if err != nil {
		return nil, err
	}
	s.cache.Delete(ctx, listCacheKey)
	return created, nil
}

// Update rewrites an example by id, invalidates both cache keys, then
// repopulates the per-id key with the canonical row.
func (s *Service) Update(ctx context.Context, principal *auth.Principal, id int64, input Input) (*Example, error) {
	if err := auth.RequireSuperuser(principal); err != nil {
		return nil, err
	}
	if err := validate(input); err != nil {
		return nil, err
	}
	affected, err := s.repo.Update(ctx, id, input)
	if err != nil {
		return nil, err
	}
	if affected == 0 {
		return nil, fmt.Errorf("%w: example %d", shared.ErrNotFound, id)
	}
	fresh, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	s.cache.Delete(ctx, itemKey(id), listCacheKey)
	s.cache.SetJSON(ctx, itemKey(id), fresh)
	return fresh, nil
}

// Delete removes an example by id and drops both cache keys.
func (s *Service) Delete(ctx context.Context, principal *auth.Principal, id int64) (*shared.Status, error) {
	if err := auth.RequireSuperuser(principal); err != nil {
		return nil, err
	}
	affected, err := s.repo.Delete(ctx, id)
	if err != nil {
		return nil, err
	}
	if affected == 0 {
		return nil, fmt.Errorf("%w: example %d", shared.ErrNotFound, id)
	}
	s.cache.Delete(ctx, itemKey(id), listCacheKey)
	return &shared.Status{Message: fmt.Sprintf("Example %d deleted", id)}, nil
}

func validate(input Input) error {
	if input.Title == "" {
		return fmt.Errorf("%w: title is required", shared.ErrValidation)
	}
	if len(input.Title) > 255 {
		return fmt.Errorf("%w: title must be at most 255 characters", shared.ErrValidation)
	}
	if input.Age != nil && *input.Age < 1 {
		return fmt.Errorf("%w: age must be >= 1", shared.ErrValidation)
	}
	if input.Price < 1 {
		return fmt.Errorf("%w: price must be >= 1", shared.ErrValidation)
	}
	if input.Description != nil && len(*input.Description) > 2000 {
		return fmt.Errorf("%w: description must be at most 2000 characters", shared.ErrValidation)
	}
	if input.CategoryID < 1 {
		return fmt.Errorf("%w: category_id is required", shared.ErrValidation)
	}
	return nil
}
