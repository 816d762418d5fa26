package categories

import (
	"context"
	"fmt"
	"strconv"

	"github.com/showcase-api/showcase/internal/auth"
	"github.com/showcase-api/showcase/internal/cache"
	"github.com/showcase-api/showcase/internal/shared"
)

// listCacheKey holds the bare listing; per-id entries use itemKey.
const listCacheKey = "categories"

func itemKey(id int64) string {
	return "category_" + strconv.FormatInt(id, 10)
}

var sortableColumns = map[string]bool{
	"id":    true,
	"title": true,
}

// ListFilter is the typed set of equality filters a category listing accepts.
type ListFilter struct {
	Title *string
}

func (f ListFilter) filters() []shared.Filter {
	var out []shared.Filter
	if f.Title != nil {
		out = append(out, shared.Filter{Column: "title", Value: *f.Title})
	}
	return out
}

// Service implements the cached, role-gated category operations.
type Service struct {
	repo  Repository
	cache *cache.Gateway
}

// NewService constructs a Service.
func NewService(repo Repository, cache *cache.Gateway) *Service {
	return &Service{repo: repo, cache: cache}
}

// List returns a page of categories. Only the bare listing (no filters,
// default pagination and order) is served from or written to the cache;
// every other variant goes straight to the store.
func (s *Service) List(ctx context.Context, q shared.ListQuery, filter ListFilter) ([]Category, error) {
	q.Filters = filter.filters()
	if err := q.Validate(sortableColumns); err != nil {
		return nil, err
	}

	if q.Bare() {
		result := []Category{}
		err := s.cache.FetchJSON(ctx, listCacheKey, &result, func(ctx context.Context) (any, error) {
			rows, err := s.repo.List(ctx, q)
			if err != nil {
				return nil, err
			}
			if rows == nil {
				rows = []Category{}
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
		rows = []Category{}
	}
	return rows, nil
}

// Get returns a category by id through the per-id cache. Absence is never
// cached.
func (s *Service) Get(ctx context.Context, id int64) (*Category, error) {
	var c Category
	err := s.cache.FetchJSON(ctx, itemKey(id), &c, func(ctx context.Context) (any, error) {
		return s.repo.Get(ctx, id)
	})
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// Create persists a new category and invalidates the bare listing. Only
// superusers may create; the check runs before any store mutation.
func (s *Service) Create(ctx context.Context, principal *auth.Principal, input Input) (*Category, error) {
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

// Update rewrites a category by id, then refreshes the cache: both keys are
// invalidated before the per-id key is repopulated with the canonical row,
// so no reader observes the pre-update value after this call returns.
func (s *Service) Update(ctx context.Context, principal *auth.Principal, id int64, input Input) (*Category, error) {
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
		return nil, fmt.Errorf("%w: category %d", shared.ErrNotFound, id)
	}
	fresh, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	s.cache.Delete(ctx, itemKey(id), listCacheKey)
	s.cache.SetJSON(ctx, itemKey(id), fresh)
	return fresh, nil
}

// Delete removes a category by id, cascading to its examples at the store
// layer, and drops both cache keys.
func (s *Service) Delete(ctx context.Context, principal *auth.Principal, id int64) (*shared.Status, error) {
	if err := auth.RequireSuperuser(principal); err != nil {
		return nil, err
	}
	affected, err := s.repo.Delete(ctx, id)
	if err != nil {
		return nil, err
	}
	if affected == 0 {
		return nil, fmt.Errorf("%w: category %d", shared.ErrNotFound, id)
	}
	s.cache.Delete(ctx, itemKey(id), listCacheKey)
	return &shared.Status{Message: fmt.Sprintf("Category %d deleted", id)}, nil
}

func validate(input Input) error {
	if input.Title == "" {
		return fmt.Errorf("%w: title is required", shared.ErrValidation)
	}
	if len(input.Title) > 50 {
		return fmt.Errorf("%w: title must be at most 50 characters", shared.ErrValidation)
	}
	return nil
}
