package users

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/google/uuid"

	"github.com/showcase-api/showcase/internal/auth"
	"github.com/showcase-api/showcase/internal/cache"
	"github.com/showcase-api/showcase/internal/shared"
)

const listCacheKey = "users"

func itemKey(id int64) string {
	return "user_" + strconv.FormatInt(id, 10)
}

// profileKey addresses the non-authoritative profile cache used by the /me
// lookup. It is never consulted for authorization decisions.
func profileKey(username string) string {
	return "profile_" + username
}

var sortableColumns = map[string]bool{
	"id":          true,
	"username":    true,
	"email":       true,
	"date_joined": true,
}

// ListFilter is the typed set of equality filters a user listing accepts.
type ListFilter struct {
	Username *string
	Email    *string
}

func (f ListFilter) filters() []shared.Filter {
	var out []shared.Filter
	if f.Username != nil {
		out = append(out, shared.Filter{Column: "username", Value: *f.Username})
	}
	if f.Email != nil {
		out = append(out, shared.Filter{Column: "email", Value: *f.Email})
	}
	return out
}

// Mailer enqueues outbound mail. Delivery is fire-and-forget relative to the
// request that triggered it.
type Mailer interface {
	EnqueueConfirmation(ctx context.Context, email, username, code string) error
}

// Service implements the cached, role-gated user operations plus the
// self-service registration and confirmation flows.
type Service struct {
	repo   Repository
	cache  *cache.Gateway
	mailer Mailer
	logger *slog.Logger
}

// NewService constructs a Service. mailer may be nil when outbound mail is
// disabled.
func NewService(repo Repository, cache *cache.Gateway, mailer Mailer, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, cache: cache, mailer: mailer, logger: logger}
}

// List returns a page of users. Only the bare listing is cached.
func (s *Service) List(ctx context.Context, q shared.ListQuery, filter ListFilter) ([]User, error) {
	q.Filters = filter.filters()
	if err := q.Validate(sortableColumns); err != nil {
		return nil, err
	}

	if q.Bare() {
		result := []User{}
		err := s.cache.FetchJSON(ctx, listCacheKey, &result, func(ctx context.Context) (any, error) {
			rows, err := s.repo.List(ctx, q)
			if err != nil {
				return nil, err
			}
			if rows == nil {
				rows = []User{}
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
		rows = []User{}
	}
	return rows, nil
}

// Get returns a user by id through the per-id cache. Absence is never cached.
func (s *Service) Get(ctx context.Context, id int64) (*User, error) {
	var u User
	err := s.cache.FetchJSON(ctx, itemKey(id), &u, func(ctx context.Context) (any, error) {
		return s.repo.Get(ctx, id)
	})
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// Profile returns the caller's own record through the profile cache. The
// cache is read-only convenience: a missing record is reported, never stored.
func (s *Service) Profile(ctx context.Context, principal *auth.Principal) (*User, error) {
	if principal == nil {
		return nil, fmt.Errorf("%w: credentials required", shared.ErrUnauthenticated)
	}
	var u User
	err := s.cache.FetchJSON(ctx, profileKey(principal.Username), &u, func(ctx context.Context) (any, error) {
		return s.repo.GetByUsername(ctx, principal.Username)
	})
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// Register creates an account without authentication, emails the caller a
// confirmation code, and invalidates the bare listing. The email is queued
// after the row is committed; a queue failure is logged and never affects
// the response.
func (s *Service) Register(ctx context.Context, input RegisterInput) (*User, error) {
	hash, err := auth.HashPassword(input.Password)
	if err != nil {
		return nil, err
	}
	code := uuid.NewString()
	created, err := s.repo.Create(ctx, NewUser{
		Username:     input.Username,
		Email:        input.Email,
		PasswordHash: hash,
		ConfirmCode:  code,
	})
	if err != nil {
		return nil, err
	}
	s.cache.Delete(ctx, listCacheKey)

	if s.mailer != nil {
		if err := s.mailer.EnqueueConfirmation(ctx, created.Email, created.Username, code); err != nil {
			s.logger.Warn("enqueue confirmation email",
				slog.String("username", created.Username), slog.Any("error", err))
		}
	}
	return created, nil
}

// Create persists an account on behalf of a superuser. Unlike Register the
// new account needs no email confirmation.
func (s *Service) Create(ctx context.Context, principal *auth.Principal, input CreateInput) (*User, error) {
	if err := auth.RequireSuperuser(principal); err != nil {
		return nil, err
	}
	hash, err := auth.HashPassword(input.Password)
	if err != nil {
		return nil, err
	}
	created, err := s.repo.Create(ctx, NewUser{
		Username:     input.Username,
		Email:        input.Email,
		PasswordHash: hash,
		IsSuperuser:  input.IsSuperuser,
	})
	if err != nil {
		return nil, err
	}
	s.cache.Delete(ctx, listCacheKey)
	return created, nil
}

// Update rewrites a user by id. Callers may update their own record;
// superusers may update any. Both cache keys and the profile entries for the
// old and new usernames are invalidated before the per-id key is
// repopulated with the canonical row.
func (s *Service) Update(ctx context.Context, principal *auth.Principal, id int64, input Input) (*User, error) {
	if err := auth.RequireSelfOrSuperuser(principal, id); err != nil {
		return nil, err
	}
	existing, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	affected, err := s.repo.Update(ctx, id, input)
	if err != nil {
		return nil, err
	}
	if affected == 0 {
		return nil, fmt.Errorf("%w: user %d", shared.ErrNotFound, id)
	}
	fresh, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	s.cache.Delete(ctx, itemKey(id), listCacheKey,
		profileKey(existing.Username), profileKey(fresh.Username))
	s.cache.SetJSON(ctx, itemKey(id), fresh)
	return fresh, nil
}

// Delete removes a user by id and drops every cache entry that referenced it.
func (s *Service) Delete(ctx context.Context, principal *auth.Principal, id int64) (*shared.Status, error) {
	if err := auth.RequireSuperuser(principal); err != nil {
		return nil, err
	}
	existing, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	affected, err := s.repo.Delete(ctx, id)
	if err != nil {
		return nil, err
	}
	if affected == 0 {
		return nil, fmt.Errorf("%w: user %d", shared.ErrNotFound, id)
	}
	s.cache.Delete(ctx, itemKey(id), listCacheKey, profileKey(existing.Username))
	return &shared.Status{Message: fmt.Sprintf("User %d deleted", id)}, nil
}

// ConfirmEmail marks the account behind code as confirmed.
func (s *Service) ConfirmEmail(ctx context.Context, code string) (*shared.Status, error) {
	if code == "" {
		return nil, fmt.Errorf("%w: confirmation code is required", shared.ErrValidation)
	}
	confirmed, err := s.repo.Confirm(ctx, code)
	if err != nil {
		return nil, err
	}
	s.cache.Delete(ctx, itemKey(confirmed.ID), listCacheKey, profileKey(confirmed.Username))
	return &shared.Status{Message: fmt.Sprintf("Email for user %q confirmed", confirmed.Username)}, nil
}
