package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/showcase-api/showcase/internal/shared"
)

// LoginStatus discriminates the possible outcomes of a login attempt.
type LoginStatus int

const (
	// LoginOK means the credentials matched and a token was issued.
	LoginOK LoginStatus = iota
	// LoginUnknownUser means no record exists for the username.
	LoginUnknownUser
	// LoginBadPassword means the record exists but the password did not
	// match or the account cannot be logged into.
	LoginBadPassword
)

// LoginResult is the discriminated result of a login attempt. Token and
// ExpiresAt are set only when Status is LoginOK.
type LoginResult struct {
	Status    LoginStatus
	Token     string
	ExpiresAt time.Time
}

// Service wraps authentication business rules.
type Service struct {
	repo   Repository
	tokens *TokenManager
}

// NewService constructs a new Service.
func NewService(repo Repository, tokens *TokenManager) *Service {
	return &Service{repo: repo, tokens: tokens}
}

// Login validates username/password credentials and issues a bearer token.
// Credential failures are reported through LoginResult.Status; the error
// return carries infrastructure failures only.
func (s *Service) Login(ctx context.Context, username, password string) (LoginResult, error) {
	account, err := s.repo.FindByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return LoginResult{Status: LoginUnknownUser}, nil
		}
		return LoginResult{}, err
	}
	if !account.IsActive || !VerifyPassword(password, account.PasswordHash) {
		return LoginResult{Status: LoginBadPassword}, nil
	}
	token, expiresAt, err := s.tokens.Issue(account.Username)
	if err != nil {
		return LoginResult{}, err
	}
	return LoginResult{Status: LoginOK, Token: token, ExpiresAt: expiresAt}, nil
}

// ResolvePrincipal looks up the token subject in the store. A subject with no
// backing record is a distinct outcome from an invalid token.
func (s *Service) ResolvePrincipal(ctx context.Context, claims *Claims) (*Principal, error) {
	account, err := s.repo.FindByUsername(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, fmt.Errorf("%w: unknown subject", shared.ErrUnauthenticated)
		}
		return nil, err
	}
	return &Principal{
		ID:          account.ID,
		Username:    account.Username,
		IsSuperuser: account.IsSuperuser,
	}, nil
}

// Authenticate verifies a raw bearer token and resolves its principal.
func (s *Service) Authenticate(ctx context.Context, token string) (*Principal, error) {
	claims, err := s.tokens.Verify(token)
	if err != nil {
		return nil, err
	}
	return s.ResolvePrincipal(ctx, claims)
}
