package auth

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/showcase-api/showcase/internal/platform/httpx"
	"github.com/showcase-api/showcase/internal/shared"
)

type contextKey struct{}

var principalKey contextKey

// ContextWithPrincipal stores the resolved principal on the request context.
func ContextWithPrincipal(ctx context.Context, p *Principal) context.Context {
	return context.WithValue(ctx, principalKey, p)
}

// PrincipalFromContext returns the resolved principal, or nil when the
// request carried no valid credentials.
func PrincipalFromContext(ctx context.Context) *Principal {
	p, _ := ctx.Value(principalKey).(*Principal)
	return p
}

// bearerToken extracts the token from the Authorization header.
func bearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	if header == "" || !strings.HasPrefix(header, "Bearer ") {
		return "", false
	}
	return strings.TrimPrefix(header, "Bearer "), true
}

// Optional resolves the principal when a bearer token is supplied and leaves
// it unset otherwise. Resolution failures are tolerated; the downstream
// service decides whether the operation needs credentials.
func Optional(svc *Service) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if token, ok := bearerToken(r); ok {
				if principal, err := svc.Authenticate(r.Context(), token); err == nil {
					r = r.WithContext(ContextWithPrincipal(r.Context(), principal))
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}

// Require rejects requests without a valid bearer token before the handler
// runs. The principal is available on the context downstream.
func Require(svc *Service) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := bearerToken(r)
			if !ok {
				httpx.RespondError(w, fmt.Errorf("%w: missing bearer token", shared.ErrUnauthenticated))
				return
			}
			principal, err := svc.Authenticate(r.Context(), token)
			if err != nil {
				httpx.RespondError(w, err)
				return
			}
			next.ServeHTTP(w, r.WithContext(ContextWithPrincipal(r.Context(), principal)))
		})
	}
}
