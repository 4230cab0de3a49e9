package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/BradenHooton/supportportal/internal/models"
	pkghttp "github.com/BradenHooton/supportportal/pkg/http"
)

// TokenHeader carries the bearer token on the login response.
const TokenHeader = "Jwt-Token"

// contextKey is a custom type for context keys
type contextKey string

const (
	// PrincipalContextKey is the key for storing the verified principal in context
	PrincipalContextKey contextKey = "principal"
)

// TokenValidator validates a bearer token string
type TokenValidator interface {
	ValidateToken(tokenString string) (*models.Principal, error)
}

// Authenticate validates the Authorization bearer token and injects the
// principal into the request context.
func Authenticate(validator TokenValidator) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				pkghttp.WriteUnauthorized(w, "missing authorization header")
				return
			}

			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
				pkghttp.WriteUnauthorized(w, "invalid authorization header format")
				return
			}

			principal, err := validator.ValidateToken(parts[1])
			if err != nil {
				if errors.Is(err, models.ErrTokenExpired) {
					pkghttp.WriteError(w, http.StatusUnauthorized, "token_expired", "token has expired")
					return
				}
				pkghttp.WriteError(w, http.StatusUnauthorized, "token_invalid", "token cannot be verified")
				return
			}

			next.ServeHTTP(w, r.WithContext(WithPrincipal(r.Context(), principal)))
		})
	}
}

// RequireAuthority rejects requests whose principal lacks authority.
// Must be used after Authenticate.
func RequireAuthority(authority string) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			principal := PrincipalFromContext(r.Context())
			if principal == nil {
				pkghttp.WriteUnauthorized(w, "unauthorized")
				return
			}

			if !principal.HasAuthority(authority) {
				pkghttp.WriteForbidden(w, "insufficient permissions")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// PrincipalFromContext extracts the verified principal, or nil.
func PrincipalFromContext(ctx context.Context) *models.Principal {
	principal, ok := ctx.Value(PrincipalContextKey).(*models.Principal)
	if !ok {
		return nil
	}
	return principal
}

// WithPrincipal returns a context carrying principal.
func WithPrincipal(ctx context.Context, principal *models.Principal) context.Context {
	return context.WithValue(ctx, PrincipalContextKey, principal)
}
