package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/mholloway/pennygate/internal/models"
	pkghttp "github.com/mholloway/pennygate/pkg/http"
)

// contextKey is a custom type for context keys
type contextKey string

// IdentityContextKey is the key for the verified caller in the request context
const IdentityContextKey contextKey = "identity"

// Fixed middleware failure messages. Distinguishing a missing header from
// a bad token does not aid credential guessing, unlike on the login path.
const (
	MsgNoToken  = "You need to authenticate to do that"
	MsgBadToken = "Bad authentication token"
)

// Authenticate turns an Authorization header value into a verified
// identity. It is a pure function of the header and the token secret:
// the HTTP layer maps its result onto a response, and it mutates nothing.
//
// Failures are models.ErrUnauthenticated (no credential presented) or
// models.ErrInvalidToken (present but unusable).
func Authenticate(tm *TokenManager, authHeader string) (*models.Identity, error) {
	if authHeader == "" {
		return nil, models.ErrUnauthenticated
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || parts[0] != "Bearer" {
		return nil, models.ErrInvalidToken
	}

	claims, err := tm.ValidateToken(parts[1])
	if err != nil {
		return nil, err
	}

	return &models.Identity{UID: claims.UID, Name: claims.Name}, nil
}

// Middleware gates a route group on a valid bearer token, attaching the
// identity to the request context for downstream handlers. It is
// independent of the ban tracker: it consumes no attempts and mutates no
// shared state, so it is safe under unbounded concurrency.
func Middleware(tm *TokenManager) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			identity, err := Authenticate(tm, r.Header.Get("Authorization"))
			if err != nil {
				if errors.Is(err, models.ErrUnauthenticated) {
					pkghttp.WriteUnauthorized(w, MsgNoToken)
				} else {
					pkghttp.WriteUnauthorized(w, MsgBadToken)
				}
				return
			}

			ctx := context.WithValue(r.Context(), IdentityContextKey, identity)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetIdentityFromContext extracts the verified caller from the request context
func GetIdentityFromContext(r *http.Request) *models.Identity {
	identity, ok := r.Context().Value(IdentityContextKey).(*models.Identity)
	if !ok {
		return nil
	}
	return identity
}
