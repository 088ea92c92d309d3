package auth

import (
	"context"
	"net/http"
	"strings"

	"canteen-connect/internal/models"
	"canteen-connect/internal/web"
)

type ctxKey string

const identityKey ctxKey = "identity"

// IdentityFrom returns the verified caller identity attached by
// Authenticate, or nil.
func IdentityFrom(ctx context.Context) *models.Identity {
	if id, ok := ctx.Value(identityKey).(*models.Identity); ok {
		return id
	}
	return nil
}

// Authenticate verifies the bearer token and attaches the identity to
// the request context.
func (s *Service) Authenticate(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			web.WriteError(w, http.StatusUnauthorized, "No token provided", web.RequestID(r))
			return
		}

		identity, err := s.VerifyToken(strings.TrimPrefix(header, "Bearer "))
		if err != nil {
			web.WriteError(w, http.StatusUnauthorized, "Invalid token", web.RequestID(r))
			return
		}

		ctx := context.WithValue(r.Context(), identityKey, identity)
		next(w, r.WithContext(ctx))
	}
}

// RequireRole rejects callers whose verified role differs from role.
func (s *Service) RequireRole(role string, next http.HandlerFunc) http.HandlerFunc {
	return s.Authenticate(func(w http.ResponseWriter, r *http.Request) {
		identity := IdentityFrom(r.Context())
		if identity == nil || identity.Role != role {
			web.WriteError(w, http.StatusForbidden, "Insufficient permissions", web.RequestID(r))
			return
		}
		next(w, r)
	})
}
