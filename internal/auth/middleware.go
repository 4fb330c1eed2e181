package auth

import (
	"context"
	"net/http"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/santurist/santurist/internal/apperrors"
)

// contextKey is a custom type for context keys to avoid collisions
type contextKey string

const (
	// AdminIDContextKey is the context key for storing the admin ID
	AdminIDContextKey contextKey = "admin_id"
)

// AuthMiddleware validates the session cookie and injects the admin ID into context
// If the session is invalid, it clears the cookie and continues without authentication
func AuthMiddleware(secret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := GetSessionCookie(r)
			if token == "" {
				next.ServeHTTP(w, r)
				return
			}

			claims, err := ValidateToken(token, secret)
			if err != nil {
				log.Debug().Err(err).Msg("Invalid session token")
				ClearSessionCookie(w)
				next.ServeHTTP(w, r)
				return
			}

			ctx := context.WithValue(r.Context(), AdminIDContextKey, claims.AdminID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireAdmin is middleware that requires an authenticated admin session
// Returns 401 if no admin is authenticated
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		adminID := GetAdminID(r.Context())
		if adminID == uuid.Nil {
			apperrors.WriteUnauthorized(w, r, "Authentication required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// GetAdminID retrieves the admin ID from the request context
// Returns uuid.Nil if no admin is authenticated
func GetAdminID(ctx context.Context) uuid.UUID {
	adminID, ok := ctx.Value(AdminIDContextKey).(uuid.UUID)
	if !ok {
		return uuid.Nil
	}
	return adminID
}
