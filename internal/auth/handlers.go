package auth

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"
	"github.com/santurist/santurist/internal/apperrors"
	"github.com/santurist/santurist/internal/validation"
)

// LoginRequest represents the admin login request payload
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginResponse represents the login response
type LoginResponse struct {
	AdminID uuid.UUID `json:"admin_id"`
	Email   string    `json:"email"`
}

// HandleLogin handles POST /api/v1/auth/login
// Verifies admin credentials and establishes a session cookie
func HandleLogin(pool *pgxpool.Pool, jwtSecret string, sessionDays int, isProduction bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req LoginRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			apperrors.WriteBadRequest(w, r, "Invalid request body")
			return
		}

		email := strings.TrimSpace(strings.ToLower(req.Email))
		if err := validation.ValidateEmail(email); err != nil {
			apperrors.WriteUnauthorized(w, r, "Invalid email or password")
			return
		}

		var adminID uuid.UUID
		var passwordHash string
		query := `
			SELECT id, password_hash
			FROM admins
			WHERE email = $1
		`
		err := pool.QueryRow(r.Context(), query, email).Scan(&adminID, &passwordHash)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				log.Warn().Str("email", email).Msg("Login attempt for unknown admin")
				apperrors.WriteUnauthorized(w, r, "Invalid email or password")
				return
			}
			log.Error().Err(err).Msg("Failed to look up admin")
			apperrors.WriteInternalError(w, r, "Failed to log in")
			return
		}

		if err := VerifyPassword(passwordHash, req.Password); err != nil {
			log.Warn().Str("email", email).Msg("Login attempt with wrong password")
			apperrors.WriteUnauthorized(w, r, "Invalid email or password")
			return
		}

		token, err := CreateToken(adminID, jwtSecret, sessionDays)
		if err != nil {
			log.Error().Err(err).Msg("Failed to create session token")
			apperrors.WriteInternalError(w, r, "Failed to create session")
			return
		}

		SetSessionCookie(w, token, sessionDays, isProduction)

		csrfToken, err := GenerateCSRFToken()
		if err != nil {
			log.Error().Err(err).Msg("Failed to generate CSRF token")
			apperrors.WriteInternalError(w, r, "Failed to create session")
			return
		}
		SetCSRFCookie(w, csrfToken, isProduction)

		log.Info().
			Str("admin_id", adminID.String()).
			Str("email", email).
			Msg("Admin logged in")

		apperrors.WriteSuccess(w, r, http.StatusOK, LoginResponse{
			AdminID: adminID,
			Email:   email,
		})
	}
}

// HandleLogout handles POST /api/v1/auth/logout
func HandleLogout() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ClearSessionCookie(w)
		apperrors.WriteSuccess(w, r, http.StatusOK, map[string]string{
			"status": "logged_out",
		})
	}
}
