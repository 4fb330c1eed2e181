package providers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"
	"github.com/santurist/santurist/internal/apperrors"
	"github.com/santurist/santurist/internal/audit"
	"github.com/santurist/santurist/internal/auth"
	"github.com/santurist/santurist/internal/validation"
)

// CreateMockRequest represents the request to create a placeholder provider
type CreateMockRequest struct {
	BusinessName string  `json:"business_name"`
	Category     string  `json:"category"`
	Email        *string `json:"email,omitempty"`
	Phone        *string `json:"phone,omitempty"`
	Description  *string `json:"description,omitempty"`
}

// HandleCreateMock handles POST /api/v1/providers/mock
func HandleCreateMock(pool *pgxpool.Pool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		var req CreateMockRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			apperrors.WriteBadRequest(w, r, "Invalid request body")
			return
		}

		if strings.TrimSpace(req.BusinessName) == "" {
			apperrors.WriteBadRequest(w, r, "Business name is required")
			return
		}
		if err := validation.ValidateCategory(req.Category); err != nil {
			apperrors.WriteBadRequest(w, r, "Unknown category")
			return
		}

		service := NewService(pool)
		provider, err := service.CreateMock(ctx, CreateMockParams{
			BusinessName: strings.TrimSpace(req.BusinessName),
			Category:     req.Category,
			Email:        req.Email,
			Phone:        req.Phone,
			Description:  req.Description,
		})
		if err != nil {
			log.Error().Err(err).Msg("Failed to create mock provider")
			apperrors.WriteInternalError(w, r, "Failed to create mock provider")
			return
		}

		apperrors.WriteSuccess(w, r, http.StatusCreated, map[string]any{
			"provider": provider,
		})
	}
}

// HandleGet handles GET /api/v1/providers/{id}
func HandleGet(pool *pgxpool.Pool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		providerID, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			apperrors.WriteBadRequest(w, r, "Invalid provider ID")
			return
		}

		service := NewService(pool)
		provider, err := service.GetByID(ctx, providerID)
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				apperrors.WriteNotFound(w, r, "Provider not found")
				return
			}
			log.Error().Err(err).Msg("Failed to get provider")
			apperrors.WriteInternalError(w, r, "Failed to get provider")
			return
		}

		apperrors.WriteSuccess(w, r, http.StatusOK, map[string]any{
			"provider": provider,
		})
	}
}

// HandleList handles GET /api/v1/providers?category=&include_mock=&limit=
func HandleList(pool *pgxpool.Pool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		category := r.URL.Query().Get("category")
		includeMock := r.URL.Query().Get("include_mock") == "true"
		limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

		service := NewService(pool)
		out, err := service.List(ctx, category, includeMock, limit)
		if err != nil {
			log.Error().Err(err).Msg("Failed to list providers")
			apperrors.WriteInternalError(w, r, "Failed to list providers")
			return
		}

		apperrors.WriteSuccess(w, r, http.StatusOK, map[string]any{
			"providers": out,
		})
	}
}

// SeedRequest represents the admin seed request
type SeedRequest struct {
	SeedName string `json:"seed_name"`
}

// HandleSeed handles POST /api/v1/admin/seed
func HandleSeed(pool *pgxpool.Pool, auditor *audit.Writer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		adminID := auth.GetAdminID(ctx)

		var req SeedRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			apperrors.WriteBadRequest(w, r, "Invalid request body")
			return
		}
		if strings.TrimSpace(req.SeedName) == "" {
			apperrors.WriteBadRequest(w, r, "Seed name is required")
			return
		}

		created, err := Seed(ctx, pool, req.SeedName)
		if err != nil {
			log.Error().Err(err).Str("seed", req.SeedName).Msg("Seed failed")
			apperrors.WriteBadRequest(w, r, err.Error())
			return
		}

		if err := auditor.Log(ctx, audit.LogParams{
			ActorAdminID: &adminID,
			Action:       audit.EventSeedCreated,
			Meta:         map[string]interface{}{"seed": req.SeedName, "created": created},
		}); err != nil {
			log.Error().Err(err).Msg("Failed to log audit event")
		}

		apperrors.WriteSuccess(w, r, http.StatusOK, map[string]any{
			"created": created,
		})
	}
}

// CleanupRequest represents the admin cleanup request
type CleanupRequest struct {
	BusinessName string `json:"business_name"`
}

// HandleCleanup handles POST /api/v1/admin/cleanup
func HandleCleanup(pool *pgxpool.Pool, auditor *audit.Writer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		adminID := auth.GetAdminID(ctx)

		var req CleanupRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			apperrors.WriteBadRequest(w, r, "Invalid request body")
			return
		}
		if strings.TrimSpace(req.BusinessName) == "" {
			apperrors.WriteBadRequest(w, r, "Business name is required")
			return
		}

		deleted, err := Cleanup(ctx, pool, req.BusinessName)
		if err != nil {
			log.Error().Err(err).Str("business_name", req.BusinessName).Msg("Cleanup failed")
			apperrors.WriteInternalError(w, r, "Cleanup failed")
			return
		}

		if err := auditor.Log(ctx, audit.LogParams{
			ActorAdminID: &adminID,
			Action:       audit.EventSeedCleanup,
			Meta:         map[string]interface{}{"business_name": req.BusinessName, "deleted": deleted},
		}); err != nil {
			log.Error().Err(err).Msg("Failed to log audit event")
		}

		apperrors.WriteSuccess(w, r, http.StatusOK, map[string]any{
			"deleted": deleted,
		})
	}
}
