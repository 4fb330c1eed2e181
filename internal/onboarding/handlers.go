package onboarding

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"
	"github.com/santurist/santurist/internal/apperrors"
	"github.com/santurist/santurist/internal/validation"
)

// defaultTotalSteps is the number of registration steps in the current flow.
const defaultTotalSteps = 4

// StartRequest represents the request to begin onboarding
type StartRequest struct {
	UserID     string `json:"user_id"`
	Email      string `json:"email"`
	Code       string `json:"code"`
	TotalSteps int    `json:"total_steps,omitempty"`
}

// HandleStart handles POST /api/v1/onboarding
func HandleStart(pool *pgxpool.Pool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		var req StartRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			apperrors.WriteBadRequest(w, r, "Invalid request body")
			return
		}

		if strings.TrimSpace(req.UserID) == "" {
			apperrors.WriteBadRequest(w, r, "User ID is required")
			return
		}
		if err := validation.ValidateEmail(req.Email); err != nil {
			apperrors.WriteBadRequest(w, r, "Invalid email")
			return
		}
		if err := validation.ValidateCodeFormat(req.Code); err != nil {
			apperrors.WriteBadRequest(w, r, "Invalid invitation code format")
			return
		}
		totalSteps := req.TotalSteps
		if totalSteps <= 0 {
			totalSteps = defaultTotalSteps
		}

		service := NewService(pool)
		progress, err := service.Start(ctx, StartParams{
			UserID:     strings.TrimSpace(req.UserID),
			Email:      strings.ToLower(strings.TrimSpace(req.Email)),
			Code:       validation.NormalizeCode(req.Code),
			TotalSteps: totalSteps,
		})
		if err != nil {
			log.Warn().Err(err).Msg("Failed to start onboarding")
			apperrors.WriteBadRequest(w, r, "Invitation cannot be used")
			return
		}

		apperrors.WriteSuccess(w, r, http.StatusCreated, map[string]any{
			"progress": progress,
			"state":    progress.State(time.Now().UTC()),
		})
	}
}

// SubmitStepRequest represents one step submission
type SubmitStepRequest struct {
	StepID string         `json:"step_id"`
	Draft  map[string]any `json:"draft,omitempty"`
}

// HandleSubmitStep handles POST /api/v1/onboarding/{id}/steps
func HandleSubmitStep(pool *pgxpool.Pool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		progressID, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			apperrors.WriteBadRequest(w, r, "Invalid onboarding ID")
			return
		}

		var req SubmitStepRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			apperrors.WriteBadRequest(w, r, "Invalid request body")
			return
		}
		if strings.TrimSpace(req.StepID) == "" {
			apperrors.WriteBadRequest(w, r, "Step ID is required")
			return
		}

		service := NewService(pool)
		progress, err := service.SubmitStep(ctx, progressID, strings.TrimSpace(req.StepID), req.Draft)
		if err != nil {
			switch {
			case errors.Is(err, ErrNotFound):
				apperrors.WriteNotFound(w, r, "Onboarding record not found")
			case errors.Is(err, ErrExpired):
				apperrors.WriteConflict(w, r, "Onboarding window has expired")
			case errors.Is(err, ErrAlreadyFinalized):
				apperrors.WriteConflict(w, r, "Onboarding already finalized")
			default:
				log.Error().Err(err).Msg("Failed to submit onboarding step")
				apperrors.WriteInternalError(w, r, "Failed to submit onboarding step")
			}
			return
		}

		apperrors.WriteSuccess(w, r, http.StatusOK, map[string]any{
			"progress": progress,
			"state":    progress.State(time.Now().UTC()),
		})
	}
}

// HandleFinalize handles POST /api/v1/onboarding/{id}/finalize
func HandleFinalize(pool *pgxpool.Pool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		progressID, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			apperrors.WriteBadRequest(w, r, "Invalid onboarding ID")
			return
		}

		service := NewService(pool)
		provider, err := service.Finalize(ctx, progressID)
		if err != nil {
			switch {
			case errors.Is(err, ErrNotFound):
				apperrors.WriteNotFound(w, r, "Onboarding record not found")
			case errors.Is(err, ErrStepsIncomplete):
				apperrors.WriteConflict(w, r, "Not all steps are completed")
			case errors.Is(err, ErrExpired):
				apperrors.WriteConflict(w, r, "Onboarding window has expired")
			case errors.Is(err, ErrAlreadyFinalized):
				apperrors.WriteConflict(w, r, "Onboarding already finalized")
			default:
				log.Error().Err(err).Msg("Failed to finalize onboarding")
				apperrors.WriteInternalError(w, r, "Failed to finalize onboarding")
			}
			return
		}

		apperrors.WriteSuccess(w, r, http.StatusOK, map[string]any{
			"provider": provider,
		})
	}
}

// HandleGet handles GET /api/v1/onboarding/{id}
func HandleGet(pool *pgxpool.Pool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		progressID, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			apperrors.WriteBadRequest(w, r, "Invalid onboarding ID")
			return
		}

		service := NewService(pool)
		progress, err := service.GetByID(ctx, progressID)
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				apperrors.WriteNotFound(w, r, "Onboarding record not found")
				return
			}
			log.Error().Err(err).Msg("Failed to get onboarding record")
			apperrors.WriteInternalError(w, r, "Failed to get onboarding record")
			return
		}

		apperrors.WriteSuccess(w, r, http.StatusOK, map[string]any{
			"progress": progress,
			"state":    progress.State(time.Now().UTC()),
		})
	}
}
