package leads

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"
	"github.com/santurist/santurist/internal/apperrors"
	"github.com/santurist/santurist/internal/audit"
	"github.com/santurist/santurist/internal/auth"
	"github.com/santurist/santurist/internal/validation"
)

// CreateRequest represents the request to register a lead
type CreateRequest struct {
	Category     string  `json:"category"`
	BusinessName string  `json:"business_name"`
	ContactName  *string `json:"contact_name,omitempty"`
	Email        *string `json:"email,omitempty"`
	Phone        *string `json:"phone,omitempty"`
	Priority     int     `json:"priority"`
}

// HandleCreate handles POST /api/v1/leads
func HandleCreate(pool *pgxpool.Pool, auditor *audit.Writer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		adminID := auth.GetAdminID(ctx)

		var req CreateRequest
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
		if req.Email != nil {
			if err := validation.ValidateEmail(*req.Email); err != nil {
				apperrors.WriteBadRequest(w, r, "Invalid email address")
				return
			}
		}

		service := NewService(pool)
		lead, err := service.Create(ctx, CreateParams{
			Category:     req.Category,
			BusinessName: strings.TrimSpace(req.BusinessName),
			ContactName:  req.ContactName,
			Email:        req.Email,
			Phone:        req.Phone,
			Priority:     req.Priority,
		})
		if err != nil {
			log.Error().Err(err).Msg("Failed to create lead")
			apperrors.WriteInternalError(w, r, "Failed to create lead")
			return
		}

		if err := auditor.Log(ctx, audit.LogParams{
			ActorAdminID: &adminID,
			Action:       audit.EventLeadCreated,
			EntityID:     &lead.ID,
			Meta:         map[string]interface{}{"business_name": lead.BusinessName},
		}); err != nil {
			log.Error().Err(err).Msg("Failed to log audit event")
		}

		apperrors.WriteSuccess(w, r, http.StatusCreated, map[string]any{
			"lead": lead,
		})
	}
}

// HandleList handles GET /api/v1/leads?status=&category=&limit=
func HandleList(pool *pgxpool.Pool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		status := Status(r.URL.Query().Get("status"))
		category := r.URL.Query().Get("category")
		limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

		service := NewService(pool)
		leads, err := service.List(ctx, status, category, limit)
		if err != nil {
			if errors.Is(err, ErrInvalidStatus) {
				apperrors.WriteBadRequest(w, r, "Unknown status")
				return
			}
			log.Error().Err(err).Msg("Failed to list leads")
			apperrors.WriteInternalError(w, r, "Failed to list leads")
			return
		}

		apperrors.WriteSuccess(w, r, http.StatusOK, map[string]any{
			"leads": leads,
		})
	}
}

// ContactRequest represents a contact attempt to record
type ContactRequest struct {
	Method     string     `json:"method"`
	Notes      *string    `json:"notes,omitempty"`
	FollowUpAt *time.Time `json:"follow_up_at,omitempty"`
}

// HandleRecordContact handles POST /api/v1/leads/{id}/contacts
func HandleRecordContact(pool *pgxpool.Pool, auditor *audit.Writer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		adminID := auth.GetAdminID(ctx)

		leadID, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			apperrors.WriteBadRequest(w, r, "Invalid lead ID")
			return
		}

		var req ContactRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			apperrors.WriteBadRequest(w, r, "Invalid request body")
			return
		}
		if strings.TrimSpace(req.Method) == "" {
			apperrors.WriteBadRequest(w, r, "Contact method is required")
			return
		}

		service := NewService(pool)
		attempt, err := service.RecordContactAttempt(ctx, leadID, ContactAttempt{
			Method:     req.Method,
			Notes:      req.Notes,
			FollowUpAt: req.FollowUpAt,
		})
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				apperrors.WriteNotFound(w, r, "Lead not found")
				return
			}
			log.Error().Err(err).Msg("Failed to record contact attempt")
			apperrors.WriteInternalError(w, r, "Failed to record contact attempt")
			return
		}

		if err := auditor.Log(ctx, audit.LogParams{
			ActorAdminID: &adminID,
			Action:       audit.EventLeadContacted,
			EntityID:     &leadID,
			Meta:         map[string]interface{}{"method": req.Method},
		}); err != nil {
			log.Error().Err(err).Msg("Failed to log audit event")
		}

		apperrors.WriteSuccess(w, r, http.StatusCreated, map[string]any{
			"contact": attempt,
		})
	}
}

// HandleListContacts handles GET /api/v1/leads/{id}/contacts
func HandleListContacts(pool *pgxpool.Pool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		leadID, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			apperrors.WriteBadRequest(w, r, "Invalid lead ID")
			return
		}

		service := NewService(pool)
		attempts, err := service.ListContacts(ctx, leadID)
		if err != nil {
			log.Error().Err(err).Msg("Failed to list contact attempts")
			apperrors.WriteInternalError(w, r, "Failed to list contact attempts")
			return
		}

		apperrors.WriteSuccess(w, r, http.StatusOK, map[string]any{
			"contacts": attempts,
		})
	}
}

// HandleDeactivate handles POST /api/v1/leads/{id}/deactivate
func HandleDeactivate(pool *pgxpool.Pool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		leadID, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			apperrors.WriteBadRequest(w, r, "Invalid lead ID")
			return
		}

		service := NewService(pool)
		if err := service.Deactivate(ctx, leadID); err != nil {
			if errors.Is(err, ErrNotFound) {
				apperrors.WriteNotFound(w, r, "Lead not found")
				return
			}
			log.Error().Err(err).Msg("Failed to deactivate lead")
			apperrors.WriteInternalError(w, r, "Failed to deactivate lead")
			return
		}

		apperrors.WriteSuccess(w, r, http.StatusOK, map[string]string{
			"status": "inactive",
		})
	}
}
