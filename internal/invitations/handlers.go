package invitations

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
	"github.com/santurist/santurist/internal/leads"
	"github.com/santurist/santurist/internal/notify"
	"github.com/santurist/santurist/internal/validation"
)

// CreateRequest represents the request to issue a new invitation
type CreateRequest struct {
	RecipientName  string  `json:"recipient_name"`
	BusinessName   string  `json:"business_name"`
	Category       string  `json:"category"`
	Email          string  `json:"email"`
	InviteType     string  `json:"invite_type"`
	MockProviderID *string `json:"mock_provider_id,omitempty"`
	LeadID         *string `json:"lead_id,omitempty"`
	CustomMessage  *string `json:"custom_message,omitempty"`
}

// HandleCreate handles POST /api/v1/invitations
func HandleCreate(pool *pgxpool.Pool, auditor *audit.Writer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		adminID := auth.GetAdminID(ctx)

		var req CreateRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			apperrors.WriteBadRequest(w, r, "Invalid request body")
			return
		}

		req.RecipientName = strings.TrimSpace(req.RecipientName)
		if req.RecipientName == "" {
			apperrors.WriteBadRequest(w, r, "Recipient name is required")
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
		if err := validation.ValidateEmail(req.Email); err != nil {
			apperrors.WriteBadRequest(w, r, "Invalid email address")
			return
		}
		if req.InviteType == "" {
			req.InviteType = "standard"
		}

		params := CreateParams{
			RecipientName: req.RecipientName,
			BusinessName:  strings.TrimSpace(req.BusinessName),
			Category:      req.Category,
			Email:         strings.TrimSpace(req.Email),
			InviteType:    req.InviteType,
			CreatedBy:     adminID,
			CustomMessage: req.CustomMessage,
		}

		if req.MockProviderID != nil {
			providerID, err := uuid.Parse(*req.MockProviderID)
			if err != nil {
				apperrors.WriteBadRequest(w, r, "Invalid mock provider ID")
				return
			}
			params.MockProviderID = &providerID
		}

		// An invitation issued from the CRM carries the lead it came from, so
		// the lead can be settled when the invitation is claimed.
		leadSvc := leads.NewService(pool)
		var leadID *uuid.UUID
		if req.LeadID != nil {
			parsed, err := uuid.Parse(*req.LeadID)
			if err != nil {
				apperrors.WriteBadRequest(w, r, "Invalid lead ID")
				return
			}
			if _, err := leadSvc.GetByID(ctx, parsed); err != nil {
				if errors.Is(err, leads.ErrNotFound) {
					apperrors.WriteNotFound(w, r, "Lead not found")
					return
				}
				log.Error().Err(err).Msg("Failed to look up lead")
				apperrors.WriteInternalError(w, r, "Failed to create invitation")
				return
			}
			leadID = &parsed
		}

		service := NewService(pool)
		inv, err := service.Create(ctx, params)
		if err != nil {
			log.Error().Err(err).Msg("Failed to create invitation")
			apperrors.WriteInternalError(w, r, "Failed to create invitation")
			return
		}

		if leadID != nil {
			if err := leadSvc.MarkInvited(ctx, *leadID, inv.ID); err != nil {
				// The invitation exists either way; the CRM link can be
				// repaired by reissuing from the lead.
				log.Error().Err(err).
					Str("lead_id", leadID.String()).
					Msg("Failed to mark lead invited")
			}
		}

		meta := map[string]interface{}{"code": inv.Code, "email": inv.Email}
		if leadID != nil {
			meta["lead_id"] = leadID.String()
		}
		if err := auditor.Log(ctx, audit.LogParams{
			ActorAdminID: &adminID,
			Action:       audit.EventInvitationCreated,
			EntityID:     &inv.ID,
			Meta:         meta,
		}); err != nil {
			log.Error().Err(err).Msg("Failed to log audit event")
			// Continue - don't fail the request
		}

		apperrors.WriteSuccess(w, r, http.StatusCreated, map[string]any{
			"invitation": inv,
		})
	}
}

// HandleValidate handles GET /api/v1/invitations/validate/{code}
// Public: consumed by the claim surface before onboarding starts.
func HandleValidate(pool *pgxpool.Pool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		code := validation.NormalizeCode(chi.URLParam(r, "code"))
		if err := validation.ValidateCodeFormat(code); err != nil {
			apperrors.WriteSuccess(w, r, http.StatusOK, ValidationResult{
				Valid:  false,
				Reason: "not_found",
			})
			return
		}

		service := NewService(pool)
		result, err := service.Validate(ctx, code)
		if err != nil {
			log.Error().Err(err).Str("code", code).Msg("Failed to validate invitation")
			apperrors.WriteInternalError(w, r, "Failed to validate invitation")
			return
		}

		apperrors.WriteSuccess(w, r, http.StatusOK, result)
	}
}

// HandleSend handles POST /api/v1/invitations/{id}/send
// Marks the invitation sent and dispatches the invitation email.
func HandleSend(pool *pgxpool.Pool, auditor *audit.Writer, mailer *notify.Mailer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		adminID := auth.GetAdminID(ctx)

		invitationID, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			apperrors.WriteBadRequest(w, r, "Invalid invitation ID")
			return
		}

		service := NewService(pool)
		inv, err := service.MarkSent(ctx, invitationID)
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				apperrors.WriteNotFound(w, r, "Invitation not found")
				return
			}
			log.Error().Err(err).Msg("Failed to mark invitation sent")
			apperrors.WriteConflict(w, r, err.Error())
			return
		}

		customMessage := ""
		if inv.CustomMessage != nil {
			customMessage = *inv.CustomMessage
		}
		mailer.SendInvitation(ctx, inv.Email, inv.RecipientName, inv.BusinessName, inv.Code, customMessage)

		if err := auditor.Log(ctx, audit.LogParams{
			ActorAdminID: &adminID,
			Action:       audit.EventInvitationSent,
			EntityID:     &inv.ID,
			Meta:         map[string]interface{}{"code": inv.Code},
		}); err != nil {
			log.Error().Err(err).Msg("Failed to log audit event")
		}

		apperrors.WriteSuccess(w, r, http.StatusOK, map[string]any{
			"invitation": inv,
		})
	}
}

// HandleCancel handles POST /api/v1/invitations/{id}/cancel
func HandleCancel(pool *pgxpool.Pool, auditor *audit.Writer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		adminID := auth.GetAdminID(ctx)

		invitationID, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			apperrors.WriteBadRequest(w, r, "Invalid invitation ID")
			return
		}

		service := NewService(pool)
		if err := service.Cancel(ctx, invitationID); err != nil {
			switch {
			case errors.Is(err, ErrNotFound):
				apperrors.WriteNotFound(w, r, "Invitation not found")
			case errors.Is(err, ErrAlreadyClaimed):
				apperrors.WriteConflict(w, r, "Invitation already claimed")
			default:
				log.Error().Err(err).Msg("Failed to cancel invitation")
				apperrors.WriteInternalError(w, r, "Failed to cancel invitation")
			}
			return
		}

		if err := auditor.Log(ctx, audit.LogParams{
			ActorAdminID: &adminID,
			Action:       audit.EventInvitationCancel,
			EntityID:     &invitationID,
		}); err != nil {
			log.Error().Err(err).Msg("Failed to log audit event")
		}

		apperrors.WriteSuccess(w, r, http.StatusOK, map[string]string{
			"status": "cancelled",
		})
	}
}

// UpdateStatusRequest represents a direct status write
type UpdateStatusRequest struct {
	Status string `json:"status"`
}

// HandleUpdateStatus handles PUT /api/v1/invitations/{id}/status
func HandleUpdateStatus(pool *pgxpool.Pool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		invitationID, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			apperrors.WriteBadRequest(w, r, "Invalid invitation ID")
			return
		}

		var req UpdateStatusRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			apperrors.WriteBadRequest(w, r, "Invalid request body")
			return
		}

		service := NewService(pool)
		if err := service.UpdateStatus(ctx, invitationID, Status(req.Status)); err != nil {
			switch {
			case errors.Is(err, ErrInvalidStatus):
				apperrors.WriteBadRequest(w, r, "Unknown status")
			case errors.Is(err, ErrNotFound):
				apperrors.WriteNotFound(w, r, "Invitation not found")
			default:
				log.Error().Err(err).Msg("Failed to update invitation status")
				apperrors.WriteInternalError(w, r, "Failed to update invitation status")
			}
			return
		}

		apperrors.WriteSuccess(w, r, http.StatusOK, map[string]string{
			"status": req.Status,
		})
	}
}

// HandleList handles GET /api/v1/invitations?status=&limit=
func HandleList(pool *pgxpool.Pool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		status := Status(r.URL.Query().Get("status"))
		limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

		service := NewService(pool)
		invs, err := service.List(ctx, status, limit)
		if err != nil {
			if errors.Is(err, ErrInvalidStatus) {
				apperrors.WriteBadRequest(w, r, "Unknown status")
				return
			}
			log.Error().Err(err).Msg("Failed to list invitations")
			apperrors.WriteInternalError(w, r, "Failed to list invitations")
			return
		}

		apperrors.WriteSuccess(w, r, http.StatusOK, map[string]any{
			"invitations": invs,
		})
	}
}

// HandleStats handles GET /api/v1/invitations/stats
func HandleStats(pool *pgxpool.Pool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		service := NewService(pool)
		stats, err := service.GetStats(ctx)
		if err != nil {
			log.Error().Err(err).Msg("Failed to get invitation stats")
			apperrors.WriteInternalError(w, r, "Failed to get invitation stats")
			return
		}

		apperrors.WriteSuccess(w, r, http.StatusOK, map[string]any{
			"stats": stats,
		})
	}
}
