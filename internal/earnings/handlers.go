package earnings

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"
	"github.com/santurist/santurist/internal/apperrors"
	"github.com/santurist/santurist/internal/audit"
	"github.com/santurist/santurist/internal/auth"
)

// HandleGetByProvider handles GET /api/v1/earnings/{providerID}
func HandleGetByProvider(pool *pgxpool.Pool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		providerID, err := uuid.Parse(chi.URLParam(r, "providerID"))
		if err != nil {
			apperrors.WriteBadRequest(w, r, "Invalid provider ID")
			return
		}

		service := NewService(pool)
		summary, err := service.GetByProvider(ctx, providerID)
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				// A provider with no confirmed orders has a zero balance.
				apperrors.WriteSuccess(w, r, http.StatusOK, map[string]any{
					"earnings": Earnings{ProviderID: providerID},
				})
				return
			}
			log.Error().Err(err).Msg("Failed to get earnings")
			apperrors.WriteInternalError(w, r, "Failed to get earnings")
			return
		}

		apperrors.WriteSuccess(w, r, http.StatusOK, map[string]any{
			"earnings": summary,
		})
	}
}

// HandleListTransactions handles GET /api/v1/earnings/{providerID}/transactions
func HandleListTransactions(pool *pgxpool.Pool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		providerID, err := uuid.Parse(chi.URLParam(r, "providerID"))
		if err != nil {
			apperrors.WriteBadRequest(w, r, "Invalid provider ID")
			return
		}
		limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

		service := NewService(pool)
		transactions, err := service.ListTransactions(ctx, providerID, limit)
		if err != nil {
			log.Error().Err(err).Msg("Failed to list earnings transactions")
			apperrors.WriteInternalError(w, r, "Failed to list earnings transactions")
			return
		}

		apperrors.WriteSuccess(w, r, http.StatusOK, map[string]any{
			"transactions": transactions,
		})
	}
}

// PayoutRequestBody represents the payout request body
type PayoutRequestBody struct {
	ProviderID uuid.UUID `json:"provider_id"`
	Amount     int64     `json:"amount"`
}

// HandleRequestPayout handles POST /api/v1/earnings/payouts
func HandleRequestPayout(pool *pgxpool.Pool, auditor *audit.Writer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		adminID := auth.GetAdminID(ctx)

		var req PayoutRequestBody
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			apperrors.WriteBadRequest(w, r, "Invalid request body")
			return
		}
		if req.Amount <= 0 {
			apperrors.WriteBadRequest(w, r, "Amount must be positive")
			return
		}

		service := NewService(pool)
		payout, err := service.RequestPayout(ctx, req.ProviderID, req.Amount)
		if err != nil {
			if errors.Is(err, ErrInsufficientBalance) {
				apperrors.WriteConflict(w, r, "Insufficient pending payout balance")
				return
			}
			log.Error().Err(err).Msg("Failed to request payout")
			apperrors.WriteInternalError(w, r, "Failed to request payout")
			return
		}

		if err := auditor.Log(ctx, audit.LogParams{
			ActorAdminID: &adminID,
			Action:       audit.EventPayoutRequested,
			EntityID:     &payout.ID,
			Meta:         map[string]interface{}{"provider_id": req.ProviderID, "amount": req.Amount},
		}); err != nil {
			log.Error().Err(err).Msg("Failed to log audit event")
		}

		apperrors.WriteSuccess(w, r, http.StatusCreated, map[string]any{
			"payout": payout,
		})
	}
}

// HandleProcessPayout handles POST /api/v1/earnings/payouts/{id}/process
func HandleProcessPayout(pool *pgxpool.Pool, auditor *audit.Writer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		adminID := auth.GetAdminID(ctx)

		payoutID, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			apperrors.WriteBadRequest(w, r, "Invalid payout ID")
			return
		}

		service := NewService(pool)
		if err := service.ProcessPayout(ctx, payoutID); err != nil {
			if errors.Is(err, ErrPayoutNotPending) {
				apperrors.WriteConflict(w, r, "Payout request is not pending")
				return
			}
			log.Error().Err(err).Msg("Failed to process payout")
			apperrors.WriteInternalError(w, r, "Failed to process payout")
			return
		}

		if err := auditor.Log(ctx, audit.LogParams{
			ActorAdminID: &adminID,
			Action:       audit.EventPayoutProcessed,
			EntityID:     &payoutID,
		}); err != nil {
			log.Error().Err(err).Msg("Failed to log audit event")
		}

		apperrors.WriteSuccess(w, r, http.StatusOK, map[string]any{
			"processed": true,
		})
	}
}

// HandleRejectPayout handles POST /api/v1/earnings/payouts/{id}/reject
func HandleRejectPayout(pool *pgxpool.Pool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		payoutID, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			apperrors.WriteBadRequest(w, r, "Invalid payout ID")
			return
		}

		service := NewService(pool)
		if err := service.RejectPayout(ctx, payoutID); err != nil {
			if errors.Is(err, ErrPayoutNotPending) {
				apperrors.WriteConflict(w, r, "Payout request is not pending")
				return
			}
			log.Error().Err(err).Msg("Failed to reject payout")
			apperrors.WriteInternalError(w, r, "Failed to reject payout")
			return
		}

		apperrors.WriteSuccess(w, r, http.StatusOK, map[string]any{
			"rejected": true,
		})
	}
}

// HandleListPayouts handles GET /api/v1/earnings/payouts?status=&limit=
func HandleListPayouts(pool *pgxpool.Pool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		status := PayoutStatus(r.URL.Query().Get("status"))
		limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

		service := NewService(pool)
		payouts, err := service.ListPayouts(ctx, status, limit)
		if err != nil {
			log.Error().Err(err).Msg("Failed to list payouts")
			apperrors.WriteInternalError(w, r, "Failed to list payouts")
			return
		}

		apperrors.WriteSuccess(w, r, http.StatusOK, map[string]any{
			"payouts": payouts,
		})
	}
}
