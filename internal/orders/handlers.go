package orders

import (
	"encoding/json"
	"errors"
	"net/http"
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

// CreateRequest represents the checkout request body
type CreateRequest struct {
	CustomerID      string     `json:"customer_id"`
	CustomerEmail   string     `json:"customer_email"`
	Items           []CartItem `json:"items"`
	ServiceFee      int64      `json:"service_fee"`
	ShippingAddress *string    `json:"shipping_address,omitempty"`
	ShippingNotes   *string    `json:"shipping_notes,omitempty"`
}

// HandleCreate handles POST /api/v1/orders
func HandleCreate(pool *pgxpool.Pool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		var req CreateRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			apperrors.WriteBadRequest(w, r, "Invalid request body")
			return
		}

		if strings.TrimSpace(req.CustomerID) == "" {
			apperrors.WriteBadRequest(w, r, "Customer ID is required")
			return
		}
		if err := validation.ValidateEmail(req.CustomerEmail); err != nil {
			apperrors.WriteBadRequest(w, r, "Invalid customer email")
			return
		}
		for _, item := range req.Items {
			if err := validation.ValidateCategory(item.Category); err != nil {
				apperrors.WriteBadRequest(w, r, "Unknown item category")
				return
			}
		}
		if req.ServiceFee < 0 {
			apperrors.WriteBadRequest(w, r, "Service fee cannot be negative")
			return
		}

		service := NewService(pool)
		order, err := service.CreateFromCart(ctx, CreateParams{
			CustomerID:      strings.TrimSpace(req.CustomerID),
			CustomerEmail:   strings.ToLower(strings.TrimSpace(req.CustomerEmail)),
			Items:           req.Items,
			ServiceFee:      req.ServiceFee,
			ShippingAddress: req.ShippingAddress,
			ShippingNotes:   req.ShippingNotes,
		})
		if err != nil {
			if errors.Is(err, ErrEmptyCart) {
				apperrors.WriteBadRequest(w, r, "Cart has no items")
				return
			}
			log.Error().Err(err).Msg("Failed to create order")
			apperrors.WriteInternalError(w, r, "Failed to create order")
			return
		}

		apperrors.WriteSuccess(w, r, http.StatusCreated, map[string]any{
			"order": order,
		})
	}
}

// HandleGet handles GET /api/v1/orders/{id}
func HandleGet(pool *pgxpool.Pool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		orderID, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			apperrors.WriteBadRequest(w, r, "Invalid order ID")
			return
		}

		service := NewService(pool)
		order, err := service.GetWithDetails(ctx, orderID)
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				apperrors.WriteNotFound(w, r, "Order not found")
				return
			}
			log.Error().Err(err).Msg("Failed to get order")
			apperrors.WriteInternalError(w, r, "Failed to get order")
			return
		}

		apperrors.WriteSuccess(w, r, http.StatusOK, map[string]any{
			"order": order,
		})
	}
}

// HandleCancel handles POST /api/v1/orders/{id}/cancel
func HandleCancel(pool *pgxpool.Pool, auditor *audit.Writer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		adminID := auth.GetAdminID(ctx)

		orderID, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			apperrors.WriteBadRequest(w, r, "Invalid order ID")
			return
		}

		service := NewService(pool)
		if err := service.Cancel(ctx, orderID); err != nil {
			switch {
			case errors.Is(err, ErrNotFound):
				apperrors.WriteNotFound(w, r, "Order not found")
			case errors.Is(err, ErrAlreadyCancelled):
				apperrors.WriteConflict(w, r, "Order already cancelled")
			default:
				log.Error().Err(err).Msg("Failed to cancel order")
				apperrors.WriteInternalError(w, r, "Failed to cancel order")
			}
			return
		}

		if err := auditor.Log(ctx, audit.LogParams{
			ActorAdminID: &adminID,
			Action:       audit.EventOrderCancelled,
			EntityID:     &orderID,
		}); err != nil {
			log.Error().Err(err).Msg("Failed to log audit event")
		}

		apperrors.WriteSuccess(w, r, http.StatusOK, map[string]any{
			"cancelled": true,
		})
	}
}

// UpdateSubOrderRequest represents the sub-order status update body
type UpdateSubOrderRequest struct {
	Status Status `json:"status"`
}

// HandleUpdateSubOrderStatus handles PATCH /api/v1/orders/sub/{id}/status
func HandleUpdateSubOrderStatus(pool *pgxpool.Pool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		subOrderID, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			apperrors.WriteBadRequest(w, r, "Invalid sub-order ID")
			return
		}

		var req UpdateSubOrderRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			apperrors.WriteBadRequest(w, r, "Invalid request body")
			return
		}
		if !req.Status.IsValid() {
			apperrors.WriteBadRequest(w, r, "Unknown status")
			return
		}

		service := NewService(pool)
		if err := service.UpdateProviderOrderStatus(ctx, subOrderID, req.Status); err != nil {
			if errors.Is(err, ErrNotFound) {
				apperrors.WriteNotFound(w, r, "Sub-order not found")
				return
			}
			log.Error().Err(err).Msg("Failed to update sub-order status")
			apperrors.WriteInternalError(w, r, "Failed to update sub-order status")
			return
		}

		apperrors.WriteSuccess(w, r, http.StatusOK, map[string]any{
			"updated": true,
		})
	}
}
