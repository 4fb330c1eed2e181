package bookings

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

// CreateTourRequest represents the tour booking request body
type CreateTourRequest struct {
	ProviderID    *uuid.UUID `json:"provider_id,omitempty"`
	CustomerEmail string     `json:"customer_email"`
	TourName      string     `json:"tour_name"`
	TourDate      *string    `json:"tour_date,omitempty"`
	PartySize     int        `json:"party_size"`
	Total         int64      `json:"total"`
}

// HandleCreateTourBooking handles POST /api/v1/bookings/tours
func HandleCreateTourBooking(pool *pgxpool.Pool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		var req CreateTourRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			apperrors.WriteBadRequest(w, r, "Invalid request body")
			return
		}

		if err := validation.ValidateEmail(req.CustomerEmail); err != nil {
			apperrors.WriteBadRequest(w, r, "Invalid customer email")
			return
		}
		if strings.TrimSpace(req.TourName) == "" {
			apperrors.WriteBadRequest(w, r, "Tour name is required")
			return
		}
		if req.Total < 0 {
			apperrors.WriteBadRequest(w, r, "Total cannot be negative")
			return
		}

		var tourDate *time.Time
		if req.TourDate != nil && *req.TourDate != "" {
			parsed, err := time.Parse("2006-01-02", *req.TourDate)
			if err != nil {
				apperrors.WriteBadRequest(w, r, "Invalid tour date, expected YYYY-MM-DD")
				return
			}
			tourDate = &parsed
		}

		service := NewService(pool)
		booking, err := service.CreateTourBooking(ctx, CreateTourBookingParams{
			ProviderID:    req.ProviderID,
			CustomerEmail: strings.ToLower(strings.TrimSpace(req.CustomerEmail)),
			TourName:      strings.TrimSpace(req.TourName),
			TourDate:      tourDate,
			PartySize:     req.PartySize,
			Total:         req.Total,
		})
		if err != nil {
			log.Error().Err(err).Msg("Failed to create tour booking")
			apperrors.WriteInternalError(w, r, "Failed to create tour booking")
			return
		}

		apperrors.WriteSuccess(w, r, http.StatusCreated, map[string]any{
			"booking": booking,
		})
	}
}

// CreateDeliveryRequest represents the delivery order request body
type CreateDeliveryRequest struct {
	ProviderID    *uuid.UUID `json:"provider_id,omitempty"`
	CustomerEmail string     `json:"customer_email"`
	Address       string     `json:"address"`
	Total         int64      `json:"total"`
}

// HandleCreateDeliveryOrder handles POST /api/v1/bookings/deliveries
func HandleCreateDeliveryOrder(pool *pgxpool.Pool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		var req CreateDeliveryRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			apperrors.WriteBadRequest(w, r, "Invalid request body")
			return
		}

		if err := validation.ValidateEmail(req.CustomerEmail); err != nil {
			apperrors.WriteBadRequest(w, r, "Invalid customer email")
			return
		}
		if strings.TrimSpace(req.Address) == "" {
			apperrors.WriteBadRequest(w, r, "Address is required")
			return
		}
		if req.Total < 0 {
			apperrors.WriteBadRequest(w, r, "Total cannot be negative")
			return
		}

		service := NewService(pool)
		order, err := service.CreateDeliveryOrder(ctx, CreateDeliveryOrderParams{
			ProviderID:    req.ProviderID,
			CustomerEmail: strings.ToLower(strings.TrimSpace(req.CustomerEmail)),
			Address:       strings.TrimSpace(req.Address),
			Total:         req.Total,
		})
		if err != nil {
			log.Error().Err(err).Msg("Failed to create delivery order")
			apperrors.WriteInternalError(w, r, "Failed to create delivery order")
			return
		}

		apperrors.WriteSuccess(w, r, http.StatusCreated, map[string]any{
			"delivery": order,
		})
	}
}

// HandleGetTourBooking handles GET /api/v1/bookings/tours/{id}
func HandleGetTourBooking(pool *pgxpool.Pool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		bookingID, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			apperrors.WriteBadRequest(w, r, "Invalid booking ID")
			return
		}

		service := NewService(pool)
		booking, err := service.GetTourBooking(ctx, bookingID)
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				apperrors.WriteNotFound(w, r, "Booking not found")
				return
			}
			log.Error().Err(err).Msg("Failed to get tour booking")
			apperrors.WriteInternalError(w, r, "Failed to get tour booking")
			return
		}

		apperrors.WriteSuccess(w, r, http.StatusOK, map[string]any{
			"booking": booking,
		})
	}
}

// HandleGetDeliveryOrder handles GET /api/v1/bookings/deliveries/{id}
func HandleGetDeliveryOrder(pool *pgxpool.Pool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		deliveryID, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			apperrors.WriteBadRequest(w, r, "Invalid delivery ID")
			return
		}

		service := NewService(pool)
		order, err := service.GetDeliveryOrder(ctx, deliveryID)
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				apperrors.WriteNotFound(w, r, "Delivery order not found")
				return
			}
			log.Error().Err(err).Msg("Failed to get delivery order")
			apperrors.WriteInternalError(w, r, "Failed to get delivery order")
			return
		}

		apperrors.WriteSuccess(w, r, http.StatusOK, map[string]any{
			"delivery": order,
		})
	}
}
