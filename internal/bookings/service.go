package bookings

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Service handles tour bookings and delivery orders
type Service struct {
	pool *pgxpool.Pool
}

// NewService creates a new bookings service
func NewService(pool *pgxpool.Pool) *Service {
	return &Service{pool: pool}
}

// CreateTourBookingParams contains the inputs for a new tour booking.
type CreateTourBookingParams struct {
	ProviderID    *uuid.UUID
	CustomerEmail string
	TourName      string
	TourDate      *time.Time
	PartySize     int
	Total         int64
}

// CreateTourBooking inserts a pending tour booking.
func (s *Service) CreateTourBooking(ctx context.Context, params CreateTourBookingParams) (*TourBooking, error) {
	if params.PartySize <= 0 {
		params.PartySize = 1
	}

	var b TourBooking
	err := s.pool.QueryRow(ctx, `
		INSERT INTO tour_bookings (provider_id, customer_email, tour_name, tour_date, party_size, total)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, provider_id, customer_email, tour_name, tour_date, party_size,
		          total, payment_status, transaction_id, created_at, updated_at
	`, params.ProviderID, params.CustomerEmail, params.TourName, params.TourDate,
		params.PartySize, params.Total,
	).Scan(&b.ID, &b.ProviderID, &b.CustomerEmail, &b.TourName, &b.TourDate, &b.PartySize,
		&b.Total, &b.PaymentStatus, &b.TransactionID, &b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create tour booking: %w", err)
	}
	return &b, nil
}

// CreateDeliveryOrderParams contains the inputs for a new delivery order.
type CreateDeliveryOrderParams struct {
	ProviderID    *uuid.UUID
	CustomerEmail string
	Address       string
	Total         int64
}

// CreateDeliveryOrder inserts a pending delivery order.
func (s *Service) CreateDeliveryOrder(ctx context.Context, params CreateDeliveryOrderParams) (*DeliveryOrder, error) {
	var d DeliveryOrder
	err := s.pool.QueryRow(ctx, `
		INSERT INTO delivery_orders (provider_id, customer_email, address, total)
		VALUES ($1, $2, $3, $4)
		RETURNING id, provider_id, customer_email, address, total,
		          payment_status, transaction_id, created_at, updated_at
	`, params.ProviderID, params.CustomerEmail, params.Address, params.Total,
	).Scan(&d.ID, &d.ProviderID, &d.CustomerEmail, &d.Address, &d.Total,
		&d.PaymentStatus, &d.TransactionID, &d.CreatedAt, &d.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create delivery order: %w", err)
	}
	return &d, nil
}

// UpdateTourPaymentStatus sets the payment status of a tour booking and
// records the gateway transaction ID. Writing the status it already has is a
// no-op, so gateway retries are safe.
func (s *Service) UpdateTourPaymentStatus(ctx context.Context, bookingID uuid.UUID, status TourPaymentStatus, transactionID string) error {
	if !status.IsValid() {
		return fmt.Errorf("invalid tour payment status %q", status)
	}

	tag, err := s.pool.Exec(ctx, `
		UPDATE tour_bookings
		SET payment_status = $1, transaction_id = $2, updated_at = NOW()
		WHERE id = $3 AND payment_status <> $1
	`, status, transactionID, bookingID)
	if err != nil {
		return fmt.Errorf("failed to update tour booking payment: %w", err)
	}
	if tag.RowsAffected() == 0 {
		exists, err := s.tourBookingExists(ctx, bookingID)
		if err != nil {
			return err
		}
		if !exists {
			return ErrNotFound
		}
	}
	return nil
}

// UpdateDeliveryPaymentStatus sets the payment status of a delivery order.
// Same idempotence contract as UpdateTourPaymentStatus.
func (s *Service) UpdateDeliveryPaymentStatus(ctx context.Context, deliveryID uuid.UUID, status DeliveryPaymentStatus, transactionID string) error {
	if !status.IsValid() {
		return fmt.Errorf("invalid delivery payment status %q", status)
	}

	tag, err := s.pool.Exec(ctx, `
		UPDATE delivery_orders
		SET payment_status = $1, transaction_id = $2, updated_at = NOW()
		WHERE id = $3 AND payment_status <> $1
	`, status, transactionID, deliveryID)
	if err != nil {
		return fmt.Errorf("failed to update delivery order payment: %w", err)
	}
	if tag.RowsAffected() == 0 {
		exists, err := s.deliveryOrderExists(ctx, deliveryID)
		if err != nil {
			return err
		}
		if !exists {
			return ErrNotFound
		}
	}
	return nil
}

// GetTourBooking loads one tour booking by ID.
func (s *Service) GetTourBooking(ctx context.Context, bookingID uuid.UUID) (*TourBooking, error) {
	var b TourBooking
	err := s.pool.QueryRow(ctx, `
		SELECT id, provider_id, customer_email, tour_name, tour_date, party_size,
		       total, payment_status, transaction_id, created_at, updated_at
		FROM tour_bookings
		WHERE id = $1
	`, bookingID).Scan(&b.ID, &b.ProviderID, &b.CustomerEmail, &b.TourName, &b.TourDate,
		&b.PartySize, &b.Total, &b.PaymentStatus, &b.TransactionID, &b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get tour booking: %w", err)
	}
	return &b, nil
}

// GetDeliveryOrder loads one delivery order by ID.
func (s *Service) GetDeliveryOrder(ctx context.Context, deliveryID uuid.UUID) (*DeliveryOrder, error) {
	var d DeliveryOrder
	err := s.pool.QueryRow(ctx, `
		SELECT id, provider_id, customer_email, address, total,
		       payment_status, transaction_id, created_at, updated_at
		FROM delivery_orders
		WHERE id = $1
	`, deliveryID).Scan(&d.ID, &d.ProviderID, &d.CustomerEmail, &d.Address, &d.Total,
		&d.PaymentStatus, &d.TransactionID, &d.CreatedAt, &d.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get delivery order: %w", err)
	}
	return &d, nil
}

func (s *Service) tourBookingExists(ctx context.Context, id uuid.UUID) (bool, error) {
	var exists bool
	err := s.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM tour_bookings WHERE id = $1)`, id).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check tour booking existence: %w", err)
	}
	return exists, nil
}

func (s *Service) deliveryOrderExists(ctx context.Context, id uuid.UUID) (bool, error) {
	var exists bool
	err := s.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM delivery_orders WHERE id = $1)`, id).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check delivery order existence: %w", err)
	}
	return exists, nil
}
