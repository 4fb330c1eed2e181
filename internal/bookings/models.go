package bookings

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// ErrNotFound is returned when no booking matches the given ID
var ErrNotFound = errors.New("booking not found")

// TourPaymentStatus is the payment state of a tour booking.
type TourPaymentStatus string

const (
	TourPaymentPending  TourPaymentStatus = "pending"
	TourPaymentPaid     TourPaymentStatus = "paid"
	TourPaymentRefunded TourPaymentStatus = "refunded"
)

// IsValid reports whether s is a known tour payment status.
func (s TourPaymentStatus) IsValid() bool {
	switch s {
	case TourPaymentPending, TourPaymentPaid, TourPaymentRefunded:
		return true
	}
	return false
}

// DeliveryPaymentStatus is the payment state of a delivery order.
type DeliveryPaymentStatus string

const (
	DeliveryPaymentPending  DeliveryPaymentStatus = "pending"
	DeliveryPaymentApproved DeliveryPaymentStatus = "approved"
	DeliveryPaymentRejected DeliveryPaymentStatus = "rejected"
)

// IsValid reports whether s is a known delivery payment status.
func (s DeliveryPaymentStatus) IsValid() bool {
	switch s {
	case DeliveryPaymentPending, DeliveryPaymentApproved, DeliveryPaymentRejected:
		return true
	}
	return false
}

// TourBooking is a direct tour reservation paid outside the cart flow.
type TourBooking struct {
	ID            uuid.UUID         `json:"id"`
	ProviderID    *uuid.UUID        `json:"provider_id,omitempty"`
	CustomerEmail string            `json:"customer_email"`
	TourName      string            `json:"tour_name"`
	TourDate      *time.Time        `json:"tour_date,omitempty"`
	PartySize     int               `json:"party_size"`
	Total         int64             `json:"total"`
	PaymentStatus TourPaymentStatus `json:"payment_status"`
	TransactionID *string           `json:"transaction_id,omitempty"`
	CreatedAt     time.Time         `json:"created_at"`
	UpdatedAt     time.Time         `json:"updated_at"`
}

// DeliveryOrder is a direct delivery request paid outside the cart flow.
type DeliveryOrder struct {
	ID            uuid.UUID             `json:"id"`
	ProviderID    *uuid.UUID            `json:"provider_id,omitempty"`
	CustomerEmail string                `json:"customer_email"`
	Address       string                `json:"address"`
	Total         int64                 `json:"total"`
	PaymentStatus DeliveryPaymentStatus `json:"payment_status"`
	TransactionID *string               `json:"transaction_id,omitempty"`
	CreatedAt     time.Time             `json:"created_at"`
	UpdatedAt     time.Time             `json:"updated_at"`
}
