package orders

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	// ErrNotFound is returned when no order matches the given ID
	ErrNotFound = errors.New("order not found")

	// ErrEmptyCart is returned when an order is created from a cart with no items
	ErrEmptyCart = errors.New("cart has no items")

	// ErrAlreadyCancelled is returned when cancelling an already-cancelled order
	ErrAlreadyCancelled = errors.New("order already cancelled")
)

// Status is the lifecycle state of an order.
type Status string

const (
	StatusPending   Status = "pending"
	StatusConfirmed Status = "confirmed"
	StatusCancelled Status = "cancelled"
	StatusCompleted Status = "completed"
)

// IsValid reports whether s is a known order status.
func (s Status) IsValid() bool {
	switch s {
	case StatusPending, StatusConfirmed, StatusCancelled, StatusCompleted:
		return true
	}
	return false
}

// PaymentStatus is the state of the order's payment.
type PaymentStatus string

const (
	PaymentPending   PaymentStatus = "pending"
	PaymentConfirmed PaymentStatus = "confirmed"
	PaymentRefunded  PaymentStatus = "refunded"
)

// Order is a multi-vendor marketplace order. Amounts are integer CLP.
type Order struct {
	ID              uuid.UUID       `json:"id"`
	CustomerID      string          `json:"customer_id"`
	CustomerEmail   string          `json:"customer_email"`
	Status          Status          `json:"status"`
	Subtotal        int64           `json:"subtotal"`
	CommissionTotal int64           `json:"commission_total"`
	Total           int64           `json:"total"`
	PaymentStatus   PaymentStatus   `json:"payment_status"`
	TransactionID   *string         `json:"transaction_id,omitempty"`
	ShippingAddress *string         `json:"shipping_address,omitempty"`
	ShippingNotes   *string         `json:"shipping_notes,omitempty"`
	ProviderOrders  []ProviderOrder `json:"provider_orders,omitempty"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

// ProviderOrder is the portion of an order attributable to one provider,
// with its own status and commission accounting.
type ProviderOrder struct {
	ID              uuid.UUID   `json:"id"`
	OrderID         uuid.UUID   `json:"order_id"`
	ProviderID      uuid.UUID   `json:"provider_id"`
	ProviderEmail   *string     `json:"provider_email,omitempty"`
	Status          Status      `json:"status"`
	Subtotal        int64       `json:"subtotal"`
	Commission      int64       `json:"commission"`
	ProviderRevenue int64       `json:"provider_revenue"`
	Items           []OrderItem `json:"items,omitempty"`
	CreatedAt       time.Time   `json:"created_at"`
	UpdatedAt       time.Time   `json:"updated_at"`
}

// OrderItem is one line item in a provider's sub-order.
type OrderItem struct {
	ID              uuid.UUID `json:"id"`
	ProviderOrderID uuid.UUID `json:"provider_order_id"`
	Name            string    `json:"name"`
	Category        string    `json:"category"`
	Quantity        int       `json:"quantity"`
	UnitPrice       int64     `json:"unit_price"`
}

// CartItem is one line of the cart snapshot an order is created from.
type CartItem struct {
	ProviderID uuid.UUID `json:"provider_id"`
	Name       string    `json:"name"`
	Category   string    `json:"category"`
	Quantity   int       `json:"quantity"`
	UnitPrice  int64     `json:"unit_price"`
}
