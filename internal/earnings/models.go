package earnings

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	// ErrNotFound is returned when no earnings record exists for a provider
	ErrNotFound = errors.New("earnings not found")

	// ErrInsufficientBalance is returned when a payout exceeds the pending balance
	ErrInsufficientBalance = errors.New("insufficient pending payout balance")

	// ErrPayoutNotPending is returned when processing a payout that is not pending
	ErrPayoutNotPending = errors.New("payout request is not pending")
)

// PayoutStatus is the lifecycle state of a payout request.
type PayoutStatus string

const (
	PayoutPending   PayoutStatus = "pending"
	PayoutProcessed PayoutStatus = "processed"
	PayoutRejected  PayoutStatus = "rejected"
)

// Earnings is the running balance for one provider. All amounts are integer
// CLP. total_earnings is revenue minus commission; pending_payout is earnings
// minus what has been paid out.
type Earnings struct {
	ProviderID      uuid.UUID `json:"provider_id"`
	TotalRevenue    int64     `json:"total_revenue"`
	TotalCommission int64     `json:"total_commission"`
	TotalEarnings   int64     `json:"total_earnings"`
	PaidOut         int64     `json:"paid_out"`
	PendingPayout   int64     `json:"pending_payout"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// Transaction is one credited order for a provider. The (provider_id,
// order_id) pair is unique so a replayed confirmation cannot double-credit.
type Transaction struct {
	ID         uuid.UUID `json:"id"`
	ProviderID uuid.UUID `json:"provider_id"`
	OrderID    uuid.UUID `json:"order_id"`
	Amount     int64     `json:"amount"`
	Commission int64     `json:"commission"`
	Net        int64     `json:"net"`
	CreatedAt  time.Time `json:"created_at"`
}

// PayoutRequest is a provider's request to withdraw pending earnings.
type PayoutRequest struct {
	ID          uuid.UUID    `json:"id"`
	ProviderID  uuid.UUID    `json:"provider_id"`
	Amount      int64        `json:"amount"`
	Status      PayoutStatus `json:"status"`
	RequestedAt time.Time    `json:"requested_at"`
	ProcessedAt *time.Time   `json:"processed_at,omitempty"`
}
