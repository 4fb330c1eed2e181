package invitations

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	// ErrNotFound is returned when no invitation matches the given code or ID
	ErrNotFound = errors.New("invitation not found")

	// ErrAlreadyClaimed is returned when the invitation was already claimed
	ErrAlreadyClaimed = errors.New("invitation already claimed")

	// ErrCancelled is returned when the invitation was cancelled
	ErrCancelled = errors.New("invitation cancelled")

	// ErrExpired is returned when the invitation is past its expiry timestamp
	ErrExpired = errors.New("invitation expired")

	// ErrInvalidStatus is returned for an unknown status value
	ErrInvalidStatus = errors.New("invalid invitation status")
)

// Status is the lifecycle state of an invitation.
type Status string

const (
	StatusPending   Status = "pending"
	StatusSent      Status = "sent"
	StatusClaimed   Status = "claimed"
	StatusCancelled Status = "cancelled"
	StatusExpired   Status = "expired"
)

// IsValid reports whether s is a known invitation status.
func (s Status) IsValid() bool {
	switch s {
	case StatusPending, StatusSent, StatusClaimed, StatusCancelled, StatusExpired:
		return true
	}
	return false
}

// IsTerminal reports whether s permits no further transitions.
func (s Status) IsTerminal() bool {
	switch s {
	case StatusClaimed, StatusCancelled, StatusExpired:
		return true
	}
	return false
}

// InviteTTL is the default validity window for a new invitation.
const InviteTTL = 90 * 24 * time.Hour

// Invitation is a single-use, expiring code granting a prospective provider
// the right to begin onboarding.
type Invitation struct {
	ID             uuid.UUID  `json:"id"`
	Code           string     `json:"code"`
	RecipientName  string     `json:"recipient_name"`
	BusinessName   string     `json:"business_name"`
	Category       string     `json:"category"`
	Email          string     `json:"email"`
	InviteType     string     `json:"invite_type"`
	Status         Status     `json:"status"`
	MockProviderID *uuid.UUID `json:"mock_provider_id,omitempty"`
	CustomMessage  *string    `json:"custom_message,omitempty"`
	CreatedBy      *uuid.UUID `json:"created_by,omitempty"`
	ClaimedBy      *string    `json:"claimed_by,omitempty"`
	ClaimedAt      *time.Time `json:"claimed_at,omitempty"`
	SentAt         *time.Time `json:"sent_at,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	ExpiresAt      time.Time  `json:"expires_at"`
}

// MockProvider is the subset of a placeholder provider record returned
// alongside a validated invitation.
type MockProvider struct {
	ID           uuid.UUID `json:"id"`
	BusinessName string    `json:"business_name"`
	Category     string    `json:"category"`
	Description  *string   `json:"description,omitempty"`
}

// ValidationResult is the outcome of validating an invitation code.
type ValidationResult struct {
	Valid        bool          `json:"valid"`
	Invitation   *Invitation   `json:"invitation,omitempty"`
	MockProvider *MockProvider `json:"mock_provider,omitempty"`
	Reason       string        `json:"error,omitempty"`
}

// Stats aggregates invitation counts by status.
type Stats struct {
	Total          int     `json:"total"`
	Pending        int     `json:"pending"`
	Sent           int     `json:"sent"`
	Claimed        int     `json:"claimed"`
	Cancelled      int     `json:"cancelled"`
	Expired        int     `json:"expired"`
	ConversionRate float64 `json:"conversion_rate"`
}
