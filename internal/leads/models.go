package leads

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	// ErrNotFound is returned when no lead matches the given ID
	ErrNotFound = errors.New("lead not found")

	// ErrInvalidStatus is returned for an unknown lead status
	ErrInvalidStatus = errors.New("invalid lead status")
)

// Status is the CRM state of a provider lead.
type Status string

const (
	StatusNew        Status = "new"
	StatusContacted  Status = "contacted"
	StatusInterested Status = "interested"
	StatusInvited    Status = "invited"
	StatusClaimed    Status = "claimed"
	StatusRejected   Status = "rejected"
	StatusInactive   Status = "inactive"
)

// IsValid reports whether s is a known lead status.
func (s Status) IsValid() bool {
	switch s {
	case StatusNew, StatusContacted, StatusInterested, StatusInvited,
		StatusClaimed, StatusRejected, StatusInactive:
		return true
	}
	return false
}

// Lead is a prospective provider tracked before and during invitation.
type Lead struct {
	ID           uuid.UUID  `json:"id"`
	Category     string     `json:"category"`
	BusinessName string     `json:"business_name"`
	ContactName  *string    `json:"contact_name,omitempty"`
	Email        *string    `json:"email,omitempty"`
	Phone        *string    `json:"phone,omitempty"`
	Status       Status     `json:"status"`
	Priority     int        `json:"priority"`
	Active       bool       `json:"active"`
	InvitationID *uuid.UUID `json:"invitation_id,omitempty"`
	ProviderID   *uuid.UUID `json:"provider_id,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// ContactAttempt is one entry in a lead's append-only contact history.
type ContactAttempt struct {
	ID         uuid.UUID  `json:"id"`
	LeadID     uuid.UUID  `json:"lead_id"`
	Method     string     `json:"method"`
	Notes      *string    `json:"notes,omitempty"`
	FollowUpAt *time.Time `json:"follow_up_at,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
}
