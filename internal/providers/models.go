package providers

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	// ErrNotFound is returned when no provider matches the given ID or name
	ErrNotFound = errors.New("provider not found")
)

// Provider is a business selling through the marketplace. Mock providers are
// admin-created placeholders awaiting an invitation claim; real providers
// have an owner.
type Provider struct {
	ID                 uuid.UUID  `json:"id"`
	BusinessName       string     `json:"business_name"`
	Category           string     `json:"category"`
	Email              *string    `json:"email,omitempty"`
	Phone              *string    `json:"phone,omitempty"`
	Description        *string    `json:"description,omitempty"`
	IsMock             bool       `json:"is_mock"`
	Active             bool       `json:"active"`
	OwnerUserID        *string    `json:"owner_user_id,omitempty"`
	LinkedInvitationID *uuid.UUID `json:"linked_invitation_id,omitempty"`
	SeedName           *string    `json:"seed_name,omitempty"`
	CreatedAt          time.Time  `json:"created_at"`
	UpdatedAt          time.Time  `json:"updated_at"`
}
