package onboarding

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	// ErrNotFound is returned when no onboarding record matches the given ID
	ErrNotFound = errors.New("onboarding record not found")

	// ErrExpired is returned when submitting a step after the window closed
	ErrExpired = errors.New("onboarding window has expired")

	// ErrAlreadyFinalized is returned when mutating a finalized record
	ErrAlreadyFinalized = errors.New("onboarding already finalized")

	// ErrStepsIncomplete is returned when finalizing before all steps are done
	ErrStepsIncomplete = errors.New("not all onboarding steps are completed")
)

// Window is how long a user has to finish registration after starting.
const Window = 7 * 24 * time.Hour

// State is the derived lifecycle state of an onboarding record.
type State string

const (
	StateInProgress   State = "in_progress"
	StateCompleted    State = "completed"
	StateExpiringSoon State = "expiring_soon"
	StateExpired      State = "expired"
)

// Progress tracks a user's multi-step provider registration. The draft
// accumulates partial profile data across steps; sections are merged, never
// replaced, so later steps cannot clobber earlier answers.
type Progress struct {
	ID                uuid.UUID      `json:"id"`
	UserID            string         `json:"user_id"`
	Email             string         `json:"email"`
	InvitationCode    string         `json:"invitation_code"`
	CompletedSteps    []string       `json:"completed_steps"`
	TotalSteps        int            `json:"total_steps"`
	Draft             map[string]any `json:"draft"`
	LastReminderDays  *int           `json:"last_reminder_days,omitempty"`
	ExpiredNotifiedAt *time.Time     `json:"expired_notified_at,omitempty"`
	FinalizedAt       *time.Time     `json:"finalized_at,omitempty"`
	CreatedAt         time.Time      `json:"created_at"`
	ExpiresAt         time.Time      `json:"expires_at"`
}

// IsComplete reports whether every step has been submitted.
func (p *Progress) IsComplete() bool {
	return len(p.CompletedSteps) >= p.TotalSteps
}

// State derives the record's lifecycle state at the given instant.
func (p *Progress) State(now time.Time) State {
	if p.IsComplete() || p.FinalizedAt != nil {
		return StateCompleted
	}
	remaining := DaysRemaining(p.ExpiresAt, now)
	if remaining <= 0 {
		return StateExpired
	}
	if remaining <= 3 {
		return StateExpiringSoon
	}
	return StateInProgress
}

// DaysRemaining computes whole days until expiry, rounding up. A window
// expiring later today still counts as one day remaining; zero or negative
// means the window has closed.
func DaysRemaining(expiresAt, now time.Time) int {
	d := expiresAt.Sub(now)
	if d <= 0 {
		return 0
	}
	days := int(d / (24 * time.Hour))
	if d%(24*time.Hour) > 0 {
		days++
	}
	return days
}
