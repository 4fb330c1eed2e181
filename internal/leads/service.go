package leads

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Service provides provider-lead CRM operations
type Service struct {
	pool *pgxpool.Pool
}

// NewService creates a new lead service
func NewService(pool *pgxpool.Pool) *Service {
	return &Service{pool: pool}
}

// CreateParams contains the inputs for registering a new lead.
type CreateParams struct {
	Category     string
	BusinessName string
	ContactName  *string
	Email        *string
	Phone        *string
	Priority     int
}

const leadColumns = `
	id, category, business_name, contact_name, email, phone,
	status, priority, active, invitation_id, provider_id, created_at, updated_at
`

// Create registers a new provider lead in status "new".
func (s *Service) Create(ctx context.Context, params CreateParams) (*Lead, error) {
	if params.Priority < 1 || params.Priority > 5 {
		params.Priority = 3
	}

	var lead Lead
	err := s.pool.QueryRow(ctx, `
		INSERT INTO provider_leads (category, business_name, contact_name, email, phone, priority)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING `+leadColumns+`
	`, params.Category, params.BusinessName, params.ContactName, params.Email, params.Phone, params.Priority,
	).Scan(scanTargets(&lead)...)
	if err != nil {
		return nil, fmt.Errorf("failed to create lead: %w", err)
	}

	return &lead, nil
}

// GetByID retrieves a lead by ID
func (s *Service) GetByID(ctx context.Context, leadID uuid.UUID) (*Lead, error) {
	var lead Lead
	err := s.pool.QueryRow(ctx, `
		SELECT `+leadColumns+`
		FROM provider_leads
		WHERE id = $1
	`, leadID).Scan(scanTargets(&lead)...)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get lead: %w", err)
	}
	return &lead, nil
}

// List returns leads ordered by priority then recency, optionally filtered.
func (s *Service) List(ctx context.Context, status Status, category string, limit int) ([]Lead, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}

	query := `SELECT ` + leadColumns + ` FROM provider_leads WHERE active`
	args := []any{}
	argNum := 1

	if status != "" {
		if !status.IsValid() {
			return nil, ErrInvalidStatus
		}
		query += fmt.Sprintf(" AND status = $%d", argNum)
		args = append(args, status)
		argNum++
	}
	if category != "" {
		query += fmt.Sprintf(" AND category = $%d", argNum)
		args = append(args, category)
		argNum++
	}

	query += fmt.Sprintf(" ORDER BY priority ASC, updated_at DESC LIMIT $%d", argNum)
	args = append(args, limit)

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list leads: %w", err)
	}
	defer rows.Close()

	var leads []Lead
	for rows.Next() {
		var lead Lead
		if err := rows.Scan(scanTargets(&lead)...); err != nil {
			return nil, fmt.Errorf("failed to scan lead: %w", err)
		}
		leads = append(leads, lead)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating leads: %w", err)
	}

	return leads, nil
}

// RecordContactAttempt appends a contact attempt to the lead's history and
// moves a "new" lead to "contacted". History is append-only; attempts are
// never updated or removed.
func (s *Service) RecordContactAttempt(ctx context.Context, leadID uuid.UUID, attempt ContactAttempt) (*ContactAttempt, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	var out ContactAttempt
	err = tx.QueryRow(ctx, `
		INSERT INTO lead_contacts (lead_id, method, notes, follow_up_at)
		VALUES ($1, $2, $3, $4)
		RETURNING id, lead_id, method, notes, follow_up_at, created_at
	`, leadID, attempt.Method, attempt.Notes, attempt.FollowUpAt,
	).Scan(&out.ID, &out.LeadID, &out.Method, &out.Notes, &out.FollowUpAt, &out.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to record contact attempt: %w", err)
	}

	tag, err := tx.Exec(ctx, `
		UPDATE provider_leads
		SET status = CASE WHEN status = $1 THEN $2 ELSE status END,
		    updated_at = NOW()
		WHERE id = $3
	`, StatusNew, StatusContacted, leadID)
	if err != nil {
		return nil, fmt.Errorf("failed to update lead after contact: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return nil, ErrNotFound
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return &out, nil
}

// ListContacts returns the lead's contact history in chronological order.
func (s *Service) ListContacts(ctx context.Context, leadID uuid.UUID) ([]ContactAttempt, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, lead_id, method, notes, follow_up_at, created_at
		FROM lead_contacts
		WHERE lead_id = $1
		ORDER BY created_at ASC
	`, leadID)
	if err != nil {
		return nil, fmt.Errorf("failed to list contact attempts: %w", err)
	}
	defer rows.Close()

	var attempts []ContactAttempt
	for rows.Next() {
		var a ContactAttempt
		if err := rows.Scan(&a.ID, &a.LeadID, &a.Method, &a.Notes, &a.FollowUpAt, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan contact attempt: %w", err)
		}
		attempts = append(attempts, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating contact attempts: %w", err)
	}

	return attempts, nil
}

// MarkInvited links the lead to a newly created invitation.
func (s *Service) MarkInvited(ctx context.Context, leadID, invitationID uuid.UUID) error {
	return s.transition(ctx, leadID, StatusInvited, `
		UPDATE provider_leads
		SET status = $1, invitation_id = $2, updated_at = NOW()
		WHERE id = $3
	`, StatusInvited, invitationID, leadID)
}

// MarkClaimedByInvitation links the provider created at claim time to
// whichever lead references the invitation and marks it claimed.
// A no-op when no lead was ever linked to it.
func (s *Service) MarkClaimedByInvitation(ctx context.Context, invitationID, providerID uuid.UUID) error {
	_, err := s.pool.Exec(ctx, `
		UPDATE provider_leads
		SET status = $1, provider_id = $2, updated_at = NOW()
		WHERE invitation_id = $3
	`, StatusClaimed, providerID, invitationID)
	if err != nil {
		return fmt.Errorf("failed to mark lead claimed: %w", err)
	}
	return nil
}

// Deactivate takes the lead out of active CRM rotation.
func (s *Service) Deactivate(ctx context.Context, leadID uuid.UUID) error {
	return s.transition(ctx, leadID, StatusInactive, `
		UPDATE provider_leads
		SET status = $1, active = FALSE, updated_at = NOW()
		WHERE id = $2
	`, StatusInactive, leadID)
}

func (s *Service) transition(ctx context.Context, leadID uuid.UUID, to Status, query string, args ...any) error {
	tag, err := s.pool.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to transition lead to %s: %w", to, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// scanTargets returns scan destinations matching leadColumns order.
func scanTargets(lead *Lead) []any {
	return []any{
		&lead.ID,
		&lead.Category,
		&lead.BusinessName,
		&lead.ContactName,
		&lead.Email,
		&lead.Phone,
		&lead.Status,
		&lead.Priority,
		&lead.Active,
		&lead.InvitationID,
		&lead.ProviderID,
		&lead.CreatedAt,
		&lead.UpdatedAt,
	}
}
