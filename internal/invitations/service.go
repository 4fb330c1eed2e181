package invitations

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"
)

// Service provides invitation lifecycle operations
type Service struct {
	pool *pgxpool.Pool
}

// NewService creates a new invitation service
func NewService(pool *pgxpool.Pool) *Service {
	return &Service{pool: pool}
}

// CreateParams contains the inputs for issuing a new invitation.
type CreateParams struct {
	RecipientName  string
	BusinessName   string
	Category       string
	Email          string
	InviteType     string
	CreatedBy      uuid.UUID
	MockProviderID *uuid.UUID
	CustomMessage  *string
}

const invitationColumns = `
	id, code, recipient_name, business_name, category, email, invite_type,
	status, mock_provider_id, custom_message, created_by, claimed_by,
	claimed_at, sent_at, created_at, expires_at
`

// Create issues a new invitation with a generated code and a 90-day expiry.
// When a mock provider is given, its back-reference is set in the same
// transaction so the bidirectional link can never be half-written.
// A duplicate code aborts the whole transaction, so every collision retry
// starts a fresh one with a new random suffix.
func (s *Service) Create(ctx context.Context, params CreateParams) (*Invitation, error) {
	now := time.Now().UTC()
	expiresAt := now.Add(InviteTTL)

	for attempt := 0; attempt < 3; attempt++ {
		code, err := GenerateCode(params.RecipientName, now)
		if err != nil {
			return nil, err
		}

		inv, err := s.createWithCode(ctx, params, code, expiresAt)
		if err == nil {
			return inv, nil
		}
		if isCodeCollision(err) {
			continue
		}
		return nil, err
	}

	return nil, fmt.Errorf("failed to create invitation: code collision retry exhausted")
}

func (s *Service) createWithCode(ctx context.Context, params CreateParams, code string, expiresAt time.Time) (*Invitation, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	var inv Invitation
	err = tx.QueryRow(ctx, `
		INSERT INTO invitations (
		  code, recipient_name, business_name, category, email,
		  invite_type, mock_provider_id, custom_message, created_by, expires_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING `+invitationColumns+`
	`, code, params.RecipientName, params.BusinessName, params.Category, params.Email,
		params.InviteType, params.MockProviderID, params.CustomMessage, params.CreatedBy, expiresAt,
	).Scan(scanTargets(&inv)...)
	if err != nil {
		return nil, fmt.Errorf("failed to create invitation: %w", err)
	}

	if params.MockProviderID != nil {
		tag, err := tx.Exec(ctx, `
			UPDATE providers
			SET linked_invitation_id = $1, updated_at = NOW()
			WHERE id = $2 AND is_mock
		`, inv.ID, *params.MockProviderID)
		if err != nil {
			return nil, fmt.Errorf("failed to link mock provider: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return nil, fmt.Errorf("mock provider %s not found", *params.MockProviderID)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return &inv, nil
}

// isCodeCollision reports whether the error is a unique violation on the
// invitation code index, as opposed to any other constraint.
func isCodeCollision(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505" && pgErr.ConstraintName == "invitations_code_key"
}

// Validate looks up an invitation by code and checks that it can still be
// claimed. A lookup past the expiry timestamp transitions the record to
// expired as a side effect.
func (s *Service) Validate(ctx context.Context, code string) (*ValidationResult, error) {
	inv, err := s.GetByCode(ctx, code)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return &ValidationResult{Valid: false, Reason: "not_found"}, nil
		}
		return nil, err
	}

	switch inv.Status {
	case StatusClaimed:
		return &ValidationResult{Valid: false, Invitation: inv, Reason: "already_claimed"}, nil
	case StatusCancelled:
		return &ValidationResult{Valid: false, Invitation: inv, Reason: "cancelled"}, nil
	case StatusExpired:
		return &ValidationResult{Valid: false, Invitation: inv, Reason: "expired"}, nil
	}

	if time.Now().UTC().After(inv.ExpiresAt) {
		// Past expiry but not yet swept; transition now.
		_, err := s.pool.Exec(ctx, `
			UPDATE invitations
			SET status = $1
			WHERE id = $2 AND status IN ($3, $4)
		`, StatusExpired, inv.ID, StatusPending, StatusSent)
		if err != nil {
			return nil, fmt.Errorf("failed to expire invitation: %w", err)
		}
		inv.Status = StatusExpired
		return &ValidationResult{Valid: false, Invitation: inv, Reason: "expired"}, nil
	}

	result := &ValidationResult{Valid: true, Invitation: inv}

	if inv.MockProviderID != nil {
		provider, err := s.getMockProvider(ctx, *inv.MockProviderID)
		if err != nil {
			return nil, err
		}
		result.MockProvider = provider
	}

	return result, nil
}

// Claim transitions an invitation to claimed and records the claimant.
// The transition is guarded by a conditional update so concurrent or repeated
// claims cannot fire twice; a second call for an already-claimed invitation
// by the same user is a no-op.
func (s *Service) Claim(ctx context.Context, invitationID uuid.UUID, userID string) (*Invitation, error) {
	var inv Invitation
	err := s.pool.QueryRow(ctx, `
		UPDATE invitations
		SET status = $1, claimed_by = $2, claimed_at = NOW()
		WHERE id = $3 AND status IN ($4, $5)
		RETURNING `+invitationColumns+`
	`, StatusClaimed, userID, invitationID, StatusPending, StatusSent).Scan(scanTargets(&inv)...)
	if err == nil {
		return &inv, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("failed to claim invitation: %w", err)
	}

	// The conditional update matched nothing; report why.
	existing, getErr := s.GetByID(ctx, invitationID)
	if getErr != nil {
		return nil, getErr
	}
	switch existing.Status {
	case StatusClaimed:
		if existing.ClaimedBy != nil && *existing.ClaimedBy == userID {
			// Repeated claim by the same user; nothing to do.
			return existing, nil
		}
		return nil, ErrAlreadyClaimed
	case StatusCancelled:
		return nil, ErrCancelled
	case StatusExpired:
		return nil, ErrExpired
	default:
		return nil, fmt.Errorf("invitation %s in unexpected status %s", invitationID, existing.Status)
	}
}

// Cancel transitions an invitation to cancelled. The mock provider's
// back-reference is cleared in the same transaction, so cancellation can
// never leave a provider pointing at a dead invitation.
func (s *Service) Cancel(ctx context.Context, invitationID uuid.UUID) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	// Clear the back-reference first: a failure after this point leaves the
	// provider unlinked, which a re-run of Cancel repairs.
	_, err = tx.Exec(ctx, `
		UPDATE providers
		SET linked_invitation_id = NULL, updated_at = NOW()
		WHERE linked_invitation_id = $1
	`, invitationID)
	if err != nil {
		return fmt.Errorf("failed to unlink mock provider: %w", err)
	}

	tag, err := tx.Exec(ctx, `
		UPDATE invitations
		SET status = $1
		WHERE id = $2 AND status NOT IN ($3, $4)
	`, StatusCancelled, invitationID, StatusClaimed, StatusCancelled)
	if err != nil {
		return fmt.Errorf("failed to cancel invitation: %w", err)
	}
	if tag.RowsAffected() == 0 {
		existing, getErr := s.GetByID(ctx, invitationID)
		if getErr != nil {
			return getErr
		}
		if existing.Status == StatusClaimed {
			return ErrAlreadyClaimed
		}
		// Already cancelled; treat as a no-op.
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// MarkSent records that the invitation email went out.
func (s *Service) MarkSent(ctx context.Context, invitationID uuid.UUID) (*Invitation, error) {
	var inv Invitation
	err := s.pool.QueryRow(ctx, `
		UPDATE invitations
		SET status = $1, sent_at = NOW()
		WHERE id = $2 AND status = $3
		RETURNING `+invitationColumns+`
	`, StatusSent, invitationID, StatusPending).Scan(scanTargets(&inv)...)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			existing, getErr := s.GetByID(ctx, invitationID)
			if getErr != nil {
				return nil, getErr
			}
			if existing.Status == StatusSent {
				// Resending is allowed; keep the latest send time.
				return s.touchSentAt(ctx, invitationID)
			}
			return nil, fmt.Errorf("cannot send invitation in status %s", existing.Status)
		}
		return nil, fmt.Errorf("failed to mark invitation sent: %w", err)
	}
	return &inv, nil
}

func (s *Service) touchSentAt(ctx context.Context, invitationID uuid.UUID) (*Invitation, error) {
	var inv Invitation
	err := s.pool.QueryRow(ctx, `
		UPDATE invitations
		SET sent_at = NOW()
		WHERE id = $1
		RETURNING `+invitationColumns+`
	`, invitationID).Scan(scanTargets(&inv)...)
	if err != nil {
		return nil, fmt.Errorf("failed to update send time: %w", err)
	}
	return &inv, nil
}

// UpdateStatus writes a status directly. Only valid enum values are accepted;
// no other invariants apply.
func (s *Service) UpdateStatus(ctx context.Context, invitationID uuid.UUID, status Status) error {
	if !status.IsValid() {
		return ErrInvalidStatus
	}

	tag, err := s.pool.Exec(ctx, `
		UPDATE invitations
		SET status = $1
		WHERE id = $2
	`, status, invitationID)
	if err != nil {
		return fmt.Errorf("failed to update invitation status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// GetByID retrieves an invitation by ID
func (s *Service) GetByID(ctx context.Context, invitationID uuid.UUID) (*Invitation, error) {
	var inv Invitation
	err := s.pool.QueryRow(ctx, `
		SELECT `+invitationColumns+`
		FROM invitations
		WHERE id = $1
	`, invitationID).Scan(scanTargets(&inv)...)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get invitation: %w", err)
	}
	return &inv, nil
}

// GetByCode retrieves an invitation by its unique code
func (s *Service) GetByCode(ctx context.Context, code string) (*Invitation, error) {
	var inv Invitation
	err := s.pool.QueryRow(ctx, `
		SELECT `+invitationColumns+`
		FROM invitations
		WHERE code = $1
	`, code).Scan(scanTargets(&inv)...)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get invitation: %w", err)
	}
	return &inv, nil
}

// GetByMockProviderID retrieves the invitation linked to a mock provider
func (s *Service) GetByMockProviderID(ctx context.Context, providerID uuid.UUID) (*Invitation, error) {
	var inv Invitation
	err := s.pool.QueryRow(ctx, `
		SELECT `+invitationColumns+`
		FROM invitations
		WHERE mock_provider_id = $1
		ORDER BY created_at DESC
		LIMIT 1
	`, providerID).Scan(scanTargets(&inv)...)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get invitation: %w", err)
	}
	return &inv, nil
}

// List returns invitations ordered by creation time, optionally filtered by status.
func (s *Service) List(ctx context.Context, status Status, limit int) ([]Invitation, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}

	query := `SELECT ` + invitationColumns + ` FROM invitations`
	args := []any{}
	if status != "" {
		if !status.IsValid() {
			return nil, ErrInvalidStatus
		}
		query += ` WHERE status = $1 ORDER BY created_at DESC LIMIT $2`
		args = append(args, status, limit)
	} else {
		query += ` ORDER BY created_at DESC LIMIT $1`
		args = append(args, limit)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list invitations: %w", err)
	}
	defer rows.Close()

	var invs []Invitation
	for rows.Next() {
		var inv Invitation
		if err := rows.Scan(scanTargets(&inv)...); err != nil {
			return nil, fmt.Errorf("failed to scan invitation: %w", err)
		}
		invs = append(invs, inv)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating invitations: %w", err)
	}

	return invs, nil
}

// GetStats aggregates invitation counts by status. The conversion rate is
// claimed / (sent + claimed) * 100, defined as 0 when no invitation has been
// sent or claimed yet.
func (s *Service) GetStats(ctx context.Context) (*Stats, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT status, COUNT(*)
		FROM invitations
		GROUP BY status
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query invitation stats: %w", err)
	}
	defer rows.Close()

	var stats Stats
	for rows.Next() {
		var status Status
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, fmt.Errorf("failed to scan stats row: %w", err)
		}

		stats.Total += count
		switch status {
		case StatusPending:
			stats.Pending = count
		case StatusSent:
			stats.Sent = count
		case StatusClaimed:
			stats.Claimed = count
		case StatusCancelled:
			stats.Cancelled = count
		case StatusExpired:
			stats.Expired = count
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating stats rows: %w", err)
	}

	stats.ConversionRate = ConversionRate(stats.Claimed, stats.Sent)

	return &stats, nil
}

// ExpireOverdue transitions all pending/sent invitations past their expiry to
// expired. Called by the daily maintenance job; idempotent.
func (s *Service) ExpireOverdue(ctx context.Context) (int64, error) {
	tag, err := s.pool.Exec(ctx, `
		UPDATE invitations
		SET status = $1
		WHERE status IN ($2, $3)
		  AND expires_at < NOW()
	`, StatusExpired, StatusPending, StatusSent)
	if err != nil {
		return 0, fmt.Errorf("failed to expire overdue invitations: %w", err)
	}
	if n := tag.RowsAffected(); n > 0 {
		log.Info().Int64("count", n).Msg("Expired overdue invitations")
		return n, nil
	}
	return 0, nil
}

// ConversionRate computes claimed / (sent + claimed) * 100, or 0 when the
// denominator is 0.
func ConversionRate(claimed, sent int) float64 {
	denominator := sent + claimed
	if denominator == 0 {
		return 0
	}
	return float64(claimed) / float64(denominator) * 100
}

func (s *Service) getMockProvider(ctx context.Context, providerID uuid.UUID) (*MockProvider, error) {
	var p MockProvider
	err := s.pool.QueryRow(ctx, `
		SELECT id, business_name, category, description
		FROM providers
		WHERE id = $1
	`, providerID).Scan(&p.ID, &p.BusinessName, &p.Category, &p.Description)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			// Dangling reference; surface the invitation without a provider.
			log.Warn().Str("provider_id", providerID.String()).Msg("Invitation references missing mock provider")
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get mock provider: %w", err)
	}
	return &p, nil
}

// scanTargets returns scan destinations matching invitationColumns order.
func scanTargets(inv *Invitation) []any {
	return []any{
		&inv.ID,
		&inv.Code,
		&inv.RecipientName,
		&inv.BusinessName,
		&inv.Category,
		&inv.Email,
		&inv.InviteType,
		&inv.Status,
		&inv.MockProviderID,
		&inv.CustomMessage,
		&inv.CreatedBy,
		&inv.ClaimedBy,
		&inv.ClaimedAt,
		&inv.SentAt,
		&inv.CreatedAt,
		&inv.ExpiresAt,
	}
}
