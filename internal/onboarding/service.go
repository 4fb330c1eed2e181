package onboarding

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"
	"github.com/santurist/santurist/internal/invitations"
	"github.com/santurist/santurist/internal/leads"
	"github.com/santurist/santurist/internal/providers"
)

const progressColumns = `id, user_id, email, invitation_code, completed_steps, total_steps,
	draft, last_reminder_days, expired_notified_at, finalized_at, created_at, expires_at`

// Service handles the onboarding registration flow
type Service struct {
	pool *pgxpool.Pool
}

// NewService creates a new onboarding service
func NewService(pool *pgxpool.Pool) *Service {
	return &Service{pool: pool}
}

// StartParams contains the inputs for beginning onboarding.
type StartParams struct {
	UserID     string
	Email      string
	Code       string
	TotalSteps int
}

// Start opens a registration window for a user holding a valid invitation.
// The invitation stays unclaimed until Finalize; abandoning the flow leaves
// the code usable.
func (s *Service) Start(ctx context.Context, params StartParams) (*Progress, error) {
	result, err := invitations.NewService(s.pool).Validate(ctx, params.Code)
	if err != nil {
		return nil, err
	}
	if !result.Valid {
		return nil, fmt.Errorf("invitation cannot be used: %s", result.Reason)
	}

	// An open window for the same user and code is resumed, not duplicated.
	existing, err := s.getOpenByUserAndCode(ctx, params.UserID, result.Invitation.Code)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, err
	}

	expiresAt := time.Now().UTC().Add(Window)

	var p Progress
	err = s.pool.QueryRow(ctx, `
		INSERT INTO onboarding_progress (user_id, email, invitation_code, total_steps, expires_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING `+progressColumns+`
	`, params.UserID, params.Email, result.Invitation.Code, params.TotalSteps, expiresAt,
	).Scan(progressScanTargets(&p)...)
	if err != nil {
		return nil, fmt.Errorf("failed to start onboarding: %w", err)
	}
	return &p, nil
}

// SubmitStep records one completed step and merges its draft fields.
// Resubmitting a step is allowed and updates the draft, but the step id is
// never appended twice.
func (s *Service) SubmitStep(ctx context.Context, progressID uuid.UUID, stepID string, patch map[string]any) (*Progress, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	var p Progress
	err = tx.QueryRow(ctx, `
		SELECT `+progressColumns+`
		FROM onboarding_progress
		WHERE id = $1
		FOR UPDATE
	`, progressID).Scan(progressScanTargets(&p)...)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to load onboarding record: %w", err)
	}

	if p.FinalizedAt != nil {
		return nil, ErrAlreadyFinalized
	}
	if time.Now().UTC().After(p.ExpiresAt) {
		return nil, ErrExpired
	}

	steps := p.CompletedSteps
	if !containsStep(steps, stepID) {
		if len(steps) >= p.TotalSteps {
			return nil, fmt.Errorf("step %q would exceed total steps", stepID)
		}
		steps = append(steps, stepID)
	}

	draft := p.Draft
	if draft == nil {
		draft = map[string]any{}
	}
	if len(patch) > 0 {
		draft = mergeDraft(draft, patch)
	}

	err = tx.QueryRow(ctx, `
		UPDATE onboarding_progress
		SET completed_steps = $1, draft = $2
		WHERE id = $3
		RETURNING `+progressColumns+`
	`, steps, draft, progressID).Scan(progressScanTargets(&p)...)
	if err != nil {
		return nil, fmt.Errorf("failed to submit step: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return &p, nil
}

// Finalize converts a completed draft into a live provider, claims the
// invitation, and settles the originating lead. The provider write, the
// invitation claim, and the lead update are independent store operations;
// each later step tolerates a retry after a partial failure.
func (s *Service) Finalize(ctx context.Context, progressID uuid.UUID) (*providers.Provider, error) {
	p, err := s.GetByID(ctx, progressID)
	if err != nil {
		return nil, err
	}
	if p.FinalizedAt != nil {
		return nil, ErrAlreadyFinalized
	}
	if !p.IsComplete() {
		return nil, ErrStepsIncomplete
	}
	if time.Now().UTC().After(p.ExpiresAt) {
		return nil, ErrExpired
	}

	invSvc := invitations.NewService(s.pool)
	inv, err := invSvc.GetByCode(ctx, p.InvitationCode)
	if err != nil {
		return nil, err
	}

	business := draftSection(p.Draft, "businessInfo")
	businessName := draftString(business, "business_name")
	if businessName == "" {
		businessName = inv.BusinessName
	}
	category := draftString(business, "category")
	if category == "" {
		category = "service"
	}

	email := p.Email
	provider, err := providers.NewService(s.pool).CreateFromClaim(ctx, providers.ClaimParams{
		OwnerUserID:  p.UserID,
		BusinessName: businessName,
		Category:     category,
		Email:        &email,
		Phone:        optionalDraftString(business, "phone"),
		Description:  optionalDraftString(business, "description"),
		MockID:       inv.MockProviderID,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create provider from draft: %w", err)
	}

	if _, err := invSvc.Claim(ctx, inv.ID, p.UserID); err != nil {
		return nil, err
	}

	if err := leads.NewService(s.pool).MarkClaimedByInvitation(ctx, inv.ID, provider.ID); err != nil {
		// The provider exists and the invitation is claimed; a stale lead
		// row is not worth failing the whole flow over.
		log.Warn().Err(err).Str("invitation_id", inv.ID.String()).Msg("Failed to settle lead after claim")
	}

	_, err = s.pool.Exec(ctx, `
		UPDATE onboarding_progress
		SET finalized_at = NOW()
		WHERE id = $1 AND finalized_at IS NULL
	`, progressID)
	if err != nil {
		return nil, fmt.Errorf("failed to mark onboarding finalized: %w", err)
	}

	log.Info().
		Str("progress_id", progressID.String()).
		Str("provider_id", provider.ID.String()).
		Msg("Onboarding finalized")
	return provider, nil
}

// GetByID loads one onboarding record.
func (s *Service) GetByID(ctx context.Context, progressID uuid.UUID) (*Progress, error) {
	var p Progress
	err := s.pool.QueryRow(ctx, `
		SELECT `+progressColumns+`
		FROM onboarding_progress
		WHERE id = $1
	`, progressID).Scan(progressScanTargets(&p)...)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get onboarding record: %w", err)
	}
	return &p, nil
}

func (s *Service) getOpenByUserAndCode(ctx context.Context, userID, code string) (*Progress, error) {
	var p Progress
	err := s.pool.QueryRow(ctx, `
		SELECT `+progressColumns+`
		FROM onboarding_progress
		WHERE user_id = $1 AND invitation_code = $2
		  AND finalized_at IS NULL AND expires_at > NOW()
		ORDER BY created_at DESC
		LIMIT 1
	`, userID, code).Scan(progressScanTargets(&p)...)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to look up open onboarding: %w", err)
	}
	return &p, nil
}

func containsStep(steps []string, stepID string) bool {
	for _, s := range steps {
		if s == stepID {
			return true
		}
	}
	return false
}

func draftSection(draft map[string]any, key string) map[string]any {
	if draft == nil {
		return nil
	}
	section, _ := draft[key].(map[string]any)
	return section
}

func draftString(section map[string]any, key string) string {
	v, _ := section[key].(string)
	return v
}

func optionalDraftString(section map[string]any, key string) *string {
	v := draftString(section, key)
	if v == "" {
		return nil
	}
	return &v
}

// progressScanTargets returns scan destinations matching progressColumns order.
func progressScanTargets(p *Progress) []any {
	return []any{
		&p.ID,
		&p.UserID,
		&p.Email,
		&p.InvitationCode,
		&p.CompletedSteps,
		&p.TotalSteps,
		&p.Draft,
		&p.LastReminderDays,
		&p.ExpiredNotifiedAt,
		&p.FinalizedAt,
		&p.CreatedAt,
		&p.ExpiresAt,
	}
}
