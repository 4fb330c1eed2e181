package providers

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Service provides provider record operations
type Service struct {
	pool *pgxpool.Pool
}

// NewService creates a new provider service
func NewService(pool *pgxpool.Pool) *Service {
	return &Service{pool: pool}
}

const providerColumns = `
	id, business_name, category, email, phone, description, is_mock, active,
	owner_user_id, linked_invitation_id, seed_name, created_at, updated_at
`

// CreateMockParams contains the inputs for creating a placeholder provider.
type CreateMockParams struct {
	BusinessName string
	Category     string
	Email        *string
	Phone        *string
	Description  *string
}

// CreateMock creates a placeholder provider awaiting an invitation claim.
func (s *Service) CreateMock(ctx context.Context, params CreateMockParams) (*Provider, error) {
	var p Provider
	err := s.pool.QueryRow(ctx, `
		INSERT INTO providers (business_name, category, email, phone, description, is_mock)
		VALUES ($1, $2, $3, $4, $5, TRUE)
		RETURNING `+providerColumns+`
	`, params.BusinessName, params.Category, params.Email, params.Phone, params.Description,
	).Scan(scanTargets(&p)...)
	if err != nil {
		return nil, fmt.Errorf("failed to create mock provider: %w", err)
	}
	return &p, nil
}

// GetByID retrieves a provider by ID
func (s *Service) GetByID(ctx context.Context, providerID uuid.UUID) (*Provider, error) {
	var p Provider
	err := s.pool.QueryRow(ctx, `
		SELECT `+providerColumns+`
		FROM providers
		WHERE id = $1
	`, providerID).Scan(scanTargets(&p)...)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get provider: %w", err)
	}
	return &p, nil
}

// List returns active providers, optionally filtered by category.
func (s *Service) List(ctx context.Context, category string, includeMock bool, limit int) ([]Provider, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}

	query := `SELECT ` + providerColumns + ` FROM providers WHERE active`
	args := []any{}
	argNum := 1

	if !includeMock {
		query += ` AND NOT is_mock`
	}
	if category != "" {
		query += fmt.Sprintf(" AND category = $%d", argNum)
		args = append(args, category)
		argNum++
	}

	query += fmt.Sprintf(" ORDER BY business_name ASC LIMIT $%d", argNum)
	args = append(args, limit)

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list providers: %w", err)
	}
	defer rows.Close()

	var out []Provider
	for rows.Next() {
		var p Provider
		if err := rows.Scan(scanTargets(&p)...); err != nil {
			return nil, fmt.Errorf("failed to scan provider: %w", err)
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating providers: %w", err)
	}

	return out, nil
}

// ClaimParams contains the inputs for converting a claim into a live provider.
type ClaimParams struct {
	OwnerUserID  string
	BusinessName string
	Category     string
	Email        *string
	Phone        *string
	Description  *string
	MockID       *uuid.UUID
}

// CreateFromClaim turns a finished onboarding into a live provider record.
// When a mock provider was linked to the invitation, that record is promoted
// in place; otherwise a fresh provider row is created.
func (s *Service) CreateFromClaim(ctx context.Context, params ClaimParams) (*Provider, error) {
	if params.MockID != nil {
		var p Provider
		err := s.pool.QueryRow(ctx, `
			UPDATE providers
			SET business_name = $1,
			    category = $2,
			    email = $3,
			    phone = $4,
			    description = $5,
			    is_mock = FALSE,
			    owner_user_id = $6,
			    linked_invitation_id = NULL,
			    updated_at = NOW()
			WHERE id = $7
			RETURNING `+providerColumns+`
		`, params.BusinessName, params.Category, params.Email, params.Phone,
			params.Description, params.OwnerUserID, *params.MockID,
		).Scan(scanTargets(&p)...)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return nil, ErrNotFound
			}
			return nil, fmt.Errorf("failed to promote mock provider: %w", err)
		}
		return &p, nil
	}

	var p Provider
	err := s.pool.QueryRow(ctx, `
		INSERT INTO providers (business_name, category, email, phone, description, is_mock, owner_user_id)
		VALUES ($1, $2, $3, $4, $5, FALSE, $6)
		RETURNING `+providerColumns+`
	`, params.BusinessName, params.Category, params.Email, params.Phone,
		params.Description, params.OwnerUserID,
	).Scan(scanTargets(&p)...)
	if err != nil {
		return nil, fmt.Errorf("failed to create provider: %w", err)
	}
	return &p, nil
}

// scanTargets returns scan destinations matching providerColumns order.
func scanTargets(p *Provider) []any {
	return []any{
		&p.ID,
		&p.BusinessName,
		&p.Category,
		&p.Email,
		&p.Phone,
		&p.Description,
		&p.IsMock,
		&p.Active,
		&p.OwnerUserID,
		&p.LinkedInvitationID,
		&p.SeedName,
		&p.CreatedAt,
		&p.UpdatedAt,
	}
}
