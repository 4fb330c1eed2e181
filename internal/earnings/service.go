package earnings

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Service handles provider earnings accounting
type Service struct {
	pool *pgxpool.Pool
}

// NewService creates a new earnings service
func NewService(pool *pgxpool.Pool) *Service {
	return &Service{pool: pool}
}

// RecordTransaction credits one confirmed order to a provider and bumps the
// running totals atomically. The transaction table has a unique key on
// (provider_id, order_id): if the pair was already credited the insert is
// skipped and the totals are left untouched, so replays are safe.
func (s *Service) RecordTransaction(ctx context.Context, providerID, orderID uuid.UUID, amount, commission int64) (credited bool, err error) {
	net := amount - commission

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	tag, err := tx.Exec(ctx, `
		INSERT INTO earnings_transactions (provider_id, order_id, amount, commission, net)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (provider_id, order_id) DO NOTHING
	`, providerID, orderID, amount, commission, net)
	if err != nil {
		return false, fmt.Errorf("failed to record earnings transaction: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return false, nil
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO provider_earnings (provider_id, total_revenue, total_commission, total_earnings, pending_payout)
		VALUES ($1, $2, $3, $4, $4)
		ON CONFLICT (provider_id) DO UPDATE SET
			total_revenue = provider_earnings.total_revenue + EXCLUDED.total_revenue,
			total_commission = provider_earnings.total_commission + EXCLUDED.total_commission,
			total_earnings = provider_earnings.total_earnings + EXCLUDED.total_earnings,
			pending_payout = provider_earnings.pending_payout + EXCLUDED.pending_payout,
			updated_at = NOW()
	`, providerID, amount, commission, net)
	if err != nil {
		return false, fmt.Errorf("failed to update earnings totals: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return false, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return true, nil
}

// GetByProvider loads the earnings summary for one provider.
func (s *Service) GetByProvider(ctx context.Context, providerID uuid.UUID) (*Earnings, error) {
	var e Earnings
	err := s.pool.QueryRow(ctx, `
		SELECT provider_id, total_revenue, total_commission, total_earnings,
		       paid_out, pending_payout, updated_at
		FROM provider_earnings
		WHERE provider_id = $1
	`, providerID).Scan(&e.ProviderID, &e.TotalRevenue, &e.TotalCommission, &e.TotalEarnings,
		&e.PaidOut, &e.PendingPayout, &e.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get earnings: %w", err)
	}
	return &e, nil
}

// ListTransactions returns a provider's credited orders, newest first.
func (s *Service) ListTransactions(ctx context.Context, providerID uuid.UUID, limit int) ([]Transaction, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}

	rows, err := s.pool.Query(ctx, `
		SELECT id, provider_id, order_id, amount, commission, net, created_at
		FROM earnings_transactions
		WHERE provider_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`, providerID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query earnings transactions: %w", err)
	}
	defer rows.Close()

	var out []Transaction
	for rows.Next() {
		var t Transaction
		if err := rows.Scan(&t.ID, &t.ProviderID, &t.OrderID, &t.Amount, &t.Commission, &t.Net, &t.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan earnings transaction: %w", err)
		}
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating earnings transactions: %w", err)
	}
	return out, nil
}

// RequestPayout debits the pending balance and opens a payout request in one
// transaction. The balance check and the debit run as a single conditional
// update so concurrent requests cannot overdraw.
func (s *Service) RequestPayout(ctx context.Context, providerID uuid.UUID, amount int64) (*PayoutRequest, error) {
	if amount <= 0 {
		return nil, errors.New("payout amount must be positive")
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	tag, err := tx.Exec(ctx, `
		UPDATE provider_earnings
		SET pending_payout = pending_payout - $1, updated_at = NOW()
		WHERE provider_id = $2 AND pending_payout >= $1
	`, amount, providerID)
	if err != nil {
		return nil, fmt.Errorf("failed to debit pending payout: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return nil, ErrInsufficientBalance
	}

	var pr PayoutRequest
	err = tx.QueryRow(ctx, `
		INSERT INTO payout_requests (provider_id, amount)
		VALUES ($1, $2)
		RETURNING id, provider_id, amount, status, requested_at, processed_at
	`, providerID, amount,
	).Scan(&pr.ID, &pr.ProviderID, &pr.Amount, &pr.Status, &pr.RequestedAt, &pr.ProcessedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create payout request: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return &pr, nil
}

// ProcessPayout marks a pending payout request processed and moves its amount
// into paid_out. Only pending requests can be processed.
func (s *Service) ProcessPayout(ctx context.Context, payoutID uuid.UUID) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	var providerID uuid.UUID
	var amount int64
	err = tx.QueryRow(ctx, `
		UPDATE payout_requests
		SET status = $1, processed_at = NOW()
		WHERE id = $2 AND status = $3
		RETURNING provider_id, amount
	`, PayoutProcessed, payoutID, PayoutPending).Scan(&providerID, &amount)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrPayoutNotPending
		}
		return fmt.Errorf("failed to process payout: %w", err)
	}

	_, err = tx.Exec(ctx, `
		UPDATE provider_earnings
		SET paid_out = paid_out + $1, updated_at = NOW()
		WHERE provider_id = $2
	`, amount, providerID)
	if err != nil {
		return fmt.Errorf("failed to update paid out total: %w", err)
	}

	return tx.Commit(ctx)
}

// RejectPayout returns a pending payout's amount to the provider's balance.
func (s *Service) RejectPayout(ctx context.Context, payoutID uuid.UUID) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	var providerID uuid.UUID
	var amount int64
	err = tx.QueryRow(ctx, `
		UPDATE payout_requests
		SET status = $1, processed_at = NOW()
		WHERE id = $2 AND status = $3
		RETURNING provider_id, amount
	`, PayoutRejected, payoutID, PayoutPending).Scan(&providerID, &amount)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrPayoutNotPending
		}
		return fmt.Errorf("failed to reject payout: %w", err)
	}

	_, err = tx.Exec(ctx, `
		UPDATE provider_earnings
		SET pending_payout = pending_payout + $1, updated_at = NOW()
		WHERE provider_id = $2
	`, amount, providerID)
	if err != nil {
		return fmt.Errorf("failed to restore pending payout: %w", err)
	}

	return tx.Commit(ctx)
}

// ListPayouts returns payout requests, optionally filtered by status.
func (s *Service) ListPayouts(ctx context.Context, status PayoutStatus, limit int) ([]PayoutRequest, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}

	query := `
		SELECT id, provider_id, amount, status, requested_at, processed_at
		FROM payout_requests`
	args := []any{}
	if status != "" {
		query += ` WHERE status = $1`
		args = append(args, status)
	}
	query += fmt.Sprintf(` ORDER BY requested_at DESC LIMIT $%d`, len(args)+1)
	args = append(args, limit)

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query payout requests: %w", err)
	}
	defer rows.Close()

	var out []PayoutRequest
	for rows.Next() {
		var pr PayoutRequest
		if err := rows.Scan(&pr.ID, &pr.ProviderID, &pr.Amount, &pr.Status, &pr.RequestedAt, &pr.ProcessedAt); err != nil {
			return nil, fmt.Errorf("failed to scan payout request: %w", err)
		}
		out = append(out, pr)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating payout requests: %w", err)
	}
	return out, nil
}
