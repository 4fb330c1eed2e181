package retention

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"
	"github.com/santurist/santurist/internal/invitations"
)

// PruneAuditLog deletes audit entries older than the specified days.
// Idempotent, safe to run repeatedly.
//
// Returns the number of rows deleted.
func PruneAuditLog(ctx context.Context, pool *pgxpool.Pool, retentionDays int) (int64, error) {
	tag, err := pool.Exec(ctx, `
		DELETE FROM audit_log
		WHERE created_at < NOW() - INTERVAL '1 day' * $1
	`, retentionDays)
	if err != nil {
		return 0, fmt.Errorf("failed to prune audit log: %w", err)
	}
	return tag.RowsAffected(), nil
}

// RunMaintenanceJob expires overdue invitations and prunes old audit entries.
// This is the main entry point called by the cron scheduler.
func RunMaintenanceJob(ctx context.Context, pool *pgxpool.Pool, auditRetentionDays int) error {
	log.Info().
		Int("audit_retention_days", auditRetentionDays).
		Msg("Starting maintenance job")

	startTime := time.Now()

	expired, err := invitations.NewService(pool).ExpireOverdue(ctx)
	if err != nil {
		log.Error().Err(err).Msg("Failed to expire overdue invitations")
		return fmt.Errorf("invitation expiry sweep failed: %w", err)
	}

	pruned, err := PruneAuditLog(ctx, pool, auditRetentionDays)
	if err != nil {
		log.Error().Err(err).Msg("Failed to prune audit log")
		return fmt.Errorf("audit log pruning failed: %w", err)
	}

	log.Info().
		Int64("invitations_expired", expired).
		Int64("audit_entries_pruned", pruned).
		Dur("duration", time.Since(startTime)).
		Msg("Maintenance job completed")

	return nil
}
