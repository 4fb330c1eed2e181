package onboarding

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"
)

// reminderThresholds are the days-remaining values that trigger an
// incomplete-registration reminder. Each threshold fires at most once per
// record, tracked in last_reminder_days.
var reminderThresholds = map[int]bool{7: true, 3: true, 2: true, 1: true}

// ReminderNotifier sends the two onboarding lifecycle emails.
type ReminderNotifier interface {
	SendOnboardingReminder(ctx context.Context, to string, daysRemaining int)
	SendOnboardingExpired(ctx context.Context, to string)
}

// SweepResult summarizes one reminder sweep run.
type SweepResult struct {
	Scanned   int `json:"scanned"`
	Reminders int `json:"reminders"`
	Expired   int `json:"expired"`
	Errors    int `json:"errors"`
}

// sweepRecord is the slice of an onboarding row the sweep needs.
type sweepRecord struct {
	ID                uuid.UUID
	Email             string
	ExpiresAt         time.Time
	LastReminderDays  *int
	ExpiredNotifiedAt *time.Time
}

// ShouldRemind decides whether a record gets an incomplete reminder for the
// given days-remaining value.
func ShouldRemind(daysRemaining int, lastReminderDays *int) bool {
	if !reminderThresholds[daysRemaining] {
		return false
	}
	return lastReminderDays == nil || *lastReminderDays != daysRemaining
}

// SweepReminders walks every open onboarding record and sends window
// notifications. Records past expiry get a single expired notice; open
// records at a reminder threshold get that day's reminder once. One record's
// failure never stops the sweep.
func SweepReminders(ctx context.Context, pool *pgxpool.Pool, notifier ReminderNotifier, now time.Time) (SweepResult, error) {
	var result SweepResult

	rows, err := pool.Query(ctx, `
		SELECT id, email, expires_at, last_reminder_days, expired_notified_at
		FROM onboarding_progress
		WHERE finalized_at IS NULL
		  AND cardinality(completed_steps) < total_steps
	`)
	if err != nil {
		return result, fmt.Errorf("failed to query onboarding records: %w", err)
	}

	var records []sweepRecord
	for rows.Next() {
		var rec sweepRecord
		if err := rows.Scan(&rec.ID, &rec.Email, &rec.ExpiresAt, &rec.LastReminderDays, &rec.ExpiredNotifiedAt); err != nil {
			rows.Close()
			return result, fmt.Errorf("failed to scan onboarding record: %w", err)
		}
		records = append(records, rec)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return result, fmt.Errorf("error iterating onboarding records: %w", err)
	}

	result.Scanned = len(records)

	for _, rec := range records {
		if err := sweepOne(ctx, pool, notifier, rec, now, &result); err != nil {
			result.Errors++
			log.Error().
				Err(err).
				Str("progress_id", rec.ID.String()).
				Msg("Reminder sweep failed for record")
		}
	}

	log.Info().
		Int("scanned", result.Scanned).
		Int("reminders", result.Reminders).
		Int("expired", result.Expired).
		Int("errors", result.Errors).
		Msg("Onboarding reminder sweep completed")
	return result, nil
}

func sweepOne(ctx context.Context, pool *pgxpool.Pool, notifier ReminderNotifier, rec sweepRecord, now time.Time, result *SweepResult) error {
	days := DaysRemaining(rec.ExpiresAt, now)

	if days <= 0 {
		if rec.ExpiredNotifiedAt != nil {
			return nil
		}
		// Claim the notification before sending so two overlapping sweeps
		// cannot both send it.
		tag, err := pool.Exec(ctx, `
			UPDATE onboarding_progress
			SET expired_notified_at = NOW()
			WHERE id = $1 AND expired_notified_at IS NULL
		`, rec.ID)
		if err != nil {
			return fmt.Errorf("failed to mark expiry notified: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return nil
		}
		notifier.SendOnboardingExpired(ctx, rec.Email)
		result.Expired++
		return nil
	}

	if !ShouldRemind(days, rec.LastReminderDays) {
		return nil
	}

	tag, err := pool.Exec(ctx, `
		UPDATE onboarding_progress
		SET last_reminder_days = $1
		WHERE id = $2 AND (last_reminder_days IS NULL OR last_reminder_days <> $1)
	`, days, rec.ID)
	if err != nil {
		return fmt.Errorf("failed to record reminder: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return nil
	}
	notifier.SendOnboardingReminder(ctx, rec.Email, days)
	result.Reminders++
	return nil
}
