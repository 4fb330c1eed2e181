package providers

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"
)

// seedProvider describes one demo provider created by the admin seed endpoint.
type seedProvider struct {
	BusinessName string
	Category     string
	Description  string
}

// seedSets maps a seed name to the demo providers it creates.
var seedSets = map[string][]seedProvider{
	"atacama-demo": {
		{BusinessName: "Tours Valle de la Luna", Category: "tour", Description: "Excursiones al atardecer en el Valle de la Luna"},
		{BusinessName: "Astronomía Céjar", Category: "tour", Description: "Tours astronómicos en el desierto"},
		{BusinessName: "Hostal Sol del Desierto", Category: "stay", Description: "Alojamiento familiar en el centro"},
		{BusinessName: "Delivery Atacama Express", Category: "delivery", Description: "Reparto a domicilio en San Pedro"},
		{BusinessName: "Artesanías Licancabur", Category: "marketplace", Description: "Artesanía local y textiles andinos"},
	},
}

// Seed idempotently creates the demo providers for the given seed name.
// Re-running the same seed creates nothing new.
func Seed(ctx context.Context, pool *pgxpool.Pool, seedName string) (int, error) {
	set, ok := seedSets[seedName]
	if !ok {
		return 0, fmt.Errorf("unknown seed: %s", seedName)
	}

	created := 0
	for _, p := range set {
		tag, err := pool.Exec(ctx, `
			INSERT INTO providers (business_name, category, description, is_mock, seed_name)
			SELECT $1, $2, $3, TRUE, $4
			WHERE NOT EXISTS (
				SELECT 1 FROM providers WHERE seed_name = $4 AND business_name = $1
			)
		`, p.BusinessName, p.Category, p.Description, seedName)
		if err != nil {
			return created, fmt.Errorf("failed to seed provider %s: %w", p.BusinessName, err)
		}
		created += int(tag.RowsAffected())
	}

	log.Info().Str("seed", seedName).Int("created", created).Msg("Seed completed")
	return created, nil
}

// Cleanup destructively removes a provider and its dependents by business
// name. Used to clear demo data; deletes cascade to sub-orders and contacts.
func Cleanup(ctx context.Context, pool *pgxpool.Pool, businessName string) (int64, error) {
	tx, err := pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	// Detach references that do not cascade.
	if _, err := tx.Exec(ctx, `
		UPDATE invitations
		SET mock_provider_id = NULL
		WHERE mock_provider_id IN (SELECT id FROM providers WHERE business_name = $1)
	`, businessName); err != nil {
		return 0, fmt.Errorf("failed to detach invitations: %w", err)
	}

	if _, err := tx.Exec(ctx, `
		UPDATE provider_leads
		SET provider_id = NULL
		WHERE provider_id IN (SELECT id FROM providers WHERE business_name = $1)
	`, businessName); err != nil {
		return 0, fmt.Errorf("failed to detach leads: %w", err)
	}

	for _, table := range []string{"earnings_transactions", "payout_requests", "provider_orders", "tour_bookings", "delivery_orders"} {
		if _, err := tx.Exec(ctx, fmt.Sprintf(`
			DELETE FROM %s
			WHERE provider_id IN (SELECT id FROM providers WHERE business_name = $1)
		`, table), businessName); err != nil {
			return 0, fmt.Errorf("failed to delete from %s: %w", table, err)
		}
	}

	if _, err := tx.Exec(ctx, `
		DELETE FROM provider_earnings
		WHERE provider_id IN (SELECT id FROM providers WHERE business_name = $1)
	`, businessName); err != nil {
		return 0, fmt.Errorf("failed to delete earnings: %w", err)
	}

	tag, err := tx.Exec(ctx, `DELETE FROM providers WHERE business_name = $1`, businessName)
	if err != nil {
		return 0, fmt.Errorf("failed to delete provider: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("failed to commit transaction: %w", err)
	}

	deleted := tag.RowsAffected()
	log.Info().Str("business_name", businessName).Int64("deleted", deleted).Msg("Cleanup completed")
	return deleted, nil
}
