package audit

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"
)

const (
	EventAdminLogin        = "admin.login"
	EventInvitationCreated = "invitation.created"
	EventInvitationSent    = "invitation.sent"
	EventInvitationClaimed = "invitation.claimed"
	EventInvitationCancel  = "invitation.cancelled"
	EventLeadCreated       = "lead.created"
	EventLeadContacted     = "lead.contacted"
	EventOrderConfirmed    = "order.confirmed"
	EventOrderCancelled    = "order.cancelled"
	EventPayoutRequested   = "payout.requested"
	EventPayoutProcessed   = "payout.processed"
	EventSeedCreated       = "seed.created"
	EventSeedCleanup       = "seed.cleanup"
)

// Event represents an audit log entry.
type Event struct {
	ID           uuid.UUID              `db:"id"`
	ActorAdminID uuid.NullUUID          `db:"actor_admin_id"`
	Action       string                 `db:"action"`
	EntityID     uuid.NullUUID          `db:"entity_id"`
	Meta         map[string]interface{} `db:"meta"`
	CreatedAt    time.Time              `db:"created_at"`
}

// Writer provides methods to write audit log entries.
type Writer struct {
	pool *pgxpool.Pool
}

func NewWriter(pool *pgxpool.Pool) *Writer {
	return &Writer{pool: pool}
}

// LogParams contains parameters for logging an audit event.
type LogParams struct {
	ActorAdminID *uuid.UUID
	Action       string
	EntityID     *uuid.UUID
	Meta         map[string]interface{}
}

func (w *Writer) Log(ctx context.Context, params LogParams) error {
	metaJSON := []byte("{}")
	if params.Meta != nil {
		b, err := json.Marshal(params.Meta)
		if err != nil {
			log.Error().Err(err).Msg("Failed to marshal audit meta")
			return err
		}
		metaJSON = b
	}

	query := `
		INSERT INTO audit_log (actor_admin_id, action, entity_id, meta)
		VALUES ($1, $2, $3, $4)
	`

	_, err := w.pool.Exec(ctx, query,
		toNullUUID(params.ActorAdminID),
		params.Action,
		toNullUUID(params.EntityID),
		metaJSON,
	)
	if err != nil {
		log.Error().Err(err).Str("action", params.Action).Msg("Failed to write audit log")
		return err
	}

	return nil
}

func toNullUUID(id *uuid.UUID) uuid.NullUUID {
	if id == nil {
		return uuid.NullUUID{}
	}
	return uuid.NullUUID{UUID: *id, Valid: true}
}
