package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Reader struct {
	pool *pgxpool.Pool
}

func NewReader(pool *pgxpool.Pool) *Reader {
	return &Reader{pool: pool}
}

type ListItem struct {
	ID           uuid.UUID      `json:"id"`
	Action       string         `json:"action"`
	EntityID     *uuid.UUID     `json:"entity_id,omitempty"`
	ActorAdminID *uuid.UUID     `json:"actor_admin_id,omitempty"`
	ActorEmail   string         `json:"actor_email,omitempty"`
	Meta         map[string]any `json:"meta"`
	CreatedAt    time.Time      `json:"created_at"`
}

// List returns the most recent audit entries, optionally filtered by action.
func (r *Reader) List(ctx context.Context, action string, limit int) ([]ListItem, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}

	query := `
		SELECT
		  al.id,
		  al.actor_admin_id,
		  a.email,
		  al.action,
		  al.entity_id,
		  al.meta,
		  al.created_at
		FROM audit_log al
		LEFT JOIN admins a ON a.id = al.actor_admin_id
	`
	args := []any{}
	if action != "" {
		query += ` WHERE al.action = $1 ORDER BY al.created_at DESC LIMIT $2`
		args = append(args, action, limit)
	} else {
		query += ` ORDER BY al.created_at DESC LIMIT $1`
		args = append(args, limit)
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query audit log: %w", err)
	}
	defer rows.Close()

	var out []ListItem
	for rows.Next() {
		var item ListItem
		var actorAdminID uuid.NullUUID
		var entityID uuid.NullUUID
		var actorEmail *string
		var metaRaw []byte

		if err := rows.Scan(&item.ID, &actorAdminID, &actorEmail, &item.Action, &entityID, &metaRaw, &item.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan audit row: %w", err)
		}

		if actorAdminID.Valid {
			item.ActorAdminID = &actorAdminID.UUID
		}
		if entityID.Valid {
			item.EntityID = &entityID.UUID
		}
		if actorEmail != nil {
			item.ActorEmail = *actorEmail
		}

		item.Meta = map[string]any{}
		if len(metaRaw) > 0 {
			_ = json.Unmarshal(metaRaw, &item.Meta)
		}

		out = append(out, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating audit rows: %w", err)
	}

	return out, nil
}
