package orders

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"
)

// Service handles order creation and status transitions
type Service struct {
	pool *pgxpool.Pool
}

// NewService creates a new order service
func NewService(pool *pgxpool.Pool) *Service {
	return &Service{pool: pool}
}

// CreateParams contains the inputs for creating an order from a cart snapshot.
type CreateParams struct {
	CustomerID      string
	CustomerEmail   string
	Items           []CartItem
	ServiceFee      int64
	ShippingAddress *string
	ShippingNotes   *string
}

// CreateFromCart writes the order, its per-provider sub-orders, and their
// line items in a single transaction. Commission is computed per line item by
// category rate; provider revenue is always subtotal minus commission.
func (s *Service) CreateFromCart(ctx context.Context, params CreateParams) (*Order, error) {
	if len(params.Items) == 0 {
		return nil, ErrEmptyCart
	}

	// Group the cart by provider, preserving first-seen order.
	byProvider := make(map[uuid.UUID][]CartItem)
	var providerIDs []uuid.UUID
	for _, item := range params.Items {
		if item.Quantity <= 0 || item.UnitPrice < 0 {
			return nil, fmt.Errorf("invalid cart item %q", item.Name)
		}
		if _, seen := byProvider[item.ProviderID]; !seen {
			providerIDs = append(providerIDs, item.ProviderID)
		}
		byProvider[item.ProviderID] = append(byProvider[item.ProviderID], item)
	}

	var subtotal, commissionTotal int64
	for _, items := range byProvider {
		for _, item := range items {
			subtotal += int64(item.Quantity) * item.UnitPrice
			commissionTotal += ItemCommission(item.Category, item.Quantity, item.UnitPrice)
		}
	}
	total := subtotal + params.ServiceFee

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	var order Order
	err = tx.QueryRow(ctx, `
		INSERT INTO orders (
		  customer_id, customer_email, subtotal, commission_total, total,
		  shipping_address, shipping_notes
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, customer_id, customer_email, status, subtotal, commission_total,
		          total, payment_status, transaction_id, shipping_address, shipping_notes,
		          created_at, updated_at
	`, params.CustomerID, params.CustomerEmail, subtotal, commissionTotal, total,
		params.ShippingAddress, params.ShippingNotes,
	).Scan(orderScanTargets(&order)...)
	if err != nil {
		return nil, fmt.Errorf("failed to create order: %w", err)
	}

	for _, providerID := range providerIDs {
		items := byProvider[providerID]

		var poSubtotal, poCommission int64
		for _, item := range items {
			poSubtotal += int64(item.Quantity) * item.UnitPrice
			poCommission += ItemCommission(item.Category, item.Quantity, item.UnitPrice)
		}
		poRevenue := poSubtotal - poCommission

		var po ProviderOrder
		err = tx.QueryRow(ctx, `
			INSERT INTO provider_orders (order_id, provider_id, subtotal, commission, provider_revenue)
			VALUES ($1, $2, $3, $4, $5)
			RETURNING id, order_id, provider_id, status, subtotal, commission, provider_revenue,
			          created_at, updated_at
		`, order.ID, providerID, poSubtotal, poCommission, poRevenue,
		).Scan(&po.ID, &po.OrderID, &po.ProviderID, &po.Status, &po.Subtotal,
			&po.Commission, &po.ProviderRevenue, &po.CreatedAt, &po.UpdatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to create sub-order: %w", err)
		}

		for _, item := range items {
			var oi OrderItem
			err = tx.QueryRow(ctx, `
				INSERT INTO order_items (provider_order_id, name, category, quantity, unit_price)
				VALUES ($1, $2, $3, $4, $5)
				RETURNING id, provider_order_id, name, category, quantity, unit_price
			`, po.ID, item.Name, item.Category, item.Quantity, item.UnitPrice,
			).Scan(&oi.ID, &oi.ProviderOrderID, &oi.Name, &oi.Category, &oi.Quantity, &oi.UnitPrice)
			if err != nil {
				return nil, fmt.Errorf("failed to create order item: %w", err)
			}
			po.Items = append(po.Items, oi)
		}

		order.ProviderOrders = append(order.ProviderOrders, po)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return &order, nil
}

// ConfirmPayment marks the order and its sub-orders confirmed and records the
// gateway transaction ID. Only pending orders transition: a repeated
// confirmation, or one arriving after the order was cancelled, is a no-op that
// returns the order with confirmed == false and must not re-fire downstream
// effects.
func (s *Service) ConfirmPayment(ctx context.Context, orderID uuid.UUID, transactionID string) (order *Order, confirmed bool, err error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, false, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	tag, err := tx.Exec(ctx, `
		UPDATE orders
		SET status = $1, payment_status = $2, transaction_id = $3, updated_at = NOW()
		WHERE id = $4 AND status = $5
	`, StatusConfirmed, PaymentConfirmed, transactionID, orderID, StatusPending)
	if err != nil {
		return nil, false, fmt.Errorf("failed to confirm order: %w", err)
	}

	if tag.RowsAffected() > 0 {
		confirmed = true
		_, err = tx.Exec(ctx, `
			UPDATE provider_orders
			SET status = $1, updated_at = NOW()
			WHERE order_id = $2 AND status = $3
		`, StatusConfirmed, orderID, StatusPending)
		if err != nil {
			return nil, false, fmt.Errorf("failed to confirm sub-orders: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, false, fmt.Errorf("failed to commit transaction: %w", err)
	}

	order, err = s.GetWithDetails(ctx, orderID)
	if err != nil {
		return nil, false, err
	}
	if !confirmed && order.Status == StatusCancelled {
		// An approved payment can arrive after an admin cancelled the order.
		// The cancellation wins; the payment needs a manual refund.
		log.Warn().
			Str("order_id", orderID.String()).
			Str("transaction_id", transactionID).
			Msg("Ignoring payment confirmation for cancelled order")
	}
	return order, confirmed, nil
}

// Cancel marks the order cancelled and its payment refunded.
func (s *Service) Cancel(ctx context.Context, orderID uuid.UUID) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	tag, err := tx.Exec(ctx, `
		UPDATE orders
		SET status = $1, payment_status = $2, updated_at = NOW()
		WHERE id = $3 AND status <> $1
	`, StatusCancelled, PaymentRefunded, orderID)
	if err != nil {
		return fmt.Errorf("failed to cancel order: %w", err)
	}
	if tag.RowsAffected() == 0 {
		exists, err := s.exists(ctx, orderID)
		if err != nil {
			return err
		}
		if !exists {
			return ErrNotFound
		}
		return ErrAlreadyCancelled
	}

	_, err = tx.Exec(ctx, `
		UPDATE provider_orders
		SET status = $1, updated_at = NOW()
		WHERE order_id = $2
	`, StatusCancelled, orderID)
	if err != nil {
		return fmt.Errorf("failed to cancel sub-orders: %w", err)
	}

	return tx.Commit(ctx)
}

// UpdateProviderOrderStatus sets the status of one sub-order.
func (s *Service) UpdateProviderOrderStatus(ctx context.Context, providerOrderID uuid.UUID, status Status) error {
	if !status.IsValid() {
		return fmt.Errorf("invalid status %q", status)
	}

	tag, err := s.pool.Exec(ctx, `
		UPDATE provider_orders
		SET status = $1, updated_at = NOW()
		WHERE id = $2
	`, status, providerOrderID)
	if err != nil {
		return fmt.Errorf("failed to update sub-order status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// GetWithDetails loads an order with its sub-orders, line items, and the
// provider contact emails needed for notifications.
func (s *Service) GetWithDetails(ctx context.Context, orderID uuid.UUID) (*Order, error) {
	var order Order
	err := s.pool.QueryRow(ctx, `
		SELECT id, customer_id, customer_email, status, subtotal, commission_total,
		       total, payment_status, transaction_id, shipping_address, shipping_notes,
		       created_at, updated_at
		FROM orders
		WHERE id = $1
	`, orderID).Scan(orderScanTargets(&order)...)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get order: %w", err)
	}

	rows, err := s.pool.Query(ctx, `
		SELECT po.id, po.order_id, po.provider_id, p.email, po.status,
		       po.subtotal, po.commission, po.provider_revenue, po.created_at, po.updated_at
		FROM provider_orders po
		JOIN providers p ON p.id = po.provider_id
		WHERE po.order_id = $1
		ORDER BY po.created_at ASC
	`, orderID)
	if err != nil {
		return nil, fmt.Errorf("failed to query sub-orders: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var po ProviderOrder
		if err := rows.Scan(&po.ID, &po.OrderID, &po.ProviderID, &po.ProviderEmail, &po.Status,
			&po.Subtotal, &po.Commission, &po.ProviderRevenue, &po.CreatedAt, &po.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan sub-order: %w", err)
		}
		order.ProviderOrders = append(order.ProviderOrders, po)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating sub-orders: %w", err)
	}

	for i := range order.ProviderOrders {
		po := &order.ProviderOrders[i]
		itemRows, err := s.pool.Query(ctx, `
			SELECT id, provider_order_id, name, category, quantity, unit_price
			FROM order_items
			WHERE provider_order_id = $1
			ORDER BY created_at ASC
		`, po.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to query order items: %w", err)
		}
		for itemRows.Next() {
			var oi OrderItem
			if err := itemRows.Scan(&oi.ID, &oi.ProviderOrderID, &oi.Name, &oi.Category, &oi.Quantity, &oi.UnitPrice); err != nil {
				itemRows.Close()
				return nil, fmt.Errorf("failed to scan order item: %w", err)
			}
			po.Items = append(po.Items, oi)
		}
		if err := itemRows.Err(); err != nil {
			itemRows.Close()
			return nil, fmt.Errorf("error iterating order items: %w", err)
		}
		itemRows.Close()
	}

	return &order, nil
}

func (s *Service) exists(ctx context.Context, orderID uuid.UUID) (bool, error) {
	var exists bool
	err := s.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM orders WHERE id = $1)`, orderID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check order existence: %w", err)
	}
	return exists, nil
}

// orderScanTargets returns scan destinations for the orders column list.
func orderScanTargets(o *Order) []any {
	return []any{
		&o.ID,
		&o.CustomerID,
		&o.CustomerEmail,
		&o.Status,
		&o.Subtotal,
		&o.CommissionTotal,
		&o.Total,
		&o.PaymentStatus,
		&o.TransactionID,
		&o.ShippingAddress,
		&o.ShippingNotes,
		&o.CreatedAt,
		&o.UpdatedAt,
	}
}
