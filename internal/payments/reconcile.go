package payments

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/santurist/santurist/internal/bookings"
	"github.com/santurist/santurist/internal/mercadopago"
	"github.com/santurist/santurist/internal/orders"
)

// ErrGatewayFetch wraps failures to read the payment back from the gateway.
// It is the only error Reconcile surfaces to the webhook layer; everything
// downstream of a successful fetch is logged and swallowed so the gateway is
// not asked to redeliver for an application-side fault.
var ErrGatewayFetch = errors.New("failed to fetch payment from gateway")

// Gateway reads a payment's current state by ID.
type Gateway interface {
	GetPayment(ctx context.Context, paymentID string) (*mercadopago.Payment, error)
}

// OrderStore applies payment outcomes to marketplace orders.
type OrderStore interface {
	ConfirmPayment(ctx context.Context, orderID uuid.UUID, transactionID string) (*orders.Order, bool, error)
	Cancel(ctx context.Context, orderID uuid.UUID) error
}

// BookingStore applies payment outcomes to tour bookings and delivery orders.
type BookingStore interface {
	UpdateTourPaymentStatus(ctx context.Context, bookingID uuid.UUID, status bookings.TourPaymentStatus, transactionID string) error
	UpdateDeliveryPaymentStatus(ctx context.Context, deliveryID uuid.UUID, status bookings.DeliveryPaymentStatus, transactionID string) error
}

// EarningsStore credits confirmed sub-orders to providers.
type EarningsStore interface {
	RecordTransaction(ctx context.Context, providerID, orderID uuid.UUID, amount, commission int64) (bool, error)
}

// Notifier sends the post-confirmation emails. Sends are fire-and-forget.
type Notifier interface {
	SendOrderConfirmation(ctx context.Context, to, orderID string, total int64)
	SendProviderOrderNotice(ctx context.Context, to, orderID string, revenue int64)
}

// Reconciler converts gateway payment notifications into internal order and
// booking state. It is built on narrow store interfaces so the dispatch and
// idempotence logic can be tested against in-memory fakes.
type Reconciler struct {
	gateway  Gateway
	orders   OrderStore
	bookings BookingStore
	earnings EarningsStore
	notifier Notifier
}

// NewReconciler wires a reconciler from its dependencies.
func NewReconciler(gateway Gateway, orderStore OrderStore, bookingStore BookingStore, earningsStore EarningsStore, notifier Notifier) *Reconciler {
	return &Reconciler{
		gateway:  gateway,
		orders:   orderStore,
		bookings: bookingStore,
		earnings: earningsStore,
		notifier: notifier,
	}
}

// Reconcile fetches the payment and applies its status to the referenced
// aggregate. Repeated delivery of the same notification is safe: the
// underlying stores key every transition on current state, and emails only
// fire on the first confirming transition.
func (r *Reconciler) Reconcile(ctx context.Context, paymentID string) error {
	payment, err := r.gateway.GetPayment(ctx, paymentID)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrGatewayFetch, err)
	}

	if payment.ExternalReference == "" {
		log.Warn().
			Str("payment_id", paymentID).
			Msg("Payment has no external reference, nothing to reconcile")
		return nil
	}

	refID, err := uuid.Parse(payment.ExternalReference)
	if err != nil {
		log.Warn().
			Str("payment_id", paymentID).
			Str("external_reference", payment.ExternalReference).
			Msg("Payment external reference is not a valid ID")
		return nil
	}

	transactionID := strconv.FormatInt(payment.ID, 10)
	category := Category(payment.Metadata.Category)

	var applyErr error
	switch category {
	case CategoryTour:
		applyErr = r.bookings.UpdateTourPaymentStatus(ctx, refID, TourStatusFor(payment.Status), transactionID)
	case CategoryDelivery:
		applyErr = r.bookings.UpdateDeliveryPaymentStatus(ctx, refID, DeliveryStatusFor(payment.Status), transactionID)
	case CategoryMarketplace, CategoryStay, CategoryService:
		applyErr = r.reconcileOrder(ctx, refID, transactionID, payment.Status)
	default:
		log.Warn().
			Str("payment_id", paymentID).
			Str("category", payment.Metadata.Category).
			Msg("Unknown payment category, ignoring")
		return nil
	}

	if applyErr != nil {
		// Acknowledged to the gateway regardless; a redelivery would hit the
		// same application fault.
		log.Error().
			Err(applyErr).
			Str("payment_id", paymentID).
			Str("category", string(category)).
			Str("reference", refID.String()).
			Msg("Failed to apply payment status")
		return nil
	}

	log.Info().
		Str("payment_id", paymentID).
		Str("category", string(category)).
		Str("reference", refID.String()).
		Str("gateway_status", payment.Status).
		Msg("Payment reconciled")
	return nil
}

func (r *Reconciler) reconcileOrder(ctx context.Context, orderID uuid.UUID, transactionID, gatewayStatus string) error {
	switch gatewayStatus {
	case mercadopago.StatusApproved:
		order, confirmed, err := r.orders.ConfirmPayment(ctx, orderID, transactionID)
		if err != nil {
			return err
		}
		if !confirmed {
			// Redelivered notification for an already-confirmed order.
			return nil
		}
		r.creditAndNotify(ctx, order)
		return nil

	case mercadopago.StatusRejected, mercadopago.StatusCancelled:
		err := r.orders.Cancel(ctx, orderID)
		if errors.Is(err, orders.ErrAlreadyCancelled) {
			return nil
		}
		return err

	default:
		// Payment still pending at the gateway; nothing to change yet.
		return nil
	}
}

// creditAndNotify records provider earnings and sends the confirmation
// emails. Runs only on the first confirming transition. Each provider is
// handled independently so one failure cannot starve the rest.
func (r *Reconciler) creditAndNotify(ctx context.Context, order *orders.Order) {
	for _, po := range order.ProviderOrders {
		credited, err := r.earnings.RecordTransaction(ctx, po.ProviderID, order.ID, po.Subtotal, po.Commission)
		if err != nil {
			log.Error().
				Err(err).
				Str("order_id", order.ID.String()).
				Str("provider_id", po.ProviderID.String()).
				Msg("Failed to credit provider earnings")
			continue
		}
		if !credited {
			continue
		}
		if po.ProviderEmail != nil && *po.ProviderEmail != "" {
			r.notifier.SendProviderOrderNotice(ctx, *po.ProviderEmail, order.ID.String(), po.ProviderRevenue)
		}
	}

	r.notifier.SendOrderConfirmation(ctx, order.CustomerEmail, order.ID.String(), order.Total)
}
