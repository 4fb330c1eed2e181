package payments

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/santurist/santurist/internal/bookings"
	"github.com/santurist/santurist/internal/mercadopago"
	"github.com/santurist/santurist/internal/orders"
)

type fakeGateway struct {
	payments map[string]*mercadopago.Payment
	err      error
}

func (f *fakeGateway) GetPayment(_ context.Context, paymentID string) (*mercadopago.Payment, error) {
	if f.err != nil {
		return nil, f.err
	}
	p, ok := f.payments[paymentID]
	if !ok {
		return nil, errors.New("payment not found")
	}
	return p, nil
}

type fakeOrderStore struct {
	order        *orders.Order
	confirmCalls int
	cancelCalls  int
	cancelErr    error
}

func (f *fakeOrderStore) ConfirmPayment(_ context.Context, orderID uuid.UUID, transactionID string) (*orders.Order, bool, error) {
	if f.order == nil || f.order.ID != orderID {
		return nil, false, orders.ErrNotFound
	}
	f.confirmCalls++
	first := f.order.Status != orders.StatusConfirmed
	f.order.Status = orders.StatusConfirmed
	f.order.TransactionID = &transactionID
	return f.order, first, nil
}

func (f *fakeOrderStore) Cancel(_ context.Context, orderID uuid.UUID) error {
	if f.order == nil || f.order.ID != orderID {
		return orders.ErrNotFound
	}
	f.cancelCalls++
	if f.cancelErr != nil {
		return f.cancelErr
	}
	f.order.Status = orders.StatusCancelled
	return nil
}

type tourCall struct {
	id     uuid.UUID
	status bookings.TourPaymentStatus
}

type deliveryCall struct {
	id     uuid.UUID
	status bookings.DeliveryPaymentStatus
}

type fakeBookingStore struct {
	tourCalls     []tourCall
	deliveryCalls []deliveryCall
}

func (f *fakeBookingStore) UpdateTourPaymentStatus(_ context.Context, id uuid.UUID, status bookings.TourPaymentStatus, _ string) error {
	f.tourCalls = append(f.tourCalls, tourCall{id: id, status: status})
	return nil
}

func (f *fakeBookingStore) UpdateDeliveryPaymentStatus(_ context.Context, id uuid.UUID, status bookings.DeliveryPaymentStatus, _ string) error {
	f.deliveryCalls = append(f.deliveryCalls, deliveryCall{id: id, status: status})
	return nil
}

type fakeEarnings struct {
	credited map[string]bool
	failFor  map[uuid.UUID]error
}

func newFakeEarnings() *fakeEarnings {
	return &fakeEarnings{credited: map[string]bool{}, failFor: map[uuid.UUID]error{}}
}

func (f *fakeEarnings) RecordTransaction(_ context.Context, providerID, orderID uuid.UUID, _, _ int64) (bool, error) {
	if err := f.failFor[providerID]; err != nil {
		return false, err
	}
	key := providerID.String() + "/" + orderID.String()
	if f.credited[key] {
		return false, nil
	}
	f.credited[key] = true
	return true, nil
}

type fakeNotifier struct {
	customerEmails []string
	providerEmails []string
}

func (f *fakeNotifier) SendOrderConfirmation(_ context.Context, to, _ string, _ int64) {
	f.customerEmails = append(f.customerEmails, to)
}

func (f *fakeNotifier) SendProviderOrderNotice(_ context.Context, to, _ string, _ int64) {
	f.providerEmails = append(f.providerEmails, to)
}

func approvedPayment(paymentID int64, ref, category string) *mercadopago.Payment {
	return &mercadopago.Payment{
		ID:                paymentID,
		Status:            mercadopago.StatusApproved,
		ExternalReference: ref,
		Metadata:          mercadopago.PaymentMetadata{Category: category},
	}
}

func strPtr(s string) *string { return &s }

func testOrder(orderID uuid.UUID) *orders.Order {
	providerA := uuid.New()
	providerB := uuid.New()
	return &orders.Order{
		ID:            orderID,
		CustomerEmail: "cliente@example.com",
		Status:        orders.StatusPending,
		Total:         50000,
		ProviderOrders: []orders.ProviderOrder{
			{ProviderID: providerA, ProviderEmail: strPtr("tours@example.com"), Subtotal: 30000, Commission: 3600, ProviderRevenue: 26400},
			{ProviderID: providerB, ProviderEmail: strPtr("hostal@example.com"), Subtotal: 20000, Commission: 3000, ProviderRevenue: 17000},
		},
	}
}

func TestReconcileTourPayment(t *testing.T) {
	bookingID := uuid.New()
	gateway := &fakeGateway{payments: map[string]*mercadopago.Payment{
		"101": approvedPayment(101, bookingID.String(), "tour"),
	}}
	bookingStore := &fakeBookingStore{}

	r := NewReconciler(gateway, &fakeOrderStore{}, bookingStore, newFakeEarnings(), &fakeNotifier{})
	require.NoError(t, r.Reconcile(context.Background(), "101"))

	require.Len(t, bookingStore.tourCalls, 1)
	require.Equal(t, bookingID, bookingStore.tourCalls[0].id)
	require.Equal(t, bookings.TourPaymentPaid, bookingStore.tourCalls[0].status)
}

func TestReconcileDeliveryRejection(t *testing.T) {
	deliveryID := uuid.New()
	payment := approvedPayment(102, deliveryID.String(), "delivery")
	payment.Status = mercadopago.StatusRejected
	gateway := &fakeGateway{payments: map[string]*mercadopago.Payment{"102": payment}}
	bookingStore := &fakeBookingStore{}

	r := NewReconciler(gateway, &fakeOrderStore{}, bookingStore, newFakeEarnings(), &fakeNotifier{})
	require.NoError(t, r.Reconcile(context.Background(), "102"))

	require.Len(t, bookingStore.deliveryCalls, 1)
	require.Equal(t, bookings.DeliveryPaymentRejected, bookingStore.deliveryCalls[0].status)
}

func TestReconcileApprovedOrderConfirmsAndNotifies(t *testing.T) {
	orderID := uuid.New()
	orderStore := &fakeOrderStore{order: testOrder(orderID)}
	gateway := &fakeGateway{payments: map[string]*mercadopago.Payment{
		"201": approvedPayment(201, orderID.String(), "marketplace"),
	}}
	earnings := newFakeEarnings()
	notifier := &fakeNotifier{}

	r := NewReconciler(gateway, orderStore, &fakeBookingStore{}, earnings, notifier)
	require.NoError(t, r.Reconcile(context.Background(), "201"))

	require.Equal(t, orders.StatusConfirmed, orderStore.order.Status)
	require.Len(t, earnings.credited, 2)
	require.Equal(t, []string{"cliente@example.com"}, notifier.customerEmails)
	require.ElementsMatch(t, []string{"tours@example.com", "hostal@example.com"}, notifier.providerEmails)
}

func TestReconcileRedeliveryIsIdempotent(t *testing.T) {
	orderID := uuid.New()
	orderStore := &fakeOrderStore{order: testOrder(orderID)}
	gateway := &fakeGateway{payments: map[string]*mercadopago.Payment{
		"202": approvedPayment(202, orderID.String(), "stay"),
	}}
	earnings := newFakeEarnings()
	notifier := &fakeNotifier{}

	r := NewReconciler(gateway, orderStore, &fakeBookingStore{}, earnings, notifier)
	require.NoError(t, r.Reconcile(context.Background(), "202"))
	require.NoError(t, r.Reconcile(context.Background(), "202"))
	require.NoError(t, r.Reconcile(context.Background(), "202"))

	require.Len(t, earnings.credited, 2, "earnings must not be double counted")
	require.Len(t, notifier.customerEmails, 1, "customer email must fire once")
	require.Len(t, notifier.providerEmails, 2, "provider emails must fire once each")
}

func TestReconcileProviderFailureIsolation(t *testing.T) {
	orderID := uuid.New()
	order := testOrder(orderID)
	orderStore := &fakeOrderStore{order: order}
	gateway := &fakeGateway{payments: map[string]*mercadopago.Payment{
		"203": approvedPayment(203, orderID.String(), "service"),
	}}
	earnings := newFakeEarnings()
	earnings.failFor[order.ProviderOrders[0].ProviderID] = errors.New("store down")
	notifier := &fakeNotifier{}

	r := NewReconciler(gateway, orderStore, &fakeBookingStore{}, earnings, notifier)
	require.NoError(t, r.Reconcile(context.Background(), "203"))

	// The second provider is still credited and notified, and the customer
	// confirmation still goes out.
	require.Equal(t, []string{"hostal@example.com"}, notifier.providerEmails)
	require.Equal(t, []string{"cliente@example.com"}, notifier.customerEmails)
}

func TestReconcileRejectedOrderCancels(t *testing.T) {
	orderID := uuid.New()
	orderStore := &fakeOrderStore{order: testOrder(orderID)}
	payment := approvedPayment(204, orderID.String(), "marketplace")
	payment.Status = mercadopago.StatusCancelled
	gateway := &fakeGateway{payments: map[string]*mercadopago.Payment{"204": payment}}

	r := NewReconciler(gateway, orderStore, &fakeBookingStore{}, newFakeEarnings(), &fakeNotifier{})
	require.NoError(t, r.Reconcile(context.Background(), "204"))
	require.Equal(t, orders.StatusCancelled, orderStore.order.Status)

	// Cancelling again reports already-cancelled internally; still swallowed.
	orderStore.cancelErr = orders.ErrAlreadyCancelled
	require.NoError(t, r.Reconcile(context.Background(), "204"))
}

func TestReconcileGatewayFailureSurfaces(t *testing.T) {
	gateway := &fakeGateway{err: errors.New("timeout")}

	r := NewReconciler(gateway, &fakeOrderStore{}, &fakeBookingStore{}, newFakeEarnings(), &fakeNotifier{})
	err := r.Reconcile(context.Background(), "301")
	require.ErrorIs(t, err, ErrGatewayFetch)
}

func TestReconcileMissingReferenceIsSwallowed(t *testing.T) {
	gateway := &fakeGateway{payments: map[string]*mercadopago.Payment{
		"302": {ID: 302, Status: mercadopago.StatusApproved, Metadata: mercadopago.PaymentMetadata{Category: "tour"}},
	}}
	bookingStore := &fakeBookingStore{}

	r := NewReconciler(gateway, &fakeOrderStore{}, bookingStore, newFakeEarnings(), &fakeNotifier{})
	require.NoError(t, r.Reconcile(context.Background(), "302"))
	require.Empty(t, bookingStore.tourCalls)
}

func TestReconcileUnknownCategoryIsNoOp(t *testing.T) {
	gateway := &fakeGateway{payments: map[string]*mercadopago.Payment{
		"303": approvedPayment(303, uuid.New().String(), "spa"),
	}}
	orderStore := &fakeOrderStore{}
	bookingStore := &fakeBookingStore{}

	r := NewReconciler(gateway, orderStore, bookingStore, newFakeEarnings(), &fakeNotifier{})
	require.NoError(t, r.Reconcile(context.Background(), "303"))
	require.Zero(t, orderStore.confirmCalls)
	require.Empty(t, bookingStore.tourCalls)
	require.Empty(t, bookingStore.deliveryCalls)
}

func TestStatusMapping(t *testing.T) {
	require.Equal(t, bookings.TourPaymentPaid, TourStatusFor(mercadopago.StatusApproved))
	require.Equal(t, bookings.TourPaymentRefunded, TourStatusFor(mercadopago.StatusRejected))
	require.Equal(t, bookings.TourPaymentRefunded, TourStatusFor(mercadopago.StatusCancelled))
	require.Equal(t, bookings.TourPaymentPending, TourStatusFor("in_process"))

	require.Equal(t, bookings.DeliveryPaymentApproved, DeliveryStatusFor(mercadopago.StatusApproved))
	require.Equal(t, bookings.DeliveryPaymentRejected, DeliveryStatusFor(mercadopago.StatusRejected))
	require.Equal(t, bookings.DeliveryPaymentRejected, DeliveryStatusFor(mercadopago.StatusCancelled))
	require.Equal(t, bookings.DeliveryPaymentPending, DeliveryStatusFor("in_process"))
}
