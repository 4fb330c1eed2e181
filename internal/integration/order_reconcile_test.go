package integration

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/santurist/santurist/internal/earnings"
	"github.com/santurist/santurist/internal/orders"
	"github.com/santurist/santurist/internal/providers"
)

func TestOrderConfirmationIsIdempotent(t *testing.T) {
	pool := testPool(t)
	ctx := context.Background()

	email := "artesania@test.local"
	providerSvc := providers.NewService(pool)
	provider, err := providerSvc.CreateMock(ctx, providers.CreateMockParams{
		BusinessName: "Artesanías Integración",
		Category:     "marketplace",
		Email:        &email,
	})
	require.NoError(t, err)

	orderSvc := orders.NewService(pool)
	order, err := orderSvc.CreateFromCart(ctx, orders.CreateParams{
		CustomerID:    "customer-1",
		CustomerEmail: "cliente@test.local",
		Items: []orders.CartItem{
			{ProviderID: provider.ID, Name: "Poncho andino", Category: "marketplace", Quantity: 2, UnitPrice: 25000},
		},
	})
	require.NoError(t, err)
	require.Equal(t, int64(50000), order.Subtotal)
	require.Equal(t, int64(5000), order.CommissionTotal)
	require.Len(t, order.ProviderOrders, 1)
	require.Equal(t, int64(45000), order.ProviderOrders[0].ProviderRevenue)

	// First confirmation transitions the order.
	confirmedOrder, confirmed, err := orderSvc.ConfirmPayment(ctx, order.ID, "tx-123")
	require.NoError(t, err)
	require.True(t, confirmed)
	require.Equal(t, orders.StatusConfirmed, confirmedOrder.Status)

	// A redelivered confirmation is a safe no-op.
	_, confirmed, err = orderSvc.ConfirmPayment(ctx, order.ID, "tx-123")
	require.NoError(t, err)
	require.False(t, confirmed)

	// Earnings credit exactly once per (provider, order) pair.
	earnSvc := earnings.NewService(pool)
	credited, err := earnSvc.RecordTransaction(ctx, provider.ID, order.ID, 50000, 5000)
	require.NoError(t, err)
	require.True(t, credited)

	credited, err = earnSvc.RecordTransaction(ctx, provider.ID, order.ID, 50000, 5000)
	require.NoError(t, err)
	require.False(t, credited)

	summary, err := earnSvc.GetByProvider(ctx, provider.ID)
	require.NoError(t, err)
	require.Equal(t, int64(50000), summary.TotalRevenue)
	require.Equal(t, int64(5000), summary.TotalCommission)
	require.Equal(t, int64(45000), summary.TotalEarnings)
	require.Equal(t, int64(45000), summary.PendingPayout)
}

func TestConfirmAfterCancelIsIgnored(t *testing.T) {
	pool := testPool(t)
	ctx := context.Background()

	providerSvc := providers.NewService(pool)
	provider, err := providerSvc.CreateMock(ctx, providers.CreateMockParams{
		BusinessName: "Cerámica Integración",
		Category:     "marketplace",
	})
	require.NoError(t, err)

	orderSvc := orders.NewService(pool)
	order, err := orderSvc.CreateFromCart(ctx, orders.CreateParams{
		CustomerID:    "customer-3",
		CustomerEmail: "cliente3@test.local",
		Items: []orders.CartItem{
			{ProviderID: provider.ID, Name: "Vasija de greda", Category: "marketplace", Quantity: 1, UnitPrice: 15000},
		},
	})
	require.NoError(t, err)

	require.NoError(t, orderSvc.Cancel(ctx, order.ID))

	// An approved payment arriving after cancellation must not resurrect the order.
	got, confirmed, err := orderSvc.ConfirmPayment(ctx, order.ID, "tx-late")
	require.NoError(t, err)
	require.False(t, confirmed)
	require.Equal(t, orders.StatusCancelled, got.Status)
	require.Equal(t, orders.PaymentRefunded, got.PaymentStatus)
	for _, po := range got.ProviderOrders {
		require.Equal(t, orders.StatusCancelled, po.Status)
	}
}

func TestPayoutFlow(t *testing.T) {
	pool := testPool(t)
	ctx := context.Background()

	providerSvc := providers.NewService(pool)
	provider, err := providerSvc.CreateMock(ctx, providers.CreateMockParams{
		BusinessName: "Delivery Integración",
		Category:     "delivery",
	})
	require.NoError(t, err)

	orderSvc := orders.NewService(pool)
	order, err := orderSvc.CreateFromCart(ctx, orders.CreateParams{
		CustomerID:    "customer-2",
		CustomerEmail: "cliente2@test.local",
		Items: []orders.CartItem{
			{ProviderID: provider.ID, Name: "Reparto urgente", Category: "delivery", Quantity: 1, UnitPrice: 10000},
		},
	})
	require.NoError(t, err)

	earnSvc := earnings.NewService(pool)
	_, err = earnSvc.RecordTransaction(ctx, provider.ID, order.ID, 10000, 1000)
	require.NoError(t, err)

	// Cannot withdraw more than the pending balance.
	_, err = earnSvc.RequestPayout(ctx, provider.ID, 20000)
	require.ErrorIs(t, err, earnings.ErrInsufficientBalance)

	payout, err := earnSvc.RequestPayout(ctx, provider.ID, 9000)
	require.NoError(t, err)
	require.Equal(t, earnings.PayoutPending, payout.Status)

	require.NoError(t, earnSvc.ProcessPayout(ctx, payout.ID))
	require.ErrorIs(t, earnSvc.ProcessPayout(ctx, payout.ID), earnings.ErrPayoutNotPending)

	summary, err := earnSvc.GetByProvider(ctx, provider.ID)
	require.NoError(t, err)
	require.Equal(t, int64(9000), summary.PaidOut)
	require.Equal(t, int64(0), summary.PendingPayout)
}
