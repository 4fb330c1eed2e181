package integration

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/require"

	"github.com/santurist/santurist/internal/auth"
	"github.com/santurist/santurist/internal/invitations"
	"github.com/santurist/santurist/internal/leads"
	"github.com/santurist/santurist/internal/providers"
)

func createTestAdmin(t *testing.T, pool *pgxpool.Pool) uuid.UUID {
	t.Helper()
	hash, err := auth.HashPassword("integration-test-pw")
	require.NoError(t, err)

	var id uuid.UUID
	err = pool.QueryRow(context.Background(), `
		INSERT INTO admins (email, password_hash)
		VALUES ($1, $2)
		RETURNING id
	`, uuid.NewString()+"@test.local", hash).Scan(&id)
	require.NoError(t, err)
	return id
}

func TestInvitationLifecycleRoundTrip(t *testing.T) {
	pool := testPool(t)
	ctx := context.Background()
	adminID := createTestAdmin(t, pool)

	providerSvc := providers.NewService(pool)
	mock, err := providerSvc.CreateMock(ctx, providers.CreateMockParams{
		BusinessName: "Tours Integración",
		Category:     "tour",
	})
	require.NoError(t, err)
	require.True(t, mock.IsMock)

	invSvc := invitations.NewService(pool)
	inv, err := invSvc.Create(ctx, invitations.CreateParams{
		RecipientName:  "José Núñez",
		BusinessName:   "Tours Integración",
		Category:       "tour",
		Email:          "jose@test.local",
		InviteType:     "direct",
		CreatedBy:      adminID,
		MockProviderID: &mock.ID,
	})
	require.NoError(t, err)
	require.Equal(t, invitations.StatusPending, inv.Status)

	// The mock provider back-reference is written in the same transaction.
	linked, err := providerSvc.GetByID(ctx, mock.ID)
	require.NoError(t, err)
	require.NotNil(t, linked.LinkedInvitationID)
	require.Equal(t, inv.ID, *linked.LinkedInvitationID)

	// The code validates and surfaces the linked mock provider.
	result, err := invSvc.Validate(ctx, inv.Code)
	require.NoError(t, err)
	require.True(t, result.Valid)
	require.NotNil(t, result.MockProvider)
	require.Equal(t, mock.ID, result.MockProvider.ID)

	// Claiming twice by the same user is a no-op, not an error.
	claimed, err := invSvc.Claim(ctx, inv.ID, "user-1")
	require.NoError(t, err)
	require.Equal(t, invitations.StatusClaimed, claimed.Status)

	again, err := invSvc.Claim(ctx, inv.ID, "user-1")
	require.NoError(t, err)
	require.Equal(t, invitations.StatusClaimed, again.Status)

	// A different user cannot take the same code.
	_, err = invSvc.Claim(ctx, inv.ID, "user-2")
	require.ErrorIs(t, err, invitations.ErrAlreadyClaimed)
}

func TestLeadSettlesThroughInvitationClaim(t *testing.T) {
	pool := testPool(t)
	ctx := context.Background()
	adminID := createTestAdmin(t, pool)

	email := "contacto@valle-luna.test"
	leadSvc := leads.NewService(pool)
	lead, err := leadSvc.Create(ctx, leads.CreateParams{
		Category:     "tour",
		BusinessName: "Excursiones Valle de la Luna",
		Email:        &email,
		Priority:     2,
	})
	require.NoError(t, err)
	require.Equal(t, leads.StatusNew, lead.Status)

	invSvc := invitations.NewService(pool)
	inv, err := invSvc.Create(ctx, invitations.CreateParams{
		RecipientName: "Carmen Rojas",
		BusinessName:  "Excursiones Valle de la Luna",
		Category:      "tour",
		Email:         email,
		InviteType:    "direct",
		CreatedBy:     adminID,
	})
	require.NoError(t, err)

	// Issuing the invitation from the CRM links the lead to it.
	require.NoError(t, leadSvc.MarkInvited(ctx, lead.ID, inv.ID))

	invited, err := leadSvc.GetByID(ctx, lead.ID)
	require.NoError(t, err)
	require.Equal(t, leads.StatusInvited, invited.Status)
	require.NotNil(t, invited.InvitationID)
	require.Equal(t, inv.ID, *invited.InvitationID)

	// Claiming the invitation settles the lead against the new provider.
	_, err = invSvc.Claim(ctx, inv.ID, "user-lead-1")
	require.NoError(t, err)

	providerSvc := providers.NewService(pool)
	provider, err := providerSvc.CreateMock(ctx, providers.CreateMockParams{
		BusinessName: "Excursiones Valle de la Luna",
		Category:     "tour",
	})
	require.NoError(t, err)

	require.NoError(t, leadSvc.MarkClaimedByInvitation(ctx, inv.ID, provider.ID))

	settled, err := leadSvc.GetByID(ctx, lead.ID)
	require.NoError(t, err)
	require.Equal(t, leads.StatusClaimed, settled.Status)
	require.NotNil(t, settled.ProviderID)
	require.Equal(t, provider.ID, *settled.ProviderID)

	// Settling an invitation no lead references touches nothing.
	require.NoError(t, leadSvc.MarkClaimedByInvitation(ctx, uuid.New(), provider.ID))
	unchanged, err := leadSvc.GetByID(ctx, lead.ID)
	require.NoError(t, err)
	require.Equal(t, leads.StatusClaimed, unchanged.Status)
}

func TestInvitationCancelClearsBackReference(t *testing.T) {
	pool := testPool(t)
	ctx := context.Background()
	adminID := createTestAdmin(t, pool)

	providerSvc := providers.NewService(pool)
	mock, err := providerSvc.CreateMock(ctx, providers.CreateMockParams{
		BusinessName: "Hostal Integración",
		Category:     "stay",
	})
	require.NoError(t, err)

	invSvc := invitations.NewService(pool)
	inv, err := invSvc.Create(ctx, invitations.CreateParams{
		RecipientName:  "Ana Silva",
		BusinessName:   "Hostal Integración",
		Category:       "stay",
		Email:          "ana@test.local",
		InviteType:     "direct",
		CreatedBy:      adminID,
		MockProviderID: &mock.ID,
	})
	require.NoError(t, err)

	require.NoError(t, invSvc.Cancel(ctx, inv.ID))

	got, err := invSvc.GetByID(ctx, inv.ID)
	require.NoError(t, err)
	require.Equal(t, invitations.StatusCancelled, got.Status)

	unlinked, err := providerSvc.GetByID(ctx, mock.ID)
	require.NoError(t, err)
	require.Nil(t, unlinked.LinkedInvitationID)
}
