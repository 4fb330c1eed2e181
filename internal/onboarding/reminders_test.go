package onboarding

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestDaysRemaining(t *testing.T) {
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)

	// Exactly 3 days out.
	require.Equal(t, 3, DaysRemaining(now.Add(72*time.Hour), now))

	// Partial days round up.
	require.Equal(t, 3, DaysRemaining(now.Add(50*time.Hour), now))
	require.Equal(t, 1, DaysRemaining(now.Add(2*time.Hour), now))

	// At or past expiry.
	require.Equal(t, 0, DaysRemaining(now, now))
	require.Equal(t, 0, DaysRemaining(now.Add(-time.Hour), now))
}

func TestShouldRemindThresholds(t *testing.T) {
	require.True(t, ShouldRemind(7, nil))
	require.True(t, ShouldRemind(3, nil))
	require.True(t, ShouldRemind(2, nil))
	require.True(t, ShouldRemind(1, nil))

	// Days outside the threshold set never remind.
	require.False(t, ShouldRemind(6, nil))
	require.False(t, ShouldRemind(5, nil))
	require.False(t, ShouldRemind(4, nil))
	require.False(t, ShouldRemind(0, nil))
}

func TestShouldRemindDedupesSameDay(t *testing.T) {
	three := 3
	require.False(t, ShouldRemind(3, &three), "re-running the sweep the same day must not refire")

	// A later threshold still fires.
	require.True(t, ShouldRemind(2, &three))

	seven := 7
	require.True(t, ShouldRemind(3, &seven))
}

func TestProgressState(t *testing.T) {
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)

	p := Progress{
		CompletedSteps: []string{"personal"},
		TotalSteps:     4,
		ExpiresAt:      now.Add(6 * 24 * time.Hour),
	}
	require.Equal(t, StateInProgress, p.State(now))

	p.ExpiresAt = now.Add(2 * 24 * time.Hour)
	require.Equal(t, StateExpiringSoon, p.State(now))

	p.ExpiresAt = now.Add(-time.Hour)
	require.Equal(t, StateExpired, p.State(now))

	p.CompletedSteps = []string{"personal", "business", "services", "review"}
	require.Equal(t, StateCompleted, p.State(now))
}
