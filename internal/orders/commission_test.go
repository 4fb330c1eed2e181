package orders

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCommissionRate(t *testing.T) {
	require.Equal(t, int64(12), CommissionRate("tour"))
	require.Equal(t, int64(10), CommissionRate("delivery"))
	require.Equal(t, int64(15), CommissionRate("stay"))
	require.Equal(t, int64(10), CommissionRate("service"))
	require.Equal(t, int64(10), CommissionRate("marketplace"))
	require.Equal(t, int64(10), CommissionRate("unknown"))
}

func TestItemCommission(t *testing.T) {
	// 2 x 15000 CLP tour at 12% = 3600
	require.Equal(t, int64(3600), ItemCommission("tour", 2, 15000))

	// 1 x 8500 delivery at 10% = 850
	require.Equal(t, int64(850), ItemCommission("delivery", 1, 8500))

	// rounds down: 3 x 333 at 15% = 999 * 15 / 100 = 149
	require.Equal(t, int64(149), ItemCommission("stay", 3, 333))

	require.Equal(t, int64(0), ItemCommission("tour", 0, 15000))
}

func TestCommissionPlusRevenueEqualsSubtotal(t *testing.T) {
	cases := []struct {
		category  string
		quantity  int
		unitPrice int64
	}{
		{"tour", 2, 45000},
		{"delivery", 3, 4990},
		{"stay", 1, 85000},
		{"service", 5, 12345},
		{"marketplace", 7, 999},
		{"tour", 1, 1},
	}

	for _, tc := range cases {
		subtotal := int64(tc.quantity) * tc.unitPrice
		commission := ItemCommission(tc.category, tc.quantity, tc.unitPrice)
		revenue := subtotal - commission

		require.GreaterOrEqual(t, commission, int64(0))
		require.LessOrEqual(t, commission, subtotal)
		require.Equal(t, subtotal, revenue+commission,
			"category %s qty %d price %d", tc.category, tc.quantity, tc.unitPrice)
	}
}
