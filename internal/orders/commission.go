package orders

// Commission rates by provider category, in percent of the line subtotal.
// Amounts are integer CLP; commissions round down.
const (
	DefaultCommissionPct = 10

	tourCommissionPct     = 12
	deliveryCommissionPct = 10
	stayCommissionPct     = 15
	serviceCommissionPct  = 10
)

// CommissionRate returns the commission percentage for a category.
// Unknown categories fall back to the default rate.
func CommissionRate(category string) int64 {
	switch category {
	case "tour":
		return tourCommissionPct
	case "delivery":
		return deliveryCommissionPct
	case "stay":
		return stayCommissionPct
	case "service":
		return serviceCommissionPct
	default:
		return DefaultCommissionPct
	}
}

// ItemCommission computes the platform commission for one line item.
func ItemCommission(category string, quantity int, unitPrice int64) int64 {
	subtotal := int64(quantity) * unitPrice
	return subtotal * CommissionRate(category) / 100
}
