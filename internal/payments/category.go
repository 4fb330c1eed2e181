package payments

// Category is the business vertical tag stamped into payment metadata when a
// checkout preference is created. It decides which aggregate a gateway
// notification updates.
type Category string

const (
	CategoryTour        Category = "tour"
	CategoryDelivery    Category = "delivery"
	CategoryMarketplace Category = "marketplace"
	CategoryStay        Category = "stay"
	CategoryService     Category = "service"
)

// IsKnown reports whether c is a recognized payment category.
func (c Category) IsKnown() bool {
	switch c {
	case CategoryTour, CategoryDelivery, CategoryMarketplace, CategoryStay, CategoryService:
		return true
	}
	return false
}

// IsOrderCategory reports whether c routes to the marketplace order flow
// rather than a standalone booking aggregate.
func (c Category) IsOrderCategory() bool {
	switch c {
	case CategoryMarketplace, CategoryStay, CategoryService:
		return true
	}
	return false
}
