package payments

import (
	"github.com/santurist/santurist/internal/bookings"
	"github.com/santurist/santurist/internal/mercadopago"
)

// TourStatusFor maps a gateway payment status onto the tour booking
// vocabulary. Anything the gateway has not settled stays pending.
func TourStatusFor(gatewayStatus string) bookings.TourPaymentStatus {
	switch gatewayStatus {
	case mercadopago.StatusApproved:
		return bookings.TourPaymentPaid
	case mercadopago.StatusRejected, mercadopago.StatusCancelled:
		return bookings.TourPaymentRefunded
	default:
		return bookings.TourPaymentPending
	}
}

// DeliveryStatusFor maps a gateway payment status onto the delivery order
// vocabulary.
func DeliveryStatusFor(gatewayStatus string) bookings.DeliveryPaymentStatus {
	switch gatewayStatus {
	case mercadopago.StatusApproved:
		return bookings.DeliveryPaymentApproved
	case mercadopago.StatusRejected, mercadopago.StatusCancelled:
		return bookings.DeliveryPaymentRejected
	default:
		return bookings.DeliveryPaymentPending
	}
}
