package payments

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog/log"
	"github.com/santurist/santurist/internal/apperrors"
	"github.com/santurist/santurist/internal/mercadopago"
)

// Notification is the body Mercado Pago posts to the webhook endpoint.
type Notification struct {
	Type   string `json:"type"`
	Action string `json:"action"`
	Data   struct {
		ID string `json:"id"`
	} `json:"data"`
}

// HandleWebhook handles Mercado Pago notifications on /api/v1/payments/webhook.
//
// Response contract: 200 for everything the gateway should not redeliver,
// including application-side failures after a successful payment fetch; 400
// only for a payload missing the payment ID; 500 only when the gateway fetch
// itself fails. A bare GET answers 200 as a liveness check, which Mercado
// Pago issues when the webhook URL is registered.
func HandleWebhook(reconciler *Reconciler, webhookSecret string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		if r.Method == http.MethodGet {
			apperrors.WriteSuccess(w, r, http.StatusOK, map[string]any{"status": "ok"})
			return
		}

		var n Notification
		if err := json.NewDecoder(r.Body).Decode(&n); err != nil {
			apperrors.WriteBadRequest(w, r, "Invalid notification body")
			return
		}

		if n.Type != "payment" {
			log.Debug().
				Str("type", n.Type).
				Str("action", n.Action).
				Msg("Ignoring non-payment notification")
			apperrors.WriteSuccess(w, r, http.StatusOK, map[string]any{"ignored": true})
			return
		}

		if n.Data.ID == "" {
			apperrors.WriteBadRequest(w, r, "Notification is missing payment ID")
			return
		}

		if webhookSecret != "" {
			err := mercadopago.VerifyWebhookSignature(
				r.Header.Get("x-signature"),
				r.Header.Get("x-request-id"),
				n.Data.ID,
				webhookSecret,
			)
			if err != nil {
				log.Warn().
					Err(err).
					Str("payment_id", n.Data.ID).
					Msg("Webhook signature verification failed")
				apperrors.WriteUnauthorized(w, r, "Invalid webhook signature")
				return
			}
		}

		if err := reconciler.Reconcile(ctx, n.Data.ID); err != nil {
			if errors.Is(err, ErrGatewayFetch) {
				log.Error().
					Err(err).
					Str("payment_id", n.Data.ID).
					Msg("Gateway fetch failed, asking for redelivery")
				apperrors.WriteInternalError(w, r, "Failed to fetch payment")
				return
			}
			log.Error().
				Err(err).
				Str("payment_id", n.Data.ID).
				Msg("Unexpected reconcile error")
		}

		apperrors.WriteSuccess(w, r, http.StatusOK, map[string]any{"received": true})
	}
}
