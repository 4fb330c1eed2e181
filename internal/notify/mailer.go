package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"
)

// Mailer sends transactional emails through the mail provider's HTTP API.
//
// All Send methods are fire-and-forget: failures are logged at WARN level and
// never returned to the caller, so a mail outage cannot abort order
// confirmation or the onboarding sweep.
type Mailer struct {
	httpClient *http.Client
	apiURL     string
	apiKey     string
	from       string
}

// NewMailer creates a new mail client with the specified timeout
func NewMailer(apiURL, apiKey, from string, timeoutMS int) *Mailer {
	return &Mailer{
		httpClient: &http.Client{
			Timeout: time.Duration(timeoutMS) * time.Millisecond,
		},
		apiURL: apiURL,
		apiKey: apiKey,
		from:   from,
	}
}

// mailPayload represents the JSON payload sent to the mail API
type mailPayload struct {
	From     string `json:"from"`
	To       string `json:"to"`
	Subject  string `json:"subject"`
	Template string `json:"template"`
	Data     any    `json:"data,omitempty"`
}

// SendInvitation notifies a prospective provider that an invitation code was issued for them.
func (m *Mailer) SendInvitation(ctx context.Context, to, recipientName, businessName, code, customMessage string) {
	m.send(ctx, mailPayload{
		From:     m.from,
		To:       to,
		Subject:  "Tu invitación a Santurist",
		Template: "invitation",
		Data: map[string]string{
			"recipient_name": recipientName,
			"business_name":  businessName,
			"code":           code,
			"custom_message": customMessage,
		},
	})
}

// SendOrderConfirmation notifies a customer that their payment was approved.
func (m *Mailer) SendOrderConfirmation(ctx context.Context, to, orderID string, total int64) {
	m.send(ctx, mailPayload{
		From:     m.from,
		To:       to,
		Subject:  "Confirmación de tu pedido",
		Template: "order_confirmation",
		Data: map[string]any{
			"order_id": orderID,
			"total":    total,
		},
	})
}

// SendProviderOrderNotice notifies a provider about a newly confirmed sub-order.
func (m *Mailer) SendProviderOrderNotice(ctx context.Context, to, orderID string, revenue int64) {
	m.send(ctx, mailPayload{
		From:     m.from,
		To:       to,
		Subject:  "Nuevo pedido confirmado",
		Template: "provider_order",
		Data: map[string]any{
			"order_id": orderID,
			"revenue":  revenue,
		},
	})
}

// SendOnboardingReminder reminds a user that their registration window is closing.
func (m *Mailer) SendOnboardingReminder(ctx context.Context, to string, daysRemaining int) {
	m.send(ctx, mailPayload{
		From:     m.from,
		To:       to,
		Subject:  fmt.Sprintf("Te quedan %d días para completar tu registro", daysRemaining),
		Template: "onboarding_reminder",
		Data: map[string]int{
			"days_remaining": daysRemaining,
		},
	})
}

// SendOnboardingExpired notifies a user that their registration window has closed.
func (m *Mailer) SendOnboardingExpired(ctx context.Context, to string) {
	m.send(ctx, mailPayload{
		From:     m.from,
		To:       to,
		Subject:  "Tu registro en Santurist ha expirado",
		Template: "onboarding_expired",
	})
}

func (m *Mailer) send(ctx context.Context, payload mailPayload) {
	jsonData, err := json.Marshal(payload)
	if err != nil {
		log.Warn().
			Err(err).
			Str("template", payload.Template).
			Msg("Failed to marshal mail payload")
		return
	}

	req, err := http.NewRequestWithContext(ctx, "POST", m.apiURL, bytes.NewBuffer(jsonData))
	if err != nil {
		log.Warn().
			Err(err).
			Str("template", payload.Template).
			Msg("Failed to create mail request")
		return
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+m.apiKey)

	resp, err := m.httpClient.Do(req)
	if err != nil {
		log.Warn().
			Err(err).
			Str("template", payload.Template).
			Str("to", payload.To).
			Msg("Failed to send mail")
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		log.Warn().
			Int("status_code", resp.StatusCode).
			Str("template", payload.Template).
			Str("to", payload.To).
			Msg("Mail API returned error status")
		return
	}

	log.Info().
		Str("template", payload.Template).
		Str("to", payload.To).
		Msg("Mail sent")
}
