package mercadopago

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// Payment statuses returned by the Mercado Pago API.
const (
	StatusApproved  = "approved"
	StatusPending   = "pending"
	StatusRejected  = "rejected"
	StatusCancelled = "cancelled"
)

// Payment holds the fields of a Mercado Pago payment the platform cares about.
type Payment struct {
	ID                int64           `json:"id"`
	Status            string          `json:"status"`
	ExternalReference string          `json:"external_reference"`
	TransactionAmount float64         `json:"transaction_amount"`
	Metadata          PaymentMetadata `json:"metadata"`
}

// PaymentMetadata carries the category tag set when the payment preference was created.
type PaymentMetadata struct {
	Category string `json:"category"`
}

// Client calls the Mercado Pago payments API.
type Client struct {
	httpClient  *http.Client
	baseURL     string
	accessToken string
}

// NewClient creates a new Mercado Pago API client
func NewClient(baseURL, accessToken string, timeoutMS int) *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout: time.Duration(timeoutMS) * time.Millisecond,
		},
		baseURL:     baseURL,
		accessToken: accessToken,
	}
}

// GetPayment fetches the current state of a payment by ID.
// Returns an error for network failures and non-2xx responses; the caller
// decides how to surface it.
func (c *Client) GetPayment(ctx context.Context, paymentID string) (*Payment, error) {
	url := fmt.Sprintf("%s/v1/payments/%s", c.baseURL, paymentID)

	req, err := http.NewRequestWithContext(ctx, "GET", url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create payment request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.accessToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch payment %s: %w", paymentID, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, fmt.Errorf("payment %s not found", paymentID)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("payment API returned status %d for payment %s", resp.StatusCode, paymentID)
	}

	var payment Payment
	if err := json.NewDecoder(resp.Body).Decode(&payment); err != nil {
		return nil, fmt.Errorf("failed to decode payment response: %w", err)
	}

	return &payment, nil
}
