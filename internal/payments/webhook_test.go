package payments

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/santurist/santurist/internal/mercadopago"
)

func signManifest(dataID, requestID, ts, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	fmt.Fprintf(mac, "id:%s;request-id:%s;ts:%s;", dataID, requestID, ts)
	return hex.EncodeToString(mac.Sum(nil))
}

func newTestReconciler(gateway Gateway) *Reconciler {
	return NewReconciler(gateway, &fakeOrderStore{}, &fakeBookingStore{}, newFakeEarnings(), &fakeNotifier{})
}

func TestWebhookGetIsLivenessCheck(t *testing.T) {
	handler := HandleWebhook(newTestReconciler(&fakeGateway{}), "")

	req := httptest.NewRequest(http.MethodGet, "/api/v1/payments/webhook", nil)
	rec := httptest.NewRecorder()
	handler(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
}

func TestWebhookIgnoresNonPaymentNotifications(t *testing.T) {
	handler := HandleWebhook(newTestReconciler(&fakeGateway{}), "")

	body := `{"type":"merchant_order","action":"created","data":{"id":"555"}}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/payments/webhook", strings.NewReader(body))
	rec := httptest.NewRecorder()
	handler(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
}

func TestWebhookMissingPaymentIDIsBadRequest(t *testing.T) {
	handler := HandleWebhook(newTestReconciler(&fakeGateway{}), "")

	body := `{"type":"payment","action":"payment.updated","data":{}}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/payments/webhook", strings.NewReader(body))
	rec := httptest.NewRecorder()
	handler(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestWebhookGatewayFailureIsServerError(t *testing.T) {
	handler := HandleWebhook(newTestReconciler(&fakeGateway{err: errors.New("timeout")}), "")

	body := `{"type":"payment","action":"payment.updated","data":{"id":"42"}}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/payments/webhook", strings.NewReader(body))
	rec := httptest.NewRecorder()
	handler(rec, req)

	require.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestWebhookDownstreamFailureStillAcknowledged(t *testing.T) {
	// A tour payment whose booking store would not matter here: the payment
	// references an order that does not exist, which is a downstream fault.
	gateway := &fakeGateway{payments: map[string]*mercadopago.Payment{
		"42": approvedPayment(42, uuid.New().String(), "marketplace"),
	}}
	handler := HandleWebhook(newTestReconciler(gateway), "")

	body := `{"type":"payment","action":"payment.updated","data":{"id":"42"}}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/payments/webhook", strings.NewReader(body))
	rec := httptest.NewRecorder()
	handler(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
}

func TestWebhookRejectsBadSignature(t *testing.T) {
	handler := HandleWebhook(newTestReconciler(&fakeGateway{}), "topsecret")

	body := `{"type":"payment","action":"payment.updated","data":{"id":"42"}}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/payments/webhook", strings.NewReader(body))
	req.Header.Set("x-signature", "ts=1700000000,v1=deadbeef")
	req.Header.Set("x-request-id", "req-1")
	rec := httptest.NewRecorder()
	handler(rec, req)

	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestWebhookAcceptsValidSignature(t *testing.T) {
	gateway := &fakeGateway{payments: map[string]*mercadopago.Payment{
		"42": approvedPayment(42, uuid.New().String(), "spa"),
	}}
	handler := HandleWebhook(newTestReconciler(gateway), "topsecret")

	sig := signManifest("42", "req-1", "1700000000", "topsecret")
	body := `{"type":"payment","action":"payment.updated","data":{"id":"42"}}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/payments/webhook", strings.NewReader(body))
	req.Header.Set("x-signature", "ts=1700000000,v1="+sig)
	req.Header.Set("x-request-id", "req-1")
	rec := httptest.NewRecorder()
	handler(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
}
