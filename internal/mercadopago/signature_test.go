package mercadopago

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func signManifest(t *testing.T, dataID, requestID, ts, secret string) string {
	t.Helper()
	manifest := fmt.Sprintf("id:%s;request-id:%s;ts:%s;", dataID, requestID, ts)
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(manifest))
	return hex.EncodeToString(mac.Sum(nil))
}

func TestVerifyWebhookSignature_Valid(t *testing.T) {
	v1 := signManifest(t, "PAY1", "req-123", "1700000000", "shh")
	header := fmt.Sprintf("ts=1700000000,v1=%s", v1)

	require.NoError(t, VerifyWebhookSignature(header, "req-123", "PAY1", "shh"))
}

func TestVerifyWebhookSignature_ValidWithSpaces(t *testing.T) {
	v1 := signManifest(t, "PAY1", "req-123", "1700000000", "shh")
	header := fmt.Sprintf("ts=1700000000, v1=%s", v1)

	require.NoError(t, VerifyWebhookSignature(header, "req-123", "PAY1", "shh"))
}

func TestVerifyWebhookSignature_WrongSecret(t *testing.T) {
	v1 := signManifest(t, "PAY1", "req-123", "1700000000", "shh")
	header := fmt.Sprintf("ts=1700000000,v1=%s", v1)

	require.Error(t, VerifyWebhookSignature(header, "req-123", "PAY1", "other-secret"))
}

func TestVerifyWebhookSignature_TamperedPaymentID(t *testing.T) {
	v1 := signManifest(t, "PAY1", "req-123", "1700000000", "shh")
	header := fmt.Sprintf("ts=1700000000,v1=%s", v1)

	require.Error(t, VerifyWebhookSignature(header, "req-123", "PAY2", "shh"))
}

func TestVerifyWebhookSignature_Malformed(t *testing.T) {
	require.Error(t, VerifyWebhookSignature("", "req-123", "PAY1", "shh"))
	require.Error(t, VerifyWebhookSignature("ts=1700000000", "req-123", "PAY1", "shh"))
	require.Error(t, VerifyWebhookSignature("garbage", "req-123", "PAY1", "shh"))
}
