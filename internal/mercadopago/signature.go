package mercadopago

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
)

// VerifyWebhookSignature validates the x-signature header Mercado Pago sends
// with webhook notifications.
//
// The header has the form "ts=<unix>,v1=<hex hmac>"; the HMAC-SHA256 is
// computed over the manifest "id:<dataID>;request-id:<requestID>;ts:<ts>;"
// with the webhook secret as key.
func VerifyWebhookSignature(signatureHeader, requestID, dataID, secret string) error {
	if signatureHeader == "" {
		return fmt.Errorf("missing signature header")
	}

	var ts, v1 string
	for _, part := range strings.Split(signatureHeader, ",") {
		key, value, found := strings.Cut(strings.TrimSpace(part), "=")
		if !found {
			continue
		}
		switch key {
		case "ts":
			ts = value
		case "v1":
			v1 = value
		}
	}
	if ts == "" || v1 == "" {
		return fmt.Errorf("malformed signature header")
	}

	manifest := fmt.Sprintf("id:%s;request-id:%s;ts:%s;", dataID, requestID, ts)

	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(manifest))
	expected := hex.EncodeToString(mac.Sum(nil))

	if !hmac.Equal([]byte(expected), []byte(v1)) {
		return fmt.Errorf("signature mismatch")
	}

	return nil
}
