package razorpay

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
)

// VerifySignature checks the checkout callback signature. The provider signs
// "<orderID>|<paymentID>" with HMAC-SHA256 using the key secret and sends the
// hex digest back with the redirect.
func VerifySignature(keySecret, providerOrderID, paymentID, signature string) bool {
	if strings.TrimSpace(keySecret) == "" {
		return false
	}
	if providerOrderID == "" || paymentID == "" || signature == "" {
		return false
	}

	mac := hmac.New(sha256.New, []byte(keySecret))
	fmt.Fprintf(mac, "%s|%s", providerOrderID, paymentID)
	expected := hex.EncodeToString(mac.Sum(nil))

	return hmac.Equal([]byte(expected), []byte(strings.ToLower(strings.TrimSpace(signature))))
}
