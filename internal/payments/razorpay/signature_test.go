package razorpay

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"testing"
)

func signPayload(secret, orderID, paymentID string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	fmt.Fprintf(mac, "%s|%s", orderID, paymentID)
	return hex.EncodeToString(mac.Sum(nil))
}

func TestVerifySignatureAccepts(t *testing.T) {
	t.Parallel()

	sig := signPayload("secret", "order_ABC", "pay_XYZ")
	if !VerifySignature("secret", "order_ABC", "pay_XYZ", sig) {
		t.Fatal("expected valid signature to pass")
	}
}

func TestVerifySignatureAcceptsUppercaseHex(t *testing.T) {
	t.Parallel()

	sig := strings.ToUpper(signPayload("secret", "order_ABC", "pay_XYZ"))
	if !VerifySignature("secret", "order_ABC", "pay_XYZ", sig) {
		t.Fatal("expected case-insensitive hex to pass")
	}
}

func TestVerifySignatureRejectsTamperedPayment(t *testing.T) {
	t.Parallel()

	sig := signPayload("secret", "order_ABC", "pay_XYZ")
	if VerifySignature("secret", "order_ABC", "pay_OTHER", sig) {
		t.Fatal("expected tampered payment id to fail")
	}
}

func TestVerifySignatureRejectsWrongSecret(t *testing.T) {
	t.Parallel()

	sig := signPayload("other", "order_ABC", "pay_XYZ")
	if VerifySignature("secret", "order_ABC", "pay_XYZ", sig) {
		t.Fatal("expected wrong secret to fail")
	}
}

func TestVerifySignatureRejectsBlanks(t *testing.T) {
	t.Parallel()

	if VerifySignature("", "order_ABC", "pay_XYZ", "deadbeef") {
		t.Fatal("expected missing secret to fail")
	}
	if VerifySignature("secret", "", "pay_XYZ", "deadbeef") {
		t.Fatal("expected missing order id to fail")
	}
	if VerifySignature("secret", "order_ABC", "pay_XYZ", "") {
		t.Fatal("expected missing signature to fail")
	}
}
