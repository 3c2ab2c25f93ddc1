package payments

import (
	"context"
	"fmt"

	"github.com/craftkart/craftkart-backend/internal/payments/razorpay"
	pkgerrors "github.com/craftkart/craftkart-backend/pkg/errors"
	"github.com/craftkart/craftkart-backend/pkg/metrics"
)

// Confirmation carries the provider references handed back by the checkout
// widget after an online payment.
type Confirmation struct {
	ProviderOrderID string
	PaymentID       string
	Signature       string
}

// Gate decides whether an online payment may be trusted before any order row
// is written.
type Gate interface {
	Confirm(ctx context.Context, confirmation Confirmation) error
}

type statusLookup interface {
	HasCapturedPayment(ctx context.Context, providerOrderID, paymentID string) (bool, error)
	KeySecret() string
}

type gate struct {
	provider statusLookup
	metrics  *metrics.CheckoutMetrics
}

// NewGate builds the payment confirmation gate around the provider client.
func NewGate(provider *razorpay.Client, checkoutMetrics *metrics.CheckoutMetrics) (Gate, error) {
	if provider == nil {
		return nil, fmt.Errorf("payment provider client required")
	}
	return &gate{provider: provider, metrics: checkoutMetrics}, nil
}

// Confirm trusts a signed callback only when its signature verifies; a
// mismatched signature is rejected outright, with no fallback. Callbacks
// carrying no signature are checked against the provider's captured-status
// lookup instead.
func (g *gate) Confirm(ctx context.Context, confirmation Confirmation) error {
	if confirmation.ProviderOrderID == "" || confirmation.PaymentID == "" {
		g.metrics.IncPaymentVerificationFailure("missing_reference")
		return pkgerrors.New(pkgerrors.CodePaymentVerification, "payment reference missing")
	}

	if confirmation.Signature != "" {
		if !razorpay.VerifySignature(g.provider.KeySecret(), confirmation.ProviderOrderID, confirmation.PaymentID, confirmation.Signature) {
			g.metrics.IncPaymentVerificationFailure("signature_mismatch")
			return pkgerrors.New(pkgerrors.CodePaymentVerification, "payment signature mismatch")
		}
		return nil
	}

	captured, err := g.provider.HasCapturedPayment(ctx, confirmation.ProviderOrderID, confirmation.PaymentID)
	if err != nil {
		g.metrics.IncPaymentVerificationFailure("status_lookup_error")
		return pkgerrors.Wrap(pkgerrors.CodePaymentVerification, err, "payment status lookup failed")
	}
	if !captured {
		g.metrics.IncPaymentVerificationFailure("not_captured")
		return pkgerrors.New(pkgerrors.CodePaymentVerification, "payment could not be verified")
	}

	return nil
}
