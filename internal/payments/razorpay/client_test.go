package razorpay

import (
	"context"
	"io"
	"net/http"
	"strings"
	"testing"
)

func TestClientListOrderPaymentsRequest(t *testing.T) {
	const expectedURL = "http://razorpay.test/v1/orders/order_ABC/payments"
	respBody := `{"count":2,"items":[{"id":"pay_1","status":"failed","amount":135000},{"id":"pay_2","status":"captured","amount":135000}]}`

	var capturedURL string
	var capturedUser, capturedPass string

	rt := roundTripFunc(func(req *http.Request) (*http.Response, error) {
		capturedURL = req.URL.String()
		capturedUser, capturedPass, _ = req.BasicAuth()
		return &http.Response{
			StatusCode: http.StatusOK,
			Body:       io.NopCloser(strings.NewReader(respBody)),
			Header:     http.Header{},
		}, nil
	})

	client, err := NewClient("key_id", "key_secret", WithBaseURL("http://razorpay.test/v1"), WithHTTPClient(&http.Client{Transport: rt}))
	if err != nil {
		t.Fatalf("new client: %v", err)
	}

	payments, err := client.ListOrderPayments(context.Background(), "order_ABC")
	if err != nil {
		t.Fatalf("list payments: %v", err)
	}
	if capturedURL != expectedURL {
		t.Fatalf("unexpected URL %q", capturedURL)
	}
	if capturedUser != "key_id" || capturedPass != "key_secret" {
		t.Fatal("basic auth credentials missing")
	}
	if len(payments) != 2 || payments[1].Status != "captured" {
		t.Fatalf("unexpected payments %+v", payments)
	}
}

func TestClientHasCapturedPayment(t *testing.T) {
	respBody := `{"items":[{"id":"pay_1","status":"failed"},{"id":"pay_2","status":"captured"}]}`

	rt := roundTripFunc(func(req *http.Request) (*http.Response, error) {
		return &http.Response{
			StatusCode: http.StatusOK,
			Body:       io.NopCloser(strings.NewReader(respBody)),
			Header:     http.Header{},
		}, nil
	})

	client, err := NewClient("key_id", "key_secret", WithHTTPClient(&http.Client{Transport: rt}))
	if err != nil {
		t.Fatalf("new client: %v", err)
	}

	captured, err := client.HasCapturedPayment(context.Background(), "order_ABC", "pay_2")
	if err != nil {
		t.Fatalf("has captured payment: %v", err)
	}
	if !captured {
		t.Fatal("expected captured payment to be found")
	}

	captured, err = client.HasCapturedPayment(context.Background(), "order_ABC", "pay_1")
	if err != nil {
		t.Fatalf("has captured payment: %v", err)
	}
	if captured {
		t.Fatal("failed payment should not count as captured")
	}
}

func TestClientListOrderPaymentsSurfacesAPIError(t *testing.T) {
	rt := roundTripFunc(func(req *http.Request) (*http.Response, error) {
		return &http.Response{
			StatusCode: http.StatusUnauthorized,
			Body:       io.NopCloser(strings.NewReader(`{"error":{"description":"bad credentials"}}`)),
			Header:     http.Header{},
		}, nil
	})

	client, err := NewClient("key_id", "bad_secret", WithHTTPClient(&http.Client{Transport: rt}))
	if err != nil {
		t.Fatalf("new client: %v", err)
	}

	_, err = client.ListOrderPayments(context.Background(), "order_ABC")
	if err == nil {
		t.Fatal("expected api error")
	}
	if !strings.Contains(err.Error(), "payment lookup request failed") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestNewClientRequiresCredentials(t *testing.T) {
	if _, err := NewClient("", "secret"); err == nil {
		t.Fatal("expected missing key id error")
	}
	if _, err := NewClient("key", " "); err == nil {
		t.Fatal("expected missing secret error")
	}
}

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(req *http.Request) (*http.Response, error) {
	return f(req)
}
