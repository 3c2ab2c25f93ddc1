package razorpay

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	pkgerrors "github.com/craftkart/craftkart-backend/pkg/errors"
)

const (
	defaultBaseURL              = "https://api.razorpay.com/v1"
	responseBodyReadLimit int64 = 1024

	paymentStatusCaptured = "captured"
)

var errCredentialsRequired = errors.New("razorpay key id and secret are required")

// Client wraps the payment provider REST API used for status lookups.
type Client struct {
	httpClient *http.Client
	baseURL    string
	keyID      string
	keySecret  string
}

// Option configures optional client behavior.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithBaseURL overrides the configured provider base URL.
func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		trimmed := strings.TrimSpace(baseURL)
		if trimmed != "" {
			c.baseURL = trimmed
		}
	}
}

// NewClient builds the provider client given API credentials.
func NewClient(keyID, keySecret string, opts ...Option) (*Client, error) {
	trimmedID := strings.TrimSpace(keyID)
	trimmedSecret := strings.TrimSpace(keySecret)
	if trimmedID == "" || trimmedSecret == "" {
		return nil, errCredentialsRequired
	}

	client := &Client{
		keyID:      trimmedID,
		keySecret:  trimmedSecret,
		baseURL:    defaultBaseURL,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}

	for _, opt := range opts {
		if opt != nil {
			opt(client)
		}
	}

	if client.httpClient == nil {
		client.httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	if client.baseURL == "" {
		client.baseURL = defaultBaseURL
	}

	return client, nil
}

// KeySecret exposes the signing secret for callback verification.
func (c *Client) KeySecret() string {
	if c == nil {
		return ""
	}
	return c.keySecret
}

// Payment is the subset of the provider payment entity the gate needs.
type Payment struct {
	ID     string `json:"id"`
	Status string `json:"status"`
	Amount int    `json:"amount"`
}

// ListOrderPayments fetches every payment attempt recorded against a provider order.
func (c *Client) ListOrderPayments(ctx context.Context, providerOrderID string) ([]Payment, error) {
	if c == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "payment provider client not configured")
	}
	trimmed := strings.TrimSpace(providerOrderID)
	if trimmed == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "provider order id is required")
	}

	endpoint := fmt.Sprintf("%s/orders/%s/payments", strings.TrimRight(c.baseURL, "/"), url.PathEscape(trimmed))
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "build payment lookup request")
	}
	httpReq.SetBasicAuth(c.keyID, c.keySecret)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "execute payment lookup request")
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, responseBodyReadLimit))
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg))), "payment lookup request failed")
	}

	var apiResp struct {
		Items []Payment `json:"items"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&apiResp); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode payment lookup response")
	}

	return apiResp.Items, nil
}

// HasCapturedPayment reports whether the provider order has a captured payment
// matching the supplied payment id.
func (c *Client) HasCapturedPayment(ctx context.Context, providerOrderID, paymentID string) (bool, error) {
	payments, err := c.ListOrderPayments(ctx, providerOrderID)
	if err != nil {
		return false, err
	}
	for _, payment := range payments {
		if payment.ID == paymentID && payment.Status == paymentStatusCaptured {
			return true, nil
		}
	}
	return false, nil
}
