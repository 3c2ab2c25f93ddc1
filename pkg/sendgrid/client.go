package sendgrid

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	pkgerrors "github.com/craftkart/craftkart-backend/pkg/errors"
)

const (
	defaultBaseURL              = "https://api.sendgrid.com/v3"
	responseBodyReadLimit int64 = 1024
)

var errAPIKeyRequired = errors.New("sendgrid api key is required")

// Client wraps the SendGrid v3 mail send API.
type Client struct {
	httpClient  *http.Client
	baseURL     string
	apiKey      string
	defaultFrom string
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

// WithBaseURL overrides the configured SendGrid base URL.
func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		trimmed := strings.TrimSpace(baseURL)
		if trimmed != "" {
			c.baseURL = trimmed
		}
	}
}

// NewClient builds the SendGrid client given an API key and default sender.
func NewClient(apiKey, defaultFrom string, opts ...Option) (*Client, error) {
	trimmedKey := strings.TrimSpace(apiKey)
	if trimmedKey == "" {
		return nil, errAPIKeyRequired
	}

	client := &Client{
		apiKey:      trimmedKey,
		defaultFrom: strings.TrimSpace(defaultFrom),
		baseURL:     defaultBaseURL,
		httpClient:  &http.Client{Timeout: 10 * time.Second},
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

// Email describes a single outbound transactional message.
type Email struct {
	To       string
	ToName   string
	From     string
	Subject  string
	BodyText string
	BodyHTML string
}

// Send delivers the email through the v3 mail/send endpoint.
func (c *Client) Send(ctx context.Context, email Email) error {
	if c == nil {
		return pkgerrors.New(pkgerrors.CodeDependency, "sendgrid client not configured")
	}
	if strings.TrimSpace(email.To) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "recipient email is required")
	}
	if strings.TrimSpace(email.Subject) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "email subject is required")
	}

	from := strings.TrimSpace(email.From)
	if from == "" {
		from = c.defaultFrom
	}
	if from == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "sender email is required")
	}

	payload, err := json.Marshal(buildSendPayload(email, from))
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "marshal mail send request")
	}

	url := c.buildURL("mail/send")
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "build mail send request")
	}

	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "execute mail send request")
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= http.StatusMultipleChoices {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, responseBodyReadLimit))
		return pkgerrors.Wrap(pkgerrors.CodeDependency, fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg))), "mail send request failed")
	}

	return nil
}

type sendPayload struct {
	Personalizations []personalization `json:"personalizations"`
	From             emailAddress      `json:"from"`
	Subject          string            `json:"subject"`
	Content          []content         `json:"content"`
}

type personalization struct {
	To []emailAddress `json:"to"`
}

type emailAddress struct {
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
}

type content struct {
	Type  string `json:"type"`
	Value string `json:"value"`
}

func buildSendPayload(email Email, from string) sendPayload {
	contents := []content{}
	if strings.TrimSpace(email.BodyText) != "" {
		contents = append(contents, content{Type: "text/plain", Value: email.BodyText})
	}
	if strings.TrimSpace(email.BodyHTML) != "" {
		contents = append(contents, content{Type: "text/html", Value: email.BodyHTML})
	}
	if len(contents) == 0 {
		contents = append(contents, content{Type: "text/plain", Value: email.Subject})
	}

	return sendPayload{
		Personalizations: []personalization{{
			To: []emailAddress{{Email: email.To, Name: email.ToName}},
		}},
		From:    emailAddress{Email: from},
		Subject: email.Subject,
		Content: contents,
	}
}

func (c *Client) buildURL(path string) string {
	trimmed := strings.TrimRight(c.baseURL, "/")
	path = strings.TrimLeft(path, "/")
	return fmt.Sprintf("%s/%s", trimmed, path)
}
