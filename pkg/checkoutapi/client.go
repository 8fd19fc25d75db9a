package checkoutapi

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

	pkgerrors "github.com/angelmondragon/storefront-checkout/pkg/errors"
)

const (
	shippingMethodsPath         = "checkout/shipping-methods"
	paymentMethodsPath          = "checkout/payment-methods"
	ordersPath                  = "checkout/orders"
	responseBodyReadLimit int64 = 1 << 20
	defaultTimeout              = 10 * time.Second
)

var errBaseURLRequired = errors.New("checkout api base url is required")

// Client talks to the external checkout submission service.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
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

// WithAPIKey sets the key sent in the X-Api-Key header.
func WithAPIKey(key string) Option {
	return func(c *Client) {
		c.apiKey = strings.TrimSpace(key)
	}
}

// WithTimeout overrides the request timeout of the default HTTP client.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout > 0 {
			c.httpClient.Timeout = timeout
		}
	}
}

// NewClient builds a client for the service rooted at baseURL.
func NewClient(baseURL string, opts ...Option) (*Client, error) {
	trimmed := strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if trimmed == "" {
		return nil, errBaseURLRequired
	}

	client := &Client{
		baseURL:    trimmed,
		httpClient: &http.Client{Timeout: defaultTimeout},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(client)
		}
	}
	return client, nil
}

// SetShippingMethods submits the shipping assignments and parties of a cart.
func (c *Client) SetShippingMethods(ctx context.Context, req ShippingRequest) (*ShippingResult, error) {
	if len(req.ShippingAssignments) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "shipping assignments are required")
	}
	var out ShippingResult
	if err := c.post(ctx, "set shipping methods", shippingMethodsPath, "", req, &out); err != nil {
		return nil, err
	}
	if !out.Success {
		return &out, submissionFailed("set shipping methods", out.Messages)
	}
	return &out, nil
}

// SetPaymentMethods submits the payment instruments of a cart.
func (c *Client) SetPaymentMethods(ctx context.Context, req PaymentRequest) (*PaymentResult, error) {
	if req.CreditCardPayment == nil && req.GiftCardPayment == nil && req.LoyaltyCardPayment == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "at least one payment is required")
	}
	var out PaymentResult
	if err := c.post(ctx, "set payment methods", paymentMethodsPath, "", req, &out); err != nil {
		return nil, err
	}
	if !out.Success {
		return &out, submissionFailed("set payment methods", out.Messages)
	}
	return &out, nil
}

// SubmitOrder places the order for a cart.
func (c *Client) SubmitOrder(ctx context.Context, req SubmitRequest) (*SubmitResult, error) {
	if strings.TrimSpace(req.CartID) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cart id is required")
	}
	var out SubmitResult
	if err := c.post(ctx, "submit order", ordersPath, req.IdempotencyKey, req, &out); err != nil {
		return nil, err
	}
	if !out.Success {
		return &out, submissionFailed("submit order", out.Messages)
	}
	return &out, nil
}

// post sends body as JSON and decodes the response envelope into out. A
// non-2xx reply that still carries a decodable envelope is handed back so the
// caller can surface the service messages; a 4xx reply without one is a
// rejection of op carrying the raw body.
func (c *Client) post(ctx context.Context, op, path, idempotencyKey string, body, out any) error {
	if c == nil {
		return pkgerrors.New(pkgerrors.CodeDependency, "checkout api client not configured")
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "marshal checkout request")
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.buildURL(path), bytes.NewReader(payload))
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "build checkout request")
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		httpReq.Header.Set("X-Api-Key", c.apiKey)
	}
	if idempotencyKey != "" {
		httpReq.Header.Set("Idempotency-Key", idempotencyKey)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "execute checkout request")
	}
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, responseBodyReadLimit))
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "read checkout response")
	}

	decodeErr := json.Unmarshal(raw, out)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		if resp.StatusCode < http.StatusInternalServerError {
			if decodeErr == nil {
				return nil
			}
			message := strings.TrimSpace(string(raw))
			if message == "" {
				message = http.StatusText(resp.StatusCode)
			}
			return submissionFailed(op, []string{message})
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency,
			fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(raw))), "checkout request failed")
	}
	if decodeErr != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, decodeErr, "decode checkout response")
	}
	return nil
}

func (c *Client) buildURL(path string) string {
	return fmt.Sprintf("%s/%s", c.baseURL, strings.TrimLeft(path, "/"))
}

func submissionFailed(op string, messages []string) error {
	if len(messages) == 0 {
		messages = []string{op + " was rejected"}
	}
	return pkgerrors.New(pkgerrors.CodeSubmissionFailed, op+" failed").
		WithDetails(map[string]any{"messages": messages})
}
