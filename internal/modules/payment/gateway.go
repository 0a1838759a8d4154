package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"storefront/internal/config"
	"storefront/internal/pkg/apperr"
)

const maxGatewayResponse = 1 << 20

// GatewayOrderRequest is the body of POST /v1/orders. Amount is in minor units.
type GatewayOrderRequest struct {
	Amount   int64             `json:"amount"`
	Currency string            `json:"currency"`
	Receipt  string            `json:"receipt"`
	Notes    map[string]string `json:"notes,omitempty"`
}

type GatewayOrder struct {
	ID       string `json:"id"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	Receipt  string `json:"receipt"`
	Status   string `json:"status"`
}

type GatewayPayment struct {
	ID       string `json:"id"`
	OrderID  string `json:"order_id"`
	Status   string `json:"status"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
}

type GatewayRefund struct {
	ID        string `json:"id"`
	PaymentID string `json:"payment_id"`
	Amount    int64  `json:"amount"`
	Status    string `json:"status"`
}

type gatewayErrorBody struct {
	Error struct {
		Code        string `json:"code"`
		Description string `json:"description"`
	} `json:"error"`
}

// RazorpayClient talks to the Razorpay REST API. Every call is bounded by
// the configured gateway timeout and is never retried here: 4xx responses
// become terminal gateway errors, everything else retryable ones.
type RazorpayClient struct {
	baseURL   string
	keyID     string
	keySecret string
	timeout   time.Duration
	http      *http.Client
}

func NewRazorpayClient(cfg config.RazorpayConfig) *RazorpayClient {
	return &RazorpayClient{
		baseURL:   cfg.BaseURL,
		keyID:     cfg.KeyID,
		keySecret: cfg.KeySecret,
		timeout:   cfg.Timeout,
		http:      &http.Client{},
	}
}

func (c *RazorpayClient) CreateOrder(ctx context.Context, req GatewayOrderRequest) (*GatewayOrder, error) {
	var out GatewayOrder
	if err := c.do(ctx, http.MethodPost, "/v1/orders", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *RazorpayClient) Capture(ctx context.Context, paymentID string, amount int64, currency string) (*GatewayPayment, error) {
	body := map[string]any{"amount": amount, "currency": currency}
	var out GatewayPayment
	if err := c.do(ctx, http.MethodPost, "/v1/payments/"+url.PathEscape(paymentID)+"/capture", body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *RazorpayClient) Refund(ctx context.Context, paymentID string, amount int64, notes map[string]string) (*GatewayRefund, error) {
	body := map[string]any{"amount": amount, "notes": notes}
	var out GatewayRefund
	if err := c.do(ctx, http.MethodPost, "/v1/payments/"+url.PathEscape(paymentID)+"/refund", body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *RazorpayClient) FetchPayment(ctx context.Context, paymentID string) (*GatewayPayment, error) {
	var out GatewayPayment
	if err := c.do(ctx, http.MethodGet, "/v1/payments/"+url.PathEscape(paymentID), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *RazorpayClient) do(ctx context.Context, method, path string, in, out any) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var body io.Reader
	if in != nil {
		raw, err := json.Marshal(in)
		if err != nil {
			return apperr.Internal(err)
		}
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return apperr.Internal(err)
	}
	req.SetBasicAuth(c.keyID, c.keySecret)
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return apperr.Gateway("Payment gateway unavailable", true, fmt.Errorf("%s %s: %w", method, path, err))
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxGatewayResponse))
	if err != nil {
		return apperr.Gateway("Payment gateway unavailable", true, fmt.Errorf("%s %s: read body: %w", method, path, err))
	}

	switch {
	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
		return apperr.Gateway("Payment gateway unavailable", true, fmt.Errorf("%s %s: status %d", method, path, resp.StatusCode))
	case resp.StatusCode >= 400:
		return apperr.Gateway(rejectionMessage(raw), false, fmt.Errorf("%s %s: status %d", method, path, resp.StatusCode))
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return apperr.Gateway("Unexpected payment gateway response", true, fmt.Errorf("%s %s: %w", method, path, err))
	}
	return nil
}

// rejectionMessage surfaces the provider's description of a 4xx.
func rejectionMessage(raw []byte) string {
	var body gatewayErrorBody
	if err := json.Unmarshal(raw, &body); err == nil && body.Error.Description != "" {
		return "Payment gateway rejected the request: " + body.Error.Description
	}
	return "Payment gateway rejected the request"
}
