package utils

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

	"github.com/tidwall/gjson"
)

const nowPaymentsDefaultBaseURL = "https://api.nowpayments.io/v1"

// InvoiceRequest is the body of POST /invoice.
type InvoiceRequest struct {
	PriceAmount    json.Number `json:"price_amount"`
	PriceCurrency  string      `json:"price_currency"`
	PayCurrency    string      `json:"pay_currency"`
	OrderID        string      `json:"order_id"`
	IPNCallbackURL string      `json:"ipn_callback_url,omitempty"`
}

// Invoice is the part of the create-invoice response the platform keeps.
type Invoice struct {
	ID         string
	InvoiceURL string
	OrderID    string
}

// GatewayError is a non-2xx answer from the payment API.
type GatewayError struct {
	StatusCode int
	Message    string
}

func (e *GatewayError) Error() string {
	return fmt.Sprintf("nowpayments API %d: %s", e.StatusCode, e.Message)
}

// NowPaymentsClient creates hosted invoices. Authentication is the x-api-key header.
type NowPaymentsClient struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

func NewNowPaymentsClient(baseURL, apiKey string, timeout time.Duration) *NowPaymentsClient {
	if baseURL == "" {
		baseURL = nowPaymentsDefaultBaseURL
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &NowPaymentsClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// CreateInvoice posts an invoice and returns its id and hosted payment URL.
func (c *NowPaymentsClient) CreateInvoice(ctx context.Context, in InvoiceRequest) (*Invoice, error) {
	if c.apiKey == "" {
		return nil, errors.New("NOWPAYMENTS_API_KEY is not set")
	}
	body, err := json.Marshal(in)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/invoice", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request: %w", err)
	}
	defer resp.Body.Close()
	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg := gjson.GetBytes(respBody, "message").String()
		if msg == "" {
			msg = strings.TrimSpace(string(respBody))
		}
		return nil, &GatewayError{StatusCode: resp.StatusCode, Message: msg}
	}
	if !gjson.ValidBytes(respBody) {
		return nil, fmt.Errorf("parse invoice: invalid JSON (body: %s)", string(respBody))
	}

	// id is documented as a string but has been observed as a number
	res := gjson.ParseBytes(respBody)
	inv := &Invoice{
		ID:         res.Get("id").String(),
		InvoiceURL: res.Get("invoice_url").String(),
		OrderID:    res.Get("order_id").String(),
	}
	if inv.ID == "" || inv.InvoiceURL == "" {
		return nil, fmt.Errorf("invoice response missing id or invoice_url")
	}
	return inv, nil
}
