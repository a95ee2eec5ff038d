// Package mpesa integrates the mobile-money gateway: STK-push
// initiation, status polling and invoice settlement.
package mpesa

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"rental-service/pkg/config"
)

// initiateSuccessCode is the gateway code confirming the push prompt was
// sent to the payer's handset. Anything else is a failed initiation even
// on HTTP 200.
const initiateSuccessCode = "STK100"

// Client is an HTTP adapter for the mobile-money gateway
type Client struct {
	baseURL     string
	apiKey      string
	accountID   string
	callbackURL string
	httpClient  *http.Client
	log         *zap.Logger
}

// NewClient creates a gateway client from configuration
func NewClient(cfg config.MpesaConfig, log *zap.Logger) *Client {
	return &Client{
		baseURL:     cfg.BaseURL,
		apiKey:      cfg.APIKey,
		accountID:   cfg.AccountID,
		callbackURL: cfg.CallbackURL,
		httpClient:  &http.Client{Timeout: 10 * time.Second},
		log:         log,
	}
}

// InitiateResponse is the gateway's answer to a push-initiation call
type InitiateResponse struct {
	SuccessCode          string `json:"success_code"`
	TransactionRequestID string `json:"transaction_request_id"`
	Message              string `json:"message"`
}

// gatewayError is the error body the gateway returns on a rejected call
type gatewayError struct {
	Message string `json:"message"`
	Code    string `json:"code"`
}

// InitiateSTKPush asks the gateway to prompt the payer's handset for the
// invoice amount. On success it returns the transaction request id used
// for subsequent status queries. On failure the gateway's own error
// message is surfaced verbatim and nothing else happens.
func (c *Client) InitiateSTKPush(ctx context.Context, amount decimal.Decimal, phone, reference string) (string, error) {
	payload := map[string]interface{}{
		"amount":       amount.StringFixed(2),
		"phone_number": phone,
		"reference":    reference,
		"account_id":   c.accountID,
		"callback_url": c.callbackURL,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("failed to encode push request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/api/v1/payments/stk-push", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("gateway unreachable: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read gateway response: %w", err)
	}

	if resp.StatusCode >= 400 {
		var ge gatewayError
		if json.Unmarshal(raw, &ge) == nil && ge.Message != "" {
			return "", fmt.Errorf("payment initiation rejected: %s", ge.Message)
		}
		return "", fmt.Errorf("payment initiation rejected: %d %s", resp.StatusCode, string(raw))
	}

	var ir InitiateResponse
	if err := json.Unmarshal(raw, &ir); err != nil {
		return "", fmt.Errorf("failed to parse gateway response: %w", err)
	}

	// The gateway reports success through its own code, never through
	// the HTTP status alone.
	if ir.SuccessCode != initiateSuccessCode {
		if ir.Message != "" {
			return "", fmt.Errorf("payment initiation rejected: %s", ir.Message)
		}
		return "", fmt.Errorf("payment initiation rejected: unexpected code %q", ir.SuccessCode)
	}

	c.log.Info("STK push initiated",
		zap.String("transaction_request_id", ir.TransactionRequestID),
		zap.String("reference", reference))
	return ir.TransactionRequestID, nil
}

// StatusResponse is the gateway's answer to a status query. The provider
// sub-object is kept raw because the upstream provider sometimes returns
// it malformed or omits it entirely.
type StatusResponse struct {
	Status           string          `json:"status"`
	ResultDesc       string          `json:"result_desc"`
	ProviderResponse json.RawMessage `json:"provider_response"`
}

type providerResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Provider defensively extracts the provider error code and message from
// the embedded sub-object. A missing or malformed sub-object yields
// empty values, never an error.
func (r *StatusResponse) Provider() (code, message string) {
	if len(r.ProviderResponse) == 0 {
		return "", ""
	}
	var pr providerResponse
	if err := json.Unmarshal(r.ProviderResponse, &pr); err != nil {
		return "", ""
	}
	return pr.Code, pr.Message
}

// QueryStatus fetches the current state of a transaction request
func (c *Client) QueryStatus(ctx context.Context, transactionRequestID string) (*StatusResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		c.baseURL+"/api/v1/payments/status/"+transactionRequestID, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("gateway unreachable: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read gateway response: %w", err)
	}

	if resp.StatusCode >= 400 {
		var ge gatewayError
		if json.Unmarshal(raw, &ge) == nil && ge.Message != "" {
			return nil, fmt.Errorf("status query rejected: %s", ge.Message)
		}
		return nil, fmt.Errorf("status query rejected: %d %s", resp.StatusCode, string(raw))
	}

	var sr StatusResponse
	if err := json.Unmarshal(raw, &sr); err != nil {
		return nil, fmt.Errorf("failed to parse status response: %w", err)
	}
	return &sr, nil
}
