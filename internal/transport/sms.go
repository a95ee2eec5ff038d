// Package transport holds the concrete delivery clients behind the
// dispatcher's channel interfaces.
package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// SMSClient sends text messages through an HTTP SMS gateway
type SMSClient struct {
	baseURL    string
	apiKey     string
	senderID   string
	httpClient *http.Client
}

// NewSMSClient creates an SMS gateway client
func NewSMSClient(baseURL, apiKey, senderID string) *SMSClient {
	return &SMSClient{
		baseURL:    baseURL,
		apiKey:     apiKey,
		senderID:   senderID,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

type smsResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

// Send delivers one SMS. Any non-success outcome is returned as an error
// carrying the gateway's own description.
func (c *SMSClient) Send(ctx context.Context, phone, message string) error {
	payload := map[string]string{
		"api_key":   c.apiKey,
		"sender_id": c.senderID,
		"phone":     phone,
		"message":   message,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to encode sms request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/api/v3/sms/send", bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("sms gateway unreachable: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read sms gateway response: %w", err)
	}

	if resp.StatusCode >= 400 {
		return fmt.Errorf("sms gateway error: %d %s", resp.StatusCode, string(raw))
	}

	var sr smsResponse
	if err := json.Unmarshal(raw, &sr); err != nil {
		return fmt.Errorf("failed to parse sms gateway response: %w", err)
	}
	if sr.Status != "success" {
		return fmt.Errorf("sms not delivered: %s", sr.Message)
	}
	return nil
}
