package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"rental-service/internal/notify"
)

// WhatsAppClient sends messages through a hosted WhatsApp gateway
type WhatsAppClient struct {
	baseURL    string
	instanceID string
	token      string
	httpClient *http.Client
}

// NewWhatsAppClient creates a WhatsApp gateway client
func NewWhatsAppClient(baseURL, instanceID, token string) *WhatsAppClient {
	return &WhatsAppClient{
		baseURL:    baseURL,
		instanceID: instanceID,
		token:      token,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

type whatsAppResponse struct {
	Sent  bool `json:"sent"`
	Error *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// Send delivers one WhatsApp message. The gateway reports delivery
// failure inside a structured body, which is passed through as a result
// rather than an error; errors are reserved for transport problems.
func (c *WhatsAppClient) Send(ctx context.Context, phone, message string) (notify.WhatsAppResult, error) {
	payload := map[string]string{
		"token": c.token,
		"to":    phone,
		"body":  message,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return notify.WhatsAppResult{}, fmt.Errorf("failed to encode whatsapp request: %w", err)
	}

	url := fmt.Sprintf("%s/%s/messages/chat", c.baseURL, c.instanceID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return notify.WhatsAppResult{}, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return notify.WhatsAppResult{}, fmt.Errorf("whatsapp gateway unreachable: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return notify.WhatsAppResult{}, fmt.Errorf("failed to read whatsapp gateway response: %w", err)
	}

	if resp.StatusCode >= 400 {
		return notify.WhatsAppResult{}, fmt.Errorf("whatsapp gateway error: %d %s", resp.StatusCode, string(raw))
	}

	var wr whatsAppResponse
	if err := json.Unmarshal(raw, &wr); err != nil {
		return notify.WhatsAppResult{}, fmt.Errorf("failed to parse whatsapp gateway response: %w", err)
	}

	result := notify.WhatsAppResult{Success: wr.Sent}
	if wr.Error != nil {
		result.ErrorCode = wr.Error.Code
		result.ErrorMessage = wr.Error.Message
	}
	return result, nil
}
