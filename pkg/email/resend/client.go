package resend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/0xobelisk/dubhe-website-sub001/pkg/email"
	apperrors "github.com/0xobelisk/dubhe-website-sub001/pkg/errors"
	"github.com/0xobelisk/dubhe-website-sub001/pkg/httpclient"
)

// DefaultBaseURL is the Resend REST API root.
const DefaultBaseURL = "https://api.resend.com"

const providerName = "resend"

// maxErrorBody bounds how much of an error response is read.
const maxErrorBody = 64 << 10

type sendRequest struct {
	From    string   `json:"from"`
	To      []string `json:"to"`
	Subject string   `json:"subject"`
	HTML    string   `json:"html,omitempty"`
	Text    string   `json:"text,omitempty"`
	ReplyTo string   `json:"reply_to,omitempty"`
}

type sendResponse struct {
	ID string `json:"id"`
}

// errorResponse is the body Resend returns with a non-2xx status
type errorResponse struct {
	StatusCode int    `json:"statusCode"`
	Name       string `json:"name"`
	Message    string `json:"message"`
}

// Client sends email through the Resend HTTP API
type Client struct {
	apiKey     string
	baseURL    string
	httpClient httpclient.Client
}

// NewClient creates a Resend client. An empty baseURL uses DefaultBaseURL.
func NewClient(apiKey, baseURL string, httpClient httpclient.Client) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		apiKey:     apiKey,
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: httpClient,
	}
}

// Send posts msg to /emails and returns the id Resend assigned to it.
func (c *Client) Send(ctx context.Context, msg *email.Message) (*email.SendResult, error) {
	payload, err := json.Marshal(sendRequest{
		From:    msg.From,
		To:      msg.To,
		Subject: msg.Subject,
		HTML:    msg.HTML,
		Text:    msg.Text,
		ReplyTo: msg.ReplyTo,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal resend request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/emails", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to create resend request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, apperrors.ProviderUnavailableError(providerName, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, apperrors.ProviderRejectedError(providerName, errorMessage(resp))
	}

	var result sendResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode resend response: %w", err)
	}
	if result.ID == "" {
		return nil, apperrors.ProviderRejectedError(providerName, "response carried no email id")
	}

	return &email.SendResult{ID: result.ID}, nil
}

func errorMessage(resp *http.Response) string {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody)) //nolint:errcheck

	var parsed errorResponse
	if err := json.Unmarshal(body, &parsed); err == nil && parsed.Message != "" {
		return parsed.Message
	}
	if text := strings.TrimSpace(string(body)); text != "" {
		return fmt.Sprintf("status %d: %s", resp.StatusCode, text)
	}
	return fmt.Sprintf("status %d", resp.StatusCode)
}
