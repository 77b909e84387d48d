package protocol

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Client invokes agent skills over HTTP.
//
// The client performs no retries; retry policy belongs to the callers
// that can reason about idempotency.
type Client struct {
	httpClient *http.Client
}

// ClientConfig configures a Client.
type ClientConfig struct {
	// Timeout bounds the whole request unless the per-call context is
	// stricter. Zero means no client-wide limit; per-step timeouts are
	// applied by the caller via context.
	Timeout time.Duration
}

// NewClient creates an invocation client.
func NewClient(cfg *ClientConfig) *Client {
	var timeout time.Duration
	if cfg != nil {
		timeout = cfg.Timeout
	}
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Invoke calls a skill on an agent and returns the result payload.
//
// The returned error is a *RemoteError when the agent reported an error
// in the envelope; transport and decoding failures are returned wrapped.
// Deadline expiry surfaces as the context error, so callers can map it
// to their own timeout type.
func (c *Client) Invoke(ctx context.Context, endpoint, skillID string, params map[string]any) (any, error) {
	message := InvokeRequest{
		ProtocolVersion: Version,
		Method:          skillID,
		Params:          params,
		ID:              uuid.NewString(),
	}

	body, err := json.Marshal(message)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	url := strings.TrimSuffix(endpoint, "/") + "/execute"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("request to %s failed: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("unexpected status %s from %s: %s", resp.Status, url, string(respBody))
	}

	var envelope InvokeResponse
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	if envelope.Error != nil {
		return nil, &RemoteError{Code: envelope.Error.Code, Message: envelope.Error.Message}
	}
	return envelope.Result, nil
}
