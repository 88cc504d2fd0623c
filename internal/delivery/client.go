package delivery

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"submitbox/internal/signature"

	"github.com/rs/zerolog"
)

const (
	// MaxResponseBytes caps how much of the response body is read
	MaxResponseBytes = 1_000_000 // 1 MB

	ContentType = "application/json"
)

// Client posts signed submissions to a receiving endpoint.
// It makes exactly one attempt per call.
type Client struct {
	HTTP   *http.Client
	Logger zerolog.Logger
}

// NewClient creates a client whose requests are bounded by timeout
func NewClient(timeout time.Duration, logger zerolog.Logger) *Client {
	return &Client{
		HTTP:   &http.Client{Timeout: timeout},
		Logger: logger,
	}
}

// NewRequest builds the POST request for a signed body
func NewRequest(ctx context.Context, targetURL string, body []byte, sig string) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, targetURL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create HTTP request: %w", err)
	}

	req.Header.Set("Content-Type", ContentType)
	req.Header.Set(signature.Header, sig)

	return req, nil
}

// Deliver sends body exactly as signed. A 200 response carrying a receipt
// yields the receipt; every other outcome is a *DeliveryError.
func (c *Client) Deliver(ctx context.Context, targetURL string, body []byte, sig string) (*Receipt, error) {
	req, err := NewRequest(ctx, targetURL, body, sig)
	if err != nil {
		return nil, err
	}

	c.Logger.Info().
		Str("url", targetURL).
		Str("Content-Type", ContentType).
		Str(signature.Header, sig).
		RawJSON("body", body).
		Msg("sending submission")

	start := time.Now()
	resp, err := c.HTTP.Do(req)
	if err != nil {
		c.Logger.Error().Err(err).Str("url", targetURL).Msg("request failed")
		return nil, &DeliveryError{Err: err}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, MaxResponseBytes))
	if err != nil {
		return nil, &DeliveryError{StatusCode: resp.StatusCode, Err: fmt.Errorf("failed to read response body: %w", err)}
	}

	c.Logger.Info().
		Int("status", resp.StatusCode).
		Int64("duration_ms", time.Since(start).Milliseconds()).
		Msg("received response")

	if resp.StatusCode != http.StatusOK {
		return nil, &DeliveryError{StatusCode: resp.StatusCode, Body: string(respBody)}
	}

	receipt, err := parseReceipt(respBody)
	if err != nil {
		return nil, &DeliveryError{StatusCode: resp.StatusCode, Body: string(respBody), Err: err}
	}

	return receipt, nil
}

func parseReceipt(body []byte) (*Receipt, error) {
	var envelope struct {
		Receipt json.RawMessage `json:"receipt"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, fmt.Errorf("invalid JSON response: %w", err)
	}
	if len(envelope.Receipt) == 0 {
		return nil, fmt.Errorf("response has no receipt")
	}

	return &Receipt{Value: envelope.Receipt}, nil
}
