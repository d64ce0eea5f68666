// Package webhook provides trigger delivery via HTTP POST.
package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"alertengine/internal/sender/payload"
	"alertengine/internal/trigger"
)

// Sender implements webhook trigger delivery via HTTP POST.
type Sender struct {
	httpClient *http.Client
}

// NewSender creates a new webhook sender.
func NewSender() *Sender {
	return &Sender{
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// Type returns the recipient type this sender handles.
func (s *Sender) Type() string {
	return "webhook"
}

// isValidURL checks if a string is a valid HTTP/HTTPS URL.
func isValidURL(s string) bool {
	return strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://")
}

// Send delivers a trigger to a webhook endpoint via HTTP POST.
// The address should be a webhook URL.
func (s *Sender) Send(ctx context.Context, address string, trig *trigger.Trigger) error {
	if address == "" {
		return fmt.Errorf("webhook URL is required")
	}
	if !isValidURL(address) {
		return fmt.Errorf("invalid webhook URL: %q (must be a valid HTTP/HTTPS URL)", address)
	}

	webhookPayload := payload.BuildWebhookPayload(trig)

	jsonData, err := json.Marshal(webhookPayload)
	if err != nil {
		return fmt.Errorf("failed to marshal webhook payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", address, bytes.NewBuffer(jsonData))
	if err != nil {
		return fmt.Errorf("failed to create HTTP request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		slog.Error("Failed to send webhook notification",
			"error", err,
			"webhook_url", address,
			"trigger_identity", webhookPayload.Identity,
		)
		return fmt.Errorf("failed to send webhook notification: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		slog.Error("Webhook returned error status",
			"status_code", resp.StatusCode,
			"webhook_url", address,
			"trigger_identity", webhookPayload.Identity,
		)
		return fmt.Errorf("webhook returned status %d", resp.StatusCode)
	}

	slog.Debug("Webhook notification sent",
		"webhook_url", address,
		"trigger_identity", webhookPayload.Identity,
	)
	return nil
}
