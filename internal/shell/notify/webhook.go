// Package notify provides outbound channel adapters for the notification
// dispatcher. This is part of the Imperative Shell - handlers here do real
// I/O and own their own timeout policy.
package notify

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	corenotify "github.com/artpar/rollout/internal/core/notify"
	"github.com/artpar/rollout/internal/core/timeline"
)

// =============================================================================
// Webhook Handler
// =============================================================================

// WebhookConfig configures the webhook channel adapter.
type WebhookConfig struct {
	URL     string
	Timeout time.Duration
}

// webhookPayload is the JSON body posted to the webhook endpoint.
type webhookPayload struct {
	Message    string `json:"message"`
	ItemID     string `json:"item_id,omitempty"`
	ItemName   string `json:"item_name,omitempty"`
	TimelineID string `json:"timeline_id,omitempty"`
	SentAt     string `json:"sent_at"`
}

// WebhookHandler returns a dispatcher handler that POSTs rendered
// notifications as JSON to the configured URL. Delivery failures are
// logged and reported as an unsuccessful channel; they never propagate.
func WebhookHandler(cfg WebhookConfig, logger *slog.Logger) corenotify.Handler {
	if logger == nil {
		logger = slog.Default()
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	client := &http.Client{Timeout: timeout}

	return func(message string, item timeline.Item, t *timeline.Timeline) bool {
		payload := webhookPayload{
			Message: message,
			SentAt:  time.Now().UTC().Format(time.RFC3339),
		}
		if item != nil {
			payload.ItemID = item.Base().ID
			payload.ItemName = item.Base().Name
		}
		if t != nil {
			payload.TimelineID = t.ID
		}

		body, err := json.Marshal(payload)
		if err != nil {
			logger.Error("failed to encode webhook payload", "error", err)
			return false
		}

		resp, err := client.Post(cfg.URL, "application/json", bytes.NewReader(body))
		if err != nil {
			logger.Error("webhook delivery failed", "url", cfg.URL, "error", err)
			return false
		}
		defer resp.Body.Close()

		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			logger.Error("webhook returned non-success status",
				"url", cfg.URL,
				"status", resp.StatusCode,
			)
			return false
		}
		return true
	}
}
