package notifier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/quiet-rooms/noisewatch/internal/models"
)

// WebhookConfig holds webhook notifier configuration.
type WebhookConfig struct {
	URL string // endpoint receiving alert payloads as JSON POSTs
}

// Validate validates the webhook configuration.
func (c *WebhookConfig) Validate() error {
	if c.URL == "" {
		return fmt.Errorf("webhook URL is required")
	}
	if !strings.HasPrefix(c.URL, "http://") && !strings.HasPrefix(c.URL, "https://") {
		return fmt.Errorf("webhook URL must be http or https")
	}
	return nil
}

// WebhookNotifier POSTs fired alerts to a configured endpoint.
type WebhookNotifier struct {
	config     WebhookConfig
	httpClient *http.Client
}

// NewWebhookNotifier creates a new webhook notifier.
func NewWebhookNotifier(config WebhookConfig) (*WebhookNotifier, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid webhook config: %w", err)
	}

	return &WebhookNotifier{
		config: config,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}, nil
}

// Name returns "webhook".
func (n *WebhookNotifier) Name() string {
	return "webhook"
}

// webhookPayload is the JSON body sent to the endpoint.
type webhookPayload struct {
	Event     string  `json:"event"`
	Room      string  `json:"room"`
	Level     float64 `json:"sound_level"`
	Threshold float64 `json:"threshold"`
	FiredAt   string  `json:"fired_at"`
	Message   string  `json:"message"`
}

// Send delivers one alert to the endpoint.
func (n *WebhookNotifier) Send(ctx context.Context, alert *models.Alert) error {
	payload := webhookPayload{
		Event:     "noise_alert",
		Room:      alert.RoomName,
		Level:     alert.SoundLevel,
		Threshold: alert.Threshold,
		FiredAt:   alert.FiredAt.Format(time.RFC3339),
		Message: fmt.Sprintf("%s reached %.1f dB (threshold %.1f dB) at %s",
			alert.RoomName, alert.SoundLevel, alert.Threshold, alert.DisplayTime),
	}

	jsonData, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.config.URL, bytes.NewReader(jsonData))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("webhook error: status %d, body: %s", resp.StatusCode, string(body))
	}

	return nil
}

// Close is a no-op for the webhook notifier.
func (n *WebhookNotifier) Close() error {
	return nil
}
