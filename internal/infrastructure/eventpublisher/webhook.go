package eventpublisher

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/iho/upiledger/internal/domain"
)

// WebhookPublisher posts operator alerts to an HTTP endpoint.
// Events that are not operator alerts are ignored.
type WebhookPublisher struct {
	url    string
	client *http.Client
}

// NewWebhookPublisher creates a WebhookPublisher. A nil client gets a 5s timeout.
func NewWebhookPublisher(url string, client *http.Client) *WebhookPublisher {
	if client == nil {
		client = &http.Client{Timeout: 5 * time.Second}
	}
	return &WebhookPublisher{url: url, client: client}
}

type webhookBody struct {
	EventID       string         `json:"event_id"`
	EventType     string         `json:"event_type"`
	AggregateType string         `json:"aggregate_type"`
	AggregateID   string         `json:"aggregate_id"`
	OccurredAt    time.Time      `json:"occurred_at"`
	Payload       map[string]any `json:"payload"`
}

// Publish sends event when it is an operator alert.
func (p *WebhookPublisher) Publish(ctx context.Context, event *domain.OutboxEvent) error {
	if !event.IsOperatorAlert() {
		return nil
	}

	body, err := json.Marshal(webhookBody{
		EventID:       event.ID,
		EventType:     event.EventType,
		AggregateType: event.AggregateType,
		AggregateID:   event.AggregateID,
		OccurredAt:    event.CreatedAt,
		Payload:       event.Payload,
	})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "upiledger-alerts/1.0")
	req.Header.Set("X-Event-ID", event.ID)

	resp, err := p.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("operator webhook returned %d", resp.StatusCode)
	}

	return nil
}
