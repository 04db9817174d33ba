package syncer

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// Notification is the user-facing summary emitted after a sufficiently
// stale sync. Temperatures are pre-formatted in the user's unit preference.
type Notification struct {
	Location    string    `json:"location"`
	ConditionID int       `json:"condition_id"`
	Icon        string    `json:"icon"`
	High        string    `json:"high"`
	Low         string    `json:"low"`
	Description string    `json:"description"`
	At          time.Time `json:"at"`
}

// Notifier delivers a notification to the user.
type Notifier interface {
	Notify(ctx context.Context, n Notification) error
}

// LogNotifier writes notifications to the log. It is the default sink for
// headless runs.
type LogNotifier struct{}

func (LogNotifier) Notify(_ context.Context, n Notification) error {
	zap.L().Info("weather notification",
		zap.String("location", n.Location),
		zap.String("icon", n.Icon),
		zap.String("high", n.High),
		zap.String("low", n.Low),
		zap.String("description", n.Description),
	)
	return nil
}

// WebhookNotifier POSTs notifications as JSON to a configured URL.
type WebhookNotifier struct {
	url    string
	client *http.Client
}

// NewWebhookNotifier creates a webhook sink.
func NewWebhookNotifier(url string) *WebhookNotifier {
	return &WebhookNotifier{
		url:    url,
		client: &http.Client{Timeout: 10 * time.Second},
	}
}

func (w *WebhookNotifier) Notify(ctx context.Context, n Notification) error {
	payload, err := json.Marshal(n)
	if err != nil {
		return eris.Wrap(err, "syncer: marshal notification")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.url, bytes.NewReader(payload))
	if err != nil {
		return eris.Wrap(err, "syncer: build webhook request")
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := w.client.Do(req)
	if err != nil {
		return eris.Wrap(err, "syncer: post webhook")
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return eris.Errorf("syncer: webhook returned status %d", resp.StatusCode)
	}
	return nil
}
