package notify

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/tableside/tableside/pkg/types"
)

// Webhook mirrors notifications to a chat tool or generic HTTP endpoint.
// Deliveries run in their own goroutine and failures are only logged.
type Webhook struct {
	kind   string // slack | teams | http
	url    string
	events map[string]bool
	client *http.Client
}

// NewWebhook returns a Webhook posting to url. kind is one of slack, teams or
// http. An empty events list forwards every notification type.
func NewWebhook(kind, url string, events []string) *Webhook {
	w := &Webhook{
		kind:   kind,
		url:    url,
		client: &http.Client{Timeout: 10 * time.Second},
	}
	if len(events) > 0 {
		w.events = make(map[string]bool, len(events))
		for _, e := range events {
			w.events[e] = true
		}
	}
	return w
}

// Publish implements Sink.
func (w *Webhook) Publish(eventType string, payload types.Payload) {
	if w.url == "" || (w.events != nil && !w.events[eventType]) {
		return
	}
	body, err := w.body(eventType, payload)
	if err != nil {
		slog.Error("notify: webhook body", "type", w.kind, "event", eventType, "err", err)
		return
	}
	go w.deliver(eventType, body)
}

func (w *Webhook) deliver(eventType string, body []byte) {
	if err := w.post(body); err != nil {
		slog.Error("notify: webhook delivery failed",
			"type", w.kind,
			"event", eventType,
			"err", err,
		)
		return
	}
	slog.Debug("notify: webhook delivered", "type", w.kind, "event", eventType)
}

func (w *Webhook) body(eventType string, payload types.Payload) ([]byte, error) {
	switch w.kind {
	case "slack":
		return json.Marshal(map[string]string{
			"text": fmt.Sprintf("*%s* %s", eventType, summary(payload)),
		})
	case "teams":
		return json.Marshal(map[string]any{
			"@type":      "MessageCard",
			"@context":   "http://schema.org/extensions",
			"themeColor": "00D4FF",
			"summary":    eventType,
			"title":      fmt.Sprintf("Tableside: %s", eventType),
			"text":       summary(payload),
		})
	case "http":
		return types.EncodeNotification(eventType, payload)
	default:
		return nil, fmt.Errorf("unknown webhook type %q", w.kind)
	}
}

func (w *Webhook) post(body []byte) error {
	req, err := http.NewRequest(http.MethodPost, w.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := w.client.Do(req)
	if err != nil {
		return fmt.Errorf("http post: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return fmt.Errorf("webhook returned HTTP %d", resp.StatusCode)
	}
	return nil
}

// summary prefers the human-readable "message" field producers attach.
func summary(payload types.Payload) string {
	if msg, ok := payload["message"].(string); ok && msg != "" {
		return msg
	}
	if st, ok := payload["status"].(string); ok && st != "" {
		return st
	}
	return ""
}
