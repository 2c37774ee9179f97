package discord

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"time"

	"gatekeep/errors"
	"gatekeep/eventbus"
	"gatekeep/logging"
	"gatekeep/verify"
)

// Embed color for verification notices.
const verifiedColor = 0x00ff00

// Notifier posts completed verifications to a Discord webhook as embeds.
// Delivery is best-effort; failures are reported to the event bus, which
// logs and drops them.
type Notifier struct {
	webhookURL string
	client     *http.Client
}

// NotifierOption configures a Notifier.
type NotifierOption func(*Notifier)

// WithNotifierTimeout bounds each webhook post.
func WithNotifierTimeout(timeout time.Duration) NotifierOption {
	return func(n *Notifier) {
		if timeout > 0 {
			n.client.Timeout = timeout
		}
	}
}

// NewNotifier returns a Notifier posting to webhookURL.
func NewNotifier(webhookURL string, opts ...NotifierOption) *Notifier {
	n := &Notifier{
		webhookURL: webhookURL,
		client:     &http.Client{Timeout: DefaultTimeout},
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

type embedField struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Inline bool   `json:"inline,omitempty"`
}

type embed struct {
	Title     string       `json:"title"`
	Color     int          `json:"color"`
	Fields    []embedField `json:"fields"`
	Timestamp string       `json:"timestamp"`
}

type webhookPayload struct {
	Embeds []embed `json:"embeds"`
}

// Subscriber returns the event bus handler that posts audit events. Wire it
// to verify.CompletedTopic.
func (n *Notifier) Subscriber() eventbus.Handler {
	return func(ctx context.Context, msg *eventbus.Message) error {
		event, ok := msg.Data.(verify.AuditEvent)
		if !ok {
			return errors.Errorf("discord: unexpected event payload %T", msg.Data)
		}
		return n.Notify(ctx, event)
	}
}

// Notify posts a single audit event to the webhook.
func (n *Notifier) Notify(ctx context.Context, event verify.AuditEvent) error {
	email := event.Email
	if email == "" {
		email = "not provided"
	}
	payload := webhookPayload{
		Embeds: []embed{{
			Title: "Member verified",
			Color: verifiedColor,
			Fields: []embedField{
				{Name: "Username", Value: event.DisplayName, Inline: true},
				{Name: "User ID", Value: event.ExternalID, Inline: true},
				{Name: "Email", Value: email},
				{Name: "IP", Value: event.SourceAddr},
			},
			Timestamp: event.Timestamp.UTC().Format(time.RFC3339),
		}},
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return errors.Wrap(err, 0)
	}
	req, _ := http.NewRequestWithContext(ctx, http.MethodPost, n.webhookURL, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp, err := n.client.Do(req)
	if err != nil {
		return errors.Errorf("discord: webhook post failed: %s", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return errors.Errorf("discord: webhook post returned status %d", resp.StatusCode)
	}
	logging.Debugw(ctx, "discord: audit notice posted", "eventId", event.EventID)
	return nil
}
