package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
)

// SlackSender sends messages via a Slack incoming webhook URL.
type SlackSender struct {
	Client *http.Client
}

func (s *SlackSender) Type() ChannelType { return ChannelSlack }

func (s *SlackSender) Send(ctx context.Context, ch *Channel, message string) error {
	webhookURL := ch.WebhookURL
	if webhookURL == "" {
		webhookURL = ch.Host
	}
	if webhookURL == "" {
		return fmt.Errorf("slack channel %q missing webhook_url", ch.Label())
	}

	client := s.Client
	if client == nil {
		client = http.DefaultClient
	}

	payload := map[string]string{"text": message}
	if ch.SlackRoom != "" {
		payload["channel"] = ch.SlackRoom
	}
	body, _ := json.Marshal(payload)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, webhookURL, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("slack send: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return fmt.Errorf("slack API returned %d", resp.StatusCode)
	}
	return nil
}
