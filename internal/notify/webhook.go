package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
)

// WebhookSender posts {"text": message} to an arbitrary URL.
type WebhookSender struct {
	Client *http.Client
}

func (s *WebhookSender) Type() ChannelType { return ChannelWebhook }

func (s *WebhookSender) Send(ctx context.Context, ch *Channel, message string) error {
	if ch.URL == "" {
		return fmt.Errorf("webhook channel %q missing url", ch.Label())
	}
	client := s.Client
	if client == nil {
		client = http.DefaultClient
	}
	body, _ := json.Marshal(map[string]string{"text": message})

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, ch.URL, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if ch.Token != "" {
		req.Header.Set("Authorization", "Bearer "+ch.Token)
	}

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("webhook send: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return fmt.Errorf("webhook returned %d", resp.StatusCode)
	}
	return nil
}
