package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
)

const telegramAPI = "https://api.telegram.org"

// TelegramSender sends messages via the Telegram Bot API.
type TelegramSender struct {
	Client *http.Client
}

func (s *TelegramSender) Type() ChannelType { return ChannelTelegram }

func (s *TelegramSender) Send(ctx context.Context, ch *Channel, message string) error {
	if ch.ChatID == "" {
		return fmt.Errorf("telegram channel %q missing chat_id", ch.Label())
	}

	client := s.Client
	if client == nil {
		client = http.DefaultClient
	}

	base := telegramAPI
	if ch.URL != "" {
		base = strings.TrimRight(ch.URL, "/")
	}
	url := fmt.Sprintf("%s/bot%s/sendMessage", base, ch.Token)
	body, _ := json.Marshal(map[string]string{
		"chat_id": ch.ChatID,
		"text":    message,
	})

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("telegram send: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return fmt.Errorf("telegram API returned %d", resp.StatusCode)
	}
	return nil
}
