package notify

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
)

const twilioAPI = "https://api.twilio.com"

// TwilioSender sends SMS messages through the Twilio REST API.
type TwilioSender struct {
	Client *http.Client
}

func (s *TwilioSender) Type() ChannelType { return ChannelTwilio }

func (s *TwilioSender) Send(ctx context.Context, ch *Channel, message string) error {
	if m := ch.missing(); len(m) > 0 {
		return fmt.Errorf("twilio channel %q missing %s", ch.Label(), strings.Join(m, ", "))
	}

	client := s.Client
	if client == nil {
		client = http.DefaultClient
	}

	base := twilioAPI
	if ch.URL != "" {
		base = strings.TrimRight(ch.URL, "/")
	}
	endpoint := fmt.Sprintf("%s/2010-04-01/Accounts/%s/Messages.json", base, url.PathEscape(ch.AccountSID))
	form := url.Values{
		"From": {ch.From},
		"To":   {ch.To},
		"Body": {message},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.SetBasicAuth(ch.AccountSID, ch.AuthToken)

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("twilio send: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return fmt.Errorf("twilio API returned %d", resp.StatusCode)
	}
	return nil
}
