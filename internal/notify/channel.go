package notify

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/soochol/droidflow/internal/secret"
)

// ChannelType identifies the kind of external service a channel targets.
type ChannelType string

const (
	ChannelTelegram ChannelType = "telegram"
	ChannelSlack    ChannelType = "slack"
	ChannelSMTP     ChannelType = "smtp"
	ChannelTwilio   ChannelType = "twilio"
	ChannelWebhook  ChannelType = "webhook"
)

// Channel stores credentials and addressing for one notification target.
type Channel struct {
	Name       string      `yaml:"name"`
	Type       ChannelType `yaml:"type"`
	Host       string      `yaml:"host,omitempty"`
	Port       int         `yaml:"port,omitempty"`
	Login      string      `yaml:"login,omitempty"`
	Password   string      `yaml:"password,omitempty"`
	Token      string      `yaml:"token,omitempty"`
	ChatID     string      `yaml:"chat_id,omitempty"`
	WebhookURL string      `yaml:"webhook_url,omitempty"`
	SlackRoom  string      `yaml:"channel,omitempty"`
	URL        string      `yaml:"url,omitempty"` // API base override
	AccountSID string      `yaml:"account_sid,omitempty"`
	AuthToken  string      `yaml:"auth_token,omitempty"`
	From       string      `yaml:"from,omitempty"`
	To         string      `yaml:"to,omitempty"`
	Subject    string      `yaml:"subject,omitempty"`
}

// Label names the channel in logs and errors.
func (c *Channel) Label() string {
	if c.Name != "" {
		return c.Name
	}
	return string(c.Type)
}

// missing lists required fields that are empty for the channel's type.
func (c *Channel) missing() []string {
	var req map[string]string
	switch c.Type {
	case ChannelTwilio:
		req = map[string]string{"account_sid": c.AccountSID, "auth_token": c.AuthToken, "from": c.From, "to": c.To}
	case ChannelTelegram:
		req = map[string]string{"token": c.Token, "chat_id": c.ChatID}
	case ChannelSlack:
		url := c.WebhookURL
		if url == "" {
			url = c.Host
		}
		req = map[string]string{"webhook_url": url}
	case ChannelSMTP:
		req = map[string]string{"host": c.Host, "to": c.To}
	case ChannelWebhook:
		req = map[string]string{"url": c.URL}
	}
	var out []string
	for k, v := range req {
		if strings.TrimSpace(v) == "" {
			out = append(out, k)
		}
	}
	sort.Strings(out)
	return out
}

// Config is the messaging configuration file.
type Config struct {
	Channels []Channel `yaml:"channels"`
}

// fileConfig also accepts a single flat Twilio channel at the top level.
type fileConfig struct {
	Channels []Channel `yaml:"channels"`
	Channel  `yaml:",inline"`
}

// LoadConfig reads a YAML or JSON messaging config from path.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading messaging config: %w", err)
	}
	return ParseConfig(data)
}

// ParseConfig decodes and validates a messaging config document.
func ParseConfig(data []byte) (*Config, error) {
	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return nil, fmt.Errorf("parsing messaging config: %w", err)
	}

	cfg := &Config{Channels: fc.Channels}
	if flat := fc.Channel; flat.AccountSID != "" || flat.AuthToken != "" || flat.From != "" || flat.To != "" {
		if flat.Type == "" {
			flat.Type = ChannelTwilio
		}
		cfg.Channels = append(cfg.Channels, flat)
	}

	var errs []error
	for i := range cfg.Channels {
		ch := &cfg.Channels[i]
		if ch.Type == "" {
			errs = append(errs, fmt.Errorf("channel %d: missing type", i))
			continue
		}
		if m := ch.missing(); len(m) > 0 {
			errs = append(errs, fmt.Errorf("messaging config missing required field(s) for %s: %s",
				ch.Label(), strings.Join(m, ", ")))
		}
	}
	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	return cfg, nil
}

// OpenSecrets decrypts sealed credential fields in place.
func (c *Config) OpenSecrets(box *secret.Box) error {
	for i := range c.Channels {
		ch := &c.Channels[i]
		if err := box.OpenAll(&ch.Password, &ch.Token, &ch.AuthToken, &ch.WebhookURL); err != nil {
			return fmt.Errorf("channel %s: %w", ch.Label(), err)
		}
	}
	return nil
}
