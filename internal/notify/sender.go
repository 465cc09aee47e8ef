package notify

import (
	"context"
	"fmt"
	"net/http"
	"sync"
)

// Sender delivers messages to an external service.
type Sender interface {
	// Type returns the channel type this sender handles.
	Type() ChannelType
	// Send delivers a message using the channel's credentials.
	Send(ctx context.Context, ch *Channel, message string) error
}

// SenderRegistry maps channel types to their senders.
type SenderRegistry struct {
	mu      sync.RWMutex
	senders map[ChannelType]Sender
}

func NewSenderRegistry() *SenderRegistry {
	return &SenderRegistry{senders: make(map[ChannelType]Sender)}
}

// DefaultSenders returns a registry with every built-in sender, sharing client.
func DefaultSenders(client *http.Client) *SenderRegistry {
	r := NewSenderRegistry()
	r.Register(&TelegramSender{Client: client})
	r.Register(&SlackSender{Client: client})
	r.Register(&TwilioSender{Client: client})
	r.Register(&WebhookSender{Client: client})
	r.Register(&SMTPSender{})
	return r
}

// Register adds a sender for a channel type.
func (r *SenderRegistry) Register(s Sender) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.senders[s.Type()] = s
}

// Get returns the sender for the given channel type.
func (r *SenderRegistry) Get(t ChannelType) (Sender, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.senders[t]
	if !ok {
		return nil, fmt.Errorf("no sender registered for channel type %q", t)
	}
	return s, nil
}
