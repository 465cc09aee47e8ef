package notify

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
)

type recordingSender struct {
	typ  ChannelType
	fail error

	mu   sync.Mutex
	sent []string
}

func (s *recordingSender) Type() ChannelType { return s.typ }

func (s *recordingSender) Send(_ context.Context, ch *Channel, message string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sent = append(s.sent, ch.Label()+"|"+message)
	return s.fail
}

func TestFormatMessage(t *testing.T) {
	tests := []struct {
		name    string
		success bool
		err     error
		want    string
	}{
		{"success", true, nil, "✅ wf:login true"},
		{"failure", false, nil, "❌ wf:login true"},
		{"failure with error", false, errors.New("unknown action"), "❌ wf:login true\nunknown action"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FormatMessage(tt.success, "wf:login true", tt.err); got != tt.want {
				t.Errorf("FormatMessage() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestNotifier_FanOut(t *testing.T) {
	ok := &recordingSender{typ: ChannelSlack}
	bad := &recordingSender{typ: ChannelTwilio, fail: errors.New("twilio API returned 401")}
	reg := NewSenderRegistry()
	reg.Register(ok)
	reg.Register(bad)

	n := NewNotifier([]Channel{
		{Name: "ops", Type: ChannelSlack},
		{Name: "sms", Type: ChannelTwilio},
		{Name: "pager", Type: ChannelTelegram},
	}, reg)

	err := n.Notify(context.Background(), true, "workflow.hello.world:login true", nil)
	if err == nil {
		t.Fatal("expected joined error")
	}
	msg := err.Error()
	if !strings.Contains(msg, `channel "sms": twilio API returned 401`) {
		t.Errorf("err = %q, missing sms failure", msg)
	}
	if !strings.Contains(msg, `channel "pager": no sender registered`) {
		t.Errorf("err = %q, missing pager failure", msg)
	}
	if len(ok.sent) != 1 || ok.sent[0] != "ops|✅ workflow.hello.world:login true" {
		t.Errorf("slack sent = %v", ok.sent)
	}
	if len(bad.sent) != 1 {
		t.Errorf("twilio attempts = %d, want 1", len(bad.sent))
	}
}

func TestNotifier_NoChannels(t *testing.T) {
	n := NewNotifier(nil, NewSenderRegistry())
	if err := n.Notify(context.Background(), false, "x", errors.New("boom")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := (Discard{}).Notify(context.Background(), true, "x", nil); err != nil {
		t.Fatalf("Discard.Notify: %v", err)
	}
}
