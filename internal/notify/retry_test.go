package notify

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"
)

func TestRetryPolicy_Backoff(t *testing.T) {
	p := RetryPolicy{InitialDelay: time.Second, BackoffFactor: 2, MaxDelay: 5 * time.Second}
	tests := []struct {
		attempt int
		want    time.Duration
	}{
		{0, time.Second},
		{1, 2 * time.Second},
		{2, 4 * time.Second},
		{3, 5 * time.Second},
	}
	for _, tt := range tests {
		if got := p.backoff(tt.attempt); got != tt.want {
			t.Errorf("backoff(%d) = %v, want %v", tt.attempt, got, tt.want)
		}
	}
}

func TestIsRetryable(t *testing.T) {
	tests := []struct {
		err  error
		want bool
	}{
		{errors.New("telegram API returned 503"), true},
		{errors.New("slack API returned 429"), true},
		{fmt.Errorf("twilio send: %w", context.DeadlineExceeded), true},
		{errors.New("webhook send: dial tcp: connection refused"), true},
		{errors.New("twilio API returned 401"), false},
		{errors.New(`no sender registered for channel type "pager"`), false},
	}
	for _, tt := range tests {
		if got := isRetryable(tt.err); got != tt.want {
			t.Errorf("isRetryable(%q) = %v, want %v", tt.err, got, tt.want)
		}
	}
}

type flakySender struct {
	failures int
	calls    int
}

func (s *flakySender) Type() ChannelType { return ChannelWebhook }

func (s *flakySender) Send(context.Context, *Channel, string) error {
	s.calls++
	if s.calls <= s.failures {
		return errors.New("webhook returned 503")
	}
	return nil
}

func TestNotifier_RetriesTransientFailures(t *testing.T) {
	var slept []time.Duration
	noSleep := func(_ context.Context, d time.Duration) error {
		slept = append(slept, d)
		return nil
	}

	tests := []struct {
		name      string
		failures  int
		wantCalls int
		wantErr   bool
	}{
		{"recovers on second attempt", 1, 2, false},
		{"gives up after max retries", 5, 3, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			slept = nil
			s := &flakySender{failures: tt.failures}
			reg := NewSenderRegistry()
			reg.Register(s)
			n := NewNotifier([]Channel{{Name: "hook", Type: ChannelWebhook}}, reg,
				WithRetryPolicy(DefaultRetryPolicy), withSleep(noSleep))

			err := n.Notify(context.Background(), true, "wf:status true", nil)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Notify() err = %v, wantErr %v", err, tt.wantErr)
			}
			if s.calls != tt.wantCalls {
				t.Errorf("calls = %d, want %d", s.calls, tt.wantCalls)
			}
			if len(slept) != tt.wantCalls-1 {
				t.Errorf("backoffs = %v", slept)
			}
		})
	}
}
