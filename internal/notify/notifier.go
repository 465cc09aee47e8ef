package notify

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"
)

const (
	successPrefix = "✅ "
	failurePrefix = "❌ "
)

// FormatMessage renders the operator-facing text for a run outcome.
func FormatMessage(success bool, message string, runErr error) string {
	prefix := failurePrefix
	if success {
		prefix = successPrefix
	}
	text := prefix + message
	if runErr != nil {
		text += "\n" + runErr.Error()
	}
	return text
}

// Notifier fans a run outcome out to every configured channel.
type Notifier struct {
	channels []Channel
	senders  *SenderRegistry
	logger   *slog.Logger
	retry    RetryPolicy
	sleep    func(context.Context, time.Duration) error
}

// NotifierOption configures a Notifier.
type NotifierOption func(*Notifier)

func WithLogger(l *slog.Logger) NotifierOption {
	return func(n *Notifier) { n.logger = l }
}

// WithRetryPolicy retries transient per-channel failures. The zero policy
// sends once.
func WithRetryPolicy(p RetryPolicy) NotifierOption {
	return func(n *Notifier) { n.retry = p }
}

func withSleep(fn func(context.Context, time.Duration) error) NotifierOption {
	return func(n *Notifier) { n.sleep = fn }
}

// NewNotifier creates a Notifier for channels using senders.
func NewNotifier(channels []Channel, senders *SenderRegistry, opts ...NotifierOption) *Notifier {
	n := &Notifier{channels: channels, senders: senders, logger: slog.Default(), sleep: sleepContext}
	for _, o := range opts {
		o(n)
	}
	return n
}

// Notify sends the formatted outcome to all channels concurrently. One
// failing channel does not stop the others; failures are joined.
func (n *Notifier) Notify(ctx context.Context, success bool, message string, runErr error) error {
	if len(n.channels) == 0 {
		n.logger.Debug("no notification channels configured")
		return nil
	}
	text := FormatMessage(success, message, runErr)

	errs := make([]error, len(n.channels))
	g, gCtx := errgroup.WithContext(ctx)
	for i := range n.channels {
		i := i
		ch := &n.channels[i]
		g.Go(func() error {
			err := n.send(gCtx, ch, text)
			if err != nil {
				// Partial failure: record and keep the other channels going.
				errs[i] = fmt.Errorf("channel %q: %w", ch.Label(), err)
				n.logger.Warn("notification failed", "channel", ch.Label(), "err", err)
				return nil
			}
			n.logger.Debug("notification sent", "channel", ch.Label())
			return nil
		})
	}
	_ = g.Wait() // errors are collected in errs, not returned
	return errors.Join(errs...)
}

// send delivers to one channel, retrying transient failures per the policy.
func (n *Notifier) send(ctx context.Context, ch *Channel, text string) error {
	sender, err := n.senders.Get(ch.Type)
	if err != nil {
		return err
	}
	for attempt := 0; ; attempt++ {
		err = sender.Send(ctx, ch, text)
		if err == nil || attempt >= n.retry.MaxRetries || !isRetryable(err) {
			return err
		}
		delay := n.retry.backoff(attempt)
		n.logger.Debug("retrying notification", "channel", ch.Label(), "attempt", attempt+1, "delay", delay, "err", err)
		if serr := n.sleep(ctx, delay); serr != nil {
			return err
		}
	}
}

// Discard is a notifier that only logs.
type Discard struct {
	Logger *slog.Logger
}

func (d Discard) Notify(_ context.Context, success bool, message string, runErr error) error {
	l := d.Logger
	if l == nil {
		l = slog.Default()
	}
	l.Info("notification skipped", "success", success, "message", message, "err", runErr)
	return nil
}
