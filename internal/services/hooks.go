package services

import (
	"context"
	"log/slog"
	"math/rand"
	"time"

	"github.com/soochol/droidflow/internal/droidflow"
)

// PreDispatchHook runs after the wake step and before the workflow is
// resolved. An error fails the run like a dispatch error.
type PreDispatchHook interface {
	BeforeDispatch(ctx context.Context, cfg *droidflow.RunConfig) error
}

// HookFunc adapts a function to PreDispatchHook.
type HookFunc func(ctx context.Context, cfg *droidflow.RunConfig) error

func (f HookFunc) BeforeDispatch(ctx context.Context, cfg *droidflow.RunConfig) error {
	return f(ctx, cfg)
}

// RandomDelay suspends the run for a uniformly sampled whole number of
// minutes in [1, MaxMinutes]. MaxMinutes <= 0 disables it.
type RandomDelay struct {
	MaxMinutes int
	Clock      Clock
	// IntN returns a value in [0, n); defaults to math/rand/v2.IntN.
	IntN   func(n int) int
	Logger *slog.Logger
}

// Sample returns the delay for one run.
func (d *RandomDelay) Sample() time.Duration {
	if d.MaxMinutes <= 0 {
		return 0
	}
	intN := d.IntN
	if intN == nil {
		intN = rand.Intn
	}
	return time.Duration(1+intN(d.MaxMinutes)) * time.Minute
}

func (d *RandomDelay) BeforeDispatch(ctx context.Context, cfg *droidflow.RunConfig) error {
	delay := d.Sample()
	if delay == 0 {
		return nil
	}
	logger := d.Logger
	if logger == nil {
		logger = slog.Default()
	}
	clock := d.Clock
	if clock == nil {
		clock = RealClock{}
	}
	logger.Info("delaying run", "workflow", cfg.Workflow, "delay", delay, "max_minutes", d.MaxMinutes)
	return clock.Sleep(ctx, delay)
}
