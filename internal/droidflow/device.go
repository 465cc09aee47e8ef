package droidflow

import (
	"context"
	"time"
)

// DeviceState is a snapshot of power and foreground state.
type DeviceState struct {
	ScreenOn   bool   `json:"screen_on"`
	Foreground string `json:"foreground"`
}

// Swipe describes a single-finger gesture in screen coordinates.
type Swipe struct {
	FromX    int           `yaml:"from_x"`
	FromY    int           `yaml:"from_y"`
	ToX      int           `yaml:"to_x"`
	ToY      int           `yaml:"to_y"`
	Duration time.Duration `yaml:"duration"`
}

// DefaultUnlockSwipe is an upward swipe over the lock screen.
var DefaultUnlockSwipe = Swipe{FromX: 500, FromY: 1600, ToX: 500, ToY: 400, Duration: 200 * time.Millisecond}

// Device is a connected automation target. The orchestrator owns it for the
// lifetime of one run.
type Device interface {
	Serial() string
	State(ctx context.Context) (DeviceState, error)
	Wake(ctx context.Context) error
	Unlock(ctx context.Context, s Swipe) error
	Swipe(ctx context.Context, s Swipe) error
	Tap(ctx context.Context, x, y int) error
	Press(ctx context.Context, key string) error
	Launch(ctx context.Context, pkg string) error
	Stop(ctx context.Context, pkg string) error
}
