// Package adb drives Android devices through the adb command-line tool.
package adb

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/soochol/droidflow/internal/droidflow"
)

// Driver lists and connects to devices visible to adb.
type Driver struct {
	runner Runner
	logger *slog.Logger
}

type Option func(*Driver)

func WithLogger(l *slog.Logger) Option {
	return func(d *Driver) { d.logger = l }
}

// NewDriver creates a Driver that issues commands through r.
func NewDriver(r Runner, opts ...Option) *Driver {
	d := &Driver{runner: r, logger: slog.Default()}
	for _, o := range opts {
		o(d)
	}
	return d
}

// ListDevices returns serials of devices in the "device" state.
func (d *Driver) ListDevices(ctx context.Context) ([]string, error) {
	out, err := d.runner.Run(ctx, "devices")
	if err != nil {
		return nil, fmt.Errorf("%w: listing devices: %w", droidflow.ErrDeviceUnavailable, err)
	}
	return parseDevices(out), nil
}

// Connect checks that serial is online and returns a handle to it.
func (d *Driver) Connect(ctx context.Context, serial string) (droidflow.Device, error) {
	out, err := d.runner.Run(ctx, "-s", serial, "get-state")
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", droidflow.ErrDeviceUnavailable, serial, err)
	}
	if state := strings.TrimSpace(out); state != "device" {
		return nil, fmt.Errorf("%w: %s is %q", droidflow.ErrDeviceUnavailable, serial, state)
	}
	d.logger.Debug("adb device online", "serial", serial)
	return &device{serial: serial, runner: d.runner}, nil
}

type device struct {
	serial string
	runner Runner
}

func (d *device) Serial() string { return d.serial }

func (d *device) shell(ctx context.Context, args ...string) (string, error) {
	return d.runner.Run(ctx, append([]string{"-s", d.serial, "shell"}, args...)...)
}

func (d *device) State(ctx context.Context) (droidflow.DeviceState, error) {
	power, err := d.shell(ctx, "dumpsys", "power")
	if err != nil {
		return droidflow.DeviceState{}, fmt.Errorf("reading power state: %w", err)
	}
	window, err := d.shell(ctx, "dumpsys", "window")
	if err != nil {
		return droidflow.DeviceState{}, fmt.Errorf("reading window focus: %w", err)
	}
	return droidflow.DeviceState{
		ScreenOn:   parseScreenOn(power),
		Foreground: parseForeground(window),
	}, nil
}

func (d *device) Wake(ctx context.Context) error {
	_, err := d.shell(ctx, "input", "keyevent", "KEYCODE_WAKEUP")
	return err
}

func (d *device) Unlock(ctx context.Context, s droidflow.Swipe) error {
	return d.Swipe(ctx, s)
}

func (d *device) Swipe(ctx context.Context, s droidflow.Swipe) error {
	_, err := d.shell(ctx, "input", "swipe",
		itoa(s.FromX), itoa(s.FromY), itoa(s.ToX), itoa(s.ToY), itoa(int(s.Duration.Milliseconds())))
	return err
}

func (d *device) Tap(ctx context.Context, x, y int) error {
	_, err := d.shell(ctx, "input", "tap", itoa(x), itoa(y))
	return err
}

func (d *device) Press(ctx context.Context, key string) error {
	code := keycode(key)
	if !safeArgRe.MatchString(code) {
		return fmt.Errorf("invalid key %q", key)
	}
	_, err := d.shell(ctx, "input", "keyevent", code)
	return err
}

func (d *device) Launch(ctx context.Context, pkg string) error {
	if !safeArgRe.MatchString(pkg) {
		return fmt.Errorf("invalid package name %q", pkg)
	}
	_, err := d.shell(ctx, "monkey", "-p", pkg, "-c", "android.intent.category.LAUNCHER", "1")
	return err
}

func (d *device) Stop(ctx context.Context, pkg string) error {
	if !safeArgRe.MatchString(pkg) {
		return fmt.Errorf("invalid package name %q", pkg)
	}
	_, err := d.shell(ctx, "am", "force-stop", pkg)
	return err
}

func itoa(n int) string { return strconv.Itoa(n) }
