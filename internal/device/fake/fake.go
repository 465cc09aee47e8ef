// Package fake provides an in-memory device driver for tests and dry runs.
package fake

import (
	"context"
	"fmt"
	"sync"

	"github.com/soochol/droidflow/internal/droidflow"
)

// LauncherPackage is the foreground package after Press("home").
const LauncherPackage = "com.android.launcher3"

// Device records every command and mutates its state the way a real
// device roughly would.
type Device struct {
	mu sync.Mutex

	ID    string
	state droidflow.DeviceState

	// StateErr and Errs inject failures; Errs is keyed by command name.
	StateErr error
	Errs     map[string]error

	calls []string
}

// NewDevice returns a device whose screen is off and locked.
func NewDevice(serial string) *Device {
	return &Device{ID: serial, state: droidflow.DeviceState{Foreground: "com.android.systemui"}}
}

// SetState replaces the current state.
func (d *Device) SetState(s droidflow.DeviceState) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.state = s
}

// Calls returns the commands issued so far.
func (d *Device) Calls() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]string(nil), d.calls...)
}

func (d *Device) record(name, call string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.calls = append(d.calls, call)
	return d.Errs[name]
}

func (d *Device) Serial() string { return d.ID }

func (d *Device) State(context.Context) (droidflow.DeviceState, error) {
	if err := d.record("state", "state"); err != nil {
		return droidflow.DeviceState{}, err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.StateErr != nil {
		return droidflow.DeviceState{}, d.StateErr
	}
	return d.state, nil
}

func (d *Device) Wake(context.Context) error {
	if err := d.record("wake", "wake"); err != nil {
		return err
	}
	d.mu.Lock()
	d.state.ScreenOn = true
	d.mu.Unlock()
	return nil
}

func (d *Device) Unlock(_ context.Context, s droidflow.Swipe) error {
	if err := d.record("unlock", "unlock "+swipeString(s)); err != nil {
		return err
	}
	d.mu.Lock()
	d.state.Foreground = LauncherPackage
	d.mu.Unlock()
	return nil
}

func (d *Device) Swipe(_ context.Context, s droidflow.Swipe) error {
	return d.record("swipe", "swipe "+swipeString(s))
}

func (d *Device) Tap(_ context.Context, x, y int) error {
	return d.record("tap", fmt.Sprintf("tap %d,%d", x, y))
}

func (d *Device) Press(_ context.Context, key string) error {
	if err := d.record("press", "press "+key); err != nil {
		return err
	}
	if key == "home" {
		d.mu.Lock()
		d.state.Foreground = LauncherPackage
		d.mu.Unlock()
	}
	return nil
}

func (d *Device) Launch(_ context.Context, pkg string) error {
	if err := d.record("launch", "launch "+pkg); err != nil {
		return err
	}
	d.mu.Lock()
	d.state.Foreground = pkg
	d.mu.Unlock()
	return nil
}

func (d *Device) Stop(_ context.Context, pkg string) error {
	if err := d.record("stop", "stop "+pkg); err != nil {
		return err
	}
	d.mu.Lock()
	if d.state.Foreground == pkg {
		d.state.Foreground = LauncherPackage
	}
	d.mu.Unlock()
	return nil
}

func swipeString(s droidflow.Swipe) string {
	return fmt.Sprintf("%d,%d->%d,%d %s", s.FromX, s.FromY, s.ToX, s.ToY, s.Duration)
}

// Driver serves a fixed set of devices in list order.
type Driver struct {
	mu      sync.Mutex
	devices []*Device
	ListErr error

	connected []string
}

func NewDriver(devices ...*Device) *Driver {
	return &Driver{devices: devices}
}

func (d *Driver) ListDevices(context.Context) ([]string, error) {
	if d.ListErr != nil {
		return nil, d.ListErr
	}
	serials := make([]string, len(d.devices))
	for i, dev := range d.devices {
		serials[i] = dev.ID
	}
	return serials, nil
}

func (d *Driver) Connect(_ context.Context, serial string) (droidflow.Device, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, dev := range d.devices {
		if dev.ID == serial {
			d.connected = append(d.connected, serial)
			return dev, nil
		}
	}
	return nil, fmt.Errorf("%w: %s not attached", droidflow.ErrDeviceUnavailable, serial)
}

// Connected returns the serials passed to successful Connect calls.
func (d *Driver) Connected() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]string(nil), d.connected...)
}
