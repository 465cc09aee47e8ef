package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/soochol/droidflow/internal/droidflow"
	"github.com/soochol/droidflow/internal/droidflow/ports"
)

const (
	defaultSettle        = 500 * time.Millisecond
	defaultRewakeAfter   = 30 * time.Second
	defaultNotifyTimeout = 30 * time.Second
	defaultLockedPackage = "com.android.systemui"
)

// Orchestrator runs one workflow action against one connected device:
// wake, pre-dispatch hooks, dispatch, optional return home, notify.
type Orchestrator struct {
	cfg      *droidflow.RunConfig
	device   droidflow.Device
	resolver ports.WorkflowResolver
	notifier ports.Notifier

	hooks         []PreDispatchHook
	clock         Clock
	settle        time.Duration
	rewakeAfter   time.Duration
	notifyTimeout time.Duration
	unlockSwipe   droidflow.Swipe
	lockedPackage string
	runID         string
	logger        *slog.Logger
}

// OrchestratorOption configures an Orchestrator.
type OrchestratorOption func(*Orchestrator)

// WithHooks appends pre-dispatch hooks after the random delay.
func WithHooks(hooks ...PreDispatchHook) OrchestratorOption {
	return func(o *Orchestrator) { o.hooks = append(o.hooks, hooks...) }
}

func WithClock(c Clock) OrchestratorOption {
	return func(o *Orchestrator) { o.clock = c }
}

// WithSettle sets the pause after wake and unlock gestures.
func WithSettle(d time.Duration) OrchestratorOption {
	return func(o *Orchestrator) { o.settle = d }
}

// WithRewakeAfter repeats the wake step when hooks blocked at least d.
// Zero disables the repeat.
func WithRewakeAfter(d time.Duration) OrchestratorOption {
	return func(o *Orchestrator) { o.rewakeAfter = d }
}

func WithUnlockSwipe(s droidflow.Swipe) OrchestratorOption {
	return func(o *Orchestrator) { o.unlockSwipe = s }
}

// WithLockedPackage sets the foreground package that means "locked".
func WithLockedPackage(pkg string) OrchestratorOption {
	return func(o *Orchestrator) { o.lockedPackage = pkg }
}

func WithRunID(id string) OrchestratorOption {
	return func(o *Orchestrator) { o.runID = id }
}

func WithLogger(l *slog.Logger) OrchestratorOption {
	return func(o *Orchestrator) { o.logger = l }
}

// NewOrchestrator connects to the device named by cfg.DeviceID, or to the
// first reachable device, and attaches it to cfg. Connection failures wrap
// droidflow.ErrDeviceUnavailable and happen before anything is notified.
func NewOrchestrator(
	ctx context.Context,
	cfg *droidflow.RunConfig,
	driver ports.DeviceDriver,
	resolver ports.WorkflowResolver,
	notifier ports.Notifier,
	opts ...OrchestratorOption,
) (*Orchestrator, error) {
	o := &Orchestrator{
		cfg:           cfg,
		resolver:      resolver,
		notifier:      notifier,
		clock:         RealClock{},
		settle:        defaultSettle,
		rewakeAfter:   defaultRewakeAfter,
		notifyTimeout: defaultNotifyTimeout,
		unlockSwipe:   droidflow.DefaultUnlockSwipe,
		lockedPackage: defaultLockedPackage,
		runID:         uuid.NewString(),
		logger:        slog.Default(),
	}
	for _, opt := range opts {
		opt(o)
	}
	o.logger = o.logger.With("run_id", o.runID)
	o.hooks = append([]PreDispatchHook{&RandomDelay{
		MaxMinutes: cfg.DelayMinutesMax,
		Clock:      o.clock,
		Logger:     o.logger,
	}}, o.hooks...)

	dev, err := o.connect(ctx, driver)
	if err != nil {
		return nil, err
	}
	o.device = dev
	cfg.Device = dev
	return o, nil
}

func (o *Orchestrator) connect(ctx context.Context, driver ports.DeviceDriver) (droidflow.Device, error) {
	serial := o.cfg.DeviceID
	if serial == "" {
		serials, err := driver.ListDevices(ctx)
		if err != nil {
			return nil, asDeviceUnavailable(err)
		}
		if len(serials) == 0 {
			return nil, fmt.Errorf("%w: no connected Android devices", droidflow.ErrDeviceUnavailable)
		}
		if len(serials) > 1 {
			o.logger.Info("multiple devices found, using the first", "count", len(serials), "serials", serials)
		}
		serial = serials[0]
	}

	dev, err := driver.Connect(ctx, serial)
	if err != nil {
		return nil, asDeviceUnavailable(err)
	}
	o.logger.Info("device connected", "serial", serial)
	return dev, nil
}

func asDeviceUnavailable(err error) error {
	if errors.Is(err, droidflow.ErrDeviceUnavailable) {
		return err
	}
	return fmt.Errorf("%w: %w", droidflow.ErrDeviceUnavailable, err)
}

// RunID identifies this run in logs.
func (o *Orchestrator) RunID() string { return o.runID }

// Device returns the connected device.
func (o *Orchestrator) Device() droidflow.Device { return o.device }

// Run executes the configured action. Workflow failures, including panics,
// are contained in the returned result. The error is non-nil only when
// notification failed; it wraps droidflow.ErrNotification and the result is
// still valid.
func (o *Orchestrator) Run(ctx context.Context) (droidflow.ActionResult, error) {
	log := o.logger.With("workflow", o.cfg.Workflow, "action", o.cfg.Action)
	log.Info("run started", "serial", o.device.Serial(), "delay_max_minutes", o.cfg.DelayMinutesMax)

	o.wake(ctx, log)
	wf, success, runErr := o.dispatch(ctx, log)
	if o.cfg.ReturnHome {
		o.returnHome(ctx, wf, log)
	}

	if runErr != nil {
		log.Error("action failed", "err", runErr)
	}
	result := droidflow.NewActionResult(o.cfg.Workflow, o.cfg.Action, success, runErr)
	log.Info("run finished", "success", success)

	if o.notifier == nil {
		return result, nil
	}
	message := fmt.Sprintf("%s:%s %t", o.cfg.Workflow, o.cfg.Action, success)
	nctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), o.notifyTimeout)
	defer cancel()
	if err := o.notifier.Notify(nctx, success, message, runErr); err != nil {
		return result, fmt.Errorf("%w: %w", droidflow.ErrNotification, err)
	}
	return result, nil
}

// wake turns the screen on and dismisses the lock screen. It never fails
// the run.
func (o *Orchestrator) wake(ctx context.Context, log *slog.Logger) {
	st, err := o.device.State(ctx)
	if err != nil {
		log.Warn("could not read device state", "err", err)
		return
	}
	log.Debug("device state", "screen_on", st.ScreenOn, "foreground", st.Foreground)

	if !st.ScreenOn {
		if err := o.device.Wake(ctx); err != nil {
			log.Warn("wake failed", "err", err)
		} else {
			o.pause(ctx)
			if st, err = o.device.State(ctx); err != nil {
				log.Warn("could not read device state after wake", "err", err)
				return
			}
		}
	}

	if st.Foreground == o.lockedPackage {
		if err := o.device.Unlock(ctx, o.unlockSwipe); err != nil {
			log.Warn("unlock failed", "err", err)
			return
		}
		o.pause(ctx)
		log.Debug("unlock gesture sent")
	}
}

func (o *Orchestrator) pause(ctx context.Context) {
	_ = o.clock.Sleep(ctx, o.settle)
}

// dispatch runs the hooks, resolves the workflow and invokes the action.
// Panics are recovered into droidflow.ErrWorkflowRuntime.
func (o *Orchestrator) dispatch(ctx context.Context, log *slog.Logger) (wf droidflow.Workflow, ok bool, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			ok = false
			err = fmt.Errorf("%w: panic: %v", droidflow.ErrWorkflowRuntime, rec)
		}
	}()

	start := o.clock.Now()
	for _, h := range o.hooks {
		if err := h.BeforeDispatch(ctx, o.cfg); err != nil {
			return nil, false, classify(fmt.Errorf("pre-dispatch: %w", err))
		}
	}
	if o.rewakeAfter > 0 && o.clock.Now().Sub(start) >= o.rewakeAfter {
		log.Debug("re-waking device after pre-dispatch delay")
		o.wake(ctx, log)
	}

	wf, err = o.resolver.Resolve(o.cfg)
	if err != nil {
		return nil, false, classify(err)
	}
	ok, err = wf.Run(ctx, o.cfg.Action)
	if err != nil {
		return wf, false, classify(err)
	}
	return wf, ok, nil
}

// classify keeps lookup and configuration errors as they are and marks
// everything else as a workflow runtime error.
func classify(err error) error {
	switch {
	case errors.Is(err, droidflow.ErrUnknownAction),
		errors.Is(err, droidflow.ErrConfiguration),
		errors.Is(err, droidflow.ErrWorkflowRuntime):
		return err
	default:
		return fmt.Errorf("%w: %w", droidflow.ErrWorkflowRuntime, err)
	}
}

// returnHome stops the workflow's package, when it declares one, and
// presses home. Best effort.
func (o *Orchestrator) returnHome(ctx context.Context, wf droidflow.Workflow, log *slog.Logger) {
	if p, ok := wf.(droidflow.Packager); ok && p.PackageName() != "" {
		if err := o.device.Stop(ctx, p.PackageName()); err != nil {
			log.Warn("stopping package failed", "package", p.PackageName(), "err", err)
		}
	}
	if err := o.device.Press(ctx, "home"); err != nil {
		log.Warn("pressing home failed", "err", err)
	}
}
