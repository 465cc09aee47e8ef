package script

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/spf13/pflag"

	"github.com/soochol/droidflow/internal/droidflow"
	"github.com/soochol/droidflow/internal/services"
)

var (
	ErrNoDevice    = errors.New("no device attached")
	ErrExpectation = errors.New("expectation not met")
)

// Plugin exposes a Definition as a workflow implementation.
type Plugin struct {
	Def   *Definition
	Clock services.Clock
}

func (p *Plugin) WorkflowName() droidflow.WorkflowName { return p.Def.Name }

func (p *Plugin) RegisterFlags(fs *pflag.FlagSet) {
	for _, f := range p.Def.Flags {
		usage := f.Usage
		if usage == "" {
			usage = fmt.Sprintf("%s option", p.Def.Name)
		}
		fs.String(f.Name, f.Default, usage)
	}
}

func (p *Plugin) New(cfg *droidflow.RunConfig) (droidflow.Workflow, error) {
	clock := p.Clock
	if clock == nil {
		clock = services.RealClock{}
	}
	w := &Workflow{
		def:    p.Def,
		device: cfg.Device,
		clock:  clock,
		flags:  make(map[string]string, len(p.Def.Flags)),
		logger: slog.Default().With("workflow", p.Def.Name),
	}
	for _, f := range p.Def.Flags {
		w.flags[f.Name] = cfg.FlagString(f.Name, f.Default)
	}
	w.ActionTable = droidflow.NewActionTable(p.Def.Name)
	for name, steps := range p.Def.Actions {
		w.Handle(name, w.steps(steps))
	}
	return w, nil
}

// Workflow runs the steps of a Definition against a device.
type Workflow struct {
	*droidflow.ActionTable

	def    *Definition
	device droidflow.Device
	clock  services.Clock
	flags  map[string]string
	logger *slog.Logger
}

func (w *Workflow) PackageName() string { return w.def.Package }

func (w *Workflow) steps(steps []Step) droidflow.ActionHandler {
	return func(ctx context.Context) (bool, error) {
		if w.device == nil {
			return false, ErrNoDevice
		}
		for i := range steps {
			s := &steps[i]
			if s.when != nil {
				ok, err := w.check(ctx, s.when)
				if err != nil {
					return false, fmt.Errorf("step %d (%s): %w", i+1, s.Kind(), err)
				}
				if !ok {
					w.logger.Debug("step skipped", "step", i+1, "kind", s.Kind(), "when", s.When)
					continue
				}
			}
			if err := w.exec(ctx, s); err != nil {
				return false, fmt.Errorf("step %d (%s): %w", i+1, s.Kind(), err)
			}
		}
		return true, nil
	}
}

func (w *Workflow) check(ctx context.Context, c *condition) (bool, error) {
	st, err := w.device.State(ctx)
	if err != nil {
		return false, fmt.Errorf("reading device state: %w", err)
	}
	return c.evaluate(conditionEnv(st, w.def.Package, w.flags))
}

func (w *Workflow) pkg(p *string) string {
	if *p == "" {
		return w.def.Package
	}
	return *p
}

func (w *Workflow) exec(ctx context.Context, s *Step) error {
	switch {
	case s.Launch != nil:
		return w.device.Launch(ctx, w.pkg(s.Launch))
	case s.Stop != nil:
		return w.device.Stop(ctx, w.pkg(s.Stop))
	case s.Press != "":
		return w.device.Press(ctx, s.Press)
	case s.Tap != nil:
		return w.device.Tap(ctx, s.Tap[0], s.Tap[1])
	case s.Swipe != nil:
		return w.device.Swipe(ctx, *s.Swipe)
	case s.Wait > 0:
		return w.clock.Sleep(ctx, s.Wait)
	case s.expect != nil:
		ok, err := w.check(ctx, s.expect)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("%w: %s", ErrExpectation, s.Expect)
		}
		return nil
	}
	return fmt.Errorf("step has no command")
}
