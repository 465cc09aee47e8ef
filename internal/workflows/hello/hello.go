// Package hello registers the built-in "workflow.hello.world" workflow.
// Every action logs the configured greeting and succeeds, which makes it
// useful for checking device connectivity and notification wiring.
package hello

import (
	"context"
	"log/slog"

	"github.com/spf13/pflag"

	"github.com/soochol/droidflow/internal/droidflow"
	"github.com/soochol/droidflow/internal/registry"
)

const (
	Name droidflow.WorkflowName = "workflow.hello.world"

	FlagGreeting    = "hello-world-greeting"
	DefaultGreeting = "hello"
)

func init() {
	registry.Register(Plugin{})
}

// Plugin is the type-level entry for the hello world workflow.
type Plugin struct{}

func (Plugin) WorkflowName() droidflow.WorkflowName { return Name }

func (Plugin) RegisterFlags(fs *pflag.FlagSet) {
	fs.String(FlagGreeting, DefaultGreeting, "greeting logged by "+string(Name))
}

func (Plugin) New(cfg *droidflow.RunConfig) (droidflow.Workflow, error) {
	w := &Workflow{
		greeting: cfg.FlagString(FlagGreeting, DefaultGreeting),
		device:   cfg.Device,
		logger:   slog.Default().With("workflow", Name),
	}
	w.ActionTable = droidflow.NewActionTable(Name).
		Handle("login", w.say("login")).
		Handle("start", w.say("start")).
		Handle("stop", w.say("stop")).
		Handle("status", w.say("status"))
	return w, nil
}

// Workflow is a constructed hello world instance.
type Workflow struct {
	*droidflow.ActionTable

	greeting string
	device   droidflow.Device
	logger   *slog.Logger
}

// Greeting returns the configured greeting.
func (w *Workflow) Greeting() string { return w.greeting }

// PackageName has no real Android package behind it.
func (w *Workflow) PackageName() string { return string(Name) }

func (w *Workflow) say(action string) droidflow.ActionHandler {
	return func(ctx context.Context) (bool, error) {
		serial := ""
		if w.device != nil {
			serial = w.device.Serial()
		}
		w.logger.InfoContext(ctx, w.greeting, "action", action, "serial", serial)
		return true, nil
	}
}
