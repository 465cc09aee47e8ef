package droidflow

import (
	"context"

	"github.com/spf13/pflag"
)

// Plugin is the type-level half of a workflow implementation. Its name is
// available without constructing a Workflow.
type Plugin interface {
	// WorkflowName returns the stable name this implementation answers to.
	WorkflowName() WorkflowName
	// New builds a workflow instance. It must not talk to the device.
	New(cfg *RunConfig) (Workflow, error)
	// RegisterFlags declares implementation specific flags. It is called for
	// every discovered plugin, selected or not.
	RegisterFlags(fs *pflag.FlagSet)
}

// Workflow is a constructed implementation bound to one RunConfig.
type Workflow interface {
	// Action resolves a handler, failing with ErrUnknownAction.
	Action(name ActionName) (ActionHandler, error)
	// Run resolves and invokes the handler. Handler errors propagate.
	Run(ctx context.Context, name ActionName) (bool, error)
	// Actions lists the declared action names in sorted order.
	Actions() []ActionName
}

// ActionHandler executes one action and reports its outcome.
type ActionHandler func(ctx context.Context) (bool, error)

// Packager is implemented by workflows driving a specific Android package.
type Packager interface {
	PackageName() string
}
