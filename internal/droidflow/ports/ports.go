package ports

import (
	"context"

	"github.com/soochol/droidflow/internal/droidflow"
)

// DeviceDriver enumerates and connects to devices. Services that need a
// device should depend on this interface rather than on a concrete driver.
type DeviceDriver interface {
	ListDevices(ctx context.Context) ([]string, error)
	Connect(ctx context.Context, serial string) (droidflow.Device, error)
}

// WorkflowResolver maps a RunConfig to a constructed workflow.
type WorkflowResolver interface {
	Resolve(cfg *droidflow.RunConfig) (droidflow.Workflow, error)
}

// Notifier reports a run outcome to a human operator.
type Notifier interface {
	Notify(ctx context.Context, success bool, message string, runErr error) error
}
