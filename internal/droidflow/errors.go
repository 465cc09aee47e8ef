package droidflow

import (
	"errors"
	"fmt"
)

var (
	// ErrConfiguration marks malformed or missing input. It is fatal before
	// any device interaction.
	ErrConfiguration = errors.New("configuration error")

	ErrWorkflowNotFound  = fmt.Errorf("%w: workflow not found", ErrConfiguration)
	ErrDuplicateWorkflow = fmt.Errorf("%w: duplicate workflow name", ErrConfiguration)
	ErrFlagConflict      = fmt.Errorf("%w: flag conflict", ErrConfiguration)

	// ErrDeviceUnavailable is returned when no device could be reached.
	ErrDeviceUnavailable = errors.New("device unavailable")

	// ErrUnknownAction is returned by a workflow for an action it does not declare.
	ErrUnknownAction = errors.New("unknown action")

	ErrWorkflowRuntime = errors.New("workflow runtime error")
	ErrNotification    = errors.New("notification failed")
)

// NewErrWorkflowNotFound reports that no implementation answers to name.
func NewErrWorkflowNotFound(name WorkflowName) error {
	return fmt.Errorf("%w: no workflow found for name %q", ErrWorkflowNotFound, name)
}

// NewErrUnknownAction reports that wf has no handler for action.
func NewErrUnknownAction(wf WorkflowName, action ActionName) error {
	return fmt.Errorf("%w: %q is not an action of workflow %q", ErrUnknownAction, action, wf)
}
