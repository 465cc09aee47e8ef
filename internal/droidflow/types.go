package droidflow

import (
	"fmt"
	"strings"

	"github.com/spf13/pflag"
)

// WorkflowName identifies a workflow implementation. Comparison is exact.
type WorkflowName string

// ActionName identifies an action within a single workflow.
type ActionName string

// RunConfig is the per-invocation input to one run. It is built once by the
// CLI layer; the orchestrator attaches Device after connecting and nothing
// else mutates it afterwards.
type RunConfig struct {
	Workflow        WorkflowName
	Action          ActionName
	DeviceID        string
	DelayMinutesMax int
	ReturnHome      bool

	// Flags is the parsed flag set, including flags declared by plugins.
	Flags *pflag.FlagSet

	// Device is nil until the orchestrator has connected.
	Device Device
}

// String returns a workflow/action label used in logs and notifications.
func (c *RunConfig) String() string {
	return fmt.Sprintf("%s:%s", c.Workflow, c.Action)
}

// FlagString returns the value of a string flag, or fallback when the flag
// was never declared.
func (c *RunConfig) FlagString(name, fallback string) string {
	if c == nil || c.Flags == nil || c.Flags.Lookup(name) == nil {
		return fallback
	}
	v, err := c.Flags.GetString(name)
	if err != nil {
		return fallback
	}
	return v
}

// FlagBool returns the value of a bool flag, or fallback when undeclared.
func (c *RunConfig) FlagBool(name string, fallback bool) bool {
	if c == nil || c.Flags == nil || c.Flags.Lookup(name) == nil {
		return fallback
	}
	v, err := c.Flags.GetBool(name)
	if err != nil {
		return fallback
	}
	return v
}

// ActionResult is the immutable outcome of one run.
type ActionResult struct {
	Workflow WorkflowName `json:"workflow"`
	Action   ActionName   `json:"action"`
	Success  bool         `json:"success"`
	Err      error        `json:"-"`
}

// NewActionResult builds a result; the action name is lower-cased.
func NewActionResult(wf WorkflowName, action ActionName, success bool, err error) ActionResult {
	return ActionResult{
		Workflow: wf,
		Action:   ActionName(strings.ToLower(string(action))),
		Success:  success,
		Err:      err,
	}
}

// ExitCode maps the result to a process exit status.
func (r ActionResult) ExitCode() int {
	if r.Success {
		return 0
	}
	return 1
}

func (r ActionResult) String() string {
	if r.Err != nil {
		return fmt.Sprintf("%s:%s %t (%v)", r.Workflow, r.Action, r.Success, r.Err)
	}
	return fmt.Sprintf("%s:%s %t", r.Workflow, r.Action, r.Success)
}
