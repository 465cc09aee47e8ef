package droidflow

import (
	"context"
	"sort"
)

// ActionTable is a map-backed dispatch table that workflow implementations
// embed to get uniform lookup semantics.
type ActionTable struct {
	workflow WorkflowName
	handlers map[ActionName]ActionHandler
}

// NewActionTable returns an empty table for workflow wf.
func NewActionTable(wf WorkflowName) *ActionTable {
	return &ActionTable{workflow: wf, handlers: make(map[ActionName]ActionHandler)}
}

// Handle registers h under name, replacing any previous handler.
func (t *ActionTable) Handle(name ActionName, h ActionHandler) *ActionTable {
	t.handlers[name] = h
	return t
}

func (t *ActionTable) Action(name ActionName) (ActionHandler, error) {
	h, ok := t.handlers[name]
	if !ok {
		return nil, NewErrUnknownAction(t.workflow, name)
	}
	return h, nil
}

func (t *ActionTable) Run(ctx context.Context, name ActionName) (bool, error) {
	h, err := t.Action(name)
	if err != nil {
		return false, err
	}
	return h(ctx)
}

func (t *ActionTable) Actions() []ActionName {
	names := make([]ActionName, 0, len(t.handlers))
	for n := range t.handlers {
		names = append(names, n)
	}
	sort.Slice(names, func(i, j int) bool { return names[i] < names[j] })
	return names
}
