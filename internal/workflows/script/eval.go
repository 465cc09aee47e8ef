package script

import (
	"fmt"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"

	"github.com/soochol/droidflow/internal/droidflow"
)

// conditionEnv returns the variables visible to `expect` and `when`
// expressions.
func conditionEnv(st droidflow.DeviceState, app string, flags map[string]string) map[string]any {
	if flags == nil {
		flags = map[string]string{}
	}
	return map[string]any{
		"screen_on":  st.ScreenOn,
		"foreground": st.Foreground,
		"app":        app,
		"flags":      flags,
	}
}

// condition is a compiled `expect` or `when` expression.
type condition struct {
	source  string
	program *vm.Program
}

// compileCondition checks an expression against the condition variables.
func compileCondition(expression string) (*condition, error) {
	program, err := expr.Compile(expression, expr.Env(conditionEnv(droidflow.DeviceState{}, "", nil)))
	if err != nil {
		return nil, fmt.Errorf("compile condition %q: %w", expression, err)
	}
	return &condition{source: expression, program: program}, nil
}

func (c *condition) evaluate(env map[string]any) (bool, error) {
	result, err := expr.Run(c.program, env)
	if err != nil {
		return false, fmt.Errorf("evaluate condition %q: %w", c.source, err)
	}
	return isTruthy(result), nil
}

// isTruthy converts a value to a boolean.
func isTruthy(v any) bool {
	if v == nil {
		return false
	}
	switch val := v.(type) {
	case bool:
		return val
	case string:
		return val != ""
	case int:
		return val != 0
	case int64:
		return val != 0
	case float64:
		return val != 0
	default:
		return true
	}
}
