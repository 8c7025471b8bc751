//go:build js_eval

package ini

import (
	"fmt"

	"github.com/dop251/goja"
)

// jsEvaluator executes eval expressions using github.com/dop251/goja.
type jsEvaluator struct{}

// NewJSEvaluator constructs an Evaluator backed by goja.
func NewJSEvaluator() Evaluator {
	return &jsEvaluator{}
}

func (e *jsEvaluator) Evaluate(env map[string]any, expression string) (any, error) {
	if expression == "" {
		return nil, fmt.Errorf("expression must not be empty")
	}
	vm := goja.New()
	for key, value := range env {
		if err := vm.Set(key, value); err != nil {
			return nil, err
		}
	}
	value, err := vm.RunString(fmt.Sprintf("(function(){ return (%s); })()", expression))
	if err != nil {
		return nil, err
	}
	return value.Export(), nil
}

func jsEvaluatorAvailable() bool {
	return true
}
