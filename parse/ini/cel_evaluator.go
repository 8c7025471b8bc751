package ini

import (
	"fmt"

	celgo "github.com/google/cel-go/cel"
)

// celEvaluator executes eval expressions using github.com/google/cel-go.
type celEvaluator struct{}

// NewCELEvaluator constructs an Evaluator backed by cel-go.
func NewCELEvaluator() Evaluator {
	return &celEvaluator{}
}

func (e *celEvaluator) Evaluate(env map[string]any, expression string) (any, error) {
	if expression == "" {
		return nil, fmt.Errorf("expression must not be empty")
	}

	opts := []celgo.EnvOption{}
	activation := map[string]any{}
	for key, value := range env {
		if !validCELIdent(key) {
			continue
		}
		opts = append(opts, celgo.Variable(key, celgo.DynType))
		activation[key] = value
	}

	celEnv, err := celgo.NewEnv(opts...)
	if err != nil {
		return nil, err
	}
	ast, issues := celEnv.Parse(expression)
	if issues != nil && issues.Err() != nil {
		return nil, issues.Err()
	}
	checked, issues := celEnv.Check(ast)
	if issues != nil && issues.Err() != nil {
		return nil, issues.Err()
	}
	program, err := celEnv.Program(checked)
	if err != nil {
		return nil, err
	}
	out, _, err := program.Eval(activation)
	if err != nil {
		return nil, err
	}
	return out.Value(), nil
}

// validCELIdent filters tree keys that cannot be declared as CEL variables.
func validCELIdent(name string) bool {
	if name == "" {
		return false
	}
	for i, ch := range name {
		if ch == '_' || (ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z') {
			continue
		}
		if i > 0 && ch >= '0' && ch <= '9' {
			continue
		}
		return false
	}
	return true
}
