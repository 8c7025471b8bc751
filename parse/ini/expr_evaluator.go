package ini

import (
	"fmt"

	exprlang "github.com/expr-lang/expr"
)

// exprEvaluator executes eval expressions using github.com/expr-lang/expr.
type exprEvaluator struct{}

// NewExprEvaluator constructs the default Evaluator, backed by
// expr-lang/expr.
func NewExprEvaluator() Evaluator {
	return &exprEvaluator{}
}

// Evaluate runs expression with the tree snapshot as its environment.
func (e *exprEvaluator) Evaluate(env map[string]any, expression string) (any, error) {
	if expression == "" {
		return nil, fmt.Errorf("expression must not be empty")
	}
	if env == nil {
		env = map[string]any{}
	}
	return exprlang.Eval(expression, env)
}
