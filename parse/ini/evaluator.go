package ini

import (
	"errors"
	"fmt"
	"time"
)

// =========================
// Expression Evaluation
// =========================

// Evaluator executes a host expression for the eval type. The environment
// exposes the tree parsed so far as a plain nested map.
type Evaluator interface {
	Evaluate(env map[string]any, expression string) (any, error)
}

// WithEvaluator selects the engine backing the eval type. The default is the
// expr engine.
func WithEvaluator(evaluator Evaluator) Option {
	return func(c *ConfigParser) {
		c.evaluator = evaluator
	}
}

// evalExpression runs expression against the current tree. Callers have
// already verified the parser is in unsafe mode.
func (c *ConfigParser) evalExpression(expression string) (any, error) {
	evaluator := c.evaluator
	if evaluator == nil {
		evaluator = NewExprEvaluator()
		c.evaluator = evaluator
	}

	start := time.Now()
	value, err := evaluator.Evaluate(c.tree.ToMap(), expression)
	c.logger.LogEval(EvalEvent{
		Engine:   engineName(evaluator),
		Expr:     expression,
		Duration: time.Since(start),
		Err:      err,
	})
	if err != nil {
		return nil, wrapEvalError(engineName(evaluator), expression, err)
	}
	return normalizeEvalResult(value), nil
}

// normalizeEvalResult folds engine-specific numeric kinds onto the kinds the
// caster produces.
func normalizeEvalResult(value any) any {
	switch v := value.(type) {
	case int:
		return int64(v)
	case int32:
		return int64(v)
	case float32:
		return float64(v)
	default:
		return value
	}
}

func engineName(evaluator Evaluator) string {
	if evaluator == nil {
		return "unknown"
	}
	switch fmt.Sprintf("%T", evaluator) {
	case "*ini.exprEvaluator":
		return "expr"
	case "*ini.celEvaluator":
		return "cel"
	case "*ini.jsEvaluator":
		return "js"
	default:
		return "custom"
	}
}

// =========================
// Evaluation Errors
// =========================

// EvalError captures engine metadata alongside the originating error.
type EvalError struct {
	Engine string
	Expr   string
	Err    error
}

func (e *EvalError) Error() string {
	if e == nil {
		return "<nil>"
	}
	return fmt.Sprintf("ini: %s evaluator expr=%q: %v", e.Engine, e.Expr, e.Err)
}

func (e *EvalError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

func wrapEvalError(engine, expression string, err error) error {
	if err == nil {
		return nil
	}
	var evalErr *EvalError
	if errors.As(err, &evalErr) {
		return err
	}
	return &EvalError{Engine: engine, Expr: expression, Err: err}
}

// =========================
// Evaluation Logging
// =========================

// EvalEvent describes one evaluation attempt.
type EvalEvent struct {
	Engine   string
	Expr     string
	Duration time.Duration
	Err      error
}

// EvalLogger records evaluator events.
type EvalLogger interface {
	LogEval(EvalEvent)
}

// EvalLoggerFunc adapts a function to EvalLogger.
type EvalLoggerFunc func(EvalEvent)

// LogEval implements EvalLogger.
func (f EvalLoggerFunc) LogEval(event EvalEvent) {
	if f != nil {
		f(event)
	}
}

type noopEvalLogger struct{}

func (noopEvalLogger) LogEval(EvalEvent) {}

// WithEvalLogger attaches an evaluation logger to the parser.
func WithEvalLogger(logger EvalLogger) Option {
	return func(c *ConfigParser) {
		if logger == nil {
			c.logger = noopEvalLogger{}
			return
		}
		c.logger = logger
	}
}
