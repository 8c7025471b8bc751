package ini

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnsafeEval is returned when an (eval) typed setting is parsed while the
// parser is in safe mode.
var ErrUnsafeEval = errors.New("ini: unsafe eval type present while parsing in safe mode")

// TypeCastError reports a failed conversion while flushing a setting. It
// carries the source line, the setting name and the raw value alongside the
// underlying cause.
type TypeCastError struct {
	Line  int
	Name  string
	Value any
	Type  string
	Err   error
}

func (e *TypeCastError) Error() string {
	if e == nil {
		return "<nil>"
	}
	return fmt.Sprintf("ini:%d: invalid type definition (%s) %s = %v: %v", e.Line, e.Type, e.Name, e.Value, e.Err)
}

func (e *TypeCastError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// ConsistencyError signals that the internal scope bookkeeping has broken
// down: insertion hit a leaf where a section was expected. It indicates a
// parser defect, not bad user input.
type ConsistencyError struct {
	Msg string
}

func (e *ConsistencyError) Error() string {
	if e == nil {
		return "<nil>"
	}
	return "ini: consistency: " + e.Msg
}

// LookupError reports an interpolation reference (or traversal) against a
// path that does not exist in the tree parsed so far.
type LookupError struct {
	Path []string
	Key  string
}

func (e *LookupError) Error() string {
	if e == nil {
		return "<nil>"
	}
	return fmt.Sprintf("ini: undefined reference %q in path %s", e.Key, strings.Join(e.Path, ":"))
}

// SerializeError reports a value kind the serializer cannot render.
type SerializeError struct {
	Value any
}

func (e *SerializeError) Error() string {
	if e == nil {
		return "<nil>"
	}
	return fmt.Sprintf("ini: value of type %T could not be serialized", e.Value)
}
