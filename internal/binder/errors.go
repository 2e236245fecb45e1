package binder

import "fmt"

// Messages below are matched verbatim by callers.
const (
	shapeMessage   = "Each parameter must be in the form of <name, val>"
	nameTypePrefix = "Parameter name must be of type string but get "
)

// ShapeError reports an entry that is not a (name, value) pair.
type ShapeError struct {
	Index int
}

func (e *ShapeError) Error() string { return shapeMessage }

// NameTypeError reports a pair whose name is not a string.
type NameTypeError struct {
	Index int
	Type  string
}

func (e *NameTypeError) Error() string { return nameTypePrefix + e.Type }

// ValueTypeError reports a pair whose value is not one of the literal kinds.
type ValueTypeError struct {
	Index int
	Name  string
	Type  string
	Err   error
}

func (e *ValueTypeError) Error() string {
	return fmt.Sprintf("Parameter %s has unsupported value type %s", e.Name, e.Type)
}

func (e *ValueTypeError) Unwrap() error { return e.Err }
