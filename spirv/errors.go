package spirv

import (
	"errors"
	"fmt"
	"strings"

	"github.com/gogpu/shadergraph/ir"
)

// WrongArgumentsCountError is returned when a node has the wrong number of
// arguments.
type WrongArgumentsCountError struct {
	Actual   int
	Expected int
}

func (e *WrongArgumentsCountError) Error() string {
	return fmt.Sprintf("wrong arguments count: got %d, expected %d", e.Actual, e.Expected)
}

// BadArgumentsError is returned when argument types do not fit an operation.
type BadArgumentsError struct {
	Types []*ir.Type
}

func (e *BadArgumentsError) Error() string {
	names := make([]string, len(e.Types))
	for i, t := range e.Types {
		names[i] = t.String()
	}

	return "bad arguments: (" + strings.Join(names, ", ") + ")"
}

// UnsupportedConstantError is returned for constant shapes with no
// declaration recipe.
type UnsupportedConstantError struct {
	Type string
}

func (e *UnsupportedConstantError) Error() string {
	return "unsupported constant type: " + e.Type
}

// IndexOutOfBoundError is returned when Extract reads past the last component.
type IndexOutOfBoundError struct {
	Index  uint32
	Length int
}

func (e *IndexOutOfBoundError) Error() string {
	return fmt.Sprintf("index %d out of bound %d", e.Index, e.Length)
}

// MissingFunctionError is returned for Call and Loop nodes referring to a
// function the module does not have.
type MissingFunctionError struct {
	Ref ir.FunctionRef
}

func (e *MissingFunctionError) Error() string {
	return fmt.Sprintf("missing function %d", e.Ref)
}

// UnsupportedOperationError is returned for nodes used where they have no
// meaning, such as Parameter in the main graph.
type UnsupportedOperationError struct {
	Name string
}

func (e *UnsupportedOperationError) Error() string {
	return "unsupported operation: " + e.Name
}

// CyclicGraphError is returned when a graph, the call graph or the
// declarations of a module form a cycle.
type CyclicGraphError struct {
	// Stage is the graph that has a cycle: "main", a function name,
	// "calls" or "declarations".
	Stage string
}

func (e *CyclicGraphError) Error() string {
	return "cyclic graph: " + e.Stage
}

// BuildError records the node that failed to lower.
// Function is empty for the main graph.
type BuildError struct {
	Function string
	Name     string
	Index    ir.NodeID
	Err      error
}

func (e *BuildError) Error() string {
	if e.Function != "" {
		return fmt.Sprintf("%s: node %d %s: %v", e.Function, e.Index, e.Name, e.Err)
	}

	return fmt.Sprintf("node %d %s: %v", e.Index, e.Name, e.Err)
}

func (e *BuildError) Unwrap() error { return e.Err }

// nodeError attaches the node to err unless err already names one.
func nodeError(err error, function string, id ir.NodeID, n ir.Node) error {
	var be *BuildError
	if errors.As(err, &be) {
		return err
	}

	return &BuildError{Function: function, Name: n.String(), Index: id, Err: err}
}

func badArgs(args ...Operand) error {
	types := make([]*ir.Type, len(args))
	for i, a := range args {
		types[i] = a.Type
	}

	return &BadArgumentsError{Types: types}
}

func argCount(args []Operand, expected int) error {
	if len(args) != expected {
		return &WrongArgumentsCountError{Actual: len(args), Expected: expected}
	}

	return nil
}
