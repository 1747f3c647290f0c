package ir

import (
	"fmt"

	"tlog.app/go/errors"
)

// ValidationError is a structural problem found by Validate.
type ValidationError struct {
	Message string
	// Optional context
	Function string
	Node     *NodeID
}

// Error implements the error interface.
func (e ValidationError) Error() string {
	switch {
	case e.Function != "" && e.Node != nil:
		return fmt.Sprintf("in function %s, node %d: %s", e.Function, *e.Node, e.Message)
	case e.Function != "":
		return fmt.Sprintf("in function %s: %s", e.Function, e.Message)
	case e.Node != nil:
		return fmt.Sprintf("node %d: %s", *e.Node, e.Message)
	}
	return e.Message
}

type validator struct {
	module   *Module
	function string
	errors   []ValidationError
}

// Validate checks the structure of a module: cycles, missing static operands,
// dangling function references, misplaced Parameter and Return nodes and
// argument slots left unconnected.
// It does not check operand types; the compiler does.
// Returns validation errors if any, or nil if module is valid.
func Validate(m *Module) ([]ValidationError, error) {
	if m == nil {
		return nil, errors.New("module is nil")
	}
	if m.Main == nil {
		return nil, errors.New("module has no main graph")
	}

	v := &validator{module: m}

	v.graph(m.Main, false)

	for _, f := range m.Functions {
		v.function = f.Name
		if f.Graph == nil {
			v.errorf(nil, "no graph")
			continue
		}

		v.graph(f.Graph, true)
	}

	return v.errors, nil
}

func (v *validator) graph(g *Graph, function bool) {
	if g.HasCycle() {
		v.errorf(nil, "graph has a cycle")
	}

	returns := 0

	for i := range g.Len() {
		id := NodeID(i)
		n := g.Node(id)

		switch n := n.(type) {
		case Input:
			v.needType(id, n.Type)
		case Uniform:
			v.needType(id, n.Type)
		case Output:
			v.needType(id, n.Type)
		case Construct:
			v.needType(id, n.Type)
		case Parameter:
			v.needType(id, n.Type)
			if !function {
				v.errorf(&id, "Parameter outside of a function")
			}
		case Return:
			returns++
			if !function {
				v.errorf(&id, "Return outside of a function")
			}
		case Constant:
			if n.Value == nil {
				v.errorf(&id, "constant has no value")
			}
		case Call:
			v.needFunction(id, n.Function)
		case Loop:
			v.needFunction(id, n.Cond)
			v.needFunction(id, n.Body)
		}

		for p, e := range g.args[id] {
			if e.Position != uint32(p) {
				v.errorf(&id, "argument %d is not connected", p)
				break
			}
		}
	}

	if returns > 1 {
		v.errorf(nil, "%d Return nodes", returns)
	}
}

func (v *validator) needType(id NodeID, t *Type) {
	if t == nil {
		v.errorf(&id, "missing type")
	}
}

func (v *validator) needFunction(id NodeID, ref FunctionRef) {
	if _, ok := v.module.Function(ref); !ok {
		v.errorf(&id, "function %d does not exist", ref)
	}
}

func (v *validator) errorf(id *NodeID, format string, args ...any) {
	v.errors = append(v.errors, ValidationError{
		Message:  fmt.Sprintf(format, args...),
		Function: v.function,
		Node:     id,
	})
}
