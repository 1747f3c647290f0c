package ir

// FunctionRef addresses a function of a Module.
type FunctionRef uint32

// Function is a named function graph. Its parameters are the Parameter
// nodes of Graph and its result is the argument of its Return node.
type Function struct {
	Name  string
	Graph *Graph
}

// Module is a main graph plus the functions it may call.
type Module struct {
	Main      *Graph
	Functions []Function
}

func NewModule(main *Graph) *Module {
	return &Module{Main: main}
}

// AddFunction appends a function and returns its reference.
func (m *Module) AddFunction(name string, g *Graph) FunctionRef {
	ref := FunctionRef(len(m.Functions))
	m.Functions = append(m.Functions, Function{Name: name, Graph: g})

	return ref
}

// Function returns the function ref, or false if there is none.
func (m *Module) Function(ref FunctionRef) (*Function, bool) {
	if int(ref) >= len(m.Functions) {
		return nil, false
	}

	return &m.Functions[ref], true
}
