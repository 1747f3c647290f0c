package spirv

import (
	"errors"
	"maps"
	"slices"

	"github.com/gogpu/shadergraph/ir"
)

// ErrBuilderConsumed is returned when a ModuleBuilder is used after Build.
var ErrBuilderConsumed = errors.New("builder already built")

// ErrNoMainGraph is returned when compiling a module without a main graph.
var ErrNoMainGraph = errors.New("module has no main graph")

// ModuleBuilder lowers the main graph into the entry point function and
// assembles the module.
type ModuleBuilder struct {
	*state
	*body
}

// NewModuleBuilder returns a builder for a module whose Call and Loop nodes
// refer to the functions of m. m may be nil.
func NewModuleBuilder(m *ir.Module, settings Settings) *ModuleBuilder {
	st := newState(m, settings)

	return &ModuleBuilder{
		state: st,
		body:  newBody(st, ""),
	}
}

func (b *ModuleBuilder) Parameter(loc uint32, t *ir.Type) (uint32, error) {
	return 0, &UnsupportedOperationError{Name: "Parameter"}
}

func (b *ModuleBuilder) Return(v Operand) error {
	return &UnsupportedOperationError{Name: "Return"}
}

// CompileFunctions compiles every function not compiled yet,
// in declaration order.
func (b *ModuleBuilder) CompileFunctions() error {
	if b.built {
		return ErrBuilderConsumed
	}

	for _, f := range b.functions {
		if f.status != funcPending {
			continue
		}

		if err := b.compileFunction(f); err != nil {
			return err
		}
	}

	return nil
}

// Compile lowers every output of g into the entry point.
// Return nodes are lowered too and fail.
func (b *ModuleBuilder) Compile(g *ir.Graph) error {
	if b.built {
		return ErrBuilderConsumed
	}

	if g == nil {
		return ErrNoMainGraph
	}

	if g.HasCycle() {
		return &CyclicGraphError{Stage: "main"}
	}

	for id := range g.Returns() {
		if _, err := visit(b, b.body, g, id); err != nil {
			return err
		}
	}

	for id := range g.Outputs() {
		if _, err := visit(b, b.body, g, id); err != nil {
			return err
		}
	}

	return nil
}

// Visit lowers node id of g and its arguments, returning the memoized
// result if it has been lowered already.
func (b *ModuleBuilder) Visit(g *ir.Graph, id ir.NodeID) (Operand, error) {
	if b.built {
		return Operand{}, ErrBuilderConsumed
	}

	return visit(b, b.body, g, id)
}

// CompileGraph compiles a single graph into a module.
func CompileGraph(g *ir.Graph, settings Settings) (*Module, error) {
	return CompileModule(ir.NewModule(g), settings)
}

// CompileModule compiles the main graph of m and its functions.
// Functions are compiled in declaration order before the main graph.
func CompileModule(m *ir.Module, settings Settings) (*Module, error) {
	if m == nil || m.Main == nil {
		return nil, ErrNoMainGraph
	}

	if m.Main.HasCycle() {
		return nil, &CyclicGraphError{Stage: "main"}
	}

	for i, f := range m.Functions {
		if f.Graph == nil {
			return nil, &MissingFunctionError{Ref: ir.FunctionRef(i)}
		}

		if f.Graph.HasCycle() {
			return nil, &CyclicGraphError{Stage: f.Name}
		}
	}

	b := NewModuleBuilder(m, settings)

	if err := b.CompileFunctions(); err != nil {
		return nil, err
	}

	if err := b.Compile(m.Main); err != nil {
		return nil, err
	}

	return b.Build()
}

// visit lowers id after its arguments using an explicit work stack.
// Every node is lowered at most once per body. Reaching a node whose
// arguments are still being lowered means g has a cycle.
func visit(b Builder, bd *body, g *ir.Graph, root ir.NodeID) (Operand, error) {
	if v, ok := b.Lookup(root); ok {
		return v, nil
	}

	type frame struct {
		id       ir.NodeID
		expanded bool
	}

	stack := []frame{{id: root}}

	// expanded frames still on the stack: the path from root
	open := make(map[ir.NodeID]bool)

	for len(stack) != 0 {
		top := len(stack) - 1
		id := stack[top].id

		if _, ok := b.Lookup(id); ok {
			stack = stack[:top]
			continue
		}

		n := g.Node(id)
		args := g.Arguments(id)

		if ignoresArguments(n) {
			args = nil
		}

		if !stack[top].expanded {
			stack[top].expanded = true
			open[id] = true

			for i := len(args) - 1; i >= 0; i-- {
				if open[args[i]] {
					return Operand{}, &CyclicGraphError{Stage: bd.stage()}
				}

				if _, ok := b.Lookup(args[i]); !ok {
					stack = append(stack, frame{id: args[i]})
				}
			}

			continue
		}

		ops := make([]Operand, len(args))
		for i, a := range args {
			ops[i], _ = b.Lookup(a)
		}

		res, err := lower(b, n, ops)
		if err != nil {
			return Operand{}, nodeError(err, bd.name, id, n)
		}

		if st := bd.st; st.trace {
			st.settings.Trace.Printw("lower", "func", bd.name, "node", id, "op", n.String(), "type", res.Type.String(), "id", res.ID)
		}

		b.Remember(id, res)
		delete(open, id)
		stack = stack[:top]
	}

	v, _ := b.Lookup(root)

	return v, nil
}

func ignoresArguments(n ir.Node) bool {
	switch n.(type) {
	case ir.Input, ir.Uniform, ir.Constant, ir.Parameter:
		return true
	}

	return false
}

// Build finishes the entry point and assembles the module.
// The builder cannot be used afterwards.
func (b *ModuleBuilder) Build() (*Module, error) {
	if b.built {
		return nil, ErrBuilderConsumed
	}

	b.built = true

	for _, f := range b.functions {
		if f.status != funcPending {
			continue
		}

		if err := b.compileFunction(f); err != nil {
			return nil, err
		}
	}

	if alias := b.finishUniforms(); len(alias) != 0 {
		relink(b.code, alias)

		for _, f := range b.functions {
			relink(f.body.Instructions, alias)
		}
	}

	fnType := b.functionType(ir.Void, nil)
	head := []Instruction{
		NewInstruction(OpFunction, b.RegisterType(ir.Void), b.mainID, FunctionControlNone, fnType),
	}

	entryFn := Function{Instructions: b.instructions(head, b.AllocID(), NewInstruction(OpReturn))}

	decls, err := orderDeclarations(b.declarations)
	if err != nil {
		return nil, err
	}

	m := &Module{
		Version:   b.settings.Version,
		Generator: b.settings.Generator,
		Bound:     b.nextID,

		MemoryModel: NewInstruction(OpMemoryModel, uint32(AddressingModelLogical), uint32(MemoryModelGLSL450)),

		Annotations:  b.annotations,
		Declarations: decls,
	}

	for _, c := range b.capabilities {
		m.Capabilities = append(m.Capabilities, NewInstruction(OpCapability, uint32(c)))
	}

	m.ExtInstImports = []Instruction{
		NewInstructionBuilder().AddWord(b.extInst).AddString(GLSLStd450).Build(OpExtInstImport),
	}

	entry := NewInstructionBuilder().
		AddWord(uint32(b.settings.Stage.executionModel()), b.mainID).
		AddString("main").
		AddWord(b.entryInterfaces()...).
		Build(OpEntryPoint)

	m.EntryPoints = []Instruction{entry}

	switch b.settings.Stage {
	case StageFragment:
		m.ExecutionModes = append(m.ExecutionModes, NewInstruction(OpExecutionMode, b.mainID, uint32(ExecutionModeOriginUpperLeft)))
	case StageCompute:
		size := b.settings.WorkgroupSize
		for i := range size {
			size[i] = max(size[i], 1)
		}

		m.ExecutionModes = append(m.ExecutionModes, NewInstruction(OpExecutionMode, b.mainID, uint32(ExecutionModeLocalSize), size[0], size[1], size[2]))
	}

	if b.settings.Debug {
		m.Debug = append(m.Debug, NewInstructionBuilder().AddWord(b.mainID).AddString("main").Build(OpName))
	}

	m.Debug = append(m.Debug, b.names...)

	m.Functions = make([]Function, 0, len(b.functions)+1)
	m.Functions = append(m.Functions, entryFn)

	for _, f := range b.functions {
		m.Functions = append(m.Functions, f.body)
	}

	return m, nil
}

// entryInterfaces lists the global variables of the entry point interface.
// Before SPIR-V 1.4 only Input and Output variables are listed.
func (b *ModuleBuilder) entryInterfaces() []uint32 {
	res := slices.Clone(b.interfaces)

	if b.settings.Version.word() < Version1_4.word() {
		return res
	}

	if b.block != nil {
		res = append(res, b.block.varID)
	}

	locs := slices.Sorted(maps.Keys(b.samplers))
	for _, loc := range locs {
		res = append(res, b.samplers[loc].id)
	}

	return res
}
