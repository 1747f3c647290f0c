package spirv

import (
	"cmp"
	"slices"

	"github.com/gogpu/shadergraph/ir"
)

// body is the code of one function being built: the memo of lowered
// nodes, Function storage variables and the instruction stream.
type body struct {
	st     *state
	name   string
	memo   map[ir.NodeID]Operand
	locals []Instruction
	code   []Instruction
}

func newBody(st *state, name string) *body {
	return &body{
		st:   st,
		name: name,
		memo: make(map[ir.NodeID]Operand),
	}
}

// stage names the graph of b in errors.
func (b *body) stage() string {
	if b.name == "" {
		return "main"
	}

	return b.name
}

func (b *body) Emit(inst Instruction) {
	b.code = append(b.code, inst)
}

func (b *body) Local(t *ir.Type) uint32 {
	ptr := b.st.RegisterType(ir.Pointer(ir.StorageFunction, t))
	id := b.st.AllocID()

	b.locals = append(b.locals, NewInstruction(OpVariable, ptr, id, uint32(StorageClassFunction)))

	return id
}

// Uniform returns a pointer to the uniform at loc. Block members are
// reached through an access chain emitted into the current block.
func (b *body) Uniform(loc uint32, t *ir.Type, name string) (uint32, error) {
	if t.Kind() == ir.KindSampler {
		return b.st.sampler(loc, t, name)
	}

	slot, err := b.st.uniformSlot(loc, t, name)
	if err != nil {
		return 0, err
	}

	ptr := b.st.RegisterType(ir.Pointer(ir.StorageUniform, t))
	id := b.st.AllocID()

	b.Emit(NewInstruction(OpAccessChain, ptr, id, b.st.block.varID, slot.index))

	return id, nil
}

func (b *body) Lookup(id ir.NodeID) (Operand, bool) {
	v, ok := b.memo[id]
	return v, ok
}

func (b *body) Remember(id ir.NodeID, v Operand) {
	b.memo[id] = v
}

// instructions wraps the body into a function.
// head is OpFunction followed by its parameters.
func (b *body) instructions(head []Instruction, label uint32, ret Instruction) []Instruction {
	res := make([]Instruction, 0, len(head)+len(b.locals)+len(b.code)+3)

	res = append(res, head...)
	res = append(res, NewInstruction(OpLabel, label))
	res = append(res, b.locals...)
	res = append(res, b.code...)
	res = append(res, ret, NewInstruction(OpFunctionEnd))

	return res
}

type funcStatus uint8

const (
	funcPending funcStatus = iota
	funcCompiling
	funcDone
)

// function is a module function and its compilation result.
type function struct {
	ref    ir.FunctionRef
	fn     ir.Function
	sig    Signature
	status funcStatus
	body   Function
}

// FunctionBuilder lowers a function graph. It borrows ID allocation,
// type and constant registration and interface variables from the module
// being compiled.
type FunctionBuilder struct {
	*state
	*body

	f      *function
	params map[uint32]Operand
	ret    *Operand
}

func newFunctionBuilder(st *state, f *function) *FunctionBuilder {
	return &FunctionBuilder{
		state:  st,
		body:   newBody(st, f.fn.Name),
		f:      f,
		params: make(map[uint32]Operand),
	}
}

// prepare collects the Parameter nodes, orders them by location and
// allocates their ids.
func (b *FunctionBuilder) prepare() error {
	g := b.f.fn.Graph

	type param struct {
		loc uint32
		typ *ir.Type
	}

	var params []param

	for i := range g.Len() {
		id := ir.NodeID(i)

		p, ok := g.Node(id).(ir.Parameter)
		if !ok {
			continue
		}

		if err := declarable(p.Type); err != nil {
			return nodeError(err, b.name, id, p)
		}

		if prev, ok := b.params[p.Location]; ok {
			if prev.Type != p.Type {
				return nodeError(&BadArgumentsError{Types: []*ir.Type{prev.Type, p.Type}}, b.name, id, p)
			}

			continue
		}

		b.params[p.Location] = Operand{Type: p.Type}
		params = append(params, param{loc: p.Location, typ: p.Type})
	}

	slices.SortFunc(params, func(x, y param) int {
		return cmp.Compare(x.loc, y.loc)
	})

	b.f.sig.Params = make([]*ir.Type, len(params))

	for i, p := range params {
		b.f.sig.Params[i] = p.typ
		b.params[p.loc] = Operand{Type: p.typ, ID: b.AllocID()}
	}

	return nil
}

func (b *FunctionBuilder) Parameter(loc uint32, t *ir.Type) (uint32, error) {
	p, ok := b.params[loc]
	if !ok || p.Type != t {
		return 0, &BadArgumentsError{Types: []*ir.Type{p.Type, t}}
	}

	return p.ID, nil
}

func (b *FunctionBuilder) Return(v Operand) error {
	if b.ret != nil {
		return &UnsupportedOperationError{Name: "second Return"}
	}

	b.ret = &v
	b.f.sig.Result = v.Type

	return nil
}

// compile lowers the function graph from its Return and Output nodes.
func (b *FunctionBuilder) compile() error {
	if err := b.prepare(); err != nil {
		return err
	}

	g := b.f.fn.Graph

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

// finish assembles the function instructions.
func (b *FunctionBuilder) finish() {
	sig := &b.f.sig

	resultType := b.RegisterType(sig.Result)
	fnType := b.functionType(sig.Result, sig.Params)

	head := []Instruction{
		NewInstruction(OpFunction, resultType, sig.ID, FunctionControlNone, fnType),
	}

	for _, p := range b.orderedParams() {
		head = append(head, NewInstruction(OpFunctionParameter, b.RegisterType(p.Type), p.ID))
	}

	ret := NewInstruction(OpReturn)
	if b.ret != nil {
		ret = NewInstruction(OpReturnValue, b.ret.ID)
	}

	b.debugName(sig.ID, sig.Name)

	b.f.body = Function{Instructions: b.instructions(head, b.AllocID(), ret)}
}

func (b *FunctionBuilder) orderedParams() []Operand {
	locs := make([]uint32, 0, len(b.params))
	for loc := range b.params {
		locs = append(locs, loc)
	}

	slices.Sort(locs)

	res := make([]Operand, len(locs))
	for i, loc := range locs {
		res[i] = b.params[loc]
	}

	return res
}

// Signature returns the signature of function ref, compiling it first if
// it has not been compiled yet.
func (s *state) Signature(ref ir.FunctionRef) (*Signature, error) {
	if int(ref) >= len(s.functions) {
		return nil, &MissingFunctionError{Ref: ref}
	}

	f := s.functions[ref]

	switch f.status {
	case funcCompiling:
		return nil, &CyclicGraphError{Stage: "calls"}
	case funcPending:
		if err := s.compileFunction(f); err != nil {
			return nil, err
		}
	}

	return &f.sig, nil
}

func (s *state) compileFunction(f *function) error {
	if f.fn.Graph == nil {
		return &MissingFunctionError{Ref: f.ref}
	}

	if f.fn.Graph.HasCycle() {
		return &CyclicGraphError{Stage: f.fn.Name}
	}

	f.status = funcCompiling

	b := newFunctionBuilder(s, f)

	if err := b.compile(); err != nil {
		return err
	}

	b.finish()
	f.status = funcDone

	return nil
}
