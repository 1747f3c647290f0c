package spirv

import (
	"math"
	"slices"
	"strconv"
	"strings"

	"github.com/gogpu/shadergraph/ir"
)

// Operand is a lowered value: its type and the id holding it.
type Operand struct {
	Type *ir.Type
	ID   uint32
}

// Builder is what node lowering needs from a compilation.
//
// ModuleBuilder implements it for the main graph and FunctionBuilder for
// function graphs. Both share one ID space, type and constant caches.
type Builder interface {
	// AllocID allocates a new SPIR-V ID.
	AllocID() uint32

	// RegisterType returns the id of the type declaration of t, declaring
	// it and its nested types on first use.
	RegisterType(t *ir.Type) uint32

	// RegisterConstant returns the id of a constant declaration of v.
	// Scalars are deduplicated bit-exactly; composites are declared anew.
	RegisterConstant(v ir.Value) (uint32, error)

	// Declare appends a global declaration.
	Declare(inst Instruction)

	// Emit appends an instruction to the current block.
	Emit(inst Instruction)

	// Local declares a Function storage variable of type t and returns it.
	Local(t *ir.Type) uint32

	// ExtInst is the id of the GLSL.std.450 import.
	ExtInst() uint32

	// Input, Output and Uniform return a pointer to the interface variable
	// at loc, declaring it on first use.
	Input(loc uint32, t *ir.Type, name string) (uint32, error)
	Output(loc uint32, t *ir.Type, name string) (uint32, error)
	Uniform(loc uint32, t *ir.Type, name string) (uint32, error)

	// Parameter returns the id of the function parameter at loc.
	Parameter(loc uint32, t *ir.Type) (uint32, error)

	// Return sets the value returned by the function.
	Return(v Operand) error

	// Signature returns the signature of a module function,
	// compiling it if needed.
	Signature(ref ir.FunctionRef) (*Signature, error)

	// Lookup and Remember access the memo of lowered nodes.
	Lookup(id ir.NodeID) (Operand, bool)
	Remember(id ir.NodeID, v Operand)
}

// Signature is the declared interface of a compiled function.
type Signature struct {
	Name   string
	ID     uint32
	Params []*ir.Type
	Result *ir.Type
}

type (
	// state is shared by all builders of one compilation.
	state struct {
		settings Settings
		module   *ir.Module
		trace    bool

		nextID  uint32
		extInst uint32
		mainID  uint32

		types     map[*ir.Type]uint32
		images    map[*ir.Type]uint32 // sampler type -> image type
		constants map[constKey]uint32
		fnTypes   map[string]uint32

		capabilities []Capability

		declarations []Instruction
		annotations  []Instruction
		names        []Instruction

		inputs     map[uint32]variable
		outputs    map[uint32]variable
		samplers   map[uint32]variable
		interfaces []uint32
		block      *uniformBlock

		functions []*function
		built     bool
	}

	variable struct {
		id  uint32
		typ *ir.Type
	}

	uniformBlock struct {
		structID uint32
		varID    uint32
		slots    map[uint32]*uniformSlot
	}

	uniformSlot struct {
		loc   uint32
		typ   *ir.Type
		name  string
		index uint32 // id of the member index constant
	}

	// constKey identifies a scalar constant by kind and exact bit pattern.
	constKey struct {
		kind ir.Kind
		wide bool // signed int or double
		sign uint8
		exp  int16
		mant uint64
	}
)

func newState(m *ir.Module, settings Settings) *state {
	s := &state{
		settings:  settings,
		module:    m,
		trace:     settings.Trace.If("lower"),
		nextID:    1,
		types:     make(map[*ir.Type]uint32),
		images:    make(map[*ir.Type]uint32),
		constants: make(map[constKey]uint32),
		fnTypes:   make(map[string]uint32),
		inputs:    make(map[uint32]variable),
		outputs:   make(map[uint32]variable),
		samplers:  make(map[uint32]variable),
	}

	s.addCapability(CapabilityShader)

	s.extInst = s.AllocID()
	s.mainID = s.AllocID()

	if m != nil {
		s.functions = make([]*function, len(m.Functions))

		for i, f := range m.Functions {
			s.functions[i] = &function{
				ref: ir.FunctionRef(i),
				fn:  f,
				sig: Signature{Name: f.Name, ID: s.AllocID(), Result: ir.Void},
			}
		}
	}

	return s
}

// AllocID allocates a new SPIR-V ID.
func (s *state) AllocID() uint32 {
	id := s.nextID
	s.nextID++
	return id
}

func (s *state) ExtInst() uint32 { return s.extInst }

func (s *state) Declare(inst Instruction) {
	s.declarations = append(s.declarations, inst)
}

func (s *state) annotate(op OpCode, words ...uint32) {
	s.annotations = append(s.annotations, NewInstruction(op, words...))
}

func (s *state) debugName(id uint32, name string) {
	if !s.settings.Debug || name == "" {
		return
	}

	s.names = append(s.names, NewInstructionBuilder().AddWord(id).AddString(name).Build(OpName))
}

func (s *state) debugMemberName(id, member uint32, name string) {
	if !s.settings.Debug || name == "" {
		return
	}

	s.names = append(s.names, NewInstructionBuilder().AddWord(id, member).AddString(name).Build(OpMemberName))
}

func (s *state) addCapability(c Capability) {
	if !slices.Contains(s.capabilities, c) {
		s.capabilities = append(s.capabilities, c)
	}
}

// RegisterType returns the id of t, declaring it after its nested types.
func (s *state) RegisterType(t *ir.Type) uint32 {
	if id, ok := s.types[t]; ok {
		return id
	}

	var inst Instruction

	switch t.Kind() {
	case ir.KindVoid:
		inst = NewInstruction(OpTypeVoid, 0)
	case ir.KindBool:
		inst = NewInstruction(OpTypeBool, 0)
	case ir.KindInt:
		signed := uint32(0)
		if t.Signed() {
			signed = 1
		}

		inst = NewInstruction(OpTypeInt, 0, 32, signed)
	case ir.KindFloat:
		width := uint32(32)
		if t.IsDouble() {
			width = 64
			s.addCapability(CapabilityFloat64)
		}

		inst = NewInstruction(OpTypeFloat, 0, width)
	case ir.KindVector:
		elem := s.RegisterType(t.Elem())
		inst = NewInstruction(OpTypeVector, 0, elem, uint32(t.Count()))
	case ir.KindMatrix:
		column := s.RegisterType(t.Elem())
		inst = NewInstruction(OpTypeMatrix, 0, column, uint32(t.Count()))
	case ir.KindSampler:
		image := s.registerImage(t)
		inst = NewInstruction(OpTypeSampledImage, 0, image)
	case ir.KindPointer:
		elem := s.RegisterType(t.Elem())
		inst = NewInstruction(OpTypePointer, 0, uint32(storageClass(t.Storage())), elem)
	default:
		panic("spirv: unexpected type kind " + strconv.Itoa(int(t.Kind())))
	}

	id := s.AllocID()
	inst.Words[0] = id

	s.types[t] = id
	s.Declare(inst)

	return id
}

// registerImage declares the image type sampled by the sampler type t.
func (s *state) registerImage(t *ir.Type) uint32 {
	if id, ok := s.images[t]; ok {
		return id
	}

	sampled := s.RegisterType(t.Elem())

	switch t.Dim() {
	case ir.Dim1D:
		s.addCapability(CapabilitySampled1D)
	case ir.DimRect:
		s.addCapability(CapabilitySampledRect)
	case ir.DimBuffer:
		s.addCapability(CapabilitySampledBuffer)
	}

	id := s.AllocID()

	// depth 0, arrayed 0, multisampled 0, sampled 1, format Unknown
	s.Declare(NewInstruction(OpTypeImage, id, sampled, uint32(t.Dim()), 0, 0, 0, 1, 0))
	s.images[t] = id

	return id
}

// functionType returns the id of OpTypeFunction for the signature.
func (s *state) functionType(result *ir.Type, params []*ir.Type) uint32 {
	words := make([]uint32, 0, len(params)+2)
	words = append(words, 0, s.RegisterType(result))

	var key strings.Builder

	key.WriteString(strconv.FormatUint(uint64(words[1]), 10))

	for _, p := range params {
		id := s.RegisterType(p)
		words = append(words, id)

		key.WriteByte(',')
		key.WriteString(strconv.FormatUint(uint64(id), 10))
	}

	if id, ok := s.fnTypes[key.String()]; ok {
		return id
	}

	id := s.AllocID()
	words[0] = id

	s.fnTypes[key.String()] = id
	s.Declare(NewInstruction(OpTypeFunction, words...))

	return id
}

// RegisterConstant returns the id of a declaration of v.
func (s *state) RegisterConstant(v ir.Value) (uint32, error) {
	switch v := v.(type) {
	case ir.BoolValue:
		key := constKey{kind: ir.KindBool}
		if v {
			key.mant = 1
		}

		return s.scalarConstant(key, ir.Bool, func(typ, id uint32) Instruction {
			if v {
				return NewInstruction(OpConstantTrue, typ, id)
			}
			return NewInstruction(OpConstantFalse, typ, id)
		}), nil
	case ir.IntValue:
		return s.wordConstant(intKey(int32(v)), ir.Int, uint32(v)), nil
	case ir.UintValue:
		return s.wordConstant(constKey{kind: ir.KindInt, mant: uint64(v)}, ir.Uint, uint32(v)), nil
	case ir.FloatValue:
		bits := math.Float32bits(float32(v))
		key := constKey{
			kind: ir.KindFloat,
			sign: uint8(bits >> 31),
			exp:  int16(bits>>23&0xff) - 127,
			mant: uint64(bits & (1<<23 - 1)),
		}

		return s.wordConstant(key, ir.Float, bits), nil
	case ir.DoubleValue:
		bits := math.Float64bits(float64(v))
		key := constKey{
			kind: ir.KindFloat,
			wide: true,
			sign: uint8(bits >> 63),
			exp:  int16(bits>>52&0x7ff) - 1023,
			mant: bits & (1<<52 - 1),
		}

		// low-order word first
		return s.wordConstant(key, ir.Double, uint32(bits), uint32(bits>>32)), nil
	case ir.VectorValue:
		t := v.Type()
		if t == nil {
			return 0, &UnsupportedConstantError{Type: ir.Describe(v)}
		}

		return s.compositeConstant(t, len(v), func(i int) (uint32, error) {
			return s.RegisterConstant(v[i])
		})
	case ir.MatrixValue:
		t := v.Type()
		if t == nil || t.Scalar().Kind() != ir.KindFloat {
			return 0, &UnsupportedConstantError{Type: ir.Describe(v)}
		}

		return s.compositeConstant(t, len(v), func(i int) (uint32, error) {
			return s.RegisterConstant(v[i])
		})
	case nil:
		return 0, &UnsupportedConstantError{Type: "<nil>"}
	}

	return 0, &UnsupportedConstantError{Type: ir.Describe(v)}
}

func (s *state) scalarConstant(key constKey, t *ir.Type, decl func(typ, id uint32) Instruction) uint32 {
	if id, ok := s.constants[key]; ok {
		return id
	}

	typ := s.RegisterType(t)
	id := s.AllocID()

	s.constants[key] = id
	s.Declare(decl(typ, id))

	return id
}

func intKey(v int32) constKey {
	return constKey{kind: ir.KindInt, wide: true, mant: uint64(uint32(v))}
}

func (s *state) wordConstant(key constKey, t *ir.Type, words ...uint32) uint32 {
	return s.scalarConstant(key, t, func(typ, id uint32) Instruction {
		return NewInstruction(OpConstant, append([]uint32{typ, id}, words...)...)
	})
}

func (s *state) compositeConstant(t *ir.Type, n int, part func(i int) (uint32, error)) (uint32, error) {
	words := make([]uint32, 2, n+2)
	words[0] = s.RegisterType(t)

	for i := range n {
		id, err := part(i)
		if err != nil {
			return 0, err
		}

		words = append(words, id)
	}

	words[1] = s.AllocID()
	s.Declare(NewInstruction(OpConstantComposite, words...))

	return words[1], nil
}

func storageClass(sc ir.StorageClass) StorageClass {
	switch sc {
	case ir.StorageInput:
		return StorageClassInput
	case ir.StorageOutput:
		return StorageClassOutput
	case ir.StorageUniform:
		return StorageClassUniform
	case ir.StorageUniformConstant:
		return StorageClassUniformConstant
	}
	return StorageClassFunction
}
