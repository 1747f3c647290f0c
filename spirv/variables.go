package spirv

import (
	"cmp"
	"slices"

	"github.com/gogpu/shadergraph/ir"
)

// Input returns the Input variable at loc.
func (s *state) Input(loc uint32, t *ir.Type, name string) (uint32, error) {
	return s.stageVariable(s.inputs, ir.StorageInput, loc, t, name)
}

// Output returns the Output variable at loc.
func (s *state) Output(loc uint32, t *ir.Type, name string) (uint32, error) {
	return s.stageVariable(s.outputs, ir.StorageOutput, loc, t, name)
}

func (s *state) stageVariable(vars map[uint32]variable, sc ir.StorageClass, loc uint32, t *ir.Type, name string) (uint32, error) {
	if v, ok := vars[loc]; ok {
		if v.typ != t {
			return 0, &BadArgumentsError{Types: []*ir.Type{v.typ, t}}
		}

		return v.id, nil
	}

	id := s.variable(sc, t)

	s.annotate(OpDecorate, id, uint32(DecorationLocation), loc)
	s.debugName(id, name)

	vars[loc] = variable{id: id, typ: t}
	s.interfaces = append(s.interfaces, id)

	return id, nil
}

// variable declares a global variable of type t.
func (s *state) variable(sc ir.StorageClass, t *ir.Type) uint32 {
	ptr := s.RegisterType(ir.Pointer(sc, t))
	id := s.AllocID()

	s.Declare(NewInstruction(OpVariable, ptr, id, uint32(storageClass(sc))))

	return id
}

// sampler returns the UniformConstant variable bound at loc.
func (s *state) sampler(loc uint32, t *ir.Type, name string) (uint32, error) {
	if v, ok := s.samplers[loc]; ok {
		if v.typ != t {
			return 0, &BadArgumentsError{Types: []*ir.Type{v.typ, t}}
		}

		return v.id, nil
	}

	id := s.variable(ir.StorageUniformConstant, t)

	s.annotate(OpDecorate, id, uint32(DecorationDescriptorSet), s.settings.SamplerSet)
	s.annotate(OpDecorate, id, uint32(DecorationBinding), loc)
	s.debugName(id, name)

	s.samplers[loc] = variable{id: id, typ: t}

	return id, nil
}

// uniformSlot returns the block member at loc, allocating the block on
// first use. Member indices are only known once every uniform is seen, so
// each slot gets the id of an index constant declared by finishUniforms.
func (s *state) uniformSlot(loc uint32, t *ir.Type, name string) (*uniformSlot, error) {
	if s.block == nil {
		s.block = &uniformBlock{
			structID: s.AllocID(),
			varID:    s.AllocID(),
			slots:    make(map[uint32]*uniformSlot),
		}
	}

	if slot, ok := s.block.slots[loc]; ok {
		if slot.typ != t {
			return nil, &BadArgumentsError{Types: []*ir.Type{slot.typ, t}}
		}

		return slot, nil
	}

	s.RegisterType(t)
	s.RegisterType(ir.Int)

	slot := &uniformSlot{loc: loc, typ: t, name: name, index: s.AllocID()}
	s.block.slots[loc] = slot

	return slot, nil
}

// finishUniforms declares the uniform block: its struct type with members
// in location order, member offsets, the variable and the index constants.
// An index equal to an int constant declared earlier reuses it; the
// returned map sends the slot placeholder to that constant.
func (s *state) finishUniforms() map[uint32]uint32 {
	b := s.block
	if b == nil {
		return nil
	}

	slots := make([]*uniformSlot, 0, len(b.slots))
	for _, slot := range b.slots {
		slots = append(slots, slot)
	}

	slices.SortFunc(slots, func(x, y *uniformSlot) int {
		return cmp.Compare(x.loc, y.loc)
	})

	members := make([]uint32, 0, len(slots)+1)
	members = append(members, b.structID)

	s.annotate(OpDecorate, b.structID, uint32(DecorationBlock))

	offset := 0
	for i, slot := range slots {
		members = append(members, s.RegisterType(slot.typ))

		s.annotate(OpMemberDecorate, b.structID, uint32(i), uint32(DecorationOffset), uint32(offset))

		if slot.typ.Kind() == ir.KindMatrix {
			s.annotate(OpMemberDecorate, b.structID, uint32(i), uint32(DecorationColMajor))
			s.annotate(OpMemberDecorate, b.structID, uint32(i), uint32(DecorationMatrixStride), uint32(ir.Size(slot.typ.Elem())))
		}

		s.debugMemberName(b.structID, uint32(i), slot.name)

		offset += ir.Size(slot.typ)
	}

	s.Declare(NewInstruction(OpTypeStruct, members...))

	ptr := s.AllocID()
	s.Declare(NewInstruction(OpTypePointer, ptr, uint32(StorageClassUniform), b.structID))
	s.Declare(NewInstruction(OpVariable, ptr, b.varID, uint32(StorageClassUniform)))

	s.annotate(OpDecorate, b.varID, uint32(DecorationDescriptorSet), s.settings.UniformSet)
	s.annotate(OpDecorate, b.varID, uint32(DecorationBinding), s.settings.UniformBinding)

	s.debugName(b.structID, "Uniforms")
	s.debugName(b.varID, "uniforms")

	intType := s.RegisterType(ir.Int)
	alias := make(map[uint32]uint32)

	for i, slot := range slots {
		key := intKey(int32(i))

		if id, ok := s.constants[key]; ok {
			alias[slot.index] = id
			continue
		}

		s.constants[key] = slot.index
		s.Declare(NewInstruction(OpConstant, intType, slot.index, uint32(i)))
	}

	return alias
}

// relink points the access chain indices of code at their aliases.
func relink(code []Instruction, alias map[uint32]uint32) {
	for _, inst := range code {
		if inst.Opcode != OpAccessChain {
			continue
		}

		// result type, result, base, indices...
		for i := 3; i < len(inst.Words); i++ {
			if id, ok := alias[inst.Words[i]]; ok {
				inst.Words[i] = id
			}
		}
	}
}
