package spirv

import (
	"encoding/binary"
	"iter"
)

// Module is an assembled SPIR-V module with its instructions grouped in
// logical layout order.
type Module struct {
	// Header
	Version   Version
	Generator uint32
	Bound     uint32 // max ID + 1
	Schema    uint32

	// Sections (ordered per SPIR-V spec)
	Capabilities   []Instruction
	Extensions     []Instruction
	ExtInstImports []Instruction
	MemoryModel    Instruction
	EntryPoints    []Instruction
	ExecutionModes []Instruction
	Debug          []Instruction // OpSource, OpString, OpName, OpMemberName
	Annotations    []Instruction // OpDecorate, OpMemberDecorate
	Declarations   []Instruction // OpType*, OpConstant*, global OpVariable
	Functions      []Function
}

// Function is one function of a module, from OpFunction to OpFunctionEnd.
type Function struct {
	Instructions []Instruction
}

// ID returns the result id of the function.
func (f Function) ID() uint32 {
	if len(f.Instructions) == 0 {
		return 0
	}

	return f.Instructions[0].ResultID()
}

// Labels returns the ids of the basic blocks of the function in order.
func (f Function) Labels() []uint32 {
	var labels []uint32

	for _, inst := range f.Instructions {
		if inst.Opcode == OpLabel {
			labels = append(labels, inst.Words[0])
		}
	}

	return labels
}

// Instructions yields every instruction of the module in binary order.
func (m *Module) Instructions() iter.Seq[Instruction] {
	return func(yield func(Instruction) bool) {
		sections := [][]Instruction{
			m.Capabilities,
			m.Extensions,
			m.ExtInstImports,
			{m.MemoryModel},
			m.EntryPoints,
			m.ExecutionModes,
			m.Debug,
			m.Annotations,
			m.Declarations,
		}

		for _, sec := range sections {
			for _, inst := range sec {
				if !yield(inst) {
					return
				}
			}
		}

		for _, f := range m.Functions {
			for _, inst := range f.Instructions {
				if !yield(inst) {
					return
				}
			}
		}
	}
}

// Assemble serializes the module into SPIR-V words.
func (m *Module) Assemble() []uint32 {
	words := make([]uint32, 0, 256)

	// Header
	words = append(words,
		MagicNumber,
		m.Version.word(),
		m.Generator,
		m.Bound,
		m.Schema,
	)

	for inst := range m.Instructions() {
		words = inst.AppendEncoded(words)
	}

	return words
}

// Bytes serializes the module into a little-endian SPIR-V binary.
func (m *Module) Bytes() []byte {
	words := m.Assemble()
	bytes := make([]byte, 4*len(words))

	for i, word := range words {
		binary.LittleEndian.PutUint32(bytes[i*4:], word)
	}

	return bytes
}
