package spirv

// Instruction represents a SPIR-V instruction.
type Instruction struct {
	Opcode OpCode
	Words  []uint32 // result type ID, result ID, operands
}

// NewInstruction returns an instruction made of op and its operand words.
func NewInstruction(op OpCode, words ...uint32) Instruction {
	return Instruction{Opcode: op, Words: words}
}

// InstructionBuilder builds SPIR-V instructions.
type InstructionBuilder struct {
	words []uint32
}

// NewInstructionBuilder creates a new instruction builder.
func NewInstructionBuilder() *InstructionBuilder {
	return &InstructionBuilder{
		words: make([]uint32, 0, 8),
	}
}

// AddWord adds a word to the instruction.
func (b *InstructionBuilder) AddWord(words ...uint32) *InstructionBuilder {
	b.words = append(b.words, words...)
	return b
}

// AddString adds a nul-terminated UTF-8 string padded to a word boundary.
func (b *InstructionBuilder) AddString(s string) *InstructionBuilder {
	var w uint32

	for i := 0; i < len(s); i++ {
		w |= uint32(s[i]) << (8 * (i % 4))

		if i%4 == 3 {
			b.words = append(b.words, w)
			w = 0
		}
	}

	// terminator and padding; a string of 4n bytes gets a whole zero word
	b.words = append(b.words, w)

	return b
}

// Build builds the instruction with the given opcode.
func (b *InstructionBuilder) Build(opcode OpCode) Instruction {
	return Instruction{
		Opcode: opcode,
		Words:  b.words,
	}
}

// Encode encodes the instruction to binary.
func (inst Instruction) Encode() []uint32 {
	return inst.AppendEncoded(make([]uint32, 0, len(inst.Words)+1))
}

// AppendEncoded appends the encoded instruction to buf.
func (inst Instruction) AppendEncoded(buf []uint32) []uint32 {
	wordCount := uint32(len(inst.Words) + 1) // +1 for opcode word
	buf = append(buf, (wordCount<<16)|uint32(inst.Opcode))
	return append(buf, inst.Words...)
}

// ResultID returns the id defined by inst, or 0.
func (inst Instruction) ResultID() uint32 {
	for _, op := range inst.operands() {
		if op.kind == 'R' {
			return op.words[0]
		}
	}

	return 0
}

// ResultType returns the result type id of inst, or 0.
func (inst Instruction) ResultType() uint32 {
	if info, ok := grammar[inst.Opcode]; ok && len(info.layout) != 0 && info.layout[0] == 'T' && len(inst.Words) != 0 {
		return inst.Words[0]
	}

	return 0
}

// Refs returns the ids inst refers to, including its result type.
func (inst Instruction) Refs() []uint32 {
	var refs []uint32

	for _, op := range inst.operands() {
		if op.kind == 'T' || op.kind == 'i' {
			refs = append(refs, op.words[0])
		}
	}

	return refs
}

// StringOperand returns the first literal string operand of inst, as in
// OpExtInstImport or OpName.
func (inst Instruction) StringOperand() string {
	for _, op := range inst.operands() {
		if op.kind == 's' {
			return decodeString(op.words)
		}
	}

	return ""
}
