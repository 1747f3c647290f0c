package spirv

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
)

var (
	capabilityNames = map[uint32]string{
		0: "Matrix", 1: "Shader", 10: "Float64", 37: "SampledRect",
		43: "Sampled1D", 46: "SampledBuffer",
	}
	addressingNames     = map[uint32]string{0: "Logical"}
	memoryModelNames    = map[uint32]string{0: "Simple", 1: "GLSL450", 2: "OpenCL", 3: "Vulkan"}
	executionModelNames = map[uint32]string{0: "Vertex", 4: "Fragment", 5: "GLCompute"}
	executionModeNames  = map[uint32]string{7: "OriginUpperLeft", 8: "OriginLowerLeft", 17: "LocalSize"}
	decorationNames     = map[uint32]string{
		2: "Block", 4: "RowMajor", 5: "ColMajor", 6: "ArrayStride", 7: "MatrixStride",
		11: "BuiltIn", 30: "Location", 33: "Binding", 34: "DescriptorSet", 35: "Offset",
	}
	storageClassNames = map[uint32]string{
		0: "UniformConstant", 1: "Input", 2: "Uniform", 3: "Output", 4: "Workgroup",
		6: "Private", 7: "Function", 12: "StorageBuffer",
	}
	dimNames     = map[uint32]string{0: "1D", 1: "2D", 2: "3D", 3: "Cube", 4: "Rect", 5: "Buffer"}
	controlNames = map[uint32]string{0: "None"}

	// enum operands by opcode and operand index
	enumOperands = map[OpCode]map[int]map[uint32]string{
		OpCapability:    {0: capabilityNames},
		OpMemoryModel:   {0: addressingNames, 1: memoryModelNames},
		OpEntryPoint:    {0: executionModelNames},
		OpExecutionMode: {1: executionModeNames},
		OpDecorate:      {1: decorationNames},
		OpMemberDecorate: {
			2: decorationNames,
		},
		OpTypePointer: {1: storageClassNames},
		OpVariable:    {2: storageClassNames},
		OpTypeImage:   {2: dimNames},
		OpExtInst:     {3: glslNames},
		OpFunction:    {2: controlNames},
		OpLoopMerge:   {2: controlNames},
	}
)

// Disassemble writes a textual listing of m in the style of spirv-dis.
func Disassemble(w io.Writer, m *Module) error {
	bw := bufio.NewWriter(w)

	fmt.Fprintf(bw, "; SPIR-V\n")
	fmt.Fprintf(bw, "; Version: %v\n", m.Version)
	fmt.Fprintf(bw, "; Generator: %#08x\n", m.Generator)
	fmt.Fprintf(bw, "; Bound: %d\n", m.Bound)
	fmt.Fprintf(bw, "; Schema: %d\n", m.Schema)

	d := disassembler{floats: map[uint32]int{}, signed: map[uint32]bool{}}

	for inst := range m.Instructions() {
		bw.WriteString(d.line(inst))
		bw.WriteByte('\n')
	}

	return bw.Flush()
}

// DisassembleString returns the listing of m.
func DisassembleString(m *Module) string {
	var b strings.Builder

	_ = Disassemble(&b, m)

	return b.String()
}

type disassembler struct {
	floats map[uint32]int  // float type id -> width
	signed map[uint32]bool // int type id -> signedness
}

func (d *disassembler) line(inst Instruction) string {
	ops := inst.operands()

	switch inst.Opcode {
	case OpTypeFloat:
		if len(ops) == 2 {
			d.floats[ops[0].words[0]] = int(ops[1].words[0])
		}
	case OpTypeInt:
		if len(ops) == 3 {
			d.signed[ops[0].words[0]] = ops[2].words[0] != 0
		}
	}

	var b strings.Builder
	var typ uint32

	prefix := strings.Repeat(" ", 15)

	for _, op := range ops {
		if op.kind == 'R' {
			prefix = fmt.Sprintf("%12s = ", "%"+strconv.FormatUint(uint64(op.words[0]), 10))
		}
	}

	b.WriteString(prefix)
	b.WriteString(inst.Opcode.String())

	enums := enumOperands[inst.Opcode]

	for i := 0; i < len(ops); i++ {
		op := ops[i]

		switch op.kind {
		case 'R':
			continue
		case 'T':
			typ = op.words[0]
			fmt.Fprintf(&b, " %%%d", op.words[0])
		case 'i':
			fmt.Fprintf(&b, " %%%d", op.words[0])
		case 's':
			fmt.Fprintf(&b, " %q", decodeString(op.words))
		case 'l':
			if inst.Opcode == OpConstant {
				b.WriteString(" ")
				b.WriteString(d.constant(typ, ops[i:]))
				i = len(ops)

				continue
			}

			if names, ok := enums[i]; ok {
				if name, ok := names[op.words[0]]; ok {
					b.WriteString(" ")
					b.WriteString(name)

					continue
				}
			}

			fmt.Fprintf(&b, " %d", op.words[0])
		}
	}

	return b.String()
}

// constant formats the literal words of an OpConstant of type typ.
func (d *disassembler) constant(typ uint32, ops []operand) string {
	words := make([]uint32, len(ops))
	for i, op := range ops {
		words[i] = op.words[0]
	}

	switch width := d.floats[typ]; {
	case width == 32 && len(words) == 1:
		return strconv.FormatFloat(float64(math.Float32frombits(words[0])), 'g', -1, 32)
	case width == 64 && len(words) == 2:
		return strconv.FormatFloat(math.Float64frombits(uint64(words[1])<<32|uint64(words[0])), 'g', -1, 64)
	}

	if d.signed[typ] && len(words) == 1 {
		return strconv.Itoa(int(int32(words[0])))
	}

	parts := make([]string, len(words))
	for i, w := range words {
		parts[i] = strconv.FormatUint(uint64(w), 10)
	}

	return strings.Join(parts, " ")
}
