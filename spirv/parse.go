package spirv

import (
	"encoding/binary"

	"tlog.app/go/errors"
)

const headerWords = 5

// Parse reads a SPIR-V binary. Both byte orders are accepted.
func Parse(data []byte) (*Module, error) {
	if len(data)%4 != 0 {
		return nil, errors.New("binary size %d is not a multiple of 4", len(data))
	}
	if len(data) < 4*headerWords {
		return nil, errors.New("binary too short: %d bytes", len(data))
	}

	var order binary.ByteOrder = binary.LittleEndian

	switch {
	case binary.LittleEndian.Uint32(data) == MagicNumber:
	case binary.BigEndian.Uint32(data) == MagicNumber:
		order = binary.BigEndian
	default:
		return nil, errors.New("bad magic number %#08x", binary.LittleEndian.Uint32(data))
	}

	words := make([]uint32, len(data)/4)
	for i := range words {
		words[i] = order.Uint32(data[4*i:])
	}

	return ParseWords(words)
}

// ParseWords reads a module from SPIR-V words in host order.
func ParseWords(words []uint32) (*Module, error) {
	if len(words) < headerWords || words[0] != MagicNumber {
		return nil, errors.New("not a SPIR-V module")
	}

	m := &Module{
		Version:   versionFromWord(words[1]),
		Generator: words[2],
		Bound:     words[3],
		Schema:    words[4],
	}

	var (
		fn          *Function
		memoryModel bool
	)

	for off := headerWords; off < len(words); {
		wc := int(words[off] >> 16)
		op := OpCode(words[off] & 0xffff)

		if wc == 0 {
			return nil, errors.New("word %d: %v: zero word count", off, op)
		}
		if off+wc > len(words) {
			return nil, errors.New("word %d: %v: truncated instruction", off, op)
		}

		inst := Instruction{Opcode: op, Words: words[off+1 : off+wc : off+wc]}
		off += wc

		if fn != nil {
			fn.Instructions = append(fn.Instructions, inst)

			if op == OpFunctionEnd {
				m.Functions = append(m.Functions, *fn)
				fn = nil
			}

			continue
		}

		switch op {
		case OpCapability:
			m.Capabilities = append(m.Capabilities, inst)
		case OpExtension:
			m.Extensions = append(m.Extensions, inst)
		case OpExtInstImport:
			m.ExtInstImports = append(m.ExtInstImports, inst)
		case OpMemoryModel:
			m.MemoryModel = inst
			memoryModel = true
		case OpEntryPoint:
			m.EntryPoints = append(m.EntryPoints, inst)
		case OpExecutionMode:
			m.ExecutionModes = append(m.ExecutionModes, inst)
		case OpSource, OpString, OpName, OpMemberName:
			m.Debug = append(m.Debug, inst)
		case OpDecorate, OpMemberDecorate:
			m.Annotations = append(m.Annotations, inst)
		case OpFunction:
			fn = &Function{Instructions: []Instruction{inst}}
		case OpFunctionEnd:
			return nil, errors.New("%v outside of a function", op)
		default:
			if len(m.Functions) != 0 {
				return nil, errors.New("%v after the first function", op)
			}

			m.Declarations = append(m.Declarations, inst)
		}
	}

	if fn != nil {
		return nil, errors.New("function %%%d is not terminated", fn.ID())
	}
	if !memoryModel {
		return nil, errors.New("no memory model")
	}

	return m, nil
}
