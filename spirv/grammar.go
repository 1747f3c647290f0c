package spirv

import (
	"strconv"
	"strings"
)

// Operand layouts, one letter per operand:
//
//	T  result type id
//	R  result id
//	i  id operand
//	l  literal word
//	s  literal string (one or more words)
//
// A trailing '*' repeats the preceding letter zero or more times.
type opInfo struct {
	name   string
	layout string
}

var grammar = map[OpCode]opInfo{
	OpNop:                    {"OpNop", ""},
	OpSource:                 {"OpSource", "l*"},
	OpName:                   {"OpName", "is"},
	OpMemberName:             {"OpMemberName", "ils"},
	OpString:                 {"OpString", "Rs"},
	OpExtension:              {"OpExtension", "s"},
	OpExtInstImport:          {"OpExtInstImport", "Rs"},
	OpExtInst:                {"OpExtInst", "TRili*"},
	OpMemoryModel:            {"OpMemoryModel", "ll"},
	OpEntryPoint:             {"OpEntryPoint", "lisi*"},
	OpExecutionMode:          {"OpExecutionMode", "ill*"},
	OpCapability:             {"OpCapability", "l"},
	OpTypeVoid:               {"OpTypeVoid", "R"},
	OpTypeBool:               {"OpTypeBool", "R"},
	OpTypeInt:                {"OpTypeInt", "Rll"},
	OpTypeFloat:              {"OpTypeFloat", "Rl"},
	OpTypeVector:             {"OpTypeVector", "Ril"},
	OpTypeMatrix:             {"OpTypeMatrix", "Ril"},
	OpTypeImage:              {"OpTypeImage", "Rilllllll*"},
	OpTypeSampler:            {"OpTypeSampler", "R"},
	OpTypeSampledImage:       {"OpTypeSampledImage", "Ri"},
	OpTypeArray:              {"OpTypeArray", "Rii"},
	OpTypeStruct:             {"OpTypeStruct", "Ri*"},
	OpTypePointer:            {"OpTypePointer", "Rli"},
	OpTypeFunction:           {"OpTypeFunction", "Rii*"},
	OpConstantTrue:           {"OpConstantTrue", "TR"},
	OpConstantFalse:          {"OpConstantFalse", "TR"},
	OpConstant:               {"OpConstant", "TRl*"},
	OpConstantComposite:      {"OpConstantComposite", "TRi*"},
	OpFunction:               {"OpFunction", "TRli"},
	OpFunctionParameter:      {"OpFunctionParameter", "TR"},
	OpFunctionEnd:            {"OpFunctionEnd", ""},
	OpFunctionCall:           {"OpFunctionCall", "TRii*"},
	OpVariable:               {"OpVariable", "TRli*"},
	OpLoad:                   {"OpLoad", "TRil*"},
	OpStore:                  {"OpStore", "iil*"},
	OpAccessChain:            {"OpAccessChain", "TRii*"},
	OpDecorate:               {"OpDecorate", "ill*"},
	OpMemberDecorate:         {"OpMemberDecorate", "illl*"},
	OpCompositeConstruct:     {"OpCompositeConstruct", "TRi*"},
	OpCompositeExtract:       {"OpCompositeExtract", "TRil*"},
	OpSampledImage:           {"OpSampledImage", "TRii"},
	OpImageSampleImplicitLod: {"OpImageSampleImplicitLod", "TRiil*"},
	OpSNegate:                {"OpSNegate", "TRi"},
	OpFNegate:                {"OpFNegate", "TRi"},
	OpIAdd:                   {"OpIAdd", "TRii"},
	OpFAdd:                   {"OpFAdd", "TRii"},
	OpISub:                   {"OpISub", "TRii"},
	OpFSub:                   {"OpFSub", "TRii"},
	OpIMul:                   {"OpIMul", "TRii"},
	OpFMul:                   {"OpFMul", "TRii"},
	OpUDiv:                   {"OpUDiv", "TRii"},
	OpSDiv:                   {"OpSDiv", "TRii"},
	OpFDiv:                   {"OpFDiv", "TRii"},
	OpUMod:                   {"OpUMod", "TRii"},
	OpSRem:                   {"OpSRem", "TRii"},
	OpSMod:                   {"OpSMod", "TRii"},
	OpFRem:                   {"OpFRem", "TRii"},
	OpFMod:                   {"OpFMod", "TRii"},
	OpVectorTimesScalar:      {"OpVectorTimesScalar", "TRii"},
	OpMatrixTimesScalar:      {"OpMatrixTimesScalar", "TRii"},
	OpVectorTimesMatrix:      {"OpVectorTimesMatrix", "TRii"},
	OpMatrixTimesVector:      {"OpMatrixTimesVector", "TRii"},
	OpMatrixTimesMatrix:      {"OpMatrixTimesMatrix", "TRii"},
	OpDot:                    {"OpDot", "TRii"},
	OpLogicalEqual:           {"OpLogicalEqual", "TRii"},
	OpLogicalNotEqual:        {"OpLogicalNotEqual", "TRii"},
	OpLogicalOr:              {"OpLogicalOr", "TRii"},
	OpLogicalAnd:             {"OpLogicalAnd", "TRii"},
	OpLogicalNot:             {"OpLogicalNot", "TRi"},
	OpSelect:                 {"OpSelect", "TRiii"},
	OpIEqual:                 {"OpIEqual", "TRii"},
	OpINotEqual:              {"OpINotEqual", "TRii"},
	OpUGreaterThan:           {"OpUGreaterThan", "TRii"},
	OpSGreaterThan:           {"OpSGreaterThan", "TRii"},
	OpUGreaterThanEqual:      {"OpUGreaterThanEqual", "TRii"},
	OpSGreaterThanEqual:      {"OpSGreaterThanEqual", "TRii"},
	OpULessThan:              {"OpULessThan", "TRii"},
	OpSLessThan:              {"OpSLessThan", "TRii"},
	OpULessThanEqual:         {"OpULessThanEqual", "TRii"},
	OpSLessThanEqual:         {"OpSLessThanEqual", "TRii"},
	OpFOrdEqual:              {"OpFOrdEqual", "TRii"},
	OpFOrdNotEqual:           {"OpFOrdNotEqual", "TRii"},
	OpFOrdLessThan:           {"OpFOrdLessThan", "TRii"},
	OpFOrdGreaterThan:        {"OpFOrdGreaterThan", "TRii"},
	OpFOrdLessThanEqual:      {"OpFOrdLessThanEqual", "TRii"},
	OpFOrdGreaterThanEqual:   {"OpFOrdGreaterThanEqual", "TRii"},
	OpLoopMerge:              {"OpLoopMerge", "iill*"},
	OpSelectionMerge:         {"OpSelectionMerge", "il"},
	OpLabel:                  {"OpLabel", "R"},
	OpBranch:                 {"OpBranch", "i"},
	OpBranchConditional:      {"OpBranchConditional", "iiil*"},
	OpReturn:                 {"OpReturn", ""},
	OpReturnValue:            {"OpReturnValue", "i"},
	OpUnreachable:            {"OpUnreachable", ""},
}

func (op OpCode) String() string {
	if info, ok := grammar[op]; ok {
		return info.name
	}
	return "Op" + strconv.Itoa(int(op))
}

// ParseOpCode resolves an opcode name such as "OpFAdd".
func ParseOpCode(name string) (OpCode, bool) {
	for op, info := range grammar {
		if info.name == name {
			return op, true
		}
	}

	if n, ok := strings.CutPrefix(name, "Op"); ok {
		if v, err := strconv.ParseUint(n, 10, 16); err == nil {
			return OpCode(v), true
		}
	}

	return 0, false
}

// operand is one decoded operand of an instruction.
type operand struct {
	kind  byte
	words []uint32
}

// operands decodes the operand words of inst following its layout.
// Unknown opcodes decode as a list of literals.
func (inst Instruction) operands() []operand {
	layout := "l*"
	if info, ok := grammar[inst.Opcode]; ok {
		layout = info.layout
	}

	res := make([]operand, 0, len(inst.Words))
	words := inst.Words

	for i := 0; i < len(layout) && len(words) != 0; i++ {
		kind := layout[i]
		repeat := i+1 < len(layout) && layout[i+1] == '*'

		for len(words) != 0 {
			n := 1
			if kind == 's' {
				n = stringWords(words)
			}

			res = append(res, operand{kind: kind, words: words[:n]})
			words = words[n:]

			if !repeat {
				break
			}
		}

		if repeat {
			i++
		}
	}

	for _, w := range words {
		res = append(res, operand{kind: 'l', words: []uint32{w}})
	}

	return res
}

// stringWords returns the number of words a nul-terminated string occupies.
func stringWords(words []uint32) int {
	for i, w := range words {
		if w>>24 == 0 || w>>16&0xff == 0 || w>>8&0xff == 0 || w&0xff == 0 {
			return i + 1
		}
	}

	return len(words)
}

func decodeString(words []uint32) string {
	b := make([]byte, 0, 4*len(words))

	for _, w := range words {
		for s := 0; s < 32; s += 8 {
			c := byte(w >> s)
			if c == 0 {
				return string(b)
			}

			b = append(b, c)
		}
	}

	return string(b)
}
