package spirv

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gogpu/shadergraph/ir"
)

func TestRegisterTypeNestedFirst(t *testing.T) {
	b := NewModuleBuilder(nil, DefaultSettings())

	ptr := b.RegisterType(ir.Pointer(ir.StorageInput, mat4))
	assert.Equal(t, ptr, b.RegisterType(ir.Pointer(ir.StorageInput, mat4)))

	assert.Equal(t,
		[]OpCode{OpTypeFloat, OpTypeVector, OpTypeMatrix, OpTypePointer},
		opcodes(b.declarations))

	vec := b.RegisterType(vec4)
	assert.Equal(t, b.declarations[1].Words[0], vec)
	assert.Len(t, b.declarations, 4, "registering a nested type again declares nothing")

	sampler := b.RegisterType(ir.Sampler(ir.Int, ir.Dim3D))
	assert.Equal(t, sampler, b.RegisterType(ir.Sampler(ir.Int, ir.Dim3D)))

	assert.Equal(t,
		[]OpCode{OpTypeInt, OpTypeImage, OpTypeSampledImage},
		opcodes(b.declarations[4:]))

	image := b.declarations[5]
	assert.Equal(t, b.declarations[4].Words[0], image.Words[1], "sampled type")
	assert.Equal(t, uint32(ir.Dim3D), image.Words[2])
}

func TestRegisterConstantDedup(t *testing.T) {
	b := NewModuleBuilder(nil, DefaultSettings())

	reg := func(v ir.Value) uint32 {
		t.Helper()

		id, err := b.RegisterConstant(v)
		require.NoError(t, err)

		return id
	}

	one := reg(ir.FloatValue(1))
	assert.Equal(t, one, reg(ir.FloatValue(1)))
	assert.NotEqual(t, one, reg(ir.DoubleValue(1)))
	assert.NotEqual(t, one, reg(ir.IntValue(1)))
	assert.NotEqual(t, reg(ir.IntValue(1)), reg(ir.UintValue(1)))
	assert.NotEqual(t, reg(ir.IntValue(-1)), reg(ir.UintValue(math.MaxUint32)))

	zero := reg(ir.FloatValue(0))
	negZero := reg(ir.FloatValue(float32(math.Copysign(0, -1))))
	assert.NotEqual(t, zero, negZero, "signed zeros stay distinct")

	nan1 := ir.FloatValue(math.Float32frombits(0x7fc00001))
	nan2 := ir.FloatValue(math.Float32frombits(0x7fc00002))
	assert.NotEqual(t, reg(nan1), reg(nan2), "NaN payloads stay distinct")
	assert.Equal(t, reg(nan1), reg(nan1), "equal NaN bits deduplicate")

	dnan := ir.DoubleValue(math.Float64frombits(0x7ff8000000000001))
	assert.Equal(t, reg(dnan), reg(dnan))

	denorm := ir.FloatValue(math.Float32frombits(1))
	assert.NotEqual(t, zero, reg(denorm))

	assert.Equal(t, reg(ir.BoolValue(true)), reg(ir.BoolValue(true)))
	assert.NotEqual(t, reg(ir.BoolValue(true)), reg(ir.BoolValue(false)))
}

func TestRegisterConstantWords(t *testing.T) {
	b := NewModuleBuilder(nil, DefaultSettings())

	id, err := b.RegisterConstant(ir.DoubleValue(1.5))
	require.NoError(t, err)

	inst, ok := find(b.declarations, OpConstant, b.RegisterType(ir.Double), id)
	require.True(t, ok)

	bits := math.Float64bits(1.5)
	assert.Equal(t, []uint32{uint32(bits), uint32(bits >> 32)}, inst.Words[2:])

	id, err = b.RegisterConstant(ir.IntValue(-2))
	require.NoError(t, err)

	inst, ok = find(b.declarations, OpConstant, b.RegisterType(ir.Int), id)
	require.True(t, ok)
	assert.Equal(t, []uint32{0xfffffffe}, inst.Words[2:])

	id, err = b.RegisterConstant(ir.BoolValue(false))
	require.NoError(t, err)

	_, ok = find(b.declarations, OpConstantFalse, b.RegisterType(ir.Bool), id)
	assert.True(t, ok)
}

func TestRegisterConstantComposite(t *testing.T) {
	b := NewModuleBuilder(nil, DefaultSettings())

	v1, err := b.RegisterConstant(ir.Vec3f(1, 2, 1))
	require.NoError(t, err)

	v2, err := b.RegisterConstant(ir.Vec3f(1, 2, 1))
	require.NoError(t, err)

	assert.NotEqual(t, v1, v2, "composites are declared anew")
	assert.Equal(t, 2, count(b.declarations, OpConstant), "components are shared")
	assert.Equal(t, 2, count(b.declarations, OpConstantComposite))

	first, _ := find(b.declarations, OpConstantComposite, b.RegisterType(vec3), v1)
	assert.Equal(t, first.Words[2], first.Words[4])

	m, err := b.RegisterConstant(ir.Identity(4))
	require.NoError(t, err)

	inst, ok := find(b.declarations, OpConstantComposite, b.RegisterType(mat4), m)
	require.True(t, ok)
	assert.Len(t, inst.Words, 2+4)
}

func TestRegisterConstantUnsupported(t *testing.T) {
	b := NewModuleBuilder(nil, DefaultSettings())

	tests := []struct {
		name string
		v    ir.Value
	}{
		{"nil", nil},
		{"empty vector", ir.VectorValue{}},
		{"mixed vector", ir.VectorValue{ir.FloatValue(1), ir.IntValue(1)}},
		{"int matrix", ir.MatrixValue{ir.Vec2i(1, 0), ir.Vec2i(0, 1)}},
		{"bool matrix", ir.MatrixValue{
			ir.VectorValue{ir.BoolValue(true), ir.BoolValue(false)},
			ir.VectorValue{ir.BoolValue(false), ir.BoolValue(true)},
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := b.RegisterConstant(tt.v)

			var uc *UnsupportedConstantError
			require.ErrorAs(t, err, &uc)
			assert.NotEmpty(t, uc.Type)
		})
	}
}

func TestFunctionTypeCached(t *testing.T) {
	b := NewModuleBuilder(nil, DefaultSettings())

	f1 := b.functionType(ir.Float, []*ir.Type{vec3, ir.Float})
	f2 := b.functionType(ir.Float, []*ir.Type{vec3, ir.Float})
	f3 := b.functionType(ir.Float, []*ir.Type{ir.Float, vec3})

	assert.Equal(t, f1, f2)
	assert.NotEqual(t, f1, f3)
	assert.Equal(t, 2, count(b.declarations, OpTypeFunction))
}

func TestOrderDeclarations(t *testing.T) {
	decls := []Instruction{
		NewInstruction(OpTypePointer, 5, uint32(StorageClassInput), 4),
		NewInstruction(OpTypeVector, 4, 3, 3),
		NewInstruction(OpTypeBool, 6),
		NewInstruction(OpTypeFloat, 3, 32),
		NewInstruction(OpVariable, 5, 7, uint32(StorageClassInput)),
	}

	sorted, err := orderDeclarations(decls)
	require.NoError(t, err)
	require.Len(t, sorted, len(decls))

	defined := map[uint32]bool{}
	for _, inst := range sorted {
		for _, ref := range inst.Refs() {
			assert.True(t, defined[ref], "%v uses %%%d before its declaration", inst.Opcode, ref)
		}

		defined[inst.ResultID()] = true
	}

	again, err := orderDeclarations(decls)
	require.NoError(t, err)
	assert.Equal(t, sorted, again)

	_, err = orderDeclarations([]Instruction{
		NewInstruction(OpTypeFloat, 3, 32),
		NewInstruction(OpTypePointer, 5, uint32(StorageClassFunction), 5),
	})

	var cyc *CyclicGraphError
	require.ErrorAs(t, err, &cyc)
	assert.Equal(t, "declarations", cyc.Stage)

	_, err = orderDeclarations([]Instruction{
		NewInstruction(OpTypeVector, 3, 4, 2),
		NewInstruction(OpTypeVector, 4, 3, 2),
	})
	require.ErrorAs(t, err, &cyc)

	sorted, err = orderDeclarations(nil)
	require.NoError(t, err)
	assert.Empty(t, sorted)
}
