package spirv

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gogpu/shadergraph/ir"
)

// lowerNode lowers n applied to inputs of the given types and returns the
// last instruction emitted.
func lowerNode(t *testing.T, n ir.Node, types ...*ir.Type) (Operand, Instruction, error) {
	t.Helper()

	g := ir.NewGraph()

	args := make([]ir.NodeID, len(types))
	for i, typ := range types {
		if typ.Kind() == ir.KindSampler {
			args[i] = g.Add(ir.Uniform{Location: uint32(i), Type: typ})
			continue
		}

		args[i] = g.Add(ir.Input{Location: uint32(i), Type: typ})
	}

	id := g.Add(n, args...)

	b := NewModuleBuilder(nil, DefaultSettings())

	res, err := b.Visit(g, id)
	if err != nil || len(b.code) == 0 {
		return res, Instruction{}, err
	}

	return res, b.code[len(b.code)-1], nil
}

func TestLowerArithmeticDispatch(t *testing.T) {
	ivec3 := ir.Vec(3, ir.Int)
	uvec2 := ir.Vec(2, ir.Uint)

	tests := []struct {
		op   ir.ArithmeticOp
		typ  *ir.Type
		want OpCode
	}{
		{ir.Add, ir.Int, OpIAdd},
		{ir.Add, ir.Uint, OpIAdd},
		{ir.Add, ir.Float, OpFAdd},
		{ir.Add, ivec3, OpIAdd},
		{ir.Subtract, vec3, OpFSub},
		{ir.Multiply, uvec2, OpIMul},
		{ir.Multiply, ir.Double, OpFMul},
		{ir.Multiply, vec4, OpFMul},
		{ir.Divide, ir.Int, OpSDiv},
		{ir.Divide, ir.Uint, OpUDiv},
		{ir.Divide, vec2, OpFDiv},
		{ir.Modulus, ivec3, OpSMod},
		{ir.Modulus, uvec2, OpUMod},
		{ir.Modulus, ir.Float, OpFMod},
	}

	for _, tt := range tests {
		t.Run(tt.op.String()+"/"+tt.typ.String(), func(t *testing.T) {
			res, inst, err := lowerNode(t, ir.Arithmetic{Op: tt.op}, tt.typ, tt.typ)
			require.NoError(t, err)

			assert.Equal(t, tt.want, inst.Opcode)
			assert.Same(t, tt.typ, res.Type)
		})
	}
}

func TestLowerArithmeticFold(t *testing.T) {
	g := ir.NewGraph()

	a := g.Add(ir.Input{Location: 0, Type: ir.Float})
	b := g.Add(ir.Input{Location: 1, Type: ir.Float})
	c := g.Add(ir.Input{Location: 2, Type: ir.Float})
	sub := g.Add(ir.Arithmetic{Op: ir.Subtract}, a, b, c)

	mb := NewModuleBuilder(nil, DefaultSettings())

	res, err := mb.Visit(g, sub)
	require.NoError(t, err)

	var subs []Instruction
	for _, inst := range mb.code {
		if inst.Opcode == OpFSub {
			subs = append(subs, inst)
		}
	}

	require.Len(t, subs, 2)

	la, _ := mb.Lookup(a)
	lb, _ := mb.Lookup(b)
	lc, _ := mb.Lookup(c)

	// (a - b) - c
	assert.Equal(t, []uint32{la.ID, lb.ID}, subs[0].Words[2:])
	assert.Equal(t, []uint32{subs[0].Words[1], lc.ID}, subs[1].Words[2:])
	assert.Equal(t, subs[1].Words[1], res.ID)
}

func TestLowerMultiplyShapes(t *testing.T) {
	mat3x4 := ir.Mat(3, vec4)
	mat4x3 := ir.Mat(4, vec3)
	dmat2 := ir.Mat(2, ir.Vec(2, ir.Double))

	tests := []struct {
		name string
		x, y *ir.Type
		op   OpCode
		res  *ir.Type
	}{
		{"vector scalar", vec3, ir.Float, OpVectorTimesScalar, vec3},
		{"scalar vector", ir.Float, vec4, OpVectorTimesScalar, vec4},
		{"matrix scalar", mat4, ir.Float, OpMatrixTimesScalar, mat4},
		{"scalar matrix", ir.Double, dmat2, OpMatrixTimesScalar, dmat2},
		{"vector matrix", vec4, mat3x4, OpVectorTimesMatrix, vec3},
		{"matrix vector", mat3x4, vec3, OpMatrixTimesVector, vec4},
		{"matrix matrix", mat3x4, mat4x3, OpMatrixTimesMatrix, ir.Mat(4, vec4)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, inst, err := lowerNode(t, ir.Arithmetic{Op: ir.Multiply}, tt.x, tt.y)
			require.NoError(t, err)

			assert.Equal(t, tt.op, inst.Opcode)
			assert.Same(t, tt.res, res.Type)
		})
	}

	bad := []struct {
		name string
		x, y *ir.Type
	}{
		{"int vector times int", ir.Vec(3, ir.Int), ir.Int},
		{"matrix times double", mat4, ir.Double},
		{"vector matrix rows", vec3, mat4},
		{"matrix vector columns", mat3x4, vec4},
		{"matrix matrix inner", mat4, mat4x3},
		{"vector times other vector", vec3, vec4},
	}

	for _, tt := range bad {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := lowerNode(t, ir.Arithmetic{Op: ir.Multiply}, tt.x, tt.y)

			var be *BadArgumentsError
			require.ErrorAs(t, err, &be)
			assert.Equal(t, []*ir.Type{tt.x, tt.y}, be.Types)
		})
	}

	_, _, err := lowerNode(t, ir.Arithmetic{Op: ir.Add}, mat4, mat4)
	assert.ErrorAs(t, err, new(*BadArgumentsError), "only Multiply takes matrices")
}

func TestLowerCompare(t *testing.T) {
	bvec3 := ir.Vec(3, ir.Bool)

	tests := []struct {
		op   ir.CompareOp
		typ  *ir.Type
		want OpCode
		res  *ir.Type
	}{
		{ir.Less, ir.Int, OpSLessThan, ir.Bool},
		{ir.Less, ir.Uint, OpULessThan, ir.Bool},
		{ir.Less, vec3, OpFOrdLessThan, bvec3},
		{ir.LessEqual, ir.Float, OpFOrdLessThanEqual, ir.Bool},
		{ir.Greater, ir.Vec(3, ir.Uint), OpUGreaterThan, bvec3},
		{ir.GreaterEqual, ir.Int, OpSGreaterThanEqual, ir.Bool},
		{ir.Equal, ir.Uint, OpIEqual, ir.Bool},
		{ir.Equal, ir.Bool, OpLogicalEqual, ir.Bool},
		{ir.NotEqual, ir.Double, OpFOrdNotEqual, ir.Bool},
		{ir.NotEqual, bvec3, OpLogicalNotEqual, bvec3},
	}

	for _, tt := range tests {
		t.Run(tt.op.String()+"/"+tt.typ.String(), func(t *testing.T) {
			res, inst, err := lowerNode(t, ir.Compare{Op: tt.op}, tt.typ, tt.typ)
			require.NoError(t, err)

			assert.Equal(t, tt.want, inst.Opcode)
			assert.Same(t, tt.res, res.Type)
		})
	}

	_, _, err := lowerNode(t, ir.Compare{Op: ir.Less}, ir.Bool, ir.Bool)
	assert.ErrorAs(t, err, new(*BadArgumentsError))

	_, _, err = lowerNode(t, ir.Compare{Op: ir.Less}, ir.Int, ir.Uint)
	assert.ErrorAs(t, err, new(*BadArgumentsError))
}

func TestLowerLogicalAndSelect(t *testing.T) {
	_, inst, err := lowerNode(t, ir.Logical{Op: ir.Not}, ir.Bool)
	require.NoError(t, err)
	assert.Equal(t, OpLogicalNot, inst.Opcode)

	_, inst, err = lowerNode(t, ir.Logical{Op: ir.And}, ir.Bool, ir.Bool, ir.Bool)
	require.NoError(t, err)
	assert.Equal(t, OpLogicalAnd, inst.Opcode)

	_, _, err = lowerNode(t, ir.Logical{Op: ir.Or}, ir.Bool, ir.Int)
	assert.ErrorAs(t, err, new(*BadArgumentsError))

	res, inst, err := lowerNode(t, ir.Select{}, ir.Bool, ir.Float, ir.Float)
	require.NoError(t, err)
	assert.Equal(t, OpSelect, inst.Opcode)
	assert.Same(t, ir.Float, res.Type)

	_, _, err = lowerNode(t, ir.Select{}, ir.Vec(3, ir.Bool), vec3, vec3)
	assert.NoError(t, err)

	_, _, err = lowerNode(t, ir.Select{}, ir.Bool, vec3, vec3)
	assert.ErrorAs(t, err, new(*BadArgumentsError))

	_, inst, err = lowerNode(t, ir.Negate{}, ir.Int)
	require.NoError(t, err)
	assert.Equal(t, OpSNegate, inst.Opcode)

	_, inst, err = lowerNode(t, ir.Negate{}, vec2)
	require.NoError(t, err)
	assert.Equal(t, OpFNegate, inst.Opcode)
}

func TestLowerMath(t *testing.T) {
	tests := []struct {
		fun  ir.MathFunction
		args []*ir.Type
		ext  uint32 // 0 for core instructions
		res  *ir.Type
	}{
		{ir.MathDot, []*ir.Type{vec3, vec3}, 0, ir.Float},
		{ir.MathCross, []*ir.Type{vec3, vec3}, GLSLstd450Cross, vec3},
		{ir.MathNormalize, []*ir.Type{vec4}, GLSLstd450Normalize, vec4},
		{ir.MathLength, []*ir.Type{vec2}, GLSLstd450Length, ir.Float},
		{ir.MathDistance, []*ir.Type{vec3, vec3}, GLSLstd450Distance, ir.Float},
		{ir.MathReflect, []*ir.Type{vec3, vec3}, GLSLstd450Reflect, vec3},
		{ir.MathRefract, []*ir.Type{vec3, vec3, ir.Float}, GLSLstd450Refract, vec3},
		{ir.MathFloor, []*ir.Type{ir.Float}, GLSLstd450Floor, ir.Float},
		{ir.MathCeil, []*ir.Type{vec2}, GLSLstd450Ceil, vec2},
		{ir.MathRound, []*ir.Type{ir.Double}, GLSLstd450Round, ir.Double},
		{ir.MathSin, []*ir.Type{ir.Float}, GLSLstd450Sin, ir.Float},
		{ir.MathCos, []*ir.Type{vec3}, GLSLstd450Cos, vec3},
		{ir.MathTan, []*ir.Type{ir.Float}, GLSLstd450Tan, ir.Float},
		{ir.MathPow, []*ir.Type{vec3, vec3}, GLSLstd450Pow, vec3},
		{ir.MathMin, []*ir.Type{ir.Int, ir.Int}, GLSLstd450SMin, ir.Int},
		{ir.MathMax, []*ir.Type{ir.Uint, ir.Uint}, GLSLstd450UMax, ir.Uint},
		{ir.MathMax, []*ir.Type{vec2, vec2, vec2}, GLSLstd450FMax, vec2},
		{ir.MathClamp, []*ir.Type{ir.Float, ir.Float, ir.Float}, GLSLstd450FClamp, ir.Float},
		{ir.MathClamp, []*ir.Type{ir.Int, ir.Int, ir.Int}, GLSLstd450SClamp, ir.Int},
		{ir.MathMix, []*ir.Type{vec3, vec3, vec3}, GLSLstd450FMix, vec3},
		{ir.MathSqrt, []*ir.Type{ir.Float}, GLSLstd450Sqrt, ir.Float},
		{ir.MathLog, []*ir.Type{ir.Float}, GLSLstd450Log, ir.Float},
		{ir.MathAbs, []*ir.Type{ir.Float}, GLSLstd450FAbs, ir.Float},
		{ir.MathAbs, []*ir.Type{ir.Vec(2, ir.Int)}, GLSLstd450SAbs, ir.Vec(2, ir.Int)},
		{ir.MathSmoothstep, []*ir.Type{ir.Float, ir.Float, ir.Float}, GLSLstd450SmoothStep, ir.Float},
		{ir.MathInverse, []*ir.Type{mat4}, GLSLstd450MatrixInverse, mat4},
		{ir.MathStep, []*ir.Type{vec4, vec4}, GLSLstd450Step, vec4},
	}

	for _, tt := range tests {
		t.Run(tt.fun.String(), func(t *testing.T) {
			res, inst, err := lowerNode(t, ir.Math{Fun: tt.fun}, tt.args...)
			require.NoError(t, err)

			assert.Same(t, tt.res, res.Type)

			if tt.ext == 0 {
				assert.Equal(t, OpDot, inst.Opcode)
				return
			}

			require.Equal(t, OpExtInst, inst.Opcode)
			assert.Equal(t, tt.ext, inst.Words[3])
			n := len(tt.args)
			if tt.fun == ir.MathMin || tt.fun == ir.MathMax {
				n = 2
			}

			assert.Len(t, inst.Words, 4+n)
		})
	}
}

func TestLowerMathErrors(t *testing.T) {
	tests := []struct {
		name string
		fun  ir.MathFunction
		args []*ir.Type
	}{
		{"dot of scalars", ir.MathDot, []*ir.Type{ir.Float, ir.Float}},
		{"dot of mixed vectors", ir.MathDot, []*ir.Type{vec3, vec4}},
		{"dot of int vectors", ir.MathDot, []*ir.Type{ir.Vec(3, ir.Int), ir.Vec(3, ir.Int)}},
		{"cross of vec4", ir.MathCross, []*ir.Type{vec4, vec4}},
		{"normalize scalar", ir.MathNormalize, []*ir.Type{ir.Float}},
		{"sin of int", ir.MathSin, []*ir.Type{ir.Int}},
		{"refract eta", ir.MathRefract, []*ir.Type{vec3, vec3, ir.Double}},
		{"min of mixed", ir.MathMin, []*ir.Type{ir.Int, ir.Float}},
		{"clamp of bool", ir.MathClamp, []*ir.Type{ir.Bool, ir.Bool, ir.Bool}},
		{"inverse non square", ir.MathInverse, []*ir.Type{ir.Mat(3, vec4)}},
		{"abs of bool", ir.MathAbs, []*ir.Type{ir.Bool}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := lowerNode(t, ir.Math{Fun: tt.fun}, tt.args...)
			assert.ErrorAs(t, err, new(*BadArgumentsError))
		})
	}

	_, _, err := lowerNode(t, ir.Math{Fun: ir.MathPow}, ir.Float)

	var wc *WrongArgumentsCountError
	require.ErrorAs(t, err, &wc)
	assert.Equal(t, &WrongArgumentsCountError{Actual: 1, Expected: 2}, wc)
}

func TestLowerAbsUnsigned(t *testing.T) {
	g := ir.NewGraph()

	x := g.Add(ir.Input{Location: 0, Type: ir.Uint})
	abs := g.Add(ir.Math{Fun: ir.MathAbs}, x)

	b := NewModuleBuilder(nil, DefaultSettings())

	res, err := b.Visit(g, abs)
	require.NoError(t, err)

	in, _ := b.Lookup(x)
	assert.Equal(t, in, res)
}

func TestLowerSample(t *testing.T) {
	tests := []struct {
		sampler *ir.Type
		coord   *ir.Type
		res     *ir.Type
	}{
		{ir.Sampler(ir.Float, ir.Dim1D), ir.Float, vec4},
		{ir.Sampler(ir.Float, ir.DimBuffer), ir.Float, vec4},
		{ir.Sampler(ir.Int, ir.Dim2D), vec2, ir.Vec(4, ir.Int)},
		{ir.Sampler(ir.Uint, ir.DimRect), vec2, ir.Vec(4, ir.Uint)},
		{ir.Sampler(ir.Float, ir.Dim3D), vec3, vec4},
		{ir.Sampler(ir.Double, ir.DimCube), vec3, ir.Vec(4, ir.Double)},
	}

	for _, tt := range tests {
		t.Run(tt.sampler.String(), func(t *testing.T) {
			res, inst, err := lowerNode(t, ir.Sample{}, tt.sampler, tt.coord)
			require.NoError(t, err)

			assert.Equal(t, OpImageSampleImplicitLod, inst.Opcode)
			assert.Same(t, tt.res, res.Type)
		})
	}

	for _, tt := range []struct {
		sampler *ir.Type
		coord   *ir.Type
	}{
		{ir.Sampler(ir.Float, ir.Dim2D), vec3},
		{ir.Sampler(ir.Float, ir.Dim2D), ir.Float},
		{ir.Sampler(ir.Float, ir.DimCube), vec2},
		{ir.Sampler(ir.Float, ir.Dim2D), ir.Vec(2, ir.Int)},
		{vec2, vec2},
	} {
		_, _, err := lowerNode(t, ir.Sample{}, tt.sampler, tt.coord)
		assert.ErrorAs(t, err, new(*BadArgumentsError), "%v at %v", tt.sampler, tt.coord)
	}
}

func TestLowerConstruct(t *testing.T) {
	res, inst, err := lowerNode(t, ir.Construct{Type: vec3}, ir.Float, ir.Float, ir.Float)
	require.NoError(t, err)
	assert.Equal(t, OpCompositeConstruct, inst.Opcode)
	assert.Same(t, vec3, res.Type)

	_, _, err = lowerNode(t, ir.Construct{Type: vec3}, ir.Float, ir.Int, ir.Float)
	assert.ErrorAs(t, err, new(*BadArgumentsError))

	_, _, err = lowerNode(t, ir.Construct{Type: ir.Float}, ir.Float)
	assert.ErrorAs(t, err, new(*BadArgumentsError))

	res, inst, err = lowerNode(t, ir.Extract{Index: 2}, vec3)
	require.NoError(t, err)
	assert.Equal(t, OpCompositeExtract, inst.Opcode)
	assert.Equal(t, uint32(2), inst.Words[3])
	assert.Same(t, ir.Float, res.Type)

	_, _, err = lowerNode(t, ir.Extract{Index: 0}, ir.Float)
	assert.ErrorAs(t, err, new(*BadArgumentsError))
}

func TestVisitMemoized(t *testing.T) {
	g := ir.NewGraph()

	x := g.Add(ir.Input{Location: 0, Type: ir.Float})
	sq := g.Add(ir.Arithmetic{Op: ir.Multiply}, x, x)
	sum := g.Add(ir.Arithmetic{Op: ir.Add}, sq, sq)

	b := NewModuleBuilder(nil, DefaultSettings())

	first, err := b.Visit(g, sum)
	require.NoError(t, err)

	n := len(b.code)

	again, err := b.Visit(g, sum)
	require.NoError(t, err)

	assert.Equal(t, first, again)
	assert.Len(t, b.code, n)

	// one load, one multiply, one add
	assert.Equal(t, []OpCode{OpLoad, OpFMul, OpFAdd}, opcodes(b.code))
}

func TestVisitDeepGraph(t *testing.T) {
	g := ir.NewGraph()

	acc := g.Add(ir.Input{Location: 0, Type: ir.Float})
	one := g.Add(ir.Constant{Value: ir.FloatValue(1)})

	for range 100000 {
		acc = g.Add(ir.Arithmetic{Op: ir.Add}, acc, one)
	}

	b := NewModuleBuilder(nil, DefaultSettings())

	_, err := b.Visit(g, acc)
	require.NoError(t, err)
	assert.Equal(t, 100000, count(b.code, OpFAdd))
}
