package spirv

import (
	"github.com/gogpu/shadergraph/ir"
)

// numeric is the class of a scalar type selecting an instruction variant.
type numeric uint8

const (
	numSigned numeric = iota
	numUnsigned
	numFloat
	numBool
	numNone
)

// classify returns the numeric class of a scalar or vector type.
func classify(t *ir.Type) numeric {
	if t == nil {
		return numNone
	}

	switch t.Kind() {
	case ir.KindBool, ir.KindInt, ir.KindFloat, ir.KindVector:
	default:
		return numNone
	}

	s := t.Scalar()

	switch s.Kind() {
	case ir.KindBool:
		return numBool
	case ir.KindFloat:
		return numFloat
	case ir.KindInt:
		if s.Signed() {
			return numSigned
		}
		return numUnsigned
	}

	return numNone
}

// opTable holds the signed, unsigned and float variants of an operation.
type opTable [3]OpCode

var arithmeticOps = [...]opTable{
	ir.Add:      {OpIAdd, OpIAdd, OpFAdd},
	ir.Subtract: {OpISub, OpISub, OpFSub},
	ir.Multiply: {OpIMul, OpIMul, OpFMul},
	ir.Divide:   {OpSDiv, OpUDiv, OpFDiv},
	ir.Modulus:  {OpSMod, OpUMod, OpFMod},
}

var compareOps = [...]opTable{
	ir.Less:         {OpSLessThan, OpULessThan, OpFOrdLessThan},
	ir.LessEqual:    {OpSLessThanEqual, OpULessThanEqual, OpFOrdLessThanEqual},
	ir.Greater:      {OpSGreaterThan, OpUGreaterThan, OpFOrdGreaterThan},
	ir.GreaterEqual: {OpSGreaterThanEqual, OpUGreaterThanEqual, OpFOrdGreaterThanEqual},
	ir.Equal:        {OpIEqual, OpIEqual, OpFOrdEqual},
	ir.NotEqual:     {OpINotEqual, OpINotEqual, OpFOrdNotEqual},
}

// arithmetic lowers one pairwise step of an arithmetic fold.
func arithmetic(b Builder, op ir.ArithmeticOp, x, y Operand) (Operand, error) {
	if int(op) >= len(arithmeticOps) {
		return Operand{}, &UnsupportedOperationError{Name: op.String()}
	}

	if op == ir.Multiply {
		if res, ok, err := multiply(b, x, y); ok {
			return res, err
		}
	}

	if x.Type != y.Type {
		return Operand{}, badArgs(x, y)
	}

	c := classify(x.Type)
	if c > numFloat {
		return Operand{}, badArgs(x, y)
	}

	return emit(b, arithmeticOps[op][c], x.Type, x.ID, y.ID), nil
}

// multiply handles the products of mixed shapes. ok is false for shapes
// multiplied elementwise.
//
//nolint:gocyclo,cyclop // one case per shape pair
func multiply(b Builder, x, y Operand) (res Operand, ok bool, err error) {
	xt, yt := x.Type, y.Type
	xk, yk := xt.Kind(), yt.Kind()

	isFloat := func(t *ir.Type) bool {
		s := t.Scalar()
		return s != nil && s.Kind() == ir.KindFloat
	}

	switch {
	case xk == ir.KindVector && yt.IsScalar():
		if xt.Elem() != yt || !isFloat(yt) {
			return Operand{}, false, nil
		}

		return emit(b, OpVectorTimesScalar, xt, x.ID, y.ID), true, nil
	case xt.IsScalar() && yk == ir.KindVector:
		if yt.Elem() != xt || !isFloat(xt) {
			return Operand{}, false, nil
		}

		return emit(b, OpVectorTimesScalar, yt, y.ID, x.ID), true, nil
	case xk == ir.KindMatrix && yt.IsScalar():
		if xt.Scalar() != yt {
			return Operand{}, true, badArgs(x, y)
		}

		return emit(b, OpMatrixTimesScalar, xt, x.ID, y.ID), true, nil
	case xt.IsScalar() && yk == ir.KindMatrix:
		if yt.Scalar() != xt {
			return Operand{}, true, badArgs(x, y)
		}

		return emit(b, OpMatrixTimesScalar, yt, y.ID, x.ID), true, nil
	case xk == ir.KindVector && yk == ir.KindMatrix:
		if xt != yt.Elem() {
			return Operand{}, true, badArgs(x, y)
		}

		return emit(b, OpVectorTimesMatrix, ir.Vec(yt.Count(), xt.Elem()), x.ID, y.ID), true, nil
	case xk == ir.KindMatrix && yk == ir.KindVector:
		if xt.Count() != yt.Count() || xt.Scalar() != yt.Elem() {
			return Operand{}, true, badArgs(x, y)
		}

		return emit(b, OpMatrixTimesVector, xt.Elem(), x.ID, y.ID), true, nil
	case xk == ir.KindMatrix && yk == ir.KindMatrix:
		if xt.Count() != yt.Elem().Count() || xt.Scalar() != yt.Scalar() {
			return Operand{}, true, badArgs(x, y)
		}

		return emit(b, OpMatrixTimesMatrix, ir.Mat(yt.Count(), xt.Elem()), x.ID, y.ID), true, nil
	}

	return Operand{}, false, nil
}

// boolOf returns the boolean type with the shape of t.
func boolOf(t *ir.Type) *ir.Type {
	if t.Kind() == ir.KindVector {
		return ir.Vec(t.Count(), ir.Bool)
	}
	return ir.Bool
}

func compare(b Builder, op ir.CompareOp, args []Operand) (Operand, error) {
	if int(op) >= len(compareOps) {
		return Operand{}, &UnsupportedOperationError{Name: op.String()}
	}

	if err := argCount(args, 2); err != nil {
		return Operand{}, err
	}

	x, y := args[0], args[1]
	if x.Type != y.Type {
		return Operand{}, badArgs(x, y)
	}

	var code OpCode

	switch c := classify(x.Type); {
	case c <= numFloat:
		code = compareOps[op][c]
	case c == numBool && op == ir.Equal:
		code = OpLogicalEqual
	case c == numBool && op == ir.NotEqual:
		code = OpLogicalNotEqual
	default:
		return Operand{}, badArgs(x, y)
	}

	return emit(b, code, boolOf(x.Type), x.ID, y.ID), nil
}

func logical(b Builder, op ir.LogicalOp, args []Operand) (Operand, error) {
	var code OpCode

	switch op {
	case ir.Not:
		if err := argCount(args, 1); err != nil {
			return Operand{}, err
		}

		if classify(args[0].Type) != numBool {
			return Operand{}, badArgs(args...)
		}

		return emit(b, OpLogicalNot, args[0].Type, args[0].ID), nil
	case ir.And:
		code = OpLogicalAnd
	case ir.Or:
		code = OpLogicalOr
	default:
		return Operand{}, &UnsupportedOperationError{Name: op.String()}
	}

	return foldArguments(b, args, func(x, y Operand) (Operand, error) {
		if x.Type != y.Type || classify(x.Type) != numBool {
			return Operand{}, badArgs(x, y)
		}

		return emit(b, code, x.Type, x.ID, y.ID), nil
	})
}

func negate(b Builder, args []Operand) (Operand, error) {
	if err := argCount(args, 1); err != nil {
		return Operand{}, err
	}

	x := args[0]

	switch classify(x.Type) {
	case numSigned, numUnsigned:
		return emit(b, OpSNegate, x.Type, x.ID), nil
	case numFloat:
		return emit(b, OpFNegate, x.Type, x.ID), nil
	}

	return Operand{}, badArgs(x)
}

// lowerSelect picks between two values of one type. A vector selection
// takes a boolean vector of the same width.
func lowerSelect(b Builder, args []Operand) (Operand, error) {
	if err := argCount(args, 3); err != nil {
		return Operand{}, err
	}

	cond, x, y := args[0], args[1], args[2]
	if x.Type != y.Type || classify(x.Type) == numNone || cond.Type != boolOf(x.Type) {
		return Operand{}, badArgs(args...)
	}

	return emit(b, OpSelect, x.Type, cond.ID, x.ID, y.ID), nil
}
