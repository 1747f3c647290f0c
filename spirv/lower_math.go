package spirv

import (
	"github.com/gogpu/shadergraph/ir"
)

// unaryFloat maps functions of one float scalar or vector.
var unaryFloat = map[ir.MathFunction]uint32{
	ir.MathFloor: GLSLstd450Floor,
	ir.MathCeil:  GLSLstd450Ceil,
	ir.MathRound: GLSLstd450Round,
	ir.MathSin:   GLSLstd450Sin,
	ir.MathCos:   GLSLstd450Cos,
	ir.MathTan:   GLSLstd450Tan,
	ir.MathSqrt:  GLSLstd450Sqrt,
	ir.MathLog:   GLSLstd450Log,
}

// numericVariants maps functions with signed, unsigned and float variants.
var numericVariants = map[ir.MathFunction][3]uint32{
	ir.MathMin:   {GLSLstd450SMin, GLSLstd450UMin, GLSLstd450FMin},
	ir.MathMax:   {GLSLstd450SMax, GLSLstd450UMax, GLSLstd450FMax},
	ir.MathClamp: {GLSLstd450SClamp, GLSLstd450UClamp, GLSLstd450FClamp},
}

// lowerMath lowers built-in functions, mostly to GLSL.std.450.
//
//nolint:gocyclo,cyclop,funlen // one case per function
func lowerMath(b Builder, fun ir.MathFunction, args []Operand) (Operand, error) {
	if inst, ok := unaryFloat[fun]; ok {
		if err := floatArgs(args, 1, false); err != nil {
			return Operand{}, err
		}

		return extInst(b, args[0].Type, inst, args...), nil
	}

	switch fun {
	case ir.MathDot:
		if err := floatArgs(args, 2, true); err != nil {
			return Operand{}, err
		}

		t := args[0].Type

		return emit(b, OpDot, t.Elem(), args[0].ID, args[1].ID), nil
	case ir.MathCross:
		if err := floatArgs(args, 2, true); err != nil {
			return Operand{}, err
		}

		if args[0].Type.Count() != 3 {
			return Operand{}, badArgs(args...)
		}

		return extInst(b, args[0].Type, GLSLstd450Cross, args...), nil
	case ir.MathNormalize:
		if err := floatArgs(args, 1, true); err != nil {
			return Operand{}, err
		}

		return extInst(b, args[0].Type, GLSLstd450Normalize, args...), nil
	case ir.MathLength:
		if err := floatArgs(args, 1, true); err != nil {
			return Operand{}, err
		}

		return extInst(b, args[0].Type.Elem(), GLSLstd450Length, args...), nil
	case ir.MathDistance:
		if err := floatArgs(args, 2, true); err != nil {
			return Operand{}, err
		}

		return extInst(b, args[0].Type.Elem(), GLSLstd450Distance, args...), nil
	case ir.MathReflect:
		if err := floatArgs(args, 2, true); err != nil {
			return Operand{}, err
		}

		return extInst(b, args[0].Type, GLSLstd450Reflect, args...), nil
	case ir.MathRefract:
		if err := argCount(args, 3); err != nil {
			return Operand{}, err
		}

		if err := floatArgs(args[:2], 2, true); err != nil {
			return Operand{}, badArgs(args...)
		}

		if args[2].Type != args[0].Type.Elem() {
			return Operand{}, badArgs(args...)
		}

		return extInst(b, args[0].Type, GLSLstd450Refract, args...), nil
	case ir.MathPow:
		if err := floatArgs(args, 2, false); err != nil {
			return Operand{}, err
		}

		return extInst(b, args[0].Type, GLSLstd450Pow, args...), nil
	case ir.MathStep:
		if err := floatArgs(args, 2, false); err != nil {
			return Operand{}, err
		}

		return extInst(b, args[0].Type, GLSLstd450Step, args...), nil
	case ir.MathSmoothstep:
		if err := floatArgs(args, 3, false); err != nil {
			return Operand{}, err
		}

		return extInst(b, args[0].Type, GLSLstd450SmoothStep, args...), nil
	case ir.MathMix:
		if err := floatArgs(args, 3, false); err != nil {
			return Operand{}, err
		}

		return extInst(b, args[0].Type, GLSLstd450FMix, args...), nil
	case ir.MathAbs:
		if err := argCount(args, 1); err != nil {
			return Operand{}, err
		}

		switch classify(args[0].Type) {
		case numFloat:
			return extInst(b, args[0].Type, GLSLstd450FAbs, args...), nil
		case numSigned:
			return extInst(b, args[0].Type, GLSLstd450SAbs, args...), nil
		case numUnsigned:
			return args[0], nil
		}

		return Operand{}, badArgs(args...)
	case ir.MathMin, ir.MathMax:
		variants := numericVariants[fun]

		return foldArguments(b, args, func(x, y Operand) (Operand, error) {
			c := classify(x.Type)
			if x.Type != y.Type || c > numFloat {
				return Operand{}, badArgs(x, y)
			}

			return extInst(b, x.Type, variants[c], x, y), nil
		})
	case ir.MathClamp:
		if err := argCount(args, 3); err != nil {
			return Operand{}, err
		}

		c := classify(args[0].Type)
		if !sameType(args) || c > numFloat {
			return Operand{}, badArgs(args...)
		}

		return extInst(b, args[0].Type, numericVariants[fun][c], args...), nil
	case ir.MathInverse:
		if err := argCount(args, 1); err != nil {
			return Operand{}, err
		}

		t := args[0].Type
		if t.Kind() != ir.KindMatrix || t.Count() != t.Elem().Count() || t.Scalar().Kind() != ir.KindFloat {
			return Operand{}, badArgs(args...)
		}

		return extInst(b, t, GLSLstd450MatrixInverse, args...), nil
	}

	return Operand{}, &UnsupportedOperationError{Name: fun.String()}
}

// floatArgs checks for n arguments of one float scalar or vector type.
// vector restricts the type to vectors.
func floatArgs(args []Operand, n int, vector bool) error {
	if err := argCount(args, n); err != nil {
		return err
	}

	t := args[0].Type
	if !sameType(args) || classify(t) != numFloat {
		return badArgs(args...)
	}

	if vector && t.Kind() != ir.KindVector {
		return badArgs(args...)
	}

	return nil
}

func sameType(args []Operand) bool {
	for _, a := range args[1:] {
		if a.Type != args[0].Type {
			return false
		}
	}

	return true
}
