package spirv

import (
	"github.com/gogpu/shadergraph/ir"
)

// lower emits the instructions of node n applied to the lowered arguments.
//
//nolint:gocyclo,cyclop // one case per node kind
func lower(b Builder, n ir.Node, args []Operand) (Operand, error) {
	switch n := n.(type) {
	case ir.Input:
		if err := declarable(n.Type); err != nil {
			return Operand{}, err
		}

		ptr, err := b.Input(n.Location, n.Type, n.Name)
		if err != nil {
			return Operand{}, err
		}

		return emit(b, OpLoad, n.Type, ptr), nil
	case ir.Uniform:
		if err := declarable(n.Type); err != nil {
			return Operand{}, err
		}

		ptr, err := b.Uniform(n.Location, n.Type, n.Name)
		if err != nil {
			return Operand{}, err
		}

		return emit(b, OpLoad, n.Type, ptr), nil
	case ir.Output:
		return lowerOutput(b, n, args)
	case ir.Constant:
		id, err := b.RegisterConstant(n.Value)
		if err != nil {
			return Operand{}, err
		}

		return Operand{Type: n.Value.Type(), ID: id}, nil
	case ir.Construct:
		return lowerConstruct(b, n, args)
	case ir.Extract:
		return lowerExtract(b, n, args)
	case ir.Arithmetic:
		return foldArguments(b, args, func(x, y Operand) (Operand, error) {
			return arithmetic(b, n.Op, x, y)
		})
	case ir.Compare:
		return compare(b, n.Op, args)
	case ir.Logical:
		return logical(b, n.Op, args)
	case ir.Negate:
		return negate(b, args)
	case ir.Select:
		return lowerSelect(b, args)
	case ir.Math:
		return lowerMath(b, n.Fun, args)
	case ir.Sample:
		return sample(b, args)
	case ir.Call:
		return call(b, n.Function, args)
	case ir.Parameter:
		if err := declarable(n.Type); err != nil {
			return Operand{}, err
		}

		id, err := b.Parameter(n.Location, n.Type)
		if err != nil {
			return Operand{}, err
		}

		return Operand{Type: n.Type, ID: id}, nil
	case ir.Return:
		if err := argCount(args, 1); err != nil {
			return Operand{}, err
		}

		if err := b.Return(args[0]); err != nil {
			return Operand{}, err
		}

		return args[0], nil
	case ir.Loop:
		return loop(b, n, args)
	}

	return Operand{}, &UnsupportedOperationError{Name: n.String()}
}

// emit appends an instruction producing a value of type t.
func emit(b Builder, op OpCode, t *ir.Type, operands ...uint32) Operand {
	typ := b.RegisterType(t)
	id := b.AllocID()

	b.Emit(NewInstruction(op, append([]uint32{typ, id}, operands...)...))

	return Operand{Type: t, ID: id}
}

// extInst calls a GLSL.std.450 instruction on args.
func extInst(b Builder, t *ir.Type, inst uint32, args ...Operand) Operand {
	words := make([]uint32, 0, len(args)+2)
	words = append(words, b.ExtInst(), inst)

	for _, a := range args {
		words = append(words, a.ID)
	}

	return emit(b, OpExtInst, t, words...)
}

func ids(args []Operand) []uint32 {
	res := make([]uint32, len(args))
	for i, a := range args {
		res[i] = a.ID
	}

	return res
}

// declarable checks that values of type t can be held by a variable.
// Matrices must have float columns.
func declarable(t *ir.Type) error {
	if t == nil || t.Kind() == ir.KindVoid || t.Kind() == ir.KindPointer {
		return &BadArgumentsError{Types: []*ir.Type{t}}
	}

	if t.Kind() == ir.KindMatrix && t.Scalar().Kind() != ir.KindFloat {
		return &BadArgumentsError{Types: []*ir.Type{t}}
	}

	return nil
}

func lowerOutput(b Builder, n ir.Output, args []Operand) (Operand, error) {
	if err := argCount(args, 1); err != nil {
		return Operand{}, err
	}

	if err := declarable(n.Type); err != nil {
		return Operand{}, err
	}

	v := args[0]
	if v.Type != n.Type {
		return Operand{}, badArgs(v)
	}

	ptr, err := b.Output(n.Location, n.Type, n.Name)
	if err != nil {
		return Operand{}, err
	}

	b.Emit(NewInstruction(OpStore, ptr, v.ID))

	return v, nil
}

func lowerConstruct(b Builder, n ir.Construct, args []Operand) (Operand, error) {
	t := n.Type
	if t == nil || t.Kind() != ir.KindVector {
		return Operand{}, &BadArgumentsError{Types: []*ir.Type{t}}
	}

	if err := argCount(args, t.Count()); err != nil {
		return Operand{}, err
	}

	for _, a := range args {
		if a.Type != t.Elem() {
			return Operand{}, badArgs(args...)
		}
	}

	return emit(b, OpCompositeConstruct, t, ids(args)...), nil
}

func lowerExtract(b Builder, n ir.Extract, args []Operand) (Operand, error) {
	if err := argCount(args, 1); err != nil {
		return Operand{}, err
	}

	v := args[0]
	if v.Type.Kind() != ir.KindVector {
		return Operand{}, badArgs(v)
	}

	if int(n.Index) >= v.Type.Count() {
		return Operand{}, &IndexOutOfBoundError{Index: n.Index, Length: v.Type.Count()}
	}

	return emit(b, OpCompositeExtract, v.Type.Elem(), v.ID, n.Index), nil
}

// sample reads a sampler at a coordinate whose shape matches the sampler
// dimensionality. 1D and Buffer samplers take a scalar coordinate.
func sample(b Builder, args []Operand) (Operand, error) {
	if err := argCount(args, 2); err != nil {
		return Operand{}, err
	}

	s, coord := args[0], args[1]
	if s.Type.Kind() != ir.KindSampler {
		return Operand{}, badArgs(args...)
	}

	want := ir.Float
	if n := s.Type.Dim().Coordinates(); n > 1 {
		want = ir.Vec(n, ir.Float)
	}

	if coord.Type != want {
		return Operand{}, badArgs(args...)
	}

	return emit(b, OpImageSampleImplicitLod, ir.Vec(4, s.Type.Elem()), s.ID, coord.ID), nil
}

// foldArguments combines two or more arguments left to right.
func foldArguments(b Builder, args []Operand, op func(x, y Operand) (Operand, error)) (Operand, error) {
	if len(args) < 2 {
		return Operand{}, &WrongArgumentsCountError{Actual: len(args), Expected: 2}
	}

	acc := args[0]

	for _, y := range args[1:] {
		var err error

		acc, err = op(acc, y)
		if err != nil {
			return Operand{}, err
		}
	}

	return acc, nil
}
