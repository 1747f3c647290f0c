package spirv

import (
	"github.com/gogpu/shadergraph/ir"
)

func call(b Builder, ref ir.FunctionRef, args []Operand) (Operand, error) {
	sig, err := b.Signature(ref)
	if err != nil {
		return Operand{}, err
	}

	if err := argCount(args, len(sig.Params)); err != nil {
		return Operand{}, err
	}

	for i, p := range sig.Params {
		if args[i].Type != p {
			return Operand{}, badArgs(args...)
		}
	}

	words := make([]uint32, 0, len(args)+1)
	words = append(words, sig.ID)
	words = append(words, ids(args)...)

	return emit(b, OpFunctionCall, sig.Result, words...), nil
}

// loop lowers a structured loop over a state value kept in a Function
// variable:
//
//	header:   OpLoopMerge merge continue; branch entry
//	entry:    cond(state) ? body : merge
//	body:     state = body(state); branch continue
//	continue: branch header
//	merge:    result is state
func loop(b Builder, n ir.Loop, args []Operand) (Operand, error) {
	if err := argCount(args, 1); err != nil {
		return Operand{}, err
	}

	start := args[0]

	cond, err := b.Signature(n.Cond)
	if err != nil {
		return Operand{}, err
	}

	if len(cond.Params) != 1 || cond.Params[0] != start.Type || cond.Result != ir.Bool {
		return Operand{}, &BadArgumentsError{Types: append([]*ir.Type{start.Type}, cond.Params...)}
	}

	body, err := b.Signature(n.Body)
	if err != nil {
		return Operand{}, err
	}

	if len(body.Params) != 1 || body.Params[0] != start.Type || body.Result != start.Type {
		return Operand{}, &BadArgumentsError{Types: append([]*ir.Type{start.Type}, body.Params...)}
	}

	slot := b.Local(start.Type)
	b.Emit(NewInstruction(OpStore, slot, start.ID))

	header := b.AllocID()
	entry := b.AllocID()
	bodyLabel := b.AllocID()
	cont := b.AllocID()
	merge := b.AllocID()

	b.Emit(NewInstruction(OpBranch, header))

	b.Emit(NewInstruction(OpLabel, header))
	b.Emit(NewInstruction(OpLoopMerge, merge, cont, LoopControlNone))
	b.Emit(NewInstruction(OpBranch, entry))

	b.Emit(NewInstruction(OpLabel, entry))
	state := emit(b, OpLoad, start.Type, slot)
	c := emit(b, OpFunctionCall, ir.Bool, cond.ID, state.ID)
	b.Emit(NewInstruction(OpBranchConditional, c.ID, bodyLabel, merge))

	b.Emit(NewInstruction(OpLabel, bodyLabel))
	state = emit(b, OpLoad, start.Type, slot)
	next := emit(b, OpFunctionCall, start.Type, body.ID, state.ID)
	b.Emit(NewInstruction(OpStore, slot, next.ID))
	b.Emit(NewInstruction(OpBranch, cont))

	b.Emit(NewInstruction(OpLabel, cont))
	b.Emit(NewInstruction(OpBranch, header))

	b.Emit(NewInstruction(OpLabel, merge))

	return emit(b, OpLoad, start.Type, slot), nil
}
