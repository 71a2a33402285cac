package ir

// Control-flow cleanup run on every function after lowering.

// terminate gives every block without a terminator a fallback one: ret void
// in void functions, unreachable otherwise. The analyzer guarantees that a
// non-void function cannot fall off its end, so those blocks are never
// executed.
func terminate(fn *Function) {
	for _, block := range fn.Blocks {
		if block.IsTerminated() {
			continue
		}
		if _, ok := fn.ReturnType.(*VoidType); ok {
			block.AddInstruction(&Return{})
		} else {
			block.AddInstruction(&Unreachable{})
		}
	}
}

// removeUnreachableBlocks removes basic blocks that cannot be reached from
// the entry block, such as the join block after an if whose branches both
// return. Returns true if any blocks were removed.
//
// ALGORITHM:
// 1. Start from entry block
// 2. Do a DFS with an explicit stack following successor edges
// 3. Drop blocks not visited, renumber the rest and forget edges and phi
// inputs that came from dropped blocks
func removeUnreachableBlocks(fn *Function) bool {
	reachable := make(map[*BasicBlock]bool)
	stack := []*BasicBlock{fn.Entry}

	for len(stack) > 0 {
		current := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if reachable[current] {
			continue
		}
		reachable[current] = true
		stack = append(stack, current.Successors...)
	}

	if len(reachable) == len(fn.Blocks) {
		return false
	}

	kept := make([]*BasicBlock, 0, len(reachable))
	for _, block := range fn.Blocks {
		if !reachable[block] {
			continue
		}
		block.Index = len(kept)
		kept = append(kept, block)

		preds := block.Predecessors[:0]
		for _, pred := range block.Predecessors {
			if reachable[pred] {
				preds = append(preds, pred)
			}
		}
		block.Predecessors = preds

		for _, instr := range block.Instructions {
			phi, ok := instr.(*Phi)
			if !ok {
				continue
			}
			incoming := phi.Incoming[:0]
			for _, inc := range phi.Incoming {
				if reachable[inc.Block] {
					incoming = append(incoming, inc)
				}
			}
			phi.Incoming = incoming
		}
	}
	fn.Blocks = kept
	return true
}
