package ir

import (
	"errors"
	"fmt"
)

// ErrInternal marks a failure of the code generator itself: the analyzer
// accepted a program the generator cannot lower, or the generated module is
// malformed. It never describes a mistake in the user's program.
var ErrInternal = errors.New("internal compiler error")

// Verify checks that the IR is well-formed.
// Returns a list of errors found.
//
// CHECKS:
// - Every block ends with exactly one terminator
// - Every branch target and phi input is a block of the same function
// - Every called function is defined or declared in the module
// - Every register operand is a parameter or the result of an instruction
func (m *Module) Verify() []error {
	var errs []error

	callable := make(map[string]bool)
	for _, d := range m.Declares {
		callable[d.Name] = true
	}
	for _, fn := range m.Functions {
		if callable[fn.Name] {
			errs = append(errs, fmt.Errorf("function @%s is defined twice", fn.Name))
		}
		callable[fn.Name] = true
	}

	for _, fn := range m.Functions {
		errs = append(errs, verifyFunction(fn, callable)...)
	}

	return errs
}

func verifyFunction(fn *Function, callable map[string]bool) []error {
	var errs []error
	report := func(block *BasicBlock, format string, args ...any) {
		errs = append(errs, fmt.Errorf("@%s, block %s: %s", fn.Name, block.Label, fmt.Sprintf(format, args...)))
	}

	if len(fn.Blocks) == 0 || fn.Blocks[0] != fn.Entry {
		return []error{fmt.Errorf("@%s: entry block is not first", fn.Name)}
	}

	blocks := make(map[*BasicBlock]bool, len(fn.Blocks))
	defined := make(map[*Register]bool)
	for _, p := range fn.Params {
		defined[p] = true
	}
	for _, block := range fn.Blocks {
		blocks[block] = true
		for _, instr := range block.Instructions {
			if r := instr.Result(); r != nil {
				if defined[r] {
					report(block, "%s is assigned twice", r)
				}
				defined[r] = true
			}
		}
	}

	if len(fn.Entry.Predecessors) > 0 {
		report(fn.Entry, "entry block has predecessors")
	}

	for _, block := range fn.Blocks {
		if !block.IsTerminated() {
			report(block, "block has no terminator")
		}

		last := len(block.Instructions) - 1
		for i, instr := range block.Instructions {
			if IsTerminator(instr) && i != last {
				report(block, "terminator %q is not the last instruction", instr)
			}

			for _, target := range Targets(instr) {
				if !blocks[target] {
					report(block, "branch to %s outside the function", target.Label)
				}
			}

			switch in := instr.(type) {
			case *Call:
				if !callable[in.Callee] {
					report(block, "call to undeclared function @%s", in.Callee)
				}
			case *Phi:
				for _, inc := range in.Incoming {
					if !blocks[inc.Block] {
						report(block, "phi input from %s outside the function", inc.Block.Label)
					}
				}
			}

			for _, op := range instr.Operands() {
				if op == nil {
					report(block, "missing operand in %q", instr)
					continue
				}
				if r, ok := op.(*Register); ok && !defined[r] {
					report(block, "use of undefined value %s", r)
				}
			}
		}
	}

	return errs
}
