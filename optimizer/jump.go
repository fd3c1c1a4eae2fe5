package optimizer

import "github.com/lollipopkit/luacore/bytecode"

// threadJumps collapses chains of unconditional jumps: if JMP X lands
// on another plain JMP Y (A=0, so it closes no upvalues), X is
// rewritten to target Y's destination directly. Iterates to a fixpoint
// with a cycle guard, since an infinite Lua loop can legitimately JMP
// back to itself.
func threadJumps(p *bytecode.Prototype) int {
	n := 0
	code := p.Code
	for pc, inst := range code {
		if inst.Opcode() != bytecode.OP_JMP {
			continue
		}
		a, sbx := inst.AsBx()
		if a != 0 {
			continue
		}
		target := pc + 1 + sbx
		final, changed := threadTarget(code, pc, target)
		if changed {
			code[pc] = bytecode.EncodeAsBx(bytecode.OP_JMP, 0, final-(pc+1))
			n++
		}
	}
	return n
}

func threadTarget(code []bytecode.Instruction, origin, target int) (int, bool) {
	seen := map[int]bool{origin: true}
	changed := false
	for target >= 0 && target < len(code) {
		if seen[target] {
			break // cycle: leave the last good target in place
		}
		next := code[target]
		if next.Opcode() != bytecode.OP_JMP {
			break
		}
		a, sbx := next.AsBx()
		if a != 0 {
			break // closes upvalues: not safe to jump past
		}
		seen[target] = true
		target = target + 1 + sbx
		changed = true
	}
	return target, changed
}
