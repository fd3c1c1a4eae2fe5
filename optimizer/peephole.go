package optimizer

import "github.com/lollipopkit/luacore/bytecode"

// peephole applies small local rewrites that don't need full liveness
// analysis: merging adjacent LOADNIL runs that local-decl/assignment
// codegen emits back to back, and dropping self-moves.
func peephole(p *bytecode.Prototype) int {
	n := 0
	code := p.Code
	targets := jumpTargets(p)
	for pc := 0; pc < len(code); pc++ {
		inst := code[pc]

		if inst.Opcode() == bytecode.OP_MOVE {
			a, b, _, _ := inst.ABC()
			if a == b {
				code[pc] = nopJmp()
				n++
				continue
			}
		}

		if inst.Opcode() == bytecode.OP_LOADNIL && pc+1 < len(code) && !targets[pc+1] {
			next := code[pc+1]
			if next.Opcode() == bytecode.OP_LOADNIL {
				a1, b1, _, _ := inst.ABC()
				a2, b2, _, _ := next.ABC()
				if a2 == a1+b1+1 {
					code[pc] = bytecode.Encode(bytecode.OP_LOADNIL, a1, b1+b2+1, 0, false)
					code[pc+1] = nopJmp()
					n++
				}
			}
		}
	}
	return n
}
