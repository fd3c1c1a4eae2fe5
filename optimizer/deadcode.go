package optimizer

import "github.com/lollipopkit/luacore/bytecode"

// eliminateDeadCode blanks out instructions that can never execute:
// anything between an unconditional terminator (JMP/RETURN*/TAILCALL)
// and the next instruction any jump in the function actually targets.
// It never removes instructions, only replaces them with nopJmp, so pc
// numbering (and every existing jump target) stays valid; compact is
// the pass that actually shrinks the code array.
func eliminateDeadCode(p *bytecode.Prototype) int {
	targets := jumpTargets(p)
	code := p.Code
	n := 0
	reachable := true
	for pc, inst := range code {
		if targets[pc] {
			reachable = true
		}
		if !reachable {
			if !isNopJmp(inst) {
				code[pc] = nopJmp()
				n++
			}
			continue
		}
		switch inst.Opcode() {
		case bytecode.OP_RETURN, bytecode.OP_RETURN0, bytecode.OP_RETURN1, bytecode.OP_TAILCALL:
			reachable = false
		case bytecode.OP_JMP:
			if !isNopJmp(inst) {
				reachable = false
			}
		}
	}
	return n
}

// jumpTargets reports, for each pc, whether some instruction in p can
// transfer control there.
func jumpTargets(p *bytecode.Prototype) []bool {
	targets := make([]bool, len(p.Code)+1)
	for pc, inst := range p.Code {
		switch inst.Opcode() {
		case bytecode.OP_JMP, bytecode.OP_FORLOOP, bytecode.OP_FORPREP, bytecode.OP_TFORLOOP:
			_, sbx := inst.AsBx()
			target := pc + 1 + sbx
			if target >= 0 && target < len(targets) {
				targets[target] = true
			}
		}
	}
	return targets
}
