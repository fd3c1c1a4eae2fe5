package optimizer

import "github.com/lollipopkit/luacore/bytecode"

// compact physically drops every nopJmp filler the passes above left
// behind and rewrites every jump target, line entry, and local-variable
// PC range to match the shrunk code array. This is the only pass here
// that actually changes instruction count, so it always runs last.
func compact(p *bytecode.Prototype) int {
	oldToNew := make([]int, len(p.Code))
	newToOld := make([]int, 0, len(p.Code))
	newCode := make([]bytecode.Instruction, 0, len(p.Code))
	newLines := make([]uint32, 0, len(p.Code))
	removed := 0

	for pc, inst := range p.Code {
		if isNopJmp(inst) {
			oldToNew[pc] = -1
			removed++
			continue
		}
		oldToNew[pc] = len(newCode)
		newToOld = append(newToOld, pc)
		newCode = append(newCode, inst)
		if pc < len(p.LineInfo) {
			newLines = append(newLines, p.LineInfo[pc])
		} else {
			newLines = append(newLines, 0)
		}
	}
	if removed == 0 {
		return 0
	}

	resolve := func(oldPC int) int {
		for oldPC < len(oldToNew) {
			if oldToNew[oldPC] >= 0 {
				return oldToNew[oldPC]
			}
			oldPC++
		}
		return len(newCode)
	}

	for i, inst := range newCode {
		switch inst.Opcode() {
		case bytecode.OP_JMP, bytecode.OP_FORLOOP, bytecode.OP_FORPREP, bytecode.OP_TFORLOOP:
			oldPC := newToOld[i]
			a, sbx := inst.AsBx()
			oldTarget := oldPC + 1 + sbx
			newTarget := resolve(oldTarget)
			newCode[i] = bytecode.EncodeAsBx(inst.Opcode(), a, newTarget-(i+1))
		}
	}

	for i := range p.LocVars {
		p.LocVars[i].StartPC = uint32(resolve(int(p.LocVars[i].StartPC)))
		p.LocVars[i].EndPC = uint32(resolve(int(p.LocVars[i].EndPC)))
	}

	p.Code = newCode
	p.LineInfo = newLines
	return removed
}
