package bytecode

import (
	"fmt"
	"strings"
)

// Disassemble renders a prototype's instructions as a readable listing,
// one line per instruction: pc, opcode name, raw operands, and, for
// LOADK, the constant it loads. Constant operands of iABC instructions
// (GETFIELD, SETFIELD, ...) are shown as raw indices only.
func Disassemble(p *Prototype) string {
	var b strings.Builder
	disasmProto(&b, p, 0)
	return b.String()
}

func disasmProto(b *strings.Builder, p *Prototype, depth int) {
	indent := strings.Repeat("  ", depth)
	fmt.Fprintf(b, "%sfunction <%s:%d,%d> (%d instructions, %d params%s)\n",
		indent, p.Source, p.LineDefined, p.LastLineDefined, len(p.Code), p.NumParams, varargSuffix(p.IsVararg))

	for pc, inst := range p.Code {
		line := "?"
		if pc < len(p.LineInfo) {
			line = fmt.Sprintf("%d", p.LineInfo[pc])
		}
		fmt.Fprintf(b, "%s%4d [%-4s] %-12s %s\n", indent, pc+1, line, inst.Opcode().String(), operandString(p, inst))
	}

	for _, child := range p.Protos {
		disasmProto(b, child, depth+1)
	}
}

func varargSuffix(isVararg bool) string {
	if isVararg {
		return ", vararg"
	}
	return ""
}

func operandString(p *Prototype, inst Instruction) string {
	switch inst.Opcode().Mode() {
	case ModeABx:
		a, bx := inst.ABx()
		if inst.Opcode() != OP_LOADK {
			return fmt.Sprintf("%d %d", a, bx)
		}
		return fmt.Sprintf("%d %d%s", a, bx, constAnnotation(p, bx))
	case ModeAsBx:
		a, sbx := inst.AsBx()
		return fmt.Sprintf("%d %d", a, sbx)
	case ModeAx:
		return fmt.Sprintf("%d", inst.Ax())
	default:
		a, b, c, k := inst.ABC()
		kFlag := ""
		if k {
			kFlag = " k"
		}
		return fmt.Sprintf("%d %d %d%s", a, b, c, kFlag)
	}
}

func constAnnotation(p *Prototype, idx int) string {
	if idx < 0 || idx >= len(p.Constants) {
		return ""
	}
	return fmt.Sprintf("  ; %v", p.Constants[idx])
}
