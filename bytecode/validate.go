package bytecode

import "fmt"

// Validate walks a prototype tree and checks structural invariants that
// the VM assumes hold: every instruction's A operand stays within the
// function's declared stack size, jump targets land inside the code
// array, constant-pool indices of LOADK, GETFIELD, SETFIELD, SELF,
// GETTABUP and SETTABUP are in range, upvalue indices of GETUPVAL,
// SETUPVAL, GETTABUP and SETTABUP are in range, and CLOSURE's
// child-prototype index is in range. B and C register operands and the
// prototype's upvalue descriptors are not checked. It does not (and
// cannot, without types) check value-level invariants.
func Validate(p *Prototype) error {
	return validateProto(p)
}

func validateProto(p *Prototype) error {
	maxReg := int(p.MaxStackSize)
	for pc, inst := range p.Code {
		op := inst.Opcode()
		switch op.Mode() {
		case ModeABC:
			a, b, c, _ := inst.ABC()
			if a >= maxReg {
				return fmt.Errorf("%s: pc %d: %s register A=%d exceeds stack size %d", p.Source, pc, op, a, maxReg)
			}
			if (op == OP_GETUPVAL || op == OP_SETUPVAL || op == OP_GETTABUP) && b >= len(p.Upvalues) ||
				op == OP_SETTABUP && a >= len(p.Upvalues) {
				return fmt.Errorf("%s: pc %d: %s upvalue index out of range (%d upvalues)", p.Source, pc, op, len(p.Upvalues))
			}
			if (op == OP_GETFIELD || op == OP_GETTABUP || op == OP_SELF) && c >= len(p.Constants) ||
				(op == OP_SETFIELD || op == OP_SETTABUP) && b >= len(p.Constants) {
				return fmt.Errorf("%s: pc %d: %s constant index out of range (%d constants)", p.Source, pc, op, len(p.Constants))
			}
		case ModeABx:
			a, bx := inst.ABx()
			if a >= maxReg {
				return fmt.Errorf("%s: pc %d: %s register A=%d exceeds stack size %d", p.Source, pc, op, a, maxReg)
			}
			if (op == OP_LOADK) && (bx < 0 || bx >= len(p.Constants)) {
				return fmt.Errorf("%s: pc %d: LOADK constant index %d out of range (%d constants)", p.Source, pc, bx, len(p.Constants))
			}
			if op == OP_CLOSURE && (bx < 0 || bx >= len(p.Protos)) {
				return fmt.Errorf("%s: pc %d: CLOSURE prototype index %d out of range (%d protos)", p.Source, pc, bx, len(p.Protos))
			}
		case ModeAsBx:
			a, sbx := inst.AsBx()
			if a >= maxReg {
				return fmt.Errorf("%s: pc %d: %s register A=%d exceeds stack size %d", p.Source, pc, op, a, maxReg)
			}
			target := pc + 1 + sbx
			if op == OP_JMP || op == OP_FORLOOP || op == OP_FORPREP || op == OP_TFORLOOP {
				if target < 0 || target > len(p.Code) {
					return fmt.Errorf("%s: pc %d: %s jump target %d out of range (%d instructions)", p.Source, pc, op, target, len(p.Code))
				}
			}
		}
	}
	for _, up := range p.Upvalues {
		if !up.Instack && int(up.Idx) >= len(p.Upvalues) {
			// not checked: a non-instack descriptor's Idx indexes the
			// enclosing function's upvalues, which are not visible here
			continue
		}
	}
	for _, child := range p.Protos {
		if err := validateProto(child); err != nil {
			return err
		}
	}
	return nil
}
