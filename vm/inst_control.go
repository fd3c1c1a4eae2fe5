package vm

import "github.com/lollipopkit/luacore/bytecode"

// control-flow handlers: unconditional jumps, scope-exit closing, and
// the two numeric/generic for-loop families. Grounded on the teacher's
// vm/inst_misc.go (jmp closing open upvalues on the way) and the
// FORPREP/FORLOOP pc-arithmetic convention codegen's cg_stat.go emits
// against (see codegen's "Correctness note" in DESIGN.md for the
// landing-site derivation this mirrors).

func opJmp(f *Frame, i bytecode.Instruction, rt Runtime) signal {
	a, sbx := i.AsBx()
	if a > 0 {
		f.closeUpvaluesFrom(a - 1)
		f.closeTBCFrom(a-1, rt)
	}
	f.pc += sbx
	return contSignal
}

func opClose(f *Frame, i bytecode.Instruction, rt Runtime) signal {
	a, _, _, _ := i.ABC()
	f.closeTBCFrom(a, rt)
	f.closeUpvaluesFrom(a)
	return contSignal
}

// TBC A: marks R(A) as a to-be-closed variable; its __close runs when
// the frame's pc passes below A (block exit, loop iteration, or
// return).
func opTBC(f *Frame, i bytecode.Instruction, rt Runtime) signal {
	a, _, _, _ := i.ABC()
	v := f.reg(a)
	if v != nil && v != false {
		f.tbc = append(f.tbc, a)
	}
	return contSignal
}

func opConcat(f *Frame, i bytecode.Instruction, rt Runtime) signal {
	a, b, _, _ := i.ABC()
	vals := f.window(a, b)
	f.setReg(a, rt.Concat(vals))
	return contSignal
}

// forNumber reports v's int64/float64 value and whether it was already
// an integer; strings are not accepted as numeric-for control values,
// matching Lua 5.4's stricter-than-arithmetic for-loop coercion.
func forNumber(v any) (f float64, i int64, isInt, ok bool) {
	switch n := v.(type) {
	case int64:
		return float64(n), n, true, true
	case float64:
		return n, 0, false, true
	}
	return 0, 0, false, false
}

// FORPREP A sBx: validates and normalizes the hidden init/limit/step
// triple at R(A), R(A+1), R(A+2); if the loop would run zero times it
// jumps past FORLOOP entirely, otherwise it seeds the visible loop
// variable at R(A+3) and falls through into the body.
func opForPrep(f *Frame, i bytecode.Instruction, rt Runtime) signal {
	a, sbx := i.AsBx()
	initF, initI, initIsInt, ok1 := forNumber(f.reg(a))
	_, _, _, ok2 := forNumber(f.reg(a + 1))
	stepF, stepI, stepIsInt, ok3 := forNumber(f.reg(a + 2))
	if !ok1 || !ok2 || !ok3 {
		rt.Errorf("'for' initial value must be a number")
	}
	if stepIsInt && stepI == 0 || !stepIsInt && stepF == 0 {
		rt.Errorf("'for' step is zero")
	}

	useInt := initIsInt && stepIsInt
	if useInt {
		limitF, limitI, limitIsInt, _ := forNumber(f.reg(a + 1))
		if !limitIsInt {
			// clamp a float limit to the nearest in-range integer that
			// preserves the loop's direction, per Lua's integer-for rule.
			if stepI > 0 {
				if limitF < float64(initI) {
					f.pc += sbx
					return contSignal
				}
				limitI = int64(limitF)
				if float64(limitI) > limitF {
					limitI-- // floor
				}
			} else {
				if limitF > float64(initI) {
					f.pc += sbx
					return contSignal
				}
				limitI = int64(limitF)
				if float64(limitI) < limitF {
					limitI++ // ceil
				}
			}
		}
		if (stepI > 0 && initI > limitI) || (stepI < 0 && initI < limitI) {
			f.pc += sbx
			return contSignal
		}
		f.setReg(a, initI)
		f.setReg(a+1, limitI)
		f.setReg(a+2, stepI)
		f.setReg(a+3, initI)
		return contSignal
	}

	limitF, _, _, _ := forNumber(f.reg(a + 1))
	if (stepF > 0 && initF > limitF) || (stepF < 0 && initF < limitF) {
		f.pc += sbx
		return contSignal
	}
	f.setReg(a, initF)
	f.setReg(a+1, limitF)
	f.setReg(a+2, stepF)
	f.setReg(a+3, initF)
	return contSignal
}

// FORLOOP A sBx: advances the hidden counter at R(A) by R(A+2); while
// still within R(A+1), publishes the new value to R(A+3) and jumps
// back to the loop body (pc += sBx, a negative offset codegen computed
// to land on the body's first instruction).
func opForLoop(f *Frame, i bytecode.Instruction, rt Runtime) signal {
	a, sbx := i.AsBx()
	switch step := f.reg(a + 2).(type) {
	case int64:
		cur := f.reg(a).(int64)
		limit := f.reg(a + 1).(int64)
		next := cur + step
		cont := false
		if step > 0 {
			cont = next <= limit
		} else {
			cont = next >= limit
		}
		if cont {
			f.setReg(a, next)
			f.setReg(a+3, next)
			f.pc += sbx
		}
	case float64:
		cur := f.reg(a).(float64)
		limit := f.reg(a + 1).(float64)
		next := cur + step
		cont := false
		if step > 0 {
			cont = next <= limit
		} else {
			cont = next >= limit
		}
		if cont {
			f.setReg(a, next)
			f.setReg(a+3, next)
			f.pc += sbx
		}
	}
	return contSignal
}

// TFORPREP exists in the opcode vocabulary but codegen's generic-for
// lowering uses a leading JMP straight to TFORCALL instead of a
// dedicated prep opcode, so this is never emitted; treated as a no-op
// for completeness.
func opTForPrep(f *Frame, i bytecode.Instruction, rt Runtime) signal {
	return contSignal
}

// TFORCALL A _ C: calls the iterator R(A) with state R(A+1) and
// control R(A+2), storing C results starting at R(A+4).
func opTForCall(f *Frame, i bytecode.Instruction, rt Runtime) signal {
	a, _, c, _ := i.ABC()
	fn := f.reg(a)
	args := []any{f.reg(a + 1), f.reg(a + 2)}
	results := rt.Call(fn, args, c)
	for idx := 0; idx < c; idx++ {
		if idx < len(results) {
			f.setReg(a+4+idx, results[idx])
		} else {
			f.setReg(a+4+idx, nil)
		}
	}
	return contSignal
}

// TFORLOOP A sBx: if the first iteration result (R(A+2), i.e. four
// registers above this instruction's own base-2-adjusted A) is
// non-nil, advances the control variable and jumps back into the body.
func opTForLoop(f *Frame, i bytecode.Instruction, rt Runtime) signal {
	a, sbx := i.AsBx()
	first := f.reg(a + 2)
	if first != nil {
		f.setReg(a, first)
		f.pc += sbx
	}
	return contSignal
}

func init() {
	register(bytecode.OP_JMP, opJmp)
	register(bytecode.OP_CLOSE, opClose)
	register(bytecode.OP_TBC, opTBC)
	register(bytecode.OP_CONCAT, opConcat)
	register(bytecode.OP_FORPREP, opForPrep)
	register(bytecode.OP_FORLOOP, opForLoop)
	register(bytecode.OP_TFORPREP, opTForPrep)
	register(bytecode.OP_TFORCALL, opTForCall)
	register(bytecode.OP_TFORLOOP, opTForLoop)
}
