package vm

import "github.com/lollipopkit/luacore/bytecode"

// load handlers move constants and existing values into registers.
// Grounded on the teacher's vm/inst_load.go (loadNil/loadBool/loadK/
// loadKx), adapted from stack push/replace calls to direct register
// writes.

func opMove(f *Frame, i bytecode.Instruction, rt Runtime) signal {
	a, b, _, _ := i.ABC()
	f.setReg(a, f.reg(b))
	return contSignal
}

func opLoadI(f *Frame, i bytecode.Instruction, rt Runtime) signal {
	a, sbx := i.AsBx()
	f.setReg(a, int64(sbx))
	return contSignal
}

func opLoadF(f *Frame, i bytecode.Instruction, rt Runtime) signal {
	a, sbx := i.AsBx()
	f.setReg(a, float64(sbx))
	return contSignal
}

func opLoadK(f *Frame, i bytecode.Instruction, rt Runtime) signal {
	a, bx := i.ABx()
	f.setReg(a, f.Closure.Proto.Constants[bx])
	return contSignal
}

func opLoadKX(f *Frame, i bytecode.Instruction, rt Runtime) signal {
	a, _ := i.ABx()
	extra := f.Closure.Proto.Code[f.pc]
	f.pc++
	f.setReg(a, f.Closure.Proto.Constants[extra.Ax()])
	return contSignal
}

func opLoadFalse(f *Frame, i bytecode.Instruction, rt Runtime) signal {
	a, _, _, _ := i.ABC()
	f.setReg(a, false)
	return contSignal
}

func opLFalseSkip(f *Frame, i bytecode.Instruction, rt Runtime) signal {
	a, _, _, _ := i.ABC()
	f.setReg(a, false)
	f.pc++
	return contSignal
}

func opLoadTrue(f *Frame, i bytecode.Instruction, rt Runtime) signal {
	a, _, _, _ := i.ABC()
	f.setReg(a, true)
	return contSignal
}

func opLoadNil(f *Frame, i bytecode.Instruction, rt Runtime) signal {
	a, b, _, _ := i.ABC()
	for r := a; r <= a+b; r++ {
		f.setReg(r, nil)
	}
	return contSignal
}

func opGetUpval(f *Frame, i bytecode.Instruction, rt Runtime) signal {
	a, b, _, _ := i.ABC()
	f.setReg(a, f.Closure.Upvals[b].Get())
	return contSignal
}

func opSetUpval(f *Frame, i bytecode.Instruction, rt Runtime) signal {
	a, b, _, _ := i.ABC()
	f.Closure.Upvals[b].Set(f.reg(a))
	return contSignal
}

// VARARG A B: R(A), ..., R(A+B-2) := vararg (B==0 means "to top", i.e.
// all available varargs, matching emitVararg's n+1 encoding where n==-1
// means multret).
func opVararg(f *Frame, i bytecode.Instruction, rt Runtime) signal {
	a, b, _, _ := i.ABC()
	want := b - 1
	if want < 0 {
		want = len(f.varargs)
	}
	for idx := 0; idx < want; idx++ {
		if idx < len(f.varargs) {
			f.setReg(a+idx, f.varargs[idx])
		} else {
			f.setReg(a+idx, nil)
		}
	}
	if b == 0 {
		f.setTop(a + want)
	}
	return contSignal
}

func init() {
	register(bytecode.OP_MOVE, opMove)
	register(bytecode.OP_LOADI, opLoadI)
	register(bytecode.OP_LOADF, opLoadF)
	register(bytecode.OP_LOADK, opLoadK)
	register(bytecode.OP_LOADKX, opLoadKX)
	register(bytecode.OP_LOADFALSE, opLoadFalse)
	register(bytecode.OP_LFALSESKIP, opLFalseSkip)
	register(bytecode.OP_LOADTRUE, opLoadTrue)
	register(bytecode.OP_LOADNIL, opLoadNil)
	register(bytecode.OP_GETUPVAL, opGetUpval)
	register(bytecode.OP_SETUPVAL, opSetUpval)
	register(bytecode.OP_VARARG, opVararg)
}
