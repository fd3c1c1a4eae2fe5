package vm

import (
	"github.com/lollipopkit/luacore/bytecode"
	"github.com/lollipopkit/luacore/value"
)

// table handlers implement indexing, construction and bulk
// initialization. Grounded on the teacher's vm/inst_table.go
// (getTable/setTable/newTable/self), generalized to the register-pair
// GETTABLE/SETTABLE/GETFIELD/GETTABUP family this instruction set
// splits the teacher's single getTable opcode into.

func opGetTabUp(f *Frame, i bytecode.Instruction, rt Runtime) signal {
	a, b, c, _ := i.ABC()
	key := f.Closure.Proto.Constants[c]
	f.setReg(a, rt.Index(f.Closure.Upvals[b].Get(), key))
	return contSignal
}

func opGetTable(f *Frame, i bytecode.Instruction, rt Runtime) signal {
	a, b, c, _ := i.ABC()
	f.setReg(a, rt.Index(f.reg(b), f.reg(c)))
	return contSignal
}

func opGetI(f *Frame, i bytecode.Instruction, rt Runtime) signal {
	a, b, c, _ := i.ABC()
	f.setReg(a, rt.Index(f.reg(b), int64(c)))
	return contSignal
}

func opGetField(f *Frame, i bytecode.Instruction, rt Runtime) signal {
	a, b, c, _ := i.ABC()
	key := f.Closure.Proto.Constants[c]
	f.setReg(a, rt.Index(f.reg(b), key))
	return contSignal
}

func opSetTabUp(f *Frame, i bytecode.Instruction, rt Runtime) signal {
	a, b, c, _ := i.ABC()
	key := f.Closure.Proto.Constants[b]
	rt.NewIndex(f.Closure.Upvals[a].Get(), key, f.reg(c))
	return contSignal
}

func opSetTable(f *Frame, i bytecode.Instruction, rt Runtime) signal {
	a, b, c, _ := i.ABC()
	rt.NewIndex(f.reg(a), f.reg(b), f.reg(c))
	return contSignal
}

func opSetI(f *Frame, i bytecode.Instruction, rt Runtime) signal {
	a, b, c, _ := i.ABC()
	rt.NewIndex(f.reg(a), int64(b), f.reg(c))
	return contSignal
}

func opSetField(f *Frame, i bytecode.Instruction, rt Runtime) signal {
	a, b, c, _ := i.ABC()
	key := f.Closure.Proto.Constants[b]
	rt.NewIndex(f.reg(a), key, f.reg(c))
	return contSignal
}

func opNewTable(f *Frame, i bytecode.Instruction, rt Runtime) signal {
	a, b, c, _ := i.ABC()
	f.setReg(a, rt.NewTable(b, c))
	return contSignal
}

// SELF A B C: R(A+1) := R(B); R(A) := R(B)[K(C):string] — sets up a
// method call's implicit self argument in one instruction.
func opSelf(f *Frame, i bytecode.Instruction, rt Runtime) signal {
	a, b, c, _ := i.ABC()
	recv := f.reg(b)
	key := f.Closure.Proto.Constants[c]
	f.setReg(a+1, recv)
	f.setReg(a, rt.Index(recv, key))
	return contSignal
}

const lfieldsPerFlush = 50

// SETLIST A B C: R(A)[(C-1)*50+1], ... := R(A+1), ..., R(A+B); B==0
// means "every register up to the frame's current top" (the multret
// tail-call/vararg-last-element case codegen emits with c fixed at the
// batch it belongs to).
func opSetList(f *Frame, i bytecode.Instruction, rt Runtime) signal {
	a, b, c, _ := i.ABC()
	n := b
	if n == 0 {
		n = f.top() - a - 1
	}
	tbl, _ := f.reg(a).(*value.Table)
	base := int64(c-1) * lfieldsPerFlush
	for idx := 1; idx <= n; idx++ {
		tbl.Set(base+int64(idx), f.reg(a+idx))
	}
	return contSignal
}

func init() {
	register(bytecode.OP_GETTABUP, opGetTabUp)
	register(bytecode.OP_GETTABLE, opGetTable)
	register(bytecode.OP_GETI, opGetI)
	register(bytecode.OP_GETFIELD, opGetField)
	register(bytecode.OP_SETTABUP, opSetTabUp)
	register(bytecode.OP_SETTABLE, opSetTable)
	register(bytecode.OP_SETI, opSetI)
	register(bytecode.OP_SETFIELD, opSetField)
	register(bytecode.OP_NEWTABLE, opNewTable)
	register(bytecode.OP_SELF, opSelf)
	register(bytecode.OP_SETLIST, opSetList)
}
