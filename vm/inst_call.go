package vm

import (
	"github.com/lollipopkit/luacore/bytecode"
	"github.com/lollipopkit/luacore/value"
)

// call/return/closure-creation handlers. Grounded on the teacher's
// state/api_call.go main dispatch loop (Compile/Call/runLuaClosure),
// generalized from "call is a side effect on a shared value stack" to
// "call takes/returns explicit Go slices", since this instruction set
// encodes argument/result counts directly in CALL's B/C fields rather
// than relying on an explicit stack top marker the way the teacher's
// LkVM does.

func opCall(f *Frame, i bytecode.Instruction, rt Runtime) signal {
	a, b, c, _ := i.ABC()
	var args []any
	if b == 0 {
		args = f.window(a+1, f.top()-(a+1))
	} else {
		args = f.window(a+1, b-1)
	}
	fn := f.reg(a)
	if c == 0 {
		results := rt.Call(fn, args, -1)
		for idx, v := range results {
			f.setReg(a+idx, v)
		}
		f.setTop(a + len(results))
		return contSignal
	}
	nWant := c - 1
	results := rt.Call(fn, args, nWant)
	for idx := 0; idx < nWant; idx++ {
		if idx < len(results) {
			f.setReg(a+idx, results[idx])
		} else {
			f.setReg(a+idx, nil)
		}
	}
	return contSignal
}

// TAILCALL A B _: calls R(A) and returns its results directly as this
// frame's own results. Go's call stack still grows one frame per
// nested Lua call (Exec re-enters via rt.Call rather than looping in
// place), so this does not give proper constant-space tail recursion —
// only correct results — a known, documented simplification.
func opTailCall(f *Frame, i bytecode.Instruction, rt Runtime) signal {
	a, b, _, _ := i.ABC()
	var args []any
	if b == 0 {
		args = f.window(a+1, f.top()-(a+1))
	} else {
		args = f.window(a+1, b-1)
	}
	fn := f.reg(a)
	results := rt.Call(fn, args, -1)
	return signal{done: true, values: results}
}

func opReturn(f *Frame, i bytecode.Instruction, rt Runtime) signal {
	a, b, _, _ := i.ABC()
	var vals []any
	if b == 0 {
		vals = f.window(a, f.top()-a)
	} else {
		vals = f.window(a, b-1)
	}
	return signal{done: true, values: vals}
}

func opReturn0(f *Frame, i bytecode.Instruction, rt Runtime) signal {
	return signal{done: true}
}

func opReturn1(f *Frame, i bytecode.Instruction, rt Runtime) signal {
	a, _, _, _ := i.ABC()
	return signal{done: true, values: []any{f.reg(a)}}
}

// CLOSURE A Bx: R(A) := a new closure over Proto.Protos[Bx], binding
// each upvalue either from this frame's own registers (Instack==true,
// captured live via findOrCreateUpvalue so later writes are seen) or
// from this frame's own closure's upvalues (Instack==false) — per
// fi2proto.go's getUpvalues encoding of UpvalDesc.
func opClosure(f *Frame, i bytecode.Instruction, rt Runtime) signal {
	a, bx := i.ABx()
	proto := f.Closure.Proto.Protos[bx]
	cl := value.NewLuaClosure(proto)
	for idx, uv := range proto.Upvalues {
		if uv.Instack {
			cl.Upvals[idx] = f.findOrCreateUpvalue(int(uv.Idx))
		} else {
			cl.Upvals[idx] = f.Closure.Upvals[uv.Idx]
		}
	}
	f.setReg(a, cl)
	return contSignal
}

// VARARGPREP is part of the opcode vocabulary (real Lua 5.4 uses it to
// mark a vararg function's true parameter count at the very start of
// its code) but codegen never emits it — newFrame already separates
// declared parameters from extra varargs at call time.
func opVarargPrep(f *Frame, i bytecode.Instruction, rt Runtime) signal {
	return contSignal
}

// EXTRAARG is always consumed inline by the LOADKX handler that
// precedes it; reached directly only if malformed bytecode points pc
// at it, so it is a no-op rather than an error.
func opExtraArg(f *Frame, i bytecode.Instruction, rt Runtime) signal {
	return contSignal
}

func init() {
	register(bytecode.OP_CALL, opCall)
	register(bytecode.OP_TAILCALL, opTailCall)
	register(bytecode.OP_RETURN, opReturn)
	register(bytecode.OP_RETURN0, opReturn0)
	register(bytecode.OP_RETURN1, opReturn1)
	register(bytecode.OP_CLOSURE, opClosure)
	register(bytecode.OP_VARARGPREP, opVarargPrep)
	register(bytecode.OP_EXTRAARG, opExtraArg)
}
