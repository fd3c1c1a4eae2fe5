package vm

import (
	"github.com/lollipopkit/luacore/bytecode"
	"github.com/lollipopkit/luacore/value"
)

// comparison/test handlers. EQ/LT/LE read their two operands from the
// A/B instruction fields (codegen's emitBinaryOp packs the compared
// registers there, leaving C unused) and skip the following
// instruction — always a JMP — when the result doesn't match the k
// flag, exactly as the teacher's compare()/test()/testSet() helpers
// (vm/inst_operators.go) do against its own stack-relative operands.

func skipNext(f *Frame) {
	f.pc++
}

func opEQ(f *Frame, i bytecode.Instruction, rt Runtime) signal {
	a, b, _, k := i.ABC()
	if rt.Equals(f.reg(a), f.reg(b)) != k {
		skipNext(f)
	}
	return contSignal
}

func opLT(f *Frame, i bytecode.Instruction, rt Runtime) signal {
	a, b, _, k := i.ABC()
	if rt.Less(f.reg(a), f.reg(b)) != k {
		skipNext(f)
	}
	return contSignal
}

func opLE(f *Frame, i bytecode.Instruction, rt Runtime) signal {
	a, b, _, k := i.ABC()
	if rt.LessEq(f.reg(a), f.reg(b)) != k {
		skipNext(f)
	}
	return contSignal
}

// EQK/EQI/LTI/LEI/GTI/GEI are the constant/immediate-operand compare
// variants; never emitted by codegen (which always materializes the
// right-hand side into a register and uses EQ/LT/LE), kept for
// vocabulary completeness.

func opEQK(f *Frame, i bytecode.Instruction, rt Runtime) signal {
	a, b, _, k := i.ABC()
	if rt.Equals(f.reg(a), f.Closure.Proto.Constants[b]) != k {
		skipNext(f)
	}
	return contSignal
}

func opEQI(f *Frame, i bytecode.Instruction, rt Runtime) signal {
	a, b, _, k := i.ABC()
	if rt.Equals(f.reg(a), int64(int8(b))) != k {
		skipNext(f)
	}
	return contSignal
}

func opLTI(f *Frame, i bytecode.Instruction, rt Runtime) signal {
	a, b, _, k := i.ABC()
	if rt.Less(f.reg(a), int64(int8(b))) != k {
		skipNext(f)
	}
	return contSignal
}

func opLEI(f *Frame, i bytecode.Instruction, rt Runtime) signal {
	a, b, _, k := i.ABC()
	if rt.LessEq(f.reg(a), int64(int8(b))) != k {
		skipNext(f)
	}
	return contSignal
}

func opGTI(f *Frame, i bytecode.Instruction, rt Runtime) signal {
	a, b, _, k := i.ABC()
	if rt.Less(int64(int8(b)), f.reg(a)) != k {
		skipNext(f)
	}
	return contSignal
}

func opGEI(f *Frame, i bytecode.Instruction, rt Runtime) signal {
	a, b, _, k := i.ABC()
	if rt.LessEq(int64(int8(b)), f.reg(a)) != k {
		skipNext(f)
	}
	return contSignal
}

// TEST A _ k: if truthy(R(A)) ~= k then pc++ (skip the following JMP).
func opTest(f *Frame, i bytecode.Instruction, rt Runtime) signal {
	a, _, _, k := i.ABC()
	if value.Truthy(f.reg(a)) != k {
		skipNext(f)
	}
	return contSignal
}

// TESTSET A B k: if truthy(R(B)) == k then { R(A) := R(B) } else pc++ —
// the `and`/`or` short-circuit primitive.
func opTestSet(f *Frame, i bytecode.Instruction, rt Runtime) signal {
	a, b, _, k := i.ABC()
	v := f.reg(b)
	if value.Truthy(v) == k {
		f.setReg(a, v)
	} else {
		skipNext(f)
	}
	return contSignal
}

func init() {
	register(bytecode.OP_EQ, opEQ)
	register(bytecode.OP_LT, opLT)
	register(bytecode.OP_LE, opLE)
	register(bytecode.OP_EQK, opEQK)
	register(bytecode.OP_EQI, opEQI)
	register(bytecode.OP_LTI, opLTI)
	register(bytecode.OP_LEI, opLEI)
	register(bytecode.OP_GTI, opGTI)
	register(bytecode.OP_GEI, opGEI)
	register(bytecode.OP_TEST, opTest)
	register(bytecode.OP_TESTSET, opTestSet)
}
