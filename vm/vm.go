// Package vm executes compiled bytecode.Prototype code. A precomputed
// dispatch table maps each opcode to a handler function operating on a
// call frame's register window, generalizing the teacher's
// jumpTable[64]instructionFunc/Execute dispatch (vm/instruction.go) to
// this instruction set's direct-register calling convention — the
// teacher's handlers push/pop against a stack-based api.LkVM because
// its bytecode is stack-oriented; this instruction set's opcodes
// already encode R(A)/R(B)/R(C) directly; a handler here addresses
// frame registers rather than a C-API-style stack.
package vm

import (
	"github.com/lollipopkit/luacore/bytecode"
	"github.com/lollipopkit/luacore/value"
)

// ArithOp names the operator behind a binary or unary numeric opcode,
// passed to Runtime.Arith so one coercion+metamethod dispatcher serves
// every ADD/SUB/.../BNOT opcode, mirroring the teacher's operators
// table (state/api_arith.go) keyed the same way.
type ArithOp int

const (
	OpAdd ArithOp = iota
	OpSub
	OpMul
	OpMod
	OpPow
	OpDiv
	OpIDiv
	OpBAnd
	OpBOr
	OpBXor
	OpShl
	OpShr
	OpUnm
	OpBNot
)

var arithOpNames = [...]string{
	"add", "sub", "mul", "mod", "pow", "div", "idiv",
	"band", "bor", "bxor", "shl", "shr", "unm", "bnot",
}

func (op ArithOp) String() string {
	if int(op) < len(arithOpNames) {
		return arithOpNames[op]
	}
	return "arith"
}

// Runtime is everything the instruction loop needs beyond plain
// register bookkeeping: table indexing with metamethod fallback,
// arithmetic/comparison/length/concatenation with coercion and
// metamethods, calling Lua or Go closures, and raising an error. A
// state.Thread implements it; this package never imports state,
// generalizing the teacher's split where every vm/inst_*.go handler
// takes an api.LkVM that state.luaState implements.
type Runtime interface {
	Index(t, k any) any
	NewIndex(t, k, v any)
	Arith(op ArithOp, a, b any) any
	Equals(a, b any) bool
	Less(a, b any) bool
	LessEq(a, b any) bool
	Len(v any) any
	Concat(vals []any) any
	// Call invokes fn (a *value.Closure or a __call-able value) with
	// args, returning exactly nResults values (nResults == -1 means
	// "as many as fn produced").
	Call(fn any, args []any, nResults int) []any
	NewTable(narr, nrec int) *value.Table
	// Close runs v's __close metamethod, if v is not nil/false, as a
	// to-be-closed local goes out of scope.
	Close(v any)
	// Errorf always panics with a located, typed error.
	Errorf(format string, args ...any)
	SetLine(line int)
}

// Frame is one Lua function activation: its register window, vararg
// slice (when the prototype is vararg and more arguments were passed
// than declared parameters), program counter, and the open upvalues/
// to-be-closed slots rooted in this frame's registers.
type Frame struct {
	Closure *value.Closure
	regs    []any
	varargs []any
	pc      int
	openUV  map[int]*value.Upvalue
	tbc     []int
}

func newFrame(cl *value.Closure, args []any) *Frame {
	proto := cl.Proto
	f := &Frame{
		Closure: cl,
		regs:    make([]any, proto.MaxStackSize),
		openUV:  make(map[int]*value.Upvalue),
	}
	nParams := int(proto.NumParams)
	for i := 0; i < nParams && i < len(args); i++ {
		f.regs[i] = args[i]
	}
	if proto.IsVararg && len(args) > nParams {
		f.varargs = append([]any(nil), args[nParams:]...)
	}
	return f
}

// reg/setReg grow the register window on demand: codegen sizes
// MaxStackSize for the common case, but a handful of multi-result
// assignment shapes can touch one register past the high-water mark
// codegen tracked, so the frame tolerates that rather than panicking.
func (f *Frame) reg(i int) any {
	if i >= len(f.regs) {
		return nil
	}
	return f.regs[i]
}

func (f *Frame) setReg(i int, v any) {
	if i >= len(f.regs) {
		grown := make([]any, i+1)
		copy(grown, f.regs)
		f.regs = grown
	}
	f.regs[i] = v
}

func (f *Frame) window(base, n int) []any {
	out := make([]any, n)
	for i := 0; i < n; i++ {
		out[i] = f.reg(base + i)
	}
	return out
}

// top reports the index one past the frame's last live register, used
// by CALL/VARARG/SETLIST's "to top" (B==0) encoding.
func (f *Frame) top() int { return len(f.regs) }

func (f *Frame) setTop(n int) {
	if n > len(f.regs) {
		f.setReg(n-1, nil)
	} else {
		f.regs = f.regs[:n]
	}
}

// findOrCreateUpvalue returns the open upvalue aliasing register idx,
// creating it the first time that register is captured — at most one
// Upvalue object per register, so two closures capturing the same
// local share one cell until it closes.
func (f *Frame) findOrCreateUpvalue(idx int) *value.Upvalue {
	if uv, ok := f.openUV[idx]; ok {
		return uv
	}
	uv := value.NewOpenUpvalue(&f.regs, idx)
	f.openUV[idx] = uv
	return uv
}

// closeUpvaluesFrom closes every open upvalue aliasing a register >= from.
func (f *Frame) closeUpvaluesFrom(from int) {
	for idx, uv := range f.openUV {
		if idx >= from {
			uv.Close()
			delete(f.openUV, idx)
		}
	}
}

// closeTBCFrom runs __close (via rt.Close) on every to-be-closed local
// at or above register from, innermost (highest register) first, and
// drops them from the pending list — the implicit close RETURN and a
// block exit below a <close> local both perform, generalizing the
// teacher's CloseUpvalues-on-JMP (vm/inst_misc.go) to also cover TBC
// variables, which the teacher's dialect never had.
func (f *Frame) closeTBCFrom(from int, rt Runtime) {
	kept := f.tbc[:0]
	var toClose []int
	for _, idx := range f.tbc {
		if idx >= from {
			toClose = append(toClose, idx)
		} else {
			kept = append(kept, idx)
		}
	}
	f.tbc = kept
	for i := len(toClose) - 1; i >= 0; i-- {
		rt.Close(f.reg(toClose[i]))
	}
}

// signal is a handler's verdict: either "keep executing this frame" or
// "the frame is done, here are its results".
type signal struct {
	done   bool
	values []any
}

var contSignal = signal{}

type handler func(f *Frame, i bytecode.Instruction, rt Runtime) signal

// dispatch is the precomputed opcode -> handler table, filled through
// register by each inst_*.go file's init() — the same
// "array indexed by opcode, filled once at init" shape as the
// teacher's jumpTable [64]instructionFunc.
var dispatch [256]handler

func register(op bytecode.Opcode, h handler) {
	dispatch[op] = h
}

// Exec runs cl (which must be a Lua closure, cl.Proto != nil) against
// args and returns its results. Calls back into rt.Call for every
// CALL/TAILCALL/SELF-invoked function, Lua or Go, so recursive Lua
// calls re-enter Exec through the embedder rather than this package
// calling itself directly.
func Exec(rt Runtime, cl *value.Closure, args []any) []any {
	f := newFrame(cl, args)
	code := cl.Proto.Code
	for {
		instr := code[f.pc]
		if int(f.pc) < len(cl.Proto.LineInfo) {
			rt.SetLine(int(cl.Proto.LineInfo[f.pc]))
		}
		f.pc++
		op := instr.Opcode()
		h := dispatch[op]
		if h == nil {
			rt.Errorf("unimplemented opcode %s", op)
		}
		sig := h(f, instr, rt)
		if sig.done {
			f.closeTBCFrom(0, rt)
			f.closeUpvaluesFrom(0)
			return sig.values
		}
	}
}
