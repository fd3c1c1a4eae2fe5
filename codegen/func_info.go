// Package codegen lowers an ast.Block into a bytecode.Prototype: one
// funcInfo per nested function literal tracks its register window,
// lexical scopes, upvalue chain, and constant pool while instructions
// are emitted, mirroring the teacher's one-funcInfo-per-closure
// register allocator generalized to the Lua 5.5 opcode set.
package codegen

import (
	"fmt"

	"github.com/lollipopkit/luacore/bytecode"
	"github.com/lollipopkit/luacore/lexer"
)

// short local aliases for the lexer's TOKEN_OP_* constants, to keep
// the opcode-selection tables below readable.
const (
	tokenOpNot  = lexer.TOKEN_OP_NOT
	tokenOpBnot = lexer.TOKEN_OP_BNOT
	tokenOpLen  = lexer.TOKEN_OP_LEN
	tokenOpUnm  = lexer.TOKEN_OP_UNM

	tokenOpAdd  = lexer.TOKEN_OP_ADD
	tokenOpSub  = lexer.TOKEN_OP_SUB
	tokenOpMul  = lexer.TOKEN_OP_MUL
	tokenOpMod  = lexer.TOKEN_OP_MOD
	tokenOpPow  = lexer.TOKEN_OP_POW
	tokenOpDiv  = lexer.TOKEN_OP_DIV
	tokenOpIdiv = lexer.TOKEN_OP_IDIV
	tokenOpBand = lexer.TOKEN_OP_BAND
	tokenOpBor  = lexer.TOKEN_OP_BOR
	tokenOpBxor = lexer.TOKEN_OP_BXOR
	tokenOpShl  = lexer.TOKEN_OP_SHL
	tokenOpShr  = lexer.TOKEN_OP_SHR

	tokenOpEq = lexer.TOKEN_OP_EQ
	tokenOpNe = lexer.TOKEN_OP_NE
	tokenOpLt = lexer.TOKEN_OP_LT
	tokenOpGt = lexer.TOKEN_OP_GT
	tokenOpLe = lexer.TOKEN_OP_LE
	tokenOpGe = lexer.TOKEN_OP_GE

	tokenOpAnd = lexer.TOKEN_OP_AND
	tokenOpOr  = lexer.TOKEN_OP_OR
)

type upvalInfo struct {
	locVarSlot int // >=0 if captured from the parent's locals (instack)
	upvalIndex int // >=0 if captured from the parent's own upvalues
	index      int
}

type locVarInfo struct {
	prev     *locVarInfo
	name     string
	scopeLv  int
	slot     int
	startPC  int
	endPC    int
	captured bool
	attrib   string // "", "const", "close"
}

type pendingGoto struct {
	name    string
	pc      int
	line    int
	scopeLv int
}

type label struct {
	pc      int
	scopeLv int
}

type funcInfo struct {
	parent   *funcInfo
	subFuncs []*funcInfo

	usedRegs int
	maxRegs  int
	scopeLv  int

	locVars  []*locVarInfo
	locNames map[string]*locVarInfo
	upvalues map[string]upvalInfo

	constants map[any]int

	breaks [][]int // pending break JMP pcs, one slice per scope level (nil = not breakable)

	gotos  []pendingGoto
	labels map[string]label

	insts    []bytecode.Instruction
	lineNums []int

	line      int
	lastLine  int
	numParams int
	isVararg  bool
}

func newFuncInfo(parent *funcInfo, line, lastLine, numParams int, isVararg bool) *funcInfo {
	return &funcInfo{
		parent:    parent,
		locVars:   make([]*locVarInfo, 0, 8),
		locNames:  map[string]*locVarInfo{},
		upvalues:  map[string]upvalInfo{},
		constants: map[any]int{},
		breaks:    make([][]int, 1),
		labels:    map[string]label{},
		insts:     make([]bytecode.Instruction, 0, 8),
		lineNums:  make([]int, 0, 8),
		line:      line,
		lastLine:  lastLine,
		numParams: numParams,
		isVararg:  isVararg,
	}
}

/* constants */

func (fi *funcInfo) indexOfConstant(k any) int {
	if idx, found := fi.constants[k]; found {
		return idx
	}
	idx := len(fi.constants)
	fi.constants[k] = idx
	return idx
}

/* registers */

func (fi *funcInfo) allocReg() int {
	fi.usedRegs++
	if fi.usedRegs >= 250 {
		panic("function or expression needs too many registers")
	}
	if fi.usedRegs > fi.maxRegs {
		fi.maxRegs = fi.usedRegs
	}
	return fi.usedRegs - 1
}

func (fi *funcInfo) freeReg() {
	if fi.usedRegs <= 0 {
		panic("codegen: register freed with none allocated")
	}
	fi.usedRegs--
}

func (fi *funcInfo) allocRegs(n int) int {
	if n <= 0 {
		panic("codegen: allocRegs with n <= 0")
	}
	for i := 0; i < n; i++ {
		fi.allocReg()
	}
	return fi.usedRegs - n
}

func (fi *funcInfo) freeRegs(n int) {
	for i := 0; i < n; i++ {
		fi.freeReg()
	}
}

/* lexical scope */

func (fi *funcInfo) enterScope(breakable bool) {
	fi.scopeLv++
	if breakable {
		fi.breaks = append(fi.breaks, []int{})
	} else {
		fi.breaks = append(fi.breaks, nil)
	}
}

func (fi *funcInfo) exitScope(endPC int) {
	pendingBreaks := fi.breaks[len(fi.breaks)-1]
	fi.breaks = fi.breaks[:len(fi.breaks)-1]

	a := fi.closeRegOfScope()
	for _, pc := range pendingBreaks {
		// JMP's A is the close register plus one (0 closes nothing)
		fi.patchJmp(pc, a+1)
	}

	fi.scopeLv--
	for name, v := range fi.locNames {
		if v.scopeLv > fi.scopeLv {
			v.endPC = endPC
			fi.removeLocVar(v)
			delete(fi.locNames, name)
			if v.prev != nil {
				fi.locNames[name] = v.prev
			}
		}
	}
}

func (fi *funcInfo) removeLocVar(v *locVarInfo) {
	fi.freeReg()
}

func (fi *funcInfo) addLocVar(name string, attrib string, startPC int) int {
	newVar := &locVarInfo{
		name:    name,
		prev:    fi.locNames[name],
		scopeLv: fi.scopeLv,
		slot:    fi.allocReg(),
		startPC: startPC,
		attrib:  attrib,
	}
	fi.locVars = append(fi.locVars, newVar)
	fi.locNames[name] = newVar
	if attrib == "close" {
		fi.emitABC(startPC, bytecode.OP_TBC, newVar.slot, 0, 0, false)
	}
	return newVar.slot
}

func (fi *funcInfo) slotOfLocVar(name string) int {
	if v, found := fi.locNames[name]; found {
		return v.slot
	}
	return -1
}

func (fi *funcInfo) isConst(name string) bool {
	if v, found := fi.locNames[name]; found {
		return v.attrib == "const" || v.attrib == "close"
	}
	return false
}

func (fi *funcInfo) addBreakJmp(pc int) {
	for i := fi.scopeLv; i >= 0; i-- {
		if fi.breaks[i] != nil {
			fi.breaks[i] = append(fi.breaks[i], pc)
			return
		}
	}
	panic("codegen: break outside a loop")
}

// closeRegOfScope reports, when any of this scope's locals has been
// captured as an upvalue or marked <close>, the lowest register among
// all of this scope's locals; the VM's CLOSE instruction for this scope
// exit targets that register. It returns -1 when nothing needs closing.
func (fi *funcInfo) closeRegOfScope() int {
	needsClose := false
	minSlot := fi.maxRegs
	for _, v := range fi.locNames {
		for p := v; p != nil && p.scopeLv == fi.scopeLv; p = p.prev {
			if p.captured || p.attrib == "close" {
				needsClose = true
			}
			if p.slot < minSlot {
				minSlot = p.slot
			}
		}
	}
	if needsClose {
		return minSlot
	}
	return -1
}

/* upvalues */

func (fi *funcInfo) indexOfUpval(name string) int {
	if uv, ok := fi.upvalues[name]; ok {
		return uv.index
	}
	if fi.parent == nil {
		return -1
	}
	if v, found := fi.parent.locNames[name]; found {
		idx := len(fi.upvalues)
		fi.upvalues[name] = upvalInfo{locVarSlot: v.slot, upvalIndex: -1, index: idx}
		v.captured = true
		return idx
	}
	if puv := fi.parent.indexOfUpval(name); puv >= 0 {
		idx := len(fi.upvalues)
		fi.upvalues[name] = upvalInfo{locVarSlot: -1, upvalIndex: puv, index: idx}
		return idx
	}
	return -1
}

/* goto/label: resolved once the whole function body has been emitted,
since a goto may target a label that appears later in an enclosing
block. */

func (fi *funcInfo) addGoto(name string, line int) {
	fi.gotos = append(fi.gotos, pendingGoto{name: name, pc: fi.emitJmp(line, 0, 0), line: line, scopeLv: fi.scopeLv})
}

func (fi *funcInfo) addLabel(name string, line int) {
	fi.labels[name] = label{pc: fi.pc(), scopeLv: fi.scopeLv}
}

func (fi *funcInfo) resolveGotos() error {
	for _, g := range fi.gotos {
		lb, ok := fi.labels[g.name]
		if !ok {
			return fmt.Errorf("no visible label %q for goto at line %d", g.name, g.line)
		}
		sbx := lb.pc - g.pc
		fi.insts[g.pc] = bytecode.EncodeAsBx(bytecode.OP_JMP, 0, sbx)
	}
	return nil
}

/* code emission */

func (fi *funcInfo) pc() int { return len(fi.insts) - 1 }

func (fi *funcInfo) patchJmp(pc, a int) {
	newSbx := fi.pc() - pc
	fi.insts[pc] = bytecode.EncodeAsBx(bytecode.OP_JMP, a, newSbx)
}

func (fi *funcInfo) emitABC(line int, op bytecode.Opcode, a, b, c int, k bool) {
	fi.insts = append(fi.insts, bytecode.Encode(op, a, b, c, k))
	fi.lineNums = append(fi.lineNums, line)
}

func (fi *funcInfo) emitABx(line int, op bytecode.Opcode, a, bx int) int {
	fi.insts = append(fi.insts, bytecode.EncodeABx(op, a, bx))
	fi.lineNums = append(fi.lineNums, line)
	return fi.pc()
}

func (fi *funcInfo) emitAsBx(line int, op bytecode.Opcode, a, sbx int) int {
	fi.insts = append(fi.insts, bytecode.EncodeAsBx(op, a, sbx))
	fi.lineNums = append(fi.lineNums, line)
	return fi.pc()
}

func (fi *funcInfo) emitAx(line int, op bytecode.Opcode, ax int) {
	fi.insts = append(fi.insts, bytecode.EncodeAx(op, ax))
	fi.lineNums = append(fi.lineNums, line)
}

func (fi *funcInfo) emitMove(line, a, b int) {
	if a != b {
		fi.emitABC(line, bytecode.OP_MOVE, a, b, 0, false)
	}
}

func (fi *funcInfo) emitLoadNil(line, a, n int) {
	fi.emitABC(line, bytecode.OP_LOADNIL, a, n-1, 0, false)
}

func (fi *funcInfo) emitLoadBool(line, a int, b bool) {
	if b {
		fi.emitABC(line, bytecode.OP_LOADTRUE, a, 0, 0, false)
	} else {
		fi.emitABC(line, bytecode.OP_LOADFALSE, a, 0, 0, false)
	}
}

func (fi *funcInfo) emitLoadK(line, a int, k any) {
	idx := fi.indexOfConstant(k)
	if idx <= bytecode_maxArgBx {
		fi.emitABx(line, bytecode.OP_LOADK, a, idx)
	} else {
		fi.emitABx(line, bytecode.OP_LOADKX, a, 0)
		fi.emitAx(line, bytecode.OP_EXTRAARG, idx)
	}
}

const bytecode_maxArgBx = 1<<17 - 1

func (fi *funcInfo) emitVararg(line, a, n int) {
	fi.emitABC(line, bytecode.OP_VARARG, a, n+1, 0, false)
}

func (fi *funcInfo) emitClosure(line, a, bx int) {
	fi.emitABx(line, bytecode.OP_CLOSURE, a, bx)
}

func (fi *funcInfo) emitNewTable(line, a, nArr, nRec int) {
	fi.emitABC(line, bytecode.OP_NEWTABLE, a, nArr, nRec, false)
}

func (fi *funcInfo) emitSetList(line, a, n, c int) {
	fi.emitABC(line, bytecode.OP_SETLIST, a, n, c, false)
}

func (fi *funcInfo) emitGetTable(line, a, b, c int) {
	fi.emitABC(line, bytecode.OP_GETTABLE, a, b, c, false)
}

func (fi *funcInfo) emitSetTable(line, a, b, c int) {
	fi.emitABC(line, bytecode.OP_SETTABLE, a, b, c, false)
}

func (fi *funcInfo) emitGetField(line, a, b int, k any) {
	fi.emitABC(line, bytecode.OP_GETFIELD, a, b, fi.indexOfConstant(k), false)
}

func (fi *funcInfo) emitSetField(line, a int, k any, c int) {
	fi.emitABC(line, bytecode.OP_SETFIELD, a, fi.indexOfConstant(k), c, false)
}

func (fi *funcInfo) emitGetUpval(line, a, b int) {
	fi.emitABC(line, bytecode.OP_GETUPVAL, a, b, 0, false)
}

func (fi *funcInfo) emitSetUpval(line, a, b int) {
	fi.emitABC(line, bytecode.OP_SETUPVAL, a, b, 0, false)
}

func (fi *funcInfo) emitGetTabUp(line, a, b int, k any) {
	fi.emitABC(line, bytecode.OP_GETTABUP, a, b, fi.indexOfConstant(k), false)
}

func (fi *funcInfo) emitSetTabUp(line, a int, k any, c int) {
	fi.emitABC(line, bytecode.OP_SETTABUP, a, fi.indexOfConstant(k), c, false)
}

func (fi *funcInfo) emitCall(line, a, nArgs, nRet int) {
	fi.emitABC(line, bytecode.OP_CALL, a, nArgs+1, nRet+1, false)
}

func (fi *funcInfo) emitTailCall(line, a, nArgs int) {
	fi.emitABC(line, bytecode.OP_TAILCALL, a, nArgs+1, 0, false)
}

func (fi *funcInfo) emitReturn(line, a, n int) {
	switch n {
	case 0:
		fi.emitABC(line, bytecode.OP_RETURN0, 0, 0, 0, false)
	case 1:
		fi.emitABC(line, bytecode.OP_RETURN1, a, 0, 0, false)
	default:
		fi.emitABC(line, bytecode.OP_RETURN, a, n+1, 0, false)
	}
}

func (fi *funcInfo) emitSelf(line, a, b int, k any) {
	fi.emitABC(line, bytecode.OP_SELF, a, b, fi.indexOfConstant(k), false)
}

func (fi *funcInfo) emitJmp(line, a, sbx int) int {
	return fi.emitAsBx(line, bytecode.OP_JMP, a, sbx)
}

func (fi *funcInfo) emitTest(line, a int, k bool) {
	fi.emitABC(line, bytecode.OP_TEST, a, 0, 0, k)
}

func (fi *funcInfo) emitTestSet(line, a, b int, k bool) {
	fi.emitABC(line, bytecode.OP_TESTSET, a, b, 0, k)
}

func (fi *funcInfo) emitForPrep(line, a, sbx int) int {
	return fi.emitAsBx(line, bytecode.OP_FORPREP, a, sbx)
}

func (fi *funcInfo) emitForLoop(line, a, sbx int) int {
	return fi.emitAsBx(line, bytecode.OP_FORLOOP, a, sbx)
}

func (fi *funcInfo) emitTForPrep(line, a, sbx int) int {
	return fi.emitAsBx(line, bytecode.OP_TFORPREP, a, sbx)
}

func (fi *funcInfo) emitTForCall(line, a, c int) {
	fi.emitABC(line, bytecode.OP_TFORCALL, a, 0, c, false)
}

func (fi *funcInfo) emitTForLoop(line, a, sbx int) int {
	return fi.emitAsBx(line, bytecode.OP_TFORLOOP, a, sbx)
}

func (fi *funcInfo) emitClose(line, a int) {
	if a >= 0 {
		fi.emitABC(line, bytecode.OP_CLOSE, a, 0, 0, false)
	}
}

func (fi *funcInfo) emitConcat(line, a, n int) {
	fi.emitABC(line, bytecode.OP_CONCAT, a, n, 0, false)
}

var unaryOps = map[int]bytecode.Opcode{
	tokenOpNot:  bytecode.OP_NOT,
	tokenOpBnot: bytecode.OP_BNOT,
	tokenOpLen:  bytecode.OP_LEN,
	tokenOpUnm:  bytecode.OP_UNM,
}

func (fi *funcInfo) emitUnaryOp(line, op, a, b int) {
	if opcode, ok := unaryOps[op]; ok {
		fi.emitABC(line, opcode, a, b, 0, false)
		return
	}
	panic("codegen: unknown unary operator")
}

var arithAndBitwiseBinops = map[int]bytecode.Opcode{
	tokenOpAdd:  bytecode.OP_ADD,
	tokenOpSub:  bytecode.OP_SUB,
	tokenOpMul:  bytecode.OP_MUL,
	tokenOpMod:  bytecode.OP_MOD,
	tokenOpPow:  bytecode.OP_POW,
	tokenOpDiv:  bytecode.OP_DIV,
	tokenOpIdiv: bytecode.OP_IDIV,
	tokenOpBand: bytecode.OP_BAND,
	tokenOpBor:  bytecode.OP_BOR,
	tokenOpBxor: bytecode.OP_BXOR,
	tokenOpShl:  bytecode.OP_SHL,
	tokenOpShr:  bytecode.OP_SHR,
}

// emitBinaryOp emits r[a] := r[b] op r[c] for arithmetic/bitwise ops,
// or the test+LFALSESKIP/LOADTRUE boolean-materialization sequence for
// comparisons (EQ/LT/LE and their NE/GT/GE derivatives).
func (fi *funcInfo) emitBinaryOp(line, op, a, b, c int) {
	if opcode, found := arithAndBitwiseBinops[op]; found {
		fi.emitABC(line, opcode, a, b, c, false)
		return
	}

	var cmpOp bytecode.Opcode
	k := true
	switch op {
	case tokenOpEq:
		cmpOp = bytecode.OP_EQ
	case tokenOpNe:
		cmpOp = bytecode.OP_EQ
		k = false
	case tokenOpLt:
		cmpOp = bytecode.OP_LT
	case tokenOpGt:
		cmpOp = bytecode.OP_LT
		b, c = c, b
	case tokenOpLe:
		cmpOp = bytecode.OP_LE
	case tokenOpGe:
		cmpOp = bytecode.OP_LE
		b, c = c, b
	default:
		panic("codegen: unknown comparison operator")
	}
	fi.emitABC(line, cmpOp, b, c, 0, k)
	jmp := fi.emitJmp(line, 0, 0)
	fi.emitABC(line, bytecode.OP_LFALSESKIP, a, 0, 0, false)
	fi.emitABC(line, bytecode.OP_LOADTRUE, a, 0, 0, false)
	// the comparison's JMP must land exactly on LOADTRUE (skipping only
	// LFALSESKIP) so the true branch falls through into it; patchJmpTo's
	// "land one past target" convention means target is LOADTRUE's pc
	// minus one, not fi.pc() itself (which already points at LOADTRUE).
	fi.patchJmpTo(jmp, fi.pc()-1)
}

func (fi *funcInfo) patchJmpTo(jmpPC, targetPC int) {
	fi.insts[jmpPC] = bytecode.EncodeAsBx(bytecode.OP_JMP, 0, targetPC-jmpPC)
}
