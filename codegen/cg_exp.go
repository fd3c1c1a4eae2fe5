package codegen

import (
	"github.com/lollipopkit/luacore/ast"
	"github.com/lollipopkit/luacore/lexer"
)

// cgExp compiles node so that its (first, if n==1) result ends up in
// register a. n == -1 means "as many results as the expression
// naturally produces" (only meaningful for a vararg or call in tail
// position of a list).
func cgExp(fi *funcInfo, node ast.Exp, a, n int) {
	switch exp := node.(type) {
	case *ast.NilExp:
		fi.emitLoadNil(exp.Line, a, n)
	case *ast.FalseExp:
		fi.emitLoadBool(exp.Line, a, false)
	case *ast.TrueExp:
		fi.emitLoadBool(exp.Line, a, true)
	case *ast.IntegerExp:
		fi.emitLoadK(exp.Line, a, exp.Int)
	case *ast.FloatExp:
		fi.emitLoadK(exp.Line, a, exp.Float)
	case *ast.StringExp:
		fi.emitLoadK(exp.Line, a, exp.Str)
	case *ast.ParensExp:
		cgExp(fi, exp.Exp, a, 1)
	case *ast.VarargExp:
		cgVarargExp(fi, exp, a, n)
	case *ast.FuncDefExp:
		cgFuncDefExp(fi, exp, a)
	case *ast.TableConstructorExp:
		cgTableConstructorExp(fi, exp, a)
	case *ast.UnopExp:
		cgUnopExp(fi, exp, a)
	case *ast.BinopExp:
		cgBinopExp(fi, exp, a)
	case *ast.NameExp:
		cgNameExp(fi, exp, a)
	case *ast.TableAccessExp:
		cgTableAccessExp(fi, exp, a)
	case *ast.FuncCallExp:
		cgFuncCallExp(fi, exp, a, n)
	default:
		panic("codegen: unknown expression node")
	}
}

func cgVarargExp(fi *funcInfo, node *ast.VarargExp, a, n int) {
	if !fi.isVararg {
		panic("cannot use '...' outside a vararg function")
	}
	fi.emitVararg(node.Line, a, n)
}

// r[a] := function(params) body end
func cgFuncDefExp(fi *funcInfo, node *ast.FuncDefExp, a int) {
	subFI := newFuncInfo(fi, node.Line, node.LastLine, len(node.ParList), node.IsVararg)
	fi.subFuncs = append(fi.subFuncs, subFI)

	for _, p := range node.ParList {
		subFI.addLocVar(p, "", 0)
	}

	cgBlock(subFI, node.Block)
	subFI.exitScope(subFI.pc() + 2)
	subFI.emitReturn(node.LastLine, 0, 0)
	if err := subFI.resolveGotos(); err != nil {
		panic(err.Error())
	}

	bx := len(fi.subFuncs) - 1
	fi.emitClosure(node.LastLine, a, bx)
}

const lfieldsPerFlush = 50

func cgTableConstructorExp(fi *funcInfo, node *ast.TableConstructorExp, a int) {
	nArr := 0
	for _, k := range node.KeyExps {
		if k == nil {
			nArr++
		}
	}
	nExps := len(node.KeyExps)
	multRet := nExps > 0 && isVarargOrFuncCall(node.ValExps[nExps-1])

	fi.emitNewTable(node.Line, a, nArr, nExps-nArr)

	arrIdx := 0
	for i := range node.KeyExps {
		valExp := node.ValExps[i]

		if node.KeyExps[i] == nil {
			arrIdx++
			tmp := fi.allocReg()
			if i == nExps-1 && multRet {
				cgExp(fi, valExp, tmp, -1)
			} else {
				cgExp(fi, valExp, tmp, 1)
			}

			if arrIdx%lfieldsPerFlush == 0 || arrIdx == nArr {
				n := arrIdx % lfieldsPerFlush
				if n == 0 {
					n = lfieldsPerFlush
				}
				fi.freeRegs(n)
				line := lastLineOf(valExp)
				c := (arrIdx-1)/lfieldsPerFlush + 1
				if i == nExps-1 && multRet {
					fi.emitSetList(line, a, 0, c)
				} else {
					fi.emitSetList(line, a, n, c)
				}
			}
			continue
		}

		b := fi.allocReg()
		cgExp(fi, node.KeyExps[i], b, 1)
		c := fi.allocReg()
		cgExp(fi, valExp, c, 1)
		fi.freeRegs(2)

		line := lastLineOf(valExp)
		fi.emitSetTable(line, a, b, c)
	}
}

func cgUnopExp(fi *funcInfo, node *ast.UnopExp, a int) {
	oldRegs := fi.usedRegs
	b, _ := expToOpArg(fi, node.Exp, argReg)
	fi.emitUnaryOp(node.Line, node.Op, a, b)
	fi.usedRegs = oldRegs
}

func cgBinopExp(fi *funcInfo, node *ast.BinopExp, a int) {
	switch node.Op {
	case tokenOpAnd, tokenOpOr:
		oldRegs := fi.usedRegs
		b, _ := expToOpArg(fi, node.Left, argReg)
		fi.usedRegs = oldRegs
		fi.emitTestSet(node.Line, a, b, node.Op == tokenOpOr)
		jmp := fi.emitJmp(node.Line, 0, 0)

		b, _ = expToOpArg(fi, node.Right, argReg)
		fi.usedRegs = oldRegs
		fi.emitMove(node.Line, a, b)
		fi.patchJmpTo(jmp, fi.pc())
	case lexer.TOKEN_SEP_DOTDOT:
		cgConcatExp(fi, node, a)
	default:
		oldRegs := fi.usedRegs
		// ADD/SUB/.../EQ/LT/LE read B and C as plain registers (the K/I
		// immediate-operand variants are separate opcodes codegen never
		// emits), so operands must be materialized into registers here,
		// never returned as a bare constant-pool index.
		b, _ := expToOpArg(fi, node.Left, argReg)
		c, _ := expToOpArg(fi, node.Right, argReg)
		fi.emitBinaryOp(node.Line, node.Op, a, b, c)
		fi.usedRegs = oldRegs
	}
}

// r[a] := r[a], ..., r[a+n-1] concatenated; the operands are evaluated
// into a contiguous run of fresh registers starting at a so CONCAT's
// ABC encoding (base register + count) can address them directly.
func cgConcatExp(fi *funcInfo, node *ast.BinopExp, a int) {
	oldRegs := fi.usedRegs
	operands := flattenConcat(node)
	base := fi.allocRegs(len(operands))
	for i, op := range operands {
		cgExp(fi, op, base+i, 1)
	}
	fi.emitConcat(node.Line, base, len(operands))
	fi.emitMove(node.Line, a, base)
	fi.usedRegs = oldRegs
}

func flattenConcat(node *ast.BinopExp) []ast.Exp {
	var out []ast.Exp
	var walk func(e ast.Exp)
	walk = func(e ast.Exp) {
		if b, ok := e.(*ast.BinopExp); ok && b.Op == lexer.TOKEN_SEP_DOTDOT {
			walk(b.Left)
			walk(b.Right)
			return
		}
		out = append(out, e)
	}
	walk(node)
	return out
}

func cgNameExp(fi *funcInfo, node *ast.NameExp, a int) {
	if r := fi.slotOfLocVar(node.Name); r >= 0 {
		fi.emitMove(node.Line, a, r)
	} else if idx := fi.indexOfUpval(node.Name); idx >= 0 {
		fi.emitGetUpval(node.Line, a, idx)
	} else {
		fi.emitGlobalGet(node.Line, a, node.Name)
	}
}

// emitGlobalGet compiles `name` as `_ENV.name` (either an upvalue or a
// local holding the environment table, per the closure's scope).
func (fi *funcInfo) emitGlobalGet(line, a int, name string) {
	if r := fi.slotOfLocVar("_ENV"); r >= 0 {
		fi.emitGetField(line, a, r, name)
		return
	}
	idx := fi.indexOfUpval("_ENV")
	fi.emitGetTabUp(line, a, idx, name)
}

func (fi *funcInfo) emitGlobalSet(line, a int, name string) {
	if r := fi.slotOfLocVar("_ENV"); r >= 0 {
		fi.emitSetField(line, r, name, a)
		return
	}
	idx := fi.indexOfUpval("_ENV")
	fi.emitSetTabUp(line, idx, name, a)
}

func cgTableAccessExp(fi *funcInfo, node *ast.TableAccessExp, a int) {
	if s, ok := node.KeyExp.(*ast.StringExp); ok {
		oldRegs := fi.usedRegs
		b, kindB := expToOpArg(fi, node.PrefixExp, argRU)
		fi.usedRegs = oldRegs
		if kindB == argUpval {
			fi.emitGetTabUp(node.LastLine, a, b, s.Str)
		} else {
			fi.emitGetField(node.LastLine, a, b, s.Str)
		}
		return
	}

	oldRegs := fi.usedRegs
	b, kindB := expToOpArg(fi, node.PrefixExp, argRU)
	// GETTABLE's C is a plain register, not an RK-style hybrid slot.
	c, _ := expToOpArg(fi, node.KeyExp, argReg)
	fi.usedRegs = oldRegs

	if kindB == argUpval {
		// UpValue tables are only ever _ENV; string-key access went
		// through the branch above, so a non-string key here means a
		// global indexed by a computed key, which Lua doesn't allow
		// directly — materialize _ENV into a register first.
		env := fi.allocReg()
		fi.emitGetUpval(node.LastLine, env, b)
		fi.emitGetTable(node.LastLine, a, env, c)
		fi.freeReg()
		return
	}
	fi.emitGetTable(node.LastLine, a, b, c)
}

func cgFuncCallExp(fi *funcInfo, node *ast.FuncCallExp, a, n int) {
	nArgs := prepFuncCall(fi, node, a)
	fi.emitCall(node.Line, a, nArgs, n)
}

func cgTailCallExp(fi *funcInfo, node *ast.FuncCallExp, a int) {
	nArgs := prepFuncCall(fi, node, a)
	fi.emitTailCall(node.Line, a, nArgs)
}

func prepFuncCall(fi *funcInfo, node *ast.FuncCallExp, a int) int {
	nArgs := len(node.Args)
	lastIsMulti := false

	cgExp(fi, node.PrefixExp, a, 1)
	if node.NameExp != nil {
		fi.allocReg()
		fi.emitSelf(node.Line, a, a, node.NameExp.Str)
	}
	for i, arg := range node.Args {
		tmp := fi.allocReg()
		if i == nArgs-1 && isVarargOrFuncCall(arg) {
			lastIsMulti = true
			cgExp(fi, arg, tmp, -1)
		} else {
			cgExp(fi, arg, tmp, 1)
		}
	}
	fi.freeRegs(nArgs)

	if node.NameExp != nil {
		fi.freeReg()
		nArgs++
	}
	if lastIsMulti {
		nArgs = -1
	}
	return nArgs
}

// kind of operand expToOpArg is allowed to produce. There is no
// constant-pool kind: every opcode that reaches expToOpArg (ADD/SUB/...,
// EQ/LT/LE, GETTABLE/SETTABLE) reads its B/C fields as plain registers —
// the K/I immediate-operand opcode variants are separate opcodes
// codegen never emits, so a bare constant-pool index must never be
// handed back through one of these register-typed fields.
const (
	argReg   = 2
	argUpval = 4
	argRU    = argReg | argUpval
)

// expToOpArg evaluates node into an existing register or upvalue
// (reusing it rather than copying, when node is already a bare local or
// upvalue name) instead of always burning a fresh register.
func expToOpArg(fi *funcInfo, node ast.Exp, kinds int) (arg, kind int) {
	if nameExp, ok := node.(*ast.NameExp); ok {
		if kinds&argReg != 0 {
			if r := fi.slotOfLocVar(nameExp.Name); r >= 0 {
				return r, argReg
			}
		}
		if kinds&argUpval != 0 {
			if idx := fi.indexOfUpval(nameExp.Name); idx >= 0 {
				return idx, argUpval
			}
		}
	}
	a := fi.allocReg()
	cgExp(fi, node, a, 1)
	return a, argReg
}
