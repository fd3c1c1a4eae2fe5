package codegen

import (
	"github.com/lollipopkit/luacore/ast"
	"github.com/lollipopkit/luacore/bytecode"
)

// cgBlock compiles every statement in a block in turn, then its
// trailing return (if any). Caller is responsible for entering/
// exiting the scope that wraps this block, except at top level where
// the function's own scope already serves that purpose.
func cgBlock(fi *funcInfo, node *ast.Block) {
	for _, stat := range node.Stats {
		cgStat(fi, stat)
	}
	if node.RetExps != nil {
		cgRetStat(fi, node.RetExps, node.RetLine)
	}
}

func cgRetStat(fi *funcInfo, exps []ast.Exp, line int) {
	n := len(exps)
	if n == 0 {
		fi.emitReturn(line, 0, 0)
		return
	}
	if n == 1 {
		if nameExp, ok := exps[0].(*ast.NameExp); ok {
			if r := fi.slotOfLocVar(nameExp.Name); r >= 0 {
				fi.emitReturn(line, r, 1)
				return
			}
		}
		if call, ok := exps[0].(*ast.FuncCallExp); ok {
			a := fi.allocReg()
			cgTailCallExp(fi, call, a)
			fi.emitReturn(line, a, -1)
			fi.freeReg()
			return
		}
	}

	multRet := isVarargOrFuncCall(exps[n-1])
	a := fi.allocRegs(n)
	for i, e := range exps {
		if i == n-1 && multRet {
			cgExp(fi, e, a+i, -1)
		} else {
			cgExp(fi, e, a+i, 1)
		}
	}
	fi.freeRegs(n)

	retN := n
	if multRet {
		retN = -1
	}
	fi.emitReturn(line, a, retN)
}

func cgStat(fi *funcInfo, stat ast.Stat) {
	switch s := stat.(type) {
	case *ast.EmptyStat:
		// nothing to emit
	case *ast.BreakStat:
		cgBreakStat(fi, s)
	case *ast.LabelStat:
		fi.addLabel(s.Name, s.Line)
	case *ast.GotoStat:
		fi.addGoto(s.Name, s.Line)
	case *ast.DoStat:
		cgDoStat(fi, s)
	case *ast.WhileStat:
		cgWhileStat(fi, s)
	case *ast.RepeatStat:
		cgRepeatStat(fi, s)
	case *ast.IfStat:
		cgIfStat(fi, s)
	case *ast.ForNumStat:
		cgForNumStat(fi, s)
	case *ast.ForInStat:
		cgForInStat(fi, s)
	case *ast.LocalVarDeclStat:
		cgLocalVarDeclStat(fi, s)
	case *ast.LocalFuncDefStat:
		cgLocalFuncDefStat(fi, s)
	case *ast.AssignStat:
		cgAssignStat(fi, s)
	case *ast.FuncCallExp:
		oldRegs := fi.usedRegs
		a := fi.allocReg()
		cgFuncCallExp(fi, s, a, 0)
		fi.usedRegs = oldRegs
	default:
		panic("codegen: unknown statement node")
	}
}

func cgBreakStat(fi *funcInfo, s *ast.BreakStat) {
	fi.addBreakJmp(fi.emitJmp(s.Line, 0, 0))
}

func cgDoStat(fi *funcInfo, s *ast.DoStat) {
	fi.enterScope(false)
	cgBlock(fi, s.Block)
	fi.closeAndExitScope(s.Block.LastLine)
}

// closeAndExitScope emits CLOSE for any <close>/captured locals going
// out of scope, then pops the scope itself.
func (fi *funcInfo) closeAndExitScope(endLine int) {
	a := fi.closeRegOfScope()
	fi.emitClose(endLine, a)
	fi.exitScope(fi.pc() + 1)
}

func cgWhileStat(fi *funcInfo, s *ast.WhileStat) {
	pcBefore := fi.pc()
	oldRegs := fi.usedRegs
	a, _ := expToOpArg(fi, s.Exp, argReg)
	fi.usedRegs = oldRegs
	fi.emitTest(s.Line, a, false)
	jmpToEnd := fi.emitJmp(s.Line, 0, 0)

	fi.enterScope(true)
	cgBlock(fi, s.Block)
	fi.closeAndExitScope(s.Block.LastLine)
	fi.emitJmp(s.Block.LastLine, 0, pcBefore-fi.pc()-1)

	fi.patchJmpTo(jmpToEnd, fi.pc())
}

func cgRepeatStat(fi *funcInfo, s *ast.RepeatStat) {
	pcBefore := fi.pc()

	fi.enterScope(true)
	cgBlock(fi, s.Block)

	oldRegs := fi.usedRegs
	a, _ := expToOpArg(fi, s.Exp, argReg)
	fi.usedRegs = oldRegs
	fi.emitTest(lastLineOf(s.Exp), a, false)
	fi.emitJmp(lastLineOf(s.Exp), 0, pcBefore-fi.pc()-1)

	fi.closeAndExitScope(fi.pc() + 1)
}

func cgIfStat(fi *funcInfo, s *ast.IfStat) {
	jmpsToEnd := make([]int, 0, len(s.Exps))

	for i, cond := range s.Exps {
		oldRegs := fi.usedRegs
		a, _ := expToOpArg(fi, cond, argReg)
		fi.usedRegs = oldRegs
		fi.emitTest(lastLineOf(cond), a, false)
		jmpToNext := fi.emitJmp(lastLineOf(cond), 0, 0)

		fi.enterScope(false)
		cgBlock(fi, s.Blocks[i])
		fi.closeAndExitScope(s.Blocks[i].LastLine)

		if i < len(s.Exps)-1 {
			jmpsToEnd = append(jmpsToEnd, fi.emitJmp(s.Blocks[i].LastLine, 0, 0))
		}
		fi.patchJmpTo(jmpToNext, fi.pc())
	}

	for _, j := range jmpsToEnd {
		fi.patchJmpTo(j, fi.pc())
	}
}

// for Name = init, limit[, step] do block end — compiled against
// FORPREP/FORLOOP exactly as the reference VM expects: three hidden
// control registers (init, limit, step) immediately below the visible
// loop variable's register.
func cgForNumStat(fi *funcInfo, s *ast.ForNumStat) {
	fi.enterScope(true)

	lineOfFor, lineOfDo := s.LineOfFor, s.LineOfDo
	a := fi.allocRegs(3)
	cgExp(fi, s.InitExp, a, 1)
	cgExp(fi, s.LimitExp, a+1, 1)
	if s.StepExp != nil {
		cgExp(fi, s.StepExp, a+2, 1)
	} else {
		fi.emitLoadK(lineOfFor, a+2, int64(1))
	}
	// a, a+1, a+2 hold the hidden init/limit/step control values (no
	// named local, register already reserved above); only the loop
	// variable itself is a visible local, at a+3.
	fi.addLocVar(s.VarName, "", fi.pc()+1)

	prepPC := fi.emitForPrep(lineOfFor, a, 0)
	cgBlock(fi, s.Block)
	fi.closeAndExitScope(s.Block.LastLine)
	loopPC := fi.emitForLoop(lineOfDo, a, 0)
	// FORLOOP must land exactly on the body's first instruction
	// (prepPC+1); fi.pc() read before FORLOOP itself existed would have
	// been one short of loopPC, landing the jump on FORLOOP itself
	// instead of the body.
	fi.patchAsBxTo(loopPC, prepPC-loopPC)
	fi.patchAsBxTo(prepPC, loopPC-prepPC)
}

func (fi *funcInfo) patchAsBxTo(pc, sbx int) {
	a, _ := fi.insts[pc].AsBx()
	op := fi.insts[pc].Opcode()
	fi.insts[pc] = bytecode.EncodeAsBx(op, a, sbx)
}

// for namelist in explist do block end — explist evaluates to an
// iterator function, state, and initial control value in three hidden
// registers, driven by TFORCALL/TFORLOOP.
func cgForInStat(fi *funcInfo, s *ast.ForInStat) {
	fi.enterScope(true)

	a := fi.allocReg()
	line := s.LineOfDo
	nExps := len(s.ExpList)
	// a call or vararg in last position spreads over the remaining hidden
	// registers; each register is allocated just before its expression is
	// compiled so a call's arguments land right above it
	multRet := nExps > 0 && nExps < 3 && isVarargOrFuncCall(s.ExpList[nExps-1])
	for i := 0; i < 3; i++ {
		if i > 0 {
			fi.allocReg()
		}
		if i == nExps-1 && multRet {
			cgExp(fi, s.ExpList[i], a+i, 3-i)
		} else if i < nExps {
			cgExp(fi, s.ExpList[i], a+i, 1)
		} else if !multRet {
			fi.emitLoadNil(line, a+i, 1)
		}
	}
	fi.allocReg()
	for i := range s.NameList {
		fi.addLocVar(s.NameList[i], "", fi.pc()+1)
	}

	jmpToCall := fi.emitJmp(line, 0, 0)
	bodyPC := fi.pc() + 1
	cgBlock(fi, s.Block)
	fi.closeAndExitScope(s.Block.LastLine)

	fi.patchJmpTo(jmpToCall, fi.pc())
	fi.emitTForCall(line, a, len(s.NameList))
	loopPC := fi.emitTForLoop(line, a+2, 0)
	fi.patchAsBxTo(loopPC, bodyPC-loopPC-1)
}

// local attnamelist ['=' explist] — the expression list is evaluated
// into a run of temp registers, then usedRegs is rewound and addLocVar
// walks the same register numbers again to bind them as the new
// locals' homes, rather than handing the names a fresh range above the
// temps (which would leave a local's slot one past where its value
// actually landed).
func cgLocalVarDeclStat(fi *funcInfo, s *ast.LocalVarDeclStat) {
	exps := s.ExpList
	nExps := len(exps)
	nNames := len(s.NameList)

	oldRegs := fi.usedRegs
	if nExps == 0 {
		a := fi.allocRegs(nNames)
		fi.emitLoadNil(s.Line, a, nNames)
	} else {
		multRet := isVarargOrFuncCall(exps[nExps-1])
		a := fi.allocRegs(nExps)
		for i, e := range exps {
			if i == nExps-1 && multRet {
				cgExp(fi, e, a+i, nNames-nExps+1)
			} else {
				cgExp(fi, e, a+i, 1)
			}
		}
		if nNames > nExps {
			fi.allocRegs(nNames - nExps)
			fi.emitLoadNil(s.Line, a+nExps, nNames-nExps)
		}
	}
	startPC := fi.pc() + 1
	fi.usedRegs = oldRegs

	for i, name := range s.NameList {
		attrib := ""
		if i < len(s.Attribs) {
			attrib = s.Attribs[i]
		}
		fi.addLocVar(name, attrib, startPC)
	}
}

// local function Name funcbody — the name is declared (and its
// register allocated) before the body is compiled so the function can
// recurse by name.
func cgLocalFuncDefStat(fi *funcInfo, s *ast.LocalFuncDefStat) {
	r := fi.addLocVar(s.Name, "", fi.pc()+1)
	cgFuncDefExp(fi, s.Exp, r)
}

// varlist '=' explist
func cgAssignStat(fi *funcInfo, s *ast.AssignStat) {
	exps := s.ExpList
	nExps := len(exps)
	nVars := len(s.VarList)

	oldRegs := fi.usedRegs
	tmp := fi.allocRegs(nVars)
	if nExps == 0 {
		fi.emitLoadNil(s.Line, tmp, nVars)
	} else {
		multRet := isVarargOrFuncCall(exps[nExps-1])
		for i := 0; i < nExps; i++ {
			a := tmp + i
			if a >= tmp+nVars {
				a = fi.allocReg()
			}
			if i == nExps-1 && multRet && nExps < nVars {
				cgExp(fi, exps[i], a, nVars-nExps+1)
			} else {
				cgExp(fi, exps[i], a, 1)
			}
		}
		if nExps < nVars {
			fi.emitLoadNil(s.Line, tmp+nExps, nVars-nExps)
		}
	}

	for i, v := range s.VarList {
		assignTo(fi, v, tmp+i, s.Line)
	}
	fi.usedRegs = oldRegs
}

// assignTo stores the value already sitting in register src into the
// assignment target var (a NameExp or TableAccessExp, the only two
// valid l-values).
func assignTo(fi *funcInfo, v ast.Exp, src, line int) {
	switch t := v.(type) {
	case *ast.NameExp:
		if r := fi.slotOfLocVar(t.Name); r >= 0 {
			if fi.isConst(t.Name) {
				panic("attempt to assign to const variable '" + t.Name + "'")
			}
			fi.emitMove(line, r, src)
			return
		}
		if idx := fi.indexOfUpval(t.Name); idx >= 0 {
			fi.emitSetUpval(line, src, idx)
			return
		}
		fi.emitGlobalSet(line, src, t.Name)
	case *ast.TableAccessExp:
		oldRegs := fi.usedRegs
		b, kindB := expToOpArg(fi, t.PrefixExp, argRU)
		if s, ok := t.KeyExp.(*ast.StringExp); ok {
			if kindB == argUpval {
				fi.emitSetTabUp(line, b, s.Str, src)
			} else {
				fi.emitSetField(line, b, s.Str, src)
			}
		} else {
			// SETTABLE's B is a plain register, not an RK-style hybrid slot.
			c, _ := expToOpArg(fi, t.KeyExp, argReg)
			if kindB == argUpval {
				env := fi.allocReg()
				fi.emitGetUpval(line, env, b)
				fi.emitSetTable(line, env, c, src)
			} else {
				fi.emitSetTable(line, b, c, src)
			}
		}
		fi.usedRegs = oldRegs
	default:
		panic("codegen: invalid assignment target")
	}
}
