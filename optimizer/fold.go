package optimizer

import "github.com/lollipopkit/luacore/bytecode"

// foldConstants scans for arithmetic/bitwise/unary ops whose operands
// were just loaded from constants in the immediately preceding
// instructions, and replaces the whole window with a single LOADK (or
// LOADI for small ints) of the precomputed result plus nopJmp filler —
// mirroring the teacher's optimizeArithBinaryOp/optimizeBitwiseBinaryOp/
// optimizeUnaryOp, just applied to instructions instead of AST nodes.
func foldConstants(p *bytecode.Prototype) int {
	n := 0
	code := p.Code
	for pc := 0; pc < len(code); pc++ {
		inst := code[pc]
		op := inst.Opcode()

		if isUnaryFoldable(op) && pc >= 1 {
			a, b, _, _ := inst.ABC()
			if registerOf(code[pc-1]) == b {
				if v, ok := constOf(p, code[pc-1]); ok {
					if folded, ok := foldUnary(op, v); ok {
						code[pc-1] = nopJmp()
						code[pc] = loadConst(p, a, folded)
						n++
						continue
					}
				}
			}
		}

		if isBinaryFoldable(op) && pc >= 2 {
			lv, lok := constOf(p, code[pc-2])
			rv, rok := constOf(p, code[pc-1])
			if lok && rok {
				a, b, c, _ := inst.ABC()
				if registerOf(code[pc-2]) == b && registerOf(code[pc-1]) == c {
					if folded, ok := foldBinary(op, lv, rv); ok {
						code[pc-2] = nopJmp()
						code[pc-1] = nopJmp()
						code[pc] = loadConst(p, a, folded)
						n++
					}
				}
			}
		}
	}
	return n
}

func registerOf(inst bytecode.Instruction) int {
	a, _, _, _ := inst.ABC()
	return a
}

func isUnaryFoldable(op bytecode.Opcode) bool {
	switch op {
	case bytecode.OP_UNM, bytecode.OP_NOT, bytecode.OP_BNOT:
		return true
	}
	return false
}

func isBinaryFoldable(op bytecode.Opcode) bool {
	switch op {
	case bytecode.OP_ADD, bytecode.OP_SUB, bytecode.OP_MUL, bytecode.OP_DIV,
		bytecode.OP_BAND, bytecode.OP_BOR, bytecode.OP_BXOR, bytecode.OP_SHL, bytecode.OP_SHR:
		return true
	}
	return false
}

// constOf reports the compile-time value an instruction loads, if it
// is one of the constant-producing load opcodes.
func constOf(p *bytecode.Prototype, inst bytecode.Instruction) (any, bool) {
	switch inst.Opcode() {
	case bytecode.OP_LOADK:
		_, bx := inst.ABx()
		if bx < 0 || bx >= len(p.Constants) {
			return nil, false
		}
		return p.Constants[bx], true
	case bytecode.OP_LOADI:
		_, sbx := inst.AsBx()
		return int64(sbx), true
	case bytecode.OP_LOADF:
		_, sbx := inst.AsBx()
		return float64(sbx), true
	case bytecode.OP_LOADTRUE:
		return true, true
	case bytecode.OP_LOADFALSE, bytecode.OP_LFALSESKIP:
		return false, true
	case bytecode.OP_LOADNIL:
		_, b, _, _ := inst.ABC()
		if b == 0 {
			return nil, true
		}
		return nil, false // multi-register LOADNIL: not a single scalar constant
	}
	return nil, false
}

func foldUnary(op bytecode.Opcode, v any) (any, bool) {
	switch op {
	case bytecode.OP_NOT:
		return isFalsy(v), true
	case bytecode.OP_UNM:
		switch n := v.(type) {
		case int64:
			return -n, true
		case float64:
			return -n, true
		}
	case bytecode.OP_BNOT:
		if i, ok := toInt(v); ok {
			return ^i, true
		}
	}
	return nil, false
}

func foldBinary(op bytecode.Opcode, l, r any) (any, bool) {
	switch op {
	case bytecode.OP_ADD, bytecode.OP_SUB, bytecode.OP_MUL, bytecode.OP_DIV:
		li, liok := l.(int64)
		ri, riok := r.(int64)
		if liok && riok && op != bytecode.OP_DIV {
			switch op {
			case bytecode.OP_ADD:
				return li + ri, true
			case bytecode.OP_SUB:
				return li - ri, true
			case bytecode.OP_MUL:
				return li * ri, true
			}
		}
		lf, lfok := toFloat(l)
		rf, rfok := toFloat(r)
		if !lfok || !rfok {
			return nil, false
		}
		switch op {
		case bytecode.OP_ADD:
			return lf + rf, true
		case bytecode.OP_SUB:
			return lf - rf, true
		case bytecode.OP_MUL:
			return lf * rf, true
		case bytecode.OP_DIV:
			return lf / rf, true
		}
	case bytecode.OP_BAND, bytecode.OP_BOR, bytecode.OP_BXOR, bytecode.OP_SHL, bytecode.OP_SHR:
		li, liok := toInt(l)
		ri, riok := toInt(r)
		if !liok || !riok {
			return nil, false
		}
		switch op {
		case bytecode.OP_BAND:
			return li & ri, true
		case bytecode.OP_BOR:
			return li | ri, true
		case bytecode.OP_BXOR:
			return li ^ ri, true
		case bytecode.OP_SHL:
			return shiftLeft(li, ri), true
		case bytecode.OP_SHR:
			return shiftLeft(li, -ri), true
		}
	}
	return nil, false
}

func shiftLeft(i, n int64) int64 {
	if n <= -64 || n >= 64 {
		return 0
	}
	if n >= 0 {
		return int64(uint64(i) << uint(n))
	}
	return int64(uint64(i) >> uint(-n))
}

func isFalsy(v any) bool {
	if v == nil {
		return true
	}
	if b, ok := v.(bool); ok {
		return !b
	}
	return false
}

func toInt(v any) (int64, bool) {
	switch n := v.(type) {
	case int64:
		return n, true
	case float64:
		if n == float64(int64(n)) {
			return int64(n), true
		}
	}
	return 0, false
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int64:
		return float64(n), true
	case float64:
		return n, true
	}
	return 0, false
}

// loadConst emits whichever load form fits the folded value most
// compactly: LOADI for small in-range integers (no constant-pool
// entry needed), LOADK via a new/reused constant-pool slot otherwise.
func loadConst(p *bytecode.Prototype, a int, v any) bytecode.Instruction {
	if i, ok := v.(int64); ok && i > -(1<<16) && i < (1<<16) {
		return bytecode.EncodeAsBx(bytecode.OP_LOADI, a, int(i))
	}
	return bytecode.EncodeABx(bytecode.OP_LOADK, a, addConstant(p, v))
}

func addConstant(p *bytecode.Prototype, v any) int {
	for i, k := range p.Constants {
		if k == v {
			return i
		}
	}
	p.Constants = append(p.Constants, v)
	return len(p.Constants) - 1
}
