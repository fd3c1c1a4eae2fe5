package optimizer

import "github.com/lollipopkit/luacore/bytecode"

// convertTailCalls rewrites a CALL immediately followed by a RETURN of
// exactly that call's results into TAILCALL+RETURN, for call sites the
// code generator didn't already recognize as being in tail position
// (e.g. `local r = g() return r`, where the RETURN hands back the call's
// own result register). The RETURN is kept —
// real Lua bytecode always follows a TAILCALL with one, since it still
// carries the result count/registers for the (now reused) frame.
func convertTailCalls(p *bytecode.Prototype) int {
	n := 0
	code := p.Code
	for pc := 0; pc+1 < len(code); pc++ {
		call := code[pc]
		if call.Opcode() != bytecode.OP_CALL {
			continue
		}
		a, b, c, _ := call.ABC()
		ret := code[pc+1]
		switch ret.Opcode() {
		case bytecode.OP_RETURN:
			a2, b2, _, _ := ret.ABC()
			if a2 == a && b2 == c {
				code[pc] = bytecode.Encode(bytecode.OP_TAILCALL, a, b, 0, false)
				n++
			}
		case bytecode.OP_RETURN1:
			a2, _, _, _ := ret.ABC()
			if a2 == a && c == 2 {
				code[pc] = bytecode.Encode(bytecode.OP_TAILCALL, a, b, 0, false)
				n++
			}
		}
	}
	return n
}
