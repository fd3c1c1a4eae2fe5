package codegen

import (
	"testing"

	"github.com/lollipopkit/luacore/bytecode"
	"github.com/lollipopkit/luacore/parser"
)

func mustGen(t *testing.T, src string) *bytecode.Prototype {
	t.Helper()
	block, errs := parser.Parse(src, "test")
	if len(errs) > 0 {
		t.Fatalf("unexpected parse errors for %q: %v", src, errs)
	}
	proto, err := Generate(block, "test")
	if err != nil {
		t.Fatalf("unexpected codegen error for %q: %v", src, err)
	}
	return proto
}

func opcodesOf(proto *bytecode.Prototype) []bytecode.Opcode {
	ops := make([]bytecode.Opcode, len(proto.Code))
	for i, inst := range proto.Code {
		ops[i] = inst.Opcode()
	}
	return ops
}

func containsOp(ops []bytecode.Opcode, op bytecode.Opcode) bool {
	for _, o := range ops {
		if o == op {
			return true
		}
	}
	return false
}

func TestGenerateLocalAssign(t *testing.T) {
	proto := mustGen(t, "local x = 1 + 2")
	ops := opcodesOf(proto)
	if !containsOp(ops, bytecode.OP_ADD) {
		t.Fatalf("expected ADD in %v", ops)
	}
	if !containsOp(ops, bytecode.OP_RETURN0) {
		t.Fatalf("expected implicit final RETURN0 in %v", ops)
	}
}

func TestGenerateWhileLoopExitsOnFalse(t *testing.T) {
	proto := mustGen(t, "local i = 0\nwhile i < 10 do i = i + 1 end")
	ops := opcodesOf(proto)
	if !containsOp(ops, bytecode.OP_LT) {
		t.Fatalf("expected LT comparison in %v", ops)
	}
	if !containsOp(ops, bytecode.OP_TEST) {
		t.Fatalf("expected TEST condition in %v", ops)
	}
	if !containsOp(ops, bytecode.OP_JMP) {
		t.Fatalf("expected JMP in %v", ops)
	}
}

func TestGenerateRepeatUntilTestFlag(t *testing.T) {
	proto := mustGen(t, "local i = 0\nrepeat i = i + 1 until i >= 10")
	var testK bool
	found := false
	for _, inst := range proto.Code {
		if inst.Opcode() == bytecode.OP_TEST {
			_, _, _, k := inst.ABC()
			testK = k
			found = true
		}
	}
	if !found {
		t.Fatalf("expected a TEST instruction in repeat/until codegen")
	}
	if testK {
		t.Fatalf("repeat/until TEST must use k=false so the loop exits when the condition becomes true")
	}
}

func TestGenerateNumericForRegisters(t *testing.T) {
	proto := mustGen(t, "for i = 1, 10 do end")
	ops := opcodesOf(proto)
	if !containsOp(ops, bytecode.OP_FORPREP) || !containsOp(ops, bytecode.OP_FORLOOP) {
		t.Fatalf("expected FORPREP/FORLOOP pair in %v", ops)
	}
}

func TestGenerateGenericFor(t *testing.T) {
	proto := mustGen(t, "for k, v in pairs(t) do end")
	ops := opcodesOf(proto)
	if !containsOp(ops, bytecode.OP_TFORCALL) || !containsOp(ops, bytecode.OP_TFORLOOP) {
		t.Fatalf("expected TFORCALL/TFORLOOP pair in %v", ops)
	}
}

func TestGenerateGotoForwardIntoSameBlock(t *testing.T) {
	proto := mustGen(t, "goto done\ndo end\n::done::")
	ops := opcodesOf(proto)
	if !containsOp(ops, bytecode.OP_JMP) {
		t.Fatalf("expected JMP for resolved goto in %v", ops)
	}
}

func TestGenerateUnknownGotoLabelErrors(t *testing.T) {
	block, errs := parser.Parse("goto nowhere", "test")
	if len(errs) > 0 {
		t.Fatalf("unexpected parse errors: %v", errs)
	}
	if _, err := Generate(block, "test"); err == nil {
		t.Fatalf("expected an error for an unresolved goto label")
	}
}

func TestGenerateClosureCapturesUpvalue(t *testing.T) {
	proto := mustGen(t, "local x = 1\nlocal function f() return x end")
	ops := opcodesOf(proto)
	if !containsOp(ops, bytecode.OP_CLOSURE) {
		t.Fatalf("expected CLOSURE in %v", ops)
	}
	if len(proto.Protos) != 1 {
		t.Fatalf("expected one nested prototype, got %d", len(proto.Protos))
	}
	inner := proto.Protos[0]
	if !containsOp(opcodesOf(inner), bytecode.OP_GETUPVAL) {
		t.Fatalf("expected inner function to read x via GETUPVAL, got %v", opcodesOf(inner))
	}
}

func TestGenerateConcatFlattensChain(t *testing.T) {
	proto := mustGen(t, `local s = "a" .. "b" .. "c"`)
	ops := opcodesOf(proto)
	n := 0
	for _, o := range ops {
		if o == bytecode.OP_CONCAT {
			n++
		}
	}
	if n != 1 {
		t.Fatalf("expected exactly one CONCAT for a flattened chain, got %d in %v", n, ops)
	}
}

func TestGenerateCloseAttribEmitsTBC(t *testing.T) {
	proto := mustGen(t, "do local x <close> = f() end")
	ops := opcodesOf(proto)
	if !containsOp(ops, bytecode.OP_TBC) {
		t.Fatalf("expected TBC for a <close> local in %v", ops)
	}
	if !containsOp(ops, bytecode.OP_CLOSE) {
		t.Fatalf("expected CLOSE at scope exit in %v", ops)
	}
}
