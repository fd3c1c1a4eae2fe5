package optimizer

import (
	"testing"

	"github.com/lollipopkit/luacore/bytecode"
	"github.com/lollipopkit/luacore/codegen"
	"github.com/lollipopkit/luacore/parser"
)

func mustGen(t *testing.T, src string) *bytecode.Prototype {
	t.Helper()
	block, errs := parser.Parse(src, "test")
	if len(errs) > 0 {
		t.Fatalf("unexpected parse errors for %q: %v", src, errs)
	}
	proto, err := codegen.Generate(block, "test")
	if err != nil {
		t.Fatalf("unexpected codegen error for %q: %v", src, err)
	}
	return proto
}

func countOp(p *bytecode.Prototype, op bytecode.Opcode) int {
	n := 0
	for _, inst := range p.Code {
		if inst.Opcode() == op {
			n++
		}
	}
	return n
}

func TestOptimizeNoneIsNoop(t *testing.T) {
	proto := mustGen(t, "local x = 1 + 2")
	before := append([]bytecode.Instruction{}, proto.Code...)
	Optimize(proto, None)
	if len(proto.Code) != len(before) {
		t.Fatalf("None level must not change instruction count")
	}
	for i := range before {
		if proto.Code[i] != before[i] {
			t.Fatalf("None level must not rewrite instruction %d", i)
		}
	}
}

func TestFoldConstantArithmetic(t *testing.T) {
	proto := mustGen(t, "local x = 1 + 2")
	stats := Optimize(proto, Basic)
	if stats.ConstantsFolded == 0 {
		t.Fatalf("expected at least one fold")
	}
	if countOp(proto, bytecode.OP_ADD) != 0 {
		t.Fatalf("ADD should have been folded away, got %s", bytecode.Disassemble(proto))
	}
}

func TestFoldPreservesResult(t *testing.T) {
	proto := mustGen(t, "local x = 3 * 4")
	Optimize(proto, Basic)
	found := false
	for _, inst := range proto.Code {
		switch inst.Opcode() {
		case bytecode.OP_LOADI:
			_, sbx := inst.AsBx()
			if sbx == 12 {
				found = true
			}
		case bytecode.OP_LOADK:
			_, bx := inst.ABx()
			if bx < len(proto.Constants) {
				if v, ok := proto.Constants[bx].(int64); ok && v == 12 {
					found = true
				}
			}
		}
	}
	if !found {
		t.Fatalf("expected folded constant 12 somewhere in %s", bytecode.Disassemble(proto))
	}
}

func TestDeadCodeAfterReturnIsKilled(t *testing.T) {
	proto := mustGen(t, "do return 1 end")
	if err := bytecode.Validate(proto); err != nil {
		t.Fatalf("pre-optimize validate: %v", err)
	}
	Optimize(proto, Standard)
	if err := bytecode.Validate(proto); err != nil {
		t.Fatalf("post-optimize validate: %v", err)
	}
}

func TestJumpThreadingCollapsesChain(t *testing.T) {
	proto := mustGen(t, "if a then b() end\nif c then d() end")
	stats := Optimize(proto, Standard)
	_ = stats
	if err := bytecode.Validate(proto); err != nil {
		t.Fatalf("post-optimize validate: %v", err)
	}
}

func TestAggressiveCompactsAwayFillers(t *testing.T) {
	proto := mustGen(t, "local x = 1 + 2\nlocal y = 3 * 4\nreturn x + y")
	Optimize(proto, Aggressive)
	for _, inst := range proto.Code {
		if isNopJmp(inst) {
			t.Fatalf("compact should have removed all filler jumps, found one in %s", bytecode.Disassemble(proto))
		}
	}
	if err := bytecode.Validate(proto); err != nil {
		t.Fatalf("post-compact validate: %v", err)
	}
}

func TestTailCallConversion(t *testing.T) {
	// codegen's own tail-call fast path only fires for a bare `return
	// f()`; a call stashed in a local and returned immediately is a
	// case the optimizer recovers.
	proto := mustGen(t, "local function f() local r = g() return r end")
	Optimize(proto, Aggressive)
	inner := proto.Protos[0]
	if countOp(inner, bytecode.OP_TAILCALL) == 0 {
		t.Fatalf("expected the call-then-return to become a TAILCALL, got %s", bytecode.Disassemble(inner))
	}
}

func TestOptimizeRecursesIntoNestedPrototypes(t *testing.T) {
	proto := mustGen(t, "local function f() return 1 + 2 end")
	Optimize(proto, Basic)
	if len(proto.Protos) != 1 {
		t.Fatalf("expected one nested prototype")
	}
	if countOp(proto.Protos[0], bytecode.OP_ADD) != 0 {
		t.Fatalf("nested prototype's ADD should have been folded too")
	}
}
