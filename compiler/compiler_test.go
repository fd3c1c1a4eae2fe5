package compiler

import (
	"testing"

	"github.com/lollipopkit/luacore/bytecode"
	"github.com/lollipopkit/luacore/optimizer"
)

func TestCompileSimpleChunk(t *testing.T) {
	proto, err := Compile("local x = 1 + 2\nreturn x", "test", optimizer.Aggressive)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if proto.Source != "test" {
		t.Fatalf("want source %q, got %q", "test", proto.Source)
	}
	if err := bytecode.Validate(proto); err != nil {
		t.Fatalf("optimized prototype failed validation: %v", err)
	}
}

func TestCompileSourcePropagatesToNestedProtos(t *testing.T) {
	proto, err := Compile("local function f() return 1 end", "chunk.lua", optimizer.None)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(proto.Protos) != 1 || proto.Protos[0].Source != "chunk.lua" {
		t.Fatalf("expected nested prototype to inherit the chunk name")
	}
}

func TestCompileReportsParseErrors(t *testing.T) {
	if _, err := Compile("local x = ", "broken", optimizer.None); err == nil {
		t.Fatalf("expected a parse error")
	}
}

func TestCompileReportsUnresolvedGoto(t *testing.T) {
	if _, err := Compile("goto nowhere", "broken", optimizer.None); err == nil {
		t.Fatalf("expected a codegen error for an unresolved goto")
	}
}
