package state

import (
	"testing"

	"github.com/lollipopkit/luacore/value"
	"github.com/lollipopkit/luacore/vm"
)

func TestIndexChainsThroughIndexTable(t *testing.T) {
	th := New()
	base := value.NewTable(0, 1)
	base.Set("greet", "hi")
	mt := value.NewTable(0, 1)
	mt.Set("__index", base)
	derived := value.NewTable(0, 0)
	derived.Metatable = mt

	if got := th.Index(derived, "greet"); got != "hi" {
		t.Fatalf("want %q, got %v", "hi", got)
	}
}

func TestIndexChainsThroughIndexFunction(t *testing.T) {
	th := New()
	called := false
	fn := value.NewGoClosure("index", func(c value.CallContext) int {
		called = true
		c.PushResult("computed")
		return 1
	})
	mt := value.NewTable(0, 1)
	mt.Set("__index", fn)
	t1 := value.NewTable(0, 0)
	t1.Metatable = mt

	if got := th.Index(t1, "anything"); got != "computed" || !called {
		t.Fatalf("want %q (called=%v), got %v", "computed", called, got)
	}
}

func TestNewIndexChainsThroughNewIndexFunction(t *testing.T) {
	th := New()
	var gotKey, gotVal any
	fn := value.NewGoClosure("newindex", func(c value.CallContext) int {
		gotKey = c.Arg(1)
		gotVal = c.Arg(2)
		return 0
	})
	mt := value.NewTable(0, 1)
	mt.Set("__newindex", fn)
	t1 := value.NewTable(0, 0)
	t1.Metatable = mt

	th.NewIndex(t1, "k", "v")
	if gotKey != "k" || gotVal != "v" {
		t.Fatalf("want k=v, got %v=%v", gotKey, gotVal)
	}
	if t1.Get("k") != nil {
		t.Fatalf("__newindex should have suppressed the raw set")
	}
}

func TestEqualsUsesEqOnlyForTablePairs(t *testing.T) {
	th := New()
	mt := value.NewTable(0, 1)
	mt.Set("__eq", value.NewGoClosure("eq", func(c value.CallContext) int {
		c.PushResult(true)
		return 1
	}))
	a := value.NewTable(0, 0)
	a.Metatable = mt
	b := value.NewTable(0, 0)

	if !th.Equals(a, b) {
		t.Fatalf("want __eq to force equality for distinct tables")
	}
	if th.Equals(int64(1), "1") {
		t.Fatalf("values of different primitive types must never be __eq-equal")
	}
}

func TestLessFallsBackToLtMetamethod(t *testing.T) {
	th := New()
	mt := value.NewTable(0, 1)
	mt.Set("__lt", value.NewGoClosure("lt", func(c value.CallContext) int {
		c.PushResult(true)
		return 1
	}))
	a := value.NewTable(0, 0)
	a.Metatable = mt
	b := value.NewTable(0, 0)

	if !th.Less(a, b) {
		t.Fatalf("want __lt metamethod result")
	}
}

func TestLenPrefersRawStringLength(t *testing.T) {
	th := New()
	if got := th.Len("hello"); got != int64(5) {
		t.Fatalf("want 5, got %v", got)
	}
}

func TestConcatFoldsRightToLeft(t *testing.T) {
	th := New()
	got := th.Concat([]any{"a", int64(1), "b"})
	if got != "a1b" {
		t.Fatalf("want %q, got %v", "a1b", got)
	}
}

func TestArithAddIntegerAndFloat(t *testing.T) {
	th := New()
	if got := th.Arith(vm.OpAdd, int64(2), int64(3)); got != int64(5) {
		t.Fatalf("want 5, got %v", got)
	}
	if got := th.Arith(vm.OpAdd, 2.5, int64(1)); got != 3.5 {
		t.Fatalf("want 3.5, got %v", got)
	}
}

func TestArithUnaryMinusIgnoresSecondOperand(t *testing.T) {
	th := New()
	if got := th.Arith(vm.OpUnm, int64(7), nil); got != int64(-7) {
		t.Fatalf("want -7, got %v", got)
	}
}

func TestArithBitwiseRejectsNonIntegerFloat(t *testing.T) {
	th := New()
	defer func() {
		if recover() == nil {
			t.Fatalf("want a panic for a non-integral float operand to a bitwise op")
		}
	}()
	th.Arith(vm.OpBAnd, 1.5, int64(2))
}
