package lerrors

import (
	"errors"
	"testing"
)

func TestErrorFormatsLocation(t *testing.T) {
	e := New(Runtime, Location{Chunk: "main.lua", Line: 12}, "attempt to call a nil value")
	want := "main.lua:12: attempt to call a nil value"
	if e.Error() != want {
		t.Fatalf("got %q, want %q", e.Error(), want)
	}
}

func TestErrorWithoutLocation(t *testing.T) {
	e := New(Memory, Location{}, "not enough memory")
	if e.Error() != "not enough memory" {
		t.Fatalf("got %q", e.Error())
	}
}

func TestArgErrorMessage(t *testing.T) {
	e := ArgError(Location{Chunk: "stdin", Line: 1}, "insert", 2, "number expected, got string")
	want := "stdin:1: bad argument #2 to 'insert' (number expected, got string)"
	if e.Error() != want {
		t.Fatalf("got %q, want %q", e.Error(), want)
	}
}

func TestWrapUnwraps(t *testing.T) {
	cause := errors.New("disk full")
	e := Wrap(IO, Location{Chunk: "io"}, cause)
	if !errors.Is(e, cause) {
		t.Fatalf("expected Wrap to preserve the cause via Unwrap")
	}
}

func TestWithStackAppendsFrames(t *testing.T) {
	e := New(Runtime, Location{Chunk: "m", Line: 3}, "boom")
	withStack := e.WithStack([]Frame{
		{FuncName: "inner", Location: Location{Chunk: "m", Line: 3}},
		{FuncName: "outer", Location: Location{Chunk: "m", Line: 10}},
	})
	if len(e.Stack) != 0 {
		t.Fatalf("WithStack must not mutate the receiver")
	}
	if len(withStack.Stack) != 2 {
		t.Fatalf("expected 2 frames, got %d", len(withStack.Stack))
	}
}
