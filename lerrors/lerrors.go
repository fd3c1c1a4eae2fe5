// Package lerrors defines the structured error type the interpreter
// raises at every boundary: compile-time diagnostics, runtime panics
// recovered at a protected call, and argument/type-checking helpers
// for native functions. It generalizes the teacher's Error2/ArgError/
// tagError/typeError family (state/auxlib.go), which all ultimately
// just formatted a string and pushed it as the Lua error value, into
// a typed error carrying a Kind, source Location, and call-stack Frames.
package lerrors

import (
	"fmt"
	"strings"
)

// Kind classifies why an Error occurred, mirroring the situations the
// teacher's auxlib helpers distinguished only by message text.
type Kind int

const (
	Syntax Kind = iota
	Type
	Runtime
	Memory
	Argument
	StackOverflow
	Coroutine
	IO
)

func (k Kind) String() string {
	switch k {
	case Syntax:
		return "syntax error"
	case Type:
		return "type error"
	case Runtime:
		return "runtime error"
	case Memory:
		return "memory error"
	case Argument:
		return "argument error"
	case StackOverflow:
		return "stack overflow"
	case Coroutine:
		return "coroutine error"
	case IO:
		return "io error"
	default:
		return "error"
	}
}

// Location pinpoints where an Error was raised: the source chunk name
// and line, as tracked through codegen's per-instruction line table.
type Location struct {
	Chunk string
	Line  int
}

func (l Location) String() string {
	if l.Chunk == "" {
		return ""
	}
	if l.Line <= 0 {
		return l.Chunk
	}
	return fmt.Sprintf("%s:%d", l.Chunk, l.Line)
}

// Frame is one entry of a captured call stack, innermost first.
type Frame struct {
	FuncName string
	Location Location
}

// Error is what every lerrors-aware boundary returns or recovers into:
// compiler passes as a plain Go error, the VM's protected-call boundary
// by converting a recovered panic, native function argument checks by
// constructing one directly.
type Error struct {
	Kind     Kind
	Message  string
	Location Location
	Stack    []Frame
	Cause    error
}

func New(kind Kind, location Location, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...), Location: location}
}

// Wrap attaches a Kind/Location to an arbitrary error raised below the
// lerrors boundary (e.g. a stdlib call returning a plain Go error).
func Wrap(kind Kind, location Location, cause error) *Error {
	return &Error{Kind: kind, Message: cause.Error(), Location: location, Cause: cause}
}

func (e *Error) Error() string {
	var b strings.Builder
	if loc := e.Location.String(); loc != "" {
		b.WriteString(loc)
		b.WriteString(": ")
	}
	b.WriteString(e.Message)
	for _, f := range e.Stack {
		b.WriteString("\n\t")
		if f.FuncName != "" {
			b.WriteString("in " + f.FuncName + " ")
		}
		b.WriteString(f.Location.String())
	}
	return b.String()
}

func (e *Error) Unwrap() error { return e.Cause }

// WithStack returns a copy of e carrying the given frames, innermost
// first — used at a protected-call boundary unwinding a panic.
func (e *Error) WithStack(frames []Frame) *Error {
	cp := *e
	cp.Stack = frames
	return &cp
}

// ArgError formats the "bad argument #N to 'fn' (extra)" message the
// teacher's ArgError produced, now typed as Argument.
func ArgError(loc Location, fn string, arg int, extraMsg string) *Error {
	return New(Argument, loc, "bad argument #%d to '%s' (%s)", arg, fn, extraMsg)
}

// TypeError reports a value of the wrong Lua type reaching a context
// that expected wantType — the typed equivalent of the teacher's
// tagError/typeError pair.
func TypeError(loc Location, arg int, wantType, gotType string) *Error {
	return New(Type, loc, "bad argument #%d (%s expected, got %s)", arg, wantType, gotType)
}
