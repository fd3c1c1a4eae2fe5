package value

import "github.com/lollipopkit/luacore/bytecode"

// GoFunction is the signature every native (Go-implemented) Lua function
// must satisfy: it receives a calling convention handle and returns the
// number of results it pushed (or panics with an *lerrors.Error-wrapped
// value to raise a Lua error, mirroring how Lua closures propagate
// errors).
type GoFunction func(c CallContext) int

// CallContext is the minimal surface a GoFunction needs from its caller;
// it is implemented by state.Thread, kept as an interface here so the
// value package doesn't import state (which imports value).
type CallContext interface {
	ArgCount() int
	Arg(i int) any
	PushResult(v any)
	RaiseError(msg string)
}

// Closure is a callable Lua value: either a Lua-coded function (Proto
// non-nil) or a native Go function (Go non-nil). Exactly one is set.
type Closure struct {
	Proto    *bytecode.Prototype
	Upvals   []*Upvalue
	Go       GoFunction
	GoName   string // for tracebacks/debug.getinfo on library functions
}

func NewLuaClosure(proto *bytecode.Prototype) *Closure {
	c := &Closure{Proto: proto}
	c.Upvals = make([]*Upvalue, len(proto.Upvalues))
	return c
}

func NewGoClosure(name string, fn GoFunction) *Closure {
	return &Closure{Go: fn, GoName: name}
}

func (c *Closure) IsGo() bool { return c.Go != nil }
