// Package state is the embedder-facing facade: it owns a thread's
// register-free call/return bookkeeping, the globals table, and the
// arithmetic/indexing/metamethod engine the vm package's opcode
// handlers call back into through the vm.Runtime interface. Grounded
// on the teacher's lkState (state/lua_state.go) and its api_call.go/
// api_arith.go, generalized from a single shared C-API-style value
// stack to Go slices passed explicitly between Call and vm.Exec.
package state

import (
	"github.com/lollipopkit/luacore/gc"
	"github.com/lollipopkit/luacore/lerrors"
	"github.com/lollipopkit/luacore/value"
	"github.com/lollipopkit/luacore/vm"
)

// maxCallDepth bounds recursive Thread.Call/vm.Exec nesting, standing
// in for the teacher's LUAI_MAXCCALLS stack-depth guard.
const maxCallDepth = 200

// Thread is one Lua thread of execution: the main thread returned by
// New, or one running inside a value.Coroutine. It implements
// vm.Runtime (consumed by the VM's instruction handlers) and
// value.CallContext (consumed by native stdlib functions via a
// per-call goCallContext).
type Thread struct {
	Globals *value.Table
	GC      *gc.Collector

	// StringMeta backs string-value method calls like ("x"):upper();
	// the stdlib string library installs it via SetStringMeta.
	StringMeta *value.Table

	chunkName   string
	currentLine int
	depth       int

	coroutine *value.Coroutine // nil on the main thread
}

// New creates a thread with a fresh globals table and reference-
// counting collector, matching the teacher's default lkState
// construction (state/state.go's NewState).
func New() *Thread {
	return &Thread{
		Globals: value.NewTable(0, 0),
		GC:      gc.NewCollector(gc.ReferenceCounting),
	}
}

// NewCoroutineThread builds the Thread a coroutine's body runs under,
// sharing the parent's globals/collector but tracking its own call
// depth and current line independently.
func (th *Thread) NewCoroutineThread(co *value.Coroutine) *Thread {
	return &Thread{
		Globals:    th.Globals,
		GC:         th.GC,
		StringMeta: th.StringMeta,
		chunkName:  th.chunkName,
		coroutine:  co,
	}
}

func (th *Thread) SetStringMeta(mt *value.Table) { th.StringMeta = mt }

func (th *Thread) ChunkName() string   { return th.chunkName }
func (th *Thread) CurrentLine() int    { return th.currentLine }
func (th *Thread) Coroutine() *value.Coroutine { return th.coroutine }

func (th *Thread) SetLine(line int) { th.currentLine = line }

// Errorf always panics with a located *lerrors.Error; every boundary
// that wants to turn a Lua-level error into a Go value (PCall, a
// coroutine's Start) recovers it back out.
func (th *Thread) Errorf(format string, args ...any) {
	panic(lerrors.New(lerrors.Runtime, lerrors.Location{Chunk: th.chunkName, Line: th.currentLine}, format, args...))
}

func (th *Thread) location() lerrors.Location {
	return lerrors.Location{Chunk: th.chunkName, Line: th.currentLine}
}

// NewTable implements vm.Runtime.
func (th *Thread) NewTable(narr, nrec int) *value.Table {
	t := value.NewTable(narr, nrec)
	th.GC.Track(t, nil)
	return t
}

// Call invokes fn — a Lua closure, a Go closure, or anything with a
// __call metamethod — with args, coercing the result list to exactly
// nResults values (nResults < 0 keeps every result). Recursion back
// into vm.Exec for a Lua closure is how nested Lua calls happen: this
// package never loops inside vm's dispatch itself.
func (th *Thread) Call(fn any, args []any, nResults int) []any {
	th.depth++
	if th.depth > maxCallDepth {
		th.depth--
		panic(lerrors.New(lerrors.StackOverflow, th.location(), "stack overflow"))
	}
	defer func() { th.depth-- }()

	cl, ok := fn.(*value.Closure)
	if !ok {
		if mm := th.metamethod(fn, "__call"); mm != nil {
			callArgs := make([]any, 0, len(args)+1)
			callArgs = append(callArgs, fn)
			callArgs = append(callArgs, args...)
			return th.Call(mm, callArgs, nResults)
		}
		th.Errorf("attempt to call a %s value", value.TypeName(fn))
	}

	var results []any
	if cl.IsGo() {
		ctx := &goCallContext{th: th, args: args}
		cl.Go(ctx)
		results = ctx.results
	} else {
		results = vm.Exec(th, cl, args)
	}

	if nResults < 0 {
		return results
	}
	out := make([]any, nResults)
	copy(out, results)
	return out
}

// PCall is the protected-call boundary: it recovers any panic raised
// below it (by Errorf, a native function's RaiseError, or an
// unexpected Go panic) into a returned *lerrors.Error instead of
// propagating it further, the same recover-based unwind as the
// teacher's PCall (state/api_call.go).
func (th *Thread) PCall(fn any, args []any, nResults int) (results []any, caught *lerrors.Error) {
	savedDepth := th.depth
	defer func() {
		if r := recover(); r != nil {
			th.depth = savedDepth
			if e, ok := r.(*lerrors.Error); ok {
				caught = e
			} else {
				caught = lerrors.New(lerrors.Runtime, th.location(), "%v", r)
			}
			results = nil
		}
	}()
	results = th.Call(fn, args, nResults)
	return results, nil
}

// goCallContext adapts one Thread.Call invocation of a native
// (Go-implemented) Lua function to the value.CallContext interface the
// function body sees, mirroring the teacher's lkState itself playing
// that role via its value stack.
type goCallContext struct {
	th      *Thread
	args    []any
	results []any
}

func (c *goCallContext) ArgCount() int { return len(c.args) }

func (c *goCallContext) Arg(i int) any {
	if i < 0 || i >= len(c.args) {
		return nil
	}
	return c.args[i]
}

func (c *goCallContext) PushResult(v any) { c.results = append(c.results, v) }

func (c *goCallContext) RaiseError(msg string) { c.th.Errorf("%s", msg) }

// Thread satisfies ContextThread: a native function that needs more
// than argument access (coroutine.yield, load, debug introspection)
// recovers its actual calling Thread this way rather than a fixed
// closure-captured one, since coroutines run distinct Threads sharing
// only the Globals/GC.
func (c *goCallContext) Thread() *Thread { return c.th }

// ContextThread is implemented by every value.CallContext this package
// hands to a GoFunction; stdlib functions that must identify which
// Thread is actually calling them (as opposed to the Thread captured
// when the library was installed) type-assert to this.
type ContextThread interface {
	Thread() *Thread
}
