package state

import (
	"fmt"
	"os"

	"github.com/lollipopkit/luacore/bytecode"
	"github.com/lollipopkit/luacore/compiler"
	"github.com/lollipopkit/luacore/optimizer"
	"github.com/lollipopkit/luacore/value"
)

// DefaultOptLevel is the optimization level Execute/ExecuteFile compile
// with; Standard runs folding, dead-code elimination, peephole and jump
// threading, leaving out the tail-call conversion and filler compaction
// Aggressive adds, matching how the teacher's lk CLI
// (main.go) always ran its one fixed optimization pipeline rather than
// exposing a flag for it.
const DefaultOptLevel = optimizer.Standard

// Execute compiles and runs a chunk of Lua source under this thread's
// globals, returning whatever values its top-level return produced.
// Grounded on the teacher's DoString/LoadString (state/api_load.go)
// collapsing compile+load+call into one embedder-facing entry point.
func (th *Thread) Execute(source, chunkName string) ([]any, error) {
	proto, err := compiler.Compile(source, chunkName, DefaultOptLevel)
	if err != nil {
		return nil, err
	}
	th.chunkName = chunkName
	cl := th.rootClosure(proto)
	results, caught := th.PCall(cl, nil, -1)
	if caught != nil {
		return nil, caught
	}
	return results, nil
}

// ExecuteFile reads path and executes it, using the file's base path
// as the chunk name reported in errors and tracebacks.
func (th *Thread) ExecuteFile(path string) ([]any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	return th.Execute(string(data), path)
}

// rootClosure wraps proto (the whole chunk, compiled as an implicit
// vararg function per codegen's Generate) as a callable closure and
// binds its sole upvalue — _ENV — directly to this thread's globals
// table. The chunk has no parent frame to inherit _ENV from the normal
// CLOSURE-opcode way, so the cell is built already closed.
func (th *Thread) rootClosure(proto *bytecode.Prototype) *value.Closure {
	cl := value.NewLuaClosure(proto)
	if len(cl.Upvals) > 0 {
		cl.Upvals[0] = value.NewClosedUpvalue(th.Globals)
	}
	return cl
}
