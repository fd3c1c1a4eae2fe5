package codegen

import (
	"fmt"

	"github.com/lollipopkit/luacore/ast"
	"github.com/lollipopkit/luacore/bytecode"
)

// Generate lowers a parsed chunk into a top-level bytecode.Prototype.
// The chunk is wrapped in an implicit vararg function whose only
// upvalue is _ENV, exactly like the reference compiler treats a whole
// source file as the body of `function(...) ... end`.
func Generate(block *ast.Block, source string) (proto *bytecode.Prototype, err error) {
	defer func() {
		if r := recover(); r != nil {
			if e, ok := r.(error); ok {
				err = e
			} else {
				err = fmt.Errorf("%v", r)
			}
		}
	}()

	fi := newFuncInfo(nil, 0, block.LastLine, 0, true)
	fi.upvalues["_ENV"] = upvalInfo{locVarSlot: -1, upvalIndex: 0, index: 0}

	cgBlock(fi, block)
	fi.closeAndExitScopeAtTop()
	fi.emitReturn(block.LastLine, 0, 0)

	if err := fi.resolveGotos(); err != nil {
		return nil, err
	}

	return toProto(fi, source), nil
}

// closeAndExitScopeAtTop closes any captured/<close> top-level locals
// before the implicit final return; there's no enclosing scope to pop
// at this level since the whole chunk is one function body.
func (fi *funcInfo) closeAndExitScopeAtTop() {
	a := fi.closeRegOfScope()
	fi.emitClose(fi.lastLine, a)
}
