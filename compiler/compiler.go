// Package compiler orchestrates the full source-to-bytecode pipeline:
// lex, parse, generate, optimize. It is the Go-idiomatic, error-
// returning counterpart of the teacher's three-call Compile.
package compiler

import (
	"fmt"

	"github.com/lollipopkit/luacore/bytecode"
	"github.com/lollipopkit/luacore/codegen"
	"github.com/lollipopkit/luacore/optimizer"
	"github.com/lollipopkit/luacore/parser"
)

// Compile lexes, parses, generates, and optimizes chunk (named
// chunkName for error messages and debug info), returning the root
// prototype or the first parse error encountered.
func Compile(chunk, chunkName string, level optimizer.OptLevel) (*bytecode.Prototype, error) {
	block, errs := parser.Parse(chunk, chunkName)
	if len(errs) > 0 {
		return nil, fmt.Errorf("%s: %w", chunkName, errs[0])
	}

	proto, err := codegen.Generate(block, chunkName)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", chunkName, err)
	}

	optimizer.Optimize(proto, level)
	if err := bytecode.Validate(proto); err != nil {
		return nil, fmt.Errorf("%s: internal codegen error: %w", chunkName, err)
	}
	return proto, nil
}
