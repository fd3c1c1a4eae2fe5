// Package parser implements a recursive-descent, precedence-climbing
// parser for Lua 5.5 source, producing an *ast.Block.
package parser

import (
	"fmt"

	"github.com/lollipopkit/luacore/ast"
	"github.com/lollipopkit/luacore/lexer"
)

// SyntaxError describes one recovered parse error.
type SyntaxError struct {
	ChunkName string
	Line      int
	Msg       string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("%s:%d: %s", e.ChunkName, e.Line, e.Msg)
}

// parser holds lexer state plus the accumulated error list; unlike the
// lexer (which panics on malformed tokens), the parser recovers from a
// bad statement by skipping to the next statement boundary so that a
// single typo doesn't hide every other error in the file.
type parser struct {
	lexer     *lexer.Lexer
	chunkName string
	errs      []error
}

// Parse parses a chunk and returns its top-level block. A non-nil error
// list is returned alongside whatever partial tree could still be built,
// so callers can report every syntax error found, not just the first.
func Parse(chunk, chunkName string) (block *ast.Block, errs []error) {
	p := &parser{lexer: lexer.NewLexer(chunk, chunkName), chunkName: chunkName}
	defer func() {
		if r := recover(); r != nil {
			p.errs = append(p.errs, fmt.Errorf("%v", r))
			errs = p.errs
		}
	}()
	block = p.parseBlock()
	p.lexer.NextTokenOfKind(lexer.TOKEN_EOF)
	return block, p.errs
}

func (p *parser) recordErr(line int, format string, args ...any) {
	p.errs = append(p.errs, &SyntaxError{ChunkName: p.chunkName, Line: line, Msg: fmt.Sprintf(format, args...)})
}
