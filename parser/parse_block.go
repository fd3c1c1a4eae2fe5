package parser

import (
	"github.com/lollipopkit/luacore/ast"
	. "github.com/lollipopkit/luacore/lexer"
)

// block ::= {stat} [retstat]
func (p *parser) parseBlock() *ast.Block {
	block := &ast.Block{Stats: p.parseStats()}
	block.RetExps, block.RetLine = p.parseRetExps()
	block.LastLine = p.lexer.Line()
	return block
}

func (p *parser) parseStats() []ast.Stat {
	stats := make([]ast.Stat, 0, 8)
	for !isBlockFollow(p.lexer.LookAhead()) {
		if p.lexer.LookAhead() == TOKEN_KW_RETURN {
			break
		}
		stat := p.parseStat()
		if _, ok := stat.(*ast.EmptyStat); !ok {
			stats = append(stats, stat)
		}
	}
	return stats
}

// isBlockFollow reports whether tokenKind can follow (i.e. ends) a block.
func isBlockFollow(tokenKind int) bool {
	switch tokenKind {
	case TOKEN_EOF, TOKEN_KW_END, TOKEN_KW_ELSE, TOKEN_KW_ELSEIF, TOKEN_KW_UNTIL:
		return true
	}
	return false
}

// retstat ::= return [explist] [';']
func (p *parser) parseRetExps() ([]ast.Exp, int) {
	if p.lexer.LookAhead() != TOKEN_KW_RETURN {
		return nil, 0
	}

	line, _, _ := p.lexer.NextToken()
	switch p.lexer.LookAhead() {
	case TOKEN_EOF, TOKEN_KW_END, TOKEN_KW_ELSE, TOKEN_KW_ELSEIF, TOKEN_KW_UNTIL:
		return []ast.Exp{}, line
	case TOKEN_SEP_SEMI:
		p.lexer.NextToken()
		return []ast.Exp{}, line
	default:
		exps := p.parseExpList()
		if p.lexer.LookAhead() == TOKEN_SEP_SEMI {
			p.lexer.NextToken()
		}
		return exps, line
	}
}
