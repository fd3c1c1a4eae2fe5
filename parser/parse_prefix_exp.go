package parser

import (
	"github.com/lollipopkit/luacore/ast"
	. "github.com/lollipopkit/luacore/lexer"
)

// prefixexp ::= var | functioncall | '(' exp ')'
// var ::=  Name | prefixexp '[' exp ']' | prefixexp '.' Name
// functioncall ::=  prefixexp args | prefixexp ':' Name args
func (p *parser) parsePrefixExp() ast.Exp {
	var exp ast.Exp
	if p.lexer.LookAhead() == TOKEN_IDENTIFIER {
		line, name := p.lexer.NextIdentifier()
		exp = &ast.NameExp{Line: line, Name: name}
	} else {
		exp = p.parseParensExp()
	}
	return p.finishPrefixExp(exp)
}

func (p *parser) parseParensExp() ast.Exp {
	line := p.lexer.Line()
	p.lexer.NextTokenOfKind(TOKEN_SEP_LPAREN)
	exp := p.parseExp()
	p.lexer.NextTokenOfKind(TOKEN_SEP_RPAREN)

	switch exp.(type) {
	case *ast.VarargExp, *ast.FuncCallExp, *ast.NameExp, *ast.TableAccessExp:
		// parens truncate a multi-value expression to one result; keep
		// the marker node so codegen knows to do that.
		return &ast.ParensExp{Line: line, Exp: exp}
	}
	return exp
}

func (p *parser) finishPrefixExp(exp ast.Exp) ast.Exp {
	for {
		switch p.lexer.LookAhead() {
		case TOKEN_SEP_LBRACK:
			p.lexer.NextToken()
			keyExp := p.parseExp()
			lastLine, _ := p.lexer.NextTokenOfKind(TOKEN_SEP_RBRACK)
			exp = &ast.TableAccessExp{Line: lastLine, LastLine: lastLine, PrefixExp: exp, KeyExp: keyExp}
		case TOKEN_SEP_DOT:
			p.lexer.NextToken()
			line, name := p.lexer.NextIdentifier()
			keyExp := &ast.StringExp{Line: line, Str: name}
			exp = &ast.TableAccessExp{Line: line, LastLine: line, PrefixExp: exp, KeyExp: keyExp}
		case TOKEN_SEP_LPAREN, TOKEN_STRING, TOKEN_SEP_COLON, TOKEN_SEP_LCURLY:
			exp = p.finishFuncCallExp(exp)
		default:
			return exp
		}
	}
}

// functioncall ::=  prefixexp args | prefixexp ':' Name args
func (p *parser) finishFuncCallExp(prefixExp ast.Exp) *ast.FuncCallExp {
	nameExp := p.parseMethodName()
	line := p.lexer.Line()
	args := p.parseArgs()
	lastLine := p.lexer.Line()
	return &ast.FuncCallExp{Line: line, LastLine: lastLine, PrefixExp: prefixExp, NameExp: nameExp, Args: args}
}

func (p *parser) parseMethodName() *ast.StringExp {
	if p.lexer.LookAhead() == TOKEN_SEP_COLON {
		p.lexer.NextToken()
		line, name := p.lexer.NextIdentifier()
		return &ast.StringExp{Line: line, Str: name}
	}
	return nil
}

// args ::=  '(' [explist] ')' | tableconstructor | LiteralString
func (p *parser) parseArgs() (args []ast.Exp) {
	switch p.lexer.LookAhead() {
	case TOKEN_SEP_LPAREN:
		p.lexer.NextToken()
		if p.lexer.LookAhead() != TOKEN_SEP_RPAREN {
			args = p.parseExpList()
		}
		p.lexer.NextTokenOfKind(TOKEN_SEP_RPAREN)
	case TOKEN_SEP_LCURLY:
		args = []ast.Exp{p.parseTableConstructorExp()}
	default:
		line, str := p.lexer.NextTokenOfKind(TOKEN_STRING)
		args = []ast.Exp{&ast.StringExp{Line: line, Str: str}}
	}
	return
}
