package parser

import (
	"github.com/lollipopkit/luacore/ast"
	. "github.com/lollipopkit/luacore/lexer"
)

// explist ::= exp {',' exp}
func (p *parser) parseExpList() []ast.Exp {
	exps := make([]ast.Exp, 0, 4)
	exps = append(exps, p.parseExp())
	for p.lexer.LookAhead() == TOKEN_SEP_COMMA {
		p.lexer.NextToken()
		exps = append(exps, p.parseExp())
	}
	return exps
}

/*
Lua's operator precedence, lowest to highest:
	or
	and
	<     >     <=    >=    ~=    ==
	|
	~
	&
	<<    >>
	..                                  (right associative)
	+     -
	*     /     //    %
	unary operators (not   #     -     ~)
	^                                   (right associative)
*/
func (p *parser) parseExp() ast.Exp { return p.parseOrExp() }

func (p *parser) parseOrExp() ast.Exp {
	exp := p.parseAndExp()
	for p.lexer.LookAhead() == TOKEN_OP_OR {
		line, op, _ := p.lexer.NextToken()
		exp = &ast.BinopExp{Line: line, Op: op, Left: exp, Right: p.parseAndExp()}
	}
	return exp
}

func (p *parser) parseAndExp() ast.Exp {
	exp := p.parseCompareExp()
	for p.lexer.LookAhead() == TOKEN_OP_AND {
		line, op, _ := p.lexer.NextToken()
		exp = &ast.BinopExp{Line: line, Op: op, Left: exp, Right: p.parseCompareExp()}
	}
	return exp
}

func (p *parser) parseCompareExp() ast.Exp {
	exp := p.parseBorExp()
	for {
		switch p.lexer.LookAhead() {
		case TOKEN_OP_LT, TOKEN_OP_GT, TOKEN_OP_NE, TOKEN_OP_LE, TOKEN_OP_GE, TOKEN_OP_EQ:
			line, op, _ := p.lexer.NextToken()
			exp = &ast.BinopExp{Line: line, Op: op, Left: exp, Right: p.parseBorExp()}
		default:
			return exp
		}
	}
}

func (p *parser) parseBorExp() ast.Exp {
	exp := p.parseBxorExp()
	for p.lexer.LookAhead() == TOKEN_OP_BOR {
		line, op, _ := p.lexer.NextToken()
		exp = &ast.BinopExp{Line: line, Op: op, Left: exp, Right: p.parseBxorExp()}
	}
	return exp
}

func (p *parser) parseBxorExp() ast.Exp {
	exp := p.parseBandExp()
	for p.lexer.LookAhead() == TOKEN_OP_BXOR {
		line, op, _ := p.lexer.NextToken()
		exp = &ast.BinopExp{Line: line, Op: op, Left: exp, Right: p.parseBandExp()}
	}
	return exp
}

func (p *parser) parseBandExp() ast.Exp {
	exp := p.parseShiftExp()
	for p.lexer.LookAhead() == TOKEN_OP_BAND {
		line, op, _ := p.lexer.NextToken()
		exp = &ast.BinopExp{Line: line, Op: op, Left: exp, Right: p.parseShiftExp()}
	}
	return exp
}

func (p *parser) parseShiftExp() ast.Exp {
	exp := p.parseConcatExp()
	for {
		switch p.lexer.LookAhead() {
		case TOKEN_OP_SHL, TOKEN_OP_SHR:
			line, op, _ := p.lexer.NextToken()
			exp = &ast.BinopExp{Line: line, Op: op, Left: exp, Right: p.parseConcatExp()}
		default:
			return exp
		}
	}
}

// '..' is right associative and binds looser than '+'/'-'.
func (p *parser) parseConcatExp() ast.Exp {
	exp := p.parseAddExp()
	if p.lexer.LookAhead() == TOKEN_SEP_DOTDOT {
		line, op, _ := p.lexer.NextToken()
		exp = &ast.BinopExp{Line: line, Op: op, Left: exp, Right: p.parseConcatExp()}
	}
	return exp
}

func (p *parser) parseAddExp() ast.Exp {
	exp := p.parseMulExp()
	for {
		switch p.lexer.LookAhead() {
		case TOKEN_OP_ADD, TOKEN_OP_SUB:
			line, op, _ := p.lexer.NextToken()
			exp = &ast.BinopExp{Line: line, Op: op, Left: exp, Right: p.parseMulExp()}
		default:
			return exp
		}
	}
}

func (p *parser) parseMulExp() ast.Exp {
	exp := p.parseUnaryExp()
	for {
		switch p.lexer.LookAhead() {
		case TOKEN_OP_MUL, TOKEN_OP_MOD, TOKEN_OP_DIV, TOKEN_OP_IDIV:
			line, op, _ := p.lexer.NextToken()
			exp = &ast.BinopExp{Line: line, Op: op, Left: exp, Right: p.parseUnaryExp()}
		default:
			return exp
		}
	}
}

func (p *parser) parseUnaryExp() ast.Exp {
	switch p.lexer.LookAhead() {
	case TOKEN_OP_UNM, TOKEN_OP_BNOT, TOKEN_OP_LEN, TOKEN_OP_NOT:
		line, op, _ := p.lexer.NextToken()
		return &ast.UnopExp{Line: line, Op: op, Exp: p.parseUnaryExp()}
	}
	return p.parsePowExp()
}

// '^' is right associative and binds tighter than unary operators, e.g.
// -2^2 == -4.
func (p *parser) parsePowExp() ast.Exp {
	exp := p.parseExp0()
	if p.lexer.LookAhead() == TOKEN_OP_POW {
		line, op, _ := p.lexer.NextToken()
		exp = &ast.BinopExp{Line: line, Op: op, Left: exp, Right: p.parseUnaryExp()}
	}
	return exp
}

func (p *parser) parseExp0() ast.Exp {
	switch p.lexer.LookAhead() {
	case TOKEN_VARARG:
		line, _, _ := p.lexer.NextToken()
		return &ast.VarargExp{Line: line}
	case TOKEN_KW_NIL:
		line, _, _ := p.lexer.NextToken()
		return &ast.NilExp{Line: line}
	case TOKEN_KW_TRUE:
		line, _, _ := p.lexer.NextToken()
		return &ast.TrueExp{Line: line}
	case TOKEN_KW_FALSE:
		line, _, _ := p.lexer.NextToken()
		return &ast.FalseExp{Line: line}
	case TOKEN_STRING:
		line, _, token := p.lexer.NextToken()
		return &ast.StringExp{Line: line, Str: token}
	case TOKEN_NUMBER:
		return p.parseNumberExp()
	case TOKEN_SEP_LCURLY:
		return p.parseTableConstructorExp()
	case TOKEN_KW_FUNCTION:
		p.lexer.NextToken()
		return p.parseFuncDefExp()
	default:
		return p.parsePrefixExp()
	}
}

func (p *parser) parseNumberExp() ast.Exp {
	line, _, token := p.lexer.NextToken()
	isFloat, ival, fval, ok := lexerParseNumeral(token)
	if !ok {
		p.recordErr(line, "malformed number near '%s'", token)
		return &ast.IntegerExp{Line: line, Int: 0}
	}
	if isFloat {
		return &ast.FloatExp{Line: line, Float: fval}
	}
	return &ast.IntegerExp{Line: line, Int: ival}
}

// lexerParseNumeral is a thin indirection so this file only imports the
// lexer package once via the dot-import above, while still calling its
// exported numeral classifier.
func lexerParseNumeral(token string) (bool, int64, float64, bool) {
	return ParseNumeral(token)
}

// funcbody ::= '(' [parlist] ')' block end
// parlist  ::= namelist [',' '...'] | '...'
// namelist ::= Name {',' Name}
func (p *parser) parseFuncDefExp() *ast.FuncDefExp {
	line := p.lexer.Line()
	p.lexer.NextTokenOfKind(TOKEN_SEP_LPAREN)
	parList, isVararg := p.parseParList()
	p.lexer.NextTokenOfKind(TOKEN_SEP_RPAREN)
	block := p.parseBlock()
	lastLine, _ := p.lexer.NextTokenOfKind(TOKEN_KW_END)
	return &ast.FuncDefExp{Line: line, LastLine: lastLine, ParList: parList, IsVararg: isVararg, Block: block}
}

func (p *parser) parseParList() (names []string, isVararg bool) {
	switch p.lexer.LookAhead() {
	case TOKEN_SEP_RPAREN:
		return nil, false
	case TOKEN_VARARG:
		p.lexer.NextToken()
		return nil, true
	}

	_, name := p.lexer.NextIdentifier()
	names = append(names, name)
	for p.lexer.LookAhead() == TOKEN_SEP_COMMA {
		p.lexer.NextToken()
		if p.lexer.LookAhead() == TOKEN_IDENTIFIER {
			_, name := p.lexer.NextIdentifier()
			names = append(names, name)
		} else {
			p.lexer.NextTokenOfKind(TOKEN_VARARG)
			isVararg = true
			break
		}
	}
	return
}

// tableconstructor ::= '{' [fieldlist] '}'
func (p *parser) parseTableConstructorExp() *ast.TableConstructorExp {
	line := p.lexer.Line()
	p.lexer.NextTokenOfKind(TOKEN_SEP_LCURLY)
	keyExps, valExps := p.parseFieldList()
	lastLine, _ := p.lexer.NextTokenOfKind(TOKEN_SEP_RCURLY)
	return &ast.TableConstructorExp{Line: line, LastLine: lastLine, KeyExps: keyExps, ValExps: valExps}
}

// fieldlist ::= field {fieldsep field} [fieldsep]
// fieldsep  ::= ',' | ';'
func (p *parser) parseFieldList() (ks, vs []ast.Exp) {
	if p.lexer.LookAhead() != TOKEN_SEP_RCURLY {
		k, v := p.parseField()
		ks = append(ks, k)
		vs = append(vs, v)

		for p.lexer.LookAhead() == TOKEN_SEP_COMMA || p.lexer.LookAhead() == TOKEN_SEP_SEMI {
			p.lexer.NextToken()
			if p.lexer.LookAhead() != TOKEN_SEP_RCURLY {
				k, v := p.parseField()
				ks = append(ks, k)
				vs = append(vs, v)
			} else {
				break
			}
		}
	}
	return
}

// field ::= '[' exp ']' '=' exp | Name '=' exp | exp
func (p *parser) parseField() (k, v ast.Exp) {
	if p.lexer.LookAhead() == TOKEN_SEP_LBRACK {
		p.lexer.NextToken()
		k = p.parseExp()
		p.lexer.NextTokenOfKind(TOKEN_SEP_RBRACK)
		p.lexer.NextTokenOfKind(TOKEN_OP_ASSIGN)
		v = p.parseExp()
		return
	}

	if p.lexer.LookAhead() == TOKEN_IDENTIFIER && p.lexer.LookAhead2() == TOKEN_OP_ASSIGN {
		line, name := p.lexer.NextIdentifier()
		p.lexer.NextToken() // '='
		k = &ast.StringExp{Line: line, Str: name}
		v = p.parseExp()
		return
	}

	return nil, p.parseExp()
}
