package parser

import (
	"github.com/lollipopkit/luacore/ast"
	. "github.com/lollipopkit/luacore/lexer"
)

var emptyStat = &ast.EmptyStat{}

/*
stat ::=  ';'
	| break
	| goto Name
	| '::' Name '::'
	| do block end
	| while exp do block end
	| repeat block until exp
	| if exp then block {elseif exp then block} [else block] end
	| for Name '=' exp ',' exp [',' exp] do block end
	| for namelist in explist do block end
	| function funcname funcbody
	| local function Name funcbody
	| local attnamelist ['=' explist]
	| varlist '=' explist
	| functioncall
*/
func (p *parser) parseStat() ast.Stat {
	switch p.lexer.LookAhead() {
	case TOKEN_SEP_SEMI:
		return p.parseEmptyStat()
	case TOKEN_KW_BREAK:
		return p.parseBreakStat()
	case TOKEN_KW_GOTO:
		return p.parseGotoStat()
	case TOKEN_SEP_LABEL:
		return p.parseLabelStat()
	case TOKEN_KW_DO:
		return p.parseDoStat()
	case TOKEN_KW_WHILE:
		return p.parseWhileStat()
	case TOKEN_KW_REPEAT:
		return p.parseRepeatStat()
	case TOKEN_KW_IF:
		return p.parseIfStat()
	case TOKEN_KW_FOR:
		return p.parseForStat()
	case TOKEN_KW_FUNCTION:
		return p.parseFuncDefStat()
	case TOKEN_KW_LOCAL:
		return p.parseLocalStat()
	default:
		return p.parseAssignOrFuncCallStat()
	}
}

func (p *parser) parseEmptyStat() *ast.EmptyStat {
	p.lexer.NextTokenOfKind(TOKEN_SEP_SEMI)
	return emptyStat
}

func (p *parser) parseBreakStat() *ast.BreakStat {
	p.lexer.NextTokenOfKind(TOKEN_KW_BREAK)
	return &ast.BreakStat{Line: p.lexer.Line()}
}

func (p *parser) parseGotoStat() *ast.GotoStat {
	line, _ := p.lexer.NextTokenOfKind(TOKEN_KW_GOTO)
	_, name := p.lexer.NextIdentifier()
	return &ast.GotoStat{Line: line, Name: name}
}

func (p *parser) parseLabelStat() *ast.LabelStat {
	line, _ := p.lexer.NextTokenOfKind(TOKEN_SEP_LABEL)
	_, name := p.lexer.NextIdentifier()
	p.lexer.NextTokenOfKind(TOKEN_SEP_LABEL)
	return &ast.LabelStat{Line: line, Name: name}
}

// do block end
func (p *parser) parseDoStat() *ast.DoStat {
	p.lexer.NextTokenOfKind(TOKEN_KW_DO)
	block := p.parseBlock()
	p.lexer.NextTokenOfKind(TOKEN_KW_END)
	return &ast.DoStat{Block: block}
}

// while exp do block end
func (p *parser) parseWhileStat() *ast.WhileStat {
	line, _ := p.lexer.NextTokenOfKind(TOKEN_KW_WHILE)
	exp := p.parseExp()
	p.lexer.NextTokenOfKind(TOKEN_KW_DO)
	block := p.parseBlock()
	p.lexer.NextTokenOfKind(TOKEN_KW_END)
	return &ast.WhileStat{Line: line, Exp: exp, Block: block}
}

// repeat block until exp
func (p *parser) parseRepeatStat() *ast.RepeatStat {
	p.lexer.NextTokenOfKind(TOKEN_KW_REPEAT)
	block := p.parseBlock()
	p.lexer.NextTokenOfKind(TOKEN_KW_UNTIL)
	exp := p.parseExp()
	return &ast.RepeatStat{Block: block, Exp: exp}
}

// if exp then block {elseif exp then block} [else block] end
func (p *parser) parseIfStat() *ast.IfStat {
	exps := make([]ast.Exp, 0, 4)
	blocks := make([]*ast.Block, 0, 4)

	p.lexer.NextTokenOfKind(TOKEN_KW_IF)
	exps = append(exps, p.parseExp())
	p.lexer.NextTokenOfKind(TOKEN_KW_THEN)
	blocks = append(blocks, p.parseBlock())
	for p.lexer.LookAhead() == TOKEN_KW_ELSEIF {
		p.lexer.NextToken()
		exps = append(exps, p.parseExp())
		p.lexer.NextTokenOfKind(TOKEN_KW_THEN)
		blocks = append(blocks, p.parseBlock())
	}

	// else block => elseif true then block
	if p.lexer.LookAhead() == TOKEN_KW_ELSE {
		p.lexer.NextToken()
		exps = append(exps, &ast.TrueExp{Line: p.lexer.Line()})
		blocks = append(blocks, p.parseBlock())
	}

	p.lexer.NextTokenOfKind(TOKEN_KW_END)
	return &ast.IfStat{Exps: exps, Blocks: blocks}
}

// for Name '=' exp ',' exp [',' exp] do block end
// for namelist in explist do block end
func (p *parser) parseForStat() ast.Stat {
	lineOfFor, _ := p.lexer.NextTokenOfKind(TOKEN_KW_FOR)
	_, name := p.lexer.NextIdentifier()
	if p.lexer.LookAhead() == TOKEN_OP_ASSIGN {
		return p.finishForNumStat(lineOfFor, name)
	}
	return p.finishForInStat(name)
}

func (p *parser) finishForNumStat(lineOfFor int, varName string) *ast.ForNumStat {
	p.lexer.NextTokenOfKind(TOKEN_OP_ASSIGN)
	initExp := p.parseExp()
	p.lexer.NextTokenOfKind(TOKEN_SEP_COMMA)
	limitExp := p.parseExp()

	var stepExp ast.Exp
	if p.lexer.LookAhead() == TOKEN_SEP_COMMA {
		p.lexer.NextToken()
		stepExp = p.parseExp()
	} else {
		stepExp = &ast.IntegerExp{Line: p.lexer.Line(), Int: 1}
	}

	lineOfDo, _ := p.lexer.NextTokenOfKind(TOKEN_KW_DO)
	block := p.parseBlock()
	p.lexer.NextTokenOfKind(TOKEN_KW_END)

	return &ast.ForNumStat{
		LineOfFor: lineOfFor, LineOfDo: lineOfDo,
		VarName: varName, InitExp: initExp, LimitExp: limitExp, StepExp: stepExp,
		Block: block,
	}
}

// namelist ::= Name {',' Name}
// explist ::= exp {',' exp}
func (p *parser) finishForInStat(name0 string) *ast.ForInStat {
	nameList := p.finishNameList(name0)
	p.lexer.NextTokenOfKind(TOKEN_KW_IN)
	expList := p.parseExpList()
	lineOfDo, _ := p.lexer.NextTokenOfKind(TOKEN_KW_DO)
	block := p.parseBlock()
	p.lexer.NextTokenOfKind(TOKEN_KW_END)
	return &ast.ForInStat{LineOfDo: lineOfDo, NameList: nameList, ExpList: expList, Block: block}
}

func (p *parser) finishNameList(name0 string) []string {
	names := []string{name0}
	for p.lexer.LookAhead() == TOKEN_SEP_COMMA {
		p.lexer.NextToken()
		_, name := p.lexer.NextIdentifier()
		names = append(names, name)
	}
	return names
}

// local function Name funcbody
// local attnamelist ['=' explist]
func (p *parser) parseLocalStat() ast.Stat {
	p.lexer.NextTokenOfKind(TOKEN_KW_LOCAL)
	if p.lexer.LookAhead() == TOKEN_KW_FUNCTION {
		return p.finishLocalFuncDefStat()
	}
	return p.finishLocalVarDeclStat()
}

// local function Name funcbody
//
// `local function f () body end` desugars to `local f; f = function () body
// end` so that `f` is visible inside its own body for recursion; codegen
// handles that by declaring the local before compiling the function.
func (p *parser) finishLocalFuncDefStat() *ast.LocalFuncDefStat {
	line, _ := p.lexer.NextTokenOfKind(TOKEN_KW_FUNCTION)
	_, name := p.lexer.NextIdentifier()
	fdExp := p.parseFuncDefExp()
	return &ast.LocalFuncDefStat{Line: line, Name: name, Exp: fdExp}
}

// local attnamelist ['=' explist]
// attnamelist ::= Name attrib {',' Name attrib}
// attrib ::= ['<' Name '>']
func (p *parser) finishLocalVarDeclStat() *ast.LocalVarDeclStat {
	line := p.lexer.Line()
	name0, attrib0 := p.parseAttribName()
	nameList := []string{name0}
	attribs := []string{attrib0}
	for p.lexer.LookAhead() == TOKEN_SEP_COMMA {
		p.lexer.NextToken()
		name, attrib := p.parseAttribName()
		nameList = append(nameList, name)
		attribs = append(attribs, attrib)
	}

	var expList []ast.Exp
	if p.lexer.LookAhead() == TOKEN_OP_ASSIGN {
		p.lexer.NextToken()
		expList = p.parseExpList()
	}
	return &ast.LocalVarDeclStat{Line: line, NameList: nameList, Attribs: attribs, ExpList: expList}
}

func (p *parser) parseAttribName() (name, attrib string) {
	_, name = p.lexer.NextIdentifier()
	if p.lexer.LookAhead() == TOKEN_OP_LT {
		p.lexer.NextToken()
		line, attribName := p.lexer.NextIdentifier()
		if attribName != "const" && attribName != "close" {
			p.recordErr(line, "unknown attribute '%s'", attribName)
		}
		p.lexer.NextTokenOfKind(TOKEN_OP_GT)
		attrib = attribName
	}
	return
}

// varlist '=' explist
// functioncall
func (p *parser) parseAssignOrFuncCallStat() ast.Stat {
	prefixExp := p.parsePrefixExp()
	if fc, ok := prefixExp.(*ast.FuncCallExp); ok && p.lexer.LookAhead() != TOKEN_OP_ASSIGN && p.lexer.LookAhead() != TOKEN_SEP_COMMA {
		return fc
	}
	return p.parseAssignStat(prefixExp)
}

// varlist '=' explist
func (p *parser) parseAssignStat(var0 ast.Exp) ast.Stat {
	varList := p.finishVarList(var0)
	p.lexer.NextTokenOfKind(TOKEN_OP_ASSIGN)
	expList := p.parseExpList()
	lastLine := p.lexer.Line()
	return &ast.AssignStat{Line: lastLine, VarList: varList, ExpList: expList}
}

// varlist ::= var {',' var}
func (p *parser) finishVarList(var0 ast.Exp) []ast.Exp {
	vars := []ast.Exp{p.checkVar(var0)}
	for p.lexer.LookAhead() == TOKEN_SEP_COMMA {
		p.lexer.NextToken()
		exp := p.parsePrefixExp()
		vars = append(vars, p.checkVar(exp))
	}
	return vars
}

// var ::=  Name | prefixexp '[' exp ']' | prefixexp '.' Name
func (p *parser) checkVar(exp ast.Exp) ast.Exp {
	switch exp.(type) {
	case *ast.NameExp, *ast.TableAccessExp:
		return exp
	}
	p.recordErr(p.lexer.Line(), "syntax error: cannot assign to this expression")
	return exp
}

// function funcname funcbody
// funcname ::= Name {'.' Name} [':' Name]
func (p *parser) parseFuncDefStat() *ast.AssignStat {
	p.lexer.NextTokenOfKind(TOKEN_KW_FUNCTION)
	fnExp, hasColon := p.parseFuncName()
	fdExp := p.parseFuncDefExp()
	if hasColon {
		fdExp.ParList = append([]string{"self"}, fdExp.ParList...)
	}

	return &ast.AssignStat{
		Line:    fdExp.Line,
		VarList: []ast.Exp{fnExp},
		ExpList: []ast.Exp{fdExp},
	}
}

// funcname ::= Name {'.' Name} [':' Name]
func (p *parser) parseFuncName() (exp ast.Exp, hasColon bool) {
	line, name := p.lexer.NextIdentifier()
	exp = &ast.NameExp{Line: line, Name: name}

	for p.lexer.LookAhead() == TOKEN_SEP_DOT {
		p.lexer.NextToken()
		line, name := p.lexer.NextIdentifier()
		idx := &ast.StringExp{Line: line, Str: name}
		exp = &ast.TableAccessExp{Line: line, LastLine: line, PrefixExp: exp, KeyExp: idx}
	}
	if p.lexer.LookAhead() == TOKEN_SEP_COLON {
		hasColon = true
		p.lexer.NextToken()
		line, name := p.lexer.NextIdentifier()
		idx := &ast.StringExp{Line: line, Str: name}
		exp = &ast.TableAccessExp{Line: line, LastLine: line, PrefixExp: exp, KeyExp: idx}
	}
	return
}
