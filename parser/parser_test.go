package parser

import (
	"testing"

	"github.com/lollipopkit/luacore/ast"
)

func mustParse(t *testing.T, src string) *ast.Block {
	t.Helper()
	block, errs := Parse(src, "test")
	if len(errs) > 0 {
		t.Fatalf("unexpected parse errors for %q: %v", src, errs)
	}
	return block
}

func TestParseLocalAssign(t *testing.T) {
	block := mustParse(t, "local x, y = 1, 2")
	if len(block.Stats) != 1 {
		t.Fatalf("want 1 stat, got %d", len(block.Stats))
	}
	s, ok := block.Stats[0].(*ast.LocalVarDeclStat)
	if !ok {
		t.Fatalf("want *ast.LocalVarDeclStat, got %T", block.Stats[0])
	}
	if len(s.NameList) != 2 || s.NameList[0] != "x" || s.NameList[1] != "y" {
		t.Fatalf("unexpected name list: %v", s.NameList)
	}
}

func TestParseAttributes(t *testing.T) {
	block := mustParse(t, "local x <const> = 1")
	s := block.Stats[0].(*ast.LocalVarDeclStat)
	if s.Attribs[0] != "const" {
		t.Fatalf("want const attribute, got %q", s.Attribs[0])
	}
}

func TestParseIfElseif(t *testing.T) {
	block := mustParse(t, "if a then b() elseif c then d() else e() end")
	s, ok := block.Stats[0].(*ast.IfStat)
	if !ok {
		t.Fatalf("want *ast.IfStat, got %T", block.Stats[0])
	}
	if len(s.Exps) != 3 || len(s.Blocks) != 3 {
		t.Fatalf("want 3 branches, got %d/%d", len(s.Exps), len(s.Blocks))
	}
}

func TestParseNumericFor(t *testing.T) {
	block := mustParse(t, "for i = 1, 10, 2 do end")
	s, ok := block.Stats[0].(*ast.ForNumStat)
	if !ok {
		t.Fatalf("want *ast.ForNumStat, got %T", block.Stats[0])
	}
	if s.VarName != "i" {
		t.Fatalf("var name = %q", s.VarName)
	}
}

func TestParseGenericFor(t *testing.T) {
	block := mustParse(t, "for k, v in pairs(t) do end")
	if _, ok := block.Stats[0].(*ast.ForInStat); !ok {
		t.Fatalf("want *ast.ForInStat, got %T", block.Stats[0])
	}
}

func TestParseRepeatUntil(t *testing.T) {
	block := mustParse(t, "repeat x = x + 1 until x > 10")
	if _, ok := block.Stats[0].(*ast.RepeatStat); !ok {
		t.Fatalf("want *ast.RepeatStat, got %T", block.Stats[0])
	}
}

func TestParseGotoLabel(t *testing.T) {
	block := mustParse(t, "::top:: goto top")
	if _, ok := block.Stats[0].(*ast.LabelStat); !ok {
		t.Fatalf("want *ast.LabelStat, got %T", block.Stats[0])
	}
	if _, ok := block.Stats[1].(*ast.GotoStat); !ok {
		t.Fatalf("want *ast.GotoStat, got %T", block.Stats[1])
	}
}

func TestOperatorPrecedence(t *testing.T) {
	// 1 + 2 * 3 should parse as 1 + (2 * 3)
	block := mustParse(t, "x = 1 + 2 * 3")
	s := block.Stats[0].(*ast.AssignStat)
	top := s.ExpList[0].(*ast.BinopExp)
	if _, ok := top.Right.(*ast.BinopExp); !ok {
		t.Fatalf("expected multiplication nested on the right, got %T", top.Right)
	}
}

func TestConcatRightAssociative(t *testing.T) {
	block := mustParse(t, `x = "a" .. "b" .. "c"`)
	s := block.Stats[0].(*ast.AssignStat)
	top := s.ExpList[0].(*ast.BinopExp)
	if _, ok := top.Right.(*ast.BinopExp); !ok {
		t.Fatalf("expected right-associative concat, got %T", top.Right)
	}
}

func TestMethodCall(t *testing.T) {
	block := mustParse(t, "obj:method(1, 2)")
	fc := block.Stats[0].(*ast.FuncCallExp)
	if fc.NameExp == nil || fc.NameExp.Str != "method" {
		t.Fatalf("expected method call named 'method', got %+v", fc.NameExp)
	}
}

func TestFuncCallVsAssignDisambiguation(t *testing.T) {
	block := mustParse(t, "f()")
	if _, ok := block.Stats[0].(*ast.FuncCallExp); !ok {
		t.Fatalf("want *ast.FuncCallExp, got %T", block.Stats[0])
	}
}

func TestReturnStatement(t *testing.T) {
	block, errs := Parse("return 1, 2", "test")
	if len(errs) > 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}
	if len(block.RetExps) != 2 {
		t.Fatalf("want 2 return exps, got %d", len(block.RetExps))
	}
}
