package codegen

import "github.com/lollipopkit/luacore/ast"

func isVarargOrFuncCall(exp ast.Exp) bool {
	switch exp.(type) {
	case *ast.VarargExp, *ast.FuncCallExp:
		return true
	}
	return false
}

// lastLineOf reports the line an expression's value is fully computed
// on (its closing token), used to attach line info to instructions
// emitted after evaluating a sub-expression.
func lastLineOf(exp ast.Exp) int {
	switch x := exp.(type) {
	case *ast.NilExp:
		return x.Line
	case *ast.TrueExp:
		return x.Line
	case *ast.FalseExp:
		return x.Line
	case *ast.IntegerExp:
		return x.Line
	case *ast.FloatExp:
		return x.Line
	case *ast.StringExp:
		return x.Line
	case *ast.VarargExp:
		return x.Line
	case *ast.NameExp:
		return x.Line
	case *ast.ParensExp:
		return x.Line
	case *ast.FuncDefExp:
		return x.LastLine
	case *ast.FuncCallExp:
		return x.LastLine
	case *ast.TableConstructorExp:
		return x.LastLine
	case *ast.TableAccessExp:
		return x.LastLine
	case *ast.BinopExp:
		return lastLineOf(x.Right)
	case *ast.UnopExp:
		return lastLineOf(x.Exp)
	default:
		return 0
	}
}
