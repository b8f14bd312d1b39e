// Package formatter renders a uuu AST as parenthesized debug text.
//
// Expressions print in prefix form, e.g. `(+ 1 (* 2 3))`, `(group e)` and
// `(c ? a : b)`. Statements keep a source-like shell, e.g. `var x = e;`, with
// nested blocks indented.
package formatter

import (
	"math"
	"strconv"
	"strings"

	"github.com/thomasrohde/uuu/pkg/ast"
)

const indent = "  "

// Format renders every top-level statement of program, one per line.
func Format(program *ast.Program) string {
	if len(program.Statements) == 0 {
		return ""
	}
	lines := make([]string, len(program.Statements))
	for i, s := range program.Statements {
		lines[i] = formatStmt(s, 0)
	}
	return strings.Join(lines, "\n") + "\n"
}

// FormatExpr renders a single expression.
func FormatExpr(e ast.Expr) string {
	return formatExpr(e)
}

// formatStmt renders s. The first line carries no indentation; nested lines
// are indented relative to depth.
func formatStmt(s ast.Stmt, depth int) string {
	switch stmt := s.(type) {
	case *ast.ExprStmt:
		return formatExpr(stmt.Expr) + ";"
	case *ast.VarStmt:
		if stmt.Init == nil {
			return "var " + stmt.Name + ";"
		}
		return "var " + stmt.Name + " = " + formatExpr(stmt.Init) + ";"
	case *ast.BlockStmt:
		return formatBlock(stmt.Statements, depth)
	case *ast.IfStmt:
		out := "if (" + formatExpr(stmt.Cond) + ") " + formatStmt(stmt.Then, depth)
		if stmt.Else != nil {
			out += " else " + formatStmt(stmt.Else, depth)
		}
		return out
	case *ast.WhileStmt:
		return "while (" + formatExpr(stmt.Cond) + ") " + formatStmt(stmt.Body, depth)
	case *ast.ForStmt:
		var b strings.Builder
		b.WriteString("for (")
		if stmt.Init != nil {
			b.WriteString(formatStmt(stmt.Init, depth))
		} else {
			b.WriteString(";")
		}
		if stmt.Cond != nil {
			b.WriteString(" " + formatExpr(stmt.Cond))
		}
		b.WriteString(";")
		if stmt.Incr != nil {
			b.WriteString(" " + formatExpr(stmt.Incr))
		}
		b.WriteString(") ")
		b.WriteString(formatStmt(stmt.Body, depth))
		return b.String()
	case *ast.FnStmt:
		return formatFn(stmt, depth)
	case *ast.ReturnStmt:
		if stmt.Value == nil {
			return "return;"
		}
		return "return " + formatExpr(stmt.Value) + ";"
	case *ast.BreakStmt:
		return "break;"
	case *ast.ContinueStmt:
		return "continue;"
	case *ast.ClassStmt:
		head := "class " + stmt.Name
		if stmt.Superclass != nil {
			head += " < " + stmt.Superclass.Name
		}
		if len(stmt.Methods) == 0 {
			return head + " {}"
		}
		inner := strings.Repeat(indent, depth+1)
		parts := make([]string, len(stmt.Methods))
		for i, m := range stmt.Methods {
			parts[i] = inner + formatFn(m, depth+1)
		}
		return head + " {\n" + strings.Join(parts, "\n") + "\n" + strings.Repeat(indent, depth) + "}"
	}
	return ""
}

func formatFn(fn *ast.FnStmt, depth int) string {
	names := make([]string, len(fn.Params))
	for i, param := range fn.Params {
		names[i] = param.Name
	}
	return "fn " + fn.Name + "(" + strings.Join(names, ", ") + ") " + formatBlock(fn.Body, depth)
}

func formatBlock(stmts []ast.Stmt, depth int) string {
	if len(stmts) == 0 {
		return "{}"
	}
	inner := strings.Repeat(indent, depth+1)
	lines := make([]string, len(stmts))
	for i, s := range stmts {
		lines[i] = inner + formatStmt(s, depth+1)
	}
	return "{\n" + strings.Join(lines, "\n") + "\n" + strings.Repeat(indent, depth) + "}"
}

func formatExpr(e ast.Expr) string {
	switch expr := e.(type) {
	case *ast.NumberLiteral:
		return formatNumber(expr.Value)
	case *ast.StringLiteral:
		return strconv.Quote(expr.Value)
	case *ast.BoolLiteral:
		if expr.Value {
			return "true"
		}
		return "false"
	case *ast.NullLiteral:
		return "null"
	case *ast.GroupingExpr:
		return parenthesize("group", expr.Expr)
	case *ast.UnaryExpr:
		return parenthesize(string(expr.Op), expr.Operand)
	case *ast.BinaryExpr:
		return parenthesize(string(expr.Op), expr.Left, expr.Right)
	case *ast.LogicalExpr:
		return parenthesize(string(expr.Op), expr.Left, expr.Right)
	case *ast.TernaryExpr:
		return "(" + formatExpr(expr.Cond) + " ? " + formatExpr(expr.Then) + " : " + formatExpr(expr.Else) + ")"
	case *ast.VariableExpr:
		return expr.Name
	case *ast.AssignExpr:
		return "(= " + expr.Name + " " + formatExpr(expr.Value) + ")"
	case *ast.CallExpr:
		return parenthesize("call", append([]ast.Expr{expr.Callee}, expr.Args...)...)
	case *ast.GetExpr:
		return "(. " + formatExpr(expr.Object) + " " + expr.Name + ")"
	case *ast.SetExpr:
		return "(= (. " + formatExpr(expr.Object) + " " + expr.Name + ") " + formatExpr(expr.Value) + ")"
	case *ast.SelfExpr:
		return "self"
	case *ast.SuperExpr:
		return "(super " + expr.Method + ")"
	}
	return ""
}

func parenthesize(name string, exprs ...ast.Expr) string {
	var b strings.Builder
	b.WriteString("(")
	b.WriteString(name)
	for _, e := range exprs {
		b.WriteString(" ")
		b.WriteString(formatExpr(e))
	}
	b.WriteString(")")
	return b.String()
}

// formatNumber writes numbers in plain decimal notation, without a fraction
// when the value is integral.
func formatNumber(value float64) string {
	if math.IsInf(value, 0) || math.IsNaN(value) {
		return strconv.FormatFloat(value, 'g', -1, 64)
	}
	return strconv.FormatFloat(value, 'f', -1, 64)
}
