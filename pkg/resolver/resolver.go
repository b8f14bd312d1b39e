// Package resolver implements the static scope pass of the uuu language.
//
// Resolve walks a parsed program once, before evaluation, and records for
// every local variable reference how many enclosing scopes separate it from
// its declaration. The evaluator uses those depths to reach the right frame
// of the environment chain without searching by name.
package resolver

import (
	"errors"
	"fmt"

	"github.com/thomasrohde/uuu/pkg/ast"
	"github.com/thomasrohde/uuu/pkg/diagnostics"
)

// ErrAlreadyResolved is returned when a resolution table, or one covering
// the same nodes, is loaded into an interpreter a second time.
var ErrAlreadyResolved = errors.New("program already resolved")

// Table maps reference nodes (variables, assignments, self and super) to
// their resolution depth. A table is filled by a single Resolve pass and is
// read-only once that pass ends.
type Table struct {
	depths map[ast.Expr]int
	sealed bool
}

func newTable() *Table {
	return &Table{depths: make(map[ast.Expr]int)}
}

// Depth returns the recorded depth of expr. ok is false for names the
// resolver left to the global frame.
func (t *Table) Depth(expr ast.Expr) (depth int, ok bool) {
	depth, ok = t.depths[expr]
	return depth, ok
}

// Len returns the number of resolved references.
func (t *Table) Len() int {
	return len(t.depths)
}

// Sealed reports whether the pass that built the table has finished.
func (t *Table) Sealed() bool {
	return t.sealed
}

// Range calls fn for every entry until fn returns false.
func (t *Table) Range(fn func(expr ast.Expr, depth int) bool) {
	for expr, depth := range t.depths {
		if !fn(expr, depth) {
			return
		}
	}
}

func (t *Table) record(expr ast.Expr, depth int) {
	if t.sealed {
		panic("resolver: write to sealed table")
	}
	t.depths[expr] = depth
}

type fnKind int

const (
	fnNone fnKind = iota
	fnFunction
	fnMethod
	fnInitializer
)

type classKind int

const (
	classNone classKind = iota
	classPlain
	classSub
)

// scope maps names to whether their declaration has finished.
type scope map[string]bool

type resolver struct {
	diags     []diagnostics.Diagnostic
	table     *Table
	scopes    []scope
	fn        fnKind
	class     classKind
	loopDepth int
}

// Resolve performs the scope pass over program. It returns the sealed table
// and every scope diagnostic found; the table must not be used when any
// diagnostics are returned.
func Resolve(program *ast.Program) (*Table, []diagnostics.Diagnostic) {
	r := &resolver{table: newTable()}

	r.beginScope()
	r.resolveStmts(program.Statements)
	r.endScope()

	r.table.sealed = true
	return r.table, r.diags
}

func (r *resolver) addDiag(code, msg string, span ast.Span, hint string) {
	r.diags = append(r.diags, diagnostics.MakeDiag(code, msg, &span, hint))
}

func (r *resolver) beginScope() {
	r.scopes = append(r.scopes, make(scope))
}

func (r *resolver) endScope() {
	r.scopes = r.scopes[:len(r.scopes)-1]
}

func (r *resolver) innermost() scope {
	return r.scopes[len(r.scopes)-1]
}

func (r *resolver) declare(name string, span ast.Span) {
	sc := r.innermost()
	if _, exists := sc[name]; exists {
		r.addDiag(diagnostics.ERedeclared,
			fmt.Sprintf("variable '%s' is already declared in this scope", name), span,
			"use assignment to change it, or pick another name")
		return
	}
	sc[name] = false
}

func (r *resolver) define(name string) {
	r.innermost()[name] = true
}

// resolveLocal records the depth of the innermost scope declaring name.
// Names found in no scope are left for the global frame.
func (r *resolver) resolveLocal(expr ast.Expr, name string) {
	for i := len(r.scopes) - 1; i >= 0; i-- {
		if _, ok := r.scopes[i][name]; ok {
			r.table.record(expr, len(r.scopes)-1-i)
			return
		}
	}
}

// --- Statements ---

func (r *resolver) resolveStmts(stmts []ast.Stmt) {
	for _, stmt := range stmts {
		r.resolveStmt(stmt)
	}
}

func (r *resolver) resolveStmt(stmt ast.Stmt) {
	switch s := stmt.(type) {
	case *ast.ExprStmt:
		r.resolveExpr(s.Expr)

	case *ast.VarStmt:
		r.declare(s.Name, s.Span)
		if s.Init != nil {
			r.resolveExpr(s.Init)
		}
		r.define(s.Name)

	case *ast.BlockStmt:
		r.beginScope()
		r.resolveStmts(s.Statements)
		r.endScope()

	case *ast.IfStmt:
		r.resolveExpr(s.Cond)
		r.resolveStmt(s.Then)
		if s.Else != nil {
			r.resolveStmt(s.Else)
		}

	case *ast.WhileStmt:
		r.resolveExpr(s.Cond)
		r.loopDepth++
		r.resolveStmt(s.Body)
		r.loopDepth--

	case *ast.ForStmt:
		r.beginScope()
		if s.Init != nil {
			r.resolveStmt(s.Init)
		}
		if s.Cond != nil {
			r.resolveExpr(s.Cond)
		}
		if s.Incr != nil {
			r.resolveExpr(s.Incr)
		}
		r.loopDepth++
		r.resolveStmt(s.Body)
		r.loopDepth--
		r.endScope()

	case *ast.FnStmt:
		r.declare(s.Name, s.Span)
		r.define(s.Name)
		r.resolveFunction(s, fnFunction)

	case *ast.ReturnStmt:
		if r.fn == fnNone {
			r.addDiag(diagnostics.EReturnOutside, "'return' outside of a function", s.Span, "")
		}
		if s.Value != nil {
			r.resolveExpr(s.Value)
		}

	case *ast.BreakStmt:
		if r.loopDepth == 0 {
			r.addDiag(diagnostics.ELoopControl, "'break' outside of a loop", s.Span, "")
		}

	case *ast.ContinueStmt:
		if r.loopDepth == 0 {
			r.addDiag(diagnostics.ELoopControl, "'continue' outside of a loop", s.Span, "")
		}

	case *ast.ClassStmt:
		r.resolveClass(s)

	default:
		panic(fmt.Sprintf("resolver: unhandled statement %s", stmt.Kind()))
	}
}

func (r *resolver) resolveFunction(fn *ast.FnStmt, kind fnKind) {
	enclosingFn, enclosingLoop := r.fn, r.loopDepth
	r.fn, r.loopDepth = kind, 0

	r.beginScope()
	for _, param := range fn.Params {
		r.declare(param.Name, param.Span)
		r.define(param.Name)
	}
	r.resolveStmts(fn.Body)
	r.endScope()

	r.fn, r.loopDepth = enclosingFn, enclosingLoop
}

func (r *resolver) resolveClass(c *ast.ClassStmt) {
	enclosingClass := r.class
	r.class = classPlain

	r.declare(c.Name, c.Span)
	r.define(c.Name)

	if c.Superclass != nil {
		if c.Superclass.Name == c.Name {
			r.addDiag(diagnostics.ESelfInherit,
				fmt.Sprintf("class '%s' cannot inherit from itself", c.Name), c.Superclass.Span, "")
		}
		r.class = classSub
		r.resolveExpr(c.Superclass)

		r.beginScope()
		r.define("super")
	}

	r.beginScope()
	r.define("self")
	for _, method := range c.Methods {
		kind := fnMethod
		if method.Name == "init" {
			kind = fnInitializer
		}
		r.resolveFunction(method, kind)
	}
	r.endScope()

	if c.Superclass != nil {
		r.endScope()
	}

	r.class = enclosingClass
}

// --- Expressions ---

func (r *resolver) resolveExpr(expr ast.Expr) {
	switch e := expr.(type) {
	case *ast.NumberLiteral, *ast.StringLiteral, *ast.BoolLiteral, *ast.NullLiteral:
		// nothing to resolve

	case *ast.GroupingExpr:
		r.resolveExpr(e.Expr)

	case *ast.UnaryExpr:
		r.resolveExpr(e.Operand)

	case *ast.BinaryExpr:
		r.resolveExpr(e.Left)
		r.resolveExpr(e.Right)

	case *ast.LogicalExpr:
		r.resolveExpr(e.Left)
		r.resolveExpr(e.Right)

	case *ast.TernaryExpr:
		r.resolveExpr(e.Cond)
		r.resolveExpr(e.Then)
		r.resolveExpr(e.Else)

	case *ast.VariableExpr:
		if defined, ok := r.innermost()[e.Name]; ok && !defined {
			r.addDiag(diagnostics.ESelfInit,
				fmt.Sprintf("cannot read variable '%s' in its own initializer", e.Name), e.Span, "")
			return
		}
		r.resolveLocal(e, e.Name)

	case *ast.AssignExpr:
		r.resolveExpr(e.Value)
		r.resolveLocal(e, e.Name)

	case *ast.CallExpr:
		r.resolveExpr(e.Callee)
		for _, arg := range e.Args {
			r.resolveExpr(arg)
		}

	case *ast.GetExpr:
		r.resolveExpr(e.Object)

	case *ast.SetExpr:
		r.resolveExpr(e.Value)
		r.resolveExpr(e.Object)

	case *ast.SelfExpr:
		if r.class == classNone {
			r.addDiag(diagnostics.ESelfOutside, "'self' outside of a class method", e.Span, "")
			return
		}
		r.resolveLocal(e, "self")

	case *ast.SuperExpr:
		switch r.class {
		case classNone:
			r.addDiag(diagnostics.ESuperOutside, "'super' outside of a class method", e.Span, "")
			return
		case classPlain:
			r.addDiag(diagnostics.ESuperOutside, "'super' in a class with no superclass", e.Span,
				"declare a superclass with 'class Name < Base'")
			return
		}
		r.resolveLocal(e, "super")

	default:
		panic(fmt.Sprintf("resolver: unhandled expression %s", expr.Kind()))
	}
}
