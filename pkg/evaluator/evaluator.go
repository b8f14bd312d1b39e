package evaluator

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/thomasrohde/uuu/pkg/ast"
	"github.com/thomasrohde/uuu/pkg/diagnostics"
	"github.com/thomasrohde/uuu/pkg/resolver"
)

// TraceEventType identifies the type of a trace event.
type TraceEventType string

const (
	TraceRunStart  TraceEventType = "run_start"
	TraceRunEnd    TraceEventType = "run_end"
	TraceResolve   TraceEventType = "resolve"
	TraceCallStart TraceEventType = "call_start"
	TraceCallEnd   TraceEventType = "call_end"
)

// TraceEvent represents a single trace event emitted during execution.
type TraceEvent struct {
	Timestamp string         `json:"ts"`
	RunID     string         `json:"runId"`
	Event     TraceEventType `json:"event"`
	Span      *ast.Span      `json:"span,omitempty"`
	Data      map[string]any `json:"data,omitempty"`
}

// NewTraceEvent stamps a trace event with the current time.
func NewTraceEvent(event TraceEventType, runID string, span *ast.Span, data map[string]any) TraceEvent {
	return TraceEvent{
		Timestamp: time.Now().UTC().Format(time.RFC3339Nano),
		RunID:     runID,
		Event:     event,
		Span:      span,
		Data:      data,
	}
}

// ExecOptions configures an interpreter.
type ExecOptions struct {
	// Natives are bound in the global frame before anything runs.
	Natives []*Native
	Trace   func(event TraceEvent)
	RunID   string
	Logger  *slog.Logger
	Budget  Budget
}

// RuntimeError represents an error raised while evaluating a program.
type RuntimeError struct {
	Code    string
	Message string
	Span    *ast.Span
}

func (e *RuntimeError) Error() string {
	return e.Message
}

// Diagnostic converts the error into a diagnostic for display.
func (e *RuntimeError) Diagnostic() diagnostics.Diagnostic {
	return diagnostics.MakeDiag(e.Code, e.Message, e.Span, "")
}

func runtimeErr(code string, span ast.Span, format string, args ...any) *RuntimeError {
	return &RuntimeError{Code: code, Message: fmt.Sprintf(format, args...), Span: &span}
}

// outcomeKind tags how a statement finished.
type outcomeKind int

const (
	outNormal outcomeKind = iota
	outReturn
	outBreak
	outContinue
)

// outcome is the result of executing a statement. value is set only for
// outReturn.
type outcome struct {
	kind  outcomeKind
	value Value
}

var normal = outcome{kind: outNormal}

// Interpreter evaluates resolved programs against a persistent global frame.
// An Interpreter is not safe for concurrent use.
type Interpreter struct {
	opts    ExecOptions
	logger  *slog.Logger
	globals *Env
	locals  map[ast.Expr]int
	loaded  map[*resolver.Table]bool
	tracker BudgetTracker
	ctx     context.Context
}

// New creates an interpreter with the configured natives bound as globals.
func New(opts ExecOptions) *Interpreter {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	in := &Interpreter{
		opts:    opts,
		logger:  logger,
		globals: NewEnv(nil),
		locals:  make(map[ast.Expr]int),
		loaded:  make(map[*resolver.Table]bool),
		ctx:     context.Background(),
	}
	for _, n := range opts.Natives {
		in.globals.Define(n.Name, n)
	}
	return in
}

// Load merges a resolution table into the interpreter. Each table can be
// loaded once; a table whose nodes are already known is rejected with
// resolver.ErrAlreadyResolved.
func (in *Interpreter) Load(table *resolver.Table) error {
	if in.loaded[table] {
		return resolver.ErrAlreadyResolved
	}
	var dup bool
	table.Range(func(expr ast.Expr, _ int) bool {
		_, dup = in.locals[expr]
		return !dup
	})
	if dup {
		return resolver.ErrAlreadyResolved
	}
	table.Range(func(expr ast.Expr, depth int) bool {
		in.locals[expr] = depth
		return true
	})
	in.loaded[table] = true
	in.logger.Debug("resolution table loaded", "entries", table.Len(), "total", len(in.locals))
	return nil
}

// Execute loads table and runs program's statements in the global frame.
// The first runtime error stops execution and is returned as a
// *RuntimeError.
func (in *Interpreter) Execute(ctx context.Context, program *ast.Program, table *resolver.Table) error {
	if err := in.Load(table); err != nil {
		return err
	}
	in.ctx = ctx
	in.tracker.CallDepth = 0
	defer func() { in.ctx = context.Background() }()

	out, err := in.execStmts(program.Statements, in.globals)
	if err != nil {
		return err
	}
	if out.kind != outNormal {
		span := program.Span
		return runtimeErr(diagnostics.EInternal, span, "control flow escaped the program")
	}
	return nil
}

// Global returns the value bound to name in the global frame.
func (in *Interpreter) Global(name string) (Value, bool) {
	return in.globals.Get(name)
}

// GlobalNames returns the names bound in the global frame.
func (in *Interpreter) GlobalNames() []string {
	return in.globals.Names()
}

// Stats returns the resource counters accumulated so far.
func (in *Interpreter) Stats() BudgetTracker {
	return in.tracker
}

func (in *Interpreter) emit(event TraceEventType, span *ast.Span, data map[string]any) {
	if in.opts.Trace != nil {
		in.opts.Trace(NewTraceEvent(event, in.opts.RunID, span, data))
	}
}

func (in *Interpreter) checkCancelled(span ast.Span) error {
	if err := in.ctx.Err(); err != nil {
		return runtimeErr(diagnostics.ECancelled, span, "execution cancelled: %v", err)
	}
	return nil
}

// --- Statements ---

func (in *Interpreter) execStmts(stmts []ast.Stmt, env *Env) (outcome, error) {
	for _, stmt := range stmts {
		out, err := in.execStmt(stmt, env)
		if err != nil || out.kind != outNormal {
			return out, err
		}
	}
	return normal, nil
}

func (in *Interpreter) execStmt(stmt ast.Stmt, env *Env) (outcome, error) {
	switch s := stmt.(type) {
	case *ast.ExprStmt:
		_, err := in.evalExpr(s.Expr, env)
		return normal, err

	case *ast.VarStmt:
		var val Value = NewNull()
		if s.Init != nil {
			v, err := in.evalExpr(s.Init, env)
			if err != nil {
				return normal, err
			}
			val = v
		}
		env.Define(s.Name, val)
		return normal, nil

	case *ast.BlockStmt:
		return in.execStmts(s.Statements, env.Child())

	case *ast.IfStmt:
		cond, err := in.evalCondition(s.Cond, env, "if")
		if err != nil {
			return normal, err
		}
		if cond {
			return in.execStmt(s.Then, env)
		}
		if s.Else != nil {
			return in.execStmt(s.Else, env)
		}
		return normal, nil

	case *ast.WhileStmt:
		return in.execLoop(s.Span, s.Cond, nil, s.Body, env)

	case *ast.ForStmt:
		loopEnv := env.Child()
		if s.Init != nil {
			if _, err := in.execStmt(s.Init, loopEnv); err != nil {
				return normal, err
			}
		}
		return in.execLoop(s.Span, s.Cond, s.Incr, s.Body, loopEnv)

	case *ast.FnStmt:
		env.Define(s.Name, &Function{decl: s, closure: env})
		return normal, nil

	case *ast.ReturnStmt:
		var val Value = NewNull()
		if s.Value != nil {
			v, err := in.evalExpr(s.Value, env)
			if err != nil {
				return normal, err
			}
			val = v
		}
		return outcome{kind: outReturn, value: val}, nil

	case *ast.BreakStmt:
		return outcome{kind: outBreak}, nil

	case *ast.ContinueStmt:
		return outcome{kind: outContinue}, nil

	case *ast.ClassStmt:
		return normal, in.execClass(s, env)

	default:
		return normal, runtimeErr(diagnostics.EInternal, stmt.NodeSpan(), "unsupported statement type: %s", stmt.Kind())
	}
}

// execLoop runs a while or for loop. A nil cond loops until break; incr runs
// after every iteration, including ones ended by continue.
func (in *Interpreter) execLoop(span ast.Span, cond, incr ast.Expr, body ast.Stmt, env *Env) (outcome, error) {
	for {
		if err := in.checkCancelled(span); err != nil {
			return normal, err
		}
		if cond != nil {
			ok, err := in.evalCondition(cond, env, "loop")
			if err != nil {
				return normal, err
			}
			if !ok {
				return normal, nil
			}
		}
		in.tracker.Iterations++

		out, err := in.execStmt(body, env)
		if err != nil {
			return normal, err
		}
		switch out.kind {
		case outReturn:
			return out, nil
		case outBreak:
			return normal, nil
		}

		if incr != nil {
			if _, err := in.evalExpr(incr, env); err != nil {
				return normal, err
			}
		}
	}
}

func (in *Interpreter) evalCondition(expr ast.Expr, env *Env, what string) (bool, error) {
	val, err := in.evalExpr(expr, env)
	if err != nil {
		return false, err
	}
	b, ok := val.(Bool)
	if !ok {
		return false, runtimeErr(diagnostics.EType, expr.NodeSpan(), "%s condition must be a boolean, got %s", what, TypeName(val))
	}
	return b.Value, nil
}

func (in *Interpreter) execClass(s *ast.ClassStmt, env *Env) error {
	env.Define(s.Name, NewNull())

	var superclass *Class
	if s.Superclass != nil {
		val, err := in.evalExpr(s.Superclass, env)
		if err != nil {
			return err
		}
		cls, ok := val.(*Class)
		if !ok {
			return runtimeErr(diagnostics.EType, s.Superclass.Span, "superclass must be a class, got %s", TypeName(val))
		}
		superclass = cls
	}

	class := &Class{
		Name:       s.Name,
		Superclass: superclass,
		Methods:    make(map[string]*Function, len(s.Methods)),
	}
	for _, m := range s.Methods {
		class.Methods[m.Name] = &Function{
			decl:    m,
			closure: env,
			owner:   class,
			isInit:  m.Name == "init",
		}
	}

	if superclass != nil {
		in.logger.Debug("class defined", "name", s.Name, "superclass", superclass.Name, "methods", len(s.Methods))
	} else {
		in.logger.Debug("class defined", "name", s.Name, "methods", len(s.Methods))
	}

	env.Define(s.Name, class)
	return nil
}

func resultJSON(v Value) json.RawMessage {
	return json.RawMessage(ValueToJSONString(v))
}
