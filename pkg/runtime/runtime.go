// Package runtime provides the top-level uuu pipeline: scan, parse, resolve
// and evaluate against a global frame that persists across runs.
package runtime

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/thomasrohde/uuu/pkg/ast"
	"github.com/thomasrohde/uuu/pkg/diagnostics"
	"github.com/thomasrohde/uuu/pkg/evaluator"
	"github.com/thomasrohde/uuu/pkg/formatter"
	"github.com/thomasrohde/uuu/pkg/parser"
	"github.com/thomasrohde/uuu/pkg/resolver"
	"github.com/thomasrohde/uuu/pkg/stdlib"
)

// Runtime wires together all uuu components for program execution. Each
// Run shares the same global frame, so definitions from earlier runs stay
// visible. A Runtime is not safe for concurrent use.
type Runtime struct {
	stdlib       *stdlib.Registry
	stdout       io.Writer
	runID        string
	trace        func(event evaluator.TraceEvent)
	logger       *slog.Logger
	maxCallDepth int
	interp       *evaluator.Interpreter
}

// Option is a functional option for configuring the Runtime.
type Option func(*Runtime)

// WithStdlib replaces the native registry. The registry is used as given;
// RegisterDefaults is not applied to it.
func WithStdlib(r *stdlib.Registry) Option {
	return func(rt *Runtime) {
		rt.stdlib = r
	}
}

// WithStdout sets where print writes. Defaults to os.Stdout.
func WithStdout(w io.Writer) Option {
	return func(rt *Runtime) {
		rt.stdout = w
	}
}

// WithRunID sets the run ID for trace events.
func WithRunID(id string) Option {
	return func(rt *Runtime) {
		rt.runID = id
	}
}

// WithTrace sets the trace callback.
func WithTrace(fn func(event evaluator.TraceEvent)) Option {
	return func(rt *Runtime) {
		rt.trace = fn
	}
}

// WithLogger sets the structured logger for pipeline and evaluator debug
// output.
func WithLogger(l *slog.Logger) Option {
	return func(rt *Runtime) {
		rt.logger = l
	}
}

// WithMaxCallDepth bounds the number of nested user function calls.
func WithMaxCallDepth(n int) Option {
	return func(rt *Runtime) {
		rt.maxCallDepth = n
	}
}

// New creates a new Runtime with the given options. By default clock and
// print are bound and print writes to os.Stdout.
func New(opts ...Option) *Runtime {
	rt := &Runtime{
		stdout:       os.Stdout,
		runID:        "cli",
		maxCallDepth: evaluator.DefaultMaxCallDepth,
	}
	for _, opt := range opts {
		opt(rt)
	}
	if rt.logger == nil {
		rt.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if rt.stdlib == nil {
		rt.stdlib = stdlib.NewRegistry()
		stdlib.RegisterDefaults(rt.stdlib, rt.stdout)
	}
	rt.interp = evaluator.New(evaluator.ExecOptions{
		Natives: rt.stdlib.Natives(),
		Trace:   rt.trace,
		RunID:   rt.runID,
		Logger:  rt.logger,
		Budget:  evaluator.Budget{MaxCallDepth: rt.maxCallDepth},
	})
	return rt
}

// Run parses, resolves and executes a uuu program. Syntax and scope
// problems are returned as a *DiagnosticError before anything executes;
// runtime failures are returned as *evaluator.RuntimeError.
func (rt *Runtime) Run(ctx context.Context, source, filename string) error {
	start := time.Now()
	rt.emit(evaluator.TraceRunStart, nil, map[string]any{"file": filename})

	err := rt.run(ctx, source, filename)

	data := map[string]any{"durationMs": float64(time.Since(start).Microseconds()) / 1000}
	if err != nil {
		data["error"] = errorCode(err)
	}
	rt.emit(evaluator.TraceRunEnd, nil, data)
	return err
}

func (rt *Runtime) run(ctx context.Context, source, filename string) error {
	program, diags := parser.Parse(source, filename)
	if len(diags) > 0 {
		rt.logger.Debug("parse failed", "file", filename, "code", diags[0].Code)
		return &DiagnosticError{Diagnostics: diags}
	}
	rt.logger.Debug("parsed", "file", filename, "statements", len(program.Statements))

	table, diags := resolver.Resolve(program)
	rt.emit(evaluator.TraceResolve, &program.Span, map[string]any{
		"entries":     table.Len(),
		"diagnostics": len(diags),
	})
	if len(diags) > 0 {
		rt.logger.Debug("resolve failed", "file", filename, "diagnostics", len(diags))
		return &DiagnosticError{Diagnostics: diags}
	}
	rt.logger.Debug("resolved", "file", filename, "entries", table.Len())

	return rt.interp.Execute(ctx, program, table)
}

// Check parses and resolves a uuu program without executing it.
func (rt *Runtime) Check(source, filename string) []diagnostics.Diagnostic {
	program, diags := parser.Parse(source, filename)
	if len(diags) > 0 {
		return diags
	}
	_, diags = resolver.Resolve(program)
	return diags
}

// Format parses a uuu program and renders its debug AST.
func (rt *Runtime) Format(source, filename string) (string, error) {
	program, diags := parser.Parse(source, filename)
	if len(diags) > 0 {
		return "", &DiagnosticError{Diagnostics: diags}
	}
	return formatter.Format(program), nil
}

// Lookup returns the value bound to a global name.
func (rt *Runtime) Lookup(name string) (evaluator.Value, bool) {
	return rt.interp.Global(name)
}

// Globals returns the names bound in the global frame.
func (rt *Runtime) Globals() []string {
	return rt.interp.GlobalNames()
}

// Stats returns the evaluator's accumulated resource counters.
func (rt *Runtime) Stats() evaluator.BudgetTracker {
	return rt.interp.Stats()
}

func (rt *Runtime) emit(event evaluator.TraceEventType, span *ast.Span, data map[string]any) {
	if rt.trace != nil {
		rt.trace(evaluator.NewTraceEvent(event, rt.runID, span, data))
	}
}

func errorCode(err error) string {
	switch e := err.(type) {
	case *DiagnosticError:
		if len(e.Diagnostics) > 0 {
			return e.Diagnostics[0].Code
		}
	case *evaluator.RuntimeError:
		return e.Code
	}
	return diagnostics.EInternal
}

// DiagnosticError wraps diagnostics as an error.
type DiagnosticError struct {
	Diagnostics []diagnostics.Diagnostic
}

func (e *DiagnosticError) Error() string {
	msgs := make([]string, len(e.Diagnostics))
	for i, d := range e.Diagnostics {
		msgs[i] = fmt.Sprintf("%s: %s", d.Code, d.Message)
	}
	return strings.Join(msgs, "; ")
}

// Incomplete reports whether the diagnostics describe input that ended
// before a construct was closed, such as an open block or string.
func (e *DiagnosticError) Incomplete() bool {
	return parser.IsIncomplete(e.Diagnostics)
}
