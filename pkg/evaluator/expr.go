package evaluator

import (
	"errors"

	"github.com/thomasrohde/uuu/pkg/ast"
	"github.com/thomasrohde/uuu/pkg/diagnostics"
)

func (in *Interpreter) evalExpr(expr ast.Expr, env *Env) (Value, error) {
	switch e := expr.(type) {
	case *ast.NumberLiteral:
		return NewNumber(e.Value), nil

	case *ast.StringLiteral:
		return NewString(e.Value), nil

	case *ast.BoolLiteral:
		return NewBool(e.Value), nil

	case *ast.NullLiteral:
		return NewNull(), nil

	case *ast.GroupingExpr:
		return in.evalExpr(e.Expr, env)

	case *ast.UnaryExpr:
		return in.evalUnary(e, env)

	case *ast.BinaryExpr:
		return in.evalBinaryOp(e, env)

	case *ast.LogicalExpr:
		return in.evalLogical(e, env)

	case *ast.TernaryExpr:
		cond, err := in.evalCondition(e.Cond, env, "ternary")
		if err != nil {
			return nil, err
		}
		if cond {
			return in.evalExpr(e.Then, env)
		}
		return in.evalExpr(e.Else, env)

	case *ast.VariableExpr:
		return in.lookUp(e, e.Name, e.Span, env)

	case *ast.AssignExpr:
		val, err := in.evalExpr(e.Value, env)
		if err != nil {
			return nil, err
		}
		if depth, ok := in.locals[e]; ok {
			if !env.AssignAt(e.Name, val, depth) {
				return nil, unboundAtDepth(e.Name, depth, e.Span)
			}
			return val, nil
		}
		if !in.globals.Assign(e.Name, val) {
			return nil, runtimeErr(diagnostics.EUndefined, e.Span, "undefined variable '%s'", e.Name)
		}
		return val, nil

	case *ast.CallExpr:
		return in.evalCall(e, env)

	case *ast.GetExpr:
		obj, err := in.evalExpr(e.Object, env)
		if err != nil {
			return nil, err
		}
		inst, ok := obj.(*Instance)
		if !ok {
			return nil, runtimeErr(diagnostics.ENotInstance, e.Span, "only instances have properties, got %s", TypeName(obj))
		}
		val, ok := inst.Get(e.Name)
		if !ok {
			return nil, runtimeErr(diagnostics.EUndefinedProperty, e.Span, "undefined property '%s' on %s", e.Name, Stringify(inst))
		}
		return val, nil

	case *ast.SetExpr:
		obj, err := in.evalExpr(e.Object, env)
		if err != nil {
			return nil, err
		}
		inst, ok := obj.(*Instance)
		if !ok {
			return nil, runtimeErr(diagnostics.ENotInstance, e.Span, "only instances have fields, got %s", TypeName(obj))
		}
		val, err := in.evalExpr(e.Value, env)
		if err != nil {
			return nil, err
		}
		inst.Set(e.Name, val)
		return val, nil

	case *ast.SelfExpr:
		return in.lookUp(e, "self", e.Span, env)

	case *ast.SuperExpr:
		return in.evalSuper(e, env)

	default:
		return nil, runtimeErr(diagnostics.EInternal, expr.NodeSpan(), "unsupported expression type: %s", expr.Kind())
	}
}

// lookUp reads a resolved name at its recorded depth, or from the global
// frame when the resolver left it unrecorded.
func (in *Interpreter) lookUp(expr ast.Expr, name string, span ast.Span, env *Env) (Value, error) {
	var (
		val Value
		ok  bool
	)
	if depth, resolved := in.locals[expr]; resolved {
		if val, ok = env.GetAt(name, depth); !ok {
			return nil, unboundAtDepth(name, depth, span)
		}
		return val, nil
	}
	if val, ok = in.globals.Get(name); !ok {
		return nil, runtimeErr(diagnostics.EUndefined, span, "undefined variable '%s'", name)
	}
	return val, nil
}

// unboundAtDepth reports a resolved name missing from its recorded frame.
func unboundAtDepth(name string, depth int, span ast.Span) *RuntimeError {
	return runtimeErr(diagnostics.EInternal, span, "resolved variable '%s' not found at depth %d", name, depth)
}

func (in *Interpreter) evalSuper(e *ast.SuperExpr, env *Env) (Value, error) {
	depth, ok := in.locals[e]
	if !ok {
		return nil, runtimeErr(diagnostics.EInternal, e.Span, "unresolved 'super'")
	}
	superVal, _ := env.GetAt("super", depth)
	superclass, ok := superVal.(*Class)
	if !ok {
		return nil, runtimeErr(diagnostics.EInternal, e.Span, "'super' is not bound to a class")
	}
	// The self frame is always the one directly inside the super frame.
	selfVal, _ := env.GetAt("self", depth-1)
	instance, ok := selfVal.(*Instance)
	if !ok {
		return nil, runtimeErr(diagnostics.EInternal, e.Span, "'self' is not bound to an instance")
	}

	method, ok := superclass.FindMethod(e.Method)
	if !ok {
		return nil, runtimeErr(diagnostics.EUndefinedProperty, e.Span, "undefined property '%s' on superclass %s", e.Method, superclass.Name)
	}
	return method.Bind(instance), nil
}

func (in *Interpreter) evalUnary(e *ast.UnaryExpr, env *Env) (Value, error) {
	operand, err := in.evalExpr(e.Operand, env)
	if err != nil {
		return nil, err
	}
	switch e.Op {
	case ast.OpNeg:
		n, ok := operand.(Number)
		if !ok {
			return nil, runtimeErr(diagnostics.EType, e.Span, "operand of unary '-' must be a number, got %s", TypeName(operand))
		}
		return NewNumber(-n.Value), nil
	case ast.OpNot:
		b, ok := operand.(Bool)
		if !ok {
			return nil, runtimeErr(diagnostics.EType, e.Span, "operand of '!' must be a boolean, got %s", TypeName(operand))
		}
		return NewBool(!b.Value), nil
	}
	return nil, runtimeErr(diagnostics.EInternal, e.Span, "unknown unary operator %s", e.Op)
}

func (in *Interpreter) evalLogical(e *ast.LogicalExpr, env *Env) (Value, error) {
	left, err := in.evalExpr(e.Left, env)
	if err != nil {
		return nil, err
	}
	b, ok := left.(Bool)
	if !ok {
		return nil, runtimeErr(diagnostics.EType, e.Left.NodeSpan(), "left operand of '%s' must be a boolean, got %s", e.Op, TypeName(left))
	}
	if e.Op == ast.OpOr && b.Value {
		return left, nil
	}
	if e.Op == ast.OpAnd && !b.Value {
		return left, nil
	}
	return in.evalExpr(e.Right, env)
}

func (in *Interpreter) evalBinaryOp(e *ast.BinaryExpr, env *Env) (Value, error) {
	left, err := in.evalExpr(e.Left, env)
	if err != nil {
		return nil, err
	}
	right, err := in.evalExpr(e.Right, env)
	if err != nil {
		return nil, err
	}

	switch e.Op {
	case ast.OpEqEq:
		return NewBool(Equal(left, right)), nil
	case ast.OpNeq:
		return NewBool(!Equal(left, right)), nil
	case ast.OpAdd:
		if ls, ok := left.(String); ok {
			if rs, ok := right.(String); ok {
				return NewString(ls.Value + rs.Value), nil
			}
		}
		if ln, ok := left.(Number); ok {
			if rn, ok := right.(Number); ok {
				return NewNumber(ln.Value + rn.Value), nil
			}
		}
		return nil, runtimeErr(diagnostics.EType, e.Span,
			"operands of '+' must be two numbers or two strings, got %s and %s", TypeName(left), TypeName(right))
	}

	ln, lok := left.(Number)
	rn, rok := right.(Number)
	if !lok || !rok {
		return nil, runtimeErr(diagnostics.EType, e.Span,
			"operands of '%s' must be numbers, got %s and %s", e.Op, TypeName(left), TypeName(right))
	}

	switch e.Op {
	case ast.OpSub:
		return NewNumber(ln.Value - rn.Value), nil
	case ast.OpMul:
		return NewNumber(ln.Value * rn.Value), nil
	case ast.OpDiv:
		return NewNumber(ln.Value / rn.Value), nil
	case ast.OpGt:
		return NewBool(ln.Value > rn.Value), nil
	case ast.OpGtEq:
		return NewBool(ln.Value >= rn.Value), nil
	case ast.OpLt:
		return NewBool(ln.Value < rn.Value), nil
	case ast.OpLtEq:
		return NewBool(ln.Value <= rn.Value), nil
	}
	return nil, runtimeErr(diagnostics.EInternal, e.Span, "unknown binary operator %s", e.Op)
}

// --- Calls ---

func (in *Interpreter) evalCall(e *ast.CallExpr, env *Env) (Value, error) {
	callee, err := in.evalExpr(e.Callee, env)
	if err != nil {
		return nil, err
	}
	args := make([]Value, 0, len(e.Args))
	for _, a := range e.Args {
		v, err := in.evalExpr(a, env)
		if err != nil {
			return nil, err
		}
		args = append(args, v)
	}

	fn, ok := callee.(Callable)
	if !ok {
		return nil, runtimeErr(diagnostics.ENotCallable, e.Span, "can only call functions and classes, got %s", TypeName(callee))
	}
	if fn.Arity() != len(args) {
		return nil, runtimeErr(diagnostics.EArity, e.Span,
			"%s expected %d %s but got %d", Stringify(callee), fn.Arity(), plural(fn.Arity()), len(args))
	}
	if err := in.checkCancelled(e.Span); err != nil {
		return nil, err
	}

	switch c := fn.(type) {
	case *Native:
		return in.callNative(c, args, e.Span)
	case *Function:
		return in.callFunction(c, args, e.Span)
	case *Class:
		return in.instantiate(c, args, e.Span)
	}
	return nil, runtimeErr(diagnostics.ENotCallable, e.Span, "can only call functions and classes, got %s", TypeName(callee))
}

func plural(n int) string {
	if n == 1 {
		return "argument"
	}
	return "arguments"
}

func (in *Interpreter) callNative(n *Native, args []Value, span ast.Span) (Value, error) {
	in.tracker.Calls++
	val, err := n.Fn(args)
	if err != nil {
		var rtErr *RuntimeError
		if errors.As(err, &rtErr) {
			if rtErr.Span == nil {
				rtErr.Span = &span
			}
			return nil, rtErr
		}
		return nil, runtimeErr(diagnostics.EIO, span, "%s failed: %v", n.Name, err)
	}
	if val == nil {
		val = NewNull()
	}
	return val, nil
}

// callFunction runs fn's body in a fresh frame holding the parameters.
// Body locals share that frame.
func (in *Interpreter) callFunction(fn *Function, args []Value, span ast.Span) (Value, error) {
	if in.tracker.CallDepth >= in.opts.Budget.maxCallDepth() {
		return nil, runtimeErr(diagnostics.EStackOverflow, span, "maximum call depth exceeded (%d)", in.opts.Budget.maxCallDepth())
	}
	in.tracker.CallDepth++
	in.tracker.Calls++
	if in.tracker.CallDepth > in.tracker.MaxDepthSeen {
		in.tracker.MaxDepthSeen = in.tracker.CallDepth
	}
	defer func() { in.tracker.CallDepth-- }()

	in.logger.Debug("call", "fn", fn.Name(), "args", len(args), "depth", in.tracker.CallDepth)
	var start int64
	if in.opts.Trace != nil {
		start = hiresNow()
		in.emit(TraceCallStart, &span, map[string]any{"fn": fn.Name(), "arity": fn.Arity(), "depth": in.tracker.CallDepth})
	}

	env := fn.closure.Child()
	for i, param := range fn.decl.Params {
		env.Define(param.Name, args[i])
	}
	out, err := in.execStmts(fn.decl.Body, env)
	if err != nil {
		return nil, err
	}

	var result Value = NewNull()
	switch {
	case fn.isInit:
		result, _ = fn.closure.GetAt("self", 0)
	case out.kind == outReturn:
		result = out.value
	}

	if in.opts.Trace != nil {
		in.emit(TraceCallEnd, &span, map[string]any{
			"fn":         fn.Name(),
			"durationMs": hiresSinceMs(start),
			"result":     resultJSON(result),
		})
	}
	return result, nil
}

// instantiate creates an instance and runs init on it when the class or an
// ancestor defines one. The call evaluates to the instance.
func (in *Interpreter) instantiate(class *Class, args []Value, span ast.Span) (Value, error) {
	instance := NewInstance(class)
	if init, ok := class.FindMethod("init"); ok {
		if _, err := in.callFunction(init.Bind(instance), args, span); err != nil {
			return nil, err
		}
	}
	return instance, nil
}
