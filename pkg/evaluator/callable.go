package evaluator

import (
	"github.com/thomasrohde/uuu/pkg/ast"
)

// Callable is implemented by every value that can appear as a callee.
type Callable interface {
	Value
	Arity() int
}

// NativeFunc is the Go implementation behind a native callable. Returning a
// *RuntimeError reports a uuu runtime error; any other error is wrapped.
type NativeFunc func(args []Value) (Value, error)

// Native is a host-provided callable such as clock or print.
type Native struct {
	Name   string
	Params int
	Fn     NativeFunc
}

func (*Native) uuuValue() {}

// Arity returns the number of arguments the native expects.
func (n *Native) Arity() int { return n.Params }

// Function is a user-defined function or method together with the frame it
// closes over.
type Function struct {
	decl    *ast.FnStmt
	closure *Env
	// owner is the class declaring the method, nil for plain functions.
	owner  *Class
	isInit bool
}

func (*Function) uuuValue() {}

// Arity returns the declared parameter count.
func (f *Function) Arity() int { return len(f.decl.Params) }

// Name returns the declared function name.
func (f *Function) Name() string { return f.decl.Name }

// Bind returns a copy of the method whose closure fixes self to instance.
// When the declaring class has a superclass, a frame binding super sits
// between the method's closure and the self frame.
func (f *Function) Bind(instance *Instance) *Function {
	env := f.closure
	if f.owner != nil && f.owner.Superclass != nil {
		env = env.Child()
		env.Define("super", f.owner.Superclass)
	}
	env = env.Child()
	env.Define("self", instance)
	return &Function{decl: f.decl, closure: env, owner: f.owner, isInit: f.isInit}
}

// Class is a user-defined class. Methods maps names to unbound methods.
type Class struct {
	Name       string
	Superclass *Class
	Methods    map[string]*Function
}

func (*Class) uuuValue() {}

// FindMethod looks name up in this class and then its ancestors.
func (c *Class) FindMethod(name string) (*Function, bool) {
	for cls := c; cls != nil; cls = cls.Superclass {
		if m, ok := cls.Methods[name]; ok {
			return m, true
		}
	}
	return nil, false
}

// Arity returns the arity of the class's init method, or zero without one.
func (c *Class) Arity() int {
	if init, ok := c.FindMethod("init"); ok {
		return init.Arity()
	}
	return 0
}

// Instance is an object created by calling a class.
type Instance struct {
	Class  *Class
	Fields map[string]Value
}

func (*Instance) uuuValue() {}

// NewInstance allocates an instance of class with no fields.
func NewInstance(class *Class) *Instance {
	return &Instance{Class: class, Fields: make(map[string]Value)}
}

// Get returns a field, or else a method bound to the instance.
func (i *Instance) Get(name string) (Value, bool) {
	if v, ok := i.Fields[name]; ok {
		return v, true
	}
	if m, ok := i.Class.FindMethod(name); ok {
		return m.Bind(i), true
	}
	return nil, false
}

// Set writes a field. Fields need not be declared.
func (i *Instance) Set(name string, val Value) {
	i.Fields[name] = val
}
