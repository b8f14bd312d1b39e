// Package stdlib provides the uuu native function registry.
package stdlib

import (
	"sort"

	"github.com/thomasrohde/uuu/pkg/evaluator"
)

// Fn represents a native function.
type Fn struct {
	Name    string
	Arity   int
	Execute evaluator.NativeFunc
}

// Registry holds registered native functions.
type Registry struct {
	fns map[string]*Fn
}

// NewRegistry creates a new empty registry.
func NewRegistry() *Registry {
	return &Registry{
		fns: make(map[string]*Fn),
	}
}

// Register adds a native function to the registry, replacing any function
// with the same name.
func (r *Registry) Register(fn Fn) {
	r.fns[fn.Name] = &fn
}

// Get retrieves a native function by name.
func (r *Registry) Get(name string) *Fn {
	return r.fns[name]
}

// All returns all registered native functions.
func (r *Registry) All() map[string]*Fn {
	return r.fns
}

// Natives converts the registry into callable values ordered by name.
func (r *Registry) Natives() []*evaluator.Native {
	names := make([]string, 0, len(r.fns))
	for name := range r.fns {
		names = append(names, name)
	}
	sort.Strings(names)

	out := make([]*evaluator.Native, len(names))
	for i, name := range names {
		fn := r.fns[name]
		out[i] = &evaluator.Native{Name: fn.Name, Params: fn.Arity, Fn: fn.Execute}
	}
	return out
}
