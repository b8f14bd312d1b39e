package evaluator

// Env is one frame of the lexical environment chain.
// Frames are shared by every closure created while they were active.
type Env struct {
	bindings map[string]Value
	parent   *Env
}

// NewEnv creates a new environment with an optional parent scope.
func NewEnv(parent *Env) *Env {
	return &Env{
		bindings: make(map[string]Value),
		parent:   parent,
	}
}

// Child creates a new child scope whose parent is this environment.
func (e *Env) Child() *Env {
	return NewEnv(e)
}

// Parent returns the enclosing frame, or nil for the outermost one.
func (e *Env) Parent() *Env {
	return e.parent
}

// Define binds name in this frame, overwriting any existing binding.
func (e *Env) Define(name string, val Value) {
	e.bindings[name] = val
}

// GetAt reads name from the frame exactly depth hops outward.
func (e *Env) GetAt(name string, depth int) (Value, bool) {
	frame := e.ancestor(depth)
	if frame == nil {
		return nil, false
	}
	val, ok := frame.bindings[name]
	return val, ok
}

// AssignAt writes name in the frame exactly depth hops outward. It reports
// false when that frame has no such binding.
func (e *Env) AssignAt(name string, val Value, depth int) bool {
	frame := e.ancestor(depth)
	if frame == nil {
		return false
	}
	if _, ok := frame.bindings[name]; !ok {
		return false
	}
	frame.bindings[name] = val
	return true
}

// Get looks up a variable by name, traversing parent scopes.
func (e *Env) Get(name string) (Value, bool) {
	if val, ok := e.bindings[name]; ok {
		return val, true
	}
	if e.parent != nil {
		return e.parent.Get(name)
	}
	return nil, false
}

// Assign overwrites the nearest existing binding of name. It reports false
// when no frame in the chain binds it.
func (e *Env) Assign(name string, val Value) bool {
	for frame := e; frame != nil; frame = frame.parent {
		if _, ok := frame.bindings[name]; ok {
			frame.bindings[name] = val
			return true
		}
	}
	return false
}

// Has checks whether a variable is defined in this scope or any parent.
func (e *Env) Has(name string) bool {
	_, ok := e.Get(name)
	return ok
}

// Names returns the names bound directly in this frame.
func (e *Env) Names() []string {
	names := make([]string, 0, len(e.bindings))
	for name := range e.bindings {
		names = append(names, name)
	}
	return names
}

func (e *Env) ancestor(depth int) *Env {
	frame := e
	for i := 0; i < depth && frame != nil; i++ {
		frame = frame.parent
	}
	return frame
}
