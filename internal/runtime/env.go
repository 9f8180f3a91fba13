package runtime

import (
	"kaulin/internal/diag"
	"kaulin/internal/span"
)

// Environment is one frame of the scope chain. Frames are shared by pointer, so a
// closure sees later assignments to the variables it captured.
type Environment struct {
	values map[string]Value
	consts map[string]bool // names declared with vakio or funktio
	parent *Environment
}

// NewEnvironment creates a new frame with an optional parent.
func NewEnvironment(parent *Environment) *Environment {
	return &Environment{
		values: make(map[string]Value),
		consts: make(map[string]bool),
		parent: parent,
	}
}

// Parent returns the enclosing frame, or nil for the root.
func (e *Environment) Parent() *Environment {
	return e.parent
}

// Declare binds name in this frame. A name may be declared once per frame.
func (e *Environment) Declare(name string, value Value, isConst bool) error {
	if _, exists := e.values[name]; exists {
		return diag.Errorf(diag.Name, "E3001", span.Span{}, "'%s' is already declared in this scope", name)
	}
	e.values[name] = value
	if isConst {
		e.consts[name] = true
	}
	return nil
}

// Assign rebinds the nearest visible declaration of name.
func (e *Environment) Assign(name string, value Value) error {
	env := e.resolve(name)
	if env == nil {
		return diag.Errorf(diag.Name, "E3002", span.Span{}, "'%s' is not declared", name).
			WithHint("declare it first with olkoon")
	}
	if env.consts[name] {
		return diag.Errorf(diag.Name, "E3003", span.Span{}, "cannot assign to constant '%s'", name)
	}
	env.values[name] = value
	return nil
}

// Lookup returns the value of the nearest visible declaration of name.
func (e *Environment) Lookup(name string) (Value, error) {
	env := e.resolve(name)
	if env == nil {
		return nil, diag.Errorf(diag.Name, "E3002", span.Span{}, "'%s' is not declared", name)
	}
	return env.values[name], nil
}

// IsConstant reports whether the nearest declaration of name is constant.
func (e *Environment) IsConstant(name string) bool {
	env := e.resolve(name)
	return env != nil && env.consts[name]
}

// Snapshot flattens every visible binding; inner frames shadow outer ones.
func (e *Environment) Snapshot() map[string]Value {
	out := make(map[string]Value)
	for env := e; env != nil; env = env.parent {
		for name, val := range env.values {
			if _, shadowed := out[name]; !shadowed {
				out[name] = val
			}
		}
	}
	return out
}

func (e *Environment) resolve(name string) *Environment {
	for env := e; env != nil; env = env.parent {
		if _, exists := env.values[name]; exists {
			return env
		}
	}
	return nil
}
