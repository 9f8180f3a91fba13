// Package runtime implements the evaluator and runtime value system for Kaulin.
package runtime

import (
	"math"
	"strconv"
	"strings"

	"kaulin/internal/ast"
)

// Value is the interface for all runtime values.
type Value interface {
	TypeName() string
	String() string
}

// ---- Primitive values ----

// NullVal is the value of `tyhjä` and of statements without a result.
type NullVal struct{}

func (NullVal) TypeName() string { return "tyhjä" }
func (NullVal) String() string   { return "tyhjä" }

// BoolVal represents a boolean value.
type BoolVal bool

func (v BoolVal) TypeName() string { return "totuusarvo" }
func (v BoolVal) String() string {
	if v {
		return "tosi"
	}
	return "epätosi"
}

// NumberVal is the single numeric type; integers are floats with no fraction.
type NumberVal float64

func (v NumberVal) TypeName() string { return "luku" }
func (v NumberVal) String() string   { return formatNumber(float64(v)) }

// IsIntegral reports whether v has no fractional part.
func (v NumberVal) IsIntegral() bool {
	f := float64(v)
	return !math.IsInf(f, 0) && f == math.Trunc(f)
}

// StringVal represents a string value.
type StringVal string

func (v StringVal) TypeName() string { return "merkkijono" }
func (v StringVal) String() string   { return string(v) }

// ---- Composite values ----

// ArrayVal represents an array. Natives never modify Elements in place.
type ArrayVal struct {
	Elements []Value
}

func (v *ArrayVal) TypeName() string { return "lista" }
func (v *ArrayVal) String() string {
	parts := make([]string, len(v.Elements))
	for i, elem := range v.Elements {
		parts[i] = nested(elem)
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

// ObjectVal is an object with properties kept in insertion order.
type ObjectVal struct {
	Keys  []string
	Props map[string]Value
}

// NewObject creates an empty object.
func NewObject() *ObjectVal {
	return &ObjectVal{Props: make(map[string]Value)}
}

// Set adds or replaces a property. Only object literal construction calls it.
func (v *ObjectVal) Set(key string, val Value) {
	if _, exists := v.Props[key]; !exists {
		v.Keys = append(v.Keys, key)
	}
	v.Props[key] = val
}

// Get returns the property named key.
func (v *ObjectVal) Get(key string) (Value, bool) {
	val, ok := v.Props[key]
	return val, ok
}

func (v *ObjectVal) TypeName() string { return "objekti" }
func (v *ObjectVal) String() string {
	parts := make([]string, len(v.Keys))
	for i, k := range v.Keys {
		parts[i] = k + ": " + nested(v.Props[k])
	}
	return "{" + strings.Join(parts, ", ") + "}"
}

// ---- Callable values ----

// FuncVal is a user-defined function together with the frame it was declared in.
type FuncVal struct {
	Name    string
	Params  []string
	Body    *ast.Block
	Closure *Environment
}

func (v *FuncVal) TypeName() string { return "funktio" }
func (v *FuncVal) String() string {
	return "funktio(" + strings.Join(v.Params, ", ") + ")"
}

// Bindings is the read-only view of the caller's scope handed to native functions.
type Bindings interface {
	Lookup(name string) (Value, error)
	Snapshot() map[string]Value
}

// NativeFn is the Go signature for native functions.
type NativeFn func(args []Value, caller Bindings) (Value, error)

// NativeFuncVal wraps a Go function callable from Kaulin code.
type NativeFuncVal struct {
	Name string
	Fn   NativeFn
}

func (v *NativeFuncVal) TypeName() string { return "natiivifunktio" }
func (v *NativeFuncVal) String() string   { return "<natiivi " + v.Name + ">" }

// ---- Truthiness ----

// IsTruthy is the loop-condition truthiness: tyhjä and epätosi are false, numbers
// are true when non-zero, strings when non-empty, everything else is true.
func IsTruthy(v Value) bool {
	switch val := v.(type) {
	case NullVal:
		return false
	case BoolVal:
		return bool(val)
	case NumberVal:
		return val != 0
	case StringVal:
		return val != ""
	default:
		return true
	}
}

// ---- Display helpers ----

// formatNumber prints the shortest representation without a trailing ".0".
func formatNumber(f float64) string {
	if f == 0 {
		return "0" // also -0
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// nested renders a value inside a container; strings get quoted there.
func nested(v Value) string {
	if s, ok := v.(StringVal); ok {
		return `"` + string(s) + `"`
	}
	return v.String()
}

// JoinValues formats a slice of values with a separator.
func JoinValues(vals []Value, sep string) string {
	parts := make([]string, len(vals))
	for i, v := range vals {
		parts[i] = v.String()
	}
	return strings.Join(parts, sep)
}
