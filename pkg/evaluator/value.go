// Package evaluator implements the uuu tree-walking interpreter.
package evaluator

import (
	"math"
	"strconv"
)

// Value is the interface for all uuu runtime values.
// Use the sealed marker method to restrict implementations to this package.
type Value interface {
	uuuValue() // sealed marker
}

// Null represents the null value.
type Null struct{}

func (Null) uuuValue() {}

// Bool represents a boolean value.
type Bool struct {
	Value bool
}

func (Bool) uuuValue() {}

// Number represents a numeric value. All numbers are float64.
type Number struct {
	Value float64
}

func (Number) uuuValue() {}

// String represents a string value.
type String struct {
	Value string
}

func (String) uuuValue() {}

// NewNull creates a null value.
func NewNull() Value {
	return Null{}
}

// NewBool creates a boolean value.
func NewBool(b bool) Value {
	return Bool{Value: b}
}

// NewNumber creates a numeric value.
func NewNumber(n float64) Value {
	return Number{Value: n}
}

// NewString creates a string value.
func NewString(s string) Value {
	return String{Value: s}
}

// TypeName returns the user-facing name of a value's kind.
func TypeName(v Value) string {
	switch v.(type) {
	case nil, Null:
		return "null"
	case Bool:
		return "boolean"
	case Number:
		return "number"
	case String:
		return "string"
	case *Native, *Function:
		return "function"
	case *Class:
		return "class"
	case *Instance:
		return "instance"
	default:
		return "unknown"
	}
}

// Stringify renders a value the way print shows it.
func Stringify(v Value) string {
	switch val := v.(type) {
	case nil, Null:
		return "null"
	case Bool:
		if val.Value {
			return "true"
		}
		return "false"
	case Number:
		return formatNumber(val.Value)
	case String:
		return val.Value
	case *Native:
		return "<native fn: " + val.Name + ">"
	case *Function:
		return "<fn: " + val.Name() + ">"
	case *Class:
		return "<class: " + val.Name + ">"
	case *Instance:
		return "<instance of: " + val.Class.Name + ">"
	default:
		return "<unknown>"
	}
}

// formatNumber prints integral values without a fractional part and
// everything else in the shortest form that round-trips.
func formatNumber(n float64) string {
	switch {
	case math.IsNaN(n):
		return "NaN"
	case math.IsInf(n, 1):
		return "Infinity"
	case math.IsInf(n, -1):
		return "-Infinity"
	}
	if n == math.Trunc(n) && math.Abs(n) < 1e21 {
		return strconv.FormatFloat(n, 'f', -1, 64)
	}
	return strconv.FormatFloat(n, 'g', -1, 64)
}

// Equal compares two values. Primitives compare by value, callables and
// instances by identity; values of different kinds are never equal.
func Equal(a, b Value) bool {
	switch x := a.(type) {
	case nil, Null:
		switch b.(type) {
		case nil, Null:
			return true
		}
		return false
	case Bool:
		y, ok := b.(Bool)
		return ok && x.Value == y.Value
	case Number:
		y, ok := b.(Number)
		return ok && x.Value == y.Value
	case String:
		y, ok := b.(String)
		return ok && x.Value == y.Value
	case *Native:
		y, ok := b.(*Native)
		return ok && x == y
	case *Function:
		y, ok := b.(*Function)
		return ok && x == y
	case *Class:
		y, ok := b.(*Class)
		return ok && x == y
	case *Instance:
		y, ok := b.(*Instance)
		return ok && x == y
	default:
		return false
	}
}
