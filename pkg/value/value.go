// Package value defines the scalar values stored in table rows and produced
// by expression evaluation.
package value

import (
	"strconv"
)

// Value is one of Null, Integer, Double, String or Bool.
// Bool only appears as an expression result and is never stored in a row.
type Value interface {
	Type() Type
	String() string
	isValue()
}

// Null is the absent value.
type Null struct{}

// Integer is a 64-bit signed integer.
type Integer int64

// Double is a 64-bit float.
type Double float64

// String is a byte string.
type String string

// Bool is the result of a predicate.
type Bool bool

func (Null) Type() Type    { return TypeNull }
func (Integer) Type() Type { return TypeInteger }
func (Double) Type() Type  { return TypeDouble }
func (String) Type() Type  { return TypeString }
func (Bool) Type() Type    { return TypeBool }

func (Null) String() string      { return "NULL" }
func (i Integer) String() string { return strconv.FormatInt(int64(i), 10) }
func (d Double) String() string  { return strconv.FormatFloat(float64(d), 'g', -1, 64) }
func (s String) String() string  { return string(s) }
func (b Bool) String() string {
	if b {
		return "TRUE"
	}
	return "FALSE"
}

func (Null) isValue()    {}
func (Integer) isValue() {}
func (Double) isValue()  {}
func (String) isValue()  {}
func (Bool) isValue()    {}

// IsNull reports whether v is NULL. A nil interface counts as NULL.
func IsNull(v Value) bool {
	if v == nil {
		return true
	}
	_, ok := v.(Null)
	return ok
}

// Float returns the numeric payload of v as a float64.
// It returns false for non-numeric values.
func Float(v Value) (float64, bool) {
	switch x := v.(type) {
	case Integer:
		return float64(x), true
	case Double:
		return float64(x), true
	default:
		return 0, false
	}
}

// Native converts v to a Go value suitable for encoding.
func Native(v Value) any {
	switch x := v.(type) {
	case Integer:
		return int64(x)
	case Double:
		return float64(x)
	case String:
		return string(x)
	case Bool:
		return bool(x)
	default:
		return nil
	}
}

// NullRow returns n NULL values.
func NullRow(n int) []Value {
	row := make([]Value, n)
	for i := range row {
		row[i] = Null{}
	}
	return row
}
