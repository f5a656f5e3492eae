package properties

import (
	"fmt"
	"math"
)

// Value is a property value tagged with its kind.
type Value struct {
	kind Kind
	i    int32
	f    float32
	s    string
}

// IntValue returns an integer value.
func IntValue(v int32) Value {
	return Value{kind: KindInteger, i: v}
}

// FloatValue returns a float value.
func FloatValue(v float32) Value {
	return Value{kind: KindFloat, f: v}
}

// StringValue returns a text value.
func StringValue(v string) Value {
	return Value{kind: KindString, s: v}
}

// Zero returns the value a property of kind k has before it was ever sent.
func Zero(k Kind) Value {
	return Value{kind: k}
}

func (v Value) Kind() Kind     { return v.kind }
func (v Value) Int() int32     { return v.i }
func (v Value) Float() float32 { return v.f }
func (v Value) Text() string   { return v.s }

// Wire returns the numeric payload as it goes on the wire. Integers are
// widened to float32, not reinterpreted.
func (v Value) Wire() float32 {
	if v.kind == KindInteger {
		return float32(v.i)
	}
	return v.f
}

// Equal compares two values of the same kind exactly. Floats compare by bit
// pattern: no epsilon, no truncation, and NaN equals itself.
func (v Value) Equal(o Value) bool {
	if v.kind != o.kind {
		return false
	}
	switch v.kind {
	case KindInteger:
		return v.i == o.i
	case KindFloat:
		return math.Float32bits(v.f) == math.Float32bits(o.f)
	case KindString:
		return v.s == o.s
	}
	return true
}

func (v Value) String() string {
	switch v.kind {
	case KindInteger:
		return fmt.Sprintf("%d", v.i)
	case KindFloat:
		return fmt.Sprintf("%g", v.f)
	case KindString:
		return fmt.Sprintf("%q", v.s)
	}
	return "<invalid>"
}
