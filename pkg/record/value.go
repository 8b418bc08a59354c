package record

import (
	"fmt"
	"math"
	"strconv"
)

// Value is a single scalar field value: a kind tag plus the payload.
// Numeric payloads are stored as raw bits, so values are comparable
// with ==.
type Value struct {
	kind Kind
	bits uint64
	str  string
}

// Int8Value returns a Value holding v.
func Int8Value(v int8) Value { return Value{kind: Int8, bits: uint64(v)} }

// Int16Value returns a Value holding v.
func Int16Value(v int16) Value { return Value{kind: Int16, bits: uint64(v)} }

// Int32Value returns a Value holding v.
func Int32Value(v int32) Value { return Value{kind: Int32, bits: uint64(v)} }

// Int64Value returns a Value holding v.
func Int64Value(v int64) Value { return Value{kind: Int64, bits: uint64(v)} }

// Uint8Value returns a Value holding v.
func Uint8Value(v uint8) Value { return Value{kind: Uint8, bits: uint64(v)} }

// Uint16Value returns a Value holding v.
func Uint16Value(v uint16) Value { return Value{kind: Uint16, bits: uint64(v)} }

// Uint32Value returns a Value holding v.
func Uint32Value(v uint32) Value { return Value{kind: Uint32, bits: uint64(v)} }

// Uint64Value returns a Value holding v.
func Uint64Value(v uint64) Value { return Value{kind: Uint64, bits: v} }

// Float32Value returns a Value holding v.
func Float32Value(v float32) Value {
	return Value{kind: Float32, bits: uint64(math.Float32bits(v))}
}

// Float64Value returns a Value holding v.
func Float64Value(v float64) Value {
	return Value{kind: Float64, bits: math.Float64bits(v)}
}

// BoolValue returns a Value holding v.
func BoolValue(v bool) Value {
	var bits uint64
	if v {
		bits = 1
	}
	return Value{kind: Bool, bits: bits}
}

// StringValue returns a Value holding v.
func StringValue(v string) Value { return Value{kind: String, str: v} }

// Zero returns the zero value of the given kind.
func Zero(k Kind) Value { return Value{kind: k} }

// Kind returns the value's kind.
func (v Value) Kind() Kind { return v.kind }

// Int returns the payload as a signed integer.
// Meaningful for signed integer kinds only.
func (v Value) Int() int64 { return int64(v.bits) }

// Uint returns the payload as an unsigned integer.
// Meaningful for unsigned integer kinds only.
func (v Value) Uint() uint64 { return v.bits }

// Float returns the payload as a float.
// Meaningful for float kinds only.
func (v Value) Float() float64 {
	if v.kind == Float32 {
		return float64(math.Float32frombits(uint32(v.bits)))
	}
	return math.Float64frombits(v.bits)
}

// Bool returns the payload as a bool.
func (v Value) Bool() bool { return v.bits != 0 }

// Str returns the string payload.
func (v Value) Str() string { return v.str }

// Format renders the value as text. prec is the number of significant
// digits for floats; -1 selects the shortest form that parses back to
// the same value. Strings are rendered verbatim.
func (v Value) Format(prec int) string {
	switch v.kind {
	case Int8, Int16, Int32, Int64:
		return strconv.FormatInt(v.Int(), 10)
	case Uint8, Uint16, Uint32, Uint64:
		return strconv.FormatUint(v.bits, 10)
	case Float32:
		return strconv.FormatFloat(v.Float(), 'g', prec, 32)
	case Float64:
		return strconv.FormatFloat(v.Float(), 'g', prec, 64)
	case Bool:
		return strconv.FormatBool(v.Bool())
	case String:
		return v.str
	default:
		return ""
	}
}

// String implements fmt.Stringer using the shortest float form.
func (v Value) String() string { return v.Format(-1) }

// Parse decodes text into a value of kind k. Integer parsing is
// range-checked for the kind's width.
func Parse(k Kind, text string) (Value, error) {
	switch k {
	case Int8, Int16, Int32, Int64:
		n, err := strconv.ParseInt(text, 10, k.bitSize())
		if err != nil {
			return Value{}, fmt.Errorf("parse %s: %w", k, err)
		}
		return Value{kind: k, bits: uint64(n)}, nil
	case Uint8, Uint16, Uint32, Uint64:
		n, err := strconv.ParseUint(text, 10, k.bitSize())
		if err != nil {
			return Value{}, fmt.Errorf("parse %s: %w", k, err)
		}
		return Value{kind: k, bits: n}, nil
	case Float32:
		f, err := strconv.ParseFloat(text, 32)
		if err != nil {
			return Value{}, fmt.Errorf("parse %s: %w", k, err)
		}
		return Float32Value(float32(f)), nil
	case Float64:
		f, err := strconv.ParseFloat(text, 64)
		if err != nil {
			return Value{}, fmt.Errorf("parse %s: %w", k, err)
		}
		return Float64Value(f), nil
	case Bool:
		b, err := strconv.ParseBool(text)
		if err != nil {
			return Value{}, fmt.Errorf("parse %s: %w", k, err)
		}
		return BoolValue(b), nil
	case String:
		return StringValue(text), nil
	default:
		return Value{}, fmt.Errorf("invalid kind %d", k)
	}
}

// ValueOf converts a native Go scalar to a Value. The second result is
// false for unsupported types.
func ValueOf(v any) (Value, bool) {
	switch x := v.(type) {
	case Value:
		return x, true
	case bool:
		return BoolValue(x), true
	case int8:
		return Int8Value(x), true
	case int16:
		return Int16Value(x), true
	case int32:
		return Int32Value(x), true
	case int64:
		return Int64Value(x), true
	case int:
		return Int64Value(int64(x)), true
	case uint8:
		return Uint8Value(x), true
	case uint16:
		return Uint16Value(x), true
	case uint32:
		return Uint32Value(x), true
	case uint64:
		return Uint64Value(x), true
	case uint:
		return Uint64Value(uint64(x)), true
	case float32:
		return Float32Value(x), true
	case float64:
		return Float64Value(x), true
	case string:
		return StringValue(x), true
	default:
		return Value{}, false
	}
}
