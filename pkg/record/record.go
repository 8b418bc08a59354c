// Package record defines schemas and values for fixed-field records.
//
// A Schema is an ordered list of named, typed fields. A record is any
// type that exposes one value per field in schema order (Source) and,
// for readers, accepts decoded values back (Target). The file format
// packages (dsv, npy, parquetio) operate purely on these contracts and
// never inspect concrete record types.
package record

import "fmt"

// Kind identifies the scalar type of a field value.
type Kind uint8

const (
	Invalid Kind = iota
	Int8
	Int16
	Int32
	Int64
	Uint8
	Uint16
	Uint32
	Uint64
	Float32
	Float64
	Bool
	String
)

var kindNames = map[Kind]string{
	Int8:    "int8",
	Int16:   "int16",
	Int32:   "int32",
	Int64:   "int64",
	Uint8:   "uint8",
	Uint16:  "uint16",
	Uint32:  "uint32",
	Uint64:  "uint64",
	Float32: "float32",
	Float64: "float64",
	Bool:    "bool",
	String:  "string",
}

var kindCodes = map[Kind]string{
	Int8:    "i1",
	Int16:   "i2",
	Int32:   "i4",
	Int64:   "i8",
	Uint8:   "u1",
	Uint16:  "u2",
	Uint32:  "u4",
	Uint64:  "u8",
	Float32: "f4",
	Float64: "f8",
	Bool:    "b1",
	String:  "str",
}

// String returns the lowercase name of the kind.
func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return "invalid"
}

// Code returns the short width-coded name of the kind ("i2", "f8", "b1").
func (k Kind) Code() string {
	if code, ok := kindCodes[k]; ok {
		return code
	}
	return "invalid"
}

// Size returns the encoded width of the kind in bytes.
// String has no fixed width and reports 0.
func (k Kind) Size() int {
	switch k {
	case Int8, Uint8, Bool:
		return 1
	case Int16, Uint16:
		return 2
	case Int32, Uint32, Float32:
		return 4
	case Int64, Uint64, Float64:
		return 8
	default:
		return 0
	}
}

// Valid reports whether k is a defined kind.
func (k Kind) Valid() bool {
	return k > Invalid && k <= String
}

// Numeric reports whether the kind is an integer or a float.
func (k Kind) Numeric() bool {
	return k >= Int8 && k <= Float64
}

// bitSize returns the strconv bit size for numeric kinds.
func (k Kind) bitSize() int {
	switch k {
	case Int8, Uint8:
		return 8
	case Int16, Uint16:
		return 16
	case Int32, Uint32, Float32:
		return 32
	default:
		return 64
	}
}

// ParseKind maps a kind name ("int16", "float32") or short code
// ("i2", "f4") to its Kind.
func ParseKind(s string) (Kind, error) {
	for k, name := range kindNames {
		if s == name {
			return k, nil
		}
	}
	for k, code := range kindCodes {
		if s == code {
			return k, nil
		}
	}
	return Invalid, fmt.Errorf("unknown kind %q", s)
}

// Field is a named, typed schema entry.
type Field struct {
	Name string
	Kind Kind
}

// Source exposes a record's values for writing. Values returns one
// value per schema field, in schema order. Writers only read the slice
// during the call and never retain it.
type Source interface {
	Schema() Schema
	Values() []Value
}

// Target is a record that a reader can fill. SetValues receives exactly
// one value per schema field, in schema order, and rejects slices of
// the wrong shape.
type Target interface {
	Source
	SetValues(values []Value) error
}
