package record

import (
	"errors"
	"fmt"
	"strings"
)

// Schema is an immutable, ordered list of fields. The zero value is an
// empty schema and is rejected by all writers and readers.
type Schema struct {
	fields []Field
	index  map[string]int
}

// NewSchema builds a schema from the given fields. It fails on an empty
// field list, an empty or duplicate name, or an invalid kind.
func NewSchema(fields ...Field) (Schema, error) {
	if len(fields) == 0 {
		return Schema{}, errors.New("schema has no fields")
	}

	fs := make([]Field, len(fields))
	copy(fs, fields)

	index := make(map[string]int, len(fs))
	for i, f := range fs {
		if f.Name == "" {
			return Schema{}, fmt.Errorf("field %d has an empty name", i)
		}
		if !f.Kind.Valid() {
			return Schema{}, fmt.Errorf("field %q has an invalid kind", f.Name)
		}
		if _, ok := index[f.Name]; ok {
			return Schema{}, fmt.Errorf("duplicate field name %q", f.Name)
		}
		index[f.Name] = i
	}

	return Schema{fields: fs, index: index}, nil
}

// MustSchema is like NewSchema but panics on error.
// Intended for schemas built from literals.
func MustSchema(fields ...Field) Schema {
	s, err := NewSchema(fields...)
	if err != nil {
		panic(err)
	}
	return s
}

// ParseSchema builds a schema from a "name:kind,..." spec, for example
// "x:int16,b:float32" or "x:i2,b:f4".
func ParseSchema(spec string) (Schema, error) {
	parts := strings.Split(spec, ",")
	fields := make([]Field, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		name, kindName, ok := strings.Cut(part, ":")
		if !ok {
			return Schema{}, fmt.Errorf("field %q: want name:kind", part)
		}
		kind, err := ParseKind(strings.TrimSpace(kindName))
		if err != nil {
			return Schema{}, fmt.Errorf("field %q: %w", name, err)
		}
		fields = append(fields, Field{Name: strings.TrimSpace(name), Kind: kind})
	}
	return NewSchema(fields...)
}

// Len returns the number of fields.
func (s Schema) Len() int {
	return len(s.fields)
}

// Field returns the field at position i.
func (s Schema) Field(i int) Field {
	return s.fields[i]
}

// Fields returns a copy of the field list.
func (s Schema) Fields() []Field {
	fs := make([]Field, len(s.fields))
	copy(fs, s.fields)
	return fs
}

// Names returns the field names in schema order.
func (s Schema) Names() []string {
	names := make([]string, len(s.fields))
	for i, f := range s.fields {
		names[i] = f.Name
	}
	return names
}

// Index returns the position of the named field.
func (s Schema) Index(name string) (int, bool) {
	i, ok := s.index[name]
	return i, ok
}

// Width returns the encoded record width in bytes. The second result is
// false if the schema contains variable-width (string) fields.
func (s Schema) Width() (int, bool) {
	width := 0
	for _, f := range s.fields {
		size := f.Kind.Size()
		if size == 0 {
			return 0, false
		}
		width += size
	}
	return width, true
}

// Equal reports whether both schemas have the same fields in the same order.
func (s Schema) Equal(other Schema) bool {
	if len(s.fields) != len(other.fields) {
		return false
	}
	for i, f := range s.fields {
		if other.fields[i] != f {
			return false
		}
	}
	return true
}

// Check validates that values has one value per field, each with the
// field's kind.
func (s Schema) Check(values []Value) error {
	if len(values) != len(s.fields) {
		return fmt.Errorf("got %d values, want %d", len(values), len(s.fields))
	}
	for i, v := range values {
		if v.Kind() != s.fields[i].Kind {
			return fmt.Errorf("field %q: kind %s, want %s", s.fields[i].Name, v.Kind(), s.fields[i].Kind)
		}
	}
	return nil
}

// String renders the schema as a "name:kind,..." spec.
func (s Schema) String() string {
	var b strings.Builder
	for i, f := range s.fields {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(f.Name)
		b.WriteByte(':')
		b.WriteString(f.Kind.String())
	}
	return b.String()
}
