package record

import "fmt"

// Dynamic is a schema-driven record for cases where the field layout is
// only known at runtime, such as CLI conversions. It implements both
// Source and Target.
type Dynamic struct {
	schema Schema
	values []Value
}

// NewDynamic returns a Dynamic with every field zero-valued for its kind.
func NewDynamic(schema Schema) *Dynamic {
	values := make([]Value, schema.Len())
	for i := range values {
		values[i] = Zero(schema.Field(i).Kind)
	}
	return &Dynamic{schema: schema, values: values}
}

// Schema returns the record's schema.
func (d *Dynamic) Schema() Schema { return d.schema }

// Values returns the backing value slice in schema order.
// Callers treat it as read-only.
func (d *Dynamic) Values() []Value { return d.values }

// At returns the value at field position i.
func (d *Dynamic) At(i int) Value { return d.values[i] }

// Set stores v at field position i. The value's kind must match the field.
func (d *Dynamic) Set(i int, v Value) error {
	f := d.schema.Field(i)
	if v.Kind() != f.Kind {
		return fmt.Errorf("field %q: kind %s, want %s", f.Name, v.Kind(), f.Kind)
	}
	d.values[i] = v
	return nil
}

// SetValues replaces all field values. It rejects slices whose length
// or kinds do not match the schema.
func (d *Dynamic) SetValues(values []Value) error {
	if err := d.schema.Check(values); err != nil {
		return err
	}
	copy(d.values, values)
	return nil
}
