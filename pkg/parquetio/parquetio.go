// Package parquetio moves records between the record contract and
// Apache Parquet files. It adapts schemas field by field, so parquet
// files written by other tools can be read as long as the named
// columns exist with compatible types.
package parquetio

import (
	"fmt"

	"github.com/parquet-go/parquet-go"

	"github.com/nharbeck/rowio/pkg/record"
)

// rootName is the name of the parquet root group.
const rootName = "record"

// buildSchema converts a record schema to a parquet schema. Parquet
// sorts group fields by name, so callers must resolve column indexes
// through the returned schema instead of assuming field order.
func buildSchema(schema record.Schema) (*parquet.Schema, error) {
	group := parquet.Group{}
	for _, f := range schema.Fields() {
		node, err := fieldNode(f.Kind)
		if err != nil {
			return nil, fmt.Errorf("field %q: %w", f.Name, err)
		}
		group[f.Name] = node
	}
	return parquet.NewSchema(rootName, group), nil
}

// fieldNode maps a kind to a required parquet node.
func fieldNode(k record.Kind) (parquet.Node, error) {
	switch k {
	case record.Int8:
		return parquet.Int(8), nil
	case record.Int16:
		return parquet.Int(16), nil
	case record.Int32:
		return parquet.Int(32), nil
	case record.Int64:
		return parquet.Int(64), nil
	case record.Uint8:
		return parquet.Uint(8), nil
	case record.Uint16:
		return parquet.Uint(16), nil
	case record.Uint32:
		return parquet.Uint(32), nil
	case record.Uint64:
		return parquet.Uint(64), nil
	case record.Float32:
		return parquet.Leaf(parquet.FloatType), nil
	case record.Float64:
		return parquet.Leaf(parquet.DoubleType), nil
	case record.Bool:
		return parquet.Leaf(parquet.BooleanType), nil
	case record.String:
		return parquet.String(), nil
	default:
		return nil, fmt.Errorf("kind %s has no parquet type", k)
	}
}

// resolveColumns maps each schema field to its leaf column index in the
// parquet schema. Extra parquet columns are tolerated; a missing schema
// field is an error.
func resolveColumns(pq *parquet.Schema, schema record.Schema) ([]int, error) {
	byName := make(map[string]int)
	for i, field := range pq.Fields() {
		byName[field.Name()] = i
	}

	cols := make([]int, schema.Len())
	for i, f := range schema.Fields() {
		col, ok := byName[f.Name]
		if !ok {
			return nil, fmt.Errorf("parquet schema missing column %q", f.Name)
		}
		cols[i] = col
	}
	return cols, nil
}

// parquetValue converts a record value to its parquet representation.
func parquetValue(v record.Value) parquet.Value {
	switch v.Kind() {
	case record.Int8, record.Int16, record.Int32:
		return parquet.Int32Value(int32(v.Int()))
	case record.Int64:
		return parquet.Int64Value(v.Int())
	case record.Uint8, record.Uint16, record.Uint32:
		return parquet.Int32Value(int32(uint32(v.Uint())))
	case record.Uint64:
		return parquet.Int64Value(int64(v.Uint()))
	case record.Float32:
		return parquet.FloatValue(float32(v.Float()))
	case record.Float64:
		return parquet.DoubleValue(v.Float())
	case record.Bool:
		return parquet.BooleanValue(v.Bool())
	case record.String:
		return parquet.ByteArrayValue([]byte(v.Str()))
	default:
		return parquet.NullValue()
	}
}

// recordValue converts a parquet value to a record value of the kind.
func recordValue(k record.Kind, v parquet.Value) record.Value {
	switch k {
	case record.Int8:
		return record.Int8Value(int8(v.Int32()))
	case record.Int16:
		return record.Int16Value(int16(v.Int32()))
	case record.Int32:
		return record.Int32Value(v.Int32())
	case record.Int64:
		return record.Int64Value(v.Int64())
	case record.Uint8:
		return record.Uint8Value(uint8(v.Uint32()))
	case record.Uint16:
		return record.Uint16Value(uint16(v.Uint32()))
	case record.Uint32:
		return record.Uint32Value(v.Uint32())
	case record.Uint64:
		return record.Uint64Value(v.Uint64())
	case record.Float32:
		return record.Float32Value(v.Float())
	case record.Float64:
		return record.Float64Value(v.Double())
	case record.Bool:
		return record.BoolValue(v.Boolean())
	case record.String:
		return record.StringValue(v.String())
	default:
		return record.Zero(k)
	}
}
