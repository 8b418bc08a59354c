package parquetio

import (
	"fmt"
	"io"
	"os"

	"github.com/parquet-go/parquet-go"

	"github.com/nharbeck/rowio/pkg/record"
)

// Writer appends records to a parquet file. All columns are required;
// records must match the schema the writer was created with.
type Writer struct {
	writer  *parquet.GenericWriter[any]
	file    *os.File
	schema  record.Schema
	fieldAt []int // leaf column index -> schema field index
	row     parquet.Row
	count   uint64
	closed  bool
}

// NewWriter returns a writer that encodes records to w. The caller
// keeps ownership of w.
func NewWriter(w io.Writer, schema record.Schema) (*Writer, error) {
	pq, err := buildSchema(schema)
	if err != nil {
		return nil, fmt.Errorf("build parquet schema: %w", err)
	}

	cols, err := resolveColumns(pq, schema)
	if err != nil {
		return nil, err
	}

	// Rows are emitted in leaf column order, which parquet sorts by
	// name. Invert the field -> column mapping so Append can walk
	// columns in order.
	fieldAt := make([]int, schema.Len())
	for i, col := range cols {
		fieldAt[col] = i
	}

	return &Writer{
		writer:  parquet.NewGenericWriter[any](w, pq),
		schema:  schema,
		fieldAt: fieldAt,
		row:     make(parquet.Row, 0, schema.Len()),
	}, nil
}

// Create creates the file at path and returns a writer that owns it.
func Create(path string, schema record.Schema) (*Writer, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("create parquet file: %w", err)
	}

	w, err := NewWriter(f, schema)
	if err != nil {
		f.Close()
		os.Remove(path)
		return nil, err
	}
	w.file = f
	return w, nil
}

// Append writes one record.
func (w *Writer) Append(rec record.Source) error {
	values := rec.Values()
	if err := w.schema.Check(values); err != nil {
		return err
	}

	w.row = w.row[:0]
	for col, field := range w.fieldAt {
		w.row = append(w.row, parquetValue(values[field]).Level(0, 0, col))
	}

	if _, err := w.writer.WriteRows([]parquet.Row{w.row}); err != nil {
		return fmt.Errorf("write parquet row: %w", err)
	}
	w.count++
	return nil
}

// Count returns the number of records appended so far.
func (w *Writer) Count() uint64 { return w.count }

// Schema returns the schema the writer encodes.
func (w *Writer) Schema() record.Schema { return w.schema }

// Close flushes buffered rows, writes the parquet footer, and closes
// the file if the writer owns one.
func (w *Writer) Close() error {
	if w.closed {
		return nil
	}
	w.closed = true

	if err := w.writer.Close(); err != nil {
		if w.file != nil {
			w.file.Close()
		}
		return fmt.Errorf("close parquet writer: %w", err)
	}
	if w.file != nil {
		if err := w.file.Close(); err != nil {
			return fmt.Errorf("close parquet file: %w", err)
		}
	}
	return nil
}
