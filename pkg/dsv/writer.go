package dsv

import (
	"bufio"
	"fmt"
	"io"
	"os"

	"github.com/nharbeck/rowio/pkg/record"
)

// Writer writes typed records as delimited text. The header line is
// written on construction; each Append adds one row in schema order.
type Writer struct {
	writer *bufio.Writer
	file   *os.File // nil when writing to a caller-owned stream
	schema record.Schema
	delim  byte
	prec   int
	line   []byte // reusable row buffer
	count  uint64
	closed bool
}

// NewWriter writes records to w. The header line is written
// immediately. The caller keeps ownership of w; Close flushes but does
// not close it.
func NewWriter(w io.Writer, schema record.Schema, opts Options) (*Writer, error) {
	if schema.Len() == 0 {
		return nil, ErrNoColumns
	}
	delim, err := opts.delimiter()
	if err != nil {
		return nil, err
	}

	dw := &Writer{
		writer: bufio.NewWriter(w),
		schema: schema,
		delim:  delim,
		prec:   opts.precision(),
	}

	if err := dw.writeHeader(); err != nil {
		return nil, err
	}
	return dw, nil
}

// Create creates the file at path and writes records to it. Close
// flushes and closes the file.
func Create(path string, schema record.Schema, opts Options) (*Writer, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", path, err)
	}

	w, err := NewWriter(f, schema, opts)
	if err != nil {
		f.Close()
		os.Remove(path)
		return nil, err
	}
	w.file = f
	return w, nil
}

// CreateCSV creates a comma-separated file at path.
func CreateCSV(path string, schema record.Schema) (*Writer, error) {
	return Create(path, schema, Options{Delimiter: Comma})
}

// CreateTSV creates a tab-separated file at path.
func CreateTSV(path string, schema record.Schema) (*Writer, error) {
	return Create(path, schema, Options{Delimiter: Tab})
}

func (w *Writer) writeHeader() error {
	w.line = w.line[:0]
	for i, name := range w.schema.Names() {
		if i > 0 {
			w.line = append(w.line, w.delim)
		}
		w.line = append(w.line, name...)
	}
	w.line = append(w.line, '\n')

	if _, err := w.writer.Write(w.line); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	return nil
}

// Append writes one record as a row. The record's values must match the
// writer's schema in count and kinds.
func (w *Writer) Append(rec record.Source) error {
	values := rec.Values()
	if err := w.schema.Check(values); err != nil {
		return err
	}

	w.line = w.line[:0]
	for i, v := range values {
		if i > 0 {
			w.line = append(w.line, w.delim)
		}
		w.line = append(w.line, v.Format(w.prec)...)
	}
	w.line = append(w.line, '\n')

	if _, err := w.writer.Write(w.line); err != nil {
		return fmt.Errorf("write row: %w", err)
	}
	w.count++
	return nil
}

// Count returns the number of records written.
func (w *Writer) Count() uint64 {
	return w.count
}

// Schema returns the writer's schema.
func (w *Writer) Schema() record.Schema {
	return w.schema
}

// Flush writes buffered rows to the underlying stream.
func (w *Writer) Flush() error {
	if err := w.writer.Flush(); err != nil {
		return fmt.Errorf("flush: %w", err)
	}
	return nil
}

// Close flushes buffered rows and, for file-backed writers, closes the
// file. Closing twice is a no-op.
func (w *Writer) Close() error {
	if w.closed {
		return nil
	}
	w.closed = true

	if err := w.writer.Flush(); err != nil {
		if w.file != nil {
			w.file.Close()
		}
		return fmt.Errorf("flush: %w", err)
	}
	if w.file != nil {
		return w.file.Close()
	}
	return nil
}
